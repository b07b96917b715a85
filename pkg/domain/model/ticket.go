package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/devmon-lab/chreos/pkg/domain/types"
)

// Ticket represents a support ticket reported against a product area
type Ticket struct {
	ID           types.TicketID `json:"id"`
	Organization types.OrgID    `json:"organization"`
	ProductArea  types.AreaID   `json:"productArea"`
	Severity     types.Severity `json:"severity"`
	Title        string         `json:"title"`
	CreatedAt    time.Time      `json:"createdAt"`
	ResolvedAt   *time.Time     `json:"resolvedAt,omitempty"`
}

// NewTicket creates a new Ticket instance
func NewTicket(org types.OrgID, area types.AreaID, severity types.Severity, title string, createdAt time.Time) (*Ticket, error) {
	if org == "" {
		return nil, goerr.New("organization is required")
	}
	if area == "" {
		return nil, goerr.New("product area is required")
	}
	if !severity.IsValid() {
		return nil, goerr.New("invalid severity", goerr.V("severity", severity))
	}
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return &Ticket{
		ID:           types.NewTicketID(),
		Organization: org,
		ProductArea:  area,
		Severity:     severity,
		Title:        title,
		CreatedAt:    createdAt,
	}, nil
}

// Resolve marks the ticket as resolved at the given time
func (t *Ticket) Resolve(at time.Time) error {
	if t.ResolvedAt != nil {
		return goerr.New("ticket is already resolved", goerr.V("ticketID", t.ID))
	}
	if at.Before(t.CreatedAt) {
		return goerr.New("resolution time precedes creation time",
			goerr.V("createdAt", t.CreatedAt),
			goerr.V("resolvedAt", at))
	}
	t.ResolvedAt = &at
	return nil
}

// IsResolved reports whether the ticket has a resolution timestamp
func (t *Ticket) IsResolved() bool {
	return t.ResolvedAt != nil
}

// ResolutionDays returns the time between creation and resolution in days.
// Returns 0 when the ticket is still open.
func (t *Ticket) ResolutionDays() float64 {
	if t.ResolvedAt == nil {
		return 0
	}
	return t.ResolvedAt.Sub(t.CreatedAt).Hours() / 24
}

// TicketCounts holds per-severity ticket counts for one product area
type TicketCounts struct {
	Critical int `json:"CRITICAL"`
	Severe   int `json:"SEVERE"`
	Moderate int `json:"MODERATE"`
	Low      int `json:"LOW"`
}

// Count returns the count for the given severity
func (c TicketCounts) Count(severity types.Severity) int {
	switch severity {
	case types.SeverityCritical:
		return c.Critical
	case types.SeveritySevere:
		return c.Severe
	case types.SeverityModerate:
		return c.Moderate
	case types.SeverityLow:
		return c.Low
	default:
		return 0
	}
}

// Add increments the count for the given severity
func (c *TicketCounts) Add(severity types.Severity) {
	switch severity {
	case types.SeverityCritical:
		c.Critical++
	case types.SeveritySevere:
		c.Severe++
	case types.SeverityModerate:
		c.Moderate++
	case types.SeverityLow:
		c.Low++
	}
}

// Total returns the number of tickets across all severities
func (c TicketCounts) Total() int {
	return c.Critical + c.Severe + c.Moderate + c.Low
}
