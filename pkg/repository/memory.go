package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/devmon-lab/chreos/pkg/domain/interfaces"
	"github.com/devmon-lab/chreos/pkg/domain/model"
	"github.com/devmon-lab/chreos/pkg/domain/types"
)

// Memory implements Repository interface with in-memory storage
type Memory struct {
	mu       sync.RWMutex
	tickets  map[types.TicketID]*model.Ticket
	usage    map[types.UsageRecordID]*model.UsageRecord
	areas    map[string]*model.ProductArea
	analyses []*model.StoredAnalysis
}

// NewMemory creates a new memory repository
func NewMemory() interfaces.Repository {
	return &Memory{
		tickets: make(map[types.TicketID]*model.Ticket),
		usage:   make(map[types.UsageRecordID]*model.UsageRecord),
		areas:   make(map[string]*model.ProductArea),
	}
}

// areaKey builds the composite map key for a product area
func areaKey(org types.OrgID, id types.AreaID) string {
	return org.String() + ":" + id.String()
}

// PutTicket saves a ticket to memory
func (m *Memory) PutTicket(ctx context.Context, ticket *model.Ticket) error {
	if ticket == nil {
		return goerr.New("ticket is nil")
	}
	if ticket.ID == "" {
		return goerr.New("ticket ID is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ticketCopy := *ticket
	m.tickets[ticket.ID] = &ticketCopy
	return nil
}

// GetTicket retrieves a ticket by ID
func (m *Memory) GetTicket(ctx context.Context, org types.OrgID, id types.TicketID) (*model.Ticket, error) {
	if id == "" {
		return nil, goerr.New("ticket ID is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ticket, exists := m.tickets[id]
	if !exists || ticket.Organization != org {
		return nil, goerr.Wrap(model.ErrTicketNotFound, "ticket not found in memory",
			goerr.V("ticketID", id))
	}

	// Return a copy to prevent external modification
	ticketCopy := *ticket
	return &ticketCopy, nil
}

// ListTickets lists tickets for an organization within a creation time range
func (m *Memory) ListTickets(ctx context.Context, org types.OrgID, start, end time.Time) ([]*model.Ticket, error) {
	if org == "" {
		return nil, goerr.New("organization is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var tickets []*model.Ticket
	for _, ticket := range m.tickets {
		if ticket.Organization != org {
			continue
		}
		if !start.IsZero() && ticket.CreatedAt.Before(start) {
			continue
		}
		if !end.IsZero() && ticket.CreatedAt.After(end) {
			continue
		}
		ticketCopy := *ticket
		tickets = append(tickets, &ticketCopy)
	}

	// Sort by creation time (newest first)
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})

	return tickets, nil
}

// TicketCountsBySeverity counts tickets per severity for one product area
func (m *Memory) TicketCountsBySeverity(ctx context.Context, org types.OrgID, area types.AreaID, start, end time.Time) (model.TicketCounts, error) {
	var counts model.TicketCounts
	if org == "" {
		return counts, goerr.New("organization is empty")
	}
	if area == "" {
		return counts, goerr.New("product area is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, ticket := range m.tickets {
		if ticket.Organization != org || ticket.ProductArea != area {
			continue
		}
		if ticket.CreatedAt.Before(start) || ticket.CreatedAt.After(end) {
			continue
		}
		counts.Add(ticket.Severity)
	}

	return counts, nil
}

// PutUsageRecord saves a usage record to memory
func (m *Memory) PutUsageRecord(ctx context.Context, record *model.UsageRecord) error {
	if record == nil {
		return goerr.New("usage record is nil")
	}
	if record.ID == "" {
		return goerr.New("usage record ID is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	recordCopy := *record
	m.usage[record.ID] = &recordCopy
	return nil
}

// LatestUsage returns the most recent usage record at or before the given time
func (m *Memory) LatestUsage(ctx context.Context, org types.OrgID, area types.AreaID, atOrBefore time.Time) (*model.UsageRecord, error) {
	if org == "" {
		return nil, goerr.New("organization is empty")
	}
	if area == "" {
		return nil, goerr.New("product area is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *model.UsageRecord
	for _, record := range m.usage {
		if record.Organization != org || record.ProductArea != area {
			continue
		}
		if record.RecordedAt.After(atOrBefore) {
			continue
		}
		if latest == nil || record.RecordedAt.After(latest.RecordedAt) {
			latest = record
		}
	}

	if latest == nil {
		return nil, nil
	}
	latestCopy := *latest
	return &latestCopy, nil
}

// LatestUsageInWindow returns the most recent usage record within [start, end)
func (m *Memory) LatestUsageInWindow(ctx context.Context, org types.OrgID, area types.AreaID, start, end time.Time) (*model.UsageRecord, error) {
	if org == "" {
		return nil, goerr.New("organization is empty")
	}
	if area == "" {
		return nil, goerr.New("product area is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *model.UsageRecord
	for _, record := range m.usage {
		if record.Organization != org || record.ProductArea != area {
			continue
		}
		if record.RecordedAt.Before(start) || !record.RecordedAt.Before(end) {
			continue
		}
		if latest == nil || record.RecordedAt.After(latest.RecordedAt) {
			latest = record
		}
	}

	if latest == nil {
		return nil, nil
	}
	latestCopy := *latest
	return &latestCopy, nil
}

// PutProductArea saves a product area to memory
func (m *Memory) PutProductArea(ctx context.Context, area *model.ProductArea) error {
	if area == nil {
		return goerr.New("product area is nil")
	}
	if area.Organization == "" {
		return goerr.New("organization is empty")
	}
	if area.ID == "" {
		return goerr.New("product area ID is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	areaCopy := *area
	m.areas[areaKey(area.Organization, area.ID)] = &areaCopy
	return nil
}

// GetProductArea retrieves a product area by organization and ID
func (m *Memory) GetProductArea(ctx context.Context, org types.OrgID, id types.AreaID) (*model.ProductArea, error) {
	if org == "" {
		return nil, goerr.New("organization is empty")
	}
	if id == "" {
		return nil, goerr.New("product area ID is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	area, exists := m.areas[areaKey(org, id)]
	if !exists {
		return nil, goerr.Wrap(model.ErrAreaNotFound, "product area not found in memory",
			goerr.V("organization", org),
			goerr.V("areaID", id))
	}

	areaCopy := *area
	return &areaCopy, nil
}

// ListProductAreas lists an organization's product areas ordered by ID
func (m *Memory) ListProductAreas(ctx context.Context, org types.OrgID) ([]*model.ProductArea, error) {
	if org == "" {
		return nil, goerr.New("organization is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var areas []*model.ProductArea
	for _, area := range m.areas {
		if area.Organization != org {
			continue
		}
		areaCopy := *area
		areas = append(areas, &areaCopy)
	}

	sort.Slice(areas, func(i, j int) bool {
		return areas[i].ID < areas[j].ID
	})

	return areas, nil
}

// PutAnalysis appends an analysis history row
func (m *Memory) PutAnalysis(ctx context.Context, analysis *model.StoredAnalysis) error {
	if analysis == nil {
		return goerr.New("analysis is nil")
	}
	if analysis.ID == "" {
		return goerr.New("analysis ID is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	analysisCopy := *analysis
	m.analyses = append(m.analyses, &analysisCopy)
	return nil
}

// ListAnalyses lists history rows newest first with an optional area filter
func (m *Memory) ListAnalyses(ctx context.Context, org types.OrgID, area types.AreaID, limit int) ([]*model.StoredAnalysis, error) {
	if org == "" {
		return nil, goerr.New("organization is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var analyses []*model.StoredAnalysis
	for _, analysis := range m.analyses {
		if analysis.Organization != org {
			continue
		}
		if area != "" && analysis.ProductArea != area {
			continue
		}
		analysisCopy := *analysis
		analyses = append(analyses, &analysisCopy)
	}

	// Sort by analysis time (newest first)
	sort.Slice(analyses, func(i, j int) bool {
		return analyses[i].AnalyzedAt.After(analyses[j].AnalyzedAt)
	})

	if limit > 0 && len(analyses) > limit {
		analyses = analyses[:limit]
	}

	return analyses, nil
}

// ListAnalysesSince lists history rows analyzed at or after the given time,
// oldest first
func (m *Memory) ListAnalysesSince(ctx context.Context, org types.OrgID, since time.Time) ([]*model.StoredAnalysis, error) {
	if org == "" {
		return nil, goerr.New("organization is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var analyses []*model.StoredAnalysis
	for _, analysis := range m.analyses {
		if analysis.Organization != org {
			continue
		}
		if analysis.AnalyzedAt.Before(since) {
			continue
		}
		analysisCopy := *analysis
		analyses = append(analyses, &analysisCopy)
	}

	sort.Slice(analyses, func(i, j int) bool {
		return analyses[i].AnalyzedAt.Before(analyses[j].AnalyzedAt)
	})

	return analyses, nil
}

// Close is a no-op for memory repository
func (m *Memory) Close() error {
	return nil
}

var _ interfaces.Repository = (*Memory)(nil) // Compile-time interface check
