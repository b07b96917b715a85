package interfaces

import (
	"context"
	"time"

	"github.com/devmon-lab/chreos/pkg/domain/model"
	"github.com/devmon-lab/chreos/pkg/domain/types"
)

// TechnicalDebt defines the interface for debt assessment operations
type TechnicalDebt interface {
	// CalculateTechnicalDebt assesses one product area as of now
	CalculateTechnicalDebt(ctx context.Context, org types.OrgID, area types.AreaID) (*model.TechnicalDebtResult, error)

	// CalculateTechnicalDebtAt assesses one product area as of a reference time
	CalculateTechnicalDebtAt(ctx context.Context, org types.OrgID, area types.AreaID, asOf time.Time) (*model.TechnicalDebtResult, error)

	// CalculateOrganizationTechnicalDebt assesses every registered product area
	CalculateOrganizationTechnicalDebt(ctx context.Context, org types.OrgID) ([]*model.TechnicalDebtResult, error)

	// StoreAnalysis persists one assessment result as a historical record
	StoreAnalysis(ctx context.Context, result *model.TechnicalDebtResult) (*model.StoredAnalysis, error)

	// RunOrganizationAnalysis assesses every area, optionally persisting the
	// results, and notifies critical areas in the background
	RunOrganizationAnalysis(ctx context.Context, org types.OrgID, store bool) ([]*model.StoredAnalysis, error)

	// GetHistoricalAnalysis returns stored analyses, newest first. An empty
	// area returns records for all areas of the organization
	GetHistoricalAnalysis(ctx context.Context, org types.OrgID, area types.AreaID, limit int) ([]*model.StoredAnalysis, error)

	// GenerateReport builds an organization-wide report with a narrative summary
	GenerateReport(ctx context.Context, org types.OrgID) (*model.DebtReport, error)
}

// Analytics defines the interface for cross-area analytics queries
type Analytics interface {
	// GetTicketBreakdown returns per-area ticket statistics within the given
	// bounds. Zero times leave the corresponding bound open
	GetTicketBreakdown(ctx context.Context, org types.OrgID, start, end time.Time) ([]*model.TicketBreakdown, error)

	// GetUsageCorrelation scores the relationship between ticket volume and
	// usage decline for every registered area
	GetUsageCorrelation(ctx context.Context, org types.OrgID) ([]*model.UsageCorrelation, error)

	// GetTrendAnalysis returns month-by-month trends per area over the given
	// number of months. Non-positive months falls back to the default window
	GetTrendAnalysis(ctx context.Context, org types.OrgID, months int) ([]*model.TrendAnalysis, error)
}

// Ingest defines the interface for ticket, usage and catalog writes
type Ingest interface {
	// CreateTicket registers a support ticket
	CreateTicket(ctx context.Context, org types.OrgID, area types.AreaID, severity types.Severity, title string, createdAt time.Time) (*model.Ticket, error)

	// ResolveTicket marks a ticket as resolved
	ResolveTicket(ctx context.Context, org types.OrgID, id types.TicketID, resolvedAt time.Time) (*model.Ticket, error)

	// ListTickets returns tickets for the organization, newest first. An empty
	// area returns all areas; a non-positive limit returns everything
	ListTickets(ctx context.Context, org types.OrgID, area types.AreaID, limit int) ([]*model.Ticket, error)

	// RecordUsage registers a product usage measurement
	RecordUsage(ctx context.Context, org types.OrgID, area types.AreaID, amount float64, recordedAt time.Time) (*model.UsageRecord, error)

	// UpsertProductArea registers or updates a product area in the catalog
	UpsertProductArea(ctx context.Context, area *model.ProductArea) error

	// ListProductAreas returns the registered areas of the organization
	ListProductAreas(ctx context.Context, org types.OrgID) ([]*model.ProductArea, error)
}
