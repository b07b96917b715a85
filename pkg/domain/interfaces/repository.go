package interfaces

import (
	"context"
	"time"

	"github.com/devmon-lab/chreos/pkg/domain/model"
	"github.com/devmon-lab/chreos/pkg/domain/types"
)

// Repository defines the interface for data persistence
type Repository interface {
	// Ticket operations
	PutTicket(ctx context.Context, ticket *model.Ticket) error
	GetTicket(ctx context.Context, org types.OrgID, id types.TicketID) (*model.Ticket, error)
	// ListTickets returns tickets for the organization created within
	// [start, end]. A zero start or end leaves that side unbounded.
	ListTickets(ctx context.Context, org types.OrgID, start, end time.Time) ([]*model.Ticket, error)
	// TicketCountsBySeverity counts tickets per severity for one product
	// area created within [start, end].
	TicketCountsBySeverity(ctx context.Context, org types.OrgID, area types.AreaID, start, end time.Time) (model.TicketCounts, error)

	// Usage operations
	PutUsageRecord(ctx context.Context, record *model.UsageRecord) error
	// LatestUsage returns the most recent usage record at or before the
	// given time, or nil when none exists.
	LatestUsage(ctx context.Context, org types.OrgID, area types.AreaID, atOrBefore time.Time) (*model.UsageRecord, error)
	// LatestUsageInWindow returns the most recent usage record within
	// [start, end), or nil when none exists.
	LatestUsageInWindow(ctx context.Context, org types.OrgID, area types.AreaID, start, end time.Time) (*model.UsageRecord, error)

	// Product area catalog operations
	PutProductArea(ctx context.Context, area *model.ProductArea) error
	GetProductArea(ctx context.Context, org types.OrgID, id types.AreaID) (*model.ProductArea, error)
	// ListProductAreas returns the organization's areas ordered by ID
	ListProductAreas(ctx context.Context, org types.OrgID) ([]*model.ProductArea, error)

	// Analysis history operations
	PutAnalysis(ctx context.Context, analysis *model.StoredAnalysis) error
	// ListAnalyses returns up to limit history rows newest first,
	// optionally filtered to one product area (empty area = all)
	ListAnalyses(ctx context.Context, org types.OrgID, area types.AreaID, limit int) ([]*model.StoredAnalysis, error)
	// ListAnalysesSince returns all history rows analyzed at or after
	// the given time
	ListAnalysesSince(ctx context.Context, org types.OrgID, since time.Time) ([]*model.StoredAnalysis, error)

	// Close closes the repository connection
	Close() error
}
