package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/devmon-lab/chreos/pkg/domain/interfaces"
	"github.com/devmon-lab/chreos/pkg/domain/model"
	"github.com/devmon-lab/chreos/pkg/domain/types"
)

// Ingest implements interfaces.Ingest
type Ingest struct {
	repo interfaces.Repository
}

// NewIngest creates a new Ingest instance
func NewIngest(repo interfaces.Repository) *Ingest {
	return &Ingest{
		repo: repo,
	}
}

// CreateTicket registers a support ticket
func (u *Ingest) CreateTicket(ctx context.Context, org types.OrgID, area types.AreaID, severity types.Severity, title string, createdAt time.Time) (*model.Ticket, error) {
	ticket, err := model.NewTicket(org, area, severity, title, createdAt)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build ticket")
	}

	if err := u.repo.PutTicket(ctx, ticket); err != nil {
		return nil, goerr.Wrap(err, "failed to store ticket",
			goerr.V("organization", org),
			goerr.V("area", area))
	}

	ctxlog.From(ctx).Info("Created ticket",
		"ticketID", ticket.ID,
		"organization", org,
		"area", area,
		"severity", severity,
	)

	return ticket, nil
}

// ResolveTicket marks a ticket as resolved. A zero resolvedAt resolves at now.
func (u *Ingest) ResolveTicket(ctx context.Context, org types.OrgID, id types.TicketID, resolvedAt time.Time) (*model.Ticket, error) {
	ticket, err := u.repo.GetTicket(ctx, org, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get ticket",
			goerr.V("organization", org),
			goerr.V("ticketID", id))
	}

	if resolvedAt.IsZero() {
		resolvedAt = time.Now()
	}
	if err := ticket.Resolve(resolvedAt); err != nil {
		return nil, err
	}

	if err := u.repo.PutTicket(ctx, ticket); err != nil {
		return nil, goerr.Wrap(err, "failed to store resolved ticket",
			goerr.V("ticketID", id))
	}

	ctxlog.From(ctx).Info("Resolved ticket",
		"ticketID", ticket.ID,
		"organization", org,
		"resolutionDays", ticket.ResolutionDays(),
	)

	return ticket, nil
}

// ListTickets returns tickets for the organization, newest first. An empty
// area returns all areas; a non-positive limit returns everything.
func (u *Ingest) ListTickets(ctx context.Context, org types.OrgID, area types.AreaID, limit int) ([]*model.Ticket, error) {
	if org == "" {
		return nil, goerr.New("organization is required")
	}

	tickets, err := u.repo.ListTickets(ctx, org, time.Time{}, time.Time{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tickets",
			goerr.V("organization", org))
	}

	if area != "" {
		filtered := tickets[:0]
		for _, t := range tickets {
			if t.ProductArea == area {
				filtered = append(filtered, t)
			}
		}
		tickets = filtered
	}
	if limit > 0 && len(tickets) > limit {
		tickets = tickets[:limit]
	}

	return tickets, nil
}

// RecordUsage registers a product usage measurement
func (u *Ingest) RecordUsage(ctx context.Context, org types.OrgID, area types.AreaID, amount float64, recordedAt time.Time) (*model.UsageRecord, error) {
	record, err := model.NewUsageRecord(org, area, amount, recordedAt)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build usage record")
	}

	if err := u.repo.PutUsageRecord(ctx, record); err != nil {
		return nil, goerr.Wrap(err, "failed to store usage record",
			goerr.V("organization", org),
			goerr.V("area", area))
	}

	ctxlog.From(ctx).Info("Recorded usage",
		"recordID", record.ID,
		"organization", org,
		"area", area,
		"amount", amount,
	)

	return record, nil
}

// UpsertProductArea registers or updates a product area in the catalog
func (u *Ingest) UpsertProductArea(ctx context.Context, area *model.ProductArea) error {
	if area == nil {
		return goerr.New("product area is required")
	}
	if area.Organization == "" {
		return goerr.New("organization is required")
	}
	if err := area.Validate(); err != nil {
		return err
	}

	if err := u.repo.PutProductArea(ctx, area); err != nil {
		return goerr.Wrap(err, "failed to store product area",
			goerr.V("organization", area.Organization),
			goerr.V("area", area.ID))
	}

	ctxlog.From(ctx).Info("Upserted product area",
		"organization", area.Organization,
		"area", area.ID,
		"keyModule", area.IsKeyModule,
	)

	return nil
}

// ListProductAreas returns the registered areas of the organization
func (u *Ingest) ListProductAreas(ctx context.Context, org types.OrgID) ([]*model.ProductArea, error) {
	if org == "" {
		return nil, goerr.New("organization is required")
	}

	areas, err := u.repo.ListProductAreas(ctx, org)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list product areas",
			goerr.V("organization", org))
	}

	return areas, nil
}

// SeedAreas loads a catalog of product areas into the repository. Existing
// entries with the same ID are overwritten.
func (u *Ingest) SeedAreas(ctx context.Context, catalog *model.AreasConfig) error {
	if catalog == nil {
		return nil
	}
	if err := catalog.Validate(); err != nil {
		return goerr.Wrap(err, "invalid product area catalog")
	}

	seeded := 0
	for _, entry := range catalog.Organizations {
		for _, area := range catalog.AreasFor(entry.Organization) {
			a := area
			if err := u.repo.PutProductArea(ctx, &a); err != nil {
				return goerr.Wrap(err, "failed to seed product area",
					goerr.V("organization", entry.Organization),
					goerr.V("area", a.ID))
			}
			seeded++
		}
	}

	ctxlog.From(ctx).Info("Seeded product area catalog",
		"organizations", len(catalog.Organizations),
		"areas", seeded,
	)

	return nil
}
