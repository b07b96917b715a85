package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/devmon-lab/chreos/pkg/domain/interfaces"
	"github.com/devmon-lab/chreos/pkg/domain/model"
	"github.com/devmon-lab/chreos/pkg/domain/types"
)

const (
	// Collection names
	ticketsCollection  = "tickets"
	usageCollection    = "usage_records"
	areasCollection    = "product_areas"
	analysesCollection = "analyses"
)

// Firestore implements Repository interface with Firestore
type Firestore struct {
	client *firestore.Client
}

// NewFirestore creates a new Firestore repository
func NewFirestore(ctx context.Context, projectID, databaseID string) (interfaces.Repository, error) {
	logger := ctxlog.From(ctx)

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}

	// Test connection by attempting to read from a collection.
	// This fails fast on an invalid project ID or missing permissions.
	_, err = client.Collection(ticketsCollection).Limit(1).Documents(ctx).Next()
	if err != nil && err != iterator.Done {
		if status.Code(err) == codes.PermissionDenied || status.Code(err) == codes.Unauthenticated {
			_ = client.Close()
			return nil, goerr.Wrap(err, "failed to connect to firestore project",
				goerr.V("firestore error code", status.Code(err).String()),
			)
		}
		// Other errors (like NotFound for new projects) may just mean an
		// empty collection, log and continue
		logger.Debug("Firestore connection test returned error (may be empty collection)",
			"error", err,
			"errorCode", status.Code(err).String(),
		)
	}

	logger.Info("Firestore repository initialized successfully",
		"projectID", projectID,
		"databaseID", databaseID,
	)

	return &Firestore{
		client: client,
	}, nil
}

// PutTicket saves a ticket to Firestore
func (f *Firestore) PutTicket(ctx context.Context, ticket *model.Ticket) error {
	if ticket == nil {
		return goerr.New("ticket is nil")
	}
	if ticket.ID == "" {
		return goerr.New("ticket ID is empty")
	}

	_, err := f.client.Collection(ticketsCollection).Doc(ticket.ID.String()).Set(ctx, ticket)
	if err != nil {
		return goerr.Wrap(err, "failed to save ticket to firestore")
	}

	return nil
}

// GetTicket retrieves a ticket by ID
func (f *Firestore) GetTicket(ctx context.Context, org types.OrgID, id types.TicketID) (*model.Ticket, error) {
	if id == "" {
		return nil, goerr.New("ticket ID is empty")
	}

	doc, err := f.client.Collection(ticketsCollection).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrTicketNotFound, "ticket not found in firestore",
				goerr.V("ticketID", id))
		}
		return nil, goerr.Wrap(err, "failed to get ticket from firestore")
	}

	var ticket model.Ticket
	if err := doc.DataTo(&ticket); err != nil {
		return nil, goerr.Wrap(err, "failed to decode ticket")
	}

	if ticket.Organization != org {
		return nil, goerr.Wrap(model.ErrTicketNotFound, "ticket belongs to another organization",
			goerr.V("ticketID", id))
	}

	return &ticket, nil
}

// ListTickets lists tickets for an organization within a creation time range
func (f *Firestore) ListTickets(ctx context.Context, org types.OrgID, start, end time.Time) ([]*model.Ticket, error) {
	if org == "" {
		return nil, goerr.New("organization is empty")
	}

	// Single equality filter to avoid requiring a composite index,
	// time range and ordering are applied in memory
	query := f.client.Collection(ticketsCollection).
		Where("Organization", "==", org.String())

	iter := query.Documents(ctx)
	defer iter.Stop()

	var tickets []*model.Ticket
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate tickets")
		}

		var ticket model.Ticket
		if err := doc.DataTo(&ticket); err != nil {
			return nil, goerr.Wrap(err, "failed to decode ticket")
		}

		if !start.IsZero() && ticket.CreatedAt.Before(start) {
			continue
		}
		if !end.IsZero() && ticket.CreatedAt.After(end) {
			continue
		}

		tickets = append(tickets, &ticket)
	}

	// Sort by creation time (newest first)
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})

	return tickets, nil
}

// TicketCountsBySeverity counts tickets per severity for one product area
func (f *Firestore) TicketCountsBySeverity(ctx context.Context, org types.OrgID, area types.AreaID, start, end time.Time) (model.TicketCounts, error) {
	var counts model.TicketCounts
	if org == "" {
		return counts, goerr.New("organization is empty")
	}
	if area == "" {
		return counts, goerr.New("product area is empty")
	}

	tickets, err := f.ListTickets(ctx, org, start, end)
	if err != nil {
		return counts, err
	}

	for _, ticket := range tickets {
		if ticket.ProductArea != area {
			continue
		}
		counts.Add(ticket.Severity)
	}

	return counts, nil
}

// PutUsageRecord saves a usage record to Firestore
func (f *Firestore) PutUsageRecord(ctx context.Context, record *model.UsageRecord) error {
	if record == nil {
		return goerr.New("usage record is nil")
	}
	if record.ID == "" {
		return goerr.New("usage record ID is empty")
	}

	_, err := f.client.Collection(usageCollection).Doc(record.ID.String()).Set(ctx, record)
	if err != nil {
		return goerr.Wrap(err, "failed to save usage record to firestore")
	}

	return nil
}

// listUsage fetches all usage records for one product area
func (f *Firestore) listUsage(ctx context.Context, org types.OrgID, area types.AreaID) ([]*model.UsageRecord, error) {
	query := f.client.Collection(usageCollection).
		Where("Organization", "==", org.String())

	iter := query.Documents(ctx)
	defer iter.Stop()

	var records []*model.UsageRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate usage records")
		}

		var record model.UsageRecord
		if err := doc.DataTo(&record); err != nil {
			return nil, goerr.Wrap(err, "failed to decode usage record")
		}

		if record.ProductArea != area {
			continue
		}
		records = append(records, &record)
	}

	return records, nil
}

// LatestUsage returns the most recent usage record at or before the given time
func (f *Firestore) LatestUsage(ctx context.Context, org types.OrgID, area types.AreaID, atOrBefore time.Time) (*model.UsageRecord, error) {
	if org == "" {
		return nil, goerr.New("organization is empty")
	}
	if area == "" {
		return nil, goerr.New("product area is empty")
	}

	records, err := f.listUsage(ctx, org, area)
	if err != nil {
		return nil, err
	}

	var latest *model.UsageRecord
	for _, record := range records {
		if record.RecordedAt.After(atOrBefore) {
			continue
		}
		if latest == nil || record.RecordedAt.After(latest.RecordedAt) {
			latest = record
		}
	}

	return latest, nil
}

// LatestUsageInWindow returns the most recent usage record within [start, end)
func (f *Firestore) LatestUsageInWindow(ctx context.Context, org types.OrgID, area types.AreaID, start, end time.Time) (*model.UsageRecord, error) {
	if org == "" {
		return nil, goerr.New("organization is empty")
	}
	if area == "" {
		return nil, goerr.New("product area is empty")
	}

	records, err := f.listUsage(ctx, org, area)
	if err != nil {
		return nil, err
	}

	var latest *model.UsageRecord
	for _, record := range records {
		if record.RecordedAt.Before(start) || !record.RecordedAt.Before(end) {
			continue
		}
		if latest == nil || record.RecordedAt.After(latest.RecordedAt) {
			latest = record
		}
	}

	return latest, nil
}

// areaDocID builds the document ID for a product area
func areaDocID(org types.OrgID, id types.AreaID) string {
	return org.String() + ":" + id.String()
}

// PutProductArea saves a product area to Firestore
func (f *Firestore) PutProductArea(ctx context.Context, area *model.ProductArea) error {
	if area == nil {
		return goerr.New("product area is nil")
	}
	if area.Organization == "" {
		return goerr.New("organization is empty")
	}
	if area.ID == "" {
		return goerr.New("product area ID is empty")
	}

	docID := areaDocID(area.Organization, area.ID)
	_, err := f.client.Collection(areasCollection).Doc(docID).Set(ctx, area)
	if err != nil {
		return goerr.Wrap(err, "failed to save product area to firestore")
	}

	return nil
}

// GetProductArea retrieves a product area by organization and ID
func (f *Firestore) GetProductArea(ctx context.Context, org types.OrgID, id types.AreaID) (*model.ProductArea, error) {
	if org == "" {
		return nil, goerr.New("organization is empty")
	}
	if id == "" {
		return nil, goerr.New("product area ID is empty")
	}

	doc, err := f.client.Collection(areasCollection).Doc(areaDocID(org, id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrAreaNotFound, "product area not found in firestore",
				goerr.V("organization", org),
				goerr.V("areaID", id))
		}
		return nil, goerr.Wrap(err, "failed to get product area from firestore")
	}

	var area model.ProductArea
	if err := doc.DataTo(&area); err != nil {
		return nil, goerr.Wrap(err, "failed to decode product area")
	}

	return &area, nil
}

// ListProductAreas lists an organization's product areas ordered by ID
func (f *Firestore) ListProductAreas(ctx context.Context, org types.OrgID) ([]*model.ProductArea, error) {
	if org == "" {
		return nil, goerr.New("organization is empty")
	}

	query := f.client.Collection(areasCollection).
		Where("Organization", "==", org.String())

	iter := query.Documents(ctx)
	defer iter.Stop()

	var areas []*model.ProductArea
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate product areas")
		}

		var area model.ProductArea
		if err := doc.DataTo(&area); err != nil {
			return nil, goerr.Wrap(err, "failed to decode product area")
		}

		areas = append(areas, &area)
	}

	sort.Slice(areas, func(i, j int) bool {
		return areas[i].ID < areas[j].ID
	})

	return areas, nil
}

// PutAnalysis appends an analysis history row
func (f *Firestore) PutAnalysis(ctx context.Context, analysis *model.StoredAnalysis) error {
	if analysis == nil {
		return goerr.New("analysis is nil")
	}
	if analysis.ID == "" {
		return goerr.New("analysis ID is empty")
	}

	_, err := f.client.Collection(analysesCollection).Doc(analysis.ID.String()).Set(ctx, analysis)
	if err != nil {
		return goerr.Wrap(err, "failed to save analysis to firestore")
	}

	return nil
}

// listAnalysesByOrg fetches all history rows for an organization
func (f *Firestore) listAnalysesByOrg(ctx context.Context, org types.OrgID) ([]*model.StoredAnalysis, error) {
	query := f.client.Collection(analysesCollection).
		Where("Organization", "==", org.String())

	iter := query.Documents(ctx)
	defer iter.Stop()

	var analyses []*model.StoredAnalysis
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate analyses")
		}

		var analysis model.StoredAnalysis
		if err := doc.DataTo(&analysis); err != nil {
			return nil, goerr.Wrap(err, "failed to decode analysis")
		}

		analyses = append(analyses, &analysis)
	}

	return analyses, nil
}

// ListAnalyses lists history rows newest first with an optional area filter
func (f *Firestore) ListAnalyses(ctx context.Context, org types.OrgID, area types.AreaID, limit int) ([]*model.StoredAnalysis, error) {
	if org == "" {
		return nil, goerr.New("organization is empty")
	}

	all, err := f.listAnalysesByOrg(ctx, org)
	if err != nil {
		return nil, err
	}

	var analyses []*model.StoredAnalysis
	for _, analysis := range all {
		if area != "" && analysis.ProductArea != area {
			continue
		}
		analyses = append(analyses, analysis)
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
func (f *Firestore) ListAnalysesSince(ctx context.Context, org types.OrgID, since time.Time) ([]*model.StoredAnalysis, error) {
	if org == "" {
		return nil, goerr.New("organization is empty")
	}

	all, err := f.listAnalysesByOrg(ctx, org)
	if err != nil {
		return nil, err
	}

	var analyses []*model.StoredAnalysis
	for _, analysis := range all {
		if analysis.AnalyzedAt.Before(since) {
			continue
		}
		analyses = append(analyses, analysis)
	}

	sort.Slice(analyses, func(i, j int) bool {
		return analyses[i].AnalyzedAt.Before(analyses[j].AnalyzedAt)
	})

	return analyses, nil
}

// Close closes the Firestore client
func (f *Firestore) Close() error {
	if f.client != nil {
		if err := f.client.Close(); err != nil {
			return goerr.Wrap(err, "failed to close firestore client")
		}
	}
	return nil
}

var _ interfaces.Repository = (*Firestore)(nil) // Compile-time interface check
