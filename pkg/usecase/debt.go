package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/devmon-lab/chreos/pkg/domain/interfaces"
	"github.com/devmon-lab/chreos/pkg/domain/model"
	"github.com/devmon-lab/chreos/pkg/domain/types"
	"github.com/devmon-lab/chreos/pkg/metrics"
	insightSvc "github.com/devmon-lab/chreos/pkg/service/insight"
	"github.com/devmon-lab/chreos/pkg/utils/apperr"
	"github.com/devmon-lab/chreos/pkg/utils/async"
)

const (
	// ticketWindowDays is the assessment window for ticket counts and the
	// boundary between the current and previous usage periods
	ticketWindowDays = 30

	defaultHistoryLimit = 10
)

// TechnicalDebt implements interfaces.TechnicalDebt
type TechnicalDebt struct {
	repo     interfaces.Repository
	notifier interfaces.Notifier
	insight  *insightSvc.Service
}

// TechnicalDebtOption is a functional option for configuring TechnicalDebt
type TechnicalDebtOption func(*TechnicalDebt)

// WithNotifier enables notifications for critical assessment results
func WithNotifier(notifier interfaces.Notifier) TechnicalDebtOption {
	return func(u *TechnicalDebt) {
		u.notifier = notifier
	}
}

// WithInsight enables LLM-generated report narratives
func WithInsight(svc *insightSvc.Service) TechnicalDebtOption {
	return func(u *TechnicalDebt) {
		u.insight = svc
	}
}

// NewTechnicalDebt creates a new TechnicalDebt instance
func NewTechnicalDebt(repo interfaces.Repository, opts ...TechnicalDebtOption) *TechnicalDebt {
	uc := &TechnicalDebt{
		repo: repo,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// CalculateTechnicalDebt assesses one product area as of now
func (u *TechnicalDebt) CalculateTechnicalDebt(ctx context.Context, org types.OrgID, area types.AreaID) (*model.TechnicalDebtResult, error) {
	return u.CalculateTechnicalDebtAt(ctx, org, area, time.Now())
}

// CalculateTechnicalDebtAt assesses one product area as of a reference time.
// Tickets are counted over the trailing assessment window; current usage is
// the latest record at or before asOf, previous usage the latest record in
// the window before that.
func (u *TechnicalDebt) CalculateTechnicalDebtAt(ctx context.Context, org types.OrgID, area types.AreaID, asOf time.Time) (*model.TechnicalDebtResult, error) {
	if org == "" {
		return nil, goerr.New("organization is required")
	}
	if area == "" {
		return nil, goerr.New("product area is required")
	}

	windowStart := asOf.AddDate(0, 0, -ticketWindowDays)
	counts, err := u.repo.TicketCountsBySeverity(ctx, org, area, windowStart, asOf)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count tickets by severity",
			goerr.V("organization", org),
			goerr.V("area", area))
	}

	usage, err := u.usageMetricsAt(ctx, org, area, asOf)
	if err != nil {
		return nil, err
	}

	if problems := model.ValidateScoringInput(counts, usage); len(problems) > 0 {
		return nil, goerr.New("scoring input failed validation",
			goerr.V("organization", org),
			goerr.V("area", area),
			goerr.V("problems", problems))
	}

	isKey, err := u.isKeyModule(ctx, org, area)
	if err != nil {
		return nil, err
	}

	result := model.ComputeTechnicalDebt(org, area, counts, usage, isKey, asOf)
	metrics.AnalysesTotal.WithLabelValues(org.String()).Inc()

	ctxlog.From(ctx).Debug("Computed technical debt",
		"organization", org,
		"area", area,
		"score", result.DebtScore,
		"category", result.Category,
	)

	return result, nil
}

// CalculateOrganizationTechnicalDebt assesses every registered product area.
// A failure for one area is logged and skipped so one bad area cannot sink
// the whole run.
func (u *TechnicalDebt) CalculateOrganizationTechnicalDebt(ctx context.Context, org types.OrgID) ([]*model.TechnicalDebtResult, error) {
	if org == "" {
		return nil, goerr.New("organization is required")
	}

	start := time.Now()
	defer func() {
		metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	}()

	areas, err := u.repo.ListProductAreas(ctx, org)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list product areas",
			goerr.V("organization", org))
	}

	asOf := time.Now()
	results := make([]*model.TechnicalDebtResult, 0, len(areas))
	for _, area := range areas {
		result, err := u.CalculateTechnicalDebtAt(ctx, org, area.ID, asOf)
		if err != nil {
			apperr.Handle(ctx, goerr.Wrap(err, "skipping product area in organization assessment",
				goerr.V("organization", org),
				goerr.V("area", area.ID)))
			continue
		}
		results = append(results, result)
	}

	ctxlog.From(ctx).Info("Computed organization technical debt",
		"organization", org,
		"areas", len(areas),
		"results", len(results),
	)

	return results, nil
}

// StoreAnalysis persists one assessment result as a historical record
func (u *TechnicalDebt) StoreAnalysis(ctx context.Context, result *model.TechnicalDebtResult) (*model.StoredAnalysis, error) {
	analysis, err := model.NewStoredAnalysis(result)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build analysis record")
	}

	if err := u.repo.PutAnalysis(ctx, analysis); err != nil {
		return nil, goerr.Wrap(err, "failed to store analysis",
			goerr.V("organization", analysis.Organization),
			goerr.V("area", analysis.ProductArea))
	}

	return analysis, nil
}

// RunOrganizationAnalysis assesses every area of the organization, optionally
// persisting each result, and notifies critical areas in the background
func (u *TechnicalDebt) RunOrganizationAnalysis(ctx context.Context, org types.OrgID, store bool) ([]*model.StoredAnalysis, error) {
	results, err := u.CalculateOrganizationTechnicalDebt(ctx, org)
	if err != nil {
		return nil, err
	}

	analyses := make([]*model.StoredAnalysis, 0, len(results))
	for _, result := range results {
		var analysis *model.StoredAnalysis
		if store {
			analysis, err = u.StoreAnalysis(ctx, result)
		} else {
			analysis, err = model.NewStoredAnalysis(result)
		}
		if err != nil {
			apperr.Handle(ctx, err)
			continue
		}
		analyses = append(analyses, analysis)

		u.notifyCritical(ctx, result)
	}

	return analyses, nil
}

// GetHistoricalAnalysis returns stored analyses newest first. An empty area
// returns records for all areas of the organization.
func (u *TechnicalDebt) GetHistoricalAnalysis(ctx context.Context, org types.OrgID, area types.AreaID, limit int) ([]*model.StoredAnalysis, error) {
	if org == "" {
		return nil, goerr.New("organization is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	analyses, err := u.repo.ListAnalyses(ctx, org, area, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list analyses",
			goerr.V("organization", org),
			goerr.V("area", area))
	}

	return analyses, nil
}

// GenerateReport builds an organization-wide report with a narrative summary
func (u *TechnicalDebt) GenerateReport(ctx context.Context, org types.OrgID) (*model.DebtReport, error) {
	results, err := u.CalculateOrganizationTechnicalDebt(ctx, org)
	if err != nil {
		return nil, err
	}

	narrative := u.narrate(ctx, org, results)

	return &model.DebtReport{
		Organization:   org,
		Summary:        narrative.Summary,
		KeyFindings:    narrative.KeyFindings,
		SuggestedFocus: narrative.SuggestedFocus,
		Results:        results,
		GeneratedAt:    time.Now(),
	}, nil
}

// narrate produces the report narrative, falling back to the deterministic
// summary when no LLM client is configured or generation fails
func (u *TechnicalDebt) narrate(ctx context.Context, org types.OrgID, results []*model.TechnicalDebtResult) *insightSvc.Report {
	if u.insight == nil || len(results) == 0 {
		return insightSvc.FallbackReport(org, results)
	}

	report, err := u.insight.GenerateReport(ctx, org, results)
	if err != nil {
		apperr.Handle(ctx, goerr.Wrap(err, "report narrative generation failed, using fallback",
			goerr.V("organization", org)))
		return insightSvc.FallbackReport(org, results)
	}

	return report
}

func (u *TechnicalDebt) notifyCritical(ctx context.Context, result *model.TechnicalDebtResult) {
	if u.notifier == nil || result.Category != types.DebtCategoryCritical {
		return
	}

	async.Dispatch(ctx, func(ctx context.Context) error {
		if err := u.notifier.NotifyResult(ctx, result); err != nil {
			metrics.NotificationsTotal.WithLabelValues("failure").Inc()
			return goerr.Wrap(err, "failed to notify critical debt result",
				goerr.V("organization", result.Organization),
				goerr.V("area", result.ProductArea))
		}
		metrics.NotificationsTotal.WithLabelValues("success").Inc()
		return nil
	})
}

func (u *TechnicalDebt) usageMetricsAt(ctx context.Context, org types.OrgID, area types.AreaID, asOf time.Time) (model.UsageMetrics, error) {
	current, err := u.repo.LatestUsage(ctx, org, area, asOf)
	if err != nil {
		return model.UsageMetrics{}, goerr.Wrap(err, "failed to fetch current usage",
			goerr.V("organization", org),
			goerr.V("area", area))
	}

	previousStart := asOf.AddDate(0, 0, -2*ticketWindowDays)
	previousEnd := asOf.AddDate(0, 0, -ticketWindowDays)
	previous, err := u.repo.LatestUsageInWindow(ctx, org, area, previousStart, previousEnd)
	if err != nil {
		return model.UsageMetrics{}, goerr.Wrap(err, "failed to fetch previous usage",
			goerr.V("organization", org),
			goerr.V("area", area))
	}

	var currentAmount, previousAmount float64
	if current != nil {
		currentAmount = current.Amount
	}
	if previous != nil {
		previousAmount = previous.Amount
	}

	return model.NewUsageMetrics(currentAmount, previousAmount), nil
}

func (u *TechnicalDebt) isKeyModule(ctx context.Context, org types.OrgID, area types.AreaID) (bool, error) {
	record, err := u.repo.GetProductArea(ctx, org, area)
	if err != nil {
		// Unregistered areas are scored as standard modules
		if errors.Is(err, model.ErrAreaNotFound) {
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to look up product area",
			goerr.V("organization", org),
			goerr.V("area", area))
	}
	return record.IsKeyModule, nil
}
