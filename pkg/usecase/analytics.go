package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/devmon-lab/chreos/pkg/domain/interfaces"
	"github.com/devmon-lab/chreos/pkg/domain/model"
	"github.com/devmon-lab/chreos/pkg/domain/types"
	"github.com/devmon-lab/chreos/pkg/metrics"
	cacheSvc "github.com/devmon-lab/chreos/pkg/service/cache"
	"github.com/devmon-lab/chreos/pkg/utils/apperr"
)

const (
	defaultTrendMonths = 6
	analyticsCacheTTL  = 5 * time.Minute
)

// Analytics implements interfaces.Analytics
type Analytics struct {
	repo  interfaces.Repository
	cache cacheSvc.Store
}

// AnalyticsOption is a functional option for configuring Analytics
type AnalyticsOption func(*Analytics)

// WithCache enables short-lived response caching for analytics queries
func WithCache(store cacheSvc.Store) AnalyticsOption {
	return func(u *Analytics) {
		u.cache = store
	}
}

// NewAnalytics creates a new Analytics instance
func NewAnalytics(repo interfaces.Repository, opts ...AnalyticsOption) *Analytics {
	uc := &Analytics{
		repo: repo,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// GetTicketBreakdown returns per-area ticket statistics within the given
// bounds, ordered by total ticket count descending. Zero times leave the
// corresponding bound open.
func (u *Analytics) GetTicketBreakdown(ctx context.Context, org types.OrgID, start, end time.Time) ([]*model.TicketBreakdown, error) {
	if org == "" {
		return nil, goerr.New("organization is required")
	}

	cacheKey := fmt.Sprintf("breakdown:%s:%d:%d", org, start.Unix(), end.Unix())
	var cached []*model.TicketBreakdown
	if u.fromCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	tickets, err := u.repo.ListTickets(ctx, org, start, end)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tickets",
			goerr.V("organization", org))
	}

	type accum struct {
		counts        model.TicketCounts
		resolvedDays  float64
		resolvedCount int
	}
	byArea := make(map[types.AreaID]*accum)
	for _, t := range tickets {
		a := byArea[t.ProductArea]
		if a == nil {
			a = &accum{}
			byArea[t.ProductArea] = a
		}
		a.counts.Add(t.Severity)
		if t.IsResolved() {
			a.resolvedDays += t.ResolutionDays()
			a.resolvedCount++
		}
	}

	breakdowns := make([]*model.TicketBreakdown, 0, len(byArea))
	for area, a := range byArea {
		breakdown := &model.TicketBreakdown{
			ProductArea:    area,
			SeverityCounts: a.counts,
			TotalTickets:   a.counts.Total(),
		}
		if a.resolvedCount > 0 {
			avg := int(math.Round(a.resolvedDays / float64(a.resolvedCount)))
			breakdown.AverageResolutionDays = &avg
		}
		breakdowns = append(breakdowns, breakdown)
	}

	sort.Slice(breakdowns, func(i, j int) bool {
		if breakdowns[i].TotalTickets != breakdowns[j].TotalTickets {
			return breakdowns[i].TotalTickets > breakdowns[j].TotalTickets
		}
		return breakdowns[i].ProductArea < breakdowns[j].ProductArea
	})

	u.toCache(ctx, cacheKey, breakdowns)

	return breakdowns, nil
}

// GetUsageCorrelation scores the relationship between ticket volume and
// usage decline for every registered area, highest risk first
func (u *Analytics) GetUsageCorrelation(ctx context.Context, org types.OrgID) ([]*model.UsageCorrelation, error) {
	if org == "" {
		return nil, goerr.New("organization is required")
	}

	cacheKey := fmt.Sprintf("correlation:%s", org)
	var cached []*model.UsageCorrelation
	if u.fromCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	areas, err := u.repo.ListProductAreas(ctx, org)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list product areas",
			goerr.V("organization", org))
	}

	now := time.Now()
	windowStart := now.AddDate(0, 0, -ticketWindowDays)
	previousStart := now.AddDate(0, 0, -2*ticketWindowDays)

	correlations := make([]*model.UsageCorrelation, 0, len(areas))
	for _, area := range areas {
		correlation, err := u.correlateArea(ctx, org, area.ID, previousStart, windowStart, now)
		if err != nil {
			apperr.Handle(ctx, goerr.Wrap(err, "skipping area in correlation analysis",
				goerr.V("organization", org),
				goerr.V("area", area.ID)))
			continue
		}
		correlations = append(correlations, correlation)
	}

	sort.Slice(correlations, func(i, j int) bool {
		if correlations[i].CorrelationScore != correlations[j].CorrelationScore {
			return correlations[i].CorrelationScore > correlations[j].CorrelationScore
		}
		return correlations[i].ProductArea < correlations[j].ProductArea
	})

	u.toCache(ctx, cacheKey, correlations)

	return correlations, nil
}

func (u *Analytics) correlateArea(ctx context.Context, org types.OrgID, area types.AreaID, previousStart, windowStart, now time.Time) (*model.UsageCorrelation, error) {
	counts, err := u.repo.TicketCountsBySeverity(ctx, org, area, windowStart, now)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count tickets by severity")
	}

	current, err := u.repo.LatestUsage(ctx, org, area, now)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch current usage")
	}
	previous, err := u.repo.LatestUsageInWindow(ctx, org, area, previousStart, windowStart)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch previous usage")
	}

	var currentAmount, previousAmount float64
	if current != nil {
		currentAmount = current.Amount
	}
	if previous != nil {
		previousAmount = previous.Amount
	}
	usage := model.NewUsageMetrics(currentAmount, previousAmount)

	score := model.CorrelationScore(counts.Total(), usage.UsageDropPercentage)

	return &model.UsageCorrelation{
		ProductArea:         area,
		TicketCount:         counts.Total(),
		CurrentUsage:        currentAmount,
		PreviousUsage:       previousAmount,
		UsageDropPercentage: usage.UsageDropPercentage,
		CorrelationScore:    score,
		RiskLevel:           model.RiskLevelForScore(score),
	}, nil
}

// GetTrendAnalysis returns month-by-month trends per area over the given
// number of months, declining areas first. Non-positive months defaults to 6.
func (u *Analytics) GetTrendAnalysis(ctx context.Context, org types.OrgID, months int) ([]*model.TrendAnalysis, error) {
	if org == "" {
		return nil, goerr.New("organization is required")
	}
	if months <= 0 {
		months = defaultTrendMonths
	}

	cacheKey := fmt.Sprintf("trends:%s:%d", org, months)
	var cached []*model.TrendAnalysis
	if u.fromCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	areas, err := u.repo.ListProductAreas(ctx, org)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list product areas",
			goerr.V("organization", org))
	}

	ranges := generateMonthRanges(startOfMonth(time.Now()), months)
	oldest := ranges[0].Start

	tickets, err := u.repo.ListTickets(ctx, org, oldest, time.Time{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tickets since oldest month",
			goerr.V("organization", org))
	}
	analyses, err := u.repo.ListAnalysesSince(ctx, org, oldest)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list analyses since oldest month",
			goerr.V("organization", org))
	}

	trends := make([]*model.TrendAnalysis, 0, len(areas))
	for _, area := range areas {
		trend, err := u.buildTrend(ctx, org, area.ID, ranges, tickets, analyses)
		if err != nil {
			apperr.Handle(ctx, goerr.Wrap(err, "skipping area in trend analysis",
				goerr.V("organization", org),
				goerr.V("area", area.ID)))
			continue
		}
		trends = append(trends, trend)
	}

	sort.Slice(trends, func(i, j int) bool {
		if trends[i].Indicator != trends[j].Indicator {
			return trendRank(trends[i].Indicator) < trendRank(trends[j].Indicator)
		}
		return trends[i].ProductArea < trends[j].ProductArea
	})

	u.toCache(ctx, cacheKey, trends)

	return trends, nil
}

// buildTrend assembles the month bucket series for one product area.
// Tickets and analyses are pre-fetched org-wide; usage needs one range
// query per bucket.
func (u *Analytics) buildTrend(ctx context.Context, org types.OrgID, area types.AreaID, ranges []monthRange, tickets []*model.Ticket, analyses []*model.StoredAnalysis) (*model.TrendAnalysis, error) {
	points := make([]model.TrendPoint, len(ranges))
	for i, r := range ranges {
		ticketCount := 0
		for _, t := range tickets {
			if t.ProductArea != area || !r.contains(t.CreatedAt) {
				continue
			}
			ticketCount++
		}

		var usageAmount float64
		record, err := u.repo.LatestUsageInWindow(ctx, org, area, r.Start, r.End)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to fetch usage for month",
				goerr.V("period", r.Label))
		}
		if record != nil {
			usageAmount = record.Amount
		}

		// Analyses arrive oldest first, so the last match in the bucket
		// is the most recent one
		var debtScore *float64
		for _, a := range analyses {
			if a.ProductArea != area || !r.contains(a.AnalyzedAt) {
				continue
			}
			score := a.DebtScore
			debtScore = &score
		}

		points[i] = model.TrendPoint{
			Period:      r.Label,
			TicketCount: ticketCount,
			UsageAmount: usageAmount,
			DebtScore:   debtScore,
		}
	}

	deltas := monthOverMonth(points)

	return &model.TrendAnalysis{
		ProductArea:    area,
		Points:         points,
		MonthOverMonth: deltas,
		Indicator:      model.TrendIndicatorFor(deltas),
	}, nil
}

// monthOverMonth compares the newest bucket against the one before it
func monthOverMonth(points []model.TrendPoint) model.TrendDeltas {
	if len(points) < 2 {
		return model.TrendDeltas{}
	}
	cur := points[len(points)-1]
	prev := points[len(points)-2]

	deltas := model.TrendDeltas{
		TicketChangePercent: model.PercentChange(float64(cur.TicketCount), float64(prev.TicketCount)),
		UsageChangePercent:  model.PercentChange(cur.UsageAmount, prev.UsageAmount),
	}
	if cur.DebtScore != nil && prev.DebtScore != nil {
		change := model.PercentChange(*cur.DebtScore, *prev.DebtScore)
		deltas.DebtChangePercent = &change
	}

	return deltas
}

// monthRange represents a calendar month time range. End is exclusive,
// the first instant of the following month.
type monthRange struct {
	Start time.Time
	End   time.Time
	Label string
}

func (r monthRange) contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// startOfMonth returns the first day of the month at 00:00:00 for a given time
func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// generateMonthRanges generates month ranges ending at the current month,
// oldest first
func generateMonthRanges(startOfCurrentMonth time.Time, months int) []monthRange {
	ranges := make([]monthRange, months)

	for i := 0; i < months; i++ {
		monthOffset := months - 1 - i
		start := startOfCurrentMonth.AddDate(0, -monthOffset, 0)
		ranges[i] = monthRange{
			Start: start,
			End:   start.AddDate(0, 1, 0),
			Label: start.Format("2006-01"),
		}
	}

	return ranges
}

// trendRank orders trend indicators with declining areas first
func trendRank(indicator types.TrendIndicator) int {
	switch indicator {
	case types.TrendDeclining:
		return 0
	case types.TrendStable:
		return 1
	default:
		return 2
	}
}

// fromCache loads a cached analytics response into out. A miss or decode
// failure falls through to recomputation.
func (u *Analytics) fromCache(ctx context.Context, key string, out any) bool {
	if u.cache == nil {
		return false
	}

	data, err := u.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
		if !errors.Is(err, cacheSvc.ErrMiss) {
			apperr.Handle(ctx, goerr.Wrap(err, "analytics cache lookup failed",
				goerr.V("key", key)))
		}
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
		apperr.Handle(ctx, goerr.Wrap(err, "failed to decode cached analytics response",
			goerr.V("key", key)))
		return false
	}

	metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
	return true
}

// toCache stores an analytics response. Failures are logged, never fatal.
func (u *Analytics) toCache(ctx context.Context, key string, value any) {
	if u.cache == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		apperr.Handle(ctx, goerr.Wrap(err, "failed to encode analytics response for cache",
			goerr.V("key", key)))
		return
	}

	if err := u.cache.Set(ctx, key, data, analyticsCacheTTL); err != nil {
		apperr.Handle(ctx, goerr.Wrap(err, "failed to cache analytics response",
			goerr.V("key", key)))
	}
}
