package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/devmon-lab/chreos/pkg/domain/model"
	"github.com/devmon-lab/chreos/pkg/domain/types"
	"github.com/devmon-lab/chreos/pkg/repository"
	"github.com/devmon-lab/chreos/pkg/service/cache"
	"github.com/devmon-lab/chreos/pkg/usecase"
)

func TestAnalytics_GetTicketBreakdown(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	analyticsUC := usecase.NewAnalytics(repo)

	org := types.OrgID("acme")
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	seedTicket(t, repo, org, "billing", types.SeverityCritical, base)
	seedTicket(t, repo, org, "billing", types.SeverityModerate, base.AddDate(0, 0, 1))
	resolved := seedTicket(t, repo, org, "billing", types.SeverityModerate, base.AddDate(0, 0, 2))
	gt.NoError(t, resolved.Resolve(resolved.CreatedAt.Add(48*time.Hour)))
	gt.NoError(t, repo.PutTicket(ctx, resolved))

	seedTicket(t, repo, org, "search", types.SeverityLow, base)

	breakdowns, err := analyticsUC.GetTicketBreakdown(ctx, org, time.Time{}, time.Time{})
	gt.NoError(t, err)
	gt.Equal(t, len(breakdowns), 2)

	// Busiest area first
	billing := breakdowns[0]
	gt.Equal(t, billing.ProductArea, types.AreaID("billing"))
	gt.Equal(t, billing.SeverityCounts, model.TicketCounts{Critical: 1, Moderate: 2})
	gt.Equal(t, billing.TotalTickets, 3)
	gt.NotNil(t, billing.AverageResolutionDays)
	gt.Equal(t, *billing.AverageResolutionDays, 2)

	search := breakdowns[1]
	gt.Equal(t, search.ProductArea, types.AreaID("search"))
	gt.Equal(t, search.TotalTickets, 1)
	// No resolved tickets, no average
	gt.Nil(t, search.AverageResolutionDays)
}

func TestAnalytics_GetTicketBreakdown_WindowBounds(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	analyticsUC := usecase.NewAnalytics(repo)

	org := types.OrgID("acme")
	now := time.Now()

	seedTicket(t, repo, org, "billing", types.SeverityLow, now.AddDate(0, 0, -40))
	seedTicket(t, repo, org, "billing", types.SeverityLow, now.AddDate(0, 0, -5))

	breakdowns, err := analyticsUC.GetTicketBreakdown(ctx, org, now.AddDate(0, 0, -30), now)
	gt.NoError(t, err)
	gt.Equal(t, len(breakdowns), 1)
	gt.Equal(t, breakdowns[0].TotalTickets, 1)
}

func TestAnalytics_GetUsageCorrelation(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	analyticsUC := usecase.NewAnalytics(repo)

	org := types.OrgID("acme")
	seedArea(t, repo, org, "billing", true)
	seedArea(t, repo, org, "search", false)

	for i := 0; i < 20; i++ {
		seedTicket(t, repo, org, "billing", types.SeverityModerate, time.Now().AddDate(0, 0, -1))
	}
	seedUsage(t, repo, org, "billing", 1000, time.Now().AddDate(0, 0, -45))
	seedUsage(t, repo, org, "billing", 500, time.Now().Add(-time.Hour))

	correlations, err := analyticsUC.GetUsageCorrelation(ctx, org)
	gt.NoError(t, err)
	gt.Equal(t, len(correlations), 2)

	// Saturated ticket factor plus a 50% drop lands exactly on the
	// critical boundary
	billing := correlations[0]
	gt.Equal(t, billing.ProductArea, types.AreaID("billing"))
	gt.Equal(t, billing.TicketCount, 20)
	gt.Equal(t, billing.CurrentUsage, 500.0)
	gt.Equal(t, billing.PreviousUsage, 1000.0)
	gt.Equal(t, billing.UsageDropPercentage, 50.0)
	gt.Equal(t, billing.CorrelationScore, 0.8)
	gt.Equal(t, billing.RiskLevel, types.RiskLevelCritical)

	search := correlations[1]
	gt.Equal(t, search.ProductArea, types.AreaID("search"))
	gt.Equal(t, search.CorrelationScore, 0.0)
	gt.Equal(t, search.RiskLevel, types.RiskLevelLow)
}

func TestAnalytics_GetUsageCorrelation_SkipsFailedArea(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	org := types.OrgID("acme")
	seedArea(t, repo, org, "billing", true)
	seedArea(t, repo, org, "search", false)
	seedTicket(t, repo, org, "search", types.SeverityLow, time.Now().AddDate(0, 0, -1))

	analyticsUC := usecase.NewAnalytics(&faultyRepo{Repository: repo, failArea: "billing"})

	// A data-access failure for one area must not sink the whole scan
	correlations, err := analyticsUC.GetUsageCorrelation(ctx, org)
	gt.NoError(t, err)
	gt.Equal(t, len(correlations), 1)
	gt.Equal(t, correlations[0].ProductArea, types.AreaID("search"))
	gt.Equal(t, correlations[0].TicketCount, 1)
}

func TestAnalytics_GetTrendAnalysis(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	analyticsUC := usecase.NewAnalytics(repo)

	org := types.OrgID("acme")
	seedArea(t, repo, org, "billing", true)
	seedArea(t, repo, org, "search", false)

	now := time.Now()
	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastOfPrevMonth := currentMonth.AddDate(0, 0, -1)

	// billing improves: tickets fall away, usage climbs, stored debt drops
	for i := 0; i < 5; i++ {
		seedTicket(t, repo, org, "billing", types.SeverityModerate, lastOfPrevMonth)
	}
	seedUsage(t, repo, org, "billing", 1000, lastOfPrevMonth)
	seedUsage(t, repo, org, "billing", 1200, now)
	putAnalysis(t, repo, org, "billing", 100, lastOfPrevMonth)
	putAnalysis(t, repo, org, "billing", 80, now)

	// search declines: tickets appear, usage halves
	for i := 0; i < 5; i++ {
		seedTicket(t, repo, org, "search", types.SeverityModerate, now)
	}
	seedUsage(t, repo, org, "search", 1000, lastOfPrevMonth)
	seedUsage(t, repo, org, "search", 500, now)

	trends, err := analyticsUC.GetTrendAnalysis(ctx, org, 3)
	gt.NoError(t, err)
	gt.Equal(t, len(trends), 2)

	// Declining areas surface first
	search := trends[0]
	gt.Equal(t, search.ProductArea, types.AreaID("search"))
	gt.Equal(t, search.Indicator, types.TrendDeclining)
	gt.Equal(t, search.MonthOverMonth.TicketChangePercent, 500.0)
	gt.Equal(t, search.MonthOverMonth.UsageChangePercent, -50.0)
	gt.Nil(t, search.MonthOverMonth.DebtChangePercent)

	billing := trends[1]
	gt.Equal(t, billing.ProductArea, types.AreaID("billing"))
	gt.Equal(t, billing.Indicator, types.TrendImproving)
	gt.Equal(t, billing.MonthOverMonth.TicketChangePercent, -100.0)
	gt.Equal(t, billing.MonthOverMonth.UsageChangePercent, 20.0)
	gt.NotNil(t, billing.MonthOverMonth.DebtChangePercent)
	gt.Equal(t, *billing.MonthOverMonth.DebtChangePercent, -20.0)

	// Buckets arrive oldest first with calendar month labels
	gt.Equal(t, len(billing.Points), 3)
	gt.Equal(t, billing.Points[2].Period, currentMonth.Format("2006-01"))
	gt.Equal(t, billing.Points[2].TicketCount, 0)
	gt.Equal(t, billing.Points[2].UsageAmount, 1200.0)
	gt.NotNil(t, billing.Points[2].DebtScore)
	gt.Equal(t, *billing.Points[2].DebtScore, 80.0)
	gt.Equal(t, billing.Points[1].TicketCount, 5)
	gt.Nil(t, billing.Points[0].DebtScore)
}

func TestAnalytics_Caching(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	store := cache.NewMemory()
	analyticsUC := usecase.NewAnalytics(repo, usecase.WithCache(store))

	org := types.OrgID("acme")
	seedTicket(t, repo, org, "billing", types.SeverityLow, time.Now().Add(-time.Hour))

	first, err := analyticsUC.GetTicketBreakdown(ctx, org, time.Time{}, time.Time{})
	gt.NoError(t, err)
	gt.Equal(t, first[0].TotalTickets, 1)

	// New data within the TTL is not reflected
	seedTicket(t, repo, org, "billing", types.SeverityLow, time.Now().Add(-time.Hour))

	second, err := analyticsUC.GetTicketBreakdown(ctx, org, time.Time{}, time.Time{})
	gt.NoError(t, err)
	gt.Equal(t, second[0].TotalTickets, 1)

	// An uncached instance sees the fresh state
	fresh, err := usecase.NewAnalytics(repo).GetTicketBreakdown(ctx, org, time.Time{}, time.Time{})
	gt.NoError(t, err)
	gt.Equal(t, fresh[0].TotalTickets, 2)
}

func TestAnalytics_InvalidInputs(t *testing.T) {
	ctx := context.Background()
	analyticsUC := usecase.NewAnalytics(repository.NewMemory())

	_, err := analyticsUC.GetTicketBreakdown(ctx, "", time.Time{}, time.Time{})
	gt.Error(t, err)

	_, err = analyticsUC.GetUsageCorrelation(ctx, "")
	gt.Error(t, err)

	_, err = analyticsUC.GetTrendAnalysis(ctx, "", 6)
	gt.Error(t, err)
}

func putAnalysis(t *testing.T, repo interface {
	PutAnalysis(ctx context.Context, analysis *model.StoredAnalysis) error
}, org types.OrgID, area types.AreaID, score float64, at time.Time) {
	t.Helper()
	analysis := &model.StoredAnalysis{
		ID:           types.NewAnalysisID(),
		Organization: org,
		ProductArea:  area,
		AnalyzedAt:   at,
		DebtScore:    score,
		Category:     model.CategoryForScore(score),
	}
	gt.NoError(t, repo.PutAnalysis(context.Background(), analysis))
}
