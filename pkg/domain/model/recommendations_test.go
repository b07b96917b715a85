package model_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/devmon-lab/chreos/pkg/domain/model"
)

func containsSubstring(recs []string, substr string) bool {
	for _, rec := range recs {
		if strings.Contains(rec, substr) {
			return true
		}
	}
	return false
}

func TestBuildRecommendations(t *testing.T) {
	healthy := model.NewUsageMetrics(1000, 1000)

	t.Run("critical tickets produce urgent advisory with count", func(t *testing.T) {
		counts := model.TicketCounts{Critical: 3}
		recs := model.BuildRecommendations(counts, healthy, 24, false)
		gt.True(t, containsSubstring(recs, "3 critical"))
	})

	t.Run("severe advisory requires more than two tickets", func(t *testing.T) {
		below := model.BuildRecommendations(model.TicketCounts{Severe: 2}, healthy, 12, false)
		gt.True(t, !containsSubstring(below, "severe"))

		above := model.BuildRecommendations(model.TicketCounts{Severe: 3}, healthy, 18, false)
		gt.True(t, containsSubstring(above, "severe tickets (3)"))
	})

	t.Run("zero usage wording depends on key module", func(t *testing.T) {
		metrics := model.NewUsageMetrics(0, 500)

		keyed := model.BuildRecommendations(model.TicketCounts{}, metrics, 225, true)
		gt.True(t, containsSubstring(keyed, "URGENT"))
		gt.True(t, containsSubstring(keyed, "zero usage"))

		plain := model.BuildRecommendations(model.TicketCounts{}, metrics, 200, false)
		gt.True(t, containsSubstring(plain, "zero usage"))
		found := false
		for _, rec := range plain {
			if strings.Contains(rec, "zero usage") && strings.Contains(rec, "URGENT") {
				found = true
			}
		}
		gt.False(t, found)
	})

	t.Run("drop advisory reports percentage with one decimal", func(t *testing.T) {
		metrics := model.NewUsageMetrics(650, 1000)
		recs := model.BuildRecommendations(model.TicketCounts{}, metrics, 160, false)
		gt.True(t, containsSubstring(recs, "35.0%"))
	})

	t.Run("drop advisory is suppressed below threshold", func(t *testing.T) {
		metrics := model.NewUsageMetrics(800, 1000)
		recs := model.BuildRecommendations(model.TicketCounts{}, metrics, 20, false)
		gt.True(t, !containsSubstring(recs, "usage drop"))
	})

	t.Run("score tiers emit matching keyword lines", func(t *testing.T) {
		critical := model.BuildRecommendations(model.TicketCounts{}, healthy, 250, false)
		criticalLines := 0
		for _, rec := range critical {
			if strings.HasPrefix(rec, "CRITICAL") {
				criticalLines++
			}
		}
		gt.Equal(t, criticalLines, 2)

		high := model.BuildRecommendations(model.TicketCounts{}, healthy, 150, false)
		gt.True(t, containsSubstring(high, "HIGH RISK"))

		moderate := model.BuildRecommendations(model.TicketCounts{}, healthy, 75, false)
		gt.True(t, containsSubstring(moderate, "MODERATE RISK"))

		good := model.BuildRecommendations(model.TicketCounts{}, healthy, 30, false)
		gt.True(t, containsSubstring(good, "good health"))
	})

	t.Run("score exactly 200 hits the critical tier", func(t *testing.T) {
		recs := model.BuildRecommendations(model.TicketCounts{}, healthy, 200, false)
		gt.True(t, containsSubstring(recs, "CRITICAL"))
	})

	t.Run("high ticket volume reports the total", func(t *testing.T) {
		counts := model.TicketCounts{Critical: 3, Severe: 3, Moderate: 3, Low: 3}
		gt.Equal(t, counts.Total(), 12)

		recs := model.BuildRecommendations(counts, healthy, 60, false)
		gt.True(t, containsSubstring(recs, "12 total"))
	})

	t.Run("exactly ten tickets is not high volume", func(t *testing.T) {
		counts := model.TicketCounts{Moderate: 10}
		recs := model.BuildRecommendations(counts, healthy, 40, false)
		gt.True(t, !containsSubstring(recs, "ticket volume"))
	})

	t.Run("key module advisory requires elevated score", func(t *testing.T) {
		low := model.BuildRecommendations(model.TicketCounts{}, healthy, 50, true)
		gt.True(t, !containsSubstring(low, "Key module requires"))

		high := model.BuildRecommendations(model.TicketCounts{}, healthy, 51, true)
		gt.True(t, containsSubstring(high, "Key module requires"))
	})

	t.Run("multiple rules stack in declaration order", func(t *testing.T) {
		counts := model.TicketCounts{Critical: 2, Severe: 4, Moderate: 3, Low: 3}
		metrics := model.NewUsageMetrics(0, 1000)
		score := model.DebtScore(counts.ImpactScore(), model.UsageHealthScore(metrics, true))

		recs := model.BuildRecommendations(counts, metrics, score, true)

		gt.S(t, recs[0]).Contains("critical")
		gt.S(t, recs[1]).Contains("severe")
		gt.S(t, recs[2]).Contains("zero usage")
		gt.True(t, containsSubstring(recs, "12 total"))
		gt.S(t, recs[len(recs)-1]).Contains("Key module")
	})

	t.Run("healthy area gets only the good health line", func(t *testing.T) {
		recs := model.BuildRecommendations(model.TicketCounts{Low: 2}, healthy, 4, false)
		gt.Equal(t, len(recs), 1)
		gt.S(t, recs[0]).Contains("good health")
	})
}
