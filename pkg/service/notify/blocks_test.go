package notify_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/slack-go/slack"

	"github.com/devmon-lab/chreos/pkg/domain/model"
	"github.com/devmon-lab/chreos/pkg/domain/types"
	"github.com/devmon-lab/chreos/pkg/service/notify"
)

func testResult(t *testing.T, critical int, current, previous float64, keyModule bool) *model.TechnicalDebtResult {
	t.Helper()
	counts := model.TicketCounts{Critical: critical, Severe: 1, Moderate: 2, Low: 3}
	metrics := model.NewUsageMetrics(current, previous)
	asOf := time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)
	return model.ComputeTechnicalDebt("acme", "billing", counts, metrics, keyModule, asOf)
}

func TestBuildResultBlocks(t *testing.T) {
	t.Run("contains header, fields and recommendations", func(t *testing.T) {
		result := testResult(t, 11, 100, 1000, true)
		gt.Equal(t, result.Category, types.DebtCategoryCritical)
		blocks := notify.BuildResultBlocks(result)

		header, ok := blocks[0].(*slack.HeaderBlock)
		gt.True(t, ok)
		gt.S(t, header.Text.Text).Contains("billing")
		gt.S(t, header.Text.Text).Contains("🚨")

		section, ok := blocks[1].(*slack.SectionBlock)
		gt.True(t, ok)
		// Key module adds a sixth field
		gt.Equal(t, len(section.Fields), 6)

		foundRecs := false
		for _, block := range blocks {
			if sec, ok := block.(*slack.SectionBlock); ok && sec.Text != nil {
				if len(sec.Text.Text) > 0 && sec.Text.Text[0] == '*' {
					foundRecs = true
					gt.S(t, sec.Text.Text).Contains("Recommended actions")
					gt.S(t, sec.Text.Text).Contains("•")
				}
			}
		}
		gt.True(t, foundRecs)
	})

	t.Run("recommendation list is capped", func(t *testing.T) {
		result := testResult(t, 5, 0, 1000, true)
		gt.True(t, len(result.Recommendations) > 5)

		blocks := notify.BuildResultBlocks(result)
		for _, block := range blocks {
			sec, ok := block.(*slack.SectionBlock)
			if !ok || sec.Text == nil {
				continue
			}
			gt.S(t, sec.Text.Text).Contains("more_")
		}
	})

	t.Run("healthy result uses calm emoji and no key module field", func(t *testing.T) {
		result := testResult(t, 0, 1000, 1000, false)
		blocks := notify.BuildResultBlocks(result)

		header, ok := blocks[0].(*slack.HeaderBlock)
		gt.True(t, ok)
		gt.S(t, header.Text.Text).Contains("✅")

		section, ok := blocks[1].(*slack.SectionBlock)
		gt.True(t, ok)
		gt.Equal(t, len(section.Fields), 5)
	})

	t.Run("context block carries the analysis time", func(t *testing.T) {
		result := testResult(t, 1, 500, 600, false)
		blocks := notify.BuildResultBlocks(result)

		last, ok := blocks[len(blocks)-1].(*slack.ContextBlock)
		gt.True(t, ok)
		gt.Equal(t, len(last.ContextElements.Elements), 1)
	})
}
