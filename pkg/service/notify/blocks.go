package notify

import (
	"fmt"

	"github.com/slack-go/slack"

	"github.com/devmon-lab/chreos/pkg/domain/model"
	"github.com/devmon-lab/chreos/pkg/domain/types"
)

// maxRecommendationLines caps the advisory list in an alert so a noisy
// area cannot flood the channel
const maxRecommendationLines = 5

// categoryEmoji returns the alert emoji for a debt category
func categoryEmoji(category types.DebtCategory) string {
	switch category {
	case types.DebtCategoryCritical:
		return "🚨"
	case types.DebtCategoryHighRisk:
		return "⚠️"
	case types.DebtCategoryModerateRisk:
		return "ℹ️"
	default:
		return "✅"
	}
}

// BuildResultBlocks builds the Block Kit payload for one analysis result
func BuildResultBlocks(result *model.TechnicalDebtResult) []slack.Block {
	var blocks []slack.Block

	blocks = append(blocks, slack.NewHeaderBlock(
		slack.NewTextBlockObject(
			slack.PlainTextType,
			fmt.Sprintf("%s Technical debt alert: %s", categoryEmoji(result.Category), result.ProductArea),
			false,
			false,
		),
	))

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("*Organization:*\n%s", result.Organization), false, false),
		slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("*Category:*\n%s", result.Category), false, false),
		slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("*Debt score:*\n%.1f", result.DebtScore), false, false),
		slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("*Open severity mix:*\n%d critical / %d severe / %d moderate / %d low",
				result.TicketCounts.Critical,
				result.TicketCounts.Severe,
				result.TicketCounts.Moderate,
				result.TicketCounts.Low), false, false),
		slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("*Usage drop:*\n%.1f%%", result.UsageMetrics.UsageDropPercentage), false, false),
	}
	if result.IsKeyModule {
		fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType,
			"*Key module:*\nyes", false, false))
	}
	blocks = append(blocks, slack.NewSectionBlock(nil, fields, nil))

	if len(result.Recommendations) > 0 {
		blocks = append(blocks, slack.NewDividerBlock())

		text := "*Recommended actions:*"
		shown := result.Recommendations
		if len(shown) > maxRecommendationLines {
			shown = shown[:maxRecommendationLines]
		}
		for _, rec := range shown {
			text += fmt.Sprintf("\n• %s", rec)
		}
		if omitted := len(result.Recommendations) - len(shown); omitted > 0 {
			text += fmt.Sprintf("\n_…and %d more_", omitted)
		}

		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
			nil,
			nil,
		))
	}

	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("Analyzed at %s", result.AnalyzedAt.Format("2006-01-02 15:04 MST")),
			false, false),
	))

	return blocks
}
