package model

import (
	"time"

	"github.com/devmon-lab/chreos/pkg/domain/types"
)

// TechnicalDebtResult represents one technical debt computation for a
// product area. Results are immutable once produced.
type TechnicalDebtResult struct {
	Organization    types.OrgID        `json:"organization"`
	ProductArea     types.AreaID       `json:"productArea"`
	DebtScore       float64            `json:"debtScore"`
	Category        types.DebtCategory `json:"category"`
	TicketCounts    TicketCounts       `json:"ticketCounts"`
	UsageMetrics    UsageMetrics       `json:"usageMetrics"`
	Recommendations []string           `json:"recommendations"`
	IsKeyModule     bool               `json:"isKeyModule"`
	AnalyzedAt      time.Time          `json:"analyzedAt"`
}

// ComputeTechnicalDebt runs the scoring pipeline over prepared inputs
// and assembles the result. It performs no I/O.
func ComputeTechnicalDebt(org types.OrgID, area types.AreaID, counts TicketCounts, metrics UsageMetrics, isKeyModule bool, asOf time.Time) *TechnicalDebtResult {
	healthScore := UsageHealthScore(metrics, isKeyModule)
	debtScore := DebtScore(counts.ImpactScore(), healthScore)

	return &TechnicalDebtResult{
		Organization:    org,
		ProductArea:     area,
		DebtScore:       debtScore,
		Category:        CategoryForScore(debtScore),
		TicketCounts:    counts,
		UsageMetrics:    metrics,
		Recommendations: BuildRecommendations(counts, metrics, debtScore, isKeyModule),
		IsKeyModule:     isKeyModule,
		AnalyzedAt:      asOf,
	}
}
