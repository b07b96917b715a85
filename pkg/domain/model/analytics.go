package model

import (
	"github.com/devmon-lab/chreos/pkg/domain/types"
)

// trendSignalThreshold is the percentage-point swing a delta must exceed
// before it counts toward the trend indicator
const trendSignalThreshold = 10.0

// TicketBreakdown holds per-area ticket statistics for an organization.
// AverageResolutionDays is present only when the area has resolved tickets.
type TicketBreakdown struct {
	ProductArea           types.AreaID `json:"productArea"`
	SeverityCounts        TicketCounts `json:"severityCounts"`
	TotalTickets          int          `json:"totalTickets"`
	AverageResolutionDays *int         `json:"averageResolutionDays,omitempty"`
}

// UsageCorrelation holds the ticket volume vs usage decline risk blend
// for one product area
type UsageCorrelation struct {
	ProductArea         types.AreaID    `json:"productArea"`
	TicketCount         int             `json:"ticketCount"`
	CurrentUsage        float64         `json:"currentUsage"`
	PreviousUsage       float64         `json:"previousUsage"`
	UsageDropPercentage float64         `json:"usageDropPercentage"`
	CorrelationScore    float64         `json:"correlationScore"`
	RiskLevel           types.RiskLevel `json:"riskLevel"`
}

// TrendPoint is one calendar month bucket in a trend series.
// DebtScore is present only when an analysis was stored in that month.
type TrendPoint struct {
	Period      string   `json:"period"`
	TicketCount int      `json:"ticketCount"`
	UsageAmount float64  `json:"usageAmount"`
	DebtScore   *float64 `json:"debtScore,omitempty"`
}

// TrendDeltas holds percentage changes between the current month and
// the immediately preceding one
type TrendDeltas struct {
	TicketChangePercent float64  `json:"ticketChangePercent"`
	UsageChangePercent  float64  `json:"usageChangePercent"`
	DebtChangePercent   *float64 `json:"debtChangePercent,omitempty"`
}

// TrendAnalysis holds the month-over-month trend series for one product
// area, points ordered oldest first
type TrendAnalysis struct {
	ProductArea    types.AreaID         `json:"productArea"`
	Points         []TrendPoint         `json:"points"`
	MonthOverMonth TrendDeltas          `json:"monthOverMonth"`
	Indicator      types.TrendIndicator `json:"trendIndicator"`
}

// CorrelationScore blends ticket volume and usage decline into a [0,1]
// risk score. Ticket volume saturates at 10 tickets and contributes 60%,
// usage drop saturates at 100% and contributes 40%.
func CorrelationScore(ticketCount int, usageDropPercentage float64) float64 {
	ticketFactor := float64(ticketCount) / 10
	if ticketFactor > 1 {
		ticketFactor = 1
	}

	dropFactor := usageDropPercentage / 100
	if dropFactor < 0 {
		dropFactor = 0
	}
	if dropFactor > 1 {
		dropFactor = 1
	}

	return ticketFactor*0.6 + dropFactor*0.4
}

// RiskLevelForScore maps a correlation score to its risk level
func RiskLevelForScore(score float64) types.RiskLevel {
	switch {
	case score >= 0.8:
		return types.RiskLevelCritical
	case score >= 0.6:
		return types.RiskLevelHigh
	case score >= 0.4:
		return types.RiskLevelMedium
	default:
		return types.RiskLevelLow
	}
}

// PercentChange computes the month-over-month percentage change. The
// denominator floors at 1 so a zero previous period yields a large but
// finite swing instead of dividing by zero.
func PercentChange(current, previous float64) float64 {
	denom := previous
	if denom < 1 {
		denom = 1
	}
	return (current - previous) / denom * 100
}

// trendSignal scores one delta: +1 when it moved beyond the threshold
// in the favorable direction, -1 when it worsened beyond the threshold
func trendSignal(change float64, increaseFavorable bool) int {
	if !increaseFavorable {
		change = -change
	}
	switch {
	case change > trendSignalThreshold:
		return 1
	case change < -trendSignalThreshold:
		return -1
	default:
		return 0
	}
}

// TrendIndicatorFor derives the qualitative direction from month-over-month
// deltas. Ticket and debt score decreases are favorable, usage increases
// are favorable. The debt signal only participates when a debt score
// exists for both periods.
func TrendIndicatorFor(deltas TrendDeltas) types.TrendIndicator {
	sum := trendSignal(deltas.TicketChangePercent, false)
	sum += trendSignal(deltas.UsageChangePercent, true)
	if deltas.DebtChangePercent != nil {
		sum += trendSignal(*deltas.DebtChangePercent, false)
	}

	switch {
	case sum > 0:
		return types.TrendImproving
	case sum < 0:
		return types.TrendDeclining
	default:
		return types.TrendStable
	}
}
