package model

import (
	"github.com/devmon-lab/chreos/pkg/domain/types"
)

// Scoring constants shared by the health and recommendation rules
const (
	// usageDropThreshold is the drop percentage at which the flat penalty applies
	usageDropThreshold = 30.0
	// keyModulePenalty is the flat penalty for key modules with degraded usage
	keyModulePenalty = 50.0
	// standardPenalty is the flat penalty for non-key modules with degraded usage
	standardPenalty = 25.0
)

// ImpactScore returns the severity-weighted ticket impact score.
// Zero tickets yield 0; the score is unbounded above.
func (c TicketCounts) ImpactScore() int {
	score := 0
	for _, severity := range types.Severities() {
		score += c.Count(severity) * severity.Weight()
	}
	return score
}

// UsageHealthScore computes the usage health component on a 0-100 scale.
// Zero usage or a drop at or beyond the threshold incurs a flat penalty
// (harsher for key modules), and the drop percentage itself is always
// added on top of that. The result floors at 0.
func UsageHealthScore(metrics UsageMetrics, isKeyModule bool) float64 {
	var penalty float64
	if metrics.IsZeroUsage || metrics.UsageDropPercentage >= usageDropThreshold {
		if isKeyModule {
			penalty += keyModulePenalty
		} else {
			penalty += standardPenalty
		}
	}
	penalty += metrics.UsageDropPercentage

	health := 100 - penalty
	if health < 0 {
		health = 0
	}
	return health
}

// DebtScore combines ticket impact and usage health into the composite
// debt score. The usage contribution saturates at 100 through the health
// score floor while the ticket contribution is never capped.
func DebtScore(impactScore int, healthScore float64) float64 {
	return float64(impactScore)*2 + (100 - healthScore)
}

// CategoryForScore maps a debt score to its qualitative category
func CategoryForScore(score float64) types.DebtCategory {
	switch {
	case score <= 50:
		return types.DebtCategoryGood
	case score <= 100:
		return types.DebtCategoryModerateRisk
	case score <= 200:
		return types.DebtCategoryHighRisk
	default:
		return types.DebtCategoryCritical
	}
}

// ValidateScoringInput checks prepared scoring inputs and returns all
// problems as human-readable strings. An empty slice means the input is
// valid. Validation never fails mid-check so callers can surface every
// problem at once.
func ValidateScoringInput(counts TicketCounts, metrics UsageMetrics) []string {
	var problems []string

	for _, severity := range types.Severities() {
		if counts.Count(severity) < 0 {
			problems = append(problems, severity.String()+" ticket count must be a non-negative integer")
		}
	}

	if metrics.CurrentUsage < 0 {
		problems = append(problems, "current usage must be a non-negative number")
	}
	if metrics.PreviousUsage < 0 {
		problems = append(problems, "previous usage must be a non-negative number")
	}
	if metrics.UsageDropPercentage < 0 {
		problems = append(problems, "usage drop percentage must be a non-negative number")
	}
	if metrics.IsZeroUsage != (metrics.CurrentUsage == 0) {
		problems = append(problems, "zero usage flag does not match current usage")
	}

	return problems
}
