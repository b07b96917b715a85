package model

import "fmt"

// BuildRecommendations produces the ordered advisory list for a scored
// product area. Each rule is checked independently and appends its
// advisory when the condition holds, so several may apply at once.
func BuildRecommendations(counts TicketCounts, metrics UsageMetrics, debtScore float64, isKeyModule bool) []string {
	var recs []string

	if counts.Critical > 0 {
		recs = append(recs, fmt.Sprintf("URGENT: Address %d critical ticket(s) immediately", counts.Critical))
	}

	if counts.Severe > 2 {
		recs = append(recs, fmt.Sprintf("High number of severe tickets (%d) requires attention", counts.Severe))
	}

	if metrics.IsZeroUsage {
		if isKeyModule {
			recs = append(recs, "URGENT: Key module shows zero usage, investigate possible outage or abandonment")
		} else {
			recs = append(recs, "Module shows zero usage, consider deprecation or user outreach")
		}
	} else if metrics.UsageDropPercentage >= usageDropThreshold {
		recs = append(recs, fmt.Sprintf("Investigate %.1f%% usage drop compared to previous period", metrics.UsageDropPercentage))
	}

	switch {
	case debtScore >= 200:
		recs = append(recs,
			"CRITICAL: Schedule emergency technical debt remediation",
			"CRITICAL: Track remediation progress in daily standup")
	case debtScore > 100:
		recs = append(recs,
			"HIGH RISK: Prioritize technical debt reduction in the next sprint",
			"HIGH RISK: Schedule an architecture review for this area")
	case debtScore > 50:
		recs = append(recs,
			"MODERATE RISK: Plan technical debt reduction within the quarter",
			"MODERATE RISK: Monitor ticket inflow for early warning signs")
	default:
		recs = append(recs, "Area is in good health, maintain current practices")
	}

	if total := counts.Total(); total > 10 {
		recs = append(recs, fmt.Sprintf("High ticket volume (%d total) suggests systemic issues", total))
	}

	if isKeyModule && debtScore > 50 {
		recs = append(recs, "Key module requires close monitoring due to elevated debt score")
	}

	return recs
}
