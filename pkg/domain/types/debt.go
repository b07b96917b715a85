package types

// DebtCategory represents the qualitative band of a technical debt score
type DebtCategory string

const (
	DebtCategoryGood         DebtCategory = "Good"
	DebtCategoryModerateRisk DebtCategory = "Moderate Risk"
	DebtCategoryHighRisk     DebtCategory = "High Risk"
	DebtCategoryCritical     DebtCategory = "Critical"
)

// String returns the string representation of the category
func (c DebtCategory) String() string {
	return string(c)
}

// IsValid checks if the category is valid
func (c DebtCategory) IsValid() bool {
	switch c {
	case DebtCategoryGood, DebtCategoryModerateRisk, DebtCategoryHighRisk, DebtCategoryCritical:
		return true
	default:
		return false
	}
}

// RiskLevel represents the correlation risk level of a product area
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

// String returns the string representation of the risk level
func (r RiskLevel) String() string {
	return string(r)
}

// IsValid checks if the risk level is valid
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelCritical:
		return true
	default:
		return false
	}
}

// TrendIndicator represents the direction of a debt score trend
type TrendIndicator string

const (
	TrendImproving TrendIndicator = "IMPROVING"
	TrendStable    TrendIndicator = "STABLE"
	TrendDeclining TrendIndicator = "DECLINING"
)

// String returns the string representation of the trend indicator
func (t TrendIndicator) String() string {
	return string(t)
}

// IsValid checks if the trend indicator is valid
func (t TrendIndicator) IsValid() bool {
	switch t {
	case TrendImproving, TrendStable, TrendDeclining:
		return true
	default:
		return false
	}
}
