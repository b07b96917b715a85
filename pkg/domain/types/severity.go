package types

// Severity represents the severity level of a support ticket
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeveritySevere   Severity = "SEVERE"
	SeverityModerate Severity = "MODERATE"
	SeverityLow      Severity = "LOW"
)

// Severities returns all severity levels ordered from most to least severe
func Severities() []Severity {
	return []Severity{SeverityCritical, SeveritySevere, SeverityModerate, SeverityLow}
}

// String returns the string representation of the severity
func (s Severity) String() string {
	return string(s)
}

// IsValid checks if the severity is valid
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeveritySevere, SeverityModerate, SeverityLow:
		return true
	default:
		return false
	}
}

// Weight returns the impact weight used when scoring ticket load
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeveritySevere:
		return 3
	case SeverityModerate:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}
