package model

import (
	"time"

	"github.com/devmon-lab/chreos/pkg/domain/types"
)

// DebtReport aggregates an organization's debt results with a narrative summary
type DebtReport struct {
	Organization   types.OrgID            `json:"organization"`
	Summary        string                 `json:"summary"`
	KeyFindings    []string               `json:"keyFindings"`
	SuggestedFocus string                 `json:"suggestedFocus"`
	Results        []*TechnicalDebtResult `json:"results"`
	GeneratedAt    time.Time              `json:"generatedAt"`
}
