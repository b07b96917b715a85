package model

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/devmon-lab/chreos/pkg/domain/types"
)

// StoredAnalysis represents an immutable history row persisted after a
// technical debt computation. Recommendations are flattened into a
// single text block with one advisory per line.
type StoredAnalysis struct {
	ID              types.AnalysisID   `json:"id"`
	Organization    types.OrgID        `json:"organization"`
	ProductArea     types.AreaID       `json:"productArea"`
	AnalyzedAt      time.Time          `json:"analyzedAt"`
	DebtScore       float64            `json:"debtScore"`
	Category        types.DebtCategory `json:"category"`
	TicketCounts    TicketCounts       `json:"ticketCounts"`
	UsageMetrics    UsageMetrics       `json:"usageMetrics"`
	IsKeyModule     bool               `json:"isKeyModule"`
	Recommendations string             `json:"recommendations"`
}

// NewStoredAnalysis converts a computation result into its history row form
func NewStoredAnalysis(result *TechnicalDebtResult) (*StoredAnalysis, error) {
	if result == nil {
		return nil, goerr.New("result is required")
	}
	if result.Organization == "" {
		return nil, goerr.New("organization is required")
	}
	if result.ProductArea == "" {
		return nil, goerr.New("product area is required")
	}

	analyzedAt := result.AnalyzedAt
	if analyzedAt.IsZero() {
		analyzedAt = time.Now()
	}

	return &StoredAnalysis{
		ID:              types.NewAnalysisID(),
		Organization:    result.Organization,
		ProductArea:     result.ProductArea,
		AnalyzedAt:      analyzedAt,
		DebtScore:       result.DebtScore,
		Category:        result.Category,
		TicketCounts:    result.TicketCounts,
		UsageMetrics:    result.UsageMetrics,
		IsKeyModule:     result.IsKeyModule,
		Recommendations: strings.Join(result.Recommendations, "\n"),
	}, nil
}
