package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/devmon-lab/chreos/pkg/domain/types"
)

// UsageRecord represents a point-in-time product usage measurement
type UsageRecord struct {
	ID           types.UsageRecordID `json:"id"`
	Organization types.OrgID         `json:"organization"`
	ProductArea  types.AreaID        `json:"productArea"`
	Amount       float64             `json:"amount"`
	RecordedAt   time.Time           `json:"recordedAt"`
}

// NewUsageRecord creates a new UsageRecord instance
func NewUsageRecord(org types.OrgID, area types.AreaID, amount float64, recordedAt time.Time) (*UsageRecord, error) {
	if org == "" {
		return nil, goerr.New("organization is required")
	}
	if area == "" {
		return nil, goerr.New("product area is required")
	}
	if amount < 0 {
		return nil, goerr.New("usage amount must be non-negative", goerr.V("amount", amount))
	}
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	return &UsageRecord{
		ID:           types.NewUsageRecordID(),
		Organization: org,
		ProductArea:  area,
		Amount:       amount,
		RecordedAt:   recordedAt,
	}, nil
}

// UsageMetrics holds derived usage figures for one scoring window.
// UsageDropPercentage and IsZeroUsage are derived from the usage amounts
// and are never set independently.
type UsageMetrics struct {
	CurrentUsage        float64 `json:"currentUsage"`
	PreviousUsage       float64 `json:"previousUsage"`
	UsageDropPercentage float64 `json:"usageDropPercentage"`
	IsZeroUsage         bool    `json:"isZeroUsage"`
}

// NewUsageMetrics derives usage metrics from current and previous amounts.
// A usage increase yields a 0% drop, never a negative one, and a missing
// previous amount (0) also yields 0% since no baseline exists.
func NewUsageMetrics(current, previous float64) UsageMetrics {
	var drop float64
	if previous > 0 {
		drop = (previous - current) / previous * 100
		if drop < 0 {
			drop = 0
		}
	}

	return UsageMetrics{
		CurrentUsage:        current,
		PreviousUsage:       previous,
		UsageDropPercentage: drop,
		IsZeroUsage:         current == 0,
	}
}
