package types

import (
	"fmt"

	"github.com/google/uuid"
)

// OrgID represents an organization identifier
type OrgID string

// String returns the string representation
func (id OrgID) String() string {
	return string(id)
}

// AreaID represents a product area identifier
type AreaID string

// String returns the string representation
func (id AreaID) String() string {
	return string(id)
}

// TicketID represents a support ticket identifier
type TicketID string

// String returns the string representation
func (id TicketID) String() string {
	return string(id)
}

// NewTicketID creates a new TicketID
func NewTicketID() TicketID {
	return TicketID(fmt.Sprintf("tkt-%s", uuid.New().String()))
}

// UsageRecordID represents a product usage record identifier
type UsageRecordID string

// String returns the string representation
func (id UsageRecordID) String() string {
	return string(id)
}

// NewUsageRecordID creates a new UsageRecordID
func NewUsageRecordID() UsageRecordID {
	return UsageRecordID(fmt.Sprintf("usg-%s", uuid.New().String()))
}

// AnalysisID represents a stored analysis identifier
type AnalysisID string

// String returns the string representation
func (id AnalysisID) String() string {
	return string(id)
}

// NewAnalysisID creates a new AnalysisID
func NewAnalysisID() AnalysisID {
	return AnalysisID(fmt.Sprintf("ana-%s", uuid.New().String()))
}
