package dto

import "github.com/shopspring/decimal"

// RebuildPreview is the dry-run result of a balance rebuild: what the state
// would look like without committing it.
type RebuildPreview struct {
	CustomerID      string          `json:"customerID"`
	CurrentBalance  decimal.Decimal `json:"currentBalance"`
	RebuiltBalance  decimal.Decimal `json:"rebuiltBalance"`
	AllocationCount int             `json:"allocationCount"`
	ParticipantActs int             `json:"participantActs"`
	// InSync is true when rebuilding would change nothing.
	InSync bool `json:"inSync"`
}
