package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Allocation links a debit act to the credit act settling part of it. The sum
// of Amount over every allocation touching an act equals that act's Allocated
// field; the invariant is independently checkable from the stored graph.
type Allocation struct {
	SourceID string          `json:"sourceID"` // debit act
	TargetID string          `json:"targetID"` // credit act
	Amount   decimal.Decimal `json:"amount"`   // positive
}

// Reversal links an original act to the compensating act that negates it.
// At most one reversal may leave any act.
type Reversal struct {
	SourceID  string    `json:"sourceID"` // original act
	TargetID  string    `json:"targetID"` // reversal act
	Notes     string    `json:"notes,omitempty"`
	Reference string    `json:"reference"` // original act identifier as text
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}

// TillBalanceStatus is the lifecycle state of a till balance act.
type TillBalanceStatus string

const (
	TillUncleared  TillBalanceStatus = "UNCLEARED"
	TillInProgress TillBalanceStatus = "IN_PROGRESS"
	TillCleared    TillBalanceStatus = "CLEARED"
)

// TillBalance aggregates the payments and refunds taken at one till between
// clearings.
type TillBalance struct {
	TillBalanceID string            `json:"tillBalanceID"`
	TillID        string            `json:"tillID"`
	Status        TillBalanceStatus `json:"status"`
	StartTime     time.Time         `json:"startTime"`
	Total         decimal.Decimal   `json:"total"` // net cash movement, signed
	AuditFields
}

// StockLevel is the on-hand quantity of a product at a stock location.
type StockLevel struct {
	ProductID  string          `json:"productID"`
	LocationID string          `json:"locationID"`
	Quantity   decimal.Decimal `json:"quantity"`
}
