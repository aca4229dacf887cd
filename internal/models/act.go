package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Act represents a customer account financial act row.
type Act struct {
	ActID         string          `db:"act_id"`
	CustomerID    string          `db:"customer_id"`
	Kind          string          `db:"kind"`
	Status        string          `db:"status"`
	StartTime     time.Time       `db:"start_time"`
	Total         decimal.Decimal `db:"total"`
	Allocated     decimal.Decimal `db:"allocated"`
	Hidden        bool            `db:"hidden"`
	Printed       bool            `db:"printed"`
	Notes         string          `db:"notes"`
	Reference     string          `db:"reference"`
	TillID        string          `db:"till_id"`         // nullable
	TillBalanceID string          `db:"till_balance_id"` // nullable
	Sequence      int64           `db:"sequence"`        // bigserial, allocation tie-break
	Participation bool            `db:"participation"`
	AuditFields
}

// ActItem represents one line item row of an act.
type ActItem struct {
	ItemID          string          `db:"item_id"`
	ActID           string          `db:"act_id"`
	Total           decimal.Decimal `db:"total"`
	ProductID       string          `db:"product_id"` // nullable
	PatientID       string          `db:"patient_id"` // nullable
	Quantity        decimal.Decimal `db:"quantity"`
	Method          string          `db:"method"` // nullable
	RoundedAmount   decimal.Decimal `db:"rounded_amount"`
	Tendered        decimal.Decimal `db:"tendered"`
	Change          decimal.Decimal `db:"change_amount"`
	ClinicalLinkIDs []string        `db:"clinical_link_ids"` // text[]
}

// Allocation represents an allocation relationship row: debit act -> credit
// act with the absolute allocated amount.
type Allocation struct {
	SourceID string          `db:"source_id"`
	TargetID string          `db:"target_id"`
	Amount   decimal.Decimal `db:"amount"`
}

// Reversal represents a reversal relationship row.
type Reversal struct {
	SourceID  string    `db:"source_id"`
	TargetID  string    `db:"target_id"`
	Notes     string    `db:"notes"`
	Reference string    `db:"reference"`
	CreatedAt time.Time `db:"created_at"`
	CreatedBy string    `db:"created_by"`
}
