package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vetdesk/accounts/internal/core/domain"
)

// SaveActItemRequest describes one line item of a new account act.
type SaveActItemRequest struct {
	Total     decimal.Decimal `json:"total"`
	ProductID string          `json:"productID,omitempty"`
	PatientID string          `json:"patientID,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`

	Method        domain.PaymentMethod `json:"method,omitempty" validate:"omitempty,oneof=CASH CHEQUE CREDIT DISCOUNT EFT OTHER"`
	RoundedAmount decimal.Decimal      `json:"roundedAmount"`
	Tendered      decimal.Decimal      `json:"tendered"`
	Change        decimal.Decimal      `json:"change"`

	ClinicalLinkIDs []string `json:"clinicalLinkIDs,omitempty"`
}

// SaveActRequest describes a new account act to create and post into the
// customer's balance.
type SaveActRequest struct {
	CustomerID string           `json:"customerID" validate:"required"`
	Kind       domain.ActKind   `json:"kind" validate:"required"`
	Status     domain.ActStatus `json:"status" validate:"required,oneof=IN_PROGRESS ON_HOLD COMPLETED POSTED CANCELLED"`
	StartTime  time.Time        `json:"startTime" validate:"required"`
	Total      decimal.Decimal  `json:"total"`
	Notes      string           `json:"notes,omitempty"`
	TillID     string           `json:"tillID,omitempty"`

	Items []SaveActItemRequest `json:"items,omitempty" validate:"dive"`
}

// ReverseActRequest carries the caller-supplied inputs to a reversal.
type ReverseActRequest struct {
	StartTime time.Time `json:"startTime" validate:"required"`
	Notes     string    `json:"notes,omitempty"`
	// Reference recorded on the reversal; defaults to the original act's
	// identifier when empty.
	Reference string `json:"reference,omitempty"`
	// Hide marks both ends of the reversal as hidden on statements. Ignored
	// when the act being reversed is itself a reversal.
	Hide bool `json:"hide,omitempty"`
	// TillBalanceID attaches a payment/refund reversal to a specific till
	// balance instead of the till's current uncleared one.
	TillBalanceID string `json:"tillBalanceID,omitempty"`
	UserID        string `json:"userID" validate:"required"`
}
