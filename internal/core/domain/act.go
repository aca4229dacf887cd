package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActKind identifies the archetype of a customer account act.
type ActKind string

const (
	KindInvoice        ActKind = "INVOICE"
	KindCounterSale    ActKind = "COUNTER_SALE"
	KindCredit         ActKind = "CREDIT"
	KindPayment        ActKind = "PAYMENT"
	KindRefund         ActKind = "REFUND"
	KindCreditAdjust   ActKind = "CREDIT_ADJUST"
	KindDebitAdjust    ActKind = "DEBIT_ADJUST"
	KindOpeningBalance ActKind = "OPENING_BALANCE"
	KindClosingBalance ActKind = "CLOSING_BALANCE"
	KindInitialBalance ActKind = "INITIAL_BALANCE"
	KindBadDebt        ActKind = "BAD_DEBT"
)

// PaymentMethod is the sub-kind of a payment or refund item.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "CASH"
	MethodCheque   PaymentMethod = "CHEQUE"
	MethodCredit   PaymentMethod = "CREDIT"
	MethodDiscount PaymentMethod = "DISCOUNT"
	MethodEFT      PaymentMethod = "EFT"
	MethodOther    PaymentMethod = "OTHER"
)

// ActStatus is the lifecycle state of an act. A POSTED act is locked: only
// the hidden and printed flags and reversal linkage may change afterwards.
type ActStatus string

const (
	StatusInProgress ActStatus = "IN_PROGRESS"
	StatusOnHold     ActStatus = "ON_HOLD"
	StatusCompleted  ActStatus = "COMPLETED"
	StatusPosted     ActStatus = "POSTED"
	StatusCancelled  ActStatus = "CANCELLED"
)

// kindSpec is one row of the closed dispatch table for act kinds.
type kindSpec struct {
	debit        bool    // polarity: debit increases the customer's owed balance
	reversalKind ActKind // kind of the compensating act; empty if irreversible
	hasItems     bool
	charge       bool // invoice-style act with product line items
	paymentLike  bool // payment or refund, items carry a PaymentMethod
	allocatable  bool // takes part in oldest-first allocation
}

var kindSpecs = map[ActKind]kindSpec{
	KindInvoice:        {debit: true, reversalKind: KindCredit, hasItems: true, charge: true, allocatable: true},
	KindCounterSale:    {debit: true, reversalKind: KindCredit, hasItems: true, charge: true, allocatable: true},
	KindCredit:         {debit: false, reversalKind: KindInvoice, hasItems: true, charge: true, allocatable: true},
	KindPayment:        {debit: false, reversalKind: KindRefund, hasItems: true, paymentLike: true, allocatable: true},
	KindRefund:         {debit: true, reversalKind: KindPayment, hasItems: true, paymentLike: true, allocatable: true},
	KindCreditAdjust:   {debit: false, reversalKind: KindDebitAdjust, allocatable: true},
	KindDebitAdjust:    {debit: true, reversalKind: KindCreditAdjust, allocatable: true},
	KindOpeningBalance: {debit: true},
	KindClosingBalance: {debit: false},
	KindInitialBalance: {debit: true, reversalKind: KindCreditAdjust, allocatable: true},
	KindBadDebt:        {debit: false, reversalKind: KindDebitAdjust, allocatable: true},
}

// ActKinds lists every account act kind.
func ActKinds() []ActKind {
	return []ActKind{
		KindInvoice, KindCounterSale, KindCredit, KindPayment, KindRefund,
		KindCreditAdjust, KindDebitAdjust, KindOpeningBalance,
		KindClosingBalance, KindInitialBalance, KindBadDebt,
	}
}

// IsValidKind reports whether kind is a known account act kind.
func IsValidKind(kind ActKind) bool {
	_, ok := kindSpecs[kind]
	return ok
}

// ReversalKind returns the kind of the compensating act for kind, or false if
// the kind cannot be reversed.
func ReversalKind(kind ActKind) (ActKind, bool) {
	spec, ok := kindSpecs[kind]
	if !ok || spec.reversalKind == "" {
		return "", false
	}
	return spec.reversalKind, true
}

// IsDebitKind reports the polarity of kind: true if it increases the amount
// the customer owes.
func IsDebitKind(kind ActKind) bool {
	return kindSpecs[kind].debit
}

// IsChargeKind reports whether kind is an invoice-style charge with product
// line items.
func IsChargeKind(kind ActKind) bool {
	return kindSpecs[kind].charge
}

// IsPaymentLikeKind reports whether kind is a payment or refund.
func IsPaymentLikeKind(kind ActKind) bool {
	return kindSpecs[kind].paymentLike
}

// IsAllocatableKind reports whether acts of this kind take part in
// oldest-first allocation. Opening and closing balance snapshots do not.
func IsAllocatableKind(kind ActKind) bool {
	return kindSpecs[kind].allocatable
}

// ActItem is a line item of a financial act. Charge items describe a product
// sale or return; payment and refund items describe a single tender.
type ActItem struct {
	ItemID    string          `json:"itemID"`
	ActID     string          `json:"actID"`
	Total     decimal.Decimal `json:"total"`
	ProductID string          `json:"productID,omitempty"` // charge items only
	PatientID string          `json:"patientID,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"` // stock units moved; zero for services

	// Payment/refund tender fields. RoundedAmount is the cash-rounded total;
	// Tendered and Change apply to cash tenders only.
	Method        PaymentMethod   `json:"method,omitempty"`
	RoundedAmount decimal.Decimal `json:"roundedAmount"`
	Tendered      decimal.Decimal `json:"tendered"`
	Change        decimal.Decimal `json:"change"`

	// ClinicalLinkIDs reference medication, investigation, document and
	// reminder records created alongside a charge item. Never copied onto
	// reversal items.
	ClinicalLinkIDs []string `json:"clinicalLinkIDs,omitempty"`
}

// FinancialAct is one customer account ledger entry.
type FinancialAct struct {
	ActID      string          `json:"actID"`
	CustomerID string          `json:"customerID"`
	Kind       ActKind         `json:"kind"`
	Status     ActStatus       `json:"status"`
	StartTime  time.Time       `json:"startTime"` // ordering and overdue ageing key
	Total      decimal.Decimal `json:"total"`     // non-negative
	Allocated  decimal.Decimal `json:"allocated"` // 0 <= allocated <= total
	Hidden     bool            `json:"hidden"`    // excluded from statements, still counted
	Printed    bool            `json:"printed"`
	Notes      string          `json:"notes,omitempty"`
	Reference  string          `json:"reference,omitempty"`

	// TillID and TillBalanceID link payments and refunds to a cash till
	// session. Empty for other kinds.
	TillID        string `json:"tillID,omitempty"`
	TillBalanceID string `json:"tillBalanceID,omitempty"`

	// Sequence is the persistence order assigned by the repository, used as
	// the tie-break when two acts share a start time.
	Sequence int64 `json:"sequence"`

	// BalanceParticipation marks the act as belonging to the customer's open
	// balance set. Derived state: recomputed on every save, never edited
	// directly. Zero-total acts never participate.
	BalanceParticipation bool `json:"balanceParticipation"`

	Items []ActItem `json:"items,omitempty"`
	AuditFields
}

// IsDebit reports whether the act increases the customer's owed balance.
func (a *FinancialAct) IsDebit() bool {
	return IsDebitKind(a.Kind)
}

// IsCredit reports whether the act decreases the customer's owed balance.
func (a *FinancialAct) IsCredit() bool {
	return !IsDebitKind(a.Kind)
}

// IsPosted reports whether the act has been posted and is locked.
func (a *FinancialAct) IsPosted() bool {
	return a.Status == StatusPosted
}

// Remaining returns the unallocated portion of the act's total.
func (a *FinancialAct) Remaining() decimal.Decimal {
	return a.Total.Sub(a.Allocated)
}

// FullyAllocated reports whether the act's total has been completely matched.
func (a *FinancialAct) FullyAllocated() bool {
	return a.Allocated.GreaterThanOrEqual(a.Total)
}

// SignedTotal returns the act's total signed by polarity: debits positive,
// credits negative.
func (a *FinancialAct) SignedTotal() decimal.Decimal {
	if a.IsDebit() {
		return a.Total
	}
	return a.Total.Neg()
}

// SignedRemaining returns the unallocated amount signed by polarity.
func (a *FinancialAct) SignedRemaining() decimal.Decimal {
	if a.IsDebit() {
		return a.Remaining()
	}
	return a.Remaining().Neg()
}
