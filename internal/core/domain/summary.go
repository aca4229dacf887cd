package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceSummaryRow is one customer's line in the account balance listing.
// Rows are keyed by customer identity; two customers sharing a display name
// produce two rows.
type BalanceSummaryRow struct {
	CustomerID     string          `json:"customerID"`
	CustomerName   string          `json:"customerName"`
	AccountType    string          `json:"accountType,omitempty"`
	Balance        decimal.Decimal `json:"balance"`
	OverdueBalance decimal.Decimal `json:"overdueBalance"`
	CreditBalance  decimal.Decimal `json:"creditBalance"`
	UnbilledAmount decimal.Decimal `json:"unbilledAmount"`
	LastPaymentAt  *time.Time      `json:"lastPaymentAt,omitempty"`
	LastPayment    decimal.Decimal `json:"lastPayment"`
	LastInvoiceAt  *time.Time      `json:"lastInvoiceAt,omitempty"`
	LastInvoice    decimal.Decimal `json:"lastInvoice"`
}
