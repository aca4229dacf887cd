package domain

import "time"

// PaymentUOM is the unit of a customer account type's payment terms.
type PaymentUOM string

const (
	UOMDays   PaymentUOM = "DAYS"
	UOMWeeks  PaymentUOM = "WEEKS"
	UOMMonths PaymentUOM = "MONTHS"
)

// AccountType classifies customers for credit-terms purposes. A debit act is
// overdue once its start time falls on or before the cutoff derived from the
// terms.
type AccountType struct {
	AccountTypeID string     `json:"accountTypeID"`
	Name          string     `json:"name"`
	PaymentTerms  int        `json:"paymentTerms"`
	PaymentUOM    PaymentUOM `json:"paymentUOM"`
	AuditFields
}

// OverdueCutoff returns the latest start time at which a debit act dated then
// is considered overdue as of date. Time-of-day is discarded: ageing works in
// whole days.
func (t AccountType) OverdueCutoff(date time.Time) time.Time {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	switch t.PaymentUOM {
	case UOMWeeks:
		return day.AddDate(0, 0, -7*t.PaymentTerms)
	case UOMMonths:
		return day.AddDate(0, -t.PaymentTerms, 0)
	default:
		return day.AddDate(0, 0, -t.PaymentTerms)
	}
}

// Customer is the owner of an account act graph.
type Customer struct {
	CustomerID    string `json:"customerID"`
	Name          string `json:"name"`
	AccountTypeID string `json:"accountTypeID,omitempty"` // nullable classification
	LocationID    string `json:"locationID,omitempty"`    // practice location, nullable
	Active        bool   `json:"active"`
	AuditFields
}
