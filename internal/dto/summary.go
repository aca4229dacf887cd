package dto

import (
	"time"

	"github.com/vetdesk/accounts/internal/core/domain"
)

// LocationFilter selects how practice locations constrain the balance
// summary.
type LocationFilter string

const (
	// LocationAll includes every customer regardless of location.
	LocationAll LocationFilter = "ALL"
	// LocationNone includes only customers with no practice location.
	LocationNone LocationFilter = "NONE"
	// LocationSet includes only customers at one of the given locations.
	LocationSet LocationFilter = "SET"
)

// BalanceSummaryParams filters and pages the customer balance summary.
type BalanceSummaryParams struct {
	// Date balances are evaluated at; overdue ageing is relative to it.
	Date time.Time `json:"date"`

	// AccountTypeID restricts rows to customers with this classification.
	// Empty means no restriction.
	AccountTypeID string `json:"accountTypeID,omitempty"`

	// Name restricts rows by customer name. A trailing '*' matches a prefix;
	// empty matches everyone.
	Name string `json:"name,omitempty"`

	Location    LocationFilter `json:"location,omitempty"`
	LocationIDs []string       `json:"locationIDs,omitempty"` // used when Location == SET

	// OverdueFromDays/OverdueToDays restrict rows to customers whose oldest
	// overdue debit falls in the window [Date-To, Date-From]. Zero values
	// leave the corresponding bound open. Non-zero values imply only
	// customers with an overdue balance are returned.
	OverdueFromDays int `json:"overdueFromDays,omitempty"`
	OverdueToDays   int `json:"overdueToDays,omitempty"`

	// ExcludeCredit drops customers whose balance is a net credit.
	ExcludeCredit bool `json:"excludeCredit,omitempty"`

	Limit     int     `json:"limit,omitempty"`
	NextToken *string `json:"nextToken,omitempty"`
}

// BalanceSummaryResponse is one page of the customer balance summary.
type BalanceSummaryResponse struct {
	Rows      []domain.BalanceSummaryRow `json:"rows"`
	NextToken *string                    `json:"nextToken,omitempty"`
}
