package repositories

import (
	"context"

	"github.com/vetdesk/accounts/internal/core/domain"
	"github.com/vetdesk/accounts/internal/dto"
)

// CustomerReader defines read operations for customers and their account
// classification.
type CustomerReader interface {
	// FindCustomerByID retrieves a customer by identifier.
	FindCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error)

	// FindAccountTypeForCustomer retrieves the customer's account type
	// classification, or nil if the customer is unclassified.
	FindAccountTypeForCustomer(ctx context.Context, customerID string) (*domain.AccountType, error)
}

// CustomerWriter defines write operations for customers.
type CustomerWriter interface {
	SaveCustomer(ctx context.Context, customer domain.Customer) error
	SaveAccountType(ctx context.Context, accountType domain.AccountType) error
}

// CustomerRepositoryFacade combines customer repository interfaces.
type CustomerRepositoryFacade interface {
	CustomerReader
	CustomerWriter
}

// SummaryRepository defines the bulk balance summary query over many
// customers. It returns one row per customer reference, a token for the next
// page, and an error.
type SummaryRepository interface {
	ListBalanceSummaries(ctx context.Context, params dto.BalanceSummaryParams) ([]domain.BalanceSummaryRow, *string, error)
}
