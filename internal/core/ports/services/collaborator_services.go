package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/vetdesk/accounts/internal/core/domain"
)

// TillSvcFacade is the till collaborator consumed by payment and refund
// reversal.
type TillSvcFacade interface {
	// UnclearedBalance returns the till's open uncleared balance, creating
	// one if none exists.
	UnclearedBalance(ctx context.Context, tillID string) (*domain.TillBalance, error)

	// AddToBalance adds a signed amount to a till balance's running total.
	AddToBalance(ctx context.Context, tillBalanceID string, amount decimal.Decimal) error
}

// StockSvcFacade is the stock collaborator: charge reversal must produce the
// inverse stock delta of the original charge.
type StockSvcFacade interface {
	// Adjust adds a signed quantity delta to the on-hand level of a product
	// at a location.
	Adjust(ctx context.Context, productID, locationID string, delta decimal.Decimal) error
}

// ServiceContainer holds instances of all the application services. This is
// the entry point for accessing service functionality from the CLI and batch
// jobs.
type ServiceContainer struct {
	Account   CustomerAccountSvcFacade
	Generator BalanceGeneratorSvcFacade
	Summary   BalanceSummarySvcFacade
	Till      TillSvcFacade
	Stock     StockSvcFacade
}
