package repositories

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/vetdesk/accounts/internal/core/domain"
)

// TillRepositoryFacade defines persistence operations for till balances.
type TillRepositoryFacade interface {
	// FindTillBalanceByID retrieves a till balance by identifier.
	FindTillBalanceByID(ctx context.Context, tillBalanceID string) (*domain.TillBalance, error)

	// FindUnclearedTillBalance retrieves the till's current uncleared
	// balance, or ErrNotFound if none is open.
	FindUnclearedTillBalance(ctx context.Context, tillID string) (*domain.TillBalance, error)

	// SaveTillBalance inserts a new till balance.
	SaveTillBalance(ctx context.Context, balance domain.TillBalance) error

	// AddToTillBalance adds a signed amount to the till balance's running
	// total.
	AddToTillBalance(ctx context.Context, tillBalanceID string, amount decimal.Decimal) error
}

// StockRepositoryFacade defines persistence operations for stock levels.
type StockRepositoryFacade interface {
	// FindStockLevel retrieves the on-hand quantity for a product at a
	// location, or a zero level if none is recorded.
	FindStockLevel(ctx context.Context, productID, locationID string) (*domain.StockLevel, error)

	// AdjustStock adds a signed quantity delta to the on-hand level,
	// creating the level row if absent.
	AdjustStock(ctx context.Context, productID, locationID string, delta decimal.Decimal) error
}
