package services

import (
	"context"

	"github.com/shopspring/decimal"

	portsrepo "github.com/vetdesk/accounts/internal/core/ports/repositories"
	portssvc "github.com/vetdesk/accounts/internal/core/ports/services"
)

// stockService applies stock-quantity deltas for charge reversals.
type stockService struct {
	stockRepo portsrepo.StockRepositoryFacade
}

// NewStockService creates the stock collaborator service.
func NewStockService(stockRepo portsrepo.StockRepositoryFacade) portssvc.StockSvcFacade {
	return &stockService{stockRepo: stockRepo}
}

var _ portssvc.StockSvcFacade = (*stockService)(nil)

// Adjust adds a signed quantity delta to the on-hand level of a product at a
// location.
func (s *stockService) Adjust(ctx context.Context, productID, locationID string, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	return s.stockRepo.AdjustStock(ctx, productID, locationID, delta)
}
