package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/vetdesk/accounts/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every pgx-backed repository onto one pool.
func NewRepositoryProvider(pool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		ActRepo:      newPgxActRepository(pool),
		CustomerRepo: newPgxCustomerRepository(pool),
		SummaryRepo:  newPgxSummaryRepository(pool),
		TillRepo:     newPgxTillRepository(pool),
		StockRepo:    newPgxStockRepository(pool),
	}
}
