package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/vetdesk/accounts/internal/apperrors"
	"github.com/vetdesk/accounts/internal/core/domain"
	portsrepo "github.com/vetdesk/accounts/internal/core/ports/repositories"
	"github.com/vetdesk/accounts/internal/models"
	"github.com/vetdesk/accounts/internal/utils/mapping"
)

// PgxTillRepository persists till balances.
type PgxTillRepository struct {
	BaseRepository
}

// newPgxTillRepository creates a new repository for till balance data.
func newPgxTillRepository(pool *pgxpool.Pool) portsrepo.TillRepositoryFacade {
	return &PgxTillRepository{BaseRepository: BaseRepository{Pool: pool, DB: pool}}
}

// Ensure PgxTillRepository implements portsrepo.TillRepositoryFacade
var _ portsrepo.TillRepositoryFacade = (*PgxTillRepository)(nil)

const tillBalanceColumns = `till_balance_id, till_id, status, start_time, total,
	       created_at, created_by, last_updated_at, last_updated_by`

func (r *PgxTillRepository) findOne(ctx context.Context, query string, args ...any) (*domain.TillBalance, error) {
	var m models.TillBalance
	err := r.DB.QueryRow(ctx, query, args...).Scan(
		&m.TillBalanceID, &m.TillID, &m.Status, &m.StartTime, &m.Total,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find till balance", err)
	}
	balance := mapping.ToDomainTillBalance(m)
	return &balance, nil
}

// FindTillBalanceByID retrieves a till balance by identifier.
func (r *PgxTillRepository) FindTillBalanceByID(ctx context.Context, tillBalanceID string) (*domain.TillBalance, error) {
	query := `SELECT ` + tillBalanceColumns + ` FROM till_balances WHERE till_balance_id = $1;`
	return r.findOne(ctx, query, tillBalanceID)
}

// FindUnclearedTillBalance retrieves the till's open balance. At most one
// uncleared balance exists per till; the newest wins if data predates that
// constraint.
func (r *PgxTillRepository) FindUnclearedTillBalance(ctx context.Context, tillID string) (*domain.TillBalance, error) {
	query := `
		SELECT ` + tillBalanceColumns + `
		FROM till_balances
		WHERE till_id = $1 AND status = $2
		ORDER BY start_time DESC
		LIMIT 1;
	`
	return r.findOne(ctx, query, tillID, string(domain.TillUncleared))
}

// SaveTillBalance inserts a new till balance.
func (r *PgxTillRepository) SaveTillBalance(ctx context.Context, balance domain.TillBalance) error {
	m := mapping.ToModelTillBalance(balance)
	query := `
		INSERT INTO till_balances (
			till_balance_id, till_id, status, start_time, total,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.DB.Exec(ctx, query,
		m.TillBalanceID, m.TillID, m.Status, m.StartTime, m.Total,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert till balance "+m.TillBalanceID, err)
	}
	return nil
}

// AddToTillBalance adds a signed amount to the till balance's running total.
func (r *PgxTillRepository) AddToTillBalance(ctx context.Context, tillBalanceID string, amount decimal.Decimal) error {
	query := `
		UPDATE till_balances
		SET total = total + $2, last_updated_at = now()
		WHERE till_balance_id = $1;
	`
	tag, err := r.DB.Exec(ctx, query, tillBalanceID, amount)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update till balance "+tillBalanceID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// PgxStockRepository persists product stock levels per location.
type PgxStockRepository struct {
	BaseRepository
}

// newPgxStockRepository creates a new repository for stock level data.
func newPgxStockRepository(pool *pgxpool.Pool) portsrepo.StockRepositoryFacade {
	return &PgxStockRepository{BaseRepository: BaseRepository{Pool: pool, DB: pool}}
}

// Ensure PgxStockRepository implements portsrepo.StockRepositoryFacade
var _ portsrepo.StockRepositoryFacade = (*PgxStockRepository)(nil)

// FindStockLevel retrieves the on-hand quantity for a product at a location.
// A missing row reads as a zero level.
func (r *PgxStockRepository) FindStockLevel(ctx context.Context, productID, locationID string) (*domain.StockLevel, error) {
	query := `
		SELECT product_id, location_id, quantity
		FROM stock_levels
		WHERE product_id = $1 AND location_id = $2;
	`
	var m models.StockLevel
	err := r.DB.QueryRow(ctx, query, productID, locationID).Scan(&m.ProductID, &m.LocationID, &m.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.StockLevel{ProductID: productID, LocationID: locationID, Quantity: decimal.Zero}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to find stock level for product "+productID, err)
	}
	level := mapping.ToDomainStockLevel(m)
	return &level, nil
}

// AdjustStock adds a signed quantity delta to the on-hand level.
func (r *PgxStockRepository) AdjustStock(ctx context.Context, productID, locationID string, delta decimal.Decimal) error {
	query := `
		INSERT INTO stock_levels (product_id, location_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, location_id) DO UPDATE SET quantity = stock_levels.quantity + EXCLUDED.quantity;
	`
	if _, err := r.DB.Exec(ctx, query, productID, locationID, delta); err != nil {
		return apperrors.NewAppError(500, "failed to adjust stock for product "+productID, err)
	}
	return nil
}
