package pgsql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetdesk/accounts/internal/apperrors"
	"github.com/vetdesk/accounts/internal/core/domain"
	portsrepo "github.com/vetdesk/accounts/internal/core/ports/repositories"
	"github.com/vetdesk/accounts/internal/models"
	"github.com/vetdesk/accounts/internal/utils/mapping"
)

// PgxCustomerRepository persists customers and account types.
type PgxCustomerRepository struct {
	BaseRepository
}

// newPgxCustomerRepository creates a new repository for customer data.
func newPgxCustomerRepository(pool *pgxpool.Pool) portsrepo.CustomerRepositoryFacade {
	return &PgxCustomerRepository{BaseRepository: BaseRepository{Pool: pool, DB: pool}}
}

// Ensure PgxCustomerRepository implements portsrepo.CustomerRepositoryFacade
var _ portsrepo.CustomerRepositoryFacade = (*PgxCustomerRepository)(nil)

// FindCustomerByID retrieves a customer by identifier.
func (r *PgxCustomerRepository) FindCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	query := `
		SELECT customer_id, name, account_type_id, location_id, active,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM customers
		WHERE customer_id = $1;
	`
	var m models.Customer
	var accountTypeID, locationID sql.NullString
	err := r.DB.QueryRow(ctx, query, customerID).Scan(
		&m.CustomerID, &m.Name, &accountTypeID, &locationID, &m.Active,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find customer "+customerID, err)
	}
	m.AccountTypeID = accountTypeID.String
	m.LocationID = locationID.String
	customer := mapping.ToDomainCustomer(m)
	return &customer, nil
}

// FindAccountTypeForCustomer retrieves the customer's account type, or nil
// if the customer carries no classification.
func (r *PgxCustomerRepository) FindAccountTypeForCustomer(ctx context.Context, customerID string) (*domain.AccountType, error) {
	query := `
		SELECT t.account_type_id, t.name, t.payment_terms, t.payment_uom,
		       t.created_at, t.created_by, t.last_updated_at, t.last_updated_by
		FROM account_types t
		JOIN customers c ON c.account_type_id = t.account_type_id
		WHERE c.customer_id = $1;
	`
	var m models.AccountType
	err := r.DB.QueryRow(ctx, query, customerID).Scan(
		&m.AccountTypeID, &m.Name, &m.PaymentTerms, &m.PaymentUOM,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewAppError(500, "failed to find account type for customer "+customerID, err)
	}
	accountType := mapping.ToDomainAccountType(m)
	return &accountType, nil
}

// SaveCustomer inserts or updates a customer.
func (r *PgxCustomerRepository) SaveCustomer(ctx context.Context, customer domain.Customer) error {
	m := mapping.ToModelCustomer(customer)
	query := `
		INSERT INTO customers (
			customer_id, name, account_type_id, location_id, active,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (customer_id) DO UPDATE SET
			name = EXCLUDED.name,
			account_type_id = EXCLUDED.account_type_id,
			location_id = EXCLUDED.location_id,
			active = EXCLUDED.active,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := r.DB.Exec(ctx, query,
		m.CustomerID, m.Name, nullable(m.AccountTypeID), nullable(m.LocationID), m.Active,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save customer "+m.CustomerID, err)
	}
	return nil
}

// SaveAccountType inserts or updates an account type.
func (r *PgxCustomerRepository) SaveAccountType(ctx context.Context, accountType domain.AccountType) error {
	m := mapping.ToModelAccountType(accountType)
	query := `
		INSERT INTO account_types (
			account_type_id, name, payment_terms, payment_uom,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (account_type_id) DO UPDATE SET
			name = EXCLUDED.name,
			payment_terms = EXCLUDED.payment_terms,
			payment_uom = EXCLUDED.payment_uom,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := r.DB.Exec(ctx, query,
		m.AccountTypeID, m.Name, m.PaymentTerms, m.PaymentUOM,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save account type "+m.AccountTypeID, err)
	}
	return nil
}
