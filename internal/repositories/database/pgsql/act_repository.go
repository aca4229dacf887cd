package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetdesk/accounts/internal/apperrors"
	"github.com/vetdesk/accounts/internal/core/domain"
	portsrepo "github.com/vetdesk/accounts/internal/core/ports/repositories"
	"github.com/vetdesk/accounts/internal/models"
	"github.com/vetdesk/accounts/internal/utils/mapping"
	"github.com/vetdesk/accounts/internal/utils/pagination"
)

// PgxActRepository persists financial acts, their items and the allocation
// and reversal relationships between them.
type PgxActRepository struct {
	BaseRepository
}

// newPgxActRepository creates a new repository for act and relationship data.
func newPgxActRepository(pool *pgxpool.Pool) portsrepo.ActRepositoryWithTx {
	return &PgxActRepository{BaseRepository: BaseRepository{Pool: pool, DB: pool}}
}

// Ensure PgxActRepository implements portsrepo.ActRepositoryWithTx
var _ portsrepo.ActRepositoryWithTx = (*PgxActRepository)(nil)

// WithTx runs fn against a transaction-bound copy of the repository,
// committing on success and rolling back on error. Calls made while already
// tx-bound reuse the ambient transaction.
func (r *PgxActRepository) WithTx(ctx context.Context, fn func(repo portsrepo.ActRepositoryFacade) error) error {
	if r.Pool == nil {
		return fn(r)
	}
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	bound := &PgxActRepository{BaseRepository: BaseRepository{DB: tx}}
	if err := fn(bound); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

const actColumns = `act_id, customer_id, kind, status, start_time, total, allocated,
	       hidden, printed, notes, reference, till_id, till_balance_id,
	       sequence, participation,
	       created_at, created_by, last_updated_at, last_updated_by`

func scanAct(row pgx.Row) (*models.Act, error) {
	var m models.Act
	var notes, reference, tillID, tillBalanceID sql.NullString
	err := row.Scan(
		&m.ActID, &m.CustomerID, &m.Kind, &m.Status, &m.StartTime, &m.Total, &m.Allocated,
		&m.Hidden, &m.Printed, &notes, &reference, &tillID, &tillBalanceID,
		&m.Sequence, &m.Participation,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	m.Notes = notes.String
	m.Reference = reference.String
	m.TillID = tillID.String
	m.TillBalanceID = tillBalanceID.String
	return &m, nil
}

// SaveAct inserts a new act and its items. The acts table assigns the
// persistence sequence, which is read back onto the act.
func (r *PgxActRepository) SaveAct(ctx context.Context, act *domain.FinancialAct) error {
	m := mapping.ToModelAct(*act)
	query := `
		INSERT INTO acts (
			act_id, customer_id, kind, status, start_time, total, allocated,
			hidden, printed, notes, reference, till_id, till_balance_id, participation,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING sequence;
	`
	err := r.DB.QueryRow(ctx, query,
		m.ActID, m.CustomerID, m.Kind, m.Status, m.StartTime, m.Total, m.Allocated,
		m.Hidden, m.Printed, nullable(m.Notes), nullable(m.Reference),
		nullable(m.TillID), nullable(m.TillBalanceID), m.Participation,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	).Scan(&act.Sequence)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert act "+m.ActID, err)
	}

	if len(act.Items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	itemQuery := `
		INSERT INTO act_items (
			item_id, act_id, total, product_id, patient_id, quantity,
			method, rounded_amount, tendered, change_amount, clinical_link_ids
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	for _, item := range act.Items {
		mi := mapping.ToModelActItem(item)
		batch.Queue(itemQuery,
			mi.ItemID, mi.ActID, mi.Total, nullable(mi.ProductID), nullable(mi.PatientID),
			mi.Quantity, nullable(mi.Method), mi.RoundedAmount, mi.Tendered, mi.Change,
			mi.ClinicalLinkIDs,
		)
	}
	if err := r.DB.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert items for act "+m.ActID, err)
	}
	return nil
}

// UpdateActs persists allocation state, status and flags for existing acts.
func (r *PgxActRepository) UpdateActs(ctx context.Context, acts []domain.FinancialAct) error {
	if len(acts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	query := `
		UPDATE acts
		SET status = $2, allocated = $3, participation = $4,
		    hidden = $5, printed = $6,
		    last_updated_at = $7, last_updated_by = $8
		WHERE act_id = $1;
	`
	for i := range acts {
		m := mapping.ToModelAct(acts[i])
		batch.Queue(query,
			m.ActID, m.Status, m.Allocated, m.Participation,
			m.Hidden, m.Printed, m.LastUpdatedAt, m.LastUpdatedBy,
		)
	}
	if err := r.DB.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to update acts", err)
	}
	return nil
}

// UpdateActFlags updates the hidden and printed flags of an act.
func (r *PgxActRepository) UpdateActFlags(ctx context.Context, actID string, hidden, printed bool, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE acts
		SET hidden = $2, printed = $3, last_updated_at = $4, last_updated_by = $5
		WHERE act_id = $1;
	`
	tag, err := r.DB.Exec(ctx, query, actID, hidden, printed, updatedAt, updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update flags for act "+actID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindActByID retrieves an act and its items.
func (r *PgxActRepository) FindActByID(ctx context.Context, actID string) (*domain.FinancialAct, error) {
	query := `SELECT ` + actColumns + ` FROM acts WHERE act_id = $1;`
	m, err := scanAct(r.DB.QueryRow(ctx, query, actID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find act "+actID, err)
	}
	act := mapping.ToDomainAct(*m)
	items, err := r.findItems(ctx, []string{actID})
	if err != nil {
		return nil, err
	}
	act.Items = items[actID]
	return &act, nil
}

// FindActsByCustomer retrieves the customer's complete act history with
// items, ordered by (start time, sequence).
func (r *PgxActRepository) FindActsByCustomer(ctx context.Context, customerID string) ([]domain.FinancialAct, error) {
	query := `
		SELECT ` + actColumns + `
		FROM acts
		WHERE customer_id = $1
		ORDER BY start_time ASC, sequence ASC;
	`
	acts, err := r.queryActs(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	if len(acts) == 0 {
		return acts, nil
	}
	ids := make([]string, len(acts))
	for i := range acts {
		ids[i] = acts[i].ActID
	}
	items, err := r.findItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range acts {
		acts[i].Items = items[acts[i].ActID]
	}
	return acts, nil
}

// FindActPage retrieves one keyset page of the customer's act history,
// without items. The cursor encodes the (start time, sequence) key of the
// last row of the previous page.
func (r *PgxActRepository) FindActPage(ctx context.Context, customerID, nextToken string, limit int) ([]domain.FinancialAct, string, error) {
	query := `
		SELECT ` + actColumns + `
		FROM acts
		WHERE customer_id = $1
	`
	args := []any{customerID}
	if nextToken != "" {
		afterTime, afterSeq, err := pagination.DecodeToken(nextToken)
		if err != nil {
			return nil, "", apperrors.NewAppError(400, "invalid pagination token", err)
		}
		query += ` AND (start_time, sequence) > ($2, $3)`
		args = append(args, afterTime, afterSeq)
	}
	query += `
		ORDER BY start_time ASC, sequence ASC
		LIMIT ` + fmt.Sprintf("$%d", len(args)+1) + `;`
	args = append(args, limit+1)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, "", apperrors.NewAppError(500, "failed to query act page for customer "+customerID, err)
	}
	defer rows.Close()

	var ms []models.Act
	for rows.Next() {
		m, err := scanAct(rows)
		if err != nil {
			return nil, "", apperrors.NewAppError(500, "failed to scan act row", err)
		}
		ms = append(ms, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, "", apperrors.NewAppError(500, "failed to iterate act rows", err)
	}

	if len(ms) <= limit {
		return mapping.ToDomainActSlice(ms), "", nil
	}
	ms = ms[:limit]
	last := ms[len(ms)-1]
	return mapping.ToDomainActSlice(ms), pagination.EncodeToken(last.StartTime, last.Sequence), nil
}

// FindParticipatingActs retrieves the customer's open balance set ordered by
// (start time, sequence).
func (r *PgxActRepository) FindParticipatingActs(ctx context.Context, customerID string) ([]domain.FinancialAct, error) {
	query := `
		SELECT ` + actColumns + `
		FROM acts
		WHERE customer_id = $1 AND participation
		ORDER BY start_time ASC, sequence ASC;
	`
	return r.queryActs(ctx, query, customerID)
}

// HasAccountActs reports whether the customer has any account acts.
func (r *PgxActRepository) HasAccountActs(ctx context.Context, customerID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM acts WHERE customer_id = $1);`, customerID).Scan(&exists)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to check acts for customer "+customerID, err)
	}
	return exists, nil
}

// FindLatestAct retrieves the most recently dated act of the given kind and
// status.
func (r *PgxActRepository) FindLatestAct(ctx context.Context, customerID string, kind domain.ActKind, status domain.ActStatus) (*domain.FinancialAct, error) {
	query := `
		SELECT ` + actColumns + `
		FROM acts
		WHERE customer_id = $1 AND kind = $2 AND status = $3
		ORDER BY start_time DESC, sequence DESC
		LIMIT 1;
	`
	m, err := scanAct(r.DB.QueryRow(ctx, query, customerID, string(kind), string(status)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find latest "+string(kind)+" for customer "+customerID, err)
	}
	act := mapping.ToDomainAct(*m)
	return &act, nil
}

func (r *PgxActRepository) queryActs(ctx context.Context, query string, args ...any) ([]domain.FinancialAct, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query acts", err)
	}
	defer rows.Close()

	var acts []domain.FinancialAct
	for rows.Next() {
		m, err := scanAct(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan act row", err)
		}
		acts = append(acts, mapping.ToDomainAct(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate act rows", err)
	}
	return acts, nil
}

func (r *PgxActRepository) findItems(ctx context.Context, actIDs []string) (map[string][]domain.ActItem, error) {
	query := `
		SELECT item_id, act_id, total, product_id, patient_id, quantity,
		       method, rounded_amount, tendered, change_amount, clinical_link_ids
		FROM act_items
		WHERE act_id = ANY($1)
		ORDER BY item_id;
	`
	rows, err := r.DB.Query(ctx, query, actIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query act items", err)
	}
	defer rows.Close()

	result := make(map[string][]domain.ActItem)
	for rows.Next() {
		var m models.ActItem
		var productID, patientID, method sql.NullString
		err := rows.Scan(
			&m.ItemID, &m.ActID, &m.Total, &productID, &patientID, &m.Quantity,
			&method, &m.RoundedAmount, &m.Tendered, &m.Change, &m.ClinicalLinkIDs,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan act item row", err)
		}
		m.ProductID = productID.String
		m.PatientID = patientID.String
		m.Method = method.String
		result[m.ActID] = append(result[m.ActID], mapping.ToDomainActItem(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate act item rows", err)
	}
	return result, nil
}

// FindAllocationsForAct retrieves every allocation touching the act.
func (r *PgxActRepository) FindAllocationsForAct(ctx context.Context, actID string) ([]domain.Allocation, error) {
	query := `
		SELECT source_id, target_id, amount
		FROM allocations
		WHERE source_id = $1 OR target_id = $1
		ORDER BY source_id, target_id;
	`
	return r.queryAllocations(ctx, query, actID)
}

// FindAllocationsByCustomer retrieves every allocation between the
// customer's acts.
func (r *PgxActRepository) FindAllocationsByCustomer(ctx context.Context, customerID string) ([]domain.Allocation, error) {
	query := `
		SELECT a.source_id, a.target_id, a.amount
		FROM allocations a
		JOIN acts s ON s.act_id = a.source_id
		WHERE s.customer_id = $1
		ORDER BY a.source_id, a.target_id;
	`
	return r.queryAllocations(ctx, query, customerID)
}

func (r *PgxActRepository) queryAllocations(ctx context.Context, query string, args ...any) ([]domain.Allocation, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query allocations", err)
	}
	defer rows.Close()

	var allocations []domain.Allocation
	for rows.Next() {
		var m models.Allocation
		if err := rows.Scan(&m.SourceID, &m.TargetID, &m.Amount); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan allocation row", err)
		}
		allocations = append(allocations, mapping.ToDomainAllocation(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate allocation rows", err)
	}
	return allocations, nil
}

// UpsertAllocations inserts or replaces allocations keyed by (source, target).
func (r *PgxActRepository) UpsertAllocations(ctx context.Context, allocations []domain.Allocation) error {
	if len(allocations) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	query := `
		INSERT INTO allocations (source_id, target_id, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (source_id, target_id) DO UPDATE SET amount = EXCLUDED.amount;
	`
	for _, alloc := range allocations {
		m := mapping.ToModelAllocation(alloc)
		batch.Queue(query, m.SourceID, m.TargetID, m.Amount)
	}
	if err := r.DB.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to upsert allocations", err)
	}
	return nil
}

// DeleteAllocationsByCustomer removes every allocation between the
// customer's acts.
func (r *PgxActRepository) DeleteAllocationsByCustomer(ctx context.Context, customerID string) error {
	query := `
		DELETE FROM allocations a
		USING acts s
		WHERE s.act_id = a.source_id AND s.customer_id = $1;
	`
	if _, err := r.DB.Exec(ctx, query, customerID); err != nil {
		return apperrors.NewAppError(500, "failed to delete allocations for customer "+customerID, err)
	}
	return nil
}

// FindReversalBySource retrieves the reversal leaving the act.
func (r *PgxActRepository) FindReversalBySource(ctx context.Context, actID string) (*domain.Reversal, error) {
	return r.findReversal(ctx, `source_id`, actID)
}

// FindReversalByTarget retrieves the reversal arriving at the act.
func (r *PgxActRepository) FindReversalByTarget(ctx context.Context, actID string) (*domain.Reversal, error) {
	return r.findReversal(ctx, `target_id`, actID)
}

func (r *PgxActRepository) findReversal(ctx context.Context, column, actID string) (*domain.Reversal, error) {
	query := `
		SELECT source_id, target_id, notes, reference, created_at, created_by
		FROM reversals
		WHERE ` + column + ` = $1;
	`
	var m models.Reversal
	var notes sql.NullString
	err := r.DB.QueryRow(ctx, query, actID).Scan(
		&m.SourceID, &m.TargetID, &notes, &m.Reference, &m.CreatedAt, &m.CreatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find reversal for act "+actID, err)
	}
	m.Notes = notes.String
	reversal := mapping.ToDomainReversal(m)
	return &reversal, nil
}

// SaveReversal records the one-to-one reversal link. The primary key on
// source_id enforces one reversal per act.
func (r *PgxActRepository) SaveReversal(ctx context.Context, reversal domain.Reversal) error {
	m := mapping.ToModelReversal(reversal)
	query := `
		INSERT INTO reversals (source_id, target_id, notes, reference, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.DB.Exec(ctx, query, m.SourceID, m.TargetID, nullable(m.Notes), m.Reference, m.CreatedAt, m.CreatedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert reversal of act "+m.SourceID, err)
	}
	return nil
}

// nullable maps an empty string to NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
