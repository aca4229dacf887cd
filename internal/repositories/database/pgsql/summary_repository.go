package pgsql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetdesk/accounts/internal/apperrors"
	"github.com/vetdesk/accounts/internal/core/domain"
	portsrepo "github.com/vetdesk/accounts/internal/core/ports/repositories"
	"github.com/vetdesk/accounts/internal/dto"
	"github.com/vetdesk/accounts/internal/utils/pagination"
)

// PgxSummaryRepository runs the bulk customer balance summary query.
type PgxSummaryRepository struct {
	BaseRepository
}

// newPgxSummaryRepository creates a new repository for the summary query.
func newPgxSummaryRepository(pool *pgxpool.Pool) portsrepo.SummaryRepository {
	return &PgxSummaryRepository{BaseRepository: BaseRepository{Pool: pool, DB: pool}}
}

// Ensure PgxSummaryRepository implements portsrepo.SummaryRepository
var _ portsrepo.SummaryRepository = (*PgxSummaryRepository)(nil)

func kindList(pred func(domain.ActKind) bool) []string {
	var kinds []string
	for _, k := range domain.ActKinds() {
		if pred(k) {
			kinds = append(kinds, string(k))
		}
	}
	return kinds
}

// ListBalanceSummaries aggregates balance, overdue, credit, unbilled and
// last-payment/invoice figures per customer. Rows are keyed by customer
// identity and ordered by (name, customer_id); the page token carries the
// last row's sort key.
func (r *PgxSummaryRepository) ListBalanceSummaries(ctx context.Context, params dto.BalanceSummaryParams) ([]domain.BalanceSummaryRow, *string, error) {
	var (
		args  []any
		conds []string
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	datePh := arg(params.Date)
	debitPh := arg(kindList(domain.IsDebitKind))
	chargePh := arg(kindList(domain.IsChargeKind))

	if params.AccountTypeID != "" {
		conds = append(conds, "c.account_type_id = "+arg(params.AccountTypeID))
	}
	if params.Name != "" {
		if strings.HasSuffix(params.Name, "*") {
			pattern := strings.TrimSuffix(params.Name, "*")
			pattern = strings.ReplaceAll(pattern, `\`, `\\`)
			pattern = strings.ReplaceAll(pattern, "%", `\%`)
			pattern = strings.ReplaceAll(pattern, "_", `\_`)
			conds = append(conds, "c.name LIKE "+arg(pattern+"%"))
		} else {
			conds = append(conds, "c.name = "+arg(params.Name))
		}
	}
	switch params.Location {
	case dto.LocationNone:
		conds = append(conds, "c.location_id IS NULL")
	case dto.LocationSet:
		conds = append(conds, "c.location_id = ANY("+arg(params.LocationIDs)+")")
	}
	if params.NextToken != nil {
		fields, err := pagination.DecodeMultiFieldToken(*params.NextToken)
		if err != nil || len(fields) != 2 {
			return nil, nil, fmt.Errorf("%w: invalid page token", apperrors.ErrValidation)
		}
		conds = append(conds, "(c.name, c.customer_id) > ("+arg(fields[0])+", "+arg(fields[1])+")")
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var havings []string
	if params.ExcludeCredit {
		havings = append(havings, "bal.balance >= 0")
	}
	if params.OverdueFromDays > 0 || params.OverdueToDays > 0 {
		havings = append(havings, "od.overdue > 0")
		havings = append(havings, "od.oldest_due IS NOT NULL")
		if params.OverdueFromDays > 0 {
			havings = append(havings, "od.oldest_due <= "+datePh+" - make_interval(days => "+arg(params.OverdueFromDays)+"::int)")
		}
		if params.OverdueToDays > 0 {
			havings = append(havings, "od.oldest_due >= "+datePh+" - make_interval(days => "+arg(params.OverdueToDays)+"::int)")
		}
	}
	rowFilter := ""
	if len(havings) > 0 {
		rowFilter = "WHERE " + strings.Join(havings, " AND ")
	}

	limitPh := arg(params.Limit + 1)

	// The overdue cutoff mirrors the per-customer payment-terms arithmetic:
	// day-truncated evaluation date minus N days/weeks/months. Customers
	// without an account type are due immediately.
	query := `
		WITH eligible AS (
			SELECT c.customer_id, c.name,
			       t.name AS account_type,
			       date_trunc('day', ` + datePh + `::timestamptz) - CASE t.payment_uom
			           WHEN 'DAYS'   THEN make_interval(days   => t.payment_terms)
			           WHEN 'WEEKS'  THEN make_interval(weeks  => t.payment_terms)
			           WHEN 'MONTHS' THEN make_interval(months => t.payment_terms)
			           ELSE interval '0'
			       END AS cutoff
			FROM customers c
			LEFT JOIN account_types t ON t.account_type_id = c.account_type_id
			` + where + `
		),
		bal AS (
			SELECT e.customer_id,
			       COALESCE(SUM(CASE WHEN a.participation AND a.status = 'POSTED' THEN
			           CASE WHEN a.kind = ANY(` + debitPh + `) THEN a.total - a.allocated
			                ELSE -(a.total - a.allocated) END
			       ELSE 0 END), 0) AS balance,
			       COALESCE(SUM(CASE WHEN a.participation AND a.status = 'POSTED'
			                          AND NOT (a.kind = ANY(` + debitPh + `)) THEN
			           -(a.total - a.allocated)
			       ELSE 0 END), 0) AS credit_balance,
			       COALESCE(SUM(CASE WHEN a.kind = ANY(` + chargePh + `)
			                          AND a.status IN ('IN_PROGRESS', 'ON_HOLD', 'COMPLETED') THEN
			           CASE WHEN a.kind = ANY(` + debitPh + `) THEN a.total ELSE -a.total END
			       ELSE 0 END), 0) AS unbilled
			FROM eligible e
			LEFT JOIN acts a ON a.customer_id = e.customer_id AND a.total <> 0
			GROUP BY e.customer_id
		),
		od AS (
			SELECT e.customer_id,
			       GREATEST(0, COALESCE(deb.due, 0) - COALESCE(cred.applied, 0)) AS overdue,
			       deb.oldest_due
			FROM eligible e
			LEFT JOIN LATERAL (
				SELECT SUM(d.total) AS due, MIN(d.start_time) FILTER (WHERE d.allocated < d.total) AS oldest_due
				FROM acts d
				WHERE d.customer_id = e.customer_id
				  AND d.status = 'POSTED' AND d.total <> 0
				  AND d.kind = ANY(` + debitPh + `)
				  AND d.start_time <= e.cutoff
			) deb ON true
			LEFT JOIN LATERAL (
				SELECT SUM(al.amount) AS applied
				FROM allocations al
				JOIN acts d ON d.act_id = al.source_id
				JOIN acts cr ON cr.act_id = al.target_id
				WHERE d.customer_id = e.customer_id
				  AND d.start_time <= e.cutoff
				  AND cr.start_time <= e.cutoff
			) cred ON true
		)
		SELECT e.customer_id, e.name, e.account_type,
		       bal.balance, od.overdue, bal.credit_balance, bal.unbilled,
		       lp.start_time, COALESCE(lp.total, 0),
		       li.start_time, COALESCE(li.total, 0)
		FROM eligible e
		JOIN bal ON bal.customer_id = e.customer_id
		JOIN od ON od.customer_id = e.customer_id
		LEFT JOIN LATERAL (
			SELECT a.start_time, a.total FROM acts a
			WHERE a.customer_id = e.customer_id AND a.kind = 'PAYMENT' AND a.status = 'POSTED'
			ORDER BY a.start_time DESC, a.sequence DESC LIMIT 1
		) lp ON true
		LEFT JOIN LATERAL (
			SELECT a.start_time, a.total FROM acts a
			WHERE a.customer_id = e.customer_id AND a.kind = 'INVOICE' AND a.status = 'POSTED'
			ORDER BY a.start_time DESC, a.sequence DESC LIMIT 1
		) li ON true
		` + rowFilter + `
		ORDER BY e.name ASC, e.customer_id ASC
		LIMIT ` + limitPh + `;
	`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query balance summaries", err)
	}
	defer rows.Close()

	var result []domain.BalanceSummaryRow
	for rows.Next() {
		var row domain.BalanceSummaryRow
		var accountType sql.NullString
		var lastPaymentAt, lastInvoiceAt sql.NullTime
		err := rows.Scan(
			&row.CustomerID, &row.CustomerName, &accountType,
			&row.Balance, &row.OverdueBalance, &row.CreditBalance, &row.UnbilledAmount,
			&lastPaymentAt, &row.LastPayment,
			&lastInvoiceAt, &row.LastInvoice,
		)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan balance summary row", err)
		}
		row.AccountType = accountType.String
		if lastPaymentAt.Valid {
			t := lastPaymentAt.Time
			row.LastPaymentAt = &t
		}
		if lastInvoiceAt.Valid {
			t := lastInvoiceAt.Time
			row.LastInvoiceAt = &t
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to iterate balance summary rows", err)
	}

	var nextToken *string
	if len(result) > params.Limit {
		result = result[:params.Limit]
		last := result[len(result)-1]
		token := pagination.EncodeMultiFieldToken(last.CustomerName, last.CustomerID)
		nextToken = &token
	}
	return result, nextToken, nil
}
