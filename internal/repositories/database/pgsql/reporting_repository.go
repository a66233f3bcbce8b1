package pgsql

import (
	"context"
	"time"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mfi_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// reportingRepository implements the ReportingRepository interface
type reportingRepository struct {
	BaseRepository
}

// newReportingRepository creates a new reporting repository
func newReportingRepository(db *pgxpool.Pool) portsrepo.ReportingRepository {
	return &reportingRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

var _ portsrepo.ReportingRepository = (*reportingRepository)(nil)

// Entries that were posted and later reversed still count: their reversal is
// a separate posted entry.
const accountTotalsSelect = `
	SELECT
		a.account_id,
		a.code,
		a.name,
		a.account_type,
		COALESCE(SUM(l.debit_amount), 0) AS total_debit,
		COALESCE(SUM(l.credit_amount), 0) AS total_credit
	FROM journal_entry_lines l
	JOIN journal_entries j ON l.entry_id = j.entry_id
	JOIN accounts a ON l.account_id = a.account_id
	WHERE j.status IN ('POSTED', 'REVERSED')
`

// AccountTotalsAsOf sums posted lines per account with a posting date on or before asOf.
func (r *reportingRepository) AccountTotalsAsOf(ctx context.Context, asOf time.Time) ([]domain.AccountTotals, error) {
	query := accountTotalsSelect + `
		AND j.posting_date <= $1::date
	GROUP BY a.account_id, a.code, a.name, a.account_type
	ORDER BY a.code`
	rows, err := r.Pool.Query(ctx, query, domain.DateOnly(asOf))
	if err != nil {
		return nil, mapError(err, "query trial balance data")
	}
	return collectTotals(rows)
}

// PeriodTotalsTx sums posted lines per account for one period.
func (r *reportingRepository) PeriodTotalsTx(ctx context.Context, tx pgx.Tx, periodID string) ([]domain.AccountTotals, error) {
	query := accountTotalsSelect + `
		AND j.period_id = $1
	GROUP BY a.account_id, a.code, a.name, a.account_type
	ORDER BY a.code`
	rows, err := tx.Query(ctx, query, periodID)
	if err != nil {
		return nil, mapError(err, "query period totals")
	}
	return collectTotals(rows)
}

func collectTotals(rows pgx.Rows) ([]domain.AccountTotals, error) {
	defer rows.Close()
	result := []domain.AccountTotals{}
	for rows.Next() {
		var t domain.AccountTotals
		if err := rows.Scan(&t.AccountID, &t.AccountCode, &t.AccountName, &t.AccountType, &t.Debit, &t.Credit); err != nil {
			return nil, mapError(err, "scan account totals row")
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate account totals rows")
	}
	return result, nil
}
