package pgsql

import (
	"context"
	"time"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mfi_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// calendarLockKey is the pg_advisory_xact_lock key that serialises period creation.
const calendarLockKey int64 = 0x6d66695f63616c // "mfi_cal"

type PgxPeriodRepository struct {
	BaseRepository
}

func newPgxPeriodRepository(pool *pgxpool.Pool) portsrepo.PeriodRepositoryFacade {
	return &PgxPeriodRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PeriodRepositoryFacade = (*PgxPeriodRepository)(nil)

const periodColumns = `period_id, name, start_date, end_date, period_type, fiscal_year, period_number,
	is_adjustment_period, status, transaction_count, closing_transaction_count, closing_balance,
	closed_at, closed_by, locked_at, locked_by, reopen_reason,
	created_at, created_by, last_updated_at, last_updated_by, version`

func scanPeriod(row pgx.Row) (domain.AccountingPeriod, error) {
	var p domain.AccountingPeriod
	var closingBalance decimal.NullDecimal
	var closedBy, lockedBy, reopenReason *string
	err := row.Scan(
		&p.PeriodID, &p.Name, &p.StartDate, &p.EndDate, &p.PeriodType, &p.FiscalYear, &p.PeriodNumber,
		&p.IsAdjustmentPeriod, &p.Status, &p.TransactionCount, &p.ClosingTransactionCount, &closingBalance,
		&p.ClosedAt, &closedBy, &p.LockedAt, &lockedBy, &reopenReason,
		&p.CreatedAt, &p.CreatedBy, &p.LastUpdatedAt, &p.LastUpdatedBy, &p.Version,
	)
	if closingBalance.Valid {
		p.ClosingBalance = &closingBalance.Decimal
	}
	p.ClosedBy = derefString(closedBy)
	p.LockedBy = derefString(lockedBy)
	p.ReopenReason = derefString(reopenReason)
	p.StartDate = domain.DateOnly(p.StartDate)
	p.EndDate = domain.DateOnly(p.EndDate)
	return p, err
}

func collectPeriods(rows pgx.Rows, what string) ([]domain.AccountingPeriod, error) {
	defer rows.Close()
	periods := []domain.AccountingPeriod{}
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, mapError(err, "scan period row")
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, what)
	}
	return periods, nil
}

func (r *PgxPeriodRepository) findOne(ctx context.Context, q querier, query string, arg any, what string) (*domain.AccountingPeriod, error) {
	p, err := scanPeriod(q.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapError(err, what)
	}
	return &p, nil
}

func (r *PgxPeriodRepository) FindPeriodByID(ctx context.Context, periodID string) (*domain.AccountingPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods WHERE period_id = $1;`
	return r.findOne(ctx, r.Pool, query, periodID, "find period "+periodID)
}

// FindPeriodByDate returns the period whose inclusive range contains date.
func (r *PgxPeriodRepository) FindPeriodByDate(ctx context.Context, date time.Time) (*domain.AccountingPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods WHERE $1::date BETWEEN start_date AND end_date;`
	return r.findOne(ctx, r.Pool, query, domain.DateOnly(date), "find period by date")
}

// ListPeriods returns periods ordered by start date, optionally for one fiscal year.
func (r *PgxPeriodRepository) ListPeriods(ctx context.Context, fiscalYear *int) ([]domain.AccountingPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods
		WHERE ($1::int IS NULL OR fiscal_year = $1) ORDER BY start_date;`
	rows, err := r.Pool.Query(ctx, query, fiscalYear)
	if err != nil {
		return nil, mapError(err, "list periods")
	}
	return collectPeriods(rows, "list periods")
}

func (r *PgxPeriodRepository) SavePeriodTx(ctx context.Context, tx pgx.Tx, p domain.AccountingPeriod) error {
	query := `
		INSERT INTO accounting_periods (` + periodColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22);
	`
	_, err := tx.Exec(ctx, query,
		p.PeriodID, p.Name, p.StartDate, p.EndDate, p.PeriodType, p.FiscalYear, p.PeriodNumber,
		p.IsAdjustmentPeriod, p.Status, p.TransactionCount, p.ClosingTransactionCount, nullDecimal(p.ClosingBalance),
		p.ClosedAt, nullString(p.ClosedBy), p.LockedAt, nullString(p.LockedBy), nullString(p.ReopenReason),
		p.CreatedAt, p.CreatedBy, p.LastUpdatedAt, p.LastUpdatedBy, p.Version,
	)
	if err != nil {
		return mapError(err, "save period "+p.Name)
	}
	return nil
}

// UpdatePeriodTx writes the period if its stored version still equals p.Version.
func (r *PgxPeriodRepository) UpdatePeriodTx(ctx context.Context, tx pgx.Tx, p domain.AccountingPeriod) error {
	query := `
		UPDATE accounting_periods
		SET name = $1, is_adjustment_period = $2, status = $3, transaction_count = $4,
		    closing_transaction_count = $5, closing_balance = $6, closed_at = $7, closed_by = $8,
		    locked_at = $9, locked_by = $10, reopen_reason = $11,
		    last_updated_at = $12, last_updated_by = $13, version = version + 1
		WHERE period_id = $14 AND version = $15;
	`
	tag, err := tx.Exec(ctx, query,
		p.Name, p.IsAdjustmentPeriod, p.Status, p.TransactionCount,
		p.ClosingTransactionCount, nullDecimal(p.ClosingBalance), p.ClosedAt, nullString(p.ClosedBy),
		p.LockedAt, nullString(p.LockedBy), nullString(p.ReopenReason),
		p.LastUpdatedAt, p.LastUpdatedBy, p.PeriodID, p.Version,
	)
	if err != nil {
		return mapError(err, "update period "+p.PeriodID)
	}
	return expectOneRow(tag, "period", p.PeriodID, p.Version)
}

// LockCalendarTx takes the calendar advisory lock for the rest of tx.
func (r *PgxPeriodRepository) LockCalendarTx(ctx context.Context, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1);`, calendarLockKey); err != nil {
		return mapError(err, "lock period calendar")
	}
	return nil
}

// FindOverlappingPeriodsTx returns periods intersecting the inclusive range.
func (r *PgxPeriodRepository) FindOverlappingPeriodsTx(ctx context.Context, tx pgx.Tx, start, end time.Time) ([]domain.AccountingPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods
		WHERE start_date <= $2::date AND end_date >= $1::date ORDER BY start_date;`
	rows, err := tx.Query(ctx, query, domain.DateOnly(start), domain.DateOnly(end))
	if err != nil {
		return nil, mapError(err, "find overlapping periods")
	}
	return collectPeriods(rows, "find overlapping periods")
}

func (r *PgxPeriodRepository) FindPeriodForUpdate(ctx context.Context, tx pgx.Tx, periodID string) (*domain.AccountingPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods WHERE period_id = $1 FOR UPDATE;`
	return r.findOne(ctx, tx, query, periodID, "lock period "+periodID)
}

// FindPeriodByDateForUpdate locks the period covering date.
func (r *PgxPeriodRepository) FindPeriodByDateForUpdate(ctx context.Context, tx pgx.Tx, date time.Time) (*domain.AccountingPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods WHERE $1::date BETWEEN start_date AND end_date FOR UPDATE;`
	return r.findOne(ctx, tx, query, domain.DateOnly(date), "lock period by date")
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
