package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// PeriodReader defines read operations for the period calendar
type PeriodReader interface {
	FindPeriodByID(ctx context.Context, periodID string) (*domain.AccountingPeriod, error)

	// FindPeriodByDate returns the period whose inclusive range contains date.
	FindPeriodByDate(ctx context.Context, date time.Time) (*domain.AccountingPeriod, error)

	// ListPeriods returns periods ordered by start date, optionally for one fiscal year.
	ListPeriods(ctx context.Context, fiscalYear *int) ([]domain.AccountingPeriod, error)
}

// PeriodWriter defines write operations for the period calendar
type PeriodWriter interface {
	SavePeriodTx(ctx context.Context, tx pgx.Tx, period domain.AccountingPeriod) error

	// UpdatePeriodTx writes the period if its stored version still equals period.Version.
	UpdatePeriodTx(ctx context.Context, tx pgx.Tx, period domain.AccountingPeriod) error
}

// PeriodTransactionSupport defines locking reads used by posting and closing
type PeriodTransactionSupport interface {
	// LockCalendarTx serialises calendar edits with a transaction-scoped advisory lock.
	LockCalendarTx(ctx context.Context, tx pgx.Tx) error

	// FindOverlappingPeriodsTx returns periods intersecting the inclusive range.
	FindOverlappingPeriodsTx(ctx context.Context, tx pgx.Tx, start, end time.Time) ([]domain.AccountingPeriod, error)

	FindPeriodForUpdate(ctx context.Context, tx pgx.Tx, periodID string) (*domain.AccountingPeriod, error)

	// FindPeriodByDateForUpdate locks the period covering date.
	FindPeriodByDateForUpdate(ctx context.Context, tx pgx.Tx, date time.Time) (*domain.AccountingPeriod, error)
}

// PeriodRepositoryFacade combines all period-related repository interfaces
type PeriodRepositoryFacade interface {
	PeriodReader
	PeriodWriter
	PeriodTransactionSupport
}
