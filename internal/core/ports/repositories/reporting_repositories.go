package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// ReportingRepository aggregates posted journal lines
type ReportingRepository interface {
	// AccountTotalsAsOf sums posted lines per account with a posting date on or before asOf.
	AccountTotalsAsOf(ctx context.Context, asOf time.Time) ([]domain.AccountTotals, error)

	// PeriodTotalsTx sums posted lines per account for one period.
	PeriodTotalsTx(ctx context.Context, tx pgx.Tx, periodID string) ([]domain.AccountTotals, error)
}
