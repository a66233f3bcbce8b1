package repositories

import (
	"context"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// LoanReader defines read operations for loan schedules and repayments
type LoanReader interface {
	FindDisbursement(ctx context.Context, loanID string) (*domain.LoanDisbursement, error)
	ListScheduleByLoan(ctx context.Context, loanID string) ([]domain.LoanSchedule, error)
	ListRepaymentsByLoan(ctx context.Context, loanID string) ([]domain.LoanRepayment, error)
}

// LoanWriter defines write operations for loan schedules and repayments
type LoanWriter interface {
	// SaveDisbursementTx fails with ErrDuplicate when the loan was already disbursed.
	SaveDisbursementTx(ctx context.Context, tx pgx.Tx, d domain.LoanDisbursement) error
	SaveScheduleTx(ctx context.Context, tx pgx.Tx, schedule []domain.LoanSchedule) error
	UpdateInstallmentTx(ctx context.Context, tx pgx.Tx, installment domain.LoanSchedule) error
	SaveRepaymentTx(ctx context.Context, tx pgx.Tx, repayment domain.LoanRepayment) error
}

// LoanTransactionSupport defines locking reads for repayment allocation
type LoanTransactionSupport interface {
	// FindDisbursementTx reads the disbursement inside tx, failing with ErrNotFound when there is none.
	FindDisbursementTx(ctx context.Context, tx pgx.Tx, loanID string) (*domain.LoanDisbursement, error)
	// FindScheduleForUpdate locks every installment of the loan in installment order.
	FindScheduleForUpdate(ctx context.Context, tx pgx.Tx, loanID string) ([]domain.LoanSchedule, error)
}

// LoanRepositoryFacade combines all loan-related repository interfaces
type LoanRepositoryFacade interface {
	LoanReader
	LoanWriter
	LoanTransactionSupport
}
