package services

import (
	"context"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/SscSPs/mfi_ledger/internal/dto"
)

// LoanSvcFacade records disbursements and repayments against loan schedules
type LoanSvcFacade interface {
	DisburseLoan(ctx context.Context, loanID string, req dto.DisburseLoanRequest, userID string) (*domain.LoanDisbursement, []domain.LoanSchedule, error)
	GetSchedule(ctx context.Context, loanID string) ([]domain.LoanSchedule, error)
	RecordRepayment(ctx context.Context, loanID string, req dto.RecordRepaymentRequest, userID string) (*domain.LoanRepayment, error)
	ListRepayments(ctx context.Context, loanID string) ([]domain.LoanRepayment, error)
}
