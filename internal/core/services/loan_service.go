package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/mfi_ledger/internal/apperrors"
	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mfi_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mfi_ledger/internal/core/ports/services"
	"github.com/SscSPs/mfi_ledger/internal/dto"
	"github.com/SscSPs/mfi_ledger/internal/utils/refgen"
)

// loanService posts disbursements and repayments and keeps the schedule in step.
type loanService struct {
	BaseService
	uow         portsrepo.UnitOfWork
	loanRepo    portsrepo.LoanRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	outbox      portsrepo.OutboxWriter
	engine      portssvc.PostingEngine
	settings    portssvc.SettingReaderSvc
	refs        refgen.Generator
}

// LoanServiceOption is a functional option for configuring the loan service
type LoanServiceOption func(*loanService)

// WithLoanClock overrides the clock used for audit stamps and default dates.
func WithLoanClock(clock func() time.Time) LoanServiceOption {
	return func(s *loanService) {
		s.Clock = clock
	}
}

// NewLoanService creates a new loan service.
func NewLoanService(
	uow portsrepo.UnitOfWork,
	loanRepo portsrepo.LoanRepositoryFacade,
	accountRepo portsrepo.AccountRepositoryFacade,
	outbox portsrepo.OutboxWriter,
	engine portssvc.PostingEngine,
	settings portssvc.SettingReaderSvc,
	refs refgen.Generator,
	options ...LoanServiceOption,
) portssvc.LoanSvcFacade {
	svc := &loanService{
		uow:         uow,
		loanRepo:    loanRepo,
		accountRepo: accountRepo,
		outbox:      outbox,
		engine:      engine,
		settings:    settings,
		refs:        refs,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.LoanSvcFacade = (*loanService)(nil)

// DisburseLoan books Dr loan portfolio / Cr cash and stores the installment plan.
func (s *loanService) DisburseLoan(ctx context.Context, loanID string, req dto.DisburseLoanRequest, userID string) (*domain.LoanDisbursement, []domain.LoanSchedule, error) {
	var (
		disbursement domain.LoanDisbursement
		schedule     []domain.LoanSchedule
	)
	err := s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		now := s.Now()
		date := now
		if req.DisbursementDate != nil {
			date = *req.DisbursementDate
		}
		d, err := domain.NewLoanDisbursement(loanID, req.MemberID, req.Amount, date, userID, now)
		if err != nil {
			return err
		}
		items := make([]domain.InstallmentParams, 0, len(req.Installments))
		for _, it := range req.Installments {
			items = append(items, domain.InstallmentParams{
				ScheduleID:        uuid.NewString(),
				InstallmentNumber: it.InstallmentNumber,
				DueDate:           it.DueDate,
				PrincipalAmount:   it.PrincipalAmount,
				InterestAmount:    it.InterestAmount,
			})
		}
		plan, err := domain.NewLoanSchedule(loanID, d.Amount, items, userID, now)
		if err != nil {
			return err
		}
		portfolio, err := resolveAccountCode(ctx, tx, s.accountRepo, s.settings, "", domain.SettingLoanPortfolioAccount)
		if err != nil {
			return err
		}
		cash, err := resolveAccountCode(ctx, tx, s.accountRepo, s.settings, req.CashAccountCode, domain.SettingCashDefaultAccount)
		if err != nil {
			return err
		}

		entry, events, err := s.engine.PostSystemEntryTx(ctx, tx, twoLegEntry(domain.EntryLoanDisbursement, d.DisbursementDate,
			"Disbursement of loan "+loanID, portfolio, cash, d.Amount, d.MemberID, loanID), userID)
		if err != nil {
			return err
		}
		d.EntryID = entry.EntryID
		if err := s.loanRepo.SaveDisbursementTx(ctx, tx, d); err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				return fmt.Errorf("loan %s is already disbursed: %w", loanID, err)
			}
			return err
		}
		if err := s.loanRepo.SaveScheduleTx(ctx, tx, plan); err != nil {
			return err
		}
		disbursement, schedule = d, plan
		return emit(ctx, tx, s.outbox, events)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to disburse loan", slog.String("loan_id", loanID))
		return nil, nil, err
	}
	s.LogInfo(ctx, "Loan disbursed",
		slog.String("loan_id", loanID),
		slog.String("amount", disbursement.Amount.String()),
		slog.Int("installments", len(schedule)))
	return &disbursement, schedule, nil
}

func (s *loanService) GetSchedule(ctx context.Context, loanID string) ([]domain.LoanSchedule, error) {
	schedule, err := s.loanRepo.ListScheduleByLoan(ctx, loanID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load loan schedule", slog.String("loan_id", loanID))
		return nil, err
	}
	if len(schedule) == 0 {
		return nil, fmt.Errorf("%w: no schedule for loan %s", apperrors.ErrNotFound, loanID)
	}
	return schedule, nil
}

// RecordRepayment posts the receipt and allocates principal plus interest to
// unpaid installments, earliest first. Penalties are posted but not allocated.
// The loan must have been disbursed.
func (s *loanService) RecordRepayment(ctx context.Context, loanID string, req dto.RecordRepaymentRequest, userID string) (*domain.LoanRepayment, error) {
	var created domain.LoanRepayment
	err := s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := s.loanRepo.FindDisbursementTx(ctx, tx, loanID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: loan %s", domain.ErrLoanNotDisbursed, loanID)
			}
			return err
		}
		now := s.Now()
		var date time.Time
		if req.RepaymentDate != nil {
			date = *req.RepaymentDate
		}
		repayment, err := domain.NewLoanRepayment(domain.NewRepaymentParams{
			RepaymentID:     uuid.NewString(),
			Reference:       s.refs.Next(refgen.PrefixLoanRepayment),
			LoanID:          loanID,
			MemberID:        req.MemberID,
			RepaymentDate:   date,
			PrincipalAmount: req.PrincipalAmount,
			InterestAmount:  req.InterestAmount,
			PenaltyAmount:   req.PenaltyAmount,
			PaymentMethod:   req.PaymentMethod,
		}, userID, now)
		if err != nil {
			return err
		}

		var events []domain.Event
		if scheduled := repayment.ScheduledAmount(); scheduled.IsPositive() {
			schedule, err := s.loanRepo.FindScheduleForUpdate(ctx, tx, loanID)
			if err != nil {
				return err
			}
			allocations, err := domain.AllocateRepayment(schedule, scheduled)
			if err != nil {
				return err
			}
			byID := make(map[string]domain.LoanSchedule, len(schedule))
			for _, inst := range schedule {
				byID[inst.ScheduleID] = inst
			}
			for _, a := range allocations {
				next, more, err := byID[a.ScheduleID].ApplyPayment(a.Amount, repayment.RepaymentDate, now)
				if err != nil {
					return err
				}
				if err := s.loanRepo.UpdateInstallmentTx(ctx, tx, next); err != nil {
					return err
				}
				events = append(events, more...)
			}
			repayment.Allocations = allocations
		}

		entry, err := s.repaymentEntry(ctx, tx, repayment, req.CashAccountCode)
		if err != nil {
			return err
		}
		posted, more, err := s.engine.PostSystemEntryTx(ctx, tx, entry, userID)
		if err != nil {
			return err
		}
		repayment.EntryID = posted.EntryID
		if err := s.loanRepo.SaveRepaymentTx(ctx, tx, repayment); err != nil {
			return err
		}
		created = repayment
		return emit(ctx, tx, s.outbox, append(events, more...))
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to record loan repayment", slog.String("loan_id", loanID))
		return nil, err
	}
	s.LogInfo(ctx, "Loan repayment recorded",
		slog.String("loan_id", loanID),
		slog.String("repayment_id", created.RepaymentID),
		slog.String("total", created.TotalAmount.String()),
		slog.Int("allocations", len(created.Allocations)))
	return &created, nil
}

// repaymentEntry builds Dr cash against a credit per non-zero component.
func (s *loanService) repaymentEntry(ctx context.Context, tx pgx.Tx, r domain.LoanRepayment, cashCode string) (portssvc.SystemEntry, error) {
	cash, err := resolveAccountCode(ctx, tx, s.accountRepo, s.settings, cashCode, domain.SettingCashDefaultAccount)
	if err != nil {
		return portssvc.SystemEntry{}, err
	}
	entry := portssvc.SystemEntry{
		EntryDate:   r.RepaymentDate,
		Description: "Loan repayment " + r.Reference,
		EntryType:   domain.EntryLoanRepayment,
		Lines: []portssvc.SystemLine{
			{AccountID: cash, Side: domain.Debit, Amount: r.TotalAmount, MemberID: r.MemberID, LoanID: r.LoanID},
		},
	}
	components := []struct {
		amount     decimal.Decimal
		settingKey string
		label      string
	}{
		{r.PrincipalAmount, domain.SettingLoanPortfolioAccount, "principal"},
		{r.InterestAmount, domain.SettingLoanInterestAccount, "interest"},
		{r.PenaltyAmount, domain.SettingLoanPenaltyAccount, "penalty"},
	}
	for _, c := range components {
		if !c.amount.IsPositive() {
			continue
		}
		account, err := resolveAccountCode(ctx, tx, s.accountRepo, s.settings, "", c.settingKey)
		if err != nil {
			return portssvc.SystemEntry{}, err
		}
		entry.Lines = append(entry.Lines, portssvc.SystemLine{
			AccountID:   account,
			Side:        domain.Credit,
			Amount:      c.amount,
			Description: c.label,
			MemberID:    r.MemberID,
			LoanID:      r.LoanID,
		})
	}
	return entry, nil
}

func (s *loanService) ListRepayments(ctx context.Context, loanID string) ([]domain.LoanRepayment, error) {
	repayments, err := s.loanRepo.ListRepaymentsByLoan(ctx, loanID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list loan repayments", slog.String("loan_id", loanID))
		return nil, err
	}
	if repayments == nil {
		return []domain.LoanRepayment{}, nil
	}
	return repayments, nil
}
