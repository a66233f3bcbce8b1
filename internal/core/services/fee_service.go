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

// feeService keeps fee charges, payments and waivers in step with their journal entries.
// Each operation locks the obligation rows before the posting engine locks the period and accounts.
type feeService struct {
	BaseService
	uow         portsrepo.UnitOfWork
	feeRepo     portsrepo.FeeRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	outbox      portsrepo.OutboxWriter
	engine      portssvc.PostingEngine
	settings    portssvc.SettingReaderSvc
	refs        refgen.Generator
}

// FeeServiceOption is a functional option for configuring the fee service
type FeeServiceOption func(*feeService)

// WithFeeClock overrides the clock used for audit stamps and default dates.
func WithFeeClock(clock func() time.Time) FeeServiceOption {
	return func(s *feeService) {
		s.Clock = clock
	}
}

// NewFeeService creates a new fee service.
func NewFeeService(
	uow portsrepo.UnitOfWork,
	feeRepo portsrepo.FeeRepositoryFacade,
	accountRepo portsrepo.AccountRepositoryFacade,
	outbox portsrepo.OutboxWriter,
	engine portssvc.PostingEngine,
	settings portssvc.SettingReaderSvc,
	refs refgen.Generator,
	options ...FeeServiceOption,
) portssvc.FeeSvcFacade {
	svc := &feeService{
		uow:         uow,
		feeRepo:     feeRepo,
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

var _ portssvc.FeeSvcFacade = (*feeService)(nil)

// resolveAccount maps an explicit code, or the code stored under settingKey, to an account id.
func (s *feeService) resolveAccount(ctx context.Context, tx pgx.Tx, code, settingKey string) (string, error) {
	return resolveAccountCode(ctx, tx, s.accountRepo, s.settings, code, settingKey)
}

func resolveAccountCode(ctx context.Context, tx pgx.Tx, repo portsrepo.AccountTransactionSupport, settings portssvc.SettingReaderSvc, code, settingKey string) (string, error) {
	if code == "" {
		configured, err := settings.StringSetting(ctx, settingKey, "")
		if err != nil {
			return "", err
		}
		if configured == "" {
			return "", fmt.Errorf("%w: no account configured for %s", domain.ErrInvalidAccount, settingKey)
		}
		code = configured
	}
	acc, err := repo.FindAccountByCodeTx(ctx, tx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", fmt.Errorf("%w: account code %s not found", domain.ErrInvalidAccount, code)
		}
		return "", err
	}
	return acc.AccountID, nil
}

// twoLegEntry builds the usual Dr/Cr pair.
func twoLegEntry(entryType domain.JournalEntryType, date time.Time, description, debitAccount, creditAccount string, amount decimal.Decimal, memberID, loanID string) portssvc.SystemEntry {
	return portssvc.SystemEntry{
		EntryDate:   date,
		Description: description,
		EntryType:   entryType,
		Lines: []portssvc.SystemLine{
			{AccountID: debitAccount, Side: domain.Debit, Amount: amount, MemberID: memberID, LoanID: loanID},
			{AccountID: creditAccount, Side: domain.Credit, Amount: amount, MemberID: memberID, LoanID: loanID},
		},
	}
}

func (s *feeService) CreateCharge(ctx context.Context, req dto.CreateFeeChargeRequest, userID string) (*domain.FeeCharge, error) {
	var created domain.FeeCharge
	err := s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		now := s.Now()
		receivable, err := s.resolveAccount(ctx, tx, req.ReceivableAccountCode, domain.SettingFeeReceivableAccount)
		if err != nil {
			return err
		}
		income, err := s.resolveAccount(ctx, tx, req.IncomeAccountCode, domain.SettingFeeIncomeAccount)
		if err != nil {
			return err
		}
		chargeDate := now
		if req.ChargeDate != nil {
			chargeDate = *req.ChargeDate
		}
		charge, events, err := domain.NewFeeCharge(domain.NewChargeParams{
			ChargeID:            uuid.NewString(),
			Reference:           s.refs.Next(refgen.PrefixFeeCharge),
			FeeDefinitionID:     req.FeeDefinitionID,
			MemberID:            req.MemberID,
			LoanID:              req.LoanID,
			SavingsAccountID:    req.SavingsAccountID,
			ShareAccountID:      req.ShareAccountID,
			Amount:              req.Amount,
			ChargeDate:          chargeDate,
			DueDate:             req.DueDate,
			ReceivableAccountID: receivable,
			IncomeAccountID:     income,
			Notes:               req.Notes,
		}, userID, now)
		if err != nil {
			return err
		}

		entry, posted, err := s.engine.PostSystemEntryTx(ctx, tx, twoLegEntry(domain.EntryFeeCharge, charge.ChargeDate,
			"Fee charge "+charge.Reference, receivable, income, charge.Amount, charge.MemberID, charge.LoanID), userID)
		if err != nil {
			return err
		}
		charge.ChargeEntryID = entry.EntryID
		if err := s.feeRepo.SaveChargeTx(ctx, tx, charge); err != nil {
			return err
		}
		created = charge
		return emit(ctx, tx, s.outbox, append(events, posted...))
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create fee charge", slog.String("member_id", req.MemberID))
		return nil, err
	}
	s.LogInfo(ctx, "Fee charge created",
		slog.String("charge_id", created.ChargeID),
		slog.String("reference", created.Reference),
		slog.String("amount", created.Amount.String()))
	return &created, nil
}

func (s *feeService) GetCharge(ctx context.Context, chargeID string) (*domain.FeeCharge, error) {
	charge, err := s.feeRepo.FindChargeByID(ctx, chargeID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find fee charge", slog.String("charge_id", chargeID))
		}
		return nil, err
	}
	return charge, nil
}

func (s *feeService) ListChargesByMember(ctx context.Context, memberID string, limit int, offset int) ([]domain.FeeCharge, error) {
	charges, err := s.feeRepo.ListChargesByMember(ctx, memberID, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list fee charges", slog.String("member_id", memberID))
		return nil, err
	}
	if charges == nil {
		return []domain.FeeCharge{}, nil
	}
	return charges, nil
}

func (s *feeService) RecordPayment(ctx context.Context, chargeID string, req dto.RecordFeePaymentRequest, userID string) (*domain.FeePayment, error) {
	var created domain.FeePayment
	err := s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		now := s.Now()
		charge, err := s.feeRepo.FindChargeForUpdate(ctx, tx, chargeID)
		if err != nil {
			return err
		}
		cash, err := s.resolveAccount(ctx, tx, req.CashAccountCode, domain.SettingCashDefaultAccount)
		if err != nil {
			return err
		}
		paidOn := now
		if req.PaymentDate != nil {
			paidOn = *req.PaymentDate
		}
		payment, err := domain.NewFeePayment(*charge, domain.NewPaymentParams{
			PaymentID:     uuid.NewString(),
			Reference:     s.refs.Next(refgen.PrefixFeePayment),
			Amount:        req.Amount,
			PaymentDate:   paidOn,
			PaymentMethod: req.PaymentMethod,
			PaymentSource: req.PaymentSource,
			CashAccountID: cash,
		}, userID, now)
		if err != nil {
			return err
		}
		updated, events, err := charge.RecordPayment(payment.Amount, payment.PaymentDate, userID, now)
		if err != nil {
			return err
		}

		entry, posted, err := s.engine.PostSystemEntryTx(ctx, tx, twoLegEntry(domain.EntryFeePayment, payment.PaymentDate,
			"Fee payment "+payment.Reference+" for "+charge.Reference, cash, charge.ReceivableAccountID, payment.Amount, charge.MemberID, charge.LoanID), userID)
		if err != nil {
			return err
		}
		payment.EntryID = entry.EntryID
		if err := s.feeRepo.SavePaymentTx(ctx, tx, payment); err != nil {
			return err
		}
		if err := s.feeRepo.UpdateChargeTx(ctx, tx, updated); err != nil {
			return err
		}
		created = payment
		return emit(ctx, tx, s.outbox, append(events, posted...))
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to record fee payment", slog.String("charge_id", chargeID))
		return nil, err
	}
	s.LogInfo(ctx, "Fee payment recorded",
		slog.String("payment_id", created.PaymentID),
		slog.String("charge_id", chargeID),
		slog.String("amount", created.Amount.String()))
	return &created, nil
}

func (s *feeService) ListPayments(ctx context.Context, chargeID string) ([]domain.FeePayment, error) {
	payments, err := s.feeRepo.ListPaymentsByCharge(ctx, chargeID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list fee payments", slog.String("charge_id", chargeID))
		return nil, err
	}
	if payments == nil {
		return []domain.FeePayment{}, nil
	}
	return payments, nil
}

func (s *feeService) ReversePayment(ctx context.Context, paymentID string, reason string, userID string) (*domain.FeePayment, error) {
	var reversed domain.FeePayment
	err := s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		now := s.Now()
		payment, err := s.feeRepo.FindPaymentForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		charge, err := s.feeRepo.FindChargeForUpdate(ctx, tx, payment.ChargeID)
		if err != nil {
			return err
		}
		nextPayment, events, err := payment.Reverse(reason, userID, now)
		if err != nil {
			return err
		}
		nextCharge, err := charge.ReversePayment(payment.Amount, userID, now)
		if err != nil {
			return err
		}
		if payment.EntryID != "" {
			rev, posted, err := s.engine.ReverseEntryTx(ctx, tx, payment.EntryID, now, userID)
			if err != nil {
				return err
			}
			if rev == nil {
				// discarded before posting
				nextPayment.EntryID = ""
			}
			events = append(events, posted...)
		}
		if err := s.feeRepo.UpdatePaymentTx(ctx, tx, nextPayment); err != nil {
			return err
		}
		if err := s.feeRepo.UpdateChargeTx(ctx, tx, nextCharge); err != nil {
			return err
		}
		reversed = nextPayment
		return emit(ctx, tx, s.outbox, events)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to reverse fee payment", slog.String("payment_id", paymentID))
		return nil, err
	}
	s.LogInfo(ctx, "Fee payment reversed", slog.String("payment_id", paymentID))
	return &reversed, nil
}

// WaiveCharge writes off the whole payable balance. The write-off is recorded
// as an approved waiver so that reversing the charge finds its journal entry.
func (s *feeService) WaiveCharge(ctx context.Context, chargeID string, reason string, userID string) (*domain.FeeCharge, error) {
	var waived domain.FeeCharge
	err := s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		now := s.Now()
		charge, err := s.feeRepo.FindChargeForUpdate(ctx, tx, chargeID)
		if err != nil {
			return err
		}
		next, amount, events, err := charge.Waive(reason, userID, now)
		if err != nil {
			return err
		}
		waiver, err := domain.NewFeeWaiver(uuid.NewString(), *charge, amount, reason, userID, now)
		if err != nil {
			return err
		}
		waiver, more, err := waiver.Approve(userID, now)
		if err != nil {
			return err
		}
		events = append(events, more...)

		posted, err := s.postWaiver(ctx, tx, *charge, &waiver, userID, now)
		if err != nil {
			return err
		}
		if err := s.feeRepo.SaveWaiverTx(ctx, tx, waiver); err != nil {
			return err
		}
		if err := s.feeRepo.UpdateChargeTx(ctx, tx, next); err != nil {
			return err
		}
		waived = next
		return emit(ctx, tx, s.outbox, append(events, posted...))
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to waive fee charge", slog.String("charge_id", chargeID))
		return nil, err
	}
	s.LogInfo(ctx, "Fee charge waived",
		slog.String("charge_id", chargeID),
		slog.String("amount_waived", waived.AmountWaived.String()))
	return &waived, nil
}

// postWaiver books Dr waiver expense / Cr receivable and stamps the entry on waiver.
func (s *feeService) postWaiver(ctx context.Context, tx pgx.Tx, charge domain.FeeCharge, waiver *domain.FeeWaiver, userID string, now time.Time) ([]domain.Event, error) {
	expense, err := s.resolveAccount(ctx, tx, "", domain.SettingFeeWaiverExpenseAccount)
	if err != nil {
		return nil, err
	}
	entry, events, err := s.engine.PostSystemEntryTx(ctx, tx, twoLegEntry(domain.EntryFeeWaiver, now,
		"Fee waiver for "+charge.Reference, expense, charge.ReceivableAccountID, waiver.WaivedAmount, charge.MemberID, charge.LoanID), userID)
	if err != nil {
		return nil, err
	}
	waiver.EntryID = entry.EntryID
	return events, nil
}

// ReverseCharge cancels a charge without payments, reversing the charge
// entry and the entries of every approved waiver.
func (s *feeService) ReverseCharge(ctx context.Context, chargeID string, reason string, userID string) (*domain.FeeCharge, error) {
	var reversed domain.FeeCharge
	err := s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		now := s.Now()
		charge, err := s.feeRepo.FindChargeForUpdate(ctx, tx, chargeID)
		if err != nil {
			return err
		}
		next, events, err := charge.Reverse(reason, userID, now)
		if err != nil {
			return err
		}
		waivers, err := s.feeRepo.ListApprovedWaiversTx(ctx, tx, chargeID)
		if err != nil {
			return err
		}
		for _, w := range waivers {
			if w.EntryID == "" {
				continue
			}
			rev, posted, err := s.engine.ReverseEntryTx(ctx, tx, w.EntryID, now, userID)
			if err != nil {
				return err
			}
			events = append(events, posted...)
			if rev != nil {
				continue
			}
			// The unposted waiver entry was discarded; drop the dangling link.
			if err := s.feeRepo.UpdateWaiverTx(ctx, tx, w.DetachEntry(userID, now)); err != nil {
				return err
			}
		}
		if charge.ChargeEntryID != "" {
			rev, posted, err := s.engine.ReverseEntryTx(ctx, tx, charge.ChargeEntryID, now, userID)
			if err != nil {
				return err
			}
			if rev == nil {
				next.ChargeEntryID = ""
			}
			events = append(events, posted...)
		}
		if err := s.feeRepo.UpdateChargeTx(ctx, tx, next); err != nil {
			return err
		}
		reversed = next
		return emit(ctx, tx, s.outbox, events)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to reverse fee charge", slog.String("charge_id", chargeID))
		return nil, err
	}
	s.LogInfo(ctx, "Fee charge reversed", slog.String("charge_id", chargeID))
	return &reversed, nil
}

func (s *feeService) RequestWaiver(ctx context.Context, req dto.CreateFeeWaiverRequest, userID string) (*domain.FeeWaiver, error) {
	var created domain.FeeWaiver
	err := s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		charge, err := s.feeRepo.FindChargeForUpdate(ctx, tx, req.ChargeID)
		if err != nil {
			return err
		}
		waiver, err := domain.NewFeeWaiver(uuid.NewString(), *charge, req.WaivedAmount, req.Reason, userID, s.Now())
		if err != nil {
			return err
		}
		if err := s.feeRepo.SaveWaiverTx(ctx, tx, waiver); err != nil {
			return err
		}
		created = waiver
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to request fee waiver", slog.String("charge_id", req.ChargeID))
		return nil, err
	}
	s.LogInfo(ctx, "Fee waiver requested",
		slog.String("waiver_id", created.WaiverID),
		slog.String("type", string(created.WaiverType)))
	return &created, nil
}

func (s *feeService) GetWaiver(ctx context.Context, waiverID string) (*domain.FeeWaiver, error) {
	waiver, err := s.feeRepo.FindWaiverByID(ctx, waiverID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find fee waiver", slog.String("waiver_id", waiverID))
		}
		return nil, err
	}
	return waiver, nil
}

func (s *feeService) ListWaivers(ctx context.Context, chargeID string) ([]domain.FeeWaiver, error) {
	waivers, err := s.feeRepo.ListWaiversByCharge(ctx, chargeID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list fee waivers", slog.String("charge_id", chargeID))
		return nil, err
	}
	if waivers == nil {
		return []domain.FeeWaiver{}, nil
	}
	return waivers, nil
}

func (s *feeService) UpdateWaiver(ctx context.Context, waiverID string, req dto.UpdateFeeWaiverRequest, userID string) (*domain.FeeWaiver, error) {
	return s.mutateWaiver(ctx, waiverID, "update", func(w domain.FeeWaiver) (domain.FeeWaiver, []domain.Event, error) {
		next, err := w.Update(req.WaivedAmount, req.Reason, userID, s.Now())
		return next, nil, err
	})
}

// ApproveWaiver applies the waived amount to the charge and books it.
func (s *feeService) ApproveWaiver(ctx context.Context, waiverID string, userID string) (*domain.FeeWaiver, error) {
	var approved domain.FeeWaiver
	err := s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		now := s.Now()
		waiver, err := s.feeRepo.FindWaiverForUpdate(ctx, tx, waiverID)
		if err != nil {
			return err
		}
		charge, err := s.feeRepo.FindChargeForUpdate(ctx, tx, waiver.ChargeID)
		if err != nil {
			return err
		}
		next, events, err := waiver.Approve(userID, now)
		if err != nil {
			return err
		}
		nextCharge, more, err := charge.ApplyWaiver(next.WaivedAmount, userID, now)
		if err != nil {
			return err
		}
		events = append(events, more...)
		posted, err := s.postWaiver(ctx, tx, *charge, &next, userID, now)
		if err != nil {
			return err
		}
		if err := s.feeRepo.UpdateWaiverTx(ctx, tx, next); err != nil {
			return err
		}
		if err := s.feeRepo.UpdateChargeTx(ctx, tx, nextCharge); err != nil {
			return err
		}
		approved = next
		return emit(ctx, tx, s.outbox, append(events, posted...))
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to approve fee waiver", slog.String("waiver_id", waiverID))
		return nil, err
	}
	s.LogInfo(ctx, "Fee waiver approved",
		slog.String("waiver_id", waiverID),
		slog.String("amount", approved.WaivedAmount.String()))
	return &approved, nil
}

func (s *feeService) RejectWaiver(ctx context.Context, waiverID string, reason string, userID string) (*domain.FeeWaiver, error) {
	return s.mutateWaiver(ctx, waiverID, "reject", func(w domain.FeeWaiver) (domain.FeeWaiver, []domain.Event, error) {
		return w.Reject(userID, reason, s.Now())
	})
}

func (s *feeService) CancelWaiver(ctx context.Context, waiverID string, userID string) (*domain.FeeWaiver, error) {
	return s.mutateWaiver(ctx, waiverID, "cancel", func(w domain.FeeWaiver) (domain.FeeWaiver, []domain.Event, error) {
		next, err := w.Cancel(userID, s.Now())
		return next, nil, err
	})
}

func (s *feeService) mutateWaiver(ctx context.Context, waiverID, action string, apply func(domain.FeeWaiver) (domain.FeeWaiver, []domain.Event, error)) (*domain.FeeWaiver, error) {
	var updated domain.FeeWaiver
	err := s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		waiver, err := s.feeRepo.FindWaiverForUpdate(ctx, tx, waiverID)
		if err != nil {
			return err
		}
		next, events, err := apply(*waiver)
		if err != nil {
			return err
		}
		if err := s.feeRepo.UpdateWaiverTx(ctx, tx, next); err != nil {
			return err
		}
		updated = next
		return emit(ctx, tx, s.outbox, events)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to "+action+" fee waiver", slog.String("waiver_id", waiverID))
		return nil, err
	}
	return &updated, nil
}
