package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/mfi_ledger/internal/apperrors"
	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mfi_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mfi_ledger/internal/core/ports/services"
	"github.com/SscSPs/mfi_ledger/internal/dto"
)

// periodService maintains the accounting calendar and runs the close workflow.
type periodService struct {
	BaseService
	uow        portsrepo.UnitOfWork
	periodRepo portsrepo.PeriodRepositoryFacade
	reporting  portsrepo.ReportingRepository
	outbox     portsrepo.OutboxWriter
}

// PeriodServiceOption is a functional option for configuring the period service
type PeriodServiceOption func(*periodService)

// WithPeriodClock overrides the clock used for audit stamps.
func WithPeriodClock(clock func() time.Time) PeriodServiceOption {
	return func(s *periodService) {
		s.Clock = clock
	}
}

// NewPeriodService creates a new period service.
func NewPeriodService(uow portsrepo.UnitOfWork, periodRepo portsrepo.PeriodRepositoryFacade, reporting portsrepo.ReportingRepository, outbox portsrepo.OutboxWriter, options ...PeriodServiceOption) portssvc.PeriodSvcFacade {
	svc := &periodService{
		uow:        uow,
		periodRepo: periodRepo,
		reporting:  reporting,
		outbox:     outbox,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.PeriodSvcFacade = (*periodService)(nil)

func (s *periodService) GetPeriodByID(ctx context.Context, periodID string) (*domain.AccountingPeriod, error) {
	period, err := s.periodRepo.FindPeriodByID(ctx, periodID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find period", slog.String("period_id", periodID))
		}
		return nil, err
	}
	return period, nil
}

func (s *periodService) ListPeriods(ctx context.Context, fiscalYear *int) ([]domain.AccountingPeriod, error) {
	periods, err := s.periodRepo.ListPeriods(ctx, fiscalYear)
	if err != nil {
		s.LogError(ctx, err, "Failed to list periods")
		return nil, err
	}
	if periods == nil {
		return []domain.AccountingPeriod{}, nil
	}
	return periods, nil
}

func (s *periodService) ResolvePeriod(ctx context.Context, date time.Time) (*domain.AccountingPeriod, error) {
	period, err := s.periodRepo.FindPeriodByDate(ctx, date)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNoPeriodDefined, domain.DateOnly(date).Format(time.DateOnly))
		}
		s.LogError(ctx, err, "Failed to resolve period", slog.Time("date", date))
		return nil, err
	}
	return period, nil
}

func (s *periodService) CreatePeriod(ctx context.Context, req dto.CreatePeriodRequest, userID string) (*domain.AccountingPeriod, error) {
	var created domain.AccountingPeriod
	err := s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		period, events, err := domain.NewAccountingPeriod(domain.NewPeriodParams{
			PeriodID:           uuid.NewString(),
			Name:               req.Name,
			StartDate:          req.StartDate,
			EndDate:            req.EndDate,
			PeriodType:         req.PeriodType,
			FiscalYear:         req.FiscalYear,
			PeriodNumber:       req.PeriodNumber,
			IsAdjustmentPeriod: req.IsAdjustmentPeriod,
		}, userID, s.Now())
		if err != nil {
			return err
		}
		if err := s.periodRepo.LockCalendarTx(ctx, tx); err != nil {
			return err
		}
		existing, err := s.periodRepo.FindOverlappingPeriodsTx(ctx, tx, period.StartDate, period.EndDate)
		if err != nil {
			return err
		}
		if err := period.CheckNoOverlap(existing); err != nil {
			return err
		}
		if err := s.periodRepo.SavePeriodTx(ctx, tx, period); err != nil {
			return err
		}
		created = period
		return emit(ctx, tx, s.outbox, events)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create period", slog.String("name", req.Name))
		return nil, err
	}
	s.LogInfo(ctx, "Accounting period created",
		slog.String("period_id", created.PeriodID),
		slog.String("name", created.Name))
	return &created, nil
}

func (s *periodService) UpdatePeriod(ctx context.Context, periodID string, req dto.UpdatePeriodRequest, userID string) (*domain.AccountingPeriod, error) {
	return s.mutate(ctx, periodID, "update", func(p domain.AccountingPeriod) (domain.AccountingPeriod, []domain.Event, error) {
		next, err := p.Update(req.Name, req.IsAdjustmentPeriod, userID, s.Now())
		return next, nil, err
	})
}

// ClosePeriod fences the period in one unit of work, then records the closing
// balance in a second one. Postings that committed before the fence are all
// visible to the second read, and none can follow it.
func (s *periodService) ClosePeriod(ctx context.Context, periodID string, req dto.ClosePeriodRequest, userID string) (*domain.AccountingPeriod, error) {
	closed, err := s.mutate(ctx, periodID, "close", func(p domain.AccountingPeriod) (domain.AccountingPeriod, []domain.Event, error) {
		return p.Close(userID, req.ClosingBalance, s.Now())
	})
	if err != nil || req.ClosingBalance != nil {
		return closed, err
	}

	var final domain.AccountingPeriod
	err = s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		period, err := s.periodRepo.FindPeriodForUpdate(ctx, tx, periodID)
		if err != nil {
			return err
		}
		totals, err := s.reporting.PeriodTotalsTx(ctx, tx, periodID)
		if err != nil {
			return err
		}
		next, err := period.RecordClosingBalance(domain.NetIncome(totals), s.Now())
		if err != nil {
			return err
		}
		if err := s.periodRepo.UpdatePeriodTx(ctx, tx, next); err != nil {
			return err
		}
		final = next
		return nil
	})
	if err != nil {
		// The fence is committed; only the snapshot is missing.
		s.LogError(ctx, err, "Failed to record closing balance", slog.String("period_id", periodID))
		return closed, nil
	}
	return &final, nil
}

func (s *periodService) ReopenPeriod(ctx context.Context, periodID string, reason string, userID string) (*domain.AccountingPeriod, error) {
	return s.mutate(ctx, periodID, "reopen", func(p domain.AccountingPeriod) (domain.AccountingPeriod, []domain.Event, error) {
		return p.Reopen(userID, reason, s.Now())
	})
}

func (s *periodService) LockPeriod(ctx context.Context, periodID string, userID string) (*domain.AccountingPeriod, error) {
	return s.mutate(ctx, periodID, "lock", func(p domain.AccountingPeriod) (domain.AccountingPeriod, []domain.Event, error) {
		return p.Lock(userID, s.Now())
	})
}

func (s *periodService) mutate(ctx context.Context, periodID, action string, apply func(domain.AccountingPeriod) (domain.AccountingPeriod, []domain.Event, error)) (*domain.AccountingPeriod, error) {
	var updated domain.AccountingPeriod
	err := s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		period, err := s.periodRepo.FindPeriodForUpdate(ctx, tx, periodID)
		if err != nil {
			return err
		}
		next, events, err := apply(*period)
		if err != nil {
			return err
		}
		if err := s.periodRepo.UpdatePeriodTx(ctx, tx, next); err != nil {
			return err
		}
		updated = next
		return emit(ctx, tx, s.outbox, events)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to "+action+" period", slog.String("period_id", periodID))
		return nil, err
	}
	s.LogInfo(ctx, "Accounting period "+action+" succeeded",
		slog.String("period_id", periodID),
		slog.String("status", string(updated.Status)))
	return &updated, nil
}
