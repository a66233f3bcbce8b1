package services

import (
	"context"
	"time"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/SscSPs/mfi_ledger/internal/dto"
)

// PeriodReaderSvc defines read operations for the period calendar
type PeriodReaderSvc interface {
	GetPeriodByID(ctx context.Context, periodID string) (*domain.AccountingPeriod, error)
	ListPeriods(ctx context.Context, fiscalYear *int) ([]domain.AccountingPeriod, error)

	// ResolvePeriod returns the period covering date, or ErrNoPeriodDefined.
	ResolvePeriod(ctx context.Context, date time.Time) (*domain.AccountingPeriod, error)
}

// PeriodWriterSvc defines calendar maintenance and the close workflow
type PeriodWriterSvc interface {
	CreatePeriod(ctx context.Context, req dto.CreatePeriodRequest, userID string) (*domain.AccountingPeriod, error)
	UpdatePeriod(ctx context.Context, periodID string, req dto.UpdatePeriodRequest, userID string) (*domain.AccountingPeriod, error)
	ClosePeriod(ctx context.Context, periodID string, req dto.ClosePeriodRequest, userID string) (*domain.AccountingPeriod, error)
	ReopenPeriod(ctx context.Context, periodID string, reason string, userID string) (*domain.AccountingPeriod, error)
	LockPeriod(ctx context.Context, periodID string, userID string) (*domain.AccountingPeriod, error)
}

// PeriodSvcFacade combines all period-related service interfaces
type PeriodSvcFacade interface {
	PeriodReaderSvc
	PeriodWriterSvc
}
