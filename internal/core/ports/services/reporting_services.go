package services

import (
	"context"
	"time"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
)

// ReportingService builds reports from posted journal lines
type ReportingService interface {
	GetTrialBalance(ctx context.Context, asOf time.Time) (*domain.TrialBalance, error)
}

// EventQuerySvc reads back delivered domain events
type EventQuerySvc interface {
	ListEvents(ctx context.Context, aggregateID string, types []string) ([]domain.StoredEvent, error)
}
