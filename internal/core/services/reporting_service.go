package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mfi_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mfi_ledger/internal/core/ports/services"
)

// reportingService implements the ReportingService interface
type reportingService struct {
	BaseService
	reportingRepo portsrepo.ReportingRepository
}

// NewReportingService creates a new reporting service
func NewReportingService(repo portsrepo.ReportingRepository) portssvc.ReportingService {
	return &reportingService{reportingRepo: repo}
}

// Ensure reportingService implements the ReportingService interface
var _ portssvc.ReportingService = (*reportingService)(nil)

// GetTrialBalance sums posted lines per account up to and including asOf.
func (s *reportingService) GetTrialBalance(ctx context.Context, asOf time.Time) (*domain.TrialBalance, error) {
	asOf = domain.DateOnly(asOf)
	totals, err := s.reportingRepo.AccountTotalsAsOf(ctx, asOf)
	if err != nil {
		s.LogError(ctx, err, "Failed to retrieve trial balance data",
			slog.String("asOf", asOf.Format(time.DateOnly)))
		return nil, fmt.Errorf("failed to retrieve trial balance data: %w", err)
	}

	tb := domain.BuildTrialBalance(asOf, totals)
	if !tb.IsBalanced {
		s.GetLogger(ctx).Warn("Trial balance does not balance",
			slog.String("asOf", asOf.Format(time.DateOnly)),
			slog.String("total_debit", tb.TotalDebit.String()),
			slog.String("total_credit", tb.TotalCredit.String()))
	}
	s.LogInfo(ctx, "Trial balance report generated successfully",
		slog.String("asOf", asOf.Format(time.DateOnly)),
		slog.Int("row_count", len(tb.Rows)))
	return &tb, nil
}

// eventQueryService reads delivered events back from the event store.
type eventQueryService struct {
	BaseService
	reader portsrepo.EventReader
}

// NewEventQueryService creates the event query service.
func NewEventQueryService(reader portsrepo.EventReader) portssvc.EventQuerySvc {
	return &eventQueryService{reader: reader}
}

var _ portssvc.EventQuerySvc = (*eventQueryService)(nil)

func (s *eventQueryService) ListEvents(ctx context.Context, aggregateID string, types []string) ([]domain.StoredEvent, error) {
	known := make(map[domain.EventType]struct{})
	for _, t := range domain.AllEventTypes() {
		known[t] = struct{}{}
	}
	filter := make([]domain.EventType, 0, len(types))
	for _, t := range types {
		et := domain.EventType(t)
		if _, ok := known[et]; !ok {
			return nil, fmt.Errorf("%w: unknown event type %q", domain.ErrInvalidEntry, t)
		}
		filter = append(filter, et)
	}
	events, err := s.reader.QueryEvents(ctx, aggregateID, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to query events", slog.String("aggregate_id", aggregateID))
		return nil, err
	}
	if events == nil {
		return []domain.StoredEvent{}, nil
	}
	return events, nil
}
