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
	"github.com/SscSPs/mfi_ledger/internal/utils/pagination"
	"github.com/SscSPs/mfi_ledger/internal/utils/refgen"
)

const (
	defaultJournalPageSize = 20
	maxJournalPageSize     = 100
)

// SourceSystem marks entries raised by the obligation ledger.
const SourceSystem = "SYSTEM"

// journalService is the posting engine. Every balance change in the ledger goes through postInTx.
type journalService struct {
	BaseService
	uow         portsrepo.UnitOfWork
	journalRepo portsrepo.JournalRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	periodRepo  portsrepo.PeriodRepositoryFacade
	outbox      portsrepo.OutboxWriter
	settings    portssvc.SettingReaderSvc
	refs        refgen.Generator
}

// JournalServiceOption is a functional option for configuring the journal service
type JournalServiceOption func(*journalService)

// WithJournalClock overrides the clock used for audit stamps and default dates.
func WithJournalClock(clock func() time.Time) JournalServiceOption {
	return func(s *journalService) {
		s.Clock = clock
	}
}

// NewJournalService creates a new posting engine.
func NewJournalService(
	uow portsrepo.UnitOfWork,
	journalRepo portsrepo.JournalRepositoryFacade,
	accountRepo portsrepo.AccountRepositoryFacade,
	periodRepo portsrepo.PeriodRepositoryFacade,
	outbox portsrepo.OutboxWriter,
	settings portssvc.SettingReaderSvc,
	refs refgen.Generator,
	options ...JournalServiceOption,
) portssvc.JournalSvcFacade {
	svc := &journalService{
		uow:         uow,
		journalRepo: journalRepo,
		accountRepo: accountRepo,
		periodRepo:  periodRepo,
		outbox:      outbox,
		settings:    settings,
		refs:        refs,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.JournalSvcFacade = (*journalService)(nil)

func (s *journalService) GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find journal entry", slog.String("entry_id", entryID))
		}
		return nil, err
	}
	return entry, nil
}

func (s *journalService) ListEntries(ctx context.Context, params dto.ListJournalEntriesParams) ([]domain.JournalEntry, *string, error) {
	filter := portsrepo.JournalListFilter{PeriodID: params.PeriodID}
	if params.Status != nil {
		st := domain.JournalStatus(*params.Status)
		filter.Status = &st
	}
	if params.EntryType != nil {
		et := domain.JournalEntryType(*params.EntryType)
		if !et.IsValid() {
			return nil, nil, fmt.Errorf("%w: unknown entry type %q", domain.ErrInvalidEntry, *params.EntryType)
		}
		filter.EntryType = &et
	}
	limit := pagination.ClampLimit(params.Limit, defaultJournalPageSize, maxJournalPageSize)

	entries, next, err := s.journalRepo.ListEntries(ctx, filter, limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list journal entries", slog.Int("limit", limit))
		return nil, nil, err
	}
	if entries == nil {
		entries = []domain.JournalEntry{}
	}
	return entries, next, nil
}

func (s *journalService) CreateDraft(ctx context.Context, req dto.CreateJournalEntryRequest, userID string) (*domain.JournalEntry, error) {
	var created domain.JournalEntry
	err := s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		now := s.Now()
		entry, err := domain.NewDraft(domain.DraftParams{
			EntryID:         uuid.NewString(),
			ReferenceNumber: s.refs.Next(refgen.PrefixJournalEntry),
			EntryDate:       req.EntryDate,
			Description:     req.Description,
			EntryType:       req.EntryType,
			Source:          req.Source,
		}, userID, now)
		if err != nil {
			return err
		}
		if entry, err = s.appendLines(ctx, tx, entry, req.Lines, userID, now); err != nil {
			return err
		}
		if err := s.journalRepo.SaveEntryTx(ctx, tx, entry); err != nil {
			return err
		}
		created = entry
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create journal entry", slog.String("user_id", userID))
		return nil, err
	}
	s.LogInfo(ctx, "Journal entry drafted",
		slog.String("entry_id", created.EntryID),
		slog.String("reference", created.ReferenceNumber),
		slog.Int("lines", len(created.Lines)))
	return &created, nil
}

func (s *journalService) AddLines(ctx context.Context, entryID string, lines []dto.JournalLineRequest, userID string) (*domain.JournalEntry, error) {
	var updated domain.JournalEntry
	err := s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		entry, err := s.journalRepo.FindEntryForUpdate(ctx, tx, entryID)
		if err != nil {
			return err
		}
		before := len(entry.Lines)
		next, err := s.appendLines(ctx, tx, *entry, lines, userID, s.Now())
		if err != nil {
			return err
		}
		for _, line := range next.Lines[before:] {
			if err := s.journalRepo.InsertLineTx(ctx, tx, line); err != nil {
				return err
			}
		}
		if err := s.journalRepo.UpdateEntryTx(ctx, tx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to add journal lines", slog.String("entry_id", entryID))
		return nil, err
	}
	return &updated, nil
}

// appendLines resolves each line's account and adds the line to entry.
// Accounts are re-checked under lock when the entry is posted.
func (s *journalService) appendLines(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, reqs []dto.JournalLineRequest, userID string, now time.Time) (domain.JournalEntry, error) {
	for _, req := range reqs {
		acc, err := s.accountRepo.FindAccountByIDTx(ctx, tx, req.AccountID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return entry, fmt.Errorf("%w: account %s not found", domain.ErrInvalidLine, req.AccountID)
			}
			return entry, err
		}
		if err := acc.CanPost(); err != nil {
			return entry, err
		}
		line, err := domain.NewLine(domain.LineParams{
			LineID:           uuid.NewString(),
			AccountID:        acc.AccountID,
			Side:             req.Side,
			Amount:           req.Amount,
			Description:      req.Description,
			MemberID:         req.MemberID,
			LoanID:           req.LoanID,
			SavingsAccountID: req.SavingsAccountID,
			Metadata:         req.Metadata,
		})
		if err != nil {
			return entry, err
		}
		if entry, err = entry.AddLine(line, userID, now); err != nil {
			return entry, err
		}
	}
	return entry, nil
}

func (s *journalService) SubmitEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error) {
	return s.transition(ctx, entryID, "submit", func(e domain.JournalEntry) (domain.JournalEntry, []domain.Event, error) {
		return e.Submit(userID, s.Now())
	})
}

func (s *journalService) ApproveEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error) {
	return s.transition(ctx, entryID, "approve", func(e domain.JournalEntry) (domain.JournalEntry, []domain.Event, error) {
		return e.Approve(userID, s.Now())
	})
}

func (s *journalService) RejectEntry(ctx context.Context, entryID string, reason string, userID string) (*domain.JournalEntry, error) {
	return s.transition(ctx, entryID, "reject", func(e domain.JournalEntry) (domain.JournalEntry, []domain.Event, error) {
		return e.Reject(userID, reason, s.Now())
	})
}

// transition applies a header-only workflow step under a row lock.
func (s *journalService) transition(ctx context.Context, entryID, action string, apply func(domain.JournalEntry) (domain.JournalEntry, []domain.Event, error)) (*domain.JournalEntry, error) {
	var updated domain.JournalEntry
	err := s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		entry, err := s.journalRepo.FindEntryForUpdate(ctx, tx, entryID)
		if err != nil {
			return err
		}
		next, events, err := apply(*entry)
		if err != nil {
			return err
		}
		if err := s.journalRepo.UpdateEntryTx(ctx, tx, next); err != nil {
			return err
		}
		updated = next
		return emit(ctx, tx, s.outbox, events)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to "+action+" journal entry", slog.String("entry_id", entryID))
		return nil, err
	}
	s.LogInfo(ctx, "Journal entry "+action+" succeeded",
		slog.String("entry_id", entryID),
		slog.String("status", string(updated.Status)))
	return &updated, nil
}

func (s *journalService) PostEntry(ctx context.Context, entryID string, postingDate *time.Time, userID string) (*domain.JournalEntry, error) {
	var posted domain.JournalEntry
	err := s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		entry, err := s.journalRepo.FindEntryForUpdate(ctx, tx, entryID)
		if err != nil {
			return err
		}
		date := entry.EntryDate
		if postingDate != nil {
			date = *postingDate
		}
		next, events, err := s.postInTx(ctx, tx, *entry, date, userID)
		if err != nil {
			return err
		}
		posted = next
		return emit(ctx, tx, s.outbox, events)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to post journal entry", slog.String("entry_id", entryID))
		return nil, err
	}
	s.LogInfo(ctx, "Journal entry posted",
		slog.String("entry_id", posted.EntryID),
		slog.String("period_id", posted.PeriodID),
		slog.String("total", posted.TotalDebit.String()))
	return &posted, nil
}

// postInTx posts an Approved entry that is already stored. The caller holds
// the entry's row lock. Locks are taken period first, then accounts in id order.
func (s *journalService) postInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, postingDate time.Time, userID string) (domain.JournalEntry, []domain.Event, error) {
	if entry.Status != domain.JournalApproved {
		return entry, nil, fmt.Errorf("%w: entry %s is %s", domain.ErrNotApproved, entry.ReferenceNumber, entry.Status)
	}
	now := s.Now()

	period, err := s.periodRepo.FindPeriodByDateForUpdate(ctx, tx, postingDate)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return entry, nil, fmt.Errorf("%w: %s", domain.ErrNoPeriodDefined, domain.DateOnly(postingDate).Format(time.DateOnly))
		}
		return entry, nil, err
	}
	if err := period.CheckPostable(); err != nil {
		return entry, nil, err
	}

	posted, events, err := entry.Post(userID, period.PeriodID, postingDate, now)
	if err != nil {
		return entry, nil, err
	}

	accounts, err := s.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, entry.AccountIDs())
	if err != nil {
		return entry, nil, err
	}
	movements := entry.Movements()
	changed := make([]domain.Account, 0, len(movements))
	for _, id := range entry.AccountIDs() {
		acc, ok := accounts[id]
		if !ok {
			return entry, nil, fmt.Errorf("%w: account %s not found", domain.ErrInvalidLine, id)
		}
		m := movements[id]
		after, err := acc.Post(m.Debit, m.Credit, userID, now)
		if err != nil {
			return entry, nil, err
		}
		changed = append(changed, after)
		events = append(events, acc.BalanceUpdatedEvent(after, entry.EntryID, now))
	}
	if err := s.accountRepo.UpdateAccountBalancesTx(ctx, tx, changed); err != nil {
		return entry, nil, err
	}
	if err := s.periodRepo.UpdatePeriodTx(ctx, tx, period.RecordPosting(now)); err != nil {
		return entry, nil, err
	}
	if err := s.journalRepo.UpdateEntryTx(ctx, tx, posted); err != nil {
		return entry, nil, err
	}
	return posted, events, nil
}

func (s *journalService) ReverseEntry(ctx context.Context, entryID string, req dto.ReverseJournalEntryRequest, userID string) (*domain.JournalEntry, error) {
	date := s.Now()
	if req.ReversalDate != nil {
		date = *req.ReversalDate
	}
	var reversal domain.JournalEntry
	err := s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rev, events, err := s.reverseInTx(ctx, tx, entryID, date, userID)
		if err != nil {
			return err
		}
		reversal = rev
		return emit(ctx, tx, s.outbox, events)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to reverse journal entry", slog.String("entry_id", entryID))
		return nil, err
	}
	s.LogInfo(ctx, "Journal entry reversed",
		slog.String("entry_id", entryID),
		slog.String("reversal_id", reversal.EntryID),
		slog.String("reason", req.Reason))
	return &reversal, nil
}

func (s *journalService) reverseInTx(ctx context.Context, tx pgx.Tx, entryID string, date time.Time, userID string) (domain.JournalEntry, []domain.Event, error) {
	orig, err := s.journalRepo.FindEntryForUpdate(ctx, tx, entryID)
	if err != nil {
		return domain.JournalEntry{}, nil, err
	}
	now := s.Now()
	rev, err := orig.BuildReversal(domain.ReversalParams{
		EntryID:         uuid.NewString(),
		ReferenceNumber: s.refs.Next(refgen.PrefixJournalEntry),
		ReversalDate:    date,
		LineIDs:         uuid.NewString,
	}, userID, now)
	if err != nil {
		return domain.JournalEntry{}, nil, err
	}
	if err := s.journalRepo.SaveEntryTx(ctx, tx, rev); err != nil {
		return domain.JournalEntry{}, nil, err
	}
	posted, events, err := s.postInTx(ctx, tx, rev, date, userID)
	if err != nil {
		return domain.JournalEntry{}, nil, err
	}
	marked, more, err := orig.MarkReversed(posted, userID, now)
	if err != nil {
		return domain.JournalEntry{}, nil, err
	}
	if err := s.journalRepo.UpdateEntryTx(ctx, tx, marked); err != nil {
		return domain.JournalEntry{}, nil, err
	}
	return posted, append(events, more...), nil
}

func (s *journalService) AbandonEntry(ctx context.Context, entryID string, userID string) error {
	err := s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		entry, err := s.journalRepo.FindEntryForUpdate(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if err := entry.CanAbandon(); err != nil {
			return err
		}
		return s.journalRepo.DeleteEntryTx(ctx, tx, entryID)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to abandon journal entry", slog.String("entry_id", entryID))
		return err
	}
	s.LogInfo(ctx, "Journal entry abandoned", slog.String("entry_id", entryID), slog.String("user_id", userID))
	return nil
}

func (s *journalService) PostSystemEntryTx(ctx context.Context, tx pgx.Tx, req portssvc.SystemEntry, userID string) (*domain.JournalEntry, []domain.Event, error) {
	now := s.Now()
	source := req.Source
	if source == "" {
		source = SourceSystem
	}
	entry, err := domain.NewDraft(domain.DraftParams{
		EntryID:         uuid.NewString(),
		ReferenceNumber: s.refs.Next(refgen.PrefixJournalEntry),
		EntryDate:       req.EntryDate,
		Description:     req.Description,
		EntryType:       req.EntryType,
		Source:          source,
	}, userID, now)
	if err != nil {
		return nil, nil, err
	}
	for _, l := range req.Lines {
		line, err := domain.NewLine(domain.LineParams{
			LineID:      uuid.NewString(),
			AccountID:   l.AccountID,
			Side:        l.Side,
			Amount:      l.Amount,
			Description: l.Description,
			MemberID:    l.MemberID,
			LoanID:      l.LoanID,
		})
		if err != nil {
			return nil, nil, err
		}
		if entry, err = entry.AddLine(line, userID, now); err != nil {
			return nil, nil, err
		}
	}
	entry, events, err := entry.Submit(userID, now)
	if err != nil {
		return nil, nil, err
	}

	autoPost, err := s.settings.BoolSetting(ctx, domain.SettingAutoPostSystemEntries, true)
	if err != nil {
		return nil, nil, err
	}
	if !autoPost {
		if err := s.journalRepo.SaveEntryTx(ctx, tx, entry); err != nil {
			return nil, nil, err
		}
		return &entry, events, nil
	}

	entry, more, err := entry.Approve(userID, now)
	if err != nil {
		return nil, nil, err
	}
	events = append(events, more...)
	if err := s.journalRepo.SaveEntryTx(ctx, tx, entry); err != nil {
		return nil, nil, err
	}
	posted, more, err := s.postInTx(ctx, tx, entry, entry.EntryDate, userID)
	if err != nil {
		return nil, nil, err
	}
	return &posted, append(events, more...), nil
}

// ReverseEntryTx reverses a posted system entry. An entry still waiting for
// review was never applied to balances, so it is discarded instead and nil is returned.
func (s *journalService) ReverseEntryTx(ctx context.Context, tx pgx.Tx, entryID string, reversalDate time.Time, userID string) (*domain.JournalEntry, []domain.Event, error) {
	entry, err := s.journalRepo.FindEntryForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, nil, err
	}
	if entry.Status != domain.JournalPosted && entry.Status != domain.JournalReversed {
		if err := s.journalRepo.DeleteEntryTx(ctx, tx, entryID); err != nil {
			return nil, nil, err
		}
		return nil, nil, nil
	}
	rev, events, err := s.reverseInTx(ctx, tx, entryID, reversalDate, userID)
	if err != nil {
		return nil, nil, err
	}
	return &rev, events, nil
}
