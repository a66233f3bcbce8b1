package services

import (
	"context"
	"time"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/SscSPs/mfi_ledger/internal/dto"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// JournalReaderSvc defines read operations for journal entries
type JournalReaderSvc interface {
	GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)
	ListEntries(ctx context.Context, params dto.ListJournalEntriesParams) ([]domain.JournalEntry, *string, error)
}

// JournalWorkflowSvc drives the Draft -> Pending -> Approved -> Posted workflow
type JournalWorkflowSvc interface {
	CreateDraft(ctx context.Context, req dto.CreateJournalEntryRequest, userID string) (*domain.JournalEntry, error)
	AddLines(ctx context.Context, entryID string, lines []dto.JournalLineRequest, userID string) (*domain.JournalEntry, error)
	SubmitEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error)
	ApproveEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error)
	RejectEntry(ctx context.Context, entryID string, reason string, userID string) (*domain.JournalEntry, error)
	PostEntry(ctx context.Context, entryID string, postingDate *time.Time, userID string) (*domain.JournalEntry, error)
	ReverseEntry(ctx context.Context, entryID string, req dto.ReverseJournalEntryRequest, userID string) (*domain.JournalEntry, error)
	AbandonEntry(ctx context.Context, entryID string, userID string) error
}

// SystemLine is a line of an entry raised by another module, addressed by account id.
type SystemLine struct {
	AccountID   string
	Side        domain.EntrySide
	Amount      decimal.Decimal
	Description string
	MemberID    string
	LoanID      string
}

// SystemEntry is a balanced entry raised by the obligation ledger.
type SystemEntry struct {
	EntryDate   time.Time
	Description string
	EntryType   domain.JournalEntryType
	Source      string
	Lines       []SystemLine
}

// PostingEngine is used by other services inside their own unit of work.
// The returned events must be written to the outbox by the caller.
type PostingEngine interface {
	// PostSystemEntryTx creates, approves and posts entry in tx. When automatic
	// posting is switched off the entry is left Pending for review.
	PostSystemEntryTx(ctx context.Context, tx pgx.Tx, entry SystemEntry, userID string) (*domain.JournalEntry, []domain.Event, error)

	// ReverseEntryTx reverses a posted entry in tx, dated reversalDate.
	ReverseEntryTx(ctx context.Context, tx pgx.Tx, entryID string, reversalDate time.Time, userID string) (*domain.JournalEntry, []domain.Event, error)
}

// JournalSvcFacade combines all journal-related service interfaces
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWorkflowSvc
	PostingEngine
}
