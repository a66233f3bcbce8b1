package repositories

import (
	"context"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// JournalListFilter narrows ListEntries.
type JournalListFilter struct {
	Status    *domain.JournalStatus
	EntryType *domain.JournalEntryType
	PeriodID  *string
}

// JournalReader defines read operations for journal entries
type JournalReader interface {
	// FindEntryByID retrieves an entry with its lines.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves entries newest first using token-based pagination.
	// It returns the entries without lines, a token for the next page, and an error.
	ListEntries(ctx context.Context, filter JournalListFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)
}

// JournalWriter defines write operations for journal entries
type JournalWriter interface {
	// SaveEntryTx inserts the header and all lines.
	SaveEntryTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) error

	// UpdateEntryTx writes header fields if the stored version still equals entry.Version.
	UpdateEntryTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) error

	// InsertLineTx appends one line to an existing entry.
	InsertLineTx(ctx context.Context, tx pgx.Tx, line domain.JournalEntryLine) error

	// DeleteEntryTx removes a non-posted entry and its lines.
	DeleteEntryTx(ctx context.Context, tx pgx.Tx, entryID string) error
}

// JournalTransactionSupport defines locking reads for the posting engine
type JournalTransactionSupport interface {
	// FindEntryForUpdate locks the entry header and loads its lines.
	FindEntryForUpdate(ctx context.Context, tx pgx.Tx, entryID string) (*domain.JournalEntry, error)
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
	JournalTransactionSupport
}
