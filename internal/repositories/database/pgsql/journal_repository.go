package pgsql

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/SscSPs/mfi_ledger/internal/apperrors"
	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mfi_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/mfi_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal entries and their lines.
func newPgxJournalRepository(pool *pgxpool.Pool) portsrepo.JournalRepositoryFacade {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryFacade
var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

const entryColumns = `entry_id, reference_number, entry_date, description, entry_type, source, status,
	total_debit, total_credit, period_id, submitted_by, submitted_at, approved_by, approved_at,
	posted_by, posted_at, posting_date, rejection_reason, reversal_of_entry_id, reversed_by_entry_id,
	created_at, created_by, last_updated_at, last_updated_by, version`

const lineColumns = `line_id, entry_id, line_number, account_id, debit_amount, credit_amount,
	description, member_id, loan_id, savings_account_id, metadata`

func scanEntry(row pgx.Row) (domain.JournalEntry, error) {
	var e domain.JournalEntry
	var periodID, submittedBy, approvedBy, postedBy, rejection, reversalOf, reversedBy *string
	err := row.Scan(
		&e.EntryID, &e.ReferenceNumber, &e.EntryDate, &e.Description, &e.EntryType, &e.Source, &e.Status,
		&e.TotalDebit, &e.TotalCredit, &periodID, &submittedBy, &e.SubmittedAt, &approvedBy, &e.ApprovedAt,
		&postedBy, &e.PostedAt, &e.PostingDate, &rejection, &reversalOf, &reversedBy,
		&e.CreatedAt, &e.CreatedBy, &e.LastUpdatedAt, &e.LastUpdatedBy, &e.Version,
	)
	e.EntryDate = domain.DateOnly(e.EntryDate)
	e.PeriodID = derefString(periodID)
	e.SubmittedBy = derefString(submittedBy)
	e.ApprovedBy = derefString(approvedBy)
	e.PostedBy = derefString(postedBy)
	e.RejectionReason = derefString(rejection)
	e.ReversalOfEntryID = derefString(reversalOf)
	e.ReversedByEntryID = derefString(reversedBy)
	return e, err
}

func scanLine(row pgx.Row) (domain.JournalEntryLine, error) {
	var l domain.JournalEntryLine
	var memberID, loanID, savingsID *string
	err := row.Scan(
		&l.LineID, &l.EntryID, &l.LineNumber, &l.AccountID, &l.DebitAmount, &l.CreditAmount,
		&l.Description, &memberID, &loanID, &savingsID, &l.Metadata,
	)
	l.MemberID = derefString(memberID)
	l.LoanID = derefString(loanID)
	l.SavingsAccountID = derefString(savingsID)
	return l, err
}

func (r *PgxJournalRepository) loadEntry(ctx context.Context, q querier, entryID string, forUpdate bool) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE entry_id = $1`
	what := "find journal entry " + entryID
	if forUpdate {
		query += ` FOR UPDATE`
		what = "lock journal entry " + entryID
	}
	entry, err := scanEntry(q.QueryRow(ctx, query, entryID))
	if err != nil {
		return nil, mapError(err, what)
	}
	lines, err := r.loadLines(ctx, q, entryID)
	if err != nil {
		return nil, err
	}
	entry.Lines = lines
	return &entry, nil
}

func (r *PgxJournalRepository) loadLines(ctx context.Context, q querier, entryID string) ([]domain.JournalEntryLine, error) {
	query := `SELECT ` + lineColumns + ` FROM journal_entry_lines WHERE entry_id = $1 ORDER BY line_number;`
	rows, err := q.Query(ctx, query, entryID)
	if err != nil {
		return nil, mapError(err, "load lines of entry "+entryID)
	}
	defer rows.Close()
	lines := []domain.JournalEntryLine{}
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, mapError(err, "scan journal line row")
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "load lines of entry "+entryID)
	}
	return lines, nil
}

// FindEntryByID retrieves an entry with its lines.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return r.loadEntry(ctx, r.Pool, entryID, false)
}

// FindEntryForUpdate locks the entry header and loads its lines.
func (r *PgxJournalRepository) FindEntryForUpdate(ctx context.Context, tx pgx.Tx, entryID string) (*domain.JournalEntry, error) {
	return r.loadEntry(ctx, tx, entryID, true)
}

// ListEntries retrieves entries newest first. The token encodes the
// (entry_date, created_at, entry_id) of the last row of the previous page.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, filter portsrepo.JournalListFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.Status != nil {
		conds = append(conds, "status = "+arg(*filter.Status))
	}
	if filter.EntryType != nil {
		conds = append(conds, "entry_type = "+arg(*filter.EntryType))
	}
	if filter.PeriodID != nil {
		conds = append(conds, "period_id = "+arg(*filter.PeriodID))
	}
	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		conds = append(conds, fmt.Sprintf("(entry_date, created_at, entry_id) < (%s::date, %s, %s)",
			arg(cursor.SortDate), arg(cursor.CreatedAt), arg(cursor.ID)))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + entryColumns + ` FROM journal_entries`)
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	// Fetch one extra row to know whether another page exists.
	sb.WriteString(" ORDER BY entry_date DESC, created_at DESC, entry_id DESC LIMIT " + arg(limit+1))

	rows, err := r.Pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, nil, mapError(err, "list journal entries")
	}
	defer rows.Close()

	entries := make([]domain.JournalEntry, 0, limit+1)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, nil, mapError(err, "scan journal entry row")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, mapError(err, "list journal entries")
	}

	var token *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		t := pagination.Cursor{SortDate: last.EntryDate, CreatedAt: last.CreatedAt, ID: last.EntryID}.Encode()
		token = &t
	}
	return entries, token, nil
}

// SaveEntryTx inserts the header and all lines in one batch.
func (r *PgxJournalRepository) SaveEntryTx(ctx context.Context, tx pgx.Tx, e domain.JournalEntry) error {
	query := `
		INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25);
	`
	batch := &pgx.Batch{}
	batch.Queue(query,
		e.EntryID, e.ReferenceNumber, e.EntryDate, e.Description, e.EntryType, e.Source, e.Status,
		e.TotalDebit, e.TotalCredit, nullString(e.PeriodID), nullString(e.SubmittedBy), e.SubmittedAt,
		nullString(e.ApprovedBy), e.ApprovedAt, nullString(e.PostedBy), e.PostedAt, e.PostingDate,
		nullString(e.RejectionReason), nullString(e.ReversalOfEntryID), nullString(e.ReversedByEntryID),
		e.CreatedAt, e.CreatedBy, e.LastUpdatedAt, e.LastUpdatedBy, e.Version,
	)
	for _, l := range e.Lines {
		l.EntryID = e.EntryID
		queueLineInsert(batch, l)
	}
	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return mapError(err, "save journal entry "+e.ReferenceNumber)
		}
	}
	return nil
}

func queueLineInsert(batch *pgx.Batch, l domain.JournalEntryLine) {
	query := `
		INSERT INTO journal_entry_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	var metadata map[string]string
	if len(l.Metadata) > 0 {
		metadata = l.Metadata
	}
	batch.Queue(query,
		l.LineID, l.EntryID, l.LineNumber, l.AccountID, l.DebitAmount, l.CreditAmount,
		l.Description, nullString(l.MemberID), nullString(l.LoanID), nullString(l.SavingsAccountID), metadata,
	)
}

// InsertLineTx appends one line to an existing entry.
func (r *PgxJournalRepository) InsertLineTx(ctx context.Context, tx pgx.Tx, l domain.JournalEntryLine) error {
	batch := &pgx.Batch{}
	queueLineInsert(batch, l)
	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	if _, err := br.Exec(); err != nil {
		return mapError(err, "insert line on entry "+l.EntryID)
	}
	return nil
}

// UpdateEntryTx writes header fields if the stored version still equals e.Version.
func (r *PgxJournalRepository) UpdateEntryTx(ctx context.Context, tx pgx.Tx, e domain.JournalEntry) error {
	query := `
		UPDATE journal_entries
		SET description = $1, status = $2, total_debit = $3, total_credit = $4, period_id = $5,
		    submitted_by = $6, submitted_at = $7, approved_by = $8, approved_at = $9,
		    posted_by = $10, posted_at = $11, posting_date = $12, rejection_reason = $13,
		    reversal_of_entry_id = $14, reversed_by_entry_id = $15,
		    last_updated_at = $16, last_updated_by = $17, version = version + 1
		WHERE entry_id = $18 AND version = $19;
	`
	tag, err := tx.Exec(ctx, query,
		e.Description, e.Status, e.TotalDebit, e.TotalCredit, nullString(e.PeriodID),
		nullString(e.SubmittedBy), e.SubmittedAt, nullString(e.ApprovedBy), e.ApprovedAt,
		nullString(e.PostedBy), e.PostedAt, e.PostingDate, nullString(e.RejectionReason),
		nullString(e.ReversalOfEntryID), nullString(e.ReversedByEntryID),
		e.LastUpdatedAt, e.LastUpdatedBy, e.EntryID, e.Version,
	)
	if err != nil {
		return mapError(err, "update journal entry "+e.EntryID)
	}
	return expectOneRow(tag, "journal entry", e.EntryID, e.Version)
}

// DeleteEntryTx removes a non-posted entry. Lines go with it through ON DELETE CASCADE.
func (r *PgxJournalRepository) DeleteEntryTx(ctx context.Context, tx pgx.Tx, entryID string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM journal_entries WHERE entry_id = $1 AND status NOT IN ('POSTED', 'REVERSED');`, entryID)
	if err != nil {
		return mapError(err, "delete journal entry "+entryID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: journal entry %s", apperrors.ErrNotFound, entryID)
	}
	return nil
}
