package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus indicates the state of a journal entry.
type JournalStatus string

const (
	JournalDraft    JournalStatus = "DRAFT"
	JournalPending  JournalStatus = "PENDING"
	JournalApproved JournalStatus = "APPROVED"
	JournalPosted   JournalStatus = "POSTED"
	JournalReversed JournalStatus = "REVERSED"
)

// JournalEntryType classifies where an entry came from.
type JournalEntryType string

const (
	EntryStandard         JournalEntryType = "STANDARD"
	EntryAdjustment       JournalEntryType = "ADJUSTMENT"
	EntryReversal         JournalEntryType = "REVERSAL"
	EntryFeeCharge        JournalEntryType = "FEE_CHARGE"
	EntryFeePayment       JournalEntryType = "FEE_PAYMENT"
	EntryFeeWaiver        JournalEntryType = "FEE_WAIVER"
	EntryLoanDisbursement JournalEntryType = "LOAN_DISBURSEMENT"
	EntryLoanRepayment    JournalEntryType = "LOAN_REPAYMENT"
)

// IsValid reports whether t is a known entry type.
func (t JournalEntryType) IsValid() bool {
	switch t {
	case EntryStandard, EntryAdjustment, EntryReversal, EntryFeeCharge, EntryFeePayment,
		EntryFeeWaiver, EntryLoanDisbursement, EntryLoanRepayment:
		return true
	}
	return false
}

// SourceManual marks entries keyed in by a user.
const SourceManual = "MANUAL"

// JournalEntry is a set of lines posted together. It exclusively owns its lines.
type JournalEntry struct {
	EntryID           string             `json:"entryID"`
	ReferenceNumber   string             `json:"referenceNumber"`
	EntryDate         time.Time          `json:"entryDate"`
	Description       string             `json:"description"`
	EntryType         JournalEntryType   `json:"entryType"`
	Source            string             `json:"source"`
	Status            JournalStatus      `json:"status"`
	TotalDebit        decimal.Decimal    `json:"totalDebit"`
	TotalCredit       decimal.Decimal    `json:"totalCredit"`
	Lines             []JournalEntryLine `json:"lines"`
	PeriodID          string             `json:"periodID,omitempty"`
	SubmittedBy       string             `json:"submittedBy,omitempty"`
	SubmittedAt       *time.Time         `json:"submittedAt,omitempty"`
	ApprovedBy        string             `json:"approvedBy,omitempty"`
	ApprovedAt        *time.Time         `json:"approvedAt,omitempty"`
	PostedBy          string             `json:"postedBy,omitempty"`
	PostedAt          *time.Time         `json:"postedAt,omitempty"`
	PostingDate       *time.Time         `json:"postingDate,omitempty"`
	RejectionReason   string             `json:"rejectionReason,omitempty"`
	ReversalOfEntryID string             `json:"reversalOfEntryID,omitempty"`
	ReversedByEntryID string             `json:"reversedByEntryID,omitempty"`
	AuditFields
}

// DraftParams carries the inputs for a new draft entry.
type DraftParams struct {
	EntryID         string
	ReferenceNumber string
	EntryDate       time.Time
	Description     string
	EntryType       JournalEntryType
	Source          string
}

// NewDraft returns a Draft entry with zero totals.
func NewDraft(p DraftParams, userID string, now time.Time) (JournalEntry, error) {
	if p.EntryDate.IsZero() {
		return JournalEntry{}, fmt.Errorf("%w: entry date is required", ErrInvalidEntry)
	}
	entryType := p.EntryType
	if entryType == "" {
		entryType = EntryStandard
	}
	if !entryType.IsValid() {
		return JournalEntry{}, fmt.Errorf("%w: unknown entry type %q", ErrInvalidEntry, p.EntryType)
	}
	source := strings.TrimSpace(p.Source)
	if source == "" {
		source = SourceManual
	}
	return JournalEntry{
		EntryID:         p.EntryID,
		ReferenceNumber: p.ReferenceNumber,
		EntryDate:       DateOnly(p.EntryDate),
		Description:     p.Description,
		EntryType:       entryType,
		Source:          source,
		Status:          JournalDraft,
		TotalDebit:      decimal.Zero,
		TotalCredit:     decimal.Zero,
		Lines:           []JournalEntryLine{},
		AuditFields:     newAuditFields(userID, now),
	}, nil
}

// IsBalanced reports totalDebit == totalCredit.
func (e JournalEntry) IsBalanced() bool {
	return e.TotalDebit.Equal(e.TotalCredit)
}

// IsEditable reports whether lines may still be added.
func (e JournalEntry) IsEditable() bool {
	return e.Status == JournalDraft || e.Status == JournalPending
}

// AddLine appends a line and recomputes the totals.
func (e JournalEntry) AddLine(line JournalEntryLine, userID string, now time.Time) (JournalEntry, error) {
	if !e.IsEditable() {
		return e, fmt.Errorf("%w: entry %s is %s", ErrEntryNotDraft, e.ReferenceNumber, e.Status)
	}
	line.EntryID = e.EntryID
	line.LineNumber = len(e.Lines) + 1
	if err := line.Validate(); err != nil {
		return e, err
	}
	next := e
	next.Lines = append(append(make([]JournalEntryLine, 0, len(e.Lines)+1), e.Lines...), line)
	next.TotalDebit = e.TotalDebit.Add(line.DebitAmount)
	next.TotalCredit = e.TotalCredit.Add(line.CreditAmount)
	next.AuditFields = e.AuditFields.touch(userID, now)
	return next, nil
}

// checkPostable verifies the balance rule plus the structural minimum of one debit and one credit line.
func (e JournalEntry) checkPostable() error {
	if !e.IsBalanced() {
		return fmt.Errorf("%w: debit %s, credit %s", ErrUnbalanced, e.TotalDebit.String(), e.TotalCredit.String())
	}
	var debits, credits int
	for _, l := range e.Lines {
		if err := l.Validate(); err != nil {
			return err
		}
		if l.Side() == Debit {
			debits++
		} else {
			credits++
		}
	}
	if debits == 0 || credits == 0 {
		return fmt.Errorf("%w: at least one debit and one credit line are required", ErrUnbalanced)
	}
	return nil
}

// Submit moves a balanced Draft to Pending.
func (e JournalEntry) Submit(userID string, now time.Time) (JournalEntry, []Event, error) {
	if e.Status != JournalDraft {
		return e, nil, fmt.Errorf("%w: entry %s is %s", ErrEntryNotDraft, e.ReferenceNumber, e.Status)
	}
	if err := e.checkPostable(); err != nil {
		return e, nil, err
	}
	next := e
	next.Status = JournalPending
	next.SubmittedBy = userID
	next.SubmittedAt = &now
	next.RejectionReason = ""
	next.AuditFields = e.AuditFields.touch(userID, now)
	return next, []Event{e.event(EventJournalEntrySubmitted, now, nil)}, nil
}

// Approve moves a Pending entry to Approved, re-checking the balance.
func (e JournalEntry) Approve(approverID string, now time.Time) (JournalEntry, []Event, error) {
	if e.Status != JournalPending {
		return e, nil, fmt.Errorf("%w: entry %s is %s", ErrNotPending, e.ReferenceNumber, e.Status)
	}
	if err := e.checkPostable(); err != nil {
		return e, nil, err
	}
	next := e
	next.Status = JournalApproved
	next.ApprovedBy = approverID
	next.ApprovedAt = &now
	next.AuditFields = e.AuditFields.touch(approverID, now)
	return next, []Event{e.event(EventJournalEntryApproved, now, map[string]any{"approvedBy": approverID})}, nil
}

// Reject sends a Pending entry back to Draft with a reason.
func (e JournalEntry) Reject(userID, reason string, now time.Time) (JournalEntry, []Event, error) {
	if e.Status != JournalPending {
		return e, nil, fmt.Errorf("%w: entry %s is %s", ErrNotPending, e.ReferenceNumber, e.Status)
	}
	if strings.TrimSpace(reason) == "" {
		return e, nil, ErrReasonRequired
	}
	next := e
	next.Status = JournalDraft
	next.RejectionReason = reason
	next.SubmittedAt = nil
	next.SubmittedBy = ""
	next.AuditFields = e.AuditFields.touch(userID, now)
	return next, []Event{e.event(EventJournalEntryRejected, now, map[string]any{"reason": reason})}, nil
}

// CanAbandon reports whether the entry may be discarded.
func (e JournalEntry) CanAbandon() error {
	if e.Status == JournalPosted || e.Status == JournalReversed {
		return fmt.Errorf("%w: entry %s", ErrEntryAlreadyPosted, e.ReferenceNumber)
	}
	return nil
}

// Post stamps an Approved entry as Posted into periodID. Account and period
// effects are applied by the caller in the same unit of work.
func (e JournalEntry) Post(posterID, periodID string, postingDate, now time.Time) (JournalEntry, []Event, error) {
	if e.Status != JournalApproved {
		return e, nil, fmt.Errorf("%w: entry %s is %s", ErrNotApproved, e.ReferenceNumber, e.Status)
	}
	if err := e.checkPostable(); err != nil {
		return e, nil, err
	}
	pd := DateOnly(postingDate)
	next := e
	next.Status = JournalPosted
	next.PeriodID = periodID
	next.PostedBy = posterID
	next.PostedAt = &now
	next.PostingDate = &pd
	next.AuditFields = e.AuditFields.touch(posterID, now)
	return next, []Event{e.event(EventJournalEntryPosted, now, map[string]any{
		"periodId":    periodID,
		"postingDate": pd.Format(time.DateOnly),
		"totalDebit":  e.TotalDebit.String(),
		"totalCredit": e.TotalCredit.String(),
	})}, nil
}

// ReversalParams carries the identity of a reversal entry.
type ReversalParams struct {
	EntryID         string
	ReferenceNumber string
	ReversalDate    time.Time
	LineIDs         func() string
}

// BuildReversal returns an Approved entry whose lines swap debit and credit of e.
func (e JournalEntry) BuildReversal(p ReversalParams, userID string, now time.Time) (JournalEntry, error) {
	switch e.Status {
	case JournalPosted:
	case JournalReversed:
		return JournalEntry{}, fmt.Errorf("%w: entry %s was reversed by %s", ErrAlreadyReversed, e.ReferenceNumber, e.ReversedByEntryID)
	default:
		return JournalEntry{}, fmt.Errorf("%w: entry %s is %s", ErrNotPosted, e.ReferenceNumber, e.Status)
	}
	rev, err := NewDraft(DraftParams{
		EntryID:         p.EntryID,
		ReferenceNumber: p.ReferenceNumber,
		EntryDate:       p.ReversalDate,
		Description:     "Reversal of " + e.ReferenceNumber,
		EntryType:       EntryReversal,
		Source:          e.Source,
	}, userID, now)
	if err != nil {
		return JournalEntry{}, err
	}
	for _, l := range e.Lines {
		swapped := l.Swapped()
		swapped.LineID = ""
		if p.LineIDs != nil {
			swapped.LineID = p.LineIDs()
		}
		if rev, err = rev.AddLine(swapped, userID, now); err != nil {
			return JournalEntry{}, err
		}
	}
	rev.ReversalOfEntryID = e.EntryID
	rev.Status = JournalApproved
	rev.ApprovedBy = userID
	rev.ApprovedAt = &now
	return rev, nil
}

// MarkReversed links e to its reversal and moves it to Reversed.
func (e JournalEntry) MarkReversed(reversal JournalEntry, userID string, now time.Time) (JournalEntry, []Event, error) {
	if e.Status != JournalPosted {
		return e, nil, fmt.Errorf("%w: entry %s is %s", ErrNotPosted, e.ReferenceNumber, e.Status)
	}
	next := e
	next.Status = JournalReversed
	next.ReversedByEntryID = reversal.EntryID
	next.AuditFields = e.AuditFields.touch(userID, now)
	return next, []Event{e.event(EventJournalEntryReversed, now, map[string]any{
		"reversedByEntryId": reversal.EntryID,
	})}, nil
}

// AccountIDs returns the distinct accounts touched by the entry, sorted.
// The sort order is the lock order used when posting.
func (e JournalEntry) AccountIDs() []string {
	seen := make(map[string]struct{}, len(e.Lines))
	ids := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		ids = append(ids, l.AccountID)
	}
	sort.Strings(ids)
	return ids
}

// AccountMovement is the net debit and credit an entry applies to one account.
type AccountMovement struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Movements aggregates the lines per account.
func (e JournalEntry) Movements() map[string]AccountMovement {
	out := make(map[string]AccountMovement, len(e.Lines))
	for _, l := range e.Lines {
		m, ok := out[l.AccountID]
		if !ok {
			m = AccountMovement{Debit: decimal.Zero, Credit: decimal.Zero}
		}
		m.Debit = m.Debit.Add(l.DebitAmount)
		m.Credit = m.Credit.Add(l.CreditAmount)
		out[l.AccountID] = m
	}
	return out
}

func (e JournalEntry) event(t EventType, now time.Time, extra map[string]any) Event {
	payload := map[string]any{
		"aggregateId":     e.EntryID,
		"referenceNumber": e.ReferenceNumber,
		"entryType":       string(e.EntryType),
		"source":          e.Source,
	}
	if e.ReversalOfEntryID != "" {
		payload["reversalOfEntryId"] = e.ReversalOfEntryID
	}
	for k, v := range extra {
		payload[k] = v
	}
	return newEvent(t, aggregateJournal, e.EntryID, now, payload)
}
