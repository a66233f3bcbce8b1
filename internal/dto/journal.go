package dto

import (
	"time"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// JournalLineRequest is one debit or credit line.
type JournalLineRequest struct {
	AccountID        string            `json:"accountID" binding:"required"`
	Side             domain.EntrySide  `json:"side" binding:"required,oneof=DEBIT CREDIT"`
	Amount           decimal.Decimal   `json:"amount" binding:"dgt0"`
	Description      string            `json:"description"`
	MemberID         string            `json:"memberID"`
	LoanID           string            `json:"loanID"`
	SavingsAccountID string            `json:"savingsAccountID"`
	Metadata         map[string]string `json:"metadata"`
}

// CreateJournalEntryRequest creates a draft, optionally with its first lines.
type CreateJournalEntryRequest struct {
	EntryDate   time.Time               `json:"entryDate" binding:"required"`
	Description string                  `json:"description" binding:"required"`
	EntryType   domain.JournalEntryType `json:"entryType" binding:"omitempty,oneof=STANDARD ADJUSTMENT"`
	Source      string                  `json:"source"`
	Lines       []JournalLineRequest    `json:"lines" binding:"omitempty,dive"`
}

// AddJournalLinesRequest appends lines to a draft or pending entry.
type AddJournalLinesRequest struct {
	Lines []JournalLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// PostJournalEntryRequest optionally overrides the posting date.
type PostJournalEntryRequest struct {
	PostingDate *time.Time `json:"postingDate"`
}

// ReverseJournalEntryRequest optionally sets the reversal date, which defaults to today.
type ReverseJournalEntryRequest struct {
	ReversalDate *time.Time `json:"reversalDate"`
	Reason       string     `json:"reason"`
}

// ListJournalEntriesParams defines query parameters for listing entries.
type ListJournalEntriesParams struct {
	Limit     int     `form:"limit,default=20"`
	NextToken *string `form:"nextToken"`
	Status    *string `form:"status" binding:"omitempty,oneof=DRAFT PENDING APPROVED POSTED REVERSED"`
	EntryType *string `form:"entryType"`
	PeriodID  *string `form:"periodID"`
}

// JournalLineResponse defines the data returned for a journal line.
type JournalLineResponse struct {
	LineID           string            `json:"lineID"`
	LineNumber       int               `json:"lineNumber"`
	AccountID        string            `json:"accountID"`
	DebitAmount      decimal.Decimal   `json:"debitAmount"`
	CreditAmount     decimal.Decimal   `json:"creditAmount"`
	Description      string            `json:"description,omitempty"`
	MemberID         string            `json:"memberID,omitempty"`
	LoanID           string            `json:"loanID,omitempty"`
	SavingsAccountID string            `json:"savingsAccountID,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// JournalEntryResponse defines the data returned for a journal entry.
type JournalEntryResponse struct {
	EntryID           string                  `json:"entryID"`
	ReferenceNumber   string                  `json:"referenceNumber"`
	EntryDate         string                  `json:"entryDate"`
	Description       string                  `json:"description"`
	EntryType         domain.JournalEntryType `json:"entryType"`
	Source            string                  `json:"source"`
	Status            domain.JournalStatus    `json:"status"`
	TotalDebit        decimal.Decimal         `json:"totalDebit"`
	TotalCredit       decimal.Decimal         `json:"totalCredit"`
	PeriodID          string                  `json:"periodID,omitempty"`
	SubmittedBy       string                  `json:"submittedBy,omitempty"`
	SubmittedAt       *time.Time              `json:"submittedAt,omitempty"`
	ApprovedBy        string                  `json:"approvedBy,omitempty"`
	ApprovedAt        *time.Time              `json:"approvedAt,omitempty"`
	PostedBy          string                  `json:"postedBy,omitempty"`
	PostedAt          *time.Time              `json:"postedAt,omitempty"`
	PostingDate       string                  `json:"postingDate,omitempty"`
	RejectionReason   string                  `json:"rejectionReason,omitempty"`
	ReversalOfEntryID string                  `json:"reversalOfEntryID,omitempty"`
	ReversedByEntryID string                  `json:"reversedByEntryID,omitempty"`
	Version           int64                   `json:"version"`
	CreatedAt         time.Time               `json:"createdAt"`
	CreatedBy         string                  `json:"createdBy"`
	Lines             []JournalLineResponse   `json:"lines,omitempty"`
}

// ListJournalEntriesResponse is a page of entries.
type ListJournalEntriesResponse struct {
	Entries   []JournalEntryResponse `json:"entries"`
	NextToken *string                `json:"nextToken,omitempty"`
}

// ToJournalEntryResponse converts a domain.JournalEntry to its DTO, lines included.
func ToJournalEntryResponse(e *domain.JournalEntry) JournalEntryResponse {
	res := JournalEntryResponse{
		EntryID:           e.EntryID,
		ReferenceNumber:   e.ReferenceNumber,
		EntryDate:         e.EntryDate.Format(time.DateOnly),
		Description:       e.Description,
		EntryType:         e.EntryType,
		Source:            e.Source,
		Status:            e.Status,
		TotalDebit:        e.TotalDebit,
		TotalCredit:       e.TotalCredit,
		PeriodID:          e.PeriodID,
		SubmittedBy:       e.SubmittedBy,
		SubmittedAt:       e.SubmittedAt,
		ApprovedBy:        e.ApprovedBy,
		ApprovedAt:        e.ApprovedAt,
		PostedBy:          e.PostedBy,
		PostedAt:          e.PostedAt,
		RejectionReason:   e.RejectionReason,
		ReversalOfEntryID: e.ReversalOfEntryID,
		ReversedByEntryID: e.ReversedByEntryID,
		Version:           e.Version,
		CreatedAt:         e.CreatedAt,
		CreatedBy:         e.CreatedBy,
		Lines:             make([]JournalLineResponse, len(e.Lines)),
	}
	if e.PostingDate != nil {
		res.PostingDate = e.PostingDate.Format(time.DateOnly)
	}
	for i, l := range e.Lines {
		res.Lines[i] = JournalLineResponse{
			LineID:           l.LineID,
			LineNumber:       l.LineNumber,
			AccountID:        l.AccountID,
			DebitAmount:      l.DebitAmount,
			CreditAmount:     l.CreditAmount,
			Description:      l.Description,
			MemberID:         l.MemberID,
			LoanID:           l.LoanID,
			SavingsAccountID: l.SavingsAccountID,
			Metadata:         l.Metadata,
		}
	}
	return res
}

// ToListJournalEntriesResponse converts a page of entries.
func ToListJournalEntriesResponse(entries []domain.JournalEntry, nextToken *string) ListJournalEntriesResponse {
	res := ListJournalEntriesResponse{Entries: make([]JournalEntryResponse, len(entries)), NextToken: nextToken}
	for i := range entries {
		res.Entries[i] = ToJournalEntryResponse(&entries[i])
	}
	return res
}
