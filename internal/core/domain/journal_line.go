package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EntrySide indicates whether a journal line is a Debit or a Credit.
type EntrySide string

const (
	Debit  EntrySide = "DEBIT"
	Credit EntrySide = "CREDIT"
)

// IsValid reports whether s is DEBIT or CREDIT.
func (s EntrySide) IsValid() bool {
	return s == Debit || s == Credit
}

// JournalEntryLine is one line of a journal entry, affecting one account.
// Exactly one of DebitAmount and CreditAmount is positive, the other is zero.
type JournalEntryLine struct {
	LineID           string            `json:"lineID"`
	EntryID          string            `json:"entryID"`
	LineNumber       int               `json:"lineNumber"`
	AccountID        string            `json:"accountID"`
	DebitAmount      decimal.Decimal   `json:"debitAmount"`
	CreditAmount     decimal.Decimal   `json:"creditAmount"`
	Description      string            `json:"description,omitempty"`
	MemberID         string            `json:"memberID,omitempty"`
	LoanID           string            `json:"loanID,omitempty"`
	SavingsAccountID string            `json:"savingsAccountID,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"` // pass-through, e.g. currency or tax codes
}

// LineParams carries the inputs for a new line.
type LineParams struct {
	LineID           string
	AccountID        string
	Side             EntrySide
	Amount           decimal.Decimal
	Description      string
	MemberID         string
	LoanID           string
	SavingsAccountID string
	Metadata         map[string]string
}

// NewLine builds a line with amount on the given side.
func NewLine(p LineParams) (JournalEntryLine, error) {
	if !p.Side.IsValid() {
		return JournalEntryLine{}, fmt.Errorf("%w: side %q", ErrInvalidLine, p.Side)
	}
	l := JournalEntryLine{
		LineID:           p.LineID,
		AccountID:        p.AccountID,
		DebitAmount:      decimal.Zero,
		CreditAmount:     decimal.Zero,
		Description:      p.Description,
		MemberID:         p.MemberID,
		LoanID:           p.LoanID,
		SavingsAccountID: p.SavingsAccountID,
		Metadata:         copyMetadata(p.Metadata),
	}
	if p.Side == Debit {
		l.DebitAmount = p.Amount
	} else {
		l.CreditAmount = p.Amount
	}
	if err := l.Validate(); err != nil {
		return JournalEntryLine{}, err
	}
	return l, nil
}

// Validate checks the account reference and the one-sided amount rule.
func (l JournalEntryLine) Validate() error {
	if l.AccountID == "" {
		return fmt.Errorf("%w: account is required", ErrInvalidLine)
	}
	if l.DebitAmount.IsNegative() || l.CreditAmount.IsNegative() {
		return fmt.Errorf("%w: negative amount on account %s", ErrInvalidLine, l.AccountID)
	}
	if l.DebitAmount.IsPositive() == l.CreditAmount.IsPositive() {
		return fmt.Errorf("%w: debit %s, credit %s on account %s",
			ErrInvalidLine, l.DebitAmount.String(), l.CreditAmount.String(), l.AccountID)
	}
	return nil
}

// Side reports which side carries the amount. Only meaningful on a valid line.
func (l JournalEntryLine) Side() EntrySide {
	if l.DebitAmount.IsPositive() {
		return Debit
	}
	return Credit
}

// Swapped returns a copy with debit and credit exchanged. Entry and line
// number are cleared; the receiving entry assigns them.
func (l JournalEntryLine) Swapped() JournalEntryLine {
	s := l
	s.DebitAmount, s.CreditAmount = l.CreditAmount, l.DebitAmount
	s.EntryID = ""
	s.LineNumber = 0
	s.Metadata = copyMetadata(l.Metadata)
	return s
}

func copyMetadata(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
