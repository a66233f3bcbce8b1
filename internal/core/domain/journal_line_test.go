package domain_test

import (
	"testing"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLine_PutsAmountOnOneSide(t *testing.T) {
	line, err := domain.NewLine(domain.LineParams{
		LineID:           "l-1",
		AccountID:        "cash",
		Side:             domain.Credit,
		Amount:           dec("42.50"),
		MemberID:         "m-1",
		LoanID:           "loan-1",
		SavingsAccountID: "sav-1",
		Metadata:         map[string]string{"currency": "KES"},
	})
	require.NoError(t, err)

	assert.True(t, line.DebitAmount.IsZero())
	assert.True(t, line.CreditAmount.Equal(dec("42.50")))
	assert.Equal(t, domain.Credit, line.Side())
	assert.Equal(t, "m-1", line.MemberID)
	assert.Equal(t, "loan-1", line.LoanID)
	assert.Equal(t, "sav-1", line.SavingsAccountID)
	assert.Equal(t, "KES", line.Metadata["currency"])
}

func TestJournalEntryLine_Validate(t *testing.T) {
	tests := []struct {
		name   string
		debit  decimal.Decimal
		credit decimal.Decimal
		valid  bool
	}{
		{"debit only", dec("10"), decimal.Zero, true},
		{"credit only", decimal.Zero, dec("10"), true},
		{"both sides", dec("10"), dec("10"), false},
		{"zero both", decimal.Zero, decimal.Zero, false},
		{"negative debit", dec("-10"), decimal.Zero, false},
		{"negative credit with debit", dec("10"), dec("-1"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := domain.JournalEntryLine{AccountID: "a", DebitAmount: tt.debit, CreditAmount: tt.credit}
			err := line.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrInvalidLine)
		})
	}
}

func TestJournalEntryLine_ValidateRequiresAccount(t *testing.T) {
	line := domain.JournalEntryLine{DebitAmount: dec("1"), CreditAmount: decimal.Zero}
	assert.ErrorIs(t, line.Validate(), domain.ErrInvalidLine)
}

func TestJournalEntryLine_Swapped(t *testing.T) {
	line, err := domain.NewLine(domain.LineParams{
		LineID:    "l-1",
		AccountID: "expense",
		Side:      domain.Debit,
		Amount:    dec("75"),
		MemberID:  "m-1",
		Metadata:  map[string]string{"tax": "VAT16"},
	})
	require.NoError(t, err)
	line.EntryID = "je-1"
	line.LineNumber = 3

	swapped := line.Swapped()

	assert.Equal(t, domain.Credit, swapped.Side())
	assert.True(t, swapped.CreditAmount.Equal(dec("75")))
	assert.True(t, swapped.DebitAmount.IsZero())
	assert.Empty(t, swapped.EntryID)
	assert.Zero(t, swapped.LineNumber)
	assert.Equal(t, "m-1", swapped.MemberID)
	require.NoError(t, swapped.Validate())

	swapped.Metadata["tax"] = "EXEMPT"
	assert.Equal(t, "VAT16", line.Metadata["tax"])
	assert.Equal(t, domain.Debit, line.Side())
}
