package services_test

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
)

var testNow = time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func jan(day int) time.Time {
	return time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestAccount(id, code string, t domain.AccountType) domain.Account {
	acc, _, err := domain.NewAccount(domain.NewAccountParams{
		AccountID:          id,
		Code:               code,
		Name:               code,
		AccountType:        t,
		AllowDirectPosting: true,
	}, nil, "setup", testNow)
	if err != nil {
		panic(err)
	}
	return acc
}

func openJanuary() domain.AccountingPeriod {
	p, _, err := domain.NewAccountingPeriod(domain.NewPeriodParams{
		PeriodID:     "p-jan",
		Name:         "January 2024",
		StartDate:    jan(1),
		EndDate:      jan(31),
		PeriodType:   domain.PeriodMonth,
		FiscalYear:   2024,
		PeriodNumber: 1,
	}, "setup", testNow)
	if err != nil {
		panic(err)
	}
	return p
}

// draftEntry builds a two-line draft moving amount from creditID to debitID.
func draftEntry(id string, date time.Time, debitID, creditID string, amount decimal.Decimal) domain.JournalEntry {
	e, err := domain.NewDraft(domain.DraftParams{
		EntryID:         id,
		ReferenceNumber: "JE-" + id,
		EntryDate:       date,
		Description:     "test entry",
	}, "clerk", testNow)
	if err != nil {
		panic(err)
	}
	for _, p := range []domain.LineParams{
		{LineID: id + "-1", AccountID: debitID, Side: domain.Debit, Amount: amount},
		{LineID: id + "-2", AccountID: creditID, Side: domain.Credit, Amount: amount},
	} {
		line, err := domain.NewLine(p)
		if err != nil {
			panic(err)
		}
		if e, err = e.AddLine(line, "clerk", testNow); err != nil {
			panic(err)
		}
	}
	return e
}

func approvedEntry(id string, date time.Time, debitID, creditID string, amount decimal.Decimal) domain.JournalEntry {
	e, _, err := draftEntry(id, date, debitID, creditID, amount).Submit("clerk", testNow)
	if err != nil {
		panic(err)
	}
	e, _, err = e.Approve("supervisor", testNow)
	if err != nil {
		panic(err)
	}
	return e
}
