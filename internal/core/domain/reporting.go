package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrialBalanceRow represents a single account in a trial balance report.
// Exactly one of Debit and Credit is non-zero, following the net side.
type TrialBalanceRow struct {
	AccountID   string          `json:"accountID"`
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	AccountType AccountType     `json:"accountType"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// TrialBalance is the set of posted account balances as of a date.
type TrialBalance struct {
	AsOf        time.Time         `json:"asOf"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"totalDebit"`
	TotalCredit decimal.Decimal   `json:"totalCredit"`
	IsBalanced  bool              `json:"isBalanced"`
}

// AccountTotals is the raw debit and credit movement of one account.
type AccountTotals struct {
	AccountID   string
	AccountCode string
	AccountName string
	AccountType AccountType
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// BuildTrialBalance nets each account's movement onto one side and totals both columns.
func BuildTrialBalance(asOf time.Time, totals []AccountTotals) TrialBalance {
	tb := TrialBalance{
		AsOf:        DateOnly(asOf),
		Rows:        make([]TrialBalanceRow, 0, len(totals)),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, t := range totals {
		net := t.Debit.Sub(t.Credit)
		if net.IsZero() {
			continue
		}
		row := TrialBalanceRow{
			AccountID:   t.AccountID,
			AccountCode: t.AccountCode,
			AccountName: t.AccountName,
			AccountType: t.AccountType,
			Debit:       decimal.Zero,
			Credit:      decimal.Zero,
		}
		if net.IsPositive() {
			row.Debit = net
			tb.TotalDebit = tb.TotalDebit.Add(net)
		} else {
			row.Credit = net.Neg()
			tb.TotalCredit = tb.TotalCredit.Add(row.Credit)
		}
		tb.Rows = append(tb.Rows, row)
	}
	tb.IsBalanced = tb.TotalDebit.Equal(tb.TotalCredit)
	return tb
}

// NetIncome is income minus expense over the given movements.
func NetIncome(totals []AccountTotals) decimal.Decimal {
	net := decimal.Zero
	for _, t := range totals {
		switch t.AccountType {
		case Income:
			net = net.Add(t.Credit.Sub(t.Debit))
		case Expense:
			net = net.Sub(t.Debit.Sub(t.Credit))
		}
	}
	return net
}
