package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// IsValid reports whether t is one of the five account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Income, Expense:
		return true
	}
	return false
}

// NormalBalance is the side that increases an account of this type.
func (t AccountType) NormalBalance() EntrySide {
	if t == Asset || t == Expense {
		return Debit
	}
	return Credit
}

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountActive   AccountStatus = "ACTIVE"
	AccountInactive AccountStatus = "INACTIVE"
	AccountClosed   AccountStatus = "CLOSED"
)

// MaxAccountCodeLength bounds account codes.
const MaxAccountCodeLength = 16

// Account represents a ledger account in the chart of accounts.
// Balance is always derived from DebitBalance and CreditBalance.
type Account struct {
	AccountID          string          `json:"accountID"`
	Code               string          `json:"code"`
	Name               string          `json:"name"`
	AccountType        AccountType     `json:"accountType"`
	ParentAccountID    string          `json:"parentAccountID,omitempty"`
	Level              int             `json:"level"`
	IsHeader           bool            `json:"isHeader"`
	AllowDirectPosting bool            `json:"allowDirectPosting"`
	Description        string          `json:"description"`
	Status             AccountStatus   `json:"status"`
	DebitBalance       decimal.Decimal `json:"debitBalance"`
	CreditBalance      decimal.Decimal `json:"creditBalance"`
	Balance            decimal.Decimal `json:"balance"`
	AuditFields
}

// NewAccountParams carries the inputs for creating an account.
type NewAccountParams struct {
	AccountID          string
	Code               string
	Name               string
	AccountType        AccountType
	IsHeader           bool
	AllowDirectPosting bool
	Description        string
}

// ComputeBalance applies the type-dependent sign rule.
func ComputeBalance(t AccountType, debit, credit decimal.Decimal) decimal.Decimal {
	if t.NormalBalance() == Debit {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// NewAccount validates params against the (optional) parent and returns a new Active account.
func NewAccount(p NewAccountParams, parent *Account, userID string, now time.Time) (Account, []Event, error) {
	code := strings.TrimSpace(p.Code)
	if code == "" || len(code) > MaxAccountCodeLength {
		return Account{}, nil, fmt.Errorf("%w: code must be 1-%d characters", ErrInvalidAccount, MaxAccountCodeLength)
	}
	if strings.TrimSpace(p.Name) == "" {
		return Account{}, nil, fmt.Errorf("%w: name is required", ErrInvalidAccount)
	}
	if !p.AccountType.IsValid() {
		return Account{}, nil, fmt.Errorf("%w: unknown account type %q", ErrInvalidAccount, p.AccountType)
	}

	level := 1
	parentID := ""
	if parent != nil {
		if !parent.IsHeader {
			return Account{}, nil, fmt.Errorf("%w: parent %s is a posting account, not a header", ErrInvalidHierarchy, parent.Code)
		}
		if parent.AccountType != p.AccountType {
			return Account{}, nil, fmt.Errorf("%w: parent %s is %s, child is %s", ErrInvalidHierarchy, parent.Code, parent.AccountType, p.AccountType)
		}
		if parent.Status == AccountClosed {
			return Account{}, nil, fmt.Errorf("%w: parent %s is closed", ErrInvalidHierarchy, parent.Code)
		}
		level = parent.Level + 1
		parentID = parent.AccountID
	}

	acc := Account{
		AccountID:          p.AccountID,
		Code:               code,
		Name:               strings.TrimSpace(p.Name),
		AccountType:        p.AccountType,
		ParentAccountID:    parentID,
		Level:              level,
		IsHeader:           p.IsHeader,
		AllowDirectPosting: p.AllowDirectPosting && !p.IsHeader,
		Description:        p.Description,
		Status:             AccountActive,
		DebitBalance:       decimal.Zero,
		CreditBalance:      decimal.Zero,
		Balance:            decimal.Zero,
		AuditFields:        newAuditFields(userID, now),
	}

	evt := newEvent(EventChartOfAccountCreated, aggregateAccount, acc.AccountID, now, map[string]any{
		"aggregateId": acc.AccountID,
		"code":        acc.Code,
		"accountType": string(acc.AccountType),
		"isHeader":    acc.IsHeader,
	})
	return acc, []Event{evt}, nil
}

// CanPost reports why the account cannot take a direct posting, or nil.
func (a Account) CanPost() error {
	switch {
	case a.IsHeader:
		return fmt.Errorf("%w: %s is a header account", ErrPostingNotAllowed, a.Code)
	case a.Status == AccountClosed:
		return fmt.Errorf("%w: %s is closed", ErrPostingNotAllowed, a.Code)
	case a.Status == AccountInactive:
		return fmt.Errorf("%w: %s is inactive", ErrPostingNotAllowed, a.Code)
	case !a.AllowDirectPosting:
		return fmt.Errorf("%w: %s does not allow direct posting", ErrPostingNotAllowed, a.Code)
	}
	return nil
}

// Post accumulates debit and credit amounts and recomputes the balance.
func (a Account) Post(debit, credit decimal.Decimal, userID string, now time.Time) (Account, error) {
	if err := a.CanPost(); err != nil {
		return a, err
	}
	if debit.IsNegative() || credit.IsNegative() {
		return a, ErrNegativePostingLine
	}
	next := a
	next.DebitBalance = a.DebitBalance.Add(debit)
	next.CreditBalance = a.CreditBalance.Add(credit)
	next.Balance = ComputeBalance(a.AccountType, next.DebitBalance, next.CreditBalance)
	next.AuditFields = a.AuditFields.touch(userID, now)
	return next, nil
}

// BalanceUpdatedEvent describes the change between a and after.
func (a Account) BalanceUpdatedEvent(after Account, entryID string, now time.Time) Event {
	return newEvent(EventChartOfAccountBalanceUpdated, aggregateAccount, a.AccountID, now, map[string]any{
		"aggregateId":     a.AccountID,
		"code":            a.Code,
		"journalEntryId":  entryID,
		"previousBalance": a.Balance.String(),
		"balance":         after.Balance.String(),
	})
}

// Update changes descriptive fields only.
func (a Account) Update(name, description *string, userID string, now time.Time) (Account, []Event, error) {
	if a.Status == AccountClosed {
		return a, nil, fmt.Errorf("%w: %s", ErrAccountClosed, a.Code)
	}
	next := a
	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return a, nil, fmt.Errorf("%w: name is required", ErrInvalidAccount)
		}
		next.Name = strings.TrimSpace(*name)
	}
	if description != nil {
		next.Description = *description
	}
	next.AuditFields = a.AuditFields.touch(userID, now)
	evt := newEvent(EventChartOfAccountUpdated, aggregateAccount, a.AccountID, now, map[string]any{
		"aggregateId": a.AccountID,
		"code":        a.Code,
		"name":        next.Name,
	})
	return next, []Event{evt}, nil
}

// Activate moves an Inactive account back to Active.
func (a Account) Activate(userID string, now time.Time) (Account, []Event, error) {
	return a.changeStatus(AccountActive, userID, now)
}

// Deactivate moves an Active account to Inactive.
func (a Account) Deactivate(userID string, now time.Time) (Account, []Event, error) {
	return a.changeStatus(AccountInactive, userID, now)
}

// Close terminates the account. Only allowed at zero balance.
func (a Account) Close(userID string, now time.Time) (Account, []Event, error) {
	if !a.Balance.IsZero() {
		return a, nil, fmt.Errorf("%w: %s has balance %s", ErrNonZeroBalance, a.Code, a.Balance.String())
	}
	return a.changeStatus(AccountClosed, userID, now)
}

func (a Account) changeStatus(to AccountStatus, userID string, now time.Time) (Account, []Event, error) {
	if a.Status == AccountClosed {
		return a, nil, fmt.Errorf("%w: %s", ErrAccountClosed, a.Code)
	}
	if a.Status == to {
		return a, nil, fmt.Errorf("%w: %s is %s", ErrAccountStatusNoop, a.Code, to)
	}
	next := a
	next.Status = to
	next.AuditFields = a.AuditFields.touch(userID, now)
	evt := newEvent(EventChartOfAccountStatusChanged, aggregateAccount, a.AccountID, now, map[string]any{
		"aggregateId": a.AccountID,
		"code":        a.Code,
		"from":        string(a.Status),
		"to":          string(to),
	})
	return next, []Event{evt}, nil
}
