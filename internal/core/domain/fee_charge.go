package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FeeChargeStatus is the settlement state of a fee charge.
type FeeChargeStatus string

const (
	ChargePending       FeeChargeStatus = "PENDING"
	ChargePartiallyPaid FeeChargeStatus = "PARTIALLY_PAID"
	ChargePaid          FeeChargeStatus = "PAID"
	ChargeWaived        FeeChargeStatus = "WAIVED"
	ChargeReversed      FeeChargeStatus = "REVERSED"
)

// FeeCharge is an amount owed by a member for a fee.
// Invariant: 0 <= AmountPaid <= Amount and AmountPaid+AmountWaived <= Amount.
type FeeCharge struct {
	ChargeID            string          `json:"chargeID"`
	Reference           string          `json:"reference"`
	FeeDefinitionID     string          `json:"feeDefinitionID"`
	MemberID            string          `json:"memberID"`
	LoanID              string          `json:"loanID,omitempty"`
	SavingsAccountID    string          `json:"savingsAccountID,omitempty"`
	ShareAccountID      string          `json:"shareAccountID,omitempty"`
	Amount              decimal.Decimal `json:"amount"`
	AmountPaid          decimal.Decimal `json:"amountPaid"`
	AmountWaived        decimal.Decimal `json:"amountWaived"`
	ChargeDate          time.Time       `json:"chargeDate"`
	DueDate             *time.Time      `json:"dueDate,omitempty"`
	PaidDate            *time.Time      `json:"paidDate,omitempty"`
	Status              FeeChargeStatus `json:"status"`
	ReceivableAccountID string          `json:"receivableAccountID"`
	IncomeAccountID     string          `json:"incomeAccountID"`
	ChargeEntryID       string          `json:"chargeEntryID,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	AuditFields
}

// NewChargeParams carries the inputs for a new fee charge.
type NewChargeParams struct {
	ChargeID            string
	Reference           string
	FeeDefinitionID     string
	MemberID            string
	LoanID              string
	SavingsAccountID    string
	ShareAccountID      string
	Amount              decimal.Decimal
	ChargeDate          time.Time
	DueDate             *time.Time
	ReceivableAccountID string
	IncomeAccountID     string
	Notes               string
}

// NewFeeCharge validates p and returns a Pending charge.
func NewFeeCharge(p NewChargeParams, userID string, now time.Time) (FeeCharge, []Event, error) {
	if !p.Amount.IsPositive() {
		return FeeCharge{}, nil, fmt.Errorf("%w: charge amount must be positive", ErrInvalidAmount)
	}
	if strings.TrimSpace(p.FeeDefinitionID) == "" || strings.TrimSpace(p.MemberID) == "" {
		return FeeCharge{}, nil, fmt.Errorf("%w: fee definition and member are required", ErrInvalidCharge)
	}
	if p.ReceivableAccountID == "" || p.IncomeAccountID == "" {
		return FeeCharge{}, nil, fmt.Errorf("%w: receivable and income accounts are required", ErrInvalidCharge)
	}
	if p.ChargeDate.IsZero() {
		return FeeCharge{}, nil, fmt.Errorf("%w: charge date is required", ErrInvalidCharge)
	}
	chargeDate := DateOnly(p.ChargeDate)
	var due *time.Time
	if p.DueDate != nil {
		d := DateOnly(*p.DueDate)
		if d.Before(chargeDate) {
			return FeeCharge{}, nil, fmt.Errorf("%w: due date precedes charge date", ErrInvalidCharge)
		}
		due = &d
	}
	c := FeeCharge{
		ChargeID:            p.ChargeID,
		Reference:           p.Reference,
		FeeDefinitionID:     p.FeeDefinitionID,
		MemberID:            p.MemberID,
		LoanID:              p.LoanID,
		SavingsAccountID:    p.SavingsAccountID,
		ShareAccountID:      p.ShareAccountID,
		Amount:              p.Amount,
		AmountPaid:          decimal.Zero,
		AmountWaived:        decimal.Zero,
		ChargeDate:          chargeDate,
		DueDate:             due,
		Status:              ChargePending,
		ReceivableAccountID: p.ReceivableAccountID,
		IncomeAccountID:     p.IncomeAccountID,
		Notes:               p.Notes,
		AuditFields:         newAuditFields(userID, now),
	}
	return c, []Event{c.event(EventFeeChargeCreated, now, map[string]any{
		"memberId": c.MemberID,
		"amount":   c.Amount.String(),
	})}, nil
}

// Outstanding is amount - amountPaid.
func (c FeeCharge) Outstanding() decimal.Decimal {
	return c.Amount.Sub(c.AmountPaid)
}

// Payable is what can still be collected: outstanding less approved waivers.
func (c FeeCharge) Payable() decimal.Decimal {
	return c.Outstanding().Sub(c.AmountWaived)
}

// IsTerminal reports whether the charge no longer accepts payments.
func (c FeeCharge) IsTerminal() bool {
	return c.Status == ChargePaid || c.Status == ChargeWaived || c.Status == ChargeReversed
}

// RecordPayment applies amount to the charge.
func (c FeeCharge) RecordPayment(amount decimal.Decimal, paidOn time.Time, userID string, now time.Time) (FeeCharge, []Event, error) {
	if c.IsTerminal() {
		return c, nil, fmt.Errorf("%w: charge %s is %s", ErrChargeNotPayable, c.Reference, c.Status)
	}
	if !amount.IsPositive() {
		return c, nil, fmt.Errorf("%w: payment amount must be positive", ErrInvalidAmount)
	}
	if amount.GreaterThan(c.Payable()) {
		return c, nil, fmt.Errorf("%w: payment %s exceeds payable balance %s", ErrInvalidAmount, amount.String(), c.Payable().String())
	}
	next := c
	next.AmountPaid = c.AmountPaid.Add(amount)
	next.AuditFields = c.AuditFields.touch(userID, now)

	if next.Payable().IsZero() {
		d := DateOnly(paidOn)
		next.Status = ChargePaid
		next.PaidDate = &d
		return next, []Event{c.event(EventFeeChargePaid, now, map[string]any{
			"amountPaid": next.AmountPaid.String(),
			"paidDate":   d.Format(time.DateOnly),
		})}, nil
	}
	next.Status = ChargePartiallyPaid
	return next, nil, nil
}

// ReversePayment rolls back a previously recorded payment of amount.
func (c FeeCharge) ReversePayment(amount decimal.Decimal, userID string, now time.Time) (FeeCharge, error) {
	if c.Status == ChargeWaived || c.Status == ChargeReversed {
		return c, fmt.Errorf("%w: charge %s is %s", ErrPaymentHasDependency, c.Reference, c.Status)
	}
	if !amount.IsPositive() || amount.GreaterThan(c.AmountPaid) {
		return c, fmt.Errorf("%w: cannot reverse %s of %s paid", ErrInvalidAmount, amount.String(), c.AmountPaid.String())
	}
	next := c
	next.AmountPaid = c.AmountPaid.Sub(amount)
	next.PaidDate = nil
	if next.AmountPaid.IsZero() {
		next.Status = ChargePending
	} else {
		next.Status = ChargePartiallyPaid
	}
	next.AuditFields = c.AuditFields.touch(userID, now)
	return next, nil
}

// checkWaivable guards waiver requests, approvals and direct waives.
// A Waived charge passes; the amount check against Payable bounds it.
func (c FeeCharge) checkWaivable() error {
	switch c.Status {
	case ChargePaid, ChargeReversed:
		return fmt.Errorf("%w: charge %s is %s", ErrChargeNotWaivable, c.Reference, c.Status)
	}
	return nil
}

// Waive writes off the whole payable balance. It returns the amount waived.
func (c FeeCharge) Waive(reason, userID string, now time.Time) (FeeCharge, decimal.Decimal, []Event, error) {
	if err := c.checkWaivable(); err != nil {
		return c, decimal.Zero, nil, err
	}
	if strings.TrimSpace(reason) == "" {
		return c, decimal.Zero, nil, ErrReasonRequired
	}
	waived := c.Payable()
	if !waived.IsPositive() {
		return c, decimal.Zero, nil, fmt.Errorf("%w: charge %s has nothing left to waive", ErrInvalidAmount, c.Reference)
	}
	next := c
	next.AmountWaived = c.AmountWaived.Add(waived)
	next.Status = ChargeWaived
	next.Notes = appendNote(c.Notes, "Waived: "+reason)
	next.AuditFields = c.AuditFields.touch(userID, now)
	return next, waived, []Event{c.event(EventFeeChargeWaived, now, map[string]any{
		"amountWaived": waived.String(),
		"reason":       reason,
	})}, nil
}

// ApplyWaiver reduces the payable balance by an approved waiver amount.
// The charge becomes Waived when nothing remains payable.
func (c FeeCharge) ApplyWaiver(amount decimal.Decimal, userID string, now time.Time) (FeeCharge, []Event, error) {
	if err := c.checkWaivable(); err != nil {
		return c, nil, err
	}
	if !amount.IsPositive() || amount.GreaterThan(c.Payable()) {
		return c, nil, fmt.Errorf("%w: waiver %s exceeds payable balance %s", ErrInvalidAmount, amount.String(), c.Payable().String())
	}
	next := c
	next.AmountWaived = c.AmountWaived.Add(amount)
	next.AuditFields = c.AuditFields.touch(userID, now)
	if next.Payable().IsZero() {
		next.Status = ChargeWaived
		return next, []Event{c.event(EventFeeChargeWaived, now, map[string]any{
			"amountWaived": next.AmountWaived.String(),
		})}, nil
	}
	return next, nil, nil
}

// Reverse cancels a charge that has no payments.
func (c FeeCharge) Reverse(reason, userID string, now time.Time) (FeeCharge, []Event, error) {
	if c.Status == ChargeReversed {
		return c, nil, fmt.Errorf("%w: charge %s", ErrAlreadyReversed, c.Reference)
	}
	if c.AmountPaid.IsPositive() {
		return c, nil, fmt.Errorf("%w: charge %s has %s paid", ErrHasPayments, c.Reference, c.AmountPaid.String())
	}
	if strings.TrimSpace(reason) == "" {
		return c, nil, ErrReasonRequired
	}
	next := c
	next.Status = ChargeReversed
	next.Notes = appendNote(c.Notes, "Reversed: "+reason)
	next.AuditFields = c.AuditFields.touch(userID, now)
	return next, []Event{c.event(EventFeeChargeReversed, now, map[string]any{"reason": reason})}, nil
}

func (c FeeCharge) event(t EventType, now time.Time, extra map[string]any) Event {
	payload := map[string]any{
		"aggregateId": c.ChargeID,
		"reference":   c.Reference,
		"memberId":    c.MemberID,
	}
	for k, v := range extra {
		payload[k] = v
	}
	return newEvent(t, aggregateFeeCharge, c.ChargeID, now, payload)
}
