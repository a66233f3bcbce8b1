package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how the member paid.
type PaymentMethod string

const (
	MethodCash          PaymentMethod = "CASH"
	MethodMobileMoney   PaymentMethod = "MOBILE_MONEY"
	MethodBankTransfer  PaymentMethod = "BANK_TRANSFER"
	MethodCheck         PaymentMethod = "CHECK"
	MethodAutoDeduction PaymentMethod = "AUTO_DEDUCTION"
)

// IsValid reports whether m is a known payment method.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodMobileMoney, MethodBankTransfer, MethodCheck, MethodAutoDeduction:
		return true
	}
	return false
}

// PaymentSource is where the funds came from.
type PaymentSource string

const (
	SourceCash             PaymentSource = "CASH"
	SourceLoanRepayment    PaymentSource = "LOAN_REPAYMENT"
	SourceSavingsDeduction PaymentSource = "SAVINGS_DEDUCTION"
	SourceMobileMoney      PaymentSource = "MOBILE_MONEY"
	SourceBankTransfer     PaymentSource = "BANK_TRANSFER"
)

// IsValid reports whether s is a known payment source.
func (s PaymentSource) IsValid() bool {
	switch s {
	case SourceCash, SourceLoanRepayment, SourceSavingsDeduction, SourceMobileMoney, SourceBankTransfer:
		return true
	}
	return false
}

// FeePaymentStatus is Active until the payment is reversed.
type FeePaymentStatus string

const (
	PaymentActive   FeePaymentStatus = "ACTIVE"
	PaymentReversed FeePaymentStatus = "REVERSED"
)

// FeePayment is an amount applied to exactly one fee charge.
type FeePayment struct {
	PaymentID      string           `json:"paymentID"`
	Reference      string           `json:"reference"`
	ChargeID       string           `json:"chargeID"`
	MemberID       string           `json:"memberID"`
	Amount         decimal.Decimal  `json:"amount"`
	PaymentDate    time.Time        `json:"paymentDate"`
	PaymentMethod  PaymentMethod    `json:"paymentMethod"`
	PaymentSource  PaymentSource    `json:"paymentSource"`
	CashAccountID  string           `json:"cashAccountID"`
	EntryID        string           `json:"entryID,omitempty"`
	Status         FeePaymentStatus `json:"status"`
	ReversedAt     *time.Time       `json:"reversedAt,omitempty"`
	ReversedBy     string           `json:"reversedBy,omitempty"`
	ReversalReason string           `json:"reversalReason,omitempty"`
	AuditFields
}

// NewPaymentParams carries the inputs for a fee payment.
type NewPaymentParams struct {
	PaymentID     string
	Reference     string
	Amount        decimal.Decimal
	PaymentDate   time.Time
	PaymentMethod PaymentMethod
	PaymentSource PaymentSource
	CashAccountID string
}

// NewFeePayment validates p against charge. The charge itself is updated with
// FeeCharge.RecordPayment.
func NewFeePayment(charge FeeCharge, p NewPaymentParams, userID string, now time.Time) (FeePayment, error) {
	if !p.Amount.IsPositive() {
		return FeePayment{}, fmt.Errorf("%w: payment amount must be positive", ErrInvalidAmount)
	}
	method := p.PaymentMethod
	if method == "" {
		method = MethodCash
	}
	if !method.IsValid() {
		return FeePayment{}, fmt.Errorf("%w: unknown payment method %q", ErrInvalidAmount, p.PaymentMethod)
	}
	source := p.PaymentSource
	if source == "" {
		source = SourceCash
	}
	if !source.IsValid() {
		return FeePayment{}, fmt.Errorf("%w: unknown payment source %q", ErrInvalidAmount, p.PaymentSource)
	}
	if p.CashAccountID == "" {
		return FeePayment{}, fmt.Errorf("%w: cash account is required", ErrInvalidCharge)
	}
	date := p.PaymentDate
	if date.IsZero() {
		date = now
	}
	return FeePayment{
		PaymentID:     p.PaymentID,
		Reference:     p.Reference,
		ChargeID:      charge.ChargeID,
		MemberID:      charge.MemberID,
		Amount:        p.Amount,
		PaymentDate:   DateOnly(date),
		PaymentMethod: method,
		PaymentSource: source,
		CashAccountID: p.CashAccountID,
		Status:        PaymentActive,
		AuditFields:   newAuditFields(userID, now),
	}, nil
}

// Reverse marks an Active payment as Reversed. The caller has already checked
// the charge for downstream dependencies with FeeCharge.ReversePayment.
func (p FeePayment) Reverse(reason, userID string, now time.Time) (FeePayment, []Event, error) {
	if p.Status == PaymentReversed {
		return p, nil, fmt.Errorf("%w: payment %s", ErrAlreadyReversed, p.Reference)
	}
	if strings.TrimSpace(reason) == "" {
		return p, nil, ErrReasonRequired
	}
	next := p
	next.Status = PaymentReversed
	next.ReversedAt = &now
	next.ReversedBy = userID
	next.ReversalReason = reason
	next.AuditFields = p.AuditFields.touch(userID, now)
	return next, []Event{newEvent(EventFeePaymentReversed, aggregateFeePayment, p.PaymentID, now, map[string]any{
		"aggregateId": p.PaymentID,
		"chargeId":    p.ChargeID,
		"amount":      p.Amount.String(),
		"reason":      reason,
	})}, nil
}
