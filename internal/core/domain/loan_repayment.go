package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LoanRepayment is an immutable cash receipt against a loan.
// TotalAmount always equals the sum of its components.
type LoanRepayment struct {
	RepaymentID     string          `json:"repaymentID"`
	Reference       string          `json:"reference"`
	LoanID          string          `json:"loanID"`
	MemberID        string          `json:"memberID,omitempty"`
	RepaymentDate   time.Time       `json:"repaymentDate"`
	PrincipalAmount decimal.Decimal `json:"principalAmount"`
	InterestAmount  decimal.Decimal `json:"interestAmount"`
	PenaltyAmount   decimal.Decimal `json:"penaltyAmount"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	EntryID         string          `json:"entryID,omitempty"`
	Allocations     []Allocation    `json:"allocations,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	CreatedBy       string          `json:"createdBy"`
}

// NewRepaymentParams carries the components of a repayment.
type NewRepaymentParams struct {
	RepaymentID     string
	Reference       string
	LoanID          string
	MemberID        string
	RepaymentDate   time.Time
	PrincipalAmount decimal.Decimal
	InterestAmount  decimal.Decimal
	PenaltyAmount   decimal.Decimal
	PaymentMethod   PaymentMethod
}

// NewLoanRepayment validates the components and computes the total.
func NewLoanRepayment(p NewRepaymentParams, userID string, now time.Time) (LoanRepayment, error) {
	if p.LoanID == "" {
		return LoanRepayment{}, fmt.Errorf("%w: loan id is required", ErrInvalidRepayment)
	}
	if p.PrincipalAmount.IsNegative() || p.InterestAmount.IsNegative() || p.PenaltyAmount.IsNegative() {
		return LoanRepayment{}, fmt.Errorf("%w: components must not be negative", ErrInvalidRepayment)
	}
	total := p.PrincipalAmount.Add(p.InterestAmount).Add(p.PenaltyAmount)
	if !total.IsPositive() {
		return LoanRepayment{}, fmt.Errorf("%w: repayment total must be positive", ErrInvalidRepayment)
	}
	method := p.PaymentMethod
	if method == "" {
		method = MethodCash
	}
	if !method.IsValid() {
		return LoanRepayment{}, fmt.Errorf("%w: unknown payment method %q", ErrInvalidRepayment, p.PaymentMethod)
	}
	date := p.RepaymentDate
	if date.IsZero() {
		date = now
	}
	return LoanRepayment{
		RepaymentID:     p.RepaymentID,
		Reference:       p.Reference,
		LoanID:          p.LoanID,
		MemberID:        p.MemberID,
		RepaymentDate:   DateOnly(date),
		PrincipalAmount: p.PrincipalAmount,
		InterestAmount:  p.InterestAmount,
		PenaltyAmount:   p.PenaltyAmount,
		TotalAmount:     total,
		PaymentMethod:   method,
		CreatedAt:       now,
		CreatedBy:       userID,
	}, nil
}

// ScheduledAmount is the part of the repayment settled against installments.
// Penalties are outside the schedule.
func (r LoanRepayment) ScheduledAmount() decimal.Decimal {
	return r.PrincipalAmount.Add(r.InterestAmount)
}

// LoanDisbursement records the posting that funded a loan. A loan is disbursed once.
type LoanDisbursement struct {
	LoanID           string          `json:"loanID"`
	MemberID         string          `json:"memberID,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	DisbursementDate time.Time       `json:"disbursementDate"`
	EntryID          string          `json:"entryID"`
	CreatedAt        time.Time       `json:"createdAt"`
	CreatedBy        string          `json:"createdBy"`
}

// NewLoanDisbursement validates the disbursed amount.
func NewLoanDisbursement(loanID, memberID string, amount decimal.Decimal, date time.Time, userID string, now time.Time) (LoanDisbursement, error) {
	if loanID == "" {
		return LoanDisbursement{}, fmt.Errorf("%w: loan id is required", ErrInvalidSchedule)
	}
	if !amount.IsPositive() {
		return LoanDisbursement{}, fmt.Errorf("%w: disbursed amount must be positive", ErrInvalidAmount)
	}
	if date.IsZero() {
		date = now
	}
	return LoanDisbursement{
		LoanID:           loanID,
		MemberID:         memberID,
		Amount:           amount,
		DisbursementDate: DateOnly(date),
		CreatedAt:        now,
		CreatedBy:        userID,
	}, nil
}
