package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// LoanSchedule is one installment of a loan. Principal and interest are fixed
// at disbursement; only PaidAmount, IsPaid and PaidDate change.
type LoanSchedule struct {
	ScheduleID        string          `json:"scheduleID"`
	LoanID            string          `json:"loanID"`
	InstallmentNumber int             `json:"installmentNumber"`
	DueDate           time.Time       `json:"dueDate"`
	PrincipalAmount   decimal.Decimal `json:"principalAmount"`
	InterestAmount    decimal.Decimal `json:"interestAmount"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	PaidAmount        decimal.Decimal `json:"paidAmount"`
	IsPaid            bool            `json:"isPaid"`
	PaidDate          *time.Time      `json:"paidDate,omitempty"`
	AuditFields
}

// InstallmentParams describes one installment at disbursement.
type InstallmentParams struct {
	ScheduleID        string
	InstallmentNumber int
	DueDate           time.Time
	PrincipalAmount   decimal.Decimal
	InterestAmount    decimal.Decimal
}

// NewLoanSchedule validates a full installment plan for loanID. Installment
// numbers must be unique and positive, amounts non-negative, and the
// principal must sum to the disbursed amount.
func NewLoanSchedule(loanID string, disbursed decimal.Decimal, items []InstallmentParams, userID string, now time.Time) ([]LoanSchedule, error) {
	if loanID == "" {
		return nil, fmt.Errorf("%w: loan id is required", ErrInvalidSchedule)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one installment is required", ErrInvalidSchedule)
	}
	seen := make(map[int]struct{}, len(items))
	principal := decimal.Zero
	out := make([]LoanSchedule, 0, len(items))
	for _, it := range items {
		if it.InstallmentNumber < 1 {
			return nil, fmt.Errorf("%w: installment number must be positive", ErrInvalidSchedule)
		}
		if _, dup := seen[it.InstallmentNumber]; dup {
			return nil, fmt.Errorf("%w: duplicate installment %d", ErrInvalidSchedule, it.InstallmentNumber)
		}
		seen[it.InstallmentNumber] = struct{}{}
		if it.PrincipalAmount.IsNegative() || it.InterestAmount.IsNegative() {
			return nil, fmt.Errorf("%w: installment %d has a negative amount", ErrInvalidSchedule, it.InstallmentNumber)
		}
		total := it.PrincipalAmount.Add(it.InterestAmount)
		if !total.IsPositive() {
			return nil, fmt.Errorf("%w: installment %d is empty", ErrInvalidSchedule, it.InstallmentNumber)
		}
		if it.DueDate.IsZero() {
			return nil, fmt.Errorf("%w: installment %d has no due date", ErrInvalidSchedule, it.InstallmentNumber)
		}
		principal = principal.Add(it.PrincipalAmount)
		out = append(out, LoanSchedule{
			ScheduleID:        it.ScheduleID,
			LoanID:            loanID,
			InstallmentNumber: it.InstallmentNumber,
			DueDate:           DateOnly(it.DueDate),
			PrincipalAmount:   it.PrincipalAmount,
			InterestAmount:    it.InterestAmount,
			TotalAmount:       total,
			PaidAmount:        decimal.Zero,
			AuditFields:       newAuditFields(userID, now),
		})
	}
	if !principal.Equal(disbursed) {
		return nil, fmt.Errorf("%w: scheduled principal %s does not match disbursed %s", ErrInvalidSchedule, principal.String(), disbursed.String())
	}
	sortInstallments(out)
	return out, nil
}

// Remaining is totalAmount - paidAmount, never negative.
func (s LoanSchedule) Remaining() decimal.Decimal {
	r := s.TotalAmount.Sub(s.PaidAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// ApplyPayment accumulates amount. The installment is Paid once paidAmount
// reaches totalAmount.
func (s LoanSchedule) ApplyPayment(amount decimal.Decimal, date time.Time, now time.Time) (LoanSchedule, []Event, error) {
	if s.IsPaid {
		return s, nil, fmt.Errorf("%w: installment %d of loan %s", ErrInstallmentAlreadyPaid, s.InstallmentNumber, s.LoanID)
	}
	if !amount.IsPositive() {
		return s, nil, fmt.Errorf("%w: payment amount must be positive", ErrInvalidAmount)
	}
	next := s
	next.PaidAmount = s.PaidAmount.Add(amount)
	next.LastUpdatedAt = now
	if next.PaidAmount.LessThan(next.TotalAmount) {
		return next, nil, nil
	}
	d := DateOnly(date)
	next.IsPaid = true
	next.PaidDate = &d
	return next, []Event{newEvent(EventLoanSchedulePaid, aggregateLoanInstall, s.ScheduleID, now, map[string]any{
		"aggregateId":       s.ScheduleID,
		"loanId":            s.LoanID,
		"installmentNumber": s.InstallmentNumber,
		"paidAmount":        next.PaidAmount.String(),
		"paidDate":          d.Format(time.DateOnly),
	})}, nil
}

// Allocation is the share of a repayment applied to one installment.
type Allocation struct {
	ScheduleID        string          `json:"scheduleID"`
	InstallmentNumber int             `json:"installmentNumber"`
	Amount            decimal.Decimal `json:"amount"`
}

// AllocateRepayment splits total across unpaid installments, lowest
// installment number first. A later installment receives nothing until every
// earlier one is settled. Totals above the remaining schedule are rejected.
func AllocateRepayment(schedule []LoanSchedule, total decimal.Decimal) ([]Allocation, error) {
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: repayment total must be positive", ErrInvalidRepayment)
	}
	ordered := append([]LoanSchedule(nil), schedule...)
	sortInstallments(ordered)

	left := total
	var out []Allocation
	for _, s := range ordered {
		if left.IsZero() {
			break
		}
		if s.IsPaid {
			continue
		}
		share := decimal.Min(left, s.Remaining())
		if !share.IsPositive() {
			continue
		}
		out = append(out, Allocation{ScheduleID: s.ScheduleID, InstallmentNumber: s.InstallmentNumber, Amount: share})
		left = left.Sub(share)
	}
	if left.IsPositive() {
		return nil, fmt.Errorf("%w: repayment exceeds the remaining schedule by %s", ErrInvalidRepayment, left.String())
	}
	return out, nil
}

func sortInstallments(s []LoanSchedule) {
	sort.Slice(s, func(i, j int) bool { return s[i].InstallmentNumber < s[j].InstallmentNumber })
}
