package dto

import (
	"time"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// InstallmentRequest describes one scheduled installment.
type InstallmentRequest struct {
	InstallmentNumber int             `json:"installmentNumber" binding:"required,min=1"`
	DueDate           time.Time       `json:"dueDate" binding:"required"`
	PrincipalAmount   decimal.Decimal `json:"principalAmount" binding:"dgte0"`
	InterestAmount    decimal.Decimal `json:"interestAmount" binding:"dgte0"`
}

// DisburseLoanRequest funds a loan and fixes its schedule.
type DisburseLoanRequest struct {
	MemberID         string               `json:"memberID"`
	Amount           decimal.Decimal      `json:"amount" binding:"dgt0"`
	DisbursementDate *time.Time           `json:"disbursementDate"`
	CashAccountCode  string               `json:"cashAccountCode"`
	Installments     []InstallmentRequest `json:"installments" binding:"required,min=1,dive"`
}

// RecordRepaymentRequest is a cash receipt split into components.
type RecordRepaymentRequest struct {
	MemberID        string               `json:"memberID"`
	PrincipalAmount decimal.Decimal      `json:"principalAmount" binding:"dgte0"`
	InterestAmount  decimal.Decimal      `json:"interestAmount" binding:"dgte0"`
	PenaltyAmount   decimal.Decimal      `json:"penaltyAmount" binding:"dgte0"`
	RepaymentDate   *time.Time           `json:"repaymentDate"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod" binding:"omitempty,oneof=CASH MOBILE_MONEY BANK_TRANSFER CHECK AUTO_DEDUCTION"`
	CashAccountCode string               `json:"cashAccountCode"`
}

// LoanScheduleResponse defines the data returned for one installment.
type LoanScheduleResponse struct {
	ScheduleID        string          `json:"scheduleID"`
	LoanID            string          `json:"loanID"`
	InstallmentNumber int             `json:"installmentNumber"`
	DueDate           string          `json:"dueDate"`
	PrincipalAmount   decimal.Decimal `json:"principalAmount"`
	InterestAmount    decimal.Decimal `json:"interestAmount"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	PaidAmount        decimal.Decimal `json:"paidAmount"`
	Remaining         decimal.Decimal `json:"remaining"`
	IsPaid            bool            `json:"isPaid"`
	PaidDate          *time.Time      `json:"paidDate,omitempty"`
}

// ToLoanScheduleResponse converts installments to DTOs.
func ToLoanScheduleResponse(schedule []domain.LoanSchedule) []LoanScheduleResponse {
	res := make([]LoanScheduleResponse, len(schedule))
	for i, s := range schedule {
		res[i] = LoanScheduleResponse{
			ScheduleID:        s.ScheduleID,
			LoanID:            s.LoanID,
			InstallmentNumber: s.InstallmentNumber,
			DueDate:           s.DueDate.Format(time.DateOnly),
			PrincipalAmount:   s.PrincipalAmount,
			InterestAmount:    s.InterestAmount,
			TotalAmount:       s.TotalAmount,
			PaidAmount:        s.PaidAmount,
			Remaining:         s.Remaining(),
			IsPaid:            s.IsPaid,
			PaidDate:          s.PaidDate,
		}
	}
	return res
}

// LoanDisbursementResponse is returned after a disbursement.
type LoanDisbursementResponse struct {
	LoanID           string                 `json:"loanID"`
	Amount           decimal.Decimal        `json:"amount"`
	DisbursementDate string                 `json:"disbursementDate"`
	EntryID          string                 `json:"entryID"`
	Schedule         []LoanScheduleResponse `json:"schedule"`
}

// ToLoanDisbursementResponse converts a disbursement and its schedule.
func ToLoanDisbursementResponse(d *domain.LoanDisbursement, schedule []domain.LoanSchedule) LoanDisbursementResponse {
	return LoanDisbursementResponse{
		LoanID:           d.LoanID,
		Amount:           d.Amount,
		DisbursementDate: d.DisbursementDate.Format(time.DateOnly),
		EntryID:          d.EntryID,
		Schedule:         ToLoanScheduleResponse(schedule),
	}
}

// LoanRepaymentResponse defines the data returned for a repayment.
type LoanRepaymentResponse struct {
	RepaymentID     string               `json:"repaymentID"`
	Reference       string               `json:"reference"`
	LoanID          string               `json:"loanID"`
	RepaymentDate   string               `json:"repaymentDate"`
	PrincipalAmount decimal.Decimal      `json:"principalAmount"`
	InterestAmount  decimal.Decimal      `json:"interestAmount"`
	PenaltyAmount   decimal.Decimal      `json:"penaltyAmount"`
	TotalAmount     decimal.Decimal      `json:"totalAmount"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod"`
	EntryID         string               `json:"entryID,omitempty"`
	Allocations     []domain.Allocation  `json:"allocations,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	CreatedBy       string               `json:"createdBy"`
}

// ToLoanRepaymentResponse converts a repayment to its DTO.
func ToLoanRepaymentResponse(r *domain.LoanRepayment) LoanRepaymentResponse {
	return LoanRepaymentResponse{
		RepaymentID:     r.RepaymentID,
		Reference:       r.Reference,
		LoanID:          r.LoanID,
		RepaymentDate:   r.RepaymentDate.Format(time.DateOnly),
		PrincipalAmount: r.PrincipalAmount,
		InterestAmount:  r.InterestAmount,
		PenaltyAmount:   r.PenaltyAmount,
		TotalAmount:     r.TotalAmount,
		PaymentMethod:   r.PaymentMethod,
		EntryID:         r.EntryID,
		Allocations:     r.Allocations,
		CreatedAt:       r.CreatedAt,
		CreatedBy:       r.CreatedBy,
	}
}

// ToListLoanRepaymentResponse converts a slice of repayments.
func ToListLoanRepaymentResponse(repayments []domain.LoanRepayment) []LoanRepaymentResponse {
	res := make([]LoanRepaymentResponse, len(repayments))
	for i := range repayments {
		res[i] = ToLoanRepaymentResponse(&repayments[i])
	}
	return res
}
