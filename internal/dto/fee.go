package dto

import (
	"time"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateFeeChargeRequest raises a receivable for a member. Account codes
// default to the fees.* ledger settings when omitted.
type CreateFeeChargeRequest struct {
	FeeDefinitionID       string          `json:"feeDefinitionID" binding:"required"`
	MemberID              string          `json:"memberID" binding:"required"`
	LoanID                string          `json:"loanID"`
	SavingsAccountID      string          `json:"savingsAccountID"`
	ShareAccountID        string          `json:"shareAccountID"`
	Amount                decimal.Decimal `json:"amount" binding:"dgt0"`
	ChargeDate            *time.Time      `json:"chargeDate"`
	DueDate               *time.Time      `json:"dueDate"`
	ReceivableAccountCode string          `json:"receivableAccountCode"`
	IncomeAccountCode     string          `json:"incomeAccountCode"`
	Notes                 string          `json:"notes"`
}

// RecordFeePaymentRequest applies a payment to a charge.
type RecordFeePaymentRequest struct {
	Amount          decimal.Decimal      `json:"amount" binding:"dgt0"`
	PaymentDate     *time.Time           `json:"paymentDate"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod" binding:"omitempty,oneof=CASH MOBILE_MONEY BANK_TRANSFER CHECK AUTO_DEDUCTION"`
	PaymentSource   domain.PaymentSource `json:"paymentSource" binding:"omitempty,oneof=CASH LOAN_REPAYMENT SAVINGS_DEDUCTION MOBILE_MONEY BANK_TRANSFER"`
	CashAccountCode string               `json:"cashAccountCode"`
}

// CreateFeeWaiverRequest requests a waiver against a charge.
type CreateFeeWaiverRequest struct {
	ChargeID     string          `json:"chargeID" binding:"required"`
	WaivedAmount decimal.Decimal `json:"waivedAmount" binding:"dgt0"`
	Reason       string          `json:"reason" binding:"required"`
}

// UpdateFeeWaiverRequest changes a pending waiver.
type UpdateFeeWaiverRequest struct {
	WaivedAmount *decimal.Decimal `json:"waivedAmount" binding:"omitempty,dgt0"`
	Reason       *string          `json:"reason"`
}

// ListFeeChargesParams defines query parameters for listing a member's charges.
type ListFeeChargesParams struct {
	MemberID string `form:"memberId" binding:"required"`
	Limit    int    `form:"limit,default=50"`
	Offset   int    `form:"offset,default=0"`
}

// FeeChargeResponse defines the data returned for a fee charge.
type FeeChargeResponse struct {
	ChargeID            string                 `json:"chargeID"`
	Reference           string                 `json:"reference"`
	FeeDefinitionID     string                 `json:"feeDefinitionID"`
	MemberID            string                 `json:"memberID"`
	LoanID              string                 `json:"loanID,omitempty"`
	SavingsAccountID    string                 `json:"savingsAccountID,omitempty"`
	ShareAccountID      string                 `json:"shareAccountID,omitempty"`
	Amount              decimal.Decimal        `json:"amount"`
	AmountPaid          decimal.Decimal        `json:"amountPaid"`
	AmountWaived        decimal.Decimal        `json:"amountWaived"`
	Outstanding         decimal.Decimal        `json:"outstanding"`
	Payable             decimal.Decimal        `json:"payable"`
	ChargeDate          string                 `json:"chargeDate"`
	DueDate             *time.Time             `json:"dueDate,omitempty"`
	PaidDate            *time.Time             `json:"paidDate,omitempty"`
	Status              domain.FeeChargeStatus `json:"status"`
	ReceivableAccountID string                 `json:"receivableAccountID"`
	IncomeAccountID     string                 `json:"incomeAccountID"`
	ChargeEntryID       string                 `json:"chargeEntryID,omitempty"`
	Notes               string                 `json:"notes,omitempty"`
	Version             int64                  `json:"version"`
	CreatedAt           time.Time              `json:"createdAt"`
	CreatedBy           string                 `json:"createdBy"`
}

// ToFeeChargeResponse converts a domain.FeeCharge to its DTO.
func ToFeeChargeResponse(c *domain.FeeCharge) FeeChargeResponse {
	return FeeChargeResponse{
		ChargeID:            c.ChargeID,
		Reference:           c.Reference,
		FeeDefinitionID:     c.FeeDefinitionID,
		MemberID:            c.MemberID,
		LoanID:              c.LoanID,
		SavingsAccountID:    c.SavingsAccountID,
		ShareAccountID:      c.ShareAccountID,
		Amount:              c.Amount,
		AmountPaid:          c.AmountPaid,
		AmountWaived:        c.AmountWaived,
		Outstanding:         c.Outstanding(),
		Payable:             c.Payable(),
		ChargeDate:          c.ChargeDate.Format(time.DateOnly),
		DueDate:             c.DueDate,
		PaidDate:            c.PaidDate,
		Status:              c.Status,
		ReceivableAccountID: c.ReceivableAccountID,
		IncomeAccountID:     c.IncomeAccountID,
		ChargeEntryID:       c.ChargeEntryID,
		Notes:               c.Notes,
		Version:             c.Version,
		CreatedAt:           c.CreatedAt,
		CreatedBy:           c.CreatedBy,
	}
}

// ToListFeeChargeResponse converts a slice of charges.
func ToListFeeChargeResponse(charges []domain.FeeCharge) []FeeChargeResponse {
	res := make([]FeeChargeResponse, len(charges))
	for i := range charges {
		res[i] = ToFeeChargeResponse(&charges[i])
	}
	return res
}

// FeePaymentResponse defines the data returned for a fee payment.
type FeePaymentResponse struct {
	PaymentID      string                  `json:"paymentID"`
	Reference      string                  `json:"reference"`
	ChargeID       string                  `json:"chargeID"`
	MemberID       string                  `json:"memberID"`
	Amount         decimal.Decimal         `json:"amount"`
	PaymentDate    string                  `json:"paymentDate"`
	PaymentMethod  domain.PaymentMethod    `json:"paymentMethod"`
	PaymentSource  domain.PaymentSource    `json:"paymentSource"`
	CashAccountID  string                  `json:"cashAccountID"`
	EntryID        string                  `json:"entryID,omitempty"`
	Status         domain.FeePaymentStatus `json:"status"`
	ReversedAt     *time.Time              `json:"reversedAt,omitempty"`
	ReversedBy     string                  `json:"reversedBy,omitempty"`
	ReversalReason string                  `json:"reversalReason,omitempty"`
	CreatedAt      time.Time               `json:"createdAt"`
	CreatedBy      string                  `json:"createdBy"`
}

// ToFeePaymentResponse converts a domain.FeePayment to its DTO.
func ToFeePaymentResponse(p *domain.FeePayment) FeePaymentResponse {
	return FeePaymentResponse{
		PaymentID:      p.PaymentID,
		Reference:      p.Reference,
		ChargeID:       p.ChargeID,
		MemberID:       p.MemberID,
		Amount:         p.Amount,
		PaymentDate:    p.PaymentDate.Format(time.DateOnly),
		PaymentMethod:  p.PaymentMethod,
		PaymentSource:  p.PaymentSource,
		CashAccountID:  p.CashAccountID,
		EntryID:        p.EntryID,
		Status:         p.Status,
		ReversedAt:     p.ReversedAt,
		ReversedBy:     p.ReversedBy,
		ReversalReason: p.ReversalReason,
		CreatedAt:      p.CreatedAt,
		CreatedBy:      p.CreatedBy,
	}
}

// ToListFeePaymentResponse converts a slice of payments.
func ToListFeePaymentResponse(payments []domain.FeePayment) []FeePaymentResponse {
	res := make([]FeePaymentResponse, len(payments))
	for i := range payments {
		res[i] = ToFeePaymentResponse(&payments[i])
	}
	return res
}

// FeeWaiverResponse defines the data returned for a fee waiver.
type FeeWaiverResponse struct {
	WaiverID        string              `json:"waiverID"`
	ChargeID        string              `json:"chargeID"`
	OriginalAmount  decimal.Decimal     `json:"originalAmount"`
	WaivedAmount    decimal.Decimal     `json:"waivedAmount"`
	RemainingAmount decimal.Decimal     `json:"remainingAmount"`
	WaiverType      domain.WaiverType   `json:"waiverType"`
	Reason          string              `json:"reason"`
	Status          domain.WaiverStatus `json:"status"`
	RequestedBy     string              `json:"requestedBy"`
	ApprovedBy      string              `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time          `json:"approvedAt,omitempty"`
	RejectionReason string              `json:"rejectionReason,omitempty"`
	EntryID         string              `json:"entryID,omitempty"`
	Version         int64               `json:"version"`
	CreatedAt       time.Time           `json:"createdAt"`
}

// ToFeeWaiverResponse converts a domain.FeeWaiver to its DTO.
func ToFeeWaiverResponse(w *domain.FeeWaiver) FeeWaiverResponse {
	return FeeWaiverResponse{
		WaiverID:        w.WaiverID,
		ChargeID:        w.ChargeID,
		OriginalAmount:  w.OriginalAmount,
		WaivedAmount:    w.WaivedAmount,
		RemainingAmount: w.RemainingAmount(),
		WaiverType:      w.WaiverType,
		Reason:          w.Reason,
		Status:          w.Status,
		RequestedBy:     w.RequestedBy,
		ApprovedBy:      w.ApprovedBy,
		ApprovedAt:      w.ApprovedAt,
		RejectionReason: w.RejectionReason,
		EntryID:         w.EntryID,
		Version:         w.Version,
		CreatedAt:       w.CreatedAt,
	}
}

// ToListFeeWaiverResponse converts a slice of waivers.
func ToListFeeWaiverResponse(waivers []domain.FeeWaiver) []FeeWaiverResponse {
	res := make([]FeeWaiverResponse, len(waivers))
	for i := range waivers {
		res[i] = ToFeeWaiverResponse(&waivers[i])
	}
	return res
}
