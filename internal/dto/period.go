package dto

import (
	"time"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreatePeriodRequest defines the data needed to open a new accounting period.
type CreatePeriodRequest struct {
	Name               string            `json:"name" binding:"required"`
	StartDate          time.Time         `json:"startDate" binding:"required"`
	EndDate            time.Time         `json:"endDate" binding:"required"`
	PeriodType         domain.PeriodType `json:"periodType" binding:"required,oneof=MONTH QUARTER YEAR"`
	FiscalYear         int               `json:"fiscalYear" binding:"required,min=1900,max=2100"`
	PeriodNumber       int               `json:"periodNumber" binding:"required,min=1"`
	IsAdjustmentPeriod bool              `json:"isAdjustmentPeriod"`
}

// UpdatePeriodRequest changes descriptive fields of an open period.
type UpdatePeriodRequest struct {
	Name               *string `json:"name"`
	IsAdjustmentPeriod *bool   `json:"isAdjustmentPeriod"`
}

// ClosePeriodRequest optionally carries a closing balance computed elsewhere.
type ClosePeriodRequest struct {
	ClosingBalance *decimal.Decimal `json:"closingBalance"`
}

// ReasonRequest is used by every transition that requires a reason.
type ReasonRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListPeriodsParams defines query parameters for listing periods.
type ListPeriodsParams struct {
	FiscalYear *int `form:"fiscalYear"`
}

// ResolvePeriodParams selects the period covering a date.
type ResolvePeriodParams struct {
	Date time.Time `form:"date" time_format:"2006-01-02" time_utc:"1"`
}

// PeriodResponse defines the data returned for an accounting period.
type PeriodResponse struct {
	PeriodID                string              `json:"periodID"`
	Name                    string              `json:"name"`
	StartDate               string              `json:"startDate"`
	EndDate                 string              `json:"endDate"`
	PeriodType              domain.PeriodType   `json:"periodType"`
	FiscalYear              int                 `json:"fiscalYear"`
	PeriodNumber            int                 `json:"periodNumber"`
	IsAdjustmentPeriod      bool                `json:"isAdjustmentPeriod"`
	Status                  domain.PeriodStatus `json:"status"`
	TransactionCount        int64               `json:"transactionCount"`
	ClosingTransactionCount *int64              `json:"closingTransactionCount,omitempty"`
	ClosingBalance          *decimal.Decimal    `json:"closingBalance,omitempty"`
	ClosedAt                *time.Time          `json:"closedAt,omitempty"`
	ClosedBy                string              `json:"closedBy,omitempty"`
	LockedAt                *time.Time          `json:"lockedAt,omitempty"`
	LockedBy                string              `json:"lockedBy,omitempty"`
	ReopenReason            string              `json:"reopenReason,omitempty"`
	Version                 int64               `json:"version"`
	CreatedAt               time.Time           `json:"createdAt"`
	CreatedBy               string              `json:"createdBy"`
}

// ToPeriodResponse converts a domain.AccountingPeriod to its DTO.
func ToPeriodResponse(p *domain.AccountingPeriod) PeriodResponse {
	return PeriodResponse{
		PeriodID:                p.PeriodID,
		Name:                    p.Name,
		StartDate:               p.StartDate.Format(time.DateOnly),
		EndDate:                 p.EndDate.Format(time.DateOnly),
		PeriodType:              p.PeriodType,
		FiscalYear:              p.FiscalYear,
		PeriodNumber:            p.PeriodNumber,
		IsAdjustmentPeriod:      p.IsAdjustmentPeriod,
		Status:                  p.Status,
		TransactionCount:        p.TransactionCount,
		ClosingTransactionCount: p.ClosingTransactionCount,
		ClosingBalance:          p.ClosingBalance,
		ClosedAt:                p.ClosedAt,
		ClosedBy:                p.ClosedBy,
		LockedAt:                p.LockedAt,
		LockedBy:                p.LockedBy,
		ReopenReason:            p.ReopenReason,
		Version:                 p.Version,
		CreatedAt:               p.CreatedAt,
		CreatedBy:               p.CreatedBy,
	}
}

// ToListPeriodResponse converts a slice of periods.
func ToListPeriodResponse(periods []domain.AccountingPeriod) []PeriodResponse {
	res := make([]PeriodResponse, len(periods))
	for i := range periods {
		res[i] = ToPeriodResponse(&periods[i])
	}
	return res
}
