package services

import (
	"context"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/SscSPs/mfi_ledger/internal/dto"
)

// FeeChargeSvc manages charges and their payments
type FeeChargeSvc interface {
	CreateCharge(ctx context.Context, req dto.CreateFeeChargeRequest, userID string) (*domain.FeeCharge, error)
	GetCharge(ctx context.Context, chargeID string) (*domain.FeeCharge, error)
	ListChargesByMember(ctx context.Context, memberID string, limit int, offset int) ([]domain.FeeCharge, error)
	RecordPayment(ctx context.Context, chargeID string, req dto.RecordFeePaymentRequest, userID string) (*domain.FeePayment, error)
	ListPayments(ctx context.Context, chargeID string) ([]domain.FeePayment, error)
	ReversePayment(ctx context.Context, paymentID string, reason string, userID string) (*domain.FeePayment, error)
	WaiveCharge(ctx context.Context, chargeID string, reason string, userID string) (*domain.FeeCharge, error)
	ReverseCharge(ctx context.Context, chargeID string, reason string, userID string) (*domain.FeeCharge, error)
}

// FeeWaiverSvc manages the waiver approval workflow
type FeeWaiverSvc interface {
	RequestWaiver(ctx context.Context, req dto.CreateFeeWaiverRequest, userID string) (*domain.FeeWaiver, error)
	GetWaiver(ctx context.Context, waiverID string) (*domain.FeeWaiver, error)
	ListWaivers(ctx context.Context, chargeID string) ([]domain.FeeWaiver, error)
	UpdateWaiver(ctx context.Context, waiverID string, req dto.UpdateFeeWaiverRequest, userID string) (*domain.FeeWaiver, error)
	ApproveWaiver(ctx context.Context, waiverID string, userID string) (*domain.FeeWaiver, error)
	RejectWaiver(ctx context.Context, waiverID string, reason string, userID string) (*domain.FeeWaiver, error)
	CancelWaiver(ctx context.Context, waiverID string, userID string) (*domain.FeeWaiver, error)
}

// FeeSvcFacade combines all fee-related service interfaces
type FeeSvcFacade interface {
	FeeChargeSvc
	FeeWaiverSvc
}
