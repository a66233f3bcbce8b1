package repositories

import (
	"context"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// FeeChargeReader defines read operations for fee charges
type FeeChargeReader interface {
	FindChargeByID(ctx context.Context, chargeID string) (*domain.FeeCharge, error)
	ListChargesByMember(ctx context.Context, memberID string, limit int, offset int) ([]domain.FeeCharge, error)
}

// FeeChargeWriter defines write operations for fee charges
type FeeChargeWriter interface {
	SaveChargeTx(ctx context.Context, tx pgx.Tx, charge domain.FeeCharge) error
	UpdateChargeTx(ctx context.Context, tx pgx.Tx, charge domain.FeeCharge) error
	FindChargeForUpdate(ctx context.Context, tx pgx.Tx, chargeID string) (*domain.FeeCharge, error)
}

// FeePaymentRepository defines persistence for payments applied to charges
type FeePaymentRepository interface {
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.FeePayment, error)
	ListPaymentsByCharge(ctx context.Context, chargeID string) ([]domain.FeePayment, error)
	SavePaymentTx(ctx context.Context, tx pgx.Tx, payment domain.FeePayment) error
	UpdatePaymentTx(ctx context.Context, tx pgx.Tx, payment domain.FeePayment) error
	FindPaymentForUpdate(ctx context.Context, tx pgx.Tx, paymentID string) (*domain.FeePayment, error)
}

// FeeWaiverRepository defines persistence for waiver requests
type FeeWaiverRepository interface {
	FindWaiverByID(ctx context.Context, waiverID string) (*domain.FeeWaiver, error)
	ListWaiversByCharge(ctx context.Context, chargeID string) ([]domain.FeeWaiver, error)
	SaveWaiverTx(ctx context.Context, tx pgx.Tx, waiver domain.FeeWaiver) error
	UpdateWaiverTx(ctx context.Context, tx pgx.Tx, waiver domain.FeeWaiver) error
	FindWaiverForUpdate(ctx context.Context, tx pgx.Tx, waiverID string) (*domain.FeeWaiver, error)

	// ListApprovedWaiversTx returns the approved waivers of a locked charge.
	ListApprovedWaiversTx(ctx context.Context, tx pgx.Tx, chargeID string) ([]domain.FeeWaiver, error)
}

// FeeRepositoryFacade combines charge, payment and waiver persistence
type FeeRepositoryFacade interface {
	FeeChargeReader
	FeeChargeWriter
	FeePaymentRepository
	FeeWaiverRepository
}
