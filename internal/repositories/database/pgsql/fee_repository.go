package pgsql

import (
	"context"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mfi_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxFeeRepository struct {
	BaseRepository
}

func newPgxFeeRepository(pool *pgxpool.Pool) portsrepo.FeeRepositoryFacade {
	return &PgxFeeRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.FeeRepositoryFacade = (*PgxFeeRepository)(nil)

// --- charges ---

const chargeColumns = `charge_id, reference, fee_definition_id, member_id, loan_id, savings_account_id,
	share_account_id, amount, amount_paid, amount_waived, charge_date, due_date, paid_date, status,
	receivable_account_id, income_account_id, charge_entry_id, notes,
	created_at, created_by, last_updated_at, last_updated_by, version`

func scanCharge(row pgx.Row) (domain.FeeCharge, error) {
	var c domain.FeeCharge
	var loanID, savingsID, shareID, entryID *string
	err := row.Scan(
		&c.ChargeID, &c.Reference, &c.FeeDefinitionID, &c.MemberID, &loanID, &savingsID,
		&shareID, &c.Amount, &c.AmountPaid, &c.AmountWaived, &c.ChargeDate, &c.DueDate, &c.PaidDate, &c.Status,
		&c.ReceivableAccountID, &c.IncomeAccountID, &entryID, &c.Notes,
		&c.CreatedAt, &c.CreatedBy, &c.LastUpdatedAt, &c.LastUpdatedBy, &c.Version,
	)
	c.LoanID = derefString(loanID)
	c.SavingsAccountID = derefString(savingsID)
	c.ShareAccountID = derefString(shareID)
	c.ChargeEntryID = derefString(entryID)
	c.ChargeDate = domain.DateOnly(c.ChargeDate)
	return c, err
}

func (r *PgxFeeRepository) FindChargeByID(ctx context.Context, chargeID string) (*domain.FeeCharge, error) {
	query := `SELECT ` + chargeColumns + ` FROM fee_charges WHERE charge_id = $1;`
	c, err := scanCharge(r.Pool.QueryRow(ctx, query, chargeID))
	if err != nil {
		return nil, mapError(err, "find fee charge "+chargeID)
	}
	return &c, nil
}

func (r *PgxFeeRepository) FindChargeForUpdate(ctx context.Context, tx pgx.Tx, chargeID string) (*domain.FeeCharge, error) {
	query := `SELECT ` + chargeColumns + ` FROM fee_charges WHERE charge_id = $1 FOR UPDATE;`
	c, err := scanCharge(tx.QueryRow(ctx, query, chargeID))
	if err != nil {
		return nil, mapError(err, "lock fee charge "+chargeID)
	}
	return &c, nil
}

// ListChargesByMember returns a member's charges, newest first.
func (r *PgxFeeRepository) ListChargesByMember(ctx context.Context, memberID string, limit int, offset int) ([]domain.FeeCharge, error) {
	query := `SELECT ` + chargeColumns + ` FROM fee_charges WHERE member_id = $1
		ORDER BY charge_date DESC, created_at DESC LIMIT $2 OFFSET $3;`
	rows, err := r.Pool.Query(ctx, query, memberID, limit, offset)
	if err != nil {
		return nil, mapError(err, "list fee charges")
	}
	defer rows.Close()
	charges := []domain.FeeCharge{}
	for rows.Next() {
		c, err := scanCharge(rows)
		if err != nil {
			return nil, mapError(err, "scan fee charge row")
		}
		charges = append(charges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list fee charges")
	}
	return charges, nil
}

func (r *PgxFeeRepository) SaveChargeTx(ctx context.Context, tx pgx.Tx, c domain.FeeCharge) error {
	query := `
		INSERT INTO fee_charges (` + chargeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23);
	`
	_, err := tx.Exec(ctx, query,
		c.ChargeID, c.Reference, c.FeeDefinitionID, c.MemberID, nullString(c.LoanID), nullString(c.SavingsAccountID),
		nullString(c.ShareAccountID), c.Amount, c.AmountPaid, c.AmountWaived, c.ChargeDate, c.DueDate, c.PaidDate, c.Status,
		c.ReceivableAccountID, c.IncomeAccountID, nullString(c.ChargeEntryID), c.Notes,
		c.CreatedAt, c.CreatedBy, c.LastUpdatedAt, c.LastUpdatedBy, c.Version,
	)
	if err != nil {
		return mapError(err, "save fee charge "+c.Reference)
	}
	return nil
}

func (r *PgxFeeRepository) UpdateChargeTx(ctx context.Context, tx pgx.Tx, c domain.FeeCharge) error {
	query := `
		UPDATE fee_charges
		SET amount_paid = $1, amount_waived = $2, paid_date = $3, status = $4, charge_entry_id = $5, notes = $6,
		    last_updated_at = $7, last_updated_by = $8, version = version + 1
		WHERE charge_id = $9 AND version = $10;
	`
	tag, err := tx.Exec(ctx, query,
		c.AmountPaid, c.AmountWaived, c.PaidDate, c.Status, nullString(c.ChargeEntryID), c.Notes,
		c.LastUpdatedAt, c.LastUpdatedBy, c.ChargeID, c.Version,
	)
	if err != nil {
		return mapError(err, "update fee charge "+c.ChargeID)
	}
	return expectOneRow(tag, "fee charge", c.ChargeID, c.Version)
}

// --- payments ---

const paymentColumns = `payment_id, reference, charge_id, member_id, amount, payment_date, payment_method,
	payment_source, cash_account_id, entry_id, status, reversed_at, reversed_by, reversal_reason,
	created_at, created_by, last_updated_at, last_updated_by, version`

func scanPayment(row pgx.Row) (domain.FeePayment, error) {
	var p domain.FeePayment
	var entryID, reversedBy, reason *string
	err := row.Scan(
		&p.PaymentID, &p.Reference, &p.ChargeID, &p.MemberID, &p.Amount, &p.PaymentDate, &p.PaymentMethod,
		&p.PaymentSource, &p.CashAccountID, &entryID, &p.Status, &p.ReversedAt, &reversedBy, &reason,
		&p.CreatedAt, &p.CreatedBy, &p.LastUpdatedAt, &p.LastUpdatedBy, &p.Version,
	)
	p.EntryID = derefString(entryID)
	p.ReversedBy = derefString(reversedBy)
	p.ReversalReason = derefString(reason)
	p.PaymentDate = domain.DateOnly(p.PaymentDate)
	return p, err
}

func (r *PgxFeeRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.FeePayment, error) {
	query := `SELECT ` + paymentColumns + ` FROM fee_payments WHERE payment_id = $1;`
	p, err := scanPayment(r.Pool.QueryRow(ctx, query, paymentID))
	if err != nil {
		return nil, mapError(err, "find fee payment "+paymentID)
	}
	return &p, nil
}

func (r *PgxFeeRepository) FindPaymentForUpdate(ctx context.Context, tx pgx.Tx, paymentID string) (*domain.FeePayment, error) {
	query := `SELECT ` + paymentColumns + ` FROM fee_payments WHERE payment_id = $1 FOR UPDATE;`
	p, err := scanPayment(tx.QueryRow(ctx, query, paymentID))
	if err != nil {
		return nil, mapError(err, "lock fee payment "+paymentID)
	}
	return &p, nil
}

func (r *PgxFeeRepository) ListPaymentsByCharge(ctx context.Context, chargeID string) ([]domain.FeePayment, error) {
	query := `SELECT ` + paymentColumns + ` FROM fee_payments WHERE charge_id = $1 ORDER BY payment_date, created_at;`
	rows, err := r.Pool.Query(ctx, query, chargeID)
	if err != nil {
		return nil, mapError(err, "list fee payments")
	}
	defer rows.Close()
	payments := []domain.FeePayment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, mapError(err, "scan fee payment row")
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list fee payments")
	}
	return payments, nil
}

func (r *PgxFeeRepository) SavePaymentTx(ctx context.Context, tx pgx.Tx, p domain.FeePayment) error {
	query := `
		INSERT INTO fee_payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);
	`
	_, err := tx.Exec(ctx, query,
		p.PaymentID, p.Reference, p.ChargeID, p.MemberID, p.Amount, p.PaymentDate, p.PaymentMethod,
		p.PaymentSource, p.CashAccountID, nullString(p.EntryID), p.Status, p.ReversedAt, nullString(p.ReversedBy), nullString(p.ReversalReason),
		p.CreatedAt, p.CreatedBy, p.LastUpdatedAt, p.LastUpdatedBy, p.Version,
	)
	if err != nil {
		return mapError(err, "save fee payment "+p.Reference)
	}
	return nil
}

func (r *PgxFeeRepository) UpdatePaymentTx(ctx context.Context, tx pgx.Tx, p domain.FeePayment) error {
	query := `
		UPDATE fee_payments
		SET entry_id = $1, status = $2, reversed_at = $3, reversed_by = $4, reversal_reason = $5,
		    last_updated_at = $6, last_updated_by = $7, version = version + 1
		WHERE payment_id = $8 AND version = $9;
	`
	tag, err := tx.Exec(ctx, query,
		nullString(p.EntryID), p.Status, p.ReversedAt, nullString(p.ReversedBy), nullString(p.ReversalReason),
		p.LastUpdatedAt, p.LastUpdatedBy, p.PaymentID, p.Version,
	)
	if err != nil {
		return mapError(err, "update fee payment "+p.PaymentID)
	}
	return expectOneRow(tag, "fee payment", p.PaymentID, p.Version)
}

// --- waivers ---

const waiverColumns = `waiver_id, charge_id, original_amount, waived_amount, waiver_type, reason, status,
	requested_by, approved_by, approved_at, rejection_reason, entry_id,
	created_at, created_by, last_updated_at, last_updated_by, version`

func scanWaiver(row pgx.Row) (domain.FeeWaiver, error) {
	var w domain.FeeWaiver
	var approvedBy, rejection, entryID *string
	err := row.Scan(
		&w.WaiverID, &w.ChargeID, &w.OriginalAmount, &w.WaivedAmount, &w.WaiverType, &w.Reason, &w.Status,
		&w.RequestedBy, &approvedBy, &w.ApprovedAt, &rejection, &entryID,
		&w.CreatedAt, &w.CreatedBy, &w.LastUpdatedAt, &w.LastUpdatedBy, &w.Version,
	)
	w.ApprovedBy = derefString(approvedBy)
	w.RejectionReason = derefString(rejection)
	w.EntryID = derefString(entryID)
	return w, err
}

func (r *PgxFeeRepository) collectWaivers(rows pgx.Rows) ([]domain.FeeWaiver, error) {
	defer rows.Close()
	waivers := []domain.FeeWaiver{}
	for rows.Next() {
		w, err := scanWaiver(rows)
		if err != nil {
			return nil, mapError(err, "scan fee waiver row")
		}
		waivers = append(waivers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list fee waivers")
	}
	return waivers, nil
}

func (r *PgxFeeRepository) FindWaiverByID(ctx context.Context, waiverID string) (*domain.FeeWaiver, error) {
	query := `SELECT ` + waiverColumns + ` FROM fee_waivers WHERE waiver_id = $1;`
	w, err := scanWaiver(r.Pool.QueryRow(ctx, query, waiverID))
	if err != nil {
		return nil, mapError(err, "find fee waiver "+waiverID)
	}
	return &w, nil
}

func (r *PgxFeeRepository) FindWaiverForUpdate(ctx context.Context, tx pgx.Tx, waiverID string) (*domain.FeeWaiver, error) {
	query := `SELECT ` + waiverColumns + ` FROM fee_waivers WHERE waiver_id = $1 FOR UPDATE;`
	w, err := scanWaiver(tx.QueryRow(ctx, query, waiverID))
	if err != nil {
		return nil, mapError(err, "lock fee waiver "+waiverID)
	}
	return &w, nil
}

func (r *PgxFeeRepository) ListWaiversByCharge(ctx context.Context, chargeID string) ([]domain.FeeWaiver, error) {
	query := `SELECT ` + waiverColumns + ` FROM fee_waivers WHERE charge_id = $1 ORDER BY created_at;`
	rows, err := r.Pool.Query(ctx, query, chargeID)
	if err != nil {
		return nil, mapError(err, "list fee waivers")
	}
	return r.collectWaivers(rows)
}

// ListApprovedWaiversTx returns the approved waivers of a charge already locked in tx.
func (r *PgxFeeRepository) ListApprovedWaiversTx(ctx context.Context, tx pgx.Tx, chargeID string) ([]domain.FeeWaiver, error) {
	query := `SELECT ` + waiverColumns + ` FROM fee_waivers WHERE charge_id = $1 AND status = $2 ORDER BY created_at;`
	rows, err := tx.Query(ctx, query, chargeID, domain.WaiverApproved)
	if err != nil {
		return nil, mapError(err, "list approved fee waivers")
	}
	return r.collectWaivers(rows)
}

func (r *PgxFeeRepository) SaveWaiverTx(ctx context.Context, tx pgx.Tx, w domain.FeeWaiver) error {
	query := `
		INSERT INTO fee_waivers (` + waiverColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err := tx.Exec(ctx, query,
		w.WaiverID, w.ChargeID, w.OriginalAmount, w.WaivedAmount, w.WaiverType, w.Reason, w.Status,
		w.RequestedBy, nullString(w.ApprovedBy), w.ApprovedAt, nullString(w.RejectionReason), nullString(w.EntryID),
		w.CreatedAt, w.CreatedBy, w.LastUpdatedAt, w.LastUpdatedBy, w.Version,
	)
	if err != nil {
		return mapError(err, "save fee waiver "+w.WaiverID)
	}
	return nil
}

func (r *PgxFeeRepository) UpdateWaiverTx(ctx context.Context, tx pgx.Tx, w domain.FeeWaiver) error {
	query := `
		UPDATE fee_waivers
		SET waived_amount = $1, waiver_type = $2, reason = $3, status = $4, approved_by = $5, approved_at = $6,
		    rejection_reason = $7, entry_id = $8, last_updated_at = $9, last_updated_by = $10, version = version + 1
		WHERE waiver_id = $11 AND version = $12;
	`
	tag, err := tx.Exec(ctx, query,
		w.WaivedAmount, w.WaiverType, w.Reason, w.Status, nullString(w.ApprovedBy), w.ApprovedAt,
		nullString(w.RejectionReason), nullString(w.EntryID), w.LastUpdatedAt, w.LastUpdatedBy, w.WaiverID, w.Version,
	)
	if err != nil {
		return mapError(err, "update fee waiver "+w.WaiverID)
	}
	return expectOneRow(tag, "fee waiver", w.WaiverID, w.Version)
}
