package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mfi_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type PgxLoanRepository struct {
	BaseRepository
}

func newPgxLoanRepository(pool *pgxpool.Pool) portsrepo.LoanRepositoryFacade {
	return &PgxLoanRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LoanRepositoryFacade = (*PgxLoanRepository)(nil)

const disbursementColumns = `loan_id, member_id, amount, disbursement_date, entry_id, created_at, created_by`

const scheduleColumns = `schedule_id, loan_id, installment_number, due_date, principal_amount, interest_amount,
	total_amount, paid_amount, is_paid, paid_date, created_at, created_by, last_updated_at, last_updated_by, version`

const repaymentColumns = `repayment_id, reference, loan_id, member_id, repayment_date, principal_amount,
	interest_amount, penalty_amount, total_amount, payment_method, entry_id, allocations, created_at, created_by`

func scanInstallment(row pgx.Row) (domain.LoanSchedule, error) {
	var s domain.LoanSchedule
	err := row.Scan(
		&s.ScheduleID, &s.LoanID, &s.InstallmentNumber, &s.DueDate, &s.PrincipalAmount, &s.InterestAmount,
		&s.TotalAmount, &s.PaidAmount, &s.IsPaid, &s.PaidDate, &s.CreatedAt, &s.CreatedBy, &s.LastUpdatedAt, &s.LastUpdatedBy, &s.Version,
	)
	s.DueDate = domain.DateOnly(s.DueDate)
	return s, err
}

func collectInstallments(rows pgx.Rows, what string) ([]domain.LoanSchedule, error) {
	defer rows.Close()
	schedule := []domain.LoanSchedule{}
	for rows.Next() {
		s, err := scanInstallment(rows)
		if err != nil {
			return nil, mapError(err, "scan installment row")
		}
		schedule = append(schedule, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, what)
	}
	return schedule, nil
}

func scanDisbursement(row pgx.Row, loanID string) (*domain.LoanDisbursement, error) {
	var d domain.LoanDisbursement
	var memberID, entryID *string
	err := row.Scan(
		&d.LoanID, &memberID, &d.Amount, &d.DisbursementDate, &entryID, &d.CreatedAt, &d.CreatedBy,
	)
	if err != nil {
		return nil, mapError(err, "find disbursement of loan "+loanID)
	}
	d.MemberID = derefString(memberID)
	d.EntryID = derefString(entryID)
	d.DisbursementDate = domain.DateOnly(d.DisbursementDate)
	return &d, nil
}

func (r *PgxLoanRepository) FindDisbursement(ctx context.Context, loanID string) (*domain.LoanDisbursement, error) {
	query := `SELECT ` + disbursementColumns + ` FROM loan_disbursements WHERE loan_id = $1;`
	return scanDisbursement(r.Pool.QueryRow(ctx, query, loanID), loanID)
}

// FindDisbursementTx holds a share lock so the disbursement cannot vanish under a repayment.
func (r *PgxLoanRepository) FindDisbursementTx(ctx context.Context, tx pgx.Tx, loanID string) (*domain.LoanDisbursement, error) {
	query := `SELECT ` + disbursementColumns + ` FROM loan_disbursements WHERE loan_id = $1 FOR SHARE;`
	return scanDisbursement(tx.QueryRow(ctx, query, loanID), loanID)
}

func (r *PgxLoanRepository) ListScheduleByLoan(ctx context.Context, loanID string) ([]domain.LoanSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM loan_schedules WHERE loan_id = $1 ORDER BY installment_number;`
	rows, err := r.Pool.Query(ctx, query, loanID)
	if err != nil {
		return nil, mapError(err, "list schedule of loan "+loanID)
	}
	return collectInstallments(rows, "list schedule of loan "+loanID)
}

// FindScheduleForUpdate locks every installment of the loan in installment order.
func (r *PgxLoanRepository) FindScheduleForUpdate(ctx context.Context, tx pgx.Tx, loanID string) ([]domain.LoanSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM loan_schedules WHERE loan_id = $1 ORDER BY installment_number FOR UPDATE;`
	rows, err := tx.Query(ctx, query, loanID)
	if err != nil {
		return nil, mapError(err, "lock schedule of loan "+loanID)
	}
	return collectInstallments(rows, "lock schedule of loan "+loanID)
}

func (r *PgxLoanRepository) ListRepaymentsByLoan(ctx context.Context, loanID string) ([]domain.LoanRepayment, error) {
	query := `SELECT ` + repaymentColumns + ` FROM loan_repayments WHERE loan_id = $1 ORDER BY repayment_date, created_at;`
	rows, err := r.Pool.Query(ctx, query, loanID)
	if err != nil {
		return nil, mapError(err, "list repayments of loan "+loanID)
	}
	defer rows.Close()

	repayments := []domain.LoanRepayment{}
	for rows.Next() {
		var rp domain.LoanRepayment
		var memberID, entryID *string
		var allocations []byte
		if err := rows.Scan(
			&rp.RepaymentID, &rp.Reference, &rp.LoanID, &memberID, &rp.RepaymentDate, &rp.PrincipalAmount,
			&rp.InterestAmount, &rp.PenaltyAmount, &rp.TotalAmount, &rp.PaymentMethod, &entryID, &allocations,
			&rp.CreatedAt, &rp.CreatedBy,
		); err != nil {
			return nil, mapError(err, "scan repayment row")
		}
		rp.MemberID = derefString(memberID)
		rp.EntryID = derefString(entryID)
		rp.RepaymentDate = domain.DateOnly(rp.RepaymentDate)
		if len(allocations) > 0 {
			if err := json.Unmarshal(allocations, &rp.Allocations); err != nil {
				return nil, fmt.Errorf("failed to decode allocations of repayment %s: %w", rp.RepaymentID, err)
			}
		}
		repayments = append(repayments, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list repayments of loan "+loanID)
	}
	return repayments, nil
}

// SaveDisbursementTx fails with ErrDuplicate when the loan was already disbursed.
func (r *PgxLoanRepository) SaveDisbursementTx(ctx context.Context, tx pgx.Tx, d domain.LoanDisbursement) error {
	query := `INSERT INTO loan_disbursements (` + disbursementColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7);`
	_, err := tx.Exec(ctx, query,
		d.LoanID, nullString(d.MemberID), d.Amount, d.DisbursementDate, nullString(d.EntryID), d.CreatedAt, d.CreatedBy,
	)
	if err != nil {
		return mapError(err, "save disbursement of loan "+d.LoanID)
	}
	return nil
}

// SaveScheduleTx inserts all installments in one batch.
func (r *PgxLoanRepository) SaveScheduleTx(ctx context.Context, tx pgx.Tx, schedule []domain.LoanSchedule) error {
	if len(schedule) == 0 {
		return nil
	}
	query := `
		INSERT INTO loan_schedules (` + scheduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	batch := &pgx.Batch{}
	for _, s := range schedule {
		batch.Queue(query,
			s.ScheduleID, s.LoanID, s.InstallmentNumber, s.DueDate, s.PrincipalAmount, s.InterestAmount,
			s.TotalAmount, s.PaidAmount, s.IsPaid, s.PaidDate, s.CreatedAt, s.CreatedBy, s.LastUpdatedAt, s.LastUpdatedBy, s.Version,
		)
	}
	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for _, s := range schedule {
		if _, err := br.Exec(); err != nil {
			return mapError(err, fmt.Sprintf("save installment %d of loan %s", s.InstallmentNumber, s.LoanID))
		}
	}
	return nil
}

func (r *PgxLoanRepository) UpdateInstallmentTx(ctx context.Context, tx pgx.Tx, s domain.LoanSchedule) error {
	query := `
		UPDATE loan_schedules
		SET paid_amount = $1, is_paid = $2, paid_date = $3, last_updated_at = $4, last_updated_by = $5, version = version + 1
		WHERE schedule_id = $6 AND version = $7;
	`
	tag, err := tx.Exec(ctx, query, s.PaidAmount, s.IsPaid, s.PaidDate, s.LastUpdatedAt, s.LastUpdatedBy, s.ScheduleID, s.Version)
	if err != nil {
		return mapError(err, "update installment "+s.ScheduleID)
	}
	return expectOneRow(tag, "installment", s.ScheduleID, s.Version)
}

func (r *PgxLoanRepository) SaveRepaymentTx(ctx context.Context, tx pgx.Tx, rp domain.LoanRepayment) error {
	allocations := rp.Allocations
	if allocations == nil {
		allocations = []domain.Allocation{}
	}
	encoded, err := json.Marshal(allocations)
	if err != nil {
		return fmt.Errorf("failed to encode allocations of repayment %s: %w", rp.RepaymentID, err)
	}
	query := `
		INSERT INTO loan_repayments (` + repaymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb, $13, $14);
	`
	_, err = tx.Exec(ctx, query,
		rp.RepaymentID, rp.Reference, rp.LoanID, nullString(rp.MemberID), rp.RepaymentDate, rp.PrincipalAmount,
		rp.InterestAmount, rp.PenaltyAmount, rp.TotalAmount, rp.PaymentMethod, nullString(rp.EntryID), string(encoded),
		rp.CreatedAt, rp.CreatedBy,
	)
	if err != nil {
		return mapError(err, "save repayment "+rp.Reference)
	}
	return nil
}
