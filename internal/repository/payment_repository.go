package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `id, shg_group_id, loan_id, emi_schedule_id, member_id, amount_paid, payment_date,
	payment_mode, transaction_ref, status, proof, remarks, reject_reason, created_at, updated_at`

func (r *paymentRepository) Create(ctx context.Context, payment *domain.LoanPayment) error {
	query := `
		INSERT INTO loan_payments (` + paymentColumns + `)
		VALUES (:id, :shg_group_id, :loan_id, :emi_schedule_id, :member_id, :amount_paid, :payment_date,
			:payment_mode, :transaction_ref, :status, :proof, :remarks, :reject_reason, :created_at, :updated_at)
	`

	_, err := conn(ctx, r.db).NamedExecContext(ctx, query, payment)
	return err
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LoanPayment, error) {
	query := `SELECT ` + paymentColumns + ` FROM loan_payments WHERE id = $1`

	var payment domain.LoanPayment
	if err := conn(ctx, r.db).GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.LoanPayment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM loan_payments
		WHERE loan_id = $1
		ORDER BY payment_date DESC
	`

	var payments []*domain.LoanPayment
	if err := conn(ctx, r.db).SelectContext(ctx, &payments, query, loanID); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *paymentRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE loan_payments
		SET status = 'failed', reject_reason = $2, updated_at = $3
		WHERE id = $1 AND status = 'success'
	`
	return expectOne(conn(ctx, r.db).ExecContext(ctx, query, id, reason, time.Now()))
}

type precloseRepository struct {
	db *sqlx.DB
}

func NewPrecloseRepository(db *sqlx.DB) PrecloseRepository {
	return &precloseRepository{db: db}
}

const precloseColumns = `id, shg_group_id, loan_id, total_preclose_amount, principal_amount,
	preclose_charge_amount, approved_by, close_on_installment_no, notes, created_at`

func (r *precloseRepository) Create(ctx context.Context, preclose *domain.LoanPreclose) error {
	query := `
		INSERT INTO loan_precloses (` + precloseColumns + `)
		VALUES (:id, :shg_group_id, :loan_id, :total_preclose_amount, :principal_amount,
			:preclose_charge_amount, :approved_by, :close_on_installment_no, :notes, :created_at)
	`

	_, err := conn(ctx, r.db).NamedExecContext(ctx, query, preclose)
	return err
}

func (r *precloseRepository) GetByLoanID(ctx context.Context, loanID uuid.UUID) (*domain.LoanPreclose, error) {
	query := `SELECT ` + precloseColumns + ` FROM loan_precloses WHERE loan_id = $1`

	var preclose domain.LoanPreclose
	if err := conn(ctx, r.db).GetContext(ctx, &preclose, query, loanID); err != nil {
		return nil, err
	}
	return &preclose, nil
}
