package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

const loanColumns = `id, shg_group_id, loan_application_id, member_id, approved_amount, processing_fee, tenure,
	interest_type, interest_rate, installment_type, installment_frequency, installment_amount, total_interest,
	total_repayment_amount, principal_balance, no_of_installments, loan_start_date, loan_end_date, status,
	is_loan_preclosed, collateral, created_at, updated_at`

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES (:id, :shg_group_id, :loan_application_id, :member_id, :approved_amount, :processing_fee, :tenure,
			:interest_type, :interest_rate, :installment_type, :installment_frequency, :installment_amount, :total_interest,
			:total_repayment_amount, :principal_balance, :no_of_installments, :loan_start_date, :loan_end_date, :status,
			:is_loan_preclosed, :collateral, :created_at, :updated_at)
	`

	_, err := conn(ctx, r.db).NamedExecContext(ctx, query, loan)
	return err
}

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	return r.get(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id)
}

func (r *loanRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	return r.get(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`, id)
}

func (r *loanRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.Loan, error) {
	var loan domain.Loan
	if err := conn(ctx, r.db).GetContext(ctx, &loan, query, id); err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	conds := []string{"shg_group_id = $1"}
	args := []interface{}{filter.ShgGroupID}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if len(filter.MemberIDs) > 0 {
		ids := make([]string, len(filter.MemberIDs))
		for i, id := range filter.MemberIDs {
			ids[i] = id.String()
		}
		add("member_id = ANY($%d::uuid[])", pq.Array(ids))
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}

	query := `SELECT ` + loanColumns + ` FROM loans WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var loans []*domain.Loan
	if err := conn(ctx, r.db).SelectContext(ctx, &loans, query, args...); err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *loanRepository) DecrementPrincipal(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE loans
		SET principal_balance = principal_balance - $2, updated_at = $3
		WHERE id = $1
	`
	return expectOne(conn(ctx, r.db).ExecContext(ctx, query, id, amount, time.Now()))
}

func (r *loanRepository) Close(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE loans
		SET status = 'closed', is_loan_preclosed = TRUE, updated_at = $2
		WHERE id = $1 AND status = 'active'
	`
	return expectOne(conn(ctx, r.db).ExecContext(ctx, query, id, time.Now()))
}

// Summary counts paid installments at their scheduled total, penalties excluded.
func (r *loanRepository) Summary(ctx context.Context, groupID, memberID uuid.UUID) (*domain.LoanSummary, error) {
	query := `
		SELECT
			$1::uuid AS shg_group_id,
			$2::uuid AS member_id,
			COALESCE((SELECT SUM(total_repayment_amount) FROM loans
				WHERE shg_group_id = $1 AND member_id = $2), 0) AS total_repayment_amount,
			COALESCE((SELECT SUM(e.total_installment_amount) FROM emi_schedules e
				JOIN loans l ON l.id = e.loan_id
				WHERE l.shg_group_id = $1 AND l.member_id = $2 AND e.status = 'completed'), 0) AS paid_loan_amount
	`

	var summary domain.LoanSummary
	if err := conn(ctx, r.db).GetContext(ctx, &summary, query, groupID, memberID); err != nil {
		return nil, err
	}
	summary.DueLoanAmount = summary.TotalRepaymentAmount.Sub(summary.PaidLoanAmount)
	return &summary, nil
}
