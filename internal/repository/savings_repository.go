package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
)

type savingsRepository struct {
	db *sqlx.DB
}

func NewSavingsRepository(db *sqlx.DB) SavingsRepository {
	return &savingsRepository{db: db}
}

const savingsColumns = `id, shg_group_id, member_id, due_amount, paid_amount, due_date, final_due_date,
	penalty_amount, status, member_remarks, admin_remarks, proof, cycle_start_date, cycle_end_date,
	is_penalty_added, created_at, updated_at`

// Create relies on the (group, member, cycle) unique key so that two
// concurrent initiations cannot both insert.
func (r *savingsRepository) Create(ctx context.Context, savings *domain.Savings) (bool, error) {
	query := `
		INSERT INTO savings (` + savingsColumns + `)
		VALUES (:id, :shg_group_id, :member_id, :due_amount, :paid_amount, :due_date, :final_due_date,
			:penalty_amount, :status, :member_remarks, :admin_remarks, :proof, :cycle_start_date, :cycle_end_date,
			:is_penalty_added, :created_at, :updated_at)
		ON CONFLICT (shg_group_id, member_id, cycle_start_date, cycle_end_date) DO NOTHING
	`

	res, err := conn(ctx, r.db).NamedExecContext(ctx, query, savings)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *savingsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Savings, error) {
	query := `SELECT ` + savingsColumns + ` FROM savings WHERE id = $1`

	var savings domain.Savings
	if err := conn(ctx, r.db).GetContext(ctx, &savings, query, id); err != nil {
		return nil, err
	}
	return &savings, nil
}

func (r *savingsRepository) List(ctx context.Context, groupID uuid.UUID, memberID uuid.NullUUID, statuses []domain.SavingsStatus) ([]*domain.Savings, error) {
	query := `
		SELECT ` + savingsColumns + `
		FROM savings
		WHERE shg_group_id = $1 AND status = ANY($2) AND ($3::uuid IS NULL OR member_id = $3)
		ORDER BY cycle_start_date DESC, member_id
	`

	var records []*domain.Savings
	if err := conn(ctx, r.db).SelectContext(ctx, &records, query, groupID, pq.Array(statusStrings(statuses)), memberID); err != nil {
		return nil, err
	}
	return records, nil
}

func statusStrings(statuses []domain.SavingsStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (r *savingsRepository) CountByCycle(ctx context.Context, groupID uuid.UUID, start, end time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM savings
		WHERE shg_group_id = $1 AND cycle_start_date = $2 AND cycle_end_date = $3
	`

	var count int
	err := conn(ctx, r.db).GetContext(ctx, &count, query, groupID, start, end)
	return count, err
}

func (r *savingsRepository) Submit(ctx context.Context, id uuid.UUID, paid decimal.Decimal, proof, remarks string) error {
	query := `
		UPDATE savings
		SET status = 'submitted', paid_amount = $2, proof = $3, member_remarks = $4, updated_at = $5
		WHERE id = $1 AND status IN ('pending', 'rejected')
	`
	return expectOne(conn(ctx, r.db).ExecContext(ctx, query, id, paid, proof, remarks, time.Now()))
}

func (r *savingsRepository) Review(ctx context.Context, id uuid.UUID, from []domain.SavingsStatus, status domain.SavingsStatus, paid decimal.Decimal, remarks string) error {
	query := `
		UPDATE savings
		SET status = $3, paid_amount = $4, admin_remarks = $5, updated_at = $6
		WHERE id = $1 AND status = ANY($2)
	`
	return expectOne(conn(ctx, r.db).ExecContext(ctx, query, id, pq.Array(statusStrings(from)), status, paid, remarks, time.Now()))
}

func (r *savingsRepository) ListOverdue(ctx context.Context, groupID uuid.UUID, now time.Time) ([]*domain.Savings, error) {
	query := `
		SELECT ` + savingsColumns + `
		FROM savings
		WHERE shg_group_id = $1 AND status IN ('pending', 'rejected') AND is_penalty_added = FALSE AND final_due_date < $2
		ORDER BY final_due_date, member_id
	`

	var records []*domain.Savings
	if err := conn(ctx, r.db).SelectContext(ctx, &records, query, groupID, now); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *savingsRepository) ApplyPenalty(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE savings
		SET due_amount = due_amount + $2, penalty_amount = penalty_amount + $2, is_penalty_added = TRUE, updated_at = $3
		WHERE id = $1 AND status IN ('pending', 'rejected') AND is_penalty_added = FALSE
	`
	return expectOne(conn(ctx, r.db).ExecContext(ctx, query, id, amount, time.Now()))
}
