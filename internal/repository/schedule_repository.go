package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
)

type scheduleRepository struct {
	db *sqlx.DB
}

func NewScheduleRepository(db *sqlx.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

const scheduleColumns = `id, shg_group_id, loan_id, installment_number, due_date, final_due_date,
	principal_component, interest_component, remaining_principal, total_installment_amount,
	status, is_penalty_added, penalty_amount, created_at, updated_at`

// scheduleBatchSize keeps each insert well under Postgres's 65535 bind
// parameter limit (15 per row).
const scheduleBatchSize = 1000

// CreateBatch inserts the schedule in multi-row chunks inside one transaction.
func (r *scheduleRepository) CreateBatch(ctx context.Context, schedules []*domain.EmiSchedule) error {
	if len(schedules) == 0 {
		return nil
	}

	query := `
		INSERT INTO emi_schedules (` + scheduleColumns + `)
		VALUES (:id, :shg_group_id, :loan_id, :installment_number, :due_date, :final_due_date,
			:principal_component, :interest_component, :remaining_principal, :total_installment_amount,
			:status, :is_penalty_added, :penalty_amount, :created_at, :updated_at)
	`

	return NewTransactor(r.db).WithinTx(ctx, func(ctx context.Context) error {
		for _, chunk := range batches(schedules, scheduleBatchSize) {
			if _, err := conn(ctx, r.db).NamedExecContext(ctx, query, chunk); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *scheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.EmiSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM emi_schedules WHERE id = $1`

	var schedule domain.EmiSchedule
	if err := conn(ctx, r.db).GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.EmiSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM emi_schedules
		WHERE loan_id = $1
		ORDER BY installment_number
	`

	var schedules []*domain.EmiSchedule
	if err := conn(ctx, r.db).SelectContext(ctx, &schedules, query, loanID); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *scheduleRepository) Transition(ctx context.Context, id uuid.UUID, from, to domain.ScheduleStatus) error {
	query := `
		UPDATE emi_schedules
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
	`
	return expectOne(conn(ctx, r.db).ExecContext(ctx, query, id, from, to, time.Now()))
}

func (r *scheduleRepository) FirstPending(ctx context.Context, loanID uuid.UUID) (*domain.EmiSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM emi_schedules
		WHERE loan_id = $1 AND status = 'pending'
		ORDER BY installment_number
		LIMIT 1
	`

	var schedule domain.EmiSchedule
	if err := conn(ctx, r.db).GetContext(ctx, &schedule, query, loanID); err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepository) CompletePending(ctx context.Context, loanID uuid.UUID) (int64, error) {
	query := `
		UPDATE emi_schedules
		SET status = 'completed', updated_at = $2
		WHERE loan_id = $1 AND status = 'pending'
	`

	res, err := conn(ctx, r.db).ExecContext(ctx, query, loanID, time.Now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *scheduleRepository) ListByStatus(ctx context.Context, groupID uuid.UUID, status domain.ScheduleStatus) ([]*domain.EmiSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM emi_schedules
		WHERE shg_group_id = $1 AND status = $2
		ORDER BY due_date, loan_id, installment_number
	`

	var schedules []*domain.EmiSchedule
	if err := conn(ctx, r.db).SelectContext(ctx, &schedules, query, groupID, status); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *scheduleRepository) ListOverdue(ctx context.Context, groupID uuid.UUID, now time.Time) ([]*domain.EmiSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM emi_schedules
		WHERE shg_group_id = $1 AND status = 'pending' AND is_penalty_added = FALSE AND final_due_date < $2
		ORDER BY loan_id, installment_number
	`

	var schedules []*domain.EmiSchedule
	if err := conn(ctx, r.db).SelectContext(ctx, &schedules, query, groupID, now); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *scheduleRepository) ApplyPenalty(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE emi_schedules
		SET penalty_amount = penalty_amount + $2, is_penalty_added = TRUE, updated_at = $3
		WHERE id = $1 AND status = 'pending' AND is_penalty_added = FALSE
	`
	return expectOne(conn(ctx, r.db).ExecContext(ctx, query, id, amount, time.Now()))
}
