package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
)

type applicationRepository struct {
	db *sqlx.DB
}

func NewApplicationRepository(db *sqlx.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

const applicationColumns = `id, shg_group_id, member_id, amount_requested, purpose, collateral, tenure,
	interest_rate, interest_type, installment_type, installment_frequency, installment_amount,
	total_interest_amount, status, rejected_reason, created_at, updated_at`

const actionColumns = `id, shg_group_id, loan_application_id, member_id, status, reason, action_date, created_at, updated_at`

func (r *applicationRepository) Create(ctx context.Context, app *domain.LoanApplication, actions []*domain.LoanApplicationAction) error {
	q := conn(ctx, r.db)

	query := `
		INSERT INTO loan_applications (` + applicationColumns + `)
		VALUES (:id, :shg_group_id, :member_id, :amount_requested, :purpose, :collateral, :tenure,
			:interest_rate, :interest_type, :installment_type, :installment_frequency, :installment_amount,
			:total_interest_amount, :status, :rejected_reason, :created_at, :updated_at)
	`
	if _, err := q.NamedExecContext(ctx, query, app); err != nil {
		return err
	}

	actionQuery := `
		INSERT INTO loan_application_actions (` + actionColumns + `)
		VALUES (:id, :shg_group_id, :loan_application_id, :member_id, :status, :reason, :action_date, :created_at, :updated_at)
	`
	for _, action := range actions {
		if _, err := q.NamedExecContext(ctx, actionQuery, action); err != nil {
			return err
		}
	}
	return nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM loan_applications WHERE id = $1`

	var app domain.LoanApplication
	if err := conn(ctx, r.db).GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) ListByGroup(ctx context.Context, groupID uuid.UUID, status domain.ApplicationStatus) ([]*domain.LoanApplication, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM loan_applications
		WHERE shg_group_id = $1 AND ($2::text = '' OR status = $2::text)
		ORDER BY created_at DESC, id
	`

	var apps []*domain.LoanApplication
	if err := conn(ctx, r.db).SelectContext(ctx, &apps, query, groupID, string(status)); err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *applicationRepository) ListActions(ctx context.Context, applicationID uuid.UUID) ([]*domain.LoanApplicationAction, error) {
	query := `
		SELECT ` + actionColumns + `
		FROM loan_application_actions
		WHERE loan_application_id = $1
		ORDER BY created_at, member_id
	`

	var actions []*domain.LoanApplicationAction
	if err := conn(ctx, r.db).SelectContext(ctx, &actions, query, applicationID); err != nil {
		return nil, err
	}
	return actions, nil
}

func (r *applicationRepository) TransitionStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus, reason string) error {
	query := `
		UPDATE loan_applications
		SET status = $2, rejected_reason = $3, updated_at = $4
		WHERE id = $1 AND status = 'pending'
	`
	return expectOne(conn(ctx, r.db).ExecContext(ctx, query, id, status, reason, time.Now()))
}

func (r *applicationRepository) RecordAction(ctx context.Context, applicationID, memberID uuid.UUID, status domain.ActionStatus, reason string, at time.Time) (*domain.LoanApplicationAction, error) {
	query := `
		UPDATE loan_application_actions
		SET status = $3, reason = $4, action_date = $5, updated_at = $5
		WHERE loan_application_id = $1 AND member_id = $2 AND status = 'pending'
		RETURNING ` + actionColumns

	var action domain.LoanApplicationAction
	err := conn(ctx, r.db).QueryRowxContext(ctx, query, applicationID, memberID, status, reason, at).StructScan(&action)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStaleState
	}
	if err != nil {
		return nil, err
	}
	return &action, nil
}
