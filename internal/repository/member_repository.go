package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
)

type memberRepository struct {
	db *sqlx.DB
}

func NewMemberRepository(db *sqlx.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) GetInGroup(ctx context.Context, groupID, memberID uuid.UUID) (*domain.Member, error) {
	query := `
		SELECT id, shg_group_id, name, role
		FROM members
		WHERE id = $1 AND shg_group_id = $2
	`

	var member domain.Member
	if err := conn(ctx, r.db).GetContext(ctx, &member, query, memberID, groupID); err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*domain.Member, error) {
	query := `
		SELECT id, shg_group_id, name, role
		FROM members
		WHERE shg_group_id = $1
		ORDER BY name
	`

	var members []*domain.Member
	if err := conn(ctx, r.db).SelectContext(ctx, &members, query, groupID); err != nil {
		return nil, err
	}
	return members, nil
}

type settingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetByGroupID(ctx context.Context, groupID uuid.UUID) (*domain.Settings, error) {
	query := `
		SELECT id, shg_group_id, savings_settings, loan_settings
		FROM settings
		WHERE shg_group_id = $1
	`

	var settings domain.Settings
	if err := conn(ctx, r.db).GetContext(ctx, &settings, query, groupID); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) ListGroupIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := conn(ctx, r.db).SelectContext(ctx, &ids, `SELECT shg_group_id FROM settings ORDER BY shg_group_id`); err != nil {
		return nil, err
	}
	return ids, nil
}
