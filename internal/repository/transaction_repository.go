package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
)

type transactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `id, shg_group_id, member_id, amount, flow_type, transaction_type,
	reference_model, reference_id, notes, is_group_activity, created_by_id, created_at`

// Create appends one entry. There is no update or delete path.
func (r *transactionRepository) Create(ctx context.Context, tx *domain.GroupTransaction) error {
	query := `
		INSERT INTO group_transactions (` + transactionColumns + `)
		VALUES (:id, :shg_group_id, :member_id, :amount, :flow_type, :transaction_type,
			:reference_model, :reference_id, :notes, :is_group_activity, :created_by_id, :created_at)
	`

	_, err := conn(ctx, r.db).NamedExecContext(ctx, query, tx)
	return err
}

func (r *transactionRepository) Totals(ctx context.Context, filter domain.TransactionFilter) (domain.FlowTotals, error) {
	where, args := whereClause(filter)
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE flow_type = 'in'), 0) AS total_in,
			COALESCE(SUM(amount) FILTER (WHERE flow_type = 'out'), 0) AS total_out
		FROM group_transactions
		WHERE ` + where

	var totals domain.FlowTotals
	err := conn(ctx, r.db).GetContext(ctx, &totals, query, args...)
	return totals, err
}

func (r *transactionRepository) TotalsByType(ctx context.Context, filter domain.TransactionFilter) ([]domain.TypeTotal, error) {
	where, args := whereClause(filter)
	query := `
		SELECT transaction_type, flow_type, SUM(amount) AS total
		FROM group_transactions
		WHERE ` + where + `
		GROUP BY transaction_type, flow_type
		ORDER BY transaction_type, flow_type
	`

	var totals []domain.TypeTotal
	if err := conn(ctx, r.db).SelectContext(ctx, &totals, query, args...); err != nil {
		return nil, err
	}
	return totals, nil
}

func (r *transactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.GroupTransaction, error) {
	where, args := whereClause(filter)
	query := `SELECT ` + transactionColumns + ` FROM group_transactions WHERE ` + where + ` ORDER BY created_at DESC, id`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var txs []*domain.GroupTransaction
	if err := conn(ctx, r.db).SelectContext(ctx, &txs, query, args...); err != nil {
		return nil, err
	}
	return txs, nil
}

func whereClause(f domain.TransactionFilter) (string, []interface{}) {
	conds := []string{"shg_group_id = $1"}
	args := []interface{}{f.ShgGroupID}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.MemberID.Valid {
		add("member_id = $%d", f.MemberID.UUID)
	}
	if f.FlowType != "" {
		add("flow_type = $%d", f.FlowType)
	}
	if f.TransactionType != "" {
		add("transaction_type = $%d", f.TransactionType)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}

	return strings.Join(conds, " AND "), args
}
