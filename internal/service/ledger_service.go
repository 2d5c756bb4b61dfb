package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/notify"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/repository"
	customError "github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/errors"
)

// LedgerService is the only write path into group_transactions.
// No running balance is cached: Balance re-aggregates the log every call.
type LedgerService struct {
	repo    repository.TransactionRepository
	members repository.MemberRepository
	notes   NotesRenderer
	opts    Options
}

func NewLedgerService(store repository.Store, notes NotesRenderer, opts Options) *LedgerService {
	return &LedgerService{
		repo:    store.Transactions,
		members: store.Members,
		notes:   notes,
		opts:    opts.withDefaults(),
	}
}

// Record validates and appends one entry. It joins the caller's transaction
// when ctx carries one.
func (s *LedgerService) Record(ctx context.Context, tx *domain.GroupTransaction) (*domain.GroupTransaction, error) {
	if tx.ShgGroupID == uuid.Nil {
		return nil, customError.Validation("shg_group_id is required")
	}
	if !tx.Amount.IsPositive() {
		return nil, customError.WrapInvalidAmount("amount")
	}
	if !tx.FlowType.Valid() {
		return nil, customError.Validation("invalid flow type %q", tx.FlowType)
	}
	if !tx.TransactionType.Valid() {
		return nil, customError.Validation("invalid transaction type %q", tx.TransactionType)
	}
	if err := tx.Reference.Validate(); err != nil {
		return nil, customError.Validation("%v", err)
	}

	tx.ID = uuid.New()
	tx.CreatedAt = s.opts.now()

	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	log.Info().
		Str("shg_group_id", tx.ShgGroupID.String()).
		Str("transaction_id", tx.ID.String()).
		Str("type", string(tx.TransactionType)).
		Str("flow", string(tx.FlowType)).
		Str("amount", tx.Amount.String()).
		Msg("ledger entry recorded")

	return tx, nil
}

// Balance is sum(in) - sum(out) over every entry of the group.
func (s *LedgerService) Balance(ctx context.Context, groupID uuid.UUID) (decimal.Decimal, error) {
	totals, err := s.repo.Totals(ctx, domain.TransactionFilter{ShgGroupID: groupID})
	if err != nil {
		return decimal.Zero, customError.WrapDatabaseError(err)
	}
	return totals.Balance(), nil
}

// RecordManual posts an operator entry such as a deposit or an expense.
// Loan and savings types are refused: those only come from their flows.
func (s *LedgerService) RecordManual(ctx context.Context, req *domain.ManualTransactionRequest) (*domain.GroupTransaction, error) {
	if !req.TransactionType.Valid() {
		return nil, customError.Validation("invalid transaction type %q", req.TransactionType)
	}
	if !req.TransactionType.Manual() {
		return nil, customError.Validation("transaction type %q cannot be posted manually", req.TransactionType)
	}
	if _, err := loadMember(ctx, s.members, req.ShgGroupID, req.CreatedByID); err != nil {
		return nil, err
	}

	tx := &domain.GroupTransaction{
		ShgGroupID:      req.ShgGroupID,
		Amount:          req.Amount,
		FlowType:        req.FlowType,
		TransactionType: req.TransactionType,
		Notes:           req.Notes,
		IsGroupActivity: req.IsGroupActivity,
		CreatedByID:     req.CreatedByID,
	}

	if !req.IsGroupActivity {
		if req.MemberID == nil {
			return nil, customError.Validation("member_id is required unless is_group_activity is set")
		}
		member, err := loadMember(ctx, s.members, req.ShgGroupID, *req.MemberID)
		if err != nil {
			return nil, err
		}
		tx.MemberID = nullID(member.ID)

		if tx.Notes == "" && tx.TransactionType == domain.TxUserDeposit {
			notes, err := s.notes.Render(notify.UserDeposit, map[string]any{
				"member_name": member.Name,
				"amount":      req.Amount.String(),
			})
			if err != nil {
				return nil, customError.WrapTemplateError(err)
			}
			tx.Notes = notes
		}
	}

	return s.Record(ctx, tx)
}

// Summary totals the group's flows, optionally within [from, to].
func (s *LedgerService) Summary(ctx context.Context, groupID uuid.UUID, from, to *time.Time) (*domain.TransactionSummary, error) {
	totals, err := s.repo.Totals(ctx, domain.TransactionFilter{ShgGroupID: groupID, From: from, To: to})
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return &domain.TransactionSummary{
		ShgGroupID:      groupID,
		TotalIn:         totals.TotalIn,
		TotalOut:        totals.TotalOut,
		RemainingAmount: totals.Balance(),
	}, nil
}

// BalanceSheet breaks the ledger down by transaction type, for the whole
// group or for one member. Every known type gets a row.
func (s *LedgerService) BalanceSheet(ctx context.Context, groupID uuid.UUID, memberID *uuid.UUID) (*domain.BalanceSheet, error) {
	filter := domain.TransactionFilter{ShgGroupID: groupID}
	if memberID != nil {
		filter.MemberID = nullID(*memberID)
	}

	totals, err := s.repo.TotalsByType(ctx, filter)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	byType := make(map[domain.TransactionType]*domain.BalanceSheetRow)
	sheet := &domain.BalanceSheet{
		ShgGroupID: groupID,
		MemberID:   memberID,
		TotalIn:    decimal.Zero,
		TotalOut:   decimal.Zero,
	}
	for _, t := range domain.TransactionTypes() {
		sheet.Rows = append(sheet.Rows, domain.BalanceSheetRow{TransactionType: t, In: decimal.Zero, Out: decimal.Zero})
	}
	for i := range sheet.Rows {
		byType[sheet.Rows[i].TransactionType] = &sheet.Rows[i]
	}

	for _, t := range totals {
		row, ok := byType[t.TransactionType]
		if !ok {
			continue
		}
		if t.FlowType == domain.FlowIn {
			row.In = row.In.Add(t.Total)
			sheet.TotalIn = sheet.TotalIn.Add(t.Total)
		} else {
			row.Out = row.Out.Add(t.Total)
			sheet.TotalOut = sheet.TotalOut.Add(t.Total)
		}
	}
	sheet.Balance = sheet.TotalIn.Sub(sheet.TotalOut)

	return sheet, nil
}

// List returns ledger entries newest first.
func (s *LedgerService) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.GroupTransaction, error) {
	if filter.FlowType != "" && !filter.FlowType.Valid() {
		return nil, customError.Validation("invalid flow type %q", filter.FlowType)
	}
	if filter.TransactionType != "" && !filter.TransactionType.Valid() {
		return nil, customError.Validation("invalid transaction type %q", filter.TransactionType)
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}

	txs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return txs, nil
}
