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
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/utils"
)

// SavingsService generates per-member savings obligations each cycle and
// moves them through submission and review.
type SavingsService struct {
	store  repository.Store
	ledger *LedgerService
	notes  NotesRenderer
	opts   Options
}

func NewSavingsService(store repository.Store, ledger *LedgerService, notes NotesRenderer, opts Options) *SavingsService {
	return &SavingsService{
		store:  store,
		ledger: ledger,
		notes:  notes,
		opts:   opts.withDefaults(),
	}
}

// CycleFor returns the savings cycle containing date.
//
// Monthly cycles are the calendar month, due on due_day clamped to the month
// length. Weekly cycles run Monday to Sunday, due due_day-1 days after Monday.
func CycleFor(settings domain.SavingsSettings, date time.Time) domain.Cycle {
	day := settings.DueDay
	if day < 1 {
		day = 1
	}

	var c domain.Cycle
	if settings.Frequency == domain.FrequencyWeekly {
		c.Start, c.End = utils.ISOWeekBounds(date)
		if day > 7 {
			day = 7
		}
		c.DueDate = c.Start.AddDate(0, 0, day-1)
	} else {
		c.Start, c.End = utils.MonthBounds(date)
		c.DueDate = utils.MonthDay(c.Start.Year(), c.Start.Month(), day, c.Start.Location())
	}
	c.FinalDueDate = c.DueDate.AddDate(0, 0, settings.GracePeriodDays)
	return c
}

// Initiate creates the cycle's record for every member that lacks one.
// Records created after the grace period already carry the penalty.
func (s *SavingsService) Initiate(ctx context.Context, groupID uuid.UUID, date *time.Time) (*domain.InitiationResult, error) {
	settings, err := loadSettings(ctx, s.store.Settings, groupID)
	if err != nil {
		return nil, err
	}
	ss := settings.SavingsSettings
	if !ss.Amount.IsPositive() {
		return nil, customError.Validation("savings amount is not configured for the group")
	}

	members, err := s.store.Members.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if len(members) == 0 {
		return nil, customError.WrapNoMembers(groupID.String())
	}

	now := s.opts.now()
	on := now
	if date != nil {
		on = date.In(s.opts.Location)
	}
	cycle := CycleFor(ss, on)
	late := utils.IsDateOverdue(cycle.FinalDueDate, now)

	result := &domain.InitiationResult{ShgGroupID: groupID, Cycle: cycle, Created: []*domain.Savings{}}
	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, m := range members {
			record := &domain.Savings{
				ID:             uuid.New(),
				ShgGroupID:     groupID,
				MemberID:       m.ID,
				DueAmount:      ss.Amount,
				PaidAmount:     decimal.Zero,
				DueDate:        cycle.DueDate,
				FinalDueDate:   cycle.FinalDueDate,
				PenaltyAmount:  decimal.Zero,
				Status:         domain.SavingsStatusPending,
				CycleStartDate: cycle.Start,
				CycleEndDate:   cycle.End,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if late && ss.PenaltyAmount.IsPositive() {
				record.DueAmount = record.DueAmount.Add(ss.PenaltyAmount)
				record.PenaltyAmount = ss.PenaltyAmount
				record.IsPenaltyAdded = true
			}

			created, err := s.store.Savings.Create(ctx, record)
			if err != nil {
				return err
			}
			if !created {
				result.Skipped++
				continue
			}
			result.Created = append(result.Created, record)
		}
		return nil
	})
	if err != nil {
		return nil, dbErr(err)
	}

	log.Info().
		Str("shg_group_id", groupID.String()).
		Time("cycle_start", cycle.Start).
		Int("created", len(result.Created)).
		Int("skipped", result.Skipped).
		Msg("savings cycle initiated")

	return result, nil
}

// InitiationStatus reports whether every member has a record for the cycle
// containing date.
func (s *SavingsService) InitiationStatus(ctx context.Context, groupID uuid.UUID, date *time.Time) (*domain.InitiationStatus, error) {
	settings, err := loadSettings(ctx, s.store.Settings, groupID)
	if err != nil {
		return nil, err
	}
	on := s.opts.now()
	if date != nil {
		on = date.In(s.opts.Location)
	}
	cycle := CycleFor(settings.SavingsSettings, on)

	members, err := s.store.Members.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	count, err := s.store.Savings.CountByCycle(ctx, groupID, cycle.Start, cycle.End)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return &domain.InitiationStatus{
		ShgGroupID:  groupID,
		Cycle:       cycle,
		Members:     len(members),
		Records:     count,
		IsInitiated: len(members) > 0 && count >= len(members),
	}, nil
}

// List returns the group's records in the given statuses, all when none given.
func (s *SavingsService) List(ctx context.Context, groupID uuid.UUID, memberID *uuid.UUID, statuses []domain.SavingsStatus) ([]*domain.Savings, error) {
	if len(statuses) == 0 {
		statuses = []domain.SavingsStatus{
			domain.SavingsStatusPending, domain.SavingsStatusSubmitted,
			domain.SavingsStatusApproved, domain.SavingsStatusRejected,
		}
	}
	var member uuid.NullUUID
	if memberID != nil {
		member = nullID(*memberID)
	}
	records, err := s.store.Savings.List(ctx, groupID, member, statuses)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return records, nil
}

// Submit records the member's payment and proof for review.
func (s *SavingsService) Submit(ctx context.Context, id uuid.UUID, req *domain.SubmitSavingsRequest) (*domain.Savings, error) {
	if !req.PaidAmount.IsPositive() {
		return nil, customError.WrapInvalidAmount("paid_amount")
	}
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.MemberID != req.MemberID {
		return nil, customError.WrapSavingsNotFound(id.String())
	}
	if record.Status != domain.SavingsStatusPending && record.Status != domain.SavingsStatusRejected {
		return nil, customError.WrapSavingsConflict(id.String(), string(record.Status))
	}

	err = s.store.Savings.Submit(ctx, id, req.PaidAmount, req.Proof, req.MemberRemarks)
	if isStale(err) {
		return nil, customError.WrapSavingsConflict(id.String(), "no longer open")
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	record.Status = domain.SavingsStatusSubmitted
	record.PaidAmount = req.PaidAmount
	record.Proof = req.Proof
	record.MemberRemarks = req.MemberRemarks
	return record, nil
}

// Review approves or rejects a record. Approval is allowed straight from
// pending as well as from submitted and posts one savings_deposit entry;
// rejection only applies to submitted records.
func (s *SavingsService) Review(ctx context.Context, id uuid.UUID, req *domain.ReviewSavingsRequest) (*domain.Savings, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := loadMember(ctx, s.store.Members, record.ShgGroupID, req.ApprovedBy); err != nil {
		return nil, err
	}

	paid := record.PaidAmount
	if req.PaidAmount.IsPositive() {
		paid = req.PaidAmount
	}

	switch req.Status {
	case domain.SavingsStatusApproved:
		if !paid.IsPositive() {
			return nil, customError.WrapInvalidAmount("paid_amount")
		}
		err = s.approve(ctx, record, paid, req)
	case domain.SavingsStatusRejected:
		err = s.store.Savings.Review(ctx, id, []domain.SavingsStatus{domain.SavingsStatusSubmitted}, domain.SavingsStatusRejected, paid, req.AdminRemarks)
		if isStale(err) {
			err = customError.WrapSavingsConflict(id.String(), string(record.Status))
		}
	default:
		return nil, customError.Validation("invalid review status %q", req.Status)
	}
	if err != nil {
		return nil, dbErr(err)
	}

	record.Status = req.Status
	record.PaidAmount = paid
	record.AdminRemarks = req.AdminRemarks
	return record, nil
}

func (s *SavingsService) approve(ctx context.Context, record *domain.Savings, paid decimal.Decimal, req *domain.ReviewSavingsRequest) error {
	member, err := loadMember(ctx, s.store.Members, record.ShgGroupID, record.MemberID)
	if err != nil {
		return err
	}

	template := notify.SavingsDepositWithoutPenalty
	if record.IsPenaltyAdded {
		template = notify.SavingsDepositWithPenalty
	}
	notes, err := s.notes.Render(template, map[string]any{
		"member_name":      member.Name,
		"amount":           paid.String(),
		"penalty_amount":   record.PenaltyAmount.String(),
		"cycle_start_date": record.CycleStartDate.Format("02/01/2006"),
		"cycle_end_date":   record.CycleEndDate.Format("02/01/2006"),
	})
	if err != nil {
		return customError.WrapTemplateError(err)
	}

	return s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		from := []domain.SavingsStatus{domain.SavingsStatusPending, domain.SavingsStatusSubmitted}
		err := s.store.Savings.Review(ctx, record.ID, from, domain.SavingsStatusApproved, paid, req.AdminRemarks)
		if isStale(err) {
			return customError.WrapSavingsConflict(record.ID.String(), string(record.Status))
		}
		if err != nil {
			return err
		}

		_, err = s.ledger.Record(ctx, &domain.GroupTransaction{
			ShgGroupID:      record.ShgGroupID,
			MemberID:        nullID(record.MemberID),
			Amount:          paid,
			FlowType:        domain.FlowIn,
			TransactionType: domain.TxSavingsDeposit,
			Reference:       domain.SavingsRef(record.ID),
			Notes:           notes,
			CreatedByID:     req.ApprovedBy,
		})
		return err
	})
}

// ApplyGroupPenalties adds the savings penalty once to every open record past
// its final due date.
func (s *SavingsService) ApplyGroupPenalties(ctx context.Context, groupID uuid.UUID) (*domain.PenaltyResult, error) {
	settings, err := loadSettings(ctx, s.store.Settings, groupID)
	if err != nil {
		return nil, err
	}
	penalty := settings.SavingsSettings.PenaltyAmount

	result := &domain.PenaltyResult{ShgGroupID: groupID, PenaltyAmount: penalty, UpdatedRecords: []uuid.UUID{}}
	if !penalty.IsPositive() {
		return result, nil
	}

	overdue, err := s.store.Savings.ListOverdue(ctx, groupID, s.opts.now())
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	result.Checked = len(overdue)

	for _, record := range overdue {
		err := s.store.Savings.ApplyPenalty(ctx, record.ID, penalty)
		if isStale(err) {
			continue
		}
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
		result.Updated++
		result.UpdatedRecords = append(result.UpdatedRecords, record.ID)
	}

	log.Info().
		Str("shg_group_id", groupID.String()).
		Int("checked", result.Checked).
		Int("updated", result.Updated).
		Msg("savings penalties applied")

	return result, nil
}

// ApplyPenalty penalizes one overdue record.
func (s *SavingsService) ApplyPenalty(ctx context.Context, id uuid.UUID) (*domain.Savings, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Status != domain.SavingsStatusPending && record.Status != domain.SavingsStatusRejected {
		return nil, customError.WrapSavingsConflict(id.String(), string(record.Status))
	}
	if record.IsPenaltyAdded {
		return nil, customError.WrapPenaltyAlreadyAdded(id.String())
	}
	if !s.opts.now().After(record.FinalDueDate) {
		return nil, customError.WrapNotYetDue(id.String())
	}

	settings, err := loadSettings(ctx, s.store.Settings, record.ShgGroupID)
	if err != nil {
		return nil, err
	}
	penalty := settings.SavingsSettings.PenaltyAmount
	if !penalty.IsPositive() {
		return nil, customError.Validation("savings penalty amount is not configured for the group")
	}

	err = s.store.Savings.ApplyPenalty(ctx, id, penalty)
	if isStale(err) {
		return nil, customError.WrapPenaltyAlreadyAdded(id.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	record.DueAmount = record.DueAmount.Add(penalty)
	record.PenaltyAmount = record.PenaltyAmount.Add(penalty)
	record.IsPenaltyAdded = true
	return record, nil
}

func (s *SavingsService) load(ctx context.Context, id uuid.UUID) (*domain.Savings, error) {
	record, err := s.store.Savings.GetByID(ctx, id)
	if isNoRows(err) {
		return nil, customError.WrapSavingsNotFound(id.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return record, nil
}
