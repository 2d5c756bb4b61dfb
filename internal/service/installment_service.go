package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/notify"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/repository"
	customError "github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/errors"
)

// InstallmentService drives each EMI row through
// pending -> submitted -> completed, with rejection back to pending.
type InstallmentService struct {
	store  repository.Store
	ledger *LedgerService
	notes  NotesRenderer
	opts   Options
}

func NewInstallmentService(store repository.Store, ledger *LedgerService, notes NotesRenderer, opts Options) *InstallmentService {
	return &InstallmentService{
		store:  store,
		ledger: ledger,
		notes:  notes,
		opts:   opts.withDefaults(),
	}
}

// Schedule returns every installment of the loan in order.
func (s *InstallmentService) Schedule(ctx context.Context, loanID uuid.UUID) (*domain.ScheduleResponse, error) {
	if _, err := loadLoan(ctx, s.store.Loans, loanID); err != nil {
		return nil, err
	}
	schedules, err := s.store.Schedules.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return &domain.ScheduleResponse{
		LoanID:             loanID,
		Schedule:           schedules,
		CurrentInstallment: currentInstallment(schedules),
	}, nil
}

// ListByStatus returns the group's installments in status, earliest due
// first, each with its borrower and latest successful payment. The
// submitted queue is what reviewers work through.
func (s *InstallmentService) ListByStatus(ctx context.Context, groupID uuid.UUID, status domain.ScheduleStatus) ([]*domain.InstallmentQueueItem, error) {
	if !status.Valid() {
		return nil, customError.Validation("invalid installment status %q", status)
	}
	schedules, err := s.store.Schedules.ListByStatus(ctx, groupID, status)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	loans := make(map[uuid.UUID]*domain.Loan)
	payments := make(map[uuid.UUID]map[uuid.UUID]*domain.LoanPayment)
	out := make([]*domain.InstallmentQueueItem, 0, len(schedules))
	for _, schedule := range schedules {
		loan, ok := loans[schedule.LoanID]
		if !ok {
			if loan, err = loadLoan(ctx, s.store.Loans, schedule.LoanID); err != nil {
				return nil, err
			}
			loans[loan.ID] = loan

			list, err := s.store.Payments.ListByLoan(ctx, loan.ID)
			if err != nil {
				return nil, customError.WrapDatabaseError(err)
			}
			payments[loan.ID] = latestSuccessful(list)
		}
		out = append(out, &domain.InstallmentQueueItem{
			Installment: schedule,
			MemberID:    loan.MemberID,
			Payment:     payments[loan.ID][schedule.ID],
		})
	}
	return out, nil
}

// latestSuccessful keys each installment to its most recent successful payment.
func latestSuccessful(payments []*domain.LoanPayment) map[uuid.UUID]*domain.LoanPayment {
	out := make(map[uuid.UUID]*domain.LoanPayment)
	for _, p := range payments {
		if p.Status != domain.PaymentStatusSuccess {
			continue
		}
		if cur, ok := out[p.EmiScheduleID]; !ok || p.PaymentDate.After(cur.PaymentDate) {
			out[p.EmiScheduleID] = p
		}
	}
	return out
}

// Submit records a payment against a pending installment and parks the
// installment as submitted until an officer reviews it. Neither the loan
// balance nor the ledger moves here.
func (s *InstallmentService) Submit(ctx context.Context, req *domain.SubmitPaymentRequest) (*domain.LoanPayment, error) {
	if !req.AmountPaid.IsPositive() {
		return nil, customError.WrapInvalidAmount("amount_paid")
	}
	mode := req.PaymentMode
	if mode == "" {
		mode = domain.PaymentModeCash
	}
	if !mode.Valid() {
		return nil, customError.Validation("invalid payment mode %q", mode)
	}

	schedule, err := s.loadSchedule(ctx, req.EmiScheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.LoanID != req.LoanID || schedule.ShgGroupID != req.ShgGroupID {
		return nil, customError.WrapInstallmentNotFound(req.EmiScheduleID.String())
	}
	if schedule.Status != domain.ScheduleStatusPending {
		return nil, customError.WrapInstallmentNotPending(schedule.ID.String())
	}

	loan, err := loadLoan(ctx, s.store.Loans, req.LoanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.LoanStatusActive {
		return nil, customError.WrapLoanAlreadyClosed(loan.ID.String())
	}
	if _, err := loadMember(ctx, s.store.Members, req.ShgGroupID, req.MemberID); err != nil {
		return nil, err
	}

	required := schedule.AmountDue()
	if req.AmountPaid.LessThan(required) {
		return nil, customError.WrapUnderpayment(required.String(), req.AmountPaid.String())
	}

	now := s.opts.now()
	payment := &domain.LoanPayment{
		ID:             uuid.New(),
		ShgGroupID:     req.ShgGroupID,
		LoanID:         req.LoanID,
		EmiScheduleID:  schedule.ID,
		MemberID:       req.MemberID,
		AmountPaid:     req.AmountPaid,
		PaymentDate:    now,
		PaymentMode:    mode,
		TransactionRef: req.TransactionRef,
		Status:         domain.PaymentStatusSuccess,
		Proof:          req.Proof,
		Remarks:        req.Remarks,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		err := s.store.Schedules.Transition(ctx, schedule.ID, domain.ScheduleStatusPending, domain.ScheduleStatusSubmitted)
		if isStale(err) {
			return customError.WrapInstallmentNotPending(schedule.ID.String())
		}
		if err != nil {
			return err
		}
		return s.store.Payments.Create(ctx, payment)
	})
	if err != nil {
		return nil, dbErr(err)
	}

	log.Info().
		Str("loan_id", loan.ID.String()).
		Str("payment_id", payment.ID.String()).
		Int("installment_number", schedule.InstallmentNumber).
		Msg("installment payment submitted")

	return payment, nil
}

// Review approves or rejects a submitted payment.
//
// Approval is one transaction: compare-and-set the installment from
// submitted to completed, decrement the loan's principal balance by the
// amount paid, and post one loan_installment entry. If the installment was
// not submitted (for example a concurrent approval won), nothing changes.
func (s *InstallmentService) Review(ctx context.Context, req *domain.ReviewPaymentRequest) (*domain.LoanPayment, error) {
	if req.Status == domain.ReviewRejected && req.Reason == "" {
		return nil, customError.Validation("reason is required when rejecting a payment")
	}

	payment, err := s.store.Payments.GetByID(ctx, req.PaymentID)
	if isNoRows(err) {
		return nil, customError.WrapPaymentNotFound(req.PaymentID.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if payment.Status != domain.PaymentStatusSuccess {
		return nil, customError.WrapPaymentAlreadyReviewed(payment.ID.String())
	}
	if _, err := loadMember(ctx, s.store.Members, payment.ShgGroupID, req.ReviewedBy); err != nil {
		return nil, err
	}

	schedule, err := s.loadSchedule(ctx, payment.EmiScheduleID)
	if err != nil {
		return nil, err
	}

	switch req.Status {
	case domain.ReviewApproved:
		err = s.approve(ctx, payment, schedule, req.ReviewedBy)
	case domain.ReviewRejected:
		err = s.reject(ctx, payment, schedule, req.Reason)
	default:
		return nil, customError.Validation("invalid review status %q", req.Status)
	}
	if err != nil {
		return nil, dbErr(err)
	}
	return payment, nil
}

func (s *InstallmentService) approve(ctx context.Context, payment *domain.LoanPayment, schedule *domain.EmiSchedule, reviewer uuid.UUID) error {
	payer, err := loadMember(ctx, s.store.Members, payment.ShgGroupID, payment.MemberID)
	if err != nil {
		return err
	}

	template := notify.LoanInstallmentWithoutPenalty
	if schedule.IsPenaltyAdded {
		template = notify.LoanInstallmentWithPenalty
	}
	notes, err := s.notes.Render(template, map[string]any{
		"member_name":        payer.Name,
		"amount":             payment.AmountPaid.String(),
		"loan_id":            payment.LoanID.String(),
		"installment_number": schedule.InstallmentNumber,
		"penalty_amount":     schedule.PenaltyAmount.String(),
	})
	if err != nil {
		return customError.WrapTemplateError(err)
	}

	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		err := s.store.Schedules.Transition(ctx, schedule.ID, domain.ScheduleStatusSubmitted, domain.ScheduleStatusCompleted)
		if isStale(err) {
			return customError.WrapInstallmentNotSubmitted(schedule.ID.String())
		}
		if err != nil {
			return err
		}

		if err := s.store.Loans.DecrementPrincipal(ctx, payment.LoanID, payment.AmountPaid); err != nil {
			return err
		}

		_, err = s.ledger.Record(ctx, &domain.GroupTransaction{
			ShgGroupID:      payment.ShgGroupID,
			MemberID:        nullID(payment.MemberID),
			Amount:          payment.AmountPaid,
			FlowType:        domain.FlowIn,
			TransactionType: domain.TxLoanInstallment,
			Reference:       domain.LoanPaymentRef(payment.ID),
			Notes:           notes,
			CreatedByID:     reviewer,
		})
		return err
	})
	if err != nil {
		return err
	}

	schedule.Status = domain.ScheduleStatusCompleted
	log.Info().
		Str("loan_id", payment.LoanID.String()).
		Str("payment_id", payment.ID.String()).
		Int("installment_number", schedule.InstallmentNumber).
		Msg("installment payment approved")
	return nil
}

// reject reopens the installment and fails the payment. No money moves.
func (s *InstallmentService) reject(ctx context.Context, payment *domain.LoanPayment, schedule *domain.EmiSchedule, reason string) error {
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		err := s.store.Schedules.Transition(ctx, schedule.ID, domain.ScheduleStatusSubmitted, domain.ScheduleStatusPending)
		if isStale(err) {
			return customError.WrapInstallmentNotSubmitted(schedule.ID.String())
		}
		if err != nil {
			return err
		}

		err = s.store.Payments.MarkFailed(ctx, payment.ID, reason)
		if isStale(err) {
			return customError.WrapPaymentAlreadyReviewed(payment.ID.String())
		}
		return err
	})
	if err != nil {
		return err
	}

	payment.Status = domain.PaymentStatusFailed
	payment.RejectReason = reason
	return nil
}

// ApplyGroupPenalties adds the group's loan penalty once to every pending
// installment whose grace period has run out. Rows penalized concurrently
// are skipped.
func (s *InstallmentService) ApplyGroupPenalties(ctx context.Context, groupID uuid.UUID) (*domain.PenaltyResult, error) {
	settings, err := loadSettings(ctx, s.store.Settings, groupID)
	if err != nil {
		return nil, err
	}
	penalty := settings.LoanSettings.PenaltyAmount

	result := &domain.PenaltyResult{ShgGroupID: groupID, PenaltyAmount: penalty, UpdatedRecords: []uuid.UUID{}}
	if !penalty.IsPositive() {
		return result, nil
	}

	overdue, err := s.store.Schedules.ListOverdue(ctx, groupID, s.opts.now())
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	result.Checked = len(overdue)

	for _, row := range overdue {
		err := s.store.Schedules.ApplyPenalty(ctx, row.ID, penalty)
		if isStale(err) {
			continue
		}
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
		result.Updated++
		result.UpdatedRecords = append(result.UpdatedRecords, row.ID)
	}

	log.Info().
		Str("shg_group_id", groupID.String()).
		Int("checked", result.Checked).
		Int("updated", result.Updated).
		Msg("installment penalties applied")

	return result, nil
}

// ApplyPenalty penalizes one overdue installment, explaining why not when it
// cannot.
func (s *InstallmentService) ApplyPenalty(ctx context.Context, scheduleID uuid.UUID) (*domain.EmiSchedule, error) {
	schedule, err := s.loadSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.Status != domain.ScheduleStatusPending {
		return nil, customError.WrapInstallmentNotPending(schedule.ID.String())
	}
	if schedule.IsPenaltyAdded {
		return nil, customError.WrapPenaltyAlreadyAdded(schedule.ID.String())
	}
	if !s.opts.now().After(schedule.FinalDueDate) {
		return nil, customError.WrapNotYetDue(schedule.ID.String())
	}

	settings, err := loadSettings(ctx, s.store.Settings, schedule.ShgGroupID)
	if err != nil {
		return nil, err
	}
	penalty := settings.LoanSettings.PenaltyAmount
	if !penalty.IsPositive() {
		return nil, customError.Validation("loan penalty amount is not configured for the group")
	}

	err = s.store.Schedules.ApplyPenalty(ctx, schedule.ID, penalty)
	if isStale(err) {
		return nil, customError.WrapPenaltyAlreadyAdded(schedule.ID.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	schedule.PenaltyAmount = schedule.PenaltyAmount.Add(penalty)
	schedule.IsPenaltyAdded = true
	return schedule, nil
}

func (s *InstallmentService) loadSchedule(ctx context.Context, id uuid.UUID) (*domain.EmiSchedule, error) {
	schedule, err := s.store.Schedules.GetByID(ctx, id)
	if isNoRows(err) {
		return nil, customError.WrapInstallmentNotFound(id.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return schedule, nil
}
