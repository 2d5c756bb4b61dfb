package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/amortization"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/lock"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/notify"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/repository"
	customError "github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/errors"
)

// LoanService turns approved applications into loans with EMI schedules.
type LoanService struct {
	store  repository.Store
	ledger *LedgerService
	locker lock.GroupLocker
	notes  NotesRenderer
	opts   Options
}

func NewLoanService(store repository.Store, ledger *LedgerService, locker lock.GroupLocker, notes NotesRenderer, opts Options) *LoanService {
	return &LoanService{
		store:  store,
		ledger: ledger,
		locker: locker,
		notes:  notes,
		opts:   opts.withDefaults(),
	}
}

// Quote runs the interest calculator without persisting anything.
func (s *LoanService) Quote(_ context.Context, terms amortization.Terms) (*amortization.Quote, error) {
	q, err := amortization.Calculate(terms)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// CreateLoan approves a witnessed application. Under the group lock and in
// one transaction it checks the ledger balance, stores the loan and its
// schedule, marks the application approved, and posts the disbursement and
// processing fee.
func (s *LoanService) CreateLoan(ctx context.Context, req *domain.CreateLoanRequest) (*domain.CreateLoanResponse, error) {
	app, err := s.store.Applications.GetByID(ctx, req.LoanApplicationID)
	if isNoRows(err) {
		return nil, customError.WrapApplicationNotFound(req.LoanApplicationID.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if app.Status != domain.ApplicationStatusPending {
		return nil, customError.WrapApplicationNotPending(app.ID.String(), string(app.Status))
	}

	actions, err := s.store.Applications.ListActions(ctx, app.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if (len(actions) > 0 || s.opts.WitnessCount > 0) && !domain.WitnessesCleared(actions) {
		return nil, customError.WrapWitnessApprovalPending(app.ID.String())
	}

	if _, err := loadMember(ctx, s.store.Members, app.ShgGroupID, req.ApprovedBy); err != nil {
		return nil, err
	}
	borrower, err := loadMember(ctx, s.store.Members, app.ShgGroupID, app.MemberID)
	if err != nil {
		return nil, err
	}
	settings, err := loadSettings(ctx, s.store.Settings, app.ShgGroupID)
	if err != nil {
		return nil, err
	}

	loanID := uuid.New()
	terms := amortization.Terms{
		Principal:       app.AmountRequested,
		InterestRate:    app.InterestRate,
		Tenure:          app.Tenure,
		Frequency:       app.InstallmentFrequency,
		InstallmentType: app.InstallmentType,
	}
	now := s.opts.now()
	plan, err := amortization.BuildPlan(terms, settings.LoanSettings, app.ShgGroupID, loanID, now)
	if err != nil {
		return nil, err
	}
	for _, row := range plan.Schedule {
		row.CreatedAt = now
		row.UpdatedAt = now
	}

	loan := &domain.Loan{
		ID:                   loanID,
		ShgGroupID:           app.ShgGroupID,
		LoanApplicationID:    app.ID,
		MemberID:             app.MemberID,
		ApprovedAmount:       app.AmountRequested,
		ProcessingFee:        settings.LoanSettings.ProcessingFee,
		Tenure:               app.Tenure,
		InterestType:         app.InterestType,
		InterestRate:         app.InterestRate,
		InstallmentType:      app.InstallmentType,
		InstallmentFrequency: app.InstallmentFrequency,
		InstallmentAmount:    plan.Quote.InstallmentAmount,
		TotalInterest:        plan.Quote.TotalInterest,
		TotalRepaymentAmount: plan.Quote.TotalRepayment,
		PrincipalBalance:     app.AmountRequested,
		NoOfInstallments:     plan.Quote.NoOfInstallments,
		LoanStartDate:        plan.StartDate,
		LoanEndDate:          plan.EndDate,
		Status:               domain.LoanStatusActive,
		Collateral:           app.Collateral,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	disburseNotes, err := s.notes.Render(notify.LoanApproval, map[string]any{
		"member_name": borrower.Name,
		"amount":      loan.ApprovedAmount.String(),
	})
	if err != nil {
		return nil, customError.WrapTemplateError(err)
	}
	feeNotes, err := s.notes.Render(notify.LoanProcessingFee, map[string]any{
		"member_name": borrower.Name,
		"amount":      loan.ProcessingFee.String(),
		"loan_id":     loan.ID.String(),
	})
	if err != nil {
		return nil, customError.WrapTemplateError(err)
	}

	release, err := s.locker.Lock(ctx, app.ShgGroupID)
	if errors.Is(err, lock.ErrNotObtained) {
		return nil, customError.WrapGroupBusy(app.ShgGroupID.String(), err)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	defer release()

	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		balance, err := s.ledger.Balance(ctx, app.ShgGroupID)
		if err != nil {
			return err
		}
		if balance.LessThan(app.AmountRequested) {
			return customError.WrapInsufficientBalance(balance.String(), app.AmountRequested.String())
		}

		if err := s.store.Loans.Create(ctx, loan); err != nil {
			return err
		}
		if err := s.store.Schedules.CreateBatch(ctx, plan.Schedule); err != nil {
			return err
		}

		err = s.store.Applications.TransitionStatus(ctx, app.ID, domain.ApplicationStatusApproved, "")
		if isStale(err) {
			return customError.WrapApplicationNotPending(app.ID.String(), "no longer pending")
		}
		if err != nil {
			return err
		}

		if _, err := s.ledger.Record(ctx, &domain.GroupTransaction{
			ShgGroupID:      app.ShgGroupID,
			Amount:          loan.ApprovedAmount,
			FlowType:        domain.FlowOut,
			TransactionType: domain.TxLoanDisbursed,
			Reference:       domain.LoanRef(loan.ID),
			Notes:           disburseNotes,
			IsGroupActivity: true,
			CreatedByID:     req.ApprovedBy,
		}); err != nil {
			return err
		}

		if !loan.ProcessingFee.IsPositive() {
			return nil
		}
		_, err = s.ledger.Record(ctx, &domain.GroupTransaction{
			ShgGroupID:      app.ShgGroupID,
			Amount:          loan.ProcessingFee,
			FlowType:        domain.FlowIn,
			TransactionType: domain.TxLoanProcessingFee,
			Reference:       domain.LoanRef(loan.ID),
			Notes:           feeNotes,
			IsGroupActivity: true,
			CreatedByID:     req.ApprovedBy,
		})
		return err
	})
	if err != nil {
		return nil, dbErr(err)
	}

	log.Info().
		Str("shg_group_id", loan.ShgGroupID.String()).
		Str("loan_id", loan.ID.String()).
		Str("amount", loan.ApprovedAmount.String()).
		Int("installments", loan.NoOfInstallments).
		Msg("loan created")

	return &domain.CreateLoanResponse{Loan: loan, Schedule: plan.Schedule}, nil
}

// GetLoan returns the loan and the installment currently due.
func (s *LoanService) GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.LoanDetailResponse, error) {
	loan, err := loadLoan(ctx, s.store.Loans, loanID)
	if err != nil {
		return nil, err
	}
	schedules, err := s.store.Schedules.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return &domain.LoanDetailResponse{Loan: loan, CurrentInstallment: currentInstallment(schedules)}, nil
}

// List returns the group's loans newest first, optionally narrowed to some
// members and one status. The page defaults to 50 rows.
func (s *LoanService) List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, customError.Validation("invalid loan status %q", filter.Status)
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	loans, err := s.store.Loans.List(ctx, filter)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loans, nil
}

// Summary reports what a member owes the group across all their loans.
func (s *LoanService) Summary(ctx context.Context, groupID, memberID uuid.UUID) (*domain.LoanSummary, error) {
	if _, err := loadMember(ctx, s.store.Members, groupID, memberID); err != nil {
		return nil, err
	}
	summary, err := s.store.Loans.Summary(ctx, groupID, memberID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return summary, nil
}
