package service

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/amortization"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/repository"
	customError "github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/errors"
)

// ApplicationService handles loan requests and their witness approvals.
type ApplicationService struct {
	store repository.Store
	opts  Options
}

func NewApplicationService(store repository.Store, opts Options) *ApplicationService {
	return &ApplicationService{store: store, opts: opts.withDefaults()}
}

// Create validates the request against group settings, quotes it, and stores
// the application with one pending action per witness.
func (s *ApplicationService) Create(ctx context.Context, req *domain.CreateApplicationRequest) (*domain.ApplicationDetailResponse, error) {
	if !req.InterestType.Valid() {
		return nil, customError.Validation("invalid interest type %q", req.InterestType)
	}

	terms := amortization.Terms{
		Principal:       req.AmountRequested,
		InterestRate:    req.InterestRate,
		Tenure:          req.Tenure,
		Frequency:       req.InstallmentFrequency,
		InstallmentType: req.InstallmentType,
	}
	quote, err := amortization.Calculate(terms)
	if err != nil {
		return nil, err
	}

	settings, err := loadSettings(ctx, s.store.Settings, req.ShgGroupID)
	if err != nil {
		return nil, err
	}
	ls := settings.LoanSettings
	if ls.LoanLimit.IsPositive() && req.AmountRequested.GreaterThan(ls.LoanLimit) {
		return nil, customError.WrapLimitExceeded("amount_requested", ls.LoanLimit.String())
	}
	if ls.TenureLimit > 0 && req.Tenure > ls.TenureLimit {
		return nil, customError.WrapLimitExceeded("tenure", strconv.Itoa(ls.TenureLimit))
	}

	if _, err := loadMember(ctx, s.store.Members, req.ShgGroupID, req.MemberID); err != nil {
		return nil, err
	}

	witnesses, err := s.witnesses(ctx, req)
	if err != nil {
		return nil, err
	}

	now := s.opts.now()
	app := &domain.LoanApplication{
		ID:                   uuid.New(),
		ShgGroupID:           req.ShgGroupID,
		MemberID:             req.MemberID,
		AmountRequested:      req.AmountRequested,
		Purpose:              req.Purpose,
		Collateral:           req.Collateral,
		Tenure:               req.Tenure,
		InterestRate:         req.InterestRate,
		InterestType:         req.InterestType,
		InstallmentType:      req.InstallmentType,
		InstallmentFrequency: req.InstallmentFrequency,
		InstallmentAmount:    quote.InstallmentAmount,
		TotalInterestAmount:  quote.TotalInterest,
		Status:               domain.ApplicationStatusPending,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	actions := make([]*domain.LoanApplicationAction, 0, len(witnesses))
	for _, w := range witnesses {
		actions = append(actions, &domain.LoanApplicationAction{
			ID:                uuid.New(),
			ShgGroupID:        req.ShgGroupID,
			LoanApplicationID: app.ID,
			MemberID:          w,
			Status:            domain.ActionStatusPending,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
	}

	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.store.Applications.Create(ctx, app, actions)
	})
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	log.Info().
		Str("shg_group_id", app.ShgGroupID.String()).
		Str("loan_application_id", app.ID.String()).
		Int("witnesses", len(actions)).
		Msg("loan application created")

	return &domain.ApplicationDetailResponse{Application: app, Actions: actions}, nil
}

// witnesses dedupes the list and checks each one is a fellow group member.
func (s *ApplicationService) witnesses(ctx context.Context, req *domain.CreateApplicationRequest) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool, len(req.Witnesses))
	unique := make([]uuid.UUID, 0, len(req.Witnesses))
	for _, w := range req.Witnesses {
		if w == req.MemberID {
			return nil, customError.Validation("applicant cannot witness their own application")
		}
		if seen[w] {
			continue
		}
		seen[w] = true
		unique = append(unique, w)
	}

	if len(unique) < s.opts.WitnessCount {
		return nil, customError.WrapNotEnoughWitnesses(s.opts.WitnessCount, len(unique))
	}

	for _, w := range unique {
		if _, err := loadMember(ctx, s.store.Members, req.ShgGroupID, w); err != nil {
			return nil, err
		}
	}
	return unique, nil
}

// Get returns the application with its witness actions.
func (s *ApplicationService) Get(ctx context.Context, id uuid.UUID) (*domain.ApplicationDetailResponse, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	actions, err := s.store.Applications.ListActions(ctx, id)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return &domain.ApplicationDetailResponse{Application: app, Actions: actions}, nil
}

// List returns the group's applications newest first with their witness
// actions. An empty status lists every application.
func (s *ApplicationService) List(ctx context.Context, groupID uuid.UUID, status domain.ApplicationStatus) ([]*domain.ApplicationDetailResponse, error) {
	if status != "" && !status.Valid() {
		return nil, customError.Validation("invalid application status %q", status)
	}
	return s.list(ctx, groupID, status, nil)
}

// Eligible returns the pending applications every witness has approved,
// which are the ones an officer can turn into loans.
func (s *ApplicationService) Eligible(ctx context.Context, groupID uuid.UUID) ([]*domain.ApplicationDetailResponse, error) {
	return s.list(ctx, groupID, domain.ApplicationStatusPending, domain.WitnessesCleared)
}

func (s *ApplicationService) list(ctx context.Context, groupID uuid.UUID, status domain.ApplicationStatus, keep func([]*domain.LoanApplicationAction) bool) ([]*domain.ApplicationDetailResponse, error) {
	apps, err := s.store.Applications.ListByGroup(ctx, groupID, status)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	out := make([]*domain.ApplicationDetailResponse, 0, len(apps))
	for _, app := range apps {
		actions, err := s.store.Applications.ListActions(ctx, app.ID)
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
		if keep != nil && !keep(actions) {
			continue
		}
		out = append(out, &domain.ApplicationDetailResponse{Application: app, Actions: actions})
	}
	return out, nil
}

// Act records one witness's verdict. A rejection rejects the application.
func (s *ApplicationService) Act(ctx context.Context, applicationID uuid.UUID, req *domain.WitnessActionRequest) (*domain.LoanApplicationAction, error) {
	if req.Status != domain.ActionStatusApproved && req.Status != domain.ActionStatusRejected {
		return nil, customError.Validation("invalid witness status %q", req.Status)
	}
	if req.Status == domain.ActionStatusRejected && req.Reason == "" {
		return nil, customError.Validation("reason is required when rejecting")
	}

	app, err := s.load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != domain.ApplicationStatusPending {
		return nil, customError.WrapApplicationNotPending(app.ID.String(), string(app.Status))
	}

	actions, err := s.store.Applications.ListActions(ctx, applicationID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	isWitness := false
	for _, a := range actions {
		if a.MemberID == req.MemberID {
			isWitness = true
			break
		}
	}
	if !isWitness {
		return nil, customError.WrapMemberNotFound(req.MemberID.String())
	}

	var action *domain.LoanApplicationAction
	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		action, err = s.store.Applications.RecordAction(ctx, applicationID, req.MemberID, req.Status, req.Reason, s.opts.now())
		if isStale(err) {
			return customError.NewBusinessError(customError.KindConflict, customError.ErrCodeApplicationConflict,
				"witness has already acted on this application", customError.ErrApplicationNotPending)
		}
		if err != nil {
			return err
		}

		if req.Status == domain.ActionStatusRejected {
			err = s.store.Applications.TransitionStatus(ctx, applicationID, domain.ApplicationStatusRejected, "Rejected by witness: "+req.Reason)
			if isStale(err) {
				return customError.WrapApplicationNotPending(applicationID.String(), "no longer pending")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, dbErr(err)
	}

	return action, nil
}

// UpdateStatus lets an officer reject a pending application. Approval only
// happens through loan creation.
func (s *ApplicationService) UpdateStatus(ctx context.Context, applicationID uuid.UUID, req *domain.UpdateApplicationStatusRequest) (*domain.LoanApplication, error) {
	if req.Status != domain.ApplicationStatusRejected {
		return nil, customError.Validation("status can only be set to rejected; approve by creating the loan")
	}
	if req.Reason == "" {
		return nil, customError.Validation("reason is required")
	}

	app, err := s.load(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	err = s.store.Applications.TransitionStatus(ctx, applicationID, req.Status, req.Reason)
	if isStale(err) {
		return nil, customError.WrapApplicationNotPending(app.ID.String(), string(app.Status))
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	app.Status = req.Status
	app.RejectedReason = req.Reason
	return app, nil
}

func (s *ApplicationService) load(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error) {
	app, err := s.store.Applications.GetByID(ctx, id)
	if isNoRows(err) {
		return nil, customError.WrapApplicationNotFound(id.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return app, nil
}
