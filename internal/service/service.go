// Package service implements the loan, installment, pre-closure, savings
// and ledger workflows on top of the repositories.
package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/notify"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/repository"
	customError "github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/errors"
)

// NotesRenderer turns a template name and flat context into ledger notes.
type NotesRenderer interface {
	Render(name notify.Template, data map[string]any) (string, error)
}

// Options are the knobs shared by every service.
type Options struct {
	// Now defaults to time.Now
	Now func() time.Time
	// Location is the business timezone for due dates and cycles
	Location *time.Location
	// WitnessCount is the minimum number of witnesses per application
	WitnessCount int
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

func (o Options) now() time.Time {
	return o.Now().In(o.Location)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isStale(err error) bool {
	return errors.Is(err, repository.ErrStaleState)
}

// dbErr passes business errors through and wraps everything else.
func dbErr(err error) error {
	var be *customError.BusinessError
	if errors.As(err, &be) {
		return err
	}
	return customError.WrapDatabaseError(err)
}

func loadSettings(ctx context.Context, repo repository.SettingsRepository, groupID uuid.UUID) (*domain.Settings, error) {
	settings, err := repo.GetByGroupID(ctx, groupID)
	if isNoRows(err) {
		return nil, customError.WrapSettingsNotFound(groupID.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return settings, nil
}

func loadMember(ctx context.Context, repo repository.MemberRepository, groupID, memberID uuid.UUID) (*domain.Member, error) {
	member, err := repo.GetInGroup(ctx, groupID, memberID)
	if isNoRows(err) {
		return nil, customError.WrapMemberNotFound(memberID.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return member, nil
}

func loadLoan(ctx context.Context, repo repository.LoanRepository, loanID uuid.UUID) (*domain.Loan, error) {
	loan, err := repo.GetByID(ctx, loanID)
	if isNoRows(err) {
		return nil, customError.WrapLoanNotFound(loanID.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loan, nil
}

// currentInstallment is the first row still awaiting money or approval.
func currentInstallment(schedules []*domain.EmiSchedule) *domain.EmiSchedule {
	for _, s := range schedules {
		if s.Status == domain.ScheduleStatusPending || s.Status == domain.ScheduleStatusSubmitted {
			return s
		}
	}
	return nil
}

func nullID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: true}
}
