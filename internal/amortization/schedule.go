package amortization

import (
	"time"

	"github.com/google/uuid"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/utils"
)

// DueDates is when one installment falls due and when its grace period ends.
type DueDates struct {
	DueDate      time.Time
	FinalDueDate time.Time
}

// Anchor returns the next occurrence of dueDay on or after today.
// Weekly due days are ISO (1 = Monday .. 7 = Sunday); monthly due days are
// 1..31 and clamp to short months.
func Anchor(today time.Time, freq domain.Frequency, dueDay int) time.Time {
	if freq == domain.FrequencyWeekly {
		return utils.NextWeekday(today, dueDay)
	}
	return utils.NextMonthDay(today, dueDay)
}

// Dates returns n installment dates, the i-th due i periods after the anchor.
func Dates(today time.Time, freq domain.Frequency, dueDay, graceDays, n int) []DueDates {
	anchor := Anchor(today, freq, dueDay)

	dates := make([]DueDates, 0, n)
	for i := 1; i <= n; i++ {
		var due time.Time
		if freq == domain.FrequencyWeekly {
			due = anchor.AddDate(0, 0, 7*i)
		} else {
			due = utils.MonthDay(anchor.Year(), anchor.Month()+time.Month(i), dueDay, anchor.Location())
		}
		dates = append(dates, DueDates{
			DueDate:      due,
			FinalDueDate: due.AddDate(0, 0, graceDays),
		})
	}
	return dates
}

// Plan is a fully materialized installment schedule, not yet persisted.
type Plan struct {
	Quote     Quote
	Schedule  []*domain.EmiSchedule
	StartDate time.Time
	EndDate   time.Time
}

// BuildPlan quotes the loan, breaks it down and assigns dates from the group's
// loan settings. The rows carry groupID and loanID and are all pending.
func BuildPlan(t Terms, settings domain.LoanSettings, groupID, loanID uuid.UUID, today time.Time) (*Plan, error) {
	quote, err := Calculate(t)
	if err != nil {
		return nil, err
	}

	rows := Breakdown(t, quote)
	dates := Dates(today, t.Frequency, settings.DueDay(t.Frequency), settings.GracePeriodDays, quote.NoOfInstallments)

	schedule := make([]*domain.EmiSchedule, len(rows))
	for i, row := range rows {
		schedule[i] = &domain.EmiSchedule{
			ID:                     uuid.New(),
			ShgGroupID:             groupID,
			LoanID:                 loanID,
			InstallmentNumber:      row.InstallmentNumber,
			DueDate:                dates[i].DueDate,
			FinalDueDate:           dates[i].FinalDueDate,
			PrincipalComponent:     row.PrincipalComponent,
			InterestComponent:      row.InterestComponent,
			RemainingPrincipal:     row.RemainingPrincipal,
			TotalInstallmentAmount: row.Total,
			Status:                 domain.ScheduleStatusPending,
		}
	}

	return &Plan{
		Quote:     quote,
		Schedule:  schedule,
		StartDate: schedule[0].DueDate,
		EndDate:   schedule[len(schedule)-1].FinalDueDate,
	}, nil
}
