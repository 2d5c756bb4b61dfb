package amortization

import (
	"github.com/shopspring/decimal"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/utils"
)

// Row is the split of one installment.
type Row struct {
	InstallmentNumber  int
	PrincipalComponent decimal.Decimal
	InterestComponent  decimal.Decimal
	RemainingPrincipal decimal.Decimal
	Total              decimal.Decimal
}

// Breakdown splits every installment of a quoted loan into principal and
// interest, returning rows 1..N in order.
func Breakdown(t Terms, q Quote) []Row {
	if t.InstallmentType == domain.InstallmentTypeFlat {
		return flatBreakdown(t.Principal, q)
	}
	return reducingBreakdown(t.Principal, q)
}

// Flat rows are uniform. Remaining principal is derived from the unrounded
// per-period principal so the last row lands on exactly zero.
func flatBreakdown(principal decimal.Decimal, q Quote) []Row {
	n := decimal.NewFromInt(int64(q.NoOfInstallments))
	perPeriod := principal.Div(n)
	principalPart := utils.RoundCurrency(perPeriod)
	interestPart := utils.RoundCurrency(q.TotalInterest.Div(n))

	rows := make([]Row, 0, q.NoOfInstallments)
	for i := 1; i <= q.NoOfInstallments; i++ {
		remaining := principal.Sub(perPeriod.Mul(decimal.NewFromInt(int64(i))))
		rows = append(rows, Row{
			InstallmentNumber:  i,
			PrincipalComponent: principalPart,
			InterestComponent:  interestPart,
			RemainingPrincipal: utils.RoundCurrency(remaining),
			Total:              q.InstallmentAmount,
		})
	}
	return rows
}

// Reducing rows thread the remaining principal from one installment to the
// next, so they must be computed in order. Interest is rounded first and
// principal takes the rest of the installment, keeping each row's parts
// summing to the installment exactly.
func reducingBreakdown(principal decimal.Decimal, q Quote) []Row {
	remaining := principal

	rows := make([]Row, 0, q.NoOfInstallments)
	for i := 1; i <= q.NoOfInstallments; i++ {
		interestPart := utils.RoundCurrency(remaining.Mul(q.PeriodRate))
		principalPart := q.InstallmentAmount.Sub(interestPart)
		remaining = remaining.Sub(principalPart)

		rows = append(rows, Row{
			InstallmentNumber:  i,
			PrincipalComponent: principalPart,
			InterestComponent:  interestPart,
			RemainingPrincipal: remaining,
			Total:              q.InstallmentAmount,
		})
	}
	return rows
}
