// Package amortization holds the pure loan math: installment quotes,
// per-installment breakdowns and schedule dates. Nothing here touches storage.
package amortization

import (
	"github.com/shopspring/decimal"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
	apperrors "github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/errors"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/utils"
)

// powPrecision bounds intermediate digits when compounding the period rate.
const powPrecision = 18

var hundred = decimal.NewFromInt(100)

// Terms are the inputs of a loan quote.
type Terms struct {
	Principal       decimal.Decimal
	InterestRate    decimal.Decimal // annual percent, 0..100
	Tenure          int             // whole years
	Frequency       domain.Frequency
	InstallmentType domain.InstallmentType
}

// Quote is the rounded outcome of a loan calculation.
//
// The four amounts are each rounded on their own, so InstallmentAmount x
// NoOfInstallments can differ from TotalRepayment by a few units.
type Quote struct {
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
	TotalInterest     decimal.Decimal `json:"total_interest"`
	TotalRepayment    decimal.Decimal `json:"total_repayment_amount"`
	NoOfInstallments  int             `json:"no_of_installments"`
	// PeriodRate is the unrounded per-installment rate used by reducing breakdowns.
	PeriodRate decimal.Decimal `json:"-"`
}

func (t Terms) Validate() error {
	if !t.Principal.IsPositive() {
		return apperrors.WrapInvalidAmount("principal")
	}
	if t.InterestRate.IsNegative() || t.InterestRate.GreaterThan(hundred) {
		return apperrors.Validation("interest rate must be between 0 and 100, got %s", t.InterestRate)
	}
	if t.Tenure <= 0 {
		return apperrors.Validation("tenure must be greater than 0, got %d", t.Tenure)
	}
	if !t.Frequency.Valid() {
		return apperrors.Validation("invalid installment frequency %q", t.Frequency)
	}
	if !t.InstallmentType.Valid() {
		return apperrors.Validation("invalid installment type %q", t.InstallmentType)
	}
	return nil
}

// Calculate quotes a loan under the flat or reducing-balance model.
func Calculate(t Terms) (Quote, error) {
	if err := t.Validate(); err != nil {
		return Quote{}, err
	}

	periods := t.Frequency.PeriodsPerYear()
	n := t.Tenure * periods
	rate := t.InterestRate.Div(hundred).Div(decimal.NewFromInt(int64(periods)))

	if t.InstallmentType == domain.InstallmentTypeFlat {
		return flat(t, n, rate), nil
	}
	return reducing(t, n, rate), nil
}

// flat charges interest on the full principal for the whole tenure.
// Tenure is whole years for both cadences.
func flat(t Terms, n int, rate decimal.Decimal) Quote {
	interest := t.Principal.Mul(t.InterestRate).Div(hundred).Mul(decimal.NewFromInt(int64(t.Tenure)))
	total := t.Principal.Add(interest)
	installment := total.Div(decimal.NewFromInt(int64(n)))

	return Quote{
		InstallmentAmount: utils.RoundCurrency(installment),
		TotalInterest:     utils.RoundCurrency(interest),
		TotalRepayment:    utils.RoundCurrency(total),
		NoOfInstallments:  n,
		PeriodRate:        rate,
	}
}

// reducing uses the standard EMI formula P*r*(1+r)^N / ((1+r)^N - 1).
// Interest and total derive from the unrounded EMI.
func reducing(t Terms, n int, rate decimal.Decimal) Quote {
	count := decimal.NewFromInt(int64(n))

	var emi decimal.Decimal
	if rate.IsZero() {
		emi = t.Principal.Div(count)
	} else {
		growth := compound(decimal.NewFromInt(1).Add(rate), n)
		emi = t.Principal.Mul(rate).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1)))
	}

	total := emi.Mul(count)

	return Quote{
		InstallmentAmount: utils.RoundCurrency(emi),
		TotalInterest:     utils.RoundCurrency(total.Sub(t.Principal)),
		TotalRepayment:    utils.RoundCurrency(total),
		NoOfInstallments:  n,
		PeriodRate:        rate,
	}
}

// compound returns base^n, rounding each step so weekly rates stay bounded.
func compound(base decimal.Decimal, n int) decimal.Decimal {
	result := decimal.NewFromInt(1)
	for i := 0; i < n; i++ {
		result = result.Mul(base).Round(powPrecision)
	}
	return result
}
