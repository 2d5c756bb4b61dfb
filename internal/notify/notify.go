// Package notify renders the human-readable notes attached to ledger entries.
package notify

import (
	"fmt"

	"github.com/aymerick/raymond"
)

// Template names a ledger notes template.
type Template string

const (
	UserDeposit                   Template = "USER_DEPOSIT"
	LoanApproval                  Template = "LOAN_APPROVAL"
	LoanProcessingFee             Template = "LOAN_PROCESSING_FEE"
	LoanPreclose                  Template = "LOAN_PRECLOSE"
	LoanInstallmentWithPenalty    Template = "LOAN_INSTALLMENT_WITH_PENALTY"
	LoanInstallmentWithoutPenalty Template = "LOAN_INSTALLMENT_WITHOUT_PENALTY"
	SavingsDepositWithPenalty     Template = "SAVINGS_DEPOSIT_WITH_PENALTY"
	SavingsDepositWithoutPenalty  Template = "SAVINGS_DEPOSIT_WITHOUT_PENALTY"
)

var sources = map[Template]string{
	UserDeposit:                   "Deposit of Rs. {{amount}} by {{member_name}}.",
	LoanApproval:                  "Loan of Rs. {{amount}} disbursed to {{member_name}}.",
	LoanProcessingFee:             "Processing fee of Rs. {{amount}} received from {{member_name}} for loan {{loan_id}}.",
	LoanPreclose:                  "Loan of {{member_name}} preclosed with Rs. {{amount}} on {{preclose_date}}, approved by {{approved_by}}.",
	LoanInstallmentWithPenalty:    "Installment {{installment_number}} of Rs. {{amount}} paid by {{member_name}} for loan {{loan_id}}, including a penalty of Rs. {{penalty_amount}}.",
	LoanInstallmentWithoutPenalty: "Installment {{installment_number}} of Rs. {{amount}} paid by {{member_name}} for loan {{loan_id}}.",
	SavingsDepositWithPenalty:     "Savings of {{member_name}} for {{cycle_start_date}} to {{cycle_end_date}} received, including a penalty of Rs. {{penalty_amount}}.",
	SavingsDepositWithoutPenalty:  "Savings of {{member_name}} for {{cycle_start_date}} to {{cycle_end_date}} received.",
}

// Renderer holds the parsed template set.
type Renderer struct {
	templates map[Template]*raymond.Template
}

// New parses the built-in templates. overrides replace them by name.
func New(overrides map[Template]string) (*Renderer, error) {
	merged := make(map[Template]string, len(sources))
	for name, src := range sources {
		merged[name] = src
	}
	for name, src := range overrides {
		if _, ok := merged[name]; !ok {
			return nil, fmt.Errorf("unknown template %q", name)
		}
		merged[name] = src
	}

	r := &Renderer{templates: make(map[Template]*raymond.Template, len(merged))}
	for name, src := range merged {
		tpl, err := raymond.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.templates[name] = tpl
	}
	return r, nil
}

// MustNew is New without overrides, panicking on a broken built-in template.
func MustNew() *Renderer {
	r, err := New(nil)
	if err != nil {
		panic(err)
	}
	return r
}

// Render executes name against a flat key-value context.
func (r *Renderer) Render(name Template, data map[string]any) (string, error) {
	tpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown template %q", name)
	}
	return tpl.Exec(data)
}
