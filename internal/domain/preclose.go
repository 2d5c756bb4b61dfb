package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanPreclose records one early full repayment. Creating it closes the loan.
type LoanPreclose struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	ShgGroupID           uuid.UUID       `json:"shg_group_id" db:"shg_group_id"`
	LoanID               uuid.UUID       `json:"loan_id" db:"loan_id"`
	TotalPrecloseAmount  decimal.Decimal `json:"total_preclose_amount" db:"total_preclose_amount"`
	PrincipalAmount      decimal.Decimal `json:"principal_amount" db:"principal_amount"`
	PrecloseChargeAmount decimal.Decimal `json:"preclose_charge_amount" db:"preclose_charge_amount"`
	ApprovedBy           uuid.UUID       `json:"approved_by" db:"approved_by"`
	// CloseOnInstallmentNo is nil when no installment was pending at closure.
	CloseOnInstallmentNo *int      `json:"close_on_installment_no" db:"close_on_installment_no"`
	Notes                string    `json:"notes,omitempty" db:"notes"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
}

// PrecloseQuote is what a borrower must pay to close a loan today.
type PrecloseQuote struct {
	LoanID              uuid.UUID       `json:"loan_id"`
	PrincipalBalance    decimal.Decimal `json:"principal_balance"`
	PreclosePenaltyRate decimal.Decimal `json:"preclose_penalty_rate"`
	PrecloseCharge      decimal.Decimal `json:"preclose_penalty_amount"`
	RequiredTotal       decimal.Decimal `json:"required_total"`
}

type PrecloseRequest struct {
	ShgGroupID          uuid.UUID       `json:"shg_group_id" validate:"required"`
	LoanID              uuid.UUID       `json:"loan_id" validate:"required"`
	TotalPrecloseAmount decimal.Decimal `json:"total_preclose_amount" validate:"decimal_gt=0"`
	ApprovedBy          uuid.UUID       `json:"approved_by" validate:"required"`
	Notes               string          `json:"notes"`
}
