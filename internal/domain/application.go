package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) Valid() bool {
	return s == ApplicationStatusPending || s == ApplicationStatusApproved || s == ApplicationStatusRejected
}

// LoanApplication is a member's request for a loan, awaiting witnesses and approval.
type LoanApplication struct {
	ID                   uuid.UUID         `json:"id" db:"id"`
	ShgGroupID           uuid.UUID         `json:"shg_group_id" db:"shg_group_id"`
	MemberID             uuid.UUID         `json:"member_id" db:"member_id"`
	AmountRequested      decimal.Decimal   `json:"amount_requested" db:"amount_requested"`
	Purpose              string            `json:"purpose" db:"purpose"`
	Collateral           string            `json:"collateral,omitempty" db:"collateral"`
	Tenure               int               `json:"tenure" db:"tenure"`
	InterestRate         decimal.Decimal   `json:"interest_rate" db:"interest_rate"`
	InterestType         InterestType      `json:"interest_type" db:"interest_type"`
	InstallmentType      InstallmentType   `json:"installment_type" db:"installment_type"`
	InstallmentFrequency Frequency         `json:"installment_frequency" db:"installment_frequency"`
	InstallmentAmount    decimal.Decimal   `json:"installment_amount" db:"installment_amount"`
	TotalInterestAmount  decimal.Decimal   `json:"total_interest_amount" db:"total_interest_amount"`
	Status               ApplicationStatus `json:"status" db:"status"`
	RejectedReason       string            `json:"rejected_reason,omitempty" db:"rejected_reason"`
	CreatedAt            time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at" db:"updated_at"`
}

type ActionStatus string

const (
	ActionStatusPending  ActionStatus = "pending"
	ActionStatusApproved ActionStatus = "approved"
	ActionStatusRejected ActionStatus = "rejected"
)

// LoanApplicationAction is one witness's verdict on an application.
type LoanApplicationAction struct {
	ID                uuid.UUID    `json:"id" db:"id"`
	ShgGroupID        uuid.UUID    `json:"shg_group_id" db:"shg_group_id"`
	LoanApplicationID uuid.UUID    `json:"loan_application_id" db:"loan_application_id"`
	MemberID          uuid.UUID    `json:"member_id" db:"member_id"`
	Status            ActionStatus `json:"status" db:"status"`
	Reason            string       `json:"reason,omitempty" db:"reason"`
	ActionDate        *time.Time   `json:"action_date,omitempty" db:"action_date"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at" db:"updated_at"`
}

// WitnessesCleared reports whether every action is decided and none rejected.
func WitnessesCleared(actions []*LoanApplicationAction) bool {
	if len(actions) == 0 {
		return false
	}
	for _, a := range actions {
		if a.Status != ActionStatusApproved {
			return false
		}
	}
	return true
}

type CreateApplicationRequest struct {
	ShgGroupID           uuid.UUID       `json:"shg_group_id" validate:"required"`
	MemberID             uuid.UUID       `json:"member_id" validate:"required"`
	AmountRequested      decimal.Decimal `json:"amount_requested" validate:"decimal_gt=0"`
	Purpose              string          `json:"purpose" validate:"required"`
	Collateral           string          `json:"collateral"`
	Tenure               int             `json:"tenure" validate:"required,gt=0"`
	InterestRate         decimal.Decimal `json:"interest_rate" validate:"decimal_gte=0,decimal_lte=100"`
	InterestType         InterestType    `json:"interest_type" validate:"required,oneof=fixed variable"`
	InstallmentType      InstallmentType `json:"installment_type" validate:"required,oneof=flat reducing"`
	InstallmentFrequency Frequency       `json:"installment_frequency" validate:"required,oneof=monthly weekly"`
	Witnesses            []uuid.UUID     `json:"witnesses" validate:"required,min=1,dive,required"`
}

type WitnessActionRequest struct {
	MemberID uuid.UUID    `json:"member_id" validate:"required"`
	Status   ActionStatus `json:"status" validate:"required,oneof=approved rejected"`
	Reason   string       `json:"reason"`
}

type UpdateApplicationStatusRequest struct {
	Status ApplicationStatus `json:"status" validate:"required,oneof=rejected"`
	Reason string            `json:"reason" validate:"required"`
}

type ApplicationDetailResponse struct {
	Application *LoanApplication         `json:"application"`
	Actions     []*LoanApplicationAction `json:"actions"`
}
