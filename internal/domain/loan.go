package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanStatusActive LoanStatus = "active"
	LoanStatusClosed LoanStatus = "closed"
)

func (s LoanStatus) Valid() bool {
	return s == LoanStatusActive || s == LoanStatusClosed
}

// InterestType is recorded on the loan but does not change the math:
// a variable-rate loan is scheduled at its rate on the day of approval.
type InterestType string

const (
	InterestTypeFixed    InterestType = "fixed"
	InterestTypeVariable InterestType = "variable"
)

func (t InterestType) Valid() bool {
	return t == InterestTypeFixed || t == InterestTypeVariable
}

type InstallmentType string

const (
	InstallmentTypeFlat     InstallmentType = "flat"
	InstallmentTypeReducing InstallmentType = "reducing"
)

func (t InstallmentType) Valid() bool {
	return t == InstallmentTypeFlat || t == InstallmentTypeReducing
}

// Frequency is the cadence of loan installments and savings cycles.
type Frequency string

const (
	FrequencyMonthly Frequency = "monthly"
	FrequencyWeekly  Frequency = "weekly"
)

func (f Frequency) Valid() bool {
	return f == FrequencyMonthly || f == FrequencyWeekly
}

// PeriodsPerYear is 12 for monthly and 52 for weekly cadence.
func (f Frequency) PeriodsPerYear() int {
	if f == FrequencyWeekly {
		return 52
	}
	return 12
}

// Loan represents an approved loan snapshot
type Loan struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	ShgGroupID           uuid.UUID       `json:"shg_group_id" db:"shg_group_id"`
	LoanApplicationID    uuid.UUID       `json:"loan_application_id" db:"loan_application_id"`
	MemberID             uuid.UUID       `json:"member_id" db:"member_id"`
	ApprovedAmount       decimal.Decimal `json:"approved_amount" db:"approved_amount"`
	ProcessingFee        decimal.Decimal `json:"processing_fee" db:"processing_fee"`
	Tenure               int             `json:"tenure" db:"tenure"`
	InterestType         InterestType    `json:"interest_type" db:"interest_type"`
	InterestRate         decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	InstallmentType      InstallmentType `json:"installment_type" db:"installment_type"`
	InstallmentFrequency Frequency       `json:"installment_frequency" db:"installment_frequency"`
	InstallmentAmount    decimal.Decimal `json:"installment_amount" db:"installment_amount"`
	TotalInterest        decimal.Decimal `json:"total_interest" db:"total_interest"`
	TotalRepaymentAmount decimal.Decimal `json:"total_repayment_amount" db:"total_repayment_amount"`
	PrincipalBalance     decimal.Decimal `json:"principal_balance" db:"principal_balance"`
	NoOfInstallments     int             `json:"no_of_installments" db:"no_of_installments"`
	LoanStartDate        time.Time       `json:"loan_start_date" db:"loan_start_date"`
	LoanEndDate          time.Time       `json:"loan_end_date" db:"loan_end_date"`
	Status               LoanStatus      `json:"status" db:"status"`
	IsLoanPreclosed      bool            `json:"is_loan_preclosed" db:"is_loan_preclosed"`
	Collateral           string          `json:"collateral,omitempty" db:"collateral"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at" db:"updated_at"`
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	LoanApplicationID uuid.UUID `json:"loan_application_id" validate:"required"`
	ApprovedBy        uuid.UUID `json:"approved_by" validate:"required"`
}

type CreateLoanResponse struct {
	Loan     *Loan          `json:"loan"`
	Schedule []*EmiSchedule `json:"schedule"`
}

type LoanDetailResponse struct {
	Loan               *Loan        `json:"loan"`
	CurrentInstallment *EmiSchedule `json:"current_installment,omitempty"`
}

// LoanFilter selects a group's loans, newest first. Empty fields match all.
type LoanFilter struct {
	ShgGroupID uuid.UUID
	MemberIDs  []uuid.UUID
	Status     LoanStatus
	Limit      int
	Offset     int
}

// LoanSummary aggregates a member's borrowing within one group.
type LoanSummary struct {
	MemberID             uuid.UUID       `json:"member_id" db:"member_id"`
	ShgGroupID           uuid.UUID       `json:"shg_group_id" db:"shg_group_id"`
	TotalRepaymentAmount decimal.Decimal `json:"total_repayment_amount" db:"total_repayment_amount"`
	PaidLoanAmount       decimal.Decimal `json:"paid_loan_amount" db:"paid_loan_amount"`
	DueLoanAmount        decimal.Decimal `json:"due_loan_amount" db:"due_loan_amount"`
}
