package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ScheduleStatus string

// Business logic constants
const (
	ScheduleStatusPending   ScheduleStatus = "pending"
	ScheduleStatusSubmitted ScheduleStatus = "submitted"
	ScheduleStatusCompleted ScheduleStatus = "completed"
)

func (s ScheduleStatus) Valid() bool {
	switch s {
	case ScheduleStatusPending, ScheduleStatusSubmitted, ScheduleStatusCompleted:
		return true
	}
	return false
}

// EmiSchedule represents one installment of a loan
type EmiSchedule struct {
	ID                     uuid.UUID       `json:"id" db:"id"`
	ShgGroupID             uuid.UUID       `json:"shg_group_id" db:"shg_group_id"`
	LoanID                 uuid.UUID       `json:"loan_id" db:"loan_id"`
	InstallmentNumber      int             `json:"installment_number" db:"installment_number"`
	DueDate                time.Time       `json:"due_date" db:"due_date"`
	FinalDueDate           time.Time       `json:"final_due_date" db:"final_due_date"`
	PrincipalComponent     decimal.Decimal `json:"principal_component" db:"principal_component"`
	InterestComponent      decimal.Decimal `json:"interest_component" db:"interest_component"`
	RemainingPrincipal     decimal.Decimal `json:"remaining_principal" db:"remaining_principal"`
	TotalInstallmentAmount decimal.Decimal `json:"total_installment_amount" db:"total_installment_amount"`
	Status                 ScheduleStatus  `json:"status" db:"status"`
	IsPenaltyAdded         bool            `json:"is_penalty_added" db:"is_penalty_added"`
	PenaltyAmount          decimal.Decimal `json:"penalty_amount" db:"penalty_amount"`
	CreatedAt              time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at" db:"updated_at"`
}

// AmountDue is the minimum a payment must cover.
func (s *EmiSchedule) AmountDue() decimal.Decimal {
	return s.TotalInstallmentAmount.Add(s.PenaltyAmount)
}

type ScheduleResponse struct {
	LoanID             uuid.UUID      `json:"loan_id"`
	Schedule           []*EmiSchedule `json:"schedule"`
	CurrentInstallment *EmiSchedule   `json:"current_installment,omitempty"`
}

// InstallmentQueueItem is one row of a status queue: the installment, the
// borrower and the latest successful payment against it, if any.
type InstallmentQueueItem struct {
	Installment *EmiSchedule `json:"installment"`
	MemberID    uuid.UUID    `json:"member_id"`
	Payment     *LoanPayment `json:"payment,omitempty"`
}

// PenaltyResult reports what a lateness sweep changed.
type PenaltyResult struct {
	ShgGroupID     uuid.UUID       `json:"shg_group_id"`
	Checked        int             `json:"total_checked"`
	Updated        int             `json:"updated"`
	PenaltyAmount  decimal.Decimal `json:"penalty_amount_applied"`
	UpdatedRecords []uuid.UUID     `json:"updated_records"`
}
