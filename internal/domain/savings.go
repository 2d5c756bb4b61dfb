package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SavingsStatus string

const (
	SavingsStatusPending   SavingsStatus = "pending"
	SavingsStatusSubmitted SavingsStatus = "submitted"
	SavingsStatusApproved  SavingsStatus = "approved"
	SavingsStatusRejected  SavingsStatus = "rejected"
)

// Savings is one member's contribution obligation for one cycle.
type Savings struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	ShgGroupID     uuid.UUID       `json:"shg_group_id" db:"shg_group_id"`
	MemberID       uuid.UUID       `json:"member_id" db:"member_id"`
	DueAmount      decimal.Decimal `json:"due_amount" db:"due_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount" db:"paid_amount"`
	DueDate        time.Time       `json:"due_date" db:"due_date"`
	FinalDueDate   time.Time       `json:"final_due_date" db:"final_due_date"`
	PenaltyAmount  decimal.Decimal `json:"penalty_amount" db:"penalty_amount"`
	Status         SavingsStatus   `json:"status" db:"status"`
	MemberRemarks  string          `json:"member_remarks,omitempty" db:"member_remarks"`
	AdminRemarks   string          `json:"admin_remarks,omitempty" db:"admin_remarks"`
	Proof          string          `json:"proof,omitempty" db:"proof"`
	CycleStartDate time.Time       `json:"cycle_start_date" db:"cycle_start_date"`
	CycleEndDate   time.Time       `json:"cycle_end_date" db:"cycle_end_date"`
	IsPenaltyAdded bool            `json:"is_penalty_added" db:"is_penalty_added"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// Cycle is the date window a savings record covers.
type Cycle struct {
	Start        time.Time `json:"cycle_start_date"`
	End          time.Time `json:"cycle_end_date"`
	DueDate      time.Time `json:"due_date"`
	FinalDueDate time.Time `json:"final_due_date"`
}

type InitiationResult struct {
	ShgGroupID uuid.UUID  `json:"shg_group_id"`
	Cycle      Cycle      `json:"cycle"`
	Created    []*Savings `json:"created"`
	Skipped    int        `json:"skipped"`
}

type InitiationStatus struct {
	ShgGroupID  uuid.UUID `json:"shg_group_id"`
	Cycle       Cycle     `json:"cycle"`
	Members     int       `json:"members"`
	Records     int       `json:"records"`
	IsInitiated bool      `json:"is_initiated"`
}

type SubmitSavingsRequest struct {
	MemberID      uuid.UUID       `json:"member_id" validate:"required"`
	PaidAmount    decimal.Decimal `json:"paid_amount" validate:"decimal_gt=0"`
	Proof         string          `json:"proof"`
	MemberRemarks string          `json:"member_remarks"`
}

type ReviewSavingsRequest struct {
	Status       SavingsStatus   `json:"status" validate:"required,oneof=approved rejected"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	AdminRemarks string          `json:"admin_remarks"`
	ApprovedBy   uuid.UUID       `json:"approved_by" validate:"required"`
}
