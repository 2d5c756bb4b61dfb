package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

type PaymentMode string

const (
	PaymentModeCash         PaymentMode = "cash"
	PaymentModeUPI          PaymentMode = "upi"
	PaymentModeBankTransfer PaymentMode = "bank_transfer"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentModeCash, PaymentModeUPI, PaymentModeBankTransfer:
		return true
	}
	return false
}

// LoanPayment is one attempt to pay one installment.
type LoanPayment struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	ShgGroupID     uuid.UUID       `json:"shg_group_id" db:"shg_group_id"`
	LoanID         uuid.UUID       `json:"loan_id" db:"loan_id"`
	EmiScheduleID  uuid.UUID       `json:"emi_schedule_id" db:"emi_schedule_id"`
	MemberID       uuid.UUID       `json:"member_id" db:"member_id"`
	AmountPaid     decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	PaymentDate    time.Time       `json:"payment_date" db:"payment_date"`
	PaymentMode    PaymentMode     `json:"payment_mode" db:"payment_mode"`
	TransactionRef string          `json:"transaction_id,omitempty" db:"transaction_ref"`
	Status         PaymentStatus   `json:"status" db:"status"`
	Proof          string          `json:"proof,omitempty" db:"proof"`
	Remarks        string          `json:"remarks,omitempty" db:"remarks"`
	RejectReason   string          `json:"reject_reason,omitempty" db:"reject_reason"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

type SubmitPaymentRequest struct {
	ShgGroupID     uuid.UUID       `json:"shg_group_id" validate:"required"`
	LoanID         uuid.UUID       `json:"loan_id" validate:"required"`
	EmiScheduleID  uuid.UUID       `json:"emi_schedule_id" validate:"required"`
	MemberID       uuid.UUID       `json:"member_id" validate:"required"`
	AmountPaid     decimal.Decimal `json:"amount_paid" validate:"decimal_gt=0"`
	PaymentMode    PaymentMode     `json:"payment_mode" validate:"omitempty,oneof=cash upi bank_transfer"`
	TransactionRef string          `json:"transaction_id"`
	Proof          string          `json:"proof"`
	Remarks        string          `json:"remarks"`
}

// ReviewDecision is an approver's verdict on a submitted payment.
type ReviewDecision string

const (
	ReviewApproved ReviewDecision = "approved"
	ReviewRejected ReviewDecision = "rejected"
)

type ReviewPaymentRequest struct {
	PaymentID  uuid.UUID      `json:"payment_id" validate:"required"`
	Status     ReviewDecision `json:"status" validate:"required,oneof=approved rejected"`
	Reason     string         `json:"reason"`
	ReviewedBy uuid.UUID      `json:"reviewed_by" validate:"required"`
}
