package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type FlowType string

const (
	FlowIn  FlowType = "in"
	FlowOut FlowType = "out"
)

func (f FlowType) Valid() bool {
	return f == FlowIn || f == FlowOut
}

type TransactionType string

const (
	TxUserDeposit       TransactionType = "user_deposit"
	TxSavingsDeposit    TransactionType = "savings_deposit"
	TxLoanDisbursed     TransactionType = "loan_disbursed"
	TxLoanProcessingFee TransactionType = "loan_processing_fee"
	TxLoanInstallment   TransactionType = "loan_installment"
	TxLoanPreclose      TransactionType = "loan_preclose"
	TxGroupExpense      TransactionType = "group_expense"
	TxWithdrawalSavings TransactionType = "withdrawal_savings"
	TxOthers            TransactionType = "others"
)

var transactionTypes = []TransactionType{
	TxUserDeposit, TxSavingsDeposit, TxLoanDisbursed, TxLoanProcessingFee,
	TxLoanInstallment, TxLoanPreclose, TxGroupExpense, TxWithdrawalSavings, TxOthers,
}

// TransactionTypes lists every known type in display order.
func TransactionTypes() []TransactionType {
	out := make([]TransactionType, len(transactionTypes))
	copy(out, transactionTypes)
	return out
}

func (t TransactionType) Valid() bool {
	for _, known := range transactionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Manual reports whether an operator may post this type by hand.
// The rest are only ever written by the loan and savings flows.
func (t TransactionType) Manual() bool {
	switch t {
	case TxUserDeposit, TxGroupExpense, TxWithdrawalSavings, TxOthers:
		return true
	}
	return false
}

type ReferenceModel string

const (
	RefNone         ReferenceModel = ""
	RefLoan         ReferenceModel = "loan"
	RefLoanPayment  ReferenceModel = "loan_payment"
	RefLoanPreclose ReferenceModel = "loan_preclose"
	RefSavings      ReferenceModel = "savings"
)

// Reference points a ledger entry at the record that caused it.
// Model and ID are both set or both empty.
type Reference struct {
	Model ReferenceModel `json:"reference_model,omitempty" db:"reference_model"`
	ID    uuid.NullUUID  `json:"reference_id" db:"reference_id"`
}

func NoReference() Reference { return Reference{} }

func LoanRef(id uuid.UUID) Reference {
	return Reference{Model: RefLoan, ID: uuid.NullUUID{UUID: id, Valid: true}}
}

func LoanPaymentRef(id uuid.UUID) Reference {
	return Reference{Model: RefLoanPayment, ID: uuid.NullUUID{UUID: id, Valid: true}}
}

func LoanPrecloseRef(id uuid.UUID) Reference {
	return Reference{Model: RefLoanPreclose, ID: uuid.NullUUID{UUID: id, Valid: true}}
}

func SavingsRef(id uuid.UUID) Reference {
	return Reference{Model: RefSavings, ID: uuid.NullUUID{UUID: id, Valid: true}}
}

func (r Reference) Validate() error {
	switch r.Model {
	case RefNone:
		if r.ID.Valid {
			return fmt.Errorf("reference id %s given without a model", r.ID.UUID)
		}
		return nil
	case RefLoan, RefLoanPayment, RefLoanPreclose, RefSavings:
		if !r.ID.Valid || r.ID.UUID == uuid.Nil {
			return fmt.Errorf("reference model %q requires an id", r.Model)
		}
		return nil
	}
	return fmt.Errorf("unknown reference model %q", r.Model)
}

// GroupTransaction is one append-only ledger entry.
type GroupTransaction struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	ShgGroupID      uuid.UUID       `json:"shg_group_id" db:"shg_group_id"`
	MemberID        uuid.NullUUID   `json:"member_id" db:"member_id"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	FlowType        FlowType        `json:"flow_type" db:"flow_type"`
	TransactionType TransactionType `json:"transaction_type" db:"transaction_type"`
	Reference
	Notes           string    `json:"notes" db:"notes"`
	IsGroupActivity bool      `json:"is_group_activity" db:"is_group_activity"`
	CreatedByID     uuid.UUID `json:"created_by_id" db:"created_by_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// FlowTotals is the in/out split of a ledger slice.
type FlowTotals struct {
	TotalIn  decimal.Decimal `json:"total_in" db:"total_in"`
	TotalOut decimal.Decimal `json:"total_out" db:"total_out"`
}

func (t FlowTotals) Balance() decimal.Decimal {
	return t.TotalIn.Sub(t.TotalOut)
}

type TypeTotal struct {
	TransactionType TransactionType `json:"transaction_type" db:"transaction_type"`
	FlowType        FlowType        `json:"flow_type" db:"flow_type"`
	Total           decimal.Decimal `json:"total" db:"total"`
}

// TransactionFilter narrows ledger queries. Zero values mean "any".
type TransactionFilter struct {
	ShgGroupID      uuid.UUID
	MemberID        uuid.NullUUID
	FlowType        FlowType
	TransactionType TransactionType
	From            *time.Time
	To              *time.Time
	Limit           int
	Offset          int
}

type TransactionSummary struct {
	ShgGroupID      uuid.UUID       `json:"shg_group_id"`
	TotalIn         decimal.Decimal `json:"total_in"`
	TotalOut        decimal.Decimal `json:"total_out"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
}

type BalanceSheetRow struct {
	TransactionType TransactionType `json:"transaction_type"`
	In              decimal.Decimal `json:"in"`
	Out             decimal.Decimal `json:"out"`
}

type BalanceSheet struct {
	ShgGroupID uuid.UUID         `json:"shg_group_id"`
	MemberID   *uuid.UUID        `json:"member_id,omitempty"`
	Rows       []BalanceSheetRow `json:"rows"`
	TotalIn    decimal.Decimal   `json:"total_in"`
	TotalOut   decimal.Decimal   `json:"total_out"`
	Balance    decimal.Decimal   `json:"balance"`
}

type ManualTransactionRequest struct {
	ShgGroupID      uuid.UUID       `json:"shg_group_id" validate:"required"`
	MemberID        *uuid.UUID      `json:"member_id"`
	Amount          decimal.Decimal `json:"amount" validate:"decimal_gt=0"`
	FlowType        FlowType        `json:"flow_type" validate:"required,oneof=in out"`
	TransactionType TransactionType `json:"transaction_type" validate:"required"`
	Notes           string          `json:"notes"`
	IsGroupActivity bool            `json:"is_group_activity"`
	CreatedByID     uuid.UUID       `json:"created_by_id" validate:"required"`
}
