package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrLoanNotFound             = errors.New("loan not found")
	ErrLoanAlreadyClosed        = errors.New("loan is already closed")
	ErrApplicationNotFound      = errors.New("loan application not found")
	ErrApplicationNotPending    = errors.New("loan application is not pending")
	ErrWitnessApprovalPending   = errors.New("witness approvals are incomplete")
	ErrNotEnoughWitnesses       = errors.New("not enough witnesses")
	ErrInstallmentNotFound      = errors.New("installment not found")
	ErrInstallmentNotPending    = errors.New("installment not found or already paid")
	ErrInstallmentNotSubmitted  = errors.New("installment is not awaiting approval")
	ErrPaymentNotFound          = errors.New("payment not found")
	ErrPaymentAlreadyReviewed   = errors.New("payment already reviewed")
	ErrSavingsNotFound          = errors.New("savings not found")
	ErrSavingsAlreadyPaid       = errors.New("savings is already paid")
	ErrSettingsNotFound         = errors.New("settings not found for the group")
	ErrMemberNotFound           = errors.New("member not found")
	ErrNoMembers                = errors.New("no members found in the group")
	ErrInsufficientBalance      = errors.New("insufficient balance in group")
	ErrUnderpayment             = errors.New("payment amount below required total")
	ErrPrecloseAmountTooLow     = errors.New("preclose amount below required total")
	ErrPenaltyAlreadyAdded      = errors.New("penalty already added")
	ErrNotYetDue                = errors.New("due date is not reached")
	ErrLimitExceeded            = errors.New("loan limit exceeded")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrInvalidArgument          = errors.New("invalid argument")
	ErrGroupBusy                = errors.New("group is busy with another disbursement")
	ErrDatabase                 = errors.New("database operation failed")
	ErrTemplate                 = errors.New("notes rendering failed")
)

// Kind classifies a BusinessError for transport mapping.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindBusinessRule Kind = "business_rule"
	KindInternal     Kind = "internal"
)

// BusinessError represents a business logic error
type BusinessError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(kind Kind, code, message string, err error) *BusinessError {
	return &BusinessError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// KindOf returns the kind of the first BusinessError in err's chain.
// Errors that are not BusinessErrors are internal.
func KindOf(err error) Kind {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindInternal
}

// Error codes
const (
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeLoanNotFound         = "LOAN_NOT_FOUND"
	ErrCodeLoanAlreadyClosed    = "LOAN_ALREADY_CLOSED"
	ErrCodeApplicationNotFound  = "LOAN_APPLICATION_NOT_FOUND"
	ErrCodeApplicationConflict  = "LOAN_APPLICATION_CONFLICT"
	ErrCodeWitnessPending       = "WITNESS_APPROVAL_PENDING"
	ErrCodeNotEnoughWitnesses   = "NOT_ENOUGH_WITNESSES"
	ErrCodeInstallmentNotFound  = "INSTALLMENT_NOT_FOUND"
	ErrCodeInstallmentConflict  = "INSTALLMENT_STATE_CONFLICT"
	ErrCodePaymentNotFound      = "PAYMENT_NOT_FOUND"
	ErrCodePaymentConflict      = "PAYMENT_STATE_CONFLICT"
	ErrCodeSavingsNotFound      = "SAVINGS_NOT_FOUND"
	ErrCodeSavingsConflict      = "SAVINGS_STATE_CONFLICT"
	ErrCodeSettingsNotFound     = "SETTINGS_NOT_FOUND"
	ErrCodeMemberNotFound       = "MEMBER_NOT_FOUND"
	ErrCodeNoMembers            = "NO_MEMBERS"
	ErrCodeInsufficientBalance  = "INSUFFICIENT_BALANCE"
	ErrCodeUnderpayment         = "UNDERPAYMENT"
	ErrCodePrecloseAmountTooLow = "PRECLOSE_AMOUNT_TOO_LOW"
	ErrCodePenaltyAlreadyAdded  = "PENALTY_ALREADY_ADDED"
	ErrCodeNotYetDue            = "NOT_YET_DUE"
	ErrCodeLimitExceeded        = "LIMIT_EXCEEDED"
	ErrCodeGroupBusy            = "GROUP_BUSY"
	ErrCodeDatabaseError        = "DATABASE_ERROR"
	ErrCodeTemplateError        = "TEMPLATE_ERROR"
)

// Validation wraps a malformed or missing input.
func Validation(format string, args ...any) *BusinessError {
	return NewBusinessError(KindValidation, ErrCodeValidation, fmt.Sprintf(format, args...), ErrInvalidArgument)
}

func WrapInvalidAmount(field string) *BusinessError {
	return NewBusinessError(
		KindValidation,
		ErrCodeValidation,
		fmt.Sprintf("%s must be greater than 0", field),
		ErrInvalidAmount,
	)
}

// Wrap common errors with business context
func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		KindNotFound,
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapLoanAlreadyClosed(loanID string) *BusinessError {
	return NewBusinessError(
		KindConflict,
		ErrCodeLoanAlreadyClosed,
		fmt.Sprintf("Loan with ID %s is already closed", loanID),
		ErrLoanAlreadyClosed,
	)
}

func WrapApplicationNotFound(applicationID string) *BusinessError {
	return NewBusinessError(
		KindNotFound,
		ErrCodeApplicationNotFound,
		fmt.Sprintf("Loan application with ID %s not found", applicationID),
		ErrApplicationNotFound,
	)
}

func WrapApplicationNotPending(applicationID, status string) *BusinessError {
	return NewBusinessError(
		KindConflict,
		ErrCodeApplicationConflict,
		fmt.Sprintf("Loan application %s is %s, expected pending", applicationID, status),
		ErrApplicationNotPending,
	)
}

func WrapWitnessApprovalPending(applicationID string) *BusinessError {
	return NewBusinessError(
		KindBusinessRule,
		ErrCodeWitnessPending,
		fmt.Sprintf("Loan application %s still has pending witness approvals", applicationID),
		ErrWitnessApprovalPending,
	)
}

func WrapNotEnoughWitnesses(required, given int) *BusinessError {
	return NewBusinessError(
		KindBusinessRule,
		ErrCodeNotEnoughWitnesses,
		fmt.Sprintf("At least %d witnesses are required, got %d", required, given),
		ErrNotEnoughWitnesses,
	)
}

func WrapInstallmentNotFound(id string) *BusinessError {
	return NewBusinessError(
		KindNotFound,
		ErrCodeInstallmentNotFound,
		fmt.Sprintf("Installment with ID %s not found", id),
		ErrInstallmentNotFound,
	)
}

func WrapInstallmentNotPending(id string) *BusinessError {
	return NewBusinessError(
		KindConflict,
		ErrCodeInstallmentConflict,
		fmt.Sprintf("EMI schedule %s not found or already paid", id),
		ErrInstallmentNotPending,
	)
}

func WrapInstallmentNotSubmitted(id string) *BusinessError {
	return NewBusinessError(
		KindConflict,
		ErrCodeInstallmentConflict,
		fmt.Sprintf("EMI schedule %s is not awaiting approval", id),
		ErrInstallmentNotSubmitted,
	)
}

func WrapPaymentNotFound(id string) *BusinessError {
	return NewBusinessError(
		KindNotFound,
		ErrCodePaymentNotFound,
		fmt.Sprintf("Payment with ID %s not found", id),
		ErrPaymentNotFound,
	)
}

func WrapPaymentAlreadyReviewed(id string) *BusinessError {
	return NewBusinessError(
		KindConflict,
		ErrCodePaymentConflict,
		fmt.Sprintf("Payment %s was already reviewed", id),
		ErrPaymentAlreadyReviewed,
	)
}

func WrapSavingsNotFound(id string) *BusinessError {
	return NewBusinessError(
		KindNotFound,
		ErrCodeSavingsNotFound,
		fmt.Sprintf("Savings with ID %s not found", id),
		ErrSavingsNotFound,
	)
}

func WrapSavingsConflict(id, status string) *BusinessError {
	return NewBusinessError(
		KindConflict,
		ErrCodeSavingsConflict,
		fmt.Sprintf("Savings %s is %s", id, status),
		ErrSavingsAlreadyPaid,
	)
}

func WrapSettingsNotFound(groupID string) *BusinessError {
	return NewBusinessError(
		KindNotFound,
		ErrCodeSettingsNotFound,
		fmt.Sprintf("Settings not found for group %s", groupID),
		ErrSettingsNotFound,
	)
}

func WrapMemberNotFound(memberID string) *BusinessError {
	return NewBusinessError(
		KindNotFound,
		ErrCodeMemberNotFound,
		fmt.Sprintf("Member with ID %s not found in group", memberID),
		ErrMemberNotFound,
	)
}

func WrapNoMembers(groupID string) *BusinessError {
	return NewBusinessError(
		KindBusinessRule,
		ErrCodeNoMembers,
		fmt.Sprintf("No members found in group %s", groupID),
		ErrNoMembers,
	)
}

func WrapInsufficientBalance(available, requested string) *BusinessError {
	return NewBusinessError(
		KindBusinessRule,
		ErrCodeInsufficientBalance,
		fmt.Sprintf("Insufficient balance in group: available %s, requested %s", available, requested),
		ErrInsufficientBalance,
	)
}

func WrapUnderpayment(required, paid string) *BusinessError {
	return NewBusinessError(
		KindBusinessRule,
		ErrCodeUnderpayment,
		fmt.Sprintf("Payment amount must be at least %s. Required: %s, Paid: %s", required, required, paid),
		ErrUnderpayment,
	)
}

func WrapPrecloseAmountTooLow(required, offered string) *BusinessError {
	return NewBusinessError(
		KindBusinessRule,
		ErrCodePrecloseAmountTooLow,
		fmt.Sprintf("Total preclose amount %s is less than the required %s", offered, required),
		ErrPrecloseAmountTooLow,
	)
}

func WrapPenaltyAlreadyAdded(id string) *BusinessError {
	return NewBusinessError(
		KindConflict,
		ErrCodePenaltyAlreadyAdded,
		fmt.Sprintf("Penalty already added for %s", id),
		ErrPenaltyAlreadyAdded,
	)
}

func WrapNotYetDue(id string) *BusinessError {
	return NewBusinessError(
		KindBusinessRule,
		ErrCodeNotYetDue,
		fmt.Sprintf("Final due date for %s is not reached", id),
		ErrNotYetDue,
	)
}

func WrapLimitExceeded(field, limit string) *BusinessError {
	return NewBusinessError(
		KindBusinessRule,
		ErrCodeLimitExceeded,
		fmt.Sprintf("%s exceeds the group limit of %s", field, limit),
		ErrLimitExceeded,
	)
}

func WrapGroupBusy(groupID string, err error) *BusinessError {
	return NewBusinessError(
		KindConflict,
		ErrCodeGroupBusy,
		fmt.Sprintf("Group %s is processing another disbursement, retry shortly", groupID),
		errors.Join(ErrGroupBusy, err),
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		KindInternal,
		ErrCodeDatabaseError,
		"database operation failed",
		errors.Join(ErrDatabase, err),
	)
}

func WrapTemplateError(err error) *BusinessError {
	return NewBusinessError(
		KindInternal,
		ErrCodeTemplateError,
		"notes rendering failed",
		errors.Join(ErrTemplate, err),
	)
}
