package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
)

// ErrStaleState is returned by compare-and-set updates when the row was not
// in the expected prior state (or does not exist).
var ErrStaleState = errors.New("row not in expected state")

// Transactor runs fn inside one database transaction. Repositories called
// with the ctx handed to fn join that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// MemberRepository is a read-only view of the group's users.
type MemberRepository interface {
	// GetInGroup returns the member only if it belongs to groupID
	GetInGroup(ctx context.Context, groupID, memberID uuid.UUID) (*domain.Member, error)

	// ListByGroup returns every member of the group
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*domain.Member, error)
}

// SettingsRepository fetches a group's configuration snapshot.
type SettingsRepository interface {
	GetByGroupID(ctx context.Context, groupID uuid.UUID) (*domain.Settings, error)

	// ListGroupIDs returns every group that has settings, for scheduled sweeps
	ListGroupIDs(ctx context.Context) ([]uuid.UUID, error)
}

// ApplicationRepository defines loan application and witness persistence.
type ApplicationRepository interface {
	// Create stores the application together with its witness actions
	Create(ctx context.Context, app *domain.LoanApplication, actions []*domain.LoanApplicationAction) error

	GetByID(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error)

	// ListByGroup returns the group's applications newest first; an empty status matches all
	ListByGroup(ctx context.Context, groupID uuid.UUID, status domain.ApplicationStatus) ([]*domain.LoanApplication, error)

	ListActions(ctx context.Context, applicationID uuid.UUID) ([]*domain.LoanApplicationAction, error)

	// TransitionStatus moves a pending application to status, or returns ErrStaleState
	TransitionStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus, reason string) error

	// RecordAction sets a pending witness action's verdict, or returns ErrStaleState
	RecordAction(ctx context.Context, applicationID, memberID uuid.UUID, status domain.ActionStatus, reason string, at time.Time) (*domain.LoanApplicationAction, error)
}

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create creates a new loan
	Create(ctx context.Context, loan *domain.Loan) error

	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// GetByIDForUpdate locks the loan row for the rest of the transaction
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// List returns the filtered loans, newest first
	List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error)

	// DecrementPrincipal subtracts amount from principal_balance with no floor
	DecrementPrincipal(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error

	// Close marks an active loan closed and preclosed, or returns ErrStaleState
	Close(ctx context.Context, id uuid.UUID) error

	// Summary aggregates a member's loans in a group
	Summary(ctx context.Context, groupID, memberID uuid.UUID) (*domain.LoanSummary, error)
}

// ScheduleRepository defines EMI schedule operations
type ScheduleRepository interface {
	// CreateBatch inserts every installment of a loan
	CreateBatch(ctx context.Context, schedules []*domain.EmiSchedule) error

	GetByID(ctx context.Context, id uuid.UUID) (*domain.EmiSchedule, error)

	ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.EmiSchedule, error)

	// ListByStatus returns the group's installments in status, earliest due first
	ListByStatus(ctx context.Context, groupID uuid.UUID, status domain.ScheduleStatus) ([]*domain.EmiSchedule, error)

	// Transition is a compare-and-set on status; ErrStaleState when the row is not in from
	Transition(ctx context.Context, id uuid.UUID, from, to domain.ScheduleStatus) error

	// FirstPending returns the lowest-numbered pending installment, or sql.ErrNoRows
	FirstPending(ctx context.Context, loanID uuid.UUID) (*domain.EmiSchedule, error)

	// CompletePending completes every pending installment of the loan
	CompletePending(ctx context.Context, loanID uuid.UUID) (int64, error)

	// ListOverdue returns pending, unpenalized installments whose final due date is before now
	ListOverdue(ctx context.Context, groupID uuid.UUID, now time.Time) ([]*domain.EmiSchedule, error)

	// ApplyPenalty adds amount to penalty_amount once; ErrStaleState if already penalized or not pending
	ApplyPenalty(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// Create creates a new payment record
	Create(ctx context.Context, payment *domain.LoanPayment) error

	GetByID(ctx context.Context, id uuid.UUID) (*domain.LoanPayment, error)

	// ListByLoan retrieves all payments for a loan
	ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.LoanPayment, error)

	// MarkFailed flips a successful payment to failed, or returns ErrStaleState
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// PrecloseRepository stores pre-closure records
type PrecloseRepository interface {
	Create(ctx context.Context, preclose *domain.LoanPreclose) error

	GetByLoanID(ctx context.Context, loanID uuid.UUID) (*domain.LoanPreclose, error)
}

// TransactionRepository is the append-only group ledger
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.GroupTransaction) error

	// Totals sums amounts per flow over the filtered entries
	Totals(ctx context.Context, filter domain.TransactionFilter) (domain.FlowTotals, error)

	// TotalsByType sums amounts per (transaction type, flow)
	TotalsByType(ctx context.Context, filter domain.TransactionFilter) ([]domain.TypeTotal, error)

	List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.GroupTransaction, error)
}

// SavingsRepository defines savings cycle persistence
type SavingsRepository interface {
	// Create inserts the record unless the member already has one for the
	// cycle; created is false in that case
	Create(ctx context.Context, savings *domain.Savings) (created bool, err error)

	GetByID(ctx context.Context, id uuid.UUID) (*domain.Savings, error)

	// List returns the group's records in any of statuses, optionally for one member
	List(ctx context.Context, groupID uuid.UUID, memberID uuid.NullUUID, statuses []domain.SavingsStatus) ([]*domain.Savings, error)

	// CountByCycle counts records for the exact cycle window
	CountByCycle(ctx context.Context, groupID uuid.UUID, start, end time.Time) (int, error)

	// Submit moves a pending or rejected record to submitted
	Submit(ctx context.Context, id uuid.UUID, paid decimal.Decimal, proof, remarks string) error

	// Review moves a record from one of from to status
	Review(ctx context.Context, id uuid.UUID, from []domain.SavingsStatus, status domain.SavingsStatus, paid decimal.Decimal, remarks string) error

	ListOverdue(ctx context.Context, groupID uuid.UUID, now time.Time) ([]*domain.Savings, error)

	// ApplyPenalty adds amount to due and penalty once; ErrStaleState otherwise
	ApplyPenalty(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
}

// Store bundles every repository the engine needs.
type Store struct {
	Tx           Transactor
	Members      MemberRepository
	Settings     SettingsRepository
	Applications ApplicationRepository
	Loans        LoanRepository
	Schedules    ScheduleRepository
	Payments     PaymentRepository
	Precloses    PrecloseRepository
	Transactions TransactionRepository
	Savings      SavingsRepository
}

// NewStore wires the Postgres repositories onto one pool.
func NewStore(db *sqlx.DB) Store {
	return Store{
		Tx:           NewTransactor(db),
		Members:      NewMemberRepository(db),
		Settings:     NewSettingsRepository(db),
		Applications: NewApplicationRepository(db),
		Loans:        NewLoanRepository(db),
		Schedules:    NewScheduleRepository(db),
		Payments:     NewPaymentRepository(db),
		Precloses:    NewPrecloseRepository(db),
		Transactions: NewTransactionRepository(db),
		Savings:      NewSavingsRepository(db),
	}
}
