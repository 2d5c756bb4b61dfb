// Package testutil provides a map-backed repository.Store for service tests.
package testutil

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/repository"
)

type txKey struct{}

// tables holds every row by value so callers never alias stored state.
type tables struct {
	members      map[uuid.UUID]domain.Member
	settings     map[uuid.UUID]domain.Settings
	applications map[uuid.UUID]domain.LoanApplication
	actions      map[uuid.UUID]domain.LoanApplicationAction
	loans        map[uuid.UUID]domain.Loan
	schedules    map[uuid.UUID]domain.EmiSchedule
	payments     map[uuid.UUID]domain.LoanPayment
	precloses    map[uuid.UUID]domain.LoanPreclose
	transactions []domain.GroupTransaction
	savings      map[uuid.UUID]domain.Savings
}

func newTables() tables {
	return tables{
		members:      make(map[uuid.UUID]domain.Member),
		settings:     make(map[uuid.UUID]domain.Settings),
		applications: make(map[uuid.UUID]domain.LoanApplication),
		actions:      make(map[uuid.UUID]domain.LoanApplicationAction),
		loans:        make(map[uuid.UUID]domain.Loan),
		schedules:    make(map[uuid.UUID]domain.EmiSchedule),
		payments:     make(map[uuid.UUID]domain.LoanPayment),
		precloses:    make(map[uuid.UUID]domain.LoanPreclose),
		savings:      make(map[uuid.UUID]domain.Savings),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (t tables) clone() tables {
	return tables{
		members:      cloneMap(t.members),
		settings:     cloneMap(t.settings),
		applications: cloneMap(t.applications),
		actions:      cloneMap(t.actions),
		loans:        cloneMap(t.loans),
		schedules:    cloneMap(t.schedules),
		payments:     cloneMap(t.payments),
		precloses:    cloneMap(t.precloses),
		transactions: append([]domain.GroupTransaction(nil), t.transactions...),
		savings:      cloneMap(t.savings),
	}
}

// MemoryDB is an in-memory database. WithinTx snapshots it and restores the
// snapshot when fn fails, and transactions run one at a time.
type MemoryDB struct {
	mu   sync.Mutex
	txMu sync.Mutex
	t    tables

	// Fail makes the named operation (e.g. "Transactions.Create") return the error
	Fail map[string]error
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{t: newTables(), Fail: make(map[string]error)}
}

// Store exposes the database through the repository interfaces.
func (db *MemoryDB) Store() repository.Store {
	return repository.Store{
		Tx:           db,
		Members:      memberRepo{db},
		Settings:     settingsRepo{db},
		Applications: applicationRepo{db},
		Loans:        loanRepo{db},
		Schedules:    scheduleRepo{db},
		Payments:     paymentRepo{db},
		Precloses:    precloseRepo{db},
		Transactions: transactionRepo{db},
		Savings:      savingsRepo{db},
	}
}

func (db *MemoryDB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.Lock()
	snapshot := db.t.clone()
	db.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		db.mu.Lock()
		db.t = snapshot
		db.mu.Unlock()
		return err
	}
	return nil
}

// with runs fn under the data lock unless op is set to fail.
func (db *MemoryDB) with(op string, fn func(t *tables) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.Fail[op]; err != nil {
		return err
	}
	return fn(&db.t)
}

// Seed helpers

func (db *MemoryDB) AddMember(m domain.Member) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.t.members[m.ID] = m
}

func (db *MemoryDB) AddSettings(s domain.Settings) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	db.t.settings[s.ShgGroupID] = s
}

func (db *MemoryDB) AddTransaction(tx domain.GroupTransaction) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	db.t.transactions = append(db.t.transactions, tx)
}

func (db *MemoryDB) AddSavings(s domain.Savings) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.t.savings[s.ID] = s
}

// Transactions returns a copy of the ledger in insertion order.
func (db *MemoryDB) Transactions() []domain.GroupTransaction {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]domain.GroupTransaction(nil), db.t.transactions...)
}

func (db *MemoryDB) Loan(id uuid.UUID) domain.Loan {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.t.loans[id]
}

func (db *MemoryDB) Schedule(id uuid.UUID) domain.EmiSchedule {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.t.schedules[id]
}

func (db *MemoryDB) Savings(id uuid.UUID) domain.Savings {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.t.savings[id]
}

// Members

type memberRepo struct{ db *MemoryDB }

func (r memberRepo) GetInGroup(_ context.Context, groupID, memberID uuid.UUID) (*domain.Member, error) {
	var out *domain.Member
	err := r.db.with("Members.GetInGroup", func(t *tables) error {
		m, ok := t.members[memberID]
		if !ok || m.ShgGroupID != groupID {
			return sql.ErrNoRows
		}
		out = &m
		return nil
	})
	return out, err
}

func (r memberRepo) ListByGroup(_ context.Context, groupID uuid.UUID) ([]*domain.Member, error) {
	var out []*domain.Member
	err := r.db.with("Members.ListByGroup", func(t *tables) error {
		for _, m := range t.members {
			if m.ShgGroupID == groupID {
				m := m
				out = append(out, &m)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// Settings

type settingsRepo struct{ db *MemoryDB }

func (r settingsRepo) GetByGroupID(_ context.Context, groupID uuid.UUID) (*domain.Settings, error) {
	var out *domain.Settings
	err := r.db.with("Settings.GetByGroupID", func(t *tables) error {
		s, ok := t.settings[groupID]
		if !ok {
			return sql.ErrNoRows
		}
		out = &s
		return nil
	})
	return out, err
}

func (r settingsRepo) ListGroupIDs(_ context.Context) ([]uuid.UUID, error) {
	var out []uuid.UUID
	err := r.db.with("Settings.ListGroupIDs", func(t *tables) error {
		for id := range t.settings {
			out = append(out, id)
		}
		return nil
	})
	return out, err
}

// Applications

type applicationRepo struct{ db *MemoryDB }

func (r applicationRepo) Create(_ context.Context, app *domain.LoanApplication, actions []*domain.LoanApplicationAction) error {
	return r.db.with("Applications.Create", func(t *tables) error {
		t.applications[app.ID] = *app
		for _, a := range actions {
			t.actions[a.ID] = *a
		}
		return nil
	})
}

func (r applicationRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.LoanApplication, error) {
	var out *domain.LoanApplication
	err := r.db.with("Applications.GetByID", func(t *tables) error {
		a, ok := t.applications[id]
		if !ok {
			return sql.ErrNoRows
		}
		out = &a
		return nil
	})
	return out, err
}

func (r applicationRepo) ListByGroup(_ context.Context, groupID uuid.UUID, status domain.ApplicationStatus) ([]*domain.LoanApplication, error) {
	var out []*domain.LoanApplication
	err := r.db.with("Applications.ListByGroup", func(t *tables) error {
		for _, a := range t.applications {
			if a.ShgGroupID == groupID && (status == "" || a.Status == status) {
				a := a
				out = append(out, &a)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out, err
}

// newerFirst orders by time descending, then id, like ORDER BY created_at DESC, id.
func newerFirst(a, b time.Time, aID, bID uuid.UUID) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aID.String() < bID.String()
}

func (r applicationRepo) ListActions(_ context.Context, applicationID uuid.UUID) ([]*domain.LoanApplicationAction, error) {
	var out []*domain.LoanApplicationAction
	err := r.db.with("Applications.ListActions", func(t *tables) error {
		for _, a := range t.actions {
			if a.LoanApplicationID == applicationID {
				a := a
				out = append(out, &a)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (r applicationRepo) TransitionStatus(_ context.Context, id uuid.UUID, status domain.ApplicationStatus, reason string) error {
	return r.db.with("Applications.TransitionStatus", func(t *tables) error {
		a, ok := t.applications[id]
		if !ok || a.Status != domain.ApplicationStatusPending {
			return repository.ErrStaleState
		}
		a.Status = status
		a.RejectedReason = reason
		t.applications[id] = a
		return nil
	})
}

func (r applicationRepo) RecordAction(_ context.Context, applicationID, memberID uuid.UUID, status domain.ActionStatus, reason string, at time.Time) (*domain.LoanApplicationAction, error) {
	var out *domain.LoanApplicationAction
	err := r.db.with("Applications.RecordAction", func(t *tables) error {
		for id, a := range t.actions {
			if a.LoanApplicationID != applicationID || a.MemberID != memberID || a.Status != domain.ActionStatusPending {
				continue
			}
			a.Status = status
			a.Reason = reason
			a.ActionDate = &at
			a.UpdatedAt = at
			t.actions[id] = a
			out = &a
			return nil
		}
		return repository.ErrStaleState
	})
	return out, err
}

// Loans

type loanRepo struct{ db *MemoryDB }

func (r loanRepo) Create(_ context.Context, loan *domain.Loan) error {
	return r.db.with("Loans.Create", func(t *tables) error {
		t.loans[loan.ID] = *loan
		return nil
	})
}

func (r loanRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Loan, error) {
	var out *domain.Loan
	err := r.db.with("Loans.GetByID", func(t *tables) error {
		l, ok := t.loans[id]
		if !ok {
			return sql.ErrNoRows
		}
		out = &l
		return nil
	})
	return out, err
}

func (r loanRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	return r.GetByID(ctx, id)
}

func (r loanRepo) List(_ context.Context, f domain.LoanFilter) ([]*domain.Loan, error) {
	members := make(map[uuid.UUID]bool, len(f.MemberIDs))
	for _, id := range f.MemberIDs {
		members[id] = true
	}

	var out []*domain.Loan
	err := r.db.with("Loans.List", func(t *tables) error {
		for _, l := range t.loans {
			if l.ShgGroupID != f.ShgGroupID {
				continue
			}
			if len(members) > 0 && !members[l.MemberID] {
				continue
			}
			if f.Status != "" && l.Status != f.Status {
				continue
			}
			l := l
			out = append(out, &l)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	if f.Offset >= len(out) {
		return []*domain.Loan{}, err
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, err
}

func (r loanRepo) DecrementPrincipal(_ context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return r.db.with("Loans.DecrementPrincipal", func(t *tables) error {
		l, ok := t.loans[id]
		if !ok {
			return repository.ErrStaleState
		}
		l.PrincipalBalance = l.PrincipalBalance.Sub(amount)
		t.loans[id] = l
		return nil
	})
}

func (r loanRepo) Close(_ context.Context, id uuid.UUID) error {
	return r.db.with("Loans.Close", func(t *tables) error {
		l, ok := t.loans[id]
		if !ok || l.Status != domain.LoanStatusActive {
			return repository.ErrStaleState
		}
		l.Status = domain.LoanStatusClosed
		l.IsLoanPreclosed = true
		t.loans[id] = l
		return nil
	})
}

func (r loanRepo) Summary(_ context.Context, groupID, memberID uuid.UUID) (*domain.LoanSummary, error) {
	summary := &domain.LoanSummary{ShgGroupID: groupID, MemberID: memberID}
	err := r.db.with("Loans.Summary", func(t *tables) error {
		for _, l := range t.loans {
			if l.ShgGroupID != groupID || l.MemberID != memberID {
				continue
			}
			summary.TotalRepaymentAmount = summary.TotalRepaymentAmount.Add(l.TotalRepaymentAmount)
			for _, s := range t.schedules {
				if s.LoanID == l.ID && s.Status == domain.ScheduleStatusCompleted {
					summary.PaidLoanAmount = summary.PaidLoanAmount.Add(s.TotalInstallmentAmount)
				}
			}
		}
		return nil
	})
	summary.DueLoanAmount = summary.TotalRepaymentAmount.Sub(summary.PaidLoanAmount)
	return summary, err
}

// Schedules

type scheduleRepo struct{ db *MemoryDB }

func (r scheduleRepo) CreateBatch(_ context.Context, schedules []*domain.EmiSchedule) error {
	return r.db.with("Schedules.CreateBatch", func(t *tables) error {
		for _, s := range schedules {
			t.schedules[s.ID] = *s
		}
		return nil
	})
}

func (r scheduleRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.EmiSchedule, error) {
	var out *domain.EmiSchedule
	err := r.db.with("Schedules.GetByID", func(t *tables) error {
		s, ok := t.schedules[id]
		if !ok {
			return sql.ErrNoRows
		}
		out = &s
		return nil
	})
	return out, err
}

func (r scheduleRepo) ListByLoan(_ context.Context, loanID uuid.UUID) ([]*domain.EmiSchedule, error) {
	var out []*domain.EmiSchedule
	err := r.db.with("Schedules.ListByLoan", func(t *tables) error {
		for _, s := range t.schedules {
			if s.LoanID == loanID {
				s := s
				out = append(out, &s)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].InstallmentNumber < out[j].InstallmentNumber })
	return out, err
}

func (r scheduleRepo) ListByStatus(_ context.Context, groupID uuid.UUID, status domain.ScheduleStatus) ([]*domain.EmiSchedule, error) {
	var out []*domain.EmiSchedule
	err := r.db.with("Schedules.ListByStatus", func(t *tables) error {
		for _, s := range t.schedules {
			if s.ShgGroupID == groupID && s.Status == status {
				s := s
				out = append(out, &s)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		if a.LoanID != b.LoanID {
			return a.LoanID.String() < b.LoanID.String()
		}
		return a.InstallmentNumber < b.InstallmentNumber
	})
	return out, err
}

func (r scheduleRepo) Transition(_ context.Context, id uuid.UUID, from, to domain.ScheduleStatus) error {
	return r.db.with("Schedules.Transition", func(t *tables) error {
		s, ok := t.schedules[id]
		if !ok || s.Status != from {
			return repository.ErrStaleState
		}
		s.Status = to
		t.schedules[id] = s
		return nil
	})
}

func (r scheduleRepo) FirstPending(ctx context.Context, loanID uuid.UUID) (*domain.EmiSchedule, error) {
	rows, err := r.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	for _, s := range rows {
		if s.Status == domain.ScheduleStatusPending {
			return s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r scheduleRepo) CompletePending(_ context.Context, loanID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.with("Schedules.CompletePending", func(t *tables) error {
		for id, s := range t.schedules {
			if s.LoanID == loanID && s.Status == domain.ScheduleStatusPending {
				s.Status = domain.ScheduleStatusCompleted
				t.schedules[id] = s
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r scheduleRepo) ListOverdue(_ context.Context, groupID uuid.UUID, now time.Time) ([]*domain.EmiSchedule, error) {
	var out []*domain.EmiSchedule
	err := r.db.with("Schedules.ListOverdue", func(t *tables) error {
		for _, s := range t.schedules {
			if s.ShgGroupID == groupID && s.Status == domain.ScheduleStatusPending &&
				!s.IsPenaltyAdded && s.FinalDueDate.Before(now) {
				s := s
				out = append(out, &s)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].FinalDueDate.Before(out[j].FinalDueDate) })
	return out, err
}

func (r scheduleRepo) ApplyPenalty(_ context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return r.db.with("Schedules.ApplyPenalty", func(t *tables) error {
		s, ok := t.schedules[id]
		if !ok || s.Status != domain.ScheduleStatusPending || s.IsPenaltyAdded {
			return repository.ErrStaleState
		}
		s.PenaltyAmount = s.PenaltyAmount.Add(amount)
		s.IsPenaltyAdded = true
		t.schedules[id] = s
		return nil
	})
}

// Payments and pre-closures

type paymentRepo struct{ db *MemoryDB }

func (r paymentRepo) Create(_ context.Context, p *domain.LoanPayment) error {
	return r.db.with("Payments.Create", func(t *tables) error {
		t.payments[p.ID] = *p
		return nil
	})
}

func (r paymentRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.LoanPayment, error) {
	var out *domain.LoanPayment
	err := r.db.with("Payments.GetByID", func(t *tables) error {
		p, ok := t.payments[id]
		if !ok {
			return sql.ErrNoRows
		}
		out = &p
		return nil
	})
	return out, err
}

func (r paymentRepo) ListByLoan(_ context.Context, loanID uuid.UUID) ([]*domain.LoanPayment, error) {
	var out []*domain.LoanPayment
	err := r.db.with("Payments.ListByLoan", func(t *tables) error {
		for _, p := range t.payments {
			if p.LoanID == loanID {
				p := p
				out = append(out, &p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentDate.Before(out[j].PaymentDate) })
	return out, err
}

func (r paymentRepo) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	return r.db.with("Payments.MarkFailed", func(t *tables) error {
		p, ok := t.payments[id]
		if !ok || p.Status != domain.PaymentStatusSuccess {
			return repository.ErrStaleState
		}
		p.Status = domain.PaymentStatusFailed
		p.RejectReason = reason
		t.payments[id] = p
		return nil
	})
}

type precloseRepo struct{ db *MemoryDB }

func (r precloseRepo) Create(_ context.Context, p *domain.LoanPreclose) error {
	return r.db.with("Precloses.Create", func(t *tables) error {
		t.precloses[p.ID] = *p
		return nil
	})
}

func (r precloseRepo) GetByLoanID(_ context.Context, loanID uuid.UUID) (*domain.LoanPreclose, error) {
	var out *domain.LoanPreclose
	err := r.db.with("Precloses.GetByLoanID", func(t *tables) error {
		for _, p := range t.precloses {
			if p.LoanID == loanID {
				p := p
				out = &p
				return nil
			}
		}
		return sql.ErrNoRows
	})
	return out, err
}

// Ledger

type transactionRepo struct{ db *MemoryDB }

func (r transactionRepo) Create(_ context.Context, tx *domain.GroupTransaction) error {
	return r.db.with("Transactions.Create", func(t *tables) error {
		t.transactions = append(t.transactions, *tx)
		return nil
	})
}

func matches(tx domain.GroupTransaction, f domain.TransactionFilter) bool {
	switch {
	case tx.ShgGroupID != f.ShgGroupID:
		return false
	case f.MemberID.Valid && (!tx.MemberID.Valid || tx.MemberID.UUID != f.MemberID.UUID):
		return false
	case f.FlowType != "" && tx.FlowType != f.FlowType:
		return false
	case f.TransactionType != "" && tx.TransactionType != f.TransactionType:
		return false
	case f.From != nil && tx.CreatedAt.Before(*f.From):
		return false
	case f.To != nil && tx.CreatedAt.After(*f.To):
		return false
	}
	return true
}

func (r transactionRepo) Totals(_ context.Context, f domain.TransactionFilter) (domain.FlowTotals, error) {
	totals := domain.FlowTotals{TotalIn: decimal.Zero, TotalOut: decimal.Zero}
	err := r.db.with("Transactions.Totals", func(t *tables) error {
		for _, tx := range t.transactions {
			if !matches(tx, f) {
				continue
			}
			if tx.FlowType == domain.FlowIn {
				totals.TotalIn = totals.TotalIn.Add(tx.Amount)
			} else {
				totals.TotalOut = totals.TotalOut.Add(tx.Amount)
			}
		}
		return nil
	})
	return totals, err
}

func (r transactionRepo) TotalsByType(_ context.Context, f domain.TransactionFilter) ([]domain.TypeTotal, error) {
	type key struct {
		t domain.TransactionType
		f domain.FlowType
	}
	sums := make(map[key]decimal.Decimal)
	err := r.db.with("Transactions.TotalsByType", func(t *tables) error {
		for _, tx := range t.transactions {
			if matches(tx, f) {
				k := key{tx.TransactionType, tx.FlowType}
				sums[k] = sums[k].Add(tx.Amount)
			}
		}
		return nil
	})

	out := make([]domain.TypeTotal, 0, len(sums))
	for k, v := range sums {
		out = append(out, domain.TypeTotal{TransactionType: k.t, FlowType: k.f, Total: v})
	}
	return out, err
}

func (r transactionRepo) List(_ context.Context, f domain.TransactionFilter) ([]*domain.GroupTransaction, error) {
	var out []*domain.GroupTransaction
	err := r.db.with("Transactions.List", func(t *tables) error {
		for i := len(t.transactions) - 1; i >= 0; i-- {
			tx := t.transactions[i]
			if matches(tx, f) {
				out = append(out, &tx)
			}
		}
		return nil
	})
	if f.Offset >= len(out) {
		return []*domain.GroupTransaction{}, err
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, err
}

// Savings

type savingsRepo struct{ db *MemoryDB }

func (r savingsRepo) Create(_ context.Context, s *domain.Savings) (bool, error) {
	created := false
	err := r.db.with("Savings.Create", func(t *tables) error {
		for _, existing := range t.savings {
			if existing.ShgGroupID == s.ShgGroupID && existing.MemberID == s.MemberID &&
				existing.CycleStartDate.Equal(s.CycleStartDate) && existing.CycleEndDate.Equal(s.CycleEndDate) {
				return nil
			}
		}
		t.savings[s.ID] = *s
		created = true
		return nil
	})
	return created, err
}

func (r savingsRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Savings, error) {
	var out *domain.Savings
	err := r.db.with("Savings.GetByID", func(t *tables) error {
		s, ok := t.savings[id]
		if !ok {
			return sql.ErrNoRows
		}
		out = &s
		return nil
	})
	return out, err
}

func inStatus(s domain.SavingsStatus, statuses []domain.SavingsStatus) bool {
	for _, want := range statuses {
		if s == want {
			return true
		}
	}
	return false
}

func (r savingsRepo) List(_ context.Context, groupID uuid.UUID, memberID uuid.NullUUID, statuses []domain.SavingsStatus) ([]*domain.Savings, error) {
	var out []*domain.Savings
	err := r.db.with("Savings.List", func(t *tables) error {
		for _, s := range t.savings {
			if s.ShgGroupID != groupID || !inStatus(s.Status, statuses) {
				continue
			}
			if memberID.Valid && s.MemberID != memberID.UUID {
				continue
			}
			s := s
			out = append(out, &s)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CycleStartDate.After(out[j].CycleStartDate) })
	return out, err
}

func (r savingsRepo) CountByCycle(_ context.Context, groupID uuid.UUID, start, end time.Time) (int, error) {
	n := 0
	err := r.db.with("Savings.CountByCycle", func(t *tables) error {
		for _, s := range t.savings {
			if s.ShgGroupID == groupID && s.CycleStartDate.Equal(start) && s.CycleEndDate.Equal(end) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r savingsRepo) Submit(_ context.Context, id uuid.UUID, paid decimal.Decimal, proof, remarks string) error {
	return r.db.with("Savings.Submit", func(t *tables) error {
		s, ok := t.savings[id]
		if !ok || !inStatus(s.Status, []domain.SavingsStatus{domain.SavingsStatusPending, domain.SavingsStatusRejected}) {
			return repository.ErrStaleState
		}
		s.Status = domain.SavingsStatusSubmitted
		s.PaidAmount = paid
		s.Proof = proof
		s.MemberRemarks = remarks
		t.savings[id] = s
		return nil
	})
}

func (r savingsRepo) Review(_ context.Context, id uuid.UUID, from []domain.SavingsStatus, status domain.SavingsStatus, paid decimal.Decimal, remarks string) error {
	return r.db.with("Savings.Review", func(t *tables) error {
		s, ok := t.savings[id]
		if !ok || !inStatus(s.Status, from) {
			return repository.ErrStaleState
		}
		s.Status = status
		s.PaidAmount = paid
		s.AdminRemarks = remarks
		t.savings[id] = s
		return nil
	})
}

func (r savingsRepo) ListOverdue(_ context.Context, groupID uuid.UUID, now time.Time) ([]*domain.Savings, error) {
	open := []domain.SavingsStatus{domain.SavingsStatusPending, domain.SavingsStatusRejected}
	var out []*domain.Savings
	err := r.db.with("Savings.ListOverdue", func(t *tables) error {
		for _, s := range t.savings {
			if s.ShgGroupID == groupID && inStatus(s.Status, open) && !s.IsPenaltyAdded && s.FinalDueDate.Before(now) {
				s := s
				out = append(out, &s)
			}
		}
		return nil
	})
	return out, err
}

func (r savingsRepo) ApplyPenalty(_ context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return r.db.with("Savings.ApplyPenalty", func(t *tables) error {
		s, ok := t.savings[id]
		open := []domain.SavingsStatus{domain.SavingsStatusPending, domain.SavingsStatusRejected}
		if !ok || !inStatus(s.Status, open) || s.IsPenaltyAdded {
			return repository.ErrStaleState
		}
		s.DueAmount = s.DueAmount.Add(amount)
		s.PenaltyAmount = s.PenaltyAmount.Add(amount)
		s.IsPenaltyAdded = true
		t.savings[id] = s
		return nil
	})
}
