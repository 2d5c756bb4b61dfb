package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/lock"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/notify"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/testutil"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type fixture struct {
	db  *testutil.MemoryDB
	now time.Time

	group     uuid.UUID
	president domain.Member
	borrower  domain.Member
	witness1  domain.Member
	witness2  domain.Member

	ledger       *LedgerService
	applications *ApplicationService
	loans        *LoanService
	installments *InstallmentService
	precloses    *PrecloseService
	savings      *SavingsService
}

func testSettings(group uuid.UUID) domain.Settings {
	return domain.Settings{
		ShgGroupID: group,
		LoanSettings: domain.LoanSettings{
			WeeklyDueDay:        1,
			MonthlyDueDay:       5,
			GracePeriodDays:     3,
			PenaltyAmount:       dec(50),
			InterestType:        domain.InterestTypeFixed,
			InstallmentType:     domain.InstallmentTypeFlat,
			InterestRate:        dec(10),
			ProcessingFee:       dec(100),
			PreclosePenaltyRate: dec(2),
		},
		SavingsSettings: domain.SavingsSettings{
			Frequency:       domain.FrequencyMonthly,
			Amount:          dec(500),
			DueDay:          10,
			GracePeriodDays: 5,
			PenaltyAmount:   dec(20),
		},
	}
}

// newFixture seeds one group with four members, settings, and a fund of
// 100,000 deposited by the president. The clock starts on 1 Jan 2026.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		db:    testutil.NewMemoryDB(),
		now:   time.Date(2026, time.January, 1, 10, 0, 0, 0, time.UTC),
		group: uuid.New(),
	}
	member := func(name string, role domain.MemberRole) domain.Member {
		m := domain.Member{ID: uuid.New(), ShgGroupID: f.group, Name: name, Role: role}
		f.db.AddMember(m)
		return m
	}
	f.president = member("Asha", domain.RolePresident)
	f.borrower = member("Bina", domain.RoleMember)
	f.witness1 = member("Chitra", domain.RoleMember)
	f.witness2 = member("Devi", domain.RoleMember)
	f.db.AddSettings(testSettings(f.group))
	f.deposit(100000)

	store := f.db.Store()
	notes := notify.MustNew()
	opts := Options{Now: func() time.Time { return f.now }, WitnessCount: 2}

	f.ledger = NewLedgerService(store, notes, opts)
	f.applications = NewApplicationService(store, opts)
	f.loans = NewLoanService(store, f.ledger, lock.NewLocal(), notes, opts)
	f.installments = NewInstallmentService(store, f.ledger, notes, opts)
	f.precloses = NewPrecloseService(store, f.ledger, notes, opts)
	f.savings = NewSavingsService(store, f.ledger, notes, opts)
	return f
}

func (f *fixture) deposit(amount int64) {
	f.db.AddTransaction(domain.GroupTransaction{
		ShgGroupID:      f.group,
		MemberID:        nullID(f.president.ID),
		Amount:          dec(amount),
		FlowType:        domain.FlowIn,
		TransactionType: domain.TxUserDeposit,
		CreatedByID:     f.president.ID,
		CreatedAt:       f.now,
	})
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	b, err := f.ledger.Balance(context.Background(), f.group)
	require.NoError(t, err)
	return b
}

func (f *fixture) applicationRequest(amount int64) *domain.CreateApplicationRequest {
	return &domain.CreateApplicationRequest{
		ShgGroupID:           f.group,
		MemberID:             f.borrower.ID,
		AmountRequested:      dec(amount),
		Purpose:              "dairy cattle",
		Tenure:               1,
		InterestRate:         dec(10),
		InterestType:         domain.InterestTypeFixed,
		InstallmentType:      domain.InstallmentTypeFlat,
		InstallmentFrequency: domain.FrequencyMonthly,
		Witnesses:            []uuid.UUID{f.witness1.ID, f.witness2.ID},
	}
}

// witnessed creates an application and has both witnesses approve it.
func (f *fixture) witnessed(t *testing.T, req *domain.CreateApplicationRequest) *domain.LoanApplication {
	t.Helper()
	ctx := context.Background()

	app, err := f.applications.Create(ctx, req)
	require.NoError(t, err)
	for _, w := range req.Witnesses {
		_, err := f.applications.Act(ctx, app.Application.ID, &domain.WitnessActionRequest{
			MemberID: w,
			Status:   domain.ActionStatusApproved,
		})
		require.NoError(t, err)
	}
	return app.Application
}

// loan disburses a witnessed flat monthly loan of amount over one year.
func (f *fixture) loan(t *testing.T, amount int64) *domain.CreateLoanResponse {
	t.Helper()
	app := f.witnessed(t, f.applicationRequest(amount))
	resp, err := f.loans.CreateLoan(context.Background(), &domain.CreateLoanRequest{
		LoanApplicationID: app.ID,
		ApprovedBy:        f.president.ID,
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) submit(t *testing.T, loan *domain.Loan, schedule *domain.EmiSchedule, amount decimal.Decimal) *domain.LoanPayment {
	t.Helper()
	payment, err := f.installments.Submit(context.Background(), &domain.SubmitPaymentRequest{
		ShgGroupID:    f.group,
		LoanID:        loan.ID,
		EmiScheduleID: schedule.ID,
		MemberID:      f.borrower.ID,
		AmountPaid:    amount,
		PaymentMode:   domain.PaymentModeUPI,
	})
	require.NoError(t, err)
	return payment
}

// ledgerBalance recomputes sum(in) - sum(out) straight from the stored rows.
func (f *fixture) ledgerBalance() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range f.db.Transactions() {
		if tx.ShgGroupID != f.group {
			continue
		}
		if tx.FlowType == domain.FlowIn {
			total = total.Add(tx.Amount)
		} else {
			total = total.Sub(tx.Amount)
		}
	}
	return total
}
