package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
	customError "github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/errors"
)

func TestSubmitAndApprove(t *testing.T) {
	f := newFixture(t)
	resp := f.loan(t, 12000)
	ctx := context.Background()
	before := f.balance(t)
	first := resp.Schedule[0]

	payment := f.submit(t, resp.Loan, first, dec(1100))

	assert.Equal(t, domain.PaymentStatusSuccess, payment.Status)
	assert.Equal(t, domain.ScheduleStatusSubmitted, f.db.Schedule(first.ID).Status)
	assert.True(t, f.db.Loan(resp.Loan.ID).PrincipalBalance.Equal(dec(12000)), "submit must not touch the balance")
	assert.True(t, f.balance(t).Equal(before), "submit must not touch the ledger")

	_, err := f.installments.Review(ctx, &domain.ReviewPaymentRequest{
		PaymentID:  payment.ID,
		Status:     domain.ReviewApproved,
		ReviewedBy: f.president.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ScheduleStatusCompleted, f.db.Schedule(first.ID).Status)
	assert.True(t, f.db.Loan(resp.Loan.ID).PrincipalBalance.Equal(dec(10900)))
	assert.True(t, f.balance(t).Equal(before.Add(dec(1100))))

	txs := f.db.Transactions()
	last := txs[len(txs)-1]
	assert.Equal(t, domain.TxLoanInstallment, last.TransactionType)
	assert.Equal(t, domain.FlowIn, last.FlowType)
	assert.Equal(t, domain.RefLoanPayment, last.Model)
	assert.Equal(t, payment.ID, last.Reference.ID.UUID)
	assert.Equal(t, f.borrower.ID, last.MemberID.UUID)
	assert.NotContains(t, last.Notes, "penalty")

	detail, err := f.loans.GetLoan(ctx, resp.Loan.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.CurrentInstallment.InstallmentNumber)
}

func TestSubmit_Overpayment(t *testing.T) {
	f := newFixture(t)
	resp := f.loan(t, 12000)

	payment := f.submit(t, resp.Loan, resp.Schedule[0], dec(1500))

	_, err := f.installments.Review(context.Background(), &domain.ReviewPaymentRequest{
		PaymentID:  payment.ID,
		Status:     domain.ReviewApproved,
		ReviewedBy: f.president.ID,
	})
	require.NoError(t, err)
	assert.True(t, f.db.Loan(resp.Loan.ID).PrincipalBalance.Equal(dec(10500)))
}

func TestSubmit_Rejections(t *testing.T) {
	f := newFixture(t)
	resp := f.loan(t, 12000)
	other := f.loan(t, 6000)
	first := resp.Schedule[0]

	tests := []struct {
		name    string
		mutate  func(r *domain.SubmitPaymentRequest)
		wantErr error
	}{
		{
			name:    "one below the installment",
			mutate:  func(r *domain.SubmitPaymentRequest) { r.AmountPaid = dec(1099) },
			wantErr: customError.ErrUnderpayment,
		},
		{
			name:    "zero amount",
			mutate:  func(r *domain.SubmitPaymentRequest) { r.AmountPaid = dec(0) },
			wantErr: customError.ErrInvalidAmount,
		},
		{
			name:    "unknown installment",
			mutate:  func(r *domain.SubmitPaymentRequest) { r.EmiScheduleID = uuid.New() },
			wantErr: customError.ErrInstallmentNotFound,
		},
		{
			name:    "installment of another loan",
			mutate:  func(r *domain.SubmitPaymentRequest) { r.LoanID = other.Loan.ID },
			wantErr: customError.ErrInstallmentNotFound,
		},
		{
			name:    "payer outside the group",
			mutate:  func(r *domain.SubmitPaymentRequest) { r.MemberID = uuid.New() },
			wantErr: customError.ErrMemberNotFound,
		},
		{
			name:    "bad payment mode",
			mutate:  func(r *domain.SubmitPaymentRequest) { r.PaymentMode = "cheque" },
			wantErr: customError.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &domain.SubmitPaymentRequest{
				ShgGroupID:    f.group,
				LoanID:        resp.Loan.ID,
				EmiScheduleID: first.ID,
				MemberID:      f.borrower.ID,
				AmountPaid:    dec(1100),
			}
			tt.mutate(req)

			_, err := f.installments.Submit(context.Background(), req)

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, domain.ScheduleStatusPending, f.db.Schedule(first.ID).Status)
		})
	}
}

func TestSubmit_NotPending(t *testing.T) {
	f := newFixture(t)
	resp := f.loan(t, 12000)
	first := resp.Schedule[0]
	f.submit(t, resp.Loan, first, dec(1100))

	_, err := f.installments.Submit(context.Background(), &domain.SubmitPaymentRequest{
		ShgGroupID:    f.group,
		LoanID:        resp.Loan.ID,
		EmiScheduleID: first.ID,
		MemberID:      f.borrower.ID,
		AmountPaid:    dec(1100),
	})

	assert.True(t, errors.Is(err, customError.ErrInstallmentNotPending))
	assert.Equal(t, customError.KindConflict, customError.KindOf(err))
}

func TestApprove_Twice(t *testing.T) {
	f := newFixture(t)
	resp := f.loan(t, 12000)
	ctx := context.Background()
	payment := f.submit(t, resp.Loan, resp.Schedule[0], dec(1100))
	req := &domain.ReviewPaymentRequest{
		PaymentID:  payment.ID,
		Status:     domain.ReviewApproved,
		ReviewedBy: f.president.ID,
	}

	_, err := f.installments.Review(ctx, req)
	require.NoError(t, err)
	entries := len(f.db.Transactions())

	_, err = f.installments.Review(ctx, req)

	assert.True(t, errors.Is(err, customError.ErrInstallmentNotSubmitted))
	assert.Len(t, f.db.Transactions(), entries)
	assert.True(t, f.db.Loan(resp.Loan.ID).PrincipalBalance.Equal(dec(10900)))
}

func TestApprove_ConcurrentReviewsPostOnce(t *testing.T) {
	f := newFixture(t)
	resp := f.loan(t, 12000)
	payment := f.submit(t, resp.Loan, resp.Schedule[0], dec(1100))
	entries := len(f.db.Transactions())

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.installments.Review(context.Background(), &domain.ReviewPaymentRequest{
				PaymentID:  payment.ID,
				Status:     domain.ReviewApproved,
				ReviewedBy: f.president.ID,
			})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, f.db.Transactions(), entries+1)
	assert.True(t, f.db.Loan(resp.Loan.ID).PrincipalBalance.Equal(dec(10900)))
}

func TestApprove_LedgerFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	resp := f.loan(t, 12000)
	first := resp.Schedule[0]
	payment := f.submit(t, resp.Loan, first, dec(1100))
	f.db.Fail["Transactions.Create"] = errors.New("disk full")

	_, err := f.installments.Review(context.Background(), &domain.ReviewPaymentRequest{
		PaymentID:  payment.ID,
		Status:     domain.ReviewApproved,
		ReviewedBy: f.president.ID,
	})

	require.Error(t, err)
	assert.Equal(t, domain.ScheduleStatusSubmitted, f.db.Schedule(first.ID).Status)
	assert.True(t, f.db.Loan(resp.Loan.ID).PrincipalBalance.Equal(dec(12000)))
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	resp := f.loan(t, 12000)
	ctx := context.Background()
	first := resp.Schedule[0]
	payment := f.submit(t, resp.Loan, first, dec(1100))
	before := f.balance(t)

	_, err := f.installments.Review(ctx, &domain.ReviewPaymentRequest{
		PaymentID:  payment.ID,
		Status:     domain.ReviewRejected,
		ReviewedBy: f.president.ID,
	})
	assert.True(t, errors.Is(err, customError.ErrInvalidArgument), "reason is required")

	got, err := f.installments.Review(ctx, &domain.ReviewPaymentRequest{
		PaymentID:  payment.ID,
		Status:     domain.ReviewRejected,
		Reason:     "UPI reference not found",
		ReviewedBy: f.president.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, got.Status)
	assert.Equal(t, domain.ScheduleStatusPending, f.db.Schedule(first.ID).Status)
	assert.True(t, f.balance(t).Equal(before))
	assert.True(t, f.db.Loan(resp.Loan.ID).PrincipalBalance.Equal(dec(12000)))

	_, err = f.installments.Review(ctx, &domain.ReviewPaymentRequest{
		PaymentID:  payment.ID,
		Status:     domain.ReviewApproved,
		ReviewedBy: f.president.ID,
	})
	assert.True(t, errors.Is(err, customError.ErrPaymentAlreadyReviewed))

	// the member can pay again
	f.submit(t, resp.Loan, first, dec(1100))
	assert.Equal(t, domain.ScheduleStatusSubmitted, f.db.Schedule(first.ID).Status)
}

func TestSchedule(t *testing.T) {
	f := newFixture(t)
	resp := f.loan(t, 12000)

	sched, err := f.installments.Schedule(context.Background(), resp.Loan.ID)

	require.NoError(t, err)
	require.Len(t, sched.Schedule, 12)
	for i, row := range sched.Schedule {
		assert.Equal(t, i+1, row.InstallmentNumber)
	}
	assert.Equal(t, 1, sched.CurrentInstallment.InstallmentNumber)
}

func TestListByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	approve := func(p *domain.LoanPayment) {
		t.Helper()
		_, err := f.installments.Review(ctx, &domain.ReviewPaymentRequest{
			PaymentID:  p.ID,
			Status:     domain.ReviewApproved,
			ReviewedBy: f.president.ID,
		})
		require.NoError(t, err)
	}

	a := f.loan(t, 12000)
	f.now = f.now.Add(time.Hour)
	b := f.loan(t, 10000)

	paid := f.submit(t, a.Loan, a.Schedule[0], dec(1100))
	approve(paid)
	awaiting := f.submit(t, a.Loan, a.Schedule[1], dec(1100))

	bounced := f.submit(t, b.Loan, b.Schedule[0], b.Schedule[0].AmountDue())
	_, err := f.installments.Review(ctx, &domain.ReviewPaymentRequest{
		PaymentID:  bounced.ID,
		Status:     domain.ReviewRejected,
		Reason:     "UPI reference not found",
		ReviewedBy: f.president.ID,
	})
	require.NoError(t, err)
	f.now = f.now.Add(time.Minute)
	resent := f.submit(t, b.Loan, b.Schedule[0], b.Schedule[0].AmountDue())

	submitted, err := f.installments.ListByStatus(ctx, f.group, domain.ScheduleStatusSubmitted)
	require.NoError(t, err)
	require.Len(t, submitted, 2)
	assert.False(t, submitted[1].Installment.DueDate.Before(submitted[0].Installment.DueDate), "earliest due first")

	byRow := map[uuid.UUID]*domain.InstallmentQueueItem{}
	for _, item := range submitted {
		assert.Equal(t, domain.ScheduleStatusSubmitted, item.Installment.Status)
		assert.Equal(t, f.borrower.ID, item.MemberID)
		byRow[item.Installment.ID] = item
	}
	require.Contains(t, byRow, a.Schedule[1].ID)
	require.Contains(t, byRow, b.Schedule[0].ID)
	assert.Equal(t, awaiting.ID, byRow[a.Schedule[1].ID].Payment.ID)
	assert.Equal(t, resent.ID, byRow[b.Schedule[0].ID].Payment.ID, "failed payments are skipped")

	completed, err := f.installments.ListByStatus(ctx, f.group, domain.ScheduleStatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, paid.ID, completed[0].Payment.ID)

	pending, err := f.installments.ListByStatus(ctx, f.group, domain.ScheduleStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 21)
	for _, item := range pending {
		assert.Nil(t, item.Payment)
	}

	for _, status := range []domain.ScheduleStatus{"", "overdue"} {
		_, err := f.installments.ListByStatus(ctx, f.group, status)
		assert.True(t, errors.Is(err, customError.ErrInvalidArgument), "status %q", status)
	}

	f.db.Fail["Schedules.ListByStatus"] = errors.New("connection reset")
	_, err = f.installments.ListByStatus(ctx, f.group, domain.ScheduleStatusSubmitted)
	assert.Equal(t, customError.KindInternal, customError.KindOf(err))
}

func TestPenaltySweep(t *testing.T) {
	f := newFixture(t)
	resp := f.loan(t, 12000)
	ctx := context.Background()
	first, second := resp.Schedule[0], resp.Schedule[1]

	// before the grace period ends nothing is overdue
	f.now = time.Date(2026, time.February, 7, 12, 0, 0, 0, time.UTC)
	res, err := f.installments.ApplyGroupPenalties(ctx, f.group)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Updated)

	f.now = time.Date(2026, time.February, 20, 0, 0, 0, 0, time.UTC)
	res, err = f.installments.ApplyGroupPenalties(ctx, f.group)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, []uuid.UUID{first.ID}, res.UpdatedRecords)
	assert.True(t, res.PenaltyAmount.Equal(dec(50)))

	row := f.db.Schedule(first.ID)
	assert.True(t, row.IsPenaltyAdded)
	assert.True(t, row.PenaltyAmount.Equal(dec(50)))

	// a second sweep changes nothing
	res, err = f.installments.ApplyGroupPenalties(ctx, f.group)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Updated)
	assert.True(t, f.db.Schedule(first.ID).PenaltyAmount.Equal(dec(50)))

	_, err = f.installments.ApplyPenalty(ctx, first.ID)
	assert.True(t, errors.Is(err, customError.ErrPenaltyAlreadyAdded))
	_, err = f.installments.ApplyPenalty(ctx, second.ID)
	assert.True(t, errors.Is(err, customError.ErrNotYetDue))

	// the penalty is now part of the amount due
	_, err = f.installments.Submit(ctx, &domain.SubmitPaymentRequest{
		ShgGroupID:    f.group,
		LoanID:        resp.Loan.ID,
		EmiScheduleID: first.ID,
		MemberID:      f.borrower.ID,
		AmountPaid:    dec(1100),
	})
	assert.True(t, errors.Is(err, customError.ErrUnderpayment))

	payment := f.submit(t, resp.Loan, first, dec(1150))
	_, err = f.installments.Review(ctx, &domain.ReviewPaymentRequest{
		PaymentID:  payment.ID,
		Status:     domain.ReviewApproved,
		ReviewedBy: f.president.ID,
	})
	require.NoError(t, err)

	txs := f.db.Transactions()
	assert.Contains(t, txs[len(txs)-1].Notes, "penalty of Rs. 50")

	_, err = f.installments.ApplyPenalty(ctx, first.ID)
	assert.True(t, errors.Is(err, customError.ErrInstallmentNotPending))
}

func TestApplyPenalty_Single(t *testing.T) {
	f := newFixture(t)
	resp := f.loan(t, 12000)
	f.now = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	row, err := f.installments.ApplyPenalty(context.Background(), resp.Schedule[0].ID)

	require.NoError(t, err)
	assert.True(t, row.IsPenaltyAdded)
	assert.True(t, row.AmountDue().Equal(dec(1150)))
}

func TestPenaltySweep_ZeroPenaltyIsNoop(t *testing.T) {
	f := newFixture(t)
	s := testSettings(f.group)
	s.LoanSettings.PenaltyAmount = dec(0)
	f.db.AddSettings(s)
	resp := f.loan(t, 12000)
	f.now = time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

	res, err := f.installments.ApplyGroupPenalties(context.Background(), f.group)

	require.NoError(t, err)
	assert.Equal(t, 0, res.Updated)
	assert.False(t, f.db.Schedule(resp.Schedule[0].ID).IsPenaltyAdded)
}
