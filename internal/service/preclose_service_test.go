package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
	customError "github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/errors"
)

func TestPrecloseCharge(t *testing.T) {
	tests := []struct {
		balance, rate string
		want          int64
	}{
		{"10000", "2", 200},
		{"10900", "2", 218},
		{"1025", "2", 21}, // 20.5 rounds up
		{"1024", "2", 20}, // 20.48
		{"5000", "0", 0},
		{"3333", "1.5", 50}, // 49.995
	}
	for _, tt := range tests {
		got := PrecloseCharge(decimal.RequireFromString(tt.balance), decimal.RequireFromString(tt.rate))
		assert.True(t, got.Equal(dec(tt.want)), "%s @ %s%%: got %s", tt.balance, tt.rate, got)
	}
}

func TestPreclose_OfferMustCoverCharge(t *testing.T) {
	f := newFixture(t)
	resp := f.loan(t, 10000)
	ctx := context.Background()
	before := f.balance(t)

	quote, err := f.precloses.Quote(ctx, resp.Loan.ID)
	require.NoError(t, err)
	assert.True(t, quote.PrincipalBalance.Equal(dec(10000)))
	assert.True(t, quote.PrecloseCharge.Equal(dec(200)))
	assert.True(t, quote.RequiredTotal.Equal(dec(10200)))

	req := &domain.PrecloseRequest{
		ShgGroupID:          f.group,
		LoanID:              resp.Loan.ID,
		TotalPrecloseAmount: dec(10000),
		ApprovedBy:          f.president.ID,
	}
	_, err = f.precloses.Preclose(ctx, req)
	assert.True(t, errors.Is(err, customError.ErrPrecloseAmountTooLow))
	assert.Equal(t, domain.LoanStatusActive, f.db.Loan(resp.Loan.ID).Status)
	assert.True(t, f.balance(t).Equal(before))

	req.TotalPrecloseAmount = dec(10200)
	preclose, err := f.precloses.Preclose(ctx, req)
	require.NoError(t, err)

	assert.True(t, preclose.PrincipalAmount.Equal(dec(10000)))
	assert.True(t, preclose.PrecloseChargeAmount.Equal(dec(200)))
	require.NotNil(t, preclose.CloseOnInstallmentNo)
	assert.Equal(t, 1, *preclose.CloseOnInstallmentNo)

	loan := f.db.Loan(resp.Loan.ID)
	assert.Equal(t, domain.LoanStatusClosed, loan.Status)
	assert.True(t, loan.IsLoanPreclosed)
	for _, row := range resp.Schedule {
		assert.Equal(t, domain.ScheduleStatusCompleted, f.db.Schedule(row.ID).Status)
	}

	assert.True(t, f.balance(t).Equal(before.Add(dec(10200))))
	txs := f.db.Transactions()
	last := txs[len(txs)-1]
	assert.Equal(t, domain.TxLoanPreclose, last.TransactionType)
	assert.Equal(t, domain.RefLoanPreclose, last.Model)
	assert.Equal(t, preclose.ID, last.Reference.ID.UUID)
	assert.Contains(t, last.Notes, "01/01/2026")
	assert.Contains(t, last.Notes, "Asha")

	_, err = f.precloses.Preclose(ctx, req)
	assert.True(t, errors.Is(err, customError.ErrLoanAlreadyClosed))
	_, err = f.precloses.Quote(ctx, resp.Loan.ID)
	assert.True(t, errors.Is(err, customError.ErrLoanAlreadyClosed))
}

func TestPreclose_AfterInstallments(t *testing.T) {
	f := newFixture(t)
	resp := f.loan(t, 12000)
	ctx := context.Background()

	payment := f.submit(t, resp.Loan, resp.Schedule[0], dec(1100))
	_, err := f.installments.Review(ctx, &domain.ReviewPaymentRequest{
		PaymentID:  payment.ID,
		Status:     domain.ReviewApproved,
		ReviewedBy: f.president.ID,
	})
	require.NoError(t, err)

	// 10,900 left, 2% is 218
	preclose, err := f.precloses.Preclose(ctx, &domain.PrecloseRequest{
		ShgGroupID:          f.group,
		LoanID:              resp.Loan.ID,
		TotalPrecloseAmount: dec(11118),
		ApprovedBy:          f.president.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, *preclose.CloseOnInstallmentNo)
}

func TestPreclose_Rejections(t *testing.T) {
	f := newFixture(t)
	resp := f.loan(t, 10000)
	otherGroup := newFixture(t)

	tests := []struct {
		name    string
		mutate  func(r *domain.PrecloseRequest)
		wantErr error
	}{
		{
			name:    "approver outside the group",
			mutate:  func(r *domain.PrecloseRequest) { r.ApprovedBy = otherGroup.president.ID },
			wantErr: customError.ErrMemberNotFound,
		},
		{
			name:    "loan of another group",
			mutate:  func(r *domain.PrecloseRequest) { r.ShgGroupID = otherGroup.group },
			wantErr: customError.ErrLoanNotFound,
		},
		{
			name:    "unknown loan",
			mutate:  func(r *domain.PrecloseRequest) { r.LoanID = otherGroup.group },
			wantErr: customError.ErrLoanNotFound,
		},
		{
			name:    "one below the required total",
			mutate:  func(r *domain.PrecloseRequest) { r.TotalPrecloseAmount = dec(10199) },
			wantErr: customError.ErrPrecloseAmountTooLow,
		},
		{
			name:    "zero offer",
			mutate:  func(r *domain.PrecloseRequest) { r.TotalPrecloseAmount = dec(0) },
			wantErr: customError.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &domain.PrecloseRequest{
				ShgGroupID:          f.group,
				LoanID:              resp.Loan.ID,
				TotalPrecloseAmount: dec(10200),
				ApprovedBy:          f.president.ID,
			}
			tt.mutate(req)

			_, err := f.precloses.Preclose(context.Background(), req)

			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, domain.LoanStatusActive, f.db.Loan(resp.Loan.ID).Status)
		})
	}
}

func TestPreclose_LedgerFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	resp := f.loan(t, 10000)
	f.db.Fail["Transactions.Create"] = errors.New("connection reset")

	_, err := f.precloses.Preclose(context.Background(), &domain.PrecloseRequest{
		ShgGroupID:          f.group,
		LoanID:              resp.Loan.ID,
		TotalPrecloseAmount: dec(10200),
		ApprovedBy:          f.president.ID,
	})

	require.Error(t, err)
	assert.Equal(t, domain.LoanStatusActive, f.db.Loan(resp.Loan.ID).Status)
	assert.Equal(t, domain.ScheduleStatusPending, f.db.Schedule(resp.Schedule[0].ID).Status)
}
