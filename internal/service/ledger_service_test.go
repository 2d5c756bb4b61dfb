package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/notify"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/repository"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/testutil"
	customError "github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/errors"
)

func TestRecord_Validation(t *testing.T) {
	f := newFixture(t)
	valid := func() *domain.GroupTransaction {
		return &domain.GroupTransaction{
			ShgGroupID:      f.group,
			Amount:          dec(10),
			FlowType:        domain.FlowIn,
			TransactionType: domain.TxOthers,
			CreatedByID:     f.president.ID,
		}
	}

	tests := []struct {
		name   string
		mutate func(tx *domain.GroupTransaction)
	}{
		{"zero amount", func(tx *domain.GroupTransaction) { tx.Amount = dec(0) }},
		{"negative amount", func(tx *domain.GroupTransaction) { tx.Amount = dec(-5) }},
		{"unknown flow", func(tx *domain.GroupTransaction) { tx.FlowType = "sideways" }},
		{"unknown type", func(tx *domain.GroupTransaction) { tx.TransactionType = "bonus" }},
		{"reference id without model", func(tx *domain.GroupTransaction) {
			tx.Reference.ID = uuid.NullUUID{UUID: uuid.New(), Valid: true}
		}},
		{"reference model without id", func(tx *domain.GroupTransaction) { tx.Reference.Model = domain.RefLoan }},
		{"missing group", func(tx *domain.GroupTransaction) { tx.ShgGroupID = uuid.Nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid()
			tt.mutate(tx)

			_, err := f.ledger.Record(context.Background(), tx)

			require.Error(t, err)
			assert.Equal(t, customError.KindValidation, customError.KindOf(err))
			assert.Len(t, f.db.Transactions(), 1)
		})
	}

	_, err := f.ledger.Record(context.Background(), valid())
	require.NoError(t, err)
	assert.Len(t, f.db.Transactions(), 2)
}

func TestRecordManual(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	member := f.witness1.ID

	tx, err := f.ledger.RecordManual(ctx, &domain.ManualTransactionRequest{
		ShgGroupID:      f.group,
		MemberID:        &member,
		Amount:          dec(750),
		FlowType:        domain.FlowIn,
		TransactionType: domain.TxUserDeposit,
		CreatedByID:     f.president.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Deposit of Rs. 750 by Chitra.", tx.Notes)
	assert.Equal(t, member, tx.MemberID.UUID)

	_, err = f.ledger.RecordManual(ctx, &domain.ManualTransactionRequest{
		ShgGroupID:      f.group,
		Amount:          dec(300),
		FlowType:        domain.FlowOut,
		TransactionType: domain.TxGroupExpense,
		Notes:           "stationery",
		IsGroupActivity: true,
		CreatedByID:     f.president.ID,
	})
	require.NoError(t, err)

	assert.True(t, f.balance(t).Equal(dec(100450)))
}

func TestRecordManual_Rejections(t *testing.T) {
	f := newFixture(t)
	stranger := uuid.New()

	tests := []struct {
		name    string
		req     domain.ManualTransactionRequest
		wantErr error
	}{
		{
			name: "loan types come from the loan flows",
			req: domain.ManualTransactionRequest{
				Amount: dec(10), FlowType: domain.FlowOut, TransactionType: domain.TxLoanDisbursed, IsGroupActivity: true,
			},
			wantErr: customError.ErrInvalidArgument,
		},
		{
			name: "member required for member activity",
			req: domain.ManualTransactionRequest{
				Amount: dec(10), FlowType: domain.FlowIn, TransactionType: domain.TxUserDeposit,
			},
			wantErr: customError.ErrInvalidArgument,
		},
		{
			name: "member outside the group",
			req: domain.ManualTransactionRequest{
				Amount: dec(10), FlowType: domain.FlowIn, TransactionType: domain.TxUserDeposit, MemberID: &stranger,
			},
			wantErr: customError.ErrMemberNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			req.ShgGroupID = f.group
			req.CreatedByID = f.president.ID

			_, err := f.ledger.RecordManual(context.Background(), &req)

			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	_, err := f.ledger.RecordManual(context.Background(), &domain.ManualTransactionRequest{
		ShgGroupID: f.group, Amount: dec(10), FlowType: domain.FlowIn,
		TransactionType: domain.TxOthers, IsGroupActivity: true, CreatedByID: stranger,
	})
	assert.True(t, errors.Is(err, customError.ErrMemberNotFound), "creator must be a member")
}

func TestSummaryAndBalanceSheet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resp := f.loan(t, 12000)
	payment := f.submit(t, resp.Loan, resp.Schedule[0], dec(1100))
	_, err := f.installments.Review(ctx, &domain.ReviewPaymentRequest{
		PaymentID:  payment.ID,
		Status:     domain.ReviewApproved,
		ReviewedBy: f.president.ID,
	})
	require.NoError(t, err)

	summary, err := f.ledger.Summary(ctx, f.group, nil, nil)
	require.NoError(t, err)
	assert.True(t, summary.TotalIn.Equal(dec(101200)))
	assert.True(t, summary.TotalOut.Equal(dec(12000)))
	assert.True(t, summary.RemainingAmount.Equal(dec(89200)))

	future := f.now.Add(time.Hour)
	summary, err = f.ledger.Summary(ctx, f.group, &future, nil)
	require.NoError(t, err)
	assert.True(t, summary.TotalIn.IsZero())

	sheet, err := f.ledger.BalanceSheet(ctx, f.group, nil)
	require.NoError(t, err)
	assert.Len(t, sheet.Rows, len(domain.TransactionTypes()))
	rows := make(map[domain.TransactionType]domain.BalanceSheetRow)
	for _, r := range sheet.Rows {
		rows[r.TransactionType] = r
	}
	assert.True(t, rows[domain.TxLoanDisbursed].Out.Equal(dec(12000)))
	assert.True(t, rows[domain.TxLoanProcessingFee].In.Equal(dec(100)))
	assert.True(t, rows[domain.TxLoanInstallment].In.Equal(dec(1100)))
	assert.True(t, rows[domain.TxSavingsDeposit].In.IsZero())
	assert.True(t, sheet.Balance.Equal(dec(89200)))

	borrower := f.borrower.ID
	sheet, err = f.ledger.BalanceSheet(ctx, f.group, &borrower)
	require.NoError(t, err)
	assert.True(t, sheet.TotalIn.Equal(dec(1100)))
	assert.True(t, sheet.TotalOut.IsZero())
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.loan(t, 12000)

	all, err := f.ledger.List(ctx, domain.TransactionFilter{ShgGroupID: f.group})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, domain.TxLoanProcessingFee, all[0].TransactionType, "newest first")

	outs, err := f.ledger.List(ctx, domain.TransactionFilter{ShgGroupID: f.group, FlowType: domain.FlowOut})
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Equal(t, domain.TxLoanDisbursed, outs[0].TransactionType)

	page, err := f.ledger.List(ctx, domain.TransactionFilter{ShgGroupID: f.group, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, domain.TxLoanDisbursed, page[0].TransactionType)

	_, err = f.ledger.List(ctx, domain.TransactionFilter{ShgGroupID: f.group, FlowType: "up"})
	assert.True(t, errors.Is(err, customError.ErrInvalidArgument))
}

func TestBalance_RepositoryError(t *testing.T) {
	repo := &testutil.MockTransactionRepository{}
	group := uuid.New()
	repo.On("Totals", mock.Anything, domain.TransactionFilter{ShgGroupID: group}).
		Return(domain.FlowTotals{}, errors.New("timeout"))

	ledger := NewLedgerService(repository.Store{Transactions: repo}, notify.MustNew(), Options{})
	_, err := ledger.Balance(context.Background(), group)

	assert.True(t, errors.Is(err, customError.ErrDatabase))
	repo.AssertExpectations(t)
}

// The ledger balance always equals sum(in) - sum(out) of the stored entries,
// whatever sequence of operations produced them.
func TestLedgerInvariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.loan(t, 12000)
	second := f.loan(t, 10000)
	assert.True(t, f.balance(t).Equal(f.ledgerBalance()))

	for _, row := range first.Schedule[:3] {
		payment := f.submit(t, first.Loan, row, row.AmountDue())
		_, err := f.installments.Review(ctx, &domain.ReviewPaymentRequest{
			PaymentID:  payment.ID,
			Status:     domain.ReviewApproved,
			ReviewedBy: f.president.ID,
		})
		require.NoError(t, err)
		assert.True(t, f.balance(t).Equal(f.ledgerBalance()))
	}

	rejected := f.submit(t, second.Loan, second.Schedule[0], second.Schedule[0].AmountDue())
	_, err := f.installments.Review(ctx, &domain.ReviewPaymentRequest{
		PaymentID:  rejected.ID,
		Status:     domain.ReviewRejected,
		Reason:     "wrong account",
		ReviewedBy: f.president.ID,
	})
	require.NoError(t, err)

	_, err = f.precloses.Preclose(ctx, &domain.PrecloseRequest{
		ShgGroupID:          f.group,
		LoanID:              second.Loan.ID,
		TotalPrecloseAmount: dec(10200),
		ApprovedBy:          f.president.ID,
	})
	require.NoError(t, err)

	_, err = f.savings.Initiate(ctx, f.group, nil)
	require.NoError(t, err)
	assert.True(t, f.balance(t).Equal(f.ledgerBalance()))

	records, err := f.savings.List(ctx, f.group, &f.witness1.ID, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	_, err = f.savings.Review(ctx, records[0].ID, &domain.ReviewSavingsRequest{
		Status:     domain.SavingsStatusApproved,
		PaidAmount: dec(500),
		ApprovedBy: f.president.ID,
	})
	require.NoError(t, err)

	assert.True(t, f.balance(t).Equal(f.ledgerBalance()))
	// 100,000 - 22,000 + 200 fees + 3 x 1,100 + 10,200 + 500 savings
	assert.True(t, f.balance(t).Equal(dec(92200)), "got %s", f.balance(t))
	last := f.db.Transactions()[len(f.db.Transactions())-1]
	assert.Equal(t, domain.TxSavingsDeposit, last.TransactionType)
	assert.Equal(t, domain.RefSavings, last.Model)
}
