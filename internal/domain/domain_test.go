package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceValidate(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		ref     Reference
		wantErr bool
	}{
		{name: "no reference", ref: NoReference()},
		{name: "loan", ref: LoanRef(id)},
		{name: "payment", ref: LoanPaymentRef(id)},
		{name: "preclose", ref: LoanPrecloseRef(id)},
		{name: "savings", ref: SavingsRef(id)},
		{name: "id without model", ref: Reference{ID: uuid.NullUUID{UUID: id, Valid: true}}, wantErr: true},
		{name: "model without id", ref: Reference{Model: RefLoan}, wantErr: true},
		{name: "nil id", ref: LoanRef(uuid.Nil), wantErr: true},
		{name: "unknown model", ref: Reference{Model: "invoice", ID: uuid.NullUUID{UUID: id, Valid: true}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ref.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTransactionTypes(t *testing.T) {
	assert.True(t, TxLoanInstallment.Valid())
	assert.False(t, TransactionType("refund").Valid())

	assert.True(t, TxGroupExpense.Manual())
	assert.False(t, TxLoanDisbursed.Manual())

	types := TransactionTypes()
	types[0] = "mutated"
	assert.Equal(t, TxUserDeposit, TransactionTypes()[0])
}

func TestWitnessesCleared(t *testing.T) {
	approved := &LoanApplicationAction{Status: ActionStatusApproved}
	pending := &LoanApplicationAction{Status: ActionStatusPending}
	rejected := &LoanApplicationAction{Status: ActionStatusRejected}

	assert.False(t, WitnessesCleared(nil))
	assert.True(t, WitnessesCleared([]*LoanApplicationAction{approved, approved}))
	assert.False(t, WitnessesCleared([]*LoanApplicationAction{approved, pending}))
	assert.False(t, WitnessesCleared([]*LoanApplicationAction{approved, rejected}))
}

func TestLoanSettingsDueDay(t *testing.T) {
	s := LoanSettings{WeeklyDueDay: 3, MonthlyDueDay: 15}
	assert.Equal(t, 3, s.DueDay(FrequencyWeekly))
	assert.Equal(t, 15, s.DueDay(FrequencyMonthly))
	assert.Equal(t, 1, LoanSettings{}.DueDay(FrequencyMonthly))
}

func TestSettingsScan(t *testing.T) {
	var ls LoanSettings
	require.NoError(t, ls.Scan([]byte(`{"penalty_amount":"50","preclose_penalty_rate":2,"monthly_due_day":10}`)))
	assert.True(t, ls.PenaltyAmount.Equal(decimal.NewFromInt(50)))
	assert.True(t, ls.PreclosePenaltyRate.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, 10, ls.MonthlyDueDay)

	var ss SavingsSettings
	require.NoError(t, ss.Scan(`{"frequency":"weekly","amount":"100","due_day":2}`))
	assert.Equal(t, FrequencyWeekly, ss.Frequency)

	assert.Error(t, ss.Scan(42))

	v, err := ss.Value()
	require.NoError(t, err)
	assert.Contains(t, string(v.([]byte)), `"frequency":"weekly"`)
}

func TestFrequencyPeriodsPerYear(t *testing.T) {
	assert.Equal(t, 12, FrequencyMonthly.PeriodsPerYear())
	assert.Equal(t, 52, FrequencyWeekly.PeriodsPerYear())
}
