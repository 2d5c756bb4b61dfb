package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	r := MustNew()

	tests := []struct {
		name     string
		template Template
		data     map[string]any
		want     string
	}{
		{
			name:     "installment with penalty",
			template: LoanInstallmentWithPenalty,
			data: map[string]any{
				"member_name": "Sunita", "amount": "1150", "loan_id": "L1",
				"installment_number": 3, "penalty_amount": "50",
			},
			want: "Installment 3 of Rs. 1150 paid by Sunita for loan L1, including a penalty of Rs. 50.",
		},
		{
			name:     "disbursement",
			template: LoanApproval,
			data:     map[string]any{"member_name": "Asha", "amount": "5000"},
			want:     "Loan of Rs. 5000 disbursed to Asha.",
		},
		{
			name:     "missing keys render empty",
			template: UserDeposit,
			data:     map[string]any{"amount": "10"},
			want:     "Deposit of Rs. 10 by .",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Render(tt.template, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderEscapesMarkup(t *testing.T) {
	got, err := MustNew().Render(LoanApproval, map[string]any{"member_name": "<b>x</b>", "amount": "1"})
	require.NoError(t, err)
	assert.NotContains(t, got, "<b>")
}

func TestOverrides(t *testing.T) {
	r, err := New(map[Template]string{UserDeposit: "{{member_name}} paid {{amount}}"})
	require.NoError(t, err)

	got, err := r.Render(UserDeposit, map[string]any{"member_name": "Meera", "amount": "200"})
	require.NoError(t, err)
	assert.Equal(t, "Meera paid 200", got)

	_, err = New(map[Template]string{"BOGUS": "x"})
	assert.Error(t, err)

	_, err = New(map[Template]string{UserDeposit: "{{#if}}"})
	assert.Error(t, err)

	_, err = r.Render("BOGUS", nil)
	assert.Error(t, err)
}
