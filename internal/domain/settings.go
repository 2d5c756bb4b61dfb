package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SavingsSettings struct {
	Frequency       Frequency       `json:"frequency"`
	Amount          decimal.Decimal `json:"amount"`
	DueDay          int             `json:"due_day"`
	GracePeriodDays int             `json:"grace_period_days"`
	PenaltyAmount   decimal.Decimal `json:"penalty_amount"`
}

type LoanSettings struct {
	WeeklyDueDay        int             `json:"weekly_due_day"`
	MonthlyDueDay       int             `json:"monthly_due_day"`
	GracePeriodDays     int             `json:"grace_period_days"`
	PenaltyAmount       decimal.Decimal `json:"penalty_amount"`
	InterestType        InterestType    `json:"interest_type"`
	InstallmentType     InstallmentType `json:"installment_type"`
	InterestRate        decimal.Decimal `json:"interest_rate"`
	ProcessingFee       decimal.Decimal `json:"processing_fee"`
	LoanLimit           decimal.Decimal `json:"loan_limit"`
	TenureLimit         int             `json:"tenure_limit"`
	PreclosePenaltyRate decimal.Decimal `json:"preclose_penalty_rate"`
}

// DueDay returns the configured due day for the cadence, defaulting to 1.
func (s LoanSettings) DueDay(f Frequency) int {
	day := s.MonthlyDueDay
	if f == FrequencyWeekly {
		day = s.WeeklyDueDay
	}
	if day < 1 {
		return 1
	}
	return day
}

// Settings is a group's configuration snapshot. The engine only reads it.
type Settings struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	ShgGroupID      uuid.UUID       `json:"shg_group_id" db:"shg_group_id"`
	SavingsSettings SavingsSettings `json:"savings_settings" db:"savings_settings"`
	LoanSettings    LoanSettings    `json:"loan_settings" db:"loan_settings"`
}

func (s SavingsSettings) Value() (driver.Value, error) { return json.Marshal(s) }

func (s *SavingsSettings) Scan(src any) error { return scanJSON(src, s) }

func (s LoanSettings) Value() (driver.Value, error) { return json.Marshal(s) }

func (s *LoanSettings) Scan(src any) error { return scanJSON(src, s) }

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	}
	return fmt.Errorf("unsupported settings column type %T", src)
}
