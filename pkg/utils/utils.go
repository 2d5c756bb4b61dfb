package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

var half = decimal.NewFromFloat(0.5)

// RoundCurrency rounds to whole currency units, half up (toward +inf),
// matching how the group's books have always been rounded.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of t's day in its own location.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// ISOWeekday maps time.Weekday to 1 (Monday) .. 7 (Sunday).
func ISOWeekday(t time.Time) int {
	return (int(t.Weekday())+6)%7 + 1
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// MonthDay returns day `day` of the given month, clamped to the month length.
// Month overflow is normalised (month 13 is January of the next year).
func MonthDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	year, month = first.Year(), first.Month()
	if day < 1 {
		day = 1
	}
	if last := DaysIn(year, month, loc); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// NextWeekday returns the first date on or after from whose ISO weekday is isoDay.
func NextWeekday(from time.Time, isoDay int) time.Time {
	if isoDay < 1 || isoDay > 7 {
		isoDay = 1
	}
	from = StartOfDay(from)
	offset := (isoDay - ISOWeekday(from) + 7) % 7
	return from.AddDate(0, 0, offset)
}

// NextMonthDay returns the first date on or after from that falls on day-of-month
// `day` (clamped to short months).
func NextMonthDay(from time.Time, day int) time.Time {
	from = StartOfDay(from)
	candidate := MonthDay(from.Year(), from.Month(), day, from.Location())
	if candidate.Before(from) {
		candidate = MonthDay(from.Year(), from.Month()+1, day, from.Location())
	}
	return candidate
}

// MonthBounds returns the first and last day of t's calendar month.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 1, -1)
	return start, end
}

// ISOWeekBounds returns the Monday and Sunday of t's ISO week.
func ISOWeekBounds(t time.Time) (time.Time, time.Time) {
	start := StartOfDay(t).AddDate(0, 0, -(ISOWeekday(t) - 1))
	return start, start.AddDate(0, 0, 6)
}

// IsDateOverdue reports whether the due date has passed at now.
func IsDateOverdue(dueDate, now time.Time) bool {
	return now.After(dueDate)
}
