package core

import (
	"encoding/json"
	"time"
)

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year, month int) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay limits day to the last valid day of the given month.
func ClampDay(year, month, day int) int {
	if last := DaysInMonth(year, month); day > last {
		return last
	}
	return day
}

// AddMonths shifts a date by n calendar months, clamping the day of month to
// the target month's length: Jan 31 + 1 month is Feb 28 (29 on leap years).
// Plain time.AddDate would overflow into the following month instead.
func AddMonths(d Date, n int) Date {
	year := d.Year()
	month := d.Month() + n
	// Normalize month into 1..12, borrowing from the year.
	year += (month - 1) / 12
	month = (month-1)%12 + 1
	if month < 1 {
		month += 12
		year--
	}
	return NewDate(year, month, ClampDay(year, month, d.Day()))
}

// SubMonths shifts a date back by n calendar months with day clamping.
func SubMonths(d Date, n int) Date {
	return AddMonths(d, -n)
}

// AddDays shifts a date by n days.
func AddDays(d Date, n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// MonthStart returns the first day of the given month.
func MonthStart(year, month int) Date {
	return NewDate(year, month, 1)
}

// MonthEnd returns the last day of the given month.
func MonthEnd(year, month int) Date {
	return NewDate(year, month, DaysInMonth(year, month))
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD" and full RFC 3339 timestamps,
// truncating the latter to the calendar day.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidDate
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	if parsed, err := ParseDate(s); err == nil {
		*d = parsed
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return ErrInvalidDate
	}
	*d = NewDate(t.Year(), int(t.Month()), t.Day())
	return nil
}
