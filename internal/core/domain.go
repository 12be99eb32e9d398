package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Date is a day-granular calendar date, stored as UTC midnight.
	Date struct {
		time.Time
	}

	// Money is an exact currency amount in cents.
	Money struct {
		Cents int64
	}

	// Category labels expenses. Inactive categories stay attached to
	// historical expenses but are hidden from pickers.
	Category struct {
		ID       int64
		Name     string
		IsActive bool
	}

	// Card is a credit card. ClosingDay is the statement closing
	// day-of-month (1..31); days past a month's length clamp to the
	// month's last day when resolving periods.
	Card struct {
		ID         int64
		Name       string
		ClosingDay int
		IsActive   bool
	}

	// Expense is the canonical unit of spend. Value is always the total
	// of the purchase; installment purchases additionally carry the
	// per-installment value and count. A nil Card means debit/cash.
	Expense struct {
		ID               int64
		Name             string
		Note             string
		Value            Money
		Responsible      string
		Category         Category
		Card             *Card
		Date             Date
		IsInstallment    bool
		InstallmentCount int
		InstallmentValue Money
	}

	// Occurrence is one dated, valued instance contributed by an expense:
	// the expense itself, or one of its installments.
	Occurrence struct {
		ExpenseID        int64
		Name             string
		Note             string
		Date             Date
		Value            Money
		InstallmentIndex int
		InstallmentCount int
		Responsible      string
		Category         Category
		Card             *Card
	}

	// Goal is a savings target. Its current value is always derived from
	// the live contributions, never stored independently.
	Goal struct {
		ID            int64
		Name          string
		TargetValue   Money
		TargetDate    Date
		CreatedAt     time.Time
		Contributions []Contribution
	}

	// Contribution is a single deposit toward a goal.
	Contribution struct {
		ID          int64
		GoalID      int64
		Value       Money
		Responsible string
		Date        Date
	}
)

// DefaultResponsible is assigned when an expense omits the responsible field.
const DefaultResponsible = "Eu"

var (
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInvalidDate             = errors.New("invalid date")
	ErrEmptyName               = errors.New("empty name")
	ErrInvalidClosingDay       = errors.New("closing day must be between 1 and 31")
	ErrMissingCategory         = errors.New("missing category")
	ErrInvalidInstallmentCount = errors.New("installment count must be at least 2")
	ErrInvalidInstallmentValue = errors.New("installment value must be positive")
	ErrInstallmentTotal        = errors.New("total must equal installment count times installment value")
)

// NewDate creates a Date from year, month and day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Today returns the current date in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Year returns the calendar year.
func (d Date) Year() int { return d.Time.Year() }

// Month returns the calendar month, 1-12.
func (d Date) Month() int { return int(d.Time.Month()) }

// Day returns the day of the month.
func (d Date) Day() int { return d.Time.Day() }

// Before reports whether d falls on an earlier day than other.
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }

// After reports whether d falls on a later day than other.
func (d Date) After(other Date) bool { return d.Time.After(other.Time) }

// Equal reports whether d and other are the same day.
func (d Date) Equal(other Date) bool { return d.Time.Equal(other.Time) }

func (d Date) String() string { return d.Format("2006-01-02") }

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (c Card) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.ClosingDay < 1 || c.ClosingDay > 31 {
		return ErrInvalidClosingDay
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.Category.ID == 0 {
		return ErrMissingCategory
	}
	if err := e.Value.Validate(); err != nil {
		return err
	}
	if e.IsInstallment {
		if e.InstallmentCount < 2 {
			return ErrInvalidInstallmentCount
		}
		if e.InstallmentValue.Cents <= 0 {
			return ErrInvalidInstallmentValue
		}
		if e.Value.Cents != int64(e.InstallmentCount)*e.InstallmentValue.Cents {
			return ErrInstallmentTotal
		}
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := g.TargetValue.Validate(); err != nil {
		return err
	}
	return g.TargetDate.Validate()
}

// CurrentValue is the sum of the goal's live contributions.
func (g Goal) CurrentValue() Money {
	var cents int64
	for _, c := range g.Contributions {
		cents += c.Value.Cents
	}
	return Money{Cents: cents}
}

func (c Contribution) Validate() error {
	if strings.TrimSpace(c.Responsible) == "" {
		return errors.New("empty responsible")
	}
	if err := c.Value.Validate(); err != nil {
		return err
	}
	return c.Date.Validate()
}
