package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Monthly RepetitionTypes = "monthly"
	Yearly  RepetitionTypes = "yearly"
	Weekly  RepetitionTypes = "weekly"
	Daily   RepetitionTypes = "daily"
)

const maxDescriptionLen = 200

type (
	RepetitionTypes string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Expense struct {
		ID          int64
		Date        Date
		Description string
		Amount      Money
		Category    string
	}

	// RecurringPayment is a template that produces one expense per occurrence
	// between StartDate and the optional EndDate.
	RecurringPayment struct {
		ID            int64
		StartDate     Date
		EndDate       Date // zero means open-ended
		Every         RepetitionTypes
		Description   string
		Amount        Money
		Category      string
		LastExecution time.Time
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrDescriptionLong  = fmt.Errorf("description too long (max %d characters)", maxDescriptionLen)
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidFrequency = errors.New("invalid repetition type")
	ErrEndBeforeStart   = errors.New("end date must not be before start date")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// YearMonth returns the calendar month the date falls in.
func (d Date) YearMonth() YearMonth {
	return YearMonthOf(d.Time)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Times multiplies the amount by n.
func (m Money) Times(n int) Money {
	return Money{Cents: m.Cents * int64(n)}
}

func validateText(description, category string) error {
	if len(strings.TrimSpace(description)) == 0 {
		return ErrEmptyDescription
	}
	if len(description) > maxDescriptionLen {
		return ErrDescriptionLong
	}
	if strings.TrimSpace(category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := validateText(e.Description, e.Category); err != nil {
		return err
	}
	return e.Amount.Validate()
}

func (rp RecurringPayment) Validate() error {
	if err := rp.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}

	if !rp.EndDate.IsZero() {
		if err := rp.EndDate.Validate(); err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
		if rp.EndDate.Before(rp.StartDate.Time) {
			return ErrEndBeforeStart
		}
	}

	switch rp.Every {
	case Daily, Weekly, Monthly, Yearly:
	default:
		return ErrInvalidFrequency
	}

	if err := validateText(rp.Description, rp.Category); err != nil {
		return err
	}
	return rp.Amount.Validate()
}

// Covers reports whether d lies inside the payment's [start, end] window.
func (rp RecurringPayment) Covers(d Date) bool {
	if d.Before(rp.StartDate.Time) {
		return false
	}
	return rp.EndDate.IsZero() || !d.After(rp.EndDate.Time)
}

// OccursOn reports whether the template produces a payment on d.
func (rp RecurringPayment) OccursOn(d Date) bool {
	if !rp.Covers(d) {
		return false
	}
	switch rp.Every {
	case Daily:
		return true
	case Weekly:
		days := int(d.Sub(rp.StartDate.Time).Hours() / 24)
		return days%7 == 0
	case Monthly:
		return d.Day() == ClampDay(d.YearMonth(), rp.StartDate.Day())
	case Yearly:
		return d.Month() == rp.StartDate.Month() &&
			d.Day() == ClampDay(d.YearMonth(), rp.StartDate.Day())
	default:
		return false
	}
}

// OccurrencesIn counts the payment dates that fall in ym.
func (rp RecurringPayment) OccurrencesIn(ym YearMonth) int {
	if !ym.Valid() {
		return 0
	}
	n := 0
	for day := 1; day <= ym.Days(); day++ {
		if rp.OccursOn(NewDate(ym.Year, ym.Month, day)) {
			n++
		}
	}
	return n
}

// CostFor is the amount the template contributes to ym.
func (rp RecurringPayment) CostFor(ym YearMonth) Money {
	return rp.Amount.Times(rp.OccurrencesIn(ym))
}

// ClampDay maps a target day of month onto ym, using the last day of the
// month when the target does not exist (e.g. the 31st in February).
func ClampDay(ym YearMonth, day int) int {
	if last := ym.Days(); day > last {
		return last
	}
	return day
}
