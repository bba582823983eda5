package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// YearMonth identifies a calendar month. Month is 1-indexed; the zero value
// stands for "no month".
type YearMonth struct {
	Year  int
	Month int
}

// NewYearMonth builds a YearMonth without normalising it.
func NewYearMonth(year, month int) YearMonth {
	return YearMonth{Year: year, Month: month}
}

// YearMonthOf truncates t to its calendar month. Day and time of day are dropped.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}

// ParseYearMonth accepts "2006-01" and "2006-1".
func ParseYearMonth(s string) (YearMonth, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return YearMonth{}, fmt.Errorf("parse month %q: want YYYY-MM", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return YearMonth{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return YearMonth{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	ym := YearMonth{Year: year, Month: month}
	if !ym.Valid() {
		return YearMonth{}, fmt.Errorf("parse month %q: %w", s, ErrInvalidMonth)
	}
	return ym, nil
}

func (ym YearMonth) IsZero() bool {
	return ym.Year == 0 && ym.Month == 0
}

// Valid reports whether the month is in 1..12 and the year is set.
func (ym YearMonth) Valid() bool {
	return ym.Year > 0 && ym.Month >= 1 && ym.Month <= 12
}

// Index is the month count since year 0, so that differences between two
// indexes are whole calendar months.
func (ym YearMonth) Index() int {
	return ym.Year*12 + (ym.Month - 1)
}

func yearMonthFromIndex(idx int) YearMonth {
	return YearMonth{Year: idx / 12, Month: idx%12 + 1}
}

// AddMonths moves n calendar months forward (or back when n is negative).
func (ym YearMonth) AddMonths(n int) YearMonth {
	return yearMonthFromIndex(ym.Index() + n)
}

// MonthsUntil returns other - ym in whole months.
func (ym YearMonth) MonthsUntil(other YearMonth) int {
	return other.Index() - ym.Index()
}

func (ym YearMonth) Before(other YearMonth) bool {
	return ym.Index() < other.Index()
}

func (ym YearMonth) After(other YearMonth) bool {
	return ym.Index() > other.Index()
}

// Days returns the number of days in the month.
func (ym YearMonth) Days() int {
	return time.Date(ym.Year, time.Month(ym.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstDay returns the first day of the month at UTC midnight.
func (ym YearMonth) FirstDay() Date {
	return NewDate(ym.Year, ym.Month, 1)
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}
