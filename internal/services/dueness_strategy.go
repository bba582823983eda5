// Package services provides business logic and orchestration services.
//
// Recurring payments use one DuenessChecker per frequency. A checker only
// knows how to find the most recent payment date; IsDue combines it with the
// template's validity window and last execution.
package services

import (
	"fmt"
	"time"

	"budget/internal/core"
)

// DuenessChecker finds the latest scheduled payment date on or before today.
// The returned date may precede start, meaning nothing has been scheduled yet.
type DuenessChecker interface {
	LatestOccurrence(start, today core.Date) core.Date
}

type DailyChecker struct{}

func (DailyChecker) LatestOccurrence(_, today core.Date) core.Date {
	return today
}

// WeeklyChecker anchors weeks on the weekday of the start date.
type WeeklyChecker struct{}

func (WeeklyChecker) LatestOccurrence(start, today core.Date) core.Date {
	days := int(today.Sub(start.Time).Hours() / 24)
	if days < 0 {
		return core.Date{Time: start.AddDate(0, 0, -7)}
	}
	return core.Date{Time: start.AddDate(0, 0, days-days%7)}
}

// MonthlyChecker pays on the start day, or on the last day of shorter months.
type MonthlyChecker struct{}

func (MonthlyChecker) LatestOccurrence(start, today core.Date) core.Date {
	ym := today.YearMonth()
	d := core.NewDate(ym.Year, ym.Month, core.ClampDay(ym, start.Day()))
	if d.After(today.Time) {
		prev := ym.AddMonths(-1)
		d = core.NewDate(prev.Year, prev.Month, core.ClampDay(prev, start.Day()))
	}
	return d
}

// YearlyChecker pays on the start month and day every year.
type YearlyChecker struct{}

func (YearlyChecker) LatestOccurrence(start, today core.Date) core.Date {
	anniversary := func(year int) core.Date {
		ym := core.NewYearMonth(year, start.Month())
		return core.NewDate(year, start.Month(), core.ClampDay(ym, start.Day()))
	}
	d := anniversary(today.Year())
	if d.After(today.Time) {
		d = anniversary(today.Year() - 1)
	}
	return d
}

var duenessStrategies = map[core.RepetitionTypes]DuenessChecker{
	core.Daily:   DailyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetDuenessChecker returns the appropriate dueness checker for a repetition type.
func GetDuenessChecker(frequency core.RepetitionTypes) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown repetition type: %s", frequency)
	}
	return checker, nil
}

// IsDue reports whether rp has a scheduled payment on or before now that has
// not been executed yet. It returns the payment date when due.
func IsDue(rp core.RecurringPayment, now time.Time) (core.Date, bool, error) {
	checker, err := GetDuenessChecker(rp.Every)
	if err != nil {
		return core.Date{}, false, err
	}

	today := core.NewDate(now.Year(), int(now.Month()), now.Day())
	latest := checker.LatestOccurrence(rp.StartDate, today)
	if !rp.Covers(latest) {
		return core.Date{}, false, nil
	}
	if !rp.LastExecution.IsZero() {
		last := core.NewDate(rp.LastExecution.Year(), int(rp.LastExecution.Month()), rp.LastExecution.Day())
		if !last.Before(latest.Time) {
			return core.Date{}, false, nil
		}
	}
	return latest, true, nil
}
