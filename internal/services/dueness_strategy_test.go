package services

import (
	"testing"
	"time"

	"budget/internal/core"
)

func TestLatestOccurrence(t *testing.T) {
	tests := []struct {
		name    string
		checker DuenessChecker
		start   core.Date
		today   core.Date
		want    core.Date
	}{
		{"daily", DailyChecker{}, core.NewDate(2024, 1, 1), core.NewDate(2024, 3, 9), core.NewDate(2024, 3, 9)},
		{"weekly on anchor day", WeeklyChecker{}, core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 15), core.NewDate(2024, 1, 15)},
		{"weekly mid week", WeeklyChecker{}, core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 18), core.NewDate(2024, 1, 15)},
		{"weekly before start", WeeklyChecker{}, core.NewDate(2024, 1, 10), core.NewDate(2024, 1, 5), core.NewDate(2024, 1, 3)},
		{"monthly after target day", MonthlyChecker{}, core.NewDate(2024, 1, 10), core.NewDate(2024, 3, 15), core.NewDate(2024, 3, 10)},
		{"monthly before target day", MonthlyChecker{}, core.NewDate(2024, 1, 15), core.NewDate(2024, 3, 10), core.NewDate(2024, 2, 15)},
		{"monthly 31st in leap february", MonthlyChecker{}, core.NewDate(2024, 1, 31), core.NewDate(2024, 2, 29), core.NewDate(2024, 2, 29)},
		{"monthly 31st across year", MonthlyChecker{}, core.NewDate(2023, 5, 31), core.NewDate(2024, 1, 5), core.NewDate(2023, 12, 31)},
		{"yearly past anniversary", YearlyChecker{}, core.NewDate(2022, 3, 15), core.NewDate(2024, 6, 1), core.NewDate(2024, 3, 15)},
		{"yearly before anniversary", YearlyChecker{}, core.NewDate(2022, 6, 15), core.NewDate(2024, 6, 14), core.NewDate(2023, 6, 15)},
		{"yearly leap day", YearlyChecker{}, core.NewDate(2024, 2, 29), core.NewDate(2025, 3, 1), core.NewDate(2025, 2, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.checker.LatestOccurrence(tt.start, tt.today)
			if !got.Equal(tt.want.Time) {
				t.Errorf("LatestOccurrence() = %s, want %s", got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestIsDue(t *testing.T) {
	monthly := core.RecurringPayment{StartDate: core.NewDate(2024, 1, 15), Every: core.Monthly}

	tests := []struct {
		name     string
		rp       func() core.RecurringPayment
		now      time.Time
		want     bool
		wantDate core.Date
	}{
		{
			name:     "never executed - is due",
			rp:       func() core.RecurringPayment { return monthly },
			now:      time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC),
			want:     true,
			wantDate: core.NewDate(2024, 1, 15),
		},
		{
			name: "not started yet",
			rp:   func() core.RecurringPayment { return monthly },
			now:  time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "executed this cycle - not due",
			rp: func() core.RecurringPayment {
				rp := monthly
				rp.LastExecution = time.Date(2024, 2, 15, 6, 0, 0, 0, time.UTC)
				return rp
			},
			now:  time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "new cycle reached - is due",
			rp: func() core.RecurringPayment {
				rp := monthly
				rp.LastExecution = time.Date(2024, 2, 15, 6, 0, 0, 0, time.UTC)
				return rp
			},
			now:      time.Date(2024, 3, 15, 0, 30, 0, 0, time.UTC),
			want:     true,
			wantDate: core.NewDate(2024, 3, 15),
		},
		{
			name: "ended before latest occurrence",
			rp: func() core.RecurringPayment {
				rp := monthly
				rp.EndDate = core.NewDate(2024, 2, 20)
				rp.LastExecution = time.Date(2024, 2, 15, 6, 0, 0, 0, time.UTC)
				return rp
			},
			now:  time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "daily executed yesterday",
			rp: func() core.RecurringPayment {
				return core.RecurringPayment{
					StartDate:     core.NewDate(2024, 1, 1),
					Every:         core.Daily,
					LastExecution: time.Date(2024, 1, 14, 23, 0, 0, 0, time.UTC),
				}
			},
			now:      time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC),
			want:     true,
			wantDate: core.NewDate(2024, 1, 15),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, got, err := IsDue(tt.rp(), tt.now)
			if err != nil {
				t.Fatalf("IsDue() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("IsDue() = %v, want %v", got, tt.want)
			}
			if got && !date.Equal(tt.wantDate.Time) {
				t.Errorf("IsDue() date = %s, want %s", date.Format("2006-01-02"), tt.wantDate.Format("2006-01-02"))
			}
		})
	}

	if _, _, err := IsDue(core.RecurringPayment{Every: "biweekly"}, time.Now()); err == nil {
		t.Error("expected error for unknown frequency")
	}
}

func TestGetDuenessChecker(t *testing.T) {
	tests := []struct {
		name      string
		frequency core.RepetitionTypes
		wantErr   bool
	}{
		{"daily", core.Daily, false},
		{"weekly", core.Weekly, false},
		{"monthly", core.Monthly, false},
		{"yearly", core.Yearly, false},
		{"unknown", core.RepetitionTypes("biweekly"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker, err := GetDuenessChecker(tt.frequency)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetDuenessChecker() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && checker == nil {
				t.Error("GetDuenessChecker() returned nil checker")
			}
		})
	}
}
