package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Date:        NewDate(2025, 1, 1),
		Description: "ok",
		Amount:      Money{Cents: 100},
		Category:    "Casa",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Date: Date{Time: time.Time{}}, Description: "a", Amount: Money{Cents: 1}, Category: "c"},
		{Date: NewDate(2025, 1, 1), Description: "", Amount: Money{Cents: 1}, Category: "c"},
		{Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 0}, Category: "c"},
		{Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 1}, Category: " "},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestRecurringPaymentValidate(t *testing.T) {
	base := RecurringPayment{
		StartDate:   NewDate(2024, 1, 15),
		Every:       Monthly,
		Description: "Netflix",
		Amount:      Money{Cents: 1299},
		Category:    "Svago",
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	endBefore := base
	endBefore.EndDate = NewDate(2023, 12, 1)
	if err := endBefore.Validate(); !errors.Is(err, ErrEndBeforeStart) {
		t.Fatalf("expected ErrEndBeforeStart, got %v", err)
	}

	badFreq := base
	badFreq.Every = "fortnightly"
	if err := badFreq.Validate(); !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("expected ErrInvalidFrequency, got %v", err)
	}

	noStart := base
	noStart.StartDate = Date{}
	if err := noStart.Validate(); err == nil {
		t.Fatalf("expected error for missing start date")
	}
}

func TestRecurringPaymentOccurrencesIn(t *testing.T) {
	tests := []struct {
		name string
		rp   RecurringPayment
		ym   YearMonth
		want int
	}{
		{
			name: "monthly in start month",
			rp:   RecurringPayment{StartDate: NewDate(2024, 1, 15), Every: Monthly},
			ym:   NewYearMonth(2024, 1),
			want: 1,
		},
		{
			name: "monthly before start",
			rp:   RecurringPayment{StartDate: NewDate(2024, 3, 1), Every: Monthly},
			ym:   NewYearMonth(2024, 2),
			want: 0,
		},
		{
			name: "monthly on the 31st clamps in february",
			rp:   RecurringPayment{StartDate: NewDate(2024, 1, 31), Every: Monthly},
			ym:   NewYearMonth(2024, 2),
			want: 1,
		},
		{
			name: "monthly after end date",
			rp:   RecurringPayment{StartDate: NewDate(2024, 1, 10), EndDate: NewDate(2024, 4, 9), Every: Monthly},
			ym:   NewYearMonth(2024, 4),
			want: 0,
		},
		{
			name: "yearly in other month",
			rp:   RecurringPayment{StartDate: NewDate(2023, 6, 1), Every: Yearly},
			ym:   NewYearMonth(2024, 5),
			want: 0,
		},
		{
			name: "yearly in anniversary month",
			rp:   RecurringPayment{StartDate: NewDate(2023, 6, 1), Every: Yearly},
			ym:   NewYearMonth(2024, 6),
			want: 1,
		},
		{
			name: "weekly starting on the first",
			rp:   RecurringPayment{StartDate: NewDate(2024, 1, 1), Every: Weekly},
			ym:   NewYearMonth(2024, 1),
			want: 5, // 1, 8, 15, 22, 29
		},
		{
			name: "daily in a leap february",
			rp:   RecurringPayment{StartDate: NewDate(2024, 1, 1), Every: Daily},
			ym:   NewYearMonth(2024, 2),
			want: 29,
		},
		{
			name: "invalid month",
			rp:   RecurringPayment{StartDate: NewDate(2024, 1, 1), Every: Daily},
			ym:   YearMonth{},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rp.OccurrencesIn(tt.ym); got != tt.want {
				t.Errorf("OccurrencesIn(%s) = %d, want %d", tt.ym, got, tt.want)
			}
		})
	}
}

func TestRecurringPaymentCostFor(t *testing.T) {
	rp := RecurringPayment{StartDate: NewDate(2024, 1, 1), Every: Weekly, Amount: Money{Cents: 1000}}
	if got := rp.CostFor(NewYearMonth(2024, 1)); got.Cents != 5000 {
		t.Fatalf("expected 5000 cents, got %d", got.Cents)
	}
}
