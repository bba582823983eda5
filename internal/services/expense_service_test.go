package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"budget/internal/core"
	"budget/internal/storage/memory"
)

func TestExpenseService_CreateExpense(t *testing.T) {
	ctx := context.Background()
	svc := NewExpenseService(memory.New())

	got, err := svc.CreateExpense(ctx, core.Expense{
		Date:        core.NewDate(2024, 5, 20),
		Description: "Pizza",
		Amount:      core.Money{Cents: 1250},
		Category:    "Food",
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if got.ID != 1 {
		t.Fatalf("expected ID 1, got %d", got.ID)
	}

	list, err := svc.ListExpenses(ctx, core.NewYearMonth(2024, 5))
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(list) != 1 || list[0].Description != "Pizza" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestExpenseService_Validation(t *testing.T) {
	svc := NewExpenseService(memory.New())

	tests := []struct {
		name string
		e    core.Expense
	}{
		{"zero amount", core.Expense{Date: core.NewDate(2024, 1, 1), Description: "a", Category: "c"}},
		{"empty description", core.Expense{Date: core.NewDate(2024, 1, 1), Amount: core.Money{Cents: 1}, Category: "c"}},
		{"missing date", core.Expense{Description: "a", Amount: core.Money{Cents: 1}, Category: "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateExpense(context.Background(), tt.e)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}

	if _, err := svc.ListExpenses(context.Background(), core.YearMonth{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for invalid month, got %v", err)
	}
}

func TestRecurringProcessor_ProcessDue(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	recurring := NewRecurringService(store)
	proc := NewRecurringProcessor(store, NewExpenseService(store))

	if _, err := recurring.Create(ctx, core.RecurringPayment{
		StartDate: core.NewDate(2024, 1, 10), Every: core.Monthly,
		Description: "Rent", Amount: core.Money{Cents: 80000}, Category: "Home",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := recurring.Create(ctx, core.RecurringPayment{
		StartDate: core.NewDate(2024, 9, 1), Every: core.Yearly,
		Description: "Insurance", Amount: core.Money{Cents: 50000}, Category: "Car",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	now := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)
	n, err := proc.ProcessDue(ctx, now)
	if err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 processed template, got %d", n)
	}

	list, _ := store.ListExpenses(ctx, core.NewYearMonth(2024, 3))
	if len(list) != 1 || list[0].Date != core.NewDate(2024, 3, 10) || list[0].Description != "Rent" {
		t.Fatalf("unexpected expenses: %+v", list)
	}

	// A second run on the same day finds nothing new.
	n, err = proc.ProcessDue(ctx, now.Add(2*time.Hour))
	if err != nil || n != 0 {
		t.Fatalf("expected no due templates, got n=%d err=%v", n, err)
	}

	// Next month's payment becomes due once its day passes.
	n, err = proc.ProcessDue(ctx, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC))
	if err != nil || n != 1 {
		t.Fatalf("expected one due template in April, got n=%d err=%v", n, err)
	}
}

func TestRecurringService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := NewRecurringService(memory.New())

	rp, err := svc.Create(ctx, core.RecurringPayment{
		StartDate: core.NewDate(2024, 1, 1), Every: core.Weekly,
		Description: "Cleaning", Amount: core.Money{Cents: 2500}, Category: "Home",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, rp.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, rp.ID); err == nil {
		t.Fatalf("expected error deleting twice")
	}
	if _, err := svc.Create(ctx, core.RecurringPayment{Every: core.Weekly}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
