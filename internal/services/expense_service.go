package services

import (
	"context"
	"fmt"
	"log/slog"

	"budget/internal/core"
	"budget/internal/ports"
)

// ExpenseService validates and records one-off expenses.
type ExpenseService struct {
	storage ports.ExpenseStore
}

func NewExpenseService(storage ports.ExpenseStore) *ExpenseService {
	return &ExpenseService{storage: storage}
}

// CreateExpense validates e and saves it, returning the stored copy.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	id, err := s.storage.AppendExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Expense created",
		"id", id,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)
	return e, nil
}

func (s *ExpenseService) ListExpenses(ctx context.Context, ym core.YearMonth) ([]core.Expense, error) {
	if !ym.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrValidation, core.ErrInvalidMonth)
	}
	return s.storage.ListExpenses(ctx, ym)
}
