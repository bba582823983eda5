package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"budget/internal/core"
	"budget/internal/ports"
)

// OverviewService assembles the month dashboard from every store.
type OverviewService struct {
	expenses     ports.ExpenseStore
	recurring    ports.RecurringStore
	installments ports.InstallmentStore
}

func NewOverviewService(store ports.Store) *OverviewService {
	return &OverviewService{
		expenses:     store,
		recurring:    store,
		installments: store,
	}
}

// Month loads the three record kinds concurrently and folds them into a
// single overview for ym.
func (s *OverviewService) Month(ctx context.Context, ym core.YearMonth) (core.MonthOverview, error) {
	if !ym.Valid() {
		return core.MonthOverview{}, fmt.Errorf("%w: %w", ErrValidation, core.ErrInvalidMonth)
	}

	var (
		expenses     []core.Expense
		recurring    []core.RecurringPayment
		installments []core.InstallmentPayment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if expenses, err = s.expenses.ListExpenses(gctx, ym); err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if recurring, err = s.recurring.ListRecurring(gctx); err != nil {
			return fmt.Errorf("list recurring payments: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if installments, err = s.installments.ListInstallments(gctx); err != nil {
			return fmt.Errorf("list installments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.MonthOverview{}, err
	}

	return core.BuildMonthOverview(ym, expenses, recurring, installments), nil
}
