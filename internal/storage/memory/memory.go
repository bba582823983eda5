package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"budget/internal/core"
	"budget/internal/ports"
)

// Store keeps every record in process memory. It backs the memory data
// backend and service tests.
type Store struct {
	mu           sync.Mutex
	expenses     []core.Expense
	recurring    []core.RecurringPayment
	installments []core.InstallmentPayment
	nextExpense  int64
	nextRecur    int64
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) Ping(context.Context) error { return nil }

// AppendExpense stores the expense and returns its sequential ID.
func (s *Store) AppendExpense(_ context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextExpense++
	e.ID = s.nextExpense
	s.expenses = append(s.expenses, e)
	return e.ID, nil
}

func (s *Store) ListExpenses(_ context.Context, ym core.YearMonth) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.Date.YearMonth() == ym {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b core.Expense) int {
		return a.Date.Compare(b.Date.Time)
	})
	return out, nil
}

func (s *Store) CreateRecurring(_ context.Context, rp core.RecurringPayment) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRecur++
	rp.ID = s.nextRecur
	s.recurring = append(s.recurring, rp)
	return rp.ID, nil
}

func (s *Store) ListRecurring(context.Context) ([]core.RecurringPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.recurring), nil
}

func (s *Store) DeleteRecurring(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.recurring, func(rp core.RecurringPayment) bool { return rp.ID == id })
	if i < 0 {
		return fmt.Errorf("recurring payment %d: %w", id, ports.ErrNotFound)
	}
	s.recurring = slices.Delete(s.recurring, i, i+1)
	return nil
}

func (s *Store) UpdateLastExecution(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recurring {
		if s.recurring[i].ID == id {
			s.recurring[i].LastExecution = at
			return nil
		}
	}
	return fmt.Errorf("recurring payment %d: %w", id, ports.ErrNotFound)
}

func (s *Store) CreateInstallment(_ context.Context, p core.InstallmentPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.installments, func(x core.InstallmentPayment) bool { return x.ID == p.ID }) {
		return fmt.Errorf("installment %s: %w", p.ID, ports.ErrConflict)
	}
	s.installments = append(s.installments, p)
	return nil
}

func (s *Store) GetInstallment(_ context.Context, id string) (core.InstallmentPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.installments {
		if p.ID == id {
			return p, nil
		}
	}
	return core.InstallmentPayment{}, fmt.Errorf("installment %s: %w", id, ports.ErrNotFound)
}

func (s *Store) ListInstallments(context.Context) ([]core.InstallmentPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.installments), nil
}

func (s *Store) DeleteInstallment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.installments, func(p core.InstallmentPayment) bool { return p.ID == id })
	if i < 0 {
		return fmt.Errorf("installment %s: %w", id, ports.ErrNotFound)
	}
	s.installments = slices.Delete(s.installments, i, i+1)
	return nil
}
