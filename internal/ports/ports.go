package ports

import (
	"context"
	"errors"
	"time"

	"budget/internal/core"
)

// ErrNotFound is returned by stores when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a record with the same ID already exists.
var ErrConflict = errors.New("already exists")

// Ports for outbound adapters.
type (
	InstallmentStore interface {
		CreateInstallment(ctx context.Context, p core.InstallmentPayment) error
		GetInstallment(ctx context.Context, id string) (core.InstallmentPayment, error)
		ListInstallments(ctx context.Context) ([]core.InstallmentPayment, error)
		DeleteInstallment(ctx context.Context, id string) error
	}

	ExpenseStore interface {
		// AppendExpense stores e and returns its assigned ID.
		AppendExpense(ctx context.Context, e core.Expense) (int64, error)
		ListExpenses(ctx context.Context, ym core.YearMonth) ([]core.Expense, error)
	}

	RecurringStore interface {
		CreateRecurring(ctx context.Context, rp core.RecurringPayment) (int64, error)
		ListRecurring(ctx context.Context) ([]core.RecurringPayment, error)
		DeleteRecurring(ctx context.Context, id int64) error
		UpdateLastExecution(ctx context.Context, id int64, at time.Time) error
	}

	// ProgressExporter mirrors installment progress to an external sheet.
	ProgressExporter interface {
		Export(ctx context.Context, p core.InstallmentPayment, progress core.ProgressResult, at core.YearMonth) error
		Remove(ctx context.Context, id string) error
	}

	// Store is the full set of persistence ports a backend provides.
	Store interface {
		InstallmentStore
		ExpenseStore
		RecurringStore
		Ping(ctx context.Context) error
	}
)
