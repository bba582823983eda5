package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budget/internal/core"
	"budget/internal/ports"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

var _ ports.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// AppendExpense implements ports.ExpenseStore
func (r *SQLiteRepository) AppendExpense(ctx context.Context, e core.Expense) (int64, error) {
	id, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		Date:        e.Date.Format(dateLayout),
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		Category:    e.Category,
		CreatedAt:   r.now().Unix(),
	})
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"description", e.Description,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.Format(dateLayout))

	return id, nil
}

// ListExpenses implements ports.ExpenseStore
func (r *SQLiteRepository) ListExpenses(ctx context.Context, ym core.YearMonth) ([]core.Expense, error) {
	from := ym.FirstDay().Format(dateLayout)
	to := ym.AddMonths(1).FirstDay().Format(dateLayout)

	rows, err := r.queries.ListExpensesBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list expenses for %s: %w", ym, err)
	}

	expenses := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		d, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("expense %d: %w", row.ID, err)
		}
		expenses = append(expenses, core.Expense{
			ID:          row.ID,
			Date:        d,
			Description: row.Description,
			Amount:      core.Money{Cents: row.AmountCents},
			Category:    row.Category,
		})
	}
	return expenses, nil
}

// CreateRecurring implements ports.RecurringStore
func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rp core.RecurringPayment) (int64, error) {
	var end sql.NullString
	if !rp.EndDate.IsZero() {
		end = sql.NullString{String: rp.EndDate.Format(dateLayout), Valid: true}
	}

	id, err := r.queries.CreateRecurring(ctx, CreateRecurringParams{
		StartDate:   rp.StartDate.Format(dateLayout),
		EndDate:     end,
		Every:       string(rp.Every),
		Description: rp.Description,
		AmountCents: rp.Amount.Cents,
		Category:    rp.Category,
		CreatedAt:   r.now().Unix(),
	})
	if err != nil {
		return 0, fmt.Errorf("create recurring payment: %w", err)
	}

	slog.InfoContext(ctx, "Recurring payment saved to SQLite",
		"id", id,
		"every", rp.Every,
		"amount_cents", rp.Amount.Cents)
	return id, nil
}

// ListRecurring implements ports.RecurringStore
func (r *SQLiteRepository) ListRecurring(ctx context.Context) ([]core.RecurringPayment, error) {
	rows, err := r.queries.ListRecurring(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recurring payments: %w", err)
	}

	out := make([]core.RecurringPayment, 0, len(rows))
	for _, row := range rows {
		rp, err := recurringFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rp)
	}
	return out, nil
}

func recurringFromRow(row RecurringPayment) (core.RecurringPayment, error) {
	start, err := core.ParseDate(row.StartDate)
	if err != nil {
		return core.RecurringPayment{}, fmt.Errorf("recurring payment %d: %w", row.ID, err)
	}
	rp := core.RecurringPayment{
		ID:          row.ID,
		StartDate:   start,
		Every:       core.RepetitionTypes(row.Every),
		Description: row.Description,
		Amount:      core.Money{Cents: row.AmountCents},
		Category:    row.Category,
	}
	if row.EndDate.Valid {
		end, err := core.ParseDate(row.EndDate.String)
		if err != nil {
			return core.RecurringPayment{}, fmt.Errorf("recurring payment %d: %w", row.ID, err)
		}
		rp.EndDate = end
	}
	if row.LastExecution.Valid {
		rp.LastExecution = time.Unix(row.LastExecution.Int64, 0).UTC()
	}
	return rp, nil
}

// DeleteRecurring implements ports.RecurringStore
func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteRecurring(ctx, id)
	if err != nil {
		return fmt.Errorf("delete recurring payment %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("recurring payment %d: %w", id, ports.ErrNotFound)
	}
	return nil
}

// UpdateLastExecution implements ports.RecurringStore
func (r *SQLiteRepository) UpdateLastExecution(ctx context.Context, id int64, at time.Time) error {
	n, err := r.queries.UpdateLastExecution(ctx, id, at.Unix())
	if err != nil {
		return fmt.Errorf("update last execution %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("recurring payment %d: %w", id, ports.ErrNotFound)
	}
	return nil
}

// CreateInstallment implements ports.InstallmentStore. Missing fields are
// stored as NULL.
func (r *SQLiteRepository) CreateInstallment(ctx context.Context, p core.InstallmentPayment) error {
	row := Installment{
		ID:          p.ID,
		Description: p.Description,
		Category:    p.Category,
		TotalAmount: p.TotalAmount,
		CreatedAt:   r.now().UnixNano(),
	}
	if p.InstallmentCount > 0 {
		row.InstallmentCount = sql.NullInt64{Int64: int64(p.InstallmentCount), Valid: true}
	}
	if p.StartMonth.Valid() {
		row.StartYear = sql.NullInt64{Int64: int64(p.StartMonth.Year), Valid: true}
		row.StartMonth = sql.NullInt64{Int64: int64(p.StartMonth.Month), Valid: true}
	}

	if err := r.queries.CreateInstallment(ctx, row); err != nil {
		var se *sqlite.Error
		if errors.As(err, &se) && (se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE) {
			return fmt.Errorf("installment %s: %w", p.ID, ports.ErrConflict)
		}
		return fmt.Errorf("create installment: %w", err)
	}

	slog.InfoContext(ctx, "Installment saved to SQLite",
		"id", p.ID,
		"description", p.Description,
		"installments", p.InstallmentCount,
		"start", p.StartMonth.String())
	return nil
}

// GetInstallment implements ports.InstallmentStore
func (r *SQLiteRepository) GetInstallment(ctx context.Context, id string) (core.InstallmentPayment, error) {
	row, err := r.queries.GetInstallment(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.InstallmentPayment{}, fmt.Errorf("installment %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return core.InstallmentPayment{}, fmt.Errorf("get installment %s: %w", id, err)
	}
	return installmentFromRow(row), nil
}

// ListInstallments implements ports.InstallmentStore
func (r *SQLiteRepository) ListInstallments(ctx context.Context) ([]core.InstallmentPayment, error) {
	rows, err := r.queries.ListInstallments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	out := make([]core.InstallmentPayment, len(rows))
	for i, row := range rows {
		out[i] = installmentFromRow(row)
	}
	return out, nil
}

// DeleteInstallment implements ports.InstallmentStore
func (r *SQLiteRepository) DeleteInstallment(ctx context.Context, id string) error {
	n, err := r.queries.DeleteInstallment(ctx, id)
	if err != nil {
		return fmt.Errorf("delete installment %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("installment %s: %w", id, ports.ErrNotFound)
	}
	slog.InfoContext(ctx, "Installment deleted from SQLite", "id", id)
	return nil
}

func installmentFromRow(row Installment) core.InstallmentPayment {
	p := core.InstallmentPayment{
		ID:          row.ID,
		Description: row.Description,
		Category:    row.Category,
		TotalAmount: row.TotalAmount,
	}
	if row.InstallmentCount.Valid {
		p.InstallmentCount = int(row.InstallmentCount.Int64)
	}
	if row.StartYear.Valid && row.StartMonth.Valid {
		p.StartMonth = core.NewYearMonth(int(row.StartYear.Int64), int(row.StartMonth.Int64))
	}
	return p
}
