package storage

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the SQL statements of the repository.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Row types mirror the table layout; conversion to core types happens in the repository.
type (
	Expense struct {
		ID          int64
		Date        string
		Description string
		AmountCents int64
		Category    string
		CreatedAt   int64
	}

	RecurringPayment struct {
		ID            int64
		StartDate     string
		EndDate       sql.NullString
		Every         string
		Description   string
		AmountCents   int64
		Category      string
		LastExecution sql.NullInt64
		CreatedAt     int64
	}

	Installment struct {
		ID               string
		Description      string
		Category         string
		TotalAmount      decimal.NullDecimal
		InstallmentCount sql.NullInt64
		StartYear        sql.NullInt64
		StartMonth       sql.NullInt64
		CreatedAt        int64
	}
)

const createExpense = `INSERT INTO expenses (date, description, amount_cents, category, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id`

type CreateExpenseParams struct {
	Date        string
	Description string
	AmountCents int64
	Category    string
	CreatedAt   int64
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createExpense,
		arg.Date, arg.Description, arg.AmountCents, arg.Category, arg.CreatedAt,
	).Scan(&id)
	return id, err
}

const listExpensesBetween = `SELECT id, date, description, amount_cents, category, created_at
FROM expenses
WHERE date >= ? AND date < ?
ORDER BY date, id`

// ListExpensesBetween returns expenses with from <= date < to (YYYY-MM-DD strings).
func (q *Queries) ListExpensesBetween(ctx context.Context, from, to string) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpensesBetween, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Expense
	for rows.Next() {
		var i Expense
		if err := rows.Scan(&i.ID, &i.Date, &i.Description, &i.AmountCents, &i.Category, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createRecurring = `INSERT INTO recurring_payments
    (start_date, end_date, every, description, amount_cents, category, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id`

type CreateRecurringParams struct {
	StartDate   string
	EndDate     sql.NullString
	Every       string
	Description string
	AmountCents int64
	Category    string
	CreatedAt   int64
}

func (q *Queries) CreateRecurring(ctx context.Context, arg CreateRecurringParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createRecurring,
		arg.StartDate, arg.EndDate, arg.Every, arg.Description, arg.AmountCents, arg.Category, arg.CreatedAt,
	).Scan(&id)
	return id, err
}

const listRecurring = `SELECT id, start_date, end_date, every, description, amount_cents, category, last_execution, created_at
FROM recurring_payments
ORDER BY id`

func (q *Queries) ListRecurring(ctx context.Context) ([]RecurringPayment, error) {
	rows, err := q.db.QueryContext(ctx, listRecurring)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RecurringPayment
	for rows.Next() {
		var i RecurringPayment
		if err := rows.Scan(
			&i.ID, &i.StartDate, &i.EndDate, &i.Every, &i.Description,
			&i.AmountCents, &i.Category, &i.LastExecution, &i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteRecurring = `DELETE FROM recurring_payments WHERE id = ?`

func (q *Queries) DeleteRecurring(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteRecurring, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const updateLastExecution = `UPDATE recurring_payments SET last_execution = ? WHERE id = ?`

func (q *Queries) UpdateLastExecution(ctx context.Context, id int64, at int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateLastExecution, at, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createInstallment = `INSERT INTO installments
    (id, description, category, total_amount, installment_count, start_year, start_month, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateInstallment(ctx context.Context, arg Installment) error {
	_, err := q.db.ExecContext(ctx, createInstallment,
		arg.ID, arg.Description, arg.Category, arg.TotalAmount,
		arg.InstallmentCount, arg.StartYear, arg.StartMonth, arg.CreatedAt,
	)
	return err
}

const installmentColumns = `id, description, category, total_amount, installment_count, start_year, start_month, created_at`

func scanInstallment(scan func(...any) error) (Installment, error) {
	var i Installment
	err := scan(
		&i.ID, &i.Description, &i.Category, &i.TotalAmount,
		&i.InstallmentCount, &i.StartYear, &i.StartMonth, &i.CreatedAt,
	)
	return i, err
}

const getInstallment = `SELECT ` + installmentColumns + ` FROM installments WHERE id = ?`

func (q *Queries) GetInstallment(ctx context.Context, id string) (Installment, error) {
	return scanInstallment(q.db.QueryRowContext(ctx, getInstallment, id).Scan)
}

const listInstallments = `SELECT ` + installmentColumns + ` FROM installments ORDER BY created_at, id`

func (q *Queries) ListInstallments(ctx context.Context) ([]Installment, error) {
	rows, err := q.db.QueryContext(ctx, listInstallments)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Installment
	for rows.Next() {
		i, err := scanInstallment(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteInstallment = `DELETE FROM installments WHERE id = ?`

func (q *Queries) DeleteInstallment(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteInstallment, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
