package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const expenseColumns = `id, branch_id, category, description, amount, spent_on, payment_method, vendor, status, recurring_period, created_by, created_at, updated_at`

func scanExpense(row scanner) (Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.BranchID, &e.Category, &e.Description, &e.Amount, &e.SpentOn, &e.PaymentMethod,
		&e.Vendor, &e.Status, &e.RecurringPeriod, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

type UpsertExpenseParams struct {
	ID              uuid.UUID
	BranchID        *uuid.UUID
	Category        string
	Description     string
	Amount          decimal.Decimal
	SpentOn         time.Time
	PaymentMethod   string
	Vendor          string
	Status          ExpenseStatus
	RecurringPeriod *string
	CreatedBy       *uuid.UUID
}

const createExpense = `INSERT INTO expenses (branch_id, category, description, amount, spent_on, payment_method, vendor, status, recurring_period, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + expenseColumns

func (q *Queries) CreateExpense(ctx context.Context, arg UpsertExpenseParams) (Expense, error) {
	return scanExpense(q.db.QueryRow(ctx, createExpense, arg.BranchID, arg.Category, arg.Description, arg.Amount,
		arg.SpentOn, arg.PaymentMethod, arg.Vendor, arg.Status, arg.RecurringPeriod, arg.CreatedBy))
}

const updateExpense = `UPDATE expenses
SET category = $2, description = $3, amount = $4, spent_on = $5, payment_method = $6, vendor = $7, status = $8,
    recurring_period = $9, updated_at = now()
WHERE id = $1
RETURNING ` + expenseColumns

func (q *Queries) UpdateExpense(ctx context.Context, arg UpsertExpenseParams) (Expense, error) {
	return scanExpense(q.db.QueryRow(ctx, updateExpense, arg.ID, arg.Category, arg.Description, arg.Amount,
		arg.SpentOn, arg.PaymentMethod, arg.Vendor, arg.Status, arg.RecurringPeriod))
}

const getExpense = `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`

func (q *Queries) GetExpense(ctx context.Context, id uuid.UUID) (Expense, error) {
	return scanExpense(q.db.QueryRow(ctx, getExpense, id))
}

type ListExpensesParams struct {
	BranchID *uuid.UUID
	Category string
	Status   string
	From     time.Time
	To       time.Time
}

const listExpenses = `SELECT ` + expenseColumns + ` FROM expenses
WHERE ($1::uuid IS NULL OR branch_id = $1)
  AND ($2::text = '' OR category = $2)
  AND ($3::text = '' OR status = $3)
  AND spent_on >= $4::date AND spent_on < $5::date
ORDER BY spent_on DESC, created_at DESC`

func (q *Queries) ListExpenses(ctx context.Context, arg ListExpensesParams) ([]Expense, error) {
	rows, err := q.db.Query(ctx, listExpenses, arg.BranchID, arg.Category, arg.Status, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const deleteExpense = `DELETE FROM expenses WHERE id = $1`

func (q *Queries) DeleteExpense(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteExpense, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const expenseTotal = `SELECT COALESCE(sum(amount), 0) FROM expenses
WHERE ($1::uuid IS NULL OR branch_id = $1) AND spent_on >= $2::date AND spent_on < $3::date`

// ExpenseTotal sums expenses whose day falls inside the range.
func (q *Queries) ExpenseTotal(ctx context.Context, arg ReportRange) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := q.db.QueryRow(ctx, expenseTotal, arg.BranchID, arg.From, arg.To).Scan(&total)
	return total, err
}
