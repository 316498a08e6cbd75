package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const customerColumns = `id, branch_id, name, phone, email, gstin, total_spent, visits, loyalty_points, membership_tier, last_visit, created_at, updated_at`

func scanCustomer(row scanner) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.BranchID, &c.Name, &c.Phone, &c.Email, &c.GSTIN, &c.TotalSpent, &c.Visits,
		&c.LoyaltyPoints, &c.MembershipTier, &c.LastVisit, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

type CreateCustomerParams struct {
	BranchID *uuid.UUID
	Name     string
	Phone    string
	Email    string
	GSTIN    *string
}

const createCustomer = `INSERT INTO customers (branch_id, name, phone, email, gstin)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + customerColumns

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, createCustomer, arg.BranchID, arg.Name, arg.Phone, arg.Email, arg.GSTIN))
}

const getCustomer = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 AND deleted_at IS NULL`

func (q *Queries) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, getCustomer, id))
}

type UpdateCustomerProfileParams struct {
	ID    uuid.UUID
	Name  string
	Phone string
	Email string
	GSTIN *string
}

const updateCustomerProfile = `UPDATE customers SET name = $2, phone = $3, email = $4, gstin = $5, updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING ` + customerColumns

func (q *Queries) UpdateCustomerProfile(ctx context.Context, arg UpdateCustomerProfileParams) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, updateCustomerProfile, arg.ID, arg.Name, arg.Phone, arg.Email, arg.GSTIN))
}

type SearchCustomersParams struct {
	BranchID *uuid.UUID
	Query    string
	Limit    int32
	Offset   int32
}

const searchCustomers = `SELECT ` + customerColumns + ` FROM customers
WHERE deleted_at IS NULL AND ($1::uuid IS NULL OR branch_id = $1)
  AND ($2::text = '' OR name ILIKE '%' || $2 || '%' OR phone ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')
ORDER BY name
LIMIT $3 OFFSET $4`

func (q *Queries) SearchCustomers(ctx context.Context, arg SearchCustomersParams) ([]Customer, error) {
	rows, err := q.db.Query(ctx, searchCustomers, arg.BranchID, arg.Query, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const countCustomers = `SELECT count(*) FROM customers
WHERE deleted_at IS NULL AND ($1::uuid IS NULL OR branch_id = $1)
  AND ($2::text = '' OR name ILIKE '%' || $2 || '%' OR phone ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')`

func (q *Queries) CountCustomers(ctx context.Context, branchID *uuid.UUID, query string) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countCustomers, branchID, query).Scan(&n)
	return n, err
}

const softDeleteCustomer = `UPDATE customers SET deleted_at = now(), updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING ` + customerColumns

// SoftDeleteCustomer hides a customer from lookups. Sales keep their reference.
func (q *Queries) SoftDeleteCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, softDeleteCustomer, id))
}

type ApplySaleToCustomerParams struct {
	ID            uuid.UUID
	Amount        decimal.Decimal
	LoyaltyPoints int64
	VisitedAt     time.Time
}

const applySaleToCustomer = `UPDATE customers
SET total_spent = total_spent + $2, visits = visits + 1, loyalty_points = loyalty_points + $3,
    last_visit = $4, updated_at = now()
WHERE id = $1
RETURNING ` + customerColumns

// ApplySaleToCustomer increments the aggregates in place so concurrent sales never lose an update.
func (q *Queries) ApplySaleToCustomer(ctx context.Context, arg ApplySaleToCustomerParams) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, applySaleToCustomer, arg.ID, arg.Amount, arg.LoyaltyPoints, arg.VisitedAt))
}

type InsertCustomerActivityParams struct {
	CustomerID  uuid.UUID
	Kind        string
	Description string
	Amount      decimal.NullDecimal
	Reference   *string
	CreatedAt   time.Time
}

const insertCustomerActivity = `INSERT INTO customer_activities (customer_id, kind, description, amount, reference, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, customer_id, kind, description, amount, reference, created_at`

func (q *Queries) InsertCustomerActivity(ctx context.Context, arg InsertCustomerActivityParams) (CustomerActivity, error) {
	var a CustomerActivity
	err := q.db.QueryRow(ctx, insertCustomerActivity, arg.CustomerID, arg.Kind, arg.Description, arg.Amount,
		arg.Reference, arg.CreatedAt).
		Scan(&a.ID, &a.CustomerID, &a.Kind, &a.Description, &a.Amount, &a.Reference, &a.CreatedAt)
	return a, err
}

const listCustomerActivities = `SELECT id, customer_id, kind, description, amount, reference, created_at
FROM customer_activities WHERE customer_id = $1 ORDER BY created_at DESC LIMIT $2`

func (q *Queries) ListCustomerActivities(ctx context.Context, customerID uuid.UUID, limit int32) ([]CustomerActivity, error) {
	rows, err := q.db.Query(ctx, listCustomerActivities, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CustomerActivity
	for rows.Next() {
		var a CustomerActivity
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.Kind, &a.Description, &a.Amount, &a.Reference, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
