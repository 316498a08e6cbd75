package store

import (
	"context"

	"github.com/google/uuid"
)

const branchColumns = `id, name, code, address, city, state, pincode, phone, gstin, is_active, created_at, updated_at`

func scanBranch(row scanner) (Branch, error) {
	var b Branch
	err := row.Scan(&b.ID, &b.Name, &b.Code, &b.Address, &b.City, &b.State, &b.Pincode, &b.Phone, &b.GSTIN,
		&b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

type UpsertBranchParams struct {
	ID       uuid.UUID
	Name     string
	Code     string
	Address  string
	City     string
	State    string
	Pincode  string
	Phone    string
	GSTIN    *string
	IsActive bool
}

const createBranch = `INSERT INTO branches (name, code, address, city, state, pincode, phone, gstin, is_active)
VALUES ($1, upper($2), $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + branchColumns

func (q *Queries) CreateBranch(ctx context.Context, arg UpsertBranchParams) (Branch, error) {
	return scanBranch(q.db.QueryRow(ctx, createBranch, arg.Name, arg.Code, arg.Address, arg.City, arg.State,
		arg.Pincode, arg.Phone, arg.GSTIN, arg.IsActive))
}

const updateBranch = `UPDATE branches
SET name = $2, code = upper($3), address = $4, city = $5, state = $6, pincode = $7, phone = $8, gstin = $9,
    is_active = $10, updated_at = now()
WHERE id = $1
RETURNING ` + branchColumns

func (q *Queries) UpdateBranch(ctx context.Context, arg UpsertBranchParams) (Branch, error) {
	return scanBranch(q.db.QueryRow(ctx, updateBranch, arg.ID, arg.Name, arg.Code, arg.Address, arg.City,
		arg.State, arg.Pincode, arg.Phone, arg.GSTIN, arg.IsActive))
}

const getBranch = `SELECT ` + branchColumns + ` FROM branches WHERE id = $1`

func (q *Queries) GetBranch(ctx context.Context, id uuid.UUID) (Branch, error) {
	return scanBranch(q.db.QueryRow(ctx, getBranch, id))
}

const listBranches = `SELECT ` + branchColumns + ` FROM branches ORDER BY name`

func (q *Queries) ListBranches(ctx context.Context) ([]Branch, error) {
	rows, err := q.db.Query(ctx, listBranches)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

// BranchUsage counts the rows that still reference a branch.
type BranchUsage struct {
	Staff     int64 `json:"staff"`
	Customers int64 `json:"customers"`
	Sales     int64 `json:"sales"`
}

const branchUsage = `SELECT
  (SELECT count(*) FROM staff WHERE branch_id = $1),
  (SELECT count(*) FROM customers WHERE branch_id = $1 AND deleted_at IS NULL),
  (SELECT count(*) FROM sales WHERE branch_id = $1)`

func (q *Queries) BranchUsage(ctx context.Context, id uuid.UUID) (BranchUsage, error) {
	var u BranchUsage
	err := q.db.QueryRow(ctx, branchUsage, id).Scan(&u.Staff, &u.Customers, &u.Sales)
	return u, err
}

const deleteBranch = `DELETE FROM branches WHERE id = $1`

func (q *Queries) DeleteBranch(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteBranch, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
