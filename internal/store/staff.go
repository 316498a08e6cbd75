package store

import (
	"context"

	"github.com/google/uuid"
)

const staffColumns = `id, branch_id, name, email, password_hash, role, is_active, created_at`

func scanStaff(row scanner) (Staff, error) {
	var s Staff
	err := row.Scan(&s.ID, &s.BranchID, &s.Name, &s.Email, &s.PasswordHash, &s.Role, &s.IsActive, &s.CreatedAt)
	return s, err
}

type CreateStaffParams struct {
	BranchID     *uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         StaffRole
}

const createStaff = `INSERT INTO staff (branch_id, name, email, password_hash, role) VALUES ($1, $2, lower($3), $4, $5)
RETURNING ` + staffColumns

func (q *Queries) CreateStaff(ctx context.Context, arg CreateStaffParams) (Staff, error) {
	return scanStaff(q.db.QueryRow(ctx, createStaff, arg.BranchID, arg.Name, arg.Email, arg.PasswordHash, arg.Role))
}

const getStaffByEmail = `SELECT ` + staffColumns + ` FROM staff WHERE email = lower($1)`

func (q *Queries) GetStaffByEmail(ctx context.Context, email string) (Staff, error) {
	return scanStaff(q.db.QueryRow(ctx, getStaffByEmail, email))
}

const getStaff = `SELECT ` + staffColumns + ` FROM staff WHERE id = $1`

func (q *Queries) GetStaff(ctx context.Context, id uuid.UUID) (Staff, error) {
	return scanStaff(q.db.QueryRow(ctx, getStaff, id))
}

const listStaff = `SELECT ` + staffColumns + ` FROM staff WHERE ($1::uuid IS NULL OR branch_id = $1) ORDER BY name`

func (q *Queries) ListStaff(ctx context.Context, branchID *uuid.UUID) ([]Staff, error) {
	rows, err := q.db.Query(ctx, listStaff, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

type UpdateStaffParams struct {
	ID       uuid.UUID
	BranchID *uuid.UUID
	Name     string
	Role     StaffRole
	IsActive bool
}

const updateStaff = `UPDATE staff SET branch_id = $2, name = $3, role = $4, is_active = $5, updated_at = now()
WHERE id = $1
RETURNING ` + staffColumns

func (q *Queries) UpdateStaff(ctx context.Context, arg UpdateStaffParams) (Staff, error) {
	return scanStaff(q.db.QueryRow(ctx, updateStaff, arg.ID, arg.BranchID, arg.Name, arg.Role, arg.IsActive))
}

const setStaffPassword = `UPDATE staff SET password_hash = $2, updated_at = now() WHERE id = $1`

func (q *Queries) SetStaffPassword(ctx context.Context, id uuid.UUID, hash string) (int64, error) {
	tag, err := q.db.Exec(ctx, setStaffPassword, id, hash)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
