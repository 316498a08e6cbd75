package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const serviceColumns = `id, branch_id, name, category, description, price, duration_minutes, tax_rate, variants, is_active, created_at, updated_at`

func scanService(row scanner) (Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.BranchID, &s.Name, &s.Category, &s.Description, &s.Price, &s.DurationMinutes,
		&s.TaxRate, &s.Variants, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

type UpsertServiceParams struct {
	ID              uuid.UUID
	BranchID        *uuid.UUID
	Name            string
	Category        string
	Description     string
	Price           decimal.Decimal
	DurationMinutes int32
	TaxRate         decimal.Decimal
	Variants        []string
	IsActive        bool
}

const createService = `INSERT INTO services (branch_id, name, category, description, price, duration_minutes, tax_rate, variants, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + serviceColumns

func (q *Queries) CreateService(ctx context.Context, arg UpsertServiceParams) (Service, error) {
	return scanService(q.db.QueryRow(ctx, createService, arg.BranchID, arg.Name, arg.Category, arg.Description,
		arg.Price, arg.DurationMinutes, arg.TaxRate, arg.Variants, arg.IsActive))
}

const updateService = `UPDATE services
SET name = $2, category = $3, description = $4, price = $5, duration_minutes = $6, tax_rate = $7,
    variants = $8, is_active = $9, updated_at = now()
WHERE id = $1
RETURNING ` + serviceColumns

func (q *Queries) UpdateService(ctx context.Context, arg UpsertServiceParams) (Service, error) {
	return scanService(q.db.QueryRow(ctx, updateService, arg.ID, arg.Name, arg.Category, arg.Description,
		arg.Price, arg.DurationMinutes, arg.TaxRate, arg.Variants, arg.IsActive))
}

const getService = `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

func (q *Queries) GetService(ctx context.Context, id uuid.UUID) (Service, error) {
	return scanService(q.db.QueryRow(ctx, getService, id))
}

type ListServicesParams struct {
	BranchID   *uuid.UUID
	Category   string
	ActiveOnly bool
}

const listServices = `SELECT ` + serviceColumns + ` FROM services
WHERE ($1::uuid IS NULL OR branch_id IS NULL OR branch_id = $1)
  AND ($2::text = '' OR category = $2)
  AND (NOT $3::bool OR is_active)
ORDER BY category, name`

func (q *Queries) ListServices(ctx context.Context, arg ListServicesParams) ([]Service, error) {
	rows, err := q.db.Query(ctx, listServices, arg.BranchID, arg.Category, arg.ActiveOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const setServiceActive = `UPDATE services SET is_active = $2, updated_at = now() WHERE id = $1 RETURNING ` + serviceColumns

func (q *Queries) SetServiceActive(ctx context.Context, id uuid.UUID, active bool) (Service, error) {
	return scanService(q.db.QueryRow(ctx, setServiceActive, id, active))
}

const listServiceConsumables = `SELECT service_id, inventory_item_id, quantity FROM service_consumables
WHERE service_id = ANY($1::uuid[]) ORDER BY inventory_item_id`

func (q *Queries) ListServiceConsumables(ctx context.Context, serviceIDs []uuid.UUID) ([]ServiceConsumable, error) {
	rows, err := q.db.Query(ctx, listServiceConsumables, serviceIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ServiceConsumable
	for rows.Next() {
		var c ServiceConsumable
		if err := rows.Scan(&c.ServiceID, &c.InventoryItemID, &c.Quantity); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const upsertServiceConsumable = `INSERT INTO service_consumables (service_id, inventory_item_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (service_id, inventory_item_id) DO UPDATE SET quantity = EXCLUDED.quantity`

func (q *Queries) UpsertServiceConsumable(ctx context.Context, arg ServiceConsumable) error {
	_, err := q.db.Exec(ctx, upsertServiceConsumable, arg.ServiceID, arg.InventoryItemID, arg.Quantity)
	return err
}

const deleteServiceConsumables = `DELETE FROM service_consumables WHERE service_id = $1`

func (q *Queries) DeleteServiceConsumables(ctx context.Context, serviceID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteServiceConsumables, serviceID)
	return err
}
