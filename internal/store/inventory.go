package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const inventoryColumns = `id, branch_id, name, category, unit, supplier, current_stock, min_stock, max_stock, cost_price, selling_price, created_at, updated_at`

func scanInventoryItem(row scanner) (InventoryItem, error) {
	var it InventoryItem
	err := row.Scan(&it.ID, &it.BranchID, &it.Name, &it.Category, &it.Unit, &it.Supplier, &it.CurrentStock,
		&it.MinStock, &it.MaxStock, &it.CostPrice, &it.SellingPrice, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

type UpsertInventoryItemParams struct {
	ID           uuid.UUID
	BranchID     *uuid.UUID
	Name         string
	Category     string
	Unit         string
	Supplier     string
	CurrentStock int32
	MinStock     int32
	MaxStock     int32
	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal
}

const createInventoryItem = `INSERT INTO inventory_items (branch_id, name, category, unit, supplier, current_stock, min_stock, max_stock, cost_price, selling_price)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + inventoryColumns

func (q *Queries) CreateInventoryItem(ctx context.Context, arg UpsertInventoryItemParams) (InventoryItem, error) {
	return scanInventoryItem(q.db.QueryRow(ctx, createInventoryItem, arg.BranchID, arg.Name, arg.Category, arg.Unit,
		arg.Supplier, arg.CurrentStock, arg.MinStock, arg.MaxStock, arg.CostPrice, arg.SellingPrice))
}

// UpdateInventoryItem leaves current_stock alone; stock moves through AdjustStock and ConsumeStock.
const updateInventoryItem = `UPDATE inventory_items
SET name = $2, category = $3, unit = $4, supplier = $5, min_stock = $6, max_stock = $7,
    cost_price = $8, selling_price = $9, updated_at = now()
WHERE id = $1
RETURNING ` + inventoryColumns

func (q *Queries) UpdateInventoryItem(ctx context.Context, arg UpsertInventoryItemParams) (InventoryItem, error) {
	return scanInventoryItem(q.db.QueryRow(ctx, updateInventoryItem, arg.ID, arg.Name, arg.Category, arg.Unit,
		arg.Supplier, arg.MinStock, arg.MaxStock, arg.CostPrice, arg.SellingPrice))
}

const getInventoryItem = `SELECT ` + inventoryColumns + ` FROM inventory_items WHERE id = $1`

func (q *Queries) GetInventoryItem(ctx context.Context, id uuid.UUID) (InventoryItem, error) {
	return scanInventoryItem(q.db.QueryRow(ctx, getInventoryItem, id))
}

const listInventoryItems = `SELECT ` + inventoryColumns + ` FROM inventory_items
WHERE ($1::uuid IS NULL OR branch_id = $1)
  AND (NOT $2::bool OR current_stock <= min_stock)
ORDER BY name`

func (q *Queries) ListInventoryItems(ctx context.Context, branchID *uuid.UUID, lowStockOnly bool) ([]InventoryItem, error) {
	rows, err := q.db.Query(ctx, listInventoryItems, branchID, lowStockOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InventoryItem
	for rows.Next() {
		it, err := scanInventoryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const countLowStock = `SELECT count(*) FROM inventory_items WHERE ($1::uuid IS NULL OR branch_id = $1) AND current_stock <= min_stock`

func (q *Queries) CountLowStock(ctx context.Context, branchID *uuid.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countLowStock, branchID).Scan(&n)
	return n, err
}

const adjustStock = `UPDATE inventory_items SET current_stock = current_stock + $2, updated_at = now()
WHERE id = $1 AND current_stock + $2 >= 0
RETURNING ` + inventoryColumns

// AdjustStock applies a signed delta; pgx.ErrNoRows when the result would go negative.
func (q *Queries) AdjustStock(ctx context.Context, id uuid.UUID, delta int32) (InventoryItem, error) {
	return scanInventoryItem(q.db.QueryRow(ctx, adjustStock, id, delta))
}

const consumeStock = `UPDATE inventory_items SET current_stock = current_stock - $2, updated_at = now()
WHERE id = $1 AND current_stock >= $2
RETURNING ` + inventoryColumns

// ConsumeStock is the compare-and-decrement used by finalisation.
func (q *Queries) ConsumeStock(ctx context.Context, id uuid.UUID, qty int32) (InventoryItem, error) {
	return scanInventoryItem(q.db.QueryRow(ctx, consumeStock, id, qty))
}
