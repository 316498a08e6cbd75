package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const saleColumns = `id, invoice_number, branch_id, customer_id, staff_id, subtotal, tax_amount, cgst, sgst, igst,
coupon_code, coupon_discount, manual_discount, discount, total, payment_method, status, cancel_reason, created_at, cancelled_at`

func scanSale(row scanner) (Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.InvoiceNumber, &s.BranchID, &s.CustomerID, &s.StaffID, &s.Subtotal, &s.TaxAmount,
		&s.CGST, &s.SGST, &s.IGST, &s.CouponCode, &s.CouponDiscount, &s.ManualDiscount, &s.Discount, &s.Total,
		&s.PaymentMethod, &s.Status, &s.CancelReason, &s.CreatedAt, &s.CancelledAt)
	return s, err
}

type CreateSaleParams struct {
	InvoiceNumber  string
	BranchID       *uuid.UUID
	CustomerID     *uuid.UUID
	StaffID        *uuid.UUID
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	CGST           decimal.Decimal
	SGST           decimal.Decimal
	IGST           decimal.Decimal
	CouponCode     *string
	CouponDiscount decimal.Decimal
	ManualDiscount decimal.Decimal
	Discount       decimal.Decimal
	Total          decimal.Decimal
	PaymentMethod  string
	Status         SaleStatus
	CreatedAt      time.Time
}

const createSale = `INSERT INTO sales (invoice_number, branch_id, customer_id, staff_id, subtotal, tax_amount, cgst, sgst, igst,
coupon_code, coupon_discount, manual_discount, discount, total, payment_method, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
RETURNING ` + saleColumns

func (q *Queries) CreateSale(ctx context.Context, arg CreateSaleParams) (Sale, error) {
	return scanSale(q.db.QueryRow(ctx, createSale, arg.InvoiceNumber, arg.BranchID, arg.CustomerID, arg.StaffID,
		arg.Subtotal, arg.TaxAmount, arg.CGST, arg.SGST, arg.IGST, arg.CouponCode, arg.CouponDiscount,
		arg.ManualDiscount, arg.Discount, arg.Total, arg.PaymentMethod, arg.Status, arg.CreatedAt))
}

type CreateSaleItemParams struct {
	SaleID      uuid.UUID
	ServiceID   uuid.UUID
	ServiceName string
	Variant     string
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal
	Quantity    int32
	LineTotal   decimal.Decimal
	TaxAmount   decimal.Decimal
}

const saleItemColumns = `id, sale_id, service_id, service_name, variant, unit_price, tax_rate, quantity, line_total, tax_amount`

func scanSaleItem(row scanner) (SaleItem, error) {
	var it SaleItem
	err := row.Scan(&it.ID, &it.SaleID, &it.ServiceID, &it.ServiceName, &it.Variant, &it.UnitPrice, &it.TaxRate,
		&it.Quantity, &it.LineTotal, &it.TaxAmount)
	return it, err
}

const createSaleItem = `INSERT INTO sale_items (sale_id, service_id, service_name, variant, unit_price, tax_rate, quantity, line_total, tax_amount)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + saleItemColumns

func (q *Queries) CreateSaleItem(ctx context.Context, arg CreateSaleItemParams) (SaleItem, error) {
	return scanSaleItem(q.db.QueryRow(ctx, createSaleItem, arg.SaleID, arg.ServiceID, arg.ServiceName, arg.Variant,
		arg.UnitPrice, arg.TaxRate, arg.Quantity, arg.LineTotal, arg.TaxAmount))
}

const getSale = `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`

func (q *Queries) GetSale(ctx context.Context, id uuid.UUID) (Sale, error) {
	return scanSale(q.db.QueryRow(ctx, getSale, id))
}

const getSaleByInvoice = `SELECT ` + saleColumns + ` FROM sales WHERE invoice_number = $1`

func (q *Queries) GetSaleByInvoice(ctx context.Context, invoice string) (Sale, error) {
	return scanSale(q.db.QueryRow(ctx, getSaleByInvoice, invoice))
}

const listSaleItems = `SELECT ` + saleItemColumns + ` FROM sale_items WHERE sale_id = $1 ORDER BY service_name, variant`

func (q *Queries) ListSaleItems(ctx context.Context, saleID uuid.UUID) ([]SaleItem, error) {
	rows, err := q.db.Query(ctx, listSaleItems, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SaleItem
	for rows.Next() {
		it, err := scanSaleItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type ListSalesParams struct {
	BranchID   *uuid.UUID
	CustomerID *uuid.UUID
	From       time.Time
	To         time.Time
	Limit      int32
	Offset     int32
}

const listSales = `SELECT ` + saleColumns + ` FROM sales
WHERE ($1::uuid IS NULL OR branch_id = $1)
  AND ($2::uuid IS NULL OR customer_id = $2)
  AND created_at >= $3 AND created_at < $4
ORDER BY created_at DESC
LIMIT $5 OFFSET $6`

func (q *Queries) ListSales(ctx context.Context, arg ListSalesParams) ([]Sale, error) {
	rows, err := q.db.Query(ctx, listSales, arg.BranchID, arg.CustomerID, arg.From, arg.To, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

type CountSalesParams struct {
	BranchID   *uuid.UUID
	CustomerID *uuid.UUID
	From       time.Time
	To         time.Time
}

const countSales = `SELECT count(*) FROM sales
WHERE ($1::uuid IS NULL OR branch_id = $1)
  AND ($2::uuid IS NULL OR customer_id = $2)
  AND created_at >= $3 AND created_at < $4`

func (q *Queries) CountSales(ctx context.Context, arg CountSalesParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countSales, arg.BranchID, arg.CustomerID, arg.From, arg.To).Scan(&n)
	return n, err
}

type CancelSaleParams struct {
	ID          uuid.UUID
	Reason      string
	CancelledAt time.Time
}

const cancelSale = `UPDATE sales SET status = 'Cancelled', cancel_reason = $2, cancelled_at = $3
WHERE id = $1 AND status = 'Completed'
RETURNING ` + saleColumns

// CancelSale only moves Completed sales; pgx.ErrNoRows otherwise.
func (q *Queries) CancelSale(ctx context.Context, arg CancelSaleParams) (Sale, error) {
	return scanSale(q.db.QueryRow(ctx, cancelSale, arg.ID, arg.Reason, arg.CancelledAt))
}
