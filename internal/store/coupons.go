package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const couponColumns = `id, code, description, type, value, min_amount, max_discount, usage_limit, used_count, start_date, end_date, is_active, created_at, updated_at`

func scanCoupon(row scanner) (Coupon, error) {
	var c Coupon
	err := row.Scan(&c.ID, &c.Code, &c.Description, &c.Type, &c.Value, &c.MinAmount, &c.MaxDiscount,
		&c.UsageLimit, &c.UsedCount, &c.StartDate, &c.EndDate, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const listCoupons = `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC`

func (q *Queries) ListCoupons(ctx context.Context) ([]Coupon, error) {
	rows, err := q.db.Query(ctx, listCoupons)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const listCouponsByCode = `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

// ListCouponsByCode returns the catalog slice a validator needs for one code.
func (q *Queries) ListCouponsByCode(ctx context.Context, code string) ([]Coupon, error) {
	rows, err := q.db.Query(ctx, listCouponsByCode, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const getCouponByCode = `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

func (q *Queries) GetCouponByCode(ctx context.Context, code string) (Coupon, error) {
	return scanCoupon(q.db.QueryRow(ctx, getCouponByCode, code))
}

type CreateCouponParams struct {
	Code        string
	Description string
	Type        string
	Value       decimal.Decimal
	MinAmount   decimal.Decimal
	MaxDiscount decimal.Decimal
	UsageLimit  int32
	StartDate   time.Time
	EndDate     time.Time
	IsActive    bool
}

const createCoupon = `INSERT INTO coupons (code, description, type, value, min_amount, max_discount, usage_limit, start_date, end_date, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + couponColumns

func (q *Queries) CreateCoupon(ctx context.Context, arg CreateCouponParams) (Coupon, error) {
	return scanCoupon(q.db.QueryRow(ctx, createCoupon, arg.Code, arg.Description, arg.Type, arg.Value,
		arg.MinAmount, arg.MaxDiscount, arg.UsageLimit, arg.StartDate, arg.EndDate, arg.IsActive))
}

type UpdateCouponParams struct {
	Code        string
	Description string
	Type        string
	Value       decimal.Decimal
	MinAmount   decimal.Decimal
	MaxDiscount decimal.Decimal
	UsageLimit  int32
	StartDate   time.Time
	EndDate     time.Time
	IsActive    bool
}

const updateCoupon = `UPDATE coupons
SET description = $2, type = $3, value = $4, min_amount = $5, max_discount = $6, usage_limit = $7,
    start_date = $8, end_date = $9, is_active = $10, updated_at = now()
WHERE code = $1
RETURNING ` + couponColumns

func (q *Queries) UpdateCoupon(ctx context.Context, arg UpdateCouponParams) (Coupon, error) {
	return scanCoupon(q.db.QueryRow(ctx, updateCoupon, arg.Code, arg.Description, arg.Type, arg.Value,
		arg.MinAmount, arg.MaxDiscount, arg.UsageLimit, arg.StartDate, arg.EndDate, arg.IsActive))
}

const setCouponActive = `UPDATE coupons SET is_active = $2, updated_at = now() WHERE code = $1 RETURNING ` + couponColumns

func (q *Queries) SetCouponActive(ctx context.Context, code string, active bool) (Coupon, error) {
	return scanCoupon(q.db.QueryRow(ctx, setCouponActive, code, active))
}

const consumeCoupon = `UPDATE coupons
SET used_count = used_count + 1, updated_at = now()
WHERE id = $1 AND is_active AND used_count < usage_limit AND end_date >= $2
RETURNING ` + couponColumns

// ConsumeCoupon increments used_count only while the coupon is still usable.
// pgx.ErrNoRows means another sale took the last use or the coupon lapsed.
func (q *Queries) ConsumeCoupon(ctx context.Context, id uuid.UUID, now time.Time) (Coupon, error) {
	return scanCoupon(q.db.QueryRow(ctx, consumeCoupon, id, now))
}
