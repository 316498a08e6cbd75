package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportRange bounds every report query: from inclusive, to exclusive.
type ReportRange struct {
	BranchID *uuid.UUID
	From     time.Time
	To       time.Time
}

type SalesSummaryRow struct {
	Sales          int64           `json:"sales"`
	Revenue        decimal.Decimal `json:"revenue"`
	Tax            decimal.Decimal `json:"tax"`
	Discount       decimal.Decimal `json:"discount"`
	CouponDiscount decimal.Decimal `json:"couponDiscount"`
}

const salesSummary = `SELECT count(*), COALESCE(sum(total), 0), COALESCE(sum(tax_amount), 0), COALESCE(sum(discount), 0),
       COALESCE(sum(coupon_discount), 0)
FROM sales
WHERE status = 'Completed' AND ($1::uuid IS NULL OR branch_id = $1) AND created_at >= $2 AND created_at < $3`

func (q *Queries) SalesSummary(ctx context.Context, arg ReportRange) (SalesSummaryRow, error) {
	var r SalesSummaryRow
	err := q.db.QueryRow(ctx, salesSummary, arg.BranchID, arg.From, arg.To).
		Scan(&r.Sales, &r.Revenue, &r.Tax, &r.Discount, &r.CouponDiscount)
	return r, err
}

type PaymentMethodRow struct {
	PaymentMethod string          `json:"paymentMethod"`
	Sales         int64           `json:"sales"`
	Revenue       decimal.Decimal `json:"revenue"`
}

const paymentMethodBreakdown = `SELECT payment_method, count(*), COALESCE(sum(total), 0)
FROM sales
WHERE status = 'Completed' AND ($1::uuid IS NULL OR branch_id = $1) AND created_at >= $2 AND created_at < $3
GROUP BY payment_method
ORDER BY payment_method`

func (q *Queries) PaymentMethodBreakdown(ctx context.Context, arg ReportRange) ([]PaymentMethodRow, error) {
	rows, err := q.db.Query(ctx, paymentMethodBreakdown, arg.BranchID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PaymentMethodRow
	for rows.Next() {
		var r PaymentMethodRow
		if err := rows.Scan(&r.PaymentMethod, &r.Sales, &r.Revenue); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

type DailyRevenueRow struct {
	Day     time.Time       `json:"day"`
	Sales   int64           `json:"sales"`
	Revenue decimal.Decimal `json:"revenue"`
}

const dailyRevenue = `SELECT date_trunc('day', created_at) AS day, count(*), COALESCE(sum(total), 0)
FROM sales
WHERE status = 'Completed' AND ($1::uuid IS NULL OR branch_id = $1) AND created_at >= $2 AND created_at < $3
GROUP BY day
ORDER BY day`

func (q *Queries) DailyRevenue(ctx context.Context, arg ReportRange) ([]DailyRevenueRow, error) {
	rows, err := q.db.Query(ctx, dailyRevenue, arg.BranchID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DailyRevenueRow
	for rows.Next() {
		var r DailyRevenueRow
		if err := rows.Scan(&r.Day, &r.Sales, &r.Revenue); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

type TopCustomerRow struct {
	CustomerID uuid.UUID       `json:"customerId"`
	Name       string          `json:"name"`
	Visits     int64           `json:"visits"`
	Spent      decimal.Decimal `json:"spent"`
}

const topCustomers = `SELECT c.id, c.name, count(s.id), COALESCE(sum(s.total), 0) AS spent
FROM sales s
JOIN customers c ON c.id = s.customer_id
WHERE s.status = 'Completed' AND ($1::uuid IS NULL OR s.branch_id = $1) AND s.created_at >= $2 AND s.created_at < $3
GROUP BY c.id, c.name
ORDER BY spent DESC, c.name
LIMIT $4`

func (q *Queries) TopCustomers(ctx context.Context, arg ReportRange, limit int32) ([]TopCustomerRow, error) {
	rows, err := q.db.Query(ctx, topCustomers, arg.BranchID, arg.From, arg.To, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TopCustomerRow
	for rows.Next() {
		var r TopCustomerRow
		if err := rows.Scan(&r.CustomerID, &r.Name, &r.Visits, &r.Spent); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

type ServicePerformanceRow struct {
	ServiceID   uuid.UUID       `json:"serviceId"`
	ServiceName string          `json:"serviceName"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

const servicePerformance = `SELECT i.service_id, i.service_name, COALESCE(sum(i.quantity), 0), COALESCE(sum(i.line_total), 0) AS revenue
FROM sale_items i
JOIN sales s ON s.id = i.sale_id
WHERE s.status = 'Completed' AND ($1::uuid IS NULL OR s.branch_id = $1) AND s.created_at >= $2 AND s.created_at < $3
GROUP BY i.service_id, i.service_name
ORDER BY revenue DESC, i.service_name`

func (q *Queries) ServicePerformance(ctx context.Context, arg ReportRange) ([]ServicePerformanceRow, error) {
	rows, err := q.db.Query(ctx, servicePerformance, arg.BranchID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ServicePerformanceRow
	for rows.Next() {
		var r ServicePerformanceRow
		if err := rows.Scan(&r.ServiceID, &r.ServiceName, &r.Quantity, &r.Revenue); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

type CouponUsageRow struct {
	Code     string          `json:"code"`
	Uses     int64           `json:"uses"`
	Discount decimal.Decimal `json:"discount"`
}

const couponUsage = `SELECT coupon_code, count(*), COALESCE(sum(coupon_discount), 0)
FROM sales
WHERE status = 'Completed' AND coupon_code IS NOT NULL
  AND ($1::uuid IS NULL OR branch_id = $1) AND created_at >= $2 AND created_at < $3
GROUP BY coupon_code
ORDER BY count(*) DESC, coupon_code`

func (q *Queries) CouponUsage(ctx context.Context, arg ReportRange) ([]CouponUsageRow, error) {
	rows, err := q.db.Query(ctx, couponUsage, arg.BranchID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CouponUsageRow
	for rows.Next() {
		var r CouponUsageRow
		if err := rows.Scan(&r.Code, &r.Uses, &r.Discount); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

type CustomerCountsRow struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

const customerCounts = `SELECT count(*), count(*) FILTER (WHERE last_visit >= $2)
FROM customers WHERE deleted_at IS NULL AND ($1::uuid IS NULL OR branch_id = $1)`

// CustomerCounts treats a customer as active when they visited on or after activeSince.
func (q *Queries) CustomerCounts(ctx context.Context, branchID *uuid.UUID, activeSince time.Time) (CustomerCountsRow, error) {
	var r CustomerCountsRow
	err := q.db.QueryRow(ctx, customerCounts, branchID, activeSince).Scan(&r.Total, &r.Active)
	return r, err
}
