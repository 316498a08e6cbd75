// Package analytics builds sales, customer, service and coupon reports.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-salon/internal/pricing"
	"github.com/noah-isme/backend-salon/internal/store"
)

// Querier defines the report queries.
type Querier interface {
	SalesSummary(ctx context.Context, arg store.ReportRange) (store.SalesSummaryRow, error)
	PaymentMethodBreakdown(ctx context.Context, arg store.ReportRange) ([]store.PaymentMethodRow, error)
	DailyRevenue(ctx context.Context, arg store.ReportRange) ([]store.DailyRevenueRow, error)
	TopCustomers(ctx context.Context, arg store.ReportRange, limit int32) ([]store.TopCustomerRow, error)
	ServicePerformance(ctx context.Context, arg store.ReportRange) ([]store.ServicePerformanceRow, error)
	CouponUsage(ctx context.Context, arg store.ReportRange) ([]store.CouponUsageRow, error)
	CustomerCounts(ctx context.Context, branchID *uuid.UUID, activeSince time.Time) (store.CustomerCountsRow, error)
	CountLowStock(ctx context.Context, branchID *uuid.UUID) (int64, error)
	CountUpcomingAppointments(ctx context.Context, branchID *uuid.UUID, now time.Time) (int64, error)
	ExpenseTotal(ctx context.Context, arg store.ReportRange) (decimal.Decimal, error)
}

// PaymentMethods lists the methods always present in the breakdown.
var PaymentMethods = []string{"cash", "card", "upi"}

// Service computes reports and caches them in Redis.
type Service struct {
	Q      Querier
	R      *redis.Client
	TTL    time.Duration
	Logger *zerolog.Logger
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// SalesReport summarises completed sales in a range.
type SalesReport struct {
	Range             Range                    `json:"range"`
	Sales             int64                    `json:"sales"`
	Revenue           decimal.Decimal          `json:"revenue"`
	Tax               decimal.Decimal          `json:"tax"`
	Discount          decimal.Decimal          `json:"discount"`
	CouponDiscount    decimal.Decimal          `json:"couponDiscount"`
	AverageOrderValue decimal.Decimal          `json:"averageOrderValue"`
	PaymentMethods    []store.PaymentMethodRow `json:"paymentMethods"`
	Daily             []store.DailyRevenueRow  `json:"daily"`
}

// CustomerReport lists the top spenders in a range.
type CustomerReport struct {
	Range           Range                  `json:"range"`
	TotalCustomers  int64                  `json:"totalCustomers"`
	ActiveCustomers int64                  `json:"activeCustomers"`
	TopCustomers    []store.TopCustomerRow `json:"topCustomers"`
}

// ServiceReport lists quantity and revenue per service.
type ServiceReport struct {
	Range    Range                         `json:"range"`
	Services []store.ServicePerformanceRow `json:"services"`
}

// CouponReport lists uses and discount given per coupon.
type CouponReport struct {
	Range         Range                  `json:"range"`
	Coupons       []store.CouponUsageRow `json:"coupons"`
	TotalUses     int64                  `json:"totalUses"`
	TotalDiscount decimal.Decimal        `json:"totalDiscount"`
}

// Overview is the dashboard summary.
type Overview struct {
	Range                Range                   `json:"range"`
	Revenue              decimal.Decimal         `json:"revenue"`
	Sales                int64                   `json:"sales"`
	AverageOrderValue    decimal.Decimal         `json:"averageOrderValue"`
	PreviousRevenue      decimal.Decimal         `json:"previousRevenue"`
	RevenueChangePct     decimal.Decimal         `json:"revenueChangePct"`
	MonthlyRevenue       decimal.Decimal         `json:"monthlyRevenue"`
	DailyRevenue         decimal.Decimal         `json:"dailyRevenue"`
	LastSevenDays        []store.DailyRevenueRow `json:"lastSevenDays"`
	TotalCustomers       int64                   `json:"totalCustomers"`
	ActiveCustomers      int64                   `json:"activeCustomers"`
	LowStockItems        int64                   `json:"lowStockItems"`
	UpcomingAppointments int64                   `json:"upcomingAppointments"`
	Expenses             decimal.Decimal         `json:"expenses"`
	NetRevenue           decimal.Decimal         `json:"netRevenue"`
}

func (s *Service) ready() error {
	if s == nil || s.Q == nil {
		return errors.New("analytics service not configured")
	}
	return nil
}

func storeRange(branchID *uuid.UUID, r Range) store.ReportRange {
	return store.ReportRange{BranchID: branchID, From: r.From, To: r.To}
}

// Sales builds the sales report.
func (s *Service) Sales(ctx context.Context, branchID *uuid.UUID, r Range) (SalesReport, error) {
	if err := s.ready(); err != nil {
		return SalesReport{}, err
	}
	return cached(ctx, s, cacheKey("sales", branchID, r), func() (SalesReport, error) {
		arg := storeRange(branchID, r)
		sum, err := s.Q.SalesSummary(ctx, arg)
		if err != nil {
			return SalesReport{}, err
		}
		methods, err := s.Q.PaymentMethodBreakdown(ctx, arg)
		if err != nil {
			return SalesReport{}, err
		}
		daily, err := s.Q.DailyRevenue(ctx, arg)
		if err != nil {
			return SalesReport{}, err
		}
		if daily == nil {
			daily = []store.DailyRevenueRow{}
		}
		return SalesReport{
			Range:             r,
			Sales:             sum.Sales,
			Revenue:           pricing.Round2(sum.Revenue),
			Tax:               pricing.Round2(sum.Tax),
			Discount:          pricing.Round2(sum.Discount),
			CouponDiscount:    pricing.Round2(sum.CouponDiscount),
			AverageOrderValue: average(sum.Revenue, sum.Sales),
			PaymentMethods:    fillMethods(methods),
			Daily:             daily,
		}, nil
	})
}

// Customers builds the top-10 customer report.
func (s *Service) Customers(ctx context.Context, branchID *uuid.UUID, r Range) (CustomerReport, error) {
	if err := s.ready(); err != nil {
		return CustomerReport{}, err
	}
	return cached(ctx, s, cacheKey("customers", branchID, r), func() (CustomerReport, error) {
		top, err := s.Q.TopCustomers(ctx, storeRange(branchID, r), 10)
		if err != nil {
			return CustomerReport{}, err
		}
		counts, err := s.Q.CustomerCounts(ctx, branchID, r.From)
		if err != nil {
			return CustomerReport{}, err
		}
		if top == nil {
			top = []store.TopCustomerRow{}
		}
		return CustomerReport{Range: r, TotalCustomers: counts.Total, ActiveCustomers: counts.Active, TopCustomers: top}, nil
	})
}

// Services builds the service performance report.
func (s *Service) Services(ctx context.Context, branchID *uuid.UUID, r Range) (ServiceReport, error) {
	if err := s.ready(); err != nil {
		return ServiceReport{}, err
	}
	return cached(ctx, s, cacheKey("services", branchID, r), func() (ServiceReport, error) {
		rows, err := s.Q.ServicePerformance(ctx, storeRange(branchID, r))
		if err != nil {
			return ServiceReport{}, err
		}
		if rows == nil {
			rows = []store.ServicePerformanceRow{}
		}
		return ServiceReport{Range: r, Services: rows}, nil
	})
}

// Coupons builds the coupon usage report.
func (s *Service) Coupons(ctx context.Context, branchID *uuid.UUID, r Range) (CouponReport, error) {
	if err := s.ready(); err != nil {
		return CouponReport{}, err
	}
	return cached(ctx, s, cacheKey("coupons", branchID, r), func() (CouponReport, error) {
		rows, err := s.Q.CouponUsage(ctx, storeRange(branchID, r))
		if err != nil {
			return CouponReport{}, err
		}
		rep := CouponReport{Range: r, Coupons: rows, TotalDiscount: decimal.Zero}
		if rep.Coupons == nil {
			rep.Coupons = []store.CouponUsageRow{}
		}
		for _, c := range rows {
			rep.TotalUses += c.Uses
			rep.TotalDiscount = rep.TotalDiscount.Add(c.Discount)
		}
		rep.TotalDiscount = pricing.Round2(rep.TotalDiscount)
		return rep, nil
	})
}

// Overview builds the dashboard summary for r.
func (s *Service) Overview(ctx context.Context, branchID *uuid.UUID, r Range) (Overview, error) {
	if err := s.ready(); err != nil {
		return Overview{}, err
	}
	return cached(ctx, s, cacheKey("overview", branchID, r), func() (Overview, error) {
		now := s.now()
		cur, err := s.Q.SalesSummary(ctx, storeRange(branchID, r))
		if err != nil {
			return Overview{}, err
		}
		prev, err := s.Q.SalesSummary(ctx, storeRange(branchID, r.Previous()))
		if err != nil {
			return Overview{}, err
		}
		month, _ := ResolveRange(RangeMonth, "", "", now)
		monthly, err := s.Q.SalesSummary(ctx, storeRange(branchID, month))
		if err != nil {
			return Overview{}, err
		}
		today, _ := ResolveRange(RangeToday, "", "", now)
		daily, err := s.Q.SalesSummary(ctx, storeRange(branchID, today))
		if err != nil {
			return Overview{}, err
		}
		week := Range{From: today.From.AddDate(0, 0, -6), To: today.To}
		chart, err := s.Q.DailyRevenue(ctx, storeRange(branchID, week))
		if err != nil {
			return Overview{}, err
		}
		counts, err := s.Q.CustomerCounts(ctx, branchID, r.From)
		if err != nil {
			return Overview{}, err
		}
		low, err := s.Q.CountLowStock(ctx, branchID)
		if err != nil {
			return Overview{}, err
		}
		upcoming, err := s.Q.CountUpcomingAppointments(ctx, branchID, now)
		if err != nil {
			return Overview{}, err
		}
		spent, err := s.Q.ExpenseTotal(ctx, storeRange(branchID, r))
		if err != nil {
			return Overview{}, err
		}
		return Overview{
			Range:                r,
			Revenue:              pricing.Round2(cur.Revenue),
			Sales:                cur.Sales,
			AverageOrderValue:    average(cur.Revenue, cur.Sales),
			PreviousRevenue:      pricing.Round2(prev.Revenue),
			RevenueChangePct:     changePct(cur.Revenue, prev.Revenue),
			MonthlyRevenue:       pricing.Round2(monthly.Revenue),
			DailyRevenue:         pricing.Round2(daily.Revenue),
			LastSevenDays:        fillDays(chart, week),
			TotalCustomers:       counts.Total,
			ActiveCustomers:      counts.Active,
			LowStockItems:        low,
			UpcomingAppointments: upcoming,
			Expenses:             pricing.Round2(spent),
			NetRevenue:           pricing.Round2(cur.Revenue.Sub(spent)),
		}, nil
	})
}

// Invalidate drops every cached report.
func (s *Service) Invalidate(ctx context.Context) error {
	if s == nil || s.R == nil {
		return nil
	}
	iter := s.R.Scan(ctx, 0, "an:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.R.Del(ctx, keys...).Err()
}

func average(total decimal.Decimal, n int64) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	return pricing.Round2(total.Div(decimal.NewFromInt(n)))
}

// changePct is 0 when there was no previous revenue.
func changePct(cur, prev decimal.Decimal) decimal.Decimal {
	if !prev.IsPositive() {
		return decimal.Zero
	}
	return cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(1)
}

func fillMethods(rows []store.PaymentMethodRow) []store.PaymentMethodRow {
	out := make([]store.PaymentMethodRow, 0, len(PaymentMethods))
	seen := map[string]bool{}
	for _, m := range PaymentMethods {
		row := store.PaymentMethodRow{PaymentMethod: m, Revenue: decimal.Zero}
		for _, r := range rows {
			if r.PaymentMethod == m {
				row = r
				row.Revenue = pricing.Round2(r.Revenue)
			}
		}
		seen[m] = true
		out = append(out, row)
	}
	for _, r := range rows {
		if !seen[r.PaymentMethod] {
			out = append(out, r)
		}
	}
	return out
}

// fillDays returns one row per day of r, zero where nothing was sold.
func fillDays(rows []store.DailyRevenueRow, r Range) []store.DailyRevenueRow {
	byDay := make(map[string]store.DailyRevenueRow, len(rows))
	for _, row := range rows {
		byDay[row.Day.Format("2006-01-02")] = row
	}
	var out []store.DailyRevenueRow
	for d := r.From; d.Before(r.To); d = d.AddDate(0, 0, 1) {
		row, ok := byDay[d.Format("2006-01-02")]
		if !ok {
			row = store.DailyRevenueRow{Revenue: decimal.Zero}
		}
		row.Day = d
		out = append(out, row)
	}
	return out
}

func cacheKey(report string, branchID *uuid.UUID, r Range) string {
	branch := "all"
	if branchID != nil {
		branch = branchID.String()
	}
	return strings.Join([]string{"an", report, branch, r.From.Format(time.RFC3339), r.To.Format(time.RFC3339)}, ":")
}

func cached[T any](ctx context.Context, s *Service, key string, build func() (T, error)) (T, error) {
	if s.R != nil && s.TTL > 0 {
		if data, err := s.R.Get(ctx, key).Bytes(); err == nil {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				return v, nil
			}
		} else if !errors.Is(err, redis.Nil) && s.Logger != nil {
			s.Logger.Warn().Err(err).Str("key", key).Msg("analytics cache read failed")
		}
	}
	v, err := build()
	if err != nil {
		return v, fmt.Errorf("analytics: %w", err)
	}
	if s.R != nil && s.TTL > 0 {
		if data, err := json.Marshal(v); err == nil {
			if err := s.R.Set(ctx, key, data, s.TTL).Err(); err != nil && s.Logger != nil {
				s.Logger.Warn().Err(err).Str("key", key).Msg("analytics cache write failed")
			}
		}
	}
	return v, nil
}
