package analytics

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// Export builds a workbook with one sheet per report.
func (s *Service) Export(ctx context.Context, branchID *uuid.UUID, r Range) (*excelize.File, error) {
	sales, err := s.Sales(ctx, branchID, r)
	if err != nil {
		return nil, err
	}
	customers, err := s.Customers(ctx, branchID, r)
	if err != nil {
		return nil, err
	}
	services, err := s.Services(ctx, branchID, r)
	if err != nil {
		return nil, err
	}
	coupons, err := s.Coupons(ctx, branchID, r)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	summary := [][]any{
		{"From", r.From.Format("2006-01-02")},
		{"To", r.To.AddDate(0, 0, -1).Format("2006-01-02")},
		{"Sales", sales.Sales},
		{"Revenue", money(sales.Revenue)},
		{"Tax", money(sales.Tax)},
		{"Discount", money(sales.Discount)},
		{"Coupon discount", money(sales.CouponDiscount)},
		{"Average order value", money(sales.AverageOrderValue)},
		{},
		{"Payment method", "Sales", "Revenue"},
	}
	for _, m := range sales.PaymentMethods {
		summary = append(summary, []any{m.PaymentMethod, m.Sales, money(m.Revenue)})
	}
	summary = append(summary, []any{}, []any{"Day", "Sales", "Revenue"})
	for _, d := range sales.Daily {
		summary = append(summary, []any{d.Day.Format("2006-01-02"), d.Sales, money(d.Revenue)})
	}

	top := [][]any{{"Customer", "Visits", "Spent"}}
	for _, c := range customers.TopCustomers {
		top = append(top, []any{c.Name, c.Visits, money(c.Spent)})
	}
	svc := [][]any{{"Service", "Quantity", "Revenue"}}
	for _, row := range services.Services {
		svc = append(svc, []any{row.ServiceName, row.Quantity, money(row.Revenue)})
	}
	cp := [][]any{{"Coupon", "Uses", "Discount"}}
	for _, row := range coupons.Coupons {
		cp = append(cp, []any{row.Code, row.Uses, money(row.Discount)})
	}

	sheets := []struct {
		name string
		rows [][]any
	}{
		{"Sales", summary},
		{"Customers", top},
		{"Services", svc},
		{"Coupons", cp},
	}
	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			f.Close()
			return nil, err
		}
		if err := writeRows(f, sh.name, sh.rows); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
