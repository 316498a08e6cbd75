package store

import (
	"context"

	"github.com/shopspring/decimal"
)

const settingsColumns = `business_name, currency, gst_rate, cgst_rate, sgst_rate, igst_rate, split_tax, gstin, loyalty_points_rate, payment_methods, updated_at`

func scanSettings(row scanner) (Settings, error) {
	var s Settings
	err := row.Scan(&s.BusinessName, &s.Currency, &s.GSTRate, &s.CGSTRate, &s.SGSTRate, &s.IGSTRate, &s.SplitTax,
		&s.GSTIN, &s.LoyaltyPointsRate, &s.PaymentMethods, &s.UpdatedAt)
	return s, err
}

const getSettings = `SELECT ` + settingsColumns + ` FROM business_settings WHERE id = 1`

func (q *Queries) GetSettings(ctx context.Context) (Settings, error) {
	return scanSettings(q.db.QueryRow(ctx, getSettings))
}

type UpdateSettingsParams struct {
	BusinessName      string
	Currency          string
	GSTRate           decimal.Decimal
	CGSTRate          decimal.Decimal
	SGSTRate          decimal.Decimal
	IGSTRate          decimal.Decimal
	SplitTax          bool
	GSTIN             *string
	LoyaltyPointsRate decimal.Decimal
	PaymentMethods    []string
}

const updateSettings = `INSERT INTO business_settings (id, business_name, currency, gst_rate, cgst_rate, sgst_rate, igst_rate, split_tax, gstin, loyalty_points_rate, payment_methods, updated_at)
VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
ON CONFLICT (id) DO UPDATE SET
    business_name = EXCLUDED.business_name, currency = EXCLUDED.currency, gst_rate = EXCLUDED.gst_rate,
    cgst_rate = EXCLUDED.cgst_rate, sgst_rate = EXCLUDED.sgst_rate, igst_rate = EXCLUDED.igst_rate,
    split_tax = EXCLUDED.split_tax, gstin = EXCLUDED.gstin, loyalty_points_rate = EXCLUDED.loyalty_points_rate,
    payment_methods = EXCLUDED.payment_methods, updated_at = now()
RETURNING ` + settingsColumns

func (q *Queries) UpdateSettings(ctx context.Context, arg UpdateSettingsParams) (Settings, error) {
	return scanSettings(q.db.QueryRow(ctx, updateSettings, arg.BusinessName, arg.Currency, arg.GSTRate, arg.CGSTRate,
		arg.SGSTRate, arg.IGSTRate, arg.SplitTax, arg.GSTIN, arg.LoyaltyPointsRate, arg.PaymentMethods))
}
