// Package settings holds the single-row business settings.
package settings

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-salon/internal/pricing"
	"github.com/noah-isme/backend-salon/internal/store"
)

// ErrInvalidInput is returned when an update fails validation.
var ErrInvalidInput = errors.New("invalid settings")

// PaymentMethods lists every method a sale may be settled with.
var PaymentMethods = []string{"cash", "card", "upi"}

// Querier captures the store methods used for settings.
type Querier interface {
	GetSettings(ctx context.Context) (store.Settings, error)
	UpdateSettings(ctx context.Context, arg store.UpdateSettingsParams) (store.Settings, error)
}

// Defaults mirrors the row seeded by the initial migration.
func Defaults() store.Settings {
	return store.Settings{
		BusinessName:      "Salon",
		Currency:          "INR",
		GSTRate:           decimal.NewFromInt(18),
		CGSTRate:          decimal.NewFromInt(9),
		SGSTRate:          decimal.NewFromInt(9),
		IGSTRate:          decimal.NewFromInt(18),
		SplitTax:          true,
		LoyaltyPointsRate: decimal.NewFromInt(1),
		PaymentMethods:    append([]string(nil), PaymentMethods...),
	}
}

// Service reads and updates settings.
type Service struct {
	Q Querier
}

// Get returns the stored settings, or Defaults when the row is missing.
func (s *Service) Get(ctx context.Context) (store.Settings, error) {
	if s == nil || s.Q == nil {
		return store.Settings{}, errors.New("settings service not configured")
	}
	st, err := s.Q.GetSettings(ctx)
	if errors.Is(err, pgx.ErrNoRows) {
		return Defaults(), nil
	}
	return st, err
}

// Input is a full settings replacement. Nil fields keep their current value.
type Input struct {
	BusinessName      *string          `json:"businessName" validate:"omitempty,min=1,max=200"`
	Currency          *string          `json:"currency" validate:"omitempty,len=3"`
	GSTRate           *decimal.Decimal `json:"gstRate"`
	CGSTRate          *decimal.Decimal `json:"cgstRate"`
	SGSTRate          *decimal.Decimal `json:"sgstRate"`
	IGSTRate          *decimal.Decimal `json:"igstRate"`
	SplitTax          *bool            `json:"splitTax"`
	GSTIN             *string          `json:"gstin"`
	LoyaltyPointsRate *decimal.Decimal `json:"loyaltyPointsRate"`
	PaymentMethods    []string         `json:"paymentMethods"`
}

// Update merges in over the current settings, validates and stores the result.
func (s *Service) Update(ctx context.Context, in Input) (store.Settings, error) {
	cur, err := s.Get(ctx)
	if err != nil {
		return store.Settings{}, err
	}
	next := merge(cur, in)
	if err := validate(next); err != nil {
		return store.Settings{}, err
	}
	return s.Q.UpdateSettings(ctx, store.UpdateSettingsParams{
		BusinessName:      next.BusinessName,
		Currency:          next.Currency,
		GSTRate:           next.GSTRate,
		CGSTRate:          next.CGSTRate,
		SGSTRate:          next.SGSTRate,
		IGSTRate:          next.IGSTRate,
		SplitTax:          next.SplitTax,
		GSTIN:             next.GSTIN,
		LoyaltyPointsRate: next.LoyaltyPointsRate,
		PaymentMethods:    next.PaymentMethods,
	})
}

func merge(cur store.Settings, in Input) store.Settings {
	if in.BusinessName != nil {
		cur.BusinessName = strings.TrimSpace(*in.BusinessName)
	}
	if in.Currency != nil {
		cur.Currency = strings.ToUpper(strings.TrimSpace(*in.Currency))
	}
	if in.GSTRate != nil {
		cur.GSTRate = *in.GSTRate
	}
	if in.CGSTRate != nil {
		cur.CGSTRate = *in.CGSTRate
	}
	if in.SGSTRate != nil {
		cur.SGSTRate = *in.SGSTRate
	}
	if in.IGSTRate != nil {
		cur.IGSTRate = *in.IGSTRate
	}
	if in.SplitTax != nil {
		cur.SplitTax = *in.SplitTax
	}
	if in.GSTIN != nil {
		v := strings.ToUpper(strings.TrimSpace(*in.GSTIN))
		if v == "" {
			cur.GSTIN = nil
		} else {
			cur.GSTIN = &v
		}
	}
	if in.LoyaltyPointsRate != nil {
		cur.LoyaltyPointsRate = *in.LoyaltyPointsRate
	}
	if in.PaymentMethods != nil {
		cur.PaymentMethods = in.PaymentMethods
	}
	return cur
}

func validate(st store.Settings) error {
	if st.BusinessName == "" {
		return fmt.Errorf("businessName is required: %w", ErrInvalidInput)
	}
	if !pricing.IsKnownRate(st.GSTRate) || !pricing.IsKnownRate(st.IGSTRate) {
		return fmt.Errorf("gst rates must be a GST slab: %w", ErrInvalidInput)
	}
	if st.CGSTRate.IsNegative() || st.SGSTRate.IsNegative() {
		return fmt.Errorf("cgst and sgst must not be negative: %w", ErrInvalidInput)
	}
	if st.SplitTax && !st.CGSTRate.Add(st.SGSTRate).Equal(st.GSTRate) {
		return fmt.Errorf("cgst + sgst must equal gstRate: %w", ErrInvalidInput)
	}
	if st.GSTIN != nil && !pricing.ValidateGSTIN(*st.GSTIN) {
		return fmt.Errorf("gstin is malformed: %w", ErrInvalidInput)
	}
	if st.LoyaltyPointsRate.IsNegative() {
		return fmt.Errorf("loyaltyPointsRate must not be negative: %w", ErrInvalidInput)
	}
	if len(st.PaymentMethods) == 0 {
		return fmt.Errorf("at least one payment method is required: %w", ErrInvalidInput)
	}
	seen := map[string]bool{}
	for _, m := range st.PaymentMethods {
		if !slices.Contains(PaymentMethods, m) || seen[m] {
			return fmt.Errorf("payment method %q: %w", m, ErrInvalidInput)
		}
		seen[m] = true
	}
	return nil
}

