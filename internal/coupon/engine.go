// Package coupon validates discount coupons and manages the coupon catalog.
package coupon

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-salon/internal/pricing"
)

// Kind is the discount type of a coupon.
type Kind string

const (
	Percentage Kind = "percentage"
	Flat       Kind = "flat"
)

// Reasons reported by Validate. They are shown to cashiers as is.
const (
	ReasonInvalidCode   = "Invalid coupon code"
	ReasonLimitExceeded = "Coupon usage limit exceeded"
	ReasonExpired       = "Coupon has expired"
	ReasonNotYetActive  = "Coupon is not yet active"
	reasonMinimumPrefix = "Minimum order amount is "
)

// ErrInvalidCoupon is returned when a coupon definition breaks an invariant.
var ErrInvalidCoupon = errors.New("invalid coupon")

// MinimumReason formats the minimum-order failure reason.
func MinimumReason(min decimal.Decimal) string {
	return reasonMinimumPrefix + min.String()
}

// Coupon is a discount rule.
type Coupon struct {
	ID          uuid.UUID       `json:"id"`
	Code        string          `json:"code"`
	Description string          `json:"description,omitempty"`
	Type        Kind            `json:"type"`
	Value       decimal.Decimal `json:"value"`
	MinAmount   decimal.Decimal `json:"minAmount"`
	MaxDiscount decimal.Decimal `json:"maxDiscount"`
	UsageLimit  int             `json:"usageLimit"`
	UsedCount   int             `json:"usedCount"`
	StartDate   time.Time       `json:"startDate"`
	EndDate     time.Time       `json:"endDate"`
	IsActive    bool            `json:"isActive"`
}

// NewCoupon returns c when every field constraint holds.
func NewCoupon(c Coupon) (Coupon, error) {
	c.Code = strings.TrimSpace(c.Code)
	switch {
	case c.Code == "":
		return Coupon{}, fmt.Errorf("code is required: %w", ErrInvalidCoupon)
	case c.Type != Percentage && c.Type != Flat:
		return Coupon{}, fmt.Errorf("type must be percentage or flat: %w", ErrInvalidCoupon)
	case !c.Value.IsPositive():
		return Coupon{}, fmt.Errorf("value must be positive: %w", ErrInvalidCoupon)
	case c.MinAmount.IsNegative():
		return Coupon{}, fmt.Errorf("minAmount must not be negative: %w", ErrInvalidCoupon)
	case !c.MaxDiscount.IsPositive():
		return Coupon{}, fmt.Errorf("maxDiscount must be positive: %w", ErrInvalidCoupon)
	case c.UsageLimit <= 0:
		return Coupon{}, fmt.Errorf("usageLimit must be positive: %w", ErrInvalidCoupon)
	case c.UsedCount < 0 || c.UsedCount > c.UsageLimit:
		return Coupon{}, fmt.Errorf("usedCount must be within 0..usageLimit: %w", ErrInvalidCoupon)
	case !c.EndDate.After(c.StartDate):
		return Coupon{}, fmt.Errorf("endDate must be after startDate: %w", ErrInvalidCoupon)
	}
	return c, nil
}

// Result is the outcome of a validation. Discount and Coupon are only set when Valid.
type Result struct {
	Valid    bool            `json:"valid"`
	Reason   string          `json:"reason,omitempty"`
	Discount decimal.Decimal `json:"discountAmount"`
	Coupon   *Coupon         `json:"coupon,omitempty"`
}

func invalid(reason string) Result {
	return Result{Reason: reason}
}

// Validate looks code up in catalog and evaluates it against amount.
// Codes match exactly, case and whitespace included. Nothing in catalog is
// modified.
func Validate(code string, amount decimal.Decimal, catalog []Coupon, now time.Time) Result {
	for i := range catalog {
		if catalog[i].Code == code && catalog[i].IsActive {
			return Evaluate(catalog[i], amount, now)
		}
	}
	return invalid(ReasonInvalidCode)
}

// Evaluate runs the checks in order and reports the first failure.
func Evaluate(c Coupon, amount decimal.Decimal, now time.Time) Result {
	if !c.IsActive {
		return invalid(ReasonInvalidCode)
	}
	if c.UsedCount >= c.UsageLimit {
		return invalid(ReasonLimitExceeded)
	}
	if now.After(c.EndDate) {
		return invalid(ReasonExpired)
	}
	if amount.LessThan(c.MinAmount) {
		return invalid(MinimumReason(c.MinAmount))
	}
	if !c.StartDate.IsZero() && now.Before(c.StartDate) {
		return invalid(ReasonNotYetActive)
	}
	cp := c
	return Result{Valid: true, Discount: DiscountFor(c, amount), Coupon: &cp}
}

// DiscountFor computes the capped discount of c on amount without checking eligibility.
func DiscountFor(c Coupon, amount decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch c.Type {
	case Percentage:
		discount = amount.Mul(c.Value).Div(decimal.NewFromInt(100))
	case Flat:
		discount = c.Value
	default:
		return decimal.Zero
	}
	discount = decimal.Min(discount, c.MaxDiscount)
	if discount.IsNegative() {
		return decimal.Zero
	}
	return pricing.Round2(discount)
}
