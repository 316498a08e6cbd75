// Package cart assembles a checkout session and keeps its totals consistent.
package cart

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-salon/internal/coupon"
	"github.com/noah-isme/backend-salon/internal/pricing"
)

// DefaultVariant is used when an item is added without a variant.
const DefaultVariant = "Regular"

// Payment methods accepted at the counter.
const (
	PaymentCash = "cash"
	PaymentCard = "card"
	PaymentUPI  = "upi"
)

var (
	// ErrInvalidQuantity is returned when an operation would leave a line at quantity zero or less.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrNegativeDiscount is returned for a manual discount below zero.
	ErrNegativeDiscount = errors.New("discount must not be negative")
	// ErrInvalidPaymentMethod is returned for methods other than cash, card and upi.
	ErrInvalidPaymentMethod = errors.New("payment method must be cash, card or upi")
)

// ValidPaymentMethod reports whether m is accepted.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI:
		return true
	}
	return false
}

// LineItem is one service in the cart. LineTotal is always UnitPrice x Quantity.
type LineItem struct {
	ServiceID   uuid.UUID       `json:"serviceId"`
	ServiceName string          `json:"serviceName"`
	Variant     string          `json:"variant"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TaxRate     decimal.Decimal `json:"taxRate"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

func (li *LineItem) setQuantity(qty int) {
	li.Quantity = qty
	li.LineTotal = li.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
}

// Product is what the cart needs to know about a service being added.
type Product struct {
	ID      uuid.UUID
	Name    string
	Price   decimal.Decimal
	TaxRate decimal.Decimal
}

// CustomerRef binds a registered customer to the cart. A nil ref is a walk-in.
type CustomerRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone,omitempty"`
	Email string    `json:"email,omitempty"`
}

// Cart is a checkout session. Totals are derived on demand and never stored.
type Cart struct {
	ID             uuid.UUID       `json:"id"`
	BranchID       *uuid.UUID      `json:"branchId,omitempty"`
	StaffID        *uuid.UUID      `json:"staffId,omitempty"`
	Items          []LineItem      `json:"items"`
	Customer       *CustomerRef    `json:"customer,omitempty"`
	Coupon         *coupon.Coupon  `json:"coupon,omitempty"`
	ManualDiscount decimal.Decimal `json:"manualDiscount"`
	PaymentMethod  string          `json:"paymentMethod"`
	Split          bool            `json:"split"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// New returns an empty cart paid in cash with split GST.
func New(id uuid.UUID, now time.Time) Cart {
	return Cart{
		ID:            id,
		Items:         []LineItem{},
		PaymentMethod: PaymentCash,
		Split:         true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func normalizeVariant(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return DefaultVariant
	}
	return v
}

func (c *Cart) find(serviceID uuid.UUID, variant string) int {
	for i := range c.Items {
		if c.Items[i].ServiceID == serviceID && c.Items[i].Variant == variant {
			return i
		}
	}
	return -1
}

// AddItem appends p or increments the matching (service, variant) line.
// qty may be negative to decrement; a result below 1 is rejected.
func (c *Cart) AddItem(p Product, variant string, qty int) error {
	variant = normalizeVariant(variant)
	if i := c.find(p.ID, variant); i >= 0 {
		next := c.Items[i].Quantity + qty
		if next <= 0 {
			return fmt.Errorf("%s (%s) would drop to %d: %w", p.Name, variant, next, ErrInvalidQuantity)
		}
		c.Items[i].setQuantity(next)
		return nil
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	item := LineItem{
		ServiceID:   p.ID,
		ServiceName: p.Name,
		Variant:     variant,
		UnitPrice:   p.Price,
		TaxRate:     p.TaxRate,
	}
	item.setQuantity(qty)
	c.Items = append(c.Items, item)
	return nil
}

// SetQuantity updates a line; qty of zero or less removes it. Unknown lines are ignored.
func (c *Cart) SetQuantity(serviceID uuid.UUID, variant string, qty int) {
	variant = normalizeVariant(variant)
	i := c.find(serviceID, variant)
	if i < 0 {
		return
	}
	if qty <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return
	}
	c.Items[i].setQuantity(qty)
}

// RemoveItem drops a line if present.
func (c *Cart) RemoveItem(serviceID uuid.UUID, variant string) {
	c.SetQuantity(serviceID, variant, 0)
}

// Subtotal is the sum of line totals before tax and discounts.
func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.Items {
		sum = sum.Add(it.LineTotal)
	}
	return sum
}

// ApplyCoupon validates code against the current subtotal and keeps it when
// valid. On failure the cart is left unchanged and the result carries the reason.
func (c *Cart) ApplyCoupon(code string, catalog []coupon.Coupon, now time.Time) coupon.Result {
	res := coupon.Validate(code, c.Subtotal(), catalog, now)
	if res.Valid && res.Coupon != nil {
		applied := *res.Coupon
		c.Coupon = &applied
	}
	return res
}

// RemoveCoupon clears the applied coupon.
func (c *Cart) RemoveCoupon() {
	c.Coupon = nil
}

// SetManualDiscount records a cashier discount. There is no upper bound;
// the grand total floors at zero instead.
func (c *Cart) SetManualDiscount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeDiscount
	}
	c.ManualDiscount = amount
	return nil
}

// SetCustomer binds a customer, or makes the sale a walk-in when ref is nil.
func (c *Cart) SetCustomer(ref *CustomerRef) {
	c.Customer = ref
}

// SetPaymentMethod selects how the sale will be paid.
func (c *Cart) SetPaymentMethod(method string) error {
	method = strings.ToLower(strings.TrimSpace(method))
	if !ValidPaymentMethod(method) {
		return ErrInvalidPaymentMethod
	}
	c.PaymentMethod = method
	return nil
}

// Totals is the derived money view of a cart.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	CGST           decimal.Decimal `json:"cgst"`
	SGST           decimal.Decimal `json:"sgst"`
	IGST           decimal.Decimal `json:"igst"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	CouponCode     string          `json:"couponCode,omitempty"`
	CouponDiscount decimal.Decimal `json:"couponDiscount"`
	CouponError    string          `json:"couponError,omitempty"`
	ManualDiscount decimal.Decimal `json:"manualDiscount"`
	Discount       decimal.Decimal `json:"discount"`
	GrandTotal     decimal.Decimal `json:"grandTotal"`
	ItemCount      int             `json:"itemCount"`
}

// Totals recomputes everything from the current lines. Each line is taxed
// at its own rate on top of its price. An applied coupon that no longer
// qualifies contributes nothing and reports why in CouponError.
func (c Cart) Totals(now time.Time) Totals {
	items := make([]pricing.OrderItem, 0, len(c.Items))
	count := 0
	for _, it := range c.Items {
		rate := it.TaxRate
		split := c.Split
		items = append(items, pricing.OrderItem{
			Price:    it.UnitPrice,
			Quantity: it.Quantity,
			Mode:     pricing.Exclusive,
			Rate:     &rate,
			Split:    &split,
		})
		count += it.Quantity
	}
	order := pricing.ComputeOrderTotals(items, decimal.Zero)
	out := Totals{
		Subtotal:       order.Subtotal,
		CGST:           order.CGST,
		SGST:           order.SGST,
		IGST:           order.IGST,
		TaxAmount:      order.TotalTax,
		CouponDiscount: decimal.Zero,
		ManualDiscount: pricing.Round2(c.ManualDiscount),
		ItemCount:      count,
	}
	if c.Coupon != nil {
		out.CouponCode = c.Coupon.Code
		res := coupon.Evaluate(*c.Coupon, c.Subtotal(), now)
		if res.Valid {
			out.CouponDiscount = res.Discount
		} else {
			out.CouponError = res.Reason
		}
	}
	order = order.WithDiscount(out.CouponDiscount.Add(c.ManualDiscount))
	out.Discount = order.Discount
	out.GrandTotal = order.GrandTotal
	return out
}
