// Package pricing computes GST for single prices and whole orders.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Mode says whether a price already contains tax.
type Mode string

const (
	Inclusive Mode = "inclusive"
	Exclusive Mode = "exclusive"
)

// DefaultRate is the GST slab applied when an item carries no rate.
var DefaultRate = decimal.NewFromInt(18)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// ParseMode maps free text to a Mode, returning fallback for anything unknown.
func ParseMode(value string, fallback Mode) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case Inclusive:
		return Inclusive
	case Exclusive:
		return Exclusive
	default:
		return fallback
	}
}

// Breakdown is the result of taxing one price. CGST and SGST are only set
// when Split is true, IGST only when it is false.
type Breakdown struct {
	Base     decimal.Decimal `json:"base"`
	CGST     decimal.Decimal `json:"cgst"`
	SGST     decimal.Decimal `json:"sgst"`
	IGST     decimal.Decimal `json:"igst"`
	TotalTax decimal.Decimal `json:"totalTax"`
	Total    decimal.Decimal `json:"total"`
	Rate     decimal.Decimal `json:"rate"`
	Mode     Mode            `json:"mode"`
	Split    bool            `json:"split"`
}

// Rounded returns a copy with every amount rounded to two places.
func (b Breakdown) Rounded() Breakdown {
	b.Base = Round2(b.Base)
	b.CGST = Round2(b.CGST)
	b.SGST = Round2(b.SGST)
	b.IGST = Round2(b.IGST)
	b.TotalTax = Round2(b.TotalTax)
	b.Total = Round2(b.Total)
	return b
}

// ComputeTax taxes price at ratePercent. Negative inputs count as zero.
// Amounts are rounded on the way out.
func ComputeTax(price decimal.Decimal, mode Mode, ratePercent decimal.Decimal, split bool) Breakdown {
	return computeTax(price, mode, ratePercent, split).Rounded()
}

func computeTax(price decimal.Decimal, mode Mode, ratePercent decimal.Decimal, split bool) Breakdown {
	price = nonNegative(price)
	rate := nonNegative(ratePercent)
	if mode != Inclusive {
		mode = Exclusive
	}
	out := Breakdown{Rate: rate, Mode: mode, Split: split}
	if mode == Inclusive {
		out.Total = price
		out.Base = price.Div(decimal.NewFromInt(1).Add(rate.Div(hundred)))
		out.TotalTax = price.Sub(out.Base)
	} else {
		out.Base = price
		out.TotalTax = price.Mul(rate).Div(hundred)
		out.Total = price.Add(out.TotalTax)
	}
	if split {
		out.CGST = out.TotalTax.Div(two)
		out.SGST = out.TotalTax.Sub(out.CGST)
	} else {
		out.IGST = out.TotalTax
	}
	return out
}

// OrderItem is one priced line of an order.
type OrderItem struct {
	Price    decimal.Decimal  `json:"price"`
	Quantity int              `json:"quantity"`
	Mode     Mode             `json:"mode,omitempty"`
	Rate     *decimal.Decimal `json:"rate,omitempty"`
	Split    *bool            `json:"split,omitempty"`
}

func (it OrderItem) normalized() OrderItem {
	if it.Quantity <= 0 {
		it.Quantity = 1
	}
	if it.Rate == nil {
		rate := DefaultRate
		it.Rate = &rate
	}
	if it.Mode == "" {
		it.Mode = Inclusive
	}
	if it.Split == nil {
		split := true
		it.Split = &split
	}
	return it
}

// OrderTotals aggregates many items. Unrounded sums are kept so that a
// discount can be applied later without compounding rounding error.
type OrderTotals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	CGST       decimal.Decimal `json:"cgst"`
	SGST       decimal.Decimal `json:"sgst"`
	IGST       decimal.Decimal `json:"igst"`
	TotalTax   decimal.Decimal `json:"totalTax"`
	Discount   decimal.Decimal `json:"discount"`
	GrandTotal decimal.Decimal `json:"grandTotal"`

	raw rawTotals
}

type rawTotals struct {
	subtotal, cgst, sgst, igst, tax decimal.Decimal
}

// ComputeOrderTotals sums base and tax of every item and applies discount
// once at the end. The grand total never goes below zero.
func ComputeOrderTotals(items []OrderItem, discount decimal.Decimal) OrderTotals {
	var raw rawTotals
	for _, item := range items {
		it := item.normalized()
		qty := decimal.NewFromInt(int64(it.Quantity))
		b := computeTax(it.Price.Mul(qty), it.Mode, *it.Rate, *it.Split)
		raw.subtotal = raw.subtotal.Add(b.Base)
		raw.cgst = raw.cgst.Add(b.CGST)
		raw.sgst = raw.sgst.Add(b.SGST)
		raw.igst = raw.igst.Add(b.IGST)
		raw.tax = raw.tax.Add(b.TotalTax)
	}
	return OrderTotals{raw: raw}.WithDiscount(discount)
}

// WithDiscount recomputes the grand total for a different discount.
func (t OrderTotals) WithDiscount(discount decimal.Decimal) OrderTotals {
	discount = nonNegative(discount)
	grand := t.raw.subtotal.Add(t.raw.tax).Sub(discount)
	return OrderTotals{
		Subtotal:   Round2(t.raw.subtotal),
		CGST:       Round2(t.raw.cgst),
		SGST:       Round2(t.raw.sgst),
		IGST:       Round2(t.raw.igst),
		TotalTax:   Round2(t.raw.tax),
		Discount:   Round2(discount),
		GrandTotal: Round2(nonNegative(grand)),
		raw:        t.raw,
	}
}
