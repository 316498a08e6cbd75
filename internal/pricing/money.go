package pricing

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ParseAmount reads a decimal from text. Malformed input yields zero.
func ParseAmount(value string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Amount decodes from a JSON number or string; anything unparseable becomes zero.
type Amount struct {
	decimal.Decimal
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		a.Decimal = decimal.Zero
		return nil
	}
	switch v := raw.(type) {
	case float64:
		a.Decimal = ParseAmount(strings.TrimSpace(string(data)))
	case string:
		a.Decimal = ParseAmount(v)
	default:
		a.Decimal = decimal.Zero
	}
	return nil
}

// FloorPoints returns floor(amount * rate) as whole loyalty points, never negative.
func FloorPoints(amount, rate decimal.Decimal) int64 {
	points := amount.Mul(rate).Floor()
	if points.IsNegative() {
		return 0
	}
	return points.IntPart()
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
