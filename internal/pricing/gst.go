package pricing

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Slab is one GST rate with its description.
type Slab struct {
	Rate        decimal.Decimal `json:"rate"`
	Description string          `json:"description"`
}

// Rates lists the GST slabs a service can be assigned, lowest first.
func Rates() []Slab {
	return []Slab{
		{Rate: decimal.NewFromInt(0), Description: "Exempt"},
		{Rate: decimal.NewFromInt(5), Description: "Essential services"},
		{Rate: decimal.NewFromInt(12), Description: "Standard services"},
		{Rate: decimal.NewFromInt(18), Description: "Beauty & wellness services"},
		{Rate: decimal.NewFromInt(28), Description: "Luxury services"},
	}
}

// IsKnownRate reports whether rate is one of the slabs from Rates.
func IsKnownRate(rate decimal.Decimal) bool {
	for _, slab := range Rates() {
		if slab.Rate.Equal(rate) {
			return true
		}
	}
	return false
}

var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z]{1}[1-9A-Z]{1}Z[0-9A-Z]{1}$`)

// ValidateGSTIN checks the shape of a 15 character GST identification number.
func ValidateGSTIN(gstin string) bool {
	return gstinPattern.MatchString(strings.TrimSpace(gstin))
}
