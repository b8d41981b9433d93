// Package money centralizes the two monetary representations the storefront
// uses: decimal major units (cart totals, display) and integer minor units
// (everything sent to the payment provider).
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit price to integer cents, rounding half
// away from zero. 10.005 becomes 1001, not 1000.
func ToMinorUnits(major decimal.Decimal) int64 {
	return major.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits converts cents back into major units.
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(hundred)
}

// Sum adds line totals without intermediate rounding.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// FormatEUR renders a major-unit amount for display, two decimals with a
// trailing euro sign, matching the storefront's price labels.
func FormatEUR(major decimal.Decimal) string {
	return fmt.Sprintf("%s€", major.StringFixed(2))
}
