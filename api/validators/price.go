package validators

import (
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/perfumichi/storefront/pkg/errors"
)

// ParsePrice converts a decimal string into a non-negative amount in major
// units.
func ParsePrice(raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price must be a decimal number").WithDetails(map[string]any{"field": "price"})
	}
	if value.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative").WithDetails(map[string]any{"field": "price"})
	}
	return value, nil
}
