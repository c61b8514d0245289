// Package money holds the decimal helpers shared by every calculator. Monetary
// amounts are carried as decimal.Decimal and settle at two decimal places.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Places is the resolution of every monetary value at rest.
const Places int32 = 2

var (
	Zero    = decimal.Zero
	One     = decimal.NewFromInt(1)
	Hundred = decimal.NewFromInt(100)
)

// Round settles an amount at two decimals, rounding half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// IsSettled reports whether d already sits on a whole cent.
func IsSettled(d decimal.Decimal) bool {
	return d.Equal(Round(d))
}

// Mul multiplies and settles the product.
func Mul(a, b decimal.Decimal) decimal.Decimal {
	return Round(a.Mul(b))
}

// Sum adds already-settled amounts and settles the total.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return Round(total)
}

func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThanOrEqual(b) {
		return a
	}
	return b
}

func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThanOrEqual(b) {
		return a
	}
	return b
}

// Percent expresses part/whole as a percentage at two decimals. A zero whole yields zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(Hundred).DivRound(whole, Places)
}

// Parse reads a decimal from its string form.
func Parse(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse decimal %q: %w", raw, err)
	}
	return d, nil
}

// MustParse is Parse for package-level defaults.
func MustParse(raw string) decimal.Decimal {
	return decimal.RequireFromString(raw)
}

// Format renders an amount with exactly two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}
