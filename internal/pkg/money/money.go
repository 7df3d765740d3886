// Package money converts between decimal currency amounts and integer
// minor units (cents). All order arithmetic runs on cents so that totals
// are exact sums of line totals regardless of platform float behavior.
package money

import "github.com/shopspring/decimal"

// ToCents converts a decimal amount to integer cents, rounding half away
// from zero. 10.999 becomes 1100, 10.994 becomes 1099.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromCents converts integer cents back to a decimal amount with exactly
// two fractional digits.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
