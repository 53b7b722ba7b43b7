package engine

import "github.com/shopspring/decimal"

// Round2 rounds a monetary amount to 2 decimals, half up: 2.005 rounds
// to 2.01, never banker's rounding.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
