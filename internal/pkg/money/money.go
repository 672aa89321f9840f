// Package money provides exact decimal helpers for coin amounts.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// GrowthFactor is the per-step stake multiplier of the roulette payout curve.
var GrowthFactor = decimal.RequireFromString("1.3")

// MaxScale is the number of fractional digits accepted from user input.
const MaxScale = 2

var (
	// ErrInvalidAmount is returned when an amount cannot be parsed.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInsufficientFunds is returned by ledgers when a debit exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient balance")
)

// Growth returns GrowthFactor^n computed by repeated exact multiplication.
// Negative n is treated as zero.
func Growth(n int) decimal.Decimal {
	result := decimal.NewFromInt(1)
	for i := 0; i < n; i++ {
		result = result.Mul(GrowthFactor)
	}
	return result
}

// Parse converts user input such as "100" or "12.50" into a non-negative amount.
// At most MaxScale fractional digits are accepted.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() || -d.Exponent() > MaxScale && !d.Equal(d.Truncate(MaxScale)) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Format renders an amount with two fractional digits for display.
func Format(d decimal.Decimal) string {
	return d.StringFixed(MaxScale)
}
