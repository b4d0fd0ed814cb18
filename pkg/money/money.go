// Package money fixes the amount semantics used by the cash ledger.
//
// Amounts are decimal.Decimal so balance arithmetic is exact to the cent.
// Float input still enters the system at the HTTP boundary, so comparisons
// against values that passed through a float use an epsilon of 0.0001.
package money

import "github.com/shopspring/decimal"

// Epsilon is the tolerance applied when comparing amounts that originated
// as floating-point input.
var Epsilon = decimal.NewFromFloat(0.0001)

// Zero is the zero amount.
var Zero = decimal.Zero

// FromFloat converts boundary float input into an exact amount.
func FromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// IsNegative reports whether the amount is strictly below zero.
func IsNegative(a decimal.Decimal) bool {
	return a.IsNegative()
}

// IsPositive reports whether the amount is strictly above zero.
func IsPositive(a decimal.Decimal) bool {
	return a.IsPositive()
}

// EqualApprox reports whether two amounts differ by less than Epsilon.
func EqualApprox(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Epsilon)
}

// Settled reports whether a remaining debt has been driven to zero or below,
// within Epsilon of zero.
func Settled(remaining decimal.Decimal) bool {
	return remaining.LessThanOrEqual(Epsilon)
}
