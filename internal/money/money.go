package money

import (
	"errors"
	"math"
)

// Cents is a monetary value stored in minor units.
type Cents = int64

// ErrTooPrecise is returned when a decimal amount carries more than two decimal places.
var ErrTooPrecise = errors.New("monetary values must have at most 2 decimal places")

// FromDecimal converts a decimal currency amount to cents. Amounts with more
// than two decimal places are rejected rather than silently truncated.
func FromDecimal(f float64) (Cents, error) {
	// Multiply by 1000 to probe for a third decimal place; round first to
	// avoid floating-point artifacts (e.g. 1.10*1000 = 1099.999...).
	scaled := math.Round(f * 1000)
	if math.Mod(scaled, 10) != 0 {
		return 0, ErrTooPrecise
	}
	return Cents(math.Round(f * 100)), nil
}

// Decimal converts cents back to a decimal amount for display and wire payloads.
func Decimal(c Cents) float64 {
	return float64(c) / 100.0
}

// RoundRatio computes round(num/den) with halves rounded away from zero,
// entirely in integer arithmetic. Used for cent-precise tax products.
func RoundRatio(num, den int64) Cents {
	if den == 0 {
		return 0
	}
	if den < 0 {
		num, den = -num, -den
	}
	if num >= 0 {
		return (num + den/2) / den
	}
	return -((-num + den/2) / den)
}
