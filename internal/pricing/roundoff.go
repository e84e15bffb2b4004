package pricing

import "errors"

// ErrRoundOffExceedsLimit is returned when a manual round-off entry exceeds
// the configured write-off allowance.
var ErrRoundOffExceedsLimit = errors.New("round-off exceeds write-off limit")

// wholeUnit is one major currency unit expressed in cents.
const wholeUnit Money = 100

// MaxRoundOff returns the largest absolute round-off delta representable
// under the given write-off limit (in cents).
func MaxRoundOff(limit Money) Money {
	if limit <= wholeUnit {
		return wholeUnit - 1
	}
	return limit - 1
}

// RoundDown floors base to the write-off step and returns the floored value
// together with the (non-positive) delta. A limit at or below one whole unit
// floors to the unit; larger limits floor to a multiple of the limit itself.
func RoundDown(base, limit Money) (rounded, delta Money) {
	if base <= 0 {
		return 0, 0
	}
	step := limit
	if step <= wholeUnit {
		step = wholeUnit
	}
	rounded = (base / step) * step
	return rounded, rounded - base
}

// CoerceManualRoundOff normalises a manually entered round-off value. The
// sign is forced negative (the policy only ever discounts) and values beyond
// the allowance are rejected.
func CoerceManualRoundOff(value, limit Money) (Money, error) {
	if value > 0 {
		value = -value
	}
	if -value > MaxRoundOff(limit) {
		return 0, ErrRoundOffExceedsLimit
	}
	return value, nil
}
