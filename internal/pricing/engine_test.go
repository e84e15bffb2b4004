package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danupratama/backend-kasir/internal/pricing"
)

func cents(v int64) pricing.Money { return v }

func TestComputeExclusiveTax(t *testing.T) {
	t.Parallel()

	lines := []pricing.Line{{ItemID: "ITEM-001", UnitPrice: 10000, Qty: 1}}
	coupons := []pricing.Coupon{{Code: "WELCOME10", Value: 1000}}
	rule := &pricing.TaxRule{ID: "VAT15", RateBps: 1500}

	snap := pricing.Compute(lines, coupons, rule, 0)
	require.Equal(t, cents(10000), snap.Subtotal)
	require.Equal(t, cents(1000), snap.CouponDiscount)
	require.Equal(t, cents(9000), snap.TaxableAmount)
	require.Equal(t, cents(1350), snap.TaxAmount)
	require.Equal(t, cents(10350), snap.GrandTotal)
}

func TestComputeInclusiveTax(t *testing.T) {
	t.Parallel()

	lines := []pricing.Line{{ItemID: "ITEM-001", UnitPrice: 10000, Qty: 1}}
	coupons := []pricing.Coupon{{Code: "WELCOME10", Value: 1000}}
	rule := &pricing.TaxRule{ID: "VAT15-INC", RateBps: 1500, Inclusive: true}

	snap := pricing.Compute(lines, coupons, rule, 0)
	require.Equal(t, cents(9000), snap.TaxableAmount)
	// round(9000*1500/11500) = 1174
	require.Equal(t, cents(1174), snap.TaxAmount)
	// tax is inside the taxable amount, not added on top
	require.Equal(t, cents(9000), snap.GrandTotal)
	// extracted tax plus net equals the taxable amount within a cent
	net := snap.TaxableAmount - snap.TaxAmount
	require.LessOrEqual(t, snap.TaxableAmount-(net+snap.TaxAmount), cents(1))
}

func TestComputeNoTaxRule(t *testing.T) {
	t.Parallel()

	snap := pricing.Compute([]pricing.Line{{UnitPrice: 500, Qty: 3}}, nil, nil, 0)
	require.Equal(t, cents(1500), snap.Subtotal)
	require.Equal(t, cents(0), snap.TaxAmount)
	require.Equal(t, cents(1500), snap.GrandTotal)
}

func TestComputeCouponsNeverDriveTaxableNegative(t *testing.T) {
	t.Parallel()

	lines := []pricing.Line{{UnitPrice: 1000, Qty: 1}}
	coupons := []pricing.Coupon{{Code: "BIG", Value: 5000}}
	snap := pricing.Compute(lines, coupons, &pricing.TaxRule{RateBps: 1000}, 0)
	require.Equal(t, cents(0), snap.TaxableAmount)
	require.Equal(t, cents(0), snap.TaxAmount)
	require.Equal(t, cents(0), snap.GrandTotal)
}

func TestComputeDiscountedPriceWins(t *testing.T) {
	t.Parallel()

	disc := cents(800)
	lines := []pricing.Line{{UnitPrice: 1000, DiscountedPrice: &disc, Qty: 2}}
	snap := pricing.Compute(lines, nil, nil, 0)
	require.Equal(t, cents(1600), snap.Subtotal)
}

func TestComputeSkipsNonPositiveQty(t *testing.T) {
	t.Parallel()

	lines := []pricing.Line{
		{UnitPrice: 1000, Qty: 0},
		{UnitPrice: 700, Qty: 1},
	}
	snap := pricing.Compute(lines, nil, nil, 0)
	require.Equal(t, cents(700), snap.Subtotal)
}

func TestComputeIsPure(t *testing.T) {
	t.Parallel()

	lines := []pricing.Line{{UnitPrice: 12345, Qty: 3}}
	coupons := []pricing.Coupon{{Code: "X", Value: 500}}
	rule := &pricing.TaxRule{RateBps: 1100, Inclusive: true}
	first := pricing.Compute(lines, coupons, rule, -50)
	second := pricing.Compute(lines, coupons, rule, -50)
	require.Equal(t, first, second)
}

func TestRoundDown(t *testing.T) {
	t.Parallel()

	// write-off limit 1.00: floor to the whole unit
	rounded, delta := pricing.RoundDown(10350, 100)
	require.Equal(t, cents(10300), rounded)
	require.Equal(t, cents(-50), delta)

	// write-off limit 5.00: floor to the limit multiple
	rounded, delta = pricing.RoundDown(10350, 500)
	require.Equal(t, cents(10000), rounded)
	require.Equal(t, cents(-350), delta)

	// delta is never positive and always inside the limit
	for _, base := range []pricing.Money{1, 99, 100, 101, 49999, 50001} {
		for _, limit := range []pricing.Money{50, 100, 500, 1000} {
			rounded, delta := pricing.RoundDown(base, limit)
			require.LessOrEqual(t, delta, cents(0))
			require.Less(t, -delta, maxLimit(limit))
			require.Equal(t, base+delta, rounded)
		}
	}
}

func maxLimit(limit pricing.Money) pricing.Money {
	if limit <= 100 {
		return 100
	}
	return limit
}

func TestCoerceManualRoundOff(t *testing.T) {
	t.Parallel()

	v, err := pricing.CoerceManualRoundOff(50, 100)
	require.NoError(t, err)
	require.Equal(t, cents(-50), v)

	v, err = pricing.CoerceManualRoundOff(-99, 100)
	require.NoError(t, err)
	require.Equal(t, cents(-99), v)

	_, err = pricing.CoerceManualRoundOff(-100, 100)
	require.ErrorIs(t, err, pricing.ErrRoundOffExceedsLimit)

	v, err = pricing.CoerceManualRoundOff(-499, 500)
	require.NoError(t, err)
	require.Equal(t, cents(-499), v)

	_, err = pricing.CoerceManualRoundOff(500, 500)
	require.ErrorIs(t, err, pricing.ErrRoundOffExceedsLimit)
}

func TestMaxRoundOff(t *testing.T) {
	t.Parallel()

	require.Equal(t, cents(99), pricing.MaxRoundOff(0))
	require.Equal(t, cents(99), pricing.MaxRoundOff(100))
	require.Equal(t, cents(499), pricing.MaxRoundOff(500))
}
