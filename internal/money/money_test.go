package money_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danupratama/backend-kasir/internal/money"
)

func TestFromDecimal(t *testing.T) {
	t.Parallel()

	cents, err := money.FromDecimal(103.50)
	require.NoError(t, err)
	require.Equal(t, int64(10350), cents)

	cents, err = money.FromDecimal(1.10)
	require.NoError(t, err)
	require.Equal(t, int64(110), cents)

	_, err = money.FromDecimal(0.999)
	require.ErrorIs(t, err, money.ErrTooPrecise)
}

func TestRoundRatioHalfAwayFromZero(t *testing.T) {
	t.Parallel()

	// 90.00 * 15 / 115 = 11.739... -> 11.74
	require.Equal(t, int64(1174), money.RoundRatio(9000*1500, 11500))
	// exact halves round up
	require.Equal(t, int64(3), money.RoundRatio(5, 2))
	require.Equal(t, int64(-3), money.RoundRatio(-5, 2))
	require.Equal(t, int64(0), money.RoundRatio(10, 0))
}

func TestDecimalRoundTrip(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 103.50, money.Decimal(10350), 1e-9)
}
