package sqrtpricemath_test

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/clamm-labs/clamm-core/fixedpoint"
	"github.com/clamm-labs/clamm-core/sqrtpricemath"
)

func TestGetAmount0DeltaOrderIndependent(t *testing.T) {
	sqrtA := fixedpoint.Q96
	sqrtB := new(uint256.Int).Mul(fixedpoint.Q96, uint256.NewInt(2))
	liquidity := uint256.NewInt(1_000_000)

	ascending, err := sqrtpricemath.GetAmount0Delta(sqrtA, sqrtB, liquidity, false)
	require.NoError(t, err)
	descending, err := sqrtpricemath.GetAmount0Delta(sqrtB, sqrtA, liquidity, false)
	require.NoError(t, err)
	require.True(t, ascending.Eq(descending))
}

func TestGetAmount0DeltaRoundUpGreaterOrEqual(t *testing.T) {
	sqrtA := fixedpoint.Q96
	sqrtB := new(uint256.Int).Mul(fixedpoint.Q96, uint256.NewInt(3))
	liquidity := uint256.NewInt(7)

	down, err := sqrtpricemath.GetAmount0Delta(sqrtA, sqrtB, liquidity, false)
	require.NoError(t, err)
	up, err := sqrtpricemath.GetAmount0Delta(sqrtA, sqrtB, liquidity, true)
	require.NoError(t, err)
	require.True(t, up.Cmp(down) >= 0)
}

func TestGetAmount1DeltaMatchesClosedForm(t *testing.T) {
	sqrtA := fixedpoint.Q96
	sqrtB := new(uint256.Int).Mul(fixedpoint.Q96, uint256.NewInt(2))
	liquidity := uint256.NewInt(123_456)

	got, err := sqrtpricemath.GetAmount1Delta(sqrtA, sqrtB, liquidity, false)
	require.NoError(t, err)

	diff := new(big.Int).Sub(sqrtB.ToBig(), sqrtA.ToBig())
	want := new(big.Int).Mul(liquidity.ToBig(), diff)
	want.Div(want, fixedpoint.Q96.ToBig())
	require.Equal(t, want.String(), got.String())
}

func TestGetNextSqrtPriceFromAmount0RoundingUpZeroAmount(t *testing.T) {
	price := fixedpoint.Q96
	got, err := sqrtpricemath.GetNextSqrtPriceFromAmount0RoundingUp(price, uint256.NewInt(1000), new(uint256.Int), true)
	require.NoError(t, err)
	require.True(t, got.Eq(price))
}

func TestGetNextSqrtPriceFromAmount1RoundingDownAddThenRemove(t *testing.T) {
	price := fixedpoint.Q96
	liquidity := uint256.NewInt(1_000_000)
	amount := uint256.NewInt(500)

	raised, err := sqrtpricemath.GetNextSqrtPriceFromAmount1RoundingDown(price, liquidity, amount, true)
	require.NoError(t, err)
	require.True(t, raised.Cmp(price) > 0)

	lowered, err := sqrtpricemath.GetNextSqrtPriceFromAmount1RoundingDown(raised, liquidity, amount, false)
	require.NoError(t, err)
	require.True(t, lowered.Cmp(raised) < 0)
}

func TestGetNextSqrtPriceFromAmount1RoundingDownZeroLiquidity(t *testing.T) {
	_, err := sqrtpricemath.GetNextSqrtPriceFromAmount1RoundingDown(fixedpoint.Q96, new(uint256.Int), uint256.NewInt(1), true)
	require.ErrorIs(t, err, sqrtpricemath.ErrZeroLiquidity)
}

func TestGetNextSqrtPriceFromInputDelegatesBySide(t *testing.T) {
	price := fixedpoint.Q96
	liquidity := uint256.NewInt(1_000_000)
	amountIn := uint256.NewInt(1000)

	zeroForOne, err := sqrtpricemath.GetNextSqrtPriceFromInput(price, liquidity, amountIn, true)
	require.NoError(t, err)
	require.True(t, zeroForOne.Cmp(price) < 0)

	oneForZero, err := sqrtpricemath.GetNextSqrtPriceFromInput(price, liquidity, amountIn, false)
	require.NoError(t, err)
	require.True(t, oneForZero.Cmp(price) > 0)
}
