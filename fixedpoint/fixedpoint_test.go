package fixedpoint_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/clamm-labs/clamm-core/fixedpoint"
)

func TestMulDiv(t *testing.T) {
	tests := []struct {
		name       string
		a, b, den  uint64
		want       uint64
		wantErr    error
	}{
		{"simple", 10, 3, 2, 15, nil},
		{"exact", 6, 7, 2, 21, nil},
		{"zero denominator", 1, 1, 0, 0, fixedpoint.ErrDivideByZero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fixedpoint.MulDiv(uint256.NewInt(tt.a), uint256.NewInt(tt.b), uint256.NewInt(tt.den))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, uint256.NewInt(tt.want).String(), got.String())
		})
	}
}

func TestMulDivRoundingUpDiffersOnRemainder(t *testing.T) {
	a, b, den := uint256.NewInt(7), uint256.NewInt(1), uint256.NewInt(2)

	down, err := fixedpoint.MulDiv(a, b, den)
	require.NoError(t, err)
	require.Equal(t, "3", down.String())

	up, err := fixedpoint.MulDivRoundingUp(a, b, den)
	require.NoError(t, err)
	require.Equal(t, "4", up.String())
}

func TestMulDivRoundingUpExactNoRounding(t *testing.T) {
	a, b, den := uint256.NewInt(8), uint256.NewInt(1), uint256.NewInt(2)

	up, err := fixedpoint.MulDivRoundingUp(a, b, den)
	require.NoError(t, err)
	require.Equal(t, "4", up.String())
}

func TestWrappingArithmeticRoundTrips(t *testing.T) {
	a := new(uint256.Int).Sub(new(uint256.Int), uint256.NewInt(1)) // MaxUint256
	b := uint256.NewInt(5)

	sum := fixedpoint.WrappingAdd(a, b)
	require.Equal(t, "4", sum.String())

	back := fixedpoint.WrappingSub(sum, b)
	require.True(t, back.Eq(a))
}

func TestCheckedAddOverflow(t *testing.T) {
	_, err := fixedpoint.CheckedAdd(fixedpoint.MaxUint256, uint256.NewInt(1))
	require.ErrorIs(t, err, fixedpoint.ErrOverflow)
}

func TestCheckedSubUnderflow(t *testing.T) {
	_, err := fixedpoint.CheckedSub(uint256.NewInt(0), uint256.NewInt(1))
	require.ErrorIs(t, err, fixedpoint.ErrOverflow)
}
