package signedint_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clamm-labs/clamm-core/signedint"
)

func TestFromInt64Sign(t *testing.T) {
	require.Equal(t, 1, signedint.FromInt64(5).Sign())
	require.Equal(t, -1, signedint.FromInt64(-5).Sign())
	require.Equal(t, 0, signedint.FromInt64(0).Sign())
	require.True(t, signedint.FromInt64(0).IsZero())
}

func TestAddSameSign(t *testing.T) {
	got := signedint.FromInt64(3).Add(signedint.FromInt64(4))
	require.Equal(t, int64(7), got.ToBig().Int64())
}

func TestAddOppositeSignsCancel(t *testing.T) {
	got := signedint.FromInt64(5).Add(signedint.FromInt64(-5))
	require.True(t, got.IsZero())
}

func TestAddOppositeSignsLargerWins(t *testing.T) {
	got := signedint.FromInt64(10).Add(signedint.FromInt64(-3))
	require.Equal(t, int64(7), got.ToBig().Int64())

	got = signedint.FromInt64(3).Add(signedint.FromInt64(-10))
	require.Equal(t, int64(-7), got.ToBig().Int64())
}

func TestSub(t *testing.T) {
	got := signedint.FromInt64(5).Sub(signedint.FromInt64(8))
	require.Equal(t, int64(-3), got.ToBig().Int64())
}

func TestNeg(t *testing.T) {
	require.Equal(t, int64(-5), signedint.FromInt64(5).Neg().ToBig().Int64())
	require.True(t, signedint.Zero().Neg().IsZero())
}

func TestCmp(t *testing.T) {
	require.Equal(t, -1, signedint.FromInt64(-1).Cmp(signedint.FromInt64(1)))
	require.Equal(t, 1, signedint.FromInt64(1).Cmp(signedint.FromInt64(-1)))
	require.Equal(t, 0, signedint.FromInt64(4).Cmp(signedint.FromInt64(4)))
}
