package oracle_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/clamm-labs/clamm-core/oracle"
)

func splStep(seconds uint64, liquidity uint64) *uint256.Int {
	shifted := new(uint256.Int).Lsh(uint256.NewInt(seconds), 128)
	return new(uint256.Int).Div(shifted, uint256.NewInt(liquidity))
}

func TestRingInitialize(t *testing.T) {
	r := oracle.NewRing()
	card, cardNext := r.Initialize(1000)
	require.Equal(t, uint16(1), card)
	require.Equal(t, uint16(1), cardNext)
}

func TestRingWriteIsNoopWhenTimeUnchanged(t *testing.T) {
	r := oracle.NewRing()
	r.Initialize(1000)

	idx, card, err := r.Write(0, 1000, 5, uint128.From64(1000), 1, 1)
	require.NoError(t, err)
	require.Equal(t, uint16(0), idx)
	require.Equal(t, uint16(1), card)
}

func TestRingWriteGrowsIntoNextCardinality(t *testing.T) {
	r := oracle.NewRing()
	r.Initialize(1000)
	r.Grow(1, 3)

	idx, card, err := r.Write(0, 1010, 10, uint128.From64(1000), 1, 3)
	require.NoError(t, err)
	require.Equal(t, uint16(1), idx)
	require.Equal(t, uint16(3), card)
}

func TestRingObserveSingleCurrentTime(t *testing.T) {
	r := oracle.NewRing()
	r.Initialize(1000)
	r.Grow(1, 3)

	idx, card, err := r.Write(0, 1010, 10, uint128.From64(1000), 1, 3)
	require.NoError(t, err)
	idx, card, err = r.Write(idx, 1020, 20, uint128.From64(1000), card, 3)
	require.NoError(t, err)

	tc, spl, err := r.ObserveSingle(1020, 0, 20, idx, uint128.From64(1000), card)
	require.NoError(t, err)
	require.Equal(t, int64(300), tc)

	want := splStep(10, 1000)
	want.Add(want, splStep(10, 1000))
	require.True(t, spl.Eq(want), "spl=%s want=%s", spl, want)
}

func TestRingObserveSingleExactBoundary(t *testing.T) {
	r := oracle.NewRing()
	r.Initialize(1000)
	r.Grow(1, 3)

	idx, card, err := r.Write(0, 1010, 10, uint128.From64(1000), 1, 3)
	require.NoError(t, err)
	idx, card, err = r.Write(idx, 1020, 20, uint128.From64(1000), card, 3)
	require.NoError(t, err)

	tc, spl, err := r.ObserveSingle(1020, 10, 20, idx, uint128.From64(1000), card)
	require.NoError(t, err)
	require.Equal(t, int64(100), tc)
	require.True(t, spl.Eq(splStep(10, 1000)))
}

func TestRingObserveSingleInterpolates(t *testing.T) {
	r := oracle.NewRing()
	r.Initialize(1000)
	r.Grow(1, 3)

	idx, card, err := r.Write(0, 1010, 10, uint128.From64(1000), 1, 3)
	require.NoError(t, err)
	idx, card, err = r.Write(idx, 1030, 20, uint128.From64(1000), card, 3)
	require.NoError(t, err)

	tc, _, err := r.ObserveSingle(1030, 15, 20, idx, uint128.From64(1000), card)
	require.NoError(t, err)
	// beforeOrAt=1010(tc=100), atOrAfter=1030(tc=100+20*20=500); target=1015
	// interpolated = 100 + (500-100)/20*5 = 100 + 100 = 200
	require.Equal(t, int64(200), tc)
}

func TestRingObserveBatch(t *testing.T) {
	r := oracle.NewRing()
	r.Initialize(1000)
	r.Grow(1, 3)

	idx, card, err := r.Write(0, 1010, 10, uint128.From64(1000), 1, 3)
	require.NoError(t, err)
	idx, card, err = r.Write(idx, 1020, 20, uint128.From64(1000), card, 3)
	require.NoError(t, err)

	tcs, spls, err := r.Observe(1020, []uint32{0, 10}, 20, idx, uint128.From64(1000), card)
	require.NoError(t, err)
	require.Len(t, tcs, 2)
	require.Len(t, spls, 2)
	require.Equal(t, int64(300), tcs[0])
	require.Equal(t, int64(100), tcs[1])
}
