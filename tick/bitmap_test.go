package tick_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clamm-labs/clamm-core/tick"
)

func TestBitmapFlipTogglesInitialized(t *testing.T) {
	b := tick.NewBitmap()
	require.False(t, b.IsInitialized(60, 60))

	require.NoError(t, b.Flip(60, 60))
	require.True(t, b.IsInitialized(60, 60))

	require.NoError(t, b.Flip(60, 60))
	require.False(t, b.IsInitialized(60, 60))
}

func TestBitmapFlipRejectsMisalignedTick(t *testing.T) {
	b := tick.NewBitmap()
	require.ErrorIs(t, b.Flip(61, 60), tick.ErrMisalignedTick)
}

func TestBitmapNextInitializedWithinWordLte(t *testing.T) {
	b := tick.NewBitmap()
	require.NoError(t, b.Flip(60, 60))
	require.NoError(t, b.Flip(-60, 60))

	next, initialized := b.NextInitializedTickWithinOneWord(120, 60, true)
	require.True(t, initialized)
	require.Equal(t, int32(60), next)

	next, initialized = b.NextInitializedTickWithinOneWord(59, 60, true)
	require.False(t, initialized)
	require.Equal(t, int32(0), next)
}

func TestBitmapNextInitializedWithinWordGt(t *testing.T) {
	b := tick.NewBitmap()
	require.NoError(t, b.Flip(120, 60))

	next, initialized := b.NextInitializedTickWithinOneWord(60, 60, false)
	require.True(t, initialized)
	require.Equal(t, int32(120), next)
}

func TestBitmapNextInitializedWithinWordNoneFound(t *testing.T) {
	b := tick.NewBitmap()
	_, initialized := b.NextInitializedTickWithinOneWord(0, 60, true)
	require.False(t, initialized)
}
