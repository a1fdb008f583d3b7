package store_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/clamm-labs/clamm-core/fixedpoint"
	"github.com/clamm-labs/clamm-core/pool"
	"github.com/clamm-labs/clamm-core/store"
)

func newInitializedPool(t *testing.T) *pool.Pool {
	t.Helper()
	factory := common.HexToAddress("0x0000000000000000000000000000000000f001")
	self := common.HexToAddress("0x0000000000000000000000000000000000f002")
	token0 := common.HexToAddress("0x0000000000000000000000000000000000a001")
	token1 := common.HexToAddress("0x0000000000000000000000000000000000a002")
	owner := common.HexToAddress("0x0000000000000000000000000000000000f003")

	params, err := pool.NewParams(factory, self, token0, token1, 3000, 60)
	require.NoError(t, err)

	p := pool.New(params, owner, nil, nil)
	require.NoError(t, p.Initialize(self, fixedpoint.Q96, 1_000))
	return p
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	s, err := store.Open(":memory:")
	require.NoError(t, err)

	p := newInitializedPool(t)
	require.NoError(t, s.Save(p))

	row, ok, err := s.Load(p.Params().Self)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, p.Params().Self.Hex(), row.PoolAddress)
	require.Equal(t, int32(0), row.Tick)
	require.Equal(t, fixedpoint.Q96.Dec(), row.SqrtPriceX96)
}

func TestSaveUpsertsExistingRow(t *testing.T) {
	s, err := store.Open(":memory:")
	require.NoError(t, err)

	p := newInitializedPool(t)
	require.NoError(t, s.Save(p))

	first, _, err := s.Load(p.Params().Self)
	require.NoError(t, err)

	require.NoError(t, s.Save(p))
	second, _, err := s.Load(p.Params().Self)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
}

func TestLoadMissingPoolReturnsNotFound(t *testing.T) {
	s, err := store.Open(":memory:")
	require.NoError(t, err)

	_, ok, err := s.Load(common.HexToAddress("0x0000000000000000000000000000000000dead"))
	require.NoError(t, err)
	require.False(t, ok)
}
