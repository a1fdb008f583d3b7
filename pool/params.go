package pool

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"lukechampine.com/uint128"

	"github.com/clamm-labs/clamm-core/tickmath"
)

// ErrInvalidTickSpacing is returned by NewParams when tickSpacing is not
// a positive value below 16384.
var ErrInvalidTickSpacing = errors.New("pool: tickSpacing must be in (0, 16384)")

// ErrTokenOrder is returned by NewParams when token0 is not strictly
// less than token1 by address ordering.
var ErrTokenOrder = errors.New("pool: token0 must be lexicographically less than token1")

// Params are the immutable parameters fixed at pool construction, the
// engine's analogue of the teacher's PoolConfig.
type Params struct {
	Factory             common.Address
	Self                common.Address
	Token0              common.Address
	Token1              common.Address
	Fee                 uint32
	TickSpacing         int32
	MaxLiquidityPerTick uint128.Uint128
}

// NewParams validates and constructs pool parameters, deriving
// maxLiquidityPerTick = floor((2^128-1) / numUsableTicks) per spec §3.
func NewParams(factory, self, token0, token1 common.Address, fee uint32, tickSpacing int32) (Params, error) {
	if tickSpacing <= 0 || tickSpacing >= 16384 {
		return Params{}, ErrInvalidTickSpacing
	}
	if token0.Cmp(token1) >= 0 {
		return Params{}, ErrTokenOrder
	}
	return Params{
		Factory:             factory,
		Self:                self,
		Token0:              token0,
		Token1:              token1,
		Fee:                 fee,
		TickSpacing:         tickSpacing,
		MaxLiquidityPerTick: maxLiquidityPerTick(tickSpacing),
	}, nil
}

func maxLiquidityPerTick(tickSpacing int32) uint128.Uint128 {
	minTick := tickmath.MinTick / tickSpacing * tickSpacing
	maxTick := tickmath.MaxTick / tickSpacing * tickSpacing
	numUsableTicks := (maxTick-minTick)/tickSpacing + 1

	maxU128 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	quotient := new(big.Int).Div(maxU128, big.NewInt(int64(numUsableTicks)))
	return uint128.FromBig(quotient)
}

// FeeTier is one entry of the canonical fee-tier table (500/3000/10000
// ppm mapped to 10/60/200 tick spacing), the engine's stand-in for the
// out-of-scope factory that enumerates allowed (fee, tickSpacing) pairs.
type FeeTier struct {
	Fee         uint32
	TickSpacing int32
}

// DefaultFeeTiers is the canonical fee tier table.
var DefaultFeeTiers = []FeeTier{
	{Fee: 500, TickSpacing: 10},
	{Fee: 3000, TickSpacing: 60},
	{Fee: 10000, TickSpacing: 200},
}
