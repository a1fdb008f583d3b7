// Package tick implements the sparse tick-indexed liquidity structure:
// per-tick state (TickInfo) plus the 256-bit-word bitmap that locates
// initialized ticks. Both are map-backed, per the engine's "no cyclic
// object graphs, index by integer key" design rule — the same shape the
// teacher uses for its TickManager, just generalized to carry the full
// outside-accumulator state the oracle and fee accounting need.
package tick

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"

	"github.com/clamm-labs/clamm-core/signedint"
)

// ErrLiquidityOverflow is returned by Table.Update when applying a delta
// would push a tick's gross liquidity above the pool's configured cap.
var ErrLiquidityOverflow = errors.New("tick: liquidityGross exceeds maxLiquidityPerTick")

// ErrLiquidityUnderflow is returned when a signed delta would take gross
// or net liquidity below zero.
var ErrLiquidityUnderflow = errors.New("tick: liquidity delta underflows")

// Info is the per-tick accounting record described in spec §3: total
// referencing liquidity, the signed delta applied on crossing, and the
// four "outside" accumulators used to derive fee/seconds/tick-cumulative
// growth inside any range bounded by this tick.
type Info struct {
	LiquidityGross                 uint128.Uint128
	LiquidityNet                   *signedint.Int
	FeeGrowthOutside0X128          *uint256.Int
	FeeGrowthOutside1X128          *uint256.Int
	TickCumulativeOutside          int64
	SecondsPerLiquidityOutsideX128 *uint256.Int
	SecondsOutside                 uint32
	Initialized                    bool
}

func newInfo() *Info {
	return &Info{
		LiquidityNet:                   signedint.Zero(),
		FeeGrowthOutside0X128:          new(uint256.Int),
		FeeGrowthOutside1X128:          new(uint256.Int),
		SecondsPerLiquidityOutsideX128: new(uint256.Int),
	}
}

// AddDelta applies a signed liquidity delta to an unsigned u128 magnitude,
// failing on underflow or on overflow past the 2^128-1 ceiling.
func AddDelta(x uint128.Uint128, delta *signedint.Int) (uint128.Uint128, error) {
	if delta.Sign() == 0 {
		return x, nil
	}
	xBig := x.Big()
	if delta.Negative() {
		d := delta.Abs().ToBig()
		if d.Cmp(xBig) > 0 {
			return uint128.Uint128{}, ErrLiquidityUnderflow
		}
		return uint128.FromBig(new(big.Int).Sub(xBig, d)), nil
	}
	sum := new(big.Int).Add(xBig, delta.Abs().ToBig())
	if sum.BitLen() > 128 {
		return uint128.Uint128{}, ErrLiquidityOverflow
	}
	return uint128.FromBig(sum), nil
}
