package pool

import (
	"errors"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"
)

// ErrTickNotInitialized is returned by SnapshotCumulativesInside when
// either boundary tick has never been touched by a mint/burn.
var ErrTickNotInitialized = errors.New("pool: tick not initialized")

// Slot0 returns a copy of the pool's packed price/tick/oracle-pointer
// state. Like every method in this file it is a read-only snapshot and
// does not take the reentrancy lock (spec §5/§9): it must not be called
// from within a callback that could observe state mid-mutation.
func (p *Pool) Slot0() Slot0 { return p.slot0 }

// Liquidity returns the pool's currently active liquidity.
func (p *Pool) Liquidity() uint128.Uint128 { return p.liquidity }

// FeeGrowthGlobal returns the all-time per-unit-liquidity fee accumulators.
func (p *Pool) FeeGrowthGlobal() (fee0, fee1 *uint256.Int) {
	return new(uint256.Int).Set(p.feeGrowthGlobal0X128), new(uint256.Int).Set(p.feeGrowthGlobal1X128)
}

// ProtocolFees returns the protocol's accrued, uncollected fee balances.
func (p *Pool) ProtocolFees() (fees0, fees1 uint128.Uint128) {
	return p.protocolFees0, p.protocolFees1
}

// Observe returns, for each entry in secondsAgos, the tick-cumulative
// and seconds-per-liquidity-cumulative values that many seconds before
// now (spec §4.10).
func (p *Pool) Observe(now uint32, secondsAgos []uint32) ([]int64, []*uint256.Int, error) {
	if p.slot0.SqrtPriceX96 == nil {
		return nil, nil, ErrNotInitialized
	}
	return p.oracle.Observe(now, secondsAgos, p.slot0.Tick, p.slot0.ObservationIndex, p.liquidity, p.slot0.ObservationCardinality)
}

// SnapshotCumulativesInside returns the tick-cumulative, seconds-per-
// liquidity-cumulative, and elapsed-seconds accumulators restricted to
// the [tickLower, tickUpper) range, by combining the two boundary
// ticks' outside accumulators with the pool's current cumulative
// reading the same way GetFeeGrowthInside combines fee growth. This is
// one of the supplemented read APIs real CL-AMM pools expose beside the
// five core mutators.
func (p *Pool) SnapshotCumulativesInside(now uint32, tickLower, tickUpper int32) (tickCumulativeInside int64, secondsPerLiquidityInsideX128 *uint256.Int, secondsInside uint32, err error) {
	if err := p.checkTicks(tickLower, tickUpper); err != nil {
		return 0, nil, 0, err
	}

	lower, ok := p.ticks.Get(tickLower)
	if !ok || !lower.Initialized {
		return 0, nil, 0, ErrTickNotInitialized
	}
	upper, ok := p.ticks.Get(tickUpper)
	if !ok || !upper.Initialized {
		return 0, nil, 0, ErrTickNotInitialized
	}

	switch {
	case p.slot0.Tick < tickLower:
		return lower.TickCumulativeOutside - upper.TickCumulativeOutside,
			sub256(lower.SecondsPerLiquidityOutsideX128, upper.SecondsPerLiquidityOutsideX128),
			lower.SecondsOutside - upper.SecondsOutside,
			nil

	case p.slot0.Tick < tickUpper:
		tickCumulative, splCumulative, err := p.oracle.ObserveSingle(now, 0, p.slot0.Tick, p.slot0.ObservationIndex, p.liquidity, p.slot0.ObservationCardinality)
		if err != nil {
			return 0, nil, 0, err
		}
		return tickCumulative - lower.TickCumulativeOutside - upper.TickCumulativeOutside,
			sub256(sub256(splCumulative, lower.SecondsPerLiquidityOutsideX128), upper.SecondsPerLiquidityOutsideX128),
			now - lower.SecondsOutside - upper.SecondsOutside,
			nil

	default:
		return upper.TickCumulativeOutside - lower.TickCumulativeOutside,
			sub256(upper.SecondsPerLiquidityOutsideX128, lower.SecondsPerLiquidityOutsideX128),
			upper.SecondsOutside - lower.SecondsOutside,
			nil
	}
}

func sub256(a, b *uint256.Int) *uint256.Int {
	return new(uint256.Int).Sub(a, b)
}
