// Package oracle implements the pool's time-weighted price ring buffer
// (spec §4.10): a growable ring of observations, each carrying the
// running integral of tick and of 1/liquidity over time, queried by
// binary search to reconstruct time-weighted averages over any window.
package oracle

import (
	"errors"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"

	"github.com/clamm-labs/clamm-core/fixedpoint"
)

// ErrNotInitialized is returned by Write/ObserveSingle when the ring has
// no observations yet (cardinality 0).
var ErrNotInitialized = errors.New("oracle: ring not initialized")

// ErrTargetNotSurrounded is returned when no pair of stored observations
// brackets the requested target time.
var ErrTargetNotSurrounded = errors.New("oracle: target predates oldest observation")

// Observation is one ring slot.
type Observation struct {
	BlockTimestamp                    uint32
	TickCumulative                    int64
	SecondsPerLiquidityCumulativeX128 *uint256.Int
	Initialized                       bool
}

// Ring is the fixed-capacity (up to 65535 slots), append-on-demand
// observation buffer backing one pool.
type Ring struct {
	slots []Observation
}

// NewRing returns an empty, uninitialized ring.
func NewRing() *Ring {
	return &Ring{}
}

// Initialize seeds slot 0 at the pool's creation time and returns the
// starting (cardinality, cardinalityNext) pair of (1, 1).
func (r *Ring) Initialize(time uint32) (cardinality, cardinalityNext uint16) {
	r.slots = make([]Observation, 1)
	r.slots[0] = Observation{
		BlockTimestamp:                    time,
		TickCumulative:                    0,
		SecondsPerLiquidityCumulativeX128: new(uint256.Int),
		Initialized:                       true,
	}
	return 1, 1
}

// Grow allocates additional (uninitialized) slots up to target, mirroring
// increaseObservationCardinalityNext: it never shrinks and never touches
// slots that already hold data.
func (r *Ring) Grow(current uint16, target uint16) uint16 {
	if target <= current {
		return current
	}
	if int(target) > len(r.slots) {
		grown := make([]Observation, target)
		copy(grown, r.slots)
		r.slots = grown
	}
	return target
}

// Write appends a new observation at lastIndex+1, expanding into newly
// grown capacity when the ring is full and cardinalityNext allows it,
// otherwise wrapping. It is a no-op if time hasn't advanced. Per spec
// §4.10, tickCumulative and secondsPerLiquidityCumulativeX128 integrate
// the elapsed time against the tick/liquidity that were active up to now.
func (r *Ring) Write(lastIndex uint16, time uint32, tick int32, liquidity uint128.Uint128, cardinality, cardinalityNext uint16) (newIndex, newCardinality uint16, err error) {
	if cardinality == 0 {
		return 0, 0, ErrNotInitialized
	}
	last := r.slots[lastIndex]
	if last.BlockTimestamp == time {
		return lastIndex, cardinality, nil
	}

	newCardinality = cardinality
	if cardinalityNext > cardinality && lastIndex == cardinality-1 {
		newCardinality = cardinalityNext
	}

	newIndex = (lastIndex + 1) % newCardinality

	delta := int64(time - last.BlockTimestamp)
	if time < last.BlockTimestamp {
		delta = int64(uint32(time) - last.BlockTimestamp)
	}

	liquidityForDivision := liquidity
	if liquidityForDivision.IsZero() {
		liquidityForDivision = uint128.From64(1)
	}

	deltaShifted := new(uint256.Int).Lsh(uint256.NewInt(uint64(delta)), 128)
	liqU256 := new(uint256.Int).SetBytes(liquidityForDivision.Big().Bytes())
	secondsPerLiquidityDelta := new(uint256.Int).Div(deltaShifted, liqU256)

	r.slots[newIndex] = Observation{
		BlockTimestamp:                    time,
		TickCumulative:                    last.TickCumulative + int64(tick)*delta,
		SecondsPerLiquidityCumulativeX128: fixedpoint.WrappingAdd(last.SecondsPerLiquidityCumulativeX128, secondsPerLiquidityDelta),
		Initialized:                       true,
	}
	return newIndex, newCardinality, nil
}

// extrapolate projects the cumulatives forward from last to at, using
// the tick/liquidity that have been active since last was written. This
// is the only valid way to answer a query past the newest stored
// sample, since no observation has been written there yet.
func extrapolate(last Observation, tick int32, liquidity uint128.Uint128, at uint32) (int64, *uint256.Int) {
	delta := int64(at - last.BlockTimestamp)
	liq := liquidity
	if liq.IsZero() {
		liq = uint128.From64(1)
	}
	deltaShifted := new(uint256.Int).Lsh(uint256.NewInt(uint64(delta)), 128)
	liqU256 := new(uint256.Int).SetBytes(liq.Big().Bytes())
	spl := new(uint256.Int).Div(deltaShifted, liqU256)
	return last.TickCumulative + int64(tick)*delta, fixedpoint.WrappingAdd(last.SecondsPerLiquidityCumulativeX128, spl)
}

// ObserveSingle reconstructs the cumulatives at time-secondsAgo, per
// spec §4.10: extrapolate from the latest observation if target is at
// or after it, otherwise binary-search the ring and interpolate
// linearly between the bracketing pair.
func (r *Ring) ObserveSingle(time uint32, secondsAgo uint32, tick int32, index uint16, liquidity uint128.Uint128, cardinality uint16) (tickCumulative int64, secondsPerLiquidityCumulativeX128 *uint256.Int, err error) {
	last := r.slots[index]

	target := time
	if secondsAgo > 0 {
		target = time - secondsAgo
	}

	if lte(time, last.BlockTimestamp, target) {
		if last.BlockTimestamp == target {
			return last.TickCumulative, last.SecondsPerLiquidityCumulativeX128, nil
		}
		tc, spl := extrapolate(last, tick, liquidity, target)
		return tc, spl, nil
	}

	beforeOrAt, atOrAfter, err := r.binarySearch(time, target, index, cardinality)
	if err != nil {
		return 0, nil, err
	}

	if target == beforeOrAt.BlockTimestamp {
		return beforeOrAt.TickCumulative, beforeOrAt.SecondsPerLiquidityCumulativeX128, nil
	}
	if target == atOrAfter.BlockTimestamp {
		return atOrAfter.TickCumulative, atOrAfter.SecondsPerLiquidityCumulativeX128, nil
	}

	observationTimeDelta := int64(atOrAfter.BlockTimestamp - beforeOrAt.BlockTimestamp)
	targetDelta := int64(target - beforeOrAt.BlockTimestamp)

	tickCumulative = beforeOrAt.TickCumulative +
		(atOrAfter.TickCumulative-beforeOrAt.TickCumulative)/observationTimeDelta*targetDelta

	splDiff := new(uint256.Int).Sub(atOrAfter.SecondsPerLiquidityCumulativeX128, beforeOrAt.SecondsPerLiquidityCumulativeX128)
	splScaled := new(uint256.Int).Mul(splDiff, uint256.NewInt(uint64(targetDelta)))
	splStep := new(uint256.Int).Div(splScaled, uint256.NewInt(uint64(observationTimeDelta)))
	secondsPerLiquidityCumulativeX128 = new(uint256.Int).Add(beforeOrAt.SecondsPerLiquidityCumulativeX128, splStep)
	return tickCumulative, secondsPerLiquidityCumulativeX128, nil
}

// Observe maps ObserveSingle across a batch of secondsAgo offsets.
func (r *Ring) Observe(time uint32, secondsAgos []uint32, tick int32, index uint16, liquidity uint128.Uint128, cardinality uint16) ([]int64, []*uint256.Int, error) {
	tickCumulatives := make([]int64, len(secondsAgos))
	secondsPerLiquidityCumulatives := make([]*uint256.Int, len(secondsAgos))
	for i, secondsAgo := range secondsAgos {
		tc, spl, err := r.ObserveSingle(time, secondsAgo, tick, index, liquidity, cardinality)
		if err != nil {
			return nil, nil, err
		}
		tickCumulatives[i] = tc
		secondsPerLiquidityCumulatives[i] = spl
	}
	return tickCumulatives, secondsPerLiquidityCumulatives, nil
}

// lte compares a and b as offsets from time, the u32-wrap-safe ordering
// rule from spec §9: "time" itself never wraps relative to the
// observations being compared, only the stored timestamps might have.
func lte(time, a, b uint32) bool {
	if a <= time && b <= time {
		return a <= b
	}
	aAdjusted := int64(a)
	if a > time {
		aAdjusted -= 1 << 32
	}
	bAdjusted := int64(b)
	if b > time {
		bAdjusted -= 1 << 32
	}
	return aAdjusted <= bAdjusted
}

func (r *Ring) binarySearch(time, target uint32, index, cardinality uint16) (beforeOrAt, atOrAfter Observation, err error) {
	n := int(cardinality)
	l := (int(index) + 1) % n
	rgt := l + n - 1

	for l <= rgt {
		i := (l + rgt) / 2
		beforeAt := r.slots[i%n]
		if !beforeAt.Initialized {
			l = i + 1
			continue
		}
		atAfter := r.slots[(i+1)%n]

		targetAtOrAfter := lte(time, beforeAt.BlockTimestamp, target)
		if targetAtOrAfter && lte(time, target, atAfter.BlockTimestamp) {
			return beforeAt, atAfter, nil
		}
		if !targetAtOrAfter {
			rgt = i - 1
		} else {
			l = i + 1
		}
	}
	return Observation{}, Observation{}, ErrTargetNotSurrounded
}
