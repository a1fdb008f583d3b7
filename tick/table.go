package tick

import (
	"github.com/holiman/uint256"
	"lukechampine.com/uint128"

	"github.com/clamm-labs/clamm-core/fixedpoint"
	"github.com/clamm-labs/clamm-core/signedint"
)

// Table is the sparse tick -> Info map (§4.3 TickTable). The zero value
// is not usable; construct with NewTable.
type Table struct {
	ticks map[int32]*Info
}

// NewTable returns an empty tick table.
func NewTable() *Table {
	return &Table{ticks: make(map[int32]*Info)}
}

// Get returns the tick's Info and whether it exists (initialized or not
// — a tick is present in the map once touched, even before it flips).
func (t *Table) Get(i int32) (*Info, bool) {
	info, ok := t.ticks[i]
	return info, ok
}

// getOrCreate fetches a tick, lazily creating its Info on first touch.
func (t *Table) getOrCreate(i int32) *Info {
	info, ok := t.ticks[i]
	if !ok {
		info = newInfo()
		t.ticks[i] = info
	}
	return info
}

// Update applies a liquidity delta at tick i, seeding or flipping its
// outside accumulators as needed, per spec §4.3.
func (t *Table) Update(
	i, currentTick int32,
	liquidityDelta *signedint.Int,
	feeGrowthGlobal0, feeGrowthGlobal1 *uint256.Int,
	secondsPerLiquidityCumulativeX128 *uint256.Int,
	tickCumulative int64,
	blockTimestamp uint32,
	upper bool,
	maxLiquidityPerTick uint128.Uint128,
) (flipped bool, err error) {
	info := t.getOrCreate(i)

	grossBefore := info.LiquidityGross
	grossAfter, err := AddDelta(grossBefore, liquidityDelta)
	if err != nil {
		return false, err
	}
	if grossAfter.Cmp(maxLiquidityPerTick) > 0 {
		return false, ErrLiquidityOverflow
	}

	flipped = grossBefore.IsZero() != grossAfter.IsZero()

	if grossBefore.IsZero() {
		if i <= currentTick {
			info.FeeGrowthOutside0X128 = new(uint256.Int).Set(feeGrowthGlobal0)
			info.FeeGrowthOutside1X128 = new(uint256.Int).Set(feeGrowthGlobal1)
			info.SecondsPerLiquidityOutsideX128 = new(uint256.Int).Set(secondsPerLiquidityCumulativeX128)
			info.TickCumulativeOutside = tickCumulative
			info.SecondsOutside = blockTimestamp
		}
		info.Initialized = true
	}

	info.LiquidityGross = grossAfter
	if upper {
		info.LiquidityNet = info.LiquidityNet.Sub(liquidityDelta)
	} else {
		info.LiquidityNet = info.LiquidityNet.Add(liquidityDelta)
	}
	return flipped, nil
}

// Cross flips a tick's outside accumulators as price crosses it, per
// spec §4.3, and returns the stored liquidityNet.
func (t *Table) Cross(
	i int32,
	feeGrowthGlobal0, feeGrowthGlobal1 *uint256.Int,
	secondsPerLiquidityCumulativeX128 *uint256.Int,
	tickCumulative int64,
	blockTimestamp uint32,
) *signedint.Int {
	info := t.getOrCreate(i)
	info.FeeGrowthOutside0X128 = fixedpoint.WrappingSub(feeGrowthGlobal0, info.FeeGrowthOutside0X128)
	info.FeeGrowthOutside1X128 = fixedpoint.WrappingSub(feeGrowthGlobal1, info.FeeGrowthOutside1X128)
	info.SecondsPerLiquidityOutsideX128 = fixedpoint.WrappingSub(secondsPerLiquidityCumulativeX128, info.SecondsPerLiquidityOutsideX128)
	info.TickCumulativeOutside = tickCumulative - info.TickCumulativeOutside
	info.SecondsOutside = blockTimestamp - info.SecondsOutside
	return info.LiquidityNet
}

// GetFeeGrowthInside returns feeGrowthGlobal - feeGrowthOutside(lower) -
// feeGrowthOutside(upper) under the outside-accumulator semantics of
// spec §4.3, for both token sides. Modular 256-bit subtraction makes
// wraparound self-correcting.
func (t *Table) GetFeeGrowthInside(lower, upper, currentTick int32, feeGrowthGlobal0, feeGrowthGlobal1 *uint256.Int) (*uint256.Int, *uint256.Int) {
	lowerInfo := t.getOrCreate(lower)
	upperInfo := t.getOrCreate(upper)

	var below0, below1 *uint256.Int
	if currentTick >= lower {
		below0 = lowerInfo.FeeGrowthOutside0X128
		below1 = lowerInfo.FeeGrowthOutside1X128
	} else {
		below0 = fixedpoint.WrappingSub(feeGrowthGlobal0, lowerInfo.FeeGrowthOutside0X128)
		below1 = fixedpoint.WrappingSub(feeGrowthGlobal1, lowerInfo.FeeGrowthOutside1X128)
	}

	var above0, above1 *uint256.Int
	if currentTick < upper {
		above0 = upperInfo.FeeGrowthOutside0X128
		above1 = upperInfo.FeeGrowthOutside1X128
	} else {
		above0 = fixedpoint.WrappingSub(feeGrowthGlobal0, upperInfo.FeeGrowthOutside0X128)
		above1 = fixedpoint.WrappingSub(feeGrowthGlobal1, upperInfo.FeeGrowthOutside1X128)
	}

	inside0 := fixedpoint.WrappingSub(fixedpoint.WrappingSub(feeGrowthGlobal0, below0), above0)
	inside1 := fixedpoint.WrappingSub(fixedpoint.WrappingSub(feeGrowthGlobal1, below1), above1)
	return inside0, inside1
}

// Clear deletes a tick's stored state once it's no longer referenced by
// any position (liquidityGross returns to zero).
func (t *Table) Clear(i int32) {
	delete(t.ticks, i)
}
