package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"lukechampine.com/uint128"

	"github.com/clamm-labs/clamm-core/events"
	"github.com/clamm-labs/clamm-core/fixedpoint"
	"github.com/clamm-labs/clamm-core/signedint"
	"github.com/clamm-labs/clamm-core/swapmath"
	"github.com/clamm-labs/clamm-core/tick"
	"github.com/clamm-labs/clamm-core/tickmath"
)

func liquidityToU256(l uint128.Uint128) *uint256.Int {
	return new(uint256.Int).SetBytes(l.Big().Bytes())
}

func addU128(a uint128.Uint128, delta *uint256.Int) uint128.Uint128 {
	sum := new(big.Int).Add(a.Big(), delta.ToBig())
	return uint128.FromBig(sum)
}

// swapState carries the mutable working set of the swap loop (spec
// §4.8) so that nothing in the pool's real fields is touched until the
// whole loop succeeds.
type swapState struct {
	amountRemaining     *signedint.Int
	amountCalculated    *signedint.Int
	sqrtPriceX96        *uint256.Int
	tick                int32
	feeGrowthGlobalX128 *uint256.Int
	protocolFee         *uint256.Int
	liquidity           uint128.Uint128
}

// Swap executes an exact-input or exact-output trade against the pool's
// active liquidity, crossing ticks as needed (spec §4.8). Output is
// transferred before the input is pulled via SwapCallback
// (flash-accounting).
func (p *Pool) Swap(caller, recipient common.Address, zeroForOne bool, amountSpecified *signedint.Int, sqrtPriceLimitX96 *uint256.Int, data []byte, cb SwapCallback, now uint32) (amount0, amount1 *uint256.Int, err error) {
	if err := p.checkIdentity(caller); err != nil {
		return nil, nil, err
	}
	if amountSpecified.IsZero() {
		return nil, nil, ErrZeroAmount
	}
	if p.slot0.SqrtPriceX96 == nil {
		return nil, nil, ErrNotInitialized
	}
	if zeroForOne {
		if sqrtPriceLimitX96.Cmp(tickmath.MinSqrtRatio) <= 0 || sqrtPriceLimitX96.Cmp(p.slot0.SqrtPriceX96) >= 0 {
			return nil, nil, ErrPriceLimit
		}
	} else {
		if sqrtPriceLimitX96.Cmp(tickmath.MaxSqrtRatio) >= 0 || sqrtPriceLimitX96.Cmp(p.slot0.SqrtPriceX96) <= 0 {
			return nil, nil, ErrPriceLimit
		}
	}

	if err := p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	slot0Start := p.slot0
	exactInput := amountSpecified.Sign() > 0

	feeProtocolSide0, feeProtocolSide1 := unpackFeeProtocol(slot0Start.FeeProtocol)
	feeProtocolSide := feeProtocolSide0
	feeGrowthGlobalX128 := p.feeGrowthGlobal0X128
	if !zeroForOne {
		feeProtocolSide = feeProtocolSide1
		feeGrowthGlobalX128 = p.feeGrowthGlobal1X128
	}

	state := swapState{
		amountRemaining:     amountSpecified,
		amountCalculated:    signedint.Zero(),
		sqrtPriceX96:        new(uint256.Int).Set(slot0Start.SqrtPriceX96),
		tick:                slot0Start.Tick,
		feeGrowthGlobalX128: new(uint256.Int).Set(feeGrowthGlobalX128),
		protocolFee:         new(uint256.Int),
		liquidity:           p.liquidity,
	}

	liquidityStart := p.liquidity
	observedOnce := false
	var snapshotTickCumulative int64
	var snapshotSecondsPerLiquidityX128 *uint256.Int

	loopGuard := 0
	for !state.amountRemaining.IsZero() && !state.sqrtPriceX96.Eq(sqrtPriceLimitX96) {
		loopGuard++
		if loopGuard > 100000 {
			return nil, nil, ErrInsufficientInput
		}

		sqrtPriceStart := new(uint256.Int).Set(state.sqrtPriceX96)

		nextTick, initializedWithinWord := p.bitmap.NextInitializedTickWithinOneWord(state.tick, p.params.TickSpacing, zeroForOne)
		if nextTick < tickmath.MinTick {
			nextTick = tickmath.MinTick
		} else if nextTick > tickmath.MaxTick {
			nextTick = tickmath.MaxTick
		}

		sqrtPriceNextTick, err := tickmath.GetSqrtRatioAtTick(nextTick)
		if err != nil {
			return nil, nil, err
		}

		var stepTarget *uint256.Int
		if zeroForOne {
			if sqrtPriceNextTick.Cmp(sqrtPriceLimitX96) < 0 {
				stepTarget = sqrtPriceLimitX96
			} else {
				stepTarget = sqrtPriceNextTick
			}
		} else {
			if sqrtPriceNextTick.Cmp(sqrtPriceLimitX96) > 0 {
				stepTarget = sqrtPriceLimitX96
			} else {
				stepTarget = sqrtPriceNextTick
			}
		}

		step, err := swapmath.ComputeSwapStep(state.sqrtPriceX96, stepTarget, liquidityToU256(state.liquidity), state.amountRemaining, p.params.Fee)
		if err != nil {
			return nil, nil, err
		}
		state.sqrtPriceX96 = step.SqrtPriceNextX96

		if exactInput {
			state.amountRemaining = state.amountRemaining.Sub(signedint.FromMagnitude(new(uint256.Int).Add(step.AmountIn, step.FeeAmount), false))
			state.amountCalculated = state.amountCalculated.Sub(signedint.FromMagnitude(step.AmountOut, false))
		} else {
			state.amountRemaining = state.amountRemaining.Add(signedint.FromMagnitude(step.AmountOut, false))
			state.amountCalculated = state.amountCalculated.Add(signedint.FromMagnitude(new(uint256.Int).Add(step.AmountIn, step.FeeAmount), false))
		}

		if feeProtocolSide > 0 {
			delta := new(uint256.Int).Div(step.FeeAmount, uint256.NewInt(uint64(feeProtocolSide)))
			step.FeeAmount = new(uint256.Int).Sub(step.FeeAmount, delta)
			state.protocolFee = new(uint256.Int).Add(state.protocolFee, delta)
		}

		if !state.liquidity.IsZero() {
			feeGrowthDelta, err := fixedpoint.MulDiv(step.FeeAmount, fixedpoint.Q128, liquidityToU256(state.liquidity))
			if err != nil {
				return nil, nil, err
			}
			state.feeGrowthGlobalX128 = fixedpoint.WrappingAdd(state.feeGrowthGlobalX128, feeGrowthDelta)
		}

		if state.sqrtPriceX96.Eq(sqrtPriceNextTick) {
			if initializedWithinWord {
				if !observedOnce {
					snapshotTickCumulative, snapshotSecondsPerLiquidityX128, err = p.oracle.ObserveSingle(now, 0, slot0Start.Tick, slot0Start.ObservationIndex, liquidityStart, slot0Start.ObservationCardinality)
					if err != nil {
						return nil, nil, err
					}
					observedOnce = true
				}

				var liquidityNet *signedint.Int
				if zeroForOne {
					liquidityNet = p.ticks.Cross(nextTick, state.feeGrowthGlobalX128, p.feeGrowthGlobal1X128, snapshotSecondsPerLiquidityX128, snapshotTickCumulative, now)
				} else {
					liquidityNet = p.ticks.Cross(nextTick, p.feeGrowthGlobal0X128, state.feeGrowthGlobalX128, snapshotSecondsPerLiquidityX128, snapshotTickCumulative, now)
				}
				if zeroForOne {
					liquidityNet = liquidityNet.Neg()
				}
				nextLiquidity, err := tick.AddDelta(state.liquidity, liquidityNet)
				if err != nil {
					return nil, nil, err
				}
				state.liquidity = nextLiquidity
			}

			if zeroForOne {
				state.tick = nextTick - 1
			} else {
				state.tick = nextTick
			}
		} else if !state.sqrtPriceX96.Eq(sqrtPriceStart) {
			state.tick, err = tickmath.GetTickAtSqrtRatio(state.sqrtPriceX96)
			if err != nil {
				return nil, nil, err
			}
		}
	}

	if state.tick != slot0Start.Tick {
		newIndex, newCardinality, err := p.oracle.Write(slot0Start.ObservationIndex, now, slot0Start.Tick, liquidityStart, slot0Start.ObservationCardinality, slot0Start.ObservationCardinalityNext)
		if err != nil {
			return nil, nil, err
		}
		p.slot0.SqrtPriceX96 = state.sqrtPriceX96
		p.slot0.Tick = state.tick
		p.slot0.ObservationIndex = newIndex
		p.slot0.ObservationCardinality = newCardinality
	} else {
		p.slot0.SqrtPriceX96 = state.sqrtPriceX96
	}

	if liquidityStart.Cmp(state.liquidity) != 0 {
		p.liquidity = state.liquidity
	}

	if zeroForOne {
		p.feeGrowthGlobal0X128 = state.feeGrowthGlobalX128
		if !state.protocolFee.IsZero() {
			p.protocolFees0 = addU128(p.protocolFees0, state.protocolFee)
		}
	} else {
		p.feeGrowthGlobal1X128 = state.feeGrowthGlobalX128
		if !state.protocolFee.IsZero() {
			p.protocolFees1 = addU128(p.protocolFees1, state.protocolFee)
		}
	}

	amount0Signed := computeSignedOutput(zeroForOne, exactInput, true, amountSpecified, state.amountRemaining, state.amountCalculated)
	amount1Signed := computeSignedOutput(zeroForOne, exactInput, false, amountSpecified, state.amountRemaining, state.amountCalculated)
	amount0 = amount0Signed.Abs()
	amount1 = amount1Signed.Abs()

	if zeroForOne {
		if !amount1Signed.Negative() {
			return nil, nil, ErrInsufficientInput
		}
		if p.tokens != nil && !amount1.IsZero() {
			if err := p.tokens.Transfer(p.params.Token1, recipient, amount1); err != nil {
				return nil, nil, err
			}
		}
	} else {
		if !amount0Signed.Negative() {
			return nil, nil, ErrInsufficientInput
		}
		if p.tokens != nil && !amount0.IsZero() {
			if err := p.tokens.Transfer(p.params.Token0, recipient, amount0); err != nil {
				return nil, nil, err
			}
		}
	}

	var balanceBefore *uint256.Int
	if p.tokens != nil {
		if zeroForOne {
			balanceBefore, err = p.tokens.BalanceOf(p.params.Token0, p.params.Self)
		} else {
			balanceBefore, err = p.tokens.BalanceOf(p.params.Token1, p.params.Self)
		}
		if err != nil {
			return nil, nil, err
		}
	}

	if cb != nil {
		if err := cb.OnSwap(amount0, amount1, amount0Signed.Negative(), amount1Signed.Negative(), data); err != nil {
			return nil, nil, err
		}
	}

	if p.tokens != nil {
		var after *uint256.Int
		var required *uint256.Int
		var token common.Address
		if zeroForOne {
			token = p.params.Token0
			required = amount0
		} else {
			token = p.params.Token1
			required = amount1
		}
		after, err = p.tokens.BalanceOf(token, p.params.Self)
		if err != nil {
			return nil, nil, err
		}
		if new(uint256.Int).Sub(after, balanceBefore).Cmp(required) < 0 {
			return nil, nil, ErrInsufficientInput
		}
	}

	p.log.WithFields(map[string]interface{}{
		"zeroForOne": zeroForOne, "amountSpecified": amountSpecified.ToBig().String(), "newTick": p.slot0.Tick,
	}).Debug("swap")
	p.emit(events.Swap(p.params.Self, caller, recipient, amount0Signed.ToBig(), amount1Signed.ToBig(), p.slot0.SqrtPriceX96, p.liquidity.Big(), p.slot0.Tick))
	return amount0, amount1, nil
}

// computeSignedOutput derives the pool-perspective signed amount for one
// side of the trade (positive = pool is owed, negative = pool owes),
// per spec §4.8's "(amount0, amount1) based on (zeroForOne, exactInput):
// one of amountSpecified-amountRemaining and amountCalculated" rule.
func computeSignedOutput(zeroForOne, exactInput, wantToken0 bool, amountSpecified, amountRemaining, amountCalculated *signedint.Int) *signedint.Int {
	if zeroForOne == exactInput {
		if wantToken0 {
			return amountSpecified.Sub(amountRemaining)
		}
		return amountCalculated
	}
	if wantToken0 {
		return amountCalculated
	}
	return amountSpecified.Sub(amountRemaining)
}
