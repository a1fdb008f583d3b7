package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"lukechampine.com/uint128"

	"github.com/clamm-labs/clamm-core/events"
	"github.com/clamm-labs/clamm-core/position"
	"github.com/clamm-labs/clamm-core/signedint"
	"github.com/clamm-labs/clamm-core/sqrtpricemath"
	"github.com/clamm-labs/clamm-core/tick"
	"github.com/clamm-labs/clamm-core/tickmath"
)

func (p *Pool) checkTicks(tickLower, tickUpper int32) error {
	if tickLower >= tickUpper {
		return ErrTickLowerUpper
	}
	if tickLower < tickmath.MinTick {
		return ErrTickLowerRange
	}
	if tickUpper > tickmath.MaxTick {
		return ErrTickUpperRange
	}
	return nil
}

// updatePosition implements spec §4.7: it touches the boundary ticks
// (seeding or flipping their outside accumulators), derives the range's
// current fee-growth-inside, and folds both into the position record.
func (p *Pool) updatePosition(owner common.Address, tickLower, tickUpper int32, liquidityDelta *signedint.Int, now uint32) (*position.Info, error) {
	key := position.NewKey(owner, tickLower, tickUpper)
	pos := p.positions.GetOrCreate(key)

	var flippedLower, flippedUpper bool
	if !liquidityDelta.IsZero() {
		tickCum, splCum, err := p.oracle.ObserveSingle(now, 0, p.slot0.Tick, p.slot0.ObservationIndex, p.liquidity, p.slot0.ObservationCardinality)
		if err != nil {
			return nil, err
		}

		flippedLower, err = p.ticks.Update(tickLower, p.slot0.Tick, liquidityDelta, p.feeGrowthGlobal0X128, p.feeGrowthGlobal1X128, splCum, tickCum, now, false, p.params.MaxLiquidityPerTick)
		if err != nil {
			return nil, err
		}
		flippedUpper, err = p.ticks.Update(tickUpper, p.slot0.Tick, liquidityDelta, p.feeGrowthGlobal0X128, p.feeGrowthGlobal1X128, splCum, tickCum, now, true, p.params.MaxLiquidityPerTick)
		if err != nil {
			return nil, err
		}

		if flippedLower {
			if err := p.bitmap.Flip(tickLower, p.params.TickSpacing); err != nil {
				return nil, err
			}
		}
		if flippedUpper {
			if err := p.bitmap.Flip(tickUpper, p.params.TickSpacing); err != nil {
				return nil, err
			}
		}
	}

	feeGrowthInside0, feeGrowthInside1 := p.ticks.GetFeeGrowthInside(tickLower, tickUpper, p.slot0.Tick, p.feeGrowthGlobal0X128, p.feeGrowthGlobal1X128)

	if err := pos.Update(liquidityDelta, feeGrowthInside0, feeGrowthInside1); err != nil {
		return nil, err
	}

	if liquidityDelta.Negative() {
		if flippedLower {
			p.ticks.Clear(tickLower)
		}
		if flippedUpper {
			p.ticks.Clear(tickUpper)
		}
	}

	return pos, nil
}

// modifyPosition implements spec §4.6's shared mint/burn helper: it
// delegates to updatePosition, then derives the token amounts owed from
// the range's position relative to the current price, updating active
// liquidity and writing an oracle observation first if the range is
// currently in play.
func (p *Pool) modifyPosition(owner common.Address, tickLower, tickUpper int32, liquidityDelta *signedint.Int, now uint32) (*position.Info, *signedint.Int, *signedint.Int, error) {
	if err := p.checkTicks(tickLower, tickUpper); err != nil {
		return nil, nil, nil, err
	}

	pos, err := p.updatePosition(owner, tickLower, tickUpper, liquidityDelta, now)
	if err != nil {
		return nil, nil, nil, err
	}

	amount0 := signedint.Zero()
	amount1 := signedint.Zero()

	if !liquidityDelta.IsZero() {
		sqrtLower, err := tickmath.GetSqrtRatioAtTick(tickLower)
		if err != nil {
			return nil, nil, nil, err
		}
		sqrtUpper, err := tickmath.GetSqrtRatioAtTick(tickUpper)
		if err != nil {
			return nil, nil, nil, err
		}
		roundUp := liquidityDelta.Sign() > 0

		switch {
		case p.slot0.Tick < tickLower:
			amt0, err := sqrtpricemath.GetAmount0Delta(sqrtLower, sqrtUpper, liquidityDelta.Abs(), roundUp)
			if err != nil {
				return nil, nil, nil, err
			}
			amount0 = signedint.FromMagnitude(amt0, liquidityDelta.Negative())

		case p.slot0.Tick < tickUpper:
			amt0, err := sqrtpricemath.GetAmount0Delta(p.slot0.SqrtPriceX96, sqrtUpper, liquidityDelta.Abs(), roundUp)
			if err != nil {
				return nil, nil, nil, err
			}
			amt1, err := sqrtpricemath.GetAmount1Delta(sqrtLower, p.slot0.SqrtPriceX96, liquidityDelta.Abs(), roundUp)
			if err != nil {
				return nil, nil, nil, err
			}
			amount0 = signedint.FromMagnitude(amt0, liquidityDelta.Negative())
			amount1 = signedint.FromMagnitude(amt1, liquidityDelta.Negative())

			newIndex, newCardinality, err := p.oracle.Write(p.slot0.ObservationIndex, now, p.slot0.Tick, p.liquidity, p.slot0.ObservationCardinality, p.slot0.ObservationCardinalityNext)
			if err != nil {
				return nil, nil, nil, err
			}
			p.slot0.ObservationIndex = newIndex
			p.slot0.ObservationCardinality = newCardinality

			nextLiquidity, err := tick.AddDelta(p.liquidity, liquidityDelta)
			if err != nil {
				return nil, nil, nil, err
			}
			p.liquidity = nextLiquidity

		default:
			amt1, err := sqrtpricemath.GetAmount1Delta(sqrtLower, sqrtUpper, liquidityDelta.Abs(), roundUp)
			if err != nil {
				return nil, nil, nil, err
			}
			amount1 = signedint.FromMagnitude(amt1, liquidityDelta.Negative())
		}
	}

	return pos, amount0, amount1, nil
}

// Mint adds liquidity to [tickLower, tickUpper] on behalf of recipient
// (spec §4.6). Token amounts owed are collected via the pull-pattern
// MintCallback, then verified against the pool's balance increase.
func (p *Pool) Mint(caller, recipient common.Address, tickLower, tickUpper int32, amount uint128.Uint128, data []byte, cb MintCallback, now uint32) (amount0, amount1 *uint256.Int, err error) {
	if err := p.checkIdentity(caller); err != nil {
		return nil, nil, err
	}
	if err := p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	if amount.IsZero() {
		return nil, nil, ErrZeroAmount
	}
	if p.slot0.SqrtPriceX96 == nil {
		return nil, nil, ErrNotInitialized
	}

	delta := signedint.FromMagnitude(liquidityToU256(amount), false)
	_, signedAmount0, signedAmount1, err := p.modifyPosition(recipient, tickLower, tickUpper, delta, now)
	if err != nil {
		return nil, nil, err
	}
	amount0 = signedAmount0.Abs()
	amount1 = signedAmount1.Abs()

	var balance0Before, balance1Before *uint256.Int
	if p.tokens != nil {
		if balance0Before, err = p.tokens.BalanceOf(p.params.Token0, p.params.Self); err != nil {
			return nil, nil, err
		}
		if balance1Before, err = p.tokens.BalanceOf(p.params.Token1, p.params.Self); err != nil {
			return nil, nil, err
		}
	}

	if cb != nil {
		if err := cb.OnMint(amount0, amount1, data); err != nil {
			return nil, nil, err
		}
	}

	if p.tokens != nil {
		if !amount0.IsZero() {
			after, err := p.tokens.BalanceOf(p.params.Token0, p.params.Self)
			if err != nil {
				return nil, nil, err
			}
			if new(uint256.Int).Sub(after, balance0Before).Cmp(amount0) < 0 {
				return nil, nil, ErrInsufficientInput0
			}
		}
		if !amount1.IsZero() {
			after, err := p.tokens.BalanceOf(p.params.Token1, p.params.Self)
			if err != nil {
				return nil, nil, err
			}
			if new(uint256.Int).Sub(after, balance1Before).Cmp(amount1) < 0 {
				return nil, nil, ErrInsufficientInput1
			}
		}
	}

	p.log.WithFields(map[string]interface{}{"recipient": recipient.Hex(), "tickLower": tickLower, "tickUpper": tickUpper, "amount": amount.String()}).Debug("mint")
	p.emit(events.Mint(p.params.Self, caller, recipient, tickLower, tickUpper, liquidityToU256(amount).ToBig(), amount0, amount1))
	return amount0, amount1, nil
}

// Burn removes liquidity from [tickLower, tickUpper] owned by caller,
// converting the resulting negative deltas into owed token amounts
// without transferring anything (spec §4.6).
func (p *Pool) Burn(caller common.Address, tickLower, tickUpper int32, amount uint128.Uint128, now uint32) (amount0, amount1 *uint256.Int, err error) {
	if err := p.checkIdentity(caller); err != nil {
		return nil, nil, err
	}
	if err := p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	delta := signedint.FromMagnitude(liquidityToU256(amount), true)
	pos, signedAmount0, signedAmount1, err := p.modifyPosition(caller, tickLower, tickUpper, delta, now)
	if err != nil {
		return nil, nil, err
	}
	amount0 = signedAmount0.Neg().Abs()
	amount1 = signedAmount1.Neg().Abs()

	if !amount0.IsZero() || !amount1.IsZero() {
		pos.TokensOwed0 = new(uint256.Int).Add(pos.TokensOwed0, amount0)
		pos.TokensOwed1 = new(uint256.Int).Add(pos.TokensOwed1, amount1)
	}

	p.log.WithFields(map[string]interface{}{"tickLower": tickLower, "tickUpper": tickUpper, "amount": amount.String()}).Debug("burn")
	p.emit(events.Burn(p.params.Self, caller, tickLower, tickUpper, liquidityToU256(amount).ToBig(), amount0, amount1))
	return amount0, amount1, nil
}

// Collect withdraws up to (req0, req1) of a position's accrued
// tokensOwed, clamped to what is actually owed (spec §4.6). It does not
// recompute fees; call Burn(0) first to checkpoint pending fees.
func (p *Pool) Collect(caller, recipient common.Address, tickLower, tickUpper int32, req0, req1 *uint256.Int) (amount0, amount1 *uint256.Int, err error) {
	if err := p.checkIdentity(caller); err != nil {
		return nil, nil, err
	}
	if err := p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	if err := p.checkTicks(tickLower, tickUpper); err != nil {
		return nil, nil, err
	}

	key := position.NewKey(caller, tickLower, tickUpper)
	pos, ok := p.positions.Get(key)
	if !ok {
		return new(uint256.Int), new(uint256.Int), nil
	}

	amount0 = req0
	if amount0.Cmp(pos.TokensOwed0) > 0 {
		amount0 = pos.TokensOwed0
	}
	amount1 = req1
	if amount1.Cmp(pos.TokensOwed1) > 0 {
		amount1 = pos.TokensOwed1
	}

	if !amount0.IsZero() {
		pos.TokensOwed0 = new(uint256.Int).Sub(pos.TokensOwed0, amount0)
		if p.tokens != nil {
			if err := p.tokens.Transfer(p.params.Token0, recipient, amount0); err != nil {
				return nil, nil, err
			}
		}
	}
	if !amount1.IsZero() {
		pos.TokensOwed1 = new(uint256.Int).Sub(pos.TokensOwed1, amount1)
		if p.tokens != nil {
			if err := p.tokens.Transfer(p.params.Token1, recipient, amount1); err != nil {
				return nil, nil, err
			}
		}
	}

	p.emit(events.Collect(p.params.Self, caller, recipient, tickLower, tickUpper, amount0, amount1))
	return amount0, amount1, nil
}
