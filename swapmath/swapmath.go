// Package swapmath computes a single swap step: given a starting and
// target sqrt price, the active liquidity, the amount still to be
// consumed, and the fee tier, it returns how far the price actually
// moves and how much is taken in fees.
package swapmath

import (
	"github.com/holiman/uint256"

	"github.com/clamm-labs/clamm-core/fixedpoint"
	"github.com/clamm-labs/clamm-core/signedint"
	"github.com/clamm-labs/clamm-core/sqrtpricemath"
)

// feeDenominator is the ppm scale: fee is expressed in millionths.
var feeDenominator = uint256.NewInt(1_000_000)

// Step is the result of moving from sqrtPriceCurrent as far as possible
// toward sqrtPriceTarget without exceeding amountRemaining.
type Step struct {
	SqrtPriceNextX96 *uint256.Int
	AmountIn         *uint256.Int
	AmountOut        *uint256.Int
	FeeAmount        *uint256.Int
}

// ComputeSwapStep mirrors Uniswap v3's SwapMath.computeSwapStep.
// amountRemaining is signed: non-negative means exact-input (its magnitude
// is the fee-inclusive budget), negative means exact-output (its magnitude
// is the amount of the output token still wanted). feePips is
// parts-per-million (e.g. 3000 = 0.3%).
func ComputeSwapStep(sqrtPriceCurrent, sqrtPriceTarget, liquidity *uint256.Int, amountRemaining *signedint.Int, feePips uint32) (Step, error) {
	zeroForOne := sqrtPriceCurrent.Cmp(sqrtPriceTarget) >= 0
	exactIn := amountRemaining.Sign() >= 0
	remainingAbs := amountRemaining.Abs()

	fee := uint256.NewInt(uint64(feePips))

	var sqrtPriceNext *uint256.Int
	var amountIn, amountOut *uint256.Int

	if exactIn {
		remainingLessFee, err := fixedpoint.MulDiv(remainingAbs, new(uint256.Int).Sub(feeDenominator, fee), feeDenominator)
		if err != nil {
			return Step{}, err
		}
		if zeroForOne {
			amountIn, err = sqrtpricemath.GetAmount0Delta(sqrtPriceTarget, sqrtPriceCurrent, liquidity, true)
		} else {
			amountIn, err = sqrtpricemath.GetAmount1Delta(sqrtPriceCurrent, sqrtPriceTarget, liquidity, true)
		}
		if err != nil {
			return Step{}, err
		}
		if remainingLessFee.Cmp(amountIn) >= 0 {
			sqrtPriceNext = sqrtPriceTarget
		} else {
			sqrtPriceNext, err = sqrtpricemath.GetNextSqrtPriceFromInput(sqrtPriceCurrent, liquidity, remainingLessFee, zeroForOne)
			if err != nil {
				return Step{}, err
			}
		}
	} else {
		var err error
		if zeroForOne {
			amountOut, err = sqrtpricemath.GetAmount1Delta(sqrtPriceTarget, sqrtPriceCurrent, liquidity, false)
		} else {
			amountOut, err = sqrtpricemath.GetAmount0Delta(sqrtPriceCurrent, sqrtPriceTarget, liquidity, false)
		}
		if err != nil {
			return Step{}, err
		}
		if remainingAbs.Cmp(amountOut) >= 0 {
			sqrtPriceNext = sqrtPriceTarget
		} else {
			sqrtPriceNext, err = sqrtpricemath.GetNextSqrtPriceFromOutput(sqrtPriceCurrent, liquidity, remainingAbs, zeroForOne)
			if err != nil {
				return Step{}, err
			}
		}
	}

	reachedTarget := sqrtPriceNext.Eq(sqrtPriceTarget)

	var err error
	if zeroForOne {
		if !(reachedTarget && exactIn) {
			amountIn, err = sqrtpricemath.GetAmount0Delta(sqrtPriceNext, sqrtPriceCurrent, liquidity, true)
			if err != nil {
				return Step{}, err
			}
		}
		if !(reachedTarget && !exactIn) {
			amountOut, err = sqrtpricemath.GetAmount1Delta(sqrtPriceNext, sqrtPriceCurrent, liquidity, false)
			if err != nil {
				return Step{}, err
			}
		}
	} else {
		if !(reachedTarget && exactIn) {
			amountIn, err = sqrtpricemath.GetAmount1Delta(sqrtPriceCurrent, sqrtPriceNext, liquidity, true)
			if err != nil {
				return Step{}, err
			}
		}
		if !(reachedTarget && !exactIn) {
			amountOut, err = sqrtpricemath.GetAmount0Delta(sqrtPriceCurrent, sqrtPriceNext, liquidity, false)
			if err != nil {
				return Step{}, err
			}
		}
	}

	if !exactIn && amountOut.Cmp(remainingAbs) > 0 {
		amountOut = remainingAbs
	}

	var feeAmount *uint256.Int
	if exactIn && reachedTarget {
		feeAmount = new(uint256.Int).Sub(remainingAbs, amountIn)
	} else {
		feeAmount, err = fixedpoint.MulDivRoundingUp(amountIn, fee, new(uint256.Int).Sub(feeDenominator, fee))
		if err != nil {
			return Step{}, err
		}
	}

	return Step{
		SqrtPriceNextX96: sqrtPriceNext,
		AmountIn:         amountIn,
		AmountOut:        amountOut,
		FeeAmount:        feeAmount,
	}, nil
}
