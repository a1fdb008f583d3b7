// Package sqrtpricemath computes token deltas and next sqrt prices for a
// single price movement at constant liquidity — the per-segment math a
// swap step and a mint/burn both reduce to.
//
// All rounding is in the direction that protects the pool: amounts owed
// to the pool round up, amounts paid out round down, and next-price
// computations round toward the price that demands more input / yields
// less output than the exact real number would.
package sqrtpricemath

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/clamm-labs/clamm-core/fixedpoint"
)

var (
	// ErrZeroLiquidity guards the next-price helpers, which divide by
	// liquidity.
	ErrZeroLiquidity = errors.New("sqrtpricemath: liquidity must be positive")
	// ErrPriceOrder is returned by GetAmount0Delta when the lower of its
	// two sqrt prices is zero; the amount-delta helpers accept the two
	// prices in either order.
	ErrPriceOrder = errors.New("sqrtpricemath: lower sqrt ratio must be positive")
)

func divRoundingUp(a, b *uint256.Int) *uint256.Int {
	q, r := new(uint256.Int).DivMod(a, b, new(uint256.Int))
	if !r.IsZero() {
		q = new(uint256.Int).AddUint64(q, 1)
	}
	return q
}

func orderPrices(sqrtA, sqrtB *uint256.Int) (*uint256.Int, *uint256.Int) {
	if sqrtA.Cmp(sqrtB) > 0 {
		return sqrtB, sqrtA
	}
	return sqrtA, sqrtB
}

// GetAmount0Delta returns the amount of token0 required to move the price
// from sqrtRatioA to sqrtRatioB (order-independent) for the given
// liquidity: ceil/floor(L*(sqrtB-sqrtA)*2^96 / (sqrtA*sqrtB)).
func GetAmount0Delta(sqrtRatioA, sqrtRatioB, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	lo, hi := orderPrices(sqrtRatioA, sqrtRatioB)
	if lo.IsZero() {
		return nil, ErrPriceOrder
	}
	numerator1 := new(uint256.Int).Lsh(liquidity, 96)
	numerator2 := new(uint256.Int).Sub(hi, lo)

	if roundUp {
		inner, err := fixedpoint.MulDivRoundingUp(numerator1, numerator2, hi)
		if err != nil {
			return nil, err
		}
		return divRoundingUp(inner, lo), nil
	}
	inner, err := fixedpoint.MulDiv(numerator1, numerator2, hi)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Div(inner, lo), nil
}

// GetAmount1Delta returns the amount of token1 required to move the price
// from sqrtRatioA to sqrtRatioB for the given liquidity: L*(sqrtB-sqrtA)/2^96.
func GetAmount1Delta(sqrtRatioA, sqrtRatioB, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	lo, hi := orderPrices(sqrtRatioA, sqrtRatioB)
	diff := new(uint256.Int).Sub(hi, lo)
	if roundUp {
		return fixedpoint.MulDivRoundingUp(liquidity, diff, fixedpoint.Q96)
	}
	return fixedpoint.MulDiv(liquidity, diff, fixedpoint.Q96)
}

// GetNextSqrtPriceFromAmount0RoundingUp solves the constant-product
// invariant for the next sqrt price after adding (or, if !add, removing)
// amount of token0 at the given liquidity. Rounds up so the pool never
// gives up more than the invariant allows.
func GetNextSqrtPriceFromAmount0RoundingUp(sqrtPriceX96, liquidity, amount *uint256.Int, add bool) (*uint256.Int, error) {
	if amount.IsZero() {
		return new(uint256.Int).Set(sqrtPriceX96), nil
	}
	numerator1 := new(uint256.Int).Lsh(liquidity, 96)

	if add {
		product, overflow := new(uint256.Int).MulOverflow(amount, sqrtPriceX96)
		if !overflow {
			denominator, err := fixedpoint.CheckedAdd(numerator1, product)
			if err == nil && denominator.Cmp(numerator1) >= 0 {
				return fixedpoint.MulDivRoundingUp(numerator1, sqrtPriceX96, denominator)
			}
		}
		denom := new(uint256.Int).Add(new(uint256.Int).Div(numerator1, sqrtPriceX96), amount)
		return divRoundingUp(numerator1, denom), nil
	}

	product, overflow := new(uint256.Int).MulOverflow(amount, sqrtPriceX96)
	if overflow || numerator1.Cmp(product) <= 0 {
		return nil, errors.New("sqrtpricemath: amount0 too large for current liquidity")
	}
	denominator := new(uint256.Int).Sub(numerator1, product)
	return fixedpoint.MulDivRoundingUp(numerator1, sqrtPriceX96, denominator)
}

// GetNextSqrtPriceFromAmount1RoundingDown is the token1 analogue of
// GetNextSqrtPriceFromAmount0RoundingUp, rounding down.
func GetNextSqrtPriceFromAmount1RoundingDown(sqrtPriceX96, liquidity, amount *uint256.Int, add bool) (*uint256.Int, error) {
	if liquidity.IsZero() {
		return nil, ErrZeroLiquidity
	}
	if add {
		quotient, err := fixedpoint.MulDiv(amount, fixedpoint.Q96, liquidity)
		if err != nil {
			return nil, err
		}
		return fixedpoint.CheckedAdd(sqrtPriceX96, quotient)
	}
	quotient, err := fixedpoint.MulDivRoundingUp(amount, fixedpoint.Q96, liquidity)
	if err != nil {
		return nil, err
	}
	if sqrtPriceX96.Cmp(quotient) <= 0 {
		return nil, errors.New("sqrtpricemath: amount1 too large for current price")
	}
	return new(uint256.Int).Sub(sqrtPriceX96, quotient), nil
}

// GetNextSqrtPriceFromInput computes the next sqrt price after consuming
// amountIn of the input side dictated by zeroForOne.
func GetNextSqrtPriceFromInput(sqrtPriceX96, liquidity, amountIn *uint256.Int, zeroForOne bool) (*uint256.Int, error) {
	if sqrtPriceX96.IsZero() {
		return nil, errors.New("sqrtpricemath: sqrtPriceX96 must be positive")
	}
	if liquidity.IsZero() {
		return nil, ErrZeroLiquidity
	}
	if zeroForOne {
		return GetNextSqrtPriceFromAmount0RoundingUp(sqrtPriceX96, liquidity, amountIn, true)
	}
	return GetNextSqrtPriceFromAmount1RoundingDown(sqrtPriceX96, liquidity, amountIn, true)
}

// GetNextSqrtPriceFromOutput computes the next sqrt price after paying
// out amountOut of the output side dictated by zeroForOne.
func GetNextSqrtPriceFromOutput(sqrtPriceX96, liquidity, amountOut *uint256.Int, zeroForOne bool) (*uint256.Int, error) {
	if sqrtPriceX96.IsZero() {
		return nil, errors.New("sqrtpricemath: sqrtPriceX96 must be positive")
	}
	if liquidity.IsZero() {
		return nil, ErrZeroLiquidity
	}
	if zeroForOne {
		return GetNextSqrtPriceFromAmount1RoundingDown(sqrtPriceX96, liquidity, amountOut, false)
	}
	return GetNextSqrtPriceFromAmount0RoundingUp(sqrtPriceX96, liquidity, amountOut, false)
}
