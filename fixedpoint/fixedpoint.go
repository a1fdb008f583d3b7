// Package fixedpoint implements the exact-precision arithmetic the pool
// state machine is built on: Q64.96 prices, Q128.128 fee growth, and
// full-width mulDiv with both rounding directions.
//
// Intermediate products can need more than 256 bits for the inputs this
// package is asked to handle, so every mulDiv here is backed by
// uint256.Int's own 512-bit-wide multiplication rather than re-derived by
// hand — the overflow/rounding behavior is exactly what the ecosystem
// library already gives us.
package fixedpoint

import (
	"errors"

	"github.com/holiman/uint256"
)

// ErrDivideByZero is returned by MulDiv/MulDivRoundingUp when the
// denominator is zero.
var ErrDivideByZero = errors.New("fixedpoint: division by zero")

// ErrOverflow is returned when a mulDiv result (or its rounded-up
// successor) does not fit in 256 bits.
var ErrOverflow = errors.New("fixedpoint: result overflows 256 bits")

// Q96 is 2^96, the fixed-point scale of a Q64.96 sqrt price.
var Q96 = new(uint256.Int).Lsh(uint256.NewInt(1), 96)

// Q128 is 2^128, the fixed-point scale of a Q128.128 fee-growth value.
var Q128 = new(uint256.Int).Lsh(uint256.NewInt(1), 128)

// MulDiv returns floor(a*b/denominator) computed with a full 256x256->512
// bit intermediate product, matching Uniswap v3's FullMath.mulDiv.
func MulDiv(a, b, denominator *uint256.Int) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, ErrDivideByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(a, b, denominator)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// MulDivRoundingUp returns ceil(a*b/denominator).
func MulDivRoundingUp(a, b, denominator *uint256.Int) (*uint256.Int, error) {
	result, err := MulDiv(a, b, denominator)
	if err != nil {
		return nil, err
	}
	remainder := new(uint256.Int).MulMod(a, b, denominator)
	if !remainder.IsZero() {
		if result.Eq(MaxUint256) {
			return nil, ErrOverflow
		}
		result = new(uint256.Int).AddUint64(result, 1)
	}
	return result, nil
}

// MaxUint256 is the largest representable uint256, 2^256-1.
var MaxUint256 = new(uint256.Int).Not(uint256.NewInt(0))

// WrappingAdd adds a and b modulo 2^256. Used for fee-growth globals,
// where wraparound is intentional: the "inside" calculation recovers the
// correct delta across a wrap because the subtraction below is done in
// the same modular arithmetic.
func WrappingAdd(a, b *uint256.Int) *uint256.Int {
	return new(uint256.Int).Add(a, b)
}

// WrappingSub subtracts b from a modulo 2^256.
func WrappingSub(a, b *uint256.Int) *uint256.Int {
	return new(uint256.Int).Sub(a, b)
}

// CheckedAdd adds a and b, failing if the true sum does not fit in 256
// bits. Use this everywhere except the fee-growth accumulators, which
// wrap intentionally (see WrappingAdd).
func CheckedAdd(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// CheckedSub subtracts b from a, failing on underflow.
func CheckedSub(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).SubOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}
