// Package signedint provides a minimal signed wrapper around a
// uint256.Int magnitude. The swap loop's amountRemaining/amountCalculated
// need a sign (exact-input vs exact-output, and direction of
// amountCalculated), but stay far below 2^256 in magnitude for any real
// token supply, so a full signed big-integer library would be overkill;
// this is the smallest type that carries sign alongside the engine's
// existing uint256.Int currency.
package signedint

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Int is a signed value: sign in {-1, 0, 1} and a uint256 magnitude.
type Int struct {
	abs  *uint256.Int
	sign int
}

// FromInt64 builds an Int from a plain int64.
func FromInt64(v int64) *Int {
	if v < 0 {
		return &Int{abs: uint256.NewInt(uint64(-v)), sign: -1}
	}
	if v == 0 {
		return &Int{abs: uint256.NewInt(0), sign: 0}
	}
	return &Int{abs: uint256.NewInt(uint64(v)), sign: 1}
}

// FromMagnitude builds a signed value from an unsigned magnitude and an
// explicit sign.
func FromMagnitude(abs *uint256.Int, negative bool) *Int {
	sign := 1
	if abs.IsZero() {
		sign = 0
	} else if negative {
		sign = -1
	}
	return &Int{abs: new(uint256.Int).Set(abs), sign: sign}
}

// Zero returns the zero value.
func Zero() *Int { return &Int{abs: uint256.NewInt(0), sign: 0} }

// IsZero reports whether the value is exactly zero.
func (z *Int) IsZero() bool { return z.sign == 0 }

// Sign returns -1, 0 or 1.
func (z *Int) Sign() int { return z.sign }

// Negative reports whether the value is strictly less than zero.
func (z *Int) Negative() bool { return z.sign < 0 }

// Abs returns a copy of the unsigned magnitude.
func (z *Int) Abs() *uint256.Int { return new(uint256.Int).Set(z.abs) }

// Neg returns -z.
func (z *Int) Neg() *Int {
	if z.sign == 0 {
		return z
	}
	return &Int{abs: new(uint256.Int).Set(z.abs), sign: -z.sign}
}

// Add returns z + y.
func (z *Int) Add(y *Int) *Int { return add(z, y) }

// Sub returns z - y.
func (z *Int) Sub(y *Int) *Int { return add(z, y.Neg()) }

func add(a, b *Int) *Int {
	if a.sign == 0 {
		return b
	}
	if b.sign == 0 {
		return a
	}
	if a.sign == b.sign {
		return &Int{abs: new(uint256.Int).Add(a.abs, b.abs), sign: a.sign}
	}
	if a.abs.Cmp(b.abs) >= 0 {
		d := new(uint256.Int).Sub(a.abs, b.abs)
		sign := a.sign
		if d.IsZero() {
			sign = 0
		}
		return &Int{abs: d, sign: sign}
	}
	d := new(uint256.Int).Sub(b.abs, a.abs)
	return &Int{abs: d, sign: b.sign}
}

// ToBig returns the value as a signed math/big.Int.
func (z *Int) ToBig() *big.Int {
	b := z.abs.ToBig()
	if z.sign < 0 {
		b.Neg(b)
	}
	return b
}

// Cmp compares z and y, returning -1, 0 or 1.
func (z *Int) Cmp(y *Int) int {
	if z.sign != y.sign {
		if z.sign < y.sign {
			return -1
		}
		return 1
	}
	c := z.abs.Cmp(y.abs)
	if z.sign < 0 {
		return -c
	}
	return c
}
