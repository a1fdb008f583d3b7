// Package tickmath implements the bijection between an integer tick index
// and its Q64.96 sqrt price, i.e. the discrete coordinate system the rest
// of the engine walks.
//
// GetSqrtRatioAtTick uses the log-linear multiply schedule (twenty
// constants, one per bit of the tick's magnitude); GetTickAtSqrtRatio
// inverts it with a bit-scan log2 followed by a two-candidate linear
// correction. Both operate on math/big internally because the inverse
// direction is inherently signed (log2 of a ratio below 1 is negative),
// something no fixed-width unsigned type in the pack models directly;
// results are returned as *uint256.Int to match the rest of the engine.
package tickmath

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

const (
	// MinTick is the smallest tick supported by GetSqrtRatioAtTick.
	MinTick = -887272
	// MaxTick is the largest tick supported by GetSqrtRatioAtTick.
	MaxTick = 887272
)

var (
	// MinSqrtRatio is GetSqrtRatioAtTick(MinTick).
	MinSqrtRatio = uint256.NewInt(4295128739)
	// MaxSqrtRatio is GetSqrtRatioAtTick(MaxTick).
	MaxSqrtRatio = mustFromDecimal("1461446703485210103287273052203988822378723970342")

	ErrTickOutOfRange  = errors.New("tickmath: tick out of [MinTick, MaxTick]")
	ErrRatioOutOfRange = errors.New("tickmath: sqrtPriceX96 out of [MinSqrtRatio, MaxSqrtRatio)")
)

func mustFromDecimal(s string) *uint256.Int {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		panic(err)
	}
	return v
}

// ratioConstants are Q128.128 magic numbers, one per set bit of |tick|,
// used by the log-linear multiply schedule below.
var ratioConstants = [20]*big.Int{
	bigHex("fffcb933bd6fad37aa2d162d1a594001"),
	bigHex("fff97272373d413259a46990580e213a"),
	bigHex("fff2e50f5f656932ef12357cf3c7fdcc"),
	bigHex("ffe5caca7e10e4e61c3624eaa0941cd0"),
	bigHex("ffcb9843d60f6159c9db58835c926644"),
	bigHex("ff973b41fa98c081472e6896dfb254c0"),
	bigHex("ff2ea16466c96a3843ec78b326b52861"),
	bigHex("fe5dee046a99a2a811c461f1969c3053"),
	bigHex("fcbe86c7900a88aedcffc83b479aa3a4"),
	bigHex("f987a7253ac413176f2b074cf7815e54"),
	bigHex("f3392b0822b70005940c7a398e4b70f3"),
	bigHex("e7159475a2c29b7443b29c7fa6e889d9"),
	bigHex("d097f3bdfd2022b8845ad8f792aa5825"),
	bigHex("a9f746462d870fdf8a65dc1f90e061e5"),
	bigHex("70d869a156d2a1b890bb3df62baf32f7"),
	bigHex("31be135f97d08fd981231505542fcfa6"),
	bigHex("9aa508b5b7a84e1c677de54f3e99bc9"),
	bigHex("5d6af8dedb81196699c329225ee604"),
	bigHex("2216e584f5fa1ea926041bedfe98"),
	bigHex("48a170391f7dc42444e8fa2"),
}

func bigHex(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("tickmath: bad hex constant " + s)
	}
	return v
}

func decConst(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("tickmath: bad decimal constant " + s)
	}
	return v
}

var (
	bigOne        = big.NewInt(1)
	maxUint256Big = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 256), bigOne)

	logSqrt10001Scale = decConst("255738958999603826347141")
	lowCorrection     = decConst("3402992956809132418596140100660247210")
	highCorrection    = decConst("291339464771989622907027621153398088495")
)

// GetSqrtRatioAtTick returns sqrt(1.0001^tick) * 2^96 as a Q64.96 value,
// for tick in [MinTick, MaxTick]; the final Q128.128 to Q64.96 shift
// rounds up.
func GetSqrtRatioAtTick(tick int32) (*uint256.Int, error) {
	absTick := int64(tick)
	if absTick < 0 {
		absTick = -absTick
	}
	if absTick > MaxTick {
		return nil, ErrTickOutOfRange
	}

	ratio := new(big.Int)
	if absTick&0x1 != 0 {
		ratio.Set(ratioConstants[0])
	} else {
		ratio.Lsh(bigOne, 128)
	}
	for i := 1; i < 20; i++ {
		if absTick&(1<<uint(i)) != 0 {
			ratio.Mul(ratio, ratioConstants[i])
			ratio.Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio.Div(maxUint256Big, ratio)
	}

	// Q128.128 -> Q128.96, rounding up.
	shifted, rem := new(big.Int).QuoRem(ratio, new(big.Int).Lsh(bigOne, 32), new(big.Int))
	if rem.Sign() != 0 {
		shifted.Add(shifted, bigOne)
	}

	z, overflow := uint256.FromBig(shifted)
	if overflow {
		return nil, errors.New("tickmath: sqrt ratio overflowed 256 bits")
	}
	return z, nil
}

// GetTickAtSqrtRatio returns the greatest tick such that
// GetSqrtRatioAtTick(tick) <= sqrtPriceX96, for sqrtPriceX96 in
// [MinSqrtRatio, MaxSqrtRatio).
func GetTickAtSqrtRatio(sqrtPriceX96 *uint256.Int) (int32, error) {
	if sqrtPriceX96.Cmp(MinSqrtRatio) < 0 || sqrtPriceX96.Cmp(MaxSqrtRatio) >= 0 {
		return 0, ErrRatioOutOfRange
	}

	ratio := new(big.Int).Lsh(sqrtPriceX96.ToBig(), 32)
	msb := ratio.BitLen() - 1

	var r *big.Int
	if msb >= 128 {
		r = new(big.Int).Rsh(ratio, uint(msb-127))
	} else {
		r = new(big.Int).Lsh(ratio, uint(127-msb))
	}

	log2 := new(big.Int).Lsh(big.NewInt(int64(msb-128)), 64)

	for shift := 63; shift >= 50; shift-- {
		r = new(big.Int).Rsh(new(big.Int).Mul(r, r), 127)
		f := new(big.Int).Rsh(r, 128)
		if f.Sign() != 0 {
			log2.Or(log2, new(big.Int).Lsh(f, uint(shift)))
			r = new(big.Int).Rsh(r, uint(f.Uint64()))
		}
	}

	logSqrt10001 := new(big.Int).Mul(log2, logSqrt10001Scale)

	tickLow := new(big.Int).Rsh(new(big.Int).Sub(logSqrt10001, lowCorrection), 128)
	tickHigh := new(big.Int).Rsh(new(big.Int).Add(logSqrt10001, highCorrection), 128)

	tl := int32(tickLow.Int64())
	th := int32(tickHigh.Int64())

	if tl == th {
		return tl, nil
	}
	atHigh, err := GetSqrtRatioAtTick(th)
	if err != nil {
		return 0, err
	}
	if atHigh.Cmp(sqrtPriceX96) <= 0 {
		return th, nil
	}
	return tl, nil
}
