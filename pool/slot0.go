package pool

import (
	"errors"

	"github.com/holiman/uint256"
)

// ErrInvalidFeeProtocol is returned by SetFeeProtocol when a requested
// share is outside {0} ∪ [4,10].
var ErrInvalidFeeProtocol = errors.New("pool: feeProtocol share must be 0 or in [4,10]")

// Slot0 is the pool's hot state, read once at the top of every call.
type Slot0 struct {
	SqrtPriceX96               *uint256.Int
	Tick                       int32
	ObservationIndex           uint16
	ObservationCardinality     uint16
	ObservationCardinalityNext uint16
	FeeProtocol                uint8
	Unlocked                   bool
}

// validFeeProtocolShare reports whether p is 0 or in [4,10], per spec §3/§6.
func validFeeProtocolShare(p uint8) bool {
	return p == 0 || (p >= 4 && p <= 10)
}

// packFeeProtocol packs (token0Share, token1Share) into Slot0.FeeProtocol:
// low nibble = token0 share, high nibble = token1 share.
func packFeeProtocol(p0, p1 uint8) uint8 {
	return p0 | (p1 << 4)
}

// unpackFeeProtocol splits Slot0.FeeProtocol back into its two shares.
func unpackFeeProtocol(packed uint8) (p0, p1 uint8) {
	return packed & 0x0f, packed >> 4
}
