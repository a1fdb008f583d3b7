package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// MintCallback is invoked after mint has updated position/tick state, so
// the caller can pay in the computed amount0/amount1 (pull pattern).
type MintCallback interface {
	OnMint(amount0, amount1 *uint256.Int, data []byte) error
}

// SwapCallback is invoked after a swap has transferred the output side,
// so the caller can pay in the required input (flash-accounting).
// amount0/amount1 are unsigned magnitudes; amount0Negative/amount1Negative
// carry the pool's perspective sign: false means the pool is owed that
// amount, true means the pool owes it.
type SwapCallback interface {
	OnSwap(amount0, amount1 *uint256.Int, amount0Negative, amount1Negative bool, data []byte) error
}

// FlashCallback is invoked after a flash loan has transferred the
// requested amounts out, so the caller can repay principal plus fee.
type FlashCallback interface {
	OnFlash(fee0, fee1 *uint256.Int, data []byte) error
}

// TokenClient is the out-of-scope token-transfer collaborator (spec §6):
// given a token and an account it returns a balance; given a token,
// destination and amount it moves tokens. Transfer failures are fatal to
// the containing pool operation.
type TokenClient interface {
	BalanceOf(token, who common.Address) (*uint256.Int, error)
	Transfer(token, to common.Address, amount *uint256.Int) error
}
