package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"lukechampine.com/uint128"

	"github.com/clamm-labs/clamm-core/events"
)

// checkOwner enforces the factory-owner authorization on
// setFeeProtocol/collectProtocol (spec §4.6, "authorization: non-owner").
func (p *Pool) checkOwner(caller common.Address) error {
	if caller != p.owner {
		return ErrNotOwner
	}
	return nil
}

// SetFeeProtocol sets each side's protocol fee share, expressed as a
// divisor (1/n of the LP fee) or 0 to disable it. Valid shares are {0}
// union [4,10], per spec §9's resolved open question on the validity
// window.
func (p *Pool) SetFeeProtocol(caller common.Address, feeProtocol0, feeProtocol1 uint8) error {
	if err := p.checkOwner(caller); err != nil {
		return err
	}
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	if !validFeeProtocolShare(feeProtocol0) || !validFeeProtocolShare(feeProtocol1) {
		return ErrInvalidFeeProtocol
	}

	old0, old1 := unpackFeeProtocol(p.slot0.FeeProtocol)
	p.slot0.FeeProtocol = packFeeProtocol(feeProtocol0, feeProtocol1)

	p.log.WithFields(map[string]interface{}{"old0": old0, "old1": old1, "new0": feeProtocol0, "new1": feeProtocol1}).Info("fee protocol changed")
	p.emit(events.SetFeeProtocol(p.params.Self, old0, old1, feeProtocol0, feeProtocol1))
	return nil
}

// CollectProtocol withdraws up to (req0, req1) of the accumulated
// protocol fee share to recipient, clamped to what has accrued. Per
// spec §9's resolved open question, one wei is deliberately left behind
// on a full withdrawal of a nonzero balance so the accumulator slot
// never reverts to the zero value (matching Uniswap v3's gas-refund
// convention on a storage slot it expects to reuse).
func (p *Pool) CollectProtocol(caller, recipient common.Address, req0, req1 *uint256.Int) (amount0, amount1 *uint256.Int, err error) {
	if err := p.checkOwner(caller); err != nil {
		return nil, nil, err
	}
	if err := p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	available0 := new(uint256.Int).SetBytes(p.protocolFees0.Big().Bytes())
	available1 := new(uint256.Int).SetBytes(p.protocolFees1.Big().Bytes())

	amount0 = req0
	if amount0.Cmp(available0) > 0 {
		amount0 = available0
	}
	amount1 = req1
	if amount1.Cmp(available1) > 0 {
		amount1 = available1
	}

	if amount0.Cmp(available0) == 0 && !amount0.IsZero() {
		amount0 = new(uint256.Int).Sub(amount0, uint256.NewInt(1))
	}
	if amount1.Cmp(available1) == 0 && !amount1.IsZero() {
		amount1 = new(uint256.Int).Sub(amount1, uint256.NewInt(1))
	}

	if !amount0.IsZero() {
		p.protocolFees0 = subU128(p.protocolFees0, amount0)
		if p.tokens != nil {
			if err := p.tokens.Transfer(p.params.Token0, recipient, amount0); err != nil {
				return nil, nil, err
			}
		}
	}
	if !amount1.IsZero() {
		p.protocolFees1 = subU128(p.protocolFees1, amount1)
		if p.tokens != nil {
			if err := p.tokens.Transfer(p.params.Token1, recipient, amount1); err != nil {
				return nil, nil, err
			}
		}
	}

	p.emit(events.CollectProtocol(p.params.Self, caller, recipient, amount0, amount1))
	return amount0, amount1, nil
}

// IncreaseObservationCardinalityNext requests growth of the oracle ring
// buffer's next-write capacity (spec §4.10's supplemented
// increaseObservationCardinalityNext). It calls oracle.Grow, which
// allocates the additional (uninitialized) slots up front; Write fills
// them in as the ring advances past the current cardinality.
func (p *Pool) IncreaseObservationCardinalityNext(caller common.Address, observationCardinalityNext uint16) error {
	if err := p.checkIdentity(caller); err != nil {
		return err
	}
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	if p.slot0.SqrtPriceX96 == nil {
		return ErrNotInitialized
	}

	old := p.slot0.ObservationCardinalityNext
	next := p.oracle.Grow(old, observationCardinalityNext)
	if next == old {
		return nil
	}
	p.slot0.ObservationCardinalityNext = next

	p.emit(events.IncreaseObservationCardinalityNext(p.params.Self, old, next))
	return nil
}

func subU128(a uint128.Uint128, amount *uint256.Int) uint128.Uint128 {
	diff := new(big.Int).Sub(a.Big(), amount.ToBig())
	return uint128.FromBig(diff)
}
