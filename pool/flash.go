package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/clamm-labs/clamm-core/events"
	"github.com/clamm-labs/clamm-core/fixedpoint"
)

var feeDenominator = uint256.NewInt(1_000_000)

// flashFee returns ceil(amount*fee/1e6), the repayment surcharge for one
// side of a flash loan (spec §4.9).
func flashFee(amount *uint256.Int, fee uint32) (*uint256.Int, error) {
	if amount.IsZero() {
		return new(uint256.Int), nil
	}
	return fixedpoint.MulDivRoundingUp(amount, uint256.NewInt(uint64(fee)), feeDenominator)
}

// Flash lends amount0/amount1 out of the pool's reserves and requires
// repayment of principal plus a fee proportional to the pool's tier
// within the same call, via FlashCallback (spec §4.9). Requires active
// liquidity > 0, since the fee accrues to existing LPs.
func (p *Pool) Flash(caller, recipient common.Address, amount0, amount1 *uint256.Int, data []byte, cb FlashCallback) error {
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
	if p.liquidity.IsZero() {
		return ErrNoLiquidity
	}

	fee0, err := flashFee(amount0, p.params.Fee)
	if err != nil {
		return err
	}
	fee1, err := flashFee(amount1, p.params.Fee)
	if err != nil {
		return err
	}

	var balance0Before, balance1Before *uint256.Int
	if p.tokens != nil {
		if balance0Before, err = p.tokens.BalanceOf(p.params.Token0, p.params.Self); err != nil {
			return err
		}
		if balance1Before, err = p.tokens.BalanceOf(p.params.Token1, p.params.Self); err != nil {
			return err
		}
		if !amount0.IsZero() {
			if err := p.tokens.Transfer(p.params.Token0, recipient, amount0); err != nil {
				return err
			}
		}
		if !amount1.IsZero() {
			if err := p.tokens.Transfer(p.params.Token1, recipient, amount1); err != nil {
				return err
			}
		}
	}

	if cb != nil {
		if err := cb.OnFlash(fee0, fee1, data); err != nil {
			return err
		}
	}

	paid0 := new(uint256.Int)
	paid1 := new(uint256.Int)
	if p.tokens != nil {
		balance0After, err := p.tokens.BalanceOf(p.params.Token0, p.params.Self)
		if err != nil {
			return err
		}
		balance1After, err := p.tokens.BalanceOf(p.params.Token1, p.params.Self)
		if err != nil {
			return err
		}

		required0 := new(uint256.Int).Add(balance0Before, fee0)
		if balance0After.Cmp(required0) < 0 {
			return ErrFlashRepay0
		}
		required1 := new(uint256.Int).Add(balance1Before, fee1)
		if balance1After.Cmp(required1) < 0 {
			return ErrFlashRepay1
		}

		paid0 = new(uint256.Int).Sub(balance0After, balance0Before)
		paid1 = new(uint256.Int).Sub(balance1After, balance1Before)
	} else {
		paid0 = fee0
		paid1 = fee1
	}

	feeProtocol0, feeProtocol1 := unpackFeeProtocol(p.slot0.FeeProtocol)
	p.settleFlashFee(paid0, feeProtocol0, true)
	p.settleFlashFee(paid1, feeProtocol1, false)

	p.log.WithFields(map[string]interface{}{"amount0": amount0.String(), "amount1": amount1.String()}).Debug("flash")
	p.emit(events.Flash(p.params.Self, caller, recipient, amount0, amount1, paid0, paid1))
	return nil
}

// settleFlashFee skims the protocol's share of a side's paid amount (the
// same 1/n semantics as swap's protocol cut) and folds the LP
// remainder into feeGrowthGlobal for that side.
func (p *Pool) settleFlashFee(paid *uint256.Int, feeProtocol uint8, zero bool) {
	if paid.IsZero() {
		return
	}
	lpShare := new(uint256.Int).Set(paid)
	if feeProtocol > 0 {
		protoShare := new(uint256.Int).Div(paid, uint256.NewInt(uint64(feeProtocol)))
		lpShare = new(uint256.Int).Sub(paid, protoShare)
		if zero {
			p.protocolFees0 = addU128(p.protocolFees0, protoShare)
		} else {
			p.protocolFees1 = addU128(p.protocolFees1, protoShare)
		}
	}
	if lpShare.IsZero() {
		return
	}
	delta, err := fixedpoint.MulDiv(lpShare, fixedpoint.Q128, liquidityToU256(p.liquidity))
	if err != nil {
		return
	}
	if zero {
		p.feeGrowthGlobal0X128 = fixedpoint.WrappingAdd(p.feeGrowthGlobal0X128, delta)
	} else {
		p.feeGrowthGlobal1X128 = fixedpoint.WrappingAdd(p.feeGrowthGlobal1X128, delta)
	}
}
