package pool_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/clamm-labs/clamm-core/fixedpoint"
	"github.com/clamm-labs/clamm-core/pool"
	"github.com/clamm-labs/clamm-core/signedint"
)

// ledger is a minimal in-memory pool.TokenClient used across the pool
// test suite in place of a real on-chain token.
type ledger struct {
	balances map[common.Address]map[common.Address]*uint256.Int
}

func newLedger() *ledger {
	return &ledger{balances: make(map[common.Address]map[common.Address]*uint256.Int)}
}

func (l *ledger) credit(token, who common.Address, amount *uint256.Int) {
	accounts, ok := l.balances[token]
	if !ok {
		accounts = make(map[common.Address]*uint256.Int)
		l.balances[token] = accounts
	}
	bal, ok := accounts[who]
	if !ok {
		bal = new(uint256.Int)
	}
	accounts[who] = new(uint256.Int).Add(bal, amount)
}

func (l *ledger) debit(token, who common.Address, amount *uint256.Int) {
	bal, _ := l.BalanceOf(token, who)
	accounts, ok := l.balances[token]
	if !ok {
		accounts = make(map[common.Address]*uint256.Int)
		l.balances[token] = accounts
	}
	accounts[who] = new(uint256.Int).Sub(bal, amount)
}

func (l *ledger) BalanceOf(token, who common.Address) (*uint256.Int, error) {
	accounts, ok := l.balances[token]
	if !ok {
		return new(uint256.Int), nil
	}
	bal, ok := accounts[who]
	if !ok {
		return new(uint256.Int), nil
	}
	return new(uint256.Int).Set(bal), nil
}

func (l *ledger) Transfer(token, to common.Address, amount *uint256.Int) error {
	l.credit(token, to, amount)
	return nil
}

// payer implements MintCallback/SwapCallback/FlashCallback by settling
// against a trader's ledger balance.
type payer struct {
	tokens *ledger
	payer  common.Address
	params pool.Params
}

func (p *payer) OnMint(amount0, amount1 *uint256.Int, data []byte) error {
	p.tokens.debit(p.params.Token0, p.payer, amount0)
	p.tokens.credit(p.params.Token0, p.params.Self, amount0)
	p.tokens.debit(p.params.Token1, p.payer, amount1)
	p.tokens.credit(p.params.Token1, p.params.Self, amount1)
	return nil
}

func (p *payer) OnSwap(amount0, amount1 *uint256.Int, amount0Negative, amount1Negative bool, data []byte) error {
	if !amount0Negative {
		p.tokens.debit(p.params.Token0, p.payer, amount0)
		p.tokens.credit(p.params.Token0, p.params.Self, amount0)
	}
	if !amount1Negative {
		p.tokens.debit(p.params.Token1, p.payer, amount1)
		p.tokens.credit(p.params.Token1, p.params.Self, amount1)
	}
	return nil
}

func (p *payer) OnFlash(fee0, fee1 *uint256.Int, data []byte) error {
	p.tokens.debit(p.params.Token0, p.payer, fee0)
	p.tokens.credit(p.params.Token0, p.params.Self, fee0)
	p.tokens.debit(p.params.Token1, p.payer, fee1)
	p.tokens.credit(p.params.Token1, p.params.Self, fee1)
	return nil
}

func addresses() (factory, self, token0, token1, owner, trader common.Address) {
	factory = common.HexToAddress("0x00000000000000000000000000000000000f01")
	self = common.HexToAddress("0x00000000000000000000000000000000000f02")
	token0 = common.HexToAddress("0x00000000000000000000000000000000000a01")
	token1 = common.HexToAddress("0x00000000000000000000000000000000000a02")
	owner = common.HexToAddress("0x00000000000000000000000000000000000f03")
	trader = common.HexToAddress("0x00000000000000000000000000000000000aaa")
	return
}

func newTestPool(t *testing.T) (*pool.Pool, pool.Params, *ledger, common.Address, common.Address) {
	t.Helper()
	factory, self, token0, token1, owner, trader := addresses()

	params, err := pool.NewParams(factory, self, token0, token1, 3000, 60)
	require.NoError(t, err)

	tokens := newLedger()
	tokens.credit(token0, trader, uint256.NewInt(1_000_000_000_000))
	tokens.credit(token1, trader, uint256.NewInt(1_000_000_000_000))

	p := pool.New(params, owner, tokens, nil)
	require.NoError(t, p.Initialize(self, fixedpoint.Q96, 1_000))

	return p, params, tokens, owner, trader
}

func TestInitializeSeedsTickZero(t *testing.T) {
	p, _, _, _, _ := newTestPool(t)
	slot0 := p.Slot0()
	require.Equal(t, int32(0), slot0.Tick)
	require.True(t, slot0.SqrtPriceX96.Eq(fixedpoint.Q96))
}

func TestInitializeTwiceFails(t *testing.T) {
	p, _, _, _, trader := newTestPool(t)
	_ = trader
	self := p.Params().Self
	err := p.Initialize(self, fixedpoint.Q96, 2_000)
	require.ErrorIs(t, err, pool.ErrAlreadyInitialized)
}

func TestIdentityGuardRejectsForeignCaller(t *testing.T) {
	p, params, _, _, trader := newTestPool(t)
	_, _, err := p.Mint(trader, trader, -600, 600, uint128.From64(1000), nil, nil, 1_001)
	require.ErrorIs(t, err, pool.ErrImpersonated)
	_ = params
}

func TestMintAddsLiquidityAndPullsBothTokens(t *testing.T) {
	p, params, tokens, _, trader := newTestPool(t)
	cb := &payer{tokens: tokens, payer: trader, params: params}

	amount0, amount1, err := p.Mint(params.Self, trader, -600, 600, uint128.From64(1_000_000), nil, cb, 1_001)
	require.NoError(t, err)
	require.False(t, amount0.IsZero())
	require.False(t, amount1.IsZero())
	require.Equal(t, uint64(1_000_000), p.Liquidity().Lo)
}

func TestMintZeroAmountFails(t *testing.T) {
	p, params, _, _, trader := newTestPool(t)
	_, _, err := p.Mint(params.Self, trader, -600, 600, uint128.From64(0), nil, nil, 1_001)
	require.ErrorIs(t, err, pool.ErrZeroAmount)
}

func TestMintRejectsInvertedTicks(t *testing.T) {
	p, params, tokens, _, trader := newTestPool(t)
	cb := &payer{tokens: tokens, payer: trader, params: params}
	_, _, err := p.Mint(params.Self, trader, 600, -600, uint128.From64(1000), nil, cb, 1_001)
	require.ErrorIs(t, err, pool.ErrTickLowerUpper)
}

func TestSwapZeroForOneMovesPriceDown(t *testing.T) {
	p, params, tokens, _, trader := newTestPool(t)
	cb := &payer{tokens: tokens, payer: trader, params: params}

	_, _, err := p.Mint(params.Self, trader, -600, 600, uint128.From64(1_000_000), nil, cb, 1_001)
	require.NoError(t, err)

	priceLimit := new(uint256.Int).Div(fixedpoint.Q96, uint256.NewInt(2))
	amount0, amount1, err := p.Swap(params.Self, trader, true, signedint.FromInt64(1_000), priceLimit, nil, cb, 1_002)
	require.NoError(t, err)
	require.False(t, amount0.IsZero())
	require.False(t, amount1.IsZero())

	slot0 := p.Slot0()
	require.True(t, slot0.SqrtPriceX96.Cmp(fixedpoint.Q96) <= 0)
}

func TestSwapOneForZeroMovesPriceUp(t *testing.T) {
	p, params, tokens, _, trader := newTestPool(t)
	cb := &payer{tokens: tokens, payer: trader, params: params}

	_, _, err := p.Mint(params.Self, trader, -600, 600, uint128.From64(1_000_000), nil, cb, 1_001)
	require.NoError(t, err)

	priceLimit := new(uint256.Int).Mul(fixedpoint.Q96, uint256.NewInt(2))
	_, _, err = p.Swap(params.Self, trader, false, signedint.FromInt64(1_000), priceLimit, nil, cb, 1_002)
	require.NoError(t, err)

	slot0 := p.Slot0()
	require.True(t, slot0.SqrtPriceX96.Cmp(fixedpoint.Q96) >= 0)
}

func TestSwapRejectsPriceLimitOnWrongSide(t *testing.T) {
	p, params, tokens, _, trader := newTestPool(t)
	cb := &payer{tokens: tokens, payer: trader, params: params}
	_, _, err := p.Mint(params.Self, trader, -600, 600, uint128.From64(1_000_000), nil, cb, 1_001)
	require.NoError(t, err)

	badLimit := new(uint256.Int).Mul(fixedpoint.Q96, uint256.NewInt(2))
	_, _, err = p.Swap(params.Self, trader, true, signedint.FromInt64(1_000), badLimit, nil, cb, 1_002)
	require.ErrorIs(t, err, pool.ErrPriceLimit)
}

func TestBurnAndCollectReturnsTokens(t *testing.T) {
	p, params, tokens, _, trader := newTestPool(t)
	cb := &payer{tokens: tokens, payer: trader, params: params}

	mint0, mint1, err := p.Mint(params.Self, trader, -600, 600, uint128.From64(1_000_000), nil, cb, 1_001)
	require.NoError(t, err)

	burn0, burn1, err := p.Burn(params.Self, -600, 600, uint128.From64(1_000_000), 1_002)
	require.NoError(t, err)
	require.True(t, burn0.Cmp(mint0) <= 0)
	require.True(t, burn1.Cmp(mint1) <= 0)

	require.Equal(t, uint64(0), p.Liquidity().Lo)

	collected0, collected1, err := p.Collect(params.Self, trader, -600, 600, burn0, burn1)
	require.NoError(t, err)
	require.True(t, collected0.Eq(burn0))
	require.True(t, collected1.Eq(burn1))
}

func TestSetFeeProtocolValidatesShareWindow(t *testing.T) {
	p, params, _, owner, _ := newTestPool(t)
	_ = params

	require.ErrorIs(t, p.SetFeeProtocol(owner, 1, 0), pool.ErrInvalidFeeProtocol)
	require.NoError(t, p.SetFeeProtocol(owner, 4, 5))
	require.Equal(t, uint8(4|(5<<4)), p.Slot0().FeeProtocol)
}

func TestSetFeeProtocolRejectsNonOwner(t *testing.T) {
	p, _, _, _, trader := newTestPool(t)
	err := p.SetFeeProtocol(trader, 4, 4)
	require.ErrorIs(t, err, pool.ErrNotOwner)
}

func TestSwapAccruesProtocolFeeForCollection(t *testing.T) {
	p, params, tokens, owner, trader := newTestPool(t)
	cb := &payer{tokens: tokens, payer: trader, params: params}

	require.NoError(t, p.SetFeeProtocol(owner, 4, 4))
	_, _, err := p.Mint(params.Self, trader, -600, 600, uint128.From64(1_000_000_000), nil, cb, 1_001)
	require.NoError(t, err)

	priceLimit := new(uint256.Int).Div(fixedpoint.Q96, uint256.NewInt(2))
	_, _, err = p.Swap(params.Self, trader, true, signedint.FromInt64(100_000), priceLimit, nil, cb, 1_002)
	require.NoError(t, err)

	fees0, _ := p.ProtocolFees()
	require.Greater(t, fees0.Lo, uint64(0))

	got0, _, err := p.CollectProtocol(owner, owner, new(uint256.Int).SetUint64(fees0.Lo), new(uint256.Int))
	require.NoError(t, err)
	require.True(t, got0.Cmp(new(uint256.Int).SetUint64(fees0.Lo)) < 0, "one wei must be left behind on a full withdrawal")
}

func TestFlashChargesFeeAndRepays(t *testing.T) {
	p, params, tokens, _, trader := newTestPool(t)
	cb := &payer{tokens: tokens, payer: trader, params: params}

	_, _, err := p.Mint(params.Self, trader, -600, 600, uint128.From64(1_000_000), nil, cb, 1_001)
	require.NoError(t, err)

	fee0Before, fee1Before := p.FeeGrowthGlobal()

	err = p.Flash(params.Self, trader, uint256.NewInt(1000), uint256.NewInt(1000), nil, cb)
	require.NoError(t, err)

	fee0After, fee1After := p.FeeGrowthGlobal()
	require.True(t, fee0After.Cmp(fee0Before) > 0)
	require.True(t, fee1After.Cmp(fee1Before) > 0)
}

func TestFlashRejectsWithoutLiquidity(t *testing.T) {
	p, params, tokens, _, trader := newTestPool(t)
	cb := &payer{tokens: tokens, payer: trader, params: params}
	err := p.Flash(params.Self, trader, uint256.NewInt(1000), new(uint256.Int), nil, cb)
	require.ErrorIs(t, err, pool.ErrNoLiquidity)
}

func TestObserveReturnsCurrentCumulativesAtZeroLookback(t *testing.T) {
	p, _, _, _, _ := newTestPool(t)
	tcs, spls, err := p.Observe(1_000, []uint32{0})
	require.NoError(t, err)
	require.Len(t, tcs, 1)
	require.Len(t, spls, 1)
}

func TestSnapshotCumulativesInsideRequiresInitializedTicks(t *testing.T) {
	p, _, _, _, _ := newTestPool(t)
	_, _, _, err := p.SnapshotCumulativesInside(1_000, -600, 600)
	require.ErrorIs(t, err, pool.ErrTickNotInitialized)
}

func TestSnapshotCumulativesInsideAfterMint(t *testing.T) {
	p, params, tokens, _, trader := newTestPool(t)
	cb := &payer{tokens: tokens, payer: trader, params: params}
	_, _, err := p.Mint(params.Self, trader, -600, 600, uint128.From64(1_000_000), nil, cb, 1_001)
	require.NoError(t, err)

	_, _, secondsInside, err := p.SnapshotCumulativesInside(1_010, -600, 600)
	require.NoError(t, err)
	require.Equal(t, uint32(9), secondsInside)
}
