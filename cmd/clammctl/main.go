// Command clammctl is a scripted demo CLI: it loads a pool deployment
// from YAML, constructs the pool, runs a mint-then-swap scenario
// against an in-memory token ledger, persists the resulting state, and
// prints a summary — the engine's analogue of the teacher's
// Simulator-driven program, minus the teacher's decimal.Decimal
// bookkeeping.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
	"lukechampine.com/uint128"

	"github.com/clamm-labs/clamm-core/config"
	"github.com/clamm-labs/clamm-core/fixedpoint"
	"github.com/clamm-labs/clamm-core/pool"
	"github.com/clamm-labs/clamm-core/signedint"
	"github.com/clamm-labs/clamm-core/store"
)

func main() {
	configPath := flag.String("config", "clammctl.yaml", "pool deployment config path")
	poolName := flag.String("pool", "demo", "pool name within the config file")
	dbPath := flag.String("db", "clammctl.db", "sqlite snapshot database path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	params, owner, err := cfg.Params(*poolName)
	if err != nil {
		log.Fatalf("resolve pool params: %v", err)
	}

	trader := common.HexToAddress("0x000000000000000000000000000000000000aa")
	tokens := newLedger()
	tokens.credit(params.Token0, trader, uint256.NewInt(1_000_000_000_000))
	tokens.credit(params.Token1, trader, uint256.NewInt(1_000_000_000_000))

	sink := stdoutSink{}
	p := pool.New(params, owner, tokens, sink)

	now := uint32(1_700_000_000)
	if err := p.Initialize(params.Self, fixedpoint.Q96, now); err != nil {
		log.Fatalf("initialize: %v", err)
	}

	cb := &payer{tokens: tokens, payer: trader, params: params}

	if _, _, err := p.Mint(params.Self, trader, -600, 600, uint128.From64(1_000_000), nil, cb, now); err != nil {
		log.Fatalf("mint: %v", err)
	}

	now++
	priceLimit := new(uint256.Int).Div(fixedpoint.Q96, uint256.NewInt(2))
	amount0, amount1, err := p.Swap(params.Self, trader, true, signedint.FromInt64(1_000), priceLimit, nil, cb, now)
	if err != nil {
		log.Fatalf("swap: %v", err)
	}
	fmt.Printf("swap result: amount0=%s amount1=%s\n", amount0, amount1)

	s, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	if err := s.Save(p); err != nil {
		log.Fatalf("save snapshot: %v", err)
	}

	slot0 := p.Slot0()
	fmt.Printf("pool %s: tick=%d sqrtPriceX96=%s liquidity=%s\n",
		params.Self.Hex(), slot0.Tick, slot0.SqrtPriceX96.String(), p.Liquidity().String())
}

// ledger is a minimal in-memory TokenClient, standing in for real
// on-chain token transfers in this scripted demo.
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
		accounts[who] = bal
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

// payer implements MintCallback/SwapCallback/FlashCallback by debiting
// the scripted trader's ledger balance, the demo's stand-in for a real
// caller contract settling the pool's pull request.
type payer struct {
	tokens *ledger
	payer  common.Address
	params pool.Params
}

func (p *payer) OnMint(amount0, amount1 *uint256.Int, data []byte) error {
	p.tokens.debit(p.params.Token0, p.payer, amount0)
	p.tokens.debit(p.params.Token1, p.payer, amount1)
	p.tokens.credit(p.params.Token0, p.params.Self, amount0)
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

// stdoutSink logs every emitted event via logrus, the way the teacher
// surfaces simulator activity.
type stdoutSink struct{}

func (stdoutSink) Emit(l *types.Log) {
	logrus.WithField("topic0", l.Topics[0].Hex()).Info("pool event")
}
