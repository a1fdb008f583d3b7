// Package pool implements the top-level CL-AMM state machine (spec
// §4.6–§4.9): initialize, mint, burn, collect, swap, flash,
// collectProtocol, setFeeProtocol. It owns Slot0 and drives every other
// package in the module — tick, position, oracle, sqrtpricemath,
// swapmath, tickmath, fixedpoint — the way the teacher's CorePool drives
// its TickManager/PositionManager/utils stack.
package pool

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
	"lukechampine.com/uint128"

	"github.com/clamm-labs/clamm-core/events"
	"github.com/clamm-labs/clamm-core/oracle"
	"github.com/clamm-labs/clamm-core/position"
	"github.com/clamm-labs/clamm-core/tick"
	"github.com/clamm-labs/clamm-core/tickmath"
)

// Pool is one concentrated-liquidity pool instance. The zero value is
// not usable; construct with New.
type Pool struct {
	params Params
	owner  common.Address

	guard sync.Mutex

	slot0 Slot0

	liquidity            uint128.Uint128
	feeGrowthGlobal0X128 *uint256.Int
	feeGrowthGlobal1X128 *uint256.Int
	protocolFees0        uint128.Uint128
	protocolFees1        uint128.Uint128

	ticks     *tick.Table
	bitmap    *tick.Bitmap
	positions *position.Table
	oracle    *oracle.Ring

	tokens TokenClient
	sink   events.Sink

	log *logrus.Entry
}

// New constructs an uninitialized pool. tokens and sink may be nil for
// pure in-memory simulation (no transfer verification / no log capture).
func New(params Params, owner common.Address, tokens TokenClient, sink events.Sink) *Pool {
	return &Pool{
		params:               params,
		owner:                owner,
		slot0:                Slot0{Unlocked: true},
		feeGrowthGlobal0X128: new(uint256.Int),
		feeGrowthGlobal1X128: new(uint256.Int),
		ticks:                tick.NewTable(),
		bitmap:               tick.NewBitmap(),
		positions:            position.NewTable(),
		oracle:               oracle.NewRing(),
		tokens:               tokens,
		sink:                 sink,
		log: logrus.WithFields(logrus.Fields{
			"pool":  params.Self.Hex(),
			"fee":   params.Fee,
			"token0": params.Token0.Hex(),
			"token1": params.Token1.Hex(),
		}),
	}
}

// Params returns the pool's immutable construction parameters.
func (p *Pool) Params() Params { return p.params }

// checkIdentity enforces spec §5/§9's impersonation guard: every public
// mutator other than SetFeeProtocol and CollectProtocol (which check the
// owner instead) requires the caller to assert the pool's own identity, the
// closest idiomatic Go analogue of Solidity's address(this) check
// (NoDelegateCall) in a language without delegatecall.
func (p *Pool) checkIdentity(caller common.Address) error {
	if caller != p.params.Self {
		return ErrImpersonated
	}
	return nil
}

// lock acquires the reentry guard, failing with ErrLocked if it is
// already held — the Go analogue of Slot0.unlocked.
func (p *Pool) lock() error {
	if !p.guard.TryLock() {
		return ErrLocked
	}
	return nil
}

func (p *Pool) unlock() {
	p.guard.Unlock()
}

// Initialize sets the pool's starting price and derived tick, seeding
// the oracle at cardinality 1. Forbidden once already initialized
// (spec §4.6, "AI").
func (p *Pool) Initialize(caller common.Address, sqrtPriceX96 *uint256.Int, now uint32) error {
	if err := p.checkIdentity(caller); err != nil {
		return err
	}
	if p.slot0.SqrtPriceX96 != nil {
		return ErrAlreadyInitialized
	}

	tickAt, err := tickmath.GetTickAtSqrtRatio(sqrtPriceX96)
	if err != nil {
		return err
	}

	cardinality, cardinalityNext := p.oracle.Initialize(now)

	p.slot0 = Slot0{
		SqrtPriceX96:               new(uint256.Int).Set(sqrtPriceX96),
		Tick:                       tickAt,
		ObservationIndex:           0,
		ObservationCardinality:     cardinality,
		ObservationCardinalityNext: cardinalityNext,
		FeeProtocol:                0,
		Unlocked:                   true,
	}

	p.log.WithFields(logrus.Fields{"sqrtPriceX96": sqrtPriceX96.String(), "tick": tickAt}).Info("pool initialized")
	p.emit(events.Initialize(p.params.Self, sqrtPriceX96, tickAt))
	return nil
}

// emit hands a finished log to the configured sink, if any. The pool
// itself never depends on a chain or a logging backend; Sink is the
// out-of-scope "outer event-logging facility" collaborator (spec §1).
func (p *Pool) emit(log *types.Log) {
	if p.sink != nil {
		p.sink.Emit(log)
	}
}
