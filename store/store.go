// Package store persists pool snapshots through gorm, the way the
// teacher's CorePool.Flush persists simulator state, adapted to this
// engine's Slot0/liquidity/fee-growth fields. Rows are keyed by pool
// address; token0, token1 and fee are stored alongside but are not used
// to look a snapshot up.
package store

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/glebarez/sqlite"
	"github.com/holiman/uint256"
	"gorm.io/gorm"

	"github.com/clamm-labs/clamm-core/pool"
)

// Snapshot is the on-disk row for one pool's hot state. Tick and
// position maps are not persisted here; a pool is expected to be
// rebuilt from mint/burn history on restart, with Snapshot only
// checkpointing the state needed to resume oracle/price bookkeeping
// without replaying from genesis.
type Snapshot struct {
	gorm.Model
	PoolAddress                string `gorm:"uniqueIndex"`
	Token0                     string `gorm:"index"`
	Token1                     string `gorm:"index"`
	Fee                        uint32
	TickSpacing                int32
	SqrtPriceX96               string
	Tick                       int32
	ObservationIndex           uint16
	ObservationCardinality     uint16
	ObservationCardinalityNext uint16
	FeeProtocol                uint8
	Liquidity                  string
	FeeGrowthGlobal0X128       string
	FeeGrowthGlobal1X128       string
	ProtocolFees0              string
	ProtocolFees1              string
}

// Store wraps a gorm.DB opened against the pure-Go glebarez/sqlite
// driver, the same pairing the teacher uses for its simulator database.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if absent) a sqlite-backed store at dsn and
// migrates the Snapshot schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dsn, err)
	}
	if err := db.AutoMigrate(&Snapshot{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Save upserts p's current hot state, mirroring CorePool.Flush's
// has-it-been-created branch.
func (s *Store) Save(p *pool.Pool) error {
	params := p.Params()
	slot0 := p.Slot0()
	liquidity := p.Liquidity()
	fee0, fee1 := p.FeeGrowthGlobal()
	protocolFees0, protocolFees1 := p.ProtocolFees()

	row := Snapshot{
		PoolAddress:                params.Self.Hex(),
		Token0:                     params.Token0.Hex(),
		Token1:                     params.Token1.Hex(),
		Fee:                        params.Fee,
		TickSpacing:                params.TickSpacing,
		SqrtPriceX96:               u256String(slot0.SqrtPriceX96),
		Tick:                       slot0.Tick,
		ObservationIndex:           slot0.ObservationIndex,
		ObservationCardinality:     slot0.ObservationCardinality,
		ObservationCardinalityNext: slot0.ObservationCardinalityNext,
		FeeProtocol:                slot0.FeeProtocol,
		Liquidity:                  liquidity.String(),
		FeeGrowthGlobal0X128:       u256String(fee0),
		FeeGrowthGlobal1X128:       u256String(fee1),
		ProtocolFees0:              protocolFees0.String(),
		ProtocolFees1:              protocolFees1.String(),
	}

	var existing Snapshot
	err := s.db.Where("pool_address = ?", row.PoolAddress).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return s.db.Create(&row).Error
	}
	if err != nil {
		return fmt.Errorf("store: lookup %s: %w", row.PoolAddress, err)
	}

	row.Model = existing.Model
	return s.db.Save(&row).Error
}

// Load fetches the stored snapshot for a pool address, if any.
func (s *Store) Load(self common.Address) (*Snapshot, bool, error) {
	var row Snapshot
	err := s.db.Where("pool_address = ?", self.Hex()).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: load %s: %w", self.Hex(), err)
	}
	return &row, true, nil
}

func u256String(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}
