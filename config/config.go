// Package config loads pool deployment parameters from YAML, standing
// in for the out-of-scope factory/deployer that would otherwise
// construct pool.Params.
package config

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/clamm-labs/clamm-core/pool"
)

// PoolConfig is the on-disk shape of one pool's deployment parameters.
type PoolConfig struct {
	Factory string `yaml:"factory"`
	Self    string `yaml:"self"`
	Token0  string `yaml:"token0"`
	Token1  string `yaml:"token1"`
	Owner   string `yaml:"owner"`
	FeePPM  uint32 `yaml:"feePPM"`
}

// File is the top-level YAML document: a set of named pools plus the
// fee-tier table override (optional; defaults to pool.DefaultFeeTiers
// when omitted).
type File struct {
	Pools    map[string]PoolConfig `yaml:"pools"`
	FeeTiers []pool.FeeTier        `yaml:"feeTiers,omitempty"`
}

// Load reads and parses a pool deployment file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &f, nil
}

// TickSpacingForFee looks up the tick spacing for a fee tier, falling
// back to pool.DefaultFeeTiers when the file didn't override it.
func (f *File) TickSpacingForFee(feePPM uint32) (int32, error) {
	tiers := f.FeeTiers
	if len(tiers) == 0 {
		tiers = pool.DefaultFeeTiers
	}
	for _, t := range tiers {
		if t.Fee == feePPM {
			return t.TickSpacing, nil
		}
	}
	return 0, fmt.Errorf("config: no tick spacing registered for fee %d", feePPM)
}

// Params resolves a named pool entry into pool.Params, ready for
// pool.New.
func (f *File) Params(name string) (pool.Params, common.Address, error) {
	pc, ok := f.Pools[name]
	if !ok {
		return pool.Params{}, common.Address{}, fmt.Errorf("config: no pool named %q", name)
	}

	tickSpacing, err := f.TickSpacingForFee(pc.FeePPM)
	if err != nil {
		return pool.Params{}, common.Address{}, err
	}

	params, err := pool.NewParams(
		common.HexToAddress(pc.Factory),
		common.HexToAddress(pc.Self),
		common.HexToAddress(pc.Token0),
		common.HexToAddress(pc.Token1),
		pc.FeePPM,
		tickSpacing,
	)
	if err != nil {
		return pool.Params{}, common.Address{}, fmt.Errorf("config: pool %q: %w", name, err)
	}

	return params, common.HexToAddress(pc.Owner), nil
}
