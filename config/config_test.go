package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clamm-labs/clamm-core/config"
)

const sampleYAML = `
pools:
  demo:
    factory: "0x0000000000000000000000000000000000f001"
    self: "0x0000000000000000000000000000000000f002"
    token0: "0x0000000000000000000000000000000000a001"
    token1: "0x0000000000000000000000000000000000a002"
    owner: "0x0000000000000000000000000000000000f003"
    feePPM: 3000
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clammctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	return path
}

func TestLoadParsesPools(t *testing.T) {
	f, err := config.Load(writeSample(t))
	require.NoError(t, err)
	require.Len(t, f.Pools, 1)
	require.Equal(t, uint32(3000), f.Pools["demo"].FeePPM)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestTickSpacingForFeeFallsBackToDefaults(t *testing.T) {
	f, err := config.Load(writeSample(t))
	require.NoError(t, err)

	spacing, err := f.TickSpacingForFee(3000)
	require.NoError(t, err)
	require.Equal(t, int32(60), spacing)

	_, err = f.TickSpacingForFee(123)
	require.Error(t, err)
}

func TestParamsResolvesNamedPool(t *testing.T) {
	f, err := config.Load(writeSample(t))
	require.NoError(t, err)

	params, owner, err := f.Params("demo")
	require.NoError(t, err)
	require.Equal(t, uint32(3000), params.Fee)
	require.Equal(t, int32(60), params.TickSpacing)
	require.NotEqual(t, owner.Hex(), params.Self.Hex())
}

func TestParamsUnknownPoolErrors(t *testing.T) {
	f, err := config.Load(writeSample(t))
	require.NoError(t, err)

	_, _, err = f.Params("nonexistent")
	require.Error(t, err)
}
