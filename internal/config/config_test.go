package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "identity", cfg.Method)
	assert.Equal(t, 1, cfg.Pieces)
	assert.Equal(t, 1, cfg.Bags)
	assert.Equal(t, 1.0, cfg.Reg)
	assert.Equal(t, 1000, cfg.SinkhornIterations)
	assert.Equal(t, []float64{0.1, 1, 10, 100, 1000}, cfg.RidgeAlphas)
	assert.Equal(t, 4, cfg.RidgeCVFolds)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.JSON)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("FUNCALIGN_METHOD", "scaled_orthogonal")
	t.Setenv("FUNCALIGN_PIECES", "6")
	t.Setenv("FUNCALIGN_SCALING", "true")
	t.Setenv("FUNCALIGN_LOG_LEVEL", "debug")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "scaled_orthogonal", cfg.Method)
	assert.Equal(t, 6, cfg.Pieces)
	assert.True(t, cfg.Scaling)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	body := `
method: optimal_transport
pieces: 3
reg: 0.25
bags: 2
seed: 42
log:
  level: warn
  json: true
`
	path := filepath.Join(t.TempDir(), "funcalign.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "optimal_transport", cfg.Method)
	assert.Equal(t, 3, cfg.Pieces)
	assert.Equal(t, 0.25, cfg.Reg)
	assert.Equal(t, 2, cfg.Bags)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	// Unset keys keep their defaults.
	assert.Equal(t, 4, cfg.RidgeCVFolds)
}

func TestLoadRejectsInvalid(t *testing.T) {
	write := func(body string) string {
		path := filepath.Join(t.TempDir(), "funcalign.yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		return path
	}

	_, err := Load(write("method: telepathy\n"))
	assert.Error(t, err)

	_, err = Load(write("pieces: 0\n"))
	assert.Error(t, err)

	_, err = Load(write("bags: -1\n"))
	assert.Error(t, err)

	_, err = Load(write("reg: 0\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestOptionsBridge(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	cfg.Method = "ridge"
	cfg.Pieces = 2
	cfg.Bags = 3
	cfg.Seed = 7

	opts := cfg.Options(nil, nil)
	assert.Equal(t, "ridge", opts.Method)
	assert.Equal(t, 2, opts.NPieces)
	assert.Equal(t, 3, opts.NBags)
	assert.Equal(t, uint64(7), opts.Seed)
	assert.Equal(t, cfg.RidgeAlphas, opts.RidgeAlphas)
}
