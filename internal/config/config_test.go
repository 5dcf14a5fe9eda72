package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, int32(10), cfg.Store.Pool.MaxConns)
	assert.Equal(t, int32(2), cfg.Store.Pool.MinConns)
	assert.InDelta(t, 0.4, cfg.Match.BrandWeight, 0.001)
	assert.InDelta(t, 0.3, cfg.Match.VolumeWeight, 0.001)
	assert.InDelta(t, 0.3, cfg.Match.TokenWeight, 0.001)
	assert.InDelta(t, 0.8, cfg.Match.BrandReasonThreshold, 0.001)
	assert.InDelta(t, 0.5, cfg.Match.OverlapReasonThreshold, 0.001)
	assert.InDelta(t, 0.70, cfg.Scan.MinConfidence, 0.001)
	assert.Equal(t, 500, cfg.Scan.MaxProducts)
	assert.Zero(t, cfg.Scan.PairsPerSecond)
	assert.Equal(t, 3, cfg.Merge.MaxAttempts)
	assert.Equal(t, 500, cfg.Merge.InitialBackoffMs)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
  database_url: dedupe.db
scan:
  min_confidence: 0.85
  max_products: 100
match:
  brand_weight: 0.5
  volume_weight: 0.25
  token_weight: 0.25
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "dedupe.db", cfg.Store.DatabaseURL)
	assert.InDelta(t, 0.85, cfg.Scan.MinConfidence, 0.001)
	assert.Equal(t, 100, cfg.Scan.MaxProducts)
	assert.InDelta(t, 0.5, cfg.Match.BrandWeight, 0.001)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)

	// Unset sections keep their defaults.
	assert.Equal(t, 3, cfg.Merge.MaxAttempts)
}

func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("DEDUPE_STORE_DRIVER", "sqlite")
	t.Setenv("DEDUPE_SERVER_PORT", "3000")
	t.Setenv("DEDUPE_SCAN_MAX_PRODUCTS", "250")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 250, cfg.Scan.MaxProducts)
}

func TestInitLogger(t *testing.T) {
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "nonsense", Format: "json"})
	require.Error(t, err)
}
