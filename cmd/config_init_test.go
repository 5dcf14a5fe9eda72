package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/barstream/catalog-dedupe/internal/config"
)

func chtemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestConfigInit_WritesDefaults(t *testing.T) {
	dir := chtemp(t)

	require.NoError(t, configInitCmd.RunE(configInitCmd, nil))

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.InDelta(t, 0.70, cfg.Scan.MinConfidence, 0.001)
	assert.Equal(t, 500, cfg.Scan.MaxProducts)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	dir := chtemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store:\n  driver: sqlite\n"), 0o644))

	err := configInitCmd.RunE(configInitCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	// --force overwrites.
	configInitForce = true
	t.Cleanup(func() { configInitForce = false })
	require.NoError(t, configInitCmd.RunE(configInitCmd, nil))

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "driver: postgres")
}
