package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(Params{})
	require.NoError(t, err)

	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, ".", cfg.Dir)
	assert.Equal(t, DefaultTickInterval, cfg.TickIntervalMS)
	assert.Equal(t, DefaultCacheDir, cfg.CacheDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10, cfg.ShutdownGracePeriod)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wasmrunner.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: :9090\ndir: /srv/functions\n"), 0o644))

	cfg, err := Load(Params{ConfigFile: path})
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "/srv/functions", cfg.Dir)
}

func TestLoadOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wasmrunner.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: :9090\n"), 0o644))

	cfg, err := Load(Params{
		ConfigFile:      path,
		ConfigOverrides: []string{"addr=:7070,log_level=debug"},
	})
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadOverrideFile(t *testing.T) {
	dir := t.TempDir()
	valuePath := filepath.Join(dir, "level.txt")
	require.NoError(t, os.WriteFile(valuePath, []byte("debug\n"), 0o644))

	cfg, err := Load(Params{
		ConfigOverrideFiles: []string{"log_level=" + valuePath},
	})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadFlagsWinOverEverything(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wasmrunner.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: :9090\n"), 0o644))

	cfg, err := Load(Params{
		ConfigFile:      path,
		ConfigOverrides: []string{"addr=:7070"},
		Addr:            ":6060",
	})
	require.NoError(t, err)

	assert.Equal(t, ":6060", cfg.Addr)
}

func TestLoadBadOverrideSyntax(t *testing.T) {
	_, err := Load(Params{ConfigOverrides: []string{"not-a-kv-pair"}})
	assert.Error(t, err)
}

func TestLoadMissingOverrideFile(t *testing.T) {
	_, err := Load(Params{ConfigOverrideFiles: []string{"log_level=/does/not/exist"}})
	assert.Error(t, err)
}
