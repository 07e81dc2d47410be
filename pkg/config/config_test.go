package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newFlags(t, "--world", "/srv/world"))
	require.NoError(t, err)

	assert.Equal(t, "/srv/world", cfg.World.Path)
	assert.Equal(t, ".mlg-backup", cfg.World.BackupSuffix)
	assert.Equal(t, "mca", cfg.World.RegionExtension)
	assert.Equal(t, "resume", cfg.World.StaleBackup)
	assert.True(t, cfg.World.VerifyCopies)
	assert.Equal(t, 25, cfg.Grid.Increment)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Encoding)
	assert.False(t, cfg.Log.IsProduction())
}

func TestLoad_RequiresWorld(t *testing.T) {
	_, err := Load(newFlags(t))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("MLG_WORLD_PATH", "/from/env")
	t.Setenv("MLG_GRID_INCREMENT", "9")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.World.Path)
	assert.Equal(t, 9, cfg.Grid.Increment)

	// flags beat the environment
	cfg, err = Load(newFlags(t, "--world", "/from/flag"))
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.World.Path)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
world:
  path: /from/file
  stale_backup: fail
  verify_copies: false
grid:
  increment: 15
log:
  level: debug
  environment: production
  encoding: json
`), 0o644))

	cfg, err := Load(newFlags(t, "--config", path, "--increment", "7"))
	require.NoError(t, err)
	assert.Equal(t, "/from/file", cfg.World.Path)
	assert.Equal(t, "fail", cfg.World.StaleBackup)
	assert.False(t, cfg.World.VerifyCopies)
	assert.Equal(t, 7, cfg.Grid.Increment)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.IsProduction())
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(newFlags(t, "--world", "/w", "--config", filepath.Join(t.TempDir(), "none.yaml")))
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	tests := map[string][]string{
		"bad policy":    {"--world", "/w", "--stale-backup", "ignore"},
		"bad increment": {"--world", "/w", "--increment=-1"},
		"bad level":     {"--world", "/w", "--log-level", "loud"},
		"bad extension": {"--world", "/w", "--region-extension", "../mca"},
	}

	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(newFlags(t, args...))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestInitialize(t *testing.T) {
	cfg, log, err := Initialize(newFlags(t, "--world", "/w", "--log-level", "warn"))
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.Equal(t, "warn", cfg.Log.Level)
}
