package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Sim.TPS)
	assert.Equal(t, "swordsman.yaml", cfg.Sim.Fighter)
	assert.Equal(t, 0.25, cfg.Brain.SafetySlack)
	assert.Equal(t, 32, cfg.Brain.MaxConditionDepth)
	assert.False(t, cfg.Brain.OverrideIntervals)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 100*time.Millisecond, cfg.Prefabs.Debounce)
	assert.True(t, cfg.Prefabs.HotReload)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brawler.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sim:
  tps: 30
  opponent: ""
brain:
  override_intervals: true
  transition_interval: 0.1
  corpse_delay: 5
log:
  level: debug
`), 0o644))
	t.Setenv("BRAWLER_LOG_LEVEL", "warn")
	t.Setenv("BRAWLER_PREFABS_HOT_RELOAD", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Sim.TPS)
	assert.Equal(t, "", cfg.Sim.Opponent)
	assert.True(t, cfg.Brain.OverrideIntervals)
	assert.Equal(t, 0.1, cfg.Brain.TransitionInterval)
	assert.Equal(t, 5.0, cfg.Brain.CorpseDelay)
	assert.Equal(t, "warn", cfg.Log.Level, "environment wins over the file")
	assert.False(t, cfg.Prefabs.HotReload)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
