package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicsim/internal/runner"
)

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Minute, cfg.RunTimeout)
	assert.Equal(t, runner.DefaultScenario(), cfg.Scenario)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clinicsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9090"
workers: 4
log_format: json
scenario_timeout: 90s
scenario:
  nurses: 12
  doctors: 6
  patients_per_hour: 25
  mean_time: 30
  samples: 500
  seed: 42
`), 0644))

	v, err := New(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 90*time.Second, cfg.ScenarioTimeout)
	assert.Equal(t, 12, cfg.Scenario.Nurses)
	assert.Equal(t, 6, cfg.Scenario.Doctors)
	assert.Equal(t, uint64(42), cfg.Scenario.Seed)
	// untouched keys keep their defaults
	assert.Equal(t, 0.2, cfg.Scenario.NurseOnlyShare)
	assert.Equal(t, 10.0, cfg.Scenario.Spread)
}

func TestEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CLINICSIM_WORKERS", "3")
	t.Setenv("CLINICSIM_SCENARIO_NURSES", "9")

	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 9, cfg.Scenario.Nurses)
}

func TestMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNegativeWorkers(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CLINICSIM_WORKERS", "-1")
	v, err := New("")
	require.NoError(t, err)
	_, err = Load(v)
	assert.Error(t, err)
}
