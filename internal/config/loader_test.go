package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synthcap/domain/core"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "synthcap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := New()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "MCLAREN", cfg.Treated)
	assert.Equal(t, 2022, cfg.Treatment)
	assert.Equal(t, "main", cfg.Variants[0].Name)

	pre, err := cfg.PreWindow()
	require.NoError(t, err)
	assert.Equal(t, 5, pre.Len())
	post, err := cfg.PostWindow()
	require.NoError(t, err)
	assert.Equal(t, 3, post.Len())
}

func TestLoadWithoutFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, New().Treated, cfg.Treated)
	assert.Equal(t, New().Candidates, cfg.Candidates)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
treated: WILLIAMS
treatment: 2022
pre_start: 2015
pre_end: 2021
workers: 2
candidates:
  - ALPINE
  - HAAS
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "WILLIAMS", cfg.Treated)
	assert.Equal(t, 2015, cfg.PreStart)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, []string{"ALPINE", "HAAS"}, cfg.Candidates)

	// Untouched keys keep their defaults.
	assert.Equal(t, 2024, cfg.PostEnd)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "treated: WILLIAMS\n")
	t.Setenv("SYNTHCAP_TREATED", "HAAS")
	t.Setenv("SYNTHCAP_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "HAAS", cfg.Treated)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsInvalidWindows(t *testing.T) {
	path := writeConfigFile(t, "pre_end: 2023\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pre window must end before treatment")
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnvPath(t *testing.T) {
	path := writeConfigFile(t, "workers: 8\n")
	t.Setenv("SYNTHCAP_CONFIG", path)

	cfg, err := LoadFromEnvPath()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Workers)
}

func TestRuleSetsCarryDefunctTable(t *testing.T) {
	cfg := New()
	defunct := map[core.UnitKey]core.Period{"CATERHAM": 2014}

	rules := cfg.RuleSets(defunct)
	require.Len(t, rules, len(cfg.Variants))

	for _, rs := range rules {
		assert.Equal(t, defunct, rs.DefunctBefore)
	}
	assert.Equal(t, "main", rules[0].Name)
	assert.Contains(t, rules[0].Exclusions, core.UnitKey("RB"))
}
