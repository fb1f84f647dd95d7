// Package config defines the study configuration the CLI loads: which unit
// is treated, the treatment period and estimation windows, the candidate
// donors, the named pool variants, and the sensitivity grid. Pool variants
// live in configuration because which exclusions apply (structural ties,
// the cap-not-binding judgment) is an analyst decision, not something the
// core infers.
package config

import (
	"fmt"

	"synthcap/domain/core"
	"synthcap/domain/panel"
	"synthcap/domain/pool"
)

// Config is the complete study configuration.
type Config struct {
	// StandingsFile points at the .xlsx or .csv standings input.
	StandingsFile string `koanf:"standings_file"`

	// Treated is the canonical key of the unit under study.
	Treated string `koanf:"treated"`

	// Treatment is the first treated period (season year).
	Treatment int `koanf:"treatment"`

	PreStart  int `koanf:"pre_start"`
	PreEnd    int `koanf:"pre_end"`
	PostStart int `koanf:"post_start"`
	PostEnd   int `koanf:"post_end"`

	// Candidates lists canonical donor-candidate keys.
	Candidates []string `koanf:"candidates"`

	// Variants are the named donor-pool configurations. The first is the
	// main pool; the rest are robustness variants.
	Variants []VariantConfig `koanf:"variants"`

	// PreLengths is the sensitivity grid over pre-window length.
	PreLengths []int `koanf:"pre_lengths"`

	// Workers bounds sensitivity-cell parallelism.
	Workers int `koanf:"workers"`

	// LogLevel controls CLI verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
}

// VariantConfig is one named donor-pool rule set.
type VariantConfig struct {
	Name       string            `koanf:"name"`
	Exclusions map[string]string `koanf:"exclusions"`
	MinHistory int               `koanf:"min_history"`
}

// New returns a Config with defaults for the bundled cost-cap study: the
// treated unit against the midfield donor pool, treatment at the 2022
// cap-plus-reset season.
func New() *Config {
	return &Config{
		Treated:   "MCLAREN",
		Treatment: 2022,
		PreStart:  2017,
		PreEnd:    2021,
		PostStart: 2022,
		PostEnd:   2024,
		Candidates: []string{
			"ALPINE", "SAUBER", "HAAS", "RB", "ASTON MARTIN", "WILLIAMS",
		},
		Variants: []VariantConfig{
			{
				Name: "main",
				Exclusions: map[string]string{
					"RB":           "structural tie to a treated-era top team",
					"ASTON MARTIN": "ownership shocks inside the pre window",
					"WILLIAMS":     "ownership shock inside the pre window",
				},
			},
			{
				Name: "robustness_wide",
				Exclusions: map[string]string{
					"RB": "structural tie to a treated-era top team",
				},
			},
		},
		PreLengths: []int{3, 4, 5},
		Workers:    4,
		LogLevel:   "info",
	}
}

// Validate checks internal consistency before any computation runs.
func (c *Config) Validate() error {
	if c.Treated == "" {
		return fmt.Errorf("config: treated unit must not be empty")
	}
	if len(c.Candidates) == 0 {
		return fmt.Errorf("config: at least one candidate donor is required")
	}
	if len(c.Variants) == 0 {
		return fmt.Errorf("config: at least one pool variant is required")
	}
	for i, v := range c.Variants {
		if v.Name == "" {
			return fmt.Errorf("config: variant %d has no name", i)
		}
	}
	if c.PreEnd < c.PreStart {
		return fmt.Errorf("config: pre window end %d before start %d", c.PreEnd, c.PreStart)
	}
	if c.PostEnd < c.PostStart {
		return fmt.Errorf("config: post window end %d before start %d", c.PostEnd, c.PostStart)
	}
	if c.PreEnd >= c.Treatment {
		return fmt.Errorf("config: pre window must end before treatment %d", c.Treatment)
	}
	if c.PostStart < c.Treatment {
		return fmt.Errorf("config: post window must not start before treatment %d", c.Treatment)
	}
	return nil
}

// PreWindow returns the configured pre-treatment window.
func (c *Config) PreWindow() (panel.Window, error) {
	return panel.NewWindow(core.Period(c.PreStart), core.Period(c.PreEnd))
}

// PostWindow returns the configured post-treatment window.
func (c *Config) PostWindow() (panel.Window, error) {
	return panel.NewWindow(core.Period(c.PostStart), core.Period(c.PostEnd))
}

// CandidateKeys returns the candidate list as unit keys.
func (c *Config) CandidateKeys() []core.UnitKey {
	out := make([]core.UnitKey, len(c.Candidates))
	for i, s := range c.Candidates {
		out[i] = core.UnitKey(s)
	}
	return out
}

// RuleSets materializes the configured variants as pool rule sets,
// attaching the defunct-unit table from the canonical mapping metadata.
func (c *Config) RuleSets(defunct map[core.UnitKey]core.Period) []pool.RuleSet {
	out := make([]pool.RuleSet, len(c.Variants))
	for i, v := range c.Variants {
		exclusions := make(map[core.UnitKey]string, len(v.Exclusions))
		for unit, reason := range v.Exclusions {
			exclusions[core.UnitKey(unit)] = reason
		}
		out[i] = pool.RuleSet{
			Name:          v.Name,
			Exclusions:    exclusions,
			MinHistory:    v.MinHistory,
			DefunctBefore: defunct,
		}
	}
	return out
}
