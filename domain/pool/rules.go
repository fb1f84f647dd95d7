// Package pool selects eligible donor units for synthetic control fits.
// Eligibility is driven by named, declarative rule sets rather than ad hoc
// flags, so a "main" pool and its robustness variants are peers that can be
// swept side by side.
package pool

import (
	"synthcap/domain/core"
)

// RuleSet captures the eligibility rules for one donor-pool configuration.
// The rules are deliberately declarative: which exclusions apply, and why,
// is analyst-supplied configuration (the "cap not binding" judgment lives
// here, not in code).
type RuleSet struct {
	// Name identifies the variant ("main", "robustness_no_williams", ...).
	Name string `json:"name"`

	// Exclusions maps unit keys to a human-readable reason. Structural
	// ties to the treated unit's organization (engine-customer B-teams)
	// and narrative exclusions both land here.
	Exclusions map[core.UnitKey]string `json:"exclusions,omitempty"`

	// MinHistory is the minimum number of pre-treatment periods a donor
	// must be observed for. Zero disables the check.
	MinHistory int `json:"min_history,omitempty"`

	// DefunctBefore maps unit keys to the period after which they no
	// longer compete. A donor defunct before the treatment period is
	// ineligible.
	DefunctBefore map[core.UnitKey]core.Period `json:"defunct_before,omitempty"`
}

// StructurallyEligible reports whether a unit passes the rules that do not
// depend on panel coverage: named exclusions and defunct-before-treatment.
// The orchestration layer uses it to keep structurally ineligible units out
// of the dense panel, where their missing periods would otherwise surface
// as panel errors instead of pool rejections.
func (r RuleSet) StructurallyEligible(unit core.UnitKey, treatment core.Period) bool {
	if _, excluded := r.Exclusions[unit]; excluded {
		return false
	}
	if exit, defunct := r.DefunctBefore[unit]; defunct && exit < treatment {
		return false
	}
	return true
}

// Rejection records why one candidate was excluded from a pool.
type Rejection struct {
	Unit   core.UnitKey `json:"unit"`
	Reason string       `json:"reason"`
}

// Pool is the ordered set of eligible donors produced by Select. Its
// composition is fixed for the duration of one fit.
type Pool struct {
	Variant   string         `json:"variant"`
	Treated   core.UnitKey   `json:"treated"`
	Donors    []core.UnitKey `json:"donors"`
	Rejected  []Rejection    `json:"rejected,omitempty"`
	PoolHash  core.Hash      `json:"pool_hash"`
	CreatedAt core.Timestamp `json:"created_at"`
}

// Size returns the number of eligible donors.
func (p *Pool) Size() int { return len(p.Donors) }

// Without returns a copy of the donor list excluding one unit. The placebo
// engine uses it to build each pseudo-treated unit's reduced pool.
func (p *Pool) Without(unit core.UnitKey) []core.UnitKey {
	out := make([]core.UnitKey, 0, len(p.Donors)-1)
	for _, d := range p.Donors {
		if d != unit {
			out = append(out, d)
		}
	}
	return out
}
