// Package naming provides the canonical-name mapping adapter. Competitive
// organizations rebrand with sponsors and owners while keeping institutional
// continuity, so raw standings names must collapse onto stable unit keys
// before any panel is built. The mapping is an explicit versioned artifact
// injected at the ingestion boundary, never global state.
package naming

import (
	"sort"
	"strings"

	"synthcap/domain/core"
)

// Mapping is one immutable revision of the canonical-name table plus the
// institutional-continuity metadata donor eligibility rules consume.
type Mapping struct {
	version string
	entries map[string]string

	defunct map[core.UnitKey]core.Period
	shocks  map[core.UnitKey][]core.Period
}

// NewMapping builds a mapping revision from explicit tables. The version
// string is pinned into study results via the resolver port.
func NewMapping(version string, entries map[string]string, defunct map[core.UnitKey]core.Period, shocks map[core.UnitKey][]core.Period) *Mapping {
	m := &Mapping{
		version: version,
		entries: make(map[string]string, len(entries)),
		defunct: make(map[core.UnitKey]core.Period, len(defunct)),
		shocks:  make(map[core.UnitKey][]core.Period, len(shocks)),
	}
	for k, v := range entries {
		m.entries[k] = v
	}
	for k, v := range defunct {
		m.defunct[k] = v
	}
	for k, v := range shocks {
		m.shocks[k] = append([]core.Period(nil), v...)
	}
	return m
}

// Resolve maps a raw name to its canonical key. Unknown names fall back to
// the upper-cased raw name so ingestion never stalls; the false return lets
// callers collect the misses for review.
func (m *Mapping) Resolve(raw string) (string, bool) {
	if canonical, ok := m.entries[raw]; ok {
		return canonical, true
	}
	return strings.ToUpper(strings.TrimSpace(raw)), false
}

// Version identifies this mapping revision.
func (m *Mapping) Version() string { return m.version }

// Hash fingerprints the entry table, independent of insertion order.
func (m *Mapping) Hash() core.Hash {
	return core.ComputeMappingHash(m.entries)
}

// DefunctBefore returns the exit periods of units that stopped competing,
// in the shape pool rule sets consume.
func (m *Mapping) DefunctBefore() map[core.UnitKey]core.Period {
	out := make(map[core.UnitKey]core.Period, len(m.defunct))
	for k, v := range m.defunct {
		out[k] = v
	}
	return out
}

// ShockPeriods returns the periods in which a unit underwent an ownership
// or structural shock. Donor pools built over windows containing a shock
// should treat the unit as a borderline inclusion.
func (m *Mapping) ShockPeriods(unit core.UnitKey) []core.Period {
	return append([]core.Period(nil), m.shocks[unit]...)
}

// UnitsWithShocksIn lists units that had a shock inside the window, sorted
// for deterministic rule-set construction.
func (m *Mapping) UnitsWithShocksIn(start, end core.Period) []core.UnitKey {
	var out []core.UnitKey
	for unit, periods := range m.shocks {
		for _, p := range periods {
			if p >= start && p <= end {
				out = append(out, unit)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
