// Package testkit provides deterministic panel fixtures shared across the
// estimator's tests. All values are fixed by hand; nothing here is random.
package testkit

import (
	"synthcap/domain/core"
	"synthcap/domain/panel"
)

// SeriesSpec maps units to their values starting at a given first period,
// one value per consecutive period.
type SeriesSpec map[core.UnitKey][]float64

// Records expands per-unit series into flat performance records.
func Records(first core.Period, spec SeriesSpec) []panel.Record {
	var out []panel.Record
	for unit, values := range spec {
		for i, v := range values {
			out = append(out, panel.Record{
				Unit:   unit,
				Period: first + core.Period(i),
				Value:  v,
			})
		}
	}
	return out
}

// CostCapScenario is the benchmark study fixture: a treated midfield team
// whose points surge after the 2022 season against three donors with flat
// or declining trajectories. Pre window 2017-2020, post window 2022-2024,
// the 2021 transition season deliberately absent from both.
type CostCapScenario struct {
	Treated    core.UnitKey
	Candidates []core.UnitKey
	Treatment  core.Period
	Pre        panel.Window
	Post       panel.Window
	Records    []panel.Record
}

// NewCostCapScenario builds the benchmark fixture.
func NewCostCapScenario() CostCapScenario {
	pre := panel.Window{Start: 2017, End: 2020}
	post := panel.Window{Start: 2022, End: 2024}

	// Pre-period points 2017-2020, then post-period points 2022-2024.
	records := Records(pre.Start, SeriesSpec{
		"MCLAREN": {30, 62, 145, 202},
		"ALPINE":  {140, 130, 115, 100},
		"SAUBER":  {20, 30, 25, 30},
		"HAAS":    {40, 35, 30, 40},
	})
	records = append(records, Records(post.Start, SeriesSpec{
		"MCLAREN": {370, 380, 378},
		"ALPINE":  {110, 105, 98},
		"SAUBER":  {28, 22, 35},
		"HAAS":    {37, 44, 41},
	})...)

	return CostCapScenario{
		Treated:    "MCLAREN",
		Candidates: []core.UnitKey{"ALPINE", "SAUBER", "HAAS"},
		Treatment:  2022,
		Pre:        pre,
		Post:       post,
		Records:    records,
	}
}

// ExactComboScenario builds a panel where the treated pre-period series is
// exactly 0.5*A + 0.5*B, so a correct fitter recovers near-zero pre-period
// error and the known weights.
type ExactComboScenario struct {
	Treated core.UnitKey
	Donors  []core.UnitKey
	Pre     panel.Window
	Post    panel.Window
	Records []panel.Record
}

// NewExactComboScenario builds the exact convex-combination fixture.
func NewExactComboScenario() ExactComboScenario {
	pre := panel.Window{Start: 2017, End: 2020}
	post := panel.Window{Start: 2021, End: 2022}

	a := []float64{100, 120, 140, 160, 180, 200}
	b := []float64{40, 30, 20, 10, 5, 0}
	c := []float64{75, 80, 70, 90, 85, 95}
	treated := make([]float64, len(a))
	for i := range a {
		treated[i] = 0.5*a[i] + 0.5*b[i]
	}

	records := Records(pre.Start, SeriesSpec{
		"TREATED": treated,
		"A":       a,
		"B":       b,
		"C":       c,
	})

	return ExactComboScenario{
		Treated: "TREATED",
		Donors:  []core.UnitKey{"A", "B", "C"},
		Pre:     pre,
		Post:    post,
		Records: records,
	}
}
