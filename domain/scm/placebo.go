package scm

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"synthcap/domain/core"
	"synthcap/domain/panel"
	"synthcap/domain/pool"
)

// PlaceboRun is one donor refit as the pseudo-treated unit against the
// remaining donors.
type PlaceboRun struct {
	PseudoTreated core.UnitKey `json:"pseudo_treated"`
	MeanEffect    float64      `json:"mean_effect"`
	TotalEffect   float64      `json:"total_effect"`
	PreRMSPE      float64      `json:"pre_rmspe"`
	RMSPERatio    float64      `json:"rmspe_ratio"`
}

// PlaceboDistribution is the null distribution of effects built by
// substituting each donor for the treated unit. It exists only to rank the
// real effect; callers extract the inference statistics and discard it.
type PlaceboDistribution struct {
	Runs []PlaceboRun `json:"runs"`

	// Spread summarizes the placebo mean-effect magnitudes.
	MeanAbsEffect float64 `json:"mean_abs_effect"`
	StdDevEffect  float64 `json:"stddev_effect"`
}

// Size returns the number of placebo runs, one per donor.
func (d *PlaceboDistribution) Size() int { return len(d.Runs) }

// RankPValue is the rank-based inference rule: the fraction of placebo
// runs whose absolute aggregate effect is at least as large as the treated
// unit's. Small panels make parametric p-values meaningless, so ranking is
// the only test offered.
func (d *PlaceboDistribution) RankPValue(treatedEffect float64) float64 {
	if len(d.Runs) == 0 {
		return 1.0
	}
	count := 0
	for _, r := range d.Runs {
		if math.Abs(r.MeanEffect) >= math.Abs(treatedEffect) {
			count++
		}
	}
	return float64(count) / float64(len(d.Runs))
}

// NormalizedRankPValue ranks by post/pre RMSPE ratio instead of the raw
// aggregate, penalizing placebos whose large post gaps merely continue a
// poor pre-period fit.
func (d *PlaceboDistribution) NormalizedRankPValue(treatedRatio float64) float64 {
	if len(d.Runs) == 0 {
		return 1.0
	}
	count := 0
	for _, r := range d.Runs {
		if r.RMSPERatio >= treatedRatio {
			count++
		}
	}
	return float64(count) / float64(len(d.Runs))
}

// RunPlacebos refits each donor in the pool as the pseudo-treated unit
// against the remaining donors and collects the aggregate effects. The
// resulting distribution has exactly one run per donor.
func RunPlacebos(p *panel.Panel, donorPool *pool.Pool, pre, post panel.Window) (*PlaceboDistribution, error) {
	fitter := NewFitter(p)
	dist := &PlaceboDistribution{Runs: make([]PlaceboRun, 0, donorPool.Size())}

	for _, pseudo := range donorPool.Donors {
		rest := donorPool.Without(pseudo)
		fit, err := fitter.Fit(pseudo, rest, pre, post)
		if err != nil {
			return nil, fmt.Errorf("placebo %s: %w", pseudo, err)
		}
		report, err := EstimateEffect(fit, post)
		if err != nil {
			return nil, fmt.Errorf("placebo %s: %w", pseudo, err)
		}
		dist.Runs = append(dist.Runs, PlaceboRun{
			PseudoTreated: pseudo,
			MeanEffect:    report.MeanEffect,
			TotalEffect:   report.TotalEffect,
			PreRMSPE:      report.PreRMSPE,
			RMSPERatio:    report.RMSPERatio,
		})
	}

	if err := dist.summarize(); err != nil {
		return nil, err
	}
	return dist, nil
}

func (d *PlaceboDistribution) summarize() error {
	if len(d.Runs) == 0 {
		return nil
	}
	absEffects := make([]float64, len(d.Runs))
	effects := make([]float64, len(d.Runs))
	for i, r := range d.Runs {
		absEffects[i] = math.Abs(r.MeanEffect)
		effects[i] = r.MeanEffect
	}
	meanAbs, err := stats.Mean(stats.Float64Data(absEffects))
	if err != nil {
		return fmt.Errorf("placebo summary: %w", err)
	}
	d.MeanAbsEffect = meanAbs
	if len(effects) > 1 {
		sd, err := stats.StandardDeviation(stats.Float64Data(effects))
		if err != nil {
			return fmt.Errorf("placebo summary: %w", err)
		}
		d.StdDevEffect = sd
	}
	return nil
}
