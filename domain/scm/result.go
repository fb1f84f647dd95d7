// Package scm implements the synthetic control estimator: a constrained
// least-squares fit of donor weights on the simplex, the counterfactual
// series those weights imply, the post-treatment effect estimate, and the
// placebo permutation machinery that gives the estimate an inference
// footing in panels too small for asymptotic tests.
package scm

import (
	"fmt"
	"math"

	"synthcap/domain/core"
	"synthcap/domain/panel"
)

// WeightTolerance is the numerical slack allowed on the simplex
// constraints: every weight >= -WeightTolerance and the weight sum within
// WeightTolerance of one.
const WeightTolerance = 1e-6

// Weights is one non-negative weight per donor, positionally aligned with
// the fit's donor list and summing to one. Owned by the fit result that
// produced it; callers get copies.
type Weights []float64

// Sum returns the total weight mass.
func (w Weights) Sum() float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	return total
}

// Validate checks the simplex constraints to WeightTolerance.
func (w Weights) Validate() error {
	if len(w) == 0 {
		return fmt.Errorf("weight vector is empty")
	}
	for i, v := range w {
		if v < -WeightTolerance {
			return fmt.Errorf("weight %d is negative: %v", i, v)
		}
	}
	if diff := math.Abs(w.Sum() - 1.0); diff > WeightTolerance {
		return fmt.Errorf("weights sum to %v, want 1 within %v", w.Sum(), WeightTolerance)
	}
	return nil
}

// FitResult is the immutable output of one synthetic control fit. The
// synthetic series spans both fitted windows (pre and post, in order,
// skipping any gap between them), while the fit-quality metrics describe
// the pre-treatment window only.
type FitResult struct {
	Treated core.UnitKey   `json:"treated"`
	Donors  []core.UnitKey `json:"donors"`
	Weights Weights        `json:"weights"`

	Pre  panel.Window `json:"pre_window"`
	Post panel.Window `json:"post_window"`

	// Periods is the fitted sequence: pre periods followed by post
	// periods. Actual, Synthetic and Gap are aligned with it.
	Periods   []core.Period `json:"periods"`
	Actual    []float64     `json:"actual"`
	Synthetic []float64     `json:"synthetic"`
	Gap       []float64     `json:"gap"`

	// Pre-treatment fit quality.
	PreMSE   float64 `json:"pre_mse"`
	PreRMSPE float64 `json:"pre_rmspe"`

	// Infeasible flags a treated pre-period vector outside the donor
	// convex hull: the fit is still the best feasible approximation and
	// the residual error is the diagnostic, not a failure.
	Infeasible bool `json:"infeasible"`

	Iterations  int            `json:"iterations"`
	Fingerprint core.Hash      `json:"fingerprint"`
	CreatedAt   core.Timestamp `json:"created_at"`
}

// WeightFor returns the fitted weight for one donor.
func (r *FitResult) WeightFor(unit core.UnitKey) (float64, bool) {
	for i, d := range r.Donors {
		if d == unit {
			return r.Weights[i], true
		}
	}
	return 0, false
}

// GapAt returns the actual-minus-synthetic gap for one fitted period.
func (r *FitResult) GapAt(period core.Period) (float64, error) {
	for i, p := range r.Periods {
		if p == period {
			return r.Gap[i], nil
		}
	}
	return 0, fmt.Errorf("%w: period %s not fitted", core.ErrInvalidWindow, period)
}

// fingerprintOf hashes the quantities that fully determine a fit, letting
// determinism be asserted across runs.
func fingerprintOf(treated core.UnitKey, donors []core.UnitKey, weights Weights, synthetic []float64) core.Hash {
	labels := make([]string, 0, len(donors)+len(synthetic)+1)
	values := make([]float64, 0, len(donors)+len(synthetic)+1)
	labels = append(labels, "treated:"+treated.String())
	values = append(values, 0)
	for i, d := range donors {
		labels = append(labels, "w:"+d.String())
		values = append(values, weights[i])
	}
	for i, s := range synthetic {
		labels = append(labels, fmt.Sprintf("s%d", i))
		values = append(values, s)
	}
	return core.ComputeFingerprint(labels, values)
}
