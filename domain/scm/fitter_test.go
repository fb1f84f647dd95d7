package scm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synthcap/domain/core"
	"synthcap/domain/panel"
	"synthcap/internal/testkit"
)

func buildScenarioPanel(t *testing.T, units []core.UnitKey, records []panel.Record, pre, post panel.Window) *panel.Panel {
	t.Helper()
	p, err := panel.BuildForWindows(records, units, pre, post)
	require.NoError(t, err)
	return p
}

func TestSolveWeightsSimplexConstraints(t *testing.T) {
	cases := []struct {
		name   string
		y      []float64
		donors [][]float64
	}{
		{
			name:   "well conditioned",
			y:      []float64{30, 62, 145, 202},
			donors: [][]float64{{140, 130, 115, 100}, {20, 30, 25, 30}, {40, 35, 30, 40}},
		},
		{
			name:   "treated outside hull",
			y:      []float64{1000, 1000, 1000, 1000},
			donors: [][]float64{{1, 2, 3, 4}, {4, 3, 2, 1}},
		},
		{
			name:   "collinear donors",
			y:      []float64{10, 20, 30},
			donors: [][]float64{{1, 2, 3}, {2, 4, 6}, {3, 6, 9}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _, err := SolveWeights(tc.y, tc.donors)
			require.NoError(t, err)
			require.Len(t, w, len(tc.donors))
			require.NoError(t, w.Validate())
			for i, v := range w {
				assert.GreaterOrEqual(t, v, -WeightTolerance, "weight %d", i)
			}
			assert.InDelta(t, 1.0, w.Sum(), WeightTolerance)
		})
	}
}

func TestSolveWeightsRecoversExactConvexCombination(t *testing.T) {
	sc := testkit.NewExactComboScenario()
	p := buildScenarioPanel(t, append([]core.UnitKey{sc.Treated}, sc.Donors...), sc.Records, sc.Pre, sc.Post)

	fit, err := NewFitter(p).Fit(sc.Treated, sc.Donors, sc.Pre, sc.Post)
	require.NoError(t, err)

	assert.Less(t, fit.PreMSE, 1e-6, "exact combination must fit with near-zero error")
	assert.False(t, fit.Infeasible)

	wA, _ := fit.WeightFor("A")
	wB, _ := fit.WeightFor("B")
	wC, _ := fit.WeightFor("C")
	assert.InDelta(t, 0.5, wA, 1e-3)
	assert.InDelta(t, 0.5, wB, 1e-3)
	assert.InDelta(t, 0.0, wC, 1e-3)
}

func TestFitIsDeterministic(t *testing.T) {
	sc := testkit.NewCostCapScenario()
	p := buildScenarioPanel(t, append([]core.UnitKey{sc.Treated}, sc.Candidates...), sc.Records, sc.Pre, sc.Post)
	fitter := NewFitter(p)

	first, err := fitter.Fit(sc.Treated, sc.Candidates, sc.Pre, sc.Post)
	require.NoError(t, err)
	second, err := fitter.Fit(sc.Treated, sc.Candidates, sc.Pre, sc.Post)
	require.NoError(t, err)

	assert.Equal(t, []float64(first.Weights), []float64(second.Weights))
	assert.Equal(t, first.Synthetic, second.Synthetic)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
}

func TestFitOutsideConvexHullIsDiagnosticNotError(t *testing.T) {
	sc := testkit.NewCostCapScenario()
	p := buildScenarioPanel(t, append([]core.UnitKey{sc.Treated}, sc.Candidates...), sc.Records, sc.Pre, sc.Post)

	// The treated pre trajectory (30 -> 202) cannot be matched by flat
	// or declining donors; the fit must still return a best feasible
	// approximation with the diagnostic raised.
	fit, err := NewFitter(p).Fit(sc.Treated, sc.Candidates, sc.Pre, sc.Post)
	require.NoError(t, err)

	assert.True(t, fit.Infeasible)
	assert.Greater(t, fit.PreRMSPE, 0.0)
	require.NoError(t, fit.Weights.Validate())
}

func TestFitSyntheticSpansBothWindows(t *testing.T) {
	sc := testkit.NewCostCapScenario()
	p := buildScenarioPanel(t, append([]core.UnitKey{sc.Treated}, sc.Candidates...), sc.Records, sc.Pre, sc.Post)

	fit, err := NewFitter(p).Fit(sc.Treated, sc.Candidates, sc.Pre, sc.Post)
	require.NoError(t, err)

	wantPeriods := append(sc.Pre.Periods(), sc.Post.Periods()...)
	assert.Equal(t, wantPeriods, fit.Periods)
	assert.Len(t, fit.Synthetic, len(wantPeriods))
	assert.Len(t, fit.Gap, len(wantPeriods))

	// Synthetic values are convex combinations of donor values, so they
	// stay inside the donors' per-period range.
	for i, period := range fit.Periods {
		lo, hi := donorRange(t, p, sc.Candidates, period)
		assert.GreaterOrEqual(t, fit.Synthetic[i], lo-1e-9)
		assert.LessOrEqual(t, fit.Synthetic[i], hi+1e-9)
	}
}

func donorRange(t *testing.T, p *panel.Panel, donors []core.UnitKey, period core.Period) (lo, hi float64) {
	t.Helper()
	for i, d := range donors {
		v, err := p.Value(d, period)
		require.NoError(t, err)
		if i == 0 || v < lo {
			lo = v
		}
		if i == 0 || v > hi {
			hi = v
		}
	}
	return lo, hi
}

func TestSolveWeightsShapeMismatchIsContractViolation(t *testing.T) {
	_, _, err := SolveWeights([]float64{1, 2, 3}, [][]float64{{1, 2, 3}, {1, 2}})
	require.Error(t, err)
	assert.True(t, core.IsShapeMismatch(err))
}

func TestSolveWeightsSingleDonor(t *testing.T) {
	w, _, err := SolveWeights([]float64{5, 6}, [][]float64{{4, 7}})
	require.NoError(t, err)
	assert.Equal(t, Weights{1.0}, w)
}

func TestSolveWeightsEmptyInputs(t *testing.T) {
	_, _, err := SolveWeights(nil, [][]float64{{1}})
	require.Error(t, err)

	_, _, err = SolveWeights([]float64{1}, nil)
	require.Error(t, err)
}

func TestSolveWeightsAllZeroDonors(t *testing.T) {
	w, _, err := SolveWeights([]float64{1, 2}, [][]float64{{0, 0}, {0, 0}})
	require.NoError(t, err)
	require.NoError(t, w.Validate())
	assert.InDelta(t, 0.5, w[0], 1e-12)
	assert.InDelta(t, 0.5, w[1], 1e-12)
}

func TestProjectSimplex(t *testing.T) {
	cases := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"already on simplex", []float64{0.25, 0.75}, []float64{0.25, 0.75}},
		{"uniform from zeros", []float64{0, 0}, []float64{0.5, 0.5}},
		{"clamps negatives", []float64{1.5, -0.5}, []float64{1, 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := append([]float64(nil), tc.in...)
			projectSimplex(v)
			for i := range tc.want {
				assert.InDelta(t, tc.want[i], v[i], 1e-12)
			}
		})
	}
}
