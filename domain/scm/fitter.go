package scm

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"synthcap/domain/core"
	"synthcap/domain/panel"
)

const (
	// maxIterations bounds the projected-gradient loop. Problem sizes in
	// this domain are a handful of donors over a handful of periods, so
	// the bound is generous.
	maxIterations = 20000

	// convergenceTol stops iteration once the weight update is smaller
	// than this in the max norm.
	convergenceTol = 1e-12
)

// Fitter solves the synthetic control weight problem:
//
//	minimize  || y_treated(pre) - Y_donors(pre) * w ||^2
//	subject to  w_i >= 0,  sum w_i = 1
//
// by projected gradient descent on the probability simplex, starting from
// uniform weights. The method is fully deterministic: identical inputs
// produce identical weights, bit for bit.
type Fitter struct {
	panel *panel.Panel
}

// NewFitter creates a fitter over one panel.
func NewFitter(p *panel.Panel) *Fitter {
	return &Fitter{panel: p}
}

// Fit solves for donor weights on the pre window, then applies them across
// the pre and post windows to produce the synthetic counterfactual series.
// A treated vector outside the donor convex hull is not an error: the best
// feasible approximation is returned with the Infeasible diagnostic set.
func (f *Fitter) Fit(treated core.UnitKey, donors []core.UnitKey, pre, post panel.Window) (*FitResult, error) {
	if len(donors) == 0 {
		return nil, fmt.Errorf("fit: no donors supplied")
	}
	if post.Start <= pre.End {
		return nil, fmt.Errorf("%w: post window %s must start after pre window %s", core.ErrInvalidWindow, post, pre)
	}

	periods := append(pre.Periods(), post.Periods()...)

	yPre, err := f.panel.Series(treated, pre)
	if err != nil {
		return nil, fmt.Errorf("fit: treated series: %w", err)
	}
	donorsPre := make([][]float64, len(donors))
	donorsAll := make([][]float64, len(donors))
	for i, d := range donors {
		if donorsPre[i], err = f.panel.Series(d, pre); err != nil {
			return nil, fmt.Errorf("fit: donor %s: %w", d, err)
		}
		if donorsAll[i], err = f.panel.SeriesAt(d, periods); err != nil {
			return nil, fmt.Errorf("fit: donor %s: %w", d, err)
		}
	}

	weights, iterations, err := SolveWeights(yPre, donorsPre)
	if err != nil {
		return nil, err
	}

	actual, err := f.panel.SeriesAt(treated, periods)
	if err != nil {
		return nil, fmt.Errorf("fit: treated series: %w", err)
	}
	synthetic := applyWeights(weights, donorsAll)

	gap := make([]float64, len(actual))
	for i := range actual {
		gap[i] = actual[i] - synthetic[i]
	}

	mse := 0.0
	for i := 0; i < pre.Len(); i++ {
		r := gap[i]
		mse += r * r
	}
	mse /= float64(pre.Len())
	rmspe := math.Sqrt(mse)

	result := &FitResult{
		Treated:     treated,
		Donors:      append([]core.UnitKey(nil), donors...),
		Weights:     weights,
		Pre:         pre,
		Post:        post,
		Periods:     periods,
		Actual:      actual,
		Synthetic:   synthetic,
		Gap:         gap,
		PreMSE:      mse,
		PreRMSPE:    rmspe,
		Infeasible:  rmspe > infeasibilityThreshold(yPre),
		Iterations:  iterations,
		Fingerprint: fingerprintOf(treated, donors, weights, synthetic),
		CreatedAt:   core.Now(),
	}
	return result, nil
}

// SolveWeights solves the simplex-constrained least squares problem for a
// raw treated vector and donor series. Exposed separately from Fit so the
// optimizer can be exercised without a panel; mismatched series lengths are
// a contract violation, not a data problem.
func SolveWeights(y []float64, donors [][]float64) (Weights, int, error) {
	t0 := len(y)
	n := len(donors)
	if t0 == 0 {
		return nil, 0, fmt.Errorf("solve weights: empty treated series")
	}
	if n == 0 {
		return nil, 0, fmt.Errorf("solve weights: no donor series")
	}
	for i, d := range donors {
		if len(d) != t0 {
			return nil, 0, core.NewShapeMismatchError(fmt.Sprintf("donor %d", i), t0, len(d))
		}
	}

	// Single donor: the simplex is a point.
	if n == 1 {
		return Weights{1.0}, 0, nil
	}

	// Assemble Y (t0 x n) column-per-donor and the target vector.
	Y := mat.NewDense(t0, n, nil)
	for j, d := range donors {
		for i, v := range d {
			Y.Set(i, j, v)
		}
	}
	target := mat.NewVecDense(t0, append([]float64(nil), y...))

	// Fixed step from the Lipschitz constant of the gradient, the largest
	// eigenvalue of the donor Gram matrix. Trace is the fallback bound
	// when the factorization does not converge.
	var gram mat.Dense
	gram.Mul(Y.T(), Y)
	lipschitz := largestEigenvalue(&gram)
	if lipschitz <= 0 {
		// All-zero donors; any simplex point is optimal. Uniform is the
		// deterministic choice.
		return uniformWeights(n), 0, nil
	}
	step := 1.0 / lipschitz

	w := mat.NewVecDense(n, uniformWeights(n))
	var residual, grad mat.VecDense
	next := make([]float64, n)

	iterations := 0
	for ; iterations < maxIterations; iterations++ {
		// grad = Y^T (Y w - y)
		residual.MulVec(Y, w)
		residual.SubVec(&residual, target)
		grad.MulVec(Y.T(), &residual)

		maxDelta := 0.0
		for i := 0; i < n; i++ {
			next[i] = w.AtVec(i) - step*grad.AtVec(i)
		}
		projectSimplex(next)
		for i := 0; i < n; i++ {
			if d := math.Abs(next[i] - w.AtVec(i)); d > maxDelta {
				maxDelta = d
			}
			w.SetVec(i, next[i])
		}
		if maxDelta < convergenceTol {
			break
		}
	}

	weights := Weights(w.RawVector().Data)
	if err := weights.Validate(); err != nil {
		return nil, iterations, fmt.Errorf("solver produced invalid weights: %w", err)
	}
	return weights, iterations, nil
}

// largestEigenvalue returns the top eigenvalue of a symmetric PSD matrix,
// falling back to the trace bound if the factorization fails.
func largestEigenvalue(g *mat.Dense) float64 {
	n, _ := g.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, g.At(i, j))
		}
	}
	var eig mat.EigenSym
	if eig.Factorize(sym, false) {
		values := eig.Values(nil)
		// Values are in ascending order.
		return values[len(values)-1]
	}
	return mat.Trace(g)
}

// projectSimplex replaces v in place with its Euclidean projection onto the
// probability simplex (Duchi et al. 2008): sort, find the largest support
// whose shifted values stay positive, clamp.
func projectSimplex(v []float64) {
	n := len(v)
	sorted := append([]float64(nil), v...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	cumulative := 0.0
	theta := 0.0
	for i := 0; i < n; i++ {
		cumulative += sorted[i]
		candidate := (cumulative - 1.0) / float64(i+1)
		if sorted[i]-candidate > 0 {
			theta = candidate
		}
	}
	for i := range v {
		v[i] = math.Max(v[i]-theta, 0)
	}
}

// infeasibilityThreshold scales the convex-hull diagnostic to the treated
// series magnitude so that solver roundoff on large point totals is not
// mistaken for genuine lack of fit.
func infeasibilityThreshold(y []float64) float64 {
	scale := 1.0
	for _, v := range y {
		if a := math.Abs(v); a > scale {
			scale = a
		}
	}
	return 1e-6 * scale
}

func uniformWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}
	return w
}

func applyWeights(w Weights, donorSeries [][]float64) []float64 {
	if len(donorSeries) == 0 {
		return nil
	}
	out := make([]float64, len(donorSeries[0]))
	for j, series := range donorSeries {
		for i, v := range series {
			out[i] += w[j] * v
		}
	}
	return out
}
