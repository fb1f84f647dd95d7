package scm

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"synthcap/domain/core"
	"synthcap/domain/panel"
)

// PeriodEffect is the estimated treatment effect for one post-treatment
// period, with the underlying actual and synthetic values kept alongside
// for downstream visualization.
type PeriodEffect struct {
	Period    core.Period `json:"period"`
	Actual    float64     `json:"actual"`
	Synthetic float64     `json:"synthetic"`
	Effect    float64     `json:"effect"`
}

// EffectReport is the structured effect estimate for one fit over one post
// window. It asserts no significance on its own; ranking against the
// placebo distribution is the inference step.
type EffectReport struct {
	Treated core.UnitKey `json:"treated"`
	Post    panel.Window `json:"post_window"`

	PerPeriod []PeriodEffect `json:"per_period"`

	// MeanEffect and TotalEffect aggregate the post window.
	MeanEffect  float64 `json:"mean_effect"`
	TotalEffect float64 `json:"total_effect"`

	// Fit-quality carried over from the fit for context.
	PreRMSPE  float64 `json:"pre_rmspe"`
	PostRMSPE float64 `json:"post_rmspe"`

	// RMSPERatio is post over pre, the scale-free statistic the placebo
	// ranking can normalize by. Infinite when the pre fit is exact; the
	// ratio is capped for reporting.
	RMSPERatio float64 `json:"rmspe_ratio"`
}

// rmspeRatioCap bounds the ratio when the pre-period fit error is zero.
const rmspeRatioCap = 1e9

// EstimateEffect computes per-period and aggregate effects from a fit
// result over the post-treatment window, which must lie inside the fit's
// own post window.
func EstimateEffect(fit *FitResult, post panel.Window) (*EffectReport, error) {
	if post.Start < fit.Post.Start || post.End > fit.Post.End {
		return nil, fmt.Errorf("%w: post window %s outside fitted post window %s", core.ErrInvalidWindow, post, fit.Post)
	}

	// Post periods sit after the pre block in the fitted sequence.
	offset := fit.Pre.Len() + int(post.Start-fit.Post.Start)
	perPeriod := make([]PeriodEffect, post.Len())
	effects := make([]float64, post.Len())
	for i, p := range post.Periods() {
		idx := offset + i
		perPeriod[i] = PeriodEffect{
			Period:    p,
			Actual:    fit.Actual[idx],
			Synthetic: fit.Synthetic[idx],
			Effect:    fit.Gap[idx],
		}
		effects[i] = fit.Gap[idx]
	}

	mean, err := stats.Mean(stats.Float64Data(effects))
	if err != nil {
		return nil, fmt.Errorf("effect aggregate: %w", err)
	}
	total, err := stats.Sum(stats.Float64Data(effects))
	if err != nil {
		return nil, fmt.Errorf("effect aggregate: %w", err)
	}

	postRMSPE := rootMeanSquare(effects)
	ratio := rmspeRatioCap
	if fit.PreRMSPE > 0 {
		ratio = math.Min(postRMSPE/fit.PreRMSPE, rmspeRatioCap)
	}

	return &EffectReport{
		Treated:     fit.Treated,
		Post:        post,
		PerPeriod:   perPeriod,
		MeanEffect:  mean,
		TotalEffect: total,
		PreRMSPE:    fit.PreRMSPE,
		PostRMSPE:   postRMSPE,
		RMSPERatio:  ratio,
	}, nil
}

func rootMeanSquare(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x * x
	}
	return math.Sqrt(sum / float64(len(xs)))
}
