// Package app orchestrates the estimation pipeline: panel construction,
// donor pool selection, the synthetic control fit, effect estimation and
// placebo inference, plus the sensitivity sweep that re-runs the pipeline
// across pool variants and pre-window lengths.
package app

import (
	"context"
	"fmt"

	"synthcap/domain/core"
	"synthcap/domain/panel"
	"synthcap/domain/pool"
	"synthcap/domain/scm"
	"synthcap/domain/study"
)

// StudyService runs one full estimation pass for a single treated unit
// under a single donor-pool configuration.
type StudyService struct{}

// NewStudyService creates a study service.
func NewStudyService() *StudyService {
	return &StudyService{}
}

// StudyRequest defines the inputs for one estimation pass. Records must
// already carry canonical unit keys.
type StudyRequest struct {
	Records    []panel.Record
	Treated    core.UnitKey
	Candidates []core.UnitKey

	// Treatment is the first treated period. Pre must end before it and
	// Post must start at or after it.
	Treatment core.Period
	Pre       panel.Window
	Post      panel.Window

	Rules pool.RuleSet

	// MappingVersion pins the canonicalization revision the records were
	// resolved under. Informational; carried into the result.
	MappingVersion string

	StudyID core.StudyID // optional, generated if empty
}

// Validate checks the window arithmetic before any computation runs.
func (r *StudyRequest) Validate() error {
	if r.Treated == "" {
		return fmt.Errorf("study request: treated unit is required")
	}
	if r.Pre.End >= r.Treatment {
		return fmt.Errorf("%w: pre window %s reaches into treatment period %s", core.ErrInvalidWindow, r.Pre, r.Treatment)
	}
	if r.Post.Start < r.Treatment {
		return fmt.Errorf("%w: post window %s starts before treatment period %s", core.ErrInvalidWindow, r.Post, r.Treatment)
	}
	if r.Pre.Len() < 2 {
		return fmt.Errorf("%w: pre window %s too short to constrain a fit", core.ErrInvalidWindow, r.Pre)
	}
	return nil
}

// StudyResult is the structured output of one estimation pass, intended
// for an external reporting collaborator. Everything a reader needs to
// reproduce or visualize the estimate is here; nothing is rendered.
type StudyResult struct {
	StudyID core.StudyID `json:"study_id"`
	Variant string       `json:"variant"`

	Pool    *pool.Pool               `json:"pool"`
	Fit     *scm.FitResult           `json:"fit"`
	Effect  *scm.EffectReport        `json:"effect"`
	Placebo *scm.PlaceboDistribution `json:"placebo"`

	// Rank-based inference from the placebo distribution.
	RankPValue           float64 `json:"rank_p_value"`
	NormalizedRankPValue float64 `json:"normalized_rank_p_value"`

	// Manifest pins everything needed to reproduce this estimate.
	Manifest *study.Manifest `json:"manifest"`

	MappingVersion string         `json:"mapping_version,omitempty"`
	CreatedAt      core.Timestamp `json:"created_at"`
}

// Run executes the full pipeline: build the panel over the union of the
// pre and post windows, select the donor pool, fit, estimate the effect,
// and rank it against the placebo distribution. Panel and pool failures
// propagate unchanged so the caller can repair inputs or configuration.
func (s *StudyService) Run(ctx context.Context, req StudyRequest) (*StudyResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	studyID := req.StudyID
	if studyID == "" {
		studyID = core.StudyID(core.NewID())
	}

	// Structurally ineligible candidates stay out of the dense panel so
	// their missing periods surface as pool rejections, not panel errors.
	units := make([]core.UnitKey, 0, len(req.Candidates)+1)
	units = append(units, req.Treated)
	for _, c := range req.Candidates {
		if c != req.Treated && req.Rules.StructurallyEligible(c, req.Treatment) {
			units = append(units, c)
		}
	}
	pnl, err := panel.BuildForWindows(req.Records, units, req.Pre, req.Post)
	if err != nil {
		return nil, err
	}

	donorPool, err := pool.Select(pnl, req.Treated, req.Candidates, req.Pre, req.Treatment, req.Rules)
	if err != nil {
		return nil, err
	}

	fitter := scm.NewFitter(pnl)
	fit, err := fitter.Fit(req.Treated, donorPool.Donors, req.Pre, req.Post)
	if err != nil {
		return nil, err
	}

	effect, err := scm.EstimateEffect(fit, req.Post)
	if err != nil {
		return nil, err
	}

	placebo, err := scm.RunPlacebos(pnl, donorPool, req.Pre, req.Post)
	if err != nil {
		return nil, err
	}

	manifest := study.NewManifest(
		studyID, req.Treated, req.Treatment, req.Pre, req.Post,
		donorPool.Variant, donorPool.PoolHash, req.MappingVersion, fit.Fingerprint,
	)

	return &StudyResult{
		StudyID:              studyID,
		Variant:              donorPool.Variant,
		Pool:                 donorPool,
		Fit:                  fit,
		Effect:               effect,
		Placebo:              placebo,
		RankPValue:           placebo.RankPValue(effect.MeanEffect),
		NormalizedRankPValue: placebo.NormalizedRankPValue(effect.RMSPERatio),
		Manifest:             manifest,
		MappingVersion:       req.MappingVersion,
		CreatedAt:            core.Now(),
	}, nil
}
