package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"synthcap/domain/core"
	"synthcap/domain/panel"
	"synthcap/domain/pool"
)

// SensitivityService sweeps the estimation pipeline across a grid of
// donor-pool variants and pre-window lengths, reporting per-cell effect
// and fit quality so a conclusion can be checked for configuration
// dependence.
type SensitivityService struct {
	study *StudyService
}

// NewSensitivityService creates a sensitivity runner over a study service.
func NewSensitivityService(study *StudyService) *SensitivityService {
	return &SensitivityService{study: study}
}

// SweepRequest defines the sensitivity grid. Every variant is crossed with
// every pre-window length; BasePre supplies the widest pre window and the
// lengths shrink it from the front, keeping the end anchored at the last
// pre-treatment period.
type SweepRequest struct {
	Records    []panel.Record
	Treated    core.UnitKey
	Candidates []core.UnitKey

	Treatment core.Period
	BasePre   panel.Window
	Post      panel.Window

	Variants   []pool.RuleSet
	PreLengths []int

	// Workers bounds cell parallelism. Zero or one runs sequentially.
	// Cells are independent pure computations over the shared records,
	// so parallel execution never changes results.
	Workers int

	MappingVersion string
	SweepID        core.SweepID // optional, generated if empty
}

// SweepCell is one grid cell's outcome. A failed cell carries its error
// string and nothing else; the sweep never aborts on a bad configuration.
type SweepCell struct {
	Variant   string       `json:"variant"`
	PreWindow panel.Window `json:"pre_window"`
	PreLength int          `json:"pre_length"`

	MeanEffect  float64 `json:"mean_effect,omitempty"`
	TotalEffect float64 `json:"total_effect,omitempty"`
	PreRMSPE    float64 `json:"pre_rmspe,omitempty"`
	RankPValue  float64 `json:"rank_p_value,omitempty"`
	Infeasible  bool    `json:"infeasible,omitempty"`

	Failed bool   `json:"failed,omitempty"`
	Error  string `json:"error,omitempty"`
}

// SweepResult is the full grid outcome in deterministic order: variants in
// request order, pre-lengths in request order within each variant.
type SweepResult struct {
	SweepID   core.SweepID   `json:"sweep_id"`
	Treated   core.UnitKey   `json:"treated"`
	Cells     []SweepCell    `json:"cells"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	CreatedAt core.Timestamp `json:"created_at"`
}

// Run executes the grid. Cell failures (an emptied pool under a strict
// variant, an incomplete panel under a widened window) are recorded in
// their cells and the sweep continues.
func (s *SensitivityService) Run(ctx context.Context, req SweepRequest) (*SweepResult, error) {
	if len(req.Variants) == 0 {
		return nil, fmt.Errorf("sensitivity sweep: at least one pool variant is required")
	}
	if len(req.PreLengths) == 0 {
		return nil, fmt.Errorf("sensitivity sweep: at least one pre-window length is required")
	}

	sweepID := req.SweepID
	if sweepID == "" {
		sweepID = core.SweepID(core.NewID())
	}

	cells := make([]SweepCell, len(req.Variants)*len(req.PreLengths))

	g, gctx := errgroup.WithContext(ctx)
	workers := req.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for vi, variant := range req.Variants {
		for li, length := range req.PreLengths {
			idx := vi*len(req.PreLengths) + li
			g.Go(func() error {
				cells[idx] = s.runCell(gctx, req, variant, length)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &SweepResult{
		SweepID:   sweepID,
		Treated:   req.Treated,
		Cells:     cells,
		CreatedAt: core.Now(),
	}
	for _, c := range cells {
		if c.Failed {
			result.Failed++
		} else {
			result.Succeeded++
		}
	}
	return result, nil
}

// runCell executes one grid cell. All failure modes land in the cell.
func (s *SensitivityService) runCell(ctx context.Context, req SweepRequest, variant pool.RuleSet, preLength int) SweepCell {
	pre := req.BasePre.Shrink(preLength)
	cell := SweepCell{
		Variant:   variant.Name,
		PreWindow: pre,
		PreLength: pre.Len(),
	}

	study, err := s.study.Run(ctx, StudyRequest{
		Records:        req.Records,
		Treated:        req.Treated,
		Candidates:     req.Candidates,
		Treatment:      req.Treatment,
		Pre:            pre,
		Post:           req.Post,
		Rules:          variant,
		MappingVersion: req.MappingVersion,
	})
	if err != nil {
		cell.Failed = true
		cell.Error = err.Error()
		return cell
	}

	cell.MeanEffect = study.Effect.MeanEffect
	cell.TotalEffect = study.Effect.TotalEffect
	cell.PreRMSPE = study.Fit.PreRMSPE
	cell.RankPValue = study.RankPValue
	cell.Infeasible = study.Fit.Infeasible
	return cell
}
