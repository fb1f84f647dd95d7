package scm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synthcap/domain/core"
	"synthcap/domain/panel"
	"synthcap/domain/pool"
	"synthcap/internal/testkit"
)

func costCapPool(t *testing.T) (*panel.Panel, *pool.Pool, testkit.CostCapScenario) {
	t.Helper()
	sc := testkit.NewCostCapScenario()
	p := buildScenarioPanel(t, append([]core.UnitKey{sc.Treated}, sc.Candidates...), sc.Records, sc.Pre, sc.Post)
	donorPool, err := pool.Select(p, sc.Treated, sc.Candidates, sc.Pre, sc.Treatment, pool.RuleSet{Name: "main"})
	require.NoError(t, err)
	return p, donorPool, sc
}

func TestRunPlacebosOnePerDonor(t *testing.T) {
	p, donorPool, sc := costCapPool(t)

	dist, err := RunPlacebos(p, donorPool, sc.Pre, sc.Post)
	require.NoError(t, err)

	require.Equal(t, donorPool.Size(), dist.Size())
	seen := map[core.UnitKey]bool{}
	for _, run := range dist.Runs {
		assert.False(t, seen[run.PseudoTreated], "donor %s refit twice", run.PseudoTreated)
		seen[run.PseudoTreated] = true
		assert.Contains(t, donorPool.Donors, run.PseudoTreated)
	}
}

func TestRunPlacebosTreatedDominatesNull(t *testing.T) {
	p, donorPool, sc := costCapPool(t)

	fit, err := NewFitter(p).Fit(sc.Treated, donorPool.Donors, sc.Pre, sc.Post)
	require.NoError(t, err)
	report, err := EstimateEffect(fit, sc.Post)
	require.NoError(t, err)

	dist, err := RunPlacebos(p, donorPool, sc.Pre, sc.Post)
	require.NoError(t, err)

	// Donor trajectories barely move post treatment, so every placebo
	// effect is small next to the treated surge and the rank p-value is
	// the smallest this pool can produce: zero.
	for _, run := range dist.Runs {
		assert.Less(t, run.MeanEffect, report.MeanEffect)
	}
	assert.Equal(t, 0.0, dist.RankPValue(report.MeanEffect))
}

func TestRankPValueCountsTies(t *testing.T) {
	dist := &PlaceboDistribution{Runs: []PlaceboRun{
		{PseudoTreated: "A", MeanEffect: 10},
		{PseudoTreated: "B", MeanEffect: -25},
		{PseudoTreated: "C", MeanEffect: 25},
		{PseudoTreated: "D", MeanEffect: 3},
	}}

	assert.InDelta(t, 0.5, dist.RankPValue(25), 1e-12, "ties and opposite signs both count")
	assert.InDelta(t, 0.25, dist.RankPValue(-26), 1e-12)
	assert.InDelta(t, 1.0, dist.RankPValue(0), 1e-12)
}

func TestRankPValueEmptyDistribution(t *testing.T) {
	dist := &PlaceboDistribution{}
	assert.Equal(t, 1.0, dist.RankPValue(100))
	assert.Equal(t, 1.0, dist.NormalizedRankPValue(100))
}

func TestNormalizedRankPValue(t *testing.T) {
	dist := &PlaceboDistribution{Runs: []PlaceboRun{
		{PseudoTreated: "A", RMSPERatio: 0.8},
		{PseudoTreated: "B", RMSPERatio: 1.2},
		{PseudoTreated: "C", RMSPERatio: 5.0},
	}}

	assert.InDelta(t, 1.0/3.0, dist.NormalizedRankPValue(2.0), 1e-12)
	assert.InDelta(t, 1.0, dist.NormalizedRankPValue(0.5), 1e-12)
}

func TestPlaceboSummaryStatistics(t *testing.T) {
	p, donorPool, sc := costCapPool(t)

	dist, err := RunPlacebos(p, donorPool, sc.Pre, sc.Post)
	require.NoError(t, err)

	assert.Greater(t, dist.MeanAbsEffect, 0.0)
	assert.GreaterOrEqual(t, dist.StdDevEffect, 0.0)
}
