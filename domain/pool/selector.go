package pool

import (
	"fmt"

	"synthcap/domain/core"
	"synthcap/domain/panel"
)

// Select filters candidate units against a rule set and the panel's actual
// coverage, returning the eligible donor pool. The treated unit is always
// excluded. Fails with EmptyDonorPoolError when fewer than two donors
// survive: the weight optimization is under-determined below that, so no
// fit is ever attempted against such a pool.
func Select(p *panel.Panel, treated core.UnitKey, candidates []core.UnitKey, pre panel.Window, treatment core.Period, rules RuleSet) (*Pool, error) {
	if rules.Name == "" {
		return nil, fmt.Errorf("pool select: rule set must be named")
	}

	result := &Pool{
		Variant:   rules.Name,
		Treated:   treated,
		CreatedAt: core.Now(),
	}

	for _, unit := range candidates {
		if unit == treated {
			result.Rejected = append(result.Rejected, Rejection{Unit: unit, Reason: "treated unit"})
			continue
		}
		if reason, excluded := rules.Exclusions[unit]; excluded {
			result.Rejected = append(result.Rejected, Rejection{Unit: unit, Reason: reason})
			continue
		}
		if exit, defunct := rules.DefunctBefore[unit]; defunct && exit < treatment {
			result.Rejected = append(result.Rejected, Rejection{
				Unit:   unit,
				Reason: fmt.Sprintf("defunct after %s, before treatment %s", exit, treatment),
			})
			continue
		}
		if !p.HasUnit(unit) {
			result.Rejected = append(result.Rejected, Rejection{Unit: unit, Reason: "not observed in panel"})
			continue
		}
		observed, err := coveredPeriods(p, unit, pre)
		if err != nil {
			return nil, err
		}
		if rules.MinHistory > 0 && observed < rules.MinHistory {
			result.Rejected = append(result.Rejected, Rejection{
				Unit:   unit,
				Reason: fmt.Sprintf("insufficient pre-period history: %d of %d required", observed, rules.MinHistory),
			})
			continue
		}
		result.Donors = append(result.Donors, unit)
	}

	if len(result.Donors) < 2 {
		return nil, &core.EmptyDonorPoolError{RuleSet: rules.Name, Remaining: len(result.Donors)}
	}

	result.PoolHash = core.ComputePoolHash(treated, result.Donors)
	return result, nil
}

// coveredPeriods counts how many pre-window periods the panel observes for
// the unit. Panels are dense, so coverage is all-or-nothing per unit.
func coveredPeriods(p *panel.Panel, unit core.UnitKey, pre panel.Window) (int, error) {
	if _, err := p.Series(unit, pre); err != nil {
		return 0, err
	}
	return pre.Len(), nil
}
