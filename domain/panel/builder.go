package panel

import (
	"fmt"

	"synthcap/domain/core"
)

// Build assembles a dense Panel for the requested units over the requested
// period sequence. Every (unit, period) cell must be covered by exactly one
// record: a missing cell surfaces as IncompletePanelError listing all gaps,
// and a duplicate record is rejected outright. No interpolation, no
// zero-fill.
func Build(records []Record, units []core.UnitKey, periods []core.Period) (*Panel, error) {
	if len(units) == 0 {
		return nil, fmt.Errorf("panel build: no units requested")
	}
	if len(periods) == 0 {
		return nil, fmt.Errorf("%w: no periods requested", core.ErrInvalidWindow)
	}
	for i := 1; i < len(periods); i++ {
		if periods[i] <= periods[i-1] {
			return nil, fmt.Errorf("%w: periods must be strictly increasing, got %s after %s",
				core.ErrInvalidWindow, periods[i], periods[i-1])
		}
	}

	lookup := make(map[core.Cell]float64, len(records))
	for _, r := range records {
		if r.Value < 0 {
			return nil, fmt.Errorf("%w: %s@%s = %v", core.ErrNegativeValue, r.Unit, r.Period, r.Value)
		}
		cell := core.Cell{Unit: r.Unit, Period: r.Period}
		if _, seen := lookup[cell]; seen {
			return nil, fmt.Errorf("%w: %s@%s", core.ErrDuplicateRecord, r.Unit, r.Period)
		}
		lookup[cell] = r.Value
	}

	p := &Panel{
		units:     append([]core.UnitKey(nil), units...),
		periods:   append([]core.Period(nil), periods...),
		values:    make([][]float64, len(units)),
		unitIndex: make(map[core.UnitKey]int, len(units)),
		colIndex:  make(map[core.Period]int, len(periods)),
	}
	for j, period := range p.periods {
		p.colIndex[period] = j
	}

	var missing []core.Cell
	for i, unit := range p.units {
		if _, dup := p.unitIndex[unit]; dup {
			return nil, fmt.Errorf("panel build: unit %s requested twice", unit)
		}
		p.unitIndex[unit] = i
		row := make([]float64, len(p.periods))
		for j, period := range p.periods {
			v, ok := lookup[core.Cell{Unit: unit, Period: period}]
			if !ok {
				missing = append(missing, core.Cell{Unit: unit, Period: period})
				continue
			}
			row[j] = v
		}
		p.values[i] = row
	}

	if len(missing) > 0 {
		return nil, &core.IncompletePanelError{Missing: missing}
	}
	return p, nil
}

// BuildForWindows builds a panel covering exactly the union of the pre and
// post windows. Periods between the two windows are not requested and so
// are never required: a transition season deliberately left out of both
// windows stays out of the panel.
func BuildForWindows(records []Record, units []core.UnitKey, pre, post Window) (*Panel, error) {
	if post.Start <= pre.End {
		return nil, fmt.Errorf("%w: post window %s must start after pre window %s", core.ErrInvalidWindow, post, pre)
	}
	periods := append(pre.Periods(), post.Periods()...)
	return Build(records, units, periods)
}
