package panel

import (
	"fmt"

	"synthcap/domain/core"
)

// Panel is a dense unit-by-period performance matrix. The period sequence
// is strictly increasing but need not be contiguous: a study whose pre and
// post windows skip an ambiguous transition season produces a panel with a
// hole between them, dense everywhere it was requested. Immutable once
// built: accessors return copies, never internal slices.
type Panel struct {
	units   []core.UnitKey
	periods []core.Period
	// values[i][j] is the value for units[i] at periods[j]
	values    [][]float64
	unitIndex map[core.UnitKey]int
	colIndex  map[core.Period]int
}

// Units returns the panel's unit keys in build order.
func (p *Panel) Units() []core.UnitKey {
	out := make([]core.UnitKey, len(p.units))
	copy(out, p.units)
	return out
}

// Periods returns the panel's ordered period sequence.
func (p *Panel) Periods() []core.Period {
	out := make([]core.Period, len(p.periods))
	copy(out, p.periods)
	return out
}

// HasUnit reports whether the panel contains the unit.
func (p *Panel) HasUnit(unit core.UnitKey) bool {
	_, ok := p.unitIndex[unit]
	return ok
}

// HasPeriod reports whether the panel covers the period.
func (p *Panel) HasPeriod(period core.Period) bool {
	_, ok := p.colIndex[period]
	return ok
}

// Value returns the performance value for one (unit, period) cell.
func (p *Panel) Value(unit core.UnitKey, period core.Period) (float64, error) {
	i, ok := p.unitIndex[unit]
	if !ok {
		return 0, fmt.Errorf("%w: %s", core.ErrUnknownUnit, unit)
	}
	j, ok := p.colIndex[period]
	if !ok {
		return 0, fmt.Errorf("%w: period %s not covered by panel", core.ErrInvalidWindow, period)
	}
	return p.values[i][j], nil
}

// Series returns the unit's values over the given window, in period order.
// Every period of the window must be covered by the panel.
func (p *Panel) Series(unit core.UnitKey, w Window) ([]float64, error) {
	i, ok := p.unitIndex[unit]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownUnit, unit)
	}
	out := make([]float64, 0, w.Len())
	for _, period := range w.Periods() {
		j, ok := p.colIndex[period]
		if !ok {
			return nil, fmt.Errorf("%w: period %s not covered by panel", core.ErrInvalidWindow, period)
		}
		out = append(out, p.values[i][j])
	}
	return out, nil
}

// SeriesAt returns the unit's values at an explicit period sequence. The
// fitter uses it to assemble pre-plus-post series across a window gap.
func (p *Panel) SeriesAt(unit core.UnitKey, periods []core.Period) ([]float64, error) {
	i, ok := p.unitIndex[unit]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownUnit, unit)
	}
	out := make([]float64, 0, len(periods))
	for _, period := range periods {
		j, ok := p.colIndex[period]
		if !ok {
			return nil, fmt.Errorf("%w: period %s not covered by panel", core.ErrInvalidWindow, period)
		}
		out = append(out, p.values[i][j])
	}
	return out, nil
}
