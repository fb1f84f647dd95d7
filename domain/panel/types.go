// Package panel builds dense unit-by-period performance matrices from raw
// standings records. Construction is a pure transform: every requested cell
// must be backed by exactly one record, and missing data is a hard error
// rather than something the builder papers over.
package panel

import (
	"fmt"

	"synthcap/domain/core"
)

// Record is one observed (unit, period, value) performance triple.
// Unit keys must already be canonical before records reach the core.
type Record struct {
	Unit   core.UnitKey `json:"unit"`
	Period core.Period  `json:"period"`
	Value  float64      `json:"value"`
}

// Window is an inclusive range of periods.
type Window struct {
	Start core.Period `json:"start"`
	End   core.Period `json:"end"`
}

// NewWindow validates and creates a period window.
func NewWindow(start, end core.Period) (Window, error) {
	if end < start {
		return Window{}, fmt.Errorf("%w: end %s before start %s", core.ErrInvalidWindow, end, start)
	}
	return Window{Start: start, End: end}, nil
}

// Len returns the number of periods in the window.
func (w Window) Len() int {
	return int(w.End-w.Start) + 1
}

// Contains reports whether p falls inside the window.
func (w Window) Contains(p core.Period) bool {
	return p >= w.Start && p <= w.End
}

// Periods expands the window into its ordered period sequence.
func (w Window) Periods() []core.Period {
	out := make([]core.Period, 0, w.Len())
	for p := w.Start; p <= w.End; p++ {
		out = append(out, p)
	}
	return out
}

// Shrink returns a copy of the window with the start moved forward so the
// window covers at most n periods, keeping the end fixed. Used by the
// sensitivity sweep to vary pre-treatment window length.
func (w Window) Shrink(n int) Window {
	if n >= w.Len() || n < 1 {
		return w
	}
	return Window{Start: w.End - core.Period(n-1), End: w.End}
}

func (w Window) String() string {
	return fmt.Sprintf("[%s..%s]", w.Start, w.End)
}
