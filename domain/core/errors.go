package core

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors - centralized error definitions
var (
	// ErrIncompletePanel marks a requested (unit, period) cell with no
	// underlying record. Never auto-imputed; the caller narrows the
	// window or drops the unit.
	ErrIncompletePanel = errors.New("incomplete panel")

	// ErrEmptyDonorPool marks a donor pool with fewer than two eligible
	// units. The weight optimization is under-determined below that.
	ErrEmptyDonorPool = errors.New("empty donor pool")

	// ErrShapeMismatch marks a programming-contract violation: treated
	// and donor series with different period counts reaching the fitter.
	ErrShapeMismatch = errors.New("series shape mismatch")

	// Validation errors
	ErrDuplicateRecord = errors.New("duplicate performance record")
	ErrNegativeValue   = errors.New("negative performance value")
	ErrInvalidWindow   = errors.New("invalid period window")
	ErrUnknownUnit     = errors.New("unknown unit")
)

// Cell identifies one (unit, period) position in a panel.
type Cell struct {
	Unit   UnitKey `json:"unit"`
	Period Period  `json:"period"`
}

// IncompletePanelError reports every requested cell that has no record.
type IncompletePanelError struct {
	Missing []Cell
}

func (e *IncompletePanelError) Error() string {
	cells := make([]string, 0, len(e.Missing))
	for _, c := range e.Missing {
		cells = append(cells, fmt.Sprintf("%s@%s", c.Unit, c.Period))
	}
	return fmt.Sprintf("incomplete panel: no record for %s", strings.Join(cells, ", "))
}

func (e *IncompletePanelError) Unwrap() error { return ErrIncompletePanel }

// EmptyDonorPoolError carries the rule set that emptied the pool so the
// caller can see which configuration to loosen.
type EmptyDonorPoolError struct {
	RuleSet   string
	Remaining int
}

func (e *EmptyDonorPoolError) Error() string {
	return fmt.Sprintf("empty donor pool: rule set %q left %d eligible donors (need >= 2)", e.RuleSet, e.Remaining)
}

func (e *EmptyDonorPoolError) Unwrap() error { return ErrEmptyDonorPool }

// NewShapeMismatchError reports mismatched series lengths reaching the fitter.
func NewShapeMismatchError(context string, want, got int) error {
	return fmt.Errorf("%w: %s: want %d periods, got %d", ErrShapeMismatch, context, want, got)
}

// Error checking helpers
func IsIncompletePanel(err error) bool {
	return errors.Is(err, ErrIncompletePanel)
}

func IsEmptyDonorPool(err error) bool {
	return errors.Is(err, ErrEmptyDonorPool)
}

func IsShapeMismatch(err error) bool {
	return errors.Is(err, ErrShapeMismatch)
}
