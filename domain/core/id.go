package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// UnitKey is the canonical identifier of a competitive organization.
// The statistical core treats it as opaque; canonicalization of raw
// names into UnitKeys is an upstream concern (ports.NameResolver).
type UnitKey string

// String returns the string representation
func (k UnitKey) String() string { return string(k) }

// Period is a discrete, ordered time bucket (a championship season year).
type Period int

// String returns the string representation
func (p Period) String() string { return fmt.Sprintf("%d", int(p)) }

// Domain-specific ID types
type (
	StudyID ID
	SweepID ID
)

// String conversions for domain IDs
func (id StudyID) String() string { return ID(id).String() }
func (id SweepID) String() string { return ID(id).String() }

// ParseUnitKey parses a string into a UnitKey
func ParseUnitKey(s string) (UnitKey, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("unit key cannot be empty")
	}
	return UnitKey(s), nil
}
