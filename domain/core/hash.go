package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// ComputeFingerprint hashes an ordered set of labeled float values.
// Fit results and sweep cells use it so identical inputs can be shown
// to have produced identical outputs across runs.
func ComputeFingerprint(labels []string, values []float64) Hash {
	var data strings.Builder
	for i, label := range labels {
		data.WriteString(label)
		if i < len(values) {
			data.WriteString(fmt.Sprintf("=%.12g;", values[i]))
		}
	}
	return NewHash([]byte(data.String()))
}

// ComputePoolHash hashes a donor-pool composition, order included, since
// weight vectors are positional.
func ComputePoolHash(treated UnitKey, donors []UnitKey) Hash {
	var data strings.Builder
	data.WriteString(treated.String())
	data.WriteString("|")
	data.WriteString(joinUnits(donors))
	return NewHash([]byte(data.String()))
}

// ComputeMappingHash hashes a canonical-name mapping so resolver versions
// can be pinned in study results.
func ComputeMappingHash(mapping map[string]string) Hash {
	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteString("->")
		data.WriteString(mapping[key])
		data.WriteString(";")
	}
	return NewHash([]byte(data.String()))
}

func joinUnits(units []UnitKey) string {
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = u.String()
	}
	return strings.Join(parts, ",")
}
