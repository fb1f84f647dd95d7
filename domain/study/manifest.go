// Package study defines the reproducibility manifest attached to every
// estimation result. The manifest pins everything that determines the
// output: the treated unit, the windows, the pool composition, and the
// mapping revision the records were canonicalized under. Two runs with
// equal manifests must produce equal estimates.
package study

import (
	"fmt"
	"strings"

	"synthcap/domain/core"
	"synthcap/domain/panel"
)

// Manifest is the determinism record for one estimation pass.
type Manifest struct {
	StudyID core.StudyID `json:"study_id"`

	Treated   core.UnitKey `json:"treated"`
	Treatment core.Period  `json:"treatment"`
	Pre       panel.Window `json:"pre_window"`
	Post      panel.Window `json:"post_window"`

	Variant  string    `json:"variant"`
	PoolHash core.Hash `json:"pool_hash"`

	MappingVersion string `json:"mapping_version,omitempty"`

	// FitFingerprint ties the manifest to the weights and synthetic
	// series actually produced under it.
	FitFingerprint core.Hash `json:"fit_fingerprint"`

	// Hash covers every field above; equal hashes mean equal studies.
	Hash core.Hash `json:"hash"`

	CreatedAt core.Timestamp `json:"created_at"`
}

// NewManifest builds and hashes a manifest.
func NewManifest(
	studyID core.StudyID,
	treated core.UnitKey,
	treatment core.Period,
	pre, post panel.Window,
	variant string,
	poolHash core.Hash,
	mappingVersion string,
	fitFingerprint core.Hash,
) *Manifest {
	m := &Manifest{
		StudyID:        studyID,
		Treated:        treated,
		Treatment:      treatment,
		Pre:            pre,
		Post:           post,
		Variant:        variant,
		PoolHash:       poolHash,
		MappingVersion: mappingVersion,
		FitFingerprint: fitFingerprint,
		CreatedAt:      core.Now(),
	}
	m.Hash = m.computeHash()
	return m
}

func (m *Manifest) computeHash() core.Hash {
	var data strings.Builder
	data.WriteString(m.Treated.String())
	data.WriteString("|")
	data.WriteString(fmt.Sprintf("%d", m.Treatment))
	data.WriteString("|")
	data.WriteString(m.Pre.String())
	data.WriteString("|")
	data.WriteString(m.Post.String())
	data.WriteString("|")
	data.WriteString(m.Variant)
	data.WriteString("|")
	data.WriteString(m.PoolHash.String())
	data.WriteString("|")
	data.WriteString(m.MappingVersion)
	data.WriteString("|")
	data.WriteString(m.FitFingerprint.String())
	return core.NewHash([]byte(data.String()))
}

// Validate checks the manifest is complete enough to reproduce the study.
func (m *Manifest) Validate() error {
	if m.StudyID == "" {
		return fmt.Errorf("manifest: study_id cannot be empty")
	}
	if m.Treated == "" {
		return fmt.Errorf("manifest: treated cannot be empty")
	}
	if m.Variant == "" {
		return fmt.Errorf("manifest: variant cannot be empty")
	}
	if m.PoolHash.IsEmpty() {
		return fmt.Errorf("manifest: pool_hash cannot be empty")
	}
	if m.FitFingerprint.IsEmpty() {
		return fmt.Errorf("manifest: fit_fingerprint cannot be empty")
	}
	return nil
}

// SameStudy reports whether two manifests describe the same estimation,
// ignoring identity and timing.
func (m *Manifest) SameStudy(other *Manifest) bool {
	return other != nil && m.Hash == other.Hash
}
