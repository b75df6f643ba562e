package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// New creates an empty manifest with defaults.
func New(profileName string) *Manifest {
	return &Manifest{
		Version:     SupportedManifestVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Profile:     profileName,
		BasePath:    "./",
		Assets:      make(map[string]Asset),
	}
}

// ComputeStats recalculates aggregate statistics from assets. The
// regression skip count is carried over since it has no per-asset record.
func (m *Manifest) ComputeStats() {
	s := Stats{SkippedRegress: m.Stats.SkippedRegress}
	s.TotalAssets = len(m.Assets)
	s.TotalFailures = len(m.Failures)
	for _, a := range m.Assets {
		s.TotalInputBytes += a.Original.Size
		s.TotalVariants += len(a.Variants)
		for _, v := range a.Variants {
			s.TotalOutputBytes += v.Size
		}
	}
	m.Stats = s
}

// WriteJSON serializes the manifest to a JSON file with stable ordering.
func WriteJSON(m *Manifest, path string) error {
	m.ComputeStats()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// Read parses a manifest file. Unknown fields are ignored.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Assets == nil {
		m.Assets = make(map[string]Asset)
	}
	return &m, nil
}
