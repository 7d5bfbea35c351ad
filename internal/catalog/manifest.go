package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestVersion is the manifest format written by this package.
const ManifestVersion = 1

// ManifestFilename is the name of the manifest at the catalog root.
const ManifestFilename = "manifest.json"

// Manifest describes a built gene set catalog.
type Manifest struct {
	Version     int           `json:"version"`
	Libraries   []LibraryInfo `json:"libraries"`
	BuiltAt     time.Time     `json:"built_at"`
	Compression string        `json:"compression"`
}

// LibraryInfo describes one library in a catalog.
type LibraryInfo struct {
	Name   string `json:"name"`
	Source string `json:"source,omitempty"`
	Sets   int    `json:"sets"`
	Genes  int    `json:"genes"`
	Bytes  int64  `json:"bytes"`

	// Sizes holds every set's member count in library order.
	Sizes []int `json:"sizes,omitempty"`
}

// Library returns the named library entry.
func (m *Manifest) Library(name string) (LibraryInfo, bool) {
	for _, l := range m.Libraries {
		if l.Name == name {
			return l, true
		}
	}
	return LibraryInfo{}, false
}

// Names returns the library names in manifest order.
func (m *Manifest) Names() []string {
	names := make([]string, len(m.Libraries))
	for i, l := range m.Libraries {
		names[i] = l.Name
	}
	return names
}

// WriteManifest writes the manifest to the catalog directory.
func WriteManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFilename), data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// ReadManifest reads the manifest from a catalog directory.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFilename))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Version != ManifestVersion {
		return nil, fmt.Errorf("unsupported manifest version %d", m.Version)
	}
	return &m, nil
}
