package archive

import (
	"encoding/json"
	"fmt"
)

// ManifestName is the archive entry holding the manifest. It is always the
// first entry.
const ManifestName = "manifest.json"

// ManifestVersion is written into every new manifest.
const ManifestVersion = "1"

// Manifest lists the files of a bundle with their digests.
type Manifest struct {
	Version string      `json:"version"`
	Name    string      `json:"name"`
	RunID   string      `json:"run_id,omitempty"`
	Files   []FileEntry `json:"files"`
}

// FileEntry describes one bundled file. Path is slash-separated and relative
// to the bundle root.
type FileEntry struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
}

// ParseManifest decodes and checks a manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ManifestName, err)
	}
	if m.Version != ManifestVersion {
		return nil, fmt.Errorf("unsupported manifest version %q", m.Version)
	}
	seen := make(map[string]bool, len(m.Files))
	for _, f := range m.Files {
		if seen[f.Path] {
			return nil, fmt.Errorf("manifest lists %s twice", f.Path)
		}
		seen[f.Path] = true
	}
	return &m, nil
}

// Lookup returns the entry for path.
func (m *Manifest) Lookup(path string) (FileEntry, bool) {
	for _, f := range m.Files {
		if f.Path == path {
			return f, true
		}
	}
	return FileEntry{}, false
}
