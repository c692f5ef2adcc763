package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/versekit/versekit/core/cas"
	"github.com/versekit/versekit/core/errors"
)

var xzNewReader = xz.NewReader

// Reader wraps a tar.Reader over an xz-compressed bundle.
type Reader struct {
	*tar.Reader
	file *os.File
}

// NewReader opens the .tar.xz bundle at path.
func NewReader(path string) (*Reader, error) {
	if !strings.HasSuffix(path, ".tar.xz") {
		return nil, errors.NewUnsupported("archive format", path+" is not a .tar.xz bundle")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	xzr, err := xzNewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("xz reader: %w", err)
	}
	return &Reader{Reader: tar.NewReader(xzr), file: f}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Visitor is called for each entry. Return true to stop iteration.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate walks through all entries in the bundle.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}
		stop, err := visitor(header, r)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// ReadFile returns the content of one entry.
func ReadFile(bundlePath, name string) ([]byte, error) {
	r, err := NewReader(bundlePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var content []byte
	found := false
	err = r.Iterate(func(h *tar.Header, body io.Reader) (bool, error) {
		if h.Name != name {
			return false, nil
		}
		found = true
		data, readErr := io.ReadAll(body)
		content = data
		return true, readErr
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NewNotFound("bundle entry", name)
	}
	return content, nil
}

// Verify re-hashes every entry of the bundle and compares it with the
// manifest. Missing, unlisted and corrupt entries are all reported.
func Verify(bundlePath string) (*Manifest, error) {
	r, err := NewReader(bundlePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var (
		m        *Manifest
		problems []string
		seen     = map[string]bool{}
	)
	err = r.Iterate(func(h *tar.Header, body io.Reader) (bool, error) {
		data, err := io.ReadAll(body)
		if err != nil {
			return true, fmt.Errorf("read %s: %w", h.Name, err)
		}
		if m == nil {
			if h.Name != ManifestName {
				return true, errors.NewValidation("bundle", fmt.Sprintf("first entry is %s, want %s", h.Name, ManifestName))
			}
			m, err = ParseManifest(data)
			return err != nil, err
		}

		seen[h.Name] = true
		want, ok := m.Lookup(h.Name)
		if !ok {
			problems = append(problems, h.Name+": not listed in manifest")
			return false, nil
		}
		got := cas.Sum(data)
		if got.SHA256 != want.SHA256 || got.BLAKE3 != want.BLAKE3 || int64(len(data)) != want.Size {
			problems = append(problems, h.Name+": content does not match manifest digest")
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.NewValidation("bundle", "bundle is empty")
	}
	for _, f := range m.Files {
		if !seen[f.Path] {
			problems = append(problems, f.Path+": missing from bundle")
		}
	}
	if len(problems) > 0 {
		return m, errors.NewValidation("bundle", strings.Join(problems, "; "))
	}
	return m, nil
}
