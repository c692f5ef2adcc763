// Package cas stores pipeline outputs by content. Blobs are addressed by their
// SHA-256 digest; a BLAKE3 pointer file maps the BLAKE3 digest of the same
// content back to its SHA-256 address.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/zeebo/blake3"

	"github.com/versekit/versekit/core/errors"
)

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

// tempFileWrite is a function variable for writing to temp files (for testing).
var tempFileWrite = func(f *os.File, data []byte) (int, error) {
	return f.Write(data)
}

// tempFileClose is a function variable for closing temp files (for testing).
var tempFileClose = func(f io.Closer) error {
	return f.Close()
}

// ErrBlobNotFound is returned when no blob exists for a digest.
var ErrBlobNotFound = fmt.Errorf("blob %w", errors.ErrNotFound)

// ErrInvalidDigest is returned when a digest is not 64 lowercase hex characters.
var ErrInvalidDigest = fmt.Errorf("digest %w", errors.ErrInvalidInput)

var digestPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Digest holds both content digests of a blob.
type Digest struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
}

// Sum computes the digests of data without storing it.
func Sum(data []byte) Digest {
	s := sha256.Sum256(data)
	b := blake3.Sum256(data)
	return Digest{
		SHA256: hex.EncodeToString(s[:]),
		BLAKE3: hex.EncodeToString(b[:]),
	}
}

type blake3Pointer struct {
	SHA256 string `json:"sha256"`
}

// Store is a content-addressed blob store rooted at a directory.
type Store struct {
	root string
}

// Open opens the store at root, creating its layout if needed.
func Open(root string) (*Store, error) {
	for _, dir := range []string{"sha256", "blake3"} {
		if err := os.MkdirAll(filepath.Join(root, "blobs", dir), 0755); err != nil {
			return nil, errors.NewIO("create", root, err)
		}
	}
	return &Store{root: root}, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// Put stores data and returns its digests. Storing the same content again is
// a no-op.
func (s *Store) Put(data []byte) (Digest, error) {
	d := Sum(data)

	blobPath := s.blobPath(d.SHA256)
	if _, err := os.Stat(blobPath); err != nil {
		if err := writeAtomic(blobPath, ".blob-*", data); err != nil {
			return Digest{}, fmt.Errorf("failed to store blob: %w", err)
		}
	}

	pointerPath := s.pointerPath(d.BLAKE3)
	if _, err := os.Stat(pointerPath); err != nil {
		ptr, err := json.Marshal(blake3Pointer{SHA256: d.SHA256})
		if err != nil {
			return Digest{}, fmt.Errorf("failed to marshal pointer: %w", err)
		}
		if err := writeAtomic(pointerPath, ".pointer-*", ptr); err != nil {
			return Digest{}, fmt.Errorf("failed to store BLAKE3 pointer: %w", err)
		}
	}

	return d, nil
}

// Get returns the blob with the given SHA-256 digest.
func (s *Store) Get(sha string) ([]byte, error) {
	if !digestPattern.MatchString(sha) {
		return nil, ErrInvalidDigest
	}
	data, err := os.ReadFile(s.blobPath(sha))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, errors.NewIO("read", s.blobPath(sha), err)
	}
	return data, nil
}

// GetByBlake3 resolves a BLAKE3 digest through its pointer file and returns
// the blob.
func (s *Store) GetByBlake3(b3 string) ([]byte, error) {
	if !digestPattern.MatchString(b3) {
		return nil, ErrInvalidDigest
	}
	raw, err := os.ReadFile(s.pointerPath(b3))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, errors.NewIO("read", s.pointerPath(b3), err)
	}
	var ptr blake3Pointer
	if err := json.Unmarshal(raw, &ptr); err != nil {
		return nil, fmt.Errorf("failed to parse pointer %s: %w", b3, err)
	}
	return s.Get(ptr.SHA256)
}

// Has reports whether a blob with the given SHA-256 digest exists.
func (s *Store) Has(sha string) bool {
	if !digestPattern.MatchString(sha) {
		return false
	}
	_, err := os.Stat(s.blobPath(sha))
	return err == nil
}

// Verify re-hashes the stored blob and compares it with d.
func (s *Store) Verify(d Digest) error {
	data, err := s.Get(d.SHA256)
	if err != nil {
		return err
	}
	if got := Sum(data); got != d {
		return errors.NewValidation("digest", fmt.Sprintf("blob %s is corrupt: content hashes to %s", d.SHA256, got.SHA256))
	}
	return nil
}

// blobPath is <root>/blobs/sha256/<first2>/<digest>.
func (s *Store) blobPath(sha string) string {
	return filepath.Join(s.root, "blobs", "sha256", sha[:2], sha)
}

// pointerPath is <root>/blobs/blake3/<first2>/<digest>.json.
func (s *Store) pointerPath(b3 string) string {
	return filepath.Join(s.root, "blobs", "blake3", b3[:2], b3+".json")
}

func writeAtomic(path, pattern string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tempFileWrite(tmp, data); err != nil {
		tempFileClose(tmp)
		os.Remove(tmpPath)
		return err
	}
	if err := tempFileClose(tmp); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := osRename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
