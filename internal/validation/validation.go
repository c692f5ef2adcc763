// Package validation checks operator-supplied paths and names before any
// pass reads or writes a file.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/versekit/versekit/core/errors"
)

const (
	// MaxFileSize is the largest input document read into memory (256 MB).
	MaxFileSize = 256 << 20
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Validation errors. Each wraps errors.ErrInvalidInput.
var (
	ErrEmptyPath        = fmt.Errorf("%w: path cannot be empty", errors.ErrInvalidInput)
	ErrPathTooLong      = fmt.Errorf("%w: path too long", errors.ErrInvalidInput)
	ErrInvalidCharacter = fmt.Errorf("%w: invalid character in path", errors.ErrInvalidInput)
	ErrPathTraversal    = fmt.Errorf("%w: path escapes working directory", errors.ErrInvalidInput)
	ErrInvalidName      = fmt.Errorf("%w: invalid name", errors.ErrInvalidInput)
	ErrFileTooLarge     = fmt.Errorf("%w: file too large", errors.ErrInvalidInput)
)

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]*$`)

// ValidatePath checks length and rejects control characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character in %q", ErrInvalidCharacter, path)
		}
	}
	return nil
}

// ResolveUnder joins a descriptor-relative path onto baseDir and rejects
// paths that would leave it.
func ResolveUnder(baseDir, rel string) (string, error) {
	if err := ValidatePath(rel); err != nil {
		return "", err
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: %s is absolute", ErrPathTraversal, rel)
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, rel)
	}
	return filepath.Join(baseDir, clean), nil
}

// ValidateName checks a pass, source or output name: lowercase letters,
// digits, '.', '_' and '-', starting with a letter or digit.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w %q: use lowercase letters, digits, '.', '_' or '-'", ErrInvalidName, name)
	}
	return nil
}

// CheckFileSize rejects files larger than MaxFileSize.
func CheckFileSize(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.NewIO("stat", path, err)
	}
	if info.Size() > MaxFileSize {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, path, info.Size(), MaxFileSize)
	}
	return nil
}
