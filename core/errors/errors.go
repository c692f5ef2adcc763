// Package errors provides the error taxonomy shared by every versekit pass.
//
// Structural failures (wrong line counts, unequal parallel files, unmatched or
// ambiguous merge keys) are typed so the CLI can name the offending line or key,
// and each type unwraps to a sentinel for errors.Is checks.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported indicates an unsupported operation, layout or kind
	ErrUnsupported = errors.New("unsupported")
	// ErrMalformedInput indicates a structural precondition of a pass was violated
	ErrMalformedInput = errors.New("malformed input")
	// ErrUnmatchedKey indicates a keyed merge found no auxiliary record
	ErrUnmatchedKey = errors.New("unmatched key")
	// ErrAmbiguousMerge indicates a keyed merge found more than one auxiliary record
	ErrAmbiguousMerge = errors.New("ambiguous merge")
)

// MalformedInputError reports a violated structural precondition: a line count
// that is not a multiple of the stride, parallel files of unequal length, or an
// auxiliary list that does not line up with the primary document.
type MalformedInputError struct {
	Source  string // Input being decoded (file name or logical role)
	Line    int    // First missing or offending line, 1-based; 0 when not line-oriented
	Message string
}

func (e *MalformedInputError) Error() string {
	src := e.Source
	if src == "" {
		src = "input"
	}
	if e.Line > 0 {
		return fmt.Sprintf("malformed %s at line %d: %s", src, e.Line, e.Message)
	}
	return fmt.Sprintf("malformed %s: %s", src, e.Message)
}

func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedInput
}

// UnmatchedKeyError reports primary records that found no auxiliary record.
type UnmatchedKeyError struct {
	Document string // Auxiliary document that was searched
	Key      string // First unmatched key
	Count    int    // Total number of unmatched keys (at least 1)
}

func (e *UnmatchedKeyError) Error() string {
	if e.Count > 1 {
		return fmt.Sprintf("no %s record for key %s (and %d more unmatched)", e.Document, e.Key, e.Count-1)
	}
	return fmt.Sprintf("no %s record for key %s", e.Document, e.Key)
}

func (e *UnmatchedKeyError) Unwrap() error {
	return ErrUnmatchedKey
}

// AmbiguousMergeError reports a key that matched several auxiliary records
// where exactly one was required.
type AmbiguousMergeError struct {
	Document string
	Key      string
	Count    int // Number of records that matched
}

func (e *AmbiguousMergeError) Error() string {
	return fmt.Sprintf("%d %s records match key %s, want exactly one", e.Count, e.Document, e.Key)
}

func (e *AmbiguousMergeError) Unwrap() error {
	return ErrAmbiguousMerge
}

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "layout", "pass", "document")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "JSON", "XML", "pipeline")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// UnsupportedError represents an unsupported feature, layout or document kind
type UnsupportedError struct {
	Feature string
	Reason  string
	Err     error
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// Helper functions for creating common errors

// NewMalformed creates a MalformedInputError
func NewMalformed(source string, line int, format string, args ...interface{}) *MalformedInputError {
	return &MalformedInputError{
		Source:  source,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewUnmatched creates an UnmatchedKeyError
func NewUnmatched(document, key string, count int) *UnmatchedKeyError {
	return &UnmatchedKeyError{
		Document: document,
		Key:      key,
		Count:    count,
	}
}

// NewAmbiguous creates an AmbiguousMergeError
func NewAmbiguous(document, key string, count int) *AmbiguousMergeError {
	return &AmbiguousMergeError{
		Document: document,
		Key:      key,
		Count:    count,
	}
}

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
