// Package errors provides the error vocabulary for the fitloom pipeline.
//
// This package defines:
//   - Sentinel errors for all error conditions
//   - Typed errors carrying file/table context (ParseError, SchemaError, WriteError)
//   - Category checking functions used by the run loop to decide between
//     skip-and-continue and abort
//   - Error wrapping utilities
package errors

import (
	"errors"
	"fmt"
)

// ============================================================================
// Sentinel errors
// ============================================================================

var (
	// Fatal conditions. A run hitting one of these produces no output.
	ErrSourceNotFound = errors.New("source directory not found")
	ErrRunLocked      = errors.New("output directory locked by another run")
	ErrNoOutput       = errors.New("no snapshot could be written")

	// Recoverable per-file conditions. The offending file is skipped.
	ErrUnknownShape     = errors.New("no known shape matched")
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidValue     = errors.New("invalid value")

	// Query-side conditions.
	ErrSnapshotMissing = errors.New("snapshot not found")
	ErrUnknownColumn   = errors.New("unknown summary column")
	ErrUnknownTable    = errors.New("unknown table")
)

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// ============================================================================
// Typed errors
// ============================================================================

// ParseError reports that one source file's content did not match any known
// shape for its family. It is always recoverable: the caller logs it and
// moves on to the next file.
type ParseError struct {
	Path  string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// NewParseError wraps cause as a ParseError for the given file.
func NewParseError(path string, cause error) error {
	return &ParseError{Path: path, Cause: cause}
}

// SchemaError reports that a required field was absent or unparseable after
// the file itself decoded. It propagates exactly like ParseError.
type SchemaError struct {
	Path  string
	Field string
	Cause error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %s: field %q: %v", e.Path, e.Field, e.Cause)
}

func (e *SchemaError) Unwrap() error { return e.Cause }

// NewSchemaError creates a SchemaError for a missing required field.
func NewSchemaError(path, field string) error {
	return &SchemaError{Path: path, Field: field, Cause: ErrMissingField}
}

// NewSchemaErrorCause creates a SchemaError with an explicit cause, used when
// a required field is present but unparseable.
func NewSchemaErrorCause(path, field string, cause error) error {
	return &SchemaError{Path: path, Field: field, Cause: cause}
}

// WriteError reports that the atomic replace of one snapshot table failed.
// It is fatal for that table's output only; remaining tables still run.
type WriteError struct {
	Table string
	Cause error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write snapshot %s: %v", e.Table, e.Cause)
}

func (e *WriteError) Unwrap() error { return e.Cause }

// NewWriteError wraps cause as a WriteError for the given table.
func NewWriteError(table string, cause error) error {
	return &WriteError{Table: table, Cause: cause}
}

// ============================================================================
// Category checks
// ============================================================================

// IsRecoverable returns true if err is a per-file condition the run loop
// handles by skipping the file.
func IsRecoverable(err error) bool {
	var pe *ParseError
	var se *SchemaError
	return errors.As(err, &pe) || errors.As(err, &se)
}

// IsFatal returns true if err must abort the run before producing output.
func IsFatal(err error) bool {
	return errors.Is(err, ErrSourceNotFound) ||
		errors.Is(err, ErrRunLocked) ||
		errors.Is(err, ErrNoOutput)
}

// IsWrite returns true if err is a per-table write failure.
func IsWrite(err error) bool {
	var we *WriteError
	return errors.As(err, &we)
}

// ============================================================================
// Error wrapping utilities
// ============================================================================

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
