package domain

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCursor indicates a persisted cursor could not be parsed.
	ErrInvalidCursor = errors.New("invalid cursor")

	// Pipeline Errors.

	// ErrUpstreamNotReady indicates a stage ran before one of its input
	// columns was populated, or before the record existed.
	ErrUpstreamNotReady = errors.New("upstream not ready")

	// ErrDuplicateKeyConflict indicates a record already exists for a key
	// with a different source locator.
	ErrDuplicateKeyConflict = errors.New("duplicate key conflict")

	// ErrUnsupportedFormat indicates no converter handles the source type.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrConversion indicates a converter failed on the source bytes.
	ErrConversion = errors.New("conversion error")

	// ErrStoreUnavailable indicates the record store failed an I/O operation.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrReferentialIntegrity indicates a relationship references a
	// document key that does not exist.
	ErrReferentialIntegrity = errors.New("referential integrity violation")
)

// Error kinds reported alongside failed stages.
const (
	KindUpstreamNotReady     = "UpstreamNotReady"
	KindDuplicateKeyConflict = "DuplicateKeyConflict"
	KindUnsupportedFormat    = "UnsupportedFormat"
	KindConversionError      = "ConversionError"
	KindStoreUnavailable     = "StoreUnavailable"
	KindReferentialIntegrity = "ReferentialIntegrityViolation"
	KindCancelled            = "Cancelled"
	KindUnknown              = "Unknown"
)

// ErrorKind maps an error chain to one of the stable kind names.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUpstreamNotReady):
		return KindUpstreamNotReady
	case errors.Is(err, ErrDuplicateKeyConflict):
		return KindDuplicateKeyConflict
	case errors.Is(err, ErrUnsupportedFormat):
		return KindUnsupportedFormat
	case errors.Is(err, ErrConversion):
		return KindConversionError
	case errors.Is(err, ErrStoreUnavailable):
		return KindStoreUnavailable
	case errors.Is(err, ErrReferentialIntegrity):
		return KindReferentialIntegrity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	default:
		return KindUnknown
	}
}

// StageError reports a failed (key, stage) execution.
type StageError struct {
	Key   string
	Stage StageName
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s for %q failed (%s): %v", e.Stage, e.Key, e.Kind(), e.Err)
}

// Unwrap returns the underlying cause.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Kind returns the error kind of the underlying cause.
func (e *StageError) Kind() string {
	return ErrorKind(e.Err)
}
