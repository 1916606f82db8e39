package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for malformed input. Use errors.Is to check for them.
var (
	ErrDuplicateRowID       = errors.New("model: duplicate row id")
	ErrMissingProtocolField = errors.New("model: missing protocol field")
	ErrUnknownProtocol      = errors.New("model: unknown protocol kind")
	ErrInvalidPosition      = errors.New("model: invalid finding position")
)

// ValidationError reports input that the core refuses to coerce.
type ValidationError struct {
	Field  string // offending field or identifier
	Reason string
	Err    error // one of the sentinels above
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(field, reason string, err error) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Err: err}
}

// DuplicateRowID builds the error returned when two rows share an id.
func DuplicateRowID(id string) *ValidationError {
	return newValidationError("id", fmt.Sprintf("row id %q is not unique", id), ErrDuplicateRowID)
}
