// Package domain provides shared domain-level sentinel errors.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested entity does not exist for the caller.
// A record owned by another tenant is reported the same way.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates the write collides with existing state (slot already taken).
var ErrConflict = errors.New("conflict")

// ErrValidation indicates malformed or missing input.
var ErrValidation = errors.New("validation")

// ErrStore indicates an underlying storage failure.
var ErrStore = errors.New("store")

// Validation returns an error wrapping ErrValidation with the formatted message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Conflict returns an error wrapping ErrConflict with the formatted message.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// StoreError wraps a driver failure so callers can match it with errors.Is(err, ErrStore)
// while the original cause stays reachable through errors.As.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStore, e.Err}
}

// Kind returns a short, tenant-neutral label for err, suitable for logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrStore):
		return "store"
	default:
		return "internal"
	}
}
