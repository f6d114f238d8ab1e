// Package apperrors provides standardized domain errors that express business
// intent rather than infrastructure details. Services return these sentinels
// (usually wrapped) and HTTP handlers map them to status codes in one place.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by all services.
var (
	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with current state (illegal transition,
	// duplicate payment, insufficient stock).
	ErrConflict = errors.New("conflict")

	// ErrForbidden indicates the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrUpstream indicates an external collaborator call failed.
	ErrUpstream = errors.New("upstream failure")
)

// Wrap wraps an error with additional context while preserving the error chain.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context while preserving the error chain.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
