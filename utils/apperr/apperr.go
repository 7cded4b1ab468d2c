// Package apperr defines the sentinel errors shared by the service layer.
// Handlers translate them into HTTP status codes; services wrap them with
// fmt.Errorf("%w: ...") to add context without losing the classification.
package apperr

import "errors"

var (
	// ErrValidation marks malformed, missing or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthenticated marks bad or missing credentials.
	ErrUnauthenticated = errors.New("authentication failed")
	// ErrForbidden marks a valid identity with the wrong role or ownership.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a uniqueness or state violation.
	ErrConflict = errors.New("conflict")
)
