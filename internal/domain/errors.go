package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared across the repository and service layers. Handlers
// map these onto HTTP statuses; anything unrecognized becomes a generic 500
// with the detail kept server-side.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrDuplicate    = errors.New("already exists")
	// ErrUpstream marks a failure in an external collaborator (database,
	// push provider, mail relay, object store).
	ErrUpstream = errors.New("upstream failure")
)

// ValidationError reports a missing or malformed input field. Its message is
// safe to surface verbatim to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
