package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicate indicates a uniqueness violation.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleEntity indicates the entity changed on the server since the
	// client last fetched it.
	ErrStaleEntity = errors.New("entity changed on server, reload and retry")
	// ErrForbidden indicates the actor lacks the capability behind an action.
	ErrForbidden = errors.New("capability denied")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("invalid input")
	// ErrInvalidState occurs when an operation violates the status workflow.
	ErrInvalidState = errors.New("invalid state for operation")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
