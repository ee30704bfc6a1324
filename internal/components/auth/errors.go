package auth

import (
	"errors"
	"fmt"
)

// Client-facing error taxonomy. The service is the only layer that produces
// these; repositories and the hasher return raw or storage-level errors that
// the service classifies.

var (
	// ErrInvalidCredentials is the single generic login failure. Unknown
	// username and wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = &AuthenticationError{Message: "invalid username or password"}

	// ErrSessionInvalid covers a missing, malformed, expired or revoked
	// session token, and tokens whose user no longer exists.
	ErrSessionInvalid = &AuthenticationError{Message: "authentication required"}
)

type (
	// ValidationError reports malformed input on a named field.
	ValidationError struct {
		Field   string
		Message string
	}

	// ConflictError reports a username or email already taken.
	ConflictError struct {
		Field   string
		Message string
	}

	// AuthenticationError reports bad credentials or an invalid session.
	AuthenticationError struct {
		Message string
	}
)

func (e *ValidationError) Error() string     { return e.Message }
func (e *ConflictError) Error() string       { return e.Message }
func (e *AuthenticationError) Error() string { return e.Message }

// Storage-level sentinels returned by repositories. These never reach the
// transport boundary; the service maps them into the taxonomy above.

var ErrNotFound = errors.New("record not found")

// DuplicateKeyError reports a unique-index violation on the named field.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key on field %q", e.Field)
}
