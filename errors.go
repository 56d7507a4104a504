package tasknest

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateKey is returned when registration collides with an existing
	// email or username. Wrapped by [DuplicateKeyError] when the offending
	// field is known.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNotFound is returned when a login identifier matches no user.
	ErrNotFound = errors.New("user not found")
	// ErrMismatch is returned when the password does not verify against the
	// stored hash. A malformed stored hash is reported the same way.
	ErrMismatch = errors.New("incorrect password")
	// ErrUnauthenticated is returned by the auth guard when no valid
	// authenticated session backs the request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrEngineNotReady indicates the engine was used before Build completed.
	ErrEngineNotReady = errors.New("engine not fully configured")
	// ErrUsersUnavailable wraps credential-store failures that are not client
	// faults.
	ErrUsersUnavailable = errors.New("credential backend unavailable")
)

// DuplicateKeyError carries the unique field a registration collided on.
// It unwraps to [ErrDuplicateKey] so callers can match either way.
type DuplicateKeyError struct {
	Field string // "email" or "username"; empty when unknown
}

func (e *DuplicateKeyError) Error() string {
	if e.Field == "" {
		return ErrDuplicateKey.Error()
	}
	return fmt.Sprintf("duplicate key: %s already exists", e.Field)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }
