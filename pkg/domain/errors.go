package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Handlers map these onto HTTP status codes; nothing
// finer-grained than ErrAuthentication is ever exposed in a response.
var (
	ErrConflict       = errors.New("organization already exists")
	ErrNotFound       = errors.New("not found")
	ErrAuthentication = errors.New("authentication failed")
	ErrForbidden      = errors.New("not authorized for this organization")
	ErrUnavailable    = errors.New("store unavailable")
	ErrValidation     = errors.New("invalid input")
)

// Internal refinements of ErrAuthentication. Each satisfies
// errors.Is(err, ErrAuthentication), so callers outside the auth packages
// cannot tell an expired token from a revoked one or a bad signature.
var (
	ErrInvalidCredentials = authErr("invalid credentials")
	ErrInvalidToken       = authErr("invalid token")
	ErrTokenRevoked       = authErr("token revoked")
	ErrAccountLocked      = authErr("account locked due to too many failed login attempts")
	ErrAccountInactive    = authErr("account inactive")
	ErrMFARequired        = authErr("multi-factor authentication required")
	ErrInvalidMFACode     = authErr("invalid MFA code")
)

// Partition-scoped errors. Both are in the ErrNotFound family.
var (
	ErrAdminNotFound  = fmt.Errorf("admin %w", ErrNotFound)
	ErrRecordNotFound = fmt.Errorf("record %w", ErrNotFound)
)

type authError struct {
	msg string
}

func authErr(msg string) error { return &authError{msg: msg} }

func (e *authError) Error() string { return e.msg }

// Is makes every auth failure indistinguishable under errors.Is.
func (e *authError) Is(target error) bool { return target == ErrAuthentication }
