// Package common defines shared constants and sentinel errors used across
// the farmhand server. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// Registration errors.
	ErrDuplicateUsername = errors.New("a user with this username already exists")
	ErrDuplicateEmail    = errors.New("a user with this email already exists")

	// Login errors. ErrUserNotFound and ErrBadCredentials stay inside the
	// credential check; callers outside it only ever see ErrInvalidCredentials.
	ErrUserNotFound       = errors.New("user not found")
	ErrBadCredentials     = errors.New("bad credentials")
	ErrInvalidCredentials = errors.New("invalid username or password")

	// Field errors.
	ErrFieldExists   = errors.New("field already exists")
	ErrFieldNotFound = errors.New("field not found")

	// Token errors. The request filter absorbs all of them.
	ErrMalformedToken    = errors.New("malformed token")
	ErrSignatureMismatch = errors.New("token signature mismatch")
	ErrTokenExpired      = errors.New("token expired")

	// Startup errors.
	ErrSigningKeyUnavailable = errors.New("signing key unavailable")
)
