// Package common defines shared sentinel errors used across the server
// layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Validation errors (blank or malformed request fields).
	ErrorValidation = errors.New("validation error")

	// Conflict errors.
	ErrorConflict      = errors.New("already exists")
	ErrorAlreadyShared = errors.New("already shared")
	ErrorNotShared     = errors.New("not shared")
	ErrorSelfShare     = errors.New("cannot share with owner")

	// Auth errors (invalid, expired or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
