// Package common defines shared constants and sentinel errors used across
// the authcore server and client. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound     = errors.New("not found")
	ErrDuplicateEmail = errors.New("duplicate email")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorConflict     = errors.New("email exists")

	// ErrIntegrityAnomaly marks a session token whose owner no longer exists.
	// It is logged server-side and never returned to callers.
	ErrIntegrityAnomaly = errors.New("integrity anomaly")

	// Token codec errors.
	ErrInvalidToken = errors.New("invalid token")
)
