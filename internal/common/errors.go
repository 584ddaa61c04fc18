// Package common defines shared constants and sentinel errors used across
// the CSE Motors server layers. Callers should use errors.Is to match these
// values; repositories and services wrap them with additional context.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Login errors. Unknown email and wrong password both map here.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token errors (invalid signature, malformed structure, unknown role).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
