package common

import "errors"

// Callers should match these values with errors.Is.
var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors.
	ErrInternal       = errors.New("internal error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrAlreadyExists  = errors.New("already exists")
	ErrNotImplemented = errors.New("not implemented")

	// Validation errors. These are rejected before any network or DB call.
	ErrNameRequired     = errors.New("name must not be empty")
	ErrInvalidPinFormat = errors.New("pin must be 4 to 6 digits")
	ErrPinMismatch      = errors.New("current pin is incorrect")

	// Token lifecycle errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
