package gateway

import "errors"

var (
	// ErrUnavailable means the server could not be reached at all.
	ErrUnavailable = errors.New("server unavailable")
	// ErrAuthRequired means the session is gone and the user must log
	// in again. Callers clear local state when they see it.
	ErrAuthRequired = errors.New("authentication required")
	// ErrUnauthorized means the caller lacks permission for the
	// operation but the session itself is still valid.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotImplemented marks operations the server does not support
	// yet, such as documents and memories.
	ErrNotImplemented = errors.New("not implemented")
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	// ErrPinMismatch is returned when a submitted PIN does not match
	// the stored one.
	ErrPinMismatch = errors.New("pin mismatch")
)
