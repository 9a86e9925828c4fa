package errors

import (
	"errors"
)

// Sentinel errors for different categories
var (
	// ErrNotConnected - no Google account is linked to the session (client error, never retried)
	ErrNotConnected = errors.New("google not connected")

	// ErrUpstream - Google API call failed (network/auth); surfaced as service-unavailable, never cached as empty
	ErrUpstream = errors.New("upstream unavailable")

	// ErrInvalidInput - malformed trigger type, missing tool argument, unknown calendar id
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound - resource or tool not found
	ErrNotFound = errors.New("not found")

	// ErrReadonly - write attempted against a view-only calendar or event
	ErrReadonly = errors.New("readonly resource")

	// ErrInternal - internal error (generic message to the caller)
	ErrInternal = errors.New("internal error")
)
