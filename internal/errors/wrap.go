package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Wrap wraps an error with context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", message, err)
}

// IsCategory checks if error belongs to specific category
func IsCategory(err error, category error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, category)
}

// NotConnected wraps a message as a not-connected error
func NotConnected(message string) error {
	return fmt.Errorf("%s: %w", message, ErrNotConnected)
}

// Upstream wraps a message as an upstream-unavailable error
func Upstream(message string) error {
	return fmt.Errorf("%s: %w", message, ErrUpstream)
}

// InvalidInput wraps a message as an invalid-input error
func InvalidInput(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInvalidInput)
}

// NotFound wraps a message as a not-found error
func NotFound(message string) error {
	return fmt.Errorf("%s: %w", message, ErrNotFound)
}

// Readonly wraps a message as a readonly-resource error
func Readonly(message string) error {
	return fmt.Errorf("%s: %w", message, ErrReadonly)
}

// Internal wraps a message as an internal error
func Internal(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInternal)
}

// HTTPStatus maps an error category to the status code the HTTP layer reports.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotConnected):
		return http.StatusConflict
	case errors.Is(err, ErrReadonly):
		return http.StatusForbidden
	case errors.Is(err, ErrUpstream):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
