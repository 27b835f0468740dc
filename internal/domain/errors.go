package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput wraps field-level validation failures.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLocationUnavailable means no user coordinate was supplied.
	ErrLocationUnavailable = errors.New("location unavailable")

	// ErrBelowSeverityThreshold marks realtime alerts that are not pushed.
	ErrBelowSeverityThreshold = errors.New("below severity threshold")

	// ErrExpired marks realtime alerts that are inactive or past expiry.
	ErrExpired = errors.New("alert expired")

	// ErrInvalidTransition is returned for illegal damage assessment status changes.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUpstream wraps failures of an external service the request depended on.
	ErrUpstream = errors.New("upstream service failed")
)

// invalid builds an ErrInvalidInput for a single field.
func invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidInput, field, reason)
}
