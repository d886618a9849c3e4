package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a malformed or out-of-bounds input field.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals a missing venue.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateVenue signals two catalog entries sharing an identifier.
	ErrDuplicateVenue = errors.New("duplicate venue id")
	// ErrCatalogUnavailable signals that no catalog snapshot has been loaded yet.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrGeocodeFailed signals that an address could not be resolved to a coordinate.
	ErrGeocodeFailed = errors.New("geocode failed")
	// ErrUpstream signals a failure of an external provider (Overpass, Nominatim).
	ErrUpstream = errors.New("upstream provider error")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)

// ValidationError wraps ErrValidation with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for a field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NewValidationErrorf creates a validation error with a formatted reason.
func NewValidationErrorf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
