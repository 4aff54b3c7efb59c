package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig signals a board configuration that cannot be executed.
	ErrInvalidConfig = errors.New("invalid board config")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrUnavailable signals a document whose properties could not be read.
	ErrUnavailable = errors.New("document properties unavailable")
	// ErrCancelled signals a drop resolution dismissed by the user.
	ErrCancelled = errors.New("resolution cancelled")
	// ErrResolutionActive signals a second resolution attempt on a document
	// that already has one outstanding.
	ErrResolutionActive = errors.New("resolution already in progress")
	// ErrResolutionNotFound signals an unknown or expired resolution token.
	ErrResolutionNotFound = errors.New("resolution not found")
	// ErrWriteFailed signals a property-store write failure.
	ErrWriteFailed = errors.New("property write failed")
	// ErrReadonlyAxis signals a drop targeting an axis marked readonly.
	ErrReadonlyAxis = errors.New("axis is readonly")
)

// ConfigFieldError wraps ErrInvalidConfig with the offending field name.
type ConfigFieldError struct {
	Field  string
	Reason string
}

func (e *ConfigFieldError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfig.Error(), e.Field, e.Reason)
}

func (e *ConfigFieldError) Unwrap() error { return ErrInvalidConfig }

// NewConfigFieldError creates a config error for a single field.
func NewConfigFieldError(field, reason string) error {
	return &ConfigFieldError{Field: field, Reason: reason}
}
