package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrIntegrity  = errors.New("integrity violation")
	ErrStorage    = errors.New("storage unavailable")
	ErrForbidden  = errors.New("forbidden")
)

// ValidationError describes invalid caller input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// StorageError wraps a failure of the persistence substrate.
// Callers may retry with backoff; the service itself never retries.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

// NewStorageError wraps err as a StorageError for operation op.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// Retryable reports whether err may succeed if the caller retries unchanged.
func Retryable(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IntegrityErrorf returns an error wrapping ErrIntegrity.
func IntegrityErrorf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrIntegrity)
}

// NotFoundErrorf returns an error wrapping ErrNotFound.
func NotFoundErrorf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}
