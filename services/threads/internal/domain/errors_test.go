package domain

import (
	"context"
	"errors"
	"testing"
)

func TestValidationError_Unwrap(t *testing.T) {
	err := NewValidationError("content", "must not be empty")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err.Error() != "validation: content: must not be empty" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if Retryable(err) {
		t.Fatal("validation errors must not be retryable")
	}
}

func TestStorageError_UnwrapsBoth(t *testing.T) {
	err := NewStorageError("put comment", context.DeadlineExceeded)
	if !errors.Is(err, ErrStorage) {
		t.Fatal("expected ErrStorage")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("expected cause to be preserved")
	}
	if !Retryable(err) {
		t.Fatal("storage errors are retryable")
	}
}

func TestIntegrityAndNotFound(t *testing.T) {
	if !errors.Is(IntegrityErrorf("parent %s", "x"), ErrIntegrity) {
		t.Fatal("expected ErrIntegrity")
	}
	if !errors.Is(NotFoundErrorf("comment %s", "x"), ErrNotFound) {
		t.Fatal("expected ErrNotFound")
	}
}
