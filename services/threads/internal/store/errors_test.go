package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/example/cinema-social/services/threads/internal/domain"
)

func TestMapError_Nil(t *testing.T) {
	t.Parallel()

	if got := mapError(nil, "op"); got != nil {
		t.Errorf("mapError(nil) = %v, want nil", got)
	}
}

func TestMapError_NoRows(t *testing.T) {
	t.Parallel()

	got := mapError(fmt.Errorf("scan: %w", pgx.ErrNoRows), "get comment")
	if !errors.Is(got, domain.ErrNotFound) {
		t.Errorf("mapError(ErrNoRows) does not wrap domain.ErrNotFound: %v", got)
	}
}

func TestMapError_PgCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{"unique_violation", "23505", domain.ErrIntegrity},
		{"foreign_key_violation", "23503", domain.ErrIntegrity},
		{"invalid_text_representation", "22P02", domain.ErrValidation},
		{"undefined_table", "42P01", domain.ErrStorage},
		{"connection_failure", "08006", domain.ErrStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := mapError(&pgconn.PgError{Code: tt.code}, "insert comment")
			if !errors.Is(got, tt.wantErr) {
				t.Errorf("mapError(code %s) = %v, want wrap of %v", tt.code, got, tt.wantErr)
			}
		})
	}
}

func TestMapError_ContextPassesThrough(t *testing.T) {
	t.Parallel()

	got := mapError(context.Canceled, "list children")
	if !errors.Is(got, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", got)
	}
	if domain.Retryable(got) {
		t.Error("context cancellation must not be reported as a storage failure")
	}
}

func TestMapError_UnknownIsStorage(t *testing.T) {
	t.Parallel()

	original := errors.New("connection reset")
	got := mapError(original, "list children")
	if !errors.Is(got, original) || !domain.Retryable(got) {
		t.Errorf("expected retryable storage error wrapping original, got %v", got)
	}
}
