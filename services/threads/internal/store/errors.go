package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/example/cinema-social/services/threads/internal/domain"
)

// ErrNotAuthor is returned when a user edits a comment they did not write.
var ErrNotAuthor = fmt.Errorf("comment not owned by user: %w", domain.ErrForbidden)

// mapError converts pgx/pgconn errors to domain errors.
// context.DeadlineExceeded and context.Canceled are NOT mapped, they pass through.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: duplicate comment id: %w", op, domain.ErrIntegrity)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s: parent comment missing: %w", op, domain.ErrIntegrity)
		case "22P02": // invalid_text_representation, e.g. malformed uuid
			return domain.NewValidationError("id", "malformed identifier")
		}
	}

	return domain.NewStorageError(op, err)
}
