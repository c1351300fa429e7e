package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/example/cinema-social/internal/platform/api"
	"github.com/example/cinema-social/services/threads/internal/domain"
)

// RetryAfter is advertised on storage failures.
const RetryAfter = time.Second

// writeServiceError maps the domain error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, rid string, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		api.BadRequest(w, api.CodeValidation, verr.Message, rid, map[string]any{"field": verr.Field})
	case errors.Is(err, domain.ErrValidation):
		api.BadRequest(w, api.CodeValidation, err.Error(), rid, nil)
	case errors.Is(err, domain.ErrNotFound):
		api.NotFound(w, api.CodeNotFound, "comment not found", rid)
	case errors.Is(err, domain.ErrIntegrity):
		api.Conflict(w, api.CodeConflict, err.Error(), rid, nil)
	case errors.Is(err, domain.ErrForbidden):
		api.Forbidden(w, api.CodeForbidden, "not the author of this comment", rid)
	case errors.Is(err, domain.ErrStorage), errors.Is(err, context.DeadlineExceeded):
		api.Unavailable(w, api.CodeUnavailable, "storage temporarily unavailable", rid, RetryAfter)
	default:
		api.Internal(w, rid)
	}
}
