package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/example/cinema-social/internal/platform/api"
)

// IsAdmin reports whether RequireUser (or the gRPC interceptor) recorded
// the admin role in ctx.
func IsAdmin(ctx context.Context) bool {
	role, _ := RoleFromContext(ctx)
	return strings.EqualFold(strings.TrimSpace(role), "admin")
}

// RequireAdmin gates operator endpoints. It must run after RequireUser.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			api.Forbidden(w, api.CodeForbidden, "admin role required", r.Header.Get("X-Request-Id"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
