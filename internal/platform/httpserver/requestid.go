package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const maxRequestIDLen = 128

type ctxKeyRequestID struct{}

func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return v
}

// RequestIDMiddleware propagates the caller's request id, or mints a UUIDv7
// when it is missing or unusable, and echoes it in the response header.
func RequestIDMiddleware(headerName string) func(next http.Handler) http.Handler {
	if strings.TrimSpace(headerName) == "" {
		headerName = "X-Request-Id"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get(headerName))
			if !validRequestID(rid) {
				rid = newRequestID()
			}
			r.Header.Set(headerName, rid)
			w.Header().Set(headerName, rid)
			ctx := context.WithValue(r.Context(), ctxKeyRequestID{}, rid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newRequestID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// validRequestID accepts short visible-ASCII ids so they are safe to log.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}
