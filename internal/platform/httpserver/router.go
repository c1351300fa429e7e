package httpserver

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig tunes the base router. The zero value is usable.
type RouterConfig struct {
	// ReadyFunc backs /readyz. Nil means always ready.
	ReadyFunc func() error
	// CORSOrigins is a comma separated allow list. Empty falls back to
	// CORS_ALLOWED_ORIGINS and then to "*".
	CORSOrigins string
	// Logger enables one access log line per request.
	Logger *zap.Logger
}

// SetupRouter attaches base middlewares and common endpoints.
// IMPORTANT: must be called before registering any routes.
func SetupRouter(r chi.Router, cfg ...RouterConfig) {
	var c RouterConfig
	if len(cfg) > 0 {
		c = cfg[0]
	}
	origins := c.CORSOrigins
	if strings.TrimSpace(origins) == "" {
		origins = os.Getenv("CORS_ALLOWED_ORIGINS")
	}

	// Correlation / request id
	r.Use(RequestIDMiddleware("X-Request-Id"))
	r.Use(middleware.Recoverer)
	if c.Logger != nil {
		r.Use(accessLog(c.Logger))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   parseCORSOrigins(origins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health endpoints
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if c.ReadyFunc != nil {
			if err := c.ReadyFunc(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("not ready: " + err.Error()))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
}

func parseCORSOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func accessLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", RequestIDFromContext(r.Context())),
			)
		})
	}
}
