package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Server struct {
	HTTP *http.Server
}

type Options struct {
	Addr        string
	ServiceName string
	Logger      *zap.Logger
	Router      chi.Router
	// Zero means no limit.
	WriteTimeout time.Duration
}

func New(opts Options) *Server {
	if opts.Router == nil {
		r := chi.NewRouter()
		opts.Router = r
	}

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           opts.Router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}
	if opts.Logger != nil {
		srv.ErrorLog = zap.NewStdLog(opts.Logger.Named("http").With(zap.String("service", opts.ServiceName)))
	}
	return &Server{HTTP: srv}
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start(log *zap.Logger) error {
	log.Info("http server starting", zap.String("addr", s.HTTP.Addr))
	if err := s.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.HTTP.Shutdown(ctx)
}
