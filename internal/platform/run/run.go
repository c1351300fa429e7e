// Package run owns the process lifecycle: signal handling, concurrent
// components and exit codes.
package run

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 15 * time.Second

type Runner struct {
	Logger *zap.Logger
	// ShutdownTimeout bounds how long start may take to return after a signal.
	ShutdownTimeout time.Duration
}

func New(log *zap.Logger) *Runner {
	return &Runner{Logger: log, ShutdownTimeout: defaultShutdownTimeout}
}

// WithSignals runs start until it returns or SIGINT/SIGTERM arrives, then
// waits for start to wind down. It returns the process exit code.
func (r *Runner) WithSignals(start func(ctx context.Context) error) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return r.run(ctx, start)
}

func (r *Runner) run(ctx context.Context, start func(ctx context.Context) error) int {
	errCh := make(chan error, 1)
	go func() {
		errCh <- start(ctx)
	}()

	var err error
	select {
	case <-ctx.Done():
		r.Logger.Info("shutdown signal received")
		timeout := r.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		select {
		case err = <-errCh:
		case <-time.After(timeout):
			r.Logger.Error("shutdown timed out", zap.Duration("timeout", timeout))
			return 1
		}
	case err = <-errCh:
	}

	if err == nil || errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
		return 0
	}
	r.Logger.Error("service exited with error", zap.Error(err))
	return 1
}

// Group runs every task until all return. The first failure cancels the
// context handed to the others and is returned.
func Group(ctx context.Context, tasks ...func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		g.Go(func() error { return task(gctx) })
	}
	return g.Wait()
}

func Exit(code int) {
	os.Exit(code)
}
