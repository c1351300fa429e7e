// Package natsconn provides a shared NATS connection factory with
// configurable reconnect behaviour and fail-fast semantics.
package natsconn

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Options configures the NATS connection behaviour.
// Zero values fall back to env vars or built-in defaults.
type Options struct {
	URL           string
	Name          string
	MaxReconnects int           // default from NATS_MAX_RECONNECTS or 5
	ReconnectWait time.Duration // default from NATS_RECONNECT_WAIT or 2s
	Logger        *zap.Logger
}

// Connect establishes a NATS connection with the configured retry policy.
// On failure after all retries it returns an error so the caller can fail-fast.
func Connect(opts Options) (*nats.Conn, error) {
	if opts.URL == "" {
		opts.URL = strings.TrimSpace(os.Getenv("NATS_URL"))
		if opts.URL == "" {
			opts.URL = "nats://nats:4222"
		}
	}
	if opts.MaxReconnects == 0 {
		opts.MaxReconnects = envInt("NATS_MAX_RECONNECTS", 5)
	}
	if opts.ReconnectWait == 0 {
		opts.ReconnectWait = envDuration("NATS_RECONNECT_WAIT", 2*time.Second)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("nats")

	nopts := []nats.Option{
		nats.MaxReconnects(opts.MaxReconnects),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.RetryOnFailedConnect(false),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("reconnected", zap.String("url", nc.ConnectedUrlRedacted()))
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			fields := []zap.Field{zap.Error(err)}
			if sub != nil {
				fields = append(fields, zap.String("subject", sub.Subject))
			}
			log.Warn("async error", fields...)
		}),
	}
	if opts.Name != "" {
		nopts = append(nopts, nats.Name(opts.Name))
	}

	nc, err := nats.Connect(opts.URL, nopts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s (max_reconnects=%d, wait=%s): %w",
			opts.URL, opts.MaxReconnects, opts.ReconnectWait, err)
	}
	return nc, nil
}

// EnsureStream creates the stream when it does not exist yet. An existing
// stream is left untouched.
func EnsureStream(js nats.JetStreamContext, name string, subjects ...string) error {
	_, err := js.StreamInfo(name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("stream info %s: %w", name, err)
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:       name,
		Subjects:   subjects,
		Storage:    nats.FileStorage,
		Retention:  nats.WorkQueuePolicy,
		Duplicates: 2 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("add stream %s: %w", name, err)
	}
	return nil
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
