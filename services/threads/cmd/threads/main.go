package main

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/example/cinema-social/internal/platform/analytics"
	"github.com/example/cinema-social/internal/platform/auth"
	"github.com/example/cinema-social/internal/platform/config"
	"github.com/example/cinema-social/internal/platform/db"
	"github.com/example/cinema-social/internal/platform/httpserver"
	"github.com/example/cinema-social/internal/platform/logging"
	"github.com/example/cinema-social/internal/platform/natsconn"
	"github.com/example/cinema-social/internal/platform/run"
	"github.com/example/cinema-social/services/threads/internal/grpcapi"
	"github.com/example/cinema-social/services/threads/internal/handlers"
	"github.com/example/cinema-social/services/threads/internal/index"
	"github.com/example/cinema-social/services/threads/internal/store"
	"github.com/example/cinema-social/services/threads/internal/thread"
	"github.com/example/cinema-social/services/threads/internal/worker"
	"github.com/example/cinema-social/services/threads/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		panic(err)
	}
	log = log.With(zap.String("service", cfg.ServiceName))
	defer func() { _ = log.Sync() }()

	comments, closePool := initComments(cfg, log)
	if closePool != nil {
		defer closePool()
	}

	ix, err := index.New(comments, cfg.Threads.IndexCacheSize, log)
	if err != nil {
		log.Error("index", zap.Error(err))
		run.Exit(1)
	}

	origin := replicaID(cfg.ServiceName)
	nc := initNATS(cfg, log)
	if nc != nil {
		defer nc.Close()
	}

	var (
		observers []thread.Observer
		js        nats.JetStreamContext
	)
	if nc != nil {
		observers = append(observers, worker.NewBroadcaster(nc, origin, log))
		if js, err = nc.JetStream(); err != nil {
			log.Warn("jetstream unavailable", zap.Error(err))
			js = nil
		}
	}
	observers = append(observers, thread.AnalyticsObserver{Events: analytics.New(js, log)})

	svc := thread.NewService(comments, ix, thread.Config{
		DefaultPageLimit: cfg.Threads.DefaultPageLimit,
		MaxPageLimit:     cfg.Threads.MaxPageLimit,
		CollapseDepth:    cfg.Threads.CollapseDepth,
		MaxContentRunes:  cfg.Threads.MaxContentRunes,
	}, log, observers...)

	if cfg.Auth.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, authenticated routes will reject every token (development only)")
	}
	verifier := auth.JWTVerifier{Secret: []byte(cfg.Auth.JWTSecret), Issuer: cfg.Auth.JWTIssuer, Leeway: 30 * time.Second}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		ReadyFunc: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return comments.Ping(ctx)
		},
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Logger:      log,
	})
	handlers.Mount(r, svc, ix, verifier)

	srv := httpserver.New(httpserver.Options{
		Addr:         cfg.HTTP.Addr,
		ServiceName:  cfg.ServiceName,
		Logger:       log,
		Router:       r,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	})

	grpcSrv, grpcHealth := grpcapi.NewServer(grpcapi.ServerOptions{
		Service:  &grpcapi.ThreadService{Threads: svc, TrustForwardedUser: cfg.GRPC.TrustForwardedUser},
		Verifier: verifier,
		Logger:   log,
	})
	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		log.Error("grpc listen", zap.Error(err))
		run.Exit(1)
	}

	runner := run.New(log)
	runner.ShutdownTimeout = cfg.HTTP.ShutdownTimeout + 5*time.Second
	code := runner.WithSignals(func(ctx context.Context) error {
		tasks := []func(context.Context) error{
			func(context.Context) error { return srv.Start(log) },
			func(context.Context) error {
				log.Info("grpc server starting", zap.String("addr", cfg.GRPC.Addr))
				return grpcSrv.Serve(lis)
			},
			func(ctx context.Context) error {
				<-ctx.Done()
				shutdown(log, srv, grpcSrv, grpcHealth, cfg.HTTP.ShutdownTimeout)
				return nil
			},
		}
		if nc != nil {
			sub, err := worker.SubscribeInvalidations(nc, origin, ix, log)
			if err != nil {
				log.Warn("invalidation subscribe", zap.Error(err))
			} else {
				defer func() { _ = sub.Drain() }()
			}
		}
		if js != nil {
			if err := natsconn.EnsureStream(js, worker.StreamCommands, worker.SubjectCreateComment); err != nil {
				log.Warn("command stream unavailable, consumer disabled", zap.Error(err))
			} else {
				consumer := worker.NewCreateConsumer(js, svc, log)
				tasks = append(tasks, optional(log, "create consumer", consumer.Run))
			}
		}
		return run.Group(ctx, tasks...)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// optional wraps a background task whose failure must not stop the servers.
func optional(log *zap.Logger, name string, task func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := task(ctx); err != nil && ctx.Err() == nil {
			log.Error(name+" stopped, continuing without it", zap.Error(err))
		}
		return nil
	}
}

func shutdown(log *zap.Logger, srv *httpserver.Server, grpcSrv *grpc.Server, hs *health.Server, timeout time.Duration) {
	hs.Shutdown()

	stopped := make(chan struct{})
	go func() {
		grpcSrv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeout):
		grpcSrv.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
}

// initComments selects the CommentStore backend.
// In production (APP_ENV=production) it requires a working Postgres connection
// and terminates the process otherwise.
func initComments(cfg config.AppConfig, log *zap.Logger) (store.CommentStore, func()) {
	fail := func(msg string, err error) (store.CommentStore, func()) {
		if cfg.IsProduction() {
			log.Error(msg+" in production", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn(msg+", using in-memory comment store (development only)", zap.Error(err))
		return store.NewInMemoryCommentStore(), nil
	}

	if strings.TrimSpace(cfg.Database.URL) == "" {
		return fail("DATABASE_URL not set", errors.New("missing DATABASE_URL"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Open(ctx, db.Options{URL: cfg.Database.URL, MaxConns: cfg.Database.MaxConns})
	if err != nil {
		return fail("postgres unavailable", err)
	}
	if cfg.Database.Migrate {
		if err := db.Migrate(ctx, pool, migrations.FS, log); err != nil {
			pool.Close()
			return fail("migrations failed", err)
		}
	}

	log.Info("comments store: postgres")
	return store.NewPostgresCommentStore(pool), pool.Close
}

// initNATS connects to NATS. Without it the replica still serves traffic but
// peers miss its invalidations and no analytics or async commands flow.
func initNATS(cfg config.AppConfig, log *zap.Logger) *nats.Conn {
	nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATS.URL, Name: cfg.ServiceName, Logger: log})
	if err != nil {
		if cfg.IsProduction() {
			log.Error("nats is required in production", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("nats connect failed, running standalone", zap.Error(err))
		return nil
	}
	return nc
}

func replicaID(service string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return service + "@" + host + "/" + uuid.NewString()[:8]
}
