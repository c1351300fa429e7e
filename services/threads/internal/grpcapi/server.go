package grpcapi

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/example/cinema-social/internal/platform/auth"
)

// ServerOptions configures NewServer.
type ServerOptions struct {
	Service  *ThreadService
	Verifier auth.JWTVerifier
	Logger   *zap.Logger
}

// NewServer builds a gRPC server carrying ThreadService, the standard
// health service and reflection. The returned health server starts SERVING.
func NewServer(opts ServerOptions) (*grpc.Server, *health.Server) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		logUnary(log.Named("grpc")),
		auth.UnaryInterceptor(opts.Verifier),
	))
	RegisterThreadServiceServer(srv, opts.Service)

	hs := health.NewServer()
	hs.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	return srv, hs
}

func logUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil {
			log.Warn("grpc call failed", append(fields, zap.Error(err))...)
		} else {
			log.Debug("grpc call", fields...)
		}
		return resp, err
	}
}
