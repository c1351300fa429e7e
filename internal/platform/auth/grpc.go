package auth

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UnaryInterceptor authenticates the "authorization" metadata entry when
// present. Calls without it pass through anonymous; handlers that need a
// user check UserIDFromContext themselves. A present but invalid token is
// rejected with Unauthenticated.
func UnaryInterceptor(verifier JWTVerifier) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		vals := md.Get("authorization")
		if len(vals) == 0 {
			return handler(ctx, req)
		}
		authed, err := verifier.Authenticate(ctx, vals[0])
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid bearer token")
		}
		return handler(authed, req)
	}
}
