// Package auth verifies HS256 bearer tokens and carries the caller's
// identity through request contexts for both HTTP and gRPC transports.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/example/cinema-social/internal/platform/api"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

type ctxKeyUserID struct{}
type ctxKeyRole struct{}

func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyUserID{}).(string)
	return v, ok
}

// WithUserID injects user_id into context. Useful for testing.
func WithUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID{}, uid)
}

func RoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyRole{}).(string)
	return v, ok
}

type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// JWTVerifier checks HS256 tokens signed with Secret. Issuer is enforced
// only when set.
type JWTVerifier struct {
	Secret []byte
	Issuer string
	Leeway time.Duration
}

func (v JWTVerifier) Parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	if v.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(v.Leeway))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return v.Secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate verifies an Authorization header value and returns ctx
// carrying the caller's user id and role.
func (v JWTVerifier) Authenticate(ctx context.Context, authorization string) (context.Context, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authorization), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return ctx, ErrMissingToken
	}
	claims, err := v.Parse(strings.TrimSpace(token))
	if err != nil {
		return ctx, errors.Join(ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return ctx, ErrInvalidToken
	}
	ctx = context.WithValue(ctx, ctxKeyUserID{}, claims.Subject)
	if role := strings.TrimSpace(claims.Role); role != "" {
		ctx = context.WithValue(ctx, ctxKeyRole{}, role)
	}
	return ctx, nil
}

// RequireUser middleware validates Bearer token and injects user_id into context.
func RequireUser(verifier JWTVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := verifier.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				api.Unauthorized(w, "UNAUTHORIZED", "authentication required", r.Header.Get("X-Request-Id"))
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
