package grpcapi

import (
	"context"
	"errors"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/example/cinema-social/services/threads/internal/domain"
)

const errorDomain = "threads"

// RetryDelay is advertised in RetryInfo on storage failures.
const RetryDelay = time.Second

func withDetails(c codes.Code, reason, msg string, extra ...protoadapt.MessageV1) error {
	st := status.New(c, msg)
	details := append([]protoadapt.MessageV1{&errdetails.ErrorInfo{Reason: reason, Domain: errorDomain}}, extra...)
	st2, err := st.WithDetails(details...)
	if err != nil {
		return st.Err()
	}
	return st2.Err()
}

// toStatus maps the domain error taxonomy onto gRPC status codes.
func toStatus(err error) error {
	var verr *domain.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &verr):
		return withDetails(codes.InvalidArgument, "VALIDATION", verr.Error(), &errdetails.BadRequest{
			FieldViolations: []*errdetails.BadRequest_FieldViolation{{Field: verr.Field, Description: verr.Message}},
		})
	case errors.Is(err, domain.ErrValidation):
		return withDetails(codes.InvalidArgument, "VALIDATION", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return withDetails(codes.NotFound, "NOT_FOUND", "comment not found")
	case errors.Is(err, domain.ErrIntegrity):
		return withDetails(codes.FailedPrecondition, "INTEGRITY", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return withDetails(codes.PermissionDenied, "FORBIDDEN", "not the author of this comment")
	case errors.Is(err, domain.ErrStorage):
		return withDetails(codes.Unavailable, "STORAGE_UNAVAILABLE", "storage temporarily unavailable",
			&errdetails.RetryInfo{RetryDelay: durationpb.New(RetryDelay)})
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return withDetails(codes.Internal, "INTERNAL", "internal error")
	}
}

func errUnauthenticated() error {
	return withDetails(codes.Unauthenticated, "UNAUTHENTICATED", "authentication required")
}
