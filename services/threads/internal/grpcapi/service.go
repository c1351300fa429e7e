// Package grpcapi exposes thread operations over gRPC for internal callers.
package grpcapi

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"

	"github.com/example/cinema-social/internal/platform/auth"
	"github.com/example/cinema-social/services/threads/internal/domain"
	"github.com/example/cinema-social/services/threads/internal/thread"
)

// Threads is the subset of thread.Service the gRPC layer calls.
type Threads interface {
	CreateComment(ctx context.Context, in thread.CreateInput) (domain.Comment, error)
	FetchTopLevel(ctx context.Context, subjectID, cursor string, limit int) (domain.Page, error)
	FetchReplies(ctx context.Context, commentID, cursor string, limit int) (domain.Page, error)
	ReplyCount(ctx context.Context, commentID string) (int, error)
	GetComment(ctx context.Context, commentID string) (domain.Comment, error)
	EditComment(ctx context.Context, commentID, authorID, content string) (domain.Comment, error)
	Policy() domain.Policy
}

// ThreadService implements ThreadServiceServer.
type ThreadService struct {
	Threads Threads
	// TrustForwardedUser accepts a "user_id" metadata entry set by a trusted
	// edge (the BFF) when no bearer token was presented.
	TrustForwardedUser bool
}

func (s *ThreadService) callerID(ctx context.Context) (string, error) {
	if uid, ok := auth.UserIDFromContext(ctx); ok && uid != "" {
		return uid, nil
	}
	if s.TrustForwardedUser {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get("user_id"); len(vals) > 0 && strings.TrimSpace(vals[0]) != "" {
				return strings.TrimSpace(vals[0]), nil
			}
		}
	}
	return "", errUnauthenticated()
}

func (s *ThreadService) toProto(c domain.Comment) Comment {
	return Comment{Comment: c, Collapsed: c.Depth >= s.Threads.Policy().CollapseDepth}
}

func (s *ThreadService) toPage(p domain.Page) *PageResponse {
	items := make([]Comment, len(p.Items))
	for i, c := range p.Items {
		items[i] = s.toProto(c)
	}
	return &PageResponse{Items: items, NextCursor: p.NextCursor}
}

func (s *ThreadService) CreateComment(ctx context.Context, req *CreateCommentRequest) (*CommentResponse, error) {
	userID, err := s.callerID(ctx)
	if err != nil {
		return nil, err
	}
	created, err := s.Threads.CreateComment(ctx, thread.CreateInput{
		SubjectID: req.SubjectID,
		AuthorID:  userID,
		Content:   req.Content,
		ParentID:  req.ParentID,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &CommentResponse{Comment: s.toProto(created)}, nil
}

func (s *ThreadService) EditComment(ctx context.Context, req *EditCommentRequest) (*CommentResponse, error) {
	userID, err := s.callerID(ctx)
	if err != nil {
		return nil, err
	}
	updated, err := s.Threads.EditComment(ctx, req.CommentID, userID, req.Content)
	if err != nil {
		return nil, toStatus(err)
	}
	return &CommentResponse{Comment: s.toProto(updated)}, nil
}

func (s *ThreadService) GetComment(ctx context.Context, req *GetCommentRequest) (*CommentResponse, error) {
	c, err := s.Threads.GetComment(ctx, req.CommentID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &CommentResponse{Comment: s.toProto(c)}, nil
}

func (s *ThreadService) ListTopLevel(ctx context.Context, req *ListTopLevelRequest) (*PageResponse, error) {
	page, err := s.Threads.FetchTopLevel(ctx, req.SubjectID, req.Cursor, int(req.Limit))
	if err != nil {
		return nil, toStatus(err)
	}
	return s.toPage(page), nil
}

func (s *ThreadService) ListReplies(ctx context.Context, req *ListRepliesRequest) (*PageResponse, error) {
	page, err := s.Threads.FetchReplies(ctx, req.CommentID, req.Cursor, int(req.Limit))
	if err != nil {
		return nil, toStatus(err)
	}
	return s.toPage(page), nil
}

func (s *ThreadService) ReplyCount(ctx context.Context, req *ReplyCountRequest) (*ReplyCountResponse, error) {
	n, err := s.Threads.ReplyCount(ctx, req.CommentID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ReplyCountResponse{Count: int32(n)}, nil
}

func (s *ThreadService) GetPolicy(context.Context, *GetPolicyRequest) (*PolicyResponse, error) {
	return &PolicyResponse{Policy: s.Threads.Policy()}, nil
}
