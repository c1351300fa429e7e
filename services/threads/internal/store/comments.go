// Package store persists comment nodes and enforces thread integrity.
// Ordering is not its concern; see package index.
package store

import (
	"context"

	"github.com/example/cinema-social/services/threads/internal/domain"
)

// CommentStore defines the contract for comment persistence.
type CommentStore interface {
	// Put inserts c. ID and CreatedAt are assigned when zero. A ParentID that
	// does not resolve to a comment of the same subject fails with ErrIntegrity.
	Put(ctx context.Context, c domain.Comment) (domain.Comment, error)
	Get(ctx context.Context, id string) (domain.Comment, error)
	// ChildrenOf returns the direct children of parentID within subjectID,
	// or the top-level comments when parentID is nil. Order is unspecified.
	ChildrenOf(ctx context.Context, subjectID string, parentID *string) ([]domain.Comment, error)
	UpdateContent(ctx context.Context, id, authorID, content string) (domain.Comment, error)
	Ping(ctx context.Context) error
}
