package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/cinema-social/services/threads/internal/domain"
)

type childKey struct {
	subjectID string
	parentID  string
}

// InMemoryCommentStore is a development-only in-memory implementation.
type InMemoryCommentStore struct {
	mu       sync.RWMutex
	comments map[string]domain.Comment // id -> comment
	children map[childKey][]string     // (subject, parent) -> child ids, insertion order
	now      func() time.Time
}

// MemoryOption configures an InMemoryCommentStore.
type MemoryOption func(*InMemoryCommentStore)

// WithClock replaces the server clock used to stamp CreatedAt.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *InMemoryCommentStore) { s.now = now }
}

func NewInMemoryCommentStore(opts ...MemoryOption) *InMemoryCommentStore {
	s := &InMemoryCommentStore{
		comments: make(map[string]domain.Comment),
		children: make(map[childKey][]string),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *InMemoryCommentStore) Put(_ context.Context, c domain.Comment) (domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ParentID != nil {
		parent, ok := s.comments[*c.ParentID]
		if !ok {
			return domain.Comment{}, domain.IntegrityErrorf("parent comment %s does not exist", *c.ParentID)
		}
		if parent.SubjectID != c.SubjectID {
			return domain.Comment{}, domain.IntegrityErrorf("parent comment %s belongs to another subject", *c.ParentID)
		}
	}

	if c.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Comment{}, domain.NewStorageError("generate id", err)
		}
		c.ID = id.String()
	}
	if _, exists := s.comments[c.ID]; exists {
		return domain.Comment{}, domain.IntegrityErrorf("comment %s already exists", c.ID)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	c.CreatedAt = domain.NormalizeTime(c.CreatedAt)
	c.UpdatedAt = nil

	s.comments[c.ID] = c.Clone()
	k := childKey{subjectID: c.SubjectID, parentID: c.Parent()}
	s.children[k] = append(s.children[k], c.ID)
	return c.Clone(), nil
}

func (s *InMemoryCommentStore) Get(_ context.Context, id string) (domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return domain.Comment{}, domain.NotFoundErrorf("comment %s", id)
	}
	return c.Clone(), nil
}

func (s *InMemoryCommentStore) ChildrenOf(_ context.Context, subjectID string, parentID *string) ([]domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k := childKey{subjectID: subjectID}
	if parentID != nil {
		k.parentID = *parentID
	}
	ids := s.children[k]
	out := make([]domain.Comment, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.comments[id].Clone())
	}
	return out, nil
}

func (s *InMemoryCommentStore) UpdateContent(_ context.Context, id, authorID, content string) (domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return domain.Comment{}, domain.NotFoundErrorf("comment %s", id)
	}
	if c.AuthorID != authorID {
		return domain.Comment{}, ErrNotAuthor
	}
	c.Content = content
	now := domain.NormalizeTime(s.now())
	c.UpdatedAt = &now
	s.comments[id] = c
	return c.Clone(), nil
}

func (s *InMemoryCommentStore) Ping(context.Context) error { return nil }
