// Package thread is the entry point for comment thread operations. It
// composes the store and the index and enforces input and paging policy.
// The Service keeps no state of its own between calls.
package thread

import (
	"context"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/cinema-social/services/threads/internal/domain"
	"github.com/example/cinema-social/services/threads/internal/index"
	"github.com/example/cinema-social/services/threads/internal/store"
)

const maxIDLength = 128

// Config holds paging and content policy.
type Config struct {
	DefaultPageLimit int
	MaxPageLimit     int
	CollapseDepth    int
	MaxContentRunes  int
}

func (c Config) withDefaults() Config {
	if c.DefaultPageLimit <= 0 {
		c.DefaultPageLimit = 20
	}
	if c.MaxPageLimit <= 0 {
		c.MaxPageLimit = 100
	}
	if c.DefaultPageLimit > c.MaxPageLimit {
		c.DefaultPageLimit = c.MaxPageLimit
	}
	if c.CollapseDepth <= 0 {
		c.CollapseDepth = 4
	}
	if c.MaxContentRunes <= 0 {
		c.MaxContentRunes = 5000
	}
	return c
}

// Observer is told about committed writes after the local index has been
// invalidated. Implementations must not block.
type Observer interface {
	CommentWritten(ctx context.Context, c domain.Comment, created bool)
}

// CreateInput is the payload of CreateComment. ID is normally empty and
// assigned by the store; asynchronous producers set it so a redelivered
// command collides instead of duplicating. A caller-chosen ID must be a UUID.
type CreateInput struct {
	ID        string
	SubjectID string
	AuthorID  string
	Content   string
	ParentID  *string
}

// Service implements the thread operations.
type Service struct {
	store     store.CommentStore
	index     *index.Index
	cfg       Config
	log       *zap.Logger
	observers []Observer
}

// NewService wires a Service. Zero config values fall back to defaults.
func NewService(st store.CommentStore, ix *index.Index, cfg Config, log *zap.Logger, observers ...Observer) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:     st,
		index:     ix,
		cfg:       cfg.withDefaults(),
		log:       log.Named("thread"),
		observers: observers,
	}
}

// Policy returns the paging and rendering policy clients should apply.
func (s *Service) Policy() domain.Policy {
	return domain.Policy{
		CollapseDepth:    s.cfg.CollapseDepth,
		DefaultPageLimit: s.cfg.DefaultPageLimit,
		MaxPageLimit:     s.cfg.MaxPageLimit,
	}
}

// CreateComment validates and stores a new comment, then invalidates the
// sibling group it joins. A parent that is missing or belongs to another
// subject fails with ErrIntegrity and nothing is written.
func (s *Service) CreateComment(ctx context.Context, in CreateInput) (domain.Comment, error) {
	subjectID, err := requireID("subject_id", in.SubjectID)
	if err != nil {
		return domain.Comment{}, err
	}
	authorID, err := requireID("author_id", in.AuthorID)
	if err != nil {
		return domain.Comment{}, err
	}
	content, err := s.validateContent(in.Content)
	if err != nil {
		return domain.Comment{}, err
	}

	c := domain.Comment{SubjectID: subjectID, AuthorID: authorID, Content: content}
	if in.ID != "" {
		id, err := uuid.Parse(strings.TrimSpace(in.ID))
		if err != nil {
			return domain.Comment{}, domain.NewValidationError("id", "must be a UUID")
		}
		c.ID = id.String()
	}
	if in.ParentID != nil {
		parentID, err := requireID("parent_id", *in.ParentID)
		if err != nil {
			return domain.Comment{}, err
		}
		parent, err := s.store.Get(ctx, parentID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Comment{}, domain.IntegrityErrorf("parent comment %s does not exist", parentID)
		}
		if err != nil {
			return domain.Comment{}, err
		}
		if parent.SubjectID != subjectID {
			return domain.Comment{}, domain.IntegrityErrorf("parent comment %s belongs to another subject", parentID)
		}
		c.ParentID = &parentID
		c.Depth = parent.Depth + 1
	}

	created, err := s.store.Put(ctx, c)
	if err != nil {
		if domain.Retryable(err) {
			s.log.Warn("put comment failed", zap.String("subject_id", subjectID), zap.Error(err))
		}
		return domain.Comment{}, err
	}

	s.index.Invalidate(created.SubjectID, created.ParentID)
	s.notify(ctx, created, true)
	return created, nil
}

// FetchTopLevel returns one page of top-level comments of a subject.
func (s *Service) FetchTopLevel(ctx context.Context, subjectID, cursor string, limit int) (domain.Page, error) {
	subjectID, err := requireID("subject_id", subjectID)
	if err != nil {
		return domain.Page{}, err
	}
	return s.index.Page(ctx, subjectID, nil, strings.TrimSpace(cursor), s.pageLimit(limit))
}

// FetchReplies returns one page of the direct replies to commentID.
func (s *Service) FetchReplies(ctx context.Context, commentID, cursor string, limit int) (domain.Page, error) {
	parent, err := s.GetComment(ctx, commentID)
	if err != nil {
		return domain.Page{}, err
	}
	return s.index.Page(ctx, parent.SubjectID, &parent.ID, strings.TrimSpace(cursor), s.pageLimit(limit))
}

// ReplyCount returns the number of direct replies to commentID.
// Deeper descendants are not counted.
func (s *Service) ReplyCount(ctx context.Context, commentID string) (int, error) {
	parent, err := s.GetComment(ctx, commentID)
	if err != nil {
		return 0, err
	}
	return s.index.Count(ctx, parent.SubjectID, &parent.ID)
}

// GetComment returns a single comment.
func (s *Service) GetComment(ctx context.Context, commentID string) (domain.Comment, error) {
	id, err := requireID("comment_id", commentID)
	if err != nil {
		return domain.Comment{}, err
	}
	return s.store.Get(ctx, id)
}

// EditComment replaces the content of a comment owned by authorID.
func (s *Service) EditComment(ctx context.Context, commentID, authorID, content string) (domain.Comment, error) {
	id, err := requireID("comment_id", commentID)
	if err != nil {
		return domain.Comment{}, err
	}
	authorID, err = requireID("author_id", authorID)
	if err != nil {
		return domain.Comment{}, err
	}
	content, err = s.validateContent(content)
	if err != nil {
		return domain.Comment{}, err
	}

	updated, err := s.store.UpdateContent(ctx, id, authorID, content)
	if err != nil {
		return domain.Comment{}, err
	}

	// cached pages carry content
	s.index.Invalidate(updated.SubjectID, updated.ParentID)
	s.notify(ctx, updated, false)
	return updated, nil
}

func (s *Service) notify(ctx context.Context, c domain.Comment, created bool) {
	for _, o := range s.observers {
		o.CommentWritten(ctx, c, created)
	}
}

func (s *Service) pageLimit(limit int) int {
	switch {
	case limit <= 0:
		return s.cfg.DefaultPageLimit
	case limit > s.cfg.MaxPageLimit:
		return s.cfg.MaxPageLimit
	default:
		return limit
	}
}

func (s *Service) validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", domain.NewValidationError("content", "must not be empty")
	}
	if !utf8.ValidString(content) {
		return "", domain.NewValidationError("content", "must be valid UTF-8")
	}
	if utf8.RuneCountInString(content) > s.cfg.MaxContentRunes {
		return "", domain.NewValidationError("content", "too long")
	}
	return content, nil
}

func requireID(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", domain.NewValidationError(field, "is required")
	}
	if len(v) > maxIDLength {
		return "", domain.NewValidationError(field, "too long")
	}
	if strings.IndexFunc(v, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return "", domain.NewValidationError(field, "malformed identifier")
	}
	return v, nil
}
