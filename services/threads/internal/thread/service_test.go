package thread

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/cinema-social/services/threads/internal/domain"
	"github.com/example/cinema-social/services/threads/internal/index"
	"github.com/example/cinema-social/services/threads/internal/store"
)

func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Millisecond)
		return t
	}
}

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingObserver) CommentWritten(_ context.Context, c domain.Comment, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kind := "edited"
	if created {
		kind = "created"
	}
	r.events = append(r.events, kind+":"+c.ID)
}

func newService(t *testing.T, st store.CommentStore, cfg Config, obs ...Observer) *Service {
	t.Helper()
	ix, err := index.New(st, 0, zap.NewNop())
	require.NoError(t, err)
	return NewService(st, ix, cfg, zap.NewNop(), obs...)
}

func setupService(t *testing.T, obs ...Observer) *Service {
	t.Helper()
	return newService(t, store.NewInMemoryCommentStore(store.WithClock(tickingClock())), Config{}, obs...)
}

func create(t *testing.T, svc *Service, subjectID, content string, parentID *string) domain.Comment {
	t.Helper()
	c, err := svc.CreateComment(context.Background(), CreateInput{
		SubjectID: subjectID,
		AuthorID:  "user-1",
		Content:   content,
		ParentID:  parentID,
	})
	require.NoError(t, err)
	return c
}

func pageIDs(p domain.Page) []string {
	out := make([]string, len(p.Items))
	for i, c := range p.Items {
		out[i] = c.ID
	}
	return out
}

func TestService_ThreadScenario(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t)

	a := create(t, svc, "S1", "A", nil)
	b := create(t, svc, "S1", "B", domain.StringPtr(a.ID))
	c := create(t, svc, "S1", "C", domain.StringPtr(a.ID))

	assert.Equal(t, 0, a.Depth)
	assert.Equal(t, 1, b.Depth)
	assert.Equal(t, 1, c.Depth)

	top, err := svc.FetchTopLevel(ctx, "S1", "", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, pageIDs(top))
	assert.Nil(t, top.NextCursor)

	replies, err := svc.FetchReplies(ctx, a.ID, "", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, pageIDs(replies))
	require.NotNil(t, replies.NextCursor)

	rest, err := svc.FetchReplies(ctx, a.ID, *replies.NextCursor, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, pageIDs(rest))
	assert.Nil(t, rest.NextCursor)

	n, err := svc.ReplyCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestService_TwoRootsNestedReplies(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t)

	a := create(t, svc, "S1", "A", nil)
	b := create(t, svc, "S1", "B", nil)
	c := create(t, svc, "S1", "C", domain.StringPtr(a.ID))
	d := create(t, svc, "S1", "D", domain.StringPtr(c.ID))

	top, err := svc.FetchTopLevel(ctx, "S1", "", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, pageIDs(top))
	assert.Nil(t, top.NextCursor)

	replies, err := svc.FetchReplies(ctx, a.ID, "", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, pageIDs(replies))
	assert.Nil(t, replies.NextCursor)

	n, err := svc.ReplyCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	none, err := svc.FetchReplies(ctx, b.ID, "", 10)
	require.NoError(t, err)
	assert.Empty(t, none.Items)
	assert.Nil(t, none.NextCursor)

	assert.Equal(t, 1, c.Depth)
	assert.Equal(t, 2, d.Depth)
}

func TestService_DepthFollowsParent(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t)

	root := create(t, svc, "S1", "root", nil)
	mid := create(t, svc, "S1", "mid", domain.StringPtr(root.ID))
	leaf := create(t, svc, "S1", "leaf", domain.StringPtr(mid.ID))
	assert.Equal(t, 2, leaf.Depth)

	// grandchildren are not direct replies
	n, err := svc.ReplyCount(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestService_CreateRejectsBadParent(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	svc := setupService(t, obs)

	other := create(t, svc, "S2", "elsewhere", nil)
	obs.events = nil

	_, err := svc.CreateComment(ctx, CreateInput{SubjectID: "S1", AuthorID: "u", Content: "x", ParentID: domain.StringPtr("missing")})
	assert.ErrorIs(t, err, domain.ErrIntegrity)

	_, err = svc.CreateComment(ctx, CreateInput{SubjectID: "S1", AuthorID: "u", Content: "x", ParentID: domain.StringPtr(other.ID)})
	assert.ErrorIs(t, err, domain.ErrIntegrity)

	top, err := svc.FetchTopLevel(ctx, "S1", "", 10)
	require.NoError(t, err)
	assert.Empty(t, top.Items)
	assert.Empty(t, obs.events)
}

func TestService_CreateValidation(t *testing.T) {
	svc := newService(t, store.NewInMemoryCommentStore(), Config{MaxContentRunes: 5})

	cases := map[string]CreateInput{
		"empty subject":  {SubjectID: "", AuthorID: "u", Content: "x"},
		"blank content":  {SubjectID: "S1", AuthorID: "u", Content: "  \n\t "},
		"long content":   {SubjectID: "S1", AuthorID: "u", Content: "ábcdef"},
		"missing author": {SubjectID: "S1", Content: "x"},
		"spaced subject": {SubjectID: "S 1", AuthorID: "u", Content: "x"},
		"oversized id":   {SubjectID: strings.Repeat("s", 200), AuthorID: "u", Content: "x"},
	}
	empty := ""
	cases["empty parent id"] = CreateInput{SubjectID: "S1", AuthorID: "u", Content: "x", ParentID: &empty}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateComment(context.Background(), in)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestService_ContentTrimmed(t *testing.T) {
	svc := setupService(t)
	c := create(t, svc, "S1", "  hello \n", nil)
	assert.Equal(t, "hello", c.Content)
}

func TestService_FetchRepliesUnknownComment(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t)

	_, err := svc.FetchReplies(ctx, "nope", "", 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.ReplyCount(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_MalformedCursor(t *testing.T) {
	svc := setupService(t)
	create(t, svc, "S1", "a", nil)

	_, err := svc.FetchTopLevel(context.Background(), "S1", "!!not-a-cursor", 10)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_PageLimitPolicy(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, store.NewInMemoryCommentStore(store.WithClock(tickingClock())), Config{DefaultPageLimit: 2, MaxPageLimit: 3})
	for i := 0; i < 5; i++ {
		create(t, svc, "S1", "c", nil)
	}

	p, err := svc.FetchTopLevel(ctx, "S1", "", 0)
	require.NoError(t, err)
	assert.Len(t, p.Items, 2)

	p, err = svc.FetchTopLevel(ctx, "S1", "", 50)
	require.NoError(t, err)
	assert.Len(t, p.Items, 3)

	assert.Equal(t, domain.Policy{CollapseDepth: 4, DefaultPageLimit: 2, MaxPageLimit: 3}, svc.Policy())
}

func TestService_EditComment(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	svc := setupService(t, obs)

	a := create(t, svc, "S1", "before", nil)
	// warm the cache so the edit has something to invalidate
	_, err := svc.FetchTopLevel(ctx, "S1", "", 10)
	require.NoError(t, err)

	_, err = svc.EditComment(ctx, a.ID, "someone-else", "hijack")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.EditComment(ctx, a.ID, "user-1", "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	edited, err := svc.EditComment(ctx, a.ID, "user-1", "after")
	require.NoError(t, err)
	assert.Equal(t, "after", edited.Content)
	require.NotNil(t, edited.UpdatedAt)

	top, err := svc.FetchTopLevel(ctx, "S1", "", 10)
	require.NoError(t, err)
	require.Len(t, top.Items, 1)
	assert.Equal(t, "after", top.Items[0].Content)

	assert.Equal(t, []string{"created:" + a.ID, "edited:" + a.ID}, obs.events)
}

func TestService_GetComment(t *testing.T) {
	svc := setupService(t)
	a := create(t, svc, "S1", "a", nil)

	got, err := svc.GetComment(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = svc.GetComment(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// failingStore fails every Put after the parent lookup succeeded.
type failingStore struct {
	store.CommentStore
}

func (failingStore) Put(context.Context, domain.Comment) (domain.Comment, error) {
	return domain.Comment{}, domain.NewStorageError("put comment", errors.New("connection reset"))
}

func TestService_StorageFailureLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	mem := store.NewInMemoryCommentStore()
	obs := &recordingObserver{}
	svc := newService(t, failingStore{mem}, Config{}, obs)

	_, err := svc.CreateComment(ctx, CreateInput{SubjectID: "S1", AuthorID: "u", Content: "x"})
	require.Error(t, err)
	assert.True(t, domain.Retryable(err))
	assert.ErrorIs(t, err, domain.ErrStorage)

	top, err := svc.FetchTopLevel(ctx, "S1", "", 10)
	require.NoError(t, err)
	assert.Empty(t, top.Items)
	assert.Empty(t, obs.events)
}

func TestService_ObserverSeesCreate(t *testing.T) {
	obs := &recordingObserver{}
	svc := setupService(t, obs)
	a := create(t, svc, "S1", "a", nil)
	assert.Equal(t, []string{"created:" + a.ID}, obs.events)
}

func TestService_CallerAssignedIDCollides(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t)
	in := CreateInput{ID: "0190f1a2-7b3c-7def-8000-0000000000aa", SubjectID: "S1", AuthorID: "u", Content: "once"}

	c, err := svc.CreateComment(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, in.ID, c.ID)

	_, err = svc.CreateComment(ctx, in)
	assert.ErrorIs(t, err, domain.ErrIntegrity)

	n, err := svc.FetchTopLevel(ctx, "S1", "", 10)
	require.NoError(t, err)
	assert.Len(t, n.Items, 1)
}

func TestService_CallerAssignedIDMustBeUUID(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t)

	_, err := svc.CreateComment(ctx, CreateInput{ID: "not-a-uuid", SubjectID: "S1", AuthorID: "u", Content: "hi"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "id", verr.Field)

	page, err := svc.FetchTopLevel(ctx, "S1", "", 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	c, err := svc.CreateComment(ctx, CreateInput{ID: "0190F1A2-7B3C-7DEF-8000-0000000000BB", SubjectID: "S1", AuthorID: "u", Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "0190f1a2-7b3c-7def-8000-0000000000bb", c.ID)
}
