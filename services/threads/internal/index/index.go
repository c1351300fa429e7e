// Package index serves ordered, cursor-paginated sibling groups of a thread.
//
// Each (subject, parent) pair maps to its direct children sorted by
// (created_at, id). Entries are built lazily from the store, bounded by an
// LRU, and dropped on every write touching the pair. The index owns no data:
// any entry can be rebuilt from the store at any time.
package index

import (
	"context"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/example/cinema-social/services/threads/internal/domain"
)

// DefaultCacheSize is the number of sibling groups kept when none is configured.
const DefaultCacheSize = 10000

// Loader is the slice of the store the index reads from.
type Loader interface {
	ChildrenOf(ctx context.Context, subjectID string, parentID *string) ([]domain.Comment, error)
}

type key struct {
	subjectID string
	parentID  string // "" for top-level
}

func keyOf(subjectID string, parentID *string) key {
	k := key{subjectID: subjectID}
	if parentID != nil {
		k.parentID = *parentID
	}
	return k
}

// entry is immutable once installed in the cache.
type entry struct {
	items []domain.Comment
}

// Index caches sorted sibling groups.
type Index struct {
	loader Loader
	cache  *lru.Cache[key, *entry]
	locks  keyedMutex
	log    *zap.Logger
}

// New creates an Index over loader keeping at most size sibling groups.
func New(loader Loader, size int, log *zap.Logger) (*Index, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	cache, err := lru.New[key, *entry](size)
	if err != nil {
		return nil, err
	}
	return &Index{loader: loader, cache: cache, log: log.Named("index")}, nil
}

// Page returns up to limit direct children of parentID (top-level when nil)
// strictly after cursor. An empty cursor starts at the beginning. The
// returned NextCursor is nil when nothing follows the page.
func (ix *Index) Page(ctx context.Context, subjectID string, parentID *string, cursor string, limit int) (domain.Page, error) {
	if limit <= 0 {
		return domain.Page{}, domain.NewValidationError("limit", "must be positive")
	}

	var after *Cursor
	if cursor != "" {
		c, err := DecodeCursor(cursor)
		if err != nil {
			return domain.Page{}, err
		}
		after = &c
	}

	e, err := ix.load(ctx, keyOf(subjectID, parentID))
	if err != nil {
		return domain.Page{}, err
	}

	start := 0
	if after != nil {
		start = sort.Search(len(e.items), func(i int) bool {
			return after.Precedes(e.items[i])
		})
	}
	end := min(start+limit, len(e.items))

	page := domain.Page{Items: make([]domain.Comment, 0, end-start)}
	for _, c := range e.items[start:end] {
		page.Items = append(page.Items, c.Clone())
	}
	if end < len(e.items) && end > start {
		next := CursorAt(e.items[end-1]).Encode()
		page.NextCursor = &next
	}
	return page, nil
}

// Count returns the number of direct children of parentID.
func (ix *Index) Count(ctx context.Context, subjectID string, parentID *string) (int, error) {
	e, err := ix.load(ctx, keyOf(subjectID, parentID))
	if err != nil {
		return 0, err
	}
	return len(e.items), nil
}

// Invalidate drops the sibling group of parentID. It waits for an in-flight
// load of the same group so a stale load can never be installed after it.
func (ix *Index) Invalidate(subjectID string, parentID *string) {
	k := keyOf(subjectID, parentID)
	unlock := ix.locks.Lock(k)
	ix.cache.Remove(k)
	unlock()
}

// Purge drops every cached sibling group.
func (ix *Index) Purge() {
	ix.cache.Purge()
}

// Len reports the number of cached sibling groups.
func (ix *Index) Len() int {
	return ix.cache.Len()
}

func (ix *Index) load(ctx context.Context, k key) (*entry, error) {
	// Hits never take the key lock; a read racing a write may see either snapshot.
	if e, ok := ix.cache.Get(k); ok {
		return e, nil
	}

	unlock := ix.locks.Lock(k)
	defer unlock()

	if e, ok := ix.cache.Get(k); ok {
		return e, nil
	}

	var parentID *string
	if k.parentID != "" {
		parentID = &k.parentID
	}
	items, err := ix.loader.ChildrenOf(ctx, k.subjectID, parentID)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Before(items[j]) })

	e := &entry{items: items}
	ix.cache.Add(k, e)
	ix.log.Debug("sibling group loaded",
		zap.String("subject_id", k.subjectID),
		zap.String("parent_id", k.parentID),
		zap.Int("size", len(items)))
	return e, nil
}
