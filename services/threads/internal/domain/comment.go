// Package domain holds the comment thread model shared by the store, index,
// service and transport layers.
package domain

import (
	"time"
)

// Comment is one node of a discussion thread attached to a post or review.
type Comment struct {
	ID        string     `json:"id"`
	SubjectID string     `json:"subject_id"`
	AuthorID  string     `json:"author_id"`
	ParentID  *string    `json:"parent_id"`
	Content   string     `json:"content"`
	Depth     int        `json:"depth"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// IsTopLevel reports whether the comment has no parent.
func (c Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

// Parent returns the parent id or "" for top-level comments.
func (c Comment) Parent() string {
	if c.ParentID == nil {
		return ""
	}
	return *c.ParentID
}

// Clone returns a copy that shares no pointers with c.
func (c Comment) Clone() Comment {
	if c.ParentID != nil {
		p := *c.ParentID
		c.ParentID = &p
	}
	if c.UpdatedAt != nil {
		u := *c.UpdatedAt
		c.UpdatedAt = &u
	}
	return c
}

// Before reports whether c sorts before o in thread order:
// created_at ascending, ties broken by id ascending.
func (c Comment) Before(o Comment) bool {
	if !c.CreatedAt.Equal(o.CreatedAt) {
		return c.CreatedAt.Before(o.CreatedAt)
	}
	return c.ID < o.ID
}

// Page is one slice of a sibling group. NextCursor is nil on the terminal page.
type Page struct {
	Items      []Comment `json:"items"`
	NextCursor *string   `json:"next_cursor"`
}

// Policy is the rendering policy exposed to presentation clients.
// Storage never rejects by depth; clients collapse at CollapseDepth.
type Policy struct {
	CollapseDepth    int `json:"collapse_depth"`
	DefaultPageLimit int `json:"default_page_limit"`
	MaxPageLimit     int `json:"max_page_limit"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// NormalizeTime truncates to the precision the Postgres store keeps.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
