package domain

import (
	"testing"
	"time"
)

func TestComment_Before(t *testing.T) {
	t0 := time.Unix(100, 0)
	a := Comment{ID: "a", CreatedAt: t0}
	b := Comment{ID: "b", CreatedAt: t0}
	c := Comment{ID: "0", CreatedAt: t0.Add(time.Microsecond)}

	if !a.Before(b) || b.Before(a) {
		t.Fatal("same instant must tie-break on id")
	}
	if !b.Before(c) {
		t.Fatal("earlier created_at must sort first regardless of id")
	}
	if a.Before(a) {
		t.Fatal("ordering must be strict")
	}
}

func TestComment_Parent(t *testing.T) {
	top := Comment{ID: "a"}
	if !top.IsTopLevel() || top.Parent() != "" {
		t.Fatal("expected top-level comment")
	}
	reply := Comment{ID: "b", ParentID: StringPtr("a")}
	if reply.IsTopLevel() || reply.Parent() != "a" {
		t.Fatalf("expected parent a, got %q", reply.Parent())
	}
	if StringPtr("") != nil {
		t.Fatal("empty string must map to nil")
	}
}

func TestNormalizeTime(t *testing.T) {
	in := time.Date(2024, 1, 2, 3, 4, 5, 123456789, time.FixedZone("x", 3600))
	got := NormalizeTime(in)
	if got.Nanosecond() != 123456000 {
		t.Fatalf("expected microsecond truncation, got %d", got.Nanosecond())
	}
	if got.Location() != time.UTC {
		t.Fatal("expected UTC")
	}
}

func TestComment_Clone(t *testing.T) {
	u := time.Unix(200, 0)
	orig := Comment{ID: "b", ParentID: StringPtr("a"), UpdatedAt: &u}
	cp := orig.Clone()

	*cp.ParentID = "z"
	*cp.UpdatedAt = time.Unix(0, 0)
	if orig.Parent() != "a" || !orig.UpdatedAt.Equal(u) {
		t.Fatalf("clone shares pointers with original: %+v", orig)
	}
	if top := (Comment{ID: "x"}).Clone(); top.ParentID != nil || top.UpdatedAt != nil {
		t.Fatal("nil pointers must stay nil")
	}
}
