package index

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/example/cinema-social/services/threads/internal/domain"
)

// Cursor is a position in thread order. It is keyed on the immutable
// (created_at, id) pair so concurrent inserts never shift it.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// CursorAt returns the cursor positioned on c.
func CursorAt(c domain.Comment) Cursor {
	return Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
}

// Encode returns the opaque wire form of the cursor. Timestamps carry
// microsecond precision, the same as stored comments.
func (c Cursor) Encode() string {
	raw := strconv.FormatInt(c.CreatedAt.UnixMicro(), 10) + "|" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Precedes reports whether comment x sorts strictly after the cursor.
func (c Cursor) Precedes(x domain.Comment) bool {
	if !c.CreatedAt.Equal(x.CreatedAt) {
		return c.CreatedAt.Before(x.CreatedAt)
	}
	return c.ID < x.ID
}

// DecodeCursor parses a cursor produced by Encode.
func DecodeCursor(s string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, domain.NewValidationError("cursor", "malformed cursor")
	}
	micros, id, ok := strings.Cut(string(raw), "|")
	if !ok || id == "" {
		return Cursor{}, domain.NewValidationError("cursor", "malformed cursor")
	}
	n, err := strconv.ParseInt(micros, 10, 64)
	if err != nil {
		return Cursor{}, domain.NewValidationError("cursor", "malformed cursor")
	}
	return Cursor{CreatedAt: time.UnixMicro(n).UTC(), ID: id}, nil
}
