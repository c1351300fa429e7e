package thread

import (
	"context"

	"github.com/example/cinema-social/internal/platform/analytics"
	"github.com/example/cinema-social/services/threads/internal/domain"
)

// AnalyticsObserver forwards committed writes to the analytics pipeline.
type AnalyticsObserver struct {
	Events analytics.Emitter
}

func (o AnalyticsObserver) CommentWritten(_ context.Context, c domain.Comment, created bool) {
	if o.Events == nil {
		return
	}
	props := map[string]any{
		"comment_id": c.ID,
		"subject_id": c.SubjectID,
		"depth":      c.Depth,
		"is_reply":   !c.IsTopLevel(),
	}
	if created {
		o.Events.Publish(analytics.SubjectThreadsCommentCreated, "comment_created", c.AuthorID, props)
		return
	}
	o.Events.Publish(analytics.SubjectThreadsCommentEdited, "comment_edited", c.AuthorID, props)
}
