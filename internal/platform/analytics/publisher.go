// Package analytics provides a fire-and-forget NATS publisher for business
// events consumed by the analytics pipeline.
package analytics

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subject constants for every analytics event type.
const (
	SubjectThreadsCommentCreated = "analytics.threads.comment_created"
	SubjectThreadsCommentEdited  = "analytics.threads.comment_edited"
)

// Emitter is the subset of Publisher used by event producers.
type Emitter interface {
	Publish(subject, eventName, userID string, props map[string]any)
}

// Event is the canonical envelope sent to all analytics.* subjects.
type Event struct {
	EventID    string         `json:"event_id"`
	EventName  string         `json:"event_name"`
	UserID     string         `json:"user_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Publisher publishes analytics events to NATS JetStream.
// The zero value and a nil pointer are both safe no-op stubs.
type Publisher struct {
	js  nats.JetStreamContext
	log *zap.Logger
	now func() time.Time
}

// New creates a Publisher using an existing JetStream context.
// Pass js=nil to get a no-op stub (useful in tests and services without NATS).
func New(js nats.JetStreamContext, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{js: js, log: log, now: time.Now}
}

// Publish sends an analytics event asynchronously (fire-and-forget).
// Failures are logged as warnings and never surface to the caller.
// The publisher is safe to call with a nil receiver.
func (p *Publisher) Publish(subject, eventName, userID string, props map[string]any) {
	if p == nil || p.js == nil {
		return
	}
	ev := Event{
		EventID:    uuid.NewString(),
		EventName:  eventName,
		UserID:     userID,
		OccurredAt: p.now().UTC(),
		Properties: props,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("analytics: marshal failed", zap.String("event", eventName), zap.Error(err))
		return
	}
	// event id doubles as the JetStream dedup key
	if _, err := p.js.PublishAsync(subject, data, nats.MsgId(ev.EventID)); err != nil {
		p.log.Warn("analytics: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}
