package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/cinema-social/services/threads/internal/domain"
	"github.com/example/cinema-social/services/threads/internal/thread"
)

const (
	StreamCommands       = "THREADS_COMMANDS"
	SubjectCreateComment = "threads.comments.create"
	DurableCreateComment = "threads_comments"
)

// CreateCommentCommand is the payload on SubjectCreateComment. Producers
// should publish with Nats-Msg-Id set to EventID.
type CreateCommentCommand struct {
	EventID   string  `json:"event_id"`
	SubjectID string  `json:"subject_id"`
	AuthorID  string  `json:"author_id"`
	Content   string  `json:"content"`
	ParentID  *string `json:"parent_id,omitempty"`
}

// Creator is implemented by *thread.Service.
type Creator interface {
	CreateComment(ctx context.Context, in thread.CreateInput) (domain.Comment, error)
}

type ackAction int

const (
	actAck ackAction = iota
	actNak
	actTerm
)

func (a ackAction) String() string {
	switch a {
	case actAck:
		return "ack"
	case actNak:
		return "nak"
	default:
		return "term"
	}
}

// CreateConsumer drains SubjectCreateComment through the thread service.
type CreateConsumer struct {
	js        nats.JetStreamContext
	svc       Creator
	log       *zap.Logger
	BatchSize int
	MaxWait   time.Duration
	NakDelay  time.Duration
}

func NewCreateConsumer(js nats.JetStreamContext, svc Creator, log *zap.Logger) *CreateConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &CreateConsumer{
		js:        js,
		svc:       svc,
		log:       log.Named("create_consumer"),
		BatchSize: 100,
		MaxWait:   2 * time.Second,
		NakDelay:  time.Second,
	}
}

// Run fetches batches until ctx is done.
func (c *CreateConsumer) Run(ctx context.Context) error {
	sub, err := c.js.PullSubscribe(SubjectCreateComment, DurableCreateComment, nats.BindStream(StreamCommands))
	if err != nil {
		return err
	}
	defer func() { _ = sub.Unsubscribe() }()
	c.log.Info("consumer started", zap.String("subject", SubjectCreateComment), zap.String("durable", DurableCreateComment))

	for {
		if ctx.Err() != nil {
			return nil
		}
		msgs, err := sub.Fetch(c.BatchSize, nats.MaxWait(c.MaxWait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			c.log.Warn("fetch", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		for _, m := range msgs {
			c.settle(m, c.handle(ctx, m.Data))
		}
	}
}

func (c *CreateConsumer) settle(m *nats.Msg, act ackAction) {
	var err error
	switch act {
	case actAck:
		err = m.Ack()
	case actNak:
		err = m.NakWithDelay(c.NakDelay)
	case actTerm:
		err = m.Term()
	}
	if err != nil {
		c.log.Warn("settle message", zap.Stringer("action", act), zap.Error(err))
	}
}

// handle applies one command and decides its fate. Only storage failures
// are redelivered; anything the service rejected would be rejected again.
func (c *CreateConsumer) handle(ctx context.Context, data []byte) ackAction {
	var cmd CreateCommentCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		c.log.Warn("invalid create command", zap.Error(err))
		return actTerm
	}

	in := thread.CreateInput{
		SubjectID: cmd.SubjectID,
		AuthorID:  cmd.AuthorID,
		Content:   cmd.Content,
		ParentID:  cmd.ParentID,
	}
	if id, err := uuid.Parse(cmd.EventID); err == nil {
		in.ID = id.String()
	}

	created, err := c.svc.CreateComment(ctx, in)
	switch {
	case err == nil:
		c.log.Debug("comment created", zap.String("comment_id", created.ID), zap.String("event_id", cmd.EventID))
		return actAck
	case domain.Retryable(err), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.log.Warn("create comment deferred", zap.String("event_id", cmd.EventID), zap.Error(err))
		return actNak
	default:
		c.log.Info("create comment rejected", zap.String("event_id", cmd.EventID), zap.Error(err))
		return actAck
	}
}
