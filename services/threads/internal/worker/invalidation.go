package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/cinema-social/services/threads/internal/domain"
)

// SubjectIndexInvalidate carries sibling group invalidations between replicas.
const SubjectIndexInvalidate = "threads.index.invalidate"

// InvalidationMessage names one sibling group. Origin identifies the
// replica that already invalidated locally.
type InvalidationMessage struct {
	SubjectID string  `json:"subject_id"`
	ParentID  *string `json:"parent_id"`
	Origin    string  `json:"origin"`
}

// Invalidator is implemented by *index.Index.
type Invalidator interface {
	Invalidate(subjectID string, parentID *string)
}

// Publisher is implemented by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Broadcaster tells other replicas about committed writes.
// It satisfies thread.Observer.
type Broadcaster struct {
	pub    Publisher
	origin string
	log    *zap.Logger
}

func NewBroadcaster(pub Publisher, origin string, log *zap.Logger) *Broadcaster {
	if log == nil {
		log = zap.NewNop()
	}
	return &Broadcaster{pub: pub, origin: origin, log: log.Named("invalidation")}
}

func (b *Broadcaster) CommentWritten(_ context.Context, c domain.Comment, _ bool) {
	data, err := json.Marshal(InvalidationMessage{SubjectID: c.SubjectID, ParentID: c.ParentID, Origin: b.origin})
	if err != nil {
		b.log.Warn("marshal invalidation", zap.Error(err))
		return
	}
	// Peers missing this message keep a stale group until LRU eviction or purge.
	if err := b.pub.Publish(SubjectIndexInvalidate, data); err != nil {
		b.log.Warn("publish invalidation",
			zap.String("subject_id", c.SubjectID),
			zap.String("parent_id", c.Parent()),
			zap.Error(err))
	}
}

// HandleInvalidation applies one broadcast message. Messages from origin
// itself are ignored.
func HandleInvalidation(ix Invalidator, origin string, data []byte) error {
	var msg InvalidationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("decode invalidation: %w", err)
	}
	if msg.SubjectID == "" {
		return fmt.Errorf("invalidation without subject_id")
	}
	if msg.Origin == origin {
		return nil
	}
	ix.Invalidate(msg.SubjectID, msg.ParentID)
	return nil
}

// SubscribeInvalidations applies peer invalidations to ix until the
// subscription is drained.
func SubscribeInvalidations(nc *nats.Conn, origin string, ix Invalidator, log *zap.Logger) (*nats.Subscription, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("invalidation")
	return nc.Subscribe(SubjectIndexInvalidate, func(m *nats.Msg) {
		if err := HandleInvalidation(ix, origin, m.Data); err != nil {
			log.Warn("drop invalidation", zap.Error(err))
		}
	})
}
