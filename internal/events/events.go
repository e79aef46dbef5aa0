// Package events publishes domain events after a write has committed.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stocktalk/internal/config"
	"stocktalk/internal/middleware"
	"stocktalk/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Event types
const (
	PostCreated    = "post.created"
	PostDeleted    = "post.deleted"
	CommentAdded   = "comment.added"
	CommentRemoved = "comment.removed"
	PostLiked      = "post.liked"
	PostUnliked    = "post.unliked"
)

// RedisChannel is the pub/sub channel used by the redis driver.
const RedisChannel = "stocktalk:events"

// publishTimeout caps how long Emit holds up the response of a committed write.
var publishTimeout = 2 * time.Second

// Event is the payload written to the broker.
type Event struct {
	Type        string    `json:"type"`
	PostID      uint      `json:"postId"`
	CommentID   uint      `json:"commentId,omitempty"`
	ActorID     uint      `json:"actorId"`
	StockSymbol string    `json:"stockSymbol,omitempty"`
	LikesCount  *int      `json:"likesCount,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Driver() string
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

func (Noop) Driver() string { return "none" }

func (Noop) Close() error { return nil }

// NewPublisher picks the publisher for cfg.EventsDriver. The redis driver needs
// rdb; without it events are dropped.
func NewPublisher(cfg *config.Config, rdb *redis.Client) (Publisher, error) {
	switch cfg.EventsDriver {
	case "", "none":
		return Noop{}, nil
	case "redis":
		if rdb == nil {
			middleware.Logger.Warn("EVENTS_DRIVER is redis but Redis is unavailable, events disabled")
			return Noop{}, nil
		}
		return NewRedisPublisher(rdb, RedisChannel), nil
	case "kafka":
		return NewKafkaPublisher(cfg.KafkaBrokerList(), cfg.KafkaTopic), nil
	default:
		return nil, fmt.Errorf("unsupported events driver %q", cfg.EventsDriver)
	}
}

// Emit publishes ev and logs a failure instead of returning it. The write it
// describes has already committed, so the request must not fail. The publish
// outlives a canceled request but never runs past publishTimeout.
func Emit(ctx context.Context, p Publisher, ev Event) {
	if p == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.Publish(pubCtx, ev); err != nil {
		observability.EventsPublished.WithLabelValues(p.Driver(), "error").Inc()
		middleware.Logger.WarnContext(ctx, "Event publish failed",
			slog.String("event", ev.Type),
			slog.Any("post_id", ev.PostID),
			slog.String("driver", p.Driver()),
			slog.String("error", err.Error()),
		)
		return
	}
	observability.EventsPublished.WithLabelValues(p.Driver(), "ok").Inc()
}

// Count is a helper for building LikesCount.
func Count(n int) *int {
	return &n
}
