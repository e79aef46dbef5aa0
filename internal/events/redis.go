package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"

	"stocktalk/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher provides helpers to publish events into a Redis channel
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

// NewRedisPublisher creates a new RedisPublisher using the provided Redis client.
func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

// Publish sends the event as JSON on the configured channel.
func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	if p.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.rdb.Publish(ctx, p.channel, string(payload)).Err()
}

func (p *RedisPublisher) Driver() string { return "redis" }

// Close leaves the shared client open; it belongs to the cache package.
func (p *RedisPublisher) Close() error { return nil }

// Subscribe listens on the channel and calls onEvent for each decoded event
// until ctx is done. Undecodable payloads are skipped.
func (p *RedisPublisher) Subscribe(ctx context.Context, onEvent func(Event)) error {
	if p.rdb == nil {
		return nil
	}
	sub := p.rdb.Subscribe(ctx, p.channel)
	// Wait for the subscription to be confirmed so no publish is missed
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", p.channel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					middleware.Logger.Warn("Skipping malformed event", slog.String("error", err.Error()))
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("PANIC in event subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onEvent(ev)
				}()
			}
		}
	}()

	return nil
}
