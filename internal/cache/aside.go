package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"stocktalk/internal/middleware"
	"stocktalk/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Aside loads key into dest, calling fetch on a miss and storing its result for
// ttl. Redis failures degrade to calling fetch directly. Errors from fetch are
// returned unchanged and nothing is cached.
//
// The result is stored even if the data changed during fetch, so key must come
// from a generation-scoped builder such as PostKey, evaluated before the call.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if client == nil {
		return fetch()
	}

	raw, err := client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			observability.CacheResults.WithLabelValues("hit").Inc()
			return nil
		}
		// Unreadable entry, rebuild it
		observability.CacheResults.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		observability.CacheResults.WithLabelValues("miss").Inc()
	default:
		observability.CacheResults.WithLabelValues("error").Inc()
		middleware.Logger.WarnContext(ctx, "Cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	if err := fetch(); err != nil {
		return err
	}

	payload, err := json.Marshal(dest)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "Cache encode failed", slog.String("key", key), slog.String("error", err.Error()))
		return nil
	}
	if err := client.Set(ctx, key, payload, ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "Cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}
