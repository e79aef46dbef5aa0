package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stocktalk/internal/middleware"
)

const (
	UserKeyPrefix         = "user:%d:v%d"
	UserVersionKey        = "user:%d:version"
	PostKeyPrefix         = "post:%d:v%d"
	PostVersionKey        = "post:%d:version"
	PostsListKeyPrefix    = "posts:list:v%d:%s"
	PostsListVersionKey   = "posts:list:version"
	postsListVersionUnset = 0
)

const (
	UserTTL = 5 * time.Minute
	PostTTL = 30 * time.Minute
	ListTTL = 1 * time.Minute
)

// UserKey returns the key of one user under that user's current generation.
// Callers must build the key before reading the database: a write that lands
// in between bumps the generation, so the stale value is stored under a key
// nobody reads again.
func UserKey(ctx context.Context, userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID, generation(ctx, fmt.Sprintf(UserVersionKey, userID)))
}

// PostKey returns the detail key of one post under its current generation.
// The same ordering rule as UserKey applies.
func PostKey(ctx context.Context, postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID, generation(ctx, fmt.Sprintf(PostVersionKey, postID)))
}

// PostsListKey returns the list key for a query fingerprint under the current
// list generation. Bumping the generation orphans every cached list at once.
func PostsListKey(ctx context.Context, fingerprint string) string {
	return fmt.Sprintf(PostsListKeyPrefix, generation(ctx, PostsListVersionKey), fingerprint)
}

func generation(ctx context.Context, versionKey string) int64 {
	if client == nil {
		return postsListVersionUnset
	}
	v, err := client.Get(ctx, versionKey).Int64()
	if err != nil {
		return postsListVersionUnset
	}
	return v
}

func bump(ctx context.Context, versionKey string) {
	if client == nil {
		return
	}
	if err := client.Incr(ctx, versionKey).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "Cache invalidation failed",
			slog.String("key", versionKey), slog.String("error", err.Error()))
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	bump(ctx, fmt.Sprintf(UserVersionKey, userID))
}

// InvalidatePostDetail orphans the cached detail of one post.
func InvalidatePostDetail(ctx context.Context, postID uint) {
	bump(ctx, fmt.Sprintf(PostVersionKey, postID))
}

// InvalidatePost orphans the cached detail of one post and every cached list.
func InvalidatePost(ctx context.Context, postID uint) {
	InvalidatePostDetail(ctx, postID)
	InvalidatePostsList(ctx)
}

func InvalidatePostsList(ctx context.Context) {
	bump(ctx, PostsListVersionKey)
}
