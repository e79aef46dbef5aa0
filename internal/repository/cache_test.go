package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"stocktalk/internal/cache"
	"stocktalk/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// beforeSetHook runs fn once, right before the first SET on a key with prefix.
type beforeSetHook struct {
	prefix string
	once   sync.Once
	fn     func()
}

func (h *beforeSetHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *beforeSetHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "set" && len(cmd.Args()) > 1 {
			if key := fmt.Sprint(cmd.Args()[1]); strings.HasPrefix(key, h.prefix) {
				h.once.Do(h.fn)
			}
		}
		return next(ctx, cmd)
	}
}

func (h *beforeSetHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func setupRedis(t *testing.T, hooks ...redis.Hook) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	for _, h := range hooks {
		rdb.AddHook(h)
	}
	cache.SetClient(rdb)
	t.Cleanup(func() { _ = cache.Close() })
	return mr
}

func TestPostRepository_GetWithComments_LikeDuringFetch(t *testing.T) {
	db := setupSQLiteDB(t)
	posts := NewPostRepository(db)
	likes := NewLikeRepository(db)
	ctx := context.Background()

	author := createUser(t, db, "author@example.com")
	fan := createUser(t, db, "fan@example.com")
	post := createPost(t, posts, author.ID, "NVDA")

	// The like commits after the reader has loaded the post but before it
	// stores the result.
	hook := &beforeSetHook{prefix: "post:", fn: func() {
		_, err := likes.Like(ctx, fan.ID, post.ID)
		require.NoError(t, err)
	}}
	mr := setupRedis(t, hook)

	first, err := posts.GetWithComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, first.LikesCount)

	second, err := posts.GetWithComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, second.LikesCount)

	// The entry written under the old generation is never read again.
	assert.True(t, mr.Exists(fmt.Sprintf("post:%d:v0", post.ID)))
	assert.True(t, mr.Exists(fmt.Sprintf("post:%d:v1", post.ID)))

	third, err := posts.GetWithComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, third.LikesCount)
}

func TestPostRepository_GetWithComments_CommentInvalidates(t *testing.T) {
	db := setupSQLiteDB(t)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()
	setupRedis(t)

	author := createUser(t, db, "author@example.com")
	post := createPost(t, posts, author.ID, "MSFT")

	cached, err := posts.GetWithComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, cached.Comments)

	require.NoError(t, comments.Create(ctx, &models.Comment{PostID: post.ID, AuthorID: author.ID, Text: "cloud growth"}))

	fresh, err := posts.GetWithComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, fresh.Comments, 1)
	assert.Equal(t, "cloud growth", fresh.Comments[0].Text)
}
