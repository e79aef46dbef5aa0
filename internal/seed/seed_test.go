package seed

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"stocktalk/internal/database"
	"stocktalk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestBuildPost_NormalizesAndSpreadsDates(t *testing.T) {
	t.Parallel()

	f := NewFactory(nil, Options{MaxDays: 30, RandomSeed: 42}, "hash")
	author := &models.User{ID: 1}

	for i := 0; i < 20; i++ {
		p := f.BuildPost(author)
		assert.Equal(t, strings.ToUpper(p.StockSymbol), p.StockSymbol)
		assert.NotEmpty(t, p.Title)
		assert.NotEmpty(t, p.Description)
		assert.NotNil(t, p.Tags)
		assert.LessOrEqual(t, len(p.Tags), 3)
		assert.Equal(t, uint(1), p.AuthorID)
		assert.LessOrEqual(t, time.Since(p.CreatedAt), 31*24*time.Hour)
	}

	p := f.BuildPost(author, func(p *models.Post) {
		p.StockSymbol = " msft "
		p.Tags = []string{"cloud", " cloud", ""}
	})
	assert.Equal(t, "MSFT", p.StockSymbol)
	assert.Equal(t, []string{"cloud"}, p.Tags)
}

func TestBuildUser_UsesSharedHash(t *testing.T) {
	t.Parallel()

	f := NewFactory(nil, Options{RandomSeed: 7}, "shared-hash")
	u := f.BuildUser()
	assert.Equal(t, "shared-hash", u.Password)
	assert.True(t, strings.HasSuffix(u.Email, "@example.com"))
	assert.Equal(t, strings.ToLower(u.Email), u.Email)
}

func TestSeeder_ApplyFixture(t *testing.T) {
	t.Parallel()
	db := newSQLite(t)
	ctx := context.Background()

	s, err := NewSeeder(ctx, db, Options{Fast: true})
	require.NoError(t, err)
	fx, err := DefaultFixture()
	require.NoError(t, err)

	sum, err := s.ApplyFixture(ctx, fx)
	require.NoError(t, err)
	assert.Equal(t, Summary{Users: 3, Posts: 4, Comments: 3, Likes: 5}, sum)

	assert.Equal(t, int64(3), count(t, db, &models.User{}))
	assert.Equal(t, int64(4), count(t, db, &models.Post{}))
	assert.Equal(t, int64(3), count(t, db, &models.Comment{}))
	assert.Equal(t, int64(5), count(t, db, &models.Like{}))

	var tags []models.PostTag
	require.NoError(t, db.Joins("JOIN posts ON posts.id = post_tags.post_id").
		Where("posts.stock_symbol = ?", "NVDA").
		Order("position").Find(&tags).Error)
	require.Len(t, tags, 3)
	assert.Equal(t, "ai", tags[0].Tag)

	// Reapplying reuses existing users instead of failing on their emails
	sum, err = s.ApplyFixture(ctx, fx)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Users)
	assert.Equal(t, 4, sum.Posts)
	assert.Equal(t, int64(3), count(t, db, &models.User{}))
}

func TestSeeder_SeedRandomAndClear(t *testing.T) {
	t.Parallel()
	db := newSQLite(t)
	ctx := context.Background()

	s, err := NewSeeder(ctx, db, Options{
		NumUsers:           5,
		NumPosts:           8,
		MaxCommentsPerPost: 2,
		LikeChance:         1,
		Fast:               true,
		RandomSeed:         99,
	})
	require.NoError(t, err)

	sum, err := s.SeedRandom(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Users)
	assert.Equal(t, 8, sum.Posts)
	assert.Equal(t, 40, sum.Likes)
	assert.Equal(t, int64(sum.Comments), count(t, db, &models.Comment{}))
	assert.Equal(t, int64(40), count(t, db, &models.Like{}))

	require.NoError(t, s.ClearAll(ctx))
	for _, model := range []any{&models.User{}, &models.Post{}, &models.PostTag{}, &models.Comment{}, &models.Like{}} {
		assert.Zero(t, count(t, db, model))
	}
}

func TestSeeder_StoresBcryptHash(t *testing.T) {
	t.Parallel()
	db := newSQLite(t)
	ctx := context.Background()

	s, err := NewSeeder(ctx, db, Options{Fast: true, Password: "letmein"})
	require.NoError(t, err)
	user, err := s.Factory().CreateUser(ctx)
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.NotEqual(t, "letmein", stored.Password)
	assert.True(t, strings.HasPrefix(stored.Password, "$2"))
}
