package service

import (
	"context"
	"testing"

	"stocktalk/internal/events"
	"stocktalk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// likeRepoStub is a stub for repository.LikeRepository.
type likeRepoStub struct {
	likeFn   func(context.Context, uint, uint) (*models.LikeState, error)
	unlikeFn func(context.Context, uint, uint) (*models.LikeState, error)
}

func (s *likeRepoStub) Like(ctx context.Context, userID, postID uint) (*models.LikeState, error) {
	return s.likeFn(ctx, userID, postID)
}

func (s *likeRepoStub) Unlike(ctx context.Context, userID, postID uint) (*models.LikeState, error) {
	return s.unlikeFn(ctx, userID, postID)
}

func TestLikeService_LikeAndUnlike(t *testing.T) {
	t.Parallel()

	repo := &likeRepoStub{
		likeFn: func(_ context.Context, _, postID uint) (*models.LikeState, error) {
			return &models.LikeState{PostID: postID, Liked: true, LikesCount: 4}, nil
		},
		unlikeFn: func(_ context.Context, _, postID uint) (*models.LikeState, error) {
			return &models.LikeState{PostID: postID, Liked: false, LikesCount: 3}, nil
		},
	}
	pub := &publisherStub{}
	svc := NewLikeService(repo, pub)

	state, err := svc.Like(context.Background(), 1, 8)
	require.NoError(t, err)
	assert.True(t, state.Liked)
	assert.Equal(t, 4, state.LikesCount)

	state, err = svc.Unlike(context.Background(), 1, 8)
	require.NoError(t, err)
	assert.False(t, state.Liked)

	require.Len(t, pub.events, 2)
	assert.Equal(t, events.PostLiked, pub.events[0].Type)
	require.NotNil(t, pub.events[0].LikesCount)
	assert.Equal(t, 4, *pub.events[0].LikesCount)
	assert.Equal(t, events.PostUnliked, pub.events[1].Type)
	assert.Equal(t, 3, *pub.events[1].LikesCount)
}

func TestLikeService_Errors(t *testing.T) {
	t.Parallel()

	repo := &likeRepoStub{
		likeFn: func(_ context.Context, _, _ uint) (*models.LikeState, error) {
			return nil, models.NewConflictError("Post already liked")
		},
		unlikeFn: func(_ context.Context, _, postID uint) (*models.LikeState, error) {
			return nil, models.NewNotFoundError("Post", postID)
		},
	}
	pub := &publisherStub{}
	svc := NewLikeService(repo, pub)

	_, err := svc.Like(context.Background(), 1, 8)
	assert.True(t, models.HasCode(err, models.CodeConflict))

	_, err = svc.Unlike(context.Background(), 1, 8)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	assert.Empty(t, pub.events)
}
