package service

import (
	"context"

	"stocktalk/internal/events"
	"stocktalk/internal/models"
	"stocktalk/internal/observability"
	"stocktalk/internal/repository"
)

type LikeService struct {
	likeRepo  repository.LikeRepository
	publisher events.Publisher
}

func NewLikeService(likeRepo repository.LikeRepository, publisher events.Publisher) *LikeService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &LikeService{likeRepo: likeRepo, publisher: publisher}
}

func (s *LikeService) Like(ctx context.Context, userID, postID uint) (state *models.LikeState, err error) {
	ctx, finish := observability.StartSpan(ctx, "LikeService.Like")
	defer func() { finish(err) }()

	state, err = s.likeRepo.Like(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	observability.LikeEvents.WithLabelValues("liked").Inc()
	events.Emit(ctx, s.publisher, events.Event{
		Type:       events.PostLiked,
		PostID:     postID,
		ActorID:    userID,
		LikesCount: events.Count(state.LikesCount),
	})
	return state, nil
}

func (s *LikeService) Unlike(ctx context.Context, userID, postID uint) (state *models.LikeState, err error) {
	ctx, finish := observability.StartSpan(ctx, "LikeService.Unlike")
	defer func() { finish(err) }()

	state, err = s.likeRepo.Unlike(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	observability.LikeEvents.WithLabelValues("unliked").Inc()
	events.Emit(ctx, s.publisher, events.Event{
		Type:       events.PostUnliked,
		PostID:     postID,
		ActorID:    userID,
		LikesCount: events.Count(state.LikesCount),
	})
	return state, nil
}
