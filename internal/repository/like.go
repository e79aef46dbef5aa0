package repository

import (
	"context"

	"stocktalk/internal/cache"
	"stocktalk/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository maintains the like set: at most one like per (user, post).
type LikeRepository interface {
	Like(ctx context.Context, userID, postID uint) (*models.LikeState, error)
	Unlike(ctx context.Context, userID, postID uint) (*models.LikeState, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new LikeRepository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Like adds (userID, postID) to the like set. The unique index decides a race
// between two likes; the loser sees zero rows affected and gets a conflict.
func (r *likeRepository) Like(ctx context.Context, userID, postID uint) (*models.LikeState, error) {
	var state *models.LikeState
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPost(tx, postID); err != nil {
			return err
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Like{UserID: userID, PostID: postID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewConflictError("Post already liked")
		}

		var err error
		state, err = likeState(tx, postID, true)
		return err
	})
	if err != nil {
		return nil, appErr(err)
	}
	cache.InvalidatePost(ctx, postID)
	return state, nil
}

// Unlike removes (userID, postID) from the like set.
func (r *likeRepository) Unlike(ctx context.Context, userID, postID uint) (*models.LikeState, error) {
	var state *models.LikeState
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPost(tx, postID); err != nil {
			return err
		}
		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewConflictError("Post not liked")
		}

		var err error
		state, err = likeState(tx, postID, false)
		return err
	})
	if err != nil {
		return nil, appErr(err)
	}
	cache.InvalidatePost(ctx, postID)
	return state, nil
}

// likeState reads the count inside tx so it reflects the write just made.
func likeState(tx *gorm.DB, postID uint, liked bool) (*models.LikeState, error) {
	var count int64
	if err := tx.Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return nil, err
	}
	return &models.LikeState{PostID: postID, Liked: liked, LikesCount: int(count)}, nil
}
