package repository

import (
	"errors"

	"stocktalk/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// likesCountSQL derives a post's like count from the like set at read time.
const likesCountSQL = "(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count"

func postColumns() string {
	return "posts.*, " + likesCountSQL
}

// lockPost takes a row lock on the post for the rest of tx. Every write that
// touches a post's comments, likes or existence goes through here first, so
// writes on one post are serialized while other posts never contend.
func lockPost(tx *gorm.DB, postID uint) (*models.Post, error) {
	var post models.Post
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "author_id").
		First(&post, postID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", postID)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

// appErr passes AppErrors through and wraps everything else as internal.
func appErr(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}
