package repository

import (
	"context"
	"errors"

	"stocktalk/internal/cache"
	"stocktalk/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint) ([]models.Comment, error)
	Delete(ctx context.Context, postID, commentID uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create locks the parent post and inserts the comment in one transaction, so a
// comment can never be attached to a post that is being deleted.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPost(tx, comment.PostID); err != nil {
			return err
		}
		return tx.Create(comment).Error
	})
	if err != nil {
		return appErr(err)
	}
	cache.InvalidatePostDetail(ctx, comment.PostID)
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

// ListByPost returns the post's comments in insertion order.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if count == 0 {
		return nil, models.NewNotFoundError("Post", postID)
	}

	comments := []models.Comment{}
	if err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("id ASC").Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// Delete removes the comment only if it still belongs to postID.
func (r *commentRepository) Delete(ctx context.Context, postID, commentID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPost(tx, postID); err != nil {
			return err
		}
		res := tx.Where("id = ? AND post_id = ?", commentID, postID).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Comment", commentID)
		}
		return nil
	})
	if err != nil {
		return appErr(err)
	}
	cache.InvalidatePostDetail(ctx, postID)
	return nil
}
