package repository

import (
	"context"
	"errors"

	"stocktalk/internal/cache"
	"stocktalk/internal/models"
	"stocktalk/internal/observability"

	"gorm.io/gorm"
)

// Sort orders for post lists.
const (
	SortByDate  = "date"
	SortByLikes = "likes"
)

// PostFilter narrows a post list. Empty fields do not filter.
type PostFilter struct {
	StockSymbol string
	Tags        []string
	SortBy      string
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetWithComments(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter) ([]*models.Post, error)
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// Create writes the post and its ordered tags in one transaction. post.Tags must
// already be normalized.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("insert", "posts")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("TagRows", "Comments").Create(post).Error; err != nil {
			return err
		}
		if len(post.Tags) == 0 {
			return nil
		}

		rows := make([]models.PostTag, 0, len(post.Tags))
		for i, tag := range post.Tags {
			rows = append(rows, models.PostTag{PostID: post.ID, Tag: tag, Position: i})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		post.TagRows = rows
		return nil
	})
	if err != nil {
		return appErr(err)
	}

	if post.Tags == nil {
		post.Tags = []string{}
	}
	cache.InvalidatePostsList(ctx)
	return nil
}

// GetByID loads a post with tags and like count, bypassing the cache.
func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Select(postColumns()).
		Preload("TagRows", orderTags).
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	post.HydrateTags()
	return &post, nil
}

// GetWithComments loads the post detail with comments in insertion order.
// Served cache-aside; every write on the post invalidates the entry.
func (r *postRepository) GetWithComments(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	key := cache.PostKey(ctx, id)

	err := cache.Aside(ctx, key, &post, cache.PostTTL, func() error {
		defer observability.TrackQuery("select", "posts")()

		err := r.db.WithContext(ctx).
			Select(postColumns()).
			Preload("TagRows", orderTags).
			Preload("Comments", func(db *gorm.DB) *gorm.DB {
				return db.Order("comments.id ASC")
			}).
			First(&post, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", id)
			}
			return models.NewInternalError(err)
		}
		post.HydrateTags()
		if post.Comments == nil {
			post.Comments = []models.Comment{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns posts matching filter. The stock symbol matches exactly; tags
// match when the post carries any of them.
func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]*models.Post, error) {
	defer observability.TrackQuery("select", "posts")()

	q := r.db.WithContext(ctx).Model(&models.Post{}).Select(postColumns())
	if filter.StockSymbol != "" {
		q = q.Where("posts.stock_symbol = ?", filter.StockSymbol)
	}
	if len(filter.Tags) > 0 {
		q = q.Where("EXISTS (SELECT 1 FROM post_tags WHERE post_tags.post_id = posts.id AND post_tags.tag IN ?)", filter.Tags)
	}

	if filter.SortBy == SortByLikes {
		q = q.Order("likes_count DESC")
	}
	q = q.Order("posts.created_at DESC").Order("posts.id DESC")

	var posts []*models.Post
	if err := q.Preload("TagRows", orderTags).Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, p := range posts {
		p.HydrateTags()
	}
	return posts, nil
}

// Delete removes the post with its comments, likes and tags as one unit. The
// post row is locked first, so a concurrent comment or like either lands
// before the cascade or finds the post gone.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "posts")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPost(tx, id); err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
	if err != nil {
		return appErr(err)
	}

	cache.InvalidatePost(ctx, id)
	return nil
}

func orderTags(db *gorm.DB) *gorm.DB {
	return db.Order("post_tags.position ASC")
}
