package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"stocktalk/internal/cache"
	"stocktalk/internal/events"
	"stocktalk/internal/models"
	"stocktalk/internal/observability"
	"stocktalk/internal/repository"
	"stocktalk/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

type PostService struct {
	postRepo  repository.PostRepository
	publisher events.Publisher
}

type CreatePostInput struct {
	AuthorID    uint
	StockSymbol string
	Title       string
	Description string
	Tags        []string
}

type ListPostsInput struct {
	StockSymbol string
	Tags        []string
	SortBy      string
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

func NewPostService(postRepo repository.PostRepository, publisher events.Publisher) *PostService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &PostService{postRepo: postRepo, publisher: publisher}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, finish := observability.StartSpan(ctx, "PostService.CreatePost")
	defer func() { finish(err) }()

	symbol := validation.NormalizeStockSymbol(in.StockSymbol)
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if symbol == "" || title == "" || description == "" {
		return nil, models.NewValidationError("stockSymbol, title and description are required")
	}
	if err := validation.ValidateStockSymbol(symbol); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if len(title) > validation.MaxTitleLength {
		return nil, models.NewValidationError(fmt.Sprintf("Title too long (max %d characters)", validation.MaxTitleLength))
	}
	tags := validation.NormalizeTags(in.Tags)
	if err := validation.ValidateTags(tags); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post = &models.Post{
		StockSymbol: symbol,
		Title:       title,
		Description: description,
		AuthorID:    in.AuthorID,
		Tags:        tags,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	observability.PostsCreated.WithLabelValues(symbol).Inc()
	events.Emit(ctx, s.publisher, events.Event{
		Type:        events.PostCreated,
		PostID:      post.ID,
		ActorID:     in.AuthorID,
		StockSymbol: symbol,
	})
	return post, nil
}

// ListPosts returns post summaries. Unknown sort keys fall back to newest first.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (summaries []models.PostSummary, err error) {
	ctx, finish := observability.StartSpan(ctx, "PostService.ListPosts")
	defer func() { finish(err) }()

	filter := repository.PostFilter{
		StockSymbol: validation.NormalizeStockSymbol(in.StockSymbol),
		Tags:        validation.NormalizeTags(in.Tags),
		SortBy:      repository.SortByDate,
	}
	if strings.EqualFold(strings.TrimSpace(in.SortBy), repository.SortByLikes) {
		filter.SortBy = repository.SortByLikes
	}

	key := cache.PostsListKey(ctx, listFingerprint(filter))
	err = cache.Aside(ctx, key, &summaries, cache.ListTTL, func() error {
		posts, fetchErr := s.postRepo.List(ctx, filter)
		if fetchErr != nil {
			return fetchErr
		}
		summaries = make([]models.PostSummary, 0, len(posts))
		for _, p := range posts {
			summaries = append(summaries, p.Summary())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func (s *PostService) GetPost(ctx context.Context, postID uint) (*models.Post, error) {
	return s.postRepo.GetWithComments(ctx, postID)
}

// DeletePost removes a post with everything attached to it. Only the author
// may delete.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) (err error) {
	ctx, finish := observability.StartSpan(ctx, "PostService.DeletePost",
		attribute.Int64("post.id", int64(in.PostID)))
	defer func() { finish(err) }()

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return err
	}
	if post.AuthorID != in.UserID {
		return models.NewForbiddenError("You can only delete your own posts")
	}

	if err := s.postRepo.Delete(ctx, in.PostID); err != nil {
		return err
	}

	events.Emit(ctx, s.publisher, events.Event{
		Type:        events.PostDeleted,
		PostID:      in.PostID,
		ActorID:     in.UserID,
		StockSymbol: post.StockSymbol,
	})
	return nil
}

func listFingerprint(f repository.PostFilter) string {
	tags := slices.Clone(f.Tags)
	slices.Sort(tags)
	return fmt.Sprintf("symbol=%s|tags=%s|sort=%s", f.StockSymbol, strings.Join(tags, ","), f.SortBy)
}
