package service

import (
	"context"
	"strings"

	"stocktalk/internal/events"
	"stocktalk/internal/models"
	"stocktalk/internal/observability"
	"stocktalk/internal/repository"
	"stocktalk/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	publisher   events.Publisher
}

type AddCommentInput struct {
	UserID uint
	PostID uint
	Text   string
}

type RemoveCommentInput struct {
	UserID    uint
	PostID    uint
	CommentID uint
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository, publisher events.Publisher) *CommentService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo, publisher: publisher}
}

func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (comment *models.Comment, err error) {
	ctx, finish := observability.StartSpan(ctx, "CommentService.AddComment")
	defer func() { finish(err) }()

	if err := validation.ValidateCommentText(in.Text); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	comment = &models.Comment{
		PostID:   in.PostID,
		AuthorID: in.UserID,
		Text:     strings.TrimSpace(in.Text),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	observability.CommentEvents.WithLabelValues("added").Inc()
	events.Emit(ctx, s.publisher, events.Event{
		Type:      events.CommentAdded,
		PostID:    in.PostID,
		CommentID: comment.ID,
		ActorID:   in.UserID,
	})
	return comment, nil
}

func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.commentRepo.ListByPost(ctx, postID)
}

// RemoveComment deletes a comment. The comment's author and the author of the
// post it sits under may remove it.
func (s *CommentService) RemoveComment(ctx context.Context, in RemoveCommentInput) (err error) {
	ctx, finish := observability.StartSpan(ctx, "CommentService.RemoveComment")
	defer func() { finish(err) }()

	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return err
	}
	if comment.PostID != in.PostID {
		return models.NewNotFoundError("Comment", in.CommentID)
	}

	if comment.AuthorID != in.UserID {
		post, err := s.postRepo.GetByID(ctx, in.PostID)
		if err != nil {
			return err
		}
		if post.AuthorID != in.UserID {
			return models.NewForbiddenError("You can only delete your own comments")
		}
	}

	if err := s.commentRepo.Delete(ctx, in.PostID, in.CommentID); err != nil {
		return err
	}

	observability.CommentEvents.WithLabelValues("removed").Inc()
	events.Emit(ctx, s.publisher, events.Event{
		Type:      events.CommentRemoved,
		PostID:    in.PostID,
		CommentID: in.CommentID,
		ActorID:   in.UserID,
	})
	return nil
}
