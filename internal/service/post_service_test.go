package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"stocktalk/internal/events"
	"stocktalk/internal/models"
	"stocktalk/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn          func(context.Context, *models.Post) error
	getByIDFn         func(context.Context, uint) (*models.Post, error)
	getWithCommentsFn func(context.Context, uint) (*models.Post, error)
	listFn            func(context.Context, repository.PostFilter) ([]*models.Post, error)
	deleteFn          func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}

func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}

func (s *postRepoStub) GetWithComments(ctx context.Context, id uint) (*models.Post, error) {
	return s.getWithCommentsFn(ctx, id)
}

func (s *postRepoStub) List(ctx context.Context, filter repository.PostFilter) ([]*models.Post, error) {
	return s.listFn(ctx, filter)
}

func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:          func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:         func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		getWithCommentsFn: func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listFn:            func(_ context.Context, _ repository.PostFilter) ([]*models.Post, error) { return nil, nil },
		deleteFn:          func(_ context.Context, _ uint) error { return nil },
	}
}

// publisherStub records published events.
type publisherStub struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *publisherStub) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *publisherStub) Driver() string { return "stub" }

func (p *publisherStub) Close() error { return nil }

func (p *publisherStub) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}

func TestPostService_CreatePost_Validation(t *testing.T) {
	t.Parallel()

	svc := NewPostService(noopPostRepo(), nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreatePostInput
	}{
		{
			name:  "missing symbol",
			input: CreatePostInput{AuthorID: 1, Title: "T", Description: "D"},
		},
		{
			name:  "missing title",
			input: CreatePostInput{AuthorID: 1, StockSymbol: "AAPL", Description: "D"},
		},
		{
			name:  "blank description",
			input: CreatePostInput{AuthorID: 1, StockSymbol: "AAPL", Title: "T", Description: "   "},
		},
		{
			name:  "symbol with whitespace",
			input: CreatePostInput{AuthorID: 1, StockSymbol: "BRK B", Title: "T", Description: "D"},
		},
		{
			name:  "symbol too long",
			input: CreatePostInput{AuthorID: 1, StockSymbol: strings.Repeat("A", 17), Title: "T", Description: "D"},
		},
		{
			name:  "title too long",
			input: CreatePostInput{AuthorID: 1, StockSymbol: "AAPL", Title: strings.Repeat("x", 301), Description: "D"},
		},
		{
			name:  "tag too long",
			input: CreatePostInput{AuthorID: 1, StockSymbol: "AAPL", Title: "T", Description: "D", Tags: []string{strings.Repeat("t", 65)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.CreatePost(ctx, tt.input)
			assertValidationError(t, err)
		})
	}
}

func TestPostService_CreatePost_Success(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	var created *models.Post
	repo.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = 42
		created = p
		return nil
	}
	pub := &publisherStub{}
	svc := NewPostService(repo, pub)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID:    5,
		StockSymbol: " aapl ",
		Title:       " Earnings beat ",
		Description: "Strong iPhone quarter",
		Tags:        []string{"tech", " tech", "", "earnings"},
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, uint(42), post.ID)
	assert.Equal(t, "AAPL", post.StockSymbol)
	assert.Equal(t, "Earnings beat", post.Title)
	assert.Equal(t, uint(5), post.AuthorID)
	assert.Equal(t, []string{"tech", "earnings"}, post.Tags)
	assert.Zero(t, post.LikesCount)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.PostCreated, pub.events[0].Type)
	assert.Equal(t, uint(42), pub.events[0].PostID)
	assert.Equal(t, "AAPL", pub.events[0].StockSymbol)
}

func TestPostService_CreatePost_PublishFailureDoesNotFail(t *testing.T) {
	t.Parallel()

	svc := NewPostService(noopPostRepo(), &publisherStub{err: errors.New("broker down")})
	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: 1, StockSymbol: "TSLA", Title: "T", Description: "D",
	})
	assert.NoError(t, err)
}

func TestPostService_ListPosts_Filter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   ListPostsInput
		want repository.PostFilter
	}{
		{
			name: "defaults to date",
			in:   ListPostsInput{},
			want: repository.PostFilter{Tags: []string{}, SortBy: repository.SortByDate},
		},
		{
			name: "likes sort is case insensitive",
			in:   ListPostsInput{SortBy: " Likes "},
			want: repository.PostFilter{Tags: []string{}, SortBy: repository.SortByLikes},
		},
		{
			name: "unknown sort falls back",
			in:   ListPostsInput{SortBy: "popularity"},
			want: repository.PostFilter{Tags: []string{}, SortBy: repository.SortByDate},
		},
		{
			name: "symbol and tags normalized",
			in:   ListPostsInput{StockSymbol: "msft", Tags: []string{"ai", " ", "cloud", "ai"}},
			want: repository.PostFilter{StockSymbol: "MSFT", Tags: []string{"ai", "cloud"}, SortBy: repository.SortByDate},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := noopPostRepo()
			var got repository.PostFilter
			repo.listFn = func(_ context.Context, f repository.PostFilter) ([]*models.Post, error) {
				got = f
				return nil, nil
			}
			summaries, err := NewPostService(repo, nil).ListPosts(context.Background(), tt.in)
			require.NoError(t, err)
			assert.NotNil(t, summaries)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPostService_ListPosts_Summaries(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	repo.listFn = func(_ context.Context, _ repository.PostFilter) ([]*models.Post, error) {
		return []*models.Post{
			{ID: 2, StockSymbol: "NVDA", Title: "B", Tags: []string{"ai"}, LikesCount: 3},
			{ID: 1, StockSymbol: "NVDA", Title: "A"},
		}, nil
	}

	summaries, err := NewPostService(repo, nil).ListPosts(context.Background(), ListPostsInput{})
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, uint(2), summaries[0].PostID)
	assert.Equal(t, 3, summaries[0].LikesCount)
	assert.Equal(t, []string{}, summaries[1].Tags)
}

func TestPostService_DeletePost_Ownership(t *testing.T) {
	t.Parallel()

	t.Run("non-owner cannot delete", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: 99}, nil
		}
		repo.deleteFn = func(_ context.Context, _ uint) error {
			t.Fatal("delete must not be called")
			return nil
		}
		pub := &publisherStub{}
		err := NewPostService(repo, pub).DeletePost(context.Background(), DeletePostInput{UserID: 1, PostID: 10})
		assert.True(t, models.HasCode(err, models.CodeForbidden))
		assert.Empty(t, pub.events)
	})

	t.Run("owner deletes", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: 1, StockSymbol: "AMD"}, nil
		}
		var deleted uint
		repo.deleteFn = func(_ context.Context, id uint) error {
			deleted = id
			return nil
		}
		pub := &publisherStub{}
		err := NewPostService(repo, pub).DeletePost(context.Background(), DeletePostInput{UserID: 1, PostID: 10})
		require.NoError(t, err)
		assert.Equal(t, uint(10), deleted)
		assert.Equal(t, []string{events.PostDeleted}, pub.types())
	})

	t.Run("missing post", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
			return nil, models.NewNotFoundError("Post", id)
		}
		err := NewPostService(repo, nil).DeletePost(context.Background(), DeletePostInput{UserID: 1, PostID: 10})
		assert.True(t, models.HasCode(err, models.CodeNotFound))
	})
}

func TestListFingerprint_IgnoresTagOrder(t *testing.T) {
	t.Parallel()

	a := listFingerprint(repository.PostFilter{StockSymbol: "AAPL", Tags: []string{"b", "a"}, SortBy: "date"})
	b := listFingerprint(repository.PostFilter{StockSymbol: "AAPL", Tags: []string{"a", "b"}, SortBy: "date"})
	c := listFingerprint(repository.PostFilter{StockSymbol: "AAPL", Tags: []string{"a", "b"}, SortBy: "likes"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, b, c)
}
