// Package seed creates demo data for local development and tests. It writes
// through the repositories, so seeded rows obey the same rules as API writes.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"stocktalk/internal/models"
	"stocktalk/internal/repository"
	"stocktalk/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Symbols and tags the random generator draws from.
var (
	stockSymbols = []string{
		"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL", "META", "TSLA", "BRK.B", "JPM", "V",
		"XOM", "CVX", "KO", "PEP", "COST", "WMT", "DIS", "NFLX", "AMD", "INTC",
	}
	stockTags = []string{
		"earnings", "dividends", "technicals", "valuation", "ai", "semis", "energy",
		"consumer", "macro", "options", "longterm", "news",
	}
)

// Factory builds domain entities and persists them through the repositories.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	fake     *gofakeit.Faker
	rng      *rand.Rand
	opts     Options
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	likes    repository.LikeRepository
	// passwordHash is shared by every seeded user
	passwordHash string
}

// NewFactory creates a Factory bound to db. passwordHash is stored on every
// user it creates.
func NewFactory(db *gorm.DB, opts Options, passwordHash string) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		fake:         gofakeit.New(seed),
		rng:          rand.New(rand.NewSource(seed)), // #nosec G404 -- demo data
		opts:         opts,
		users:        repository.NewUserRepository(db),
		posts:        repository.NewPostRepository(db),
		comments:     repository.NewCommentRepository(db),
		likes:        repository.NewLikeRepository(db),
		passwordHash: passwordHash,
	}
}

// BuildUser constructs a random user without persisting it.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	username := fmt.Sprintf("%s%d", f.fake.Username(), f.fake.Number(100, 999))
	user := &models.User{
		Username: username,
		Email:    validation.NormalizeEmail(fmt.Sprintf("%s@example.com", username)),
		Bio:      f.fake.Sentence(10),
		Password: f.passwordHash,
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser constructs and persists a random user.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a random post by author with a created_at spread over
// the last MaxDays days.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	age := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute

	tags := make([]string, 0, 3)
	for i := f.rng.Intn(4); i > 0; i-- {
		tags = append(tags, stockTags[f.rng.Intn(len(stockTags))])
	}

	post := &models.Post{
		StockSymbol: stockSymbols[f.rng.Intn(len(stockSymbols))],
		Title:       f.fake.Sentence(6),
		Description: f.fake.Paragraph(1, 3, 12, " "),
		AuthorID:    author.ID,
		Tags:        tags,
		CreatedAt:   time.Now().Add(-age),
	}
	for _, override := range overrides {
		override(post)
	}

	post.StockSymbol = validation.NormalizeStockSymbol(post.StockSymbol)
	post.Tags = validation.NormalizeTags(post.Tags)
	return post
}

// CreatePost constructs and persists a random post.
func (f *Factory) CreatePost(ctx context.Context, author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, overrides...)
	if err := f.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment by author on post. Empty text gets a random
// sentence.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, post *models.Post, text string) (*models.Comment, error) {
	if text == "" {
		text = f.fake.Sentence(8)
	}
	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: author.ID,
		Text:     text,
	}
	if err := f.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike records a like from user on post.
func (f *Factory) CreateLike(ctx context.Context, user *models.User, post *models.Post) error {
	_, err := f.likes.Like(ctx, user.ID, post.ID)
	return err
}
