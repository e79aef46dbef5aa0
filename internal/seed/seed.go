package seed

import (
	"context"
	"fmt"
	"log"

	"stocktalk/internal/auth"
	"stocktalk/internal/models"
	"stocktalk/internal/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user unless Options says otherwise.
const DefaultPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers int
	NumPosts int
	// MaxCommentsPerPost bounds the random comments on each random post.
	MaxCommentsPerPost int
	// LikeChance is the probability in [0,1] that a given user likes a given post.
	LikeChance float64
	MaxDays    int
	Password   string
	// Fast hashes the shared password with the minimum bcrypt cost.
	Fast       bool
	RandomSeed int64
}

// Summary counts what a seeding run created.
type Summary struct {
	Users    int
	Posts    int
	Comments int
	Likes    int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d users, %d posts, %d comments, %d likes", s.Users, s.Posts, s.Comments, s.Likes)
}

func (s *Summary) add(o Summary) {
	s.Users += o.Users
	s.Posts += o.Posts
	s.Comments += o.Comments
	s.Likes += o.Likes
}

// Seeder populates a database with demo data.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder hashes the shared password once and prepares a Factory.
func NewSeeder(ctx context.Context, db *gorm.DB, opts Options) (*Seeder, error) {
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	cost := auth.DefaultCost
	if opts.Fast {
		cost = bcrypt.MinCost
	}
	hash, err := auth.NewHasher(cost, 1).Hash(ctx, opts.Password)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts, hash)}, nil
}

// Factory exposes the underlying factory for callers that need single rows.
func (s *Seeder) Factory() *Factory {
	return s.factory
}

// ClearAll removes every row the API owns, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	log.Println("🗑️  Clearing existing data...")
	db := s.db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE likes, comments, post_tags, posts, users RESTART IDENTITY CASCADE`).Error
	}
	for _, table := range []string{"likes", "comments", "post_tags", "posts", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// ApplyFixture writes fixture users, posts, comments and likes. Users whose
// email already exists are reused, so a fixture can be applied twice.
func (s *Seeder) ApplyFixture(ctx context.Context, fx *Fixture) (Summary, error) {
	var sum Summary
	byEmail := make(map[string]*models.User, len(fx.Users))

	for _, fu := range fx.Users {
		email := validation.NormalizeEmail(fu.Email)
		existing, err := s.factory.users.GetByEmail(ctx, email)
		if err != nil {
			return sum, err
		}
		if existing != nil {
			byEmail[email] = existing
			continue
		}
		user, err := s.factory.CreateUser(ctx, func(u *models.User) {
			u.Username = fu.Username
			u.Email = email
			u.Bio = fu.Bio
		})
		if err != nil {
			return sum, fmt.Errorf("fixture user %s: %w", email, err)
		}
		byEmail[email] = user
		sum.Users++
	}

	for _, fp := range fx.Posts {
		author := byEmail[validation.NormalizeEmail(fp.Author)]
		post, err := s.factory.CreatePost(ctx, author, func(p *models.Post) {
			p.StockSymbol = fp.StockSymbol
			p.Title = fp.Title
			p.Description = fp.Description
			p.Tags = fp.Tags
		})
		if err != nil {
			return sum, fmt.Errorf("fixture post %q: %w", fp.Title, err)
		}
		sum.Posts++

		for _, fc := range fp.Comments {
			commenter := byEmail[validation.NormalizeEmail(fc.Author)]
			if _, err := s.factory.CreateComment(ctx, commenter, post, fc.Text); err != nil {
				return sum, fmt.Errorf("fixture comment on %q: %w", fp.Title, err)
			}
			sum.Comments++
		}
		for _, liker := range fp.LikedBy {
			if err := s.factory.CreateLike(ctx, byEmail[validation.NormalizeEmail(liker)], post); err != nil {
				if models.HasCode(err, models.CodeConflict) {
					continue
				}
				return sum, fmt.Errorf("fixture like on %q: %w", fp.Title, err)
			}
			sum.Likes++
		}
	}
	return sum, nil
}

// SeedRandom creates NumUsers users and NumPosts posts with random comments and
// likes between them. Username collisions are retried with a new name.
func (s *Seeder) SeedRandom(ctx context.Context) (Summary, error) {
	var sum Summary
	users := make([]*models.User, 0, s.opts.NumUsers)

	for attempts := 0; len(users) < s.opts.NumUsers; attempts++ {
		if attempts > s.opts.NumUsers*3 {
			return sum, fmt.Errorf("gave up after %d user attempts", attempts)
		}
		user, err := s.factory.CreateUser(ctx)
		if err != nil {
			if models.HasCode(err, models.CodeConflict) {
				continue
			}
			return sum, err
		}
		users = append(users, user)
		sum.Users++
	}
	if len(users) == 0 {
		return sum, nil
	}

	rng := s.factory.rng
	for i := 0; i < s.opts.NumPosts; i++ {
		post, err := s.factory.CreatePost(ctx, users[rng.Intn(len(users))])
		if err != nil {
			return sum, err
		}
		sum.Posts++

		if s.opts.MaxCommentsPerPost > 0 {
			for n := rng.Intn(s.opts.MaxCommentsPerPost + 1); n > 0; n-- {
				if _, err := s.factory.CreateComment(ctx, users[rng.Intn(len(users))], post, ""); err != nil {
					return sum, err
				}
				sum.Comments++
			}
		}
		for _, u := range users {
			if rng.Float64() >= s.opts.LikeChance {
				continue
			}
			if err := s.factory.CreateLike(ctx, u, post); err != nil {
				return sum, err
			}
			sum.Likes++
		}

		if (i+1)%100 == 0 {
			log.Printf("Created %d posts...", i+1)
		}
	}
	return sum, nil
}

// Run applies the fixture when given, then the random data.
func (s *Seeder) Run(ctx context.Context, fx *Fixture) (Summary, error) {
	var total Summary
	if fx != nil {
		sum, err := s.ApplyFixture(ctx, fx)
		total.add(sum)
		if err != nil {
			return total, err
		}
		log.Printf("✓ fixture applied: %s", sum)
	}

	sum, err := s.SeedRandom(ctx)
	total.add(sum)
	if err != nil {
		return total, err
	}
	log.Printf("✓ random data created: %s", sum)
	return total, nil
}
