// Command seed populates the database with demo users, posts, comments and likes.
package main

import (
	"context"
	"flag"
	"log"

	"stocktalk/internal/cache"
	"stocktalk/internal/config"
	"stocktalk/internal/database"
	"stocktalk/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of random users to create")
	numPosts := flag.Int("posts", 200, "Number of random posts to create")
	maxComments := flag.Int("comments", 5, "Maximum random comments per post")
	likeChance := flag.Float64("like-chance", 0.2, "Probability that a user likes a given post")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fixturePath := flag.String("fixture", "", "YAML fixture to apply instead of the built-in one")
	noFixture := flag.Bool("no-fixture", false, "Skip the fixture and only create random data")
	fast := flag.Bool("fast", false, "Hash the shared password with the minimum bcrypt cost")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Cached post lists would otherwise outlive a reseed
	cache.InitRedis(cfg.RedisURL)
	defer func() { _ = cache.Close() }()

	var fx *seed.Fixture
	switch {
	case *noFixture:
	case *fixturePath != "":
		fx, err = seed.LoadFixture(*fixturePath)
	default:
		fx, err = seed.DefaultFixture()
	}
	if err != nil {
		log.Fatalf("❌ Fixture load failed: %v", err)
	}

	s, err := seed.NewSeeder(ctx, db, seed.Options{
		NumUsers:           *numUsers,
		NumPosts:           *numPosts,
		MaxCommentsPerPost: *maxComments,
		LikeChance:         *likeChance,
		Fast:               *fast,
	})
	if err != nil {
		log.Fatalf("❌ Seeder init failed: %v", err)
	}

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	sum, err := s.Run(ctx, fx)
	if err != nil {
		log.Fatalf("❌ Seeding failed after %s: %v", sum, err)
	}

	log.Printf("✨ All done! Created %s.", sum)
	log.Printf("📧 All test users have the password: %s", seed.DefaultPassword)
}
