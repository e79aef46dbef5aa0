package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	_ "stocktalk/docs" // swagger docs
	"stocktalk/internal/auth"
	"stocktalk/internal/config"
	"stocktalk/internal/database"
	"stocktalk/internal/events"
	"stocktalk/internal/middleware"
	"stocktalk/internal/models"
	"stocktalk/internal/repository"
	"stocktalk/internal/service"
	"stocktalk/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	serviceName      = "stocktalk-api"
	defaultBodyLimit = 4 * 1024 * 1024
)

// Deps are the already-connected backing services a Server is built on.
type Deps struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Publisher events.Publisher
	// Avatars may be nil, which disables profile picture uploads.
	Avatars storage.ObjectStore
	// Hasher defaults to auth.DefaultCost bounded by GOMAXPROCS.
	Hasher *auth.Hasher
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	publisher      events.Publisher
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	tokens         *auth.TokenManager
	userService    *service.UserService
	authService    *service.AuthService
	postService    *service.PostService
	commentService *service.CommentService
	likeService    *service.LikeService
}

// NewServer wires repositories and services on top of deps.
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.DB == nil {
		return nil, errors.New("server requires a database")
	}

	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL(),
	})
	if err != nil {
		return nil, err
	}

	hasher := deps.Hasher
	if hasher == nil {
		hasher = auth.NewHasher(auth.DefaultCost, 0)
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Noop{}
	}

	userRepo := repository.NewUserRepository(deps.DB)
	postRepo := repository.NewPostRepository(deps.DB)
	commentRepo := repository.NewCommentRepository(deps.DB)
	likeRepo := repository.NewLikeRepository(deps.DB)

	userService := service.NewUserService(userRepo, hasher)
	if deps.Avatars != nil {
		userService.WithAvatarStore(deps.Avatars, avatarLimit(cfg))
	}

	return &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		publisher:      publisher,
		promMiddleware: middleware.InitMetrics(serviceName),
		tokens:         tokens,
		userService:    userService,
		authService:    service.NewAuthService(userRepo, hasher, tokens),
		postService:    service.NewPostService(postRepo, publisher),
		commentService: service.NewCommentService(commentRepo, postRepo, publisher),
		likeService:    service.NewLikeService(likeRepo, publisher),
	}, nil
}

func avatarLimit(cfg *config.Config) int64 {
	return int64(cfg.AvatarMaxUploadSizeMB) * 1024 * 1024
}

// App returns the fiber app with middleware and routes installed, building it
// on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	bodyLimit := defaultBodyLimit
	if limit := int(avatarLimit(s.config)) + 1024*1024; limit > bodyLimit {
		bodyLimit = limit
	}

	app := fiber.New(fiber.Config{
		AppName:      "StockTalk API",
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// errorHandler renders errors that escape handlers. Fiber's own errors keep
// their status; anything else is an opaque 500.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}

	middleware.Logger.ErrorContext(c.UserContext(), "Unhandled error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panics become 500s through errorHandler
	app.Use(recover.New())

	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
	}))

	app.Use(middleware.RequestTimeout(s.config.RequestTimeout()))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	authRequired := middleware.AuthRequired(s.tokens)

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", s.Register)
	authRoutes.Post("/login", s.Login)

	users := api.Group("/user", authRequired)
	users.Get("/profile/:userId", s.GetUserProfile)
	users.Put("/profile", s.UpdateProfile)
	users.Post("/profile/picture", s.UploadProfilePicture)

	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Post("/", authRequired, s.CreatePost)
	// Define specific /:postId/:resource routes BEFORE generic /:postId route
	posts.Get("/:postId/comments", s.GetComments)
	posts.Post("/:postId/comments", authRequired, s.CreateComment)
	posts.Delete("/:postId/comments/:commentId", authRequired, s.DeleteComment)
	posts.Post("/:postId/like", authRequired, s.LikePost)
	posts.Delete("/:postId/like", authRequired, s.UnlikePost)
	posts.Get("/:postId", s.GetPost)
	posts.Delete("/:postId", authRequired, s.DeletePost)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports the backing services. Only the database decides
// readiness; Redis, events and storage are optional.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	storageStatus := "disabled"
	if s.userService.AvatarUploadsEnabled() {
		storageStatus = "enabled"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"events":   s.publisher.Driver(),
			"storage":  storageStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app and listens on the configured port. It blocks until the
// listener stops.
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests and waits for in-flight ones. Backing
// services belong to whoever built Deps and are not closed here.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app == nil {
		return nil
	}
	return s.app.ShutdownWithContext(ctx)
}
