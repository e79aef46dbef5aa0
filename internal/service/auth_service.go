package service

import (
	"context"
	"time"

	"stocktalk/internal/auth"
	"stocktalk/internal/models"
	"stocktalk/internal/observability"
	"stocktalk/internal/repository"
	"stocktalk/internal/validation"
)

// invalidCredentials is the only error a failed login ever returns, so callers
// cannot tell an unknown email from a wrong password.
const invalidCredentials = "Invalid credentials"

type AuthService struct {
	userRepo repository.UserRepository
	hasher   *auth.Hasher
	tokens   *auth.TokenManager
}

type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is a freshly issued session.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

func NewAuthService(userRepo repository.UserRepository, hasher *auth.Hasher, tokens *auth.TokenManager) *AuthService {
	return &AuthService{userRepo: userRepo, hasher: hasher, tokens: tokens}
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (result *LoginResult, err error) {
	ctx, finish := observability.StartSpan(ctx, "AuthService.Login")
	defer func() { finish(err) }()

	email := validation.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		observability.AuthFailures.WithLabelValues("invalid_credentials").Inc()
		return nil, models.NewUnauthorizedError(invalidCredentials)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.hasher.CompareDummy(ctx, in.Password)
		observability.AuthFailures.WithLabelValues("invalid_credentials").Inc()
		return nil, models.NewUnauthorizedError(invalidCredentials)
	}

	ok, err := s.hasher.Compare(ctx, user.Password, in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !ok {
		observability.AuthFailures.WithLabelValues("invalid_credentials").Inc()
		return nil, models.NewUnauthorizedError(invalidCredentials)
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
