package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"stocktalk/internal/auth"
	"stocktalk/internal/middleware"
	"stocktalk/internal/models"
	"stocktalk/internal/observability"
	"stocktalk/internal/repository"
	"stocktalk/internal/storage"
	"stocktalk/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const maxBioLen = 500

// ErrStorageDisabled is returned by avatar uploads when no object store is configured.
var ErrStorageDisabled = errors.New("profile picture storage is disabled")

type UserService struct {
	userRepo       repository.UserRepository
	hasher         *auth.Hasher
	avatars        storage.ObjectStore
	maxAvatarBytes int64
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// UpdateProfileInput carries a partial update. Nil fields are left untouched.
type UpdateProfileInput struct {
	UserID         uint
	Username       *string
	Bio            *string
	ProfilePicture *string
}

type UploadAvatarInput struct {
	UserID      uint
	ContentType string
	Content     []byte
}

func NewUserService(userRepo repository.UserRepository, hasher *auth.Hasher) *UserService {
	return &UserService{userRepo: userRepo, hasher: hasher}
}

// WithAvatarStore enables profile picture uploads. maxBytes <= 0 means no limit.
func (s *UserService) WithAvatarStore(store storage.ObjectStore, maxBytes int64) *UserService {
	s.avatars = store
	s.maxAvatarBytes = maxBytes
	return s
}

// AvatarUploadsEnabled reports whether an object store is configured.
func (s *UserService) AvatarUploadsEnabled() bool {
	return s.avatars != nil
}

// Register creates a user with a bcrypt hashed password. The email is stored
// trimmed and lower-cased, and must not belong to another user.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	ctx, finish := observability.StartSpan(ctx, "UserService.Register")
	defer func() { finish(err) }()

	username := strings.TrimSpace(in.Username)
	email := validation.NormalizeEmail(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return nil, models.NewValidationError("All fields are required")
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email already exists")
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, models.NewValidationError(err.Error())
		}
		return nil, models.NewInternalError(err)
	}

	user = &models.User{Username: username, Email: email, Password: hash}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "User registered", slog.Any("new_user_id", user.ID))
	return user, nil
}

// FindByEmail returns nil, nil when the email is unknown.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.userRepo.GetByEmail(ctx, validation.NormalizeEmail(email))
}

func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile writes only the fields present in the input and returns the
// stored profile.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	fields := make(map[string]any, 3)
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields["username"] = username
	}
	if in.Bio != nil {
		if utf8.RuneCountInString(*in.Bio) > maxBioLen {
			return nil, models.NewValidationError(fmt.Sprintf("Bio too long (max %d characters)", maxBioLen))
		}
		fields["bio"] = *in.Bio
	}
	if in.ProfilePicture != nil {
		fields["profile_picture"] = strings.TrimSpace(*in.ProfilePicture)
	}

	return s.userRepo.Update(ctx, in.UserID, fields)
}

// UpdateProfilePicture processes an uploaded image, stores it and points the
// user's profile picture at it.
func (s *UserService) UpdateProfilePicture(ctx context.Context, in UploadAvatarInput) (user *models.User, err error) {
	ctx, finish := observability.StartSpan(ctx, "UserService.UpdateProfilePicture",
		attribute.Int("upload.bytes", len(in.Content)))
	defer func() { finish(err) }()

	if s.avatars == nil {
		return nil, ErrStorageDisabled
	}
	user, err = s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	avatar, err := storage.ProcessAvatar(in.Content, in.ContentType, s.maxAvatarBytes)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrImageTooLarge):
			return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxAvatarBytes/(1024*1024)))
		case errors.Is(err, storage.ErrEmptyImage), errors.Is(err, storage.ErrUnsupportedImage),
			errors.Is(err, storage.ErrCorruptImage), errors.Is(err, storage.ErrContentMismatch):
			return nil, models.NewValidationError(err.Error())
		default:
			return nil, models.NewInternalError(err)
		}
	}

	key := fmt.Sprintf("users/%d/%s.webp", user.ID, uuid.NewString())
	url, err := s.avatars.Put(ctx, key, avatar.ContentType, avatar.Data)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user, err = s.userRepo.Update(ctx, user.ID, map[string]any{"profile_picture": url})
	if err != nil {
		if rmErr := s.avatars.Remove(ctx, key); rmErr != nil {
			middleware.Logger.WarnContext(ctx, "Failed to remove orphaned avatar", slog.String("key", key), slog.String("error", rmErr.Error()))
		}
		return nil, err
	}
	return user, nil
}
