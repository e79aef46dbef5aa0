package server

import (
	"errors"
	"io"

	"stocktalk/internal/models"
	"stocktalk/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/user/profile/:userId
// @Summary Get a user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /user/profile/{userId} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "userId")
	if err != nil {
		return nil
	}

	user, err := s.userService.FindByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateProfile handles PUT /api/user/profile
// @Summary Update the caller's profile
// @Description Fields left out of the body are not changed
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{username=string,bio=string,profilePicture=string} true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /user/profile [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req struct {
		Username       *string `json:"username"`
		Bio            *string `json:"bio"`
		ProfilePicture *string `json:"profilePicture"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:         currentUserID(c),
		Username:       req.Username,
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UploadProfilePicture handles POST /api/user/profile/picture
// @Summary Upload a profile picture
// @Description The image is cropped to a square, scaled down and stored as WebP
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image file"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /user/profile/picture [post]
func (s *Server) UploadProfilePicture(c *fiber.Ctx) error {
	if !s.userService.AvatarUploadsEnabled() {
		return storageDisabled(c)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("file is required"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Failed to read upload"))
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Failed to read upload"))
	}

	user, err := s.userService.UpdateProfilePicture(c.UserContext(), service.UploadAvatarInput{
		UserID:      currentUserID(c),
		ContentType: fileHeader.Header.Get(fiber.HeaderContentType),
		Content:     content,
	})
	if err != nil {
		if errors.Is(err, service.ErrStorageDisabled) {
			return storageDisabled(c)
		}
		return respondError(c, err)
	}
	return c.JSON(user)
}

func storageDisabled(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
		Error: "Profile picture storage is disabled",
		Code:  "STORAGE_DISABLED",
	})
}
