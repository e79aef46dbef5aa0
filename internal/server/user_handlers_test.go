package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"stocktalk/internal/models"
	"stocktalk/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newUserTestApp(repo *MockUserRepository, userID uint) *fiber.App {
	s := &Server{userService: service.NewUserService(repo, testHasher())}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		return c.Next()
	})
	app.Get("/users/:userId", s.GetUserProfile)
	app.Put("/users/profile", s.UpdateProfile)
	app.Post("/users/profile/picture", s.UploadProfilePicture)
	return app
}

func TestGetUserProfile(t *testing.T) {
	tests := []struct {
		name           string
		userIDParam    string
		mockSetup      func(*MockUserRepository)
		expectedStatus int
	}{
		{
			name:        "Success",
			userIDParam: "1",
			mockSetup: func(m *MockUserRepository) {
				m.On("GetByID", mock.Anything, uint(1)).Return(&models.User{ID: 1, Username: "alice", Password: "hash"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "Not Found",
			userIDParam: "2",
			mockSetup: func(m *MockUserRepository) {
				m.On("GetByID", mock.Anything, uint(2)).Return(nil, models.NewNotFoundError("User", 2))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Invalid ID",
			userIDParam:    "abc",
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.mockSetup(repo)
			app := newUserTestApp(repo, 1)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/users/"+tt.userIDParam, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]any
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, "alice", body["username"])
				assert.NotContains(t, body, "password")
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("Update", mock.Anything, uint(4), map[string]any{"bio": "Long NVDA"}).
		Return(&models.User{ID: 4, Username: "bob", Bio: "Long NVDA"}, nil)
	app := newUserTestApp(repo, 4)

	req := httptest.NewRequest(http.MethodPut, "/users/profile", bytes.NewReader([]byte(`{"bio":"Long NVDA"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var user models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	assert.Equal(t, "Long NVDA", user.Bio)
	repo.AssertExpectations(t)
}

func TestUpdateProfile_RejectsBlankUsername(t *testing.T) {
	repo := new(MockUserRepository)
	app := newUserTestApp(repo, 4)

	req := httptest.NewRequest(http.MethodPut, "/users/profile", bytes.NewReader([]byte(`{"username":"  "}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadProfilePicture_StorageDisabled(t *testing.T) {
	app := newUserTestApp(new(MockUserRepository), 4)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "me.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("not really a png"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/users/profile/picture", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "STORAGE_DISABLED", body.Code)
}
