package storage

import (
	"bytes"
	"testing"

	"stocktalk/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xwebp "golang.org/x/image/webp"
)

func TestProcessAvatar_CropsAndScales(t *testing.T) {
	avatar, err := ProcessAvatar(testutil.TinyPNG(t, 1200, 800), "image/png", 0)
	require.NoError(t, err)
	assert.Equal(t, AvatarContentType, avatar.ContentType)
	assert.Equal(t, AvatarMaxSize, avatar.Width)
	assert.Equal(t, AvatarMaxSize, avatar.Height)

	cfg, err := xwebp.DecodeConfig(bytes.NewReader(avatar.Data))
	require.NoError(t, err)
	assert.Equal(t, AvatarMaxSize, cfg.Width)
	assert.Equal(t, AvatarMaxSize, cfg.Height)
}

func TestProcessAvatar_SmallImageKeepsSize(t *testing.T) {
	avatar, err := ProcessAvatar(testutil.TinyPNG(t, 120, 300), "", 0)
	require.NoError(t, err)
	assert.Equal(t, 120, avatar.Width)
	assert.Equal(t, 120, avatar.Height)
}

func TestProcessAvatar_Rejects(t *testing.T) {
	valid := testutil.TinyPNG(t, 32, 32)

	tests := []struct {
		name     string
		content  []byte
		provided string
		maxBytes int64
		want     error
	}{
		{"empty", nil, "", 0, ErrEmptyImage},
		{"too large", valid, "image/png", 10, ErrImageTooLarge},
		{"not an image", []byte("hello, definitely not a picture"), "image/png", 0, ErrUnsupportedImage},
		{"truncated png", valid[:40], "image/png", 0, ErrCorruptImage},
		{"content type mismatch", valid, "image/jpeg", 0, ErrContentMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ProcessAvatar(tt.content, tt.provided, tt.maxBytes)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCenterSquare(t *testing.T) {
	x, y, side := centerSquare(300, 100)
	assert.Equal(t, []int{100, 0, 100}, []int{x, y, side})

	x, y, side = centerSquare(100, 300)
	assert.Equal(t, []int{0, 100, 100}, []int{x, y, side})
}

func TestObjectURL(t *testing.T) {
	cfg := MinioConfig{Endpoint: "minio:9000", Bucket: "avatars"}
	assert.Equal(t, "http://minio:9000/avatars/users/1/a.webp", ObjectURL(cfg, "users/1/a.webp"))

	cfg.UseSSL = true
	assert.Equal(t, "https://minio:9000/avatars/k", ObjectURL(cfg, "/k"))

	cfg.PublicURL = "https://cdn.example.com/"
	url := ObjectURL(cfg, "users/1/a.webp")
	assert.Equal(t, "https://cdn.example.com/avatars/users/1/a.webp", url)

	key, ok := KeyFromURL(cfg, url)
	assert.True(t, ok)
	assert.Equal(t, "users/1/a.webp", key)

	_, ok = KeyFromURL(cfg, "https://elsewhere.example.com/x.png")
	assert.False(t, ok)
}

func TestNewMinioStore_StripsScheme(t *testing.T) {
	s, err := NewMinioStore(MinioConfig{Endpoint: "http://localhost:9000", Bucket: "avatars", AccessKey: "a", SecretKey: "b"})
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", s.cfg.Endpoint)
}
