package seed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFixture(t *testing.T) {
	t.Parallel()

	fx, err := DefaultFixture()
	require.NoError(t, err)
	assert.Len(t, fx.Users, 3)
	assert.Len(t, fx.Posts, 4)
	assert.Equal(t, "AAPL", fx.Posts[0].StockSymbol)
	assert.Equal(t, []string{"earnings", "tech"}, fx.Posts[0].Tags)
}

func TestParseFixture_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown key",
			yaml:    "users:\n  - username: a\n    email: a@example.com\n    avatar: x\n",
			wantErr: "decode fixture",
		},
		{
			name:    "missing email",
			yaml:    "users:\n  - username: a\n",
			wantErr: "username and email are required",
		},
		{
			name:    "duplicate email",
			yaml:    "users:\n  - {username: a, email: a@example.com}\n  - {username: b, email: A@example.com}\n",
			wantErr: "duplicate email",
		},
		{
			name:    "unknown author",
			yaml:    "users:\n  - {username: a, email: a@example.com}\nposts:\n  - {author: b@example.com, stockSymbol: X, title: t, description: d}\n",
			wantErr: "unknown author",
		},
		{
			name:    "unknown liker",
			yaml:    "users:\n  - {username: a, email: a@example.com}\nposts:\n  - {author: a@example.com, stockSymbol: X, title: t, description: d, likedBy: [z@example.com]}\n",
			wantErr: "unknown liker",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixture(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseFixture_Empty(t *testing.T) {
	t.Parallel()

	fx, err := ParseFixture(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, fx.Users)
}

func TestLoadFixture(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fixture.yml")
	require.NoError(t, os.WriteFile(path, []byte("users:\n  - {username: a, email: a@example.com}\n"), 0o600))

	fx, err := LoadFixture(path)
	require.NoError(t, err)
	require.Len(t, fx.Users, 1)
	assert.Equal(t, "a", fx.Users[0].Username)

	_, err = LoadFixture(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
