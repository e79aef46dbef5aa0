package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-32-characters!!"

func newTestManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(TokenConfig{
		Secret:   testSecret,
		Issuer:   "stocktalk-api",
		Audience: "stocktalk-client",
		TTL:      time.Hour,
	})
	require.NoError(t, err)
	return m
}

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewTokenManager(TokenConfig{})
	assert.Error(t, err)
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	token, expiresAt, err := m.Issue(42, "a@x.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	identity, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 42, Email: "a@x.com"}, identity)

	identity, err = m.Authenticate("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), identity.UserID)
}

func TestTokenManager_ClaimsCarryOneHourValidity(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	token, _, err := m.Issue(1, "a@x.com")
	require.NoError(t, err)

	var claims Claims
	_, _, err = jwt.NewParser().ParseUnverified(token, &claims)
	require.NoError(t, err)

	assert.Equal(t, "1", claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestTokenManager_Authenticate_Missing(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	for _, header := range []string{"", "Bearer", "Bearer   ", "Basic dXNlcjpwdw==", "Basic abc", "token-without-scheme"} {
		_, err := m.Authenticate(header)
		assert.ErrorIs(t, err, ErrMissingToken, "header %q", header)
	}
}

func TestTokenManager_Verify_Invalid(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	valid, _, err := m.Issue(7, "a@x.com")
	require.NoError(t, err)

	other, err := NewTokenManager(TokenConfig{Secret: "another-secret-of-sufficient-length", Issuer: "stocktalk-api", Audience: "stocktalk-client"})
	require.NoError(t, err)
	foreign, _, err := other.Issue(7, "a@x.com")
	require.NoError(t, err)

	wrongAudience, err := NewTokenManager(TokenConfig{Secret: testSecret, Issuer: "stocktalk-api", Audience: "someone-else"})
	require.NoError(t, err)
	misaddressed, _, err := wrongAudience.Issue(7, "a@x.com")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "7", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":        "not.a.token",
		"tampered":       valid[:len(valid)-2] + "xx",
		"foreign secret": foreign,
		"wrong audience": misaddressed,
		"alg none":       noneToken,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenManager_Verify_Expired(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	issuedAt := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issuedAt }
	token, _, err := m.Issue(7, "a@x.com")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	token, ok := BearerToken("Bearer abc.def.ghi")
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)

	token, ok = BearerToken("bearer xyz")
	assert.True(t, ok)
	assert.Equal(t, "xyz", token)

	_, ok = BearerToken("Token abc")
	assert.False(t, ok)
}
