package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "SecurePass12!@", false},
		{"Short Is Fine", "abc", false},
		{"Exactly Max Bytes", strings.Repeat("a", 72), false},
		{"Too Long", strings.Repeat("a", 73), true},
		{"Multibyte Over Limit", strings.Repeat("é", 37), true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "test_user123", false},
		{"Spaces Inside", "Warren B", false},
		{"Blank", "   ", true},
		{"Too Long", strings.Repeat("u", 65), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	// 254 chars total: 64 local + @ + 185 domain label + ".com" (4)
	emailAt254 := strings.Repeat("a", 64) + "@" + strings.Repeat("b", 185) + ".com"
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Valid", "test@example.com", false},
		{"Subdomain", "trader@mail.example.co.uk", false},
		{"Exactly 254 Characters", emailAt254, false},
		{"Too Long", "x" + emailAt254, true},
		{"Empty", "", true},
		{"Invalid Format", "not-an-email", true},
		{"Missing Domain", "user@", true},
		{"Multiple At Symbols", "user@@example.com", true},
		{"Space In Local Part", "user @example.com", true},
		{"Trailing Dot In Domain", "user@example.com.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "trader@example.com", NormalizeEmail("  Trader@Example.COM "))
}

func TestStockSymbol(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "AAPL", NormalizeStockSymbol(" aapl "))
	assert.NoError(t, ValidateStockSymbol("BRK.B"))
	assert.Error(t, ValidateStockSymbol(""))
	assert.Error(t, ValidateStockSymbol("AA PL"))
	assert.Error(t, ValidateStockSymbol(strings.Repeat("X", 17)))
}

func TestNormalizeTags(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"trims and drops empty", []string{" tech ", "", "  "}, []string{"tech"}},
		{"keeps first occurrence", []string{"ai", "tech", "ai", " tech"}, []string{"ai", "tech"}},
		{"case sensitive", []string{"AI", "ai"}, []string{"AI", "ai"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTags(tt.in))
		})
	}
}

func TestSplitTags(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"earnings", "tech"}, SplitTags("earnings, tech,,earnings"))
	assert.Empty(t, SplitTags(""))
}

func TestValidateTags(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateTags([]string{"tech"}))
	assert.Error(t, ValidateTags([]string{strings.Repeat("t", 65)}))
}

func TestValidateCommentText(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateCommentText("to the moon"))
	assert.NoError(t, ValidateCommentText(strings.Repeat("c", MaxCommentLength)))
	assert.Error(t, ValidateCommentText(strings.Repeat("c", MaxCommentLength+1)))
	assert.Error(t, ValidateCommentText(" \n\t"))
}
