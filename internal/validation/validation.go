// Package validation provides input validation and normalization utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxPasswordBytes is the bcrypt input limit; longer passwords would be truncated silently.
	MaxPasswordBytes  = 72
	MaxUsernameLength = 64
	MaxEmailLength    = 254
	MaxStockSymbolLen = 16
	MaxTagLength      = 64
	MaxCommentLength  = 10000
	MaxTitleLength    = 300
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}$`)

// ValidatePassword checks that a password is present and fits bcrypt's input limit.
// There is no strength policy.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must not exceed %d bytes", MaxPasswordBytes)
	}
	return nil
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLength)
	}
	return nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > MaxEmailLength {
		return fmt.Errorf("email must not exceed %d characters", MaxEmailLength)
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// NormalizeStockSymbol trims and upper-cases a ticker symbol.
func NormalizeStockSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ValidateStockSymbol expects an already normalized symbol.
func ValidateStockSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("stockSymbol is required")
	}
	if len(symbol) > MaxStockSymbolLen {
		return fmt.Errorf("stockSymbol must not exceed %d characters", MaxStockSymbolLen)
	}
	for _, r := range symbol {
		if r <= ' ' {
			return fmt.Errorf("stockSymbol must not contain whitespace")
		}
	}
	return nil
}

// NormalizeTags trims every tag, drops empty entries and removes duplicates
// keeping the first occurrence. The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// SplitTags turns a comma separated tag string into a normalized slice.
func SplitTags(raw string) []string {
	return NormalizeTags(strings.Split(raw, ","))
}

// ValidateTags expects normalized tags.
func ValidateTags(tags []string) error {
	for _, tag := range tags {
		if utf8.RuneCountInString(tag) > MaxTagLength {
			return fmt.Errorf("tag %q must not exceed %d characters", tag, MaxTagLength)
		}
	}
	return nil
}

// ValidateCommentText requires non-blank text of at most MaxCommentLength characters.
func ValidateCommentText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("comment is required")
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return fmt.Errorf("comment must not exceed %d characters", MaxCommentLength)
	}
	return nil
}
