package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"stocktalk/internal/validation"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/default.yml
var defaultFixture []byte

// Fixture is hand-written demo data. Authors and likers are referenced by email.
type Fixture struct {
	Users []FixtureUser `yaml:"users"`
	Posts []FixturePost `yaml:"posts"`
}

type FixtureUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Bio      string `yaml:"bio"`
}

type FixturePost struct {
	Author      string           `yaml:"author"`
	StockSymbol string           `yaml:"stockSymbol"`
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	Tags        []string         `yaml:"tags"`
	LikedBy     []string         `yaml:"likedBy"`
	Comments    []FixtureComment `yaml:"comments"`
}

type FixtureComment struct {
	Author string `yaml:"author"`
	Text   string `yaml:"text"`
}

// DefaultFixture returns the embedded demo fixture.
func DefaultFixture() (*Fixture, error) {
	return ParseFixture(bytes.NewReader(defaultFixture))
}

// LoadFixture reads a fixture file from disk.
func LoadFixture(path string) (*Fixture, error) {
	f, err := os.Open(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseFixture(f)
}

// ParseFixture decodes YAML and checks that every author and liker is a
// declared user. Unknown keys are rejected.
func ParseFixture(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var fx Fixture
	if err := dec.Decode(&fx); err != nil {
		if errors.Is(err, io.EOF) {
			return &fx, nil
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

func (fx *Fixture) validate() error {
	known := make(map[string]bool, len(fx.Users))
	for i, u := range fx.Users {
		email := validation.NormalizeEmail(u.Email)
		if email == "" || strings.TrimSpace(u.Username) == "" {
			return fmt.Errorf("fixture user %d: username and email are required", i)
		}
		if known[email] {
			return fmt.Errorf("fixture user %d: duplicate email %s", i, email)
		}
		known[email] = true
	}

	for i, p := range fx.Posts {
		if !known[validation.NormalizeEmail(p.Author)] {
			return fmt.Errorf("fixture post %d: unknown author %q", i, p.Author)
		}
		for _, liker := range p.LikedBy {
			if !known[validation.NormalizeEmail(liker)] {
				return fmt.Errorf("fixture post %d: unknown liker %q", i, liker)
			}
		}
		for j, c := range p.Comments {
			if !known[validation.NormalizeEmail(c.Author)] {
				return fmt.Errorf("fixture post %d comment %d: unknown author %q", i, j, c.Author)
			}
		}
	}
	return nil
}

