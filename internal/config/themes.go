package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/tomz197/snackdrop/internal/game"
)

//go:embed themes.yaml
var defaultThemes []byte

// ErrInvalidTheme is returned when a theme file fails validation.
var ErrInvalidTheme = errors.New("invalid theme")

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// LoadThemes returns the themes from path, or the built-in ones when path is empty.
func LoadThemes(path string) ([]game.Theme, error) {
	if path == "" {
		return ParseThemes(defaultThemes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read themes: %w", err)
	}
	return ParseThemes(data)
}

// DefaultThemes returns the built-in tofu and sushi themes.
func DefaultThemes() []game.Theme {
	themes, err := ParseThemes(defaultThemes)
	if err != nil {
		panic(err)
	}
	return themes
}

// ParseThemes decodes and validates a YAML list of themes.
func ParseThemes(data []byte) ([]game.Theme, error) {
	var themes []game.Theme
	if err := yaml.Unmarshal(data, &themes); err != nil {
		return nil, fmt.Errorf("parse themes: %w", err)
	}
	if err := validateThemes(themes); err != nil {
		return nil, err
	}
	for i := range themes {
		ranks := themes[i].Ranks
		sort.SliceStable(ranks, func(a, b int) bool { return ranks[a].Min > ranks[b].Min })
	}
	return themes, nil
}

func validateThemes(themes []game.Theme) error {
	if len(themes) == 0 {
		return fmt.Errorf("%w: no themes", ErrInvalidTheme)
	}
	keys := make(map[string]bool)
	storeKeys := make(map[string]bool)
	for i, t := range themes {
		if t.Key == "" {
			return fmt.Errorf("%w: theme %d has no key", ErrInvalidTheme, i)
		}
		if keys[t.Key] {
			return fmt.Errorf("%w: duplicate key %q", ErrInvalidTheme, t.Key)
		}
		keys[t.Key] = true

		for _, k := range []string{t.HighScoreKey, t.VoteKey} {
			if k == "" {
				return fmt.Errorf("%w: %s: missing store key", ErrInvalidTheme, t.Key)
			}
			if storeKeys[k] {
				return fmt.Errorf("%w: %s: store key %q already used", ErrInvalidTheme, t.Key, k)
			}
			storeKeys[k] = true
		}

		if len(t.Ranks) == 0 {
			return fmt.Errorf("%w: %s: no ranks", ErrInvalidTheme, t.Key)
		}
		for _, s := range []game.Style{t.Paddle, t.Beneficial, t.Harmful} {
			if !s.Shape.Valid() {
				return fmt.Errorf("%w: %s: unknown shape %q", ErrInvalidTheme, t.Key, s.Shape)
			}
		}
		for _, c := range t.Colors() {
			if c != "" && !hexColor.MatchString(c) {
				return fmt.Errorf("%w: %s: bad colour %q", ErrInvalidTheme, t.Key, c)
			}
		}
	}
	return nil
}
