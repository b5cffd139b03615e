package game

import (
	"fmt"

	"github.com/tomz197/snackdrop/internal/object"
)

// Style describes how one entity is drawn. Colours are hex strings ("#2ecc71").
type Style struct {
	Name   string       `yaml:"name"`
	Shape  object.Shape `yaml:"shape"`
	Fill   string       `yaml:"fill"`
	Accent string       `yaml:"accent"`
	Detail string       `yaml:"detail"`
}

// Rank is awarded for final scores of at least Min.
type Rank struct {
	Min   int    `yaml:"min"`
	Title string `yaml:"title"`
}

// Theme parameterises one game variant.
type Theme struct {
	Key     string `yaml:"key"`
	Title   string `yaml:"title"`
	Tagline string `yaml:"tagline"`

	Paddle     Style  `yaml:"paddle"`
	Beneficial Style  `yaml:"beneficial"`
	Harmful    Style  `yaml:"harmful"`
	Burst      string `yaml:"burst"`

	// Ranks ordered from the highest threshold down.
	Ranks []Rank `yaml:"ranks"`

	HighScoreKey string `yaml:"high_score_key"`
	VoteKey      string `yaml:"vote_key"`
	PollLabel    string `yaml:"poll_label"`
}

// RankFor returns the title of the first rank whose threshold score meets,
// or the last rank when none does.
func (t Theme) RankFor(score int) string {
	if len(t.Ranks) == 0 {
		return ""
	}
	for _, r := range t.Ranks {
		if score >= r.Min {
			return r.Title
		}
	}
	return t.Ranks[len(t.Ranks)-1].Title
}

// Colors lists the theme's colours in the palette slot order of the object package.
func (t Theme) Colors() []string {
	return []string{
		t.Paddle.Fill, t.Paddle.Accent, t.Paddle.Detail,
		t.Beneficial.Fill, t.Beneficial.Accent, t.Beneficial.Detail,
		t.Harmful.Fill, t.Harmful.Accent, t.Harmful.Detail,
		t.Burst,
	}
}

// FindTheme returns the theme with the given key.
func FindTheme(themes []Theme, key string) (Theme, error) {
	for _, t := range themes {
		if t.Key == key {
			return t, nil
		}
	}
	return Theme{}, fmt.Errorf("%w: %q", ErrUnknownVariant, key)
}
