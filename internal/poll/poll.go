// Package poll counts votes for the favourite game variant.
package poll

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tomz197/snackdrop/internal/game"
	"github.com/tomz197/snackdrop/internal/store"
)

var (
	// ErrUnknownChoice is returned for a vote on a choice the poll does not offer.
	ErrUnknownChoice = errors.New("unknown choice")
	// ErrAlreadyVoted is returned by a Ballot that has already been cast.
	ErrAlreadyVoted = errors.New("already voted")
)

// Choice is one option of the poll.
type Choice struct {
	Key      string // Variant key, e.g. "tofu"
	Label    string
	StoreKey string // Counter key, e.g. "tofuVotes"
}

// ChoicesFromThemes offers one choice per theme.
func ChoicesFromThemes(themes []game.Theme) []Choice {
	choices := make([]Choice, 0, len(themes))
	for _, t := range themes {
		label := t.PollLabel
		if label == "" {
			label = t.Key
		}
		choices = append(choices, Choice{Key: t.Key, Label: label, StoreKey: t.VoteKey})
	}
	return choices
}

// Entry is one choice's share of the votes.
type Entry struct {
	Choice  string `json:"choice"`
	Label   string `json:"label"`
	Votes   int    `json:"votes"`
	Percent int    `json:"percent"`
}

// Tally is the state of the poll.
type Tally struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

// Entry returns the entry for choice.
func (t Tally) Entry(choice string) (Entry, bool) {
	for _, e := range t.Entries {
		if e.Choice == choice {
			return e, true
		}
	}
	return Entry{}, false
}

// Poll stores one counter per choice.
type Poll struct {
	store   store.Store
	choices []Choice
}

// New creates a poll over st.
func New(st store.Store, choices []Choice) *Poll {
	return &Poll{store: st, choices: choices}
}

// Choices returns the poll's options in display order.
func (p *Poll) Choices() []Choice {
	return p.choices
}

func (p *Poll) choice(key string) (Choice, error) {
	for _, c := range p.choices {
		if c.Key == key {
			return c, nil
		}
	}
	return Choice{}, fmt.Errorf("%w: %q", ErrUnknownChoice, key)
}

// CastVote adds one vote for choice and returns the new tally.
func (p *Poll) CastVote(ctx context.Context, choice string) (Tally, error) {
	c, err := p.choice(choice)
	if err != nil {
		return Tally{}, err
	}
	if _, err := store.Incr(ctx, p.store, c.StoreKey); err != nil {
		return Tally{}, fmt.Errorf("cast vote: %w", err)
	}
	return p.Tally(ctx)
}

// Tally reads every counter and computes the shares.
func (p *Poll) Tally(ctx context.Context) (Tally, error) {
	t := Tally{Entries: make([]Entry, 0, len(p.choices))}
	for _, c := range p.choices {
		votes, err := store.GetInt(ctx, p.store, c.StoreKey)
		if err != nil {
			return Tally{}, fmt.Errorf("tally: %w", err)
		}
		t.Entries = append(t.Entries, Entry{Choice: c.Key, Label: c.Label, Votes: votes})
		t.Total += votes
	}
	for i := range t.Entries {
		t.Entries[i].Percent = Percent(t.Entries[i].Votes, t.Total)
	}
	return t, nil
}

// Percent is votes/total as a whole percentage, rounded half up.
// A zero total yields 0.
func Percent(votes, total int) int {
	if total <= 0 {
		return 0
	}
	return (votes*200 + total) / (2 * total)
}

// Voter casts votes.
type Voter interface {
	CastVote(ctx context.Context, choice string) (Tally, error)
}

// Ballot allows one vote per holder, e.g. per connection or page load.
// It is not persisted.
type Ballot struct {
	mu     sync.Mutex
	choice string
	cast   bool
}

// Cast votes through v unless the ballot was already used.
// A failed vote leaves the ballot unused.
func (b *Ballot) Cast(ctx context.Context, v Voter, choice string) (Tally, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cast {
		return Tally{}, ErrAlreadyVoted
	}
	t, err := v.CastVote(ctx, choice)
	if err != nil {
		return Tally{}, err
	}
	b.cast = true
	b.choice = choice
	return t, nil
}

// Choice returns the choice voted for, if any.
func (b *Ballot) Choice() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.choice, b.cast
}
