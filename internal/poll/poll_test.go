package poll

import (
	"context"
	"errors"
	"testing"

	"github.com/tomz197/snackdrop/internal/store"
)

func newTestPoll() (*Poll, store.Store) {
	st := store.NewMemory()
	return New(st, []Choice{
		{Key: "tofu", Label: "Tofu", StoreKey: "tofuVotes"},
		{Key: "sushi", Label: "Sushi", StoreKey: "sushiVotes"},
	}), st
}

func TestFirstVote(t *testing.T) {
	p, st := newTestPoll()
	tally, err := p.CastVote(context.Background(), "tofu")
	if err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	got, _ := store.GetInt(context.Background(), st, "tofuVotes")
	if got != 1 {
		t.Fatalf("tofuVotes = %d, want 1", got)
	}
	tofu, _ := tally.Entry("tofu")
	sushi, _ := tally.Entry("sushi")
	if tofu.Percent != 100 || sushi.Percent != 0 || tally.Total != 1 {
		t.Fatalf("unexpected tally %+v", tally)
	}
}

func TestEmptyTally(t *testing.T) {
	p, _ := newTestPoll()
	tally, err := p.Tally(context.Background())
	if err != nil {
		t.Fatalf("Tally: %v", err)
	}
	for _, e := range tally.Entries {
		if e.Percent != 0 || e.Votes != 0 {
			t.Fatalf("non-zero entry on empty poll: %+v", e)
		}
	}
}

func TestPercentRoundsIndependently(t *testing.T) {
	p, st := newTestPoll()
	ctx := context.Background()
	store.SetInt(ctx, st, "tofuVotes", 1)
	store.SetInt(ctx, st, "sushiVotes", 2)

	tally, err := p.Tally(ctx)
	if err != nil {
		t.Fatal(err)
	}
	tofu, _ := tally.Entry("tofu")
	sushi, _ := tally.Entry("sushi")
	if tofu.Percent != 33 || sushi.Percent != 67 {
		t.Fatalf("got %d%% / %d%%, want 33%% / 67%%", tofu.Percent, sushi.Percent)
	}
}

func TestPercent(t *testing.T) {
	cases := []struct{ votes, total, want int }{
		{0, 0, 0},
		{1, 8, 13},  // 12.5 rounds up
		{1, 200, 1}, // 0.5 rounds up
		{1, 201, 0},
		{5, 5, 100},
	}
	for _, tc := range cases {
		if got := Percent(tc.votes, tc.total); got != tc.want {
			t.Fatalf("Percent(%d, %d) = %d, want %d", tc.votes, tc.total, got, tc.want)
		}
	}
}

func TestUnknownChoice(t *testing.T) {
	p, _ := newTestPoll()
	if _, err := p.CastVote(context.Background(), "pizza"); !errors.Is(err, ErrUnknownChoice) {
		t.Fatalf("err = %v, want ErrUnknownChoice", err)
	}
}

func TestCastVoteIsUnconditional(t *testing.T) {
	p, _ := newTestPoll()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := p.CastVote(ctx, "sushi"); err != nil {
			t.Fatal(err)
		}
	}
	tally, _ := p.Tally(ctx)
	if e, _ := tally.Entry("sushi"); e.Votes != 3 {
		t.Fatalf("sushi votes = %d, want 3", e.Votes)
	}
}

func TestBallotAllowsOneVote(t *testing.T) {
	p, _ := newTestPoll()
	ctx := context.Background()
	var b Ballot

	if _, err := b.Cast(ctx, p, "pizza"); !errors.Is(err, ErrUnknownChoice) {
		t.Fatalf("err = %v, want ErrUnknownChoice", err)
	}
	if _, ok := b.Choice(); ok {
		t.Fatalf("failed vote used the ballot")
	}
	if _, err := b.Cast(ctx, p, "tofu"); err != nil {
		t.Fatalf("Cast: %v", err)
	}
	if _, err := b.Cast(ctx, p, "sushi"); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("err = %v, want ErrAlreadyVoted", err)
	}
	if c, _ := b.Choice(); c != "tofu" {
		t.Fatalf("Choice = %q", c)
	}
	tally, _ := p.Tally(ctx)
	if tally.Total != 1 {
		t.Fatalf("Total = %d, want 1", tally.Total)
	}
}
