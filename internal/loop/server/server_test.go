package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomz197/snackdrop/internal/game"
	"github.com/tomz197/snackdrop/internal/object"
	"github.com/tomz197/snackdrop/internal/poll"
	"github.com/tomz197/snackdrop/internal/store"
)

func testThemes() []game.Theme {
	style := func(s object.Shape) game.Style { return game.Style{Shape: s} }
	return []game.Theme{
		{Key: "tofu", Title: "Tofu", HighScoreKey: "tofuHighScore", VoteKey: "tofuVotes", PollLabel: "Tofu",
			Paddle: style(object.ShapeFace), Beneficial: style(object.ShapeBar), Harmful: style(object.ShapeDiamond),
			Ranks: []game.Rank{{Min: 0, Title: "Helper"}}},
		{Key: "sushi", Title: "Sushi", HighScoreKey: "sushiHighScore", VoteKey: "sushiVotes", PollLabel: "Sushi",
			Paddle: style(object.ShapeFace), Beneficial: style(object.ShapeRoll), Harmful: style(object.ShapeOrb),
			Ranks: []game.Rank{{Min: 0, Title: "Beginner"}}},
	}
}

func newTestServer(t *testing.T, st store.Store) *Server {
	t.Helper()
	if st == nil {
		st = store.NewMemory()
	}
	s, err := New(Deps{Themes: testThemes(), Store: st, Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func nextEvent(t *testing.T, h *ClientHandle) ClientEvent {
	t.Helper()
	select {
	case ev := <-h.EventsCh:
		return ev
	default:
		t.Fatalf("client %d has no pending event", h.ID)
		return ClientEvent{}
	}
}

func TestRegisterAndUnregister(t *testing.T) {
	s := newTestServer(t, nil)
	a := s.RegisterClient("ann")
	b := s.RegisterClient("bo")
	if a.ID == b.ID {
		t.Fatalf("duplicate client IDs")
	}
	if s.Players() != 2 {
		t.Fatalf("Players = %d, want 2", s.Players())
	}

	s.UnregisterClient(a.ID)
	if _, ok := <-a.EventsCh; ok {
		t.Fatalf("events channel left open")
	}
	s.UnregisterClient(a.ID)
	if s.Players() != 1 {
		t.Fatalf("Players = %d, want 1", s.Players())
	}
}

func TestVoteBroadcastsTally(t *testing.T) {
	s := newTestServer(t, nil)
	a := s.RegisterClient("ann")
	b := s.RegisterClient("bo")

	if _, err := a.Ballot.Cast(context.Background(), s, "tofu"); err != nil {
		t.Fatalf("Cast: %v", err)
	}
	for _, h := range []*ClientHandle{a, b} {
		ev := nextEvent(t, h)
		if ev.Type != EventTallyUpdated {
			t.Fatalf("event type = %v, want tally", ev.Type)
		}
		if e, _ := ev.Tally.Entry("tofu"); e.Votes != 1 || e.Percent != 100 {
			t.Fatalf("unexpected tally %+v", ev.Tally)
		}
	}

	if _, err := a.Ballot.Cast(context.Background(), s, "sushi"); !errors.Is(err, poll.ErrAlreadyVoted) {
		t.Fatalf("second vote err = %v", err)
	}
	if _, err := b.Ballot.Cast(context.Background(), s, "sushi"); err != nil {
		t.Fatalf("other client's vote: %v", err)
	}
	tally, _ := s.Tally(context.Background())
	if tally.Total != 2 {
		t.Fatalf("Total = %d, want 2", tally.Total)
	}
}

// slowStore adds latency to every call so concurrent callers overlap.
type slowStore struct {
	*store.Memory
}

func (s slowStore) Get(ctx context.Context, key string) (string, bool, error) {
	time.Sleep(time.Millisecond)
	return s.Memory.Get(ctx, key)
}

func (s slowStore) Incr(ctx context.Context, key string) (int, error) {
	time.Sleep(time.Millisecond)
	return s.Memory.Incr(ctx, key)
}

func TestConcurrentVotesAllCount(t *testing.T) {
	s := newTestServer(t, slowStore{store.NewMemory()})

	const voters = 50
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.CastVote(context.Background(), "tofu"); err != nil {
				t.Errorf("CastVote: %v", err)
			}
		}()
	}
	wg.Wait()

	tally, err := s.Tally(context.Background())
	if err != nil {
		t.Fatalf("Tally: %v", err)
	}
	if e, _ := tally.Entry("tofu"); e.Votes != voters || tally.Total != voters {
		t.Fatalf("recorded %d of %d votes", e.Votes, voters)
	}
}

func TestNewGameUnknownVariant(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.RegisterClient("ann")
	if _, err := s.NewGame(context.Background(), h, "pizza"); !errors.Is(err, game.ErrUnknownVariant) {
		t.Fatalf("err = %v, want ErrUnknownVariant", err)
	}
	g, err := s.NewGame(context.Background(), h, "sushi")
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if g.Theme().Key != "sushi" || g.Phase() != game.Idle {
		t.Fatalf("unexpected game %s/%v", g.Theme().Key, g.Phase())
	}
}

func TestRecordResult(t *testing.T) {
	s := newTestServer(t, nil)
	a := s.RegisterClient("ann")
	b := s.RegisterClient("bo")

	s.RecordResult(context.Background(), a, &game.Result{Variant: "tofu", Outcome: game.Lost, Score: 40})
	s.RecordResult(context.Background(), a, nil)

	ev := nextEvent(t, b)
	if ev.Type != EventPlayerResult || ev.Result.Player != "ann" || ev.Result.Result.Score != 40 {
		t.Fatalf("unexpected event %+v", ev)
	}
	recent := s.Recent()
	if len(recent) != 1 || recent[0].Player != "ann" {
		t.Fatalf("Recent = %+v", recent)
	}
}

func TestRecentKeepsNewestFirst(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.RegisterClient("ann")
	for i := 1; i <= recentResults+5; i++ {
		s.RecordResult(context.Background(), h, &game.Result{Variant: "tofu", Score: i * 10})
	}
	recent := s.Recent()
	if len(recent) != recentResults {
		t.Fatalf("len(Recent) = %d, want %d", len(recent), recentResults)
	}
	if recent[0].Result.Score != (recentResults+5)*10 {
		t.Fatalf("newest result = %d", recent[0].Result.Score)
	}
}

func TestHighScores(t *testing.T) {
	st := store.NewMemory()
	store.SetInt(context.Background(), st, "sushiHighScore", 170)
	s := newTestServer(t, st)

	scores, err := s.HighScores(context.Background())
	if err != nil {
		t.Fatalf("HighScores: %v", err)
	}
	if len(scores) != 2 || scores[0].Score != 0 || scores[1].Variant != "sushi" || scores[1].Score != 170 {
		t.Fatalf("unexpected scores %+v", scores)
	}
}

func TestShutdownNotifiesAndWaits(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.RegisterClient("ann")

	done := make(chan struct{})
	go func() {
		s.Shutdown(5 * time.Second)
		close(done)
	}()

	select {
	case ev := <-h.EventsCh:
		if ev.Type != EventServerShutdown {
			t.Fatalf("event type = %v, want shutdown", ev.Type)
		}
	case <-time.After(time.Second):
		t.Fatalf("no shutdown event")
	}
	s.UnregisterClient(h.ID)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Shutdown did not return after the last client left")
	}
}
