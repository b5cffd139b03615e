package bus

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/tomz197/snackdrop/internal/game"
	"github.com/tomz197/snackdrop/internal/poll"
)

func TestLocalTallyFanOut(t *testing.T) {
	b := NewLocal()
	var a, c []poll.Tally
	unsubA, _ := b.SubscribeTally(func(t poll.Tally) { a = append(a, t) })
	_, _ = b.SubscribeTally(func(t poll.Tally) { c = append(c, t) })

	b.PublishTally(context.Background(), poll.Tally{Total: 1})
	unsubA()
	b.PublishTally(context.Background(), poll.Tally{Total: 2})

	if len(a) != 1 || a[0].Total != 1 {
		t.Fatalf("first subscriber got %+v", a)
	}
	if len(c) != 2 {
		t.Fatalf("second subscriber got %d tallies, want 2", len(c))
	}
}

func TestLocalResults(t *testing.T) {
	b := NewLocal()
	var got []ResultEvent
	b.SubscribeResults(func(ev ResultEvent) { got = append(got, ev) })
	b.PublishResult(context.Background(), ResultEvent{Player: "ann", Result: game.Result{Variant: "tofu", Score: 40}})
	if len(got) != 1 || got[0].Player != "ann" || got[0].Result.Score != 40 {
		t.Fatalf("unexpected events %+v", got)
	}

	b.Close()
	b.PublishResult(context.Background(), ResultEvent{})
	if len(got) != 1 {
		t.Fatalf("closed bus still delivered")
	}
}

func TestResultSubject(t *testing.T) {
	if got := ResultSubject("sushi"); got != "snackdrop.results.sushi" {
		t.Fatalf("ResultSubject = %q", got)
	}
}

func TestResultEventJSON(t *testing.T) {
	ev := ResultEvent{Player: "bo", Result: game.Result{Variant: "sushi", Outcome: game.Won, Score: 200}}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	var back ResultEvent
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Result.Outcome != game.Won || back.Result.Score != 200 {
		t.Fatalf("round trip lost fields: %+v", back)
	}
}
