// Package bus fans out game results and poll tallies between processes.
package bus

import (
	"context"
	"sync"

	"github.com/tomz197/snackdrop/internal/game"
	"github.com/tomz197/snackdrop/internal/poll"
)

// Subjects used on the wire.
const (
	ResultSubjectPrefix = "snackdrop.results."
	TallySubject        = "snackdrop.poll.tally"
)

// ResultSubject is the subject a variant's results are published on.
func ResultSubject(variant string) string {
	return ResultSubjectPrefix + variant
}

// ResultEvent is published when a session ends.
type ResultEvent struct {
	Player string      `json:"player"`
	Result game.Result `json:"result"`
}

// Bus publishes and delivers events.
type Bus interface {
	PublishResult(ctx context.Context, ev ResultEvent) error
	PublishTally(ctx context.Context, t poll.Tally) error
	// SubscribeTally calls fn for every published tally until the returned
	// function is called.
	SubscribeTally(fn func(poll.Tally)) (unsubscribe func(), err error)
	SubscribeResults(fn func(ResultEvent)) (unsubscribe func(), err error)
	Close() error
}

// Local delivers events to subscribers in the same process.
type Local struct {
	mu      sync.RWMutex
	nextID  int
	tallies map[int]func(poll.Tally)
	results map[int]func(ResultEvent)
}

// NewLocal creates an in-process bus.
func NewLocal() *Local {
	return &Local{
		tallies: make(map[int]func(poll.Tally)),
		results: make(map[int]func(ResultEvent)),
	}
}

func (l *Local) PublishResult(_ context.Context, ev ResultEvent) error {
	l.mu.RLock()
	fns := make([]func(ResultEvent), 0, len(l.results))
	for _, fn := range l.results {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
	return nil
}

func (l *Local) PublishTally(_ context.Context, t poll.Tally) error {
	l.mu.RLock()
	fns := make([]func(poll.Tally), 0, len(l.tallies))
	for _, fn := range l.tallies {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()

	for _, fn := range fns {
		fn(t)
	}
	return nil
}

func (l *Local) SubscribeTally(fn func(poll.Tally)) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	l.tallies[id] = fn
	return func() {
		l.mu.Lock()
		delete(l.tallies, id)
		l.mu.Unlock()
	}, nil
}

func (l *Local) SubscribeResults(fn func(ResultEvent)) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	l.results[id] = fn
	return func() {
		l.mu.Lock()
		delete(l.results, id)
		l.mu.Unlock()
	}, nil
}

func (l *Local) Close() error {
	l.mu.Lock()
	clear(l.tallies)
	clear(l.results)
	l.mu.Unlock()
	return nil
}
