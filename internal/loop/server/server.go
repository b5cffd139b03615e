// Package server is the hub shared by every terminal client of a process:
// themes, the score store, the poll and the event bus.
package server

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tomz197/snackdrop/internal/bus"
	"github.com/tomz197/snackdrop/internal/game"
	"github.com/tomz197/snackdrop/internal/poll"
	"github.com/tomz197/snackdrop/internal/store"
)

// recentResults is how many finished sessions the hub remembers.
const recentResults = 20

// GameServer is the interface clients use to communicate with the hub.
// Decouples the Client from the concrete Server implementation, enabling
// testing and a single-player hub.
type GameServer interface {
	RegisterClient(username string) *ClientHandle
	UnregisterClient(clientID int)
	Themes() []game.Theme
	NewGame(ctx context.Context, handle *ClientHandle, variant string) (*game.Game, error)
	RecordResult(ctx context.Context, handle *ClientHandle, res *game.Result)
	CastVote(ctx context.Context, choice string) (poll.Tally, error)
	Tally(ctx context.Context) (poll.Tally, error)
	Choices() []poll.Choice
}

// Server owns the shared state and fans events out to clients.
type Server struct {
	themes  []game.Theme
	store   store.Store
	poll    *poll.Poll
	bus     bus.Bus
	clock   clockwork.Clock
	seed    int64
	clamp   bool
	log     zerolog.Logger
	closers []func() error

	clients      map[int]*ClientHandle
	nextClientID int
	recent       []bus.ResultEvent
	unsubscribe  []func()
	mu           sync.RWMutex
}

// Compile-time check that Server implements GameServer.
var _ GameServer = (*Server)(nil)

// ClientHandle represents a client's connection to the hub.
type ClientHandle struct {
	ID       int
	Username string           // Display name for this client
	EventsCh chan ClientEvent // Events sent to client
	Ballot   poll.Ballot      // One vote per connection
}

// ClientEvent represents an event sent from the hub to a client.
type ClientEvent struct {
	Type   ClientEventType
	Tally  poll.Tally      // For tally updates
	Result bus.ResultEvent // For results of other players
}

// ClientEventType identifies the type of client event.
type ClientEventType int

const (
	EventServerShutdown ClientEventType = iota
	EventTallyUpdated
	EventPlayerResult
)

// Deps are the collaborators of a Server.
type Deps struct {
	Themes      []game.Theme
	Store       store.Store
	Bus         bus.Bus // Defaults to an in-process bus
	Clock       clockwork.Clock
	Seed        int64 // 0 seeds every game from the clock
	ClampPaddle bool
	Logger      *zerolog.Logger
}

// HighScore is one variant's best score.
type HighScore struct {
	Variant string `json:"variant"`
	Title   string `json:"title"`
	Score   int    `json:"score"`
}

// New creates a hub and subscribes it to the bus.
func New(deps Deps) (*Server, error) {
	if len(deps.Themes) == 0 {
		return nil, fmt.Errorf("server: no themes")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("server: no store")
	}
	if deps.Bus == nil {
		deps.Bus = bus.NewLocal()
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	logger := zerolog.Nop()
	if deps.Logger != nil {
		logger = *deps.Logger
	}

	s := &Server{
		themes:       deps.Themes,
		store:        deps.Store,
		poll:         poll.New(deps.Store, poll.ChoicesFromThemes(deps.Themes)),
		bus:          deps.Bus,
		clock:        deps.Clock,
		seed:         deps.Seed,
		clamp:        deps.ClampPaddle,
		log:          logger,
		clients:      make(map[int]*ClientHandle),
		nextClientID: 1,
	}

	unsubTally, err := s.bus.SubscribeTally(s.broadcastTally)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	unsubResults, err := s.bus.SubscribeResults(s.rememberResult)
	if err != nil {
		unsubTally()
		return nil, fmt.Errorf("server: %w", err)
	}
	s.unsubscribe = []func(){unsubTally, unsubResults}
	return s, nil
}

// Shutdown gracefully shuts down the hub by notifying all connected clients
// and waiting for them to disconnect (up to the given timeout).
func (s *Server) Shutdown(timeout time.Duration) {
	s.broadcast(ClientEvent{Type: EventServerShutdown})

	// Wait for all clients to disconnect, or timeout
	deadline := s.clock.After(timeout)
	ticker := s.clock.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			return
		case <-ticker.Chan():
			if s.Players() == 0 {
				return
			}
		}
	}
}

// Close detaches from the bus and releases what Open created.
func (s *Server) Close() error {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	for _, fn := range unsub {
		fn()
	}
	var firstErr error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RegisterClient registers a new client with the given username and returns its handle.
func (s *Server) RegisterClient(username string) *ClientHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	handle := &ClientHandle{
		ID:       s.nextClientID,
		Username: username,
		EventsCh: make(chan ClientEvent, 16),
	}
	s.nextClientID++
	s.clients[handle.ID] = handle

	s.log.Info().Int("client_id", handle.ID).Str("username", username).Int("players", len(s.clients)).Msg("client registered")
	return handle
}

// UnregisterClient removes a client from the hub and closes its event channel.
func (s *Server) UnregisterClient(clientID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	handle, ok := s.clients[clientID]
	if !ok {
		return
	}
	close(handle.EventsCh)
	delete(s.clients, clientID)
	s.log.Info().Int("client_id", clientID).Int("players", len(s.clients)).Msg("client unregistered")
}

// Players returns the number of connected clients.
func (s *Server) Players() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Themes returns the playable variants in display order.
func (s *Server) Themes() []game.Theme {
	return s.themes
}

// NewGame creates an idle game of variant for a client.
func (s *Server) NewGame(ctx context.Context, handle *ClientHandle, variant string) (*game.Game, error) {
	theme, err := game.FindTheme(s.themes, variant)
	if err != nil {
		return nil, err
	}

	seed := s.seed
	if seed == 0 {
		seed = s.clock.Now().UnixNano()
	}
	logger := s.log.With().Int("client_id", handle.ID).Logger()

	return game.New(ctx, theme, s.store, game.Options{
		Clock:       s.clock,
		Rand:        rand.New(rand.NewSource(seed + int64(handle.ID))),
		Logger:      &logger,
		ClampPaddle: s.clamp,
	})
}

// RecordResult publishes a finished session.
func (s *Server) RecordResult(ctx context.Context, handle *ClientHandle, res *game.Result) {
	if res == nil {
		return
	}
	ev := bus.ResultEvent{Player: handle.Username, Result: *res}
	if err := s.bus.PublishResult(ctx, ev); err != nil {
		s.log.Warn().Err(err).Int("client_id", handle.ID).Msg("failed to publish result")
	}
}

// CastVote records a vote and announces the new tally. Callers that must
// allow a single vote go through a poll.Ballot.
func (s *Server) CastVote(ctx context.Context, choice string) (poll.Tally, error) {
	t, err := s.poll.CastVote(ctx, choice)
	if err != nil {
		return poll.Tally{}, err
	}
	s.log.Info().Str("choice", choice).Int("total", t.Total).Msg("vote cast")
	if err := s.bus.PublishTally(ctx, t); err != nil {
		s.log.Warn().Err(err).Msg("failed to publish tally")
	}
	return t, nil
}

// Tally returns the current poll state.
func (s *Server) Tally(ctx context.Context) (poll.Tally, error) {
	return s.poll.Tally(ctx)
}

// Choices returns the poll's options.
func (s *Server) Choices() []poll.Choice {
	return s.poll.Choices()
}

// HighScores returns every variant's persisted best score.
func (s *Server) HighScores(ctx context.Context) ([]HighScore, error) {
	scores := make([]HighScore, 0, len(s.themes))
	for _, t := range s.themes {
		v, err := store.GetInt(ctx, s.store, t.HighScoreKey)
		if err != nil {
			return nil, err
		}
		scores = append(scores, HighScore{Variant: t.Key, Title: t.Title, Score: v})
	}
	return scores, nil
}

// Recent returns the latest finished sessions, newest first.
func (s *Server) Recent() []bus.ResultEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]bus.ResultEvent, len(s.recent))
	for i, ev := range s.recent {
		out[len(s.recent)-1-i] = ev
	}
	return out
}

// SubscribeTally forwards tally updates from the bus to fn.
func (s *Server) SubscribeTally(fn func(poll.Tally)) (func(), error) {
	return s.bus.SubscribeTally(fn)
}

func (s *Server) broadcastTally(t poll.Tally) {
	s.broadcast(ClientEvent{Type: EventTallyUpdated, Tally: t})
}

func (s *Server) rememberResult(ev bus.ResultEvent) {
	s.mu.Lock()
	s.recent = append(s.recent, ev)
	if len(s.recent) > recentResults {
		s.recent = s.recent[len(s.recent)-recentResults:]
	}
	s.mu.Unlock()

	s.broadcast(ClientEvent{Type: EventPlayerResult, Result: ev})
}

// broadcast delivers ev to every client without blocking.
func (s *Server) broadcast(ev ClientEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, handle := range s.clients {
		select {
		case handle.EventsCh <- ev:
		default:
		}
	}
}
