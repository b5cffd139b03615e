// Package game implements the catch-the-falling-snacks session: spawning,
// the per-frame update and the Idle/Running/Won/Lost state machine.
//
// A Game is not safe for concurrent use; the owning client goroutine drives
// input, frames and restarts.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tomz197/snackdrop/internal/loop/config"
	"github.com/tomz197/snackdrop/internal/object"
	"github.com/tomz197/snackdrop/internal/physics"
	"github.com/tomz197/snackdrop/internal/store"
)

// ErrUnknownVariant is returned for a variant key with no theme.
var ErrUnknownVariant = errors.New("unknown variant")

// Options configure a Game. Zero values pick real-time defaults.
type Options struct {
	Clock       clockwork.Clock
	Rand        *rand.Rand
	Logger      *zerolog.Logger
	ClampPaddle bool

	// OnCatch is called for every caught beneficial item.
	OnCatch func(item object.Item)
}

// Game is one variant's playable instance.
type Game struct {
	theme Theme
	store store.Store
	clock clockwork.Clock
	log   zerolog.Logger
	clamp bool

	onCatch func(object.Item)
	spawner *Spawner

	phase   Phase
	session Session
	paddle  object.Paddle
	width   float64
	height  float64

	highScore int
	last      *Result
}

// New creates an idle game and loads the variant's high score.
func New(ctx context.Context, theme Theme, st store.Store, opts Options) (*Game, error) {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(opts.Clock.Now().UnixNano()))
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	high, err := store.GetInt(ctx, st, theme.HighScoreKey)
	if err != nil {
		return nil, fmt.Errorf("load %s high score: %w", theme.Key, err)
	}

	return &Game{
		theme:     theme,
		store:     st,
		clock:     opts.Clock,
		log:       logger.With().Str("variant", theme.Key).Logger(),
		clamp:     opts.ClampPaddle,
		onCatch:   opts.OnCatch,
		spawner:   NewSpawner(opts.Clock, opts.Rand),
		paddle:    object.NewPaddle(),
		highScore: high,
	}, nil
}

// Resize re-measures the playfield and keeps the paddle near the bottom.
func (g *Game) Resize(width, height float64) {
	g.width = width
	g.height = height
	g.paddle.Y = height - config.PaddleBottomOffset
	g.clampPaddle()
}

// PointTo centres the paddle on x. Ignored unless a session is running.
func (g *Game) PointTo(x float64) {
	if g.phase != Running {
		return
	}
	g.paddle.X = x - g.paddle.W/2
	g.clampPaddle()
}

// Nudge moves the paddle by dx. Ignored unless a session is running.
func (g *Game) Nudge(dx float64) {
	if g.phase != Running {
		return
	}
	g.paddle.X += dx
	g.clampPaddle()
}

func (g *Game) clampPaddle() {
	if g.clamp {
		g.paddle.X = physics.Clamp(g.paddle.X, 0, g.width-g.paddle.W)
	}
}

// Start begins a fresh session. Calling it while running restarts.
func (g *Game) Start() {
	g.spawner.Start()
	g.session = Session{
		ID:        uuid.New(),
		StartedAt: g.clock.Now(),
		Items:     g.session.Items[:0],
	}
	g.phase = Running
	g.last = nil
	g.log.Debug().Str("session_id", g.session.ID.String()).Msg("session started")
}

// Frame advances the session by one display frame and returns the result
// when the session ended during it.
func (g *Game) Frame(ctx context.Context) *Result {
	if g.phase != Running {
		return nil
	}

	for n := g.spawner.Due(); n > 0; n-- {
		g.session.Items = append(g.session.Items, g.spawner.Make(g.session.Score, g.width))
	}

	paddle := g.paddle.Rect()
	for i := len(g.session.Items) - 1; i >= 0; i-- {
		it := &g.session.Items[i]
		it.Fall()

		if it.Hitbox().ReachesTop(paddle) {
			if it.Kind == object.Harmful {
				return g.end(ctx, Lost)
			}
			caught := *it
			g.removeItem(i)
			g.session.Score += config.ScorePerCatch
			g.session.Caught++
			if g.onCatch != nil {
				g.onCatch(caught)
			}
			if g.session.Score >= config.WinScore {
				return g.end(ctx, Won)
			}
			continue
		}

		if it.Y > g.height {
			g.removeItem(i)
		}
	}
	return nil
}

func (g *Game) removeItem(i int) {
	g.session.Items = append(g.session.Items[:i], g.session.Items[i+1:]...)
}

// end finishes the running session with the given outcome.
func (g *Game) end(ctx context.Context, outcome Phase) *Result {
	g.spawner.Stop()
	elapsed := g.clock.Since(g.session.StartedAt)

	score := g.session.Score
	// Other games of this variant may have raised the stored best since New.
	newHigh := score > g.highScore
	best, err := store.SetMax(ctx, g.store, g.theme.HighScoreKey, score)
	if err != nil {
		g.log.Error().Err(err).Int("score", score).Msg("failed to persist high score")
		best = score
	}
	if best > score {
		newHigh = false
	}
	g.highScore = max(g.highScore, best)

	g.phase = outcome
	g.last = &Result{
		SessionID:    g.session.ID,
		Variant:      g.theme.Key,
		Outcome:      outcome,
		Score:        score,
		Caught:       g.session.Caught,
		Elapsed:      elapsed,
		HighScore:    g.highScore,
		NewHighScore: newHigh,
		Rank:         g.theme.RankFor(score),
	}
	g.log.Info().
		Str("session_id", g.session.ID.String()).
		Str("outcome", outcome.String()).
		Int("score", score).
		Dur("elapsed", elapsed).
		Msg("session ended")
	return g.last
}

// Phase returns the current state.
func (g *Game) Phase() Phase {
	return g.phase
}

// Score returns the running or final score.
func (g *Game) Score() int {
	return g.session.Score
}

// Caught returns how many beneficial items were caught this session.
func (g *Game) Caught() int {
	return g.session.Caught
}

// HighScore returns the best score seen for this variant.
func (g *Game) HighScore() int {
	return g.highScore
}

// Items returns the live items. The slice must not be modified.
func (g *Game) Items() []object.Item {
	return g.session.Items
}

// Paddle returns the paddle position.
func (g *Game) Paddle() object.Paddle {
	return g.paddle
}

// Theme returns the variant's theme.
func (g *Game) Theme() Theme {
	return g.theme
}

// SessionID returns the current or last session's ID.
func (g *Game) SessionID() uuid.UUID {
	return g.session.ID
}

// Elapsed returns the time since the session started.
func (g *Game) Elapsed() time.Duration {
	if g.last != nil {
		return g.last.Elapsed
	}
	if g.phase != Running {
		return 0
	}
	return g.clock.Since(g.session.StartedAt)
}

// LastResult returns the result of the session that just ended, if any.
func (g *Game) LastResult() *Result {
	return g.last
}

// Stop cancels the spawn ticker without ending the session. Used when the
// owner disconnects mid-game.
func (g *Game) Stop() {
	g.spawner.Stop()
}
