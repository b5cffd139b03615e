package game

import (
	"math"
	"math/rand"

	"github.com/jonboulle/clockwork"

	"github.com/tomz197/snackdrop/internal/loop/config"
	"github.com/tomz197/snackdrop/internal/object"
)

// Spawner drops one item per interval while a session runs.
// Ticks are collected with Due on the game goroutine.
type Spawner struct {
	clock  clockwork.Clock
	rng    *rand.Rand
	ticker clockwork.Ticker
}

// NewSpawner creates a stopped spawner.
func NewSpawner(clock clockwork.Clock, rng *rand.Rand) *Spawner {
	return &Spawner{clock: clock, rng: rng}
}

// Start replaces any running ticker with a fresh one.
func (s *Spawner) Start() {
	s.Stop()
	s.ticker = s.clock.NewTicker(config.SpawnInterval)
}

// Stop cancels the ticker and discards a pending tick.
func (s *Spawner) Stop() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	select {
	case <-s.ticker.Chan():
	default:
	}
	s.ticker = nil
}

// Active reports whether a ticker is running.
func (s *Spawner) Active() bool {
	return s.ticker != nil
}

// Due drains pending ticks without blocking and returns how many there were.
func (s *Spawner) Due() int {
	if s.ticker == nil {
		return 0
	}
	n := 0
	for {
		select {
		case <-s.ticker.Chan():
			n++
		default:
			return n
		}
	}
}

// Make builds a new item above the playfield. Speed grows with the score
// and stays fixed for the item's lifetime.
func (s *Spawner) Make(score int, width float64) object.Item {
	kind := object.Beneficial
	if s.rng.Float64() < config.HarmfulChance {
		kind = object.Harmful
	}
	span := math.Max(width-config.ItemSpawnWidth, 0)
	return object.Item{
		X:     s.rng.Float64() * span,
		Y:     config.ItemSpawnY,
		Speed: config.BaseFallSpeed + float64(score)/config.SpeedScoreDivisor,
		Kind:  kind,
	}
}
