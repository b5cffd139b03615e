// Package config centralizes all tunable game parameters.
package config

import "time"

// Playfield - logical units per terminal cell.
// A column is 8 units wide and each half-row (sub-pixel) is 8 units tall,
// so one unit maps to the same on-screen size on both axes.
const (
	UnitsPerColumn = 8.0
	UnitsPerSubRow = 8.0
)

// Max render resolution in terminal cells. Larger terminals get a centered,
// bordered playfield.
const (
	MaxTermWidth  = 100
	MaxTermHeight = 40
)

// Paddle
const (
	PaddleWidth        = 55.0
	PaddleHeight       = 55.0
	PaddleBottomOffset = 70.0 // paddle.y = height - offset
	PaddleKeyStep      = 12.0 // Units per frame while a move key is held
)

// Falling items
const (
	SpawnInterval     = 700 * time.Millisecond
	HarmfulChance     = 0.25
	BaseFallSpeed     = 3.0   // Units per frame
	SpeedScoreDivisor = 200.0 // speed = base + score/divisor
	ItemSpawnY        = -30.0
	ItemSpawnWidth    = 30.0 // x is drawn from [0, width - ItemSpawnWidth]
	ItemCollisionSize = 20.0 // Hitbox edge, independent of the drawn size
)

// Scoring
const (
	ScorePerCatch = 10
	WinScore      = 200
)

// Effects
const (
	CatchBurstParticles = 8
	CatchBurstSpeed     = 90.0 // Units per second
	CatchBurstLifetime  = 0.5  // Seconds
)

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // Seconds to show shutdown message before auto-disconnect
)

// Inactivity
const (
	InactivityWarnUser       = 90  // Seconds
	InactivityDisconnectUser = 120 // Seconds
)

// Client rendering
const (
	ClientTargetFPS       = 60
	ClientTargetFrameTime = time.Second / ClientTargetFPS
)
