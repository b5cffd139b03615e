package client

import (
	"time"

	"github.com/tomz197/snackdrop/internal/draw"
	"github.com/tomz197/snackdrop/internal/input"
	"github.com/tomz197/snackdrop/internal/object"
	"github.com/tomz197/snackdrop/internal/poll"
)

// GameState represents the current screen for a client.
type GameState int

const (
	GameStateStart    GameState = iota // Variant picker and poll
	GameStatePlaying                   // Active gameplay
	GameStateEnded                     // Won or lost, show the summary
	GameStateShutdown                  // Server is shutting down
)

// ClientState holds per-connection state (input, selection, poll, effects).
// Each client has their own instance, managed by the Client.
type ClientState struct {
	Input     input.Input
	prevInput input.Input // Previous frame, for edge-triggered keys
	GameState GameState
	Variant   int  // Selected theme index
	Running   bool // Client loop running

	Tally   poll.Tally
	VoteMsg string // Feedback after a vote attempt
	News    string // Latest result from another player
	newsTTL float64

	Particles object.Particles

	termSizeFunc  draw.TermSizeFunc // Function to get terminal size
	delta         time.Duration     // Frame delta time
	shutdownTimer float64           // Countdown before auto-disconnect on shutdown
	isInactive    bool              // Whether the client is in inactive warning state

	// Previous values, used to detect transitions that need a full clear
	prevGameState GameState
	wasInactive   bool
	prevVariant   int
}

// NewClientState creates a new initialized client state.
func NewClientState() *ClientState {
	return &ClientState{
		GameState:     GameStateStart,
		Running:       true,
		prevGameState: -1,
	}
}

// pressed reports keys that went down this frame.
func (s *ClientState) pressed() (left, right, start bool) {
	left = s.Input.Left && !s.prevInput.Left
	right = s.Input.Right && !s.prevInput.Right
	start = (s.Input.Space && !s.prevInput.Space) || (s.Input.Enter && !s.prevInput.Enter) || s.Input.Click
	return
}
