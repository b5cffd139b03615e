package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomz197/snackdrop/internal/object"
)

// Phase is the session state.
type Phase int

const (
	Idle Phase = iota
	Running
	Won
	Lost
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	for _, candidate := range []Phase{Idle, Running, Won, Lost} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// Ended reports whether p is a terminal phase.
func (p Phase) Ended() bool {
	return p == Won || p == Lost
}

// Session is one play-through.
type Session struct {
	ID        uuid.UUID
	Score     int
	Caught    int
	StartedAt time.Time
	Items     []object.Item // Insertion ordered
}

// Result summarises a finished session.
type Result struct {
	SessionID    uuid.UUID     `json:"session_id"`
	Variant      string        `json:"variant"`
	Outcome      Phase         `json:"outcome"`
	Score        int           `json:"score"`
	Caught       int           `json:"caught"`
	Elapsed      time.Duration `json:"elapsed"`
	HighScore    int           `json:"high_score"`
	NewHighScore bool          `json:"new_high_score"`
	Rank         string        `json:"rank"`
}

// Seconds is the elapsed time in whole seconds.
func (r Result) Seconds() int {
	return int(r.Elapsed / time.Second)
}

// Won reports whether the session was won.
func (r Result) Won() bool {
	return r.Outcome == Won
}
