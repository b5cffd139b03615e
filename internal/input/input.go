// Package input turns the raw terminal byte stream into per-frame key and pointer state.
package input

import (
	"bufio"
	"time"
)

// keyHoldDuration is how long a key is considered "held" after its last press.
const keyHoldDuration = 30 * time.Millisecond

// Input represents the current frame's input state.
type Input struct {
	Quit   bool
	Left   bool
	Right  bool
	Space  bool
	Enter  bool
	Escape bool
	Number int

	// PointerCol is the 1-based terminal column of the latest mouse report
	// this frame, 0 when the pointer did not move.
	PointerCol int
	PointerRow int
	Click      bool // Primary button pressed this frame

	Pressed []byte
}

// keyState tracks the last time each key was pressed.
type keyState struct {
	quit      time.Time
	left      time.Time
	right     time.Time
	space     time.Time
	enter     time.Time
	escape    time.Time
	number    time.Time
	numberVal int
}

// Stream delivers input bytes via a channel and tracks key state for combinations.
type Stream struct {
	ch      chan byte
	state   keyState
	pending []byte // Incomplete escape sequence carried to the next frame
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := newStream()
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

func newStream() *Stream {
	return &Stream{
		ch:    make(chan byte, 256),
		state: keyState{numberVal: -1},
	}
}

// ReadInput drains all available bytes from the stream (non-blocking).
// Handles escape sequences for arrow keys and mouse reports and accumulates all pressed keys.
// Uses key state persistence to allow detecting simultaneous key combinations.
func ReadInput(s *Stream) Input {
	var buf []byte

	// Drain all available bytes
drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	return s.parse(buf, time.Now())
}

// ResetKeyInput forgets held keys so a key pressed on one screen does not
// also act on the next.
func ResetKeyInput(s *Stream) {
	s.state = keyState{numberVal: -1}
	s.pending = s.pending[:0]
}

// parse applies buf to the key state and builds the frame's Input.
func (s *Stream) parse(buf []byte, now time.Time) Input {
	// A sequence split across reads is completed by this frame's bytes.
	// With nothing new, the leftover is taken as plain keys.
	flush := len(buf) == 0
	if len(s.pending) > 0 {
		buf = append(s.pending, buf...)
		s.pending = nil
	}

	in := Input{Number: -1}

	for i := 0; i < len(buf); i++ {
		b := buf[i]

		if b == '\x1b' {
			if n, ok := s.escape(buf[i:], now, &in); ok {
				i += n - 1
				continue
			}
			if !flush && incompleteEscape(buf[i:]) {
				s.pending = append([]byte(nil), buf[i:]...)
				buf = buf[:i]
				break
			}
		}

		// Single byte handling - update key state
		applyByteToState(&s.state, b, now)
	}

	// Build input from key state - keys are "pressed" if seen within hold duration
	in.Quit = now.Sub(s.state.quit) < keyHoldDuration
	in.Left = now.Sub(s.state.left) < keyHoldDuration
	in.Right = now.Sub(s.state.right) < keyHoldDuration
	in.Space = now.Sub(s.state.space) < keyHoldDuration
	in.Enter = now.Sub(s.state.enter) < keyHoldDuration
	in.Escape = now.Sub(s.state.escape) < keyHoldDuration
	in.Pressed = buf

	// Number is only set if recently pressed
	if now.Sub(s.state.number) < keyHoldDuration {
		in.Number = s.state.numberVal
	}

	return in
}

// escape consumes a complete CSI sequence at the start of seq and reports
// its length.
func (s *Stream) escape(seq []byte, now time.Time, in *Input) (int, bool) {
	if len(seq) < 3 || seq[1] != '[' {
		return 0, false
	}
	switch seq[2] {
	case 'C': // Right arrow
		s.state.right = now
		return 3, true
	case 'D': // Left arrow
		s.state.left = now
		return 3, true
	case 'A', 'B': // Up/down arrows are unused
		return 3, true
	case '<':
		ev, n, ok := parseMouse(seq)
		if !ok {
			return 0, false
		}
		in.PointerCol = ev.col
		in.PointerRow = ev.row
		if ev.press && ev.button == 0 && !ev.motion {
			in.Click = true
		}
		return n, true
	}
	return 0, false
}

// incompleteEscape reports whether seq could still grow into a sequence
// escape understands.
func incompleteEscape(seq []byte) bool {
	switch {
	case len(seq) == 1:
		return true
	case seq[1] != '[':
		return false
	case len(seq) == 2:
		return true
	case seq[2] != '<':
		return false
	}
	for _, b := range seq[3:] {
		if (b < '0' || b > '9') && b != ';' {
			return false
		}
	}
	return true
}

type mouseEvent struct {
	button int
	col    int
	row    int
	motion bool
	press  bool
}

// parseMouse decodes an SGR mouse report "ESC [ < b ; col ; row M|m".
func parseMouse(seq []byte) (mouseEvent, int, bool) {
	var fields [3]int
	field := 0
	digits := 0
	for i := 3; i < len(seq); i++ {
		b := seq[i]
		switch {
		case b >= '0' && b <= '9':
			fields[field] = fields[field]*10 + int(b-'0')
			digits++
		case b == ';':
			if digits == 0 || field == 2 {
				return mouseEvent{}, 0, false
			}
			field++
			digits = 0
		case b == 'M' || b == 'm':
			if digits == 0 || field != 2 {
				return mouseEvent{}, 0, false
			}
			return mouseEvent{
				button: fields[0] & 3,
				motion: fields[0]&32 != 0,
				col:    fields[1],
				row:    fields[2],
				press:  b == 'M',
			}, i + 1, true
		default:
			return mouseEvent{}, 0, false
		}
	}
	return mouseEvent{}, 0, false
}

// applyByteToState updates the key state timestamps based on the pressed byte.
func applyByteToState(state *keyState, b byte, now time.Time) {
	switch b {
	case 'q', 'Q':
		state.quit = now
	case 'a', 'A', 'j', 'J':
		state.left = now
	case 'd', 'D', 'l', 'L':
		state.right = now
	case ' ':
		state.space = now
	case '\n', '\r':
		state.enter = now
	case '\x1b':
		state.escape = now
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		state.number = now
		state.numberVal = int(b - '0')
	}
}
