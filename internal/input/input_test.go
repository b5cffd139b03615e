package input

import (
	"testing"
	"time"
)

func TestParseMouseMotion(t *testing.T) {
	s := newStream()
	in := s.parse([]byte("\x1b[<35;42;7M"), time.Now())
	if in.PointerCol != 42 || in.PointerRow != 7 {
		t.Fatalf("pointer = (%d,%d), want (42,7)", in.PointerCol, in.PointerRow)
	}
	if in.Click {
		t.Fatalf("motion report must not count as a click")
	}
	if in.Escape {
		t.Fatalf("mouse report must not register as escape")
	}
}

func TestParseMouseKeepsLatestColumn(t *testing.T) {
	s := newStream()
	in := s.parse([]byte("\x1b[<35;10;3M\x1b[<35;11;3M\x1b[<35;15;4M"), time.Now())
	if in.PointerCol != 15 {
		t.Fatalf("PointerCol = %d, want 15", in.PointerCol)
	}
}

func TestParseMouseClick(t *testing.T) {
	s := newStream()
	in := s.parse([]byte("\x1b[<0;5;5M"), time.Now())
	if !in.Click {
		t.Fatalf("left press should be a click")
	}
	in = s.parse([]byte("\x1b[<0;5;5m"), time.Now())
	if in.Click {
		t.Fatalf("release should not be a click")
	}
}

func TestSplitMouseSequence(t *testing.T) {
	s := newStream()
	now := time.Now()

	in := s.parse([]byte("d\x1b[<35;2"), now)
	if in.PointerCol != 0 {
		t.Fatalf("incomplete report produced PointerCol %d", in.PointerCol)
	}
	if !in.Right {
		t.Fatalf("key before the split sequence was lost")
	}
	if in.Escape {
		t.Fatalf("split sequence registered as escape")
	}

	in = s.parse([]byte("8;9M"), now)
	if in.PointerCol != 28 || in.PointerRow != 9 {
		t.Fatalf("pointer = (%d,%d), want (28,9)", in.PointerCol, in.PointerRow)
	}
}

func TestLoneEscapeFlushedNextFrame(t *testing.T) {
	s := newStream()
	now := time.Now()

	in := s.parse([]byte{'\x1b'}, now)
	if in.Escape {
		t.Fatalf("trailing escape should wait for a possible sequence")
	}
	in = s.parse(nil, now)
	if !in.Escape {
		t.Fatalf("escape was not flushed on an idle frame")
	}
}

func TestArrowKeys(t *testing.T) {
	s := newStream()
	in := s.parse([]byte("\x1b[D"), time.Now())
	if !in.Left || in.Right {
		t.Fatalf("left arrow: Left=%v Right=%v", in.Left, in.Right)
	}
	in = s.parse([]byte("\x1b[C"), time.Now())
	if !in.Right {
		t.Fatalf("right arrow not detected")
	}
}

func TestKeyHoldExpires(t *testing.T) {
	s := newStream()
	now := time.Now()
	if in := s.parse([]byte("a"), now); !in.Left {
		t.Fatalf("a should move left")
	}
	if in := s.parse(nil, now.Add(10*time.Millisecond)); !in.Left {
		t.Fatalf("key should still be held")
	}
	if in := s.parse(nil, now.Add(keyHoldDuration+time.Millisecond)); in.Left {
		t.Fatalf("key should have been released")
	}
}

func TestNumberKey(t *testing.T) {
	s := newStream()
	in := s.parse([]byte("2"), time.Now())
	if in.Number != 2 {
		t.Fatalf("Number = %d, want 2", in.Number)
	}
	in = s.parse(nil, time.Now().Add(time.Second))
	if in.Number != -1 {
		t.Fatalf("Number = %d after hold, want -1", in.Number)
	}
}

func TestResetKeyInput(t *testing.T) {
	s := newStream()
	now := time.Now()
	s.parse([]byte(" "), now)
	ResetKeyInput(s)
	if in := s.parse(nil, now); in.Space {
		t.Fatalf("space still held after reset")
	}
}

func TestReadInputDrainsChannel(t *testing.T) {
	s := newStream()
	for _, b := range []byte("q") {
		s.ch <- b
	}
	if in := ReadInput(s); !in.Quit {
		t.Fatalf("q should quit")
	}
}
