package draw

import (
	"bytes"
	"strings"
	"testing"
)

func TestTerminalToLogical(t *testing.T) {
	c := NewScaledCanvas(10, 5, 80, 80)
	if got := c.TerminalToLogical(1); got != 4 {
		t.Fatalf("col 1 -> %v, want 4", got)
	}
	if got := c.TerminalToLogical(10); got != 76 {
		t.Fatalf("col 10 -> %v, want 76", got)
	}

	c.SetOffset(3, 0)
	if got := c.TerminalToLogical(4); got != 4 {
		t.Fatalf("offset col 4 -> %v, want 4", got)
	}
	if got := c.TerminalToLogical(1); got >= 0 {
		t.Fatalf("col left of canvas mapped inside: %v", got)
	}
}

func TestFillRectRenders(t *testing.T) {
	c := NewScaledCanvas(4, 2, 32, 32)
	c.FillRect(0, 0, 8, 16, 1)

	var buf bytes.Buffer
	c.Render(&buf)
	out := buf.String()
	if !strings.Contains(out, "\033[1;1H"+string(BlockFull)) {
		t.Fatalf("expected a full block at 1;1, got %q", out)
	}

	buf.Reset()
	c.Render(&buf)
	if buf.Len() != 0 {
		t.Fatalf("unchanged frame rendered %q", buf.String())
	}

	c.Clear()
	c.FillRect(8, 0, 8, 16, 1)
	buf.Reset()
	c.Render(&buf)
	out = buf.String()
	if !strings.Contains(out, "\033[1;1H "+string(BlockFull)) {
		t.Fatalf("expected the old cell erased and the new one drawn, got %q", out)
	}
}

func TestMarkTextDirty(t *testing.T) {
	c := NewScaledCanvas(4, 2, 32, 32)
	var buf bytes.Buffer
	c.Render(&buf)

	c.MarkTextDirty(2, 2, 2)
	buf.Reset()
	c.Render(&buf)
	if got := buf.String(); got != "\033[2;2H  " {
		t.Fatalf("got %q", got)
	}
}

func TestHalfBlocks(t *testing.T) {
	c := NewScaledCanvas(2, 1, 16, 16)
	c.SetFloat(0, 0, 1)
	c.SetFloat(8, 8, 2)

	var buf bytes.Buffer
	c.Render(&buf)
	out := buf.String()
	if !strings.Contains(out, string(BlockUpperHalf)) || !strings.Contains(out, string(BlockLowerHalf)) {
		t.Fatalf("expected upper and lower half blocks, got %q", out)
	}
}

func TestForceRedraw(t *testing.T) {
	c := NewScaledCanvas(4, 2, 32, 32)
	var buf bytes.Buffer
	c.Render(&buf)
	first := buf.String()

	c.ForceRedraw()
	buf.Reset()
	c.Render(&buf)
	if buf.String() != first || strings.Count(first, " ") != 8 {
		t.Fatalf("redraw = %q, first = %q", buf.String(), first)
	}
}

func TestChunkWriterOffset(t *testing.T) {
	var out bytes.Buffer
	cw := NewChunkWriter(&out, 2, 1)
	cw.WriteAt(1, 1, "hi")
	if err := cw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := out.String(); got != "\033[2;3Hhi" {
		t.Fatalf("got %q", got)
	}
}
