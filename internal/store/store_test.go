package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestGetIntDefaultsToZero(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	got, err := GetInt(ctx, s, "tofuHighScore")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected 0 for absent key, got %d", got)
	}

	_ = s.Set(ctx, "tofuHighScore", "not a number")
	got, err = GetInt(ctx, s, "tofuHighScore")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected 0 for malformed value, got %d", got)
	}
}

func TestSetIntWritesDecimal(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if err := SetInt(ctx, s, "sushiHighScore", 150); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	raw, ok, _ := s.Get(ctx, "sushiHighScore")
	if !ok || raw != "150" {
		t.Fatalf("expected raw \"150\", got %q (ok=%v)", raw, ok)
	}
}

func TestIncr(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	for want := 1; want <= 3; want++ {
		got, err := Incr(ctx, s, "tofuVotes")
		if err != nil {
			t.Fatalf("incr failed: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
	if other, _ := GetInt(ctx, s, "sushiVotes"); other != 0 {
		t.Fatalf("expected untouched key to stay 0, got %d", other)
	}
}

func TestIncrIsAtomic(t *testing.T) {
	ctx := context.Background()
	file, err := OpenFile(filepath.Join(t.TempDir(), "scores.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	stores := map[string]Store{"memory": NewMemory(), "file": file}

	for name, s := range stores {
		const voters = 50
		var wg sync.WaitGroup
		for i := 0; i < voters; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := Incr(ctx, s, "tofuVotes"); err != nil {
					t.Errorf("%s: incr failed: %v", name, err)
				}
			}()
		}
		wg.Wait()
		if got, _ := GetInt(ctx, s, "tofuVotes"); got != voters {
			t.Fatalf("%s: counter = %d after %d increments", name, got, voters)
		}
	}
}

func TestSetMaxKeepsLargest(t *testing.T) {
	ctx := context.Background()
	file, err := OpenFile(filepath.Join(t.TempDir(), "scores.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	stores := map[string]Store{"memory": NewMemory(), "file": file}

	for name, s := range stores {
		steps := []struct{ in, want int }{
			{150, 150},
			{100, 150},
			{180, 180},
			{-10, 180},
		}
		for _, step := range steps {
			got, err := SetMax(ctx, s, "tofuHighScore", step.in)
			if err != nil {
				t.Fatalf("%s: SetMax(%d): %v", name, step.in, err)
			}
			if got != step.want {
				t.Fatalf("%s: SetMax(%d) = %d, want %d", name, step.in, got, step.want)
			}
		}
		if got, _ := GetInt(ctx, s, "tofuHighScore"); got != 180 {
			t.Fatalf("%s: stored = %d, want 180", name, got)
		}
	}
}

func TestNegativeValuesReadAsZero(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	_ = s.Set(ctx, "tofuVotes", "-5")
	if got, _ := GetInt(ctx, s, "tofuVotes"); got != 0 {
		t.Fatalf("GetInt = %d, want 0", got)
	}
	if got, _ := Incr(ctx, s, "tofuVotes"); got != 1 {
		t.Fatalf("Incr = %d, want 1", got)
	}
}

func TestParseIntLeadingDigits(t *testing.T) {
	cases := map[string]int{
		"42":    42,
		" 7 ":   7,
		"12abc": 12,
		"-3":    0,
		"-5x":   0,
		"abc":   0,
		"":      0,
		"+":     0,
	}
	for raw, want := range cases {
		if got := parseInt(raw); got != want {
			t.Fatalf("parseInt(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestFileStorePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scores.yaml")

	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := SetInt(ctx, f, "tofuHighScore", 200); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if _, err := Incr(ctx, f, "tofuVotes"); err != nil {
		t.Fatalf("incr failed: %v", err)
	}

	reopened, err := OpenFile(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if got, _ := GetInt(ctx, reopened, "tofuHighScore"); got != 200 {
		t.Fatalf("expected 200 after reopen, got %d", got)
	}
	if got, _ := GetInt(ctx, reopened, "tofuVotes"); got != 1 {
		t.Fatalf("expected 1 vote after reopen, got %d", got)
	}
}

func TestOpenFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("- [unterminated"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := OpenFile(path); err == nil {
		t.Fatalf("expected parse error for malformed file")
	}
}
