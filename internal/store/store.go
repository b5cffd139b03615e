// Package store keeps named integers in durable key-value storage.
//
// Values are stored as decimal text. Readers treat a missing, malformed or
// negative value as zero, so callers never have to special-case a fresh store.
package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Store is a string key-value store shared by the game variants and the poll.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the raw value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set writes the raw value for key.
	Set(ctx context.Context, key, value string) error
	// Incr atomically adds one to the counter at key and returns the new value.
	Incr(ctx context.Context, key string) (int, error)
	// SetMax atomically raises the counter at key to v if it is lower and
	// returns the value stored afterwards.
	SetMax(ctx context.Context, key string, v int) (int, error)
	// Close releases any resources held by the store.
	Close() error
}

// GetInt reads key as an integer. Absent or malformed values read as 0;
// only storage failures are returned as errors.
func GetInt(ctx context.Context, s Store, key string) (int, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("get %q: %w", key, err)
	}
	if !ok {
		return 0, nil
	}
	return parseInt(raw), nil
}

// SetInt writes v to key in decimal form.
func SetInt(ctx context.Context, s Store, key string, v int) error {
	if err := s.Set(ctx, key, strconv.Itoa(v)); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Incr adds one to the counter at key and returns the new value.
func Incr(ctx context.Context, s Store, key string) (int, error) {
	v, err := s.Incr(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("incr %q: %w", key, err)
	}
	return v, nil
}

// SetMax keeps the larger of the stored value and v at key and returns it.
func SetMax(ctx context.Context, s Store, key string, v int) (int, error) {
	best, err := s.SetMax(ctx, key, v)
	if err != nil {
		return 0, fmt.Errorf("set max %q: %w", key, err)
	}
	return best, nil
}

// parseInt mirrors a lenient integer parse: leading digits are used,
// anything unparseable is 0. Counters never go below 0.
func parseInt(raw string) int {
	raw = strings.TrimSpace(raw)
	if v, err := strconv.Atoi(raw); err == nil {
		return max(v, 0)
	}

	end := 0
	if end < len(raw) && (raw[end] == '-' || raw[end] == '+') {
		end++
	}
	digits := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	v, err := strconv.Atoi(raw[:end])
	if err != nil {
		return 0
	}
	return max(v, 0)
}
