package store

import (
	"context"
	"strconv"
	"sync"
)

// Memory is an in-process Store. Contents are lost when the process exits.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Incr(_ context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := parseInt(m.values[key]) + 1
	m.values[key] = strconv.Itoa(next)
	return next, nil
}

func (m *Memory) SetMax(_ context.Context, key string, v int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	best := max(parseInt(m.values[key]), v)
	m.values[key] = strconv.Itoa(best)
	return best, nil
}

func (m *Memory) Close() error {
	return nil
}

var _ Store = (*Memory)(nil)
