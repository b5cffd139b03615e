package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// File is a Store persisted as a flat YAML mapping on disk.
// Every Set rewrites the whole file through a temp file and rename.
type File struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// OpenFile loads the store at path, creating an empty one if the file does not exist.
func OpenFile(path string) (*File, error) {
	f := &File{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	if err := yaml.Unmarshal(data, &f.values); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}
	if f.values == nil {
		f.values = make(map[string]string)
	}
	return f, nil
}

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setLocked(key, value)
}

func (f *File) Incr(_ context.Context, key string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := parseInt(f.values[key]) + 1
	if err := f.setLocked(key, strconv.Itoa(next)); err != nil {
		return 0, err
	}
	return next, nil
}

func (f *File) SetMax(_ context.Context, key string, v int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current := parseInt(f.values[key])
	if v <= current {
		return current, nil
	}
	if err := f.setLocked(key, strconv.Itoa(v)); err != nil {
		return 0, err
	}
	return v, nil
}

// setLocked writes one value and rolls it back if the flush fails.
func (f *File) setLocked(key, value string) error {
	prev, had := f.values[key]
	f.values[key] = value
	if err := f.flushLocked(); err != nil {
		if had {
			f.values[key] = prev
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

func (f *File) Close() error {
	return nil
}

// flushLocked writes the current values to disk. Must be called with f.mu held.
func (f *File) flushLocked() error {
	data, err := yaml.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".snackdrop-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

var _ Store = (*File)(nil)
