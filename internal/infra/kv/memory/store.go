// Package memory implements an in-memory key-value Store for tests and
// ephemeral runs.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"ethicure/internal/kv/core"
)

type memEntry struct {
	value     []byte
	revision  string
	updatedAt time.Time
}

// Store implements core.Store backed by process memory.
type Store struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	seq     uint64
	now     func() time.Time
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{entries: make(map[string]memEntry), now: func() time.Time { return time.Now().UTC() }}
}

// Driver returns the memory driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Get returns a copy of the stored value.
func (s *Store) Get(_ context.Context, key string) (core.Entry, bool, error) {
	if strings.TrimSpace(key) == "" {
		return core.Entry{}, false, core.ErrEmptyKey
	}
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return core.Entry{}, false, nil
	}
	out := toEntry(key, e)
	out.Value = cloneBytes(e.value)
	return out, true, nil
}

// Set overwrites the key.
func (s *Store) Set(_ context.Context, key string, value []byte) (core.Entry, error) {
	if strings.TrimSpace(key) == "" {
		return core.Entry{}, core.ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putLocked(key, value), nil
}

// CompareAndSet writes when the stored revision matches expected.
func (s *Store) CompareAndSet(_ context.Context, key, expected string, value []byte) (core.Entry, error) {
	if strings.TrimSpace(key) == "" {
		return core.Entry{}, core.ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.entries[key]
	switch {
	case expected == "" && exists:
		return core.Entry{}, core.ErrConflict
	case expected != "" && (!exists || current.revision != expected):
		return core.Entry{}, core.ErrConflict
	}
	return s.putLocked(key, value), nil
}

// Delete removes the key, reporting whether it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	return ok, nil
}

// List returns metadata for keys with prefix.
func (s *Store) List(_ context.Context, prefix string) ([]core.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Entry, 0, len(s.entries))
	for k, e := range s.entries {
		if strings.HasPrefix(k, prefix) {
			out = append(out, toEntry(k, e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Store) putLocked(key string, value []byte) core.Entry {
	s.seq++
	e := memEntry{value: cloneBytes(value), revision: strconv.FormatUint(s.seq, 10), updatedAt: s.now()}
	s.entries[key] = e
	return toEntry(key, e)
}

func toEntry(key string, e memEntry) core.Entry {
	return core.Entry{Key: key, Revision: e.revision, Size: int64(len(e.value)), UpdatedAt: e.updatedAt}
}

func cloneBytes(in []byte) []byte {
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
