// Package memory is an in-process kv.Store. Entries are lost on restart.
package memory

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value   string
	expires time.Time // zero means never
}

type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock is New with an injectable clock, for tests.
func NewWithClock(now func() time.Time) *Store {
	return &Store{entries: make(map[string]entry), now: now}
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || s.expired(e) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *Store) Put(_ context.Context, key, value string, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

func (s *Store) Sweep(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, k)
			n++
		}
	}
	return n, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) Close() error { return nil }

func (s *Store) expired(e entry) bool {
	return !e.expires.IsZero() && !s.now().Before(e.expires)
}
