package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/declue/container-ops/internal/logic/sampler"
)

// Store is an in-memory key-value store with per-entry TTL. It backs snapshot
// persistence when no external store is attached; expired entries are reaped
// lazily on access and eagerly on writes.
type Store struct {
	mu    sync.RWMutex
	clock func() time.Time
	items map[string]item
}

type item struct {
	value     []byte
	expiresAt time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		clock: time.Now,
		items: make(map[string]item),
	}
}

// WithClock replaces the time source. Test seam.
func (s *Store) WithClock(clock func() time.Time) *Store {
	s.clock = clock

	return s
}

var _ sampler.SnapshotStore = (*Store)(nil)

// PutSnapshot stores a copy of value under key, expiring after ttl.
func (s *Store) PutSnapshot(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	s.reapLocked(now)

	s.items[key] = item{
		value:     append([]byte(nil), value...),
		expiresAt: now.Add(ttl),
	}

	return nil
}

// Get returns the value stored under key, if present and not expired.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.items[key]
	if !ok || !s.clock().Before(entry.expiresAt) {
		return nil, false
	}

	return append([]byte(nil), entry.value...), true
}

// Keys returns all live keys with the given prefix, in no particular order.
func (s *Store) Keys(_ context.Context, prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock()
	keys := make([]string, 0, len(s.items))

	for key, entry := range s.items {
		if strings.HasPrefix(key, prefix) && now.Before(entry.expiresAt) {
			keys = append(keys, key)
		}
	}

	return keys
}

// Len reports the number of live entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock()
	count := 0

	for _, entry := range s.items {
		if now.Before(entry.expiresAt) {
			count++
		}
	}

	return count
}

func (s *Store) reapLocked(now time.Time) {
	for key, entry := range s.items {
		if !now.Before(entry.expiresAt) {
			delete(s.items, key)
		}
	}
}
