package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type entry struct {
	value     json.RawMessage
	expiresAt time.Time
}

// MemoryStore is an in-process cache used in tests and single-node setups.
// It stores an explicit expiry per entry and deletes lazily: a read that
// observes an expired entry removes it before reporting the miss.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	// clock is injectable for deterministic expiry tests.
	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry), clock: time.Now}
}

// WithClock overrides the time source. Test helper.
func (s *MemoryStore) WithClock(clock func() time.Time) *MemoryStore {
	s.clock = clock
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !s.clock().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	// Callers may mutate the returned slice; hand out a copy so the stored
	// entry stays intact.
	out := make(json.RawMessage, len(e.value))
	copy(out, e.value)
	return out, true
}

func (s *MemoryStore) Put(_ context.Context, key string, value json.RawMessage, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, expiresAt: s.clock().Add(ttl)}
}

func (s *MemoryStore) Delete(_ context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Len reports the number of physically present entries, expired or not.
// Test helper for verifying lazy deletion.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
