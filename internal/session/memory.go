package session

import (
	"context"
	"sync"
	"time"
)

// entry wraps a credential with expiry and insertion order tracking.
type entry struct {
	credential string
	expiry     time.Time
	insertIdx  int64
}

// MemoryStore is an in-process Store bounded by maxEntries. When full, the
// oldest binding is evicted. Thread-safe with sync.RWMutex.
type MemoryStore struct {
	mu         sync.RWMutex
	items      map[string]entry
	ttl        time.Duration
	maxEntries int
	nextIdx    int64
	now        func() time.Time
}

// NewMemoryStore creates a store with the given TTL and max entry count.
func NewMemoryStore(ttl time.Duration, maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &MemoryStore{
		items:      make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, id, credential string) error {
	if id == "" {
		return ErrEmptyID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{
		credential: credential,
		expiry:     s.now().Add(s.ttl),
		insertIdx:  s.nextIdx,
	}
	s.nextIdx++

	if _, exists := s.items[id]; exists {
		s.items[id] = e
		return nil
	}
	if len(s.items) >= s.maxEntries {
		s.evictOldest()
	}
	s.items[id] = e
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (string, bool, error) {
	s.mu.RLock()
	e, ok := s.items[id]
	s.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if s.now().After(e.expiry) {
		// Expired: remove lazily
		s.mu.Lock()
		if e2, ok2 := s.items[id]; ok2 && s.now().After(e2.expiry) {
			delete(s.items, id)
		}
		s.mu.Unlock()
		return "", false, nil
	}
	return e.credential, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.items = make(map[string]entry)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored bindings, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Sweep removes every expired binding and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, e := range s.items {
		if now.After(e.expiry) {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// evictOldest removes the entry with the lowest insertIdx. Must be called with mu held.
func (s *MemoryStore) evictOldest() {
	var oldestID string
	var oldestIdx int64 = -1

	for id, e := range s.items {
		if oldestIdx == -1 || e.insertIdx < oldestIdx {
			oldestIdx = e.insertIdx
			oldestID = id
		}
	}
	if oldestID != "" {
		delete(s.items, oldestID)
	}
}
