package blobserver

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/five82/swiftrun/internal/clock"
)

type entry struct {
	data    []byte
	expires time.Time
}

// MemStore keeps blobs in memory. Every write pushes the blob's expiry out
// by ttl; a zero ttl keeps blobs forever.
type MemStore struct {
	mu      sync.Mutex
	clock   clock.Clock
	ttl     time.Duration
	entries map[string]entry
}

// NewMemStore returns an empty store.
func NewMemStore(clk clock.Clock, ttl time.Duration) *MemStore {
	if clk == nil {
		clk = clock.Real()
	}
	return &MemStore{clock: clk, ttl: ttl, entries: make(map[string]entry)}
}

// Create stores data under a fresh id.
func (s *MemStore) Create(data []byte) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.entries[id] = s.entryLocked(data)
	s.mu.Unlock()
	return id
}

// Get returns a copy of the blob for id.
func (s *MemStore) Get(id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.liveLocked(id)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), e.data...), true
}

// Put overwrites an existing blob. Unknown or expired ids report false.
func (s *MemStore) Put(id string, data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.liveLocked(id); !ok {
		return false
	}
	s.entries[id] = s.entryLocked(data)
	return true
}

// Delete removes the blob for id.
func (s *MemStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.liveLocked(id)
	delete(s.entries, id)
	return ok
}

// Len counts live blobs.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	now := s.clock.Now()
	for _, e := range s.entries {
		if !s.expired(e, now) {
			n++
		}
	}
	return n
}

// Sweep drops expired blobs and returns how many were removed.
func (s *MemStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	removed := 0
	for id, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

func (s *MemStore) entryLocked(data []byte) entry {
	e := entry{data: append([]byte(nil), data...)}
	if s.ttl > 0 {
		e.expires = s.clock.Now().Add(s.ttl)
	}
	return e
}

func (s *MemStore) liveLocked(id string) (entry, bool) {
	e, ok := s.entries[id]
	if !ok {
		return entry{}, false
	}
	if s.expired(e, s.clock.Now()) {
		delete(s.entries, id)
		return entry{}, false
	}
	return e, true
}

func (s *MemStore) expired(e entry, now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *MemStore) RunSweeper(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 && logger != nil {
				logger.Info("expired blobs removed", "count", n)
			}
		}
	}
}
