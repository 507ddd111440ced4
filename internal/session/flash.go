package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Category classifies a flash message for styling
type Category string

const (
	CategorySuccess Category = "success"
	CategoryError   Category = "error"
)

// Flash is a one-shot message shown on the next rendered page
type Flash struct {
	Text     string   `json:"text"`
	Category Category `json:"category"`
}

// FlashStore keeps at most one pending flash per session
type FlashStore interface {
	// Set replaces any pending flash for the session
	Set(ctx context.Context, sessionID string, flash Flash) error
	// Take returns and clears the pending flash, or nil if there is none
	Take(ctx context.Context, sessionID string) (*Flash, error)
}

type flashEntry struct {
	flash   Flash
	expires time.Time
}

// MemoryStore is an in-process FlashStore. Entries expire after ttl.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]flashEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		items: make(map[string]flashEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Set implements FlashStore
func (s *MemoryStore) Set(_ context.Context, sessionID string, flash Flash) error {
	s.mu.Lock()
	s.items[sessionID] = flashEntry{flash: flash, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

// Take implements FlashStore
func (s *MemoryStore) Take(_ context.Context, sessionID string) (*Flash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.items[sessionID]
	if !ok {
		return nil, nil
	}
	delete(s.items, sessionID)

	if s.now().After(entry.expires) {
		return nil, nil
	}
	flash := entry.flash
	return &flash, nil
}

// Len returns the number of pending flashes, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep drops expired entries and returns how many were removed
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, entry := range s.items {
		if now.After(entry.expires) {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps the store every interval until ctx is cancelled
func (s *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration, logger *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.DebugContext(ctx, "expired flash messages swept", slog.Int("count", n))
			}
		}
	}
}
