package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	data      *Data
	expiresAt time.Time
}

// MemoryStore is the single-instance store used when no Redis is configured.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
	hub     hub
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, id)
		return nil, ErrSessionNotFound
	}
	return entry.data.clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, id string, data *Data) error {
	s.mu.Lock()
	s.entries[id] = memoryEntry{data: data.clone(), expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()

	s.hub.publish(Event{SessionID: id, Kind: EventSaved})
	return nil
}

func (s *MemoryStore) Invalidate(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()

	s.hub.publish(Event{SessionID: id, Kind: EventInvalidated})
	return nil
}

func (s *MemoryStore) Subscribe(fn func(Event)) func() {
	return s.hub.add(fn)
}
