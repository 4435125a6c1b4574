package session

import (
	"context"
	"sync"
	"time"
)

// Store persists session state under its opaque ID. Load returns (nil, nil)
// for an unknown or expired ID.
type Store interface {
	Save(ctx context.Context, id string, data *Data, ttl time.Duration) error
	Load(ctx context.Context, id string) (*Data, error)
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	data     *Data
	expireAt time.Time
}

// MemoryStore is the default in-process Store. Entries are evicted lazily on
// access.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, id string, data *Data, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *data
	if data.Flash != nil {
		copied.Flash = make(map[string][]string, len(data.Flash))
		for k, v := range data.Flash {
			copied.Flash[k] = append([]string(nil), v...)
		}
	}
	s.sessions[id] = memoryEntry{data: &copied, expireAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Data, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if s.now().After(entry.expireAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, nil
	}
	copied := *entry.data
	return &copied, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
