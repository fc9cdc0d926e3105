package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a map-backed Store used by tests and when running the
// server without a Mongo instance. Same contract as MongoStore, minus
// durability.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Connected() bool { return true }

func (s *MemoryStore) Upsert(_ context.Context, key string, payload any, category Category, expiresAt time.Time, metadata map[string]any) (*Entry, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		entry = Entry{Key: key, CreatedAt: now}
	}
	entry.Payload = payload
	entry.Category = category
	entry.ExpiresAt = expiresAt
	entry.Metadata = metadata
	entry.UpdatedAt = now
	s.entries[key] = entry

	out := entry
	return &out, nil
}

func (s *MemoryStore) FindLiveByKey(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok || !entry.Live(time.Now().UTC()) {
		return nil, nil
	}
	out := entry
	return &out, nil
}

func (s *MemoryStore) FindLiveByCategory(_ context.Context, category Category, limit int64) ([]Entry, error) {
	now := time.Now().UTC()

	s.mu.RLock()
	var live []Entry
	for _, entry := range s.entries {
		if entry.Category == category && entry.Live(now) {
			live = append(live, entry)
		}
	}
	s.mu.RUnlock()

	sort.Slice(live, func(i, j int) bool {
		return live[i].CreatedAt.After(live[j].CreatedAt)
	})
	if limit > 0 && int64(len(live)) > limit {
		live = live[:limit]
	}
	return live, nil
}

func (s *MemoryStore) DeleteByKey(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

func (s *MemoryStore) DeleteByCategory(_ context.Context, category Category) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, entry := range s.entries {
		if entry.Category == category {
			delete(s.entries, key)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) SweepExpired(_ context.Context) (int64, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, entry := range s.entries {
		if !entry.Live(now) {
			delete(s.entries, key)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CountAll(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.entries)), nil
}

func (s *MemoryStore) CountByCategory(_ context.Context) (map[Category]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[Category]int64)
	for _, entry := range s.entries {
		counts[entry.Category]++
	}
	return counts, nil
}

func (s *MemoryStore) CountExpired(_ context.Context) (int64, error) {
	now := time.Now().UTC()

	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, entry := range s.entries {
		if !entry.Live(now) {
			n++
		}
	}
	return n, nil
}
