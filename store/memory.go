package store

import (
	"context"
	"sort"
	"sync"

	"github.com/insidebooks/ibpcheck/types"
)

// MemoryStore keeps rows in a map. It backs tests and dry runs.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]row

	saves, deletes int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]row)}
}

func (s *MemoryStore) Save(_ context.Context, ent *types.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[ent.Key] = toRow(ent)
	s.saves++
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, key)
	s.deletes++
	return nil
}

// LoadAll returns entries ordered by id.
func (s *MemoryStore) LoadAll(_ context.Context) ([]*types.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.CacheEntry, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r.entry())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rows[key]
	return ok
}

// Counts reports how many saves and deletes the store received.
func (s *MemoryStore) Counts() (saves, deletes int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves, s.deletes
}
