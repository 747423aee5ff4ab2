package shard

import (
	"sync/atomic"

	"github.com/insidebooks/ibpcheck/types"
)

// Store holds the entries of one shard.
type Store interface {
	Get(key string) (*types.CacheEntry, bool)

	// Put inserts or replaces an entry. Callers hold the shard lock.
	Put(key string, ent *types.CacheEntry)

	// Delete removes an entry. Callers hold the shard lock.
	Delete(key string)

	// Range calls fn for every entry of the current snapshot until fn returns false.
	Range(fn func(key string, ent *types.CacheEntry) bool)

	Len() int
}

/*
cowStore is a copy-on-write map. Readers load an immutable snapshot through an atomic
pointer; writers build a new map and swap it in. Writes happen about once per inmate per TTL.
*/
type cowStore struct {
	snap atomic.Pointer[map[string]*types.CacheEntry]
}

func NewCOWStore() *cowStore {
	s := &cowStore{}
	m := make(map[string]*types.CacheEntry)
	s.snap.Store(&m)
	return s
}

func (s *cowStore) Get(key string) (*types.CacheEntry, bool) {
	ent, ok := (*s.snap.Load())[key]
	return ent, ok
}

func (s *cowStore) Put(key string, ent *types.CacheEntry) {
	old := *s.snap.Load()
	next := make(map[string]*types.CacheEntry, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[key] = ent
	s.snap.Store(&next)
}

func (s *cowStore) Delete(key string) {
	old := *s.snap.Load()
	if _, ok := old[key]; !ok {
		return
	}
	next := make(map[string]*types.CacheEntry, len(old))
	for k, v := range old {
		if k != key {
			next[k] = v
		}
	}
	s.snap.Store(&next)
}

func (s *cowStore) Range(fn func(key string, ent *types.CacheEntry) bool) {
	for k, v := range *s.snap.Load() {
		if !fn(k, v) {
			return
		}
	}
}

func (s *cowStore) Len() int {
	return len(*s.snap.Load())
}
