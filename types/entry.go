package types

import (
	"sync/atomic"
	"time"
)

/*
CacheEntry is one slot of the inmate cache.

An entry either carries an InmateRecord or, when Record is nil, a negative marker
recording that the provider answered "unknown id" at FetchedAt. Both kinds share the
same TTL.

Key, Record and FetchedAt never change after construction; a refresh replaces the whole
entry. Only the last-access timestamp moves, and it is atomic so lock-free readers can
touch it.
*/
type CacheEntry struct {
	Key       string
	Record    *InmateRecord
	FetchedAt time.Time

	lastAccess atomic.Int64 // unix nanos
}

func NewCacheEntry(key string, rec *InmateRecord, fetchedAt time.Time) *CacheEntry {
	ent := &CacheEntry{Key: key, Record: rec, FetchedAt: fetchedAt}
	ent.lastAccess.Store(fetchedAt.UnixNano())
	return ent
}

// Negative reports whether the entry records a provider "not found" answer.
func (e *CacheEntry) Negative() bool {
	return e.Record == nil
}

// Age is how long ago the entry was fetched, measured against now.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// Touch records a read at now. Older timestamps never move the clock backwards.
func (e *CacheEntry) Touch(now time.Time) {
	n := now.UnixNano()
	for {
		cur := e.lastAccess.Load()
		if n <= cur || e.lastAccess.CompareAndSwap(cur, n) {
			return
		}
	}
}

func (e *CacheEntry) LastAccessedAt() time.Time {
	return time.Unix(0, e.lastAccess.Load())
}
