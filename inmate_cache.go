package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/insidebooks/ibpcheck/engine"
	evict "github.com/insidebooks/ibpcheck/eviction"
	"github.com/insidebooks/ibpcheck/refresh"
	"github.com/insidebooks/ibpcheck/shard"
	"github.com/insidebooks/ibpcheck/types"
	"github.com/pkg/errors"
)

/*
InmateCache keeps provider answers keyed by inmate id.

This struct is the orchestrator that connects:
- shards (storage, locking, per-key single-flight)
- the engine (freshness, provider deadline, persistence, metrics, logging)
- eviction, when a capacity is configured

A lookup never fails because of the provider. Provider trouble is folded into the
returned types.LookupResult: a stale fallback when something was cached before, or
StatusUnavailable when nothing was.
*/
type InmateCache struct {
	shards   []*shard.Shard
	engine   *engine.CacheEngine
	selector shard.Selector

	// capacity bounds the number of entries. Zero means unbounded.
	capacity int

	// bg tracks refresh-ahead goroutines so Close can wait for them. bgMu orders bg.Add
	// against Close: once closed is set no reload starts.
	bgMu   sync.Mutex
	closed bool
	bg     sync.WaitGroup
}

func NewInmateCache(
	shards int,
	capacity int,
	eviction evict.PolicyType,
	engine *engine.CacheEngine,
) *InmateCache {
	if shards <= 0 {
		shards = 1
	}

	s := make([]*shard.Shard, shards)
	for i := range s {
		s[i] = shard.NewShard(evict.NewEvictionPolicy(eviction))
	}

	return &InmateCache{
		shards:   s,
		engine:   engine,
		selector: shard.HashSelector{},
		capacity: capacity,
	}
}

/*
EnableRefreshAhead reloads an entry in the background once a hit finds it older than
fraction of the TTL. Call it before the cache is shared.
*/
func (c *InmateCache) EnableRefreshAhead(ttl time.Duration, fraction float64) {
	if fraction <= 0 {
		c.engine.Refresh = nil
		return
	}
	c.engine.Refresh = &refresh.Ahead{
		TTL:      ttl,
		Fraction: fraction,
		Reload:   c.reloadAsync,
	}
}

/*
Get returns the inmate record for id as of now. The id is normalized first, so
"0123-4567" and "01234567" share one entry.

BEHAVIOR:
---------
1. A fresh entry (now - fetched <= ttl) is returned without calling the provider.
   A fresh negative marker yields StatusNotFound.

2. Otherwise one provider call is made for the key, shared by every concurrent caller:
   - record:      stored with fetch time now, returned as Found
   - not found:   negative marker stored with fetch time now, returned as NotFound
   - failure:     the expired entry, if any, returned with Stale=true;
                  otherwise StatusUnavailable

The only error is types.ErrInvalidID for an empty id.
*/
func (c *InmateCache) Get(ctx context.Context, inmateID string, now time.Time) (types.LookupResult, error) {
	inmateID = types.NormalizeID(inmateID)
	if inmateID == "" {
		return types.LookupResult{}, types.ErrInvalidID
	}

	sh := c.selector.Select(inmateID, c.shards)

	if ent, ok := sh.Store.Get(inmateID); ok && !c.engine.IsExpired(ent, now) {
		c.engine.Metrics.Hit()
		c.engine.Logger.Debug("cache: hit", "inmate_id", inmateID, "negative", ent.Negative())
		c.noteRead(sh, inmateID)
		c.engine.OnRead(inmateID, ent, now)
		return resultFromEntry(ent, false, nil), nil
	}

	c.engine.Metrics.Miss()
	c.engine.Logger.Debug("cache: miss", "inmate_id", inmateID)

	v, _, _ := sh.Flights.Do(inmateID, func() (any, error) {
		return c.load(ctx, sh, inmateID, now, false), nil
	})
	return v.(types.LookupResult), nil
}

// load runs inside the key's flight. With force unset, an entry refreshed by a flight that
// finished just before this one started is returned as-is.
func (c *InmateCache) load(
	ctx context.Context,
	sh *shard.Shard,
	inmateID string,
	now time.Time,
	force bool,
) types.LookupResult {
	prev, had := sh.Store.Get(inmateID)
	if had && !force && !c.engine.IsExpired(prev, now) {
		return resultFromEntry(prev, false, nil)
	}

	// The flight is shared; one caller giving up must not fail the others.
	rec, err := c.engine.Fetch(context.WithoutCancel(ctx), inmateID)

	switch {
	case err == nil:
		rec.FetchedAt = now
		if rec.ID == "" {
			rec.ID = inmateID
		}
		ent := types.NewCacheEntry(inmateID, &rec, now)
		c.put(ctx, sh, ent)
		return resultFromEntry(ent, false, nil)

	case errors.Is(err, types.ErrInmateNotFound):
		c.engine.Logger.Debug("cache: provider has no such inmate", "inmate_id", inmateID)
		ent := types.NewCacheEntry(inmateID, nil, now)
		c.put(ctx, sh, ent)
		return resultFromEntry(ent, false, err)

	default:
		c.engine.Metrics.ProviderError()
		if had {
			stale := c.engine.IsExpired(prev, now)
			if stale {
				c.engine.Metrics.Stale()
			}
			prev.Touch(now)
			c.engine.Logger.Warn("cache: provider failed, serving cached entry",
				"inmate_id", inmateID, "stale", stale, "age", prev.Age(now), "error", err)
			return resultFromEntry(prev, stale, err)
		}
		c.engine.Logger.Warn("cache: provider failed, nothing cached",
			"inmate_id", inmateID, "error", err)
		return types.LookupResult{Status: types.StatusUnavailable, Cause: err}
	}
}

func resultFromEntry(ent *types.CacheEntry, stale bool, cause error) types.LookupResult {
	res := types.LookupResult{
		Record:    ent.Record,
		Status:    types.StatusFound,
		Stale:     stale,
		FetchedAt: ent.FetchedAt,
		Cause:     cause,
	}
	if ent.Negative() {
		res.Status = types.StatusNotFound
		if res.Cause == nil {
			res.Cause = types.ErrInmateNotFound
		}
	}
	return res
}

// noteRead updates eviction order. Only bounded caches track it, so unbounded caches keep
// their read path lock-free.
func (c *InmateCache) noteRead(sh *shard.Shard, key string) {
	if c.capacity <= 0 {
		return
	}
	sh.Mu.Lock()
	sh.Eviction.OnGet(key)
	sh.Mu.Unlock()
}

func (c *InmateCache) shardCapacity() int {
	if c.capacity <= 0 {
		return 0
	}
	per := c.capacity / len(c.shards)
	if per < 1 {
		per = 1
	}
	return per
}

// put stores ent in memory, evicting if needed, then hands it to the write policy.
func (c *InmateCache) put(ctx context.Context, sh *shard.Shard, ent *types.CacheEntry) {
	c.putLocal(sh, ent)
	c.engine.OnWrite(ctx, ent)
}

func (c *InmateCache) putLocal(sh *shard.Shard, ent *types.CacheEntry) {
	sh.Mu.Lock()
	defer sh.Mu.Unlock()

	if limit := c.shardCapacity(); limit > 0 {
		if _, exists := sh.Store.Get(ent.Key); !exists && sh.Store.Len() >= limit {
			if victim := sh.Eviction.Evict(); victim != "" {
				sh.Store.Delete(victim)
				c.engine.Metrics.Eviction()
				c.engine.Logger.Debug("cache: evicted", "inmate_id", victim)
			}
		}
	}

	sh.Store.Put(ent.Key, ent)
	sh.Eviction.OnPut(ent.Key)
}

// reloadAsync refreshes key in the background through the key's flight. It does nothing
// once Close has started.
func (c *InmateCache) reloadAsync(key string) {
	c.bgMu.Lock()
	if c.closed {
		c.bgMu.Unlock()
		return
	}
	c.bg.Add(1)
	c.bgMu.Unlock()

	c.engine.Metrics.Refresh()
	go func() {
		defer c.bg.Done()
		sh := c.selector.Select(key, c.shards)
		now := c.engine.Now()
		sh.Flights.Do(key, func() (any, error) {
			return c.load(context.Background(), sh, key, now, true), nil
		})
	}()
}

/*
Search looks inmates up by name as of now.

BEHAVIOR:
---------
1. The provider is asked once, under the provider timeout. Searches do not share
   flights.

2. Every record the provider returns is stored like a Get would store it (fetch time
   now, written through the write policy), replacing what was cached for that id.

3. The matches are then read back from the cache: last name equal and first name a
   prefix, ignoring case. Cached inmates the provider did not return still match, so a
   provider outage degrades to what is already known, tagged Stale when expired.

Provider trouble is reported in SearchResult.Cause, never as the error. The only error
is types.ErrInvalidName when either name is blank.
*/
func (c *InmateCache) Search(ctx context.Context, firstName, lastName string, now time.Time) (types.SearchResult, error) {
	first, last := strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	if first == "" || last == "" {
		return types.SearchResult{}, types.ErrInvalidName
	}

	recs, err := c.engine.Search(ctx, first, last)
	for i := range recs {
		rec := recs[i]
		rec.ID = types.NormalizeID(rec.ID)
		if rec.ID == "" {
			continue
		}
		rec.FetchedAt = now
		sh := c.selector.Select(rec.ID, c.shards)
		c.put(ctx, sh, types.NewCacheEntry(rec.ID, &rec, now))
	}
	if err != nil {
		c.engine.Metrics.ProviderError()
		c.engine.Logger.Warn("cache: name search failed",
			"first_name", first, "last_name", last, "merged", len(recs), "error", err)
	}

	res := types.SearchResult{Cause: err}
	for _, sh := range c.shards {
		sh.Store.Range(func(_ string, ent *types.CacheEntry) bool {
			if !ent.Negative() && ent.Record.MatchesName(first, last) {
				res.Matches = append(res.Matches, resultFromEntry(ent, c.engine.IsExpired(ent, now), nil))
			}
			return true
		})
	}
	sort.Slice(res.Matches, func(i, j int) bool {
		a, b := res.Matches[i].Record, res.Matches[j].Record
		if !strings.EqualFold(a.LastName, b.LastName) {
			return strings.ToLower(a.LastName) < strings.ToLower(b.LastName)
		}
		if !strings.EqualFold(a.FirstName, b.FirstName) {
			return strings.ToLower(a.FirstName) < strings.ToLower(b.FirstName)
		}
		return a.ID < b.ID
	})

	c.engine.Logger.Debug("cache: name search",
		"first_name", first, "last_name", last, "provider", len(recs), "matches", len(res.Matches))
	return res, nil
}

/*
Invalidate drops one inmate from memory and from the snapshot store. The id is
normalized as in Get. The next Get calls the provider. Invalidating an unknown id is a no-op.
*/
func (c *InmateCache) Invalidate(ctx context.Context, inmateID string) {
	inmateID = types.NormalizeID(inmateID)
	if inmateID == "" {
		return
	}
	sh := c.selector.Select(inmateID, c.shards)

	sh.Mu.Lock()
	_, ok := sh.Store.Get(inmateID)
	if ok {
		sh.Store.Delete(inmateID)
		sh.Eviction.Remove(inmateID)
	}
	sh.Mu.Unlock()

	if ok {
		c.engine.OnDelete(ctx, inmateID)
	}
}

/*
Purge physically removes entries that have gone unread for the idle period configured
on the expiration strategy. Expired but recently used entries stay: they are the stale
fallback when the provider is down.

It returns how many entries were removed.
*/
func (c *InmateCache) Purge(ctx context.Context, now time.Time) int {
	removed := 0
	for _, sh := range c.shards {
		var idle []*types.CacheEntry
		sh.Store.Range(func(_ string, ent *types.CacheEntry) bool {
			if c.engine.IsIdle(ent, now) {
				idle = append(idle, ent)
			}
			return true
		})
		if len(idle) == 0 {
			continue
		}

		var dropped []string
		sh.Mu.Lock()
		for _, ent := range idle {
			// skip entries replaced since the scan
			if cur, ok := sh.Store.Get(ent.Key); ok && cur == ent {
				sh.Store.Delete(ent.Key)
				sh.Eviction.Remove(ent.Key)
				dropped = append(dropped, ent.Key)
			}
		}
		sh.Mu.Unlock()

		for _, key := range dropped {
			c.engine.Metrics.Expire()
			c.engine.OnDelete(ctx, key)
		}
		removed += len(dropped)
	}
	if removed > 0 {
		c.engine.Logger.Info("cache: purged idle entries", "count", removed)
	}
	return removed
}

// RunJanitor purges idle entries every interval until ctx is done.
func (c *InmateCache) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Purge(ctx, c.engine.Now())
		}
	}
}

/*
Warm loads persisted entries into memory, keeping their original fetch times. Entries
that are already expired are still loaded so they can serve as stale fallbacks. An entry
already in memory is only replaced by a newer one.

It returns how many entries were loaded.
*/
func (c *InmateCache) Warm(ctx context.Context, store types.Store) (int, error) {
	if store == nil {
		return 0, nil
	}
	entries, err := store.LoadAll(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "warm inmate cache")
	}

	loaded := 0
	for _, ent := range entries {
		if ent == nil || ent.Key == "" {
			continue
		}
		sh := c.selector.Select(ent.Key, c.shards)
		if cur, ok := sh.Store.Get(ent.Key); ok && !cur.FetchedAt.Before(ent.FetchedAt) {
			continue
		}
		c.putLocal(sh, ent)
		loaded++
	}
	c.engine.Logger.Info("cache: warmed from store", "loaded", loaded, "stored", len(entries))
	return loaded, nil
}

// Len is the number of entries in memory, expired ones included.
func (c *InmateCache) Len() int {
	n := 0
	for _, sh := range c.shards {
		n += sh.Store.Len()
	}
	return n
}

// Stats returns the counters when the engine was built with *types.Counters.
func (c *InmateCache) Stats() (types.Stats, bool) {
	counters, ok := c.engine.Metrics.(*types.Counters)
	if !ok {
		return types.Stats{}, false
	}
	return counters.Snapshot(), true
}

/*
Close stops refresh-ahead, waits for reloads already running and flushes the write
policy. Lookups after Close still work but never start a background reload.
*/
func (c *InmateCache) Close() {
	c.bgMu.Lock()
	c.closed = true
	c.bgMu.Unlock()

	c.bg.Wait()
	if c.engine.WritePolicy != nil {
		c.engine.WritePolicy.Close()
	}
}
