package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/insidebooks/ibpcheck/expiration"
	"github.com/insidebooks/ibpcheck/refresh"
	"github.com/insidebooks/ibpcheck/types"
	"github.com/insidebooks/ibpcheck/writepolicy"
	"github.com/pkg/errors"
)

/*
CacheEngine is the policy layer of the inmate cache. It owns the rules, not the data.

It decides:
- When an entry stops being fresh, and when it may be dropped
- What happens on a fresh read (refresh-ahead)
- How the provider is called: under a deadline, with its errors classified
- How writes reach the snapshot store
- How events are counted and logged

It does NOT:
- Store entries
- Shard or lock
- Coalesce concurrent misses
- Pick eviction victims
*/
type CacheEngine struct {

	// Expiration decides freshness and idleness. Required.
	Expiration expiration.Strategy

	// Refresh is an optional hook run on every fresh hit.
	Refresh refresh.Hook

	// Provider is the external correctional-system data source. Required.
	Provider types.Provider

	// Timeout bounds every provider call. Zero means no deadline beyond the caller's context.
	Timeout time.Duration

	// WritePolicy forwards cache writes to the snapshot store. Nil keeps the cache in memory.
	WritePolicy writepolicy.WritePolicy

	Metrics types.Metrics
	Logger  *slog.Logger

	// Now is the clock used by background work (janitor, refresh-ahead). Lookups take
	// their evaluation time from the caller.
	Now func() time.Time
}

func NewCacheEngine(
	exp expiration.Strategy,
	provider types.Provider,
	timeout time.Duration,
	writePolicy writepolicy.WritePolicy,
	metrics types.Metrics,
	logger *slog.Logger,
) *CacheEngine {
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CacheEngine{
		Expiration:  exp,
		Provider:    provider,
		Timeout:     timeout,
		WritePolicy: writePolicy,
		Metrics:     metrics,
		Logger:      logger,
		Now:         time.Now,
	}
}

func (e *CacheEngine) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return e.Expiration.IsExpired(ent, now)
}

func (e *CacheEngine) IsIdle(ent *types.CacheEntry, now time.Time) bool {
	return e.Expiration.IsIdle(ent, now)
}

// OnRead runs after a fresh hit. It must stay cheap; refresh work happens in the background.
func (e *CacheEngine) OnRead(key string, ent *types.CacheEntry, now time.Time) {
	ent.Touch(now)
	if e.Refresh != nil {
		e.Refresh.OnRead(key, ent, now)
	}
}

func (e *CacheEngine) OnWrite(ctx context.Context, ent *types.CacheEntry) {
	if e.WritePolicy != nil {
		e.WritePolicy.OnWrite(ctx, ent)
	}
}

func (e *CacheEngine) OnDelete(ctx context.Context, key string) {
	if e.WritePolicy != nil {
		e.WritePolicy.OnDelete(ctx, key)
	}
}

type outcome[T any] struct {
	val T
	err error
}

// await runs call in its own goroutine and returns its answer, or ctx.Err() as soon as ctx
// is done. The channel is buffered so a late answer never blocks the goroutine.
func await[T any](ctx context.Context, call func(context.Context) (T, error)) (T, error) {
	done := make(chan outcome[T], 1)
	go func() {
		val, err := call(ctx)
		done <- outcome[T]{val: val, err: err}
	}()

	select {
	case out := <-done:
		return out.val, out.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (e *CacheEngine) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.Timeout > 0 {
		return context.WithTimeout(ctx, e.Timeout)
	}
	return ctx, func() {}
}

/*
Fetch asks the provider for one inmate under the configured deadline.

The provider runs in its own goroutine and reports into a buffered channel. If the deadline
passes first, Fetch returns ErrProviderTimeout immediately; a provider that ignores its
context finishes into the buffer later and the goroutine exits, so nothing leaks and the
caller never waits past the deadline.

Returned errors are always one of:
- nil
- ErrInmateNotFound
- an error matching ErrProviderTimeout
- an error matching ErrProviderUnavailable
*/
func (e *CacheEngine) Fetch(ctx context.Context, inmateID string) (types.InmateRecord, error) {
	ctx, cancel := e.deadline(ctx)
	defer cancel()

	rec, err := await(ctx, func(ctx context.Context) (types.InmateRecord, error) {
		return e.Provider.Fetch(ctx, inmateID)
	})
	if err != nil {
		return types.InmateRecord{}, classify(ctx, "fetch "+inmateID, err)
	}
	return rec, nil
}

/*
Search asks the provider for inmates by name under the same deadline as Fetch.

The provider must implement types.Searcher. A *types.PartialError is passed through
with the records that did arrive; every other failure is classified like a Fetch failure
and comes back without records.
*/
func (e *CacheEngine) Search(ctx context.Context, firstName, lastName string) ([]types.InmateRecord, error) {
	searcher, ok := e.Provider.(types.Searcher)
	if !ok {
		return nil, errors.Wrap(types.ErrProviderUnavailable, "provider does not support name search")
	}

	ctx, cancel := e.deadline(ctx)
	defer cancel()

	recs, err := await(ctx, func(ctx context.Context) ([]types.InmateRecord, error) {
		return searcher.Search(ctx, firstName, lastName)
	})

	var partial *types.PartialError
	switch {
	case err == nil:
		return recs, nil
	case errors.As(err, &partial):
		return recs, err
	case errors.Is(err, types.ErrInvalidName):
		return nil, err
	default:
		return nil, classify(ctx, "search "+lastName+", "+firstName, err)
	}
}

func classify(ctx context.Context, what string, err error) error {
	switch {
	case errors.Is(err, types.ErrInmateNotFound):
		return types.ErrInmateNotFound
	case errors.Is(err, types.ErrProviderTimeout):
		return err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.Wrapf(types.ErrProviderTimeout, "%s", what)
	case errors.Is(err, types.ErrProviderUnavailable):
		return err
	default:
		return errors.Wrapf(types.ErrProviderUnavailable, "%s: %v", what, err)
	}
}
