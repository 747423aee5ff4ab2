package types

import "sync/atomic"

// This file defines how the inmate cache reports what it is doing.

/*
Metrics receives one call per cache event. The cache calls these methods from hot paths,
so implementations must be cheap and safe for concurrent use.
*/
type Metrics interface {

	// Hit is called when a fresh entry (positive or negative) is returned without a provider call.
	Hit()

	// Miss is called when no fresh entry exists and the provider has to be asked.
	Miss()

	// Stale is called when an expired entry is served because the provider failed.
	Stale()

	// Eviction is called when an entry is dropped to respect the capacity bound.
	Eviction()

	// Expire is called when an idle entry is purged by the janitor.
	Expire()

	// Refresh is called when a refresh-ahead reload is started.
	Refresh()

	// ProviderError is called when a provider call times out or fails.
	ProviderError()
}

// NoopMetrics ignores every event so the cache never needs nil checks.
type NoopMetrics struct{}

func (NoopMetrics) Hit()           {}
func (NoopMetrics) Miss()          {}
func (NoopMetrics) Stale()         {}
func (NoopMetrics) Eviction()      {}
func (NoopMetrics) Expire()        {}
func (NoopMetrics) Refresh()       {}
func (NoopMetrics) ProviderError() {}

// Stats is a point-in-time copy of Counters.
type Stats struct {
	Hits           int64
	Misses         int64
	Stale          int64
	Evictions      int64
	Expirations    int64
	Refreshes      int64
	ProviderErrors int64
}

// Counters is a Metrics implementation backed by atomic counters.
type Counters struct {
	hits, misses, stale, evictions, expirations, refreshes, providerErrors atomic.Int64
}

func (c *Counters) Hit()           { c.hits.Add(1) }
func (c *Counters) Miss()          { c.misses.Add(1) }
func (c *Counters) Stale()         { c.stale.Add(1) }
func (c *Counters) Eviction()      { c.evictions.Add(1) }
func (c *Counters) Expire()        { c.expirations.Add(1) }
func (c *Counters) Refresh()       { c.refreshes.Add(1) }
func (c *Counters) ProviderError() { c.providerErrors.Add(1) }

func (c *Counters) Snapshot() Stats {
	return Stats{
		Hits:           c.hits.Load(),
		Misses:         c.misses.Load(),
		Stale:          c.stale.Load(),
		Evictions:      c.evictions.Load(),
		Expirations:    c.expirations.Load(),
		Refreshes:      c.refreshes.Load(),
		ProviderErrors: c.providerErrors.Load(),
	}
}
