package api

import (
	"context"
	"time"

	"github.com/insidebooks/ibpcheck/types"
)

/*
Lookup is the read side of the inmate cache, which is all the warning engine needs.
*/
type Lookup interface {

	/*
		Get returns what is known about an inmate as of now.

		BEHAVIOR:
		-------------------
		1. Fresh entry (now - fetched <= ttl):
		   - returned immediately, no provider call

		2. Missing or expired entry:
		   - one provider call per id, shared by concurrent callers
		   - the answer (record or "not found") is cached with fetch time now

		3. Provider timeout or failure:
		   - the expired entry is returned tagged Stale, if there is one
		   - otherwise the result is StatusUnavailable

		Only an empty id is an error.
	*/
	Get(ctx context.Context, inmateID string, now time.Time) (types.LookupResult, error)
}

/*
Cache is the full public contract of the inmate cache.
*/
type Cache interface {
	Lookup

	/*
		Invalidate removes an inmate from memory and from the snapshot store.

		USE CASES:
		----------
		- A volunteer knows the provider data changed (transfer, new release date)
		- Administrative cleanup

		Invalidating an unknown id is safe.
	*/
	Invalidate(ctx context.Context, inmateID string)

	/*
		Search finds inmates by first name prefix and last name.

		BEHAVIOR:
		---------
		- Provider answers are stored in the cache before matching
		- Matches include cached inmates the provider did not return
		- Provider failures land in SearchResult.Cause; matches then come from the cache

		Only a blank name is an error.
	*/
	Search(ctx context.Context, firstName, lastName string, now time.Time) (types.SearchResult, error)

	/*
		Purge removes entries nobody has read for the configured idle period and returns
		how many went. Expired entries that are still being read are kept as fallbacks.
	*/
	Purge(ctx context.Context, now time.Time) int

	// Len is the number of entries in memory, expired ones included.
	Len() int

	/*
		Close shuts the cache down.

		BEHAVIOR:
		---------
		- Waits for background refreshes
		- Flushes pending write-back operations to the snapshot store
	*/
	Close()
}
