// This file defines when inmate cache entries stop being fresh and when they stop being worth keeping.

package expiration

import (
	"time"

	"github.com/insidebooks/ibpcheck/types"
)

/*
Strategy is the interface every expiration rule follows. Freshness and retention are two
separate questions:

  - an expired entry must be refreshed before it is served as fresh, but it stays in
    memory as a degraded fallback for when the provider is down
  - an idle entry has not been read for long enough that keeping it buys nothing, so the
    janitor removes it
*/
type Strategy interface {

	// IsExpired reports whether the entry must be refreshed before being served as fresh.
	IsExpired(ent *types.CacheEntry, now time.Time) bool

	// IsIdle reports whether the entry may be physically removed.
	IsIdle(ent *types.CacheEntry, now time.Time) bool
}
