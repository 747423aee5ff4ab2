package shard

import (
	"sync"

	"github.com/insidebooks/ibpcheck/eviction"
	"golang.org/x/sync/singleflight"
)

/*
Shard is one independent slice of the inmate cache. Splitting the cache into shards keeps
unrelated lookups from contending on one lock:

  - reads go to a copy-on-write snapshot and take no lock
  - writes take Mu, which only covers this shard
  - provider calls are coalesced per key through this shard's own single-flight group
*/
type Shard struct {
	Store    Store
	Eviction eviction.Policy

	// Mu serializes writes and eviction bookkeeping for this shard.
	Mu sync.Mutex

	// Flights coalesces concurrent provider calls for keys owned by this shard.
	Flights singleflight.Group
}

// NewShard builds an empty shard with its own eviction policy.
func NewShard(ev eviction.Policy) *Shard {
	return &Shard{
		Store:    NewCOWStore(),
		Eviction: ev,
	}
}
