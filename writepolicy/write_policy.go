package writepolicy

import (
	"context"

	"github.com/insidebooks/ibpcheck/types"
)

/*
WritePolicy decides how cache writes reach the snapshot store:

  - write-through: the refresh waits for the store
  - write-back: the refresh queues the write and a worker persists it later

Store failures never reach cache readers; policies log them and move on. A stale
snapshot only costs a provider call after restart.
*/
type WritePolicy interface {

	// OnWrite is called after an entry (record or negative marker) is stored in memory.
	OnWrite(ctx context.Context, ent *types.CacheEntry)

	// OnDelete is called after an entry is invalidated or purged.
	OnDelete(ctx context.Context, key string)

	// Close flushes pending writes and stops background work.
	Close()
}
