// This file defines the refresh-ahead hook: keep hot inmate records fresh without making a
// volunteer wait for the provider.

package refresh

import (
	"time"

	"github.com/insidebooks/ibpcheck/types"
)

/*
Hook is called after every fresh cache hit. It runs on the read path, so it must return
quickly; any provider work belongs in a goroutine.
*/
type Hook interface {
	OnRead(key string, ent *types.CacheEntry, now time.Time)
}

// Reloader starts a background reload of one key.
type Reloader func(key string)

/*
Ahead triggers a reload once a hit lands on an entry older than Fraction of TTL.

With TTL=24h and Fraction=0.75, a record read 20 hours after it was fetched is reloaded in
the background while the reader still gets the cached copy. Negative markers are never
refreshed ahead; nobody is waiting on them.
*/
type Ahead struct {
	TTL      time.Duration
	Fraction float64
	Reload   Reloader
}

func (a *Ahead) OnRead(key string, ent *types.CacheEntry, now time.Time) {
	if a.Reload == nil || a.Fraction <= 0 || ent.Negative() {
		return
	}
	threshold := time.Duration(float64(a.TTL) * a.Fraction)
	if ent.Age(now) >= threshold {
		a.Reload(key)
	}
}
