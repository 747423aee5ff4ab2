package expiration

import (
	"time"

	"github.com/insidebooks/ibpcheck/types"
)

/*
ExpireAfterFetch is a fixed TTL measured from the moment the provider answered.
Reading an entry does not extend its life: release dates change on the provider side no
matter how often volunteers look at them.

An entry fetched at t is fresh up to and including t+TTL.
*/
type ExpireAfterFetch struct {
	TTL time.Duration

	// IdlePeriods is how many TTLs an entry may go unread before the janitor drops it.
	// Zero disables idle removal.
	IdlePeriods int
}

func (e *ExpireAfterFetch) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return ent.Age(now) > e.TTL
}

func (e *ExpireAfterFetch) IsIdle(ent *types.CacheEntry, now time.Time) bool {
	if e.IdlePeriods <= 0 {
		return false
	}
	idle := time.Duration(e.IdlePeriods) * e.TTL
	return now.Sub(ent.LastAccessedAt()) > idle && ent.Age(now) > idle
}
