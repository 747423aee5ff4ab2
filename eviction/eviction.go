package eviction

import (
	"strings"

	"github.com/pkg/errors"
)

/*
Policy decides which inmate entry goes when a shard reaches its share of the capacity.

Policies are not safe for concurrent use; the shard calls them under its write lock.
*/
type Policy interface {

	// OnGet is called when a key is read. LRU moves it to the front, FIFO ignores it.
	OnGet(key string)

	// OnPut is called when a key is stored or replaced.
	OnPut(key string)

	// Remove is called when a key is invalidated or purged, not evicted.
	Remove(key string)

	// Evict picks the victim and forgets it. An empty string means nothing is tracked.
	Evict() string
}

// PolicyType identifies a supported eviction strategy.
type PolicyType string

const (
	// LRU evicts the inmate nobody has looked up for the longest time.
	LRU PolicyType = "LRU"

	// FIFO evicts the inmate that entered the cache first, regardless of reads.
	FIFO PolicyType = "FIFO"
)

// ParsePolicyType accepts a policy name in any case. Empty selects LRU.
func ParsePolicyType(s string) (PolicyType, error) {
	t := PolicyType(strings.ToUpper(s))
	switch t {
	case LRU, FIFO:
		return t, nil
	case "":
		return LRU, nil
	default:
		return "", errors.Errorf("unknown eviction policy %q", s)
	}
}

// NewEvictionPolicy builds a fresh policy instance; every shard needs its own. The zero
// PolicyType is LRU, as in ParsePolicyType.
func NewEvictionPolicy(t PolicyType) Policy {
	switch t {
	case LRU, "":
		return newOrdered(true)
	case FIFO:
		return newOrdered(false)
	default:
		panic("unknown eviction policy " + string(t))
	}
}
