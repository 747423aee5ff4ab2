package shard

import "hash/fnv"

// Selector maps an inmate id to the shard that owns it. The mapping must be stable.
type Selector interface {
	Select(key string, shards []*Shard) *Shard
}

// HashSelector hashes the key with FNV-1a.
type HashSelector struct{}

func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func (HashSelector) Select(key string, shards []*Shard) *Shard {
	n := uint32(len(shards))
	h := hash(key)
	if n&(n-1) == 0 {
		return shards[h&(n-1)]
	}
	return shards[h%n]
}
