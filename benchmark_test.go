package cache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	cache "github.com/insidebooks/ibpcheck"
	"github.com/insidebooks/ibpcheck/engine"
	"github.com/insidebooks/ibpcheck/eviction"
	"github.com/insidebooks/ibpcheck/expiration"
	"github.com/insidebooks/ibpcheck/logging"
	"github.com/insidebooks/ibpcheck/store"
	"github.com/insidebooks/ibpcheck/types"
	"github.com/insidebooks/ibpcheck/writepolicy"
)

const benchKeys = 100000

func benchID(i int) string {
	return fmt.Sprintf("%08d", i%benchKeys)
}

var benchProvider = types.ProviderFunc(func(_ context.Context, id string) (types.InmateRecord, error) {
	release := t0.AddDate(0, 0, 90)
	return types.InmateRecord{ID: id, Jurisdiction: types.Federal, Release: &release}, nil
})

func newBenchmarkCache(capacity int) *cache.InmateCache {
	eng := engine.NewCacheEngine(
		&expiration.ExpireAfterFetch{TTL: 24 * time.Hour},
		benchProvider,
		0,
		writepolicy.NewWriteBackPolicy(store.NewMemoryStore(), 4096, logging.Discard()),
		nil,
		logging.Discard(),
	)
	return cache.NewInmateCache(8, capacity, eviction.LRU, eng)
}

func preload(c *cache.InmateCache, n int) {
	for i := 0; i < n; i++ {
		c.Get(context.Background(), benchID(i), t0)
	}
}

//
// ================= SINGLE THREAD BENCH =================
//

func BenchmarkCacheGetHit(b *testing.B) {
	c := newBenchmarkCache(0)
	defer c.Close()
	preload(c, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(context.Background(), benchID(0), t0)
	}
}

func BenchmarkCacheGetMiss(b *testing.B) {
	c := newBenchmarkCache(0)
	defer c.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// each lookup lands past the previous fetch's TTL
		c.Get(context.Background(), benchID(0), t0.Add(time.Duration(i)*25*time.Hour))
	}
}

//
// ================= CONCURRENT BENCH =================
//

func BenchmarkCacheParallelGet(b *testing.B) {
	c := newBenchmarkCache(0)
	defer c.Close()
	preload(c, 1000)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			c.Get(context.Background(), benchID(i%1000), t0)
			i++
		}
	})
}

func BenchmarkCacheParallelGetBounded(b *testing.B) {
	c := newBenchmarkCache(benchKeys / 2)
	defer c.Close()
	preload(c, benchKeys/2)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			c.Get(context.Background(), benchID(i), t0)
			i++
		}
	})
}
