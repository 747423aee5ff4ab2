package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	cache "github.com/insidebooks/ibpcheck"
	"github.com/insidebooks/ibpcheck/engine"
	"github.com/insidebooks/ibpcheck/eviction"
	"github.com/insidebooks/ibpcheck/expiration"
	"github.com/insidebooks/ibpcheck/logging"
	"github.com/insidebooks/ibpcheck/types"
	"github.com/urfave/cli/v2"
)

func benchID(i int) string {
	return fmt.Sprintf("%08d", i)
}

// benchProvider answers instantly with a release date derived from the id.
func benchProvider(now time.Time) types.Provider {
	return types.ProviderFunc(func(_ context.Context, id string) (types.InmateRecord, error) {
		days := 0
		for _, b := range []byte(id) {
			days = (days*31 + int(b)) % 400
		}
		release := now.AddDate(0, 0, days)
		return types.InmateRecord{
			ID:           id,
			Jurisdiction: types.Texas,
			Release:      &release,
		}, nil
	})
}

func runBench(c *cli.Context) error {
	var (
		shards     = c.Int("shards")
		capacity   = c.Int("capacity")
		keys       = c.Int("keys")
		goroutines = c.Int("goroutines")
		opsPerG    = c.Int("ops")
		w          = c.App.Writer
	)
	if keys <= 0 || goroutines <= 0 || opsPerG <= 0 {
		return cli.Exit("keys, goroutines and ops must be > 0", 1)
	}
	policy, err := eviction.ParsePolicyType(c.String("eviction"))
	if err != nil {
		return err
	}

	ctx := context.Background()
	now := time.Now()
	counters := &types.Counters{}

	eng := engine.NewCacheEngine(
		&expiration.ExpireAfterFetch{TTL: 24 * time.Hour},
		benchProvider(now),
		time.Second,
		nil,
		counters,
		logging.Discard(),
	)
	ic := cache.NewInmateCache(shards, capacity, policy, eng)
	defer ic.Close()

	fmt.Fprintln(w, "\n================ INMATE CACHE LOAD BENCHMARK =================")
	fmt.Fprintln(w, "CONFIG")
	fmt.Fprintln(w, "---------------------------------")
	fmt.Fprintln(w, "Shards       :", shards)
	fmt.Fprintln(w, "Capacity     :", capacity)
	fmt.Fprintln(w, "Eviction     :", policy)
	fmt.Fprintln(w, "Inmate ids   :", keys)
	fmt.Fprintln(w, "Goroutines   :", goroutines)
	fmt.Fprintln(w, "Ops/Goroutine:", opsPerG)
	fmt.Fprintln(w, "---------------------------------")

	fmt.Fprintln(w, "Preloading cache...")
	for i := 0; i < keys; i++ {
		ic.Get(ctx, benchID(i), now)
	}

	fmt.Fprintln(w, "Running concurrency benchmark...")
	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(g int) {
			defer wg.Done()
			for j := 0; j < opsPerG; j++ {
				ic.Get(ctx, benchID((g*opsPerG+j)%keys), now)
			}
		}(g)
	}
	wg.Wait()

	duration := time.Since(start)
	totalOps := goroutines * opsPerG
	stats := counters.Snapshot()

	fmt.Fprintln(w, "\n================ RESULTS =================")
	fmt.Fprintf(w, "Total Operations : %d\n", totalOps)
	fmt.Fprintf(w, "Total Time       : %v\n", duration)
	fmt.Fprintf(w, "Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Fprintf(w, "Hits / Misses    : %d / %d\n", stats.Hits, stats.Misses)
	fmt.Fprintf(w, "Evictions        : %d\n", stats.Evictions)
	fmt.Fprintln(w, "=========================================")
	return nil
}
