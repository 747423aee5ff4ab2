// Package store persists inmate cache entries between runs.
package store

import (
	"log/slog"
	"time"

	"github.com/insidebooks/ibpcheck/types"
	"github.com/pkg/errors"
)

const (
	DriverNone    = "none"
	DriverDuckDB  = "duckdb"
	DriverMsgpack = "msgpack"
)

// Open returns the store for driver. DriverNone returns a nil store: the cache then lives
// in memory only.
func Open(driver, path string, logger *slog.Logger) (types.Store, error) {
	switch driver {
	case "", DriverNone:
		return nil, nil
	case DriverDuckDB:
		return NewDuckStore(path, logger)
	case DriverMsgpack:
		return NewSnapshotStore(path)
	default:
		return nil, errors.Errorf("unknown database driver %q", driver)
	}
}

// row is the persisted shape of a cache entry.
type row struct {
	ID           string `msgpack:"id"`
	Negative     bool   `msgpack:"negative"`
	Jurisdiction string `msgpack:"jurisdiction,omitempty"`
	FirstName    string `msgpack:"first_name,omitempty"`
	LastName     string `msgpack:"last_name,omitempty"`
	Unit         string `msgpack:"unit,omitempty"`
	Release      string `msgpack:"release,omitempty"`
	ReleaseRaw   string `msgpack:"release_raw,omitempty"`
	URL          string `msgpack:"url,omitempty"`
	FetchedAt    int64  `msgpack:"fetched_at"`
	AccessedAt   int64  `msgpack:"accessed_at"`
}

func toRow(ent *types.CacheEntry) row {
	r := row{
		ID:         ent.Key,
		Negative:   ent.Negative(),
		FetchedAt:  ent.FetchedAt.UnixNano(),
		AccessedAt: ent.LastAccessedAt().UnixNano(),
	}
	if rec := ent.Record; rec != nil {
		r.Jurisdiction = string(rec.Jurisdiction)
		r.FirstName = rec.FirstName
		r.LastName = rec.LastName
		r.Unit = rec.Unit
		r.ReleaseRaw = rec.ReleaseRaw
		r.URL = rec.URL
		if rec.Release != nil {
			r.Release = rec.Release.Format(types.ReleaseLayout)
		}
	}
	return r
}

func (r row) entry() *types.CacheEntry {
	fetched := time.Unix(0, r.FetchedAt).UTC()
	var rec *types.InmateRecord
	if !r.Negative {
		rec = &types.InmateRecord{
			ID:           r.ID,
			Jurisdiction: types.Jurisdiction(r.Jurisdiction),
			FirstName:    r.FirstName,
			LastName:     r.LastName,
			Unit:         r.Unit,
			Release:      types.ParseRelease(r.Release),
			ReleaseRaw:   r.ReleaseRaw,
			URL:          r.URL,
			FetchedAt:    fetched,
		}
	}
	ent := types.NewCacheEntry(r.ID, rec, fetched)
	if r.AccessedAt > 0 {
		ent.Touch(time.Unix(0, r.AccessedAt))
	}
	return ent
}
