package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/insidebooks/ibpcheck/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries(now time.Time) []*types.CacheEntry {
	release := time.Date(2027, 3, 14, 0, 0, 0, 0, time.UTC)
	found := types.NewCacheEntry("01234567", &types.InmateRecord{
		ID:           "01234567",
		Jurisdiction: types.Texas,
		FirstName:    "John",
		LastName:     "Doe",
		Unit:         "Wynne",
		Release:      &release,
		URL:          "https://inmate.example/01234567",
		FetchedAt:    now,
	}, now)
	lifer := types.NewCacheEntry("07654321", &types.InmateRecord{
		ID:           "07654321",
		Jurisdiction: types.Federal,
		FirstName:    "Jane",
		LastName:     "Roe",
		ReleaseRaw:   "LIFE",
		FetchedAt:    now,
	}, now)
	missing := types.NewCacheEntry("X123", nil, now.Add(-time.Hour))
	return []*types.CacheEntry{found, lifer, missing}
}

// exercise saves sample entries, deletes nothing, and checks LoadAll reproduces them.
func exercise(t *testing.T, s types.Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	for _, ent := range sampleEntries(now) {
		require.NoError(t, s.Save(ctx, ent))
	}

	got, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	byID := map[string]*types.CacheEntry{}
	for _, ent := range got {
		byID[ent.Key] = ent
	}

	found := byID["01234567"]
	require.NotNil(t, found)
	require.NotNil(t, found.Record)
	assert.Equal(t, "John Doe", found.Record.Name())
	assert.Equal(t, types.Texas, found.Record.Jurisdiction)
	require.NotNil(t, found.Record.Release)
	assert.Equal(t, "2027-03-14", found.Record.Release.Format(types.ReleaseLayout))
	assert.True(t, found.FetchedAt.Equal(now))

	lifer := byID["07654321"]
	require.NotNil(t, lifer.Record)
	assert.Nil(t, lifer.Record.Release)
	assert.Equal(t, "LIFE", lifer.Record.ReleaseRaw)

	missing := byID["X123"]
	assert.True(t, missing.Negative())
	assert.True(t, missing.FetchedAt.Equal(now.Add(-time.Hour)))

	require.NoError(t, s.Delete(ctx, "X123"))
	require.NoError(t, s.Delete(ctx, "never-stored"))
	got, err = s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exercise(t, s)
	assert.True(t, s.Has("01234567"))
	saves, deletes := s.Counts()
	assert.Equal(t, 3, saves)
	assert.Equal(t, 2, deletes)
}

func TestSnapshotStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "inmates.msgpack")

	s, err := NewSnapshotStore(path)
	require.NoError(t, err)
	exercise(t, s)
	require.NoError(t, s.Close())

	reopened, err := NewSnapshotStore(path)
	require.NoError(t, err)
	got, err := reopened.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "01234567", got[0].Key)
	assert.Equal(t, "07654321", got[1].Key)
}

func TestDuckStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inmates.duckdb")

	s, err := NewDuckStore(path, nil)
	require.NoError(t, err)
	exercise(t, s)

	// upsert replaces the row
	now := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(context.Background(), types.NewCacheEntry("01234567", nil, now)))
	require.NoError(t, s.Close())

	reopened, err := NewDuckStore(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "01234567", got[0].Key)
	assert.True(t, got[0].Negative())
	assert.True(t, got[0].FetchedAt.Equal(now))
}

func TestOpen(t *testing.T) {
	s, err := Open(DriverNone, "", nil)
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = Open(DriverMsgpack, filepath.Join(t.TempDir(), "snap.msgpack"), nil)
	require.NoError(t, err)
	assert.IsType(t, &SnapshotStore{}, s)

	_, err = Open("sqlite", "data.db", nil)
	assert.Error(t, err)
}
