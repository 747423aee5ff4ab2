package warnings_test

import (
	"context"
	"testing"
	"time"

	cache "github.com/insidebooks/ibpcheck"
	"github.com/insidebooks/ibpcheck/engine"
	"github.com/insidebooks/ibpcheck/eviction"
	"github.com/insidebooks/ibpcheck/expiration"
	"github.com/insidebooks/ibpcheck/types"
	"github.com/insidebooks/ibpcheck/warnings"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC)

func daysFromNow(n int) *time.Time {
	t := now.AddDate(0, 0, n)
	return &t
}

// fixedLookup answers every Get with the same result.
type fixedLookup struct {
	res   types.LookupResult
	calls int
	asked string
}

func (f *fixedLookup) Get(_ context.Context, inmateID string, _ time.Time) (types.LookupResult, error) {
	f.calls++
	f.asked = inmateID
	return f.res, nil
}

func found(release *time.Time) *fixedLookup {
	return &fixedLookup{res: types.LookupResult{
		Status:    types.StatusFound,
		Record:    &types.InmateRecord{ID: "01234567", Release: release},
		FetchedAt: now,
	}}
}

func evaluate(t *testing.T, lookup *fixedLookup, req warnings.Request) warnings.Result {
	t.Helper()
	e := warnings.NewEngine(lookup, warnings.DefaultPolicy(), nil)
	if req.InmateID == "" {
		req.InmateID = "01234567"
	}
	if req.Now.IsZero() {
		req.Now = now
	}
	res, err := e.Evaluate(context.Background(), req)
	require.NoError(t, err)
	return res
}

func TestStalePostmarkBoundary(t *testing.T) {
	cases := []struct {
		age   int
		fires bool
	}{
		{0, false},
		{89, false},
		{90, false},
		{91, true},
		{400, true},
	}
	for _, tc := range cases {
		res := evaluate(t, found(nil), warnings.Request{Postmark: daysFromNow(-tc.age)})
		assert.Equal(t, tc.fires, res.Has(warnings.StalePostmark), "age %d", tc.age)
		if tc.fires {
			w, _ := res.Get(warnings.StalePostmark)
			assert.Equal(t, tc.age, w.DeltaDays)
			assert.Equal(t, 90, w.ThresholdDays)
		}
	}
}

func TestNoPostmarkSkipsPostmarkCheck(t *testing.T) {
	res := evaluate(t, found(nil), warnings.Request{})
	assert.Empty(t, res.Warnings)
	assert.False(t, res.Flagged())
}

func TestNearReleaseBoundary(t *testing.T) {
	cases := []struct {
		delta int
		near  bool
	}{
		{0, true},
		{45, true},
		{60, true},
		{61, false},
		{-1, false},
		{-10, false},
	}
	for _, tc := range cases {
		res := evaluate(t, found(daysFromNow(tc.delta)), warnings.Request{})
		assert.Equal(t, tc.near, res.Has(warnings.NearRelease), "delta %d", tc.delta)
		if tc.near {
			w, _ := res.Get(warnings.NearRelease)
			assert.Equal(t, tc.delta, w.DeltaDays)
			assert.Equal(t, 60, w.ThresholdDays)
		}
	}
}

func TestReleaseDateIsCalendarBased(t *testing.T) {
	// release at midnight 45 days out, evaluated mid-afternoon
	release := time.Date(2026, 12, 3, 0, 0, 0, 0, time.UTC)
	res := evaluate(t, found(&release), warnings.Request{})
	w, ok := res.Get(warnings.NearRelease)
	require.True(t, ok)
	assert.Equal(t, 45, w.DeltaDays)
}

func TestPastReleaseRaisesAlreadyReleasedOnly(t *testing.T) {
	res := evaluate(t, found(daysFromNow(-10)), warnings.Request{})
	assert.False(t, res.Has(warnings.NearRelease))
	w, ok := res.Get(warnings.AlreadyReleased)
	require.True(t, ok)
	assert.Equal(t, -10, w.DeltaDays)

	policy := warnings.DefaultPolicy()
	policy.WarnAlreadyReleased = false
	e := warnings.NewEngine(found(daysFromNow(-10)), policy, nil)
	res, err := e.Evaluate(context.Background(), warnings.Request{InmateID: "01234567", Now: now})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
}

func TestWarningsAreIndependent(t *testing.T) {
	res := evaluate(t, found(daysFromNow(30)), warnings.Request{Postmark: daysFromNow(-120)})
	assert.ElementsMatch(t, []warnings.Code{warnings.StalePostmark, warnings.NearRelease}, res.Codes())
	assert.True(t, res.Flagged())
}

func TestRecentRequest(t *testing.T) {
	cases := []struct {
		name     string
		last     int
		fires    bool
		expected int
	}{
		{"out of order", 5, true, -5},
		{"same day", 0, true, 0},
		{"too soon", -30, true, 30},
		{"long enough", -90, false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := evaluate(t, found(nil), warnings.Request{
				Postmark:           daysFromNow(0),
				LastFilledPostmark: daysFromNow(tc.last),
			})
			w, ok := res.Get(warnings.RecentRequest)
			assert.Equal(t, tc.fires, ok)
			if ok {
				assert.Equal(t, tc.expected, w.DeltaDays)
			}
		})
	}
}

func TestNotFoundSkipsReleaseCheck(t *testing.T) {
	lookup := &fixedLookup{res: types.LookupResult{Status: types.StatusNotFound, Cause: types.ErrInmateNotFound}}
	res := evaluate(t, lookup, warnings.Request{InmateID: "X123", Postmark: daysFromNow(-91)})

	assert.True(t, res.InmateNotFound)
	assert.False(t, res.InmateDataUnavailable)
	assert.Nil(t, res.Record)
	assert.Equal(t, []warnings.Code{warnings.StalePostmark}, res.Codes())

	policy := warnings.DefaultPolicy()
	policy.WarnNotFound = true
	e := warnings.NewEngine(lookup, policy, nil)
	res, err := e.Evaluate(context.Background(), warnings.Request{InmateID: "X123", Now: now})
	require.NoError(t, err)
	assert.True(t, res.Has(warnings.InmateNotFound))
}

func TestUnavailableAnnotatesResult(t *testing.T) {
	lookup := &fixedLookup{res: types.LookupResult{Status: types.StatusUnavailable, Cause: types.ErrProviderTimeout}}
	res := evaluate(t, lookup, warnings.Request{Postmark: daysFromNow(-10)})

	assert.True(t, res.InmateDataUnavailable)
	assert.Empty(t, res.Warnings)
	assert.True(t, res.Flagged())
}

func TestStaleRecordStillChecked(t *testing.T) {
	lookup := found(daysFromNow(20))
	lookup.res.Stale = true
	lookup.res.FetchedAt = now.Add(-50 * time.Hour)

	res := evaluate(t, lookup, warnings.Request{})
	assert.True(t, res.InmateDataStale)
	assert.True(t, res.Has(warnings.NearRelease))
	w, ok := res.Get(warnings.StaleInmateData)
	require.True(t, ok)
	assert.Equal(t, 2, w.DeltaDays)
}

func TestInvalidRequests(t *testing.T) {
	lookup := found(nil)
	e := warnings.NewEngine(lookup, warnings.DefaultPolicy(), nil)

	_, err := e.Evaluate(context.Background(), warnings.Request{InmateID: "  ", Now: now})
	assert.ErrorIs(t, err, warnings.ErrInvalidRequest)

	_, err = e.Evaluate(context.Background(), warnings.Request{InmateID: "01234567"})
	assert.ErrorIs(t, err, warnings.ErrInvalidRequest)

	_, err = e.Evaluate(context.Background(), warnings.Request{InmateID: " - ", Now: now})
	assert.ErrorIs(t, err, warnings.ErrInvalidRequest)

	assert.Zero(t, lookup.calls)
}

func TestInmateIDIsNormalized(t *testing.T) {
	lookup := found(nil)
	res := evaluate(t, lookup, warnings.Request{InmateID: " 0123-4567 "})
	assert.Equal(t, "01234567", lookup.asked)
	assert.Equal(t, "01234567", res.InmateID)
}

func TestEvaluationIDsAreUnique(t *testing.T) {
	a := evaluate(t, found(nil), warnings.Request{})
	b := evaluate(t, found(nil), warnings.Request{})
	assert.NotEqual(t, a.ID, b.ID)
}

// The scenarios below run against the real cache.

func newCache(provider types.ProviderFunc) *cache.InmateCache {
	eng := engine.NewCacheEngine(
		&expiration.ExpireAfterFetch{TTL: 24 * time.Hour},
		provider,
		50*time.Millisecond,
		nil,
		nil,
		nil,
	)
	return cache.NewInmateCache(4, 0, eviction.LRU, eng)
}

func TestScenarioProviderNotFound(t *testing.T) {
	c := newCache(func(context.Context, string) (types.InmateRecord, error) {
		return types.InmateRecord{}, types.ErrInmateNotFound
	})
	defer c.Close()

	e := warnings.NewEngine(c, warnings.DefaultPolicy(), nil)
	res, err := e.Evaluate(context.Background(), warnings.Request{
		InmateID: "X123",
		Postmark: daysFromNow(-91),
		Now:      now,
	})
	require.NoError(t, err)
	assert.True(t, res.InmateNotFound)
	assert.True(t, res.Has(warnings.StalePostmark))
	assert.False(t, res.Has(warnings.NearRelease))
}

func TestScenarioDashedIDSharesCacheEntry(t *testing.T) {
	var asked []string
	c := newCache(func(_ context.Context, id string) (types.InmateRecord, error) {
		asked = append(asked, id)
		return types.InmateRecord{ID: id, Release: daysFromNow(45)}, nil
	})
	defer c.Close()
	e := warnings.NewEngine(c, warnings.DefaultPolicy(), nil)

	for _, id := range []string{"0123-4567", "01234567"} {
		res, err := e.Evaluate(context.Background(), warnings.Request{InmateID: id, Now: now})
		require.NoError(t, err)
		assert.True(t, res.Has(warnings.NearRelease))
	}
	assert.Equal(t, []string{"01234567"}, asked)
	assert.Equal(t, 1, c.Len())
}

func TestScenarioProviderTimeoutWithoutCache(t *testing.T) {
	c := newCache(func(ctx context.Context, _ string) (types.InmateRecord, error) {
		<-ctx.Done()
		return types.InmateRecord{}, ctx.Err()
	})
	defer c.Close()

	e := warnings.NewEngine(c, warnings.DefaultPolicy(), nil)
	res, err := e.Evaluate(context.Background(), warnings.Request{
		InmateID: "01234567",
		Postmark: daysFromNow(-91),
		Now:      now,
	})
	require.NoError(t, err)
	assert.True(t, res.InmateDataUnavailable)
	assert.True(t, res.Has(warnings.StalePostmark))
}

func TestScenarioProviderFailureServesStaleRecord(t *testing.T) {
	fail := false
	c := newCache(func(context.Context, string) (types.InmateRecord, error) {
		if fail {
			return types.InmateRecord{}, errors.New("connection refused")
		}
		return types.InmateRecord{ID: "01234567", Release: daysFromNow(45)}, nil
	})
	defer c.Close()
	e := warnings.NewEngine(c, warnings.DefaultPolicy(), nil)

	res, err := e.Evaluate(context.Background(), warnings.Request{InmateID: "01234567", Now: now})
	require.NoError(t, err)
	w, ok := res.Get(warnings.NearRelease)
	require.True(t, ok)
	assert.Equal(t, 45, w.DeltaDays)

	fail = true
	later := now.Add(25 * time.Hour)
	res, err = e.Evaluate(context.Background(), warnings.Request{InmateID: "01234567", Now: later})
	require.NoError(t, err)
	assert.True(t, res.InmateDataStale)
	assert.False(t, res.InmateDataUnavailable)
	assert.True(t, res.Has(warnings.StaleInmateData))
	w, ok = res.Get(warnings.NearRelease)
	require.True(t, ok)
	assert.Equal(t, 44, w.DeltaDays)
}
