package provider_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/insidebooks/ibpcheck/provider"
	"github.com/insidebooks/ibpcheck/provider/providertest"
	"github.com/insidebooks/ibpcheck/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *providertest.Server {
	t.Helper()
	srv := providertest.NewServer(
		provider.Inmate{ID: "0123-4567", Jurisdiction: "Texas", FirstName: "John", LastName: "Doe", Unit: "Wynne", Release: "2027-03-14"},
		provider.Inmate{ID: "07654321", FirstName: "Jane", LastName: "Roe", Release: "LIFE"},
	)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClientFound(t *testing.T) {
	srv := newServer(t)
	c := provider.NewHTTPClient(srv.URL+"/", types.Texas)

	rec, err := c.Fetch(context.Background(), "01234567")
	require.NoError(t, err)
	assert.Equal(t, "01234567", rec.ID)
	assert.Equal(t, "John Doe", rec.Name())
	assert.Equal(t, "Wynne", rec.Unit)
	require.NotNil(t, rec.Release)
	assert.Equal(t, "2027-03-14", rec.Release.Format(types.ReleaseLayout))
}

func TestHTTPClientKeepsUnparsableRelease(t *testing.T) {
	srv := newServer(t)
	c := provider.NewHTTPClient(srv.URL, types.Federal)

	rec, err := c.Fetch(context.Background(), "07654321")
	require.NoError(t, err)
	assert.Nil(t, rec.Release)
	assert.Equal(t, "LIFE", rec.ReleaseRaw)
	assert.Equal(t, types.Federal, rec.Jurisdiction)
}

func TestHTTPClientNotFound(t *testing.T) {
	srv := newServer(t)
	c := provider.NewHTTPClient(srv.URL, types.Texas)

	_, err := c.Fetch(context.Background(), "X123")
	assert.ErrorIs(t, err, types.ErrInmateNotFound)
}

func TestHTTPClientServerError(t *testing.T) {
	srv := newServer(t)
	srv.FailWith(http.StatusBadGateway)
	c := provider.NewHTTPClient(srv.URL, types.Texas)

	_, err := c.Fetch(context.Background(), "01234567")
	assert.ErrorIs(t, err, types.ErrProviderUnavailable)
	assert.ErrorIs(t, err, types.ErrProvider)
	assert.NotErrorIs(t, err, types.ErrProviderTimeout)
}

func TestHTTPClientTimeout(t *testing.T) {
	srv := newServer(t)
	srv.SetDelay(2 * time.Second)
	c := provider.NewHTTPClient(srv.URL, types.Texas)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Fetch(ctx, "01234567")
	assert.ErrorIs(t, err, types.ErrProviderTimeout)
	assert.ErrorIs(t, err, types.ErrProvider)
	assert.Less(t, time.Since(start), time.Second)
}

func TestHTTPClientUnreachable(t *testing.T) {
	srv := newServer(t)
	url := srv.URL
	srv.Close()

	_, err := provider.NewHTTPClient(url, types.Texas).Fetch(context.Background(), "01234567")
	assert.ErrorIs(t, err, types.ErrProviderUnavailable)
}

func TestHTTPClientRejectsEmptyID(t *testing.T) {
	_, err := provider.NewHTTPClient("http://unused", types.Texas).Fetch(context.Background(), "")
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestHTTPClientSearch(t *testing.T) {
	srv := newServer(t)
	srv.Put(provider.Inmate{ID: "0555-0001", FirstName: "Johnny", LastName: "DOE"})
	srv.Put(provider.Inmate{ID: "0555-0002", FirstName: "Jo", LastName: "Doerr"})
	c := provider.NewHTTPClient(srv.URL, types.Texas)

	recs, err := c.Search(context.Background(), "john", "doe")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "01234567", recs[0].ID)
	assert.Equal(t, "05550001", recs[1].ID)
	assert.Equal(t, types.Texas, recs[1].Jurisdiction)
	assert.EqualValues(t, 1, srv.Searches())
	assert.Zero(t, srv.Calls())
}

func TestHTTPClientSearchNoMatch(t *testing.T) {
	srv := newServer(t)
	c := provider.NewHTTPClient(srv.URL, types.Texas)

	recs, err := c.Search(context.Background(), "Nobody", "Here")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestHTTPClientSearchFailure(t *testing.T) {
	srv := newServer(t)
	srv.FailWith(http.StatusServiceUnavailable)
	c := provider.NewHTTPClient(srv.URL, types.Texas)

	_, err := c.Search(context.Background(), "John", "Doe")
	assert.ErrorIs(t, err, types.ErrProviderUnavailable)

	_, err = c.Search(context.Background(), "", "Doe")
	assert.ErrorIs(t, err, types.ErrInvalidName)
}

func TestParseFixtures(t *testing.T) {
	inmates, err := providertest.ParseFixtures(strings.NewReader(`
inmates:
  - id: "01234567"
    jurisdiction: Texas
    first_name: John
    last_name: Doe
    release: "2027-03-14"
  - id: "X999"
    release: PAROLE IN PROCESS
`))
	require.NoError(t, err)
	require.Len(t, inmates, 2)
	assert.Equal(t, "John", inmates[0].FirstName)
	assert.Equal(t, "PAROLE IN PROCESS", inmates[1].Record(types.Texas).ReleaseRaw)
}
