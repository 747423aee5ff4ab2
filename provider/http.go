package provider

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/insidebooks/ibpcheck/types"
	"github.com/pkg/errors"
)

// maxBody caps how much of a provider response is read.
const maxBody = 1 << 20

/*
HTTPClient queries one provider endpoint:

	GET {BaseURL}/inmates/{id}
	GET {BaseURL}/inmates?first_name={first}&last_name={last}

	200  JSON Inmate (JSON array of Inmate for a search)
	404  unknown id, or no match
	*    provider unavailable

It never retries. The deadline comes from the context; the cache engine sets it from
providers.timeout.
*/
type HTTPClient struct {
	BaseURL      string
	Jurisdiction types.Jurisdiction
	Client       *http.Client
}

func NewHTTPClient(baseURL string, jurisdiction types.Jurisdiction) *HTTPClient {
	return &HTTPClient{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		Jurisdiction: jurisdiction,
		Client:       &http.Client{},
	}
}

func (c *HTTPClient) Fetch(ctx context.Context, inmateID string) (types.InmateRecord, error) {
	if inmateID == "" {
		return types.InmateRecord{}, types.ErrInvalidID
	}

	body, err := c.get(ctx, c.BaseURL+"/inmates/"+url.PathEscape(inmateID), inmateID)
	if err != nil {
		return types.InmateRecord{}, err
	}

	var in Inmate
	if err := json.Unmarshal(body, &in); err != nil {
		return types.InmateRecord{}, errors.Wrapf(types.ErrProviderUnavailable, "%s %s: decode: %v", c.Jurisdiction, inmateID, err)
	}
	return in.Record(c.Jurisdiction), nil
}

func (c *HTTPClient) Search(ctx context.Context, firstName, lastName string) ([]types.InmateRecord, error) {
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return nil, types.ErrInvalidName
	}

	query := url.Values{}
	query.Set("first_name", firstName)
	query.Set("last_name", lastName)
	label := lastName + ", " + firstName

	body, err := c.get(ctx, c.BaseURL+"/inmates?"+query.Encode(), label)
	if errors.Is(err, types.ErrInmateNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var found []Inmate
	if err := json.Unmarshal(body, &found); err != nil {
		return nil, errors.Wrapf(types.ErrProviderUnavailable, "%s %s: decode: %v", c.Jurisdiction, label, err)
	}
	recs := make([]types.InmateRecord, 0, len(found))
	for _, in := range found {
		rec := in.Record(c.Jurisdiction)
		if rec.ID == "" {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// get performs one request and returns the body of a 200 answer. A 404 is
// types.ErrInmateNotFound; label names the request in errors.
func (c *HTTPClient) get(ctx context.Context, endpoint, label string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrapf(types.ErrProviderUnavailable, "build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.Wrapf(types.ErrProviderTimeout, "%s %s", c.Jurisdiction, label)
		}
		return nil, errors.Wrapf(types.ErrProviderUnavailable, "%s %s: %v", c.Jurisdiction, label, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, types.ErrInmateNotFound
	default:
		return nil, errors.Wrapf(types.ErrProviderUnavailable,
			"%s %s: status %d", c.Jurisdiction, label, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.Wrapf(types.ErrProviderTimeout, "%s %s", c.Jurisdiction, label)
		}
		return nil, errors.Wrapf(types.ErrProviderUnavailable, "%s %s: read body: %v", c.Jurisdiction, label, err)
	}
	return body, nil
}
