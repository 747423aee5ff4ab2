package provider

import (
	"context"

	"github.com/insidebooks/ibpcheck/types"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

/*
Chain asks several providers at once, one per jurisdiction. An inmate id is only
meaningful inside one correctional system, but volunteers rarely know which one wrote
the letter.

  - the first provider (in configured order) that returns a record wins
  - "not found" only when every provider says so
  - otherwise the first provider failure is returned
*/
type Chain []types.Provider

func (c Chain) Fetch(ctx context.Context, inmateID string) (types.InmateRecord, error) {
	if len(c) == 0 {
		return types.InmateRecord{}, errors.Wrap(types.ErrProviderUnavailable, "no providers configured")
	}
	if len(c) == 1 {
		return c[0].Fetch(ctx, inmateID)
	}

	recs := make([]types.InmateRecord, len(c))
	errs := make([]error, len(c))

	var g errgroup.Group
	for i, p := range c {
		g.Go(func() error {
			recs[i], errs[i] = p.Fetch(ctx, inmateID)
			return nil
		})
	}
	g.Wait()

	var firstFailure error
	for i, err := range errs {
		switch {
		case err == nil:
			return recs[i], nil
		case errors.Is(err, types.ErrInmateNotFound):
		case firstFailure == nil:
			firstFailure = err
		}
	}
	if firstFailure != nil {
		return types.InmateRecord{}, firstFailure
	}
	return types.InmateRecord{}, types.ErrInmateNotFound
}

/*
Search asks every provider that implements types.Searcher at once and merges the answers.
An id reported by several providers keeps the record from the first one in configured
order.

When every searchable provider fails the first failure is returned. When only some
fail, the merged records come back together with a *types.PartialError.
*/
func (c Chain) Search(ctx context.Context, firstName, lastName string) ([]types.InmateRecord, error) {
	var searchers []types.Searcher
	for _, p := range c {
		if s, ok := p.(types.Searcher); ok {
			searchers = append(searchers, s)
		}
	}
	if len(searchers) == 0 {
		return nil, errors.Wrap(types.ErrProviderUnavailable, "no provider supports name search")
	}

	found := make([][]types.InmateRecord, len(searchers))
	errs := make([]error, len(searchers))

	var g errgroup.Group
	for i, s := range searchers {
		g.Go(func() error {
			found[i], errs[i] = s.Search(ctx, firstName, lastName)
			return nil
		})
	}
	g.Wait()

	var (
		merged   []types.InmateRecord
		seen     = make(map[string]bool)
		failures []error
	)
	for i, recs := range found {
		if errs[i] != nil {
			failures = append(failures, errs[i])
			continue
		}
		for _, rec := range recs {
			if seen[rec.ID] {
				continue
			}
			seen[rec.ID] = true
			merged = append(merged, rec)
		}
	}

	switch {
	case len(failures) == 0:
		return merged, nil
	case len(failures) == len(searchers):
		return nil, failures[0]
	default:
		return merged, &types.PartialError{Errs: failures}
	}
}
