package types

import "context"

// Provider is the contract between the cache and an external correctional-system data source.
type Provider interface {

	/*
		Fetch is called when the cache has no fresh entry for an inmate.

		1. Cache checks memory → no fresh entry
		2. Cache calls Fetch(id) under the provider timeout
		3. Provider queries the correctional system
		4. Cache stores the record (or a negative marker) and returns it

		Fetch must not retry. It returns ErrInmateNotFound for unknown ids, and an error
		matching ErrProvider for timeouts and transport failures.
	*/
	Fetch(ctx context.Context, inmateID string) (InmateRecord, error)
}

/*
Searcher is implemented by providers that can look inmates up by name.

Search returns every inmate whose last name equals lastName and whose first name
starts with firstName, ignoring case. No match is an empty slice, not an error.
*/
type Searcher interface {
	Search(ctx context.Context, firstName, lastName string) ([]InmateRecord, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, inmateID string) (InmateRecord, error)

func (f ProviderFunc) Fetch(ctx context.Context, inmateID string) (InmateRecord, error) {
	return f(ctx, inmateID)
}

/*
Store is where the cache persists fetched entries so a restarted process can still
serve stale fallbacks.

Write policies call Save and Delete. Warm start calls LoadAll once.
*/
type Store interface {
	Save(ctx context.Context, ent *CacheEntry) error
	Delete(ctx context.Context, key string) error
	LoadAll(ctx context.Context) ([]*CacheEntry, error)
	Close() error
}
