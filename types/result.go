package types

import (
	"fmt"
	"time"
)

// LookupStatus tags the outcome of a cache lookup.
type LookupStatus int

const (
	StatusFound LookupStatus = iota
	StatusNotFound
	StatusUnavailable
)

func (s LookupStatus) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	case StatusUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

/*
LookupResult is what the inmate cache hands back for one id.

Degradation is part of the value rather than an error, so a caller has to look at it:

  - Found, Stale=false      fresh record
  - Found, Stale=true       expired record served because the provider failed
  - NotFound                provider says the id is unknown (Stale when the marker expired
    and the provider could not confirm it again)
  - Unavailable             provider failed and nothing was cached

Cause holds the provider error behind a stale or unavailable result.
*/
type LookupResult struct {
	Record    *InmateRecord
	Status    LookupStatus
	Stale     bool
	FetchedAt time.Time
	Cause     error
}

func (r LookupResult) Fresh() bool {
	return r.Status == StatusFound && !r.Stale
}

// AsError converts NotFound and Unavailable results to a *LookupError. Found results,
// stale or not, return nil.
func (r LookupResult) AsError(inmateID string) error {
	switch r.Status {
	case StatusNotFound:
		return &LookupError{Kind: LookupNotFound, InmateID: inmateID, Cause: r.Cause}
	case StatusUnavailable:
		return &LookupError{Kind: LookupUnavailable, InmateID: inmateID, Cause: r.Cause}
	default:
		return nil
	}
}

/*
SearchResult is the answer to a name search.

Matches holds every cached inmate matching the name once the provider answers have been
merged in, sorted by last name, first name and id. Entries older than the TTL are tagged
Stale. Cause is set when one or more providers failed; the matches are then whatever the
other providers and the cache knew.
*/
type SearchResult struct {
	Matches []LookupResult
	Cause   error
}

type LookupErrorKind int

const (
	LookupNotFound LookupErrorKind = iota
	LookupUnavailable
)

type LookupError struct {
	Kind     LookupErrorKind
	InmateID string
	Cause    error
}

func (e *LookupError) Error() string {
	kind := "not found"
	if e.Kind == LookupUnavailable {
		kind = "unavailable"
	}
	if e.Cause != nil {
		return fmt.Sprintf("inmate %s %s: %v", e.InmateID, kind, e.Cause)
	}
	return fmt.Sprintf("inmate %s %s", e.InmateID, kind)
}

func (e *LookupError) Unwrap() error {
	return e.Cause
}
