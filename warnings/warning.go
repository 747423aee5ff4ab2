// Package warnings decides whether a book shipment to an inmate needs a second look.
package warnings

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/insidebooks/ibpcheck/types"
)

// Code identifies one kind of warning.
type Code string

const (
	// NearRelease: the inmate is due out within the release threshold; books may arrive after release.
	NearRelease Code = "NEAR_RELEASE"

	// StalePostmark: the request letter is older than the postmark threshold.
	StalePostmark Code = "STALE_POSTMARK"

	// AlreadyReleased: the provider's release date is in the past.
	AlreadyReleased Code = "ALREADY_RELEASED"

	// InmateNotFound: the provider does not know the id.
	InmateNotFound Code = "INMATE_NOT_FOUND"

	// StaleInmateData: the record is past its TTL and could not be refreshed.
	StaleInmateData Code = "STALE_INMATE_DATA"

	// RecentRequest: the inmate's last filled request was postmarked too shortly before
	// this one, or after it.
	RecentRequest Code = "RECENT_REQUEST"
)

// Warning is one fired rule with the numbers behind it.
type Warning struct {
	Code          Code
	DeltaDays     int
	ThresholdDays int
	Message       string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Request is one shipment under review.
type Request struct {
	InmateID string

	// Postmark is the date on the envelope. Nil when unknown.
	Postmark *time.Time

	// LastFilledPostmark is the postmark of the inmate's most recent filled request, if any.
	LastFilledPostmark *time.Time

	// Now is the evaluation time. Required.
	Now time.Time
}

/*
Result is the outcome of one evaluation. Warnings are independent of each other; any
subset may fire.

The annotations say what the engine could not check:

  - InmateDataUnavailable: the provider failed and nothing was cached, so the release
    date was not checked at all
  - InmateDataStale: the release check ran on an expired record
  - InmateNotFound: the provider does not know the id
*/
type Result struct {
	ID          uuid.UUID
	InmateID    string
	EvaluatedAt time.Time
	Warnings    []Warning

	InmateDataUnavailable bool
	InmateDataStale       bool
	InmateNotFound        bool

	// Record is the inmate data the release checks used, if any.
	Record *types.InmateRecord
}

func (r Result) Has(code Code) bool {
	_, ok := r.Get(code)
	return ok
}

func (r Result) Get(code Code) (Warning, bool) {
	for _, w := range r.Warnings {
		if w.Code == code {
			return w, true
		}
	}
	return Warning{}, false
}

func (r Result) Codes() []Code {
	codes := make([]Code, len(r.Warnings))
	for i, w := range r.Warnings {
		codes[i] = w.Code
	}
	return codes
}

// Flagged tells the shipping side to hold the package for a volunteer: a warning fired,
// or the release date could not be checked.
func (r Result) Flagged() bool {
	return len(r.Warnings) > 0 || r.InmateDataUnavailable
}

func (r *Result) add(w Warning) {
	r.Warnings = append(r.Warnings, w)
}
