package types

import (
	"strings"
	"time"
)

// Jurisdiction is the correctional system housing an inmate.
type Jurisdiction string

const (
	Texas   Jurisdiction = "Texas"
	Federal Jurisdiction = "Federal"
)

// ReleaseLayout is the date layout providers use for release dates.
const ReleaseLayout = "2006-01-02"

/*
InmateRecord is what a provider knows about one inmate.

Release is nil when the provider has no release date. Some providers report text such
as "LIFE" or "PAROLE IN PROCESS" instead of a date; that text is kept verbatim in
ReleaseRaw so it can still be shown to a volunteer.

FetchedAt is stamped by the cache when the record is stored.
*/
type InmateRecord struct {
	ID           string
	Jurisdiction Jurisdiction
	FirstName    string
	LastName     string
	Unit         string
	Release      *time.Time
	ReleaseRaw   string
	URL          string
	FetchedAt    time.Time
}

func (r InmateRecord) Name() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

func (r InmateRecord) HasRelease() bool {
	return r.Release != nil
}

// MatchesName reports whether the record has exactly lastName as its last name and a first
// name starting with firstName. Case is ignored.
func (r InmateRecord) MatchesName(firstName, lastName string) bool {
	if !strings.EqualFold(strings.TrimSpace(r.LastName), strings.TrimSpace(lastName)) {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(r.FirstName))
	return strings.HasPrefix(first, strings.ToLower(strings.TrimSpace(firstName)))
}

// NormalizeID is the cache key form of an inmate id. Providers and volunteers write
// ids with or without dashes ("0123-4567"); both spellings map to "01234567".
func NormalizeID(id string) string {
	return strings.ReplaceAll(strings.TrimSpace(id), "-", "")
}

// ParseRelease turns a provider release field into a date. Empty input and text that is
// not a date both yield nil; the caller keeps the text in ReleaseRaw.
func ParseRelease(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(ReleaseLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
