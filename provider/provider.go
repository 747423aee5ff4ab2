// Package provider talks to external correctional-system data sources.
package provider

import (
	"strings"

	"github.com/insidebooks/ibpcheck/types"
)

// Inmate is the wire shape providers answer with.
type Inmate struct {
	ID           string `json:"id" yaml:"id"`
	Jurisdiction string `json:"jurisdiction" yaml:"jurisdiction"`
	FirstName    string `json:"first_name" yaml:"first_name"`
	LastName     string `json:"last_name" yaml:"last_name"`
	Unit         string `json:"unit" yaml:"unit"`
	Release      string `json:"release,omitempty" yaml:"release,omitempty"`
	URL          string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Record converts the wire shape. Provider ids sometimes carry dashes ("0123-4567");
// they are dropped so every source agrees on one key.
func (in Inmate) Record(fallback types.Jurisdiction) types.InmateRecord {
	rec := types.InmateRecord{
		ID:           types.NormalizeID(in.ID),
		Jurisdiction: types.Jurisdiction(in.Jurisdiction),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Unit:         in.Unit,
		Release:      types.ParseRelease(in.Release),
		URL:          in.URL,
	}
	if rec.Release == nil {
		rec.ReleaseRaw = strings.TrimSpace(in.Release)
	}
	if rec.Jurisdiction == "" {
		rec.Jurisdiction = fallback
	}
	return rec
}
