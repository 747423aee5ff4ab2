package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/insidebooks/ibpcheck/types"
	"github.com/insidebooks/ibpcheck/warnings"
)

type inmateJSON struct {
	ID           string `json:"id"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	Name         string `json:"name,omitempty"`
	Unit         string `json:"unit,omitempty"`
	Release      string `json:"release,omitempty"`
	URL          string `json:"url,omitempty"`
	FetchedAt    string `json:"fetched_at,omitempty"`
}

type warningJSON struct {
	Code      string `json:"code"`
	Delta     int    `json:"delta_days"`
	Threshold int    `json:"threshold_days,omitempty"`
	Message   string `json:"message"`
}

type checkJSON struct {
	ID          string        `json:"id"`
	InmateID    string        `json:"inmate_id"`
	EvaluatedAt string        `json:"evaluated_at"`
	Flagged     bool          `json:"flagged"`
	Warnings    []warningJSON `json:"warnings"`
	Unavailable bool          `json:"inmate_data_unavailable"`
	Stale       bool          `json:"inmate_data_stale"`
	NotFound    bool          `json:"inmate_not_found"`
	Inmate      *inmateJSON   `json:"inmate,omitempty"`
}

type lookupJSON struct {
	Status string      `json:"status"`
	Stale  bool        `json:"stale"`
	Inmate *inmateJSON `json:"inmate,omitempty"`
	Cause  string      `json:"cause,omitempty"`
}

type searchJSON struct {
	Matches []lookupJSON `json:"matches"`
	Cause   string       `json:"cause,omitempty"`
}

func toInmateJSON(rec *types.InmateRecord) *inmateJSON {
	if rec == nil {
		return nil
	}
	return &inmateJSON{
		ID:           rec.ID,
		Jurisdiction: string(rec.Jurisdiction),
		Name:         rec.Name(),
		Unit:         rec.Unit,
		Release:      releaseText(rec),
		URL:          rec.URL,
		FetchedAt:    rec.FetchedAt.Format(time.RFC3339),
	}
}

func releaseText(rec *types.InmateRecord) string {
	if rec.Release != nil {
		return rec.Release.Format(dateLayout)
	}
	return rec.ReleaseRaw
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCheck(w io.Writer, res warnings.Result, asJSON bool) error {
	if asJSON {
		out := checkJSON{
			ID:          res.ID.String(),
			InmateID:    res.InmateID,
			EvaluatedAt: res.EvaluatedAt.Format(dateLayout),
			Flagged:     res.Flagged(),
			Warnings:    make([]warningJSON, 0, len(res.Warnings)),
			Unavailable: res.InmateDataUnavailable,
			Stale:       res.InmateDataStale,
			NotFound:    res.InmateNotFound,
			Inmate:      toInmateJSON(res.Record),
		}
		for _, wr := range res.Warnings {
			out.Warnings = append(out.Warnings, warningJSON{
				Code:      string(wr.Code),
				Delta:     wr.DeltaDays,
				Threshold: wr.ThresholdDays,
				Message:   wr.Message,
			})
		}
		return writeJSON(w, out)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "inmate #%s", res.InmateID)
	if rec := res.Record; rec != nil {
		if name := rec.Name(); name != "" {
			fmt.Fprintf(&b, " (%s)", name)
		}
		if rel := releaseText(rec); rel != "" {
			fmt.Fprintf(&b, ", release %s", rel)
		}
	}
	b.WriteString("\n")

	switch {
	case res.InmateDataUnavailable:
		b.WriteString("  inmate data unavailable: release date not checked\n")
	case res.InmateNotFound:
		b.WriteString("  inmate not found by any provider\n")
	}
	for _, wr := range res.Warnings {
		fmt.Fprintf(&b, "  %s\n", wr)
	}
	if !res.Flagged() {
		b.WriteString("  OK to ship\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeLookup(w io.Writer, res types.LookupResult, asJSON bool) error {
	if asJSON {
		out := lookupJSON{
			Status: res.Status.String(),
			Stale:  res.Stale,
			Inmate: toInmateJSON(res.Record),
		}
		if res.Cause != nil {
			out.Cause = res.Cause.Error()
		}
		return writeJSON(w, out)
	}

	fmt.Fprintf(w, "status:  %s", res.Status)
	if res.Stale {
		fmt.Fprint(w, " (stale)")
	}
	fmt.Fprintln(w)
	if rec := res.Record; rec != nil {
		fmt.Fprintf(w, "id:      %s\n", rec.ID)
		fmt.Fprintf(w, "system:  %s\n", rec.Jurisdiction)
		fmt.Fprintf(w, "name:    %s\n", rec.Name())
		fmt.Fprintf(w, "unit:    %s\n", rec.Unit)
		fmt.Fprintf(w, "release: %s\n", releaseText(rec))
		fmt.Fprintf(w, "fetched: %s\n", rec.FetchedAt.Format(time.RFC3339))
	}
	if res.Cause != nil && res.Status != types.StatusFound {
		fmt.Fprintf(w, "cause:   %v\n", res.Cause)
	}
	return nil
}

func writeSearch(w io.Writer, res types.SearchResult, asJSON bool) error {
	if asJSON {
		out := searchJSON{Matches: make([]lookupJSON, 0, len(res.Matches))}
		for _, m := range res.Matches {
			out.Matches = append(out.Matches, lookupJSON{
				Status: m.Status.String(),
				Stale:  m.Stale,
				Inmate: toInmateJSON(m.Record),
			})
		}
		if res.Cause != nil {
			out.Cause = res.Cause.Error()
		}
		return writeJSON(w, out)
	}

	if res.Cause != nil {
		fmt.Fprintf(w, "warning: %v\n", res.Cause)
	}
	if len(res.Matches) == 0 {
		_, err := fmt.Fprintln(w, "no inmate matches")
		return err
	}
	for _, m := range res.Matches {
		rec := m.Record
		fmt.Fprintf(w, "#%-10s %-8s %-24s %-12s release %s", rec.ID, rec.Jurisdiction, rec.Name(), rec.Unit, releaseText(rec))
		if m.Stale {
			fmt.Fprint(w, " (stale)")
		}
		fmt.Fprintln(w)
	}
	return nil
}
