package warnings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/insidebooks/ibpcheck/api"
	"github.com/insidebooks/ibpcheck/types"
	"github.com/pkg/errors"
)

// ErrInvalidRequest is returned for requests that cannot be evaluated at all.
var ErrInvalidRequest = errors.New("invalid shipment request")

// Policy holds the thresholds and the advisory switches.
type Policy struct {
	// MinReleaseDays: NEAR_RELEASE fires when 0 <= days to release <= MinReleaseDays.
	MinReleaseDays int

	// MinPostmarkDays: STALE_POSTMARK fires when the postmark is more than MinPostmarkDays old.
	// RECENT_REQUEST uses the same window between consecutive requests.
	MinPostmarkDays int

	// WarnNotFound adds INMATE_NOT_FOUND when the provider does not know the id.
	WarnNotFound bool

	// WarnAlreadyReleased adds ALREADY_RELEASED when the release date has passed.
	WarnAlreadyReleased bool
}

func DefaultPolicy() Policy {
	return Policy{
		MinReleaseDays:      60,
		MinPostmarkDays:     90,
		WarnNotFound:        false,
		WarnAlreadyReleased: true,
	}
}

// Engine evaluates shipment requests against cached inmate data. It is safe for
// concurrent use; all shared state lives in the cache.
type Engine struct {
	lookup api.Lookup
	policy Policy
	logger *slog.Logger
}

func NewEngine(lookup api.Lookup, policy Policy, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{lookup: lookup, policy: policy, logger: logger}
}

func (e *Engine) Policy() Policy {
	return e.policy
}

/*
Evaluate applies every rule to req.

Provider trouble never fails an evaluation. It shows up as annotations on the result,
so the caller decides whether to hold or ship. Only a request without an inmate id or
an evaluation time is rejected, with ErrInvalidRequest. The id is normalized before
the lookup and reported that way in Result.InmateID.
*/
func (e *Engine) Evaluate(ctx context.Context, req Request) (Result, error) {
	inmateID := types.NormalizeID(req.InmateID)
	if inmateID == "" {
		return Result{}, errors.Wrap(ErrInvalidRequest, "inmate id is required")
	}
	if req.Now.IsZero() {
		return Result{}, errors.Wrap(ErrInvalidRequest, "evaluation date is required")
	}

	res := Result{
		ID:          uuid.New(),
		InmateID:    inmateID,
		EvaluatedAt: req.Now,
	}

	e.checkPostmark(&res, req)
	e.checkPreviousRequest(&res, req)

	lookup, err := e.lookup.Get(ctx, inmateID, req.Now)
	if err != nil {
		return Result{}, errors.Wrapf(err, "look up inmate %s", inmateID)
	}
	e.applyLookup(&res, lookup, req.Now)

	e.log(res, lookup)
	return res, nil
}

func (e *Engine) checkPostmark(res *Result, req Request) {
	if req.Postmark == nil {
		return
	}
	age := DaysBetween(*req.Postmark, req.Now)
	if age > e.policy.MinPostmarkDays {
		res.add(Warning{
			Code:          StalePostmark,
			DeltaDays:     age,
			ThresholdDays: e.policy.MinPostmarkDays,
			Message:       fmt.Sprintf("request was postmarked %d days ago", age),
		})
	}
}

func (e *Engine) checkPreviousRequest(res *Result, req Request) {
	if req.Postmark == nil || req.LastFilledPostmark == nil {
		return
	}
	delta := DaysBetween(*req.LastFilledPostmark, *req.Postmark)

	var msg string
	switch {
	case delta < 0:
		msg = "a filled request has a postmark after this one"
	case delta == 0:
		msg = "no time has passed since the last filled request's postmark"
	case delta < e.policy.MinPostmarkDays:
		msg = fmt.Sprintf("only %d days since the last filled request's postmark", delta)
	default:
		return
	}
	res.add(Warning{
		Code:          RecentRequest,
		DeltaDays:     delta,
		ThresholdDays: e.policy.MinPostmarkDays,
		Message:       msg,
	})
}

func (e *Engine) applyLookup(res *Result, lookup types.LookupResult, now time.Time) {
	switch lookup.Status {
	case types.StatusUnavailable:
		res.InmateDataUnavailable = true
		return

	case types.StatusNotFound:
		res.InmateNotFound = true
		res.InmateDataStale = lookup.Stale
		if e.policy.WarnNotFound {
			res.add(Warning{
				Code:    InmateNotFound,
				Message: fmt.Sprintf("provider has no inmate #%s", res.InmateID),
			})
		}
		return
	}

	rec := lookup.Record
	res.Record = rec

	if lookup.Stale {
		res.InmateDataStale = true
		age := int(now.Sub(lookup.FetchedAt) / day)
		res.add(Warning{
			Code:      StaleInmateData,
			DeltaDays: age,
			Message:   fmt.Sprintf("inmate data is %d days old and could not be refreshed", age),
		})
	}

	if rec == nil || rec.Release == nil {
		return
	}

	toRelease := DaysBetween(now, *rec.Release)
	switch {
	case toRelease < 0:
		if e.policy.WarnAlreadyReleased {
			res.add(Warning{
				Code:      AlreadyReleased,
				DeltaDays: toRelease,
				Message:   fmt.Sprintf("inmate is marked as released %d days ago", -toRelease),
			})
		}
	case toRelease <= e.policy.MinReleaseDays:
		res.add(Warning{
			Code:          NearRelease,
			DeltaDays:     toRelease,
			ThresholdDays: e.policy.MinReleaseDays,
			Message:       fmt.Sprintf("inmate is %d days from release", toRelease),
		})
	}
}

func (e *Engine) log(res Result, lookup types.LookupResult) {
	attrs := []any{
		"evaluation_id", res.ID.String(),
		"inmate_id", res.InmateID,
		"lookup", lookup.Status.String(),
	}
	if !res.Flagged() {
		e.logger.Debug("warnings: shipment clear", attrs...)
		return
	}
	attrs = append(attrs,
		"codes", res.Codes(),
		"inmate_data_unavailable", res.InmateDataUnavailable,
		"inmate_data_stale", res.InmateDataStale,
	)
	e.logger.Info("warnings: shipment flagged", attrs...)
}
