package types

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrProvider matches every provider-side failure (timeout or transport).
	ErrProvider = errors.New("provider error")

	// ErrProviderTimeout means the provider call exceeded its deadline.
	ErrProviderTimeout error = &providerError{msg: "provider timeout"}

	// ErrProviderUnavailable means the provider could not be reached or answered garbage.
	ErrProviderUnavailable error = &providerError{msg: "provider unavailable"}

	// ErrInmateNotFound is the provider's negative answer. It is not a failure.
	ErrInmateNotFound = errors.New("inmate not found")

	ErrInvalidID = errors.New("inmate id must not be empty")

	ErrInvalidName = errors.New("first and last name must not be empty")
)

type providerError struct {
	msg string
}

func (e *providerError) Error() string { return e.msg }

// Is lets errors.Is(err, ErrProvider) match both provider failure kinds.
func (e *providerError) Is(target error) bool {
	return target == ErrProvider
}

// PartialError is returned by a name search when some providers failed while others
// answered. The records that did arrive are returned alongside it.
type PartialError struct {
	Errs []error
}

func (e *PartialError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return "some providers failed: " + strings.Join(msgs, "; ")
}

func (e *PartialError) Unwrap() []error {
	return e.Errs
}
