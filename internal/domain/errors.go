package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrRateLimited       = errors.New("rate limited")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrUpstream          = errors.New("upstream error")
	ErrCircuitOpen       = errors.New("circuit open")
	ErrUnknownVenue      = errors.New("unknown venue")
	ErrLockHeld          = errors.New("lock already held")
	ErrNoData            = errors.New("no data yet")
	ErrRefreshInProgress = errors.New("a refresh is already in progress")
)

// VenueFailure records why one venue's catalog could not be fetched.
type VenueFailure struct {
	Venue Venue
	Err   error
}

// RefreshError is returned by a refresh when at least one venue's catalog
// fetch failed entirely. The previous snapshot stays in place.
type RefreshError struct {
	Failures []VenueFailure
}

func (e *RefreshError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Venue, f.Err))
	}
	return "refresh failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the underlying venue errors to errors.Is / errors.As.
func (e *RefreshError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// Venues lists the venues that failed.
func (e *RefreshError) Venues() []Venue {
	out := make([]Venue, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Venue)
	}
	return out
}
