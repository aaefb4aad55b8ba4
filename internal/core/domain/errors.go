package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyLocation      = errors.New("location must not be empty")
	ErrInvalidInput       = errors.New("invalid input")
	ErrTripNotFound       = errors.New("trip not found")
	ErrSaveFailed         = errors.New("failed to save trip")
	ErrMissingCredentials = errors.New("email and password are required")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")

	// ErrCacheMiss is returned by cache lookups for absent keys.
	ErrCacheMiss = errors.New("cache miss")

	// ErrUnprocessableEvent marks a broker message that redelivery cannot fix.
	ErrUnprocessableEvent = errors.New("event cannot be processed")
)

// NotFoundError means the place search returned nothing usable. Err holds
// the decode or rejection cause when there was one.
type NotFoundError struct {
	Query string
	Err   error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no usable place found for %q", e.Query)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// RouteServiceError means the routing service rejected or failed a request.
type RouteServiceError struct {
	Status int
	Err    error
}

func (e *RouteServiceError) Error() string {
	return "trip planning failed, try another location or later"
}

func (e *RouteServiceError) Unwrap() error { return e.Err }

// FailureKind tags the cause behind a PlanningFailedError.
type FailureKind int

const (
	FailureUnknown FailureKind = iota
	FailureNotFound
	FailureRouteService
)

func (k FailureKind) String() string {
	switch k {
	case FailureNotFound:
		return "not_found"
	case FailureRouteService:
		return "route_service"
	default:
		return "unknown"
	}
}

// PlanningFailedError is the single failure surfaced to users by the planner.
// Kind and Err keep the underlying cause for logs and tests.
type PlanningFailedError struct {
	Kind FailureKind
	Err  error
}

func (e *PlanningFailedError) Error() string {
	return "could not plan a trip for this place"
}

func (e *PlanningFailedError) Unwrap() error { return e.Err }

// NewPlanningFailed classifies err and wraps it.
func NewPlanningFailed(err error) *PlanningFailedError {
	var pf *PlanningFailedError
	if errors.As(err, &pf) {
		return pf
	}
	kind := FailureUnknown
	var nf *NotFoundError
	var rs *RouteServiceError
	switch {
	case errors.As(err, &nf):
		kind = FailureNotFound
	case errors.As(err, &rs):
		kind = FailureRouteService
	}
	return &PlanningFailedError{Kind: kind, Err: err}
}
