package workflows

import (
	"context"
	"errors"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/tripplanner/internal/core/domain"
	"github.com/samirrijal/tripplanner/internal/core/usecases"
)

// Activity names as registered on the worker.
const (
	PlanTripActivity = "PlanTrip"
	SaveTripActivity = "SaveTrip"
)

// Error types carried by non-retryable application errors.
const (
	ErrTypeInvalidInput    = "invalid_input"
	ErrTypeNotFound        = "place_not_found"
	ErrTypeRouteService    = "route_service"
	ErrTypePlanningFailure = "planning_failed"
)

// Activities runs the planning pipeline steps on a worker.
type Activities struct {
	Planner *usecases.Planner
	Trips   *usecases.TripService

	// SessionTTL bounds the session an activity acts under. Zero means 1h.
	SessionTTL time.Duration
}

// session rebuilds the caller's identity. The workflow input was accepted
// from an authenticated request, so the activity trusts it.
func (a *Activities) session(userID, email string) *domain.Session {
	ttl := a.SessionTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &domain.Session{UserID: userID, Email: email, ExpiresAt: time.Now().Add(ttl)}
}

// PlanTrip resolves the location and generates a route. Planning failures
// are never retried: the route generator's own bounded retry is the only one.
func (a *Activities) PlanTrip(ctx context.Context, in PlanInput) (*domain.TripPlan, error) {
	logger := activity.GetLogger(ctx)

	typ, err := domain.ParseActivity(in.Type)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, err)
	}

	plan, err := a.Planner.Plan(ctx, a.session(in.UserID, in.Email), in.Location, typ)
	if err != nil {
		var pf *domain.PlanningFailedError
		switch {
		case errors.Is(err, domain.ErrEmptyLocation), errors.Is(err, domain.ErrInvalidInput):
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, err)
		case errors.As(err, &pf):
			logger.Warn("plan failed", "location", in.Location, "cause", pf.Kind.String(), "error", pf.Err)
			return nil, temporal.NewNonRetryableApplicationError(pf.Error(), failureType(pf.Kind), pf.Err)
		}
		logger.Warn("plan failed", "location", in.Location, "error", err)
		return nil, err
	}
	return plan, nil
}

func failureType(k domain.FailureKind) string {
	switch k {
	case domain.FailureNotFound:
		return ErrTypeNotFound
	case domain.FailureRouteService:
		return ErrTypeRouteService
	default:
		return ErrTypePlanningFailure
	}
}

// SaveTrip stores a plan for the workflow's user and returns the trip id.
func (a *Activities) SaveTrip(ctx context.Context, in PlanInput, plan domain.TripPlan) (string, error) {
	name := in.Name
	if name == "" {
		name = plan.Location
	}
	trip, err := a.Trips.SaveFromPlan(ctx, a.session(in.UserID, in.Email), plan, name, in.Description)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return "", temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, err)
		}
		return "", err
	}
	return trip.ID, nil
}
