package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/tripplanner/internal/core/domain"
	"github.com/samirrijal/tripplanner/internal/core/ports"
	"github.com/samirrijal/tripplanner/internal/pkg/gpxexport"
	"github.com/samirrijal/tripplanner/internal/pkg/logging"
	"github.com/samirrijal/tripplanner/internal/pkg/metrics"
	"github.com/samirrijal/tripplanner/internal/pkg/validation"
)

// TripService stores and reads trips on behalf of a session.
type TripService struct {
	trips  ports.TripRepository
	events ports.EventPublisher
	now    func() time.Time
}

// NewTripService creates a new TripService. events may be nil.
func NewTripService(trips ports.TripRepository, events ports.EventPublisher) *TripService {
	return &TripService{trips: trips, events: events, now: time.Now}
}

// Save persists in for the session's user.
func (s *TripService) Save(ctx context.Context, sess *domain.Session, in domain.NewTrip) (*domain.Trip, error) {
	if !sess.Valid(s.now()) {
		return nil, domain.ErrUnauthorized
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	if err := validation.Struct(&in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	trip := &domain.Trip{
		ID:          uuid.NewString(),
		UserID:      sess.UserID,
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Location:    in.Location,
		Type:        in.Type,
		Route:       in.Route,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.trips.Create(ctx, trip); err != nil {
		logging.FromContext(ctx).Error("save trip", "user_id", sess.UserID, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrSaveFailed, err)
	}
	metrics.TripsSaved.WithLabelValues(string(trip.Type)).Inc()

	if s.events != nil {
		ev := &domain.TripEvent{
			Kind:       domain.EventTripSaved,
			UserID:     trip.UserID,
			TripID:     trip.ID,
			Location:   trip.Location,
			Type:       trip.Type,
			DistanceKm: trip.DistanceKm(),
			At:         trip.CreatedAt,
		}
		if err := s.events.PublishTripEvent(ctx, ev); err != nil {
			logging.FromContext(ctx).Warn("publish trip event", "trip_id", trip.ID, "error", err)
		}
	}
	return trip, nil
}

// SaveFromPlan stores a plan as a single day=1 leg holding the whole route.
func (s *TripService) SaveFromPlan(ctx context.Context, sess *domain.Session, plan domain.TripPlan, name, description string) (*domain.Trip, error) {
	return s.Save(ctx, sess, domain.NewTrip{
		Name:        name,
		Description: description,
		Location:    plan.Location,
		Type:        plan.Type,
		Route:       domain.StoredRoute(plan),
	})
}

// List returns the session user's trips, newest first.
func (s *TripService) List(ctx context.Context, sess *domain.Session, limit, offset int) ([]domain.TripSummary, int, error) {
	if !sess.Valid(s.now()) {
		return nil, 0, domain.ErrUnauthorized
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.trips.ListByUser(ctx, sess.UserID, limit, offset)
}

// Get returns one of the session user's trips. Foreign and malformed ids
// are reported as domain.ErrTripNotFound.
func (s *TripService) Get(ctx context.Context, sess *domain.Session, id string) (*domain.Trip, error) {
	if !sess.Valid(s.now()) {
		return nil, domain.ErrUnauthorized
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrTripNotFound
	}
	trip, err := s.trips.GetForUser(ctx, sess.UserID, id)
	if err != nil {
		if errors.Is(err, domain.ErrTripNotFound) {
			return nil, domain.ErrTripNotFound
		}
		return nil, fmt.Errorf("get trip %s: %w", id, err)
	}
	return trip, nil
}

// ExportGPX renders one of the session user's trips as GPX.
func (s *TripService) ExportGPX(ctx context.Context, sess *domain.Session, id string) ([]byte, *domain.Trip, error) {
	trip, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := gpxexport.Encode(trip)
	if err != nil {
		return nil, nil, err
	}
	return data, trip, nil
}
