package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/samirrijal/tripplanner/internal/core/domain"
	"github.com/samirrijal/tripplanner/internal/core/ports"
	"github.com/samirrijal/tripplanner/internal/pkg/gpxexport"
	"github.com/samirrijal/tripplanner/internal/pkg/logging"
	"github.com/samirrijal/tripplanner/internal/pkg/metrics"
)

// Archiver copies saved trips to object storage as GPX.
type Archiver struct {
	trips ports.TripLookup
	store ports.ObjectStore
}

// NewArchiver creates an Archiver.
func NewArchiver(trips ports.TripLookup, store ports.ObjectStore) *Archiver {
	return &Archiver{trips: trips, store: store}
}

// HandleTripEvent archives the trip behind a trip.saved event. Other kinds
// are ignored. Errors wrapping domain.ErrUnprocessableEvent are final.
func (a *Archiver) HandleTripEvent(ctx context.Context, ev *domain.TripEvent) error {
	if ev.Kind != domain.EventTripSaved {
		return nil
	}
	if ev.TripID == "" {
		metrics.TripsArchived.WithLabelValues("skipped").Inc()
		return fmt.Errorf("%w: trip.saved without trip id", domain.ErrUnprocessableEvent)
	}

	trip, err := a.trips.GetByID(ctx, ev.TripID)
	if err != nil {
		if errors.Is(err, domain.ErrTripNotFound) {
			metrics.TripsArchived.WithLabelValues("skipped").Inc()
			return fmt.Errorf("%w: trip %s: %v", domain.ErrUnprocessableEvent, ev.TripID, err)
		}
		metrics.TripsArchived.WithLabelValues("error").Inc()
		return fmt.Errorf("load trip %s: %w", ev.TripID, err)
	}

	data, err := gpxexport.Encode(trip)
	if err != nil {
		metrics.TripsArchived.WithLabelValues("skipped").Inc()
		return fmt.Errorf("%w: %v", domain.ErrUnprocessableEvent, err)
	}

	key := gpxexport.ObjectKey(trip)
	if err := a.store.Put(ctx, key, "application/gpx+xml", data); err != nil {
		metrics.TripsArchived.WithLabelValues("error").Inc()
		return fmt.Errorf("store %s: %w", key, err)
	}

	metrics.TripsArchived.WithLabelValues("ok").Inc()
	logging.FromContext(ctx).Info("trip archived", "trip_id", trip.ID, "key", key, "bytes", len(data))
	return nil
}
