package ports

import (
	"context"
	"time"

	"github.com/samirrijal/tripplanner/internal/core/domain"
)

// PlaceSearcher looks up candidate places for free text.
type PlaceSearcher interface {
	SearchPlaces(ctx context.Context, text string, size int) ([]domain.Place, error)
}

// RouteProvider returns a routed polyline through the given waypoints.
// Failures are reported as *domain.RouteServiceError.
type RouteProvider interface {
	Directions(ctx context.Context, profile domain.ActivityType, waypoints []domain.Coordinate) (domain.Route, error)
}

// WeatherProvider returns a daily forecast starting at from.
type WeatherProvider interface {
	DailyForecast(ctx context.Context, at domain.Coordinate, from time.Time, days int) ([]domain.DayForecast, error)
}

// ImageProvider finds a representative landscape picture for a place.
type ImageProvider interface {
	LandscapeImage(ctx context.Context, query string) (string, error)
}

// EventPublisher publishes trip events to a message broker.
type EventPublisher interface {
	PublishTripEvent(ctx context.Context, event *domain.TripEvent) error
}

// EventSubscriber consumes trip events from a message broker.
type EventSubscriber interface {
	SubscribeTripEvents(ctx context.Context, durable string, handler func(ctx context.Context, event *domain.TripEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(user *domain.User) (string, *domain.Session, error)
	Verify(token string) (*domain.Session, error)
}

// ObjectStore stores exported trip files.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
}
