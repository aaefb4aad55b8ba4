package ports

import (
	"context"

	"github.com/samirrijal/tripplanner/internal/core/domain"
)

// UserRepository persists accounts.
type UserRepository interface {
	// Create stores a new user. It returns domain.ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// TripRepository persists saved trips. Every read is scoped to one owner.
type TripRepository interface {
	Create(ctx context.Context, trip *domain.Trip) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.TripSummary, int, error)
	// GetForUser returns domain.ErrTripNotFound when the trip is missing or owned by someone else.
	GetForUser(ctx context.Context, userID, tripID string) (*domain.Trip, error)
}

// TripLookup reads a trip regardless of owner. Only trusted background
// consumers use it.
type TripLookup interface {
	GetByID(ctx context.Context, tripID string) (*domain.Trip, error)
}
