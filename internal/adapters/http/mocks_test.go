package http_test

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/samirrijal/tripplanner/internal/core/domain"
)


// ---- In-memory repositories ----

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]domain.User{}}
}

func (r *memUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	r.users[u.ID] = *u
	return nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &u, nil
}

type memTripRepo struct {
	mu    sync.Mutex
	trips []domain.Trip
}

func (r *memTripRepo) Create(ctx context.Context, t *domain.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trips = append(r.trips, *t)
	return nil
}

func (r *memTripRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.TripSummary, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []domain.TripSummary
	for _, t := range r.trips {
		if t.UserID == userID {
			all = append(all, domain.TripSummary{
				ID: t.ID, Name: t.Name, Location: t.Location, Type: t.Type,
				DistanceKm: t.DistanceKm(), CreatedAt: t.CreatedAt,
			})
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return all[offset:end], total, nil
}

func (r *memTripRepo) GetForUser(ctx context.Context, userID, tripID string) (*domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.trips {
		if t.ID == tripID && t.UserID == userID {
			return &t, nil
		}
	}
	return nil, domain.ErrTripNotFound
}

// ---- Cache ----

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Ping(ctx context.Context) error { return nil }

// ---- Upstream services ----

type mockPlaces struct {
	searchFn func(ctx context.Context, text string, size int) ([]domain.Place, error)
}

func (m *mockPlaces) SearchPlaces(ctx context.Context, text string, size int) ([]domain.Place, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, text, size)
	}
	return []domain.Place{{
		Name:  "Bilbao, Spain",
		Layer: "locality",
		Point: &domain.Coordinate{Lat: 43.263, Lon: -2.935},
	}}, nil
}

type mockRoutes struct {
	directionsFn func(ctx context.Context, profile domain.ActivityType, waypoints []domain.Coordinate) (domain.Route, error)
}

func (m *mockRoutes) Directions(ctx context.Context, profile domain.ActivityType, waypoints []domain.Coordinate) (domain.Route, error) {
	if m.directionsFn != nil {
		return m.directionsFn(ctx, profile, waypoints)
	}
	return domain.Route(waypoints), nil
}

type pinger struct{ err error }

func (p pinger) Ping(ctx context.Context) error { return p.err }
