package usecases_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/samirrijal/tripplanner/internal/core/domain"
)

// --- Mock PlaceSearcher ---

type mockPlaces struct {
	calls    int
	searchFn func(ctx context.Context, text string, size int) ([]domain.Place, error)
}

func (m *mockPlaces) SearchPlaces(ctx context.Context, text string, size int) ([]domain.Place, error) {
	m.calls++
	if m.searchFn != nil {
		return m.searchFn(ctx, text, size)
	}
	return nil, nil
}

// --- Mock RouteProvider ---

type mockRoutes struct {
	calls        int
	lastProfile  domain.ActivityType
	lastWaypoint []domain.Coordinate
	directionsFn func(ctx context.Context, profile domain.ActivityType, waypoints []domain.Coordinate) (domain.Route, error)
}

func (m *mockRoutes) Directions(ctx context.Context, profile domain.ActivityType, waypoints []domain.Coordinate) (domain.Route, error) {
	m.calls++
	m.lastProfile = profile
	m.lastWaypoint = waypoints
	if m.directionsFn != nil {
		return m.directionsFn(ctx, profile, waypoints)
	}
	return domain.Route(waypoints), nil
}

// --- Mock WeatherProvider ---

type mockWeather struct {
	forecastFn func(ctx context.Context, at domain.Coordinate, from time.Time, days int) ([]domain.DayForecast, error)
}

func (m *mockWeather) DailyForecast(ctx context.Context, at domain.Coordinate, from time.Time, days int) ([]domain.DayForecast, error) {
	if m.forecastFn != nil {
		return m.forecastFn(ctx, at, from, days)
	}
	return nil, nil
}

// --- Mock ImageProvider ---

type mockImages struct {
	imageFn func(ctx context.Context, query string) (string, error)
}

func (m *mockImages) LandscapeImage(ctx context.Context, query string) (string, error) {
	if m.imageFn != nil {
		return m.imageFn(ctx, query)
	}
	return "", nil
}

// --- Mock EventPublisher ---

type mockEvents struct {
	mu     sync.Mutex
	events []domain.TripEvent
	err    error
}

func (m *mockEvents) PublishTripEvent(ctx context.Context, ev *domain.TripEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *ev)
	return m.err
}

// --- In-memory CacheService ---

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
	// getErr, when set, fails every Get as an unreachable cache would.
	getErr error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
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
	c.ttls[key] = ttlSeconds
	return nil
}

// --- Mock repositories ---

type mockTripRepo struct {
	createFn     func(ctx context.Context, trip *domain.Trip) error
	listFn       func(ctx context.Context, userID string, limit, offset int) ([]domain.TripSummary, int, error)
	getForUserFn func(ctx context.Context, userID, tripID string) (*domain.Trip, error)
}

func (m *mockTripRepo) Create(ctx context.Context, trip *domain.Trip) error {
	if m.createFn != nil {
		return m.createFn(ctx, trip)
	}
	return nil
}

func (m *mockTripRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.TripSummary, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockTripRepo) GetForUser(ctx context.Context, userID, tripID string) (*domain.Trip, error) {
	if m.getForUserFn != nil {
		return m.getForUserFn(ctx, userID, tripID)
	}
	return nil, domain.ErrTripNotFound
}

// memTripRepo keeps trips in memory and enforces ownership like the real store.
type memTripRepo struct {
	mu    sync.Mutex
	trips map[string]domain.Trip
}

func newMemTripRepo() *memTripRepo {
	return &memTripRepo{trips: map[string]domain.Trip{}}
}

func (r *memTripRepo) Create(ctx context.Context, trip *domain.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trips[trip.ID] = *trip
	return nil
}

func (r *memTripRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.TripSummary, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TripSummary
	for _, t := range r.trips {
		if t.UserID == userID {
			out = append(out, domain.TripSummary{ID: t.ID, Name: t.Name, Location: t.Location, Type: t.Type, DistanceKm: t.DistanceKm(), CreatedAt: t.CreatedAt})
		}
	}
	return out, len(out), nil
}

func (r *memTripRepo) GetForUser(ctx context.Context, userID, tripID string) (*domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trips[tripID]
	if !ok || t.UserID != userID {
		return nil, domain.ErrTripNotFound
	}
	return &t, nil
}

type memUserRepo struct {
	mu       sync.Mutex
	byID     map[string]*domain.User
	createFn func(ctx context.Context, u *domain.User) error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*domain.User{}}
}

func (r *memUserRepo) Create(ctx context.Context, u *domain.User) error {
	if r.createFn != nil {
		return r.createFn(ctx, u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	cp := *u
	r.byID[u.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errors.New("no rows in result set")
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, errors.New("no rows in result set")
	}
	cp := *u
	return &cp, nil
}

// --- helpers ---

func testSession() *domain.Session {
	return &domain.Session{UserID: "user-1", Email: "a@example.com", TokenID: "tok-1", ExpiresAt: time.Now().Add(time.Hour)}
}

// seq returns a deterministic [0,1) source cycling through vals.
func seq(vals ...float64) func() float64 {
	i := 0
	return func() float64 {
		v := vals[i%len(vals)]
		i++
		return v
	}
}

// lineKm builds a north-going route of roughly km length from start.
func lineKm(start domain.Coordinate, km float64) domain.Route {
	// 1 degree of latitude is ~111.19 km at R=6371.
	return domain.Route{start, {Lat: start.Lat + km/111.19494, Lon: start.Lon}}
}
