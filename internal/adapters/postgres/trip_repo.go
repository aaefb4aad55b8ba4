package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/tripplanner/internal/core/domain"
)

// TripRepo implements ports.TripRepository. The route is kept as JSONB in
// the same day/points shape the API returns.
type TripRepo struct {
	db *DB
}

func NewTripRepo(db *DB) *TripRepo {
	return &TripRepo{db: db}
}

func (r *TripRepo) Create(ctx context.Context, trip *domain.Trip) error {
	route, err := json.Marshal(trip.Route)
	if err != nil {
		return fmt.Errorf("encode route: %w", err)
	}
	err = r.db.Pool.QueryRow(ctx, `
		INSERT INTO trips (id, user_id, name, description, location, type, route, distance_km, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, trip.ID, trip.UserID, trip.Name, trip.Description, trip.Location, string(trip.Type),
		route, trip.DistanceKm(), trip.CreatedAt).Scan(&trip.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert trip: %w", err)
	}
	return nil
}

// ListByUser returns one page of the user's trips, newest first, and the
// user's total trip count.
func (r *TripRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.TripSummary, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM trips WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, location, type, distance_km, created_at
		FROM trips
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	trips := make([]domain.TripSummary, 0, limit)
	for rows.Next() {
		var s domain.TripSummary
		var typ string
		if err := rows.Scan(&s.ID, &s.Name, &s.Location, &typ, &s.DistanceKm, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		s.Type = domain.ActivityType(typ)
		trips = append(trips, s)
	}
	return trips, total, rows.Err()
}

// GetForUser returns a trip only when userID owns it.
func (r *TripRepo) GetForUser(ctx context.Context, userID, tripID string) (*domain.Trip, error) {
	var t domain.Trip
	var typ string
	var route []byte
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, user_id, name, description, location, type, route, created_at
		FROM trips WHERE id = $1 AND user_id = $2
	`, tripID, userID).Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &t.Location, &typ, &route, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTripNotFound
		}
		return nil, err
	}
	t.Type = domain.ActivityType(typ)
	if err := json.Unmarshal(route, &t.Route); err != nil {
		return nil, fmt.Errorf("decode route of trip %s: %w", t.ID, err)
	}
	return &t, nil
}

// GetByID reads a trip regardless of owner. It serves background jobs that
// act on events, never user requests.
func (r *TripRepo) GetByID(ctx context.Context, tripID string) (*domain.Trip, error) {
	var userID string
	if err := r.db.Pool.QueryRow(ctx, `SELECT user_id FROM trips WHERE id = $1`, tripID).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTripNotFound
		}
		return nil, err
	}
	return r.GetForUser(ctx, userID, tripID)
}
