package domain

import "time"

// Event kinds published on the trip event stream.
const (
	EventTripPlanned = "trip.planned"
	EventTripSaved   = "trip.saved"
)

// TripEvent is broadcast when a user plans or saves a trip.
type TripEvent struct {
	Kind       string       `json:"kind"`
	UserID     string       `json:"user_id"`
	TripID     string       `json:"trip_id,omitempty"`
	Location   string       `json:"location"`
	Type       ActivityType `json:"type"`
	DistanceKm float64      `json:"distance_km"`
	At         time.Time    `json:"at"`
}
