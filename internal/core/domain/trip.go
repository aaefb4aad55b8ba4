package domain

import (
	"fmt"
	"strings"
	"time"
)

// ActivityType selects the routing profile and the daily distance budget.
type ActivityType string

const (
	ActivityHike ActivityType = "hike"
	ActivityBike ActivityType = "bike"
)

// ParseActivity converts user input into an ActivityType.
func ParseActivity(s string) (ActivityType, error) {
	switch ActivityType(strings.ToLower(strings.TrimSpace(s))) {
	case ActivityHike:
		return ActivityHike, nil
	case ActivityBike:
		return ActivityBike, nil
	}
	return "", fmt.Errorf("unknown activity type %q (want hike or bike)", s)
}

// MaxPerDay is the distance in km a traveller is expected to cover per day.
func (a ActivityType) MaxPerDay() float64 {
	if a == ActivityBike {
		return 60
	}
	return 15
}

// TripPlan is the outcome of a planning run. It is never stored as is.
type TripPlan struct {
	Location        string       `json:"location"`
	Type            ActivityType `json:"type"`
	Route           Route        `json:"route"`
	TotalDistanceKm float64      `json:"total_distance_km"`
	DaysRequired    int          `json:"days_required"`
	KmPerDay        float64      `json:"km_per_day"`
}

// DayForecast is one day of the destination weather outlook.
type DayForecast struct {
	Date            string  `json:"date"`
	MaxTempC        float64 `json:"max_temp_c"`
	MinTempC        float64 `json:"min_temp_c"`
	PrecipitationMm float64 `json:"precipitation_mm"`
}

// PlanResult is a TripPlan plus best-effort enrichment.
type PlanResult struct {
	TripPlan
	Forecast []DayForecast `json:"forecast,omitempty"`
	ImageURL string        `json:"image_url,omitempty"`
}

// LatLng is the stored point format.
type LatLng struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// RouteDay is one day-indexed leg of a stored trip.
type RouteDay struct {
	Day        int      `json:"day" validate:"min=1"`
	DistanceKm float64  `json:"distanceKm" validate:"gte=0"`
	Points     []LatLng `json:"points" validate:"required,min=2,dive"`
}

// Trip is a saved trip owned by a single user.
type Trip struct {
	ID          string       `json:"_id"`
	UserID      string       `json:"userId"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Location    string       `json:"location"`
	Type        ActivityType `json:"type"`
	Route       []RouteDay   `json:"route"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// DistanceKm sums the stored legs.
func (t *Trip) DistanceKm() float64 {
	var total float64
	for _, d := range t.Route {
		total += d.DistanceKm
	}
	return total
}

// Points flattens all legs into one coordinate sequence.
func (t *Trip) Points() Route {
	var out Route
	for _, d := range t.Route {
		for _, p := range d.Points {
			out = append(out, Coordinate{Lat: p.Lat, Lon: p.Lng})
		}
	}
	return out
}

// NewTrip is the payload accepted when saving a trip.
type NewTrip struct {
	Name        string       `json:"name" validate:"required,max=200"`
	Description string       `json:"description" validate:"max=2000"`
	Location    string       `json:"location" validate:"required,max=200"`
	Type        ActivityType `json:"type" validate:"required,oneof=hike bike"`
	Route       []RouteDay   `json:"route" validate:"required,min=1,dive"`
}

// TripSummary is the list view of a Trip.
type TripSummary struct {
	ID         string       `json:"_id"`
	Name       string       `json:"name"`
	Location   string       `json:"location"`
	Type       ActivityType `json:"type"`
	DistanceKm float64      `json:"distanceKm"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// StoredRoute converts a plan into the persisted shape: a single day=1 leg
// carrying the full distance and every point.
func StoredRoute(plan TripPlan) []RouteDay {
	pts := make([]LatLng, len(plan.Route))
	for i, c := range plan.Route {
		pts[i] = LatLng{Lat: c.Lat, Lng: c.Lon}
	}
	return []RouteDay{{Day: 1, DistanceKm: plan.TotalDistanceKm, Points: pts}}
}
