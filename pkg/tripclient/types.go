package tripclient

import "time"

// User is the account behind a session.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Session is the client-side handle on an authenticated identity. It is
// created by Signup or Login and ends at Logout or on any 401 response.
type Session struct {
	Token    string
	User     User
	IssuedAt time.Time
}

// Coordinate is a planned route point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DayForecast is one day of the destination outlook.
type DayForecast struct {
	Date            string  `json:"date"`
	MaxTempC        float64 `json:"max_temp_c"`
	MinTempC        float64 `json:"min_temp_c"`
	PrecipitationMm float64 `json:"precipitation_mm"`
}

// Plan is the result of a planning run. Forecast and ImageURL are only set
// when extras were requested and available.
type Plan struct {
	Location        string        `json:"location"`
	Type            string        `json:"type"`
	Route           []Coordinate  `json:"route"`
	TotalDistanceKm float64       `json:"total_distance_km"`
	DaysRequired    int           `json:"days_required"`
	KmPerDay        float64       `json:"km_per_day"`
	Forecast        []DayForecast `json:"forecast,omitempty"`
	ImageURL        string        `json:"image_url,omitempty"`
}

// LatLng is a stored route point.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RouteDay is one leg of a stored trip.
type RouteDay struct {
	Day        int      `json:"day"`
	DistanceKm float64  `json:"distanceKm"`
	Points     []LatLng `json:"points"`
}

// NewTrip is the payload for SaveTrip.
type NewTrip struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location"`
	Type        string     `json:"type"`
	Route       []RouteDay `json:"route"`
}

// Trip is a saved trip.
type Trip struct {
	ID          string     `json:"_id"`
	UserID      string     `json:"userId"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location"`
	Type        string     `json:"type"`
	Route       []RouteDay `json:"route"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// TripSummary is a list entry.
type TripSummary struct {
	ID         string    `json:"_id"`
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	Type       string    `json:"type"`
	DistanceKm float64   `json:"distanceKm"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TripPage is one page of ListTrips.
type TripPage struct {
	Data       []TripSummary `json:"data"`
	Pagination struct {
		Offset int `json:"offset"`
		Limit  int `json:"limit"`
		Total  int `json:"total"`
	} `json:"pagination"`
}
