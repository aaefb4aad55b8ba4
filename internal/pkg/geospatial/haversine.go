package geospatial

import (
	"math"

	"github.com/golang/geo/s2"

	"github.com/samirrijal/tripplanner/internal/core/domain"
)

// EarthRadiusKm is the mean Earth radius used for all distances.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between a and b.
// s2.LatLng.Distance uses the haversine formula.
func DistanceKm(a, b domain.Coordinate) float64 {
	pa := s2.LatLngFromDegrees(a.Lat, a.Lon)
	pb := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return pa.Distance(pb).Radians() * EarthRadiusKm
}

// TotalDistanceKm sums consecutive-pair distances along route, rounded to
// two decimals. Empty and single-point routes are 0.
func TotalDistanceKm(route domain.Route) float64 {
	var total float64
	for i := 1; i < len(route); i++ {
		total += DistanceKm(route[i-1], route[i])
	}
	return Round2(total)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
