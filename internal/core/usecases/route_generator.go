package usecases

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/samirrijal/tripplanner/internal/core/domain"
	"github.com/samirrijal/tripplanner/internal/core/ports"
	"github.com/samirrijal/tripplanner/internal/pkg/geospatial"
	"github.com/samirrijal/tripplanner/internal/pkg/logging"
	"github.com/samirrijal/tripplanner/internal/pkg/metrics"
)

const (
	// Hike waypoints are offset by up to ±hikeJitter/2 degrees per axis.
	hikeJitter    = 0.035
	hikeWaypoints = 3
	// Bike end point is start + [bikeMinDelta, bikeMinDelta+bikeDeltaSpan) on both axes.
	bikeMinDelta  = 0.3
	bikeDeltaSpan = 0.3
)

// RouteGeneratorConfig bounds hike generation.
type RouteGeneratorConfig struct {
	// HikeRetries is the number of extra attempts after an out-of-range hike.
	HikeRetries int
	HikeMinKm   float64
	HikeMaxKm   float64
}

// DefaultRouteGeneratorConfig allows one retry for hikes outside [5, 60] km.
func DefaultRouteGeneratorConfig() RouteGeneratorConfig {
	return RouteGeneratorConfig{HikeRetries: 1, HikeMinKm: 5, HikeMaxKm: 60}
}

// RouteGenerator builds hike loops and bike point-to-point routes.
type RouteGenerator struct {
	routes ports.RouteProvider
	cfg    RouteGeneratorConfig
	rnd    func() float64
}

// NewRouteGenerator creates a RouteGenerator.
func NewRouteGenerator(routes ports.RouteProvider, cfg RouteGeneratorConfig) *RouteGenerator {
	if cfg.HikeRetries < 0 {
		cfg.HikeRetries = 0
	}
	return &RouteGenerator{routes: routes, cfg: cfg, rnd: rand.Float64}
}

// WithRand replaces the uniform [0,1) source used for waypoint jitter.
func (g *RouteGenerator) WithRand(rnd func() float64) *RouteGenerator {
	g.rnd = rnd
	return g
}

// Generate returns a routed polyline starting at start.
//
// A routing failure is returned immediately. Only an out-of-range hike
// distance triggers another attempt; once the retry budget is spent the
// last route is returned as is.
func (g *RouteGenerator) Generate(ctx context.Context, start domain.Coordinate, typ domain.ActivityType) (domain.Route, error) {
	switch typ {
	case domain.ActivityBike:
		return g.bike(ctx, start)
	case domain.ActivityHike:
		return g.hike(ctx, start)
	default:
		return nil, fmt.Errorf("unsupported activity type %q", typ)
	}
}

func (g *RouteGenerator) bike(ctx context.Context, start domain.Coordinate) (domain.Route, error) {
	delta := bikeMinDelta + g.rnd()*bikeDeltaSpan
	end := domain.Coordinate{Lat: start.Lat + delta, Lon: start.Lon + delta}

	route, err := g.routes.Directions(ctx, domain.ActivityBike, []domain.Coordinate{start, end})
	if err != nil {
		return nil, err
	}
	metrics.RouteAttempts.WithLabelValues(string(domain.ActivityBike)).Observe(1)
	return route, nil
}

func (g *RouteGenerator) hike(ctx context.Context, start domain.Coordinate) (domain.Route, error) {
	log := logging.FromContext(ctx)
	maxAttempts := 1 + g.cfg.HikeRetries

	var route domain.Route
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		waypoints := make([]domain.Coordinate, 0, hikeWaypoints+2)
		waypoints = append(waypoints, start)
		for i := 0; i < hikeWaypoints; i++ {
			waypoints = append(waypoints, domain.Coordinate{
				Lat: start.Lat + (g.rnd()-0.5)*hikeJitter,
				Lon: start.Lon + (g.rnd()-0.5)*hikeJitter,
			})
		}
		waypoints = append(waypoints, start)

		var err error
		route, err = g.routes.Directions(ctx, domain.ActivityHike, waypoints)
		if err != nil {
			return nil, err
		}

		km := geospatial.TotalDistanceKm(route)
		if km >= g.cfg.HikeMinKm && km <= g.cfg.HikeMaxKm {
			metrics.RouteAttempts.WithLabelValues(string(domain.ActivityHike)).Observe(float64(attempt))
			return route, nil
		}
		log.Debug("hike distance out of range",
			"attempt", attempt, "distance_km", km,
			"min_km", g.cfg.HikeMinKm, "max_km", g.cfg.HikeMaxKm)
	}

	metrics.RouteAttempts.WithLabelValues(string(domain.ActivityHike)).Observe(float64(maxAttempts))
	log.Info("hike retry budget exhausted, keeping last route", "attempts", maxAttempts)
	return route, nil
}
