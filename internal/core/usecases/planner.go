package usecases

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/tripplanner/internal/core/domain"
	"github.com/samirrijal/tripplanner/internal/core/ports"
	"github.com/samirrijal/tripplanner/internal/pkg/geospatial"
	"github.com/samirrijal/tripplanner/internal/pkg/logging"
	"github.com/samirrijal/tripplanner/internal/pkg/metrics"
	"github.com/samirrijal/tripplanner/internal/pkg/telemetry"
)

const forecastCacheTTL = 60 * 60

// Planner runs geocode, route generation, distance and day split for a place.
type Planner struct {
	geocoder     *Geocoder
	routes       *RouteGenerator
	weather      ports.WeatherProvider
	images       ports.ImageProvider
	events       ports.EventPublisher
	cache        ports.CacheService
	forecastDays int
	now          func() time.Time
}

// NewPlanner creates a Planner. weather, images, events and cache may be nil.
func NewPlanner(geocoder *Geocoder, routes *RouteGenerator, weather ports.WeatherProvider,
	images ports.ImageProvider, events ports.EventPublisher, cache ports.CacheService) *Planner {
	return &Planner{
		geocoder:     geocoder,
		routes:       routes,
		weather:      weather,
		images:       images,
		events:       events,
		cache:        cache,
		forecastDays: 3,
		now:          time.Now,
	}
}

// SplitDays divides total km into days of at most typ.MaxPerDay().
// Distances within one day's budget take a single day.
func SplitDays(totalKm float64, typ domain.ActivityType) (days int, perDay float64) {
	maxPerDay := typ.MaxPerDay()
	if totalKm > maxPerDay {
		days = int(math.Ceil(totalKm / maxPerDay))
		return days, geospatial.Round2(totalKm / float64(days))
	}
	return 1, totalKm
}

// Plan produces a TripPlan for location. Every failure is returned as a
// *domain.PlanningFailedError except input and session errors.
func (p *Planner) Plan(ctx context.Context, sess *domain.Session, location string, typ domain.ActivityType) (*domain.TripPlan, error) {
	if !sess.Valid(p.now()) {
		return nil, domain.ErrUnauthorized
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, domain.ErrEmptyLocation
	}
	if typ != domain.ActivityHike && typ != domain.ActivityBike {
		return nil, fmt.Errorf("%w: unknown activity type %q", domain.ErrInvalidInput, typ)
	}

	ctx, span := telemetry.Tracer().Start(ctx, "planner.Plan")
	defer span.End()
	span.SetAttributes(
		attribute.String("trip.location", location),
		attribute.String("trip.type", string(typ)),
	)

	started := p.now()
	log := logging.FromContext(ctx).With("user_id", sess.UserID, "location", location, "type", typ)

	plan, err := p.plan(ctx, location, typ)
	metrics.PlanDuration.WithLabelValues(string(typ)).Observe(time.Since(started).Seconds())
	if err != nil {
		pf := p.failure(ctx, err)
		metrics.PlansTotal.WithLabelValues(string(typ), pf.Kind.String()).Inc()
		span.RecordError(pf.Err)
		span.SetStatus(codes.Error, pf.Kind.String())
		log.Warn("trip planning failed", "cause", pf.Kind.String(), "error", pf.Err)
		return nil, pf
	}

	metrics.PlansTotal.WithLabelValues(string(typ), "ok").Inc()
	metrics.PlannedDistanceKm.WithLabelValues(string(typ)).Observe(plan.TotalDistanceKm)
	span.SetAttributes(
		attribute.Float64("trip.distance_km", plan.TotalDistanceKm),
		attribute.Int("trip.days", plan.DaysRequired),
	)
	log.Info("trip planned", "distance_km", plan.TotalDistanceKm, "days", plan.DaysRequired)

	p.publish(ctx, &domain.TripEvent{
		Kind:       domain.EventTripPlanned,
		UserID:     sess.UserID,
		Location:   location,
		Type:       typ,
		DistanceKm: plan.TotalDistanceKm,
		At:         p.now().UTC(),
	})
	return plan, nil
}

func (p *Planner) plan(ctx context.Context, location string, typ domain.ActivityType) (*domain.TripPlan, error) {
	gctx, gspan := telemetry.Tracer().Start(ctx, "planner.geocode")
	start, err := p.geocoder.Resolve(gctx, location)
	gspan.End()
	if err != nil {
		return nil, err
	}

	rctx, rspan := telemetry.Tracer().Start(ctx, "planner.route")
	route, err := p.routes.Generate(rctx, start, typ)
	rspan.End()
	if err != nil {
		return nil, err
	}
	if !route.Drawable() {
		return nil, &domain.RouteServiceError{Err: fmt.Errorf("route has %d points", len(route))}
	}

	total := geospatial.TotalDistanceKm(route)
	days, perDay := SplitDays(total, typ)

	return &domain.TripPlan{
		Location:        location,
		Type:            typ,
		Route:           route,
		TotalDistanceKm: total,
		DaysRequired:    days,
		KmPerDay:        perDay,
	}, nil
}

// failure maps err to a PlanningFailedError. An expired or cancelled
// context wins over whatever the failing step reported.
func (p *Planner) failure(ctx context.Context, err error) *domain.PlanningFailedError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &domain.PlanningFailedError{Kind: domain.FailureUnknown, Err: fmt.Errorf("%w (last step: %v)", ctxErr, err)}
	}
	return domain.NewPlanningFailed(err)
}

// PlanWithExtras runs Plan and adds a forecast and a landscape image.
// Enrichment failures are logged and leave the field empty.
func (p *Planner) PlanWithExtras(ctx context.Context, sess *domain.Session, location string, typ domain.ActivityType) (*domain.PlanResult, error) {
	plan, err := p.Plan(ctx, sess, location, typ)
	if err != nil {
		return nil, err
	}
	res := &domain.PlanResult{TripPlan: *plan}
	log := logging.FromContext(ctx)

	if p.weather != nil && len(plan.Route) > 0 {
		forecast, err := p.forecast(ctx, plan.Route[0])
		if err != nil {
			log.Warn("forecast unavailable", "location", plan.Location, "error", err)
		} else {
			res.Forecast = forecast
		}
	}

	if p.images != nil {
		url, err := p.images.LandscapeImage(ctx, plan.Location)
		if err != nil {
			log.Warn("image unavailable", "location", plan.Location, "error", err)
		} else {
			res.ImageURL = url
		}
	}
	return res, nil
}

// forecast covers the days starting tomorrow.
func (p *Planner) forecast(ctx context.Context, at domain.Coordinate) ([]domain.DayForecast, error) {
	from := p.now().AddDate(0, 0, 1)
	cacheKey := fmt.Sprintf("forecast:%.2f:%.2f:%s:%d", at.Lat, at.Lon, from.Format("2006-01-02"), p.forecastDays)

	if p.cache != nil {
		if data, err := p.cache.Get(ctx, cacheKey); err == nil {
			var days []domain.DayForecast
			if err := json.Unmarshal(data, &days); err == nil {
				return days, nil
			}
		}
	}

	days, err := p.weather.DailyForecast(ctx, at, from, p.forecastDays)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if data, err := json.Marshal(days); err == nil {
			_ = p.cache.Set(ctx, cacheKey, data, forecastCacheTTL)
		}
	}
	return days, nil
}

// SetForecastDays changes how many days of weather PlanWithExtras fetches.
func (p *Planner) SetForecastDays(n int) {
	if n > 0 {
		p.forecastDays = n
	}
}

func (p *Planner) publish(ctx context.Context, ev *domain.TripEvent) {
	if p.events == nil {
		return
	}
	if err := p.events.PublishTripEvent(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("publish trip event", "kind", ev.Kind, "error", err)
	}
}
