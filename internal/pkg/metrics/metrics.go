package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripplanner",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tripplanner",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tripplanner",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Planning
	PlansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripplanner",
		Subsystem: "planning",
		Name:      "plans_total",
		Help:      "Planning runs by activity type and outcome",
	}, []string{"type", "result"})

	PlanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tripplanner",
		Subsystem: "planning",
		Name:      "plan_duration_seconds",
		Help:      "End-to-end planning latency",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"type"})

	RouteAttempts = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tripplanner",
		Subsystem: "planning",
		Name:      "route_attempts",
		Help:      "Routing attempts needed per generated route",
		Buckets:   []float64{1, 2, 3, 4, 5},
	}, []string{"type"})

	PlannedDistanceKm = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tripplanner",
		Subsystem: "planning",
		Name:      "distance_km",
		Help:      "Total distance of generated routes",
		Buckets:   []float64{5, 10, 15, 30, 45, 60, 90, 120},
	}, []string{"type"})

	// Upstream APIs
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripplanner",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Requests to third-party APIs",
	}, []string{"service", "status"})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tripplanner",
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Latency of third-party API calls",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"service"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tripplanner",
		Subsystem: "upstream",
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state per upstream (0=closed, 1=half-open, 2=open)",
	}, []string{"service"})

	// Trips
	TripsSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripplanner",
		Subsystem: "trips",
		Name:      "saved_total",
		Help:      "Trips persisted by activity type",
	}, []string{"type"})

	TripsArchived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripplanner",
		Subsystem: "trips",
		Name:      "archived_total",
		Help:      "GPX exports written to object storage",
	}, []string{"result"})

	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripplanner",
		Subsystem: "auth",
		Name:      "events_total",
		Help:      "Signup, login and logout outcomes",
	}, []string{"event", "result"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tripplanner",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripplanner",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripplanner",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tripplanner",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tripplanner",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tripplanner",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		// Route pattern (/api/trips/:id) keeps label cardinality bounded.
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}

// PoolStat is the subset of pgxpool.Stat read by UpdateDBPoolMetrics.
type PoolStat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
}

// UpdateDBPoolMetrics copies pool statistics into the db gauges.
func UpdateDBPoolMetrics(s PoolStat) {
	DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
	DBPoolConnsIdle.Set(float64(s.IdleConns()))
	DBPoolConnsOpen.Set(float64(s.TotalConns()))
}

// ObserveUpstream records one third-party call.
func ObserveUpstream(service string, status int, started time.Time) {
	UpstreamRequests.WithLabelValues(service, strconv.Itoa(status)).Inc()
	UpstreamDuration.WithLabelValues(service).Observe(time.Since(started).Seconds())
}
