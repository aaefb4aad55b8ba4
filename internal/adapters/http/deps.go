package http

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/tripplanner/internal/core/usecases"
	"github.com/samirrijal/tripplanner/internal/pkg/upstream"
)

// Pinger is a backing service that can report its connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// UpstreamReporter exposes the breaker state of a third-party API client.
type UpstreamReporter interface {
	Status() upstream.Status
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Auth    *usecases.AuthService
	Planner *usecases.Planner
	Trips   *usecases.TripService
	NATS    *nats.Conn
	DB      Pinger
	Cache   Pinger

	// Upstreams are reported by /ready. An open breaker degrades readiness
	// without failing it.
	Upstreams []UpstreamReporter

	// Version is reported by the health check.
	Version string

	// PlanTimeout bounds a whole planning run. Zero means 30s.
	PlanTimeout time.Duration
}

func (d *Dependencies) planTimeout() time.Duration {
	if d.PlanTimeout <= 0 {
		return 30 * time.Second
	}
	return d.PlanTimeout
}
