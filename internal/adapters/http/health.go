package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	checkOK            = "ok"
	checkNotConfigured = "not configured"
)

// HealthHandler reports liveness with uptime and build version.
func HealthHandler(version string) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": version,
		})
	}
}

// pingCheck renders one backing service's state. required services that
// are missing count as failures.
func pingCheck(ctx context.Context, p Pinger, required bool) (string, bool) {
	if p == nil {
		return checkNotConfigured, !required
	}
	if err := p.Ping(ctx); err != nil {
		return "error: " + err.Error(), false
	}
	return checkOK, true
}

// ReadyHandler answers 503 when Postgres is down, or when NATS or the cache
// are configured but unreachable. Upstream APIs with an open breaker make
// the answer "degraded" but keep it 200, since only planning is affected.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string, 3)
		ready := true
		var ok bool

		checks["database"], ok = pingCheck(ctx, deps.DB, true)
		ready = ready && ok
		checks["cache"], ok = pingCheck(ctx, deps.Cache, false)
		ready = ready && ok

		switch {
		case deps.NATS == nil:
			checks["nats"] = checkNotConfigured
		case deps.NATS.IsConnected():
			checks["nats"] = checkOK
		default:
			checks["nats"] = "disconnected"
			ready = false
		}

		upstreams := make(map[string]string, len(deps.Upstreams))
		degraded := false
		for _, u := range deps.Upstreams {
			st := u.Status()
			upstreams[st.Service] = st.State
			degraded = degraded || st.Open()
		}

		status, code := "ready", fiber.StatusOK
		switch {
		case !ready:
			status, code = "not ready", fiber.StatusServiceUnavailable
		case degraded:
			status = "degraded"
		}

		return c.Status(code).JSON(fiber.Map{
			"status":    status,
			"checks":    checks,
			"upstreams": upstreams,
		})
	}
}
