package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/tripplanner/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// no timeout: fast internal checks
	app.Get("/health", HealthHandler(deps.Version))
	app.Get("/ready", ReadyHandler(deps))

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/signup", timeout.NewWithContext(SignupHandler(deps), requestTimeout))
	auth.Post("/login", timeout.NewWithContext(LoginHandler(deps), requestTimeout))
	auth.Get("/me", RequireSession(deps), timeout.NewWithContext(MeHandler(deps), requestTimeout))
	auth.Post("/logout", RequireSession(deps), timeout.NewWithContext(LogoutHandler(deps), requestTimeout))

	// Planning fans out to several upstreams and gets its own budget.
	api.Post("/plan", RequireSession(deps), timeout.NewWithContext(PlanHandler(deps), deps.planTimeout()))

	trips := api.Group("/trips", RequireSession(deps))
	trips.Post("/", timeout.NewWithContext(CreateTripHandler(deps), requestTimeout))
	trips.Get("/", timeout.NewWithContext(ListTripsHandler(deps), requestTimeout))
	trips.Get("/:id", timeout.NewWithContext(GetTripHandler(deps), requestTimeout))
	trips.Get("/:id/gpx", timeout.NewWithContext(TripGPXHandler(deps), requestTimeout))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	if deps.NATS != nil {
		app.Use("/ws", WebSocketUpgrade(deps))
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}
}
