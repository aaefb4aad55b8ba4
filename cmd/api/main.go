package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/tripplanner/internal/adapters/http"
	natsadapter "github.com/samirrijal/tripplanner/internal/adapters/nats"
	"github.com/samirrijal/tripplanner/internal/adapters/openmeteo"
	"github.com/samirrijal/tripplanner/internal/adapters/ors"
	"github.com/samirrijal/tripplanner/internal/adapters/postgres"
	"github.com/samirrijal/tripplanner/internal/adapters/unsplash"
	"github.com/samirrijal/tripplanner/internal/adapters/valkey"
	"github.com/samirrijal/tripplanner/internal/core/ports"
	"github.com/samirrijal/tripplanner/internal/core/usecases"
	"github.com/samirrijal/tripplanner/internal/pkg/config"
	"github.com/samirrijal/tripplanner/internal/pkg/logging"
	"github.com/samirrijal/tripplanner/internal/pkg/telemetry"
	"github.com/samirrijal/tripplanner/internal/pkg/token"
	"github.com/samirrijal/tripplanner/internal/pkg/upstream"
)

var version = "dev"

func main() {
	cfg, err := config.Load("tripplanner-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.RequireSecrets(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go reportPoolStats(ctx, db)

	// Cache: geocode/forecast read-through and the revoked-token store.
	// Planning works without it; logout then only ends the client session.
	var cache ports.CacheService
	var cachePinger http.Pinger
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache, cachePinger = vc, vc
	}

	// NATS: trip events out, and the per-user WebSocket relay.
	var events ports.EventPublisher
	deps := &http.Dependencies{
		DB:          db,
		Cache:       cachePinger,
		Version:     version,
		PlanTimeout: cfg.Planning.Timeout,
	}
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		events = pub
		deps.NATS = pub.Conn()
	}

	// Upstream services
	routing := ors.New(cfg.Routing.BaseURL, cfg.Routing.APIKey, upstream.Options{
		Timeout:       20 * time.Second,
		RatePerMinute: cfg.Routing.RatePerMinute,
	})
	forecasts := openmeteo.New(cfg.Weather.BaseURL, upstream.Options{Timeout: 5 * time.Second})
	var weather ports.WeatherProvider = forecasts
	deps.Upstreams = []http.UpstreamReporter{routing, forecasts}
	var images ports.ImageProvider
	if cfg.Images.AccessKey != "" {
		photos := unsplash.New(cfg.Images.BaseURL, cfg.Images.AccessKey, upstream.Options{
			Timeout:       5 * time.Second,
			RatePerMinute: 50,
		})
		images = photos
		deps.Upstreams = append(deps.Upstreams, photos)
	}

	tokens, err := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("token manager: %v", err)
	}

	// Use cases
	geocoder := usecases.NewGeocoder(routing, cache)
	routes := usecases.NewRouteGenerator(routing, usecases.RouteGeneratorConfig{
		HikeRetries: cfg.Routing.HikeRetries,
		HikeMinKm:   cfg.Routing.HikeMinKm,
		HikeMaxKm:   cfg.Routing.HikeMaxKm,
	})
	planner := usecases.NewPlanner(geocoder, routes, weather, images, events, cache)
	planner.SetForecastDays(cfg.Weather.Days)

	deps.Auth = usecases.NewAuthService(postgres.NewUserRepo(db), tokens, cache)
	deps.Planner = planner
	deps.Trips = usecases.NewTripService(postgres.NewTripRepo(db), events)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024,
		AppName:      "TripPlanner API",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: http.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Link, Location, X-Request-ID",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			db.ReportPoolStats()
		}
	}
}
