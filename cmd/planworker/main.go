package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/tripplanner/internal/adapters/nats"
	"github.com/samirrijal/tripplanner/internal/adapters/ors"
	"github.com/samirrijal/tripplanner/internal/adapters/postgres"
	"github.com/samirrijal/tripplanner/internal/adapters/valkey"
	"github.com/samirrijal/tripplanner/internal/core/ports"
	"github.com/samirrijal/tripplanner/internal/core/usecases"
	"github.com/samirrijal/tripplanner/internal/pkg/config"
	"github.com/samirrijal/tripplanner/internal/pkg/logging"
	"github.com/samirrijal/tripplanner/internal/pkg/upstream"
	"github.com/samirrijal/tripplanner/internal/workflows"
)

func main() {
	cfg, err := config.Load("tripplanner-planworker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Routing.APIKey == "" {
		log.Fatal("config: routing.api_key is required")
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format).With("service", "planworker")

	db, err := postgres.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	var events ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	routing := ors.New(cfg.Routing.BaseURL, cfg.Routing.APIKey, upstream.Options{
		Timeout:       20 * time.Second,
		RatePerMinute: cfg.Routing.RatePerMinute,
	})
	planner := usecases.NewPlanner(
		usecases.NewGeocoder(routing, cache),
		usecases.NewRouteGenerator(routing, usecases.RouteGeneratorConfig{
			HikeRetries: cfg.Routing.HikeRetries,
			HikeMinKm:   cfg.Routing.HikeMinKm,
			HikeMaxKm:   cfg.Routing.HikeMaxKm,
		}),
		nil, nil, events, cache,
	)

	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.TripPlanningWorkflow)
	w.RegisterActivity(&workflows.Activities{
		Planner: planner,
		Trips:   usecases.NewTripService(postgres.NewTripRepo(db), events),
	})

	logger.Info("plan worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
