package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	natsadapter "github.com/samirrijal/tripplanner/internal/adapters/nats"
	"github.com/samirrijal/tripplanner/internal/adapters/objectstore"
	"github.com/samirrijal/tripplanner/internal/adapters/postgres"
	"github.com/samirrijal/tripplanner/internal/core/usecases"
	"github.com/samirrijal/tripplanner/internal/pkg/config"
	"github.com/samirrijal/tripplanner/internal/pkg/logging"
)

const durableName = "trip-archiver"

func main() {
	cfg, err := config.Load("tripplanner-archiver")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format).With("service", "archiver")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = logging.WithLogger(ctx, logger)

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	store, err := objectstore.New(ctx, objectstore.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		log.Fatalf("object store: %v", err)
	}

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	archiver := usecases.NewArchiver(postgres.NewTripRepo(db), store)
	if err := sub.SubscribeTripEvents(ctx, durableName, archiver.HandleTripEvent); err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	logger.Info("archiver started", "bucket", store.Bucket(), "durable", durableName)
	<-ctx.Done()
	logger.Info("archiver stopping")
}
