package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imaginify/imaginify/backend/go-services/internal/config"
	"github.com/imaginify/imaginify/backend/go-services/internal/database"
	"github.com/imaginify/imaginify/backend/go-services/internal/metadata"
	"github.com/imaginify/imaginify/backend/go-services/internal/users"
	"github.com/imaginify/imaginify/backend/go-services/pkg/logger"
)

// Standalone metadata relay. Runs the same loop the service starts in-process,
// for deployments that set RELAY_ENABLED=false on the webhook replicas.
func main() {
	once := flag.Bool("once", false, "flush one batch and exit")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := database.Connect(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, database.RetryPolicy{
		Attempts: cfg.MongoDB.ConnectAttempts,
		Backoff:  cfg.MongoDB.ConnectBackoff,
	})
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}()

	repo := users.NewMongoUserRepository(client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.UsersCollection))
	propagator, err := metadata.NewPropagator(cfg.Clerk.SecretKey, cfg.Clerk.APIURL)
	if err != nil {
		logger.Fatalf("failed to initialize metadata propagator: %v", err)
	}
	if cfg.Clerk.SecretKey == "" {
		logger.Warn("CLERK_SECRET_KEY is not set: pending users will be marked synced without a provider call")
	}

	relay := metadata.NewRelay(repo, propagator, metadata.Options{
		BatchSize: cfg.Relay.BatchSize,
		Interval:  cfg.Relay.Interval,
		Lease:     cfg.Relay.Lease,
	})

	if *once {
		n, err := relay.FlushOnce(ctx)
		if err != nil {
			logger.Fatalf("metadata relay flush failed: %v", err)
		}
		logger.Infof("metadata relay synced %d user(s)", n)
		return
	}

	logger.Infof("metadata relay running (interval=%s batch=%d)", cfg.Relay.Interval, cfg.Relay.BatchSize)
	relay.Run(ctx)
	logger.Infof("metadata relay stopped")
}
