package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/imaginify/imaginify/backend/go-services/handlers"
	"github.com/imaginify/imaginify/backend/go-services/internal/config"
	"github.com/imaginify/imaginify/backend/go-services/internal/database"
	"github.com/imaginify/imaginify/backend/go-services/internal/metadata"
	"github.com/imaginify/imaginify/backend/go-services/internal/users"
	"github.com/imaginify/imaginify/backend/go-services/internal/webhook"
	"github.com/imaginify/imaginify/backend/go-services/pkg/logger"
	"github.com/imaginify/imaginify/backend/go-services/pkg/metrics"
	"github.com/imaginify/imaginify/backend/go-services/pkg/middleware"
)

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v webhook_secret_set=%v clerk_key_set=%v",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Webhook.Secret != "", cfg.Clerk.SecretKey != "")
	if cfg.Webhook.Secret == "" {
		logger.Warn("WEBHOOK_SECRET is not set: every webhook delivery will be answered with 500")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Global middlewares: logging + recovery + request ids
	r.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())

	health := handlers.NewHealthHandler()

	// Redis is optional and only used by the distributed rate limiter.
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
		} else {
			logger.Infof("connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
		defer func() { _ = rdb.Close() }()
		health.AddCheck("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

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
	health.AddCheck("mongo", func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) })

	repo := users.NewMongoUserRepository(client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.UsersCollection))
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Fatalf("failed to ensure user indexes: %v", err)
	}
	userSvc := users.NewService(repo)

	propagator, err := metadata.NewPropagator(cfg.Clerk.SecretKey, cfg.Clerk.APIURL)
	if err != nil {
		logger.Fatalf("failed to initialize metadata propagator: %v", err)
	}
	relay := metadata.NewRelay(repo, propagator, metadata.Options{
		BatchSize: cfg.Relay.BatchSize,
		Interval:  cfg.Relay.Interval,
		Lease:     cfg.Relay.Lease,
	})
	if cfg.Relay.Enabled {
		go relay.Run(ctx)
		logger.Infof("metadata relay started (interval=%s batch=%d)", cfg.Relay.Interval, cfg.Relay.BatchSize)
	}

	dispatcher := webhook.NewDispatcher(cfg.Webhook.Secret, userSvc, relay)
	handlers.NewWebhookHandler(cfg, dispatcher).Register(r.Group("/"))
	health.Register(r)
	handlers.RegisterSwagger(r)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("Starting user-sync service on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}
