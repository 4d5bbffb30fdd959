package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/auditflow/rule-engine/internal/adapter/api"
	"github.com/auditflow/rule-engine/internal/adapter/dedup"
	"github.com/auditflow/rule-engine/internal/adapter/metrics"
	"github.com/auditflow/rule-engine/internal/adapter/repository/postgres"
	redisrepo "github.com/auditflow/rule-engine/internal/adapter/repository/redis"
	"github.com/auditflow/rule-engine/internal/domain"
	"github.com/auditflow/rule-engine/internal/pkg/config"
	"github.com/auditflow/rule-engine/internal/pkg/logger"
	"github.com/auditflow/rule-engine/internal/usecase"
)

const consumerGroup = "rule-engine-group"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting rule engine")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A broken store is fatal: the engine must not consume events it
	// cannot turn into durable alerts.
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		log.Error("failed to open postgres connection", "error", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	alertRepo := postgres.NewAlertRepository(db, log)
	if err := alertRepo.EnsureSchema(ctx); err != nil {
		log.Error("failed to ensure alerts schema", "error", err)
		os.Exit(1)
	}
	log.Info("connected to postgres")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to redis")

	m := metrics.NewEngineMetrics()

	cache := dedup.New(cfg.DedupCacheTTL, cfg.DedupSweepInterval, log)
	go cache.Run(ctx)

	codec := domain.NewCodec()
	writer := usecase.NewAlertWriter(alertRepo, cache, log, m)

	// Unique consumer name so multiple engine instances can share the group.
	consumerName := "rule-engine-" + uuid.NewString()
	streamRepo := redisrepo.NewStreamRepository(redisClient, log, consumerGroup, consumerName,
		cfg.StreamBatchSize, cfg.StreamBlockTimeout)
	streamRepo.EnsureGroup(ctx)

	consumer := usecase.NewConsumeEventsUseCase(streamRepo, writer, codec, log, m,
		cfg.ConsumerBackoff, cfg.ShutdownTimeout)
	consumer.Start(ctx)
	log.Info("consuming audit events", "group", consumerGroup, "consumer", consumerName)

	health := api.NewHealth()
	healthServer := &http.Server{
		Addr:    cfg.HealthAddr,
		Handler: api.NewRouter(health),
	}
	go func() {
		log.Info("health endpoint listening", "addr", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	health.SetShuttingDown()

	consumer.Stop()

	if err := db.Close(); err != nil {
		log.Error("failed to close postgres pool", "error", err)
	}
	if err := redisClient.Close(); err != nil {
		log.Error("failed to close redis client", "error", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Error("health server shutdown failed", "error", err)
	}

	log.Info("rule engine shut down gracefully")
}
