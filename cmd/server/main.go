package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garrettladley/plaidgate/internal/client/plaid"
	"github.com/garrettladley/plaidgate/internal/metrics"
	"github.com/garrettladley/plaidgate/internal/migrations/postgres"
	xredis "github.com/garrettladley/plaidgate/internal/redis"
	"github.com/garrettladley/plaidgate/internal/server"
	"github.com/garrettladley/plaidgate/internal/service/webhook"
	"github.com/garrettladley/plaidgate/internal/storage"
	"github.com/garrettladley/plaidgate/internal/xhttp"
	"github.com/garrettladley/plaidgate/internal/xslog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const (
	keyPort         = "port"
	keyBackend      = "backend"
	keyCacheTTL     = "key_cache_ttl"
	keyMaxAge       = "max_assertion_age"
	keyMigrations   = "migrations"
	shutdownTimeout = 30 * time.Second
	keyStoreCleanup = 10 * time.Minute
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := server.ReadConfig()
	if err != nil {
		xslog.NewLoggerFromEnv(os.Stderr).ErrorContext(ctx, "failed to read config", xslog.Error(err))
		os.Exit(1)
	}

	logger := xslog.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", xslog.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg server.Config, logger *slog.Logger) error {
	if cfg.Env.IsProduction() && cfg.Plaid.Env == plaid.Sandbox {
		logger.WarnContext(ctx, "running in production against the sandbox provider environment",
			xslog.PlaidEnvironment(cfg.Plaid.Env.String()))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	webhookMetrics := metrics.NewWebhook(reg)

	plaidClient := plaid.New(cfg.Plaid.ClientID, cfg.Plaid.Secret,
		plaid.WithEnvironment(cfg.Plaid.Env),
		plaid.WithTimeout(cfg.Plaid.Timeout),
		plaid.WithLogger(logger),
	)

	redisClient, err := initRedis(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}

	keyStore, backend, err := initStorage(ctx, cfg, redisClient, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.ErrorContext(ctx, "failed to close backend", xslog.Error(err))
		}
	}()
	if closer, ok := keyStore.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.ErrorContext(ctx, "failed to close key store", xslog.Error(err))
			}
		}()
	}

	trustedProxies, err := xhttp.ParseTrustedProxies(cfg.RateLimit.TrustedProxies)
	if err != nil {
		return fmt.Errorf("failed to parse trusted proxies: %w", err)
	}

	pool, err := initPostgres(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize postgres: %w", err)
	}
	if pool != nil {
		defer pool.Close()
	}

	// Services
	keys := webhook.NewKeyCache(keyStore, plaidClient.Webhook,
		webhook.WithKeyTTL(cfg.Webhook.KeyCacheTTL),
		webhook.WithKeyFetchTimeout(cfg.Webhook.KeyFetchTimeout),
		webhook.WithKeyMetrics(webhookMetrics),
	)
	verifier := webhook.NewVerifier(keys, webhook.WithMaxAssertionAge(cfg.Webhook.MaxAssertionAge))
	router := webhook.NewRouter(webhookMetrics)
	processor := webhook.NewProcessor(verifier, router,
		webhook.WithLedger(initLedger(ctx, cfg, pool, logger)),
		webhook.WithProcessorMetrics(webhookMetrics),
	)

	handler := server.NewHandler(server.Deps{
		Logger:       logger,
		Webhook:      processor,
		Categories:   plaidClient.Categories,
		PlaidEnv:     cfg.Plaid.Env,
		ClientID:     cfg.Plaid.ClientID,
		RateLimiter:  backend,
		Metrics:      webhookMetrics,
		Gatherer:     reg,
		MaxBodyBytes: cfg.Webhook.MaxBodyBytes,

		TrustedProxies: trustedProxies,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "starting server",
			xslog.Version(),
			xslog.PlaidEnvironment(cfg.Plaid.Env.String()),
			slog.String(keyPort, cfg.Port),
			slog.Duration(keyCacheTTL, cfg.Webhook.KeyCacheTTL),
			slog.Duration(keyMaxAge, cfg.Webhook.MaxAssertionAge))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.InfoContext(ctx, "shutdown signal received, initiating graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.InfoContext(shutdownCtx, "server stopped")
	return nil
}

func initRedis(ctx context.Context, cfg server.Config, logger *slog.Logger) (*redis.Client, error) {
	client, err := xredis.Open(ctx, xredis.Config{URL: cfg.Redis.URL})
	if errors.Is(err, xredis.ErrNotConfigured) {
		logger.InfoContext(ctx, "REDIS_URL not set, keeping key cache and rate limits in process")
		return nil, nil
	}
	return client, err
}

func initStorage(ctx context.Context, cfg server.Config, redisClient *redis.Client, logger *slog.Logger) (storage.KeyStore, storage.Backend, error) {
	if redisClient == nil {
		logger.InfoContext(ctx, "initializing in-memory backend", slog.String(keyBackend, "memory"))
		return storage.NewMemoryKeyStore(keyStoreCleanup),
			storage.NewMemoryBackend(cfg.RateLimit.Limit, cfg.RateLimit.Burst),
			nil
	}

	logger.InfoContext(ctx, "initializing Redis backend", slog.String(keyBackend, "redis"))
	redisCfg := storage.RedisConfig{Client: redisClient}
	backend, err := storage.NewRedisBackend(redisCfg, cfg.RateLimit.Limit, cfg.RateLimit.Burst)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewRedisKeyStore(redisCfg), backend, nil
}

func initPostgres(ctx context.Context, cfg server.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	if cfg.Database.URL == "" {
		logger.InfoContext(ctx, "DATABASE_URL not set, keeping the delivery ledger in process")
		return nil, nil
	}

	logger.InfoContext(ctx, "initializing PostgreSQL")

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	applied, err := postgres.Apply(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	if len(applied) > 0 {
		logger.InfoContext(ctx, "applied migrations", slog.Any(keyMigrations, applied))
	}

	return pool, nil
}

func initLedger(ctx context.Context, cfg server.Config, pool *pgxpool.Pool, logger *slog.Logger) storage.DeliveryLedger {
	if pool == nil {
		logger.InfoContext(ctx, "initializing in-memory delivery ledger")
		return storage.NewMemoryDeliveryLedger(cfg.Webhook.DedupeRetention)
	}
	logger.InfoContext(ctx, "initializing PostgreSQL delivery ledger")
	return storage.NewPostgresDeliveryLedger(pool)
}
