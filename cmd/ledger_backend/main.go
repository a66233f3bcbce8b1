package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/mfi_ledger/internal/core/services"
	"github.com/SscSPs/mfi_ledger/internal/handlers"
	"github.com/SscSPs/mfi_ledger/internal/middleware"
	"github.com/SscSPs/mfi_ledger/internal/platform/config"
	"github.com/SscSPs/mfi_ledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/mfi_ledger/internal/repositories/eventlog"
	"github.com/SscSPs/mfi_ledger/internal/utils/refgen"
	"github.com/SscSPs/mfi_ledger/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
)

// @title MFI Ledger API
// @version 1.0
// @description Double-entry ledger core for a microfinance institution: chart of accounts, accounting periods, journal posting and member obligations.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return err
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	logger.Info("Running database migrations...")
	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
		return err
	}

	eventStore, closeStore, err := newEventStore(ctx, cfg, dbPool, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	refs, err := refgen.New(cfg.SnowflakeNode)
	if err != nil {
		return err
	}

	repos := pgsql.NewRepositoryProvider(dbPool, pgsql.TxOptions{
		MaxAttempts:  cfg.TxMaxAttempts,
		LockTimeout:  cfg.TxLockTimeout,
		RetryBackoff: cfg.TxRetryBackoff,
	}, eventStore)
	serviceContainer := services.NewServiceContainer(repos, refs)

	relay := services.NewOutboxRelay(repos.UnitOfWork, repos.OutboxRepo, eventStore,
		services.WithRelayInterval(cfg.OutboxPollInterval),
		services.WithRelayBatchSize(cfg.OutboxBatchSize),
	)
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		relay.Run(middleware.WithLogger(ctx, logger.With(slog.String("component", "outbox_relay"))))
	}()

	rateLimiter, closeLimiter, err := newRateLimiter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLimiter()

	if err := handlers.RegisterValidators(); err != nil {
		return err
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if err := r.SetTrustedProxies(nil); err != nil {
		return err
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, rateLimiter, dbPool)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", slog.String("error", err.Error()))
	}
	<-relayDone
	return nil
}

// newEventStore opens the event store on the configured driver. The sqlx
// driver uses a separate database/sql pool that is closed on shutdown.
func newEventStore(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, logger *slog.Logger) (*eventlog.Store, func(), error) {
	storeLogger := logger.With(slog.String("component", "eventstore"))
	if cfg.EventStoreDriver == config.EventStoreDriverSQLX {
		db, err := database.OpenSQLX(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store, err := eventlog.NewSQLXStore(db, cfg.EventStoreTable, storeLogger)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, func() { _ = db.Close() }, nil
	}

	store, err := eventlog.NewPgxStore(dbPool, cfg.EventStoreTable, storeLogger)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

// newRateLimiter keeps counters in Redis when REDIS_URL is set, otherwise in memory.
func newRateLimiter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*limiter.Limiter, func(), error) {
	if cfg.RedisURL == "" {
		l, err := middleware.NewLimiter(cfg.RateLimit, nil)
		return l, func() {}, err
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	logger.Info("Rate limiter uses redis store")

	l, err := middleware.NewLimiter(cfg.RateLimit, client)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return l, func() { _ = client.Close() }, nil
}
