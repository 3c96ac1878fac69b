// cmd/api/main.go
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

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stock-ledger/internal/app"
	"github.com/ammerola/stock-ledger/internal/core/ports"
	"github.com/ammerola/stock-ledger/internal/handlers"
	"github.com/ammerola/stock-ledger/internal/handlers/middleware"
	"github.com/ammerola/stock-ledger/internal/pkg/config"
	"github.com/ammerola/stock-ledger/internal/pkg/logger"
	"github.com/ammerola/stock-ledger/internal/pkg/metrics"
	"github.com/ammerola/stock-ledger/internal/pkg/tracing"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	slogger := logger.SetupLogger("debug", "json")

	slogger.Info("starting stock ledger api",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slog.SetDefault(slogger)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
		slog.String("storage_driver", cfg.Ledger.StorageDriver),
	)

	ctx := context.Background()

	if cfg.IsProduction() {
		sm, err := config.NewSecretsManager(ctx, cfg, slogger)
		if err == nil {
			err = config.ApplySecrets(ctx, cfg, sm)
		}
		if err != nil {
			slogger.Error("failed to load secrets", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownTracing, err := tracing.InitTracerProvider(tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.App.Name,
		Version:        Version,
		Environment:    cfg.App.Environment,
		JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
		SampleRatio:    cfg.Tracing.SampleRatio,
	}, slogger)
	if err != nil {
		slogger.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	server := setupHTTPServer(cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server", slog.String("address", cfg.GetServerAddress()))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		if err := shutdownTracing(shutdownCtx); err != nil {
			slogger.Error("failed to flush traces", slog.String("error", err.Error()))
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	stores         *app.Stores
	ledger         *app.Ledger
	registry       *prometheus.Registry
	metrics        *metrics.Metrics
	redisClient    *redis.Client
	cache          ports.CacheRepository
	publisher      ports.MovementPublisher
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector
	routes         handlers.Routes
}

func (d *dependencies) cleanup() {
	if d.publisher != nil {
		d.publisher.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.stores != nil {
		d.stores.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	deps.registry = prometheus.NewRegistry()
	deps.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.metrics = metrics.New(deps.registry)

	logger.Info("opening ledger storage", slog.String("driver", cfg.Ledger.StorageDriver))
	stores, err := app.OpenStores(ctx, cfg, 0, logger)
	if err != nil {
		return nil, err
	}
	deps.stores = stores

	// The ledger keeps working without Redis; reads then skip the cache.
	logger.Info("connecting to Redis", slog.String("address", cfg.GetRedisAddress()))
	deps.redisClient = app.NewRedisClient(cfg)
	cache, err := app.NewCache(ctx, cfg, deps.redisClient, logger)
	if err != nil {
		logger.Warn("availability cache disabled", slog.String("error", err.Error()))
	} else {
		deps.cache = cache
	}

	deps.publisher = app.NewPublisher(cfg, logger)

	deps.ledger = app.NewLedger(cfg, stores, app.Options{
		Cache:     deps.cache,
		Publisher: deps.publisher,
		Metrics:   deps.metrics,
	}, logger)

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)

	var database ports.Database
	if stores.Database != nil {
		database = stores.Database
	}

	deps.routes = handlers.Routes{
		Stock:       handlers.NewStockHandler(deps.ledger.Stocks, deps.asynqClient, logger),
		Reservation: handlers.NewReservationHandler(deps.ledger.Reservations, logger),
		Checkout:    handlers.NewCheckoutHandler(deps.ledger.Checkouts, logger),
		Health:      handlers.NewHealthHandler(database, deps.cache, deps.asynqInspector, cfg, logger),
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps.routes)

	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{}))
	}

	// Outermost first
	mws := []func(http.Handler) http.Handler{
		middleware.Recovery(logger),
		middleware.RequestID(cfg.Security.RequestIDHeader),
		middleware.Tracing(mux),
		middleware.Logger(logger),
		middleware.Metrics(deps.metrics, mux),
	}
	if cfg.Security.RateLimitRequests > 0 {
		mws = append(mws, middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration))
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		mws = append(mws, middleware.CORS(cfg.Security.AllowedOrigins))
	}
	if cfg.Security.SecureHeaders {
		mws = append(mws, middleware.SecureHeaders)
	}
	if cfg.Server.RequestTimeout > 0 {
		mws = append(mws, middleware.Timeout(cfg.Server.RequestTimeout))
	}

	return &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           middleware.Chain(mux, mws...),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}
