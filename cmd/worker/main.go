// cmd/worker/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stock-ledger/internal/app"
	"github.com/ammerola/stock-ledger/internal/core/ports"
	"github.com/ammerola/stock-ledger/internal/pkg/config"
	"github.com/ammerola/stock-ledger/internal/pkg/logger"
	"github.com/ammerola/stock-ledger/internal/pkg/metrics"
	"github.com/ammerola/stock-ledger/internal/pkg/tracing"
	"github.com/ammerola/stock-ledger/internal/workers"
)

func main() {
	slogger := logger.SetupLogger("info", "json")

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := cfg.ValidateWorker(); err != nil {
		slogger.Error("invalid worker configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slog.SetDefault(slogger)
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.Asynq.RedisAddr),
		slog.String("storage_driver", cfg.Ledger.StorageDriver))

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
		ServiceName:    cfg.App.Name + "-worker",
		Version:        cfg.App.Version,
		Environment:    cfg.App.Environment,
		JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
		SampleRatio:    cfg.Tracing.SampleRatio,
	}, slogger)
	if err != nil {
		slogger.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Fewer connections for worker
	stores, err := app.OpenStores(ctx, cfg, 10, slogger)
	if err != nil {
		slogger.Error("failed to open ledger storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer stores.Close()

	redisClient := app.NewRedisClient(cfg)
	defer redisClient.Close()

	var cache ports.CacheRepository
	if c, err := app.NewCache(ctx, cfg, redisClient, slogger); err != nil {
		slogger.Warn("availability cache disabled", slog.String("error", err.Error()))
	} else {
		cache = c
	}

	publisher := app.NewPublisher(cfg, slogger)
	defer publisher.Close()

	ledger := app.NewLedger(cfg, stores, app.Options{
		Cache:     cache,
		Publisher: publisher,
		Metrics:   metrics.New(nil),
	}, slogger)

	exportStorage, err := app.NewExportStorage(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize export storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.Asynq.Concurrency,
		Queues:          cfg.Asynq.Queues,
		StrictPriority:  cfg.Asynq.StrictPriority,
		ErrorHandler:    asynq.ErrorHandlerFunc(handleError),
		RetryDelayFunc:  exponentialBackoff,
		ShutdownTimeout: cfg.Asynq.ShutdownTimeout,
		HealthCheckFunc: healthCheck,
		Logger:          newAsynqLogger(slogger),
	})

	mux := asynq.NewServeMux()

	expiryProcessor := workers.NewExpiryProcessor(ledger.Checkouts, slogger)
	mux.HandleFunc(workers.TypeExpireReservations, expiryProcessor.ProcessExpire)

	exportProcessor := workers.NewExportProcessor(ledger.Stocks, exportStorage, cfg.Export.URLExpiry, slogger)
	mux.HandleFunc(workers.TypeExportMovements, exportProcessor.ProcessExport)

	// The sweep is enqueued on a fixed interval; Unique keeps overlapping
	// ticks from stacking up while a slow sweep is still running.
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger: newAsynqLogger(slogger),
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				slogger.Debug("sweep not enqueued", slog.String("error", err.Error()))
			}
		},
	})
	entryID, err := scheduler.Register(cfg.SweepCronSpec(), workers.NewExpireReservationsTask(),
		asynq.Unique(cfg.Ledger.SweepInterval))
	if err != nil {
		slogger.Error("failed to register reservation sweep", slog.String("error", err.Error()))
		os.Exit(1)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(mux); err != nil {
			slogger.Error("failed to run worker server", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	go func() {
		if err := scheduler.Run(); err != nil {
			slogger.Error("failed to run scheduler", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues),
		slog.String("sweep_schedule", cfg.SweepCronSpec()),
		slog.String("sweep_entry_id", entryID))

	sig := <-shutdown
	slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

	scheduler.Shutdown()
	srv.Shutdown()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		slogger.Error("failed to flush traces", slog.String("error", err.Error()))
	}

	slogger.Info("worker shutdown complete")
}

func handleError(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	slog.ErrorContext(ctx, "task processing failed",
		slog.String("type", task.Type()),
		slog.String("payload", string(task.Payload())),
		slog.Int("retried", retried),
		slog.Int("max_retry", maxRetry),
		slog.String("error", err.Error()))
}

func exponentialBackoff(n int, e error, t *asynq.Task) time.Duration {
	baseDelay := time.Second
	maxDelay := 10 * time.Minute
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func healthCheck(err error) {
	if err != nil {
		slog.Error("worker health check failed", slog.String("error", err.Error()))
	}
}

// asynqLogger adapts slog for Asynq
type asynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) *asynqLogger {
	return &asynqLogger{
		logger: logger.With(slog.String("component", "asynq")),
	}
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
