// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stock-ledger/internal/adapters/db"
	"github.com/ammerola/stock-ledger/internal/adapters/events"
	"github.com/ammerola/stock-ledger/internal/adapters/memory"
	redis_a "github.com/ammerola/stock-ledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stock-ledger/internal/adapters/storage"
	"github.com/ammerola/stock-ledger/internal/core/ports"
	"github.com/ammerola/stock-ledger/internal/core/services"
	"github.com/ammerola/stock-ledger/internal/pkg/config"
	"github.com/ammerola/stock-ledger/internal/pkg/metrics"
)

// Stores is the persistence side of the ledger for one storage driver.
type Stores struct {
	Driver    string
	Stocks    ports.StockStore
	Ledger    ports.MovementLedger
	Settler   ports.ReservationSettler
	Checkouts ports.CheckoutRepository
	Catalog   ports.ItemCatalog
	Items     ports.CatalogWriter

	// Database is nil for the memory driver.
	Database *db.Database

	closers []func()
}

// Close releases the connections held by the stores.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// MemoryStores returns empty in-process stores.
func MemoryStores() *Stores {
	catalog := memory.NewCatalog()
	stocks := memory.NewStockStore()
	ledger := memory.NewMovementLedger()
	return &Stores{
		Driver:    config.StorageDriverMemory,
		Stocks:    stocks,
		Ledger:    ledger,
		Settler:   memory.NewSettler(stocks, ledger),
		Checkouts: memory.NewCheckoutRepository(),
		Catalog:   catalog,
		Items:     catalog,
	}
}

// PostgresStores builds the stores over an open database.
func PostgresStores(database *db.Database, logger *slog.Logger) *Stores {
	sqlxDB := db.OpenSQLX(database.Pool())
	catalog := db.NewCatalogRepository(sqlxDB, logger)

	return &Stores{
		Driver:    config.StorageDriverPostgres,
		Stocks:    db.NewStockStore(database, logger),
		Ledger:    db.NewMovementLedger(database, logger),
		Settler:   db.NewSettler(database, logger),
		Checkouts: db.NewCheckoutRepository(database, logger),
		Catalog:   catalog,
		Items:     catalog,
		Database:  database,
		closers: []func(){
			func() { _ = sqlxDB.Close() },
			database.Close,
		},
	}
}

// OpenStores connects to the configured storage driver. Postgres migrations
// run first when auto-migrate is on.
func OpenStores(ctx context.Context, cfg *config.Config, maxConns int32, logger *slog.Logger) (*Stores, error) {
	switch cfg.Ledger.StorageDriver {
	case config.StorageDriverMemory, "":
		logger.Warn("using in-memory storage, state is lost on restart")
		return MemoryStores(), nil

	case config.StorageDriverPostgres:
		if cfg.Database.AutoMigrate {
			if err := RunMigrations(ctx, cfg, logger); err != nil {
				return nil, err
			}
		}

		database, err := db.NewDatabase(ctx, DatabaseConfig(cfg, maxConns), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return PostgresStores(database, logger), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Ledger.StorageDriver)
	}
}

// DatabaseConfig maps application settings onto the pool config. A positive
// maxConns overrides the configured pool size.
func DatabaseConfig(cfg *config.Config, maxConns int32) *db.Config {
	dbConfig := &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}
	if maxConns > 0 {
		dbConfig.MaxConnections = maxConns
		dbConfig.MinConnections = min(dbConfig.MinConnections, maxConns)
	}
	return dbConfig
}

// RunMigrations applies the embedded schema, retrying while the database
// comes up.
func RunMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	migrationConfig := &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}
	if err := db.RunMigrationsWithRetry(ctx, migrationConfig, logger, 3); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// RetryPolicy reads the optimistic-lock retry settings.
func RetryPolicy(cfg *config.Config) services.RetryPolicy {
	return services.RetryPolicy{
		MaxAttempts:    cfg.Ledger.RetryMaxAttempts,
		InitialBackoff: cfg.Ledger.RetryInitialBackoff,
		MaxBackoff:     cfg.Ledger.RetryMaxBackoff,
		Multiplier:     cfg.Ledger.RetryMultiplier,
	}
}

// SweepPolicy reads the reservation expiry settings.
func SweepPolicy(cfg *config.Config) services.SweepPolicy {
	return services.SweepPolicy{
		TTL:         cfg.Ledger.ReservationTTL,
		BatchSize:   cfg.Ledger.SweepBatchSize,
		Concurrency: cfg.Ledger.SweepConcurrency,
	}
}

// Options are the optional collaborators of the ledger services.
type Options struct {
	Cache     ports.CacheRepository
	Publisher ports.MovementPublisher
	Metrics   *metrics.Metrics
}

// Ledger is the assembled service layer.
type Ledger struct {
	Stocks       *services.StockService
	Reservations *services.ReservationManager
	Checkouts    *services.CheckoutCoordinator
}

// NewLedger wires the services over stores.
func NewLedger(cfg *config.Config, stores *Stores, opts Options, logger *slog.Logger) *Ledger {
	cc := services.NewConcurrencyController(stores.Stocks, RetryPolicy(cfg), opts.Metrics, logger)
	recorder := services.NewMovementRecorder(stores.Ledger, cc, services.RecorderOptions{
		Cache:     opts.Cache,
		Publisher: opts.Publisher,
		Metrics:   opts.Metrics,
	}, logger)

	reservations := services.NewReservationManager(stores.Ledger, stores.Settler, cc, recorder, opts.Metrics, logger)
	stocks := services.NewStockService(stores.Stocks, stores.Ledger, stores.Catalog, cc, recorder, opts.Cache,
		services.StockServiceConfig{
			AvailabilityTTL:  cfg.Ledger.AvailabilityCacheTTL,
			MovementPageSize: cfg.Ledger.MovementPageSize,
		}, logger)
	checkouts := services.NewCheckoutCoordinator(stores.Checkouts, reservations, stores.Stocks, stores.Catalog,
		cc, SweepPolicy(cfg), opts.Metrics, logger)

	return &Ledger{
		Stocks:       stocks,
		Reservations: reservations,
		Checkouts:    checkouts,
	}
}

// NewRedisClient opens the cache connection.
func NewRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddress(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
}

// NewCache pings client and wraps it. The ledger runs without a cache when
// Redis is unreachable, so the error is returned for logging only.
func NewCache(ctx context.Context, cfg *config.Config, client *redis.Client, logger *slog.Logger) (ports.CacheRepository, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return redis_a.NewCache(client, cfg.Redis.TTL, logger), nil
}

// NewPublisher returns the Kafka publisher when enabled, otherwise a no-op.
func NewPublisher(cfg *config.Config, logger *slog.Logger) ports.MovementPublisher {
	if !cfg.Kafka.Enabled {
		return events.NoopPublisher{}
	}
	return events.NewKafkaPublisher(events.KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.MovementTopic,
		BatchTimeout: cfg.Kafka.BatchTimeout,
		WriteTimeout: cfg.Kafka.WriteTimeout,
	}, logger)
}

// NewExportStorage opens the object store movement exports are written to.
func NewExportStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.ObjectStorage, error) {
	switch cfg.Export.Driver {
	case "local", "":
		return storage.NewLocalStorage(cfg.Export.LocalDir, logger), nil
	case "s3":
		if cfg.Export.S3Bucket == "" {
			return nil, errors.New("export bucket is not configured")
		}
		return storage.NewS3Storage(ctx, &storage.S3Config{
			Region:          cfg.AWS.Region,
			Bucket:          cfg.Export.S3Bucket,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Endpoint:        cfg.Export.S3Endpoint,
			UsePathStyle:    cfg.Export.UsePathStyle,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown export driver %q", cfg.Export.Driver)
	}
}
