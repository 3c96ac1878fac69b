// internal/pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingRequiredConfig marks a required setting that is empty or still
// a MISSING_ placeholder.
var ErrMissingRequiredConfig = errors.New("missing required configuration")

// Storage drivers
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Asynq    AsynqConfig
	AWS      AWSConfig
	Security SecurityConfig
	Server   ServerConfig
	Ledger   LedgerConfig
	Kafka    KafkaConfig
	Tracing  TracingConfig
	Metrics  MetricsConfig
	Export   ExportConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `required:"true"`
	Environment string // development, staging, production
	Version     string
	LogLevel    string
	LogFormat   string // json, text
	Debug       bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host               string `required:"true"`
	Port               string `required:"true"`
	User               string
	Password           string
	Name               string `required:"true"`
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	EnableQueryLogging bool
	AutoMigrate        bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	TTL          time.Duration
}

// AsynqConfig holds Asynq configuration
type AsynqConfig struct {
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	Concurrency     int
	Queues          map[string]int // queue name -> priority
	StrictPriority  bool
	RetryMax        int
	ShutdownTimeout time.Duration
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SecretName      string // Secrets Manager entry holding DB_PASSWORD and REDIS_PASSWORD
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimitRequests int
	RateLimitDuration time.Duration
	AllowedOrigins    []string
	SecureHeaders     bool
	RequestIDHeader   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string `required:"true"`
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	MaxHeaderBytes  int
	GracefulTimeout time.Duration
}

// LedgerConfig tunes the stock ledger core.
type LedgerConfig struct {
	StorageDriver        string
	RetryMaxAttempts     int
	RetryInitialBackoff  time.Duration
	RetryMaxBackoff      time.Duration
	RetryMultiplier      float64
	ReservationTTL       time.Duration
	SweepInterval        time.Duration
	SweepBatchSize       int
	SweepConcurrency     int
	AvailabilityCacheTTL time.Duration
	MovementPageSize     int
}

// KafkaConfig holds movement event publishing settings
type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	MovementTopic string
	BatchTimeout  time.Duration
	WriteTimeout  time.Duration
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled        bool
	JaegerEndpoint string
	SampleRatio    float64
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// ExportConfig selects where movement exports are written.
type ExportConfig struct {
	Driver       string // s3 or local
	LocalDir     string
	S3Bucket     string
	S3Endpoint   string // For MinIO in development
	UsePathStyle bool
	URLExpiry    time.Duration
}

// Load loads configuration from the environment.
func Load(logger *slog.Logger) (*Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env == "development" || env == "local" {
		if err := godotenv.Load(); err != nil {
			logger.Warn("no .env file found, using environment variables",
				slog.String("error", err.Error()))
		} else {
			logger.Info(".env file loaded successfully")
		}
	}

	cfg := FromViper(newViper(env), env)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func newViper(env string) *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v, env)
	return v
}

// FromViper builds a Config from v. Keys are environment variable names.
func FromViper(v *viper.Viper, env string) *Config {
	redisAddr := fmt.Sprintf("%s:%s", v.GetString("REDIS_HOST"), v.GetString("REDIS_PORT"))

	return &Config{
		App: AppConfig{
			Name:        v.GetString("APP_NAME"),
			Environment: env,
			Version:     v.GetString("APP_VERSION"),
			LogLevel:    v.GetString("LOG_LEVEL"),
			LogFormat:   v.GetString("LOG_FORMAT"),
			Debug:       v.GetBool("APP_DEBUG"),
		},
		Database: DatabaseConfig{
			Host:               v.GetString("DB_HOST"),
			Port:               v.GetString("DB_PORT"),
			User:               v.GetString("DB_USER"),
			Password:           v.GetString("DB_PASSWORD"),
			Name:               v.GetString("DB_NAME"),
			SSLMode:            v.GetString("DB_SSL_MODE"),
			MaxConnections:     v.GetInt32("DB_MAX_CONNECTIONS"),
			MinConnections:     v.GetInt32("DB_MIN_CONNECTIONS"),
			MaxConnLifetime:    v.GetDuration("DB_CONNECTION_LIFETIME"),
			MaxConnIdleTime:    v.GetDuration("DB_IDLE_TIME"),
			HealthCheckPeriod:  v.GetDuration("DB_HEALTH_CHECK_PERIOD"),
			ConnectTimeout:     v.GetDuration("DB_CONNECT_TIMEOUT"),
			EnableQueryLogging: v.GetBool("DB_QUERY_LOGGING"),
			AutoMigrate:        v.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Host:         v.GetString("REDIS_HOST"),
			Port:         v.GetString("REDIS_PORT"),
			Password:     v.GetString("REDIS_PASSWORD"),
			DB:           v.GetInt("REDIS_DB"),
			MaxRetries:   v.GetInt("REDIS_MAX_RETRIES"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
			TTL:          v.GetDuration("REDIS_TTL"),
		},
		Asynq: AsynqConfig{
			RedisAddr:       redisAddr,
			RedisPassword:   v.GetString("REDIS_PASSWORD"),
			RedisDB:         v.GetInt("ASYNQ_REDIS_DB"),
			Concurrency:     v.GetInt("ASYNQ_CONCURRENCY"),
			Queues:          parseQueues(v.GetString("ASYNQ_QUEUES")),
			StrictPriority:  v.GetBool("ASYNQ_STRICT_PRIORITY"),
			RetryMax:        v.GetInt("ASYNQ_RETRY_MAX"),
			ShutdownTimeout: v.GetDuration("ASYNQ_SHUTDOWN_TIMEOUT"),
		},
		AWS: AWSConfig{
			Region:          v.GetString("AWS_REGION"),
			AccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
			SecretName:      v.GetString("AWS_SECRET_NAME"),
		},
		Security: SecurityConfig{
			RateLimitRequests: v.GetInt("RATE_LIMIT_REQUESTS"),
			RateLimitDuration: v.GetDuration("RATE_LIMIT_DURATION"),
			AllowedOrigins:    splitList(v.GetString("ALLOWED_ORIGINS")),
			SecureHeaders:     v.GetBool("SECURE_HEADERS"),
			RequestIDHeader:   v.GetString("REQUEST_ID_HEADER"),
		},
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetString("SERVER_PORT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
			RequestTimeout:  v.GetDuration("SERVER_REQUEST_TIMEOUT"),
			MaxHeaderBytes:  v.GetInt("SERVER_MAX_HEADER_BYTES"),
			GracefulTimeout: v.GetDuration("SERVER_GRACEFUL_TIMEOUT"),
		},
		Ledger: LedgerConfig{
			StorageDriver:        strings.ToLower(v.GetString("STORAGE_DRIVER")),
			RetryMaxAttempts:     v.GetInt("RETRY_MAX_ATTEMPTS"),
			RetryInitialBackoff:  v.GetDuration("RETRY_INITIAL_BACKOFF"),
			RetryMaxBackoff:      v.GetDuration("RETRY_MAX_BACKOFF"),
			RetryMultiplier:      v.GetFloat64("RETRY_MULTIPLIER"),
			ReservationTTL:       v.GetDuration("RESERVATION_TTL"),
			SweepInterval:        v.GetDuration("SWEEP_INTERVAL"),
			SweepBatchSize:       v.GetInt("SWEEP_BATCH_SIZE"),
			SweepConcurrency:     v.GetInt("SWEEP_CONCURRENCY"),
			AvailabilityCacheTTL: v.GetDuration("AVAILABILITY_CACHE_TTL"),
			MovementPageSize:     v.GetInt("MOVEMENT_PAGE_SIZE"),
		},
		Kafka: KafkaConfig{
			Enabled:       v.GetBool("KAFKA_ENABLED"),
			Brokers:       splitList(v.GetString("KAFKA_BROKERS")),
			MovementTopic: v.GetString("KAFKA_MOVEMENT_TOPIC"),
			BatchTimeout:  v.GetDuration("KAFKA_BATCH_TIMEOUT"),
			WriteTimeout:  v.GetDuration("KAFKA_WRITE_TIMEOUT"),
		},
		Tracing: TracingConfig{
			Enabled:        v.GetBool("TRACING_ENABLED"),
			JaegerEndpoint: v.GetString("JAEGER_ENDPOINT"),
			SampleRatio:    v.GetFloat64("TRACING_SAMPLE_RATIO"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
			Path:    v.GetString("METRICS_PATH"),
		},
		Export: ExportConfig{
			Driver:       strings.ToLower(v.GetString("EXPORT_DRIVER")),
			LocalDir:     v.GetString("EXPORT_LOCAL_DIR"),
			S3Bucket:     v.GetString("EXPORT_S3_BUCKET"),
			S3Endpoint:   v.GetString("EXPORT_S3_ENDPOINT"),
			UsePathStyle: v.GetBool("EXPORT_S3_PATH_STYLE"),
			URLExpiry:    v.GetDuration("EXPORT_URL_EXPIRY"),
		},
	}
}

func setDefaults(v *viper.Viper, env string) {
	dev := env == "development" || env == "local"

	v.SetDefault("APP_NAME", "stock-ledger")
	v.SetDefault("APP_VERSION", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("APP_DEBUG", dev)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "ledger")
	v.SetDefault("DB_PASSWORD", "ledger_dev")
	v.SetDefault("DB_NAME", "stock_ledger")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_CONNECTIONS", 25)
	v.SetDefault("DB_MIN_CONNECTIONS", 5)
	v.SetDefault("DB_CONNECTION_LIFETIME", time.Hour)
	v.SetDefault("DB_IDLE_TIME", 30*time.Minute)
	v.SetDefault("DB_HEALTH_CHECK_PERIOD", time.Minute)
	v.SetDefault("DB_CONNECT_TIMEOUT", 10*time.Second)
	v.SetDefault("DB_QUERY_LOGGING", false)
	v.SetDefault("DB_AUTO_MIGRATE", dev)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
	v.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
	v.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 2)
	v.SetDefault("REDIS_TTL", time.Hour)

	v.SetDefault("ASYNQ_REDIS_DB", 0)
	v.SetDefault("ASYNQ_CONCURRENCY", 10)
	v.SetDefault("ASYNQ_QUEUES", "critical:6,default:3,low:1")
	v.SetDefault("ASYNQ_STRICT_PRIORITY", false)
	v.SetDefault("ASYNQ_RETRY_MAX", 3)
	v.SetDefault("ASYNQ_SHUTDOWN_TIMEOUT", 30*time.Second)

	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ACCESS_KEY_ID", "")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	v.SetDefault("AWS_SECRET_NAME", "")

	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_DURATION", time.Minute)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("SECURE_HEADERS", env == "production")
	v.SetDefault("REQUEST_ID_HEADER", "X-Request-ID")

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("SERVER_REQUEST_TIMEOUT", 10*time.Second)
	v.SetDefault("SERVER_MAX_HEADER_BYTES", 1<<20)
	v.SetDefault("SERVER_GRACEFUL_TIMEOUT", 30*time.Second)

	v.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)
	v.SetDefault("RETRY_MAX_ATTEMPTS", 5)
	v.SetDefault("RETRY_INITIAL_BACKOFF", 25*time.Millisecond)
	v.SetDefault("RETRY_MAX_BACKOFF", 800*time.Millisecond)
	v.SetDefault("RETRY_MULTIPLIER", 2.0)
	v.SetDefault("RESERVATION_TTL", 15*time.Minute)
	v.SetDefault("SWEEP_INTERVAL", time.Minute)
	v.SetDefault("SWEEP_BATCH_SIZE", 200)
	v.SetDefault("SWEEP_CONCURRENCY", 8)
	v.SetDefault("AVAILABILITY_CACHE_TTL", 30*time.Second)
	v.SetDefault("MOVEMENT_PAGE_SIZE", 100)

	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_MOVEMENT_TOPIC", "stock-movements")
	v.SetDefault("KAFKA_BATCH_TIMEOUT", 10*time.Millisecond)
	v.SetDefault("KAFKA_WRITE_TIMEOUT", 5*time.Second)

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("JAEGER_ENDPOINT", "http://localhost:14268/api/traces")
	v.SetDefault("TRACING_SAMPLE_RATIO", 1.0)

	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("METRICS_PATH", "/metrics")

	v.SetDefault("EXPORT_DRIVER", "local")
	v.SetDefault("EXPORT_LOCAL_DIR", os.TempDir()+"/stock-ledger-exports")
	v.SetDefault("EXPORT_S3_BUCKET", "stock-ledger-exports")
	v.SetDefault("EXPORT_S3_ENDPOINT", "")
	v.SetDefault("EXPORT_S3_PATH_STYLE", dev)
	v.SetDefault("EXPORT_URL_EXPIRY", time.Hour)
}

// Validate runs the validators that apply to the environment.
func (c *Config) Validate() error {
	validators := []Validator{&BasicValidator{}, &LedgerValidator{}}
	if c.IsProduction() {
		validators = append(validators, &ProductionValidator{}, &SecurityValidator{})
	}

	for _, v := range validators {
		if err := v.Validate(c); err != nil {
			return err
		}
	}
	return nil
}

// ValidateWorker checks the settings the background worker depends on. The
// worker settles reservations the API created, so both processes must share
// storage.
func (c *Config) ValidateWorker() error {
	if c.Ledger.StorageDriver == StorageDriverMemory {
		return fmt.Errorf("storage driver %q is private to one process; the worker needs %q",
			StorageDriverMemory, StorageDriverPostgres)
	}
	return nil
}

// GetDatabaseURL returns the formatted database connection string
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the formatted server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// GetRedisAddress returns host:port of the Redis server
func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// SweepCronSpec is the asynq scheduler spec for the expiry sweep.
func (c *Config) SweepCronSpec() string {
	return "@every " + c.Ledger.SweepInterval.String()
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "local"
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseQueues(queuesStr string) map[string]int {
	queues := make(map[string]int)
	for _, pair := range strings.Split(queuesStr, ",") {
		parts := strings.Split(pair, ":")
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		priority, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err == nil && name != "" {
			queues[name] = priority
		}
	}
	if len(queues) == 0 {
		queues["default"] = 1
	}
	return queues
}
