package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testViper(env string, overrides map[string]interface{}) *viper.Viper {
	v := viper.New()
	setDefaults(v, env)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg := FromViper(testViper("development", nil), "development")

	assert.Equal(t, StorageDriverPostgres, cfg.Ledger.StorageDriver)
	assert.Equal(t, 5, cfg.Ledger.RetryMaxAttempts)
	assert.Equal(t, 25*time.Millisecond, cfg.Ledger.RetryInitialBackoff)
	assert.Equal(t, 800*time.Millisecond, cfg.Ledger.RetryMaxBackoff)
	assert.Equal(t, 2.0, cfg.Ledger.RetryMultiplier)
	assert.Equal(t, 15*time.Minute, cfg.Ledger.ReservationTTL)
	assert.Equal(t, time.Minute, cfg.Ledger.SweepInterval)
	assert.Equal(t, 200, cfg.Ledger.SweepBatchSize)
	assert.Equal(t, 8, cfg.Ledger.SweepConcurrency)
	assert.Equal(t, 100, cfg.Ledger.MovementPageSize)
	assert.Equal(t, map[string]int{"critical": 6, "default": 3, "low": 1}, cfg.Asynq.Queues)
	assert.Equal(t, "localhost:6379", cfg.Asynq.RedisAddr)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "@every 1m0s", cfg.SweepCronSpec())

	require.NoError(t, cfg.Validate())
}

func TestFromViper_Overrides(t *testing.T) {
	cfg := FromViper(testViper("development", map[string]interface{}{
		"STORAGE_DRIVER":     "MEMORY",
		"KAFKA_ENABLED":      true,
		"KAFKA_BROKERS":      "k1:9092, k2:9092",
		"RETRY_MAX_ATTEMPTS": 20,
		"SWEEP_INTERVAL":     "30s",
	}), "development")

	assert.Equal(t, StorageDriverMemory, cfg.Ledger.StorageDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 20, cfg.Ledger.RetryMaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Ledger.SweepInterval)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		env       string
		overrides map[string]interface{}
		wantErr   string
		missing   bool
	}{
		{
			name:      "unknown_storage_driver",
			env:       "development",
			overrides: map[string]interface{}{"STORAGE_DRIVER": "sqlite"},
			wantErr:   "unknown storage driver",
		},
		{
			name:      "zero_retry_attempts",
			env:       "development",
			overrides: map[string]interface{}{"RETRY_MAX_ATTEMPTS": 0},
			wantErr:   "retry max attempts",
		},
		{
			name:      "inverted_backoff_bounds",
			env:       "development",
			overrides: map[string]interface{}{"RETRY_INITIAL_BACKOFF": "2s", "RETRY_MAX_BACKOFF": "1s"},
			wantErr:   "backoff bounds",
		},
		{
			name:      "non_positive_ttl",
			env:       "development",
			overrides: map[string]interface{}{"RESERVATION_TTL": "0s"},
			wantErr:   "reservation ttl",
		},
		{
			name:      "missing_server_port",
			env:       "development",
			overrides: map[string]interface{}{"SERVER_PORT": ""},
			missing:   true,
		},
		{
			name:      "kafka_without_brokers",
			env:       "development",
			overrides: map[string]interface{}{"KAFKA_ENABLED": true, "KAFKA_BROKERS": ""},
			missing:   true,
		},
		{
			name:      "production_rejects_disabled_ssl",
			env:       "production",
			overrides: map[string]interface{}{"DB_PASSWORD": "s3cret"},
			wantErr:   "SSL",
		},
		{
			name:      "production_rejects_placeholder_password",
			env:       "production",
			overrides: map[string]interface{}{"DB_PASSWORD": "MISSING_DB_PASSWORD", "DB_SSL_MODE": "require"},
			missing:   true,
		},
		{
			name: "production_rejects_memory_driver",
			env:  "production",
			overrides: map[string]interface{}{
				"DB_PASSWORD": "s3cret", "DB_SSL_MODE": "require", "STORAGE_DRIVER": "memory",
			},
			wantErr: "memory storage driver",
		},
		{
			name: "production_rejects_wildcard_origin",
			env:  "production",
			overrides: map[string]interface{}{
				"DB_PASSWORD": "s3cret", "DB_SSL_MODE": "require",
			},
			wantErr: "wildcard origin",
		},
		{
			name: "production_ok",
			env:  "production",
			overrides: map[string]interface{}{
				"DB_PASSWORD": "s3cret", "DB_SSL_MODE": "require",
				"ALLOWED_ORIGINS": "https://shop.example.com",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FromViper(testViper(tt.env, tt.overrides), tt.env)
			err := cfg.Validate()

			switch {
			case tt.missing:
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMissingRequiredConfig))
			case tt.wantErr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateWorker(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		wantErr bool
	}{
		{name: "postgres_is_shared", driver: StorageDriverPostgres},
		{name: "memory_is_refused", driver: StorageDriverMemory, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FromViper(testViper("development", map[string]interface{}{"STORAGE_DRIVER": tt.driver}), "development")

			err := cfg.ValidateWorker()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), StorageDriverMemory)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseQueues(t *testing.T) {
	assert.Equal(t, map[string]int{"critical": 6, "low": 1}, parseQueues("critical:6, low:1, bad, x:y"))
	assert.Equal(t, map[string]int{"default": 1}, parseQueues(""))
}

type fakeSecretClient struct {
	calls  int
	secret *string
	err    error
}

func (f *fakeSecretClient) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: f.secret}, nil
}

func TestAWSSecretsManager_CachesAndApplies(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := &fakeSecretClient{secret: aws.String(`{"DB_PASSWORD":"db-pw","REDIS_PASSWORD":"redis-pw"}`)}
	sm := newAWSSecretsManager(client, "stock-ledger/prod", logger)

	cfg := FromViper(testViper("production", nil), "production")
	require.NoError(t, ApplySecrets(context.Background(), cfg, sm))

	assert.Equal(t, "db-pw", cfg.Database.Password)
	assert.Equal(t, "redis-pw", cfg.Redis.Password)
	assert.Equal(t, "redis-pw", cfg.Asynq.RedisPassword)

	val, err := sm.GetSecret(context.Background(), SecretDBPassword)
	require.NoError(t, err)
	assert.Equal(t, "db-pw", val)
	assert.Equal(t, 1, client.calls)

	_, err = sm.GetSecret(context.Background(), "MISSING")
	assert.Error(t, err)
}

func TestAWSSecretsManager_FetchError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sm := newAWSSecretsManager(&fakeSecretClient{err: errors.New("denied")}, "x", logger)

	cfg := FromViper(testViper("development", nil), "development")
	err := ApplySecrets(context.Background(), cfg, sm)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
	assert.Equal(t, "ledger_dev", cfg.Database.Password)
}

func TestEnvSecretsManager(t *testing.T) {
	t.Setenv(SecretDBPassword, "from-env")
	sm := NewEnvSecretsManager()

	cfg := FromViper(testViper("development", nil), "development")
	require.NoError(t, ApplySecrets(context.Background(), cfg, sm))
	assert.Equal(t, "from-env", cfg.Database.Password)
}
