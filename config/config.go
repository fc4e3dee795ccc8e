package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	HTTP        ServerConfig
	MySQL       MySQLConfig
	Log         LogConfig
	Gateway     GatewayConfig
	Webhooks    WebhooksConfig
	RateLimit   RateLimitConfig
	Idempotency IdempotencyConfig
	Withdrawals WithdrawalsConfig
	Jobs        JobsConfig
}

type AppConfig struct {
	ServiceName string
	BaseURL     string
}

type ServerConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type GatewayConfig struct {
	BaseURL       string
	Project       string
	APIKey        string
	CallbackToken string
	HTTPTimeout   time.Duration
}

type WebhooksConfig struct {
	MaxAttempts int
	BackoffBase time.Duration
	HTTPTimeout time.Duration
}

type RateLimitConfig struct {
	Window      time.Duration
	CreateLimit int64
	SyncLimit   int64
	ReadLimit   int64
}

type IdempotencyConfig struct {
	LeaseDuration time.Duration
}

type WithdrawalsConfig struct {
	MinAmount int64
	FlatFee   int64
}

type JobsConfig struct {
	ReconcileInterval   time.Duration
	ReconcileStaleAfter time.Duration
	BatchSize           int32
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "paybridge"),
			BaseURL:     getEnv("APP_BASE_URL", "http://localhost:8080"),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Gateway: GatewayConfig{
			BaseURL:       getEnv("GATEWAY_BASE_URL", ""),
			Project:       getEnv("GATEWAY_PROJECT", ""),
			APIKey:        getEnv("GATEWAY_API_KEY", ""),
			CallbackToken: getEnv("GATEWAY_CALLBACK_TOKEN", ""),
			HTTPTimeout:   getSecondsEnv("GATEWAY_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		Webhooks: WebhooksConfig{
			MaxAttempts: getIntEnv("WEBHOOK_MAX_ATTEMPTS", 3),
			BackoffBase: getMillisEnv("WEBHOOK_BACKOFF_BASE_MS", 300*time.Millisecond),
			HTTPTimeout: getSecondsEnv("WEBHOOK_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		RateLimit: RateLimitConfig{
			Window:      getSecondsEnv("RATE_LIMIT_WINDOW_SECONDS", time.Minute),
			CreateLimit: int64(getIntEnv("RATE_LIMIT_CREATE_PER_WINDOW", 60)),
			SyncLimit:   int64(getIntEnv("RATE_LIMIT_SYNC_PER_WINDOW", 60)),
			ReadLimit:   int64(getIntEnv("RATE_LIMIT_READ_PER_WINDOW", 120)),
		},
		Idempotency: IdempotencyConfig{
			LeaseDuration: getSecondsEnv("IDEMPOTENCY_LEASE_SECONDS", time.Minute),
		},
		Withdrawals: WithdrawalsConfig{
			MinAmount: int64(getIntEnv("WITHDRAWAL_MIN_AMOUNT", 100000)),
			FlatFee:   int64(getIntEnv("WITHDRAWAL_FLAT_FEE", 2500)),
		},
		Jobs: JobsConfig{
			ReconcileInterval:   getMinutesEnv("RECONCILE_INTERVAL_MINUTES", 2*time.Minute),
			ReconcileStaleAfter: getMinutesEnv("RECONCILE_STALE_AFTER_MINUTES", 15*time.Minute),
			BatchSize:           int32(getIntEnv("JOB_BATCH_SIZE", 100)),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func getMillisEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if millis, err := strconv.Atoi(value); err == nil {
			return time.Duration(millis) * time.Millisecond
		}
	}
	return defaultValue
}
