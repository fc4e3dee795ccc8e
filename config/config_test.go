package config

import (
	"os"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("setenv %s failed: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	_ = os.Unsetenv(key)
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		}
	})
}

func TestLoadRequiresMySQLDSN(t *testing.T) {
	unsetEnv(t, "MYSQL_DSN")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing MYSQL_DSN")
	}
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/paybridge?parseTime=true")
	setEnv(t, "APP_SERVICE_NAME", "paybridge-test")
	setEnv(t, "HTTP_PORT", "8181")
	setEnv(t, "MYSQL_MAX_OPEN_CONNS", "20")
	setEnv(t, "MYSQL_MAX_IDLE_CONNS", "8")
	setEnv(t, "MYSQL_CONN_MAX_LIFETIME_MINUTES", "40")
	setEnv(t, "GATEWAY_HTTP_TIMEOUT_SECONDS", "5")
	setEnv(t, "WEBHOOK_MAX_ATTEMPTS", "5")
	setEnv(t, "WEBHOOK_BACKOFF_BASE_MS", "150")
	setEnv(t, "RATE_LIMIT_CREATE_PER_WINDOW", "30")
	setEnv(t, "IDEMPOTENCY_LEASE_SECONDS", "90")
	setEnv(t, "WITHDRAWAL_MIN_AMOUNT", "50000")
	setEnv(t, "RECONCILE_STALE_AFTER_MINUTES", "13")
	setEnv(t, "JOB_BATCH_SIZE", "99")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.App.ServiceName != "paybridge-test" {
		t.Fatalf("unexpected app service name: %s", cfg.App.ServiceName)
	}
	if cfg.HTTP.Port != "8181" {
		t.Fatalf("unexpected http port: %s", cfg.HTTP.Port)
	}
	if cfg.MySQL.MaxOpenConns != 20 || cfg.MySQL.MaxIdleConns != 8 {
		t.Fatalf("unexpected mysql pool config: %+v", cfg.MySQL)
	}
	if cfg.MySQL.ConnMaxLifetime != 40*time.Minute {
		t.Fatalf("unexpected mysql lifetime: %v", cfg.MySQL.ConnMaxLifetime)
	}
	if cfg.Gateway.HTTPTimeout != 5*time.Second {
		t.Fatalf("unexpected gateway timeout: %v", cfg.Gateway.HTTPTimeout)
	}
	if cfg.Webhooks.MaxAttempts != 5 {
		t.Fatalf("unexpected webhook max attempts: %d", cfg.Webhooks.MaxAttempts)
	}
	if cfg.Webhooks.BackoffBase != 150*time.Millisecond {
		t.Fatalf("unexpected webhook backoff base: %v", cfg.Webhooks.BackoffBase)
	}
	if cfg.RateLimit.CreateLimit != 30 || cfg.RateLimit.ReadLimit != 120 {
		t.Fatalf("unexpected rate limit config: %+v", cfg.RateLimit)
	}
	if cfg.Idempotency.LeaseDuration != 90*time.Second {
		t.Fatalf("unexpected idempotency lease: %v", cfg.Idempotency.LeaseDuration)
	}
	if cfg.Withdrawals.MinAmount != 50000 || cfg.Withdrawals.FlatFee != 2500 {
		t.Fatalf("unexpected withdrawals config: %+v", cfg.Withdrawals)
	}
	if cfg.Jobs.ReconcileStaleAfter != 13*time.Minute {
		t.Fatalf("unexpected reconcile stale after: %v", cfg.Jobs.ReconcileStaleAfter)
	}
	if cfg.Jobs.BatchSize != 99 {
		t.Fatalf("unexpected job batch size: %d", cfg.Jobs.BatchSize)
	}
}
