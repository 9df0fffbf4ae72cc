package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadSQLiteDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_TIMEZONE", "America/Mexico_City")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("CACHE_METHODS", "get, head")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.SQLitePath != "gym.db" || cfg.AccessTTLMin != 15 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Location == nil || cfg.Location.String() != "America/Mexico_City" {
		t.Fatalf("location = %v", cfg.Location)
	}
	if cfg.MembershipExpiryInterval != time.Hour {
		t.Fatalf("expiry interval = %v", cfg.MembershipExpiryInterval)
	}
	if cfg.RateLimit.Capacity != 5 || cfg.RateLimit.TTL < 5*cfg.RateLimit.RefillInterval {
		t.Fatalf("rate limit = %+v", cfg.RateLimit)
	}
	if !cfg.Cache.Methods["GET"] || !cfg.Cache.Methods["HEAD"] || len(cfg.Cache.Methods) != 2 {
		t.Fatalf("cache methods = %v", cfg.Cache.Methods)
	}
}

func TestLoadMissingRequiredKey(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_USER", "gym")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_NAME", "gym")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "DB_HOST") {
		t.Fatalf("expected error naming DB_HOST, got %v", err)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	t.Setenv("JWT_SECRET", "s3cret")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gym.yaml")
	content := "db_driver: sqlite\njwt_secret: from-file\napp_port: \"9090\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWTSecret != "from-file" || cfg.Port != "9090" || cfg.DBDriver != "sqlite" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
}

func TestRedisConfigHostPort(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_TLS", "1")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Redis.Addr != "cache:6380" || !cfg.Redis.TLS {
		t.Fatalf("redis = %+v", cfg.Redis)
	}
}
