package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Database.Port != 5432 {
		t.Fatalf("expected default port 5432, got %d", cfg.Database.Port)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Fatalf("expected default token ttl 1h, got %s", cfg.Auth.TokenTTL)
	}
	if cfg.Storage.Backend != "local" {
		t.Fatalf("expected local storage, got %s", cfg.Storage.Backend)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  host: db.internal
  port: 6432
  database: pos
auth:
  token_ttl: 30m
orders:
  verify_menu_items: true
`)
	t.Setenv("DB_HOST", "override-host")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Database.Host != "override-host" {
		t.Fatalf("expected env override for host, got %s", cfg.Database.Host)
	}
	if cfg.Database.Port != 6432 {
		t.Fatalf("expected port from file, got %d", cfg.Database.Port)
	}
	if cfg.Auth.TokenTTL != 30*time.Minute {
		t.Fatalf("expected 30m token ttl, got %s", cfg.Auth.TokenTTL)
	}
	if !cfg.Orders.VerifyMenuItems {
		t.Fatalf("expected verify_menu_items from file")
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Fatalf("expected jwt secret from env")
	}

	want := "postgres://postgres:@override-host:6432/pos?sslmode=disable"
	if got := cfg.DatabaseURL(); got != want {
		t.Fatalf("DatabaseURL() = %s, want %s", got, want)
	}
}

func TestLoad_InvalidBackends(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"sqs without queue", map[string]string{"EVENTS_BACKEND": "sqs"}},
		{"amqp without url", map[string]string{"EVENTS_BACKEND": "amqp"}},
		{"unknown events backend", map[string]string{"EVENTS_BACKEND": "kafka"}},
		{"s3 without bucket", map[string]string{"STORAGE_BACKEND": "s3"}},
		{"bad port", map[string]string{"DB_PORT": "five"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
