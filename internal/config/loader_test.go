package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.MaxConns != 15 {
		t.Errorf("expected max_conns 15, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Cache.RosterTTL != 5*time.Second {
		t.Errorf("expected roster TTL 5s, got %v", cfg.Cache.RosterTTL)
	}
	if !cfg.Sweeper.Enabled || cfg.Sweeper.Interval != time.Minute {
		t.Errorf("expected sweeper enabled at 1m, got %+v", cfg.Sweeper)
	}
	if cfg.Otel.Enabled {
		t.Errorf("expected otel disabled by default")
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
  cors_origin: "http://example.com"
postgres:
  max_conns: 20
logging:
  level: "debug"
sweeper:
  interval: 30s
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.CORSOrigin != "http://example.com" {
		t.Errorf("expected cors http://example.com, got %s", cfg.Server.CORSOrigin)
	}
	if cfg.Postgres.MaxConns != 20 {
		t.Errorf("expected max_conns 20, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Sweeper.Interval != 30*time.Second {
		t.Errorf("expected sweep interval 30s, got %v", cfg.Sweeper.Interval)
	}
	// Unchanged fields keep defaults
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("expected default NATS URL, got %s", cfg.NATS.URL)
	}
}

func TestLoadYAMLMissingFileIsFine(t *testing.T) {
	cfg := Defaults()
	if err := loadYAML(&cfg, filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("missing file must not error, got %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("defaults must survive a missing file, got %s", cfg.Server.Port)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("AGENTCORE_PORT", "7001")
	t.Setenv("DATABASE_URL", "postgres://env:env@db:5432/core")
	t.Setenv("AGENTCORE_CACHE_ROSTER_TTL", "15s")
	t.Setenv("AGENTCORE_SWEEP_ENABLED", "false")

	cfg := Defaults()
	loadEnv(&cfg)

	if cfg.Server.Port != "7001" {
		t.Errorf("expected port 7001, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.DSN != "postgres://env:env@db:5432/core" {
		t.Errorf("expected env DSN, got %s", cfg.Postgres.DSN)
	}
	if cfg.Cache.RosterTTL != 15*time.Second {
		t.Errorf("expected roster TTL 15s, got %v", cfg.Cache.RosterTTL)
	}
	if cfg.Sweeper.Enabled {
		t.Errorf("expected sweeper disabled via env")
	}
}

func TestEnvBeatsYAML(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")
	if err := os.WriteFile(yamlPath, []byte("server:\n  port: \"9090\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AGENTCORE_PORT", "7001")

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "7001" {
		t.Errorf("env must beat yaml, got %s", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	if err := validate(&cfg); err != nil {
		t.Fatalf("defaults must validate, got %v", err)
	}

	bad := Defaults()
	bad.Postgres.DSN = ""
	if err := validate(&bad); err == nil {
		t.Errorf("expected error for empty DSN")
	}

	bad = Defaults()
	bad.Sweeper.Interval = 0
	if err := validate(&bad); err == nil {
		t.Errorf("expected error for zero sweep interval with sweeper enabled")
	}
}
