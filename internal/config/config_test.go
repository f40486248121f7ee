package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "APP_ENV", "CORS_ORIGINS", "AUTO_MIGRATE", "SEED_DEMO_DATA", "TRANSACTION_CACHE_TTL_SECONDS", "ACCESS_TOKEN_TTL_MINUTES"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Address() != ":8080" {
		t.Fatalf("expected :8080, got %q", cfg.Address())
	}
	if cfg.Environment != "development" || cfg.IsProduction() {
		t.Fatalf("expected development environment, got %q", cfg.Environment)
	}
	if cfg.AutoMigrate || !cfg.SeedDemoData {
		t.Fatalf("unexpected flags: migrate=%v seed=%v", cfg.AutoMigrate, cfg.SeedDemoData)
	}
	if cfg.TransactionCacheTTLSeconds != 600 || cfg.AccessTokenTTLMinutes != 30 {
		t.Fatalf("unexpected ttl defaults %+v", cfg)
	}
}

func TestLoadParsesListsAndFlags(t *testing.T) {
	t.Setenv("CORS_ORIGINS", " https://pos.example.com , http://localhost:5173,, ")
	t.Setenv("AUTO_MIGRATE", "true")
	t.Setenv("SEED_DEMO_DATA", "0")
	t.Setenv("APP_ENV", "Production")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "-5")

	cfg := Load()
	if !slices.Equal(cfg.AllowedOrigins, []string{"https://pos.example.com", "http://localhost:5173"}) {
		t.Fatalf("unexpected origins %q", cfg.AllowedOrigins)
	}
	if !cfg.AutoMigrate || cfg.SeedDemoData {
		t.Fatalf("unexpected flags: migrate=%v seed=%v", cfg.AutoMigrate, cfg.SeedDemoData)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production environment, got %q", cfg.Environment)
	}
	if cfg.AccessTokenTTLMinutes != 30 {
		t.Fatalf("expected invalid ttl to fall back to 30, got %d", cfg.AccessTokenTTLMinutes)
	}
}

func TestLoadDotEnvKeepsExistingVariables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("POS_TEST_FROM_FILE=file\nPOS_TEST_PRESET=file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("POS_TEST_PRESET", "process")
	t.Setenv("POS_TEST_FROM_FILE", "")
	os.Unsetenv("POS_TEST_FROM_FILE")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("POS_TEST_FROM_FILE"); got != "file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("POS_TEST_PRESET"); got != "process" {
		t.Fatalf("expected process value to win, got %q", got)
	}
}
