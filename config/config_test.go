package config

import (
	"os"
	"testing"
)

func TestLoadConfigFromEnv(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://u:p@db:5432/test?sslmode=disable")
	os.Setenv("IQR_MULTIPLIER", "3.5")
	os.Setenv("ENV", "production")
	defer os.Unsetenv("DATABASE_URL")
	defer os.Unsetenv("IQR_MULTIPLIER")
	defer os.Unsetenv("ENV")

	cfg := Load()

	if cfg.DatabaseURL != "postgres://u:p@db:5432/test?sslmode=disable" {
		t.Errorf("unexpected DatabaseURL: %s", cfg.DatabaseURL)
	}
	if cfg.IQRMultiplier != 3.5 {
		t.Errorf("unexpected IQRMultiplier: %f", cfg.IQRMultiplier)
	}
	if !cfg.IsProduction() {
		t.Errorf("expected production env")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	os.Unsetenv("IQR_MULTIPLIER")
	cfg := Load()
	if cfg.IQRMultiplier != 5.0 {
		t.Errorf("expected default IQR multiplier of 5.0, got %f", cfg.IQRMultiplier)
	}
	if cfg.CacheMaxEntries != 5000 {
		t.Errorf("expected default cache max entries of 5000, got %d", cfg.CacheMaxEntries)
	}
}
