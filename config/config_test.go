package config

import (
	"testing"
	"time"
)

// Test that LoadConfig returns a non-nil config and respects APPENV=test
func TestLoadConfigAndConnectMySQL_TestEnv(t *testing.T) {
	// Ensure APPENV=test so ConnectMySQL uses in-memory sqlite
	t.Setenv("APPENV", "test")

	cfg := LoadConfig()
	if cfg == nil {
		t.Fatalf("expected non-nil config")
	}

	db, err := ConnectMySQL()
	if err != nil {
		t.Fatalf("ConnectMySQL failed in test env: %v", err)
	}
	if db == nil {
		t.Fatalf("expected non-nil DB connection")
	}
}

func TestConfigDefaults(t *testing.T) {
	t.Setenv("APPENV", "test")

	cfg := LoadConfig()
	if cfg.APIPath == "" {
		t.Fatalf("expected a default API path prefix")
	}
	if cfg.TokenTTL <= 0 {
		t.Fatalf("expected a positive token TTL, got %v", cfg.TokenTTL)
	}
}

func TestLocationFallsBackOnBadZone(t *testing.T) {
	cfg := &Config{TimeZone: "Not/AZone"}
	if loc := cfg.Location(); loc == nil {
		t.Fatalf("expected a usable location")
	}

	cfg = &Config{TimeZone: "UTC"}
	loc := cfg.Location()
	if loc != time.UTC {
		t.Fatalf("expected UTC, got %v", loc)
	}
}
