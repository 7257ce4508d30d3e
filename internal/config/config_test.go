package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIBaseURL != "http://localhost:8000/api" {
		t.Fatalf("unexpected base URL %q", cfg.APIBaseURL)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Fatalf("expected 30s poll interval, got %v", cfg.PollInterval)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("expected 10s http timeout, got %v", cfg.HTTPTimeout)
	}
	if cfg.PageSize != 50 {
		t.Fatalf("expected page size 50, got %d", cfg.PageSize)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CALLDECK_API_URL", "http://backend:9000/api/")
	t.Setenv("CALLDECK_POLL_INTERVAL", "5")
	t.Setenv("CALLDECK_PAGE_SIZE", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	// Trailing slash is stripped so path joining stays predictable.
	if cfg.APIBaseURL != "http://backend:9000/api" {
		t.Fatalf("unexpected base URL %q", cfg.APIBaseURL)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("expected 5s poll interval, got %v", cfg.PollInterval)
	}
	if cfg.PageSize != 25 {
		t.Fatalf("expected page size 25, got %d", cfg.PageSize)
	}
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("CALLDECK_POLL_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid poll interval")
	}
}
