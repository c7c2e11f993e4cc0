package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "TRYON_API_BASE_URL", "POLL_INTERVAL_MS", "POLL_FAILURE_LIMIT", "MAX_UPLOAD_MB", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "3000" {
		t.Fatalf("Port = %q, want %q", cfg.Port, "3000")
	}
	if cfg.TryOnAPIBaseURL != "http://localhost:8080" {
		t.Fatalf("TryOnAPIBaseURL = %q, want %q", cfg.TryOnAPIBaseURL, "http://localhost:8080")
	}
	if cfg.PollInterval != 2*time.Second {
		t.Fatalf("PollInterval = %s, want 2s", cfg.PollInterval)
	}
	if cfg.PollFailureLimit != 0 || cfg.JobTimeout != 0 {
		t.Fatalf("polling should be unbounded by default, got limit=%d timeout=%s", cfg.PollFailureLimit, cfg.JobTimeout)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("MaxUploadBytes = %d, want %d", cfg.MaxUploadBytes, 10<<20)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("CORSAllowedOrigins mismatch: %#v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigTrimsBaseURLAndParsesLists(t *testing.T) {
	t.Setenv("TRYON_API_BASE_URL", "https://api.example.com/")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://shop.example.com, ,http://localhost:3000 ")
	t.Setenv("POLL_FAILURE_LIMIT", "5")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.TryOnAPIBaseURL != "https://api.example.com" {
		t.Fatalf("TryOnAPIBaseURL = %q, want %q", cfg.TryOnAPIBaseURL, "https://api.example.com")
	}
	expected := []string{"https://shop.example.com", "http://localhost:3000"}
	if len(cfg.CORSAllowedOrigins) != len(expected) {
		t.Fatalf("CORSAllowedOrigins mismatch: got %#v want %#v", cfg.CORSAllowedOrigins, expected)
	}
	for i, origin := range expected {
		if cfg.CORSAllowedOrigins[i] != origin {
			t.Fatalf("CORSAllowedOrigins[%d] = %q, want %q", i, cfg.CORSAllowedOrigins[i], origin)
		}
	}
	if cfg.PollFailureLimit != 5 {
		t.Fatalf("PollFailureLimit = %d, want 5", cfg.PollFailureLimit)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"relative base url", "TRYON_API_BASE_URL", "api.example.com"},
		{"zero poll interval", "POLL_INTERVAL_MS", "0"},
		{"negative failure limit", "POLL_FAILURE_LIMIT", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("LoadConfig with %s=%q succeeded, want error", tt.key, tt.value)
			}
		})
	}
}
