package config

import (
	"testing"
	"time"
)

// clearEnv unsets every variable the loader reads so tests are hermetic.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "READ_TIMEOUT", "READ_HEADER_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT",
		"MAX_HEADER_BYTES", "GIN_MODE", "LOG_LEVEL", "LOG_PRETTY", "SWAGGER_ENABLED",
		"API_BASE_PATH", "DB_PATH", "PROSPECT_FEED_URL", "FOLLOW_UP_AFTER",
		"RATE_RPS", "RATE_BURST", "CORS_ALLOWED_ORIGINS", "ENABLE_HSTS", "HSTS_MAX_AGE",
		"IDEMPOTENCY_TTL", "STRIPE_SECRET_KEY", "STRIPE_API_BASE", "STRIPE_PAGE_SIZE",
		"STRIPE_SYNC_TIMEOUT",
		"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE",
		"OTEL_SERVICE_NAME", "OTEL_TRACES_SAMPLER_ARG",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port default = %q", cfg.Port)
	}
	if cfg.DBPath != "crm.db" {
		t.Fatalf("DBPath default = %q", cfg.DBPath)
	}
	if cfg.ProspectFeedURL != "data/prospects.json" {
		t.Fatalf("ProspectFeedURL default = %q", cfg.ProspectFeedURL)
	}
	if cfg.FollowUpAfter != 72*time.Hour {
		t.Fatalf("FollowUpAfter default = %v", cfg.FollowUpAfter)
	}
	if cfg.Stripe.PageSize != 100 || cfg.Stripe.BaseURL != "https://api.stripe.com" {
		t.Fatalf("Stripe defaults wrong: %+v", cfg.Stripe)
	}
	// No cap by default: reconciliation pages until Stripe's end signal.
	if cfg.Stripe.SyncTimeout != 0 {
		t.Fatalf("Stripe.SyncTimeout default = %v, want 0", cfg.Stripe.SyncTimeout)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("APIBasePath default = %q", cfg.APIBasePath)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode default = %q", cfg.GinMode)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "WARNING") // normalized to warn
	t.Setenv("FOLLOW_UP_AFTER", "48h")
	t.Setenv("STRIPE_PAGE_SIZE", "25")
	t.Setenv("STRIPE_SYNC_TIMEOUT", "5m")
	t.Setenv("API_BASE_PATH", "api/v2/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" || cfg.LogLevel != "warn" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.FollowUpAfter != 48*time.Hour {
		t.Fatalf("FollowUpAfter = %v", cfg.FollowUpAfter)
	}
	if cfg.Stripe.PageSize != 25 {
		t.Fatalf("Stripe.PageSize = %d", cfg.Stripe.PageSize)
	}
	if cfg.Stripe.SyncTimeout != 5*time.Minute {
		t.Fatalf("Stripe.SyncTimeout = %v", cfg.Stripe.SyncTimeout)
	}
	if cfg.APIBasePath != "/api/v2" {
		t.Fatalf("APIBasePath = %q", cfg.APIBasePath)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("CORS origins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"LOG_LEVEL":           "loud",
		"FOLLOW_UP_AFTER":     "-1h",
		"STRIPE_PAGE_SIZE":    "500",
		"STRIPE_SYNC_TIMEOUT": "-1m",
		"RATE_BURST":          "0",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected validation error for %s=%s", key, val)
			}
		})
	}
}

func TestLoad_BadGinModeFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("GIN_MODE", "turbo")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode = %q, want release", cfg.GinMode)
	}
}
