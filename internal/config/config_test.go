package config

import "testing"

func TestLoadIncludesTrafficControlDefaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "")
	t.Setenv("RATE_LIMIT_BURST", "")
	t.Setenv("MAX_IN_FLIGHT", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")

	cfg := Load()
	if cfg.RateLimitRPS != 20 {
		t.Fatalf("expected default rate limit 20 rps, got %v", cfg.RateLimitRPS)
	}
	if cfg.RateLimitBurst != 40 {
		t.Fatalf("expected default burst 40, got %d", cfg.RateLimitBurst)
	}
	if cfg.MaxInFlight != 64 {
		t.Fatalf("expected default max in flight 64, got %d", cfg.MaxInFlight)
	}
	if cfg.MaxUploadBytes != 25<<20 {
		t.Fatalf("expected default max upload 25MiB, got %d", cfg.MaxUploadBytes)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("NATS_SUBJECT", "documents.custom")
	t.Setenv("LLM_ENABLED", "false")
	t.Setenv("RESYNC_CRON_SPEC", "0 0 4 * * *")

	cfg := Load()
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit override, got %v", cfg.RateLimitRPS)
	}
	if cfg.NATSSubject != "documents.custom" {
		t.Fatalf("expected subject override, got %q", cfg.NATSSubject)
	}
	if cfg.LLMEnabled {
		t.Fatalf("expected LLM disabled")
	}
	if cfg.ResyncCronSpec != "0 0 4 * * *" {
		t.Fatalf("expected cron override, got %q", cfg.ResyncCronSpec)
	}
}

func TestLoadFallsBackOnUnparsableValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")
	t.Setenv("LLM_ENABLED", "not-a-bool")

	cfg := Load()
	if cfg.RateLimitBurst != 40 {
		t.Fatalf("expected fallback burst 40, got %d", cfg.RateLimitBurst)
	}
	if !cfg.LLMEnabled {
		t.Fatalf("expected fallback LLM enabled")
	}
}
