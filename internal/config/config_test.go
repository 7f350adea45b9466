package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	configViper := NewViper()
	configViper.Set("confirm.signing_secret", "secret")

	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if cfg.HTTPAddress != defaultHTTPAddress {
		t.Fatalf("unexpected http address %q", cfg.HTTPAddress)
	}
	if cfg.ConfirmTTL != 2*time.Minute {
		t.Fatalf("unexpected confirmation ttl %s", cfg.ConfirmTTL)
	}
	if cfg.LLMTimeout != time.Minute {
		t.Fatalf("unexpected llm timeout %s", cfg.LLMTimeout)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected allowed origins %v", cfg.AllowedOrigins)
	}
}

func TestLoadRequiresSigningSecret(t *testing.T) {
	if _, err := Load(NewViper()); err == nil {
		t.Fatalf("expected error for missing signing secret")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value any
	}{
		{name: "empty-database", key: "database.path", value: " "},
		{name: "empty-llm-url", key: "llm.base_url", value: ""},
		{name: "zero-llm-timeout", key: "llm.timeout_seconds", value: 0},
		{name: "zero-confirm-ttl", key: "confirm.ttl_seconds", value: 0},
		{name: "negative-rate", key: "llm.requests_per_minute", value: -1},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			configViper := NewViper()
			configViper.Set("confirm.signing_secret", "secret")
			configViper.Set(testCase.key, testCase.value)
			if _, err := Load(configViper); err == nil {
				t.Fatalf("expected validation error for %s", testCase.key)
			}
		})
	}
}
