package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Orchestrator.MaxRetries != 3 {
		t.Errorf("max retries = %d, want 3", cfg.Orchestrator.MaxRetries)
	}
	if cfg.Orchestrator.QualityThreshold != 70 {
		t.Errorf("quality threshold = %v, want 70", cfg.Orchestrator.QualityThreshold)
	}
	if cfg.Orchestrator.AttemptTimeout != 30*time.Second {
		t.Errorf("attempt timeout = %v, want 30s", cfg.Orchestrator.AttemptTimeout)
	}
	if !cfg.Orchestrator.EnableVariation {
		t.Error("variation disabled by default")
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("cache backend = %q, want memory", cfg.Cache.Backend)
	}
	if !cfg.Cache.Enabled {
		t.Error("cache disabled by default")
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:       ServerConfig{Port: 8080},
			Orchestrator: OrchestratorConfig{MaxRetries: 3, QualityThreshold: 70, AttemptTimeout: 30 * time.Second},
			Cache:        CacheConfig{Enabled: true, Backend: "memory"},
		}
	}

	if err := validateConfig(valid()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"zero retries", func(c *Config) { c.Orchestrator.MaxRetries = 0 }},
		{"threshold above 100", func(c *Config) { c.Orchestrator.QualityThreshold = 120 }},
		{"zero attempt timeout", func(c *Config) { c.Orchestrator.AttemptTimeout = 0 }},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "memcached" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := validateConfig(cfg); err == nil {
				t.Error("invalid config accepted")
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", "****"},
		{"short", "****"},
		{"sk-or-v1-0123456789abcdef", "sk-o...cdef"},
	}

	for _, tt := range tests {
		if got := maskAPIKey(tt.key); got != tt.want {
			t.Errorf("maskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
