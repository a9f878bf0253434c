package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8009" || cfg.Store != StorePostgres || cfg.MaxTurns != 20 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.ThinkingDelay != 1500*time.Millisecond {
		t.Errorf("ThinkingDelay = %v", cfg.ThinkingDelay)
	}
	if cfg.External.Enabled() || cfg.Google.Enabled() || cfg.DevMode {
		t.Error("optional integrations should be off by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE", "sqlite")
	t.Setenv("THINKING_DELAY", "0s")
	t.Setenv("EXTERNAL_ADVISOR_URL", "http://advisor.local")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store != StoreSQLite || cfg.ThinkingDelay != 0 || !cfg.External.Enabled() {
		t.Errorf("overrides = %+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"STORE", "mongo"},
		{"MAX_TURNS", "0"},
		{"MAX_TURNS", "many"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
