package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Store.Backend != "sqlite" {
		t.Errorf("Store.Backend = %q, want sqlite", cfg.Store.Backend)
	}
	if cfg.Opener.Mode != "none" {
		t.Errorf("Opener.Mode = %q, want none", cfg.Opener.Mode)
	}
	if !cfg.Opener.Background {
		t.Error("Opener.Background should default to true")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if len(cfg.Engine.EscalationDelays) != 3 {
		t.Errorf("EscalationDelays = %v, want 3 tiers", cfg.Engine.EscalationDelays)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VIDOPEN_STORE", "redis")
	t.Setenv("VIDOPEN_PORT", "9191")
	t.Setenv("VIDOPEN_OPEN_BACKGROUND", "false")
	t.Setenv("VIDOPEN_API_KEYS", " a , ,b ")
	t.Setenv("VIDOPEN_ESCALATION_DELAYS", "0s, 1s,bogus")
	t.Setenv("VIDOPEN_HTTP_TIMEOUT", "not-a-duration")

	cfg := Load()

	if cfg.Store.Backend != "redis" {
		t.Errorf("Store.Backend = %q, want redis", cfg.Store.Backend)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want 9191", cfg.Server.Port)
	}
	if cfg.Opener.Background {
		t.Error("Opener.Background should be false")
	}
	if len(cfg.Auth.APIKeys) != 2 || cfg.Auth.APIKeys[0] != "a" || cfg.Auth.APIKeys[1] != "b" {
		t.Errorf("APIKeys = %q, want [a b]", cfg.Auth.APIKeys)
	}
	if got := cfg.Engine.EscalationDelays; len(got) != 2 || got[1] != time.Second {
		t.Errorf("EscalationDelays = %v, want [0s 1s]", got)
	}
	if cfg.Engine.HTTPTimeout != 5*time.Second {
		t.Errorf("HTTPTimeout = %v, want fallback 5s", cfg.Engine.HTTPTimeout)
	}
}
