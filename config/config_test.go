package config

import (
	"testing"
	"time"
)

func TestDefaultFetchOrder(t *testing.T) {
	dev := DefaultFetchOrder(false)
	if len(dev) != 4 || dev[0] != StrategyBrowserLocal {
		t.Errorf("development order = %v, want browser-local first", dev)
	}

	prod := DefaultFetchOrder(true)
	if len(prod) != 3 || prod[0] != StrategyBrowserHosted {
		t.Errorf("production order = %v, want browser-hosted first", prod)
	}
	for _, s := range prod {
		if s == StrategyBrowserLocal {
			t.Error("production order must not contain browser-local")
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Fetch.MinHTMLLength != 500 {
		t.Errorf("MinHTMLLength = %d, want 500", cfg.Fetch.MinHTMLLength)
	}
	if cfg.Fetch.NavTimeout != 60*time.Second {
		t.Errorf("NavTimeout = %v, want 60s", cfg.Fetch.NavTimeout)
	}
	if cfg.Cache.TTL != 15*time.Minute {
		t.Errorf("Cache.TTL = %v, want 15m", cfg.Cache.TTL)
	}
	if len(cfg.LLM.Models) == 0 {
		t.Error("LLM.Models default list should not be empty")
	}
	if cfg.Auth.Enabled {
		t.Error("auth should default to disabled")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("IMPORTADOR_PORT", "9090")
	t.Setenv("IMPORTADOR_FETCH_ORDER", "http-fallback, third-party-proxy")
	t.Setenv("IMPORTADOR_NAV_TIMEOUT", "90s")

	cfg := Load()
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if len(cfg.Fetch.Order) != 2 || cfg.Fetch.Order[0] != StrategyHTTPFallback {
		t.Errorf("Fetch.Order = %v", cfg.Fetch.Order)
	}
	if cfg.Fetch.NavTimeout != 90*time.Second {
		t.Errorf("NavTimeout = %v, want 90s", cfg.Fetch.NavTimeout)
	}
}
