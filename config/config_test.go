package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != 8000 {
		t.Errorf("default port: %d", cfg.Server.Port)
	}
	if cfg.Server.Mode != "release" {
		t.Errorf("default mode: %s", cfg.Server.Mode)
	}
	if cfg.Graph.Version != "v18.0" {
		t.Errorf("default graph version: %s", cfg.Graph.Version)
	}
	if !cfg.Browser.Headless {
		t.Error("browser should default to headless")
	}
	if cfg.Scraper.MaxAttempts != 4 {
		t.Errorf("default scrape attempts: %d", cfg.Scraper.MaxAttempts)
	}
	if cfg.MediaCache.TTL != 24*time.Hour {
		t.Errorf("default media TTL: %v", cfg.MediaCache.TTL)
	}
	if len(cfg.Auth.APIKeys) != 0 {
		t.Errorf("auth should be disabled by default: %v", cfg.Auth.APIKeys)
	}
}

func TestLoad_SystemTokenTakesPriority(t *testing.T) {
	t.Setenv("MAIN_SYSTEM_USER_TOKEN", "system")
	t.Setenv("MAIN_USER_TOKEN", "user")

	cfg := Load()
	if cfg.Graph.UserToken != "system" {
		t.Errorf("system user token should win: %q", cfg.Graph.UserToken)
	}
}

func TestLoad_UserTokenFallback(t *testing.T) {
	t.Setenv("MAIN_SYSTEM_USER_TOKEN", "")
	t.Setenv("MAIN_USER_TOKEN", "user")

	cfg := Load()
	if cfg.Graph.UserToken != "user" {
		t.Errorf("should fall back to MAIN_USER_TOKEN: %q", cfg.Graph.UserToken)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9001")
	t.Setenv("INSTAGRID_HEADLESS", "false")
	t.Setenv("INSTAGRID_SETTLE_TIME", "500ms")
	t.Setenv("INSTAGRID_API_KEYS", "key-a, key-b,")
	t.Setenv("ALLOWED_ORIGINS", "https://shop.example.com")

	cfg := Load()
	if cfg.Server.Port != 9001 {
		t.Errorf("port override: %d", cfg.Server.Port)
	}
	if cfg.Browser.Headless {
		t.Error("headless override ignored")
	}
	if cfg.Scraper.SettleTime != 500*time.Millisecond {
		t.Errorf("settle time override: %v", cfg.Scraper.SettleTime)
	}
	if len(cfg.Auth.APIKeys) != 2 || cfg.Auth.APIKeys[0] != "key-a" || cfg.Auth.APIKeys[1] != "key-b" {
		t.Errorf("api keys not parsed and trimmed: %v", cfg.Auth.APIKeys)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://shop.example.com" {
		t.Errorf("origins override: %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("INSTAGRID_SETTLE_TIME", "soon")

	cfg := Load()
	if cfg.Server.Port != 8000 {
		t.Errorf("malformed int should fall back: %d", cfg.Server.Port)
	}
	if cfg.Scraper.SettleTime != 3*time.Second {
		t.Errorf("malformed duration should fall back: %v", cfg.Scraper.SettleTime)
	}
}
