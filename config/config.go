package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Graph      GraphConfig
	Browser    BrowserConfig
	Scraper    ScraperConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	MediaCache MediaCacheConfig
	Log        LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8000
	Mode string // "debug", "release", "test"; default: "release"

	// AllowedOrigins is the CORS allow list. "*" allows any origin.
	AllowedOrigins []string // default: ["*"]
}

// GraphConfig controls the Facebook Graph API client.
type GraphConfig struct {
	// UserToken is the long-lived system-user (or user) credential used to
	// resolve pages and page tokens. MAIN_SYSTEM_USER_TOKEN takes priority
	// over MAIN_USER_TOKEN.
	UserToken string

	// BusinessID, when set, lists business-owned pages instead of me/accounts.
	BusinessID string

	// Version is the Graph API version segment.
	Version string // default: "v18.0"

	// BaseURL overrides the Graph API endpoint (tests point this at a
	// fixture server). Empty means https://graph.facebook.com/<Version>.
	BaseURL string

	// Timeout is the per-call deadline.
	Timeout time.Duration // default: 15s
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 4

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// ScraperConfig controls profile scraping behavior.
type ScraperConfig struct {
	// MaxAttempts is the extraction cascade retry budget per scrape.
	MaxAttempts int // default: 4

	// SettleTime is the wait between cascade attempts, after scrolling,
	// so lazy content can render.
	SettleTime time.Duration // default: 3s

	// OverallTimeout is the hard deadline on a whole scrape operation
	// (navigation + all cascade attempts).
	OverallTimeout time.Duration // default: 90s

	// NavigationTimeout is the max time for a single page navigation.
	NavigationTimeout time.Duration // default: 30s

	// Stealth toggles anti-automation-detection JS injection.
	Stealth bool // default: true

	// BlockedResourceTypes lists browser resource types to block while
	// scraping. Images stay enabled: the cascade reads src attributes from
	// the rendered DOM and lazy loaders only fill them in once the image
	// request is allowed through.
	// default: ["Font", "Media"]
	BlockedResourceTypes []string
}

// AuthConfig controls optional API key authentication on the API routes.
type AuthConfig struct {
	// APIKeys is the list of valid operator keys. Empty disables auth.
	APIKeys []string
}

// RateLimitConfig controls per-IP rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client IP.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per client IP.
	Burst int // default: 10
}

// MediaCacheConfig controls the media proxy's byte cache.
type MediaCacheConfig struct {
	// TTL is how long cached media bytes stay valid.
	TTL time.Duration // default: 24h

	// MaxEntries caps the cache size; a random entry is evicted at capacity.
	MaxEntries int // default: 500
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
// Facebook credential variables keep their historical unprefixed names; the
// rest are namespaced under INSTAGRID_.
func Load() *Config {
	userToken := os.Getenv("MAIN_SYSTEM_USER_TOKEN")
	if userToken == "" {
		userToken = os.Getenv("MAIN_USER_TOKEN")
	}

	return &Config{
		Server: ServerConfig{
			Host:           envOr("INSTAGRID_HOST", "0.0.0.0"),
			Port:           envIntOr("PORT", 8000),
			Mode:           envOr("INSTAGRID_MODE", "release"),
			AllowedOrigins: envSliceOr("ALLOWED_ORIGINS", []string{"*"}),
		},
		Graph: GraphConfig{
			UserToken:  userToken,
			BusinessID: os.Getenv("BUSINESS_ID"),
			Version:    envOr("GRAPH_API_VERSION", "v18.0"),
			Timeout:    envDurationOr("INSTAGRID_GRAPH_TIMEOUT", 15*time.Second),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("INSTAGRID_HEADLESS", true),
			MaxPages:   envIntOr("INSTAGRID_MAX_PAGES", 4),
			NoSandbox:  envBoolOr("INSTAGRID_NO_SANDBOX", false),
			BrowserBin: os.Getenv("INSTAGRID_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			MaxAttempts:       envIntOr("INSTAGRID_SCRAPE_ATTEMPTS", 4),
			SettleTime:        envDurationOr("INSTAGRID_SETTLE_TIME", 3*time.Second),
			OverallTimeout:    envDurationOr("INSTAGRID_SCRAPE_TIMEOUT", 90*time.Second),
			NavigationTimeout: envDurationOr("INSTAGRID_NAV_TIMEOUT", 30*time.Second),
			Stealth:           envBoolOr("INSTAGRID_STEALTH", true),
			BlockedResourceTypes: envSliceOr("INSTAGRID_BLOCKED_RESOURCES", []string{
				"Font", "Media",
			}),
		},
		Auth: AuthConfig{
			APIKeys: envSliceOr("INSTAGRID_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("INSTAGRID_RATE_RPS", 2.0),
			Burst:             envIntOr("INSTAGRID_RATE_BURST", 10),
		},
		MediaCache: MediaCacheConfig{
			TTL:        envDurationOr("INSTAGRID_MEDIA_TTL", 24*time.Hour),
			MaxEntries: envIntOr("INSTAGRID_MEDIA_MAX_ENTRIES", 500),
		},
		Log: LogConfig{
			Level:  envOr("INSTAGRID_LOG_LEVEL", "info"),
			Format: envOr("INSTAGRID_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
