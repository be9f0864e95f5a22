package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Engine    EngineConfig
	Store     StoreConfig
	Opener    OpenerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// EngineConfig controls the multi-engine racing dispatcher.
type EngineConfig struct {
	// EnableMultiEngine toggles the multi-engine dispatcher used by fetch mode "auto".
	EnableMultiEngine bool // default: true

	// EscalationDelays is the staged start delay for each engine tier.
	EscalationDelays []time.Duration // default: [0s, 2s, 5s]

	// HTTPTimeout is the deadline for the pure HTTP engine.
	HTTPTimeout time.Duration // default: 5s

	// DomainMemoryTTL is how long the winning engine is remembered per domain.
	DomainMemoryTTL time.Duration // default: 24h
}

// StoreConfig selects and configures the selector store backend.
type StoreConfig struct {
	// Backend is "sqlite", "redis" or "memory". default: "sqlite"
	Backend string

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string // default: "vidopen.db"

	// RedisAddress, RedisPassword and RedisDB configure the redis backend.
	RedisAddress  string // default: "localhost:6379"
	RedisPassword string
	RedisDB       int

	// KeyPrefix namespaces keys in shared backends. default: "vidopen:"
	KeyPrefix string
}

// OpenerConfig controls how resolved media URLs are opened.
type OpenerConfig struct {
	// Mode is "system" (default OS browser), "browser" (the rod-managed
	// Chromium), or "none" (report only). default: "none" for the server.
	Mode string

	// Background opens tabs without stealing focus. default: true
	Background bool
}

// CacheConfig controls the resolution response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 1000
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "127.0.0.1"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Enabled launches Chromium at startup. Without it only the HTTP engine
	// is available and the "browser" opener cannot be used.
	Enabled bool // default: true

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 5

	// DefaultProxy is the default proxy URL for all requests.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// ScraperConfig controls page loading behavior.
type ScraperConfig struct {
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout time.Duration // default: 30s

	// MaxTimeout is the maximum allowed timeout from the client.
	MaxTimeout time.Duration // default: 120s

	// BlockedResourceTypes lists resource types to block while rendering.
	// Media stays blocked too: only element attributes are read.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// WebhookConfig controls event delivery.
type WebhookConfig struct {
	// URL receives media and selector events. Empty disables delivery.
	URL string

	// Secret signs payloads with HMAC-SHA256 when non-empty.
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("VIDOPEN_HOST", "127.0.0.1"),
			Port: envIntOr("VIDOPEN_PORT", 8080),
			Mode: envOr("VIDOPEN_MODE", "release"),
		},
		Browser: BrowserConfig{
			Enabled:      envBoolOr("VIDOPEN_BROWSER", true),
			Headless:     envBoolOr("VIDOPEN_HEADLESS", true),
			MaxPages:     envIntOr("VIDOPEN_MAX_PAGES", 5),
			DefaultProxy: os.Getenv("VIDOPEN_PROXY"),
			NoSandbox:    envBoolOr("VIDOPEN_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("VIDOPEN_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			DefaultTimeout: envDurationOr("VIDOPEN_DEFAULT_TIMEOUT", 30*time.Second),
			MaxTimeout:     envDurationOr("VIDOPEN_MAX_TIMEOUT", 120*time.Second),
			BlockedResourceTypes: envSliceOr("VIDOPEN_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
		},
		Engine: EngineConfig{
			EnableMultiEngine: envBoolOr("VIDOPEN_MULTI_ENGINE", true),
			EscalationDelays:  envDurationSliceOr("VIDOPEN_ESCALATION_DELAYS", []time.Duration{0, 2 * time.Second, 5 * time.Second}),
			HTTPTimeout:       envDurationOr("VIDOPEN_HTTP_TIMEOUT", 5*time.Second),
			DomainMemoryTTL:   envDurationOr("VIDOPEN_DOMAIN_MEMORY_TTL", 24*time.Hour),
		},
		Store: StoreConfig{
			Backend:       envOr("VIDOPEN_STORE", "sqlite"),
			SQLitePath:    envOr("VIDOPEN_SQLITE_PATH", "vidopen.db"),
			RedisAddress:  envOr("VIDOPEN_REDIS_ADDRESS", "localhost:6379"),
			RedisPassword: os.Getenv("VIDOPEN_REDIS_PASSWORD"),
			RedisDB:       envIntOr("VIDOPEN_REDIS_DB", 0),
			KeyPrefix:     envOr("VIDOPEN_KEY_PREFIX", "vidopen:"),
		},
		Opener: OpenerConfig{
			Mode:       envOr("VIDOPEN_OPENER", "none"),
			Background: envBoolOr("VIDOPEN_OPEN_BACKGROUND", true),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("VIDOPEN_AUTH_ENABLED", false),
			APIKeys: envSliceOr("VIDOPEN_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("VIDOPEN_RATE_RPS", 5.0),
			Burst:             envIntOr("VIDOPEN_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("VIDOPEN_CACHE_MAX_ENTRIES", 1000),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("VIDOPEN_WEBHOOK_URL"),
			Secret: os.Getenv("VIDOPEN_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("VIDOPEN_LOG_LEVEL", "info"),
			Format: envOr("VIDOPEN_LOG_FORMAT", "json"),
		},
	}
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
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
