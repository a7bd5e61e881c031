package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Fetch strategy names accepted in FetchConfig.Order.
const (
	StrategyBrowserLocal  = "browser-local"
	StrategyBrowserHosted = "browser-hosted"
	StrategyHTTPFallback  = "http-fallback"
	StrategyProxy         = "third-party-proxy"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Fetch     FetchConfig
	Proxy     ProxyConfig
	LLM       LLMConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the local browser fetcher.
type BrowserConfig struct {
	// Headless controls whether the local browser runs headless.
	// Defaults to false in development: mobile.de shows CAPTCHAs that
	// a developer may solve by hand during the settle wait.
	Headless bool

	// Bin overrides the Chromium binary path.
	Bin string

	// ProfileDir is the persistent user-data directory reused across
	// requests so cookies and consent survive. When the directory is
	// locked by another process the fetcher falls back to an ephemeral
	// profile for that attempt.
	ProfileDir string // default: "./user-data/mobile"

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool
}

// FetchConfig controls the fetch chain.
type FetchConfig struct {
	// Order is the ordered list of fetch strategy names to attempt.
	// The chain is data, not environment conditionals: production
	// deployments simply omit browser-local from the list.
	Order []string

	// NavTimeout is the max time for a single navigation.
	NavTimeout time.Duration // default: 60s

	// SettleWait is the fixed wait after navigation for dynamic content
	// (and for a human to clear a CAPTCHA in headed mode).
	SettleWait time.Duration // default: 15s

	// IdleTimeout bounds the network-idle wait. Hitting it is not a
	// failure; the fetcher proceeds with whatever rendered.
	IdleTimeout time.Duration // default: 8s

	// MinHTMLLength is the minimum body size below which a fetch is
	// treated as blocked or empty.
	MinHTMLLength int // default: 500

	// HTTPTimeout is the deadline for the plain HTTP fetcher.
	HTTPTimeout time.Duration // default: 20s
}

// ProxyConfig controls the third-party render proxy (ScraperAPI).
type ProxyConfig struct {
	// APIKey enables the proxy fetcher. Empty disables it even when
	// listed in Fetch.Order.
	APIKey string

	// CountryCode is the proxy country hint. default: "de"
	CountryCode string

	// Render asks the proxy to execute JavaScript. default: true
	Render bool

	// Timeout is the deadline for one proxy fetch. default: 90s
	Timeout time.Duration
}

// LLMConfig controls the AI-assisted extractor (Gemini).
type LLMConfig struct {
	// APIKey enables the AI-assisted extractor. Empty means the
	// pipeline runs on structured + heuristic extraction only.
	APIKey string

	// Models is the ordered fallback list of model identifiers.
	Models []string

	// MaxPromptChars caps the flattened page text in the prompt.
	MaxPromptChars int // default: 30000

	// MaxJSONLDChars caps each JSON-LD block included in the prompt.
	MaxJSONLDChars int // default: 15000

	// Timeout is the deadline per model attempt. default: 30s
	Timeout time.Duration
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false (the consumer frontend calls directly)

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-client rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per client.
	Burst int // default: 5
}

// CacheConfig controls the scrape result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached records.
	MaxEntries int // default: 500

	// TTL is how long a cached record stays valid.
	TTL time.Duration // default: 15m
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"

	// DebugFile is the best-effort append-only scrape diagnostic log.
	// Empty disables it.
	DebugFile string // default: "scrape-debug.log"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	production := envOr("IMPORTADOR_ENV", "development") == "production"

	return &Config{
		Server: ServerConfig{
			Host: envOr("IMPORTADOR_HOST", "0.0.0.0"),
			Port: envIntOr("IMPORTADOR_PORT", 8080),
			Mode: envOr("IMPORTADOR_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("IMPORTADOR_HEADLESS", production),
			Bin:        os.Getenv("IMPORTADOR_BROWSER_BIN"),
			ProfileDir: envOr("IMPORTADOR_PROFILE_DIR", "./user-data/mobile"),
			NoSandbox:  envBoolOr("IMPORTADOR_NO_SANDBOX", production),
		},
		Fetch: FetchConfig{
			Order:         envSliceOr("IMPORTADOR_FETCH_ORDER", DefaultFetchOrder(production)),
			NavTimeout:    envDurationOr("IMPORTADOR_NAV_TIMEOUT", 60*time.Second),
			SettleWait:    envDurationOr("IMPORTADOR_SETTLE_WAIT", 15*time.Second),
			IdleTimeout:   envDurationOr("IMPORTADOR_IDLE_TIMEOUT", 8*time.Second),
			MinHTMLLength: envIntOr("IMPORTADOR_MIN_HTML_LENGTH", 500),
			HTTPTimeout:   envDurationOr("IMPORTADOR_HTTP_TIMEOUT", 20*time.Second),
		},
		Proxy: ProxyConfig{
			APIKey:      os.Getenv("SCRAPER_API_KEY"),
			CountryCode: envOr("IMPORTADOR_PROXY_COUNTRY", "de"),
			Render:      envBoolOr("IMPORTADOR_PROXY_RENDER", true),
			Timeout:     envDurationOr("IMPORTADOR_PROXY_TIMEOUT", 90*time.Second),
		},
		LLM: LLMConfig{
			APIKey: envFirst("GOOGLE_API_KEY", "GEMINI_API_KEY"),
			Models: envSliceOr("IMPORTADOR_LLM_MODELS", []string{
				"gemini-1.5-flash-latest",
				"gemini-1.5-flash",
				"gemini-pro",
				"gemini-1.5-pro",
			}),
			MaxPromptChars: envIntOr("IMPORTADOR_LLM_MAX_PROMPT", 30000),
			MaxJSONLDChars: envIntOr("IMPORTADOR_LLM_MAX_JSONLD", 15000),
			Timeout:        envDurationOr("IMPORTADOR_LLM_TIMEOUT", 30*time.Second),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("IMPORTADOR_AUTH_ENABLED", false),
			APIKeys: envSliceOr("IMPORTADOR_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("IMPORTADOR_RATE_RPS", 2.0),
			Burst:             envIntOr("IMPORTADOR_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("IMPORTADOR_CACHE_MAX_ENTRIES", 500),
			TTL:        envDurationOr("IMPORTADOR_CACHE_TTL", 15*time.Minute),
		},
		Log: LogConfig{
			Level:     envOr("IMPORTADOR_LOG_LEVEL", "info"),
			Format:    envOr("IMPORTADOR_LOG_FORMAT", "json"),
			DebugFile: envOr("IMPORTADOR_DEBUG_LOG", "scrape-debug.log"),
		},
	}
}

// DefaultFetchOrder returns the fetch chain for an environment.
// Production has no desktop browser, so the chain starts at the hosted
// headless strategy.
func DefaultFetchOrder(production bool) []string {
	if production {
		return []string{StrategyBrowserHosted, StrategyHTTPFallback, StrategyProxy}
	}
	return []string{StrategyBrowserLocal, StrategyBrowserHosted, StrategyHTTPFallback, StrategyProxy}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFirst(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
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
