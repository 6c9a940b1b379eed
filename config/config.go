package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Browser   BrowserConfig   `yaml:"browser"`
	Scraper   ScraperConfig   `yaml:"scraper"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host"` // default: "0.0.0.0"
	Port int    `yaml:"port"` // default: 8080
	Mode string `yaml:"mode"` // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the headless browser used for dynamic rendering.
type BrowserConfig struct {
	// Enabled toggles dynamic rendering entirely. When false every
	// escalation records a render error and static results are kept.
	Enabled bool `yaml:"enabled"` // default: true

	Headless bool `yaml:"headless"` // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool `yaml:"noSandbox"`

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string `yaml:"browserBin"`

	// DefaultProxy is used by both the static fetcher and the browser.
	DefaultProxy string `yaml:"proxy"`

	// MaxSessions bounds concurrently open browser sessions.
	MaxSessions int `yaml:"maxSessions"` // default: 4

	// Stealth masks navigator.webdriver and similar automation tells.
	Stealth bool `yaml:"stealth"`

	// BlockedResourceTypes lists resource types the browser never loads.
	// default: ["Font", "Media"]
	BlockedResourceTypes []string `yaml:"blockedResourceTypes"`

	// BlockAds drops requests to well-known ad and tracking hosts.
	BlockAds bool `yaml:"blockAds"`

	// AcceptLanguage is sent with every browser request.
	AcceptLanguage string `yaml:"acceptLanguage"` // default: "en-US,en;q=0.9"
}

// ScraperConfig holds every tunable of the extraction pipeline.
type ScraperConfig struct {
	// RawHTMLLimit caps Section.RawHTML in characters.
	RawHTMLLimit int `yaml:"rawHtmlLimit"` // default: 2000

	// StaticTextThreshold is the total static section text below which the
	// page is rendered in the browser.
	StaticTextThreshold int `yaml:"staticTextThreshold"` // default: 500

	// HTTPTimeout bounds the static fetch.
	HTTPTimeout time.Duration `yaml:"httpTimeout"` // default: 20s

	// NavigationTimeout bounds browser navigation and load.
	NavigationTimeout time.Duration `yaml:"navigationTimeout"` // default: 30s

	// ActionTimeout bounds each individual query, click or snapshot.
	ActionTimeout time.Duration `yaml:"actionTimeout"` // default: 10s

	ScrollDepth     int `yaml:"scrollDepth"`     // default: 3
	MaxTabClicks    int `yaml:"maxTabClicks"`    // default: 3
	MaxLoadMoreScan int `yaml:"maxLoadMoreScan"` // default: 20

	// Settle delays after each interaction.
	TabSettle      time.Duration `yaml:"tabSettle"`      // default: 1s
	LoadMoreSettle time.Duration `yaml:"loadMoreSettle"` // default: 1.5s
	ScrollSettle   time.Duration `yaml:"scrollSettle"`   // default: 1.5s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	Enabled bool     `yaml:"enabled"` // default: false
	APIKeys []string `yaml:"apiKeys"`
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond"` // default: 2
	Burst             int     `yaml:"burst"`             // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "json" or "text"; default: "json"
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Mode: "release",
		},
		Browser: BrowserConfig{
			Enabled:              true,
			Headless:             true,
			MaxSessions:          4,
			BlockedResourceTypes: []string{"Font", "Media"},
			AcceptLanguage:       "en-US,en;q=0.9",
		},
		Scraper: ScraperConfig{
			RawHTMLLimit:        2000,
			StaticTextThreshold: 500,
			HTTPTimeout:         20 * time.Second,
			NavigationTimeout:   30 * time.Second,
			ActionTimeout:       10 * time.Second,
			ScrollDepth:         3,
			MaxTabClicks:        3,
			MaxLoadMoreScan:     20,
			TabSettle:           time.Second,
			LoadMoreSettle:      1500 * time.Millisecond,
			ScrollSettle:        1500 * time.Millisecond,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			Burst:             5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// LYFTR_CONFIG_FILE (if any), then LYFTR_* environment variables.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv("LYFTR_CONFIG_FILE"))
}

// LoadFrom is Load with an explicit YAML file path; an empty path skips
// the file layer.
func LoadFrom(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	s := &cfg.Server
	s.Host = envOr("LYFTR_HOST", s.Host)
	s.Port = envIntOr("LYFTR_PORT", s.Port)
	s.Mode = envOr("LYFTR_MODE", s.Mode)

	b := &cfg.Browser
	b.Enabled = envBoolOr("LYFTR_BROWSER_ENABLED", b.Enabled)
	b.Headless = envBoolOr("LYFTR_HEADLESS", b.Headless)
	b.NoSandbox = envBoolOr("LYFTR_NO_SANDBOX", b.NoSandbox)
	b.BrowserBin = envOr("LYFTR_BROWSER_BIN", b.BrowserBin)
	b.DefaultProxy = envOr("LYFTR_PROXY", b.DefaultProxy)
	b.MaxSessions = envIntOr("LYFTR_MAX_SESSIONS", b.MaxSessions)
	b.Stealth = envBoolOr("LYFTR_STEALTH", b.Stealth)
	b.BlockedResourceTypes = envSliceOr("LYFTR_BLOCKED_RESOURCES", b.BlockedResourceTypes)
	b.BlockAds = envBoolOr("LYFTR_BLOCK_ADS", b.BlockAds)
	b.AcceptLanguage = envOr("LYFTR_ACCEPT_LANGUAGE", b.AcceptLanguage)

	sc := &cfg.Scraper
	sc.RawHTMLLimit = envIntOr("LYFTR_RAW_HTML_LIMIT", sc.RawHTMLLimit)
	sc.StaticTextThreshold = envIntOr("LYFTR_STATIC_TEXT_THRESHOLD", sc.StaticTextThreshold)
	sc.HTTPTimeout = envDurationOr("LYFTR_HTTP_TIMEOUT", sc.HTTPTimeout)
	sc.NavigationTimeout = envDurationOr("LYFTR_NAV_TIMEOUT", sc.NavigationTimeout)
	sc.ActionTimeout = envDurationOr("LYFTR_ACTION_TIMEOUT", sc.ActionTimeout)
	sc.ScrollDepth = envIntOr("LYFTR_SCROLL_DEPTH", sc.ScrollDepth)
	sc.MaxTabClicks = envIntOr("LYFTR_MAX_TAB_CLICKS", sc.MaxTabClicks)
	sc.MaxLoadMoreScan = envIntOr("LYFTR_MAX_LOAD_MORE_SCAN", sc.MaxLoadMoreScan)
	sc.TabSettle = envDurationOr("LYFTR_TAB_SETTLE", sc.TabSettle)
	sc.LoadMoreSettle = envDurationOr("LYFTR_LOAD_MORE_SETTLE", sc.LoadMoreSettle)
	sc.ScrollSettle = envDurationOr("LYFTR_SCROLL_SETTLE", sc.ScrollSettle)

	a := &cfg.Auth
	a.Enabled = envBoolOr("LYFTR_AUTH_ENABLED", a.Enabled)
	a.APIKeys = envSliceOr("LYFTR_API_KEYS", a.APIKeys)

	r := &cfg.RateLimit
	r.RequestsPerSecond = envFloatOr("LYFTR_RATE_RPS", r.RequestsPerSecond)
	r.Burst = envIntOr("LYFTR_RATE_BURST", r.Burst)

	l := &cfg.Log
	l.Level = envOr("LYFTR_LOG_LEVEL", l.Level)
	l.Format = envOr("LYFTR_LOG_FORMAT", l.Format)
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

// envDurationOr accepts Go durations ("1500ms", "2s"); a bare number is
// read as seconds.
func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(f * float64(time.Second))
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
