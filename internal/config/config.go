package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// Browser identity
	UserAgent string
	Locale    string
	Proxy     string
	Headers   []string

	// Timeouts
	NavigationTimeout  time.Duration
	NavigationAttempts int
	ContentWaitTimeout time.Duration
	ScrapeTimeout      time.Duration

	// Browser Pool
	BrowserPoolSize int
	BrowserHeadless bool
	ChromePath      string
	WindowWidth     int
	WindowHeight    int
	PoolAcquireTTL  time.Duration

	// Scroll pagination
	ScrollDelta         float64
	ScrollDelay         time.Duration
	StagnationLimit     int
	MaxScrollIterations int
	ReviewsPerBatch     int
	LimitMode           string

	// Interception
	MinPayloadChars int

	// Extras
	DOMCheck    bool
	Concurrency int

	// Caching
	CacheTTL  time.Duration
	CacheSize int

	// Server
	ListenAddr string
}

// Default returns a Config populated with defaults only
func Default() *Config {
	return &Config{
		LogLevel:            DefaultLogLevel,
		JSONLog:             DefaultJSONLog,
		UserAgent:           DefaultUserAgent,
		Locale:              DefaultLocale,
		NavigationTimeout:   DefaultNavigationTimeout,
		NavigationAttempts:  DefaultNavigationAttempts,
		ContentWaitTimeout:  DefaultContentWaitTimeout,
		ScrapeTimeout:       DefaultScrapeTimeout,
		BrowserPoolSize:     DefaultBrowserPoolSize,
		BrowserHeadless:     DefaultBrowserHeadless,
		WindowWidth:         DefaultWindowWidth,
		WindowHeight:        DefaultWindowHeight,
		PoolAcquireTTL:      DefaultPoolAcquireTTL,
		ScrollDelta:         DefaultScrollDelta,
		ScrollDelay:         DefaultScrollDelay,
		StagnationLimit:     DefaultStagnationLimit,
		MaxScrollIterations: DefaultMaxScrollIterations,
		ReviewsPerBatch:     DefaultReviewsPerBatch,
		LimitMode:           DefaultLimitMode,
		MinPayloadChars:     DefaultMinPayloadChars,
		CacheTTL:            DefaultCacheTTL,
		CacheSize:           DefaultCacheSize,
		ListenAddr:          DefaultListenAddr,
	}
}

// Load builds a Config by combining defaults, environment variables, and CLI flags.
// Caller should pass the executing *cobra.Command so both persistent and local flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Default()

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cmd != nil {
		applyFlags(cfg, cmd)
	}

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = cfg.BrowserPoolSize
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("REVIEWCRAWL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("REVIEWCRAWL_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("REVIEWCRAWL_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv("REVIEWCRAWL_CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv("REVIEWCRAWL_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("REVIEWCRAWL_LIMIT_MODE"); v != "" {
		cfg.LimitMode = v
	}

	var err error
	if cfg.BrowserPoolSize, err = envInt("REVIEWCRAWL_POOL_SIZE", cfg.BrowserPoolSize); err != nil {
		return err
	}
	if cfg.Concurrency, err = envInt("REVIEWCRAWL_CONCURRENCY", cfg.Concurrency); err != nil {
		return err
	}
	if cfg.NavigationAttempts, err = envInt("REVIEWCRAWL_NAVIGATION_ATTEMPTS", cfg.NavigationAttempts); err != nil {
		return err
	}
	if cfg.NavigationTimeout, err = envDuration("REVIEWCRAWL_NAVIGATION_TIMEOUT", cfg.NavigationTimeout); err != nil {
		return err
	}
	if cfg.ScrollDelay, err = envDuration("REVIEWCRAWL_SCROLL_DELAY", cfg.ScrollDelay); err != nil {
		return err
	}
	return nil
}

func applyFlags(cfg *Config, cmd *cobra.Command) {
	flags := cmd.Flags()

	if f := flags.Lookup("user-agent"); f != nil {
		if s := f.Value.String(); s != "" {
			cfg.UserAgent = s
		}
	}
	if f := flags.Lookup("proxy"); f != nil {
		if s := f.Value.String(); s != "" {
			cfg.Proxy = s
		}
	}
	if f := flags.Lookup("chrome-path"); f != nil {
		if s := f.Value.String(); s != "" {
			cfg.ChromePath = s
		}
	}
	if f := flags.Lookup("timeout"); f != nil {
		if s := f.Value.String(); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.NavigationTimeout = d
			}
		}
	}
	if f := flags.Lookup("json"); f != nil && f.Value.String() == "true" {
		cfg.JSONLog = true
	}
	if f := flags.Lookup("verbose"); f != nil && f.Value.String() == "true" {
		cfg.LogLevel = "debug"
	}
	if f := flags.Lookup("quiet"); f != nil && f.Value.String() == "true" {
		cfg.LogLevel = "error"
	}
	if f := flags.Lookup("headful"); f != nil && f.Value.String() == "true" {
		cfg.BrowserHeadless = false
	}
	if f := flags.Lookup("no-cache"); f != nil && f.Value.String() == "true" {
		cfg.CacheSize = 0
	}
	if f := flags.Lookup("pool-size"); f != nil && f.Changed {
		if n, err := strconv.Atoi(f.Value.String()); err == nil {
			cfg.BrowserPoolSize = n
		}
	}

	// Command-local flags
	if f := flags.Lookup("concurrency"); f != nil && f.Changed {
		if n, err := strconv.Atoi(f.Value.String()); err == nil {
			cfg.Concurrency = n
		}
	}
	if f := flags.Lookup("limit-mode"); f != nil && f.Changed {
		cfg.LimitMode = f.Value.String()
	}
	if f := flags.Lookup("dom-check"); f != nil && f.Value.String() == "true" {
		cfg.DOMCheck = true
	}
	if f := flags.Lookup("addr"); f != nil && f.Changed {
		cfg.ListenAddr = f.Value.String()
	}
	if headers, err := flags.GetStringArray("header"); err == nil && len(headers) > 0 {
		cfg.Headers = headers
	}
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
