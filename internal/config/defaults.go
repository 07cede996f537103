package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel  = "info"
	DefaultJSONLog   = false
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultLocale    = "en-US"

	// Navigation and waiting
	DefaultNavigationTimeout  = 60 * time.Second
	DefaultNavigationAttempts = 2
	DefaultContentWaitTimeout = 15 * time.Second
	DefaultScrapeTimeout      = 10 * time.Minute

	// Browser pool
	DefaultBrowserPoolSize    = 3
	DefaultMaxBrowserPoolSize = 10
	DefaultBrowserHeadless    = true
	DefaultWindowWidth        = 1366
	DefaultWindowHeight       = 768
	DefaultPoolAcquireTTL     = 30 * time.Second

	// Scroll pagination
	DefaultScrollDelta         = 8000.0
	DefaultScrollDelay         = 100 * time.Millisecond
	DefaultStagnationLimit     = 50
	DefaultMaxScrollIterations = 1000
	DefaultReviewsPerBatch     = 10
	DefaultLimitMode           = LimitModeEstimate

	// Interception
	DefaultMinPayloadChars = 1500

	// Result cache
	DefaultCacheTTL  = 5 * time.Minute
	DefaultCacheSize = 256

	// Server
	DefaultListenAddr = ":8000"
)

// Limit modes for the scroll stop condition
const (
	// LimitModeEstimate assumes every captured batch carries ReviewsPerBatch reviews
	LimitModeEstimate = "estimate"
	// LimitModeExact extracts each batch on arrival and counts unique reviews
	LimitModeExact = "exact"
)
