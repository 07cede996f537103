// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/law-makers/reviewcrawl/internal/cache"
	"github.com/law-makers/reviewcrawl/internal/config"
	"github.com/law-makers/reviewcrawl/internal/engine"
	"github.com/law-makers/reviewcrawl/internal/engine/dynamic"
	"github.com/law-makers/reviewcrawl/internal/metrics"
	"github.com/law-makers/reviewcrawl/internal/utils/headers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	Metrics     *metrics.Metrics
	Cache       cache.Cache
	BrowserPool *dynamic.BrowserPool
	poolMu      sync.Mutex
	Renderer    engine.Renderer
	Scraper     *engine.ReviewScraper
	Batch       *engine.BatchScraper
	startTime   time.Time
}

// Option customizes Application construction
type Option func(*Application)

// WithRenderer replaces the Chrome-backed renderer, typically with a fake in tests
func WithRenderer(r engine.Renderer) Option {
	return func(a *Application) {
		a.Renderer = r
	}
}

// WithLogWriter sends log output to w instead of stderr
func WithLogWriter(w io.Writer) Option {
	return func(a *Application) {
		l := a.Logger.Output(w)
		a.Logger = &l
		log.Logger = l
	}
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Parses extra request headers
//   - Creates the result cache and metrics registry
//   - Creates the renderer (the browser pool itself starts lazily)
//   - Creates the review and batch scrapers
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := newLogger(cfg)

	extraHeaders, err := headers.ParseHeaders(cfg.Headers)
	if err != nil {
		return nil, fmt.Errorf("invalid header: %w", err)
	}

	var resultCache cache.Cache = cache.Nop{}
	if cfg.CacheSize > 0 {
		resultCache = cache.NewMemoryCache(cfg.CacheSize, cfg.CacheTTL)
		logger.Debug().
			Int("size", cfg.CacheSize).
			Dur("ttl", cfg.CacheTTL).
			Msg("Result cache initialized")
	}

	app := &Application{
		Config:    cfg,
		Logger:    &logger,
		Metrics:   metrics.New(),
		Cache:     resultCache,
		startTime: time.Now(),
	}
	app.Renderer = &lazyRenderer{app: app}

	for _, opt := range opts {
		opt(app)
	}

	app.Scraper = engine.NewReviewScraper(app.Renderer, app.Cache, app.Metrics,
		engine.OptionsFromConfig(cfg, extraHeaders))
	app.Batch = engine.NewBatchScraper(app.Scraper, cfg.Concurrency)

	app.Logger.Debug().
		Int("concurrency", app.Batch.Concurrency()).
		Str("limit_mode", cfg.LimitMode).
		Int("headers", len(extraHeaders)).
		Msg("Scrapers initialized")

	return app, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var logWriter io.Writer
	if cfg.JSONLog {
		// JSON logs to stderr
		logWriter = os.Stderr
	} else {
		logWriter = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(logWriter).With().Timestamp().Logger()
	log.Logger = logger

	logger.Debug().
		Str("level", level.String()).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")
	return logger
}

// EnsureBrowserPool lazily creates the browser pool if it has not already been
// initialized.
func (a *Application) EnsureBrowserPool(ctx context.Context) (*dynamic.BrowserPool, error) {
	if a == nil {
		return nil, fmt.Errorf("application is nil")
	}

	a.poolMu.Lock()
	defer a.poolMu.Unlock()

	if a.BrowserPool != nil {
		return a.BrowserPool, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := a.browserOptions()

	logger := a.Logger
	logger.Debug().Str("chrome", opts.ChromePath).Msg("Initializing browser pool on demand")
	pool, err := dynamic.NewBrowserPool(opts)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to create browser pool on demand")
		return nil, err
	}

	a.BrowserPool = pool
	logger.Info().
		Int("pool_size", pool.Size()).
		Str("chrome_version", dynamic.ChromeVersion(opts.ChromePath)).
		Msg("Browser pool initialized on demand")
	return pool, nil
}

func (a *Application) browserOptions() dynamic.BrowserOptions {
	opts := dynamic.OptionsFromConfig(a.Config)
	opts.ChromePath = dynamic.FindChrome(opts.ChromePath)
	return opts
}

// lazyRenderer defers browser startup until the first page is opened
type lazyRenderer struct {
	app *Application

	once     sync.Once
	renderer *dynamic.Renderer
}

func (l *lazyRenderer) NewPage(ctx context.Context, opts engine.PageOptions) (engine.Page, error) {
	l.once.Do(func() {
		pool, err := l.app.EnsureBrowserPool(ctx)
		if err != nil {
			l.app.Logger.Warn().Err(err).Msg("Browser pool unavailable, launching a browser per page")
			pool = nil
		}
		l.renderer = dynamic.NewRenderer(pool, l.app.browserOptions(), l.app.Config.PoolAcquireTTL)
	})
	return l.renderer.NewPage(ctx, opts)
}

// Close gracefully shuts down the application and all its resources.
//
// A context with a timeout should be provided to prevent indefinite blocking.
// Any errors during shutdown are logged but do not prevent other shutdown steps.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Debug().Msg("Shutting down application")

	a.poolMu.Lock()
	pool := a.BrowserPool
	a.BrowserPool = nil
	a.poolMu.Unlock()

	if pool != nil {
		done := make(chan error, 1)
		go func() { done <- pool.Close() }()
		select {
		case err := <-done:
			if err != nil {
				a.Logger.Warn().Err(err).Msg("Error closing browser pool")
			}
		case <-ctx.Done():
			a.Logger.Warn().Err(ctx.Err()).Msg("Timed out closing browser pool")
		}
	}

	if a.Cache != nil {
		a.Cache.Clear()
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
