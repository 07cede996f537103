// internal/engine/dynamic/browser_pool.go
package dynamic

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/law-makers/reviewcrawl/internal/config"
	"github.com/law-makers/reviewcrawl/internal/engine"
	"github.com/rs/zerolog/log"
)

// BrowserPool manages a pool of pre-warmed Chrome browser contexts.
// Each scrape opens its own tab inside an acquired context.
type BrowserPool struct {
	size        int
	contexts    chan *BrowserContext
	allocCtx    context.Context
	allocCancel context.CancelFunc
	mu          sync.Mutex
	closed      bool
}

// BrowserContext wraps a chromedp context with its cancel function
type BrowserContext struct {
	Ctx    context.Context
	Cancel context.CancelFunc
}

// BrowserOptions configures how Chrome is launched
type BrowserOptions struct {
	Size         int
	Headless     bool
	UserAgent    string
	Locale       string
	Proxy        string
	ChromePath   string
	WindowWidth  int
	WindowHeight int
	ExtraArgs    []chromedp.ExecAllocatorOption
}

// OptionsFromConfig maps application config onto browser options
func OptionsFromConfig(cfg *config.Config) BrowserOptions {
	return BrowserOptions{
		Size:         cfg.BrowserPoolSize,
		Headless:     cfg.BrowserHeadless,
		UserAgent:    cfg.UserAgent,
		Locale:       cfg.Locale,
		Proxy:        cfg.Proxy,
		ChromePath:   cfg.ChromePath,
		WindowWidth:  cfg.WindowWidth,
		WindowHeight: cfg.WindowHeight,
	}
}

func (o BrowserOptions) withDefaults() BrowserOptions {
	if o.Size <= 0 {
		o.Size = config.DefaultBrowserPoolSize
	}
	if o.Size > config.DefaultMaxBrowserPoolSize {
		o.Size = config.DefaultMaxBrowserPoolSize
	}
	if o.UserAgent == "" {
		o.UserAgent = config.DefaultUserAgent
	}
	if o.Locale == "" {
		o.Locale = config.DefaultLocale
	}
	if o.WindowWidth <= 0 || o.WindowHeight <= 0 {
		o.WindowWidth, o.WindowHeight = config.DefaultWindowWidth, config.DefaultWindowHeight
	}
	return o
}

// launchFlags are set on every Chrome this package starts
var launchFlags = map[string]interface{}{
	"disable-gpu":                   true,
	"no-sandbox":                    true,
	"disable-dev-shm-usage":         true,
	"disable-extensions":            true,
	"disable-background-networking": true,
	"disable-default-apps":          true,
	"disable-sync":                  true,
	"disable-translate":             true,
	"disable-infobars":              true,
	"mute-audio":                    true,
	"log-level":                     "3",
	"disable-features":              "site-per-process,TranslateUI",
	"disable-blink-features":        "AutomationControlled",
}

// allocatorOptions builds the launch options shared by pooled and one-off browsers
func allocatorOptions(o BrowserOptions) []chromedp.ExecAllocatorOption {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("lang", o.Locale),
		chromedp.Flag("headless", headlessValue(o.Headless)),
		chromedp.WindowSize(o.WindowWidth, o.WindowHeight),
		chromedp.UserAgent(o.UserAgent),
	}
	for name, value := range launchFlags {
		allocOpts = append(allocOpts, chromedp.Flag(name, value))
	}
	if o.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(o.ChromePath))
	}
	if o.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(o.Proxy))
	}
	return append(allocOpts, o.ExtraArgs...)
}

func headlessValue(headless bool) interface{} {
	if headless {
		return "new"
	}
	return false
}

// NewBrowserPool launches one browser and pre-creates opts.Size contexts in it
func NewBrowserPool(opts BrowserOptions) (*BrowserPool, error) {
	opts = opts.withDefaults()

	log.Debug().Int("size", opts.Size).Str("chrome", opts.ChromePath).Msg("Creating browser pool")

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(opts)...)
	pool := &BrowserPool{
		size:        opts.Size,
		contexts:    make(chan *BrowserContext, opts.Size),
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}

	for i := 0; i < opts.Size; i++ {
		bc, err := pool.newContext()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to start browser context %d: %w", i, err)
		}
		pool.contexts <- bc
	}

	log.Info().Int("pool_size", opts.Size).Msg("Browser pool ready")
	return pool, nil
}

// newContext opens a browser context and waits for its first blank target
func (bp *BrowserPool) newContext() (*BrowserContext, error) {
	ctx, cancel := chromedp.NewContext(bp.allocCtx)
	if err := chromedp.Run(ctx, chromedp.Navigate("about:blank")); err != nil {
		cancel()
		return nil, err
	}
	return &BrowserContext{Ctx: ctx, Cancel: cancel}, nil
}

// Acquire takes an idle browser context, blocking until one is free or ctx is done
func (bp *BrowserPool) Acquire(ctx context.Context) (*BrowserContext, error) {
	select {
	case bc, ok := <-bp.contexts:
		if !ok {
			return nil, engine.ErrPoolClosed
		}
		return bc, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("no browser context became available: %w", ctx.Err())
	}
}

// Release hands a context back. A context whose browser target has died is
// replaced with a fresh one so the pool keeps its size.
func (bp *BrowserPool) Release(bc *BrowserContext) {
	if bc.Ctx.Err() != nil {
		bc.Cancel()
		fresh, err := bp.newContext()
		if err != nil {
			log.Warn().Err(err).Msg("Could not replace dead browser context")
			return
		}
		log.Debug().Msg("Replaced dead browser context")
		bc = fresh
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.closed {
		bc.Cancel()
		return
	}
	select {
	case bp.contexts <- bc:
	default:
		bc.Cancel()
	}
}

// Close cancels every idle context and stops the browser. Contexts still
// checked out are cancelled when the allocator goes away.
func (bp *BrowserPool) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return nil
	}
	bp.closed = true

	close(bp.contexts)
	for bc := range bp.contexts {
		bc.Cancel()
	}
	bp.allocCancel()

	log.Debug().Msg("Browser pool closed")
	return nil
}

// Size returns the pool size
func (bp *BrowserPool) Size() int {
	return bp.size
}

// Available returns the number of idle contexts in the pool
func (bp *BrowserPool) Available() int {
	return len(bp.contexts)
}
