// internal/engine/dynamic/renderer.go
package dynamic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/law-makers/reviewcrawl/internal/engine"
	"github.com/rs/zerolog/log"
)

// Renderer opens Chrome tabs for scrapes. With a pool, tabs are opened inside
// pooled browser contexts; without one, each page launches its own browser.
type Renderer struct {
	pool           *BrowserPool
	opts           BrowserOptions
	acquireTimeout time.Duration
}

// NewRenderer creates a Renderer. pool may be nil.
func NewRenderer(pool *BrowserPool, opts BrowserOptions, acquireTimeout time.Duration) *Renderer {
	return &Renderer{
		pool:           pool,
		opts:           opts.withDefaults(),
		acquireTimeout: acquireTimeout,
	}
}

// NewPage opens a tab with request blocking, extra headers and the response
// observer installed. Cancelling ctx closes the tab.
func (r *Renderer) NewPage(ctx context.Context, popts engine.PageOptions) (engine.Page, error) {
	start := time.Now()

	var (
		tabCtx    context.Context
		tabCancel context.CancelFunc
		release   func()
	)

	if r.pool != nil {
		acqCtx, cancel := ctx, context.CancelFunc(func() {})
		if r.acquireTimeout > 0 {
			acqCtx, cancel = context.WithTimeout(ctx, r.acquireTimeout)
		}
		bc, err := r.pool.Acquire(acqCtx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire browser from pool: %w", err)
		}
		tabCtx, tabCancel = chromedp.NewContext(bc.Ctx)
		release = func() { r.pool.Release(bc) }

		log.Debug().Dur("elapsed_ms", time.Since(start)).Msg("Acquired browser from pool")
	} else {
		allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(r.opts)...)
		tabCtx, tabCancel = chromedp.NewContext(allocCtx)
		release = allocCancel

		log.Debug().Msg("Created new browser context (fallback)")
	}

	p := &chromePage{
		ctx:      tabCtx,
		cancel:   tabCancel,
		release:  release,
		observer: popts.Observer,
		locale:   r.opts.Locale,
	}
	p.stop = context.AfterFunc(ctx, tabCancel)
	p.listen()

	// The first Run creates the tab and binds it to the context it is given,
	// so it must get tabCtx itself. ctx still aborts it through p.stop.
	if err := chromedp.Run(tabCtx, p.setup(popts)...); err != nil {
		p.Close()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("failed to prepare page: %v: %w", err, ctx.Err())
		}
		return nil, fmt.Errorf("failed to prepare page: %w", err)
	}
	return p, nil
}

type point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Found bool    `json:"found"`
}

// chromePage implements engine.Page on one chromedp tab
type chromePage struct {
	ctx      context.Context
	cancel   context.CancelFunc
	stop     func() bool
	release  func()
	observer engine.ResponseObserver
	locale   string

	pending sync.Map // network.RequestID -> response URL
	pointer point
	width   float64
	height  float64

	closeOnce sync.Once
}

// setup builds the actions run before the first navigation
func (p *chromePage) setup(popts engine.PageOptions) []chromedp.Action {
	actions := []chromedp.Action{network.Enable()}

	patterns := blockPatterns(popts)
	if len(patterns) > 0 {
		actions = append(actions, fetch.Enable().WithPatterns(patterns))
	}

	if len(popts.Headers) > 0 {
		h := make(network.Headers, len(popts.Headers))
		for k, v := range popts.Headers {
			h[k] = v
		}
		actions = append(actions, network.SetExtraHTTPHeaders(h))
	}

	return append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
		// Locale and viewport are per-tab; mirror the launch flags
		if err := emulation.SetLocaleOverride().WithLocale(p.locale).Do(ctx); err != nil {
			log.Debug().Err(err).Msg("Locale override not applied")
		}
		var size struct {
			W float64 `json:"w"`
			H float64 `json:"h"`
		}
		if err := chromedp.Evaluate(`({w: window.innerWidth, h: window.innerHeight})`, &size).Do(ctx); err == nil {
			p.width, p.height = size.W, size.H
		}
		return nil
	}))
}

// blockPatterns converts blocked resource types and URL patterns into
// request-stage fetch patterns
func blockPatterns(popts engine.PageOptions) []*fetch.RequestPattern {
	var patterns []*fetch.RequestPattern
	for _, rt := range popts.BlockedResourceTypes {
		patterns = append(patterns, &fetch.RequestPattern{
			ResourceType: network.ResourceType(rt),
			RequestStage: fetch.RequestStageRequest,
		})
	}
	for _, pat := range popts.BlockedURLPatterns {
		patterns = append(patterns, &fetch.RequestPattern{
			URLPattern:   pat,
			RequestStage: fetch.RequestStageRequest,
		})
	}
	return patterns
}

// listen forwards finished responses to the observer and fails blocked requests.
// Handlers must not block, so CDP calls are made from separate goroutines.
func (p *chromePage) listen() {
	chromedp.ListenTarget(p.ctx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *network.EventResponseReceived:
			p.pending.Store(ev.RequestID, ev.Response.URL)

		case *network.EventLoadingFinished:
			v, ok := p.pending.LoadAndDelete(ev.RequestID)
			if !ok || p.observer == nil {
				return
			}
			id := ev.RequestID
			go p.observer(v.(string), func() ([]byte, error) { return p.body(id) })

		case *network.EventLoadingFailed:
			p.pending.Delete(ev.RequestID)

		case *fetch.EventRequestPaused:
			id := ev.RequestID
			go func() {
				c := chromedp.FromContext(p.ctx)
				if c == nil || c.Target == nil {
					return
				}
				err := fetch.FailRequest(id, network.ErrorReasonBlockedByClient).Do(cdp.WithExecutor(p.ctx, c.Target))
				if err != nil && p.ctx.Err() == nil {
					log.Debug().Err(err).Msg("Failed to block request")
				}
			}()
		}
	})
}

func (p *chromePage) body(id network.RequestID) ([]byte, error) {
	c := chromedp.FromContext(p.ctx)
	if c == nil || c.Target == nil {
		return nil, fmt.Errorf("page target unavailable")
	}
	return network.GetResponseBody(id).Do(cdp.WithExecutor(p.ctx, c.Target))
}

// run executes actions on the tab, bounded by both the tab and ctx
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(runCtx, deadline)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%v: %w", err, ctx.Err())
	}
	return err
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (p *chromePage) WaitAttached(ctx context.Context, selector string) error {
	return p.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

const centerJS = `(() => {
	const el = document.querySelector(%q);
	if (!el) return {found: false};
	const r = el.getBoundingClientRect();
	return {found: true, x: r.left + r.width / 2, y: r.top + r.height / 2};
})()`

func (p *chromePage) Hover(ctx context.Context, selector string) error {
	var pt point
	if err := p.run(ctx, chromedp.Evaluate(fmt.Sprintf(centerJS, selector), &pt)); err != nil {
		return err
	}
	if !pt.Found {
		return fmt.Errorf("no element matches %q", selector)
	}
	p.pointer = pt
	return p.run(ctx, input.DispatchMouseEvent(input.MouseMoved, pt.X, pt.Y))
}

func (p *chromePage) Scroll(ctx context.Context, deltaY float64) error {
	x, y := p.pointer.X, p.pointer.Y
	if !p.pointer.Found {
		x, y = p.width/2, p.height/2
	}
	return p.run(ctx, input.DispatchMouseEvent(input.MouseWheel, x, y).
		WithDeltaX(0).
		WithDeltaY(deltaY))
}

func (p *chromePage) HTML(ctx context.Context) (string, error) {
	var html string
	err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// Close closes the tab and returns its browser context to the pool
func (p *chromePage) Close() error {
	p.closeOnce.Do(func() {
		p.stop()
		p.cancel()
		p.release()
	})
	return nil
}
