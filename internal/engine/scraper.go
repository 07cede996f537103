package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/reviewcrawl/internal/cache"
	"github.com/law-makers/reviewcrawl/internal/config"
	"github.com/law-makers/reviewcrawl/internal/engine/reviews"
	"github.com/law-makers/reviewcrawl/internal/metrics"
	"github.com/law-makers/reviewcrawl/internal/retry"
	urlutil "github.com/law-makers/reviewcrawl/internal/utils/url"
	"github.com/law-makers/reviewcrawl/pkg/models"
)

// ReviewCardSelector matches rendered review cards
const ReviewCardSelector = "div[data-review-id]"

// Resources blocked on every page
var (
	DefaultBlockedResourceTypes = []string{"Image", "Media"}
	DefaultBlockedURLPatterns   = []string{"*/maps/vt*"}
)

// ScraperOptions configures a ReviewScraper
type ScraperOptions struct {
	NavigationTimeout  time.Duration
	NavigationAttempts int
	NavigationBackoff  time.Duration
	ContentWaitTimeout time.Duration
	ScrapeTimeout      time.Duration
	ContentSelector    string

	BlockedResourceTypes []string
	BlockedURLPatterns   []string
	Headers              map[string]string

	Paginator       PaginatorOptions
	LimitMode       string
	MinPayloadChars int
	DOMCheck        bool
}

// OptionsFromConfig maps application config onto scraper options
func OptionsFromConfig(cfg *config.Config, headers map[string]string) ScraperOptions {
	return ScraperOptions{
		NavigationTimeout:  cfg.NavigationTimeout,
		NavigationAttempts: cfg.NavigationAttempts,
		NavigationBackoff:  time.Second,
		ContentWaitTimeout: cfg.ContentWaitTimeout,
		ScrapeTimeout:      cfg.ScrapeTimeout,
		Headers:            headers,
		Paginator: PaginatorOptions{
			ScrollDelta:     cfg.ScrollDelta,
			ScrollDelay:     cfg.ScrollDelay,
			StagnationLimit: cfg.StagnationLimit,
			MaxIterations:   cfg.MaxScrollIterations,
			ReviewsPerBatch: cfg.ReviewsPerBatch,
		},
		LimitMode:       cfg.LimitMode,
		MinPayloadChars: cfg.MinPayloadChars,
		DOMCheck:        cfg.DOMCheck,
	}
}

// ReviewScraper runs the render, scroll, extract and dedupe pipeline for one URL
type ReviewScraper struct {
	renderer Renderer
	cache    cache.Cache
	metrics  *metrics.Metrics
	opts     ScraperOptions
}

// NewReviewScraper creates a ReviewScraper. A nil cache disables caching.
func NewReviewScraper(r Renderer, c cache.Cache, m *metrics.Metrics, opts ScraperOptions) *ReviewScraper {
	if c == nil {
		c = cache.Nop{}
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = config.DefaultNavigationTimeout
	}
	if opts.NavigationAttempts <= 0 {
		opts.NavigationAttempts = 1
	}
	if opts.ScrapeTimeout <= 0 {
		opts.ScrapeTimeout = config.DefaultScrapeTimeout
	}
	if opts.ContentSelector == "" {
		opts.ContentSelector = ReviewCardSelector
	}
	if opts.BlockedResourceTypes == nil {
		opts.BlockedResourceTypes = DefaultBlockedResourceTypes
	}
	if opts.BlockedURLPatterns == nil {
		opts.BlockedURLPatterns = DefaultBlockedURLPatterns
	}
	if opts.LimitMode == "" {
		opts.LimitMode = config.DefaultLimitMode
	}
	return &ReviewScraper{renderer: r, cache: c, metrics: m, opts: opts}
}

// Scrape returns the de-duplicated reviews of url
func (s *ReviewScraper) Scrape(ctx context.Context, url string, maxReviews int) ([]models.Review, error) {
	rep, err := s.ScrapeReport(ctx, url, maxReviews)
	if err != nil {
		return nil, err
	}
	return rep.Reviews, nil
}

// ScrapeReport is Scrape with run diagnostics
func (s *ReviewScraper) ScrapeReport(ctx context.Context, url string, maxReviews int) (*models.ScrapeReport, error) {
	start := time.Now()
	if maxReviews < 0 {
		maxReviews = 0
	}

	if err := urlutil.ValidateURL(url); err != nil {
		s.metrics.ObserveScrape(string(models.StatusError), time.Since(start))
		return nil, NewEngineError(ErrCodeValidation, "invalid target URL", err).WithDetail("url", url)
	}

	key := cache.KeyFor(url, maxReviews)
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.IncCacheHit()
		return &models.ScrapeReport{
			URL:      url,
			Reviews:  cached,
			Cached:   true,
			Duration: time.Since(start),
		}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.ScrapeTimeout)
	defer cancel()

	sess := NewSession(ctx, url, maxReviews, s.opts.LimitMode == config.LimitModeExact)
	fail := func(err error) (*models.ScrapeReport, error) {
		s.metrics.ObserveScrape(string(models.StatusError), time.Since(start))
		sess.Log.Error().Err(err).Int64("elapsed_ms", sess.Elapsed().Milliseconds()).Msg("Scrape failed")
		return nil, err
	}

	sess.Log.Info().Int("max_reviews", maxReviews).Str("limit_mode", s.opts.LimitMode).Msg("Initializing scrape")

	interceptor := NewInterceptor(InterceptorOptions{
		MinPayloadChars: s.opts.MinPayloadChars,
		Exact:           sess.Tracking(),
		Metrics:         s.metrics,
	})

	page, err := s.renderer.NewPage(ctx, PageOptions{
		Observer:             interceptor.Observer(sess),
		BlockedResourceTypes: s.opts.BlockedResourceTypes,
		BlockedURLPatterns:   s.opts.BlockedURLPatterns,
		Headers:              s.opts.Headers,
	})
	if err != nil {
		return fail(NewEngineError(ErrCodeBrowser, "failed to open page", err))
	}
	defer page.Close()

	sess.Log.Info().Msg("Navigating to target URL")
	if err := s.navigate(ctx, page, url); err != nil {
		return fail(err)
	}

	s.waitForContent(ctx, page, sess)

	sess.Log.Info().Msg("Initiating scroll sequence")
	outcome, err := NewPaginator(s.opts.Paginator).Run(ctx, page, sess)
	sess.Seal()
	s.metrics.ObserveStop(string(outcome.Reason), outcome.Iterations)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fail(NewEngineError(ErrCodeTimeout, "scrape deadline exceeded", err).WithDetail("url", url))
		}
		return fail(NewEngineError(ErrCodeInternal, "scrape cancelled", err).WithDetail("url", url))
	}
	sess.Log.Info().
		Str("reason", string(outcome.Reason)).
		Int("iterations", outcome.Iterations).
		Int("batches", outcome.Batches).
		Int64("scroll_ms", outcome.Elapsed.Milliseconds()).
		Msg("Scroll sequence complete")

	domReviews := 0
	if s.opts.DOMCheck {
		domReviews = s.domCheck(ctx, page, sess)
	}

	roots := sess.Roots()
	sess.Log.Debug().Int("batches", len(roots)).Msg("Processing captured batches")
	all, stats := reviews.ExtractAll(roots)
	unique := reviews.Dedupe(all)

	s.metrics.AddRecordsDiscarded(stats.Discarded)
	s.metrics.AddReviews(len(unique))
	s.metrics.ObserveScrape(string(models.StatusSuccess), time.Since(start))
	s.cache.Set(key, unique)

	sess.Log.Info().
		Int("reviews", len(unique)).
		Int("candidates", stats.Records).
		Int("discarded", stats.Discarded).
		Int64("elapsed_ms", sess.Elapsed().Milliseconds()).
		Msg("Successfully extracted unique reviews")

	return &models.ScrapeReport{
		URL:        url,
		Reviews:    unique,
		Batches:    len(roots),
		Iterations: outcome.Iterations,
		StopReason: string(outcome.Reason),
		Discarded:  stats.Discarded,
		DOMReviews: domReviews,
		Duration:   time.Since(start),
	}, nil
}

// navigate loads url under the hard navigation timeout, retrying with backoff
func (s *ReviewScraper) navigate(ctx context.Context, page Page, url string) error {
	cfg := retry.Config{
		MaxAttempts:    s.opts.NavigationAttempts,
		InitialBackoff: s.opts.NavigationBackoff,
		MaxBackoff:     10 * s.opts.NavigationBackoff,
		Multiplier:     2,
		OnRetry:        func(int, error) { s.metrics.IncRetries() },
	}
	return retry.WithRetry(ctx, cfg, func() error {
		navCtx, cancel := context.WithTimeout(ctx, s.opts.NavigationTimeout)
		defer cancel()
		if err := page.Navigate(navCtx, url); err != nil {
			return navigationError(url, err)
		}
		return nil
	})
}

// waitForContent waits for review cards to attach; a timeout is not fatal
func (s *ReviewScraper) waitForContent(ctx context.Context, page Page, sess *Session) {
	if s.opts.ContentWaitTimeout <= 0 {
		return
	}
	waitCtx, cancel := context.WithTimeout(ctx, s.opts.ContentWaitTimeout)
	defer cancel()

	sess.Log.Debug().Str("selector", s.opts.ContentSelector).Msg("Waiting for review content")
	if err := page.WaitAttached(waitCtx, s.opts.ContentSelector); err != nil {
		sess.Log.Warn().Err(err).Msg("Reviews did not appear within timeout, continuing anyway")
		return
	}
	sess.Log.Debug().Msg("Review content detected")
}

// domCheck counts rendered review cards for comparison with the payload count
func (s *ReviewScraper) domCheck(ctx context.Context, page Page, sess *Session) int {
	html, err := page.HTML(ctx)
	if err != nil {
		sess.Log.Warn().Err(err).Msg("DOM check skipped")
		return 0
	}
	n, err := CountReviewCards(html)
	if err != nil {
		sess.Log.Warn().Err(err).Msg("DOM check skipped")
		return 0
	}
	sess.Log.Info().Int("dom_reviews", n).Msg("DOM check")
	return n
}

// CountReviewCards returns the number of distinct data-review-id values in html
func CountReviewCards(html string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("failed to parse HTML: %w", err)
	}
	ids := make(map[string]struct{})
	doc.Find(ReviewCardSelector).Each(func(_ int, sel *goquery.Selection) {
		if id, ok := sel.Attr("data-review-id"); ok && id != "" {
			ids[id] = struct{}{}
		}
	})
	return len(ids), nil
}
