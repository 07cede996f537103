package engine

import (
	"context"

	"github.com/law-makers/reviewcrawl/pkg/models"
)

// Scraper is the per-URL ingress contract
type Scraper interface {
	// Scrape renders url and returns its de-duplicated reviews. maxReviews <= 0 means no limit.
	Scrape(ctx context.Context, url string, maxReviews int) ([]models.Review, error)
}

// BodyFunc reads the body of an observed response
type BodyFunc func() ([]byte, error)

// ResponseObserver is invoked for every network response a page receives.
// It may be called from any goroutine.
type ResponseObserver func(url string, body BodyFunc)

// PageOptions configures a page before its first navigation
type PageOptions struct {
	Observer             ResponseObserver
	BlockedResourceTypes []string // CDP resource type names, e.g. "Image"
	BlockedURLPatterns   []string // wildcard URL patterns, e.g. "*/maps/vt*"
	Headers              map[string]string
}

// Scroller is the part of a page the pagination loop drives
type Scroller interface {
	// Hover moves the pointer over the first element matching selector
	Hover(ctx context.Context, selector string) error
	// Scroll dispatches one wheel event of deltaY pixels
	Scroll(ctx context.Context, deltaY float64) error
}

// Page is one rendered browser tab
type Page interface {
	Scroller

	// Navigate loads url and waits until the document body is attached
	Navigate(ctx context.Context, url string) error
	// WaitAttached blocks until selector matches an attached node
	WaitAttached(ctx context.Context, selector string) error
	// HTML returns the current outer HTML of the document
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Renderer opens pages
type Renderer interface {
	NewPage(ctx context.Context, opts PageOptions) (Page, error)
}
