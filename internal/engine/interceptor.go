package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/law-makers/reviewcrawl/internal/engine/reviews"
	"github.com/law-makers/reviewcrawl/internal/metrics"
	"github.com/law-makers/reviewcrawl/pkg/models"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// GuardPrefix precedes every review payload to defeat JSON hijacking
const GuardPrefix = ")]}'"

// DefaultMarkers identify review pagination endpoints by URL substring
var DefaultMarkers = []string{"listugcposts", "review/list"}

// InterceptorOptions configures an Interceptor
type InterceptorOptions struct {
	Markers []string
	// MinPayloadChars is the size gate in characters of the sanitized body
	MinPayloadChars int
	// Exact extracts each batch on arrival so the session knows its unique review count
	Exact   bool
	Metrics *metrics.Metrics
}

// Interceptor turns pagination responses into session batches
type Interceptor struct {
	markers  []string
	minChars int
	exact    bool
	metrics  *metrics.Metrics
	warn     rate.Sometimes
}

// NewInterceptor creates an Interceptor
func NewInterceptor(opts InterceptorOptions) *Interceptor {
	markers := opts.Markers
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	return &Interceptor{
		markers:  markers,
		minChars: opts.MinPayloadChars,
		exact:    opts.Exact,
		metrics:  opts.Metrics,
		warn:     rate.Sometimes{First: 3, Interval: 10 * time.Second},
	}
}

// Matches reports whether url is a review pagination endpoint
func (i *Interceptor) Matches(url string) bool {
	for _, m := range i.markers {
		if strings.Contains(url, m) {
			return true
		}
	}
	return false
}

// Sanitize strips the guard prefix and surrounding whitespace
func (i *Interceptor) Sanitize(body string) string {
	s := strings.TrimSpace(body)
	s = strings.TrimPrefix(s, GuardPrefix)
	return strings.TrimSpace(s)
}

// Handle parses body and appends it to sess. It returns ErrPayloadTooSmall,
// ErrMalformedPayload or ErrSessionSealed for bodies that were not kept.
func (i *Interceptor) Handle(sess *Session, url string, body []byte) error {
	clean := i.Sanitize(string(body))
	if n := utf8.RuneCountInString(clean); n <= i.minChars {
		return fmt.Errorf("%w: %d chars", ErrPayloadTooSmall, n)
	}
	if !gjson.Valid(clean) {
		return fmt.Errorf("%w: invalid JSON", ErrMalformedPayload)
	}
	root := gjson.Parse(clean)
	if kind := reviews.KindOf(root); kind == reviews.Scalar {
		return fmt.Errorf("%w: top level is a %s", ErrMalformedPayload, kind)
	}

	var extracted []models.Review
	if i.exact {
		var stats reviews.Stats
		extracted, stats = reviews.Extract(root)
		i.metrics.AddRecordsDiscarded(stats.Discarded)
	}

	count, err := sess.Append(url, root, extracted)
	if err != nil {
		return err
	}
	i.metrics.IncBatch()

	ev := sess.Log.Info().Int("batches", count)
	if sess.Tracking() {
		ev = ev.Int("unique_reviews", sess.UniqueCount())
	}
	ev.Msg("Captured review batch")
	return nil
}

// Observer adapts the interceptor to a page's response stream. Bodies are
// only read for matching URLs and failures never propagate.
func (i *Interceptor) Observer(sess *Session) ResponseObserver {
	return func(url string, body BodyFunc) {
		if !i.Matches(url) {
			return
		}

		data, err := body()
		if err != nil {
			i.discard(sess, url, metrics.ReasonRead, err)
			return
		}

		err = i.Handle(sess, url, data)
		switch {
		case err == nil:
		case errors.Is(err, ErrPayloadTooSmall):
			i.discard(sess, url, metrics.ReasonUndersized, err)
		case errors.Is(err, ErrMalformedPayload):
			i.discard(sess, url, metrics.ReasonMalformed, err)
		case errors.Is(err, ErrSessionSealed):
			i.discard(sess, url, metrics.ReasonSealed, err)
		}
	}
}

func (i *Interceptor) discard(sess *Session, url, reason string, err error) {
	i.metrics.IncDiscarded(reason)
	sess.Log.Debug().Err(err).Str("response_url", url).Str("reason", reason).Msg("Discarded response")

	if reason == metrics.ReasonUndersized || reason == metrics.ReasonSealed {
		return
	}
	i.warn.Do(func() {
		sess.Log.Warn().Err(err).Str("reason", reason).Msg("Dropping unreadable review response")
	})
}
