package engine

import (
	"context"
	"time"

	"github.com/law-makers/reviewcrawl/internal/config"
)

// StopReason records why a scroll loop ended
type StopReason string

const (
	StopLimit         StopReason = "limit"
	StopStagnation    StopReason = "stagnation"
	StopMaxIterations StopReason = "max_iterations"
	StopCancelled     StopReason = "cancelled"
)

// DefaultHoverSelector matches the scrollable review feed
const DefaultHoverSelector = `div[role="feed"], .m6QErb[aria-label]`

// PaginatorOptions configures the scroll loop
type PaginatorOptions struct {
	HoverSelector   string
	ScrollDelta     float64
	ScrollDelay     time.Duration
	StagnationLimit int
	MaxIterations   int
	ReviewsPerBatch int
}

// Outcome summarizes a finished scroll loop
type Outcome struct {
	Reason     StopReason
	Iterations int
	Batches    int
	Elapsed    time.Duration
}

// Paginator drives scroll input until the session stops growing, reaches its
// limit, or the iteration cap is hit.
type Paginator struct {
	opts PaginatorOptions
}

// NewPaginator creates a Paginator, filling zero options from config defaults
func NewPaginator(opts PaginatorOptions) *Paginator {
	if opts.HoverSelector == "" {
		opts.HoverSelector = DefaultHoverSelector
	}
	if opts.ScrollDelta == 0 {
		opts.ScrollDelta = config.DefaultScrollDelta
	}
	if opts.ScrollDelay < 0 {
		opts.ScrollDelay = 0
	}
	if opts.StagnationLimit <= 0 {
		opts.StagnationLimit = config.DefaultStagnationLimit
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = config.DefaultMaxScrollIterations
	}
	if opts.ReviewsPerBatch <= 0 {
		opts.ReviewsPerBatch = config.DefaultReviewsPerBatch
	}
	return &Paginator{opts: opts}
}

// Run scrolls page until a stop condition holds. Limit is checked before
// stagnation, and both before the iteration cap. On cancellation the partial
// outcome is returned together with ctx.Err().
func (p *Paginator) Run(ctx context.Context, page Scroller, sess *Session) (Outcome, error) {
	start := time.Now()
	logger := sess.Log

	if err := page.Hover(ctx, p.opts.HoverSelector); err != nil {
		logger.Debug().Err(err).Msg("Could not focus review feed")
	}

	if sess.Limit > 0 {
		logger.Info().Int("max_reviews", sess.Limit).Msg("Scrape limited to approximately max_reviews")
	}

	var out Outcome
	finish := func(reason StopReason) Outcome {
		out.Reason = reason
		out.Elapsed = time.Since(start)
		return out
	}

	for out.Iterations < p.opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return finish(StopCancelled), err
		}
		out.Iterations++

		if err := page.Scroll(ctx, p.opts.ScrollDelta); err != nil {
			logger.Debug().Err(err).Int("iteration", out.Iterations).Msg("Scroll failed")
		}

		if err := Sleep(ctx, p.opts.ScrollDelay); err != nil {
			return finish(StopCancelled), err
		}

		prog := sess.Tick()
		out.Batches = prog.Batches
		if prog.New > 0 {
			logger.Debug().
				Int("new_batches", prog.New).
				Int64("since_last_ms", prog.SinceLast.Milliseconds()).
				Int("batches", prog.Batches).
				Msg("Acquired new batches")
		}

		if p.limitReached(sess, prog.Batches) {
			logger.Info().Int("batches", prog.Batches).Int("iteration", out.Iterations).Msg("Reached requested limit")
			return finish(StopLimit), nil
		}
		if prog.Stagnation >= p.opts.StagnationLimit {
			logger.Info().Int("stagnation", prog.Stagnation).Int("iteration", out.Iterations).Msg("No new data, concluding scroll")
			return finish(StopStagnation), nil
		}
	}

	logger.Warn().Int("iterations", out.Iterations).Msg("Scroll iteration cap reached")
	return finish(StopMaxIterations), nil
}

func (p *Paginator) limitReached(sess *Session, batches int) bool {
	if sess.Limit <= 0 {
		return false
	}
	if sess.Tracking() {
		return sess.UniqueCount() >= sess.Limit
	}
	return batches*p.opts.ReviewsPerBatch >= sess.Limit
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
