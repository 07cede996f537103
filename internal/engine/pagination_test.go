package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/law-makers/reviewcrawl/internal/config"
	"github.com/law-makers/reviewcrawl/internal/engine/reviews"
	"github.com/law-makers/reviewcrawl/pkg/models"
	"github.com/tidwall/gjson"
)

// feedScroller appends produce(n) batches to the session on the n-th scroll
type feedScroller struct {
	sess     *Session
	produce  func(n int) []gjson.Result
	scrolls  int
	hoverErr error
	onScroll func()
}

func (f *feedScroller) Hover(context.Context, string) error { return f.hoverErr }

func (f *feedScroller) Scroll(context.Context, float64) error {
	f.scrolls++
	for _, root := range f.produce(f.scrolls) {
		var extracted []models.Review
		if f.sess.Tracking() {
			extracted, _ = reviews.Extract(root)
		}
		f.sess.Append("u", root, extracted)
	}
	if f.onScroll != nil {
		f.onScroll()
	}
	return nil
}

func batchesUntil(k int) func(int) []gjson.Result {
	return func(n int) []gjson.Result {
		if n > k {
			return nil
		}
		return []gjson.Result{gjson.Parse(`[]`)}
	}
}

func fastPaginator(opts PaginatorOptions) *Paginator {
	opts.ScrollDelay = 0
	return NewPaginator(opts)
}

func TestPaginatorStagnationStop(t *testing.T) {
	const k = 5
	sess := newTestSession(0, false)
	f := &feedScroller{sess: sess, produce: batchesUntil(k)}

	out, err := fastPaginator(PaginatorOptions{}).Run(context.Background(), f, sess)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Reason != StopStagnation {
		t.Errorf("reason = %s, want stagnation", out.Reason)
	}
	if out.Iterations > k+config.DefaultStagnationLimit {
		t.Errorf("stopped after %d iterations, want <= %d", out.Iterations, k+config.DefaultStagnationLimit)
	}
	if out.Iterations != k+config.DefaultStagnationLimit {
		t.Errorf("iterations = %d, want %d", out.Iterations, k+config.DefaultStagnationLimit)
	}
	if out.Batches != k {
		t.Errorf("batches = %d, want %d", out.Batches, k)
	}
}

func TestPaginatorLimitStop(t *testing.T) {
	sess := newTestSession(30, false)
	f := &feedScroller{sess: sess, produce: batchesUntil(1000)}

	out, err := fastPaginator(PaginatorOptions{}).Run(context.Background(), f, sess)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Reason != StopLimit || out.Batches != 3 || out.Iterations != 3 {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestPaginatorLimitBeforeStagnation(t *testing.T) {
	sess := newTestSession(30, false)
	f := &feedScroller{sess: sess, produce: func(n int) []gjson.Result {
		if n == 1 {
			return []gjson.Result{gjson.Parse(`[]`), gjson.Parse(`[]`), gjson.Parse(`[]`)}
		}
		return nil
	}}

	out, _ := fastPaginator(PaginatorOptions{StagnationLimit: 1}).Run(context.Background(), f, sess)
	if out.Reason != StopLimit || out.Iterations != 1 {
		t.Errorf("expected limit stop on first iteration, got %+v", out)
	}
}

func TestPaginatorNoLimitIgnoresBatches(t *testing.T) {
	sess := newTestSession(0, false)
	f := &feedScroller{sess: sess, produce: batchesUntil(20)}

	out, _ := fastPaginator(PaginatorOptions{StagnationLimit: 3}).Run(context.Background(), f, sess)
	if out.Reason != StopStagnation || out.Batches != 20 {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestPaginatorHardCap(t *testing.T) {
	sess := newTestSession(0, false)
	f := &feedScroller{sess: sess, produce: batchesUntil(1 << 20)}

	out, err := fastPaginator(PaginatorOptions{MaxIterations: 10}).Run(context.Background(), f, sess)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Reason != StopMaxIterations || out.Iterations != 10 {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestPaginatorHardCapWinsOverLateStagnation(t *testing.T) {
	sess := newTestSession(0, false)
	f := &feedScroller{sess: sess, produce: batchesUntil(0)}

	out, _ := fastPaginator(PaginatorOptions{MaxIterations: 10, StagnationLimit: 50}).Run(context.Background(), f, sess)
	if out.Reason != StopMaxIterations || out.Iterations != 10 {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestPaginatorExactLimit(t *testing.T) {
	sess := newTestSession(3, true)
	batches := []string{
		`[` + record("Ch1", "a", "d", 5) + `,` + record("Ch2", "b", "d", 4) + `]`,
		`[` + record("Ch2", "b", "d", 4) + `]`,
		`[` + record("Ch3", "c", "d", 3) + `]`,
	}
	f := &feedScroller{sess: sess, produce: func(n int) []gjson.Result {
		if n > len(batches) {
			return nil
		}
		return []gjson.Result{gjson.Parse(batches[n-1])}
	}}

	out, _ := fastPaginator(PaginatorOptions{}).Run(context.Background(), f, sess)
	if out.Reason != StopLimit || out.Iterations != 3 {
		t.Errorf("expected exact limit stop at iteration 3, got %+v", out)
	}
}

func TestPaginatorHoverFailureIgnored(t *testing.T) {
	sess := newTestSession(10, false)
	f := &feedScroller{sess: sess, produce: batchesUntil(5), hoverErr: errors.New("no feed")}

	out, err := fastPaginator(PaginatorOptions{}).Run(context.Background(), f, sess)
	if err != nil || out.Reason != StopLimit {
		t.Errorf("hover failure should be ignored, got %+v, %v", out, err)
	}
}

func TestPaginatorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sess := newTestSession(0, false)
	f := &feedScroller{sess: sess, produce: batchesUntil(1 << 20)}
	f.onScroll = func() {
		if f.scrolls == 4 {
			cancel()
		}
	}

	out, err := NewPaginator(PaginatorOptions{ScrollDelay: time.Millisecond}).Run(ctx, f, sess)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if out.Reason != StopCancelled || out.Iterations != 4 {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestSleep(t *testing.T) {
	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("zero sleep: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
}
