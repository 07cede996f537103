package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/law-makers/reviewcrawl/pkg/models"
)

const otherURL = "https://www.google.com/maps/place/Closed+Diner"

func TestScrapeBatchIsolatesFailures(t *testing.T) {
	r := newFakeRenderer(map[string]pageScript{
		placeURL: threeReviewScript(),
		otherURL: {navErr: fmt.Errorf("navigating: %w", context.DeadlineExceeded)},
	})
	b := NewBatchScraper(NewReviewScraper(r, nil, nil, testOptions()), 2)

	resp := b.ScrapeBatch(context.Background(), []string{placeURL, otherURL}, 0)
	if len(resp) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(resp))
	}

	ok := resp[placeURL]
	if ok.Status != models.StatusSuccess || ok.Count() != 3 {
		t.Errorf("expected success with 3 reviews, got %+v", ok)
	}
	bad := resp[otherURL]
	if bad.Status != models.StatusError || bad.Error == "" {
		t.Errorf("expected error entry, got %+v", bad)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded map[string]map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded[placeURL]["count"].(float64) != 3 {
		t.Errorf("expected count 3 in JSON, got %v", decoded[placeURL]["count"])
	}
	if _, has := decoded[otherURL]["reviews"]; has {
		t.Error("error entries must not carry reviews")
	}
}

func TestScrapeBatchRecoversPanics(t *testing.T) {
	r := newFakeRenderer(map[string]pageScript{
		placeURL: {panics: true},
		otherURL: threeReviewScript(),
	})
	b := NewBatchScraper(NewReviewScraper(r, nil, nil, testOptions()), 1)

	resp := b.ScrapeBatch(context.Background(), []string{placeURL, otherURL}, 0)
	if resp[placeURL].Status != models.StatusError {
		t.Errorf("expected panic to become an error entry, got %+v", resp[placeURL])
	}
	if resp[otherURL].Status != models.StatusSuccess {
		t.Errorf("panic must not affect other URLs, got %+v", resp[otherURL])
	}
}

func TestScrapeBatchOnResultAndDuplicates(t *testing.T) {
	r := newFakeRenderer(map[string]pageScript{placeURL: threeReviewScript()})
	b := NewBatchScraper(NewReviewScraper(r, nil, nil, testOptions()), 3)

	var mu sync.Mutex
	var seen []string
	b.OnResult = func(res Result) {
		mu.Lock()
		seen = append(seen, res.URL)
		mu.Unlock()
	}

	resp := b.ScrapeBatch(context.Background(), []string{placeURL, placeURL, "not-a-url"}, 0)
	if len(resp) != 2 || len(seen) != 2 {
		t.Errorf("expected 2 distinct results, got resp=%d callbacks=%d", len(resp), len(seen))
	}
	if resp["not-a-url"].Status != models.StatusError {
		t.Errorf("invalid URL should be reported, got %+v", resp["not-a-url"])
	}
	if r.openedCount() != 1 {
		t.Errorf("duplicate URL scraped %d times", r.openedCount())
	}
}

func TestScrapeBatchCancelled(t *testing.T) {
	r := newFakeRenderer(map[string]pageScript{placeURL: threeReviewScript(), otherURL: threeReviewScript()})
	b := NewBatchScraper(NewReviewScraper(r, nil, nil, testOptions()), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := b.ScrapeBatch(ctx, []string{placeURL, otherURL}, 0)
	if len(resp) != 2 {
		t.Fatalf("expected an entry per URL, got %d", len(resp))
	}
	for u, res := range resp {
		if res.Status != models.StatusError {
			t.Errorf("%s: expected error after cancellation, got %+v", u, res)
		}
	}
}

func TestOptimalConcurrency(t *testing.T) {
	if n := OptimalConcurrency(); n < 1 || n > 10 {
		t.Errorf("OptimalConcurrency() = %d, want 1..10", n)
	}
}
