package engine

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/law-makers/reviewcrawl/internal/reqctx"
	"github.com/law-makers/reviewcrawl/pkg/models"
	"github.com/shirou/gopsutil/v4/mem"
)

// memoryPerPage is the rough footprint of one rendered map page
const memoryPerPage = 150 << 20

// OptimalConcurrency calculates a concurrency level from CPU and available memory
func OptimalConcurrency() int {
	// Each scrape holds a full browser tab, so stay close to CPU count
	optimal := min(runtime.NumCPU(), 10)

	vm, err := mem.VirtualMemory()
	if err != nil {
		return optimal
	}
	if byMemory := int(vm.Available / memoryPerPage); byMemory > 0 && byMemory < optimal {
		return byMemory
	}
	return optimal
}

// Result is the outcome of one URL in a batch
type Result struct {
	URL string
	models.URLResult
}

// BatchScraper wraps a Scraper to process several URLs concurrently
type BatchScraper struct {
	scraper     Scraper
	concurrency int

	// OnResult, when set, is called once per URL as results complete
	OnResult func(Result)
}

// NewBatchScraper creates a new BatchScraper
// If concurrency <= 0, it auto-tunes based on system resources
func NewBatchScraper(scraper Scraper, concurrency int) *BatchScraper {
	if concurrency <= 0 {
		concurrency = OptimalConcurrency()
	}
	return &BatchScraper{
		scraper:     scraper,
		concurrency: concurrency,
	}
}

// Concurrency returns the number of URLs scraped at once
func (s *BatchScraper) Concurrency() int {
	return s.concurrency
}

// Stream scrapes urls concurrently and emits one Result per distinct URL.
// The channel is closed once every URL has reported.
func (s *BatchScraper) Stream(ctx context.Context, urls []string, maxReviews int) <-chan Result {
	urls = distinct(urls)
	results := make(chan Result, len(urls))

	go func() {
		var wg sync.WaitGroup
		sem := make(chan struct{}, s.concurrency)

		for _, u := range urls {
			if !acquire(ctx, sem) {
				results <- Result{URL: u, URLResult: models.ErrorResult(
					NewEngineError(ErrCodeInternal, "batch cancelled before scrape started", ctx.Err()))}
				continue
			}

			wg.Add(1)
			go func(u string) {
				defer wg.Done()
				defer func() { <-sem }()
				results <- Result{URL: u, URLResult: s.scrapeOne(ctx, u, maxReviews)}
			}(u)
		}

		wg.Wait()
		close(results)
	}()

	return results
}

// ScrapeBatch scrapes every URL and returns one entry per distinct URL.
// Failures, including panics, are reported per URL and never abort the batch.
func (s *BatchScraper) ScrapeBatch(ctx context.Context, urls []string, maxReviews int) models.BatchResponse {
	resp := make(models.BatchResponse, len(urls))
	for r := range s.Stream(ctx, urls, maxReviews) {
		resp[r.URL] = r.URLResult
		if s.OnResult != nil {
			s.OnResult(r)
		}
	}
	return resp
}

func (s *BatchScraper) scrapeOne(ctx context.Context, url string, maxReviews int) (res models.URLResult) {
	logger := reqctx.Logger(ctx).With().Str("url", url).Logger()

	defer func() {
		if r := recover(); r != nil {
			err := NewEngineError(ErrCodeInternal, "panic during scrape", fmt.Errorf("%v", r))
			logger.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from scrape panic")
			res = models.ErrorResult(err)
		}
	}()

	logger.Info().Int("max_reviews", maxReviews).Msg("Starting scrape")
	reviews, err := s.scraper.Scrape(ctx, url, maxReviews)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to scrape")
		return models.ErrorResult(err)
	}
	return models.SuccessResult(reviews)
}

// acquire takes a semaphore slot unless ctx is already done
func acquire(ctx context.Context, sem chan struct{}) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case sem <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

func distinct(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
