package engine

import (
	"context"
	"sync"
	"time"

	"github.com/law-makers/reviewcrawl/internal/engine/reviews"
	"github.com/law-makers/reviewcrawl/internal/reqctx"
	"github.com/law-makers/reviewcrawl/pkg/models"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Batch is one parsed review payload captured from a network response
type Batch struct {
	Seq  int
	URL  string
	Root gjson.Result
}

// Session is the transient state of one scrape. The interceptor appends
// batches from response goroutines while the paginator reads counts.
type Session struct {
	URL   string
	Limit int
	Log   zerolog.Logger

	mu           sync.RWMutex
	batches      []Batch
	started      time.Time
	lastProgress time.Time
	lastCount    int
	stagnation   int
	unique       *reviews.Deduper
	sealed       bool
}

// NewSession starts a session for url. When track is set, reviews extracted
// from each batch on arrival are kept in a running deduplicator.
func NewSession(ctx context.Context, url string, limit int, track bool) *Session {
	now := time.Now()
	s := &Session{
		URL:          url,
		Limit:        limit,
		Log:          reqctx.Logger(ctx).With().Str("url", url).Logger(),
		started:      now,
		lastProgress: now,
	}
	if track {
		s.unique = reviews.NewDeduper()
	}
	return s
}

// Append stores a parsed batch and any reviews already extracted from it.
// It returns the new batch count.
func (s *Session) Append(url string, root gjson.Result, extracted []models.Review) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return len(s.batches), ErrSessionSealed
	}
	s.batches = append(s.batches, Batch{Seq: len(s.batches), URL: url, Root: root})
	if s.unique != nil {
		s.unique.AddAll(extracted)
	}
	return len(s.batches), nil
}

// BatchCount returns the number of captured batches
func (s *Session) BatchCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.batches)
}

// UniqueCount returns the running unique review count, or -1 when the
// session is not tracking reviews.
func (s *Session) UniqueCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.unique == nil {
		return -1
	}
	return s.unique.Len()
}

// Tracking reports whether reviews are extracted on arrival
func (s *Session) Tracking() bool {
	return s.unique != nil
}

// Progress is the result of one Tick
type Progress struct {
	Batches    int
	New        int
	Stagnation int
	SinceLast  time.Duration
}

// Tick compares the batch count with the previous tick, resetting or
// advancing the stagnation counter.
func (s *Session) Tick() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	p := Progress{Batches: len(s.batches)}
	if p.Batches > s.lastCount {
		p.New = p.Batches - s.lastCount
		p.SinceLast = now.Sub(s.lastProgress)
		s.stagnation = 0
		s.lastProgress = now
	} else {
		s.stagnation++
	}
	s.lastCount = p.Batches
	p.Stagnation = s.stagnation
	return p
}

// Seal stops the session from accepting further batches
func (s *Session) Seal() {
	s.mu.Lock()
	s.sealed = true
	s.mu.Unlock()
}

// Sealed reports whether Seal has been called
func (s *Session) Sealed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sealed
}

// Batches returns a copy of the captured batches in arrival order
func (s *Session) Batches() []Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Batch, len(s.batches))
	copy(out, s.batches)
	return out
}

// Roots returns the parsed payload of every batch in arrival order
func (s *Session) Roots() []gjson.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]gjson.Result, len(s.batches))
	for i, b := range s.batches {
		out[i] = b.Root
	}
	return out
}

// Elapsed returns the time since the session started
func (s *Session) Elapsed() time.Duration {
	return time.Since(s.started)
}
