package models

import (
	"encoding/json"
	"time"
)

// Review is one normalized review record recovered from a captured payload
type Review struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Date   string  `json:"date"`
	Rating float64 `json:"rating"`
	Text   *string `json:"text"`
}

// Placeholder used for name and date when the positional path is absent
const Unknown = "Unknown"

// ResultStatus is the per-URL outcome of a batch request
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
)

// URLResult is the outcome of scraping a single URL within a batch.
// It marshals to {status, count, reviews} on success and {status, error} on failure.
type URLResult struct {
	Status  ResultStatus
	Reviews []Review
	Error   string
}

// Count returns the number of reviews carried by a successful result
func (r URLResult) Count() int {
	return len(r.Reviews)
}

// MarshalJSON implements json.Marshaler
func (r URLResult) MarshalJSON() ([]byte, error) {
	if r.Status == StatusError {
		return json.Marshal(struct {
			Status ResultStatus `json:"status"`
			Error  string       `json:"error"`
		}{r.Status, r.Error})
	}

	reviews := r.Reviews
	if reviews == nil {
		reviews = []Review{}
	}
	return json.Marshal(struct {
		Status  ResultStatus `json:"status"`
		Count   int          `json:"count"`
		Reviews []Review     `json:"reviews"`
	}{StatusSuccess, len(reviews), reviews})
}

// UnmarshalJSON implements json.Unmarshaler
func (r *URLResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		Status  ResultStatus `json:"status"`
		Reviews []Review     `json:"reviews"`
		Error   string       `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Status = raw.Status
	r.Reviews = raw.Reviews
	r.Error = raw.Error
	return nil
}

// SuccessResult builds a success entry
func SuccessResult(reviews []Review) URLResult {
	return URLResult{Status: StatusSuccess, Reviews: reviews}
}

// ErrorResult builds an error entry
func ErrorResult(err error) URLResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return URLResult{Status: StatusError, Error: msg}
}

// BatchRequest is the ingress shape accepted by the HTTP server
type BatchRequest struct {
	URLs       []string `json:"urls"`
	MaxReviews *int     `json:"max_reviews,omitempty"`
}

// Limit returns the requested review limit, 0 meaning unlimited
func (b BatchRequest) Limit() int {
	if b.MaxReviews == nil || *b.MaxReviews < 0 {
		return 0
	}
	return *b.MaxReviews
}

// BatchResponse maps each requested URL to its result
type BatchResponse map[string]URLResult

// ScrapeReport carries a scrape's reviews together with run diagnostics
type ScrapeReport struct {
	URL        string        `json:"url"`
	Reviews    []Review      `json:"reviews"`
	Batches    int           `json:"batches"`
	Iterations int           `json:"iterations"`
	StopReason string        `json:"stop_reason"`
	Discarded  int           `json:"discarded"`
	DOMReviews int           `json:"dom_reviews,omitempty"`
	Cached     bool          `json:"cached,omitempty"`
	Duration   time.Duration `json:"duration"`
}
