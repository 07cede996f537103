// Package server exposes the batch scraper over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/law-makers/reviewcrawl/internal/reqctx"
	urlutil "github.com/law-makers/reviewcrawl/internal/utils/url"
	"github.com/law-makers/reviewcrawl/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestIDHeader carries the request ID in and out
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes bounds the size of a POST /scrape body
const maxBodyBytes = 1 << 20

// BatchRunner scrapes a set of URLs and reports one result per URL
type BatchRunner interface {
	ScrapeBatch(ctx context.Context, urls []string, maxReviews int) models.BatchResponse
}

// Server serves POST /scrape, GET /healthz and GET /metrics
type Server struct {
	runner   BatchRunner
	registry *prometheus.Registry
	logger   zerolog.Logger

	ShutdownTimeout time.Duration
}

// New creates a Server. A nil registry disables /metrics.
func New(runner BatchRunner, registry *prometheus.Registry, logger *zerolog.Logger) *Server {
	l := log.Logger
	if logger != nil {
		l = *logger
	}
	return &Server{
		runner:          runner,
		registry:        registry,
		logger:          l.With().Str("component", "server").Logger(),
		ShutdownTimeout: 10 * time.Second,
	}
}

// Handler returns the routed handler wrapped in request ID middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/scrape", s.handleScrape)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return s.withRequestID(mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := reqctx.WithLogger(r.Context(), s.logger)
		ctx = reqctx.WithRequestID(ctx, r.Header.Get(RequestIDHeader))
		rc := reqctx.GetRequestContext(ctx)
		w.Header().Set(RequestIDHeader, rc.RequestID)

		next.ServeHTTP(w, r.WithContext(ctx))

		reqctx.Logger(ctx).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", rc.Elapsed()).
			Msg("Request handled")
	})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed, use POST")
		return
	}

	var req models.BatchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}

	urls := urlutil.Clean(req.URLs)
	if len(urls) == 0 {
		s.errorResponse(w, http.StatusBadRequest, "urls must contain at least one URL")
		return
	}

	logger := reqctx.Logger(r.Context())
	logger.Info().Int("urls", len(urls)).Int("max_reviews", req.Limit()).Msg("Batch scrape requested")

	resp := s.runner.ScrapeBatch(r.Context(), urls, req.Limit())

	failed := 0
	for _, res := range resp {
		if res.Status == models.StatusError {
			failed++
		}
	}
	logger.Info().Int("urls", len(resp)).Int("failed", failed).Msg("Batch scrape finished")

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed, use GET")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write response")
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
