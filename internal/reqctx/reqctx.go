// Package reqctx carries a request ID and a scoped logger through a context.
package reqctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type key int

const (
	requestKey key = iota
	loggerKey
)

// RequestContext identifies one CLI run or HTTP request
type RequestContext struct {
	RequestID string
	StartTime time.Time
}

// Elapsed is the time since the request started
func (rc *RequestContext) Elapsed() time.Duration {
	return time.Since(rc.StartTime)
}

// WithRequestContext attaches a fresh request ID and a logger carrying it
func WithRequestContext(ctx context.Context) context.Context {
	return WithRequestID(ctx, "")
}

// WithRequestID is WithRequestContext with a caller-supplied ID. An empty id
// gets a random one.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = newID()
	}
	rc := &RequestContext{RequestID: id, StartTime: time.Now()}
	ctx = context.WithValue(ctx, requestKey, rc)
	return WithLogger(ctx, Logger(ctx).With().Str("request_id", id).Logger())
}

// GetRequestContext never returns nil; a bare context yields ID "unknown"
func GetRequestContext(ctx context.Context) *RequestContext {
	if rc, ok := ctx.Value(requestKey).(*RequestContext); ok {
		return rc
	}
	return &RequestContext{RequestID: "unknown", StartTime: time.Now()}
}

// WithLogger stores l in ctx
func WithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, &l)
}

// Logger returns the logger stored in ctx, or the global logger
func Logger(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok {
			return l
		}
	}
	return &log.Logger
}

func newID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return time.Now().Format("150405.000000")
	}
	return hex.EncodeToString(b[:])
}
