package reqctx

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWithRequestContext(t *testing.T) {
	ctx := WithRequestContext(context.Background())
	rc := GetRequestContext(ctx)
	if len(rc.RequestID) != 16 {
		t.Errorf("expected 16 hex chars, got %q", rc.RequestID)
	}
	if rc.StartTime.IsZero() {
		t.Error("expected start time to be set")
	}
}

func TestGetRequestContextMissing(t *testing.T) {
	if id := GetRequestContext(context.Background()).RequestID; id != "unknown" {
		t.Errorf("expected unknown, got %q", id)
	}
}

func TestLoggerCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithLogger(context.Background(), base)
	ctx = WithRequestID(ctx, "abc123")

	Logger(ctx).Info().Msg("hello")
	if !strings.Contains(buf.String(), `"request_id":"abc123"`) {
		t.Errorf("expected request_id in log line, got %s", buf.String())
	}
}

func TestLoggerFallback(t *testing.T) {
	if Logger(context.Background()) == nil {
		t.Error("expected global logger fallback")
	}
}

func TestElapsed(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	rc := GetRequestContext(ctx)
	rc.StartTime = time.Now().Add(-time.Second)
	if rc.RequestID != "req-1" || rc.Elapsed() < time.Second {
		t.Errorf("unexpected request context %+v, elapsed %v", rc, rc.Elapsed())
	}
}
