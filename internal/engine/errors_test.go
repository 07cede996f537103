package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestEngineErrorIs(t *testing.T) {
	err := NewEngineError(ErrCodeTimeout, "slow", context.DeadlineExceeded)
	wrapped := fmt.Errorf("scrape: %w", err)

	if !errors.Is(wrapped, &EngineError{Code: ErrCodeTimeout}) {
		t.Error("expected code match")
	}
	if errors.Is(wrapped, &EngineError{Code: ErrCodeNavigation}) {
		t.Error("unexpected code match")
	}
	if !errors.Is(wrapped, context.DeadlineExceeded) {
		t.Error("expected underlying match")
	}
}

func TestEngineErrorMessage(t *testing.T) {
	err := NewEngineError(ErrCodeValidation, "bad url", nil)
	if err.Error() != "VALIDATION: bad url" {
		t.Errorf("unexpected message %q", err.Error())
	}
	err = NewEngineError(ErrCodeBrowser, "launch", errors.New("no chrome"))
	if err.Error() != "BROWSER: launch: no chrome" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(errors.New("plain")); got != ErrCodeInternal {
		t.Errorf("got %s, want INTERNAL", got)
	}
	if got := CodeOf(fmt.Errorf("x: %w", NewEngineError(ErrCodeNavigation, "n", nil))); got != ErrCodeNavigation {
		t.Errorf("got %s, want NAVIGATION", got)
	}
}

func TestNavigationError(t *testing.T) {
	timeout := navigationError("u", fmt.Errorf("wait: %w", context.DeadlineExceeded))
	if timeout.Code != ErrCodeTimeout || !timeout.Retryable() {
		t.Errorf("expected retryable TIMEOUT, got %+v", timeout)
	}
	nav := navigationError("u", errors.New("net::ERR_NAME_NOT_RESOLVED"))
	if nav.Code != ErrCodeNavigation {
		t.Errorf("expected NAVIGATION, got %s", nav.Code)
	}
	if nav.Details["url"] != "u" {
		t.Error("expected url detail")
	}
}
