// Package cli provides the command-line interface for reviewcrawl.
package cli

import (
	"sync"

	"github.com/law-makers/reviewcrawl/internal/app"
)

var (
	appMu     sync.RWMutex
	globalApp *app.Application

	// appOptions are applied when the application is built; tests use it
	// to swap in a fake renderer.
	appOptions []app.Option
)

// SetApp stores the Application shared by all commands
func SetApp(a *app.Application) {
	appMu.Lock()
	defer appMu.Unlock()
	globalApp = a
}

// GetApp returns the Application built for the running command, or nil
func GetApp() *app.Application {
	appMu.RLock()
	defer appMu.RUnlock()
	return globalApp
}
