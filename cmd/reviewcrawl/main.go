// cmd/reviewcrawl/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/law-makers/reviewcrawl/internal/cli"
	"github.com/rs/zerolog/log"
)

func main() {
	// REVIEWCRAWL_* settings may live in a local .env file
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Interrupt received, shutting down gracefully...")
		cancel()

		// a second signal exits immediately
		<-sigCh
		os.Exit(130)
	}()

	cli.Execute(ctx)
}
