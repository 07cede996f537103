// internal/cli/root.go
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/law-makers/reviewcrawl/internal/app"
	"github.com/law-makers/reviewcrawl/internal/config"
)

const shutdownTimeout = 15 * time.Second

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviewcrawl",
		Short: "Collect place reviews from Google Maps",
		Long: `Reviewcrawl drives a headless Chrome over Google Maps place pages, captures the
review batches the page loads while its review list is scrolled, and turns them
into clean, de-duplicated review records.

Run it once from the command line with "scrape", or start an HTTP service with "serve".`,
		Version:       "0.1.0",
		SilenceErrors: true,

		// Lazily initialize the application before running commands (avoid starting app for -h/help)
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if GetApp() != nil {
				return nil
			}

			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), cfg, appOptions...)
			if err != nil {
				return err
			}
			SetApp(a)
			return nil
		},

		// Ensure app is closed after command runs
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return closeApp()
		},
	}

	config.RegisterFlags(cmd)
	cmd.Flags().BoolP("help", "h", false, "Help for reviewcrawl")
	cmd.Flags().Bool("version", false, "Version for reviewcrawl")

	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetHelpFunc(customHelpFunc)
	cmd.SetUsageFunc(customUsageFunc)

	cmd.AddCommand(newScrapeCmd(), newServeCmd())
	return cmd
}

func closeApp() error {
	a := GetApp()
	if a == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := a.Close(ctx)
	SetApp(nil)
	return err
}

// Execute runs the root command with ctx, which is cancelled on interrupt.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	// PostRun is skipped when a command fails
	_ = closeApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errorLine(err))
		os.Exit(1)
	}
}
