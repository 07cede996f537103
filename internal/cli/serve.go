package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/law-makers/reviewcrawl/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the batch scrape HTTP service",
		Long: `Serves POST /scrape, which accepts {"urls": [...], "max_reviews": N} and answers
with one result per URL, plus GET /healthz and Prometheus metrics on GET /metrics.

The service stops gracefully on interrupt.`,
		Example: `  reviewcrawl serve --addr :8000
  curl -s localhost:8000/scrape -d '{"urls":["https://www.google.com/maps/place/..."],"max_reviews":30}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := GetApp()
			if a == nil {
				return fmt.Errorf("application not initialized")
			}
			cmd.SilenceUsage = true

			srv := server.New(a.Batch, a.Metrics.Registry, a.Logger)
			return srv.ListenAndServe(cmd.Context(), a.Config.ListenAddr)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default \":8000\")")
	cmd.Flags().IntP("concurrency", "c", 0, "URLs scraped at once per request (default: pool size)")
	cmd.Flags().String("limit-mode", "", "How the limit is counted: estimate or exact")
	cmd.Flags().StringArrayP("header", "H", nil, "Extra request header sent with every page load")
	return cmd
}
