package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/law-makers/reviewcrawl/internal/app"
	"github.com/law-makers/reviewcrawl/internal/engine"
	"github.com/law-makers/reviewcrawl/internal/reqctx"
	"github.com/law-makers/reviewcrawl/internal/ui"
	"github.com/law-makers/reviewcrawl/internal/utils/output"
	urlutil "github.com/law-makers/reviewcrawl/internal/utils/url"
	"github.com/law-makers/reviewcrawl/pkg/models"
)

func newScrapeCmd() *cobra.Command {
	var (
		maxReviews int
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "scrape <url>...",
		Short: "Scrape reviews from one or more place pages",
		Long: `Opens each place page in headless Chrome, scrolls its review list and collects
every review batch the page loads. Reviews are de-duplicated by id.

A failure on one URL never stops the others; the command exits non-zero if any URL failed.`,
		Example: `  # All reviews of one place, printed as JSON
  reviewcrawl scrape "https://www.google.com/maps/place/..."

  # Roughly the first 50 reviews of two places, saved as CSV
  reviewcrawl scrape URL1 URL2 --max-reviews 50 --output reviews.csv

  # Stop on the exact number of unique reviews instead of a batch estimate
  reviewcrawl scrape URL --max-reviews 25 --limit-mode exact`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScrape(cmd, args, maxReviews, outputPath)
		},
	}

	cmd.Flags().IntVarP(&maxReviews, "max-reviews", "n", 0, "Approximate review limit per URL (0 = no limit)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "File path to save results (supports .json, .csv)")
	cmd.Flags().IntP("concurrency", "c", 0, "URLs scraped at once (default: pool size)")
	cmd.Flags().Bool("dom-check", false, "Count rendered review cards and log them next to the result")
	cmd.Flags().String("limit-mode", "", "How the limit is counted: estimate or exact")
	cmd.Flags().StringArrayP("header", "H", nil, "Extra request header (e.g., -H \"Accept-Language: de\")")

	return cmd
}

func runScrape(cmd *cobra.Command, args []string, maxReviews int, outputPath string) error {
	a := GetApp()
	if a == nil {
		return fmt.Errorf("application not initialized")
	}
	cmd.SilenceUsage = true

	urls := urlutil.Clean(args)
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given")
	}
	if maxReviews < 0 {
		maxReviews = 0
	}

	ctx := reqctx.WithRequestContext(cmd.Context())
	stderr := cmd.ErrOrStderr()

	bar := newProgressBar(a, stderr, len(urls))
	a.Batch.OnResult = func(engine.Result) {
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	defer func() { a.Batch.OnResult = nil }()

	resp := a.Batch.ScrapeBatch(ctx, urls, maxReviews)
	if bar != nil {
		_ = bar.Finish()
	}

	failed := printSummary(stderr, urls, resp)

	if outputPath != "" {
		if err := output.Save(resp, outputPath); err != nil {
			return fmt.Errorf("failed to save output: %w", err)
		}
		fmt.Fprintf(stderr, "%s Saved to %s\n", ui.Success("✓"), outputPath)
	} else if err := output.WriteJSON(cmd.OutOrStdout(), resp); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d URLs failed", failed, len(urls))
	}
	return nil
}

func newProgressBar(a *app.Application, w io.Writer, n int) *progressbar.ProgressBar {
	if n < 2 || a.Config.LogLevel == "error" {
		return nil
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Scraping"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}

// printSummary renders one table row per URL in input order and returns the failure count
func printSummary(w io.Writer, urls []string, resp models.BatchResponse) int {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: 70},
		{Number: 4, WidthMax: 60},
	})
	t.AppendHeader(table.Row{"URL", "Status", "Reviews", "Error"})

	failed, total := 0, 0
	for _, u := range urls {
		res, ok := resp[u]
		if !ok {
			continue
		}
		if res.Status == models.StatusError {
			failed++
			t.AppendRow(table.Row{u, ui.Error("✗ error"), "-", res.Error})
			continue
		}
		total += res.Count()
		t.AppendRow(table.Row{u, ui.Success("✓ ok"), res.Count(), ""})
	}
	t.AppendFooter(table.Row{"", "", total, fmt.Sprintf("%d of %d URLs succeeded", len(urls)-failed, len(urls))})

	t.Render()
	return failed
}
