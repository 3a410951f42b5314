// internal/cli/scrape.go
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/law-makers/scentcrawl/internal/app"
	"github.com/law-makers/scentcrawl/internal/config"
	"github.com/law-makers/scentcrawl/internal/pipeline"
	"github.com/law-makers/scentcrawl/internal/store"
	"github.com/law-makers/scentcrawl/internal/ui"
	"github.com/law-makers/scentcrawl/pkg/models"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape every fragrance of a saved catalog",
	Long: `Visits every fragrance of the catalog and merges the fields rendered on the
page with the technical sheet fetched by the site. When both carry a field,
the technical sheet wins.

The dataset file is rewritten after every item, so stopping the run
(Ctrl+C or --run-timeout) keeps everything scraped so far. Items that fail
to load are logged and skipped.`,
	Example: `  # Scrape catalogue.json into dataset.json
  scentcrawl scrape

  # Four browsers, records saved as they complete
  scentcrawl scrape -w 4 --ordered=false

  # Stop after an hour
  scentcrawl scrape -c catalogue.json -o dataset.json --run-timeout=1h`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringP("catalog", "c", config.DefaultCatalogPath, "Catalog file to read")
	scrapeCmd.Flags().StringP("output", "o", config.DefaultDatasetPath, "Dataset file to write")
	config.RegisterScrapeFlags(scrapeCmd)
	flagAliases[scrapeCmd.Name()] = map[string]string{
		"catalog": "catalog_path",
		"output":  "dataset_path",
	}
}

func runScrape(cmd *cobra.Command, args []string) error {
	defer closeApp(cmd)

	appCtx := GetApp(cmd)
	if appCtx == nil {
		return fmt.Errorf("application not initialized")
	}

	entries, err := store.LoadCatalog(appCtx.Config.CatalogPath)
	if err != nil {
		return err
	}
	return scrapeCatalog(cmd.Context(), appCtx, entries)
}

// scrapeCatalog runs the pipeline over entries into the configured dataset
func scrapeCatalog(ctx context.Context, appCtx *app.Application, entries []models.CatalogEntry) error {
	cfg := appCtx.Config

	checkpoint, err := store.NewCheckpoint(cfg.DatasetPath)
	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println(ui.Info("Catalog is empty, nothing to scrape."))
		return nil
	}

	if err := appCtx.EnsureBrowserPool(); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}

	if cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
	}

	run := pipeline.NewRun(entries, checkpoint, appCtx.BrowserPool, appCtx.ScrapeSettings())
	run.Limiter = appCtx.RateLimiter
	run.Datasheet = appCtx.Datasheet()

	bar := newProgressBar(cfg, len(entries))
	if bar != nil {
		run.OnProgress = func(p pipeline.Progress) {
			bar.Describe(progressLabel(p))
			_ = bar.Add(1)
		}
	}

	summary, runErr := run.Execute(ctx)
	if bar != nil {
		_ = bar.Finish()
	}

	printScrapeSummary(summary, checkpoint.Path())
	if runErr != nil {
		return fmt.Errorf("scrape aborted: %w", runErr)
	}
	if summary.Interrupted {
		log.Warn().Int("skipped", summary.Skipped).Msg("Run stopped early, dataset holds the items scraped so far")
	}
	return nil
}

// newProgressBar returns nil in JSON or quiet mode, where only logs are wanted
func newProgressBar(cfg *config.Config, total int) *progressbar.ProgressBar {
	if cfg.JSONLog || cfg.LogLevel == "error" {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Scraping"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
	)
}

func progressLabel(p pipeline.Progress) string {
	if p.Err != nil {
		return fmt.Sprintf("[%d/%d] %s", p.Index, p.Total, ui.Error("failed"))
	}
	return fmt.Sprintf("[%d/%d] Scraping", p.Index, p.Total)
}

func printScrapeSummary(s *pipeline.Summary, path string) {
	if s == nil {
		return
	}
	fmt.Printf("\n%s\n", ui.Bold("Summary:"))
	fmt.Println(ui.Field("Total", ui.Value(fmt.Sprintf("%d items", s.Total))))
	fmt.Println(ui.Field("Success", ui.Success(fmt.Sprintf("%d", s.Succeeded))))
	fmt.Println(ui.Field("Failed", ui.Error(fmt.Sprintf("%d", s.Failed))))
	if s.Skipped > 0 {
		fmt.Println(ui.Field("Skipped", ui.Warn(fmt.Sprintf("%d", s.Skipped))))
	}
	fmt.Println(ui.Field("Elapsed", ui.Value(s.Elapsed.Round(time.Second))))
	fmt.Println(ui.Field("Dataset", ui.Value(path)))
	fmt.Println()
}
