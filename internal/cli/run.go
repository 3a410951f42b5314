// internal/cli/run.go
package cli

import (
	"fmt"

	"github.com/law-makers/scentcrawl/internal/config"
	"github.com/spf13/cobra"
)

// runCmd chains discover and scrape
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Discover the catalog, then scrape it",
	Long: `Runs discover followed by scrape in one browser pool. The catalog is saved
before scraping starts, so a failed scrape can be resumed with "scrape".`,
	Example: `  # Full run with defaults
  scentcrawl run

  # Full run with two browsers
  scentcrawl run -w 2 -c catalogue.json -o dataset.json`,
	Args: cobra.NoArgs,
	RunE: runAll,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("catalog", "c", config.DefaultCatalogPath, "Catalog file to write")
	runCmd.Flags().StringP("output", "o", config.DefaultDatasetPath, "Dataset file to write")
	config.RegisterDiscoverFlags(runCmd)
	config.RegisterScrapeFlags(runCmd)
	flagAliases[runCmd.Name()] = map[string]string{
		"catalog": "catalog_path",
		"output":  "dataset_path",
	}
}

func runAll(cmd *cobra.Command, args []string) error {
	defer closeApp(cmd)

	appCtx := GetApp(cmd)
	if appCtx == nil {
		return fmt.Errorf("application not initialized")
	}

	entries, err := discoverCatalog(cmd.Context(), appCtx)
	if err != nil {
		return err
	}
	if err := cmd.Context().Err(); err != nil {
		return fmt.Errorf("stopped after discovery: %w", err)
	}
	return scrapeCatalog(cmd.Context(), appCtx, entries)
}
