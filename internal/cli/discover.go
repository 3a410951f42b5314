// internal/cli/discover.go
package cli

import (
	"context"
	"fmt"

	"github.com/law-makers/scentcrawl/internal/app"
	"github.com/law-makers/scentcrawl/internal/catalog"
	"github.com/law-makers/scentcrawl/internal/config"
	"github.com/law-makers/scentcrawl/internal/store"
	"github.com/law-makers/scentcrawl/internal/ui"
	"github.com/law-makers/scentcrawl/pkg/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// discoverCmd represents the discover command
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List every fragrance of the catalog",
	Long: `Opens the catalog page and clicks "load more" until the control disappears,
is blocked by an overlay, or the click bound is reached. Every fragrance link
found on the final page is saved, deduplicated by URL, in discovery order.

A blocked or bounded walk is not an error: the partial catalog is saved.`,
	Example: `  # Discover into catalogue.json
  scentcrawl discover

  # Limit the walk and write elsewhere
  scentcrawl discover --max-load-more=10 -o small.json`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().StringP("output", "o", config.DefaultCatalogPath, "Catalog file to write")
	config.RegisterDiscoverFlags(discoverCmd)
	flagAliases[discoverCmd.Name()] = map[string]string{"output": "catalog_path"}
}

func runDiscover(cmd *cobra.Command, args []string) error {
	defer closeApp(cmd)

	appCtx := GetApp(cmd)
	if appCtx == nil {
		return fmt.Errorf("application not initialized")
	}

	_, err := discoverCatalog(cmd.Context(), appCtx)
	return err
}

// discoverCatalog walks the catalog and saves it to the configured path
func discoverCatalog(ctx context.Context, appCtx *app.Application) ([]models.CatalogEntry, error) {
	cfg := appCtx.Config
	if err := appCtx.EnsureBrowserPool(); err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	log.Debug().
		Str("url", cfg.StartURL).
		Int("max_load_more", cfg.MaxLoadMore).
		Str("output", cfg.CatalogPath).
		Msg("Starting discovery")

	fmt.Printf("%s %s\n", ui.Info("Discovering catalog from"), ui.Value(cfg.StartURL))

	res, err := catalog.NewDiscoverer(appCtx.BrowserPool, appCtx.DiscoverOptions()).Discover(ctx, cfg.StartURL)
	if err != nil {
		return nil, err
	}

	if err := store.SaveCatalog(cfg.CatalogPath, res.Entries); err != nil {
		return nil, fmt.Errorf("failed to save catalog: %w", err)
	}

	printDiscoverSummary(res, cfg.CatalogPath)
	return res.Entries, nil
}

func printDiscoverSummary(res *catalog.Result, path string) {
	reason := res.Reason.String()
	if res.Reason == catalog.Exhausted {
		reason = ui.Success(reason)
	} else {
		reason = ui.Warn(reason + " (catalog may be partial)")
	}

	fmt.Printf("\n%s\n", ui.Bold("Catalog:"))
	fmt.Println(ui.Field("Entries", ui.Success(fmt.Sprintf("%d", len(res.Entries)))))
	fmt.Println(ui.Field("Clicks", ui.Value(res.Clicks)))
	fmt.Println(ui.Field("Ended", reason))
	fmt.Println(ui.Field("Saved to", ui.Value(path)))
	fmt.Println()
}
