package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Log in JSON format")
	cmd.PersistentFlags().StringSlice("proxies", nil, "Proxies to rotate between browsers (e.g., http://localhost:8080)")
	cmd.PersistentFlags().StringArrayP("header", "H", nil, "Extra request header, repeatable (e.g., -H \"Accept-Language: fr-FR\")")
	cmd.PersistentFlags().Bool("headless", DefaultHeadless, "Run Chrome without a window")
	cmd.PersistentFlags().String("chrome-path", "", "Chrome executable (default: auto-detect)")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().Duration("navigation-timeout", DefaultNavigationTimeout, "Hard timeout for page loads")
	cmd.PersistentFlags().String("config", "", "Path to configuration file (optional)")
	cmd.PersistentFlags().String("env-file", "", "Path to a .env file (default: ./.env when present)")
}

// RegisterScrapeFlags registers the flags shared by the commands that scrape items
func RegisterScrapeFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("workers", "w", DefaultWorkers, "Concurrent browser sessions (1-10)")
	cmd.Flags().Bool("ordered", DefaultOrdered, "Persist records in catalog order")
	cmd.Flags().Duration("item-timeout", DefaultItemTimeout, "Budget for a single item")
	cmd.Flags().Duration("run-timeout", DefaultRunTimeout, "Stop the run after this long (0 = no limit)")
	cmd.Flags().Int("retry-attempts", DefaultRetryAttempts, "Page load attempts per item")
	cmd.Flags().Float64("rate-limit-rps", DefaultRateLimitRPS, "Page loads per second")
}

// RegisterDiscoverFlags registers the flags of the commands that walk the catalog
func RegisterDiscoverFlags(cmd *cobra.Command) {
	cmd.Flags().String("start-url", DefaultStartURL, "Catalog page to start from")
	cmd.Flags().Int("max-load-more", DefaultMaxLoadMore, "Maximum number of \"load more\" clicks")
}
