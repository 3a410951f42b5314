// internal/cli/root.go
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/scentcrawl/internal/app"
	"github.com/law-makers/scentcrawl/internal/config"
	"github.com/law-makers/scentcrawl/internal/ui"
)

const shutdownTimeout = 30 * time.Second

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scentcrawl",
	Short: "Discover and scrape the wikiparfum fragrance catalog",
	Long: `Scentcrawl drives a headless Chrome through the wikiparfum catalog.

It first walks the "load more" pagination to list every fragrance, then
visits each one, merging the fields rendered on the page with the
technical sheet the site fetches in the background. The dataset is saved
after every item so an interrupted run keeps what it already scraped.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// flagAliases maps, per command, flag names that differ from their config key
var flagAliases = map[string]map[string]string{}

// Execute runs the root command with ctx. Cancelling ctx (e.g. on SIGINT)
// stops a scrape between items. It returns the process exit code.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.Error("Error: ")+err.Error())
		return 1
	}
	return 0
}

func init() {
	// Lazily initialize the application before running commands (avoid starting app for -h/help)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetApp(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd, flagAliases[cmd.Name()])
		if err != nil {
			return err
		}

		appCtx, err := app.New(cfg)
		if err != nil {
			return err
		}

		SetApp(cmd, appCtx)
		log.Debug().Str("command", cmd.Name()).Msg("Configuration loaded")
		return nil
	}

	// Ensure app is closed after command runs
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		closeApp(cmd)
	}
}

// closeApp releases the browser pool. RunE errors skip PersistentPostRun,
// so commands defer it too; a second call is a no-op.
func closeApp(cmd *cobra.Command) {
	appCtx := GetApp(cmd)
	if appCtx == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = appCtx.Close(ctx)
	SetApp(cmd, nil)
}

func init() {
	// Register centralized flags
	config.RegisterFlags(rootCmd)

	// Customize help and version flag descriptions
	rootCmd.Flags().BoolP("help", "h", false, "Help for Scentcrawl")
	rootCmd.Flags().Bool("version", false, "Version for Scentcrawl")
}

func init() {
	// Disable the default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Set custom help function
	rootCmd.SetHelpFunc(customHelpFunc)
	rootCmd.SetUsageFunc(customUsageFunc)
}
