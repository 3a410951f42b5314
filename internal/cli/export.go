// internal/cli/export.go
package cli

import (
	"fmt"

	"github.com/law-makers/scentcrawl/internal/config"
	"github.com/law-makers/scentcrawl/internal/store"
	"github.com/law-makers/scentcrawl/internal/ui"
	"github.com/law-makers/scentcrawl/internal/utils/output"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var exportPath string

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Convert a dataset to CSV",
	Long: `Writes the dataset as CSV. The header is the sorted union of every record's
fields; list values are joined with ", " and missing fields are left empty.`,
	Example: `  # dataset.json to dataset.csv
  scentcrawl export -o dataset.csv

  # Another dataset
  scentcrawl export -d run2.json -o run2.csv`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("dataset", "d", config.DefaultDatasetPath, "Dataset file to read")
	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "", "CSV file to write")
	_ = exportCmd.MarkFlagRequired("output")
	flagAliases[exportCmd.Name()] = map[string]string{
		"dataset": "dataset_path",
		"output":  "export_path",
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	defer closeApp(cmd)

	appCtx := GetApp(cmd)
	if appCtx == nil {
		return fmt.Errorf("application not initialized")
	}

	records, err := store.LoadDataset(appCtx.Config.DatasetPath)
	if err != nil {
		return err
	}

	log.Debug().
		Str("dataset", appCtx.Config.DatasetPath).
		Int("records", len(records)).
		Str("output", exportPath).
		Msg("Exporting dataset")

	if err := output.SaveDatasetCSV(records, exportPath); err != nil {
		return fmt.Errorf("failed to export dataset: %w", err)
	}

	fmt.Printf("%s %s %s\n", ui.Success("✓"), ui.Value(fmt.Sprintf("%d records written to", len(records))), ui.Value(exportPath))
	return nil
}
