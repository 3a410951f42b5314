package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/law-makers/scentcrawl/internal/store"
	"github.com/law-makers/scentcrawl/internal/utils/output"
	"github.com/law-makers/scentcrawl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	return rootCmd.ExecuteContext(context.Background())
}

func TestExport_WritesCSV(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	dataset := filepath.Join(dir, "dataset.json")
	require.NoError(t, output.SaveJSON(models.Dataset{Records: []models.Record{
		{"Marque": "Dior", "Ingredients": []string{"Iris", "Musc"}},
		{"Marque": "Guerlain"},
	}}, dataset))

	csvPath := filepath.Join(dir, "dataset.csv")
	require.NoError(t, execute(t, "export", "-q", "-d", dataset, "-o", csvPath))

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "Ingredients,Marque\n\"Iris, Musc\",Dior\n,Guerlain\n", string(data))
}

func TestExport_MissingDataset(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	err := execute(t, "export", "-q", "-d", filepath.Join(dir, "none.json"), "-o", filepath.Join(dir, "out.csv"))
	assert.Error(t, err)
}

func TestScrape_EmptyCatalogWritesEmptyDataset(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	catalogPath := filepath.Join(dir, "catalogue.json")
	datasetPath := filepath.Join(dir, "dataset.json")
	require.NoError(t, store.SaveCatalog(catalogPath, nil))

	require.NoError(t, execute(t, "scrape", "-q", "-c", catalogPath, "-o", datasetPath))

	records, err := store.LoadDataset(datasetPath)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestScrape_InvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	err := execute(t, "scrape", "-q", "-w", "50")
	assert.ErrorContains(t, err, "workers")
	// reset for later tests sharing rootCmd
	require.NoError(t, scrapeCmd.Flags().Set("workers", "1"))
}
