// Package store persists the catalog and the growing dataset.
package store

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/law-makers/scentcrawl/internal/utils/output"
	"github.com/law-makers/scentcrawl/pkg/models"
	"github.com/rs/zerolog/log"
)

// Checkpoint accumulates fused records and rewrites the whole dataset file
// after every append, so a crash loses at most the item in flight.
type Checkpoint struct {
	path    string
	mu      sync.Mutex
	records []models.Record
}

// NewCheckpoint starts an empty dataset at path, replacing any previous file
func NewCheckpoint(path string) (*Checkpoint, error) {
	c := &Checkpoint{path: path, records: []models.Record{}}
	if err := c.flush(); err != nil {
		return nil, err
	}
	return c, nil
}

// Append adds rec and persists the full accumulator. When the write fails
// the record is dropped from memory too and the error is returned.
func (c *Checkpoint) Append(rec models.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = append(c.records, rec)
	if err := c.flush(); err != nil {
		c.records = c.records[:len(c.records)-1]
		return err
	}
	return nil
}

// Records returns a copy of the accumulated records
func (c *Checkpoint) Records() []models.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Record(nil), c.records...)
}

// Len returns the number of persisted records
func (c *Checkpoint) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Path returns the dataset file path
func (c *Checkpoint) Path() string {
	return c.path
}

func (c *Checkpoint) flush() error {
	if err := output.SaveJSON(models.Dataset{Records: c.records}, c.path); err != nil {
		return fmt.Errorf("checkpoint %s: %w", c.path, err)
	}
	return nil
}

// SaveCatalog writes entries to path, replacing any previous catalog
func SaveCatalog(path string, entries []models.CatalogEntry) error {
	if _, err := os.Stat(path); err == nil {
		log.Info().Str("path", path).Msg("Overwriting existing catalog")
	}
	if entries == nil {
		entries = []models.CatalogEntry{}
	}
	if err := output.SaveJSON(models.Catalog{Entries: entries}, path); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}

// LoadCatalog reads a catalog file. Entries without a URL are dropped and
// repeated URLs keep their first occurrence.
func LoadCatalog(path string) ([]models.CatalogEntry, error) {
	var raw struct {
		Entries *[]models.CatalogEntry `json:"contenu"`
	}
	if err := output.LoadJSON(path, &raw); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if raw.Entries == nil {
		return nil, fmt.Errorf("load catalog: %s has no \"contenu\" array", path)
	}

	entries := make([]models.CatalogEntry, 0, len(*raw.Entries))
	seen := make(map[string]struct{})
	for _, e := range *raw.Entries {
		if e.URL == "" {
			continue
		}
		if _, dup := seen[e.URL]; dup {
			continue
		}
		seen[e.URL] = struct{}{}
		entries = append(entries, e)
	}
	if dropped := len(*raw.Entries) - len(entries); dropped > 0 {
		log.Warn().Int("dropped", dropped).Str("path", path).Msg("Ignored catalog entries without URL or duplicated")
	}
	return entries, nil
}

// ErrNoDataset is returned when a dataset file lacks its records array
var ErrNoDataset = errors.New("dataset has no \"contenu\" array")

// LoadDataset reads a dataset file
func LoadDataset(path string) ([]models.Record, error) {
	var raw struct {
		Records *[]models.Record `json:"contenu"`
	}
	if err := output.LoadJSON(path, &raw); err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if raw.Records == nil {
		return nil, fmt.Errorf("load dataset %s: %w", path, ErrNoDataset)
	}
	return *raw.Records, nil
}
