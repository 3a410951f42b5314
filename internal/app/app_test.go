package app

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/law-makers/scentcrawl/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreLogging(t *testing.T) {
	t.Helper()
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestConfigureLogging_JSON(t *testing.T) {
	restoreLogging(t)
	cfg := config.Defaults()
	cfg.JSONLog = true
	cfg.LogLevel = "warn"

	var buf bytes.Buffer
	ConfigureLogging(cfg, &buf)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	log.Info().Msg("hidden")
	log.Warn().Str("url", "https://x").Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "shown", line["message"])
	assert.Equal(t, "https://x", line["url"])
}

func TestConfigureLogging_Console(t *testing.T) {
	restoreLogging(t)
	cfg := config.Defaults()

	var buf bytes.Buffer
	ConfigureLogging(cfg, &buf)
	log.Info().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestSettingsFromConfig(t *testing.T) {
	restoreLogging(t)
	cfg := config.Defaults()
	cfg.Workers = 4
	cfg.Ordered = false
	cfg.RetryAttempts = 3
	cfg.ItemTimeout = time.Minute
	cfg.MaxLoadMore = 12

	a, err := New(cfg)
	require.NoError(t, err)

	s := a.ScrapeSettings()
	assert.Equal(t, 4, s.Workers)
	assert.False(t, s.Ordered)
	assert.Equal(t, 3, s.Retry.MaxAttempts)
	assert.Equal(t, time.Minute, s.ItemTimeout)

	assert.Equal(t, 12, a.DiscoverOptions().MaxLoadMore)
	assert.Equal(t, cfg.DatasheetWait, a.Datasheet().PayloadWait)

	// no pool was ever started
	assert.Nil(t, a.BrowserPool)
	assert.NoError(t, a.Close(context.Background()))
}
