package config

import (
	"fmt"
	"time"

	urlutil "github.com/law-makers/scentcrawl/internal/utils/url"
)

func validate(c *Config) error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if c.Workers <= 0 || c.Workers > DefaultMaxWorkers {
		return fmt.Errorf("workers must be between 1 and %d", DefaultMaxWorkers)
	}
	if c.MaxLoadMore <= 0 {
		return fmt.Errorf("max load more must be > 0")
	}
	if err := urlutil.ValidateURL(c.StartURL); err != nil {
		return fmt.Errorf("start url: %w", err)
	}
	if c.CatalogPath == "" || c.DatasetPath == "" {
		return fmt.Errorf("catalog and dataset paths are required")
	}
	for _, t := range []struct {
		name string
		d    time.Duration
	}{
		{"control wait", c.ControlWait},
		{"navigation timeout", c.NavigationTimeout},
		{"ready timeout", c.ReadyTimeout},
		{"datasheet control wait", c.DatasheetControlWait},
		{"datasheet wait", c.DatasheetWait},
		{"item timeout", c.ItemTimeout},
		{"pool acquire timeout", c.PoolAcquireTimeout},
	} {
		if t.d <= 0 {
			return fmt.Errorf("%s must be > 0", t.name)
		}
	}
	if c.ScrollPause < 0 || c.ClickPause < 0 || c.RunTimeout < 0 {
		return fmt.Errorf("pauses and run timeout must not be negative")
	}
	if c.RetryAttempts <= 0 {
		return fmt.Errorf("retry attempts must be > 0")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be > 0")
	}
	return nil
}
