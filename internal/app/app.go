// Package app wires configuration, logging and the shared browser pool.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/law-makers/scentcrawl/internal/browser"
	"github.com/law-makers/scentcrawl/internal/catalog"
	"github.com/law-makers/scentcrawl/internal/config"
	"github.com/law-makers/scentcrawl/internal/extract"
	"github.com/law-makers/scentcrawl/internal/pipeline"
	"github.com/law-makers/scentcrawl/internal/proxy"
	"github.com/law-makers/scentcrawl/internal/ratelimit"
	"github.com/law-makers/scentcrawl/internal/retry"
	"github.com/law-makers/scentcrawl/internal/utils/headers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds the dependencies shared by every command.
//
// The browser pool is started lazily by EnsureBrowserPool so that commands
// that never drive a browser (export, help) don't launch Chrome.
// Use Close() to release it on shutdown.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	BrowserPool *browser.BrowserPool
	poolMu      sync.Mutex
	RateLimiter ratelimit.RateLimiter
	startTime   time.Time
}

// New configures logging and builds an Application from cfg
func New(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := ConfigureLogging(cfg, os.Stderr)

	rateLimiter := ratelimit.NewDomainLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	logger.Debug().
		Float64("rps", cfg.RateLimitRPS).
		Int("burst", cfg.RateLimitBurst).
		Msg("Rate limiter initialized")

	app := &Application{
		Config:      cfg,
		Logger:      &logger,
		RateLimiter: rateLimiter,
		startTime:   time.Now(),
	}

	logger.Debug().Msg("Application initialized")
	return app, nil
}

// ConfigureLogging points the global logger at w, as JSON or as a console
// writer, and applies the configured level. It returns the new logger.
func ConfigureLogging(cfg *config.Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var logWriter io.Writer = w
	if !cfg.JSONLog {
		logWriter = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	log.Logger = zerolog.New(logWriter).With().Timestamp().Logger()

	log.Logger.Debug().
		Str("level", level.String()).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")
	return log.Logger
}

// EnsureBrowserPool lazily creates the browser pool if it has not already been
// initialized.
func (a *Application) EnsureBrowserPool() error {
	if a == nil {
		return fmt.Errorf("application is nil")
	}

	a.poolMu.Lock()
	defer a.poolMu.Unlock()

	if a.BrowserPool != nil {
		return nil
	}

	cfg := a.Config
	a.Logger.Debug().Int("size", cfg.Workers).Msg("Initializing browser pool on demand")
	pool, err := browser.NewBrowserPool(browser.PoolOptions{
		Size:              cfg.Workers,
		Headless:          cfg.Headless,
		UserAgent:         cfg.UserAgent,
		ChromePath:        cfg.ChromePath,
		Proxies:           proxy.NewRotation(cfg.Proxies, 0),
		AcquireTimeout:    cfg.PoolAcquireTimeout,
		NavigationTimeout: cfg.NavigationTimeout,
		Headers:           headers.ParseHeaders(cfg.Headers),
	})
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to create browser pool")
		return err
	}

	a.BrowserPool = pool
	return nil
}

// DiscoverOptions maps the configuration onto discovery pacing
func (a *Application) DiscoverOptions() catalog.Options {
	cfg := a.Config
	return catalog.Options{
		MaxLoadMore: cfg.MaxLoadMore,
		ControlWait: cfg.ControlWait,
		ScrollPause: cfg.ScrollPause,
		ClickPause:  cfg.ClickPause,
	}
}

// ScrapeSettings maps the configuration onto pipeline settings
func (a *Application) ScrapeSettings() pipeline.Settings {
	cfg := a.Config
	rc := retry.DefaultConfig()
	rc.MaxAttempts = cfg.RetryAttempts
	return pipeline.Settings{
		Workers:      cfg.Workers,
		Ordered:      cfg.Ordered,
		ItemTimeout:  cfg.ItemTimeout,
		ReadyTimeout: cfg.ReadyTimeout,
		Retry:        rc,
	}
}

// Datasheet builds the datasheet extractor with the configured waits
func (a *Application) Datasheet() *extract.DatasheetExtractor {
	return extract.NewDatasheetExtractor(a.Config.DatasheetControlWait, a.Config.DatasheetWait)
}

// Close shuts the browser pool down. Errors are logged, not returned, so
// shutdown always completes.
func (a *Application) Close(ctx context.Context) error {
	a.poolMu.Lock()
	pool := a.BrowserPool
	a.BrowserPool = nil
	a.poolMu.Unlock()

	if pool != nil {
		done := make(chan error, 1)
		go func() { done <- pool.Close() }()
		select {
		case err := <-done:
			if err != nil {
				a.Logger.Warn().Err(err).Msg("Error closing browser pool")
			}
		case <-ctx.Done():
			a.Logger.Warn().Err(ctx.Err()).Msg("Timed out closing browser pool")
		}
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
