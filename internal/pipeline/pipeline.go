// Package pipeline scrapes every catalog entry into the dataset.
//
// A Run owns everything one scrape needs: the entries, the store the
// records go to and its settings. Workers each hold one browser session at
// a time and hand their result to a single sink goroutine, the only code
// that writes to the store.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/law-makers/scentcrawl/internal/browser"
	"github.com/law-makers/scentcrawl/internal/extract"
	"github.com/law-makers/scentcrawl/internal/fusion"
	"github.com/law-makers/scentcrawl/internal/ratelimit"
	"github.com/law-makers/scentcrawl/internal/retry"
	"github.com/law-makers/scentcrawl/internal/site"
	"github.com/law-makers/scentcrawl/pkg/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultWorkers      = 1
	MaxWorkers          = 10
	DefaultItemTimeout  = 2 * time.Minute
	DefaultReadyTimeout = 10 * time.Second
)

// Sink receives fused records in persistence order
type Sink interface {
	Append(rec models.Record) error
}

// Settings tunes a run
type Settings struct {
	Workers      int
	Ordered      bool // persist in catalog order instead of completion order
	ItemTimeout  time.Duration
	ReadyTimeout time.Duration
	Retry        retry.Config
}

// DefaultSettings returns sequential, ordered settings
func DefaultSettings() Settings {
	return Settings{
		Workers:      DefaultWorkers,
		Ordered:      true,
		ItemTimeout:  DefaultItemTimeout,
		ReadyTimeout: DefaultReadyTimeout,
		Retry:        retry.DefaultConfig(),
	}
}

// Progress describes one finished item
type Progress struct {
	Index int // 1-based position in the catalog
	Total int
	URL   string
	Err   error
}

// Summary reports how a run went
type Summary struct {
	Total       int
	Succeeded   int
	Failed      int
	Skipped     int
	Interrupted bool
	Elapsed     time.Duration
}

// Run is one scrape of a catalog
type Run struct {
	Entries   []models.CatalogEntry
	Store     Sink
	Opener    browser.Opener
	Limiter   ratelimit.RateLimiter
	Datasheet *extract.DatasheetExtractor
	Settings  Settings

	// OnProgress, when set, is called from the sink for every item that was
	// processed, in persistence order
	OnProgress func(Progress)
}

// NewRun creates a Run with default extraction waits
func NewRun(entries []models.CatalogEntry, store Sink, opener browser.Opener, settings Settings) *Run {
	return &Run{
		Entries:   entries,
		Store:     store,
		Opener:    opener,
		Datasheet: extract.NewDatasheetExtractor(0, 0),
		Settings:  settings,
	}
}

type job struct {
	index int
	entry models.CatalogEntry
}

type itemResult struct {
	job
	record  models.Record
	err     error
	skipped bool
}

// Execute scrapes every entry. Stopping ctx is honored between items: items
// already started finish (bounded by ItemTimeout) and are persisted. Only a
// store failure is returned as an error; it stops the run.
func (r *Run) Execute(ctx context.Context) (*Summary, error) {
	settings := r.normalizedSettings()
	total := len(r.Entries)
	start := time.Now()

	log.Info().
		Int("items", total).
		Int("workers", settings.Workers).
		Bool("ordered", settings.Ordered).
		Msg("Scraping started")

	runCtx, stop := context.WithCancelCause(ctx)
	defer stop(nil)

	jobs := make(chan job)
	results := make(chan itemResult, settings.Workers)

	var g errgroup.Group

	g.Go(func() error {
		defer close(jobs)
		for i, e := range r.Entries {
			select {
			case <-runCtx.Done():
				return nil
			case jobs <- job{index: i, entry: e}:
			}
		}
		return nil
	})

	g.Go(func() error {
		var workers errgroup.Group
		for w := 0; w < settings.Workers; w++ {
			workers.Go(func() error {
				r.work(runCtx, settings, total, jobs, results)
				return nil
			})
		}
		err := workers.Wait()
		close(results)
		return err
	})

	summary := &Summary{Total: total}
	g.Go(func() error {
		return r.sink(settings.Ordered, total, results, stop, summary)
	})

	err := g.Wait()

	summary.Skipped = total - summary.Succeeded - summary.Failed
	summary.Interrupted = ctx.Err() != nil && summary.Skipped > 0
	summary.Elapsed = time.Since(start)

	log.Info().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Bool("interrupted", summary.Interrupted).
		Dur("elapsed", summary.Elapsed).
		Msg("Scraping finished")

	return summary, err
}

func (r *Run) normalizedSettings() Settings {
	s := r.Settings
	if s.Workers <= 0 {
		s.Workers = DefaultWorkers
	}
	if s.Workers > MaxWorkers {
		s.Workers = MaxWorkers
	}
	if s.ItemTimeout <= 0 {
		s.ItemTimeout = DefaultItemTimeout
	}
	if s.ReadyTimeout <= 0 {
		s.ReadyTimeout = DefaultReadyTimeout
	}
	if s.Retry.MaxAttempts <= 0 {
		s.Retry = retry.DefaultConfig()
	}
	return s
}

// work processes jobs until the channel closes. Every received job yields
// exactly one result so the ordered sink never waits on a gap.
func (r *Run) work(runCtx context.Context, settings Settings, total int, jobs <-chan job, results chan<- itemResult) {
	for j := range jobs {
		if runCtx.Err() != nil {
			results <- itemResult{job: j, skipped: true}
			continue
		}

		log.Info().
			Int("index", j.index+1).
			Int("total", total).
			Str("url", j.entry.URL).
			Msgf("[%d/%d] Scraping %s", j.index+1, total, j.entry.URL)

		// The item runs to completion even if the run is stopped meanwhile
		itemCtx, cancel := context.WithTimeout(context.WithoutCancel(runCtx), settings.ItemTimeout)
		rec, err := r.scrapeItem(itemCtx, settings, j.entry)
		cancel()

		results <- itemResult{job: j, record: rec, err: err}
	}
}

// scrapeItem loads one item page in a fresh session and fuses both channels
func (r *Run) scrapeItem(ctx context.Context, settings Settings, entry models.CatalogEntry) (models.Record, error) {
	logger := log.With().Str("url", entry.URL).Logger()

	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx, entry.URL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	sess, err := r.Opener.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer sess.Close()

	datasheet := r.Datasheet
	if datasheet == nil {
		datasheet = extract.NewDatasheetExtractor(0, 0)
	}
	sub := datasheet.Watch(sess)
	defer sub.Close()

	err = retry.WithRetry(ctx, settings.Retry, func(attempt int) error {
		if attempt > 1 {
			logger.Info().Int("attempt", attempt).Msg("Reloading page")
		}
		return sess.Navigate(ctx, entry.URL)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load page: %w", err)
	}

	if out := sess.WaitReady(ctx, site.ReadyMarkers, settings.ReadyTimeout); out != browser.Found {
		logger.Debug().Stringer("outcome", out).Msg("Page not ready, extracting what rendered")
	}

	page, err := sess.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}

	static := extract.Static(page).Record()
	dynamic := datasheet.Extract(ctx, sess, sub, entry.URL)

	logger.Debug().
		Int("static_fields", len(static)).
		Int("dynamic_fields", len(dynamic)).
		Msg("Item extracted")

	return fusion.Fuse(static, dynamic), nil
}

// sink is the single writer. In ordered mode results wait in a reorder
// buffer until every earlier index has been handled. After a store failure
// it keeps draining so workers never block, but persists nothing more.
func (r *Run) sink(ordered bool, total int, results <-chan itemResult, stop context.CancelCauseFunc, summary *Summary) error {
	var persistErr error

	handle := func(res itemResult) {
		if res.skipped {
			return
		}

		logger := log.With().Int("index", res.index+1).Str("url", res.entry.URL).Logger()
		err := res.err
		switch {
		case err != nil:
			summary.Failed++
			logger.Error().Err(err).Msg("Item failed, skipping")
		case persistErr != nil:
			return
		default:
			if perr := r.Store.Append(res.record); perr != nil {
				persistErr = perr
				stop(perr)
				logger.Error().Err(perr).Msg("Checkpoint failed, stopping run")
				return
			}
			summary.Succeeded++
		}

		if r.OnProgress != nil {
			r.OnProgress(Progress{Index: res.index + 1, Total: total, URL: res.entry.URL, Err: err})
		}
	}

	pending := make(map[int]itemResult)
	next := 0
	for res := range results {
		if !ordered {
			handle(res)
			continue
		}
		pending[res.index] = res
		for {
			queued, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			handle(queued)
			next++
		}
	}

	return persistErr
}
