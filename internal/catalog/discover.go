// Package catalog discovers every item of the catalog by exhausting its
// "load more" pagination.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/scentcrawl/internal/browser"
	"github.com/law-makers/scentcrawl/internal/extract"
	"github.com/law-makers/scentcrawl/internal/site"
	urlutil "github.com/law-makers/scentcrawl/internal/utils/url"
	"github.com/law-makers/scentcrawl/pkg/models"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxLoadMore = 250
	DefaultControlWait = 8 * time.Second
	DefaultScrollPause = 500 * time.Millisecond
	DefaultClickPause  = 1500 * time.Millisecond
)

// Options bounds the pagination loop
type Options struct {
	MaxLoadMore int
	ControlWait time.Duration
	ScrollPause time.Duration
	ClickPause  time.Duration
}

// DefaultOptions returns the pacing used against the live site
func DefaultOptions() Options {
	return Options{
		MaxLoadMore: DefaultMaxLoadMore,
		ControlWait: DefaultControlWait,
		ScrollPause: DefaultScrollPause,
		ClickPause:  DefaultClickPause,
	}
}

// StopReason says why pagination ended
type StopReason int

const (
	// Exhausted: no "load more" control is left, the catalog is complete
	Exhausted StopReason = iota
	// Blocked: something covered the control, the catalog is partial
	Blocked
	// BoundReached: MaxLoadMore clicks happened and the control is still there
	BoundReached
	// Cancelled: the caller stopped discovery
	Cancelled
)

func (r StopReason) String() string {
	switch r {
	case Exhausted:
		return "exhausted"
	case Blocked:
		return "blocked"
	case BoundReached:
		return "bound_reached"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Step is the verdict of one pagination iteration
type Step struct {
	Done   bool
	Reason StopReason
}

// Continue asks for another iteration
func Continue() Step { return Step{} }

// Stop ends pagination for reason
func Stop(reason StopReason) Step { return Step{Done: true, Reason: reason} }

// Result is a discovered catalog and how pagination ended
type Result struct {
	Entries []models.CatalogEntry
	Clicks  int
	Reason  StopReason
}

// Discoverer walks the catalog pages through one browser session
type Discoverer struct {
	opener browser.Opener
	opts   Options
}

// NewDiscoverer creates a Discoverer; zero options take defaults
func NewDiscoverer(opener browser.Opener, opts Options) *Discoverer {
	def := DefaultOptions()
	if opts.MaxLoadMore <= 0 {
		opts.MaxLoadMore = def.MaxLoadMore
	}
	if opts.ControlWait <= 0 {
		opts.ControlWait = def.ControlWait
	}
	if opts.ScrollPause < 0 {
		opts.ScrollPause = 0
	}
	if opts.ClickPause < 0 {
		opts.ClickPause = 0
	}
	return &Discoverer{opener: opener, opts: opts}
}

// Discover loads startURL, clicks "load more" until the control is gone,
// blocked or the click bound is hit, then parses the item links. Only a
// failure to open, load or read the page is an error; every other ending
// returns the entries gathered so far.
func (d *Discoverer) Discover(ctx context.Context, startURL string) (*Result, error) {
	logger := log.With().Str("url", startURL).Logger()

	sess, err := d.opener.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer sess.Close()

	if err := sess.Navigate(ctx, startURL); err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	res := &Result{Reason: BoundReached}
	for res.Clicks < d.opts.MaxLoadMore {
		step := d.step(ctx, sess)
		if step.Done {
			res.Reason = step.Reason
			break
		}
		res.Clicks++
		logger.Debug().Int("clicks", res.Clicks).Msg("Loaded more items")
	}

	switch res.Reason {
	case BoundReached:
		logger.Warn().Int("bound", d.opts.MaxLoadMore).Msg("Load-more bound reached, catalog may be partial")
	case Blocked:
		logger.Warn().Int("clicks", res.Clicks).Msg("Load-more control blocked, catalog is partial")
	case Cancelled:
		logger.Warn().Int("clicks", res.Clicks).Msg("Discovery cancelled, keeping items loaded so far")
	}

	// The page is read even after cancellation so loaded items are kept
	page, err := sess.HTML(context.WithoutCancel(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog page: %w", err)
	}

	res.Entries = ParseCatalog(page, site.BaseURL)
	logger.Info().
		Int("entries", len(res.Entries)).
		Int("clicks", res.Clicks).
		Stringer("reason", res.Reason).
		Msg("Catalog discovered")
	return res, nil
}

// step performs one load-more iteration
func (d *Discoverer) step(ctx context.Context, page browser.Page) Step {
	if ctx.Err() != nil {
		return Stop(Cancelled)
	}

	control, out := page.Locate(ctx, site.LoadMoreControl, d.opts.ControlWait)
	switch out {
	case browser.Found:
	case browser.Intercepted:
		return Stop(Blocked)
	default:
		// Not found within the wait: nothing left to load
		if ctx.Err() != nil {
			return Stop(Cancelled)
		}
		return Stop(Exhausted)
	}

	if out := page.ScrollIntoView(ctx, control); out == browser.Intercepted {
		return Stop(Blocked)
	}
	if !pause(ctx, d.opts.ScrollPause) {
		return Stop(Cancelled)
	}

	if out := page.Click(ctx, control); out != browser.Found {
		log.Debug().Stringer("outcome", out).Msg("Load-more click did not land")
		return Stop(Blocked)
	}
	if !pause(ctx, d.opts.ClickPause) {
		return Stop(Cancelled)
	}
	return Continue()
}

func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// ParseCatalog extracts item links from a rendered catalog page. Anchor text
// is whitespace-normalized; empty and stoplisted texts are dropped; the
// first occurrence of each URL wins.
func ParseCatalog(page, baseURL string) []models.CatalogEntry {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil
	}

	entries := []models.CatalogEntry{}
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		path, ok := urlutil.ItemPath(baseURL, href, site.ItemPathPrefix)
		if !ok {
			return
		}

		name := extract.NormalizedText(sel)
		if name == "" {
			return
		}
		if _, stop := site.CatalogStoplist[strings.ToLower(name)]; stop {
			return
		}

		url := urlutil.ResolveURL(baseURL, path)
		if _, dup := seen[url]; dup {
			return
		}
		seen[url] = struct{}{}
		entries = append(entries, models.CatalogEntry{RawName: name, URL: url})
	})
	return entries
}
