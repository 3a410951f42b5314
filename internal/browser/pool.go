// internal/browser/pool.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/law-makers/scentcrawl/internal/proxy"
	"github.com/rs/zerolog/log"
)

const (
	defaultPoolSize = 1
	maxPoolSize     = 10
)

// PoolOptions configures the browser pool
type PoolOptions struct {
	Size              int
	Headless          bool
	UserAgent         string
	ChromePath        string
	Proxies           *proxy.Rotation
	AcquireTimeout    time.Duration
	NavigationTimeout time.Duration
	Headers           map[string]string // sent with every request of every tab
	ExtraArgs         []chromedp.ExecAllocatorOption
}

// BrowserPool keeps Size browser processes alive. A session is a fresh tab
// inside an acquired browser, so listeners never leak between items.
type BrowserPool struct {
	opts       PoolOptions
	chromePath string
	slots      chan *slot
	mu         sync.Mutex
	closed     bool
}

// slot is one browser process with its own allocator (and proxy)
type slot struct {
	id          int
	proxy       string
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	stale       bool
}

// NewBrowserPool launches opts.Size browsers
func NewBrowserPool(opts PoolOptions) (*BrowserPool, error) {
	if opts.Size <= 0 {
		opts.Size = defaultPoolSize
	}
	if opts.Size > maxPoolSize {
		opts.Size = maxPoolSize
	}
	if opts.Proxies == nil {
		opts.Proxies = proxy.NewRotation(nil, 0)
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}

	pool := &BrowserPool{
		opts:       opts,
		chromePath: FindChrome(opts.ChromePath),
		slots:      make(chan *slot, opts.Size),
	}

	log.Debug().Int("size", opts.Size).Msg("Creating browser pool")

	for i := 0; i < opts.Size; i++ {
		s := &slot{id: i}
		if err := pool.launch(s); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to launch browser %d: %w", i, err)
		}
		pool.slots <- s
	}

	log.Info().Int("pool_size", opts.Size).Int("proxies", opts.Proxies.Len()).Msg("Browser pool ready")
	return pool, nil
}

func (bp *BrowserPool) allocatorOptions(proxyAddr string) []chromedp.ExecAllocatorOption {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("log-level", "3"),
		chromedp.WindowSize(1920, 1080),
	}
	if bp.opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(bp.opts.UserAgent))
	}
	if bp.chromePath != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(bp.chromePath)}, allocOpts...)
	}
	if bp.opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if proxyAddr != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(proxyAddr))
	}
	return append(allocOpts, bp.opts.ExtraArgs...)
}

// launch (re)starts the browser behind s
func (bp *BrowserPool) launch(s *slot) error {
	s.proxy = bp.opts.Proxies.Next()

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), bp.allocatorOptions(s.proxy)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// The first Run starts the browser process
	warmCtx, cancel := context.WithTimeout(browserCtx, bp.opts.NavigationTimeout)
	defer cancel()
	if err := chromedp.Run(warmCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return newError(ErrCodeBrowser, "", err)
	}

	s.allocCancel = allocCancel
	s.ctx = browserCtx
	s.cancel = browserCancel
	s.stale = false

	log.Debug().Int("slot", s.id).Str("proxy", s.proxy).Msg("Browser launched")
	return nil
}

func (s *slot) shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// Acquire takes a browser out of the pool, relaunching it first if its last
// session reported it unhealthy
func (bp *BrowserPool) Acquire(ctx context.Context) (*slot, error) {
	var timeout <-chan time.Time
	if bp.opts.AcquireTimeout > 0 {
		timer := time.NewTimer(bp.opts.AcquireTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var s *slot
	select {
	case got, ok := <-bp.slots:
		if !ok {
			return nil, ErrPoolClosed
		}
		s = got
	case <-timeout:
		return nil, ErrAcquireTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	bp.mu.Lock()
	closed := bp.closed
	bp.mu.Unlock()
	if closed {
		s.shutdown()
		return nil, ErrPoolClosed
	}

	if s.stale {
		s.shutdown()
		if err := bp.launch(s); err != nil {
			bp.Release(s)
			return nil, fmt.Errorf("failed to relaunch browser %d: %w", s.id, err)
		}
	}

	log.Debug().Int("slot", s.id).Msg("Browser acquired from pool")
	return s, nil
}

// Release returns a browser to the pool. An unhealthy browser has its
// proxy put on cooldown and is relaunched on its next acquisition.
func (bp *BrowserPool) Release(s *slot) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		s.shutdown()
		return
	}
	if s.stale {
		bp.opts.Proxies.MarkFailed(s.proxy)
	}

	select {
	case bp.slots <- s:
		log.Debug().Int("slot", s.id).Bool("stale", s.stale).Msg("Browser released to pool")
	default:
		s.shutdown()
		log.Warn().Msg("Browser pool full, discarding browser")
	}
}

// Open implements Opener: it acquires a browser and opens a new tab in it
func (bp *BrowserPool) Open(ctx context.Context) (Session, error) {
	s, err := bp.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(s.ctx)
	enableCtx, cancel := context.WithTimeout(tabCtx, bp.opts.NavigationTimeout)
	defer cancel()
	if err := chromedp.Run(enableCtx, bp.tabSetup()...); err != nil {
		tabCancel()
		s.stale = true
		bp.Release(s)
		return nil, newError(ErrCodeBrowser, "", err)
	}

	return newChromeSession(tabCtx, tabCancel, bp.opts.NavigationTimeout, func(healthy bool) {
		if !healthy {
			s.stale = true
		}
		bp.Release(s)
	}), nil
}

func (bp *BrowserPool) tabSetup() []chromedp.Action {
	actions := []chromedp.Action{network.Enable()}
	if len(bp.opts.Headers) > 0 {
		h := make(network.Headers, len(bp.opts.Headers))
		for k, v := range bp.opts.Headers {
			h[k] = v
		}
		actions = append(actions, network.SetExtraHTTPHeaders(h))
	}
	return actions
}

// Close shuts down every browser
func (bp *BrowserPool) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return nil
	}
	bp.closed = true
	close(bp.slots)

	for s := range bp.slots {
		s.shutdown()
	}

	log.Info().Msg("Browser pool closed")
	return nil
}

// Size returns the pool size
func (bp *BrowserPool) Size() int {
	return bp.opts.Size
}

// Available returns the number of idle browsers
func (bp *BrowserPool) Available() int {
	return len(bp.slots)
}
