// internal/browser/session.go
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// Hit-tests the element's center so that a click swallowed by an overlay is
// reported instead of silently landing on the overlay.
const clickJS = `function() {
	const r = this.getBoundingClientRect();
	const top = document.elementFromPoint(r.left + r.width / 2, r.top + r.height / 2);
	if (top !== null && top !== this && !this.contains(top)) {
		return "intercepted";
	}
	this.click();
	return "clicked";
}`

const scrollJS = `function() { this.scrollIntoView({block: "center"}); }`

type chromeHandle struct {
	loc  Locator
	node *cdp.Node
}

func (h *chromeHandle) Locator() Locator { return h.loc }

// chromeSession is one tab. Its listener lives exactly as long as the tab.
type chromeSession struct {
	ctx        context.Context
	cancel     context.CancelFunc
	navTimeout time.Duration
	release    func(healthy bool)

	mu      sync.Mutex
	pending map[network.RequestID]Response
	subs    map[*subscription]struct{}
	healthy bool
	closed  bool
}

func newChromeSession(ctx context.Context, cancel context.CancelFunc, navTimeout time.Duration, release func(bool)) *chromeSession {
	s := &chromeSession{
		ctx:        ctx,
		cancel:     cancel,
		navTimeout: navTimeout,
		release:    release,
		pending:    make(map[network.RequestID]Response),
		subs:       make(map[*subscription]struct{}),
		healthy:    true,
	}
	chromedp.ListenTarget(ctx, s.onEvent)
	return s
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx
func (s *chromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func queryOption(by QueryKind) chromedp.QueryOption {
	if by == ByXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// Navigate loads url
func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, s.navTimeout, chromedp.Navigate(url)); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			s.markUnhealthy()
		}
		return newError(ErrCodeNavigation, url, err)
	}
	return nil
}

// WaitReady polls the document until one of markers appears
func (s *chromeSession) WaitReady(ctx context.Context, markers []string, timeout time.Duration) Outcome {
	if len(markers) == 0 {
		return Found
	}
	encoded, err := json.Marshal(markers)
	if err != nil {
		return TimedOut
	}
	expr := fmt.Sprintf(`%s.some(m => document.documentElement.outerHTML.includes(m))`, encoded)

	var ready bool
	err = s.run(ctx, timeout+time.Second, chromedp.Poll(expr, &ready,
		chromedp.WithPollingTimeout(timeout),
		chromedp.WithPollingInterval(250*time.Millisecond),
	))
	if err != nil {
		log.Debug().Err(err).Strs("markers", markers).Msg("Page not ready before timeout")
		return TimedOut
	}
	return Found
}

// HTML returns the rendered document
func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, s.navTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", newError(ErrCodeBrowser, "", err)
	}
	return html, nil
}

// Text returns the text of the first element matching loc
func (s *chromeSession) Text(ctx context.Context, loc Locator, timeout time.Duration) (string, Outcome) {
	var text string
	if err := s.run(ctx, timeout, chromedp.Text(loc.Selector, &text, queryOption(loc.By))); err != nil {
		return "", NotFound
	}
	return strings.TrimSpace(text), Found
}

// Locate waits for a visible element matching loc
func (s *chromeSession) Locate(ctx context.Context, loc Locator, timeout time.Duration) (Handle, Outcome) {
	var nodes []*cdp.Node
	err := s.run(ctx, timeout, chromedp.Nodes(loc.Selector, &nodes, queryOption(loc.By), chromedp.NodeVisible))
	if err != nil || len(nodes) == 0 {
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			log.Debug().Err(err).Str("selector", loc.Selector).Msg("Locate failed")
		}
		return nil, NotFound
	}
	return &chromeHandle{loc: loc, node: nodes[0]}, Found
}

func (s *chromeSession) callOnNode(ctx context.Context, h Handle, fn string, res interface{}) error {
	ch, ok := h.(*chromeHandle)
	if !ok || ch.node == nil {
		return fmt.Errorf("handle does not belong to a chrome session")
	}
	return s.run(ctx, s.navTimeout, callFunctionOnNode(ch.node, fn, res))
}

// callFunctionOnNode runs fn with `this` bound to node
func callFunctionOnNode(node *cdp.Node, fn string, res interface{}) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithBackendNodeID(node.BackendNodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("resolve node: %w", err)
		}
		defer func() { _ = runtime.ReleaseObject(obj.ObjectID).Do(ctx) }()

		return chromedp.CallFunctionOn(fn, res, func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
			return p.WithObjectID(obj.ObjectID)
		}).Do(ctx)
	})
}

// ScrollIntoView centers the element in the viewport
func (s *chromeSession) ScrollIntoView(ctx context.Context, h Handle) Outcome {
	if err := s.callOnNode(ctx, h, scrollJS, nil); err != nil {
		log.Debug().Err(err).Msg("Scroll into view failed")
		return NotFound
	}
	return Found
}

// Click clicks the element unless something else covers it
func (s *chromeSession) Click(ctx context.Context, h Handle) Outcome {
	var res string
	if err := s.callOnNode(ctx, h, clickJS, &res); err != nil {
		log.Debug().Err(err).Msg("Click failed")
		return NotFound
	}
	if res == "intercepted" {
		return Intercepted
	}
	return Found
}

// OnResponse registers pred; bodies of later JSON responses it accepts are
// buffered on the returned subscription
func (s *chromeSession) OnResponse(pred ResponsePredicate) Subscription {
	sub := &subscription{
		pred:    pred,
		matches: make(chan []byte, 8),
		detach:  s.detach,
	}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	return sub
}

func (s *chromeSession) detach(sub *subscription) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}

func (s *chromeSession) onEvent(ev interface{}) {
	switch e := ev.(type) {
	case *network.EventResponseReceived:
		if !mayCarryPayload(e.Response.MimeType) {
			return
		}
		s.mu.Lock()
		s.pending[e.RequestID] = Response{URL: e.Response.URL, MIMEType: e.Response.MimeType}
		s.mu.Unlock()

	case *network.EventLoadingFinished:
		s.mu.Lock()
		resp, ok := s.pending[e.RequestID]
		delete(s.pending, e.RequestID)
		interested := len(s.subs) > 0
		s.mu.Unlock()
		if !ok || !interested {
			return
		}
		// Listener callbacks must not block the event loop
		go s.fetchBody(e.RequestID, resp)
	}
}

// mayCarryPayload keeps textual responses, whose bodies may hold JSON under
// any content type, and skips images, fonts and other binaries
func mayCarryPayload(mimeType string) bool {
	m := strings.ToLower(mimeType)
	return strings.Contains(m, "json") || strings.HasPrefix(m, "text/")
}

func (s *chromeSession) fetchBody(id network.RequestID, resp Response) {
	err := s.run(s.ctx, s.navTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		body, err := network.GetResponseBody(id).Do(ctx)
		resp.Body = body
		return err
	}))
	if err != nil || len(resp.Body) == 0 {
		return
	}

	s.mu.Lock()
	subs := make([]*subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		if sub.pred(resp) {
			sub.deliver(resp.Body)
		}
	}
}

func (s *chromeSession) markUnhealthy() {
	s.mu.Lock()
	s.healthy = false
	s.mu.Unlock()
}

// Close closes the tab and returns the browser to its pool
func (s *chromeSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	healthy := s.healthy
	s.subs = make(map[*subscription]struct{})
	s.mu.Unlock()

	s.cancel()
	s.release(healthy)
	return nil
}

type subscription struct {
	pred    ResponsePredicate
	matches chan []byte
	detach  func(*subscription)
	once    sync.Once
}

func (sub *subscription) deliver(body []byte) {
	select {
	case sub.matches <- body:
	default:
		// Only the first match is ever consumed
	}
}

// WaitForMatch returns the first accepted body or TimedOut
func (sub *subscription) WaitForMatch(ctx context.Context, timeout time.Duration) ([]byte, Outcome) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case body := <-sub.matches:
		return body, Found
	case <-timer.C:
		return nil, TimedOut
	case <-ctx.Done():
		return nil, TimedOut
	}
}

// Close stops delivery to this subscription
func (sub *subscription) Close() {
	sub.once.Do(func() { sub.detach(sub) })
}
