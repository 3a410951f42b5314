// Package browsertest provides a scripted in-memory browser.Session.
package browsertest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/law-makers/scentcrawl/internal/browser"
)

// Fake replays a scripted page. Locate results are consumed in order for
// each selector; once a script runs out the selector is NotFound. Every
// Found click advances the rendered HTML to the next entry of States.
type Fake struct {
	// States are successive renderings of the page; clicks advance through them
	States []string

	// Locates scripts Locate outcomes per selector
	Locates map[string][]browser.Outcome

	// Clicks scripts Click outcomes; Found once exhausted
	Clicks []browser.Outcome

	// Texts maps selectors to the text returned by Text
	Texts map[string]string

	// Ready is returned by WaitReady
	Ready browser.Outcome

	// NavigateErr fails Navigate
	NavigateErr error

	// NavigateErrs fails Navigate for specific URLs
	NavigateErrs map[string]error

	// HTMLErr fails HTML
	HTMLErr error

	// Payloads are offered to subscriptions when a Found click lands on the
	// element named by PayloadTrigger (any click when empty)
	Payloads       []browser.Response
	PayloadTrigger string

	mu          sync.Mutex
	state       int
	locateCalls map[string]int
	clickCalls  int
	scrollCalls int
	navigated   []string
	subs        []*fakeSub
	closed      bool
}

type fakeHandle struct{ loc browser.Locator }

func (h fakeHandle) Locator() browser.Locator { return h.loc }

func (f *Fake) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigated = append(f.navigated, url)
	if err, ok := f.NavigateErrs[url]; ok {
		return err
	}
	return f.NavigateErr
}

func (f *Fake) WaitReady(ctx context.Context, markers []string, timeout time.Duration) browser.Outcome {
	return f.Ready
}

func (f *Fake) HTML(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.HTMLErr != nil {
		return "", f.HTMLErr
	}
	if len(f.States) == 0 {
		return "", nil
	}
	return f.States[f.state], nil
}

func (f *Fake) Text(ctx context.Context, loc browser.Locator, timeout time.Duration) (string, browser.Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.Texts[loc.Selector]; ok {
		return t, browser.Found
	}
	return "", browser.NotFound
}

func (f *Fake) Locate(ctx context.Context, loc browser.Locator, timeout time.Duration) (browser.Handle, browser.Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locateCalls == nil {
		f.locateCalls = make(map[string]int)
	}
	n := f.locateCalls[loc.Selector]
	f.locateCalls[loc.Selector] = n + 1

	script := f.Locates[loc.Selector]
	if n >= len(script) || script[n] != browser.Found {
		if n < len(script) {
			return nil, script[n]
		}
		return nil, browser.NotFound
	}
	return fakeHandle{loc: loc}, browser.Found
}

func (f *Fake) ScrollIntoView(ctx context.Context, h browser.Handle) browser.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scrollCalls++
	return browser.Found
}

func (f *Fake) Click(ctx context.Context, h browser.Handle) browser.Outcome {
	f.mu.Lock()
	n := f.clickCalls
	f.clickCalls++
	out := browser.Found
	if n < len(f.Clicks) {
		out = f.Clicks[n]
	}
	if out != browser.Found {
		f.mu.Unlock()
		return out
	}
	if f.state < len(f.States)-1 {
		f.state++
	}
	trigger := f.PayloadTrigger == "" || f.PayloadTrigger == h.Locator().Selector
	subs := append([]*fakeSub(nil), f.subs...)
	payloads := f.Payloads
	f.mu.Unlock()

	if trigger {
		for _, sub := range subs {
			for _, p := range payloads {
				if sub.pred(p) {
					sub.offer(p.Body)
				}
			}
		}
	}
	return out
}

func (f *Fake) OnResponse(pred browser.ResponsePredicate) browser.Subscription {
	sub := &fakeSub{pred: pred, ch: make(chan []byte, 16)}
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()
	return sub
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// LocateCalls returns how many times Locate was called for selector
func (f *Fake) LocateCalls(selector string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locateCalls[selector]
}

// ClickCalls returns how many clicks were attempted
func (f *Fake) ClickCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clickCalls
}

// ScrollCalls returns how many scrolls were attempted
func (f *Fake) ScrollCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scrollCalls
}

// Navigated returns the URLs passed to Navigate
func (f *Fake) Navigated() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.navigated...)
}

// Closed reports whether Close was called
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeSub struct {
	pred browser.ResponsePredicate
	ch   chan []byte
}

func (s *fakeSub) offer(body []byte) {
	select {
	case s.ch <- body:
	default:
	}
}

func (s *fakeSub) WaitForMatch(ctx context.Context, timeout time.Duration) ([]byte, browser.Outcome) {
	select {
	case b := <-s.ch:
		return b, browser.Found
	default:
	}
	select {
	case b := <-s.ch:
		return b, browser.Found
	case <-time.After(timeout):
		return nil, browser.TimedOut
	case <-ctx.Done():
		return nil, browser.TimedOut
	}
}

func (s *fakeSub) Close() {}

// Opener hands out sessions built by New, one per Open call
type Opener struct {
	New     func(n int) *Fake
	OpenErr error

	mu     sync.Mutex
	opened []*Fake
}

// ErrOpen is a convenience failure for Opener.OpenErr
var ErrOpen = errors.New("browsertest: open failed")

func (o *Opener) Open(ctx context.Context) (browser.Session, error) {
	if o.OpenErr != nil {
		return nil, o.OpenErr
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	f := o.New(len(o.opened))
	o.opened = append(o.opened, f)
	return f, nil
}

// Opened returns every session handed out so far
func (o *Opener) Opened() []*Fake {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Fake(nil), o.opened...)
}
