// Package browser defines the rendering capabilities the scraper depends on
// and implements them on top of headless Chrome (chromedp).
package browser

import (
	"context"
	"time"
)

// Outcome tags the result of a bounded interaction with a rendered page.
// Callers branch on it instead of inspecting errors.
type Outcome int

const (
	Found Outcome = iota
	NotFound
	Intercepted
	TimedOut
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Intercepted:
		return "intercepted"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// QueryKind selects how a Locator's selector is interpreted
type QueryKind int

const (
	ByQuery QueryKind = iota // CSS selector
	ByXPath
)

// Locator identifies an element on the page.
type Locator struct {
	Selector string
	By       QueryKind
}

// Handle references a located element. It is only valid within the
// session that produced it.
type Handle interface {
	Locator() Locator
}

// Page is the rendering half of a session.
type Page interface {
	// Navigate loads url. An error here means the page is unusable.
	Navigate(ctx context.Context, url string) error

	// WaitReady blocks until the document contains one of markers.
	// Returns TimedOut when the budget elapses first.
	WaitReady(ctx context.Context, markers []string, timeout time.Duration) Outcome

	// HTML returns the current rendered document.
	HTML(ctx context.Context) (string, error)

	// Text returns the visible text of the first element matching loc.
	Text(ctx context.Context, loc Locator, timeout time.Duration) (string, Outcome)

	// Locate waits up to timeout for a visible element matching loc.
	Locate(ctx context.Context, loc Locator, timeout time.Duration) (Handle, Outcome)

	ScrollIntoView(ctx context.Context, h Handle) Outcome
	Click(ctx context.Context, h Handle) Outcome
}

// Response is a network response observed by an Interceptor.
type Response struct {
	URL      string
	MIMEType string
	Body     []byte
}

// ResponsePredicate decides whether a response is the one being waited for.
type ResponsePredicate func(Response) bool

// Interceptor is the network half of a session.
type Interceptor interface {
	// OnResponse must be registered before triggering the action whose
	// response is awaited.
	OnResponse(pred ResponsePredicate) Subscription
}

// Subscription accumulates responses accepted by its predicate.
type Subscription interface {
	// WaitForMatch returns the first matching body, or TimedOut.
	WaitForMatch(ctx context.Context, timeout time.Duration) ([]byte, Outcome)
	Close()
}

// Session is one rendering tab. It is owned by exactly one goroutine and
// must be closed on every exit path.
type Session interface {
	Page
	Interceptor
	Close() error
}

// Opener hands out sessions.
type Opener interface {
	Open(ctx context.Context) (Session, error)
}
