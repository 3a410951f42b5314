// Package ratelimit paces page loads per host.
package ratelimit

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// slowWait is how long a throttled load may wait before it is logged
const slowWait = 5 * time.Second

// RateLimiter paces page loads so concurrent workers don't hammer the site.
type RateLimiter interface {
	// Wait blocks until a load of rawURL may start, or ctx ends.
	Wait(ctx context.Context, rawURL string) error
}

// DomainLimiter keeps one token bucket per host
type DomainLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	every   rate.Limit
	burst   int
}

// NewDomainLimiter allows rps loads per second per host with the given
// burst. Non-positive values fall back to 1.
func NewDomainLimiter(rps float64, burst int) *DomainLimiter {
	if rps <= 0 {
		rps = 1
	}
	return &DomainLimiter{
		buckets: make(map[string]*rate.Limiter),
		every:   rate.Limit(rps),
		burst:   max(burst, 1),
	}
}

// Wait implements RateLimiter. URLs without a host are not throttled;
// navigation reports them.
func (dl *DomainLimiter) Wait(ctx context.Context, rawURL string) error {
	host := hostOf(rawURL)
	if host == "" {
		return nil
	}

	start := time.Now()
	if err := dl.bucket(host).Wait(ctx); err != nil {
		return err
	}
	if waited := time.Since(start); waited > slowWait {
		log.Debug().Str("host", host).Dur("waited", waited).Msg("Throttled page load")
	}
	return nil
}

func (dl *DomainLimiter) bucket(host string) *rate.Limiter {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	b, ok := dl.buckets[host]
	if !ok {
		b = rate.NewLimiter(dl.every, dl.burst)
		dl.buckets[host] = b
	}
	return b
}

// hostOf returns the lower-cased host of rawURL, www. prefix included
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
