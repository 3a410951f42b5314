package proxy

import (
	"sync"
	"time"
)

// DefaultCooldown is how long a failed proxy is skipped
const DefaultCooldown = 5 * time.Minute

// Rotation hands out proxies round-robin, skipping ones that failed recently.
// An empty rotation always yields "" (direct connection).
type Rotation struct {
	proxies  []string
	next     int
	cooldown time.Duration
	failed   map[string]time.Time
	now      func() time.Time
	mu       sync.Mutex
}

// NewRotation creates a Rotation over proxies
func NewRotation(proxies []string, cooldown time.Duration) *Rotation {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Rotation{
		proxies:  append([]string(nil), proxies...),
		cooldown: cooldown,
		failed:   make(map[string]time.Time),
		now:      time.Now,
	}
}

// Next returns the next healthy proxy. When every proxy is cooling down the
// one whose failure is oldest is returned.
func (r *Rotation) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.proxies) == 0 {
		return ""
	}

	oldest := ""
	var oldestAt time.Time
	for range r.proxies {
		p := r.proxies[r.next]
		r.next = (r.next + 1) % len(r.proxies)

		failedAt, ok := r.failed[p]
		if !ok {
			return p
		}
		if r.now().Sub(failedAt) >= r.cooldown {
			delete(r.failed, p)
			return p
		}
		if oldest == "" || failedAt.Before(oldestAt) {
			oldest, oldestAt = p, failedAt
		}
	}
	return oldest
}

// MarkFailed puts proxy on cooldown
func (r *Rotation) MarkFailed(proxy string) {
	if proxy == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[proxy] = r.now()
}

// MarkHealthy clears the failure status of a proxy
func (r *Rotation) MarkHealthy(proxy string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.failed, proxy)
}

// Len returns the number of configured proxies
func (r *Rotation) Len() int {
	return len(r.proxies)
}
