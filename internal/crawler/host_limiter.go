package crawler

import (
	"context"
	"net/url"
	"sync"

	"github.com/cyrup-ai/citescrape-go/pkg/ratelimit"
)

// hostLimiters lazily creates one ratelimit.Limiter per host, generalizing
// the teacher's single process-wide limiter (pkg/ratelimit.Limiter used
// directly by Crawler) to the spec's per-host token bucket.
type hostLimiters struct {
	rps    float64
	jitter float64

	mu       sync.Mutex
	limiters map[string]*ratelimit.Limiter
}

func newHostLimiters(rps, jitter float64) *hostLimiters {
	return &hostLimiters{
		rps:      rps,
		jitter:   jitter,
		limiters: make(map[string]*ratelimit.Limiter),
	}
}

func (h *hostLimiters) wait(ctx context.Context, rawURL string) error {
	host := hostOf(rawURL)

	h.mu.Lock()
	l, ok := h.limiters[host]
	if !ok {
		l = ratelimit.NewLimiter(h.rps, h.jitter)
		h.limiters[host] = l
	}
	h.mu.Unlock()

	return l.Wait(ctx)
}

func (h *hostLimiters) stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, l := range h.limiters {
		l.Stop()
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
