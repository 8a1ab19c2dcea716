// Package crawler implements a bounded-concurrency BFS scheduler: a frontier
// of discovered URLs, a seen set, per-host rate limiting, robots.txt-aware
// scope enforcement, and a worker pool that hands each in-scope URL to a
// PageProcessor (the page-save pipeline) for navigation and extraction.
package crawler

import (
	"context"
	"time"

	"github.com/cyrup-ai/citescrape-go/internal/events"
)

// Config controls scope, concurrency, and pacing for a single crawl run.
type Config struct {
	// MaxDepth bounds how many hops from a seed a page may be at and still
	// have its outbound links enqueued.
	MaxDepth int
	// Limit caps the number of pages successfully processed before the crawl
	// winds down. Zero means unlimited.
	Limit int
	// Concurrency is the worker pool size.
	Concurrency int
	// AllowSubdomains admits *.seedHost in addition to the exact seed host.
	AllowSubdomains bool
	// ContentTypes, if non-empty, restricts which response content types are
	// eligible for link extraction (matched as a case-insensitive substring
	// of the response Content-Type header, e.g. "text/html").
	ContentTypes []string
	// RespectRobots enables robots.txt enforcement per host.
	RespectRobots bool
	// UseSitemap seeds the initial frontier from each seed host's sitemap(s)
	// (discovered via robots.txt, falling back to /sitemap.xml) in addition
	// to the seeds themselves. Requires a non-nil auditor.
	UseSitemap bool
	// UserAgent is used for robots.txt group matching. It is not passed to
	// the page processor.
	UserAgent string
	// RequestsPerSecond and Jitter configure the per-host rate limiter.
	RequestsPerSecond float64
	Jitter            float64
	// QueueSize bounds the in-memory frontier channel (0 = default 10000).
	QueueSize int
	// ProgressEvery sets the page-count cadence for progress snapshots
	// (0 = default 5, per spec).
	ProgressEvery int
}

func (c *Config) applyDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.UserAgent == "" {
		c.UserAgent = "*"
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 10000
	}
	if c.ProgressEvery <= 0 {
		c.ProgressEvery = 5
	}
}

// PageResult is what a PageProcessor reports back for one successfully
// navigated URL: where it was persisted, what it links to next, and the
// metadata carried on the resulting PageCrawled event.
type PageResult struct {
	Path        string
	ContentType string
	Links       []string
	Metadata    events.PageCrawlMetadata
}

// PageProcessor navigates to target, runs it through the inliner/converter/
// persistence/index pipeline, and reports the outcome. A non-nil error is
// treated as a transient failure (logged, URL marked failed, crawl
// continues); 4xx-class failures should be surfaced as an error too, per
// spec, since the scheduler does not itself inspect status codes.
type PageProcessor interface {
	Process(ctx context.Context, target string, depth int) (PageResult, error)
}

// Snapshot is emitted every ProgressEvery successfully processed pages, after
// every failed page, and once more at completion, to whatever
// ProgressReporter the caller supplies (typically the session registry).
type Snapshot struct {
	PagesProcessed  int
	PagesFailed     int
	LinksDiscovered int
	Elapsed         time.Duration
}

// ProgressReporter receives periodic Snapshots. Implementations must not
// block meaningfully; Run calls this synchronously from a worker goroutine.
type ProgressReporter interface {
	ReportProgress(Snapshot)
}
