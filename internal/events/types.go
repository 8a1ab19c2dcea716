// Package events implements a broadcast pub/sub bus for crawl progress events, with
// configurable backpressure, atomic metrics, and graceful shutdown.
package events

import "time"

// EventKind tags the variant of a CrawlEvent.
type EventKind string

const (
	KindCrawlStarted         EventKind = "CrawlStarted"
	KindPageCrawled          EventKind = "PageCrawled"
	KindLinkRewriteCompleted EventKind = "LinkRewriteCompleted"
	KindCrawlCompleted       EventKind = "CrawlCompleted"
	KindCacheHit             EventKind = "CacheHit"
	KindShutdown             EventKind = "Shutdown"
)

// CrawlEvent is a tagged event carried on the bus. Exactly one of the typed
// payload fields is meaningful, selected by Kind.
type CrawlEvent struct {
	Kind      EventKind
	Timestamp time.Time

	CrawlStarted         *CrawlStartedPayload
	PageCrawled          *PageCrawledPayload
	LinkRewriteCompleted *LinkRewriteCompletedPayload
	CrawlCompleted       *CrawlCompletedPayload
	CacheHit             *CacheHitPayload
	Shutdown             *ShutdownPayload
}

// CrawlStartedPayload fires once when a crawl session begins.
type CrawlStartedPayload struct {
	URL      string
	OutDir   string
	MaxDepth int
}

// PageCrawlMetadata carries per-page processing detail alongside PageCrawled.
type PageCrawlMetadata struct {
	RawSize        int64
	CompressedSize int64
	LinkCount      int
	HasScreenshot  bool
	ProcessingTime time.Duration
}

// PageCrawledPayload fires once per successfully saved page.
type PageCrawledPayload struct {
	URL      string
	Path     string
	Depth    int
	Metadata PageCrawlMetadata
}

// LinkRewriteCompletedPayload fires once per target after its inbound links have
// been rewritten to local paths.
type LinkRewriteCompletedPayload struct {
	Target         string
	FilesUpdated   int
	LinksRewritten int
}

// CrawlCompletedPayload fires once when a crawl session finishes (successfully or
// with accumulated per-page errors).
type CrawlCompletedPayload struct {
	Pages          int
	LinksRewritten int
	Duration       time.Duration
}

// CacheHitPayload fires when a page is served from an already-registered local
// path instead of being re-fetched.
type CacheHitPayload struct {
	URL string
}

// ShutdownReasonKind discriminates why the bus is shutting down.
type ShutdownReasonKind string

const (
	ShutdownCrawlCompleted ShutdownReasonKind = "CrawlCompleted"
	ShutdownCancelled      ShutdownReasonKind = "Cancelled"
	ShutdownError          ShutdownReasonKind = "Error"
)

// ShutdownPayload carries the reason the bus is draining.
type ShutdownPayload struct {
	Reason  ShutdownReasonKind
	Message string // populated only when Reason == ShutdownError
}

func now() time.Time { return time.Now().UTC() }

// NewCrawlStarted constructs a CrawlStarted event.
func NewCrawlStarted(url, outDir string, maxDepth int) CrawlEvent {
	return CrawlEvent{Kind: KindCrawlStarted, Timestamp: now(), CrawlStarted: &CrawlStartedPayload{URL: url, OutDir: outDir, MaxDepth: maxDepth}}
}

// NewPageCrawled constructs a PageCrawled event.
func NewPageCrawled(url, path string, depth int, meta PageCrawlMetadata) CrawlEvent {
	return CrawlEvent{Kind: KindPageCrawled, Timestamp: now(), PageCrawled: &PageCrawledPayload{URL: url, Path: path, Depth: depth, Metadata: meta}}
}

// NewLinkRewriteCompleted constructs a LinkRewriteCompleted event.
func NewLinkRewriteCompleted(target string, filesUpdated, linksRewritten int) CrawlEvent {
	return CrawlEvent{Kind: KindLinkRewriteCompleted, Timestamp: now(), LinkRewriteCompleted: &LinkRewriteCompletedPayload{Target: target, FilesUpdated: filesUpdated, LinksRewritten: linksRewritten}}
}

// NewCrawlCompleted constructs a CrawlCompleted event.
func NewCrawlCompleted(pages, linksRewritten int, duration time.Duration) CrawlEvent {
	return CrawlEvent{Kind: KindCrawlCompleted, Timestamp: now(), CrawlCompleted: &CrawlCompletedPayload{Pages: pages, LinksRewritten: linksRewritten, Duration: duration}}
}

// NewCacheHit constructs a CacheHit event.
func NewCacheHit(url string) CrawlEvent {
	return CrawlEvent{Kind: KindCacheHit, Timestamp: now(), CacheHit: &CacheHitPayload{URL: url}}
}

// NewShutdownEvent constructs a Shutdown event.
func NewShutdownEvent(reason ShutdownReasonKind, message string) CrawlEvent {
	return CrawlEvent{Kind: KindShutdown, Timestamp: now(), Shutdown: &ShutdownPayload{Reason: reason, Message: message}}
}

// BatchPublishResult reports best-effort batch publish outcomes.
type BatchPublishResult struct {
	Total         int
	Published     int
	Failed        int
	MaxSubscribers int
}

// HasFailures reports whether any event in the batch failed to publish.
func (r BatchPublishResult) HasFailures() bool { return r.Failed > 0 }

// IsComplete reports whether every event in the batch published successfully.
func (r BatchPublishResult) IsComplete() bool { return r.Failed == 0 && r.Total > 0 }
