// Package session implements citescrape's control-plane view: a per-session
// registry tracking crawl status/progress, with a plain Go API standing in
// for the scrape_url/fetch/web_search contract (no CLI or RPC server, per
// the explicit Non-goal).
package session

import (
	"time"

	"github.com/cyrup-ai/citescrape-go/internal/crawler"
)

// Status is a session's lifecycle state.
type Status string

const (
	StatusRunning   Status = "Running"
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
	StatusCancelled Status = "Cancelled"
)

// Session is the in-memory record for one crawl run.
type Session struct {
	SessionID  string
	CrawlID    string
	SeedURL    string
	OutDir     string
	Status     Status
	StartedAt  time.Time
	FinishedAt *time.Time
	Progress   crawler.Snapshot
	Error      string
}

// StartCrawlRequest mirrors the scrape_url contract's CRAWL action fields
// relevant to a Go caller.
type StartCrawlRequest struct {
	URL             string
	OutDir          string
	MaxDepth        int
	Limit           int
	AllowSubdomains bool
	ContentTypes    []string
	RequestsPerSecond float64
	RespectRobots   bool
	UseSitemap      bool
}

// FetchResult is the payload of a single-page Fetch call — the derived
// fetch operation, equivalent to scrape_url with max_depth=0, limit=1.
type FetchResult struct {
	URL           string
	Path          string
	Title         string
	ContentLength int
	Markdown      string
}

// SearchHit is one result row of a WebSearch call.
type SearchHit struct {
	Rank    int
	Title   string
	URL     string
	Snippet string
}
