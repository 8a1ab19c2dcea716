// Package search implements the full-text index: a bleve-backed writer over
// saved Markdown documents, a depth-capped discovery walk that reconstructs
// URLs from {out_dir}/{host}/{path}/index.md(.gz) layouts, size-sorted
// batching with gzip-bomb/UTF-8 safety checks, and a query surface over
// title/plain_content with domain/crawl_id filters.
package search

import (
	"sync/atomic"
	"time"
)

// IndexingPhase tags where a crawl's indexing run currently is.
type IndexingPhase string

const (
	PhaseDiscovery  IndexingPhase = "discovery"
	PhaseIndexing   IndexingPhase = "indexing"
	PhaseCommitting IndexingPhase = "committing"
	PhaseComplete   IndexingPhase = "complete"
)

// ErrorEntry is one (file, message) pair collected during indexing.
type ErrorEntry struct {
	File    string
	Message string
}

// IndexProgress is a point-in-time snapshot of an indexing run.
type IndexProgress struct {
	Phase              IndexingPhase
	Processed          int
	Total              int
	Failed             int
	CurrentFile        string
	FilesDiscovered    int
	DiscoveryComplete  bool
	Errors             []ErrorEntry
	StartedAt          time.Time
	EstimatedCompletion *time.Time
}

// Document is one indexed page, matching the schema in §3 of the spec.
type Document struct {
	URL           string    `json:"url"`
	Path          string    `json:"path"`
	Title         string    `json:"title"`
	RawMarkdown   string    `json:"raw_markdown"`
	PlainContent  string    `json:"plain_content"`
	Snippet       string    `json:"snippet"`
	CrawlDate     time.Time `json:"crawl_date"`
	FileSize      int64     `json:"file_size"`
	WordCount     int       `json:"word_count"`
	Domain        string    `json:"domain"`
	CrawlID       string    `json:"crawl_id"`
}

// IndexingLimits bounds file sizes and compression ratios to reject
// oversized or zip-bomb-shaped inputs before they reach the index.
type IndexingLimits struct {
	MaxCompressedBytes   int64
	MaxDecompressedBytes int64
	MaxCompressionRatio  float64
}

// DefaultLimits mirrors the original's 20MiB compressed / 100MiB
// decompressed / 20:1 ratio defaults.
func DefaultLimits() IndexingLimits {
	return IndexingLimits{
		MaxCompressedBytes:   20 * 1024 * 1024,
		MaxDecompressedBytes: 100 * 1024 * 1024,
		MaxCompressionRatio:  20.0,
	}
}

// BatchConfig controls the batching/concurrency/error-tolerance of an
// indexing run.
type BatchConfig struct {
	BatchSize  int
	MaxWorkers int
	MaxErrors  int
	Limits     IndexingLimits
}

func (c *BatchConfig) applyDefaults(cpus int) {
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = cpus
	}
	if c.MaxErrors <= 0 {
		c.MaxErrors = 1000
	}
	if c.Limits == (IndexingLimits{}) {
		c.Limits = DefaultLimits()
	}
}

// CancellationHandle lets a caller abort a long-running indexing pass.
// Reindex checks it before each batch is prepared and committed.
type CancellationHandle struct {
	cancelled atomic.Bool
}

// NewCancellationHandle returns a fresh, uncancelled handle.
func NewCancellationHandle() *CancellationHandle { return &CancellationHandle{} }

// Cancel marks the handle cancelled. Safe to call more than once.
func (h *CancellationHandle) Cancel() { h.cancelled.Store(true) }

// IsCancelled reports whether Cancel has been called.
func (h *CancellationHandle) IsCancelled() bool { return h.cancelled.Load() }
