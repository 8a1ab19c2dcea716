package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/cyrup-ai/citescrape-go/internal/markdown"
	"github.com/cyrup-ai/citescrape-go/internal/metrics"
)

// Index wraps a bleve index with the document schema and operations
// citescrape needs: per-page incremental indexing as pages are saved, and a
// bulk directory reindex for backfills or recovery.
//
// bleve's Index() and Batch() calls are documented safe for concurrent use,
// so unlike the original's explicit PrepareCommit/CommitFuture/
// WaitMergingThreads phases (a Tantivy-specific multi-step commit API with
// no bleve equivalent), a single Index or Batch call here already commits.
// That simplification is recorded in DESIGN.md.
type Index struct {
	idx    bleve.Index
	logger *slog.Logger
}

// Open opens the bleve index at path, creating it with the citescrape
// document mapping if it does not already exist.
func Open(path string, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	idx, err := bleve.Open(path)
	if err == nil {
		return &Index{idx: idx, logger: logger}, nil
	}
	idx, err = bleve.New(path, buildMapping())
	if err != nil {
		return nil, fmt.Errorf("search: open index: %w", err)
	}
	return &Index{idx: idx, logger: logger}, nil
}

// OpenMemory opens an in-memory index, useful for tests and ephemeral runs.
func OpenMemory(logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("search: open memory index: %w", err)
	}
	return &Index{idx: idx, logger: logger}, nil
}

// Close releases the underlying index resources.
func (i *Index) Close() error { return i.idx.Close() }

// buildMapping defines the bleve schema for Document: full-text analysis on
// title and plain_content, keyword (exact-match) fields for domain and
// crawl_id so they can be used as filters, and stored-but-unanalyzed fields
// for everything else a hit needs to render.
func buildMapping() mapping.IndexMapping {
	textField := bleve.NewTextFieldMapping()
	textField.Store = true
	textField.IncludeInAll = true

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = "keyword"
	keywordField.Store = true
	keywordField.IncludeInAll = false

	storedOnly := bleve.NewTextFieldMapping()
	storedOnly.Index = false
	storedOnly.Store = true
	storedOnly.IncludeInAll = false

	dateField := bleve.NewDateTimeFieldMapping()
	numField := bleve.NewNumericFieldMapping()
	numField.IncludeInAll = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("title", textField)
	doc.AddFieldMappingsAt("plain_content", textField)
	doc.AddFieldMappingsAt("url", keywordField)
	doc.AddFieldMappingsAt("path", storedOnly)
	doc.AddFieldMappingsAt("snippet", storedOnly)
	doc.AddFieldMappingsAt("raw_markdown", storedOnly)
	doc.AddFieldMappingsAt("domain", keywordField)
	doc.AddFieldMappingsAt("crawl_id", keywordField)
	doc.AddFieldMappingsAt("crawl_date", dateField)
	doc.AddFieldMappingsAt("file_size", numField)
	doc.AddFieldMappingsAt("word_count", numField)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	return im
}

// docID derives a stable identifier for a URL so re-indexing the same page
// overwrites its previous document instead of duplicating it.
func docID(pageURL string) string {
	sum := sha256.Sum256([]byte(pageURL))
	return hex.EncodeToString(sum[:16])
}

// IndexPage indexes a single freshly saved page. Satisfies
// internal/pagesave.SearchIndexer.
func (i *Index) IndexPage(ctx context.Context, target, localPath, md string) error {
	domain := ""
	if u, err := url.Parse(target); err == nil {
		domain = u.Hostname()
	}

	plain := markdown.PlainText(md)
	doc := &Document{
		URL:          target,
		Path:         localPath,
		Title:        extractTitle(md, target),
		RawMarkdown:  md,
		PlainContent: plain,
		Snippet:      markdown.Snippet(plain, 280),
		CrawlDate:    time.Now(),
		FileSize:     int64(len(md)),
		WordCount:    len(strings.Fields(plain)),
		Domain:       domain,
	}
	if err := i.idx.Index(docID(target), doc); err != nil {
		metrics.RecordIndexDocument("failed")
		return fmt.Errorf("search: index page %s: %w", target, err)
	}
	metrics.RecordIndexDocument("indexed")
	return nil
}
