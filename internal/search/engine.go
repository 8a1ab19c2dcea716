package search

import (
	"context"
	"fmt"
	"runtime"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/cyrup-ai/citescrape-go/internal/metrics"
)

// Reindex walks root for saved pages and commits them to the index in
// batches, honoring cfg's batch size/worker/error limits and cancel. It
// reports progress through the returned *progressTracker as it runs, and
// stops early once cfg.MaxErrors failures have accumulated — mirroring the
// original's early-termination-on-error-budget behavior.
func (i *Index) Reindex(ctx context.Context, root, crawlID string, cfg BatchConfig, cancel *CancellationHandle) (*progressTracker, error) {
	cfg.applyDefaults(runtime.NumCPU())
	tracker := newProgressTracker()

	files, err := Discover(root)
	if err != nil {
		return tracker, fmt.Errorf("search: discover %s: %w", root, err)
	}
	tracker.addDiscovered(len(files))
	tracker.markDiscoveryComplete()
	tracker.setPhase(PhaseIndexing)

	for start := 0; start < len(files); start += cfg.BatchSize {
		if ctx.Err() != nil {
			return tracker, ctx.Err()
		}
		if cancel != nil && cancel.IsCancelled() {
			return tracker, nil
		}

		end := start + cfg.BatchSize
		if end > len(files) {
			end = len(files)
		}
		batch := files[start:end]

		docs, errs := prepareBatch(batch, "", crawlID, cfg.Limits, cfg.MaxWorkers)
		tracker.addErrors(errs)
		for range errs {
			metrics.RecordIndexDocument("failed")
		}

		if len(batch) > 0 {
			tracker.setCurrentFile(batch[len(batch)-1].AbsPath)
		}

		if len(docs) > 0 {
			tracker.setPhase(PhaseCommitting)
			if err := i.commitDocuments(docs); err != nil {
				tracker.addErrors([]ErrorEntry{{File: "batch-commit", Message: err.Error()}})
				metrics.RecordIndexDocument("failed")
			} else {
				for range docs {
					metrics.RecordIndexDocument("indexed")
				}
			}
			tracker.addProcessed(len(docs))
			tracker.setPhase(PhaseIndexing)
		}

		if tracker.failed.Load() >= int64(cfg.MaxErrors) {
			break
		}
	}

	tracker.setPhase(PhaseComplete)
	return tracker, nil
}

// commitDocuments writes a prepared batch to bleve in one Batch call. bleve
// commits a Batch atomically and is safe to call sequentially across
// goroutine-prepared batches, which is the "sequential commit" half of the
// original's parallel-prepare/sequential-commit split.
func (i *Index) commitDocuments(docs []*Document) error {
	b := i.idx.NewBatch()
	for _, d := range docs {
		if err := b.Index(docID(d.URL), d); err != nil {
			return fmt.Errorf("search: batch index %s: %w", d.URL, err)
		}
	}
	return i.idx.Batch(b)
}

// Hit is one search result: the indexed document plus its relevance score.
type Hit struct {
	Document
	Score float64
}

// Search runs a full-text query over title and plain_content, optionally
// filtered to a domain and/or crawl_id, and returns relevance-ordered hits.
func (i *Index) Search(ctx context.Context, q string, domain, crawlID string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}

	textQuery := bleve.NewMatchQuery(q)
	textQuery.SetField("plain_content")
	titleQuery := bleve.NewMatchQuery(q)
	titleQuery.SetField("title")
	titleQuery.SetBoost(2.0)

	disjunction := bleve.NewDisjunctionQuery(textQuery, titleQuery)

	var finalQuery query.Query = disjunction
	var filters []query.Query
	filters = append(filters, disjunction)
	if domain != "" {
		dq := bleve.NewTermQuery(domain)
		dq.SetField("domain")
		filters = append(filters, dq)
	}
	if crawlID != "" {
		cq := bleve.NewTermQuery(crawlID)
		cq.SetField("crawl_id")
		filters = append(filters, cq)
	}
	if len(filters) > 1 {
		finalQuery = bleve.NewConjunctionQuery(filters...)
	}

	req := bleve.NewSearchRequestOptions(finalQuery, limit, 0, false)
	req.Fields = []string{"url", "path", "title", "snippet", "domain", "crawl_id", "crawl_date", "file_size", "word_count"}

	res, err := i.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: query %q: %w", q, err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{
			Document: Document{
				URL:     fieldString(h.Fields, "url"),
				Path:    fieldString(h.Fields, "path"),
				Title:   fieldString(h.Fields, "title"),
				Snippet: fieldString(h.Fields, "snippet"),
				Domain:  fieldString(h.Fields, "domain"),
				CrawlID: fieldString(h.Fields, "crawl_id"),
			},
			Score: h.Score,
		})
	}
	return hits, nil
}

func fieldString(fields map[string]interface{}, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
