// Package pagesave implements the per-page pipeline: navigate the rendered
// DOM via the browser manager, inline its external resources, convert it to
// Markdown, persist it to disk, register it in the link index, trigger
// inbound link rewriting, and hand it to the search indexer.
package pagesave

import (
	"context"
	"time"

	"github.com/cyrup-ai/citescrape-go/internal/inliner"
	"github.com/cyrup-ai/citescrape-go/internal/markdown"
)

// Config controls output layout and the downstream component configs this
// pipeline drives.
type Config struct {
	OutDir        string
	Gzip          bool
	NavTimeout    time.Duration
	InlinerConfig inliner.Config
	MarkdownMode  markdown.TranslationMode
}

func (c *Config) applyDefaults() {
	if c.OutDir == "" {
		c.OutDir = "./citescrape-out"
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 45 * time.Second
	}
}

// LinkRewriter fixes up inbound links once a new page has been saved under
// localPath, publishing its own LinkRewriteCompleted event.
type LinkRewriter interface {
	RewriteInbound(ctx context.Context, target, localPath string) error
}

// SearchIndexer hands a saved page's Markdown to the full-text index.
type SearchIndexer interface {
	IndexPage(ctx context.Context, target, localPath, markdown string) error
}
