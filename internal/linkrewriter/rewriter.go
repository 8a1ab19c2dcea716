// Package linkrewriter fixes up inbound Markdown links once a page has been
// saved locally: every source page that linked to the target by its remote
// URL gets that link rewritten to a path relative to the source file.
package linkrewriter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/cyrup-ai/citescrape-go/internal/events"
	"github.com/cyrup-ai/citescrape-go/internal/linkindex"
)

// Rewriter rewrites inbound links for newly-saved pages. It implements
// pagesave.LinkRewriter.
type Rewriter struct {
	index  *linkindex.Index
	bus    *events.Bus
	logger *slog.Logger
}

// New creates a Rewriter. bus may be nil to disable LinkRewriteCompleted
// publication.
func New(index *linkindex.Index, bus *events.Bus, logger *slog.Logger) *Rewriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rewriter{index: index, bus: bus, logger: logger}
}

// RewriteInbound finds every page that links to target, rewrites target's
// remote URL to a path relative to each source file, and atomically
// rewrites the source on disk. Running it twice on an unchanged set of
// inbound links is a no-op the second time (idempotent), since the rewritten
// link no longer matches target's remote URL.
func (r *Rewriter) RewriteInbound(ctx context.Context, target, localPath string) error {
	inbound, err := r.index.GetInboundLinks(ctx, target)
	if err != nil {
		return fmt.Errorf("linkrewriter: get inbound links for %s: %w", target, err)
	}

	filesUpdated := 0
	linksReplaced := 0

	for _, link := range inbound {
		if link.SourcePath == "" {
			continue
		}
		n, err := rewriteFile(link.SourcePath, target, localPath)
		if err != nil {
			r.logger.Error("failed to rewrite inbound link", "source", link.SourceURL, "target", target, "err", err)
			continue
		}
		if n > 0 {
			filesUpdated++
			linksReplaced += n
		}
	}

	if r.bus != nil {
		r.bus.Publish(events.NewLinkRewriteCompleted(target, filesUpdated, linksReplaced))
	}

	return nil
}

// rewriteFile rewrites every Markdown link in sourcePath pointing at
// targetURL to a path relative to sourcePath's directory, writing the result
// via a temp-file-then-rename for atomicity. It returns the number of links
// replaced.
func rewriteFile(sourcePath, targetURL, targetLocalPath string) (int, error) {
	original, err := os.ReadFile(sourcePath)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", sourcePath, err)
	}

	rel, err := filepath.Rel(filepath.Dir(sourcePath), targetLocalPath)
	if err != nil {
		rel = targetLocalPath
	}
	rel = filepath.ToSlash(rel)

	rewritten, n := replaceMarkdownLinks(string(original), targetURL, rel)
	if n == 0 {
		return 0, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(sourcePath), ".rewrite-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(rewritten); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, sourcePath); err != nil {
		return 0, fmt.Errorf("rename temp file over %s: %w", sourcePath, err)
	}

	return n, nil
}

// replaceMarkdownLinks replaces every `(targetURL)` or `(targetURL "title")`
// occurrence — the syntax the Markdown converter (internal/markdown) emits
// for links and images — with `(relPath)`/`(relPath "title")`.
func replaceMarkdownLinks(content, targetURL, relPath string) (string, int) {
	pattern := regexp.MustCompile(`\(` + regexp.QuoteMeta(targetURL) + `(\s+"[^"]*")?\)`)

	count := 0
	rewritten := pattern.ReplaceAllStringFunc(content, func(match string) string {
		count++
		sub := pattern.FindStringSubmatch(match)
		title := ""
		if len(sub) > 1 {
			title = sub[1]
		}
		return "(" + relPath + title + ")"
	})
	return rewritten, count
}
