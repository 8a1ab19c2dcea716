package pagesave

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"

	"github.com/cyrup-ai/citescrape-go/internal/browser"
	"github.com/cyrup-ai/citescrape-go/internal/crawler"
	"github.com/cyrup-ai/citescrape-go/internal/events"
	"github.com/cyrup-ai/citescrape-go/internal/inliner"
	"github.com/cyrup-ai/citescrape-go/internal/linkindex"
	"github.com/cyrup-ai/citescrape-go/internal/markdown"
	"github.com/cyrup-ai/citescrape-go/internal/metrics"
	"github.com/cyrup-ai/citescrape-go/internal/storage"
	"github.com/cyrup-ai/citescrape-go/pkg/ratelimit"
)

// Pipeline orchestrates one page at a time: navigate -> inline -> convert ->
// persist -> register -> rewrite inbound links -> index -> audit. It
// implements crawler.PageProcessor. It publishes no events itself; Process
// does not read the bus field.
type Pipeline struct {
	cfg      Config
	browser  *browser.Manager
	index    *linkindex.Index
	rewriter LinkRewriter
	search   SearchIndexer
	bus      *events.Bus
	audit    storage.Backend
	limiter  *ratelimit.Limiter
	logger   *slog.Logger
}

// New builds a Pipeline. rewriter, search, audit, and limiter may be nil to
// disable the corresponding step. bus may be nil; it is stored but unused.
func New(cfg Config, mgr *browser.Manager, index *linkindex.Index, rewriter LinkRewriter, search SearchIndexer, bus *events.Bus, audit storage.Backend, limiter *ratelimit.Limiter, logger *slog.Logger) *Pipeline {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:      cfg,
		browser:  mgr,
		index:    index,
		rewriter: rewriter,
		search:   search,
		bus:      bus,
		audit:    audit,
		limiter:  limiter,
		logger:   logger,
	}
}

var _ crawler.PageProcessor = (*Pipeline)(nil)

// Process implements crawler.PageProcessor for one target URL.
func (p *Pipeline) Process(ctx context.Context, target string, depth int) (crawler.PageResult, error) {
	start := time.Now()

	rawHTML, err := p.navigate(ctx, target)
	if err != nil {
		return crawler.PageResult{}, fmt.Errorf("pagesave: navigate %s: %w", target, err)
	}

	base, err := url.Parse(target)
	if err != nil {
		return crawler.PageResult{}, fmt.Errorf("pagesave: parse target %s: %w", target, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return crawler.PageResult{}, fmt.Errorf("pagesave: parse dom %s: %w", target, err)
	}
	outbound := extractLinks(doc, base)

	inlineRes, err := inliner.Inline(ctx, rawHTML, target, p.cfg.InlinerConfig, p.limiter)
	if err != nil {
		return crawler.PageResult{}, fmt.Errorf("pagesave: inline %s: %w", target, err)
	}
	if inlineRes.HasFailures() {
		p.logger.Warn("some resources failed to inline", "url", target, "failures", len(inlineRes.Failures), "rate", inlineRes.FailureRate())
	}

	conv, err := markdown.Convert(inlineRes.HTML, p.cfg.MarkdownMode)
	if err != nil {
		return crawler.PageResult{}, fmt.Errorf("pagesave: convert %s: %w", target, err)
	}

	localPath, compressedSize, err := p.persist(target, conv.Markdown)
	if err != nil {
		return crawler.PageResult{}, fmt.Errorf("pagesave: persist %s: %w", target, err)
	}

	if p.index != nil {
		if err := p.index.RegisterPage(ctx, target, localPath, outbound); err != nil {
			p.logger.Error("failed to register page in link index", "url", target, "err", err)
		}
	}

	if p.rewriter != nil {
		if err := p.rewriter.RewriteInbound(ctx, target, localPath); err != nil {
			p.logger.Error("failed to rewrite inbound links", "url", target, "err", err)
		}
		// target's own outbound links may point at pages saved earlier; those
		// were skipped when RewriteInbound ran for them (this page didn't exist
		// yet to rewrite). Re-running RewriteInbound for each already-saved
		// outbound target now picks up this page as a fresh inbound source and
		// fixes target's own file, giving scenario 3's cross-link rewrite both
		// directions regardless of crawl order.
		if p.index != nil {
			for _, link := range outbound {
				linkPath, ok, err := p.index.GetLocalPath(ctx, link)
				if err != nil || !ok || linkPath == localPath {
					continue
				}
				if err := p.rewriter.RewriteInbound(ctx, link, linkPath); err != nil {
					p.logger.Error("failed to rewrite outbound link target", "url", target, "link", link, "err", err)
				}
			}
		}
	}

	if p.search != nil {
		if err := p.search.IndexPage(ctx, target, localPath, conv.Markdown); err != nil {
			p.logger.Error("failed to index page", "url", target, "err", err)
		}
	}

	if p.audit != nil {
		result := &storage.ScrapeResult{
			ID:         target,
			URL:        target,
			Method:     "GET",
			StatusCode: 200,
			Body:       []byte(rawHTML),
			Duration:   time.Since(start),
			CreatedAt:  start,
		}
		if err := p.audit.Save(ctx, result); err != nil {
			p.logger.Error("failed to write audit record", "url", target, "err", err)
		}
		metrics.RecordScrape(base.Hostname(), result)
	}

	meta := events.PageCrawlMetadata{
		RawSize:        int64(len(rawHTML)),
		CompressedSize: compressedSize,
		LinkCount:      len(outbound),
		ProcessingTime: time.Since(start),
	}

	p.logger.Info("page saved", "url", target, "path", localPath,
		"raw", humanize.Bytes(uint64(meta.RawSize)),
		"compressed", humanize.Bytes(uint64(meta.CompressedSize)),
		"links", meta.LinkCount, "took", meta.ProcessingTime)

	return crawler.PageResult{
		Path:        localPath,
		ContentType: "text/html",
		Links:       outbound,
		Metadata:    meta,
	}, nil
}

// navigate loads target in a managed browser tab, waits for the DOM to
// settle, and returns the rendered outer HTML.
func (p *Pipeline) navigate(ctx context.Context, target string) (string, error) {
	browserCtx, err := p.browser.Obtain(ctx)
	if err != nil {
		return "", err
	}

	navCtx, cancel := context.WithTimeout(browserCtx, p.cfg.NavTimeout)
	defer cancel()

	var html string
	err = chromedp.Run(navCtx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}

// persist writes markdown to {out_dir}/{host}/{url_path}/index.md(.gz),
// lazily creating a per-host .gitignore. It returns the written path and,
// when gzip is enabled, the compressed size.
func (p *Pipeline) persist(target, content string) (string, int64, error) {
	localPath, err := localPathFor(p.cfg.OutDir, target, p.cfg.Gzip)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return "", 0, err
	}

	if hostDir, err := hostDirFor(p.cfg.OutDir, target); err == nil {
		if err := ensureGitignore(hostDir); err != nil {
			p.logger.Debug("failed to write .gitignore", "dir", hostDir, "err", err)
		}
	}

	if !p.cfg.Gzip {
		if err := os.WriteFile(localPath, []byte(content), 0o644); err != nil {
			return "", 0, err
		}
		return localPath, 0, nil
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write([]byte(content)); err != nil {
		return "", 0, err
	}
	if err := gw.Close(); err != nil {
		return "", 0, err
	}
	if err := os.WriteFile(localPath, buf.Bytes(), 0o644); err != nil {
		return "", 0, err
	}
	return localPath, int64(buf.Len()), nil
}
