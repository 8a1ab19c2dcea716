package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/cyrup-ai/citescrape-go/internal/events"
)

// fetchTimeout bounds how long Fetch waits for the underlying single-page
// crawl to either finish or fail before giving up.
const fetchTimeout = 60 * time.Second

// Fetch runs the derived fetch operation: a crawl of exactly one page
// (max_depth=0, limit=1) that blocks until the page is saved (or the crawl
// fails) and returns its Markdown plus metadata.
func (r *Registry) Fetch(ctx context.Context, url, outDir string) (FetchResult, error) {
	recv := r.SubscribeEvents()
	defer recv.Close()

	sessionID, err := r.StartCrawl(ctx, StartCrawlRequest{
		URL:      url,
		OutDir:   outDir,
		MaxDepth: 0,
		Limit:    1,
	})
	if err != nil {
		return FetchResult{}, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	var path string
	for {
		ev, err := recv.Recv(waitCtx)
		if err != nil {
			return FetchResult{}, fmt.Errorf("session: fetch %s: %w", url, err)
		}
		if ev.Kind == events.KindPageCrawled && ev.PageCrawled != nil && ev.PageCrawled.URL == url {
			path = ev.PageCrawled.Path
			break
		}
		if ev.Kind == events.KindCrawlCompleted {
			if s, ok := r.GetStatus(sessionID); ok && s.Status == StatusFailed {
				return FetchResult{}, fmt.Errorf("session: fetch %s: %s", url, s.Error)
			}
			break
		}
	}
	if path == "" {
		return FetchResult{}, fmt.Errorf("session: fetch %s: page was not saved", url)
	}

	md, err := readMarkdown(path)
	if err != nil {
		return FetchResult{}, fmt.Errorf("session: read saved page %s: %w", path, err)
	}

	return FetchResult{
		URL:           url,
		Path:          path,
		Title:         firstHeading(md),
		ContentLength: len(md),
		Markdown:      md,
	}, nil
}

func readMarkdown(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return "", err
		}
		defer zr.Close()
		decompressed, err := io.ReadAll(zr)
		if err != nil {
			return "", err
		}
		return string(decompressed), nil
	}
	return string(raw), nil
}

func firstHeading(md string) string {
	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
		}
	}
	return ""
}
