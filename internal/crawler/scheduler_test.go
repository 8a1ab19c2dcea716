package crawler

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"
)

// fakeProcessor simulates a tiny three-page site: root links to /page2,
// which links to /page3 (a dead end) and an out-of-scope host.
type fakeProcessor struct {
	host string

	mu       sync.Mutex
	visited  []string
	failURLs map[string]bool
}

func (f *fakeProcessor) Process(_ context.Context, target string, _ int) (PageResult, error) {
	f.mu.Lock()
	f.visited = append(f.visited, target)
	f.mu.Unlock()

	if f.failURLs[target] {
		return PageResult{}, fmt.Errorf("simulated failure for %s", target)
	}

	u, _ := url.Parse(target)
	switch u.Path {
	case "/", "":
		return PageResult{
			ContentType: "text/html",
			Links:       []string{f.host + "/page2", "https://other-site.example/ignored"},
		}, nil
	case "/page2":
		return PageResult{
			ContentType: "text/html",
			Links:       []string{f.host + "/page3"},
		}, nil
	default:
		return PageResult{ContentType: "text/html"}, nil
	}
}

func TestSchedulerCrawlsInScopeLinksOnly(t *testing.T) {
	proc := &fakeProcessor{host: "https://example.com"}

	cfg := Config{MaxDepth: 5, Concurrency: 2}
	sched := New(cfg, proc, nil, nil, nil, nil)

	err := sched.Run(context.Background(), []string{"https://example.com/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	proc.mu.Lock()
	defer proc.mu.Unlock()
	if len(proc.visited) != 3 {
		t.Fatalf("expected 3 in-scope pages visited, got %d: %v", len(proc.visited), proc.visited)
	}
	for _, v := range proc.visited {
		if u, _ := url.Parse(v); u.Hostname() != "example.com" {
			t.Fatalf("visited out-of-scope url %q", v)
		}
	}
}

func TestSchedulerReturnsErrNoPagesCrawledWhenEverythingFails(t *testing.T) {
	proc := &fakeProcessor{host: "https://example.com", failURLs: map[string]bool{"https://example.com/": true}}
	cfg := Config{MaxDepth: 1, Concurrency: 1}
	sched := New(cfg, proc, nil, nil, nil, nil)

	err := sched.Run(context.Background(), []string{"https://example.com/"})
	if err != ErrNoPagesCrawled {
		t.Fatalf("expected ErrNoPagesCrawled, got %v", err)
	}
}

func TestSchedulerRespectsLimit(t *testing.T) {
	proc := &fakeProcessor{host: "https://example.com"}
	cfg := Config{MaxDepth: 5, Concurrency: 1, Limit: 1}
	sched := New(cfg, proc, nil, nil, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := sched.Run(ctx, []string{"https://example.com/"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	proc.mu.Lock()
	defer proc.mu.Unlock()
	if len(proc.visited) > 2 {
		t.Fatalf("expected crawl to wind down near the limit, got %d visits", len(proc.visited))
	}
}

func TestSchedulerReportsProgress(t *testing.T) {
	proc := &fakeProcessor{host: "https://example.com"}
	cfg := Config{MaxDepth: 5, Concurrency: 1, ProgressEvery: 1}

	reporter := &recordingReporter{}
	sched := New(cfg, proc, nil, nil, reporter, nil)

	if err := sched.Run(context.Background(), []string{"https://example.com/"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	if len(reporter.snapshots) == 0 {
		t.Fatalf("expected at least one progress snapshot")
	}
	last := reporter.snapshots[len(reporter.snapshots)-1]
	if last.PagesProcessed != 3 {
		t.Fatalf("expected final snapshot to report 3 pages, got %d", last.PagesProcessed)
	}
}

type recordingReporter struct {
	mu        sync.Mutex
	snapshots []Snapshot
}

func (r *recordingReporter) ReportProgress(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}
