package crawler

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cyrup-ai/citescrape-go/internal/events"
	"github.com/cyrup-ai/citescrape-go/internal/metrics"
	"github.com/cyrup-ai/citescrape-go/internal/scraper"
)

// ErrNoPagesCrawled is returned by Run when every seed and discovered URL
// failed, per spec: "zero successful pages -> Failed(...)".
var ErrNoPagesCrawled = errors.New("crawler: no pages could be crawled")

type job struct {
	URL   string
	Depth int
}

// Scheduler runs a single bounded-concurrency BFS crawl.
type Scheduler struct {
	cfg       Config
	processor PageProcessor
	bus       *events.Bus
	auditor   *scraper.RobotsTxtAuditor
	reporter  ProgressReporter
	logger    *slog.Logger
	limiters  *hostLimiters

	seenMu sync.Mutex
	seen   map[string]struct{}

	processed atomic.Int64
	failed    atomic.Int64
	links     atomic.Int64
}

// New creates a Scheduler. auditor and reporter may be nil to disable
// robots.txt enforcement and progress reporting, respectively; bus may be
// nil to disable event publication.
func New(cfg Config, processor PageProcessor, bus *events.Bus, auditor *scraper.RobotsTxtAuditor, reporter ProgressReporter, logger *slog.Logger) *Scheduler {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:       cfg,
		processor: processor,
		bus:       bus,
		auditor:   auditor,
		reporter:  reporter,
		logger:    logger,
		limiters:  newHostLimiters(cfg.RequestsPerSecond, cfg.Jitter),
		seen:      make(map[string]struct{}),
	}
}

// Run crawls starting from seeds, blocking until the frontier drains, the
// configured Limit is reached, or ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, seeds []string) error {
	defer s.limiters.stop()

	start := time.Now()
	seedHost := firstHost(seeds)

	if s.bus != nil {
		s.bus.Publish(events.NewCrawlStarted(firstOrEmpty(seeds), "", s.cfg.MaxDepth))
	}

	queue := make(chan job, s.cfg.QueueSize)
	for _, seed := range seeds {
		if normalized, ok := inScope(seed, seedHost, s.cfg.AllowSubdomains); ok && s.markSeen(normalized) {
			queue <- job{URL: normalized, Depth: 0}
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var jobsWg sync.WaitGroup
	jobsWg.Add(len(queue))

	var workersWg sync.WaitGroup
	for i := 0; i < s.cfg.Concurrency; i++ {
		workersWg.Add(1)
		go func() {
			defer workersWg.Done()
			for {
				select {
				case <-runCtx.Done():
					return
				case j, ok := <-queue:
					if !ok {
						return
					}
					s.processJob(runCtx, j, seedHost, queue, &jobsWg, cancel)
					jobsWg.Done()
				}
			}
		}()
	}

	if s.cfg.UseSitemap && s.auditor != nil {
		jobsWg.Add(1)
		go func() {
			defer jobsWg.Done()
			s.seedFromSitemap(runCtx, seeds, seedHost, queue, &jobsWg)
		}()
	}

	done := make(chan struct{})
	go func() {
		jobsWg.Wait()
		close(done)
	}()

	select {
	case <-runCtx.Done():
	case <-done:
	}
	cancel()
	workersWg.Wait()

	s.emitSnapshot(start)

	if s.bus != nil {
		s.bus.Publish(events.NewCrawlCompleted(int(s.processed.Load()), 0, time.Since(start)))
	}

	if s.processed.Load() == 0 {
		return ErrNoPagesCrawled
	}
	if runCtx.Err() != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func (s *Scheduler) processJob(ctx context.Context, j job, seedHost string, queue chan job, wg *sync.WaitGroup, cancel context.CancelFunc) {
	if s.cfg.RespectRobots && s.auditor != nil {
		allowed, err := s.auditor.IsAllowed(ctx, j.URL, s.cfg.UserAgent)
		if err != nil {
			s.logger.Warn("robots.txt check failed, failing open", "url", j.URL, "err", err)
		} else if !allowed {
			s.logger.Debug("blocked by robots.txt", "url", j.URL)
			return
		}
	}

	if err := s.limiters.wait(ctx, j.URL); err != nil {
		return
	}

	domain := hostOf(j.URL)
	pageStart := time.Now()
	result, err := s.processor.Process(ctx, j.URL, j.Depth)
	if err != nil {
		s.failed.Add(1)
		s.logger.Error("page processing failed", "url", j.URL, "depth", j.Depth, "err", err)
		metrics.RecordPageCrawled(domain, "failed", time.Since(pageStart))
		s.maybeProgress()
		return
	}
	metrics.RecordPageCrawled(domain, "success", time.Since(pageStart))

	n := s.processed.Add(1)

	if s.bus != nil {
		s.bus.Publish(events.NewPageCrawled(j.URL, result.Path, j.Depth, result.Metadata))
	}

	if n%int64(s.cfg.ProgressEvery) == 0 {
		s.maybeProgress()
	}

	if s.cfg.Limit > 0 && n >= int64(s.cfg.Limit) {
		cancel()
		return
	}

	if j.Depth >= s.cfg.MaxDepth {
		return
	}
	if !contentTypeAllowed(s.cfg.ContentTypes, result.ContentType) {
		return
	}

	for _, link := range result.Links {
		normalized, ok := inScope(link, seedHost, s.cfg.AllowSubdomains)
		if !ok || !s.markSeen(normalized) {
			continue
		}
		s.links.Add(1)
		wg.Add(1)
		select {
		case queue <- job{URL: normalized, Depth: j.Depth + 1}:
		case <-ctx.Done():
			wg.Done()
		}
	}
}

// seedFromSitemap discovers sitemap URLs for each seed's host (from robots.txt
// where present, else the conventional /sitemap.xml path), fetches and parses
// them, and enqueues any in-scope, not-yet-seen URLs as depth-0 jobs. It runs
// concurrently with the worker pool, so every enqueue follows the same
// wg.Add-before-send/ctx.Done-fallback pattern processJob uses for discovered
// links.
func (s *Scheduler) seedFromSitemap(ctx context.Context, seeds []string, seedHost string, queue chan job, wg *sync.WaitGroup) {
	fetcher := s.auditor.Fetcher()
	if fetcher == nil {
		return
	}
	sitemapFetcher := scraper.NewSitemapFetcher(fetcher, s.logger)

	seenHost := make(map[string]struct{})
	for _, seed := range seeds {
		u, err := url.Parse(seed)
		if err != nil || u.Host == "" {
			continue
		}
		if _, ok := seenHost[u.Host]; ok {
			continue
		}
		seenHost[u.Host] = struct{}{}

		hostRoot := u.Scheme + "://" + u.Host
		sitemapURLs, err := s.auditor.SitemapExtracts(ctx, hostRoot)
		if err != nil || len(sitemapURLs) == 0 {
			sitemapURLs = []string{hostRoot + "/sitemap.xml"}
		}

		for _, sitemapURL := range sitemapURLs {
			urls, err := sitemapFetcher.FetchSitemap(ctx, sitemapURL)
			if err != nil {
				s.logger.Debug("sitemap fetch failed", "sitemap", sitemapURL, "err", err)
				continue
			}
			for _, link := range urls {
				normalized, ok := inScope(link, seedHost, s.cfg.AllowSubdomains)
				if !ok || !s.markSeen(normalized) {
					continue
				}
				wg.Add(1)
				select {
				case queue <- job{URL: normalized, Depth: 0}:
				case <-ctx.Done():
					wg.Done()
				}
			}
		}
	}
}

func (s *Scheduler) maybeProgress() {
	if s.reporter == nil {
		return
	}
	s.reporter.ReportProgress(Snapshot{
		PagesProcessed:  int(s.processed.Load()),
		PagesFailed:     int(s.failed.Load()),
		LinksDiscovered: int(s.links.Load()),
	})
}

func (s *Scheduler) emitSnapshot(start time.Time) {
	if s.reporter == nil {
		return
	}
	s.reporter.ReportProgress(Snapshot{
		PagesProcessed:  int(s.processed.Load()),
		PagesFailed:     int(s.failed.Load()),
		LinksDiscovered: int(s.links.Load()),
		Elapsed:         time.Since(start),
	})
}

func (s *Scheduler) markSeen(normalized string) bool {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	if _, ok := s.seen[normalized]; ok {
		return false
	}
	s.seen[normalized] = struct{}{}
	return true
}

func firstHost(seeds []string) string {
	for _, seed := range seeds {
		if u, err := url.Parse(seed); err == nil && u.Hostname() != "" {
			return u.Hostname()
		}
	}
	return ""
}

func firstOrEmpty(seeds []string) string {
	if len(seeds) == 0 {
		return ""
	}
	return seeds[0]
}
