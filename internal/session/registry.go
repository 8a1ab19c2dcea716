package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cyrup-ai/citescrape-go/internal/browser"
	"github.com/cyrup-ai/citescrape-go/internal/crawler"
	"github.com/cyrup-ai/citescrape-go/internal/events"
	"github.com/cyrup-ai/citescrape-go/internal/fingerprint"
	"github.com/cyrup-ai/citescrape-go/internal/linkindex"
	"github.com/cyrup-ai/citescrape-go/internal/linkrewriter"
	"github.com/cyrup-ai/citescrape-go/internal/pagesave"
	"github.com/cyrup-ai/citescrape-go/internal/scraper"
	"github.com/cyrup-ai/citescrape-go/internal/search"
	"github.com/cyrup-ai/citescrape-go/internal/storage"
	"github.com/cyrup-ai/citescrape-go/pkg/proxy"
	"github.com/cyrup-ai/citescrape-go/pkg/ratelimit"
)

// proxyListEnvVar names an optional newline-delimited proxy URL file, mirroring
// internal/browser's CITESCRAPE_CHROME_PATH override pattern: unset means the
// default fetcher makes requests directly, no proxy pool involved.
const proxyListEnvVar = "CITESCRAPE_PROXY_FILE"

// Deps are the shared, long-lived components every crawl launched through
// the registry is wired against. Sessions differ by seed URL/out-dir/crawl
// config only; the browser pool, link index, search index and event bus are
// shared the way the teacher shares its proxy/user-agent pools across jobs.
type Deps struct {
	Browser   *browser.Manager
	LinkIndex *linkindex.Index
	Search    *search.Index
	Bus       *events.Bus
	Auditor   *scraper.RobotsTxtAuditor
	Audit     storage.Backend
	Limiter   *ratelimit.Limiter
	Logger    *slog.Logger
}

func (d *Deps) applyDefaults() {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Auditor == nil {
		fetchCfg := scraper.FetchConfig{Fingerprint: fingerprint.ProfileChrome}
		if path := os.Getenv(proxyListEnvVar); path != "" {
			pool := proxy.NewPool(proxy.Config{})
			if err := pool.LoadFile(path); err != nil {
				d.Logger.Warn("failed to load proxy list, fetching without a proxy pool", "path", path, "err", err)
			} else {
				fetchCfg.ProxyPool = pool
			}
		}
		fetcher, err := scraper.NewFetcher(fetchCfg)
		if err != nil {
			d.Logger.Warn("failed to build default robots.txt fetcher, crawls will run with robots.txt enforcement disabled", "err", err)
		} else {
			d.Auditor = scraper.NewRobotsTxtAuditor(fetcher, d.Logger)
		}
	}
}

type entry struct {
	session Session
	cancel  context.CancelFunc
}

// Registry is the in-memory control-plane view over running and finished
// crawls: Start/GetStatus/List/Cancel/SubscribeEvents/Export, plus a
// background TTL sweeper for terminal sessions. Disconnecting (sweeping)
// removes only the in-memory record; on-disk outputs and indices are never
// purged.
type Registry struct {
	deps Deps
	ttl  time.Duration

	mu       sync.Mutex
	sessions map[string]*entry

	stop chan struct{}
	done chan struct{}
}

// NewRegistry creates a Registry and starts its TTL sweeper. ttl <= 0
// disables sweeping (terminal sessions are kept until the process exits).
func NewRegistry(deps Deps, ttl time.Duration) *Registry {
	deps.applyDefaults()
	r := &Registry{
		deps:     deps,
		ttl:      ttl,
		sessions: make(map[string]*entry),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go r.sweepLoop()
	return r
}

// Stop halts the TTL sweeper. The registry remains usable afterward; only
// automatic cleanup of terminal sessions stops.
func (r *Registry) Stop() {
	close(r.stop)
	<-r.done
}

// StartCrawl launches a new crawl under a fresh session ID and returns
// immediately; the crawl proceeds on its own goroutine and updates the
// session's status/progress as it runs. Satisfies the scrape_url contract's
// CRAWL action.
func (r *Registry) StartCrawl(ctx context.Context, req StartCrawlRequest) (string, error) {
	sessionID := uuid.NewString()
	crawlID := uuid.NewString()

	pipeline := pagesave.New(
		pagesave.Config{OutDir: req.OutDir},
		r.deps.Browser,
		r.deps.LinkIndex,
		linkrewriter.New(r.deps.LinkIndex, r.deps.Bus, r.deps.Logger),
		r.deps.Search,
		r.deps.Bus,
		r.deps.Audit,
		r.deps.Limiter,
		r.deps.Logger,
	)

	reporter := &sessionReporter{registry: r, sessionID: sessionID}

	sched := crawler.New(crawler.Config{
		MaxDepth:          req.MaxDepth,
		Limit:             req.Limit,
		AllowSubdomains:   req.AllowSubdomains,
		ContentTypes:      req.ContentTypes,
		RespectRobots:     req.RespectRobots,
		RequestsPerSecond: req.RequestsPerSecond,
		UseSitemap:        req.UseSitemap,
	}, pipeline, r.deps.Bus, r.deps.Auditor, reporter, r.deps.Logger)

	runCtx, cancel := context.WithCancel(context.Background())

	r.mu.Lock()
	r.sessions[sessionID] = &entry{
		session: Session{
			SessionID: sessionID,
			CrawlID:   crawlID,
			SeedURL:   req.URL,
			OutDir:    req.OutDir,
			Status:    StatusRunning,
			StartedAt: time.Now(),
		},
		cancel: cancel,
	}
	r.mu.Unlock()

	go func() {
		err := sched.Run(runCtx, []string{req.URL})
		r.finish(sessionID, err)
	}()

	return sessionID, nil
}

func (r *Registry) finish(sessionID string, runErr error) {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	e.session.FinishedAt = &now
	switch {
	case runErr == nil:
		e.session.Status = StatusCompleted
	case runErr == context.Canceled:
		e.session.Status = StatusCancelled
	case errors.Is(runErr, crawler.ErrNoPagesCrawled):
		e.session.Status = StatusFailed
		e.session.Error = "No pages could be crawled"
	default:
		e.session.Status = StatusFailed
		e.session.Error = runErr.Error()
	}
}

// GetStatus returns a snapshot of a session's current state.
func (r *Registry) GetStatus(sessionID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	return e.session, true
}

// List returns a snapshot of every tracked session.
func (r *Registry) List() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Session, 0, len(r.sessions))
	for _, e := range r.sessions {
		out = append(out, e.session)
	}
	return out
}

// Cancel requests that a running session's crawl stop. Returns an error if
// the session is unknown; cancelling an already-terminal session is a no-op.
func (r *Registry) Cancel(sessionID string) error {
	r.mu.Lock()
	e, ok := r.sessions[sessionID]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("session: unknown session %s", sessionID)
	}
	e.cancel()
	return nil
}

// SubscribeEvents hands back a receiver over the shared event bus, scoped to
// events published from this point forward.
func (r *Registry) SubscribeEvents() *events.Receiver {
	return r.deps.Bus.Subscribe()
}

func (r *Registry) updateProgress(sessionID string, snap crawler.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sessionID]; ok {
		e.session.Progress = snap
	}
}

func (r *Registry) sweepLoop() {
	defer close(r.done)
	if r.ttl <= 0 {
		<-r.stop
		return
	}
	ticker := time.NewTicker(r.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Registry) sweep() {
	cutoff := time.Now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.sessions {
		if e.session.FinishedAt != nil && e.session.FinishedAt.Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}

// sessionReporter adapts a Registry to crawler.ProgressReporter for one
// session, decoupling the scheduler from the registry's own locking.
type sessionReporter struct {
	registry  *Registry
	sessionID string
}

func (s *sessionReporter) ReportProgress(snap crawler.Snapshot) {
	s.registry.updateProgress(s.sessionID, snap)
}
