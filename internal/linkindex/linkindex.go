// Package linkindex maintains the persistent SQLite-backed mapping between crawled
// URLs and their local filesystem paths, plus the directed link-edge graph used for
// retroactive link rewriting.
package linkindex

import (
	"container/list"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cyrup-ai/citescrape-go/internal/imurl"
)

const schema = `
CREATE TABLE IF NOT EXISTS pages (
	url TEXT PRIMARY KEY,
	local_path TEXT NOT NULL,
	domain TEXT NOT NULL,
	saved_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pages_domain ON pages(domain);

CREATE TABLE IF NOT EXISTS links (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source_url TEXT NOT NULL,
	target_url TEXT NOT NULL,
	UNIQUE(source_url, target_url)
);
CREATE INDEX IF NOT EXISTS idx_links_source ON links(source_url);
CREATE INDEX IF NOT EXISTS idx_links_target ON links(target_url);
`

// Page is a row of the pages table.
type Page struct {
	URL       string
	LocalPath string
	Domain    string
	SavedAt   time.Time
}

// InboundLink describes an edge pointing at a target, joined with the source's
// known local path (if the source has been saved).
type InboundLink struct {
	SourceURL  string
	SourcePath string
}

// maxChunk bounds IN-clause size to stay comfortably under SQLite's default
// parameter limit.
const maxChunk = 500

// Index is the persistent link index: a SQLite-backed `pages`/`links` schema with
// a bounded connection pool, WAL journaling, and an LRU path-lookup cache.
type Index struct {
	db *sql.DB

	cacheMu sync.Mutex
	cache   map[string]*list.Element // url -> node in lru
	lru     *list.List               // front = most recently used
	cacheCap int
}

type lruEntry struct {
	url  string
	path string
}

// New opens (or creates) a link index database at dsn, applying WAL journaling, a
// 30s busy timeout, and a bounded connection pool.
func New(dsn string) (*Index, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("linkindex: open %s: %w", dsn, err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=30000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("linkindex: pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("linkindex: create schema: %w", err)
	}

	return &Index{
		db:       db,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
		cacheCap: 1000,
	}, nil
}

// Close releases the underlying database handle.
func (idx *Index) Close() error {
	return idx.db.Close()
}

func (idx *Index) cacheGet(url string) (string, bool) {
	idx.cacheMu.Lock()
	defer idx.cacheMu.Unlock()
	el, ok := idx.cache[url]
	if !ok {
		return "", false
	}
	idx.lru.MoveToFront(el)
	return el.Value.(*lruEntry).path, true
}

func (idx *Index) cachePut(url, path string) {
	idx.cacheMu.Lock()
	defer idx.cacheMu.Unlock()
	if el, ok := idx.cache[url]; ok {
		el.Value.(*lruEntry).path = path
		idx.lru.MoveToFront(el)
		return
	}
	el := idx.lru.PushFront(&lruEntry{url: url, path: path})
	idx.cache[url] = el
	for idx.lru.Len() > idx.cacheCap {
		oldest := idx.lru.Back()
		if oldest == nil {
			break
		}
		idx.lru.Remove(oldest)
		delete(idx.cache, oldest.Value.(*lruEntry).url)
	}
}

// GetLocalPath returns the saved local path for url, if any page is registered
// under its normalized form. The LRU cache is consulted before the database.
func (idx *Index) GetLocalPath(ctx context.Context, rawURL string) (string, bool, error) {
	norm, err := imurl.Normalize(rawURL)
	if err != nil {
		return "", false, fmt.Errorf("linkindex: normalize %q: %w", rawURL, err)
	}

	if path, ok := idx.cacheGet(norm); ok {
		return path, true, nil
	}

	var path string
	err = idx.db.QueryRowContext(ctx, `SELECT local_path FROM pages WHERE url = ?`, norm).Scan(&path)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("linkindex: get local path: %w", err)
	}

	idx.cachePut(norm, path)
	return path, true, nil
}

// GetInboundLinks returns every source page that links to target, joined with
// each source's known local path (sources with no saved page are omitted).
func (idx *Index) GetInboundLinks(ctx context.Context, target string) ([]InboundLink, error) {
	norm, err := imurl.Normalize(target)
	if err != nil {
		return nil, fmt.Errorf("linkindex: normalize %q: %w", target, err)
	}

	rows, err := idx.db.QueryContext(ctx, `
		SELECT links.source_url, pages.local_path
		FROM links
		JOIN pages ON pages.url = links.source_url
		WHERE links.target_url = ?
	`, norm)
	if err != nil {
		return nil, fmt.Errorf("linkindex: get inbound links: %w", err)
	}
	defer rows.Close()

	var out []InboundLink
	for rows.Next() {
		var l InboundLink
		if err := rows.Scan(&l.SourceURL, &l.SourcePath); err != nil {
			return nil, fmt.Errorf("linkindex: scan inbound link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetOutboundLinks returns the normalized targets that source links to.
func (idx *Index) GetOutboundLinks(ctx context.Context, source string) ([]string, error) {
	norm, err := imurl.Normalize(source)
	if err != nil {
		return nil, fmt.Errorf("linkindex: normalize %q: %w", source, err)
	}

	rows, err := idx.db.QueryContext(ctx, `SELECT target_url FROM links WHERE source_url = ?`, norm)
	if err != nil {
		return nil, fmt.Errorf("linkindex: get outbound links: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("linkindex: scan outbound link: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// RegisterPage atomically upserts the page row for url and replaces its outbound
// edge set with outbound. After commit, the set of edges with source_url = url
// equals exactly the supplied outbound targets.
func (idx *Index) RegisterPage(ctx context.Context, rawURL, localPath string, outbound []string) error {
	norm, err := imurl.Normalize(rawURL)
	if err != nil {
		return fmt.Errorf("linkindex: normalize %q: %w", rawURL, err)
	}

	domain := ""
	if parsed, perr := imurl.Parse(norm); perr == nil {
		domain = strings.ToLower(parsed.Host())
	}

	normOutbound := make([]string, 0, len(outbound))
	for _, t := range outbound {
		nt, nerr := imurl.Normalize(t)
		if nerr != nil {
			continue
		}
		normOutbound = append(normOutbound, nt)
	}

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("linkindex: begin register_page: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pages (url, local_path, domain, saved_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET local_path=excluded.local_path, domain=excluded.domain, saved_at=excluded.saved_at
	`, norm, localPath, domain, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("linkindex: upsert page: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM links WHERE source_url = ?`, norm); err != nil {
		return fmt.Errorf("linkindex: delete old edges: %w", err)
	}

	for _, target := range normOutbound {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO links (source_url, target_url) VALUES (?, ?)`, norm, target); err != nil {
			return fmt.Errorf("linkindex: insert edge: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("linkindex: commit register_page: %w", err)
	}

	idx.cachePut(norm, localPath)
	return nil
}

// FilterExisting returns the subset of urls (normalized) that already have a
// pages row, querying in chunks to stay under SQLite's IN-clause parameter limit.
func (idx *Index) FilterExisting(ctx context.Context, urls []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})

	normalized := make([]string, 0, len(urls))
	for _, u := range urls {
		n, err := imurl.Normalize(u)
		if err != nil {
			continue
		}
		normalized = append(normalized, n)
	}

	for start := 0; start < len(normalized); start += maxChunk {
		end := start + maxChunk
		if end > len(normalized) {
			end = len(normalized)
		}
		chunk := normalized[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		query := fmt.Sprintf(`SELECT url FROM pages WHERE url IN (%s)`, placeholders)

		args := make([]any, len(chunk))
		for i, c := range chunk {
			args[i] = c
		}

		rows, err := idx.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("linkindex: filter existing: %w", err)
		}
		for rows.Next() {
			var u string
			if err := rows.Scan(&u); err != nil {
				rows.Close()
				return nil, fmt.Errorf("linkindex: scan filter existing: %w", err)
			}
			existing[u] = struct{}{}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	return existing, nil
}

// PageCount returns the total number of registered pages.
func (idx *Index) PageCount(ctx context.Context) (int, error) {
	var n int
	err := idx.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("linkindex: page count: %w", err)
	}
	return n, nil
}

// LinkCount returns the total number of link edges.
func (idx *Index) LinkCount(ctx context.Context) (int, error) {
	var n int
	err := idx.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM links`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("linkindex: link count: %w", err)
	}
	return n, nil
}

// GetPagesByDomain returns every saved page whose domain matches. domain is
// lowercased before the lookup, matching the lowercase form stored by
// RegisterPage.
func (idx *Index) GetPagesByDomain(ctx context.Context, domain string) ([]Page, error) {
	rows, err := idx.db.QueryContext(ctx, `SELECT url, local_path, domain, saved_at FROM pages WHERE domain = ?`, strings.ToLower(domain))
	if err != nil {
		return nil, fmt.Errorf("linkindex: get pages by domain: %w", err)
	}
	defer rows.Close()

	var out []Page
	for rows.Next() {
		var p Page
		var savedAt int64
		if err := rows.Scan(&p.URL, &p.LocalPath, &p.Domain, &savedAt); err != nil {
			return nil, fmt.Errorf("linkindex: scan page: %w", err)
		}
		p.SavedAt = time.Unix(savedAt, 0).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}
