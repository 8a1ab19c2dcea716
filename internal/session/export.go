package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/cyrup-ai/citescrape-go/internal/storage"
)

// Export copies a session's raw-fetch audit trail (component N) from source
// into dest, scoped to records created at or after the session started and
// whose URL shares the seed's host. Intended to hand a session's history to
// a csvbackend/jsonbackend for local debugging or handoff, independently of
// the session's on-disk Markdown output and link index.
func (r *Registry) Export(ctx context.Context, sessionID string, source, dest storage.Backend) (int, error) {
	sess, ok := r.GetStatus(sessionID)
	if !ok {
		return 0, fmt.Errorf("session: unknown session %s", sessionID)
	}

	results, err := source.Query(ctx, storage.Filter{Since: &sess.StartedAt})
	if err != nil {
		return 0, fmt.Errorf("session: export query: %w", err)
	}

	host := hostOf(sess.SeedURL)
	n := 0
	for _, res := range results {
		if host != "" && hostOf(res.URL) != host {
			continue
		}
		if err := dest.Save(ctx, res); err != nil {
			return n, fmt.Errorf("session: export save %s: %w", res.URL, err)
		}
		n++
	}
	return n, nil
}

func hostOf(rawURL string) string {
	const schemeSep = "://"
	if i := strings.Index(rawURL, schemeSep); i >= 0 {
		rawURL = rawURL[i+len(schemeSep):]
	}
	if i := strings.IndexAny(rawURL, "/?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	return rawURL
}
