package session

import (
	"context"
)

// searchResultLimit is the fixed cap on web_search hits, per contract.
const searchResultLimit = 10

// WebSearch runs a full-text query against the shared search index and
// returns up to 10 relevance-ordered hits.
func (r *Registry) WebSearch(ctx context.Context, query string) ([]SearchHit, error) {
	hits, err := r.deps.Search.Search(ctx, query, "", "", searchResultLimit)
	if err != nil {
		return nil, err
	}
	out := make([]SearchHit, 0, len(hits))
	for i, h := range hits {
		out = append(out, SearchHit{
			Rank:    i + 1,
			Title:   h.Title,
			URL:     h.URL,
			Snippet: h.Snippet,
		})
	}
	return out, nil
}
