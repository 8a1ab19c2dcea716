package pagesave

import (
	"strings"

	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// extractLinks resolves every a[href] in doc against base, skipping
// fragment-only and non-http(s) links. Adapted from the teacher's
// Crawler.extractLinks in internal/scraper/crawler.go, operating on an
// already-parsed *goquery.Document instead of a raw response body.
func extractLinks(doc *goquery.Document, base *url.URL) []string {
	var links []string
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		u, err := url.Parse(href)
		if err != nil {
			return
		}

		resolved := base.ResolveReference(u)
		resolved.Fragment = ""
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		abs := resolved.String()
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})

	return links
}
