package pagesave

import (
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestLocalPathForNestedPath(t *testing.T) {
	got, err := localPathFor("/out", "https://example.com/docs/guide/", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join("/out", "example.com", "docs", "guide", "index.md")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLocalPathForGzip(t *testing.T) {
	got, err := localPathFor("/out", "https://example.com/", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join("/out", "example.com", "index.md.gz")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLocalPathForSanitizesTraversal(t *testing.T) {
	got, err := localPathFor("/out", "https://example.com/../../etc/passwd", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(got, "..") {
		t.Fatalf("expected sanitized path with no traversal, got %q", got)
	}
}

func TestExtractLinksResolvesAndDedupes(t *testing.T) {
	html := `<html><body>
		<a href="/page2">Page 2</a>
		<a href="page2">Relative</a>
		<a href="https://other.example/x">Other</a>
		<a href="#frag">Fragment only</a>
		<a href="/page2#section">Same page, different fragment</a>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	base, _ := url.Parse("https://example.com/")

	links := extractLinks(doc, base)

	want := map[string]bool{
		"https://example.com/page2": false,
		"https://other.example/x":   false,
	}
	if len(links) != len(want) {
		t.Fatalf("expected %d unique links, got %d: %v", len(want), len(links), links)
	}
	for _, l := range links {
		if _, ok := want[l]; !ok {
			t.Fatalf("unexpected link %q", l)
		}
		want[l] = true
	}
	for l, seen := range want {
		if !seen {
			t.Fatalf("expected link %q not found in %v", l, links)
		}
	}
}
