package markdown

import (
	"strings"
	"testing"
)

func TestConvertBasicArticle(t *testing.T) {
	html := `<html><body><article><h1>Title</h1><p>Hello <strong>world</strong>.</p></article></body></html>`
	res, err := Convert(html, ModePure)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if !strings.Contains(res.Markdown, "# Title") {
		t.Fatalf("expected heading in markdown, got %q", res.Markdown)
	}
	if !strings.Contains(res.Markdown, "**world**") {
		t.Fatalf("expected bold span in markdown, got %q", res.Markdown)
	}
	if !strings.Contains(res.Text, "Hello world") {
		t.Fatalf("expected plain text to contain prose, got %q", res.Text)
	}
}

func TestConvertDropsScriptsAndWidgets(t *testing.T) {
	html := `<html><body><script>alert(1)</script><div class="cookie-banner">accept cookies</div><p>Real content.</p></body></html>`
	res, err := Convert(html, ModePure)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if strings.Contains(res.Markdown, "alert(1)") {
		t.Fatalf("script contents leaked into markdown: %q", res.Markdown)
	}
	if strings.Contains(res.Markdown, "accept cookies") {
		t.Fatalf("widget chrome leaked into markdown: %q", res.Markdown)
	}
	if !strings.Contains(res.Markdown, "Real content.") {
		t.Fatalf("expected real content preserved, got %q", res.Markdown)
	}
}

func TestConvertTable(t *testing.T) {
	html := `<table><tr><th>Name</th><th>Age</th></tr><tr><td>Ada</td><td>30</td></tr></table>`
	res, err := Convert(html, ModePure)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if !strings.Contains(res.Markdown, "| Name") || !strings.Contains(res.Markdown, "| Ada") {
		t.Fatalf("expected pipe table rendering, got %q", res.Markdown)
	}
}

func TestConvertCodeBlockLanguageInference(t *testing.T) {
	html := "<pre><code>fn main() {\n    println!(\"hi\");\n}</code></pre>"
	res, err := Convert(html, ModePure)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if !strings.Contains(res.Markdown, "```rust") {
		t.Fatalf("expected rust language fence, got %q", res.Markdown)
	}
}
