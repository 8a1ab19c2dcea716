package markdown

import (
	"strings"
	"testing"
)

func TestConvertUnorderedList(t *testing.T) {
	html := `<ul><li>First</li><li>Second</li></ul>`
	res, err := Convert(html, ModePure)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if !strings.Contains(res.Markdown, "- First") || !strings.Contains(res.Markdown, "- Second") {
		t.Fatalf("expected bullet markers, got %q", res.Markdown)
	}
}

func TestConvertOrderedListRespectsStart(t *testing.T) {
	html := `<ol start="3"><li>Third</li><li>Fourth</li></ol>`
	res, err := Convert(html, ModePure)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if !strings.Contains(res.Markdown, "3. Third") || !strings.Contains(res.Markdown, "4. Fourth") {
		t.Fatalf("expected numbered markers starting at 3, got %q", res.Markdown)
	}
}

func TestConvertNestedList(t *testing.T) {
	html := `<ul><li>Outer<ul><li>Inner</li></ul></li></ul>`
	res, err := Convert(html, ModePure)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if !strings.Contains(res.Markdown, "  - Inner") {
		t.Fatalf("expected nested item indented, got %q", res.Markdown)
	}
}
