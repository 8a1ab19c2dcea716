package markdown

import (
	"fmt"
	"strings"

	nethtml "golang.org/x/net/html"
)

// snippetRunes bounds the plain-text preview stored alongside each indexed
// page; long enough to show meaningful context, short enough to keep the
// search index compact.
const snippetRunes = 280

// Result is the output of converting one HTML document: the Markdown used
// for display, the plain-text form fed to the full-text index, and a short
// preview snippet derived from that plain text.
type Result struct {
	Markdown string
	Text     string
	Snippet  string
}

// Convert parses raw HTML, walks it into Markdown with the given translation
// mode, runs the Markdown postprocessing pipeline, and derives plain-text and
// snippet forms for indexing.
func Convert(rawHTML string, mode TranslationMode) (Result, error) {
	cleaned := preprocessHTML(rawHTML)

	doc, err := nethtml.Parse(strings.NewReader(cleaned))
	if err != nil {
		return Result{}, fmt.Errorf("markdown: parse html: %w", err)
	}

	hs := NewHandlers(mode)
	md := postprocess(Walk(doc, hs))
	text := PlainText(md)

	return Result{
		Markdown: md,
		Text:     text,
		Snippet:  Snippet(text, snippetRunes),
	}, nil
}
