package markdown

import "regexp"

// maxHTMLSize caps the document fed to the parser; pages with megabytes of
// templated boilerplate are truncated rather than spending the full
// conversion pipeline on content that's mostly noise.
const maxHTMLSize = 5 * 1024 * 1024

var htmlCommentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)

// preprocessHTML does the cheap, string-level cleanup that's wasteful to
// express as DOM handlers: dropping HTML comments before parsing (so
// tokenizer-boundary confusions inside conditional comments and the like
// never reach the walker) and capping runaway document size.
func preprocessHTML(raw string) string {
	if len(raw) > maxHTMLSize {
		raw = raw[:maxHTMLSize]
	}
	return htmlCommentPattern.ReplaceAllString(raw, "")
}
