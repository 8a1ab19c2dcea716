package markdown

import (
	"regexp"
	"strings"
	"unicode/utf8"

	nethtml "golang.org/x/net/html"
)

var (
	fencedCodeLine    = regexp.MustCompile(`(?m)^\x60{3,}.*$`)
	atxHeadingMarker  = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blockquoteMarker  = regexp.MustCompile(`(?m)^>\s?`)
	bulletMarker      = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	orderedMarker     = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	inlineCodeMarker  = regexp.MustCompile("`{1,2}([^`]*)`{1,2}")
	emphasisMarker    = regexp.MustCompile(`\*{1,2}([^*]+)\*{1,2}`)
	linkWithText      = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	tablePipeRow      = regexp.MustCompile(`(?m)^\|(.+)\|\s*$`)
	tableSeparatorRow = regexp.MustCompile(`(?m)^\|[\s:|-]+\|\s*$\n?`)
	multiBlankLine    = regexp.MustCompile(`\n{3,}`)
)

// PlainText reduces rendered Markdown to unstyled prose: fence markers, ATX
// and blockquote prefixes, list bullets, table grid syntax and inline
// emphasis/code markers are all stripped, and link/image syntax collapses to
// its visible text. Fenced code body lines are kept (code is still searchable
// content) but lose their triple-backtick fence lines.
//
// Exported so the search indexer (internal/search) can re-derive plain text
// and snippets from Markdown already persisted to disk, without re-running
// HTML conversion.
func PlainText(markdown string) string {
	s := markdown
	s = fencedCodeLine.ReplaceAllString(s, "")
	s = linkWithText.ReplaceAllString(s, "$1")
	s = tableSeparatorRow.ReplaceAllString(s, "")
	s = tablePipeRow.ReplaceAllStringFunc(s, func(row string) string {
		m := tablePipeRow.FindStringSubmatch(row)
		cells := strings.Split(m[1], "|")
		for i, c := range cells {
			cells[i] = strings.TrimSpace(c)
		}
		return strings.Join(cells, " ")
	})
	s = atxHeadingMarker.ReplaceAllString(s, "")
	s = blockquoteMarker.ReplaceAllString(s, "")
	s = bulletMarker.ReplaceAllString(s, "")
	s = orderedMarker.ReplaceAllString(s, "")
	s = inlineCodeMarker.ReplaceAllString(s, "$1")
	s = emphasisMarker.ReplaceAllString(s, "$1")
	s = nethtml.UnescapeString(s)
	s = multiBlankLine.ReplaceAllString(s, "\n\n")
	s = compressWhitespace(s)
	return strings.TrimSpace(s)
}

// Snippet truncates text to at most maxRunes runes, preferring to break at
// the latest sentence boundary, falling back to the latest word boundary,
// and otherwise cutting on a UTF-8 rune boundary — always appending "..."
// when truncation occurred.
func Snippet(text string, maxRunes int) string {
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	runes := []rune(text)
	cut := runes[:maxRunes]
	cutStr := string(cut)

	if idx := lastSentenceBoundary(cutStr); idx > 0 {
		return strings.TrimSpace(cutStr[:idx]) + "..."
	}
	if idx := strings.LastIndexAny(cutStr, " \t\n"); idx > 0 {
		return strings.TrimSpace(cutStr[:idx]) + "..."
	}
	return strings.TrimSpace(cutStr) + "..."
}

func lastSentenceBoundary(s string) int {
	best := -1
	for _, terminator := range []string{". ", "! ", "? ", ".\n", "!\n", "?\n"} {
		if idx := strings.LastIndex(s, terminator); idx > best {
			best = idx + 1
		}
	}
	return best
}
