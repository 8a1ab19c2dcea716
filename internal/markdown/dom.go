package markdown

import (
	"html"
	"strings"
	"unicode"

	nethtml "golang.org/x/net/html"
)

// TranslationMode selects how unrecognized or filtered-out elements behave.
// Pure degrades unknown elements to their text content; Faithful serializes
// them back to literal HTML so nothing is silently lost.
type TranslationMode int

const (
	ModePure TranslationMode = iota
	ModeFaithful
)

// Element is the view a handlerFunc receives of the node it is converting.
type Element struct {
	Node  *nethtml.Node
	Tag   string
	Attrs map[string]string
	IsPre bool
	// ParentTag is the tag name of the immediately enclosing element, used by
	// the widget filter to special-case table-cell context.
	ParentTag string
}

// HandlerResult is what a handlerFunc hands back to the walker.
type HandlerResult struct {
	Content string
	// Translated reports whether this element was meaningfully converted to
	// Markdown (false when it was serialized back to raw HTML in Faithful mode).
	Translated bool
}

func strResult(s string) HandlerResult { return HandlerResult{Content: s, Translated: true} }

type handlerFunc func(hs *Handlers, el Element) HandlerResult

// Handlers is a tag-keyed dispatch table, mirroring the teacher conversion
// pipeline's registration order: a later registration for the same tag
// overrides an earlier one (see block_handler vs div/section/aside/nav/header
// registered afterward to take priority over the generic block handler).
type Handlers struct {
	byTag map[string]handlerFunc
	mode  TranslationMode
}

// NewHandlers builds the full built-in dispatch table.
func NewHandlers(mode TranslationMode) *Handlers {
	hs := &Handlers{byTag: make(map[string]handlerFunc), mode: mode}
	registerHandlers(hs)
	return hs
}

func (hs *Handlers) add(tags []string, h handlerFunc) {
	for _, t := range tags {
		hs.byTag[t] = h
	}
}

// Handle dispatches a single element to its registered handler, or falls back
// to Faithful serialization / Pure child-walking when no handler is registered.
func (hs *Handlers) Handle(node *nethtml.Node, tag string, attrs map[string]string, isPre bool, parentTag string) HandlerResult {
	el := Element{Node: node, Tag: tag, Attrs: attrs, IsPre: isPre, ParentTag: parentTag}
	if h, ok := hs.byTag[tag]; ok {
		return h(hs, el)
	}
	if hs.mode == ModeFaithful {
		return HandlerResult{Content: serializeElement(hs, el), Translated: false}
	}
	return hs.WalkChildren(node, isPre)
}

// WalkChildren walks node's children and returns their combined Markdown.
func (hs *Handlers) WalkChildren(node *nethtml.Node, isPre bool) HandlerResult {
	var buf strings.Builder
	isBlock := isBlockElement(node.Data)
	isPreForChildren := isPre || node.Data == "pre" || node.Data == "code"
	translated := walkChildren(node, &buf, hs, isBlock, isPreForChildren)
	return HandlerResult{Content: buf.String(), Translated: translated}
}

// Walk converts an entire document (or fragment) rooted at node to Markdown.
func Walk(node *nethtml.Node, hs *Handlers) string {
	var buf strings.Builder
	walkNode(node, &buf, hs, "", true, false)
	trimBufferEnd(&buf)
	return buf.String()
}

func walkNode(node *nethtml.Node, buf *strings.Builder, hs *Handlers, parentTag string, trimLeadingSpaces bool, isPre bool) bool {
	switch node.Type {
	case nethtml.DocumentNode:
		walkChildren(node, buf, hs, false, false)
		return true

	case nethtml.TextNode:
		text := node.Data
		if isPre {
			if parentTag == "pre" {
				text = escapePreTextIfNeeded(text)
			}
			buf.WriteString(text)
		} else {
			escaped := escapeIfNeeded(text)
			compressed := compressWhitespace(escaped)

			toAdd := compressed
			if trimLeadingSpaces || (strings.HasPrefix(compressed, " ") && strings.HasSuffix(buf.String(), " ")) {
				toAdd = strings.TrimLeft(compressed, " ")
			}
			if toAdd != "" {
				buf.WriteString(toAdd)
			}
		}
		return true

	case nethtml.ElementNode:
		tag := node.Data
		attrs := attrMap(node)
		res := hs.Handle(node, tag, attrs, isPre, parentTag)
		if res.Content != "" || tag != "head" {
			content := normalizeContentForBuffer(buf.String(), res.Content, isPre)
			if content != "" {
				buf.WriteString(content)
			}
		}
		return res.Translated

	case nethtml.CommentNode:
		if hs.mode == ModeFaithful {
			buf.WriteString("<!--" + node.Data + "-->")
		}
		return true

	default:
		return true
	}
}

// walkChildren coalesces adjacent inline-element siblings of equivalent tag
// (i≡em, b≡strong) whose sole child is a text node before recursing, then walks
// each remaining child, tracking whether leading spaces should be trimmed
// across block-element boundaries.
func walkChildren(node *nethtml.Node, buf *strings.Builder, hs *Handlers, isParentBlock, isPre bool) bool {
	children := combineChildren(collectChildren(node))

	trimLeadingSpaces := !isPre && isParentBlock
	tag := node.Data
	translated := true

	for _, child := range children {
		isBlock := child.Type == nethtml.ElementNode && isBlockElement(child.Data)
		if isBlock {
			trimBufferEndSpaces(buf)
		}

		before := buf.Len()
		ok := walkNode(child, buf, hs, tag, trimLeadingSpaces, isPre)
		translated = translated && ok

		if buf.Len() > before {
			trimLeadingSpaces = isBlock
		}
	}

	return translated
}

func collectChildren(node *nethtml.Node) []*nethtml.Node {
	var out []*nethtml.Node
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// combineChildren merges a run of adjacent inline elements of equivalent tag
// (i/em, b/strong, or identical tags other than "a") whose sole child is a
// single text node, concatenating their text. This undoes the fragmentation
// HTML sometimes introduces for what is semantically one run of formatted text.
func combineChildren(children []*nethtml.Node) []*nethtml.Node {
	if len(children) <= 1 {
		return children
	}

	out := make([]*nethtml.Node, 0, len(children))
	out = append(out, children[0])

	for _, next := range children[1:] {
		last := out[len(out)-1]
		if text, ok := combinableText(last, next); ok {
			lastText := last.FirstChild
			lastText.Data += text
			continue
		}
		out = append(out, next)
	}
	return out
}

func combinableText(n1, n2 *nethtml.Node) (string, bool) {
	if n1.Type != nethtml.ElementNode || n2.Type != nethtml.ElementNode {
		return "", false
	}
	if isBlockElement(n1.Data) {
		return "", false
	}
	if n1.Data == "a" {
		return "", false
	}
	sameOrEquivalent := n1.Data == n2.Data ||
		(n1.Data == "i" && n2.Data == "em") || (n1.Data == "em" && n2.Data == "i") ||
		(n1.Data == "b" && n2.Data == "strong") || (n1.Data == "strong" && n2.Data == "b")
	if !sameOrEquivalent {
		return "", false
	}
	if !singleTextChild(n1) || !singleTextChild(n2) {
		return "", false
	}
	if !sameAttrs(n1, n2) {
		return "", false
	}
	return n2.FirstChild.Data, true
}

func singleTextChild(n *nethtml.Node) bool {
	return n.FirstChild != nil && n.FirstChild == n.LastChild && n.FirstChild.Type == nethtml.TextNode
}

func sameAttrs(n1, n2 *nethtml.Node) bool {
	a1, a2 := attrMap(n1), attrMap(n2)
	if len(a1) != len(a2) {
		return false
	}
	for k, v := range a1 {
		if a2[k] != v {
			return false
		}
	}
	return true
}

func attrMap(n *nethtml.Node) map[string]string {
	if len(n.Attr) == 0 {
		return nil
	}
	m := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		m[a.Key] = a.Val
	}
	return m
}

// normalizeContentForBuffer collapses a run of 3+ newlines spanning the
// buffer/content boundary down to 2, and removes a duplicate space where an
// inline element's content starts with one right after the buffer ends with
// one (spacing between adjacent inline elements must not be doubled).
func normalizeContentForBuffer(buffer, content string, isPre bool) string {
	if buffer == "" {
		return content
	}

	lastNewlines := trailingRunLen(buffer, '\n')
	contentNewlines := leadingRunLen(content, '\n')
	total := lastNewlines + contentNewlines
	if total > 2 {
		toRemove := total - 2
		if toRemove > contentNewlines {
			toRemove = contentNewlines
		}
		content = content[toRemove:]
		contentNewlines -= toRemove
	}

	if !isPre && lastNewlines == 0 && contentNewlines == 0 &&
		strings.HasSuffix(buffer, " ") && strings.HasPrefix(content, " ") {
		content = content[1:]
	}

	return content
}

func trailingRunLen(s string, r byte) int {
	n := 0
	for n < len(s) && s[len(s)-1-n] == r {
		n++
	}
	return n
}

func leadingRunLen(s string, r byte) int {
	n := 0
	for n < len(s) && s[n] == r {
		n++
	}
	return n
}

func trimBufferEnd(buf *strings.Builder) {
	s := buf.String()
	end := len(s)
	for end > 0 {
		c := s[end-1]
		if c != '\n' && c != '\t' && c != ' ' {
			break
		}
		end--
	}
	if end < len(s) {
		buf.Reset()
		buf.WriteString(s[:end])
	}
}

func trimBufferEndSpaces(buf *strings.Builder) {
	s := buf.String()
	end := len(s)
	for end > 0 && s[end-1] == ' ' {
		end--
	}
	if end < len(s) {
		buf.Reset()
		buf.WriteString(s[:end])
	}
}

// compressWhitespace collapses any run of ASCII/Unicode whitespace (including
// newlines from source formatting) into a single space; HTML text content
// carries no significant whitespace beyond "there was some here".
func compressWhitespace(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	inRun := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inRun {
				out.WriteByte(' ')
				inRun = true
			}
			continue
		}
		inRun = false
		out.WriteRune(r)
	}
	return out.String()
}

// escapeIfNeeded escapes Markdown-significant leading characters and inline
// special characters in a text node so they render as literal text rather
// than being reinterpreted as Markdown syntax, then HTML-escapes the result.
func escapeIfNeeded(text string) string {
	if text == "" {
		return text
	}
	first := rune(text[0])

	needEscape := first == '=' || first == '~' || first == '>' || first == '-' || first == '+' || first == '#' ||
		(first >= '0' && first <= '9')
	if !needEscape {
		for _, c := range text {
			if c == '\\' || c == '*' || c == '_' || c == '`' || c == '[' || c == ']' {
				needEscape = true
				break
			}
		}
	}
	if !needEscape {
		return html.EscapeString(text)
	}

	var escaped strings.Builder
	escaped.Grow(len(text) * 2)
	for _, c := range text {
		switch c {
		case '\\':
			escaped.WriteString(`\\`)
		case '*':
			escaped.WriteString(`\*`)
		case '_':
			escaped.WriteString(`\_`)
		case '`':
			escaped.WriteString("\\`")
		case '[':
			escaped.WriteString(`\[`)
		case ']':
			escaped.WriteString(`\]`)
		default:
			escaped.WriteRune(c)
		}
	}
	result := escaped.String()

	switch first {
	case '=', '~', '>':
		result = "\\" + result
	case '-', '+':
		if len(result) > 1 && result[1] == ' ' {
			result = "\\" + result
		}
	case '#':
		if isMarkdownATXHeading(result) {
			result = "\\" + result
		}
	default:
		if first >= '0' && first <= '9' {
			if dot := indexOfMarkdownOrderedItemDot(result); dot >= 0 {
				result = result[:dot] + `\.` + result[dot+1:]
			}
		}
	}

	return html.EscapeString(result)
}

// escapePreTextIfNeeded escapes a leading fence marker inside a <pre> text
// node so it cannot be mistaken for a Markdown code fence.
func escapePreTextIfNeeded(text string) string {
	if text == "" {
		return text
	}
	if text[0] == '`' || text[0] == '~' {
		return "\\" + text
	}
	return text
}

func isMarkdownATXHeading(s string) bool {
	hashes := 0
	for hashes < len(s) && s[hashes] == '#' {
		hashes++
	}
	if hashes == 0 || hashes > 6 {
		return false
	}
	return hashes == len(s) || s[hashes] == ' '
}

func indexOfMarkdownOrderedItemDot(s string) int {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(s) || s[i] != '.' {
		return -1
	}
	return i
}

// blockElements lists the CommonMark HTML-block element names; anything else
// is treated as inline for spacing/trimming purposes.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "base": true, "basefont": true,
	"blockquote": true, "body": true, "caption": true, "center": true, "col": true,
	"colgroup": true, "dd": true, "details": true, "dialog": true, "dir": true,
	"div": true, "dl": true, "dt": true, "fieldset": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "frame": true, "frameset": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"head": true, "header": true, "hr": true, "html": true, "iframe": true,
	"legend": true, "li": true, "link": true, "main": true, "menu": true,
	"menuitem": true, "nav": true, "noframes": true, "ol": true, "optgroup": true,
	"option": true, "p": true, "param": true, "pre": true, "script": true,
	"search": true, "section": true, "style": true, "summary": true, "table": true,
	"tbody": true, "td": true, "textarea": true, "tfoot": true, "th": true,
	"thead": true, "title": true, "tr": true, "track": true, "ul": true,
}

func isBlockElement(tag string) bool { return blockElements[tag] }
