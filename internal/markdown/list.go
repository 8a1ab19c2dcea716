package markdown

import (
	"strconv"
	"strings"

	nethtml "golang.org/x/net/html"
)

// listDepth counts ancestor ol/ul elements, used to indent nested lists by
// two spaces per level, matching CommonMark's minimum nested-list indent.
func listDepth(node *nethtml.Node) int {
	depth := 0
	for p := node.Parent; p != nil; p = p.Parent {
		if p.Type == nethtml.ElementNode && (p.Data == "ol" || p.Data == "ul") {
			depth++
		}
	}
	return depth
}

// renderListItem converts one <li>'s content into a marked, indented block.
// Nested lists appear as part of the li's own walked content (the inner ol/ul
// handler already indents itself via listDepth), so only the first line gets
// the marker; continuation lines are aligned under it.
func renderListItem(hs *Handlers, li *nethtml.Node, marker string, indent int) string {
	content := strings.TrimSpace(hs.WalkChildren(li, false).Content)
	if content == "" {
		return ""
	}
	lines := strings.Split(content, "\n")
	prefix := strings.Repeat("  ", indent)
	contIndent := prefix + strings.Repeat(" ", len(marker)+1)

	var out strings.Builder
	out.WriteString(prefix + marker + " " + lines[0] + "\n")
	for _, l := range lines[1:] {
		if l == "" {
			out.WriteString("\n")
			continue
		}
		out.WriteString(contIndent + l + "\n")
	}
	return out.String()
}

func listHandler(hs *Handlers, el Element) HandlerResult {
	ordered := el.Tag == "ol"
	idx := 1
	if s, ok := el.Attrs["start"]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			idx = n
		}
	}
	indent := listDepth(el.Node)

	var b strings.Builder
	for c := el.Node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != nethtml.ElementNode || c.Data != "li" {
			continue
		}
		marker := "-"
		if ordered {
			marker = strconv.Itoa(idx) + "."
			idx++
		}
		b.WriteString(renderListItem(hs, c, marker, indent))
	}
	inner := strings.TrimRight(b.String(), "\n")
	if indent > 0 {
		return strResult("\n" + inner)
	}
	return strResult("\n\n" + inner + "\n\n")
}

// listItemHandler only fires for a bare <li> with no ol/ul ancestor — malformed
// markup, rendered as a loose bullet so its content isn't dropped.
func listItemHandler(hs *Handlers, el Element) HandlerResult {
	content := strings.TrimSpace(hs.WalkChildren(el.Node, el.IsPre).Content)
	if content == "" {
		return strResult("")
	}
	return strResult("\n- " + content + "\n")
}
