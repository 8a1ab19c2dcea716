package markdown

import (
	"strings"

	nethtml "golang.org/x/net/html"
)

// tableHandler renders a GFM pipe table. Column padding requires knowing
// every row's cell widths before any row can be written, so this walks the
// raw table subtree directly (rows, row groups, cells) instead of composing
// through the separately-registered tr/td/th/tbody/thead handlers — those
// exist only as fallbacks for malformed markup where those tags appear
// outside a <table>.
func tableHandler(hs *Handlers, el Element) HandlerResult {
	var caption string
	var headerRow []string
	var bodyRows [][]string

	var walkRows func(n *nethtml.Node)
	walkRows = func(n *nethtml.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != nethtml.ElementNode {
				continue
			}
			switch c.Data {
			case "caption":
				caption = strings.TrimSpace(hs.WalkChildren(c, false).Content)
			case "thead":
				walkRows(c)
			case "tbody", "tfoot":
				walkRows(c)
			case "tr":
				row, isHeader := extractRow(hs, c)
				if isHeader && headerRow == nil {
					headerRow = row
				} else {
					bodyRows = append(bodyRows, row)
				}
			}
		}
	}
	walkRows(el.Node)

	if headerRow == nil && len(bodyRows) > 0 {
		headerRow = bodyRows[0]
		bodyRows = bodyRows[1:]
	}
	if headerRow == nil {
		return strResult("")
	}

	cols := len(headerRow)
	for _, r := range bodyRows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	widths := make([]int, cols)
	pad := func(row []string) []string {
		out := make([]string, cols)
		copy(out, row)
		for i, cell := range out {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
		return out
	}
	headerRow = pad(headerRow)
	for i, r := range bodyRows {
		bodyRows[i] = pad(r)
	}
	for i, w := range widths {
		if w < 1 {
			widths[i] = 1
		}
	}

	writeRow := func(b *strings.Builder, row []string) {
		b.WriteString("|")
		for i, cell := range row {
			b.WriteString(" " + padCell(cell, widths[i]) + " |")
		}
		b.WriteString("\n")
	}

	var b strings.Builder
	b.WriteString("\n\n")
	if caption != "" {
		b.WriteString(caption + "\n\n")
	}
	writeRow(&b, headerRow)
	b.WriteString("|")
	for _, w := range widths {
		b.WriteString(" " + strings.Repeat("-", w) + " |")
	}
	b.WriteString("\n")
	for _, r := range bodyRows {
		writeRow(&b, r)
	}
	b.WriteString("\n")

	return strResult(b.String())
}

func padCell(cell string, width int) string {
	if len(cell) >= width {
		return cell
	}
	return cell + strings.Repeat(" ", width-len(cell))
}

// extractRow converts a <tr>'s cells to escaped, single-line strings. A row
// is treated as a header row if every cell in it is a <th>.
func extractRow(hs *Handlers, tr *nethtml.Node) (row []string, isHeader bool) {
	isHeader = true
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != nethtml.ElementNode {
			continue
		}
		if c.Data != "td" && c.Data != "th" {
			continue
		}
		if c.Data != "th" {
			isHeader = false
		}
		content := strings.TrimSpace(hs.WalkChildren(c, false).Content)
		content = strings.ReplaceAll(content, "\n", " ")
		content = strings.ReplaceAll(content, "|", "&#124;")
		row = append(row, content)
	}
	if row == nil {
		isHeader = false
	}
	return row, isHeader
}

// tdThHandler, trHandler, tbodyHandler, theadHandler and captionHandler are
// registered as fallbacks for those tags appearing outside a <table>
// ancestor (malformed HTML); a well-formed table is fully consumed by
// tableHandler before the walker ever dispatches to these.
func tdThHandler(hs *Handlers, el Element) HandlerResult {
	return hs.WalkChildren(el.Node, el.IsPre)
}

func trHandler(hs *Handlers, el Element) HandlerResult {
	content := strings.TrimSpace(hs.WalkChildren(el.Node, el.IsPre).Content)
	if content == "" {
		return strResult("")
	}
	return strResult(content + "\n")
}

func tbodyHandler(hs *Handlers, el Element) HandlerResult {
	return hs.WalkChildren(el.Node, el.IsPre)
}

func theadHandler(hs *Handlers, el Element) HandlerResult {
	return hs.WalkChildren(el.Node, el.IsPre)
}

func captionHandler(hs *Handlers, el Element) HandlerResult {
	content := strings.TrimSpace(hs.WalkChildren(el.Node, el.IsPre).Content)
	if content == "" {
		return strResult("")
	}
	return strResult("\n\n" + content + "\n\n")
}
