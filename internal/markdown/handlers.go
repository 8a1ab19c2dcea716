package markdown

import (
	"strings"

	nethtml "golang.org/x/net/html"
)

// registerHandlers builds the tag dispatch table. Order mirrors the teacher
// conversion pipeline: a generic block handler is registered first for the
// bulk of CommonMark's HTML-block elements, then div/section/aside/nav/
// header/footer are registered afterward so their widget-filtering and
// h1-extraction behavior takes priority over the generic one.
func registerHandlers(hs *Handlers) {
	hs.add([]string{"img"}, imgHandler)
	hs.add([]string{"a"}, anchorHandler)
	hs.add([]string{"ol", "ul"}, listHandler)
	hs.add([]string{"li"}, listItemHandler)
	hs.add([]string{"blockquote"}, blockquoteHandler)
	hs.add([]string{"code"}, codeHandler)
	hs.add([]string{"strong", "b"}, boldHandler)
	hs.add([]string{"i", "em"}, italicHandler)
	hs.add([]string{"h1", "h2", "h3", "h4", "h5", "h6"}, headingsHandler)
	hs.add([]string{"br"}, brHandler)
	hs.add([]string{"hr"}, hrHandler)
	hs.add([]string{"table"}, tableHandler)
	hs.add([]string{"td", "th"}, tdThHandler)
	hs.add([]string{"tr"}, trHandler)
	hs.add([]string{"tbody"}, tbodyHandler)
	hs.add([]string{"thead"}, theadHandler)
	hs.add([]string{"caption"}, captionHandler)
	hs.add([]string{"p"}, pHandler)
	hs.add([]string{"pre"}, preHandler)
	hs.add([]string{"head", "body", "html"}, passthroughHandler)
	hs.add([]string{"span"}, spanHandler)

	hs.add([]string{
		"address", "article", "aside", "base", "basefont", "center", "col",
		"colgroup", "dd", "dialog", "dir", "div", "dl", "dt", "fieldset",
		"figcaption", "figure", "footer", "form", "frame", "frameset", "header",
		"iframe", "legend", "link", "main", "menu", "menuitem", "nav", "noframes",
		"optgroup", "option", "param", "script", "search", "section", "style",
		"textarea", "tfoot", "title", "track",
	}, blockHandler)

	hs.add([]string{"details"}, detailsHandler)
	hs.add([]string{"summary"}, summaryHandler)

	// Registered after blockHandler so these take priority for their tags.
	hs.add([]string{"div"}, divHandler)
	hs.add([]string{"section"}, sectionHandler)
	hs.add([]string{"aside"}, asideHandler)
	hs.add([]string{"nav"}, navHandler)
	hs.add([]string{"header"}, headerHandler)
	hs.add([]string{"footer"}, footerHandler)
	hs.add([]string{"form", "iframe"}, discardHandler)
	hs.add([]string{"button"}, discardHandler)
	hs.add([]string{"input", "select", "textarea"}, discardHandler)
	hs.add([]string{"dialog"}, discardHandler)
	hs.add([]string{"script", "style"}, discardHandler)
}

func passthroughHandler(hs *Handlers, el Element) HandlerResult {
	return hs.WalkChildren(el.Node, el.IsPre)
}

func discardHandler(hs *Handlers, el Element) HandlerResult {
	return HandlerResult{Content: "", Translated: true}
}

// blockHandler is the generic fallback for HTML-block elements with no
// Markdown equivalent of their own: in Pure mode their children are walked
// and wrapped in blank lines; in Faithful mode the element is serialized back
// to HTML so nothing is lost.
func blockHandler(hs *Handlers, el Element) HandlerResult {
	if hs.mode == ModePure {
		content := strings.Trim(hs.WalkChildren(el.Node, el.IsPre).Content, "\n")
		return strResult("\n\n" + content + "\n\n")
	}
	return HandlerResult{Content: serializeElement(hs, el), Translated: false}
}

func imgHandler(hs *Handlers, el Element) HandlerResult {
	if isThemeVariantImage(el.Attrs) || isWidgetElementWithContext(el.Attrs, el.ParentTag) {
		return strResult("")
	}
	src := el.Attrs["src"]
	if src == "" {
		return strResult("")
	}
	alt := el.Attrs["alt"]
	title := el.Attrs["title"]
	if title != "" {
		return strResult(`![` + alt + `](` + src + ` "` + title + `")`)
	}
	return strResult(`![` + alt + `](` + src + `)`)
}

func anchorHandler(hs *Handlers, el Element) HandlerResult {
	text := hs.WalkChildren(el.Node, el.IsPre).Content
	if isWidgetElementWithContext(el.Attrs, el.ParentTag) {
		return strResult(text)
	}
	href := el.Attrs["href"]
	if href == "" {
		return strResult(text)
	}
	if title := el.Attrs["title"]; title != "" {
		return strResult(`[` + text + `](` + href + ` "` + title + `")`)
	}
	return strResult(`[` + text + `](` + href + `)`)
}

func emphasisHandler(hs *Handlers, el Element, marker string) HandlerResult {
	content := hs.WalkChildren(el.Node, el.IsPre).Content
	if strings.TrimSpace(content) == "" {
		return strResult(content)
	}
	return strResult(marker + content + marker)
}

func boldHandler(hs *Handlers, el Element) HandlerResult   { return emphasisHandler(hs, el, "**") }
func italicHandler(hs *Handlers, el Element) HandlerResult { return emphasisHandler(hs, el, "*") }

func headingsHandler(hs *Handlers, el Element) HandlerResult {
	level := int(el.Tag[1] - '0')
	content := strings.TrimSpace(hs.WalkChildren(el.Node, el.IsPre).Content)
	return strResult("\n\n" + strings.Repeat("#", level) + " " + content + "\n\n")
}

func brHandler(hs *Handlers, el Element) HandlerResult { return strResult("  \n") }

func hrHandler(hs *Handlers, el Element) HandlerResult { return strResult("\n\n---\n\n") }

func pHandler(hs *Handlers, el Element) HandlerResult {
	content := strings.Trim(hs.WalkChildren(el.Node, el.IsPre).Content, "\n")
	if content == "" {
		return strResult("")
	}
	return strResult("\n\n" + content + "\n\n")
}

func spanHandler(hs *Handlers, el Element) HandlerResult {
	if isWidgetElementWithContext(el.Attrs, el.ParentTag) {
		return strResult("")
	}
	return hs.WalkChildren(el.Node, el.IsPre)
}

func blockquoteHandler(hs *Handlers, el Element) HandlerResult {
	content := strings.Trim(hs.WalkChildren(el.Node, el.IsPre).Content, "\n")
	if content == "" {
		return strResult("")
	}
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + l
		}
	}
	return strResult("\n\n" + strings.Join(lines, "\n") + "\n\n")
}

func codeHandler(hs *Handlers, el Element) HandlerResult {
	if el.IsPre {
		// Inside <pre>, the enclosing preHandler owns fencing; just pass the
		// raw text through.
		return hs.WalkChildren(el.Node, true)
	}
	content := hs.WalkChildren(el.Node, true).Content
	fence := "`"
	if strings.Contains(content, "`") {
		fence = "``"
	}
	return strResult(fence + content + fence)
}

func preHandler(hs *Handlers, el Element) HandlerResult {
	raw := hs.WalkChildren(el.Node, true).Content
	lang := inferLanguage(raw)
	return strResult("\n\n```" + lang + "\n" + raw + "\n```\n\n")
}

func detailsHandler(hs *Handlers, el Element) HandlerResult {
	content := strings.Trim(hs.WalkChildren(el.Node, el.IsPre).Content, "\n")
	return strResult("\n\n" + content + "\n\n")
}

func summaryHandler(hs *Handlers, el Element) HandlerResult {
	content := strings.TrimSpace(hs.WalkChildren(el.Node, el.IsPre).Content)
	return strResult("\n\n**" + content + "**\n\n")
}

// divHandler applies the widget filter before falling back to generic block
// handling — registered after blockHandler so it overrides it for <div>.
func divHandler(hs *Handlers, el Element) HandlerResult {
	if isWidgetElementWithContext(el.Attrs, el.ParentTag) {
		return strResult("")
	}
	return blockHandler(hs, el)
}

func sectionHandler(hs *Handlers, el Element) HandlerResult {
	if isWidgetElementWithContext(el.Attrs, el.ParentTag) {
		return strResult("")
	}
	return blockHandler(hs, el)
}

func asideHandler(hs *Handlers, el Element) HandlerResult {
	if isWidgetElementWithContext(el.Attrs, el.ParentTag) {
		return strResult("")
	}
	return blockHandler(hs, el)
}

// navHandler discards navigation chrome, keeping only a lone top-level
// heading if the nav happens to carry one (rare, but some templates nest a
// page title inside <nav>).
func navHandler(hs *Handlers, el Element) HandlerResult {
	return strResult(extractOnlyHeading(hs, el.Node, "h1"))
}

func headerHandler(hs *Handlers, el Element) HandlerResult {
	return strResult(extractOnlyHeading(hs, el.Node, "h1"))
}

func footerHandler(hs *Handlers, el Element) HandlerResult { return strResult("") }

func extractOnlyHeading(hs *Handlers, node *nethtml.Node, tag string) string {
	var found *nethtml.Node
	var walk func(n *nethtml.Node)
	walk = func(n *nethtml.Node) {
		if found != nil {
			return
		}
		if n.Type == nethtml.ElementNode && n.Data == tag {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	if found == nil {
		return ""
	}
	content := strings.TrimSpace(hs.WalkChildren(found, false).Content)
	return "\n\n# " + content + "\n\n"
}
