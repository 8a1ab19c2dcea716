package markdown

import (
	"strings"

	nethtml "golang.org/x/net/html"
)

// serializeElement renders an element back to literal HTML for Faithful mode,
// used for tags with no registered handler and by the generic block-element
// fallback (blockHandler) — so unrecognized markup is never silently dropped.
func serializeElement(hs *Handlers, el Element) string {
	var buf strings.Builder
	if err := nethtml.Render(&buf, el.Node); err != nil {
		return ""
	}
	return buf.String()
}
