package markdown

import "strings"

// extractHeadingLevel parses a (possibly already-ATX) line into its heading
// level and content, tolerating CommonMark's optional closing hash run. The
// closing run is only stripped when it is preceded by whitespace (or consumes
// the entire remainder after the opening hashes) — a bare "##Title##" keeps
// its trailing hashes as content, since nothing separates them from "Title".
func extractHeadingLevel(line string) (level int, content string, ok bool) {
	if !strings.HasPrefix(line, "#") {
		return 0, "", false
	}
	hashCount := 0
	for hashCount < len(line) && line[hashCount] == '#' {
		hashCount++
	}
	if hashCount == 0 || hashCount > 6 {
		return 0, "", false
	}

	afterHashes := line[hashCount:]
	body := strings.TrimLeft(afterHashes, " \t")

	runLen := 0
	for runLen < len(body) && body[len(body)-1-runLen] == '#' {
		runLen++
	}
	if runLen > 0 {
		precedingPos := len(body) - runLen - 1
		precededByWS := precedingPos < 0 || isSpaceByte(body[precedingPos])
		if precededByWS {
			return hashCount, strings.TrimRight(body[:len(body)-runLen], " \t"), true
		}
	}

	return hashCount, body, true
}

func isSpaceByte(c byte) bool { return c == ' ' || c == '\t' }

// setextLevel reports whether line is a setext underline: a run of only '='
// (H1) or only '-' (H2) characters, at least one character long.
func setextLevel(line string) (int, bool) {
	trimmed := strings.TrimRight(strings.TrimLeft(line, " \t"), " \t")
	if trimmed == "" {
		return 0, false
	}
	allEquals, allDashes := true, true
	for _, r := range trimmed {
		if r != '=' {
			allEquals = false
		}
		if r != '-' {
			allDashes = false
		}
	}
	switch {
	case allEquals:
		return 1, true
	case allDashes:
		return 2, true
	default:
		return 0, false
	}
}

// processMarkdownHeadings canonicalizes ATX headings (stripping any optional
// closing hash run), converts setext H1/H2 underlines to ATX form, and
// recovers from an unclosed fenced code block by synthesizing a matching
// closing fence the moment a heading-shaped line is encountered inside it (or
// at end of document, whichever comes first) — so a dangling fence can never
// swallow the rest of the document. A fence that has a matching close later
// in the document is left intact, heading-shaped lines included. Fence
// matching requires both the same
// fence character and a closing run at least as long as the opening one,
// mirroring normalizeWhitespace's fence tracking.
func processMarkdownHeadings(markdown string) string {
	hadTrailingNewline := strings.HasSuffix(markdown, "\n")
	lines := strings.Split(markdown, "\n")
	if hadTrailingNewline {
		lines = lines[:len(lines)-1]
	}

	var out []string
	var fence *codeFence

	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimLeft(line, " \t")

		if fence != nil {
			if cf, ok := detectCodeFence(trimmed); ok && cf.char == fence.char && cf.count >= fence.count {
				out = append(out, line)
				fence = nil
				i++
				continue
			}
			if _, _, ok := extractHeadingLevel(trimmed); ok {
				closedLater := false
				for _, rest := range lines[i+1:] {
					if cf, ok := detectCodeFence(strings.TrimLeft(rest, " \t")); ok && cf.char == fence.char && cf.count >= fence.count {
						closedLater = true
						break
					}
				}
				if !closedLater {
					out = append(out, strings.Repeat(string(fence.char), fence.count))
					fence = nil
					continue // reprocess this line outside the (now-closed) fence
				}
			}
			out = append(out, line)
			i++
			continue
		}

		if cf, ok := detectCodeFence(trimmed); ok {
			fence = &codeFence{char: cf.char, count: cf.count}
			out = append(out, line)
			i++
			continue
		}

		if lvl, content, ok := extractHeadingLevel(trimmed); ok {
			out = append(out, strings.Repeat("#", lvl)+" "+content)
			i++
			continue
		}

		if strings.TrimSpace(line) != "" && i+1 < len(lines) {
			if lvl, ok := setextLevel(lines[i+1]); ok {
				out = append(out, strings.Repeat("#", lvl)+" "+strings.TrimSpace(line))
				i += 2
				continue
			}
		}

		out = append(out, line)
		i++
	}

	if fence != nil {
		out = append(out, strings.Repeat(string(fence.char), fence.count))
	}

	result := strings.Join(out, "\n")
	if hadTrailingNewline {
		result += "\n"
	}
	return result
}
