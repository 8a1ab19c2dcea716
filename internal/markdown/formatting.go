package markdown

import (
	"regexp"
	"strings"
)

var (
	wordBeforeBoldSpan = regexp.MustCompile(`(\w)(\*\*(?:[^*]|\*[^*])+\*\*)`)
	boldSpanBeforeWord = regexp.MustCompile(`(\*\*(?:[^*]|\*[^*])+\*\*)(\w)`)
	boldInternalSpacing = regexp.MustCompile(`\*\*\s*(.+?)\s*\*\*`)
	spaceBeforePunctuation = regexp.MustCompile(`(\*\*[^*]+\*\*)\s+([,:;.!?])`)

	attrEqualsSpacing    = regexp.MustCompile(`(\w+)\s*=\s*"`)
	closeBracketSpacing  = regexp.MustCompile(`(=["'][^"']*["'])\s+>`)
	openTagAfterGT       = regexp.MustCompile(`(["'])>\s+`)
	spaceBeforeCloseTag  = regexp.MustCompile(`\s+</`)
	closeTagAfterLT      = regexp.MustCompile(`<\s+/`)
	closeTagBeforeGT     = regexp.MustCompile(`(/\w+)\s+>`)

	urlLinkPattern = regexp.MustCompile(`\[([^\]]{1,2000})\]\(([^)]{1,2000})\)`)
)

// normalizeInlineFormattingSpacing ensures a space separates a complete
// **bold** span from an adjacent word character, without touching the span's
// internal content.
//
// Go's regexp package has no negative-lookahead, so the original's
// "(?:[^*]|\*(?!\*))+" (any char that is not '*', or a single '*' not
// followed by another '*') is approximated here as "(?:[^*]|\*[^*])+", which
// matches the same bold-span bodies for the well-formed HTML→Markdown output
// this operates on (a literal "**" can never appear inside the body of a span
// whose boundaries are themselves "**", since that would have closed it).
func normalizeInlineFormattingSpacing(markdown string) string {
	result := wordBeforeBoldSpan.ReplaceAllString(markdown, "$1 $2")
	result = boldSpanBeforeWord.ReplaceAllString(result, "$1 $2")
	return result
}

// fixBoldInternalSpacing strips leading/trailing whitespace inside ** markers
// and removes a space between a bold span and immediately following
// punctuation.
func fixBoldInternalSpacing(markdown string) string {
	result := boldInternalSpacing.ReplaceAllStringFunc(markdown, func(m string) string {
		sub := boldInternalSpacing.FindStringSubmatch(m)
		return "**" + strings.TrimSpace(sub[1]) + "**"
	})
	result = spaceBeforePunctuation.ReplaceAllString(result, "$1$2")
	return result
}

// fixAngleBracketSpacing repairs "< nam e >" style mangling htmd's unknown-
// element handler introduces for literal placeholder brackets like <name> or
// <url>, restoring the original spaceless form. It must not touch heredoc
// markers such as "<< EOF >", which the original excludes via a negative
// lookbehind for a preceding '<'; Go's RE2 has no lookbehind, so this is
// checked by hand against the byte immediately before each match.
func fixAngleBracketSpacing(markdown string) string {
	var out strings.Builder
	out.Grow(len(markdown))

	i := 0
	for i < len(markdown) {
		if markdown[i] != '<' || (i > 0 && markdown[i-1] == '<') {
			out.WriteByte(markdown[i])
			i++
			continue
		}

		j := i + 1
		wsStart := j
		for j < len(markdown) && (markdown[j] == ' ' || markdown[j] == '\t') {
			j++
		}
		if j == wsStart || j >= len(markdown) {
			out.WriteByte(markdown[i])
			i++
			continue
		}

		contentStart := j
		contentEnd := -1
		k := j
		for k < len(markdown) {
			c := markdown[k]
			if c == '>' {
				break
			}
			if !(c == ' ' || c == '\t' || c == '-' || isWordByte(c)) {
				break
			}
			k++
		}
		// Walk backward from the first non-matching/closing position to find
		// the required trailing run of whitespace before '>', matching the
		// original's non-greedy "([\w\s-]+?)\s+>".
		if k >= len(markdown) || markdown[k] != '>' {
			out.WriteByte(markdown[i])
			i++
			continue
		}
		contentEnd = k
		body := markdown[contentStart:contentEnd]
		trimmedBody := strings.TrimRight(body, " \t")
		if trimmedBody == body || trimmedBody == "" {
			// No trailing whitespace run inside the brackets, or empty body:
			// not a match for this pattern.
			out.WriteByte(markdown[i])
			i++
			continue
		}

		fields := strings.Fields(trimmedBody)
		out.WriteByte('<')
		out.WriteString(strings.Join(fields, ""))
		out.WriteByte('>')
		i = k + 1
	}

	return out.String()
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// fixHTMLTagSpacing repairs HTML attribute/tag spacing mangled by htmd's
// unknown-element handler (e.g. `<span style = "..." > text < /span >`)
// without disturbing shell redirect operators such as `echo "hello" > file`.
func fixHTMLTagSpacing(markdown string) string {
	result := attrEqualsSpacing.ReplaceAllString(markdown, `$1="`)
	result = closeBracketSpacing.ReplaceAllString(result, "$1>")
	result = openTagAfterGT.ReplaceAllString(result, "$1>")
	result = closeTagAfterLT.ReplaceAllString(result, "</")
	result = spaceBeforeCloseTag.ReplaceAllString(result, "</")
	result = closeTagBeforeGT.ReplaceAllString(result, "$1>")
	return result
}

// simplifyURLAsLinkText collapses [url](url) markdown links (the common
// result of converting <a href="url">url</a>) down to a bare url, leaving
// links whose text differs from their target untouched.
func simplifyURLAsLinkText(markdown string) string {
	if !strings.Contains(markdown, "](") {
		return markdown
	}

	return urlLinkPattern.ReplaceAllStringFunc(markdown, func(m string) string {
		sub := urlLinkPattern.FindStringSubmatch(m)
		linkText, url := sub[1], sub[2]
		if isURLMatchingLinkText(linkText, url) {
			return url
		}
		return m
	})
}

func isURLMatchingLinkText(linkText, url string) bool {
	textTrimmed := strings.ToLower(strings.TrimSpace(linkText))
	urlTrimmed := strings.TrimSpace(url)
	if !strings.HasPrefix(textTrimmed, "http://") && !strings.HasPrefix(textTrimmed, "https://") {
		return false
	}
	return textTrimmed == strings.ToLower(urlTrimmed)
}
