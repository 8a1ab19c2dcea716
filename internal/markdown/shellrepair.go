package markdown

import (
	"regexp"
	"strings"
)

// Shell syntax repair patterns. HTML-to-Markdown flattening frequently strips the
// whitespace shell snippets depend on for readability (and, in code examples,
// correctness); these regexes restore it. Order matters (see repairShellCodeBlock):
// double-character operators must be fixed before their single-character prefixes,
// or the single-operator pattern would re-mangle the pair it just fixed.
var (
	spaceAfterBracketKeyword = regexp.MustCompile(`\b(if|while|elif|until)\[`)
	spaceBeforeClosingBracket = regexp.MustCompile(`(["\w\$\}])\]`)
	spaceAfterOpeningBracket  = regexp.MustCompile(`\[([-"$\w])`)
	spaceAroundOperators      = regexp.MustCompile(`(["\w\}])(!?=)(["\w$])`)
	spaceAfterBracketSemicolon = regexp.MustCompile(`\];(then|do|else)`)
	spaceAroundTestOperators  = regexp.MustCompile(`\$(\w+)(-eq|-ne|-lt|-le|-gt|-ge)(\d+|\$\w+)`)
	spaceAfterTestFlag        = regexp.MustCompile(`-([a-z])(["$])`)
	spaceBeforeQuotedArg      = regexp.MustCompile(`([a-zA-Z])(["'])(\w)`)
	spaceAroundPipe           = regexp.MustCompile(`(\S)\|(\S)`)
	spaceAroundDoublePipe     = regexp.MustCompile(`(\S)\|\|(\S)`)
	spaceAroundDoubleAmp      = regexp.MustCompile(`(\S)&&(\S)`)
	spaceAroundRedirectAppend = regexp.MustCompile(`(\S)>>(\S)`)
	spaceAroundRedirectOut    = regexp.MustCompile(`(\S)>(\S)`)
	spaceAroundRedirectIn     = regexp.MustCompile(`(\S)<(\S)`)
	spaceAroundBackground     = regexp.MustCompile(`(\S)&(\S)`)
)

// isShellLanguage reports whether a fenced code block's language tag indicates
// shell script content.
func isShellLanguage(lang string) bool {
	switch strings.ToLower(lang) {
	case "bash", "sh", "zsh", "shell":
		return true
	default:
		return false
	}
}

// extractFenceLanguage pulls the language identifier off a fence opening line
// such as "```bash" or "~~~ sh".
func extractFenceLanguage(fenceLine string) string {
	withoutFence := strings.TrimLeft(fenceLine, "`~")
	fields := strings.Fields(withoutFence)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// repairShellSyntax restores spacing mangled by HTML flattening within bash/sh/
// zsh/shell fenced code blocks. It is idempotent: running it twice on the same
// input produces the same output, since every pattern inserts a space only where
// exactly one was missing.
func repairShellSyntax(md string) string {
	var out strings.Builder
	out.Grow(len(md))

	inCodeBlock := false
	currentLanguage := ""
	var codeBuffer []string

	lines := strings.Split(md, "\n")
	// strings.Split on a string ending in \n produces a trailing empty element;
	// track whether the input had a trailing newline so we don't invent one.
	hadTrailingNewline := strings.HasSuffix(md, "\n")
	if hadTrailingNewline && len(lines) > 0 {
		lines = lines[:len(lines)-1]
	}

	flushCode := func(closingFence string) {
		var repaired string
		if isShellLanguage(currentLanguage) {
			repaired = repairShellCodeBlock(strings.Join(codeBuffer, "\n"))
		} else {
			repaired = strings.Join(codeBuffer, "\n")
		}
		for _, l := range strings.Split(repaired, "\n") {
			out.WriteString(l)
			out.WriteByte('\n')
		}
		if closingFence != "" {
			out.WriteString(closingFence)
			out.WriteByte('\n')
		}
		inCodeBlock = false
		currentLanguage = ""
		codeBuffer = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")

		switch {
		case strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~"):
			if inCodeBlock {
				flushCode(line)
			} else {
				currentLanguage = extractFenceLanguage(trimmed)
				inCodeBlock = true
				out.WriteString(line)
				out.WriteByte('\n')
			}
		case inCodeBlock:
			codeBuffer = append(codeBuffer, line)
		default:
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}

	// Unclosed code block: flush buffered content verbatim so a downstream
	// auto-close recovery pass (heading processing) can handle it.
	if inCodeBlock && len(codeBuffer) > 0 {
		for _, l := range codeBuffer {
			out.WriteString(l)
			out.WriteByte('\n')
		}
	}

	result := out.String()
	if !hadTrailingNewline {
		result = strings.TrimSuffix(result, "\n")
	}
	return result
}

// repairShellCodeBlock applies every shell-spacing pattern in sequence. Order
// matters for correctness: double-character operators are fixed before their
// single-character prefixes so the single-operator pass doesn't re-mangle a pair
// it just repaired.
func repairShellCodeBlock(code string) string {
	r := code

	r = spaceAfterBracketKeyword.ReplaceAllString(r, "$1 [")
	r = spaceAfterOpeningBracket.ReplaceAllString(r, "[ $1")
	r = spaceAfterTestFlag.ReplaceAllString(r, "-$1 $2")
	r = spaceBeforeQuotedArg.ReplaceAllString(r, "$1 $2$3")
	r = spaceBeforeClosingBracket.ReplaceAllString(r, "$1 ]")
	r = spaceAroundOperators.ReplaceAllString(r, "$1 $2 $3")
	// Reinsert the captured variable name after the leading literal "$" by hand:
	// Go's replacement-template syntax has no escape for a literal "$" immediately
	// followed by a numbered group reference.
	r = spaceAroundTestOperators.ReplaceAllStringFunc(r, func(m string) string {
		sub := spaceAroundTestOperators.FindStringSubmatch(m)
		return "$" + sub[1] + " " + sub[2] + " " + sub[3]
	})
	r = spaceAfterBracketSemicolon.ReplaceAllString(r, "]; $1")
	r = spaceAroundDoublePipe.ReplaceAllString(r, "$1 || $2")
	r = spaceAroundDoubleAmp.ReplaceAllString(r, "$1 && $2")
	r = spaceAroundRedirectAppend.ReplaceAllString(r, "$1 >> $2")
	r = spaceAroundPipe.ReplaceAllString(r, "$1 | $2")
	r = spaceAroundRedirectOut.ReplaceAllString(r, "$1 > $2")
	r = spaceAroundRedirectIn.ReplaceAllString(r, "$1 < $2")
	r = spaceAroundBackground.ReplaceAllString(r, "$1 & $2")

	return r
}
