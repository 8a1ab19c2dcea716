package markdown

import "strings"

// lineType classifies a markdown line for blank-line-insertion purposes.
type lineType int

const (
	lineBlank lineType = iota
	lineHeading
	lineCodeFence
	lineListItem
	lineBlockquote
	lineHorizontalRule
	lineTable
	lineParagraph
)

// codeFence records the fence character and run length that opened a code block,
// so normalizeWhitespace can recognize the matching close.
type codeFence struct {
	char  byte
	count int
}

// detectCodeFence reports whether a (already left-trimmed) line opens or closes a
// fenced code block, returning the fence character and run length.
func detectCodeFence(trimmed string) (codeFence, bool) {
	if trimmed == "" {
		return codeFence{}, false
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return codeFence{}, false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return codeFence{}, false
	}
	return codeFence{char: c, count: n}, true
}

// classifyLine classifies a non-blank, right-trimmed line by structural role.
func classifyLine(line string) lineType {
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return lineBlank
	}

	// Shebangs ("#!/bin/bash") must never be mistaken for ATX headings.
	if strings.HasPrefix(trimmed, "#!") {
		return lineParagraph
	}

	if _, ok := detectCodeFence(trimmed); ok {
		return lineCodeFence
	}

	if strings.HasPrefix(trimmed, "#") {
		hashes := 0
		for hashes < len(trimmed) && trimmed[hashes] == '#' {
			hashes++
		}
		if hashes >= 1 && hashes <= 6 {
			rest := trimmed[hashes:]
			if rest == "" || strings.HasPrefix(rest, " ") {
				return lineHeading
			}
		}
	}

	if strings.HasPrefix(trimmed, "* ") || strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "+ ") {
		return lineListItem
	}

	if len(trimmed) > 0 && trimmed[0] >= '0' && trimmed[0] <= '9' {
		dot := strings.IndexByte(trimmed, '.')
		if dot > 0 && dot < 10 {
			numPart := trimmed[:dot]
			allDigits := true
			for _, r := range numPart {
				if r < '0' || r > '9' {
					allDigits = false
					break
				}
			}
			if allDigits {
				after := trimmed[dot+1:]
				if after == "" || strings.HasPrefix(after, " ") {
					return lineListItem
				}
			}
		}
	}

	if strings.HasPrefix(trimmed, ">") {
		return lineBlockquote
	}

	if isHorizontalRule(trimmed) {
		return lineHorizontalRule
	}

	if strings.HasPrefix(trimmed, "|") || strings.Contains(trimmed, "|") {
		return lineTable
	}

	return lineParagraph
}

// isHorizontalRule reports whether trimmed is a run of 3+ identical "-", "*" or
// "_" characters (interspersed with spaces), per CommonMark's thematic break rule.
func isHorizontalRule(trimmed string) bool {
	runes := []rune(trimmed)
	if len(runes) < 3 {
		return false
	}
	first := runes[0]
	if first != '-' && first != '*' && first != '_' {
		return false
	}
	count := 0
	for _, r := range runes {
		if r != first && r != ' ' {
			return false
		}
		if r == first {
			count++
		}
	}
	return count >= 3
}

// shouldAddBlankBefore reports whether a blank line must separate prev from
// current to keep the block structure unambiguous under CommonMark.
func shouldAddBlankBefore(prev, current lineType) bool {
	switch current {
	case lineHeading:
		switch prev {
		case lineParagraph, lineListItem, lineBlockquote, lineTable:
			return true
		}
	case lineCodeFence:
		switch prev {
		case lineParagraph, lineListItem, lineBlockquote, lineTable, lineHeading:
			return true
		}
	case lineHorizontalRule:
		switch prev {
		case lineParagraph, lineListItem, lineBlockquote, lineTable, lineHeading:
			return true
		}
	case lineBlockquote:
		switch prev {
		case lineParagraph, lineListItem, lineTable, lineHeading:
			return true
		}
	case lineListItem:
		switch prev {
		case lineParagraph, lineBlockquote, lineTable, lineHeading:
			return true
		}
	case lineTable:
		switch prev {
		case lineParagraph, lineBlockquote, lineHeading, lineListItem:
			return true
		}
	}
	return false
}

// shouldAddBlankAfter reports whether a blank line must follow a line of the
// given type regardless of what comes next.
func shouldAddBlankAfter(lt lineType) bool {
	return lt == lineHeading || lt == lineHorizontalRule
}

// normalizeWhitespace collapses consecutive blank lines to at most one, strips
// trailing whitespace outside code fences, inserts blank-line separators around
// structural elements per shouldAddBlankBefore/After, and trims leading/trailing
// blank lines from the document. Content inside fenced code blocks is preserved
// byte-for-byte, including trailing whitespace.
func normalizeWhitespace(markdown string) string {
	lines := strings.Split(markdown, "\n")

	var result []string
	var fence *codeFence
	consecutiveBlanks := 0
	var prevType *lineType

	for _, line := range lines {
		trimmedStart := strings.TrimLeft(line, " \t")

		if cf, ok := detectCodeFence(trimmedStart); ok {
			if fence != nil {
				if cf.char == fence.char && cf.count >= fence.count {
					fence = nil
					result = append(result, line)
					t := lineCodeFence
					prevType = &t
					consecutiveBlanks = 0
					continue
				}
			} else {
				if prevType != nil && shouldAddBlankBefore(*prevType, lineCodeFence) && consecutiveBlanks == 0 {
					result = append(result, "")
				}
				fence = &codeFence{char: cf.char, count: cf.count}
				result = append(result, line)
				t := lineCodeFence
				prevType = &t
				consecutiveBlanks = 0
				continue
			}
		}

		if fence != nil {
			result = append(result, line)
			consecutiveBlanks = 0
			continue
		}

		trimmedEnd := strings.TrimRight(line, " \t")

		if trimmedEnd == "" {
			consecutiveBlanks++
			if consecutiveBlanks == 1 {
				result = append(result, "")
				t := lineBlank
				prevType = &t
			}
			continue
		}

		current := classifyLine(trimmedEnd)

		if prevType != nil && shouldAddBlankBefore(*prevType, current) && consecutiveBlanks == 0 {
			result = append(result, "")
		}

		result = append(result, trimmedEnd)

		if shouldAddBlankAfter(current) {
			result = append(result, "")
			t := lineBlank
			prevType = &t
			consecutiveBlanks = 1
		} else {
			prevType = &current
			consecutiveBlanks = 0
		}
	}

	// An unclosed fence is left unclosed; downstream heading processing recovers it.

	start := -1
	end := -1
	for i, l := range result {
		if l != "" {
			if start == -1 {
				start = i
			}
			end = i
		}
	}
	if start == -1 {
		return ""
	}
	return strings.Join(result[start:end+1], "\n")
}
