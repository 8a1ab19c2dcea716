package markdown

// postprocess runs the full markdown post-processing pipeline in the order
// that keeps each pass's preconditions intact: shell syntax repair first
// (before whitespace normalization can collapse blank lines around fences),
// whitespace normalization and heading canonicalization next (both reason
// about fence state line-by-line), then the purely textual regex passes.
func postprocess(md string) string {
	md = repairShellSyntax(md)
	md = normalizeWhitespace(md)
	md = processMarkdownHeadings(md)
	md = normalizeInlineFormattingSpacing(md)
	md = fixBoldInternalSpacing(md)
	md = fixAngleBracketSpacing(md)
	md = fixHTMLTagSpacing(md)
	md = simplifyURLAsLinkText(md)
	return md
}
