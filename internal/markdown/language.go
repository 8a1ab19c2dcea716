package markdown

import "regexp"

// patternCategory mirrors the original's weighted-scoring scheme: a pattern's
// specificity to a language determines how much it contributes to that
// language's score when matched against a code block's raw text.
type patternCategory int

const (
	categoryUnique patternCategory = iota
	categoryStrong
	categoryMedium
	categoryNegative
)

func (c patternCategory) weight() int {
	switch c {
	case categoryUnique:
		return 10
	case categoryStrong:
		return 8
	case categoryMedium:
		return 5
	case categoryNegative:
		return -10
	default:
		return 0
	}
}

type weightedPattern struct {
	re       *regexp.Regexp
	category patternCategory
}

func pat(expr string, cat patternCategory) weightedPattern {
	return weightedPattern{re: regexp.MustCompile(expr), category: cat}
}

type languageDefinition struct {
	name     string
	patterns []weightedPattern
}

// languageDefinitions is a representative port of the original's weighted
// pattern tables: a handful of Unique/Strong/Medium/Negative signals per
// language rather than its full catalogue, enough to separate the languages
// that actually show up in saved documentation and blog-post code samples.
var languageDefinitions = []languageDefinition{
	{
		name: "rust",
		patterns: []weightedPattern{
			pat(`fn\s+\w+\s*\([^)]*\)\s*->`, categoryUnique),
			pat(`impl\s+\w+(\s+for\s+\w+)?\s*\{`, categoryUnique),
			pat(`#\[derive\(`, categoryUnique),
			pat(`\.unwrap\(\)`, categoryUnique),
			pat(`\b(println|eprintln|print|format|vec|panic)!\(`, categoryStrong),
			pat(`let\s+mut\s`, categoryStrong),
			pat(`pub\s+fn\s`, categoryStrong),
			pat(`::new\(\)`, categoryMedium),
			pat(`\bfunction\s+\w+`, categoryNegative),
			pat(`\bdef\s+\w+\s*\(`, categoryNegative),
		},
	},
	{
		name: "python",
		patterns: []weightedPattern{
			pat(`def\s+\w+\s*\([^)]*\)\s*:`, categoryUnique),
			pat(`if\s+__name__\s*==\s*['"]__main__['"]`, categoryUnique),
			pat(`from\s+\w+\s+import\s`, categoryUnique),
			pat(`self\.\w+`, categoryUnique),
			pat(`@staticmethod\b`, categoryStrong),
			pat(`elif\s`, categoryStrong),
			pat(`\bNone\b`, categoryMedium),
			pat(`\bTrue\b|\bFalse\b`, categoryMedium),
			pat(`;\s*$`, categoryNegative),
		},
	},
	{
		name: "javascript",
		patterns: []weightedPattern{
			pat(`\bconst\s+\w+\s*=\s*require\(`, categoryUnique),
			pat(`=>\s*\{`, categoryStrong),
			pat(`\bfunction\s*\(`, categoryStrong),
			pat(`console\.log\(`, categoryStrong),
			pat(`\bexport\s+default\s`, categoryMedium),
			pat(`\blet\s+\w+\s*=`, categoryMedium),
			pat(`:\s*\w+(\[\])?\s*=>`, categoryNegative),
			pat(`\binterface\s+\w+\s*\{`, categoryNegative),
		},
	},
	{
		name: "typescript",
		patterns: []weightedPattern{
			pat(`:\s*(string|number|boolean|void|any|unknown)\b`, categoryUnique),
			pat(`\binterface\s+\w+\s*\{`, categoryUnique),
			pat(`\bexport\s+type\s+\w+\s*=`, categoryUnique),
			pat(`<\w+>\(`, categoryStrong),
			pat(`\bas\s+\w+\b`, categoryMedium),
			pat(`\bfunction\s*\(`, categoryMedium),
		},
	},
	{
		name: "go",
		patterns: []weightedPattern{
			pat(`\bfunc\s+\(\w+\s+\*?\w+\)\s+\w+\(`, categoryUnique),
			pat(`\bpackage\s+\w+\b`, categoryUnique),
			pat(`:=\s*`, categoryUnique),
			pat(`\bfunc\s+\w+\(`, categoryStrong),
			pat(`\bchan\s+\w+`, categoryStrong),
			pat(`\bgo\s+func\(`, categoryStrong),
			pat(`\berr\s*!=\s*nil\b`, categoryMedium),
			pat(`\bdef\s+\w+\s*\(`, categoryNegative),
		},
	},
	{
		name: "java",
		patterns: []weightedPattern{
			pat(`public\s+class\s+\w+`, categoryUnique),
			pat(`public\s+static\s+void\s+main\(`, categoryUnique),
			pat(`System\.out\.println\(`, categoryUnique),
			pat(`@Override\b`, categoryStrong),
			pat(`\bprivate\s+final\s+\w+`, categoryStrong),
			pat(`\bnew\s+\w+\(`, categoryMedium),
			pat(`\bfunc\s+\w+`, categoryNegative),
		},
	},
	{
		name: "c",
		patterns: []weightedPattern{
			pat(`#include\s*<\w+\.h>`, categoryUnique),
			pat(`\bint\s+main\s*\(\s*(void|int\s+argc)`, categoryUnique),
			pat(`\bprintf\s*\(`, categoryStrong),
			pat(`\bmalloc\s*\(`, categoryStrong),
			pat(`\bstruct\s+\w+\s*\{`, categoryMedium),
			pat(`\bclass\s+\w+`, categoryNegative),
		},
	},
	{
		name: "cpp",
		patterns: []weightedPattern{
			pat(`#include\s*<iostream>`, categoryUnique),
			pat(`\bstd::\w+`, categoryUnique),
			pat(`\btemplate\s*<`, categoryUnique),
			pat(`\bcout\s*<<`, categoryStrong),
			pat(`\bnamespace\s+\w+\s*\{`, categoryStrong),
			pat(`\bclass\s+\w+\s*:\s*public\b`, categoryMedium),
		},
	},
	{
		name: "ruby",
		patterns: []weightedPattern{
			pat(`\bdef\s+\w+[\?!]?\s*\n`, categoryUnique),
			pat(`\bend\b\s*$`, categoryUnique),
			pat(`\battr_accessor\b`, categoryUnique),
			pat(`\bputs\s`, categoryStrong),
			pat(`\bmodule\s+\w+\b`, categoryStrong),
			pat(`do\s*\|\w+\|`, categoryMedium),
			pat(`\bfunction\s+\w+`, categoryNegative),
		},
	},
	{
		name: "php",
		patterns: []weightedPattern{
			pat(`<\?php\b`, categoryUnique),
			pat(`\$\w+\s*=`, categoryUnique),
			pat(`\bfunction\s+\w+\s*\([^)]*\)\s*\{`, categoryStrong),
			pat(`->\w+\(`, categoryMedium),
			pat(`\becho\s`, categoryMedium),
		},
	},
	{
		name: "shell",
		patterns: []weightedPattern{
			pat(`^#!/(usr/bin/env\s+)?(bash|sh|zsh)`, categoryUnique),
			pat(`\$\{\w+\}`, categoryStrong),
			pat(`\bfi\b\s*$`, categoryStrong),
			pat(`\bdone\b\s*$`, categoryStrong),
			pat(`^\s*export\s+\w+=`, categoryMedium),
			pat(`\|\|\s*exit\b`, categoryMedium),
		},
	},
	{
		name: "powershell",
		patterns: []weightedPattern{
			pat(`\$\w+\s*=\s*Get-`, categoryUnique),
			pat(`\bparam\s*\(`, categoryUnique),
			pat(`Write-Host\b`, categoryStrong),
			pat(`\[Parameter\(`, categoryStrong),
			pat(`-eq\b|-ne\b|-gt\b`, categoryMedium),
		},
	},
	{
		name: "sql",
		patterns: []weightedPattern{
			pat(`(?i)\bSELECT\s+.+\s+FROM\s+\w+`, categoryUnique),
			pat(`(?i)\bCREATE\s+TABLE\s+\w+`, categoryUnique),
			pat(`(?i)\bINSERT\s+INTO\s+\w+`, categoryStrong),
			pat(`(?i)\bWHERE\s+\w+\s*=`, categoryMedium),
			pat(`(?i)\bJOIN\s+\w+\s+ON\b`, categoryMedium),
		},
	},
	{
		name: "toml",
		patterns: []weightedPattern{
			pat(`^\[\[?[\w.]+\]\]?\s*$`, categoryUnique),
			pat(`^\w[\w.-]*\s*=\s*["\[{]`, categoryStrong),
			pat(`^\w[\w.-]*\s*=\s*\d`, categoryMedium),
		},
	},
	{
		name: "yaml",
		patterns: []weightedPattern{
			pat(`^---\s*$`, categoryUnique),
			pat(`^\s*- \w+:`, categoryStrong),
			pat(`^\w[\w.-]*:\s*$`, categoryMedium),
			pat(`^\w[\w.-]*:\s+\S`, categoryMedium),
			pat(`;\s*$`, categoryNegative),
		},
	},
	{
		name: "json",
		patterns: []weightedPattern{
			pat(`^\s*\{`, categoryUnique),
			pat(`"\w+"\s*:\s*"`, categoryStrong),
			pat(`"\w+"\s*:\s*[\d\[{]`, categoryStrong),
			pat(`^\s*//`, categoryNegative),
		},
	},
	{
		name: "css",
		patterns: []weightedPattern{
			pat(`[.#]?[\w-]+\s*\{[^}]*:\s*[^}]+;`, categoryUnique),
			pat(`@media\s*\(`, categoryStrong),
			pat(`:\s*#[0-9a-fA-F]{3,6}\b`, categoryMedium),
		},
	},
	{
		name: "html",
		patterns: []weightedPattern{
			pat(`(?i)<!doctype html>`, categoryUnique),
			pat(`(?i)</?(div|span|html|body|head)\b`, categoryStrong),
			pat(`(?i)<\w+[^>]*>`, categoryMedium),
		},
	},
	{
		name: "xml",
		patterns: []weightedPattern{
			pat(`^<\?xml\s+version=`, categoryUnique),
			pat(`</\w+:\w+>`, categoryStrong),
			pat(`(?i)<\w+[^>]*/?>`, categoryMedium),
		},
	},
}

// inferLanguage scores raw fenced-code text against every language's pattern
// table and returns the name of the highest-scoring language, or "" when no
// language scores positively — an untagged fence is preferable to a wrong guess.
func inferLanguage(code string) string {
	best := ""
	bestScore := 0
	for _, def := range languageDefinitions {
		score := 0
		for _, p := range def.patterns {
			if p.re.MatchString(code) {
				score += p.category.weight()
			}
		}
		if score > bestScore {
			bestScore = score
			best = def.name
		}
	}
	return best
}
