package search

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// maxWalkDepth bounds recursion so a symlink cycle or pathological tree
// cannot run discovery forever.
const maxWalkDepth = 100

// hiddenPrefix marks directories discovery never descends into.
const hiddenPrefix = "."

// skipDirs are build/VCS directories that never hold saved pages.
var skipDirs = map[string]struct{}{
	"node_modules": {},
	"target":       {},
	"dist":         {},
	"build":        {},
	".git":         {},
	"__pycache__":  {},
}

// DiscoveredFile is one candidate page found under an output directory.
type DiscoveredFile struct {
	// AbsPath is the file's path on disk.
	AbsPath string
	// URL is the page's reconstructed remote URL.
	URL string
	// Domain is the URL's host component.
	Domain string
}

// Discover walks root looking for saved pages (files named index.md or
// index.md.gz), skipping hidden and build directories and capping recursion
// at maxWalkDepth. For each match it reconstructs the page's original URL
// from its path relative to root. Results are returned sorted by AbsPath for
// deterministic batching; files that reconstruct to the same URL are kept
// once (the first by AbsPath).
func Discover(root string) ([]DiscoveredFile, error) {
	root = filepath.Clean(root)
	rootLen := len(root)

	var out []DiscoveredFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		depth := strings.Count(rel, string(filepath.Separator)) + 1

		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, hiddenPrefix) {
				return filepath.SkipDir
			}
			if _, skip := skipDirs[name]; skip {
				return filepath.SkipDir
			}
			if depth > maxWalkDepth {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if name != "index.md" && name != "index.md.gz" {
			return nil
		}

		url, domain, ok := extractURLFromPathCore(path, rootLen)
		if !ok {
			return nil
		}

		out = append(out, DiscoveredFile{AbsPath: path, URL: url, Domain: domain})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].AbsPath < out[j].AbsPath })
	seen := make(map[string]struct{}, len(out))
	deduped := out[:0]
	for _, f := range out {
		if _, dup := seen[f.URL]; dup {
			continue
		}
		seen[f.URL] = struct{}{}
		deduped = append(deduped, f)
	}
	return deduped, nil
}

// extractURLFromPathCore reconstructs a page's original URL from its path on
// disk, given the length of the root prefix to strip. The first path
// component below root is the domain; everything after it is the URL path.
// Ported from the original indexer's extract_url_from_path_core, which
// required the path to end in "/index.md(.gz)" and validated each component.
func extractURLFromPathCore(path string, rootLen int) (url string, domain string, ok bool) {
	if len(path) < rootLen {
		return "", "", false
	}
	rest := path[rootLen:]
	rest = strings.Trim(rest, string(filepath.Separator))
	rest = filepath.ToSlash(rest)

	const suffixPlain = "/index.md"
	const suffixGz = "/index.md.gz"
	var trimmed string
	switch {
	case strings.HasSuffix(rest, suffixGz):
		trimmed = strings.TrimSuffix(rest, suffixGz)
	case strings.HasSuffix(rest, suffixPlain):
		trimmed = strings.TrimSuffix(rest, suffixPlain)
	default:
		return "", "", false
	}
	if trimmed == "" {
		return "", "", false
	}

	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 {
		return "", "", false
	}

	domain = parts[0]
	if !isValidDomain(domain) {
		return "", "", false
	}

	pathParts := parts[1:]
	for _, p := range pathParts {
		if !isValidPathComponent(p) {
			return "", "", false
		}
	}

	if len(pathParts) == 0 {
		return "https://" + domain + "/", domain, true
	}
	return "https://" + domain + "/" + strings.Join(pathParts, "/") + "/", domain, true
}

// isValidDomain mirrors the original's is_valid_domain: non-empty, at most
// 253 characters, ASCII alphanumeric/dot/hyphen only, no leading or trailing
// dot or hyphen, and must contain at least one dot.
func isValidDomain(domain string) bool {
	if domain == "" || len(domain) > 253 {
		return false
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	if strings.HasPrefix(domain, "-") || strings.HasSuffix(domain, "-") {
		return false
	}
	if !strings.Contains(domain, ".") {
		return false
	}
	for _, r := range domain {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '-':
		default:
			return false
		}
	}
	return true
}

// isValidPathComponent mirrors the original's is_valid_path_component:
// non-empty, at most 255 characters, and never "..".
func isValidPathComponent(component string) bool {
	if component == "" || len(component) > 255 {
		return false
	}
	if component == ".." {
		return false
	}
	return true
}
