package pagesave

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// localPathFor computes the on-disk destination for target under outDir:
// {out_dir}/{host}/{url_path}/index.md(.gz).
func localPathFor(outDir, target string, gzip bool) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}

	host := sanitizeComponent(u.Hostname())
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	dir := filepath.Join(outDir, host)
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		dir = filepath.Join(dir, sanitizeComponent(seg))
	}

	name := "index.md"
	if gzip {
		name = "index.md.gz"
	}
	return filepath.Join(dir, name), nil
}

// sanitizeComponent strips path separators and parent-directory references
// from a single URL path segment so it cannot escape outDir.
func sanitizeComponent(seg string) string {
	seg = strings.ReplaceAll(seg, "/", "_")
	seg = strings.ReplaceAll(seg, `\`, "_")
	if seg == ".." || seg == "." || seg == "" {
		return "_"
	}
	return seg
}

// ensureGitignore lazily writes a "*" .gitignore at the host directory root
// so generated output doesn't get checked into the caller's own repo by
// accident.
func ensureGitignore(hostDir string) error {
	path := filepath.Join(hostDir, ".gitignore")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte("*\n"), 0o644)
}

// hostDirFor returns {out_dir}/{host} for target.
func hostDirFor(outDir, target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	return filepath.Join(outDir, sanitizeComponent(u.Hostname())), nil
}
