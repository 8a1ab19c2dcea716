// Package imurl provides an immutable, cheaply-shared URL value used as the
// canonical identity for pages across the crawler, link index, and search engine.
package imurl

import (
	"fmt"
	"net/url"
	"strings"
)

// URL is an immutable wrapper around a parsed absolute URL. The canonical string
// form is computed once at parse time; every mutator returns a new URL rather than
// modifying the receiver, so instances may be freely shared across goroutines.
type URL struct {
	str string
	u   *url.URL
}

// Parse parses input as an absolute URL.
func Parse(input string) (URL, error) {
	u, err := url.Parse(input)
	if err != nil {
		return URL{}, fmt.Errorf("imurl: invalid url %q: %w", input, err)
	}
	return URL{str: u.String(), u: u}, nil
}

// MustParse parses input, panicking on error. Intended for tests and constants.
func MustParse(input string) URL {
	u, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return u
}

// String returns the canonical string form.
func (u URL) String() string { return u.str }

// Scheme returns the URL scheme.
func (u URL) Scheme() string { return u.u.Scheme }

// Host returns the hostname, without port.
func (u URL) Host() string { return u.u.Hostname() }

// Port returns the port, or "" if unset.
func (u URL) Port() string { return u.u.Port() }

// Path returns the URL path.
func (u URL) Path() string { return u.u.Path }

// Query returns the raw query string.
func (u URL) Query() string { return u.u.RawQuery }

// Fragment returns the fragment, without leading '#'.
func (u URL) Fragment() string { return u.u.Fragment }

// Valid reports whether the URL was successfully parsed.
func (u URL) Valid() bool { return u.u != nil }

func (u URL) clone() *url.URL {
	cp := *u.u
	return &cp
}

func (u URL) rebuild(mutate func(*url.URL)) (URL, error) {
	cp := u.clone()
	mutate(cp)
	return Parse(cp.String())
}

// WithPath returns a copy with the path replaced.
func (u URL) WithPath(path string) (URL, error) {
	return u.rebuild(func(cp *url.URL) { cp.Path = path })
}

// WithQuery returns a copy with the raw query replaced.
func (u URL) WithQuery(query string) (URL, error) {
	return u.rebuild(func(cp *url.URL) { cp.RawQuery = query })
}

// WithFragment returns a copy with the fragment replaced.
func (u URL) WithFragment(fragment string) (URL, error) {
	return u.rebuild(func(cp *url.URL) { cp.Fragment = fragment })
}

// WithoutFragment returns a copy with the fragment removed. This is essential for
// deduplication during crawling, where fragment anchors (#section) identify the
// same HTTP resource.
func (u URL) WithoutFragment() (URL, error) {
	return u.rebuild(func(cp *url.URL) { cp.Fragment = "" })
}

// WithScheme returns a copy with the scheme replaced.
func (u URL) WithScheme(scheme string) (URL, error) {
	return u.rebuild(func(cp *url.URL) { cp.Scheme = scheme })
}

// WithHost returns a copy with the host replaced.
func (u URL) WithHost(host string) (URL, error) {
	return u.rebuild(func(cp *url.URL) { cp.Host = hostWithPort(host, cp.Port()) })
}

// WithPort returns a copy with the port replaced.
func (u URL) WithPort(port string) (URL, error) {
	return u.rebuild(func(cp *url.URL) { cp.Host = hostWithPort(cp.Hostname(), port) })
}

func hostWithPort(host, port string) string {
	if port == "" {
		return host
	}
	return host + ":" + port
}

// ResolveReference resolves ref (which may be relative) against u as a base URL,
// mirroring url.URL.ResolveReference but returning a URL.
func (u URL) ResolveReference(ref string) (URL, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return URL{}, fmt.Errorf("imurl: invalid reference %q: %w", ref, err)
	}
	resolved := u.u.ResolveReference(r)
	return URL{str: resolved.String(), u: resolved}, nil
}

// Normalize returns the canonical form used as an index key: lowercase
// scheme/host, default ports (80/443) stripped, trailing slash stripped unless the
// path is root, fragment dropped, query preserved verbatim.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("imurl: invalid url %q: %w", raw, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if port := u.Port(); port != "" {
		if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
			u.Host = u.Hostname()
		}
	}

	if len(u.Path) > 1 && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}
