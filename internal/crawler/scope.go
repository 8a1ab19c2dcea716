package crawler

import (
	"net/url"
	"strings"
)

// disallowedSchemes are never enqueued, even if otherwise in scope.
var disallowedSchemes = map[string]struct{}{
	"data":       {},
	"javascript": {},
	"mailto":     {},
}

// inScope reports whether rawURL belongs to the crawl's scope: http(s) only,
// not a disallowed scheme, and either an exact match of seedHost or (when
// allowSubdomains is set) a subdomain of it.
func inScope(rawURL, seedHost string, allowSubdomains bool) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	scheme := strings.ToLower(u.Scheme)
	if _, blocked := disallowedSchemes[scheme]; blocked {
		return "", false
	}
	if scheme != "http" && scheme != "https" {
		return "", false
	}

	if seedHost != "" {
		host := strings.ToLower(u.Hostname())
		seed := strings.ToLower(seedHost)
		if host != seed {
			if !allowSubdomains || !strings.HasSuffix(host, "."+seed) {
				return "", false
			}
		}
	}

	u.Fragment = ""
	return u.String(), true
}

// contentTypeAllowed reports whether contentType matches one of the
// configured allow-list substrings (case-insensitive). An empty allow-list
// admits everything.
func contentTypeAllowed(allowed []string, contentType string) bool {
	if len(allowed) == 0 {
		return true
	}
	ct := strings.ToLower(contentType)
	for _, a := range allowed {
		if strings.Contains(ct, strings.ToLower(a)) {
			return true
		}
	}
	return false
}
