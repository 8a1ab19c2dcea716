// Package inliner downloads and inlines a page's external CSS, image, and SVG
// resources into a single self-contained HTML document.
package inliner

import (
	"time"

	"github.com/cyrup-ai/citescrape-go/internal/fingerprint"
)

// ResourceType identifies which class of resource a download/error belongs to,
// used for per-class size and timeout limits and for error reporting.
type ResourceType int

const (
	ResourceCSS ResourceType = iota
	ResourceImage
	ResourceSVG
)

func (t ResourceType) String() string {
	switch t {
	case ResourceCSS:
		return "CSS"
	case ResourceImage:
		return "Image"
	case ResourceSVG:
		return "SVG"
	default:
		return "Unknown"
	}
}

// InliningError records one resource that failed to resolve or download.
type InliningError struct {
	URL          string
	ResourceType ResourceType
	Err          error
}

func (e InliningError) Error() string {
	return e.ResourceType.String() + " " + e.URL + ": " + e.Err.Error()
}

// Result partitions the work done by Inline into the rewritten HTML and
// success/failure counts.
type Result struct {
	HTML      string
	Successes int
	Failures  []InliningError
}

// Total is the number of resources processed (downloaded or attempted).
func (r Result) Total() int { return r.Successes + len(r.Failures) }

// HasFailures reports whether any resource failed to inline.
func (r Result) HasFailures() bool { return len(r.Failures) > 0 }

// FailureRate is the fraction of processed resources that failed, in [0,1].
func (r Result) FailureRate() float64 {
	total := r.Total()
	if total == 0 {
		return 0
	}
	return float64(len(r.Failures)) / float64(total)
}

// Config bounds per-resource-class download size and timeout. Defaults mirror
// real-world CSS/image/SVG size distributions: CSS and SVG are text and stay
// small; images are the one class that legitimately reaches megabytes.
type Config struct {
	CSSTimeout   time.Duration
	ImageTimeout time.Duration
	SVGTimeout   time.Duration

	MaxCSSSize   int64
	MaxImageSize int64
	MaxSVGSize   int64

	// Concurrency bounds how many resource downloads run at once across all
	// three classes combined.
	Concurrency int

	// Fingerprint selects the TLS ClientHello profile used for resource
	// downloads, same as the crawler's robots.txt/sitemap fetcher. Empty
	// defaults to fingerprint.ProfileChrome.
	Fingerprint fingerprint.Profile
}

// fingerprintProfile returns the configured profile, defaulting to
// ProfileChrome when unset.
func (c Config) fingerprintProfile() fingerprint.Profile {
	if string(c.Fingerprint) == "" {
		return fingerprint.ProfileChrome
	}
	return c.Fingerprint
}

// DefaultConfig matches the original content-saver's production defaults.
func DefaultConfig() Config {
	return Config{
		CSSTimeout:   30 * time.Second,
		ImageTimeout: 60 * time.Second,
		SVGTimeout:   30 * time.Second,

		MaxCSSSize:   2 * 1024 * 1024,
		MaxImageSize: 5 * 1024 * 1024,
		MaxSVGSize:   1 * 1024 * 1024,

		Concurrency: 8,
		Fingerprint: fingerprint.ProfileChrome,
	}
}
