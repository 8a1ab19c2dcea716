package inliner

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// resourceRef is one resolved (for fetching) / original (for DOM replacement
// lookup) URL pair extracted from the document.
type resourceRef struct {
	resolvedURL string
	originalRef string
}

// extracted holds every resource reference pulled from a single DOM parse,
// plus any references that failed to resolve against the base URL — these
// feed straight into the result's failure list without ever reaching the
// download stage.
type extracted struct {
	css        []resourceRef
	images     []resourceRef
	svgs       []resourceRef
	extractErr []InliningError
}

// extractResources walks the parsed document exactly once, classifying
// img[src] elements by file extension the same way the original does: any
// src containing ".svg" is treated as SVG, everything else as a raster image.
func extractResources(doc *goquery.Document, base *url.URL) extracted {
	var out extracted

	doc.Find(`link[rel="stylesheet"]`).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		resolved, err := resolveURL(base, href)
		if err != nil {
			out.extractErr = append(out.extractErr, InliningError{URL: href, ResourceType: ResourceCSS, Err: err})
			return
		}
		out.css = append(out.css, resourceRef{resolvedURL: resolved, originalRef: href})
	})

	doc.Find(`img[src]`).Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || strings.HasPrefix(src, "data:") {
			return
		}
		resolved, err := resolveURL(base, src)
		rt := ResourceImage
		if strings.Contains(strings.ToLower(src), ".svg") {
			rt = ResourceSVG
		}
		if err != nil {
			out.extractErr = append(out.extractErr, InliningError{URL: src, ResourceType: rt, Err: err})
			return
		}
		ref := resourceRef{resolvedURL: resolved, originalRef: src}
		if rt == ResourceSVG {
			out.svgs = append(out.svgs, ref)
		} else {
			out.images = append(out.images, ref)
		}
	})

	return out
}

func resolveURL(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(u).String(), nil
}
