package inliner

import "github.com/PuerkitoBio/goquery"

// applyReplacements performs the single DOM mutation pass after all
// downloads complete: stylesheet links become inline <style> elements,
// images matched in the SVG map are replaced by their inlined markup (svg
// replacement takes priority since it removes the element outright), and
// everything else matched in the image map gets its src swapped for a data
// URL.
func applyReplacements(doc *goquery.Document, css, images, svgs map[string]string) {
	if len(css) > 0 {
		doc.Find(`link[rel="stylesheet"]`).Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok {
				return
			}
			content, ok := css[href]
			if !ok {
				return
			}
			s.BeforeHtml(`<style type="text/css">` + "\n" + content + "\n</style>")
			s.Remove()
		})
	}

	if len(images) == 0 && len(svgs) == 0 {
		return
	}
	doc.Find(`img[src]`).Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok {
			return
		}
		if svgContent, ok := svgs[src]; ok {
			s.BeforeHtml(svgContent)
			s.Remove()
			return
		}
		if dataURL, ok := images[src]; ok {
			s.SetAttr("src", dataURL)
		}
	})
}
