package markdown

import "strings"

// getAttr returns an element's attribute value, treating a whitespace-only
// value as absent.
func getAttr(attrs map[string]string, name string) (string, bool) {
	v, ok := attrs[name]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// isWidgetElementWithContext applies the full UI-chrome filter, except inside
// a table cell (th/td), where only aria-hidden="true" elements and
// interactive widgets are filtered — table markup commonly carries
// sr-only/visually-hidden spans that describe column semantics, and those
// must survive.
func isWidgetElementWithContext(attrs map[string]string, parentTag string) bool {
	if parentTag == "th" || parentTag == "td" {
		if ariaHidden, ok := getAttr(attrs, "aria-hidden"); ok && strings.EqualFold(strings.TrimSpace(ariaHidden), "true") {
			return true
		}
		return isInteractiveWidget(attrs)
	}
	return isWidgetElement(attrs)
}

func isInteractiveWidget(attrs map[string]string) bool {
	if class, ok := getAttr(attrs, "class"); ok {
		classLower := strings.ToLower(class)
		interactivePatterns := []string{
			"copy", "clipboard", "toolbar", "button", "menu", "social", "share",
			"follow", "cookie", "popup", "modal", "overlay", "ad-", "ads-",
			"advertisement", "theme-toggle", "mobile-menu", "hamburger",
			"menu-toggle", "search-button",
		}
		for _, p := range interactivePatterns {
			if strings.Contains(classLower, p) {
				return true
			}
		}
	}

	if role, ok := getAttr(attrs, "role"); ok {
		switch strings.ToLower(role) {
		case "button", "menuitem", "tab", "switch":
			return true
		}
	}

	for name, value := range attrs {
		dataName, ok := strings.CutPrefix(name, "data-")
		if !ok {
			continue
		}
		_ = value
		if strings.Contains(dataName, "clipboard") || strings.Contains(dataName, "copy") ||
			dataName == "action" || dataName == "command" {
			return true
		}
	}

	return false
}

// isWidgetElement reports whether an element is UI chrome — social/share
// widgets, cookie/ad/modal overlays, copy/clipboard and toolbar controls,
// documentation-framework action buttons, screen-reader-only instructions,
// skip-navigation links, or footer legal/meta chrome — that has no place in
// saved article content. aria-hidden="true" is checked first since it is the
// author's own explicit signal that the element is decorative.
func isWidgetElement(attrs map[string]string) bool {
	if ariaHidden, ok := getAttr(attrs, "aria-hidden"); ok {
		if strings.EqualFold(strings.TrimSpace(ariaHidden), "true") {
			return true
		}
	}

	if class, ok := getAttr(attrs, "class"); ok {
		classLower := strings.ToLower(class)
		classPatterns := []string{
			"social", "share", "follow", "cookie", "popup", "modal", "overlay",
			"ad-", "ads-", "advertisement",
			"copy", "clipboard",
			"toolbar", "code-actions", "code-header",
			"theme-toggle", "mobile-menu", "hamburger", "menu-toggle", "search-button",
			"sl-copy", "vp-copy", "nextra-copy", "docusaurus", "edit-page", "share-page", "print-button",
			"sr-only", "screen-reader-only", "visually-hidden",
			"skip-link", "skip-to-content", "skip-to-main", "skip-nav", "skiplink", "skip-to-main-content",
			"ai-assist", "ai-button", "ask-ai",
			"shiki-toolbar", "prism-toolbar", "hljs-toolbar",
			"footer-chrome", "page-footer", "site-footer", "disclaimer", "legal", "copyright", "page-meta", "document-meta",
			"keyboard", "shortcut", "hotkey", "keybinding", "key-combo", "kbd-indicator",
			"assistant", "ai-disclaimer", "chatbot-disclaimer", "ai-notice", "ai-indicator", "bot-indicator",
		}
		for _, p := range classPatterns {
			if strings.Contains(classLower, p) {
				return true
			}
		}
	}

	if id, ok := getAttr(attrs, "id"); ok {
		idLower := strings.ToLower(id)
		idPatterns := []string{"cookie", "popup", "modal", "overlay", "ad-", "ads-", "toolbar", "actions", "controls"}
		for _, p := range idPatterns {
			if strings.Contains(idLower, p) {
				return true
			}
		}
	}

	for name := range attrs {
		dataName, ok := strings.CutPrefix(name, "data-")
		if !ok {
			continue
		}
		if strings.Contains(dataName, "clipboard") || strings.Contains(dataName, "copy") ||
			dataName == "action" || dataName == "command" || strings.Contains(dataName, "theme") {
			return true
		}
	}

	if ariaLabel, ok := getAttr(attrs, "aria-label"); ok {
		labelLower := strings.ToLower(ariaLabel)
		labelPatterns := []string{"copy", "print", "ai", "skip", "jump to"}
		for _, p := range labelPatterns {
			if strings.Contains(labelLower, p) {
				return true
			}
		}
	}

	if role, ok := getAttr(attrs, "role"); ok {
		roleLower := strings.ToLower(role)
		switch roleLower {
		case "button", "menuitem", "tab", "switch":
			return true
		}
		if strings.Contains(roleLower, "contentinfo") || strings.Contains(roleLower, "complementary") {
			return true
		}
	}

	return false
}

// isThemeVariantImage reports whether an <img> is a hidden dark/light-mode
// alternate that should be dropped in favor of its sibling. When both a dark
// and light variant exist and neither is otherwise marked hidden, the dark
// one is treated as the variant to drop so the light image survives.
func isThemeVariantImage(attrs map[string]string) bool {
	if ariaHidden, ok := getAttr(attrs, "aria-hidden"); ok && ariaHidden == "true" {
		return true
	}

	if style, ok := getAttr(attrs, "style"); ok {
		styleLower := strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(styleLower, "display:none") || strings.Contains(styleLower, "visibility:hidden") {
			return true
		}
	}

	if class, ok := getAttr(attrs, "class"); ok {
		classLower := strings.ToLower(class)

		if (strings.Contains(classLower, "dark:") || strings.Contains(classLower, "light:")) &&
			strings.Contains(classLower, "hidden") {
			return true
		}

		if strings.Contains(classLower, "-dark") || strings.Contains(classLower, "-light") ||
			strings.Contains(classLower, "dark-") || strings.Contains(classLower, "light-") ||
			strings.Contains(classLower, "theme-") {
			if strings.Contains(classLower, "hidden") {
				return true
			}
			if strings.Contains(classLower, "dark") && !strings.Contains(classLower, "light") {
				return true
			}
		}
	}

	for name, value := range attrs {
		dataName, ok := strings.CutPrefix(name, "data-")
		if !ok {
			continue
		}
		if dataName == "theme" || dataName == "mode" || dataName == "color-scheme" {
			if strings.Contains(strings.ToLower(value), "dark") {
				return true
			}
		}
	}

	return false
}
