package markdown

import "testing"

func TestAriaHiddenElementsAlwaysFiltered(t *testing.T) {
	attrs := map[string]string{"aria-hidden": "true", "class": "icon"}
	if !isWidgetElement(attrs) {
		t.Fatal("aria-hidden=true element must be filtered")
	}
	if !isWidgetElementWithContext(attrs, "td") {
		t.Fatal("aria-hidden=true must be filtered even in table-cell context")
	}
}

func TestSrOnlyPreservedInsideTableCell(t *testing.T) {
	attrs := map[string]string{"class": "sr-only"}
	if isWidgetElementWithContext(attrs, "td") {
		t.Fatal("sr-only span inside <td> must be preserved")
	}
	if isWidgetElementWithContext(attrs, "th") {
		t.Fatal("sr-only span inside <th> must be preserved")
	}
	if !isWidgetElement(attrs) {
		t.Fatal("sr-only outside table context is still filtered by isWidgetElement directly")
	}
}

func TestInteractiveWidgetFilteredEvenInTableCell(t *testing.T) {
	attrs := map[string]string{"class": "copy-button"}
	if !isWidgetElementWithContext(attrs, "td") {
		t.Fatal("interactive copy-button widget must be filtered even inside a table cell")
	}
}

func TestThemeVariantImagePrefersLight(t *testing.T) {
	dark := map[string]string{"class": "logo-dark"}
	light := map[string]string{"class": "logo-light"}
	if !isThemeVariantImage(dark) {
		t.Fatal("dark variant should be filtered")
	}
	if isThemeVariantImage(light) {
		t.Fatal("light variant should be kept")
	}
}
