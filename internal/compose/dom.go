package compose

import (
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// clickElement scrolls an element into view and left-clicks it.
func clickElement(el *rod.Element) error {
	if err := el.ScrollIntoView(); err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// findFirst resolves the first selector that matches under root, retrying
// the whole lookup until timeout. Elements routinely disappear mid-operation
// as webmail UIs rerender; a stale reference here means "locate again", not
// "fail".
func findFirst(root *rod.Element, selectors []string, timeout time.Duration) (*rod.Element, bool) {
	deadline := time.Now().Add(timeout)
	for {
		for _, sel := range selectors {
			el, err := root.Timeout(400 * time.Millisecond).Element(sel)
			if err != nil {
				continue
			}
			return el, true
		}
		if time.Now().After(deadline) {
			return nil, false
		}
		time.Sleep(150 * time.Millisecond)
	}
}

// findFirstOnPage is findFirst scoped to the whole document.
func findFirstOnPage(pg *rod.Page, selectors []string, timeout time.Duration) (*rod.Element, bool) {
	deadline := time.Now().Add(timeout)
	for {
		for _, sel := range selectors {
			el, err := pg.Timeout(400 * time.Millisecond).Element(sel)
			if err != nil {
				continue
			}
			return el, true
		}
		if time.Now().After(deadline) {
			return nil, false
		}
		time.Sleep(150 * time.Millisecond)
	}
}

// visibleFileInput prefers a visible file input but settles for any.
func visibleFileInput(pg *rod.Page, root *rod.Element) (*rod.Element, bool) {
	var candidates []*rod.Element
	if root != nil {
		if els, err := root.Elements(`input[type="file"]`); err == nil {
			candidates = append(candidates, els...)
		}
	}
	if len(candidates) == 0 {
		if els, err := pg.Elements(`input[type="file"]`); err == nil {
			candidates = append(candidates, els...)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	for _, el := range candidates {
		if visible, err := el.Visible(); err == nil && visible {
			return el, true
		}
	}
	return candidates[0], true
}

// elementHTML reads outer markup, tolerating a vanished element.
func elementHTML(el *rod.Element) string {
	html, err := el.HTML()
	if err != nil {
		return ""
	}
	return html
}

// pageHasText reports whether the rendered document currently contains the
// literal text.
func pageHasText(pg *rod.Page, text string) bool {
	body, err := pg.Timeout(2 * time.Second).Element("body")
	if err != nil {
		return false
	}
	content, err := body.Text()
	if err != nil {
		return false
	}
	return strings.Contains(content, text)
}
