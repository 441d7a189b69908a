package models

import "strings"

// Locator selects elements on the current page: a CSS query, optionally
// narrowed to elements whose text contains one of Texts (case-insensitive)
// and to elements that are rendered.
type Locator struct {
	CSS         string
	Texts       []string
	VisibleOnly bool
}

// ByCSS locates every element matching a CSS selector
func ByCSS(css string) Locator {
	return Locator{CSS: css}
}

// ByText locates elements matching css whose text contains any of texts
func ByText(css string, texts ...string) Locator {
	return Locator{CSS: css, Texts: texts}
}

// Visible locates rendered elements matching css
func Visible(css string) Locator {
	return Locator{CSS: css, VisibleOnly: true}
}

// MatchesText reports whether text satisfies the locator's text filter
func (l Locator) MatchesText(text string) bool {
	if len(l.Texts) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, t := range l.Texts {
		if strings.Contains(lower, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// String renders the locator for logs and error messages
func (l Locator) String() string {
	var b strings.Builder
	b.WriteString(l.CSS)
	if len(l.Texts) > 0 {
		b.WriteString(` has-text("`)
		b.WriteString(strings.Join(l.Texts, `"|"`))
		b.WriteString(`")`)
	}
	if l.VisibleOnly {
		b.WriteString(" :visible")
	}
	return b.String()
}
