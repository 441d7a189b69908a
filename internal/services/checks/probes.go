package checks

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Probe inspects rendered HTML for success and failure indicators
type Probe struct {
	SuccessSelectors []string
	// SuccessText is matched case-insensitively against the visible body text
	SuccessText      string
	FailureSelectors []string
}

// SubmissionProbe looks for the usual flash-message markup after a form submit
var SubmissionProbe = Probe{
	SuccessSelectors: []string{".success", ".alert-success"},
	SuccessText:      "success",
	FailureSelectors: []string{".alert-danger", ".error"},
}

// Evaluate classifies the page. Success selectors win over failure selectors,
// which win over a plain text match.
func (p Probe) Evaluate(html string) (Observation, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Observation{}, fmt.Errorf("failed to parse page content: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	if sel := firstMatch(doc, p.SuccessSelectors); sel != "" {
		return Observation{Signal: SignalSuccess, Detail: sel}, nil
	}

	if sel := firstMatch(doc, p.FailureSelectors); sel != "" {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text == "" {
			text = "error indicator " + sel + " present"
		}
		return Observation{Signal: SignalFailure, Detail: text}, nil
	}

	if p.SuccessText != "" {
		body := strings.ToLower(doc.Find("body").Text())
		if strings.Contains(body, strings.ToLower(p.SuccessText)) {
			return Observation{Signal: SignalSuccess, Detail: "text:" + p.SuccessText}, nil
		}
	}

	return Observation{Signal: SignalNone}, nil
}

func firstMatch(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if doc.Find(sel).Length() > 0 {
			return sel
		}
	}
	return ""
}
