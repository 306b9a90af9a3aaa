// Package fragment normalizes raw HTML documents into injectable body
// fragments and performs placeholder substitution for personalized sends.
package fragment

import (
	"fmt"
	"regexp"
	"strings"
)

// Recognized placeholder token spellings. Substitution is literal: an
// unmatched token is left verbatim rather than erroring, so a template with
// no placeholders passes through untouched.
var (
	senderTokens = []string{"{{SENDER_NAME}}", "[SENDER_NAME]"}
	reviewTokens = []string{"{{REVIEW_URL}}", "{{REVIEW_LINK}}", "[REVIEW_URL]"}
)

var (
	bodyRe    = regexp.MustCompile(`(?is)<body[^>]*>(.*)</body>`)
	doctypeRe = regexp.MustCompile(`(?is)<!doctype[^>]*>`)
	headRe    = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	htmlTagRe = regexp.MustCompile(`(?is)</?html[^>]*>`)
)

// ExtractBodyFragment pulls the contents of a body element if present;
// otherwise it strips document/head wrapper tags and leaves the remainder
// unchanged.
func ExtractBodyFragment(rawHTML string) string {
	if m := bodyRe.FindStringSubmatch(rawHTML); m != nil {
		return strings.TrimSpace(m[1])
	}
	out := doctypeRe.ReplaceAllString(rawHTML, "")
	out = headRe.ReplaceAllString(out, "")
	out = htmlTagRe.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// InjectPlaceholders substitutes the recognized sender and review-link
// tokens with caller-supplied values.
func InjectPlaceholders(frag, senderName, reviewURL string) string {
	for _, tok := range senderTokens {
		frag = strings.ReplaceAll(frag, tok, senderName)
	}
	for _, tok := range reviewTokens {
		frag = strings.ReplaceAll(frag, tok, reviewURL)
	}
	return frag
}

// EnsureReviewFallback guarantees the fragment carries at least one
// human-visible absolute link to the review URL. When the URL literal is
// already present the fragment is returned unchanged; otherwise one fallback
// block is appended.
func EnsureReviewFallback(frag, reviewURL string) string {
	if reviewURL == "" || strings.Contains(frag, reviewURL) {
		return frag
	}
	fallback := fmt.Sprintf(
		`<p style="margin-top:16px;font-size:13px;color:#555555">`+
			`If the button above does not work, open this link directly: `+
			`<a href="%s">%s</a></p>`,
		reviewURL, reviewURL)
	return frag + "\n" + fallback
}

// AppendTrackingPixel embeds the 1x1 open-tracking image at the end of the
// fragment.
func AppendTrackingPixel(frag, pixelURL string) string {
	pixel := fmt.Sprintf(
		`<img src="%s" width="1" height="1" style="display:none" alt="">`,
		pixelURL)
	return frag + "\n" + pixel
}
