package fragment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const fullDoc = `<!DOCTYPE html>
<html>
<head><title>Review</title><style>p{margin:0}</style></head>
<body class="msg">
  <p>Hello from {{SENDER_NAME}},</p>
  <p><a href="{{REVIEW_URL}}">Review the document</a></p>
</body>
</html>`

func TestExtractBodyFragment(t *testing.T) {
	t.Run("with body element", func(t *testing.T) {
		frag := ExtractBodyFragment(fullDoc)
		assert.NotContains(t, frag, "<body")
		assert.NotContains(t, frag, "<head")
		assert.NotContains(t, frag, "DOCTYPE")
		assert.Contains(t, frag, "Hello from {{SENDER_NAME}}")
	})

	t.Run("without body element strips wrappers", func(t *testing.T) {
		raw := `<!DOCTYPE html><html><head><meta charset="utf-8"></head><div>content</div></html>`
		frag := ExtractBodyFragment(raw)
		assert.Equal(t, "<div>content</div>", frag)
	})

	t.Run("bare fragment passes through", func(t *testing.T) {
		assert.Equal(t, "<p>hi</p>", ExtractBodyFragment("<p>hi</p>"))
	})
}

func TestInjectPlaceholdersRoundTrip(t *testing.T) {
	frag := ExtractBodyFragment(fullDoc)
	out := InjectPlaceholders(frag, "Alice", "https://x/y")

	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "https://x/y")
	assert.NotContains(t, out, "{{SENDER_NAME}}")
	assert.NotContains(t, out, "{{REVIEW_URL}}")
}

func TestInjectPlaceholdersVariants(t *testing.T) {
	in := `[SENDER_NAME] / {{SENDER_NAME}} / {{REVIEW_LINK}} / [REVIEW_URL]`
	out := InjectPlaceholders(in, "Bob", "https://r.example.com")
	assert.Equal(t, "Bob / Bob / https://r.example.com / https://r.example.com", out)
}

func TestInjectPlaceholdersLeavesUnknownTokens(t *testing.T) {
	in := `{{SOMETHING_ELSE}} stays`
	assert.Equal(t, in, InjectPlaceholders(in, "Alice", "https://x/y"))
}

func TestEnsureReviewFallback(t *testing.T) {
	url := "https://review.example.com/doc/1"

	t.Run("no-op when url present", func(t *testing.T) {
		in := `<a href="` + url + `">go</a>`
		assert.Equal(t, in, EnsureReviewFallback(in, url))
	})

	t.Run("appends exactly one block", func(t *testing.T) {
		out := EnsureReviewFallback("<p>no link here</p>", url)
		assert.Equal(t, 2, strings.Count(out, url), "href plus visible text")
		assert.Contains(t, out, `<a href="`+url+`">`)
		assert.True(t, strings.HasPrefix(out, "<p>no link here</p>"))

		// Idempotent: a second pass sees the url and leaves it alone.
		assert.Equal(t, out, EnsureReviewFallback(out, url))
	})

	t.Run("empty url is a no-op", func(t *testing.T) {
		assert.Equal(t, "<p>x</p>", EnsureReviewFallback("<p>x</p>", ""))
	})
}

func TestAppendTrackingPixel(t *testing.T) {
	out := AppendTrackingPixel("<p>msg</p>", "https://t.example.com/track?id=abc")
	assert.Contains(t, out, `src="https://t.example.com/track?id=abc"`)
	assert.Contains(t, out, `width="1" height="1"`)
	assert.Contains(t, out, `display:none`)
}
