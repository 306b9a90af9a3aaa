package compose

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"tags", "<p>hello <b>world</b></p>", "hello world"},
		{"entities", "Tom &amp; Jerry&nbsp;forever", "Tom & Jerry forever"},
		{"style dropped", "<style>p{color:red}</style><p>visible</p>", "visible"},
		{"script dropped", "<script>alert(1)</script>ok", "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeText(stripTags(tt.in)))
		})
	}
}

func TestBodyMatches(t *testing.T) {
	longBody := "<p>" + strings.Repeat("Dear customer, please review the attached purchase order. ", 5) + "</p>"

	t.Run("long body compares on prefix", func(t *testing.T) {
		rendered := strings.Repeat("Dear customer, please review the attached purchase order. ", 2)
		assert.True(t, bodyMatches(rendered, longBody))
	})

	t.Run("long body rejects different text", func(t *testing.T) {
		assert.False(t, bodyMatches("Something else entirely rendered here instead of the message", longBody))
	})

	t.Run("short body accepts matching rendering", func(t *testing.T) {
		assert.True(t, bodyMatches("Hi there", "<p>Hi there</p>"))
	})

	t.Run("short body rejects empty rendering", func(t *testing.T) {
		assert.False(t, bodyMatches("", "<p>Hi there</p>"))
		assert.False(t, bodyMatches("   \n ", "<p>Hi there</p>"))
	})

	t.Run("empty intent always matches", func(t *testing.T) {
		assert.True(t, bodyMatches("whatever", ""))
	})

	t.Run("whitespace differences tolerated", func(t *testing.T) {
		assert.True(t, bodyMatches("Hello   world", "<div>Hello\nworld</div>"))
	})
}
