package util

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"The Future of Go Concurrency!", "the-future-of-go-concurrency"},
		{"  spaces   everywhere  ", "spaces-everywhere"},
		{"Ünïcödé & symbols", "n-c-d-symbols"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, GenerateSlug(tc.title), "title: %q", tc.title)
	}

	long := GenerateSlug(strings.Repeat("word ", 30))
	assert.LessOrEqual(t, len(long), 50)
	assert.False(t, strings.HasSuffix(long, "-"))
}

func TestFormatMarkdown(t *testing.T) {
	in := "# Title\r\n\r\n\r\n\r\nFirst paragraph.  \r\n\r\nSecond paragraph.\r\n\r\n\r\n"
	want := "# Title\n\nFirst paragraph.\n\nSecond paragraph."
	assert.Equal(t, want, FormatMarkdown(in))

	assert.Equal(t, "plain", FormatMarkdown("  plain  "))
	assert.Equal(t, "", FormatMarkdown("\n\n\n"))
}

func TestExcerpt(t *testing.T) {
	md := "## Heading\n\nSome **bold** text with a [link](https://example.com) inside."
	assert.Equal(t, "Heading Some bold text with a link inside.", Excerpt(md, 300))

	t.Run("cuts at a word boundary", func(t *testing.T) {
		got := Excerpt("alpha beta gamma delta", 12)
		assert.Equal(t, "alpha beta...", got)
	})

	t.Run("short content untouched", func(t *testing.T) {
		assert.Equal(t, "short", Excerpt("short", 300))
	})

	t.Run("multi-byte content stays valid utf-8", func(t *testing.T) {
		got := Excerpt(strings.Repeat("汉字", 100), 50)
		assert.True(t, utf8.ValidString(got))
		assert.Equal(t, strings.Repeat("汉字", 25)+"...", got)

		got = Excerpt("ab "+strings.Repeat("🚀", 100), 40)
		assert.True(t, utf8.ValidString(got))
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exact", Truncate("exact", 5))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklm", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Len(t, Truncate(strings.Repeat("x", 500), 200), 200)

	t.Run("multi-byte content stays valid utf-8", func(t *testing.T) {
		got := Truncate(strings.Repeat("汉", 100), 20)
		assert.True(t, utf8.ValidString(got))
		assert.Equal(t, strings.Repeat("汉", 17)+"...", got)

		assert.True(t, utf8.ValidString(Truncate(strings.Repeat("🚀", 10), 5)))
	})
}
