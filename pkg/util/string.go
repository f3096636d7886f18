package util

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	slugPattern     = regexp.MustCompile(`[^a-z0-9]+`)
	headingPattern  = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasisPattern = regexp.MustCompile(`[*_]{1,3}([^*_]+)[*_]{1,3}`)
	linkPattern     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	crlfPattern     = regexp.MustCompile(`\r\n?`)
)

// GenerateSlug creates a URL-friendly slug from a title
func GenerateSlug(title string) string {
	slug := strings.ToLower(title)
	slug = slugPattern.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > 50 {
		slug = slug[:50]
		slug = strings.Trim(slug, "-")
	}

	return slug
}

// FormatMarkdown normalizes generated markdown: unix line endings, no
// leading/trailing whitespace, at most one blank line between blocks.
func FormatMarkdown(s string) string {
	s = crlfPattern.ReplaceAllString(s, "\n")
	s = strings.TrimSpace(s)

	lines := strings.Split(s, "\n")
	var out []string
	blank := false
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}

// Excerpt extracts a plain-text excerpt of at most maxLen characters from
// markdown content, cutting at a word boundary. Cuts always land on a rune
// boundary so the result stays valid UTF-8.
func Excerpt(markdown string, maxLen int) string {
	text := headingPattern.ReplaceAllString(markdown, "")
	text = linkPattern.ReplaceAllString(text, "$1")
	text = emphasisPattern.ReplaceAllString(text, "$1")
	text = strings.Join(strings.Fields(text), " ")

	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}

	cut := string([]rune(text)[:maxLen])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

// Truncate shortens s to at most n characters, appending "..." when content
// was dropped. Cuts land on rune boundaries, never mid-character.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
