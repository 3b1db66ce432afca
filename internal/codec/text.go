package codec

import "strings"

func StripUTF8BOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}

// Truncate returns at most max runes of s. It never splits a rune.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// Snippet is Truncate with line breaks removed, for single-line diagnostics.
func Snippet(s string, max int) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return Truncate(s, max)
}
