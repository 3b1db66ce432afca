// Package codec holds the small text codecs shared by every subscription parser.
package codec

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"
)

// Standard alphabet (with padding) first, then URL-safe, then raw (no padding).
var encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.URLEncoding,
	base64.RawStdEncoding,
	base64.RawURLEncoding,
}

// DecodeBase64 decodes s as base64 text. Spaces, tabs and line breaks are
// ignored. ok is false when no alphabet accepts s or the decoded bytes are not
// valid UTF-8.
func DecodeBase64(s string) (string, bool) {
	s = removeSpaceTabCRLF(s)
	if s == "" {
		return "", false
	}
	for _, enc := range encodings {
		b, err := enc.DecodeString(s)
		if err != nil {
			continue
		}
		if !utf8.Valid(b) {
			return "", false
		}
		return string(b), true
	}
	return "", false
}

// EncodeBase64 is the inverse of DecodeBase64 for UTF-8 text.
func EncodeBase64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func removeSpaceTabCRLF(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
