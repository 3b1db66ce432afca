package codec

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeBase64_Alphabets(t *testing.T) {
	plain := `{"add":"1.2.3.4","ps":"节点?>"}`
	for name, enc := range map[string]*base64.Encoding{
		"std":     base64.StdEncoding,
		"url":     base64.URLEncoding,
		"raw-std": base64.RawStdEncoding,
		"raw-url": base64.RawURLEncoding,
	} {
		t.Run(name, func(t *testing.T) {
			got, ok := DecodeBase64(enc.EncodeToString([]byte(plain)))
			assert.True(t, ok)
			assert.Equal(t, plain, got)
		})
	}
}

func TestDecodeBase64_IgnoresLineBreaks(t *testing.T) {
	enc := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("vmess://abc\n", 10)))
	wrapped := enc[:20] + "\r\n" + enc[20:40] + "\n " + enc[40:]
	got, ok := DecodeBase64(wrapped)
	assert.True(t, ok)
	assert.Equal(t, strings.Repeat("vmess://abc\n", 10), got)
}

func TestDecodeBase64_Failures(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"!!!not base64!!!",
		"proxies:\n  - name: a",
		base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0xfd}), // not UTF-8
	}
	for _, in := range tests {
		got, ok := DecodeBase64(in)
		assert.False(t, ok, "input %q", in)
		assert.Empty(t, got)
	}
}

func TestEncodeBase64_RoundTrip(t *testing.T) {
	s := "proxies:\n- name: 回国\n"
	got, ok := DecodeBase64(EncodeBase64(s))
	assert.True(t, ok)
	assert.Equal(t, s, got)
}

func TestTruncate_Runes(t *testing.T) {
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "节点", Truncate("节点名称", 2))
	assert.Equal(t, "", Truncate("abc", 0))
	assert.Equal(t, "ab", Snippet("a\r\nb", 10))
	assert.Equal(t, "x", StripUTF8BOM("\uFEFFx"))
}
