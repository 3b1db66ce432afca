// Package sub turns one source document into normalized nodes.
//
// Classify picks the format; Parse runs the matching parser and falls back to
// a single raw passthrough node when nothing could be extracted.
package sub

import (
	"strings"

	"github.com/John-Robertt/subagg-go/internal/codec"
	"github.com/John-Robertt/subagg-go/internal/sub/clash"
	"github.com/John-Robertt/subagg-go/internal/sub/socks"
	"github.com/John-Robertt/subagg-go/internal/sub/ss"
	"github.com/John-Robertt/subagg-go/internal/sub/trojan"
	"github.com/John-Robertt/subagg-go/internal/sub/vmess"
)

type Format int

const (
	FormatUnrecognized Format = iota
	FormatStructuredList
	FormatURIList
	FormatEncoded
)

func (f Format) String() string {
	switch f {
	case FormatStructuredList:
		return "structured"
	case FormatURIList:
		return "uri"
	case FormatEncoded:
		return "encoded"
	default:
		return "unrecognized"
	}
}

// Verdict is the outcome of Classify. Scheme is set for FormatURIList only.
type Verdict struct {
	Format Format
	Scheme string
}

// Name is the label used in stats and logs, e.g. "uri:vmess".
func (v Verdict) Name() string {
	if v.Format == FormatURIList && v.Scheme != "" {
		return "uri:" + strings.TrimSuffix(v.Scheme, "://")
	}
	return v.Format.String()
}

// Schemes lists the URI schemes with a line parser, in probe order.
var Schemes = []string{vmess.Scheme, socks.Scheme, ss.Scheme, trojan.Scheme}

// Classify decides how text fetched from ref should be parsed. The checks run
// in a fixed order and the first match wins:
//
//  1. text contains "proxies:"                     -> FormatStructuredList
//  2. ref or trimmed text starts with a known URI  -> FormatURIList
//  3. whole text is valid base64 of UTF-8          -> FormatEncoded
//  4. anything else                                -> FormatUnrecognized
func Classify(ref, text string) Verdict {
	if strings.Contains(text, clash.Marker) {
		return Verdict{Format: FormatStructuredList}
	}
	trimmed := strings.TrimSpace(codec.StripUTF8BOM(text))
	if s := schemeOf(ref); s != "" {
		return Verdict{Format: FormatURIList, Scheme: s}
	}
	if s := schemeOf(trimmed); s != "" {
		return Verdict{Format: FormatURIList, Scheme: s}
	}
	if _, ok := codec.DecodeBase64(trimmed); ok {
		return Verdict{Format: FormatEncoded}
	}
	return Verdict{Format: FormatUnrecognized}
}

func schemeOf(s string) string {
	for _, scheme := range Schemes {
		if hasPrefixFold(s, scheme) {
			return scheme
		}
	}
	return ""
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
