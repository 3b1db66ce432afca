package sub

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/John-Robertt/subagg-go/internal/codec"
	"github.com/John-Robertt/subagg-go/internal/model"
	"github.com/John-Robertt/subagg-go/internal/sub/clash"
	"github.com/John-Robertt/subagg-go/internal/sub/socks"
	"github.com/John-Robertt/subagg-go/internal/sub/ss"
	"github.com/John-Robertt/subagg-go/internal/sub/trojan"
	"github.com/John-Robertt/subagg-go/internal/sub/vmess"
)

const (
	// PreviewRunes bounds the source text kept on a raw passthrough node.
	PreviewRunes = 200

	rawNamePrefix = "raw-src:"
	rawRefRunes   = 256
)

// Parse classifies text and extracts its nodes in source order. It never
// returns an empty slice: a document that yields nothing becomes one raw
// passthrough node.
func Parse(ref, text string) ([]model.Node, Verdict) {
	v := Classify(ref, text)

	var nodes []model.Node
	switch v.Format {
	case FormatStructuredList:
		nodes = clash.Parse(text)
	case FormatURIList:
		nodes = ParseURILines(text)
	case FormatEncoded:
		nodes = parseEncoded(text)
	}

	if len(nodes) == 0 {
		return []model.Node{RawNode(ref, text, v)}, v
	}
	return nodes, v
}

// ParseURILines parses every non-blank line by its own scheme. Lines with an
// unknown scheme or a payload that fails to parse are dropped.
func ParseURILines(text string) []model.Node {
	var out []model.Node
	for _, line := range strings.Split(codec.StripUTF8BOM(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if n, ok := parseURI(line); ok {
			out = append(out, n)
		}
	}
	return out
}

func parseURI(line string) (model.Node, bool) {
	switch schemeOf(line) {
	case vmess.Scheme:
		return vmess.ParseURI(line)
	case socks.Scheme:
		return socks.ParseURI(line)
	case ss.Scheme:
		return ss.ParseURI(line)
	case trojan.Scheme:
		return trojan.ParseURI(line)
	default:
		return model.Node{}, false
	}
}

// parseEncoded handles a base64 body: either a JSON array of node objects, or
// a newline-separated URI list (the usual "base64 subscription").
func parseEncoded(text string) []model.Node {
	decoded, ok := codec.DecodeBase64(strings.TrimSpace(codec.StripUTF8BOM(text)))
	if !ok {
		return nil
	}
	var arr []any
	if err := json.Unmarshal([]byte(decoded), &arr); err == nil {
		return fromArray(arr)
	}
	if schemeOf(strings.TrimSpace(decoded)) != "" {
		return ParseURILines(decoded)
	}
	return nil
}

func fromArray(arr []any) []model.Node {
	out := make([]model.Node, 0, len(arr))
	for _, it := range arr {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		server := firstNonEmpty(codec.String(obj["add"]), codec.String(obj["server"]))
		if server == "" {
			continue
		}
		portVal := obj["port"]
		if codec.String(portVal) == "" {
			portVal = obj["p"]
		}
		port := codec.Int(portVal)

		typ := codec.String(obj["type"])
		if typ == "" {
			typ = string(model.TypeVMess)
		}
		name := firstNonEmpty(codec.String(obj["ps"]), codec.String(obj["name"]))
		if name == "" {
			name = server + ":" + strconv.Itoa(port)
		}
		out = append(out, model.Node{
			Name:   name,
			Type:   model.Type(typ),
			Server: server,
			Port:   port,
			Raw:    obj,
		})
	}
	return out
}

// RawNode is the diagnostic node for a source that produced nothing usable.
func RawNode(ref, text string, v Verdict) model.Node {
	return model.Node{
		Name:    rawNamePrefix + codec.Truncate(ref, rawRefRunes),
		Type:    model.TypeRaw,
		Note:    "unparsed or restricted source (" + v.Name() + ")",
		Preview: codec.Truncate(text, PreviewRunes),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
