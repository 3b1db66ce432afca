// Package clash extracts proxies from Clash-style YAML documents.
package clash

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/subagg-go/internal/codec"
	"github.com/John-Robertt/subagg-go/internal/model"
)

// Marker is the substring that routes a document to Parse.
const Marker = "proxies:"

// Parse returns one Node per mapping in the top-level proxies sequence, in
// document order. Malformed YAML or a missing proxies sequence yields nil;
// sequence items that are not mappings are skipped. A mapping with
// non-string keys is kept, its keys stringified.
func Parse(text string) []model.Node {
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(codec.StripUTF8BOM(text)), &doc); err != nil {
		return nil
	}
	items, ok := doc["proxies"].([]any)
	if !ok {
		return nil
	}

	out := make([]model.Node, 0, len(items))
	for _, it := range items {
		switch entry := it.(type) {
		case map[string]any:
			out = append(out, FromEntry(entry))
		case map[any]any:
			out = append(out, FromEntry(stringKeys(entry)))
		}
	}
	return out
}

// FromEntry maps one proxies entry. The entry itself is kept as Raw.
func FromEntry(entry map[string]any) model.Node {
	typ := codec.String(entry["type"])
	server := codec.String(entry["server"])

	name := firstNonEmpty(codec.String(entry["name"]), codec.String(entry["remark"]))
	if name == "" {
		s := server
		if s == "" {
			s = "unknown"
		}
		name = typ + "-" + s
	}

	return model.Node{
		Name:   name,
		Type:   model.Type(typ),
		Server: server,
		Port:   codec.Int(entry["port"]),
		Cipher: firstNonEmpty(
			codec.String(entry["cipher"]),
			codec.String(entry["method"]),
			codec.String(entry["proto"]),
		),
		Raw: entry,
	}
}

// yaml.v3 decodes a mapping as map[any]any when any of its keys is not a
// string.
func stringKeys(m map[any]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[fmt.Sprint(k)] = v
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
