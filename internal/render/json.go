package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/John-Robertt/subagg-go/internal/model"
)

type jsonDoc struct {
	Proxies []jsonProxy `json:"proxies"`
	Groups  []jsonGroup `json:"proxy-groups"`
	Rules   []string    `json:"rules"`
}

// jsonProxy flattens every Node variant into one object. Only the fields the
// node actually carries are emitted, except alterId which is kept at 0 for
// vmess nodes.
type jsonProxy struct {
	Name       string            `json:"name"`
	Type       string            `json:"type"`
	Server     string            `json:"server,omitempty"`
	Port       int               `json:"port,omitempty"`
	UUID       string            `json:"uuid,omitempty"`
	AlterID    *int              `json:"alterId,omitempty"`
	Network    string            `json:"network,omitempty"`
	Cipher     string            `json:"cipher,omitempty"`
	Password   string            `json:"password,omitempty"`
	Plugin     string            `json:"plugin,omitempty"`
	PluginOpts map[string]string `json:"plugin-opts,omitempty"`
	SNI        string            `json:"sni,omitempty"`
	Auth       string            `json:"auth,omitempty"`
	Note       string            `json:"note,omitempty"`
	Raw        map[string]any    `json:"raw,omitempty"`
	Preview    string            `json:"preview,omitempty"`
}

type jsonGroup struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Proxies []string `json:"proxies"`
}

func toJSONProxy(n model.Node) jsonProxy {
	p := jsonProxy{
		Name:    n.Name,
		Type:    string(n.Type),
		Server:  n.Server,
		Port:    n.Port,
		Cipher:  n.Cipher,
		Note:    n.Note,
		Preview: n.Preview,
	}
	if n.Raw != nil {
		p.Raw = jsonSafeMap(n.Raw)
	}
	switch {
	case n.VMess != nil:
		aid := n.VMess.AlterID
		p.UUID = n.VMess.UUID
		p.AlterID = &aid
		p.Network = n.VMess.Network
	case n.Socks != nil:
		p.Auth = n.Socks.Auth
	case n.SS != nil:
		p.Password = n.SS.Password
		p.Plugin = n.SS.Plugin
		if len(n.SS.PluginOpts) > 0 {
			p.PluginOpts = make(map[string]string, len(n.SS.PluginOpts))
			for _, kv := range n.SS.PluginOpts {
				p.PluginOpts[kv.Key] = kv.Value
			}
		}
	case n.Trojan != nil:
		p.Password = n.Trojan.Password
		p.SNI = n.Trojan.SNI
	}
	return p
}

func renderJSON(agg model.Aggregate) (string, error) {
	doc := jsonDoc{
		Proxies: make([]jsonProxy, 0, len(agg.Nodes)),
		Groups:  make([]jsonGroup, 0, len(agg.Groups)),
		Rules:   nonNil(agg.Rules),
	}
	for _, n := range agg.Nodes {
		doc.Proxies = append(doc.Proxies, toJSONProxy(n))
	}
	for _, g := range agg.Groups {
		doc.Groups = append(doc.Groups, jsonGroup{Name: g.Name, Type: g.Type, Proxies: nonNil(g.Proxies)})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", internalError("json 输出生成失败", err)
	}
	return buf.String(), nil
}

// jsonSafeMap rewrites YAML-decoded values so encoding/json accepts them:
// mappings with non-string keys become string-keyed and non-finite floats
// become strings.
func jsonSafeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = jsonSafe(v)
	}
	return out
}

func jsonSafe(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return jsonSafeMap(x)
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, v := range x {
			out[fmt.Sprint(k)] = jsonSafe(v)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, v := range x {
			out[i] = jsonSafe(v)
		}
		return out
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Sprint(x)
		}
		return x
	default:
		return v
	}
}
