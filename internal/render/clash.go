package render

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/subagg-go/internal/model"
)

// Field order of these structs is the key order of the emitted YAML.
type clashDoc struct {
	Proxies []clashProxy `yaml:"proxies"`
	Groups  []clashGroup `yaml:"proxy-groups"`
	Rules   []string     `yaml:"rules"`
}

type clashProxy struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Server string `yaml:"server,omitempty"`
	Port   int    `yaml:"port,omitempty"`
	Cipher string `yaml:"cipher,omitempty"`
	Note   string `yaml:"note,omitempty"`
}

type clashGroup struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Proxies []string `yaml:"proxies"`
}

func renderClash(agg model.Aggregate) (string, error) {
	doc := clashDoc{
		Proxies: make([]clashProxy, 0, len(agg.Nodes)),
		Groups:  make([]clashGroup, 0, len(agg.Groups)),
		Rules:   nonNil(agg.Rules),
	}
	for _, n := range agg.Nodes {
		doc.Proxies = append(doc.Proxies, clashProxy{
			Name:   n.Name,
			Type:   string(n.Type),
			Server: n.Server,
			Port:   n.Port,
			Cipher: n.Cipher,
			Note:   n.Note,
		})
	}
	for _, g := range agg.Groups {
		doc.Groups = append(doc.Groups, clashGroup{Name: g.Name, Type: g.Type, Proxies: nonNil(g.Proxies)})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", internalError("clash 配置生成失败", err)
	}
	if err := enc.Close(); err != nil {
		return "", internalError("clash 配置生成失败", err)
	}
	return buf.String(), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
