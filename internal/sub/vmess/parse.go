// Package vmess parses vmess://<base64 JSON> share links.
package vmess

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/John-Robertt/subagg-go/internal/codec"
	"github.com/John-Robertt/subagg-go/internal/model"
)

const Scheme = "vmess://"

// ParseURI parses one vmess:// line. A payload that is not base64 or not a
// JSON object yields ok=false.
func ParseURI(line string) (model.Node, bool) {
	line = strings.TrimSpace(line)
	if len(line) < len(Scheme) || !strings.EqualFold(line[:len(Scheme)], Scheme) {
		return model.Node{}, false
	}
	decoded, ok := codec.DecodeBase64(line[len(Scheme):])
	if !ok {
		return model.Node{}, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(decoded), &obj); err != nil {
		return model.Node{}, false
	}
	return FromObject(obj)
}

// FromObject maps a decoded vmess JSON object (v2rayN layout) to a Node. An
// object without "add" still yields a node; its server stays absent, so its
// key falls back to the name-based form.
func FromObject(obj map[string]any) (model.Node, bool) {
	server := codec.String(obj["add"])
	port := codec.Int(obj["port"])

	name := codec.String(obj["ps"])
	if name == "" {
		host := server
		if host == "" {
			host = "unknown"
		}
		name = fmt.Sprintf("vmess-%s:%d", host, port)
	}
	network := codec.String(obj["net"])
	if network == "" {
		network = "tcp"
	}

	return model.Node{
		Name:   name,
		Type:   model.TypeVMess,
		Server: server,
		Port:   port,
		VMess: &model.VMess{
			UUID:    codec.String(obj["id"]),
			AlterID: codec.Int(obj["aid"]),
			Network: network,
		},
		Raw: obj,
	}, true
}
